package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/memopad/memopad/internal/model"
	"github.com/memopad/memopad/internal/repository"
)

// MemoryStore is an in-memory record store with the same scoped,
// atomic semantics as the Postgres repository.
type MemoryStore struct {
	mu    sync.Mutex
	memos map[string]model.Memo
	users map[string]model.User

	// Err, when set, is returned by every call.
	Err error
	// AfterUpdate runs after a successful scoped update, outside the lock.
	AfterUpdate func()
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		memos: make(map[string]model.Memo),
		users: make(map[string]model.User),
	}
}

// InsertMemo stores a copy of memo.
func (s *MemoryStore) InsertMemo(_ context.Context, memo *model.Memo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.memos[memo.ID] = *memo
	return nil
}

// FindMemos returns copies of matching memos, newest first.
func (s *MemoryStore) FindMemos(_ context.Context, filter repository.MemoFilter) ([]*model.Memo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if filter.IsEmpty() {
		return nil, repository.ErrUnscopedFilter
	}

	out := make([]*model.Memo, 0)
	for _, m := range s.memos {
		if filter.Matches(&m) {
			memo := m
			out = append(out, &memo)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	return out, nil
}

// FindMemo returns the first matching memo.
func (s *MemoryStore) FindMemo(ctx context.Context, filter repository.MemoFilter) (*model.Memo, error) {
	memos, err := s.FindMemos(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(memos) == 0 {
		return nil, repository.ErrMemoNotFound
	}
	return memos[0], nil
}

// UpdateMemos patches every matching memo and returns the count.
func (s *MemoryStore) UpdateMemos(_ context.Context, filter repository.MemoFilter, patch repository.MemoPatch) (int64, error) {
	s.mu.Lock()
	if s.Err != nil {
		s.mu.Unlock()
		return 0, s.Err
	}
	if filter.IsEmpty() {
		s.mu.Unlock()
		return 0, repository.ErrUnscopedFilter
	}

	var n int64
	for id, m := range s.memos {
		if !filter.Matches(&m) {
			continue
		}
		m.Title = patch.Title
		m.Content = patch.Content
		m.UpdatedAt = patch.UpdatedAt
		if m.UpdatedAt.Before(m.CreatedAt) {
			m.UpdatedAt = m.CreatedAt
		}
		s.memos[id] = m
		n++
	}
	hook := s.AfterUpdate
	s.mu.Unlock()

	if n > 0 && hook != nil {
		hook()
	}
	return n, nil
}

// DeleteMemos removes every matching memo and returns the count.
func (s *MemoryStore) DeleteMemos(_ context.Context, filter repository.MemoFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	if filter.IsEmpty() {
		return 0, repository.ErrUnscopedFilter
	}

	var n int64
	for id, m := range s.memos {
		if filter.Matches(&m) {
			delete(s.memos, id)
			n++
		}
	}
	return n, nil
}

// MemoCount returns the number of stored memos.
func (s *MemoryStore) MemoCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.memos)
}

// Memo returns a copy of the stored memo with the given ID.
func (s *MemoryStore) Memo(id string) (model.Memo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memos[id]
	return m, ok
}

// CreateUser stores a user, rejecting duplicate emails.
func (s *MemoryStore) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}
	s.users[user.ID] = *user
	return nil
}

// GetUserByID returns a copy of the user with the given ID.
func (s *MemoryStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

// GetUserByEmail returns a copy of the user with the given email.
func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// UpdatePasswordHash replaces the stored hash of a user.
func (s *MemoryStore) UpdatePasswordHash(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = hash
	s.users[id] = u
	return nil
}

// DeleteUser removes a user and, like the foreign key, their memos.
func (s *MemoryStore) DeleteUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	for memoID, m := range s.memos {
		if m.OwnerID == id {
			delete(s.memos, memoID)
		}
	}
}
