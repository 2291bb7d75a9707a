// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/memopad/memopad/internal/metrics"
	"github.com/memopad/memopad/internal/model"
	"github.com/memopad/memopad/internal/repository"
)

const (
	maxTitleLength   = 200
	maxContentLength = 100000
)

// MemoStore is the owner-scoped record store behind MemoService.
type MemoStore interface {
	InsertMemo(ctx context.Context, memo *model.Memo) error
	FindMemos(ctx context.Context, filter repository.MemoFilter) ([]*model.Memo, error)
	FindMemo(ctx context.Context, filter repository.MemoFilter) (*model.Memo, error)
	UpdateMemos(ctx context.Context, filter repository.MemoFilter, patch repository.MemoPatch) (int64, error)
	DeleteMemos(ctx context.Context, filter repository.MemoFilter) (int64, error)
}

// MemoInput carries the client-writable memo fields.
// A nil Content is stored as "".
type MemoInput struct {
	Title   string  `json:"title" validate:"required,notblank,nonul,max=200"`
	Content *string `json:"content" validate:"omitempty,nonul,max=100000"`
}

// ListMemosInput narrows a listing.
type ListMemosInput struct {
	// Query is a case-insensitive substring matched against title and content.
	Query string
}

// MemoService handles memo business logic.
// Every operation is scoped to the principal it is given.
type MemoService struct {
	store   MemoStore
	metrics metrics.Recorder
	now     func() time.Time
}

// NewMemoService creates a new MemoService.
func NewMemoService(store MemoStore, recorder metrics.Recorder) *MemoService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &MemoService{
		store:   store,
		metrics: recorder,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// CreateMemo creates a memo owned by the principal.
func (s *MemoService) CreateMemo(ctx context.Context, principal *model.Principal, input MemoInput) (*model.Memo, error) {
	if principal == nil || principal.ID == "" {
		return nil, ErrUnauthorized
	}

	title, content, err := normalizeMemoInput(input)
	if err != nil {
		return nil, err
	}

	now := s.now()
	memo := &model.Memo{
		ID:        ulid.Make().String(),
		OwnerID:   principal.ID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.InsertMemo(ctx, memo); err != nil {
		if errors.Is(err, repository.ErrUnknownOwner) {
			// The account was removed while its session was still cached.
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to create memo: %w", err)
	}

	s.metrics.IncMemoCreated()

	return memo, nil
}

// ListMemos returns the principal's memos, newest first.
// No memos yields an empty slice.
func (s *MemoService) ListMemos(ctx context.Context, principal *model.Principal, input ListMemosInput) ([]*model.Memo, error) {
	if principal == nil || principal.ID == "" {
		return nil, ErrUnauthorized
	}

	memos, err := s.store.FindMemos(ctx, repository.MemoFilter{OwnerID: principal.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to list memos: %w", err)
	}

	query := strings.ToLower(strings.TrimSpace(input.Query))
	if query == "" {
		return memos, nil
	}

	matched := make([]*model.Memo, 0, len(memos))
	for _, m := range memos {
		if strings.Contains(strings.ToLower(m.Title), query) || strings.Contains(strings.ToLower(m.Content), query) {
			matched = append(matched, m)
		}
	}

	return matched, nil
}

// UpdateMemo replaces title and content of the principal's memo.
// A memo that does not exist and one owned by someone else both yield ErrMemoNotFound.
func (s *MemoService) UpdateMemo(ctx context.Context, principal *model.Principal, id string, input MemoInput) (*model.Memo, error) {
	if principal == nil || principal.ID == "" {
		return nil, ErrUnauthorized
	}

	title, content, err := normalizeMemoInput(input)
	if err != nil {
		return nil, err
	}

	if id == "" {
		s.metrics.IncMemoNotFound()
		return nil, ErrMemoNotFound
	}

	filter := repository.MemoFilter{ID: id, OwnerID: principal.ID}
	patch := repository.MemoPatch{Title: title, Content: content, UpdatedAt: s.now()}

	n, err := s.store.UpdateMemos(ctx, filter, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update memo: %w", err)
	}
	if n == 0 {
		s.metrics.IncMemoNotFound()
		return nil, ErrMemoNotFound
	}

	memo, err := s.store.FindMemo(ctx, filter)
	if err != nil {
		if errors.Is(err, repository.ErrMemoNotFound) {
			// Deleted between the update and the read.
			s.metrics.IncMemoNotFound()
			return nil, ErrMemoNotFound
		}
		return nil, fmt.Errorf("failed to reload memo: %w", err)
	}

	s.metrics.IncMemoUpdated()

	return memo, nil
}

// DeleteMemo removes the principal's memo.
// A memo that does not exist and one owned by someone else both yield ErrMemoNotFound.
func (s *MemoService) DeleteMemo(ctx context.Context, principal *model.Principal, id string) error {
	if principal == nil || principal.ID == "" {
		return ErrUnauthorized
	}

	if id == "" {
		s.metrics.IncMemoNotFound()
		return ErrMemoNotFound
	}

	n, err := s.store.DeleteMemos(ctx, repository.MemoFilter{ID: id, OwnerID: principal.ID})
	if err != nil {
		return fmt.Errorf("failed to delete memo: %w", err)
	}
	if n == 0 {
		s.metrics.IncMemoNotFound()
		return ErrMemoNotFound
	}

	s.metrics.IncMemoDeleted()

	return nil
}

// normalizeMemoInput validates both fields and defaults content.
// The title is stored as sent; only its trimmed form must be non-empty.
func normalizeMemoInput(input MemoInput) (string, string, error) {
	if err := validateStruct(input); err != nil {
		return "", "", err
	}

	content := ""
	if input.Content != nil {
		content = *input.Content
	}

	return input.Title, content, nil
}
