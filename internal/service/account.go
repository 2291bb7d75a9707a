package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/memopad/memopad/internal/auth"
	"github.com/memopad/memopad/internal/metrics"
	"github.com/memopad/memopad/internal/model"
	"github.com/memopad/memopad/internal/repository"
)

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// SignUpInput defines input for creating an account.
type SignUpInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name" validate:"nonul,max=100"`
}

// SignInInput defines input for credential sign-in.
type SignInInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AccountService handles sign-up and credential checks.
type AccountService struct {
	users   UserStore
	metrics metrics.Recorder
	now     func() time.Time
	params  auth.PasswordParams

	dummyOnce sync.Once
	dummyHash string
}

// NewAccountService creates a new AccountService.
func NewAccountService(users UserStore, recorder metrics.Recorder) *AccountService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AccountService{
		users:   users,
		metrics: recorder,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		params:  auth.DefaultPasswordParams,
	}
}

// SignUp creates an account with a hashed password.
func (s *AccountService) SignUp(ctx context.Context, input SignUpInput) (*model.User, error) {
	input.Email = normalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	hash, err := s.params.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.IncSignUp()

	return user, nil
}

// Authenticate checks credentials and returns the account.
// Unknown email and wrong password are indistinguishable.
func (s *AccountService) Authenticate(ctx context.Context, input SignInInput) (*model.User, error) {
	input.Email = normalizeEmail(input.Email)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Spend the same hashing time as a real check.
			_, _ = auth.VerifyPassword(input.Password, s.placeholderHash())
			s.metrics.IncSignIn("failed")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	ok, err := auth.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.metrics.IncSignIn("failed")
		return nil, ErrInvalidCredentials
	}

	if auth.NeedsRehash(user.PasswordHash, s.params) {
		// A failed upgrade leaves the old hash in place; it still verifies.
		if hash, err := s.params.Hash(input.Password); err == nil {
			if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err == nil {
				user.PasswordHash = hash
			}
		}
	}

	s.metrics.IncSignIn("success")

	return user, nil
}

func (s *AccountService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.params.Hash(ulid.Make().String())
	})
	return s.dummyHash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
