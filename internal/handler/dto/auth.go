package dto

import (
	"time"

	"github.com/memopad/memopad/internal/model"
)

// SignUpRequest represents the request body for creating an account.
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// SignInRequest represents the request body for credential sign-in.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse represents an account in API responses.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// SignInResponse is returned after a successful sign-in.
type SignInResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// SessionResponse describes the current session.
// Both fields are omitted when there is no session.
type SessionResponse struct {
	User    *UserResponse `json:"user,omitempty"`
	Expires *time.Time    `json:"expires,omitempty"`
}

// SignInPageResponse describes the sign-in entry point.
type SignInPageResponse struct {
	Page        string `json:"page"`
	SignInURL   string `json:"signInUrl"`
	SignUpURL   string `json:"signUpUrl"`
	CallbackURL string `json:"callbackUrl,omitempty"`
}

// ToUserResponse converts a Principal to UserResponse DTO.
func ToUserResponse(p *model.Principal) UserResponse {
	return UserResponse{ID: p.ID, Email: p.Email, Name: p.Name}
}
