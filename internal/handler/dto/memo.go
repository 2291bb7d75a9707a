package dto

import (
	"time"

	"github.com/memopad/memopad/internal/model"
)

// MemoRequest represents the request body for creating or updating a memo.
// Any owner field a client sends is ignored.
type MemoRequest struct {
	Title   string  `json:"title"`
	Content *string `json:"content"`
}

// MemoResponse represents a memo in API responses.
type MemoResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToMemoResponse converts a Memo model to MemoResponse DTO.
func ToMemoResponse(memo *model.Memo) MemoResponse {
	return MemoResponse{
		ID:        memo.ID,
		Title:     memo.Title,
		Content:   memo.Content,
		CreatedAt: memo.CreatedAt,
		UpdatedAt: memo.UpdatedAt,
	}
}

// ToMemoListResponse converts memos to a JSON array; never null.
func ToMemoListResponse(memos []*model.Memo) []MemoResponse {
	out := make([]MemoResponse, 0, len(memos))
	for _, m := range memos {
		out = append(out, ToMemoResponse(m))
	}
	return out
}
