package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/memopad/memopad/internal/model"
)

// Common errors for memo repository operations.
var (
	ErrMemoNotFound   = errors.New("memo not found")
	ErrUnscopedFilter = errors.New("memo filter must constrain id or owner")
	ErrUnknownOwner   = errors.New("memo owner does not exist")
)

const memoColumns = "id, owner_id, title, content, created_at, updated_at"

// MemoFilter is a conjunction of equality predicates.
// Empty fields are not constrained; a filter with no fields is rejected.
type MemoFilter struct {
	ID      string
	OwnerID string
}

// MemoPatch holds the mutable memo fields.
type MemoPatch struct {
	Title     string
	Content   string
	UpdatedAt time.Time
}

// IsEmpty reports whether the filter constrains nothing.
func (f MemoFilter) IsEmpty() bool {
	return f.ID == "" && f.OwnerID == ""
}

// Matches reports whether a memo satisfies the filter.
func (f MemoFilter) Matches(m *model.Memo) bool {
	if f.IsEmpty() {
		return false
	}
	if f.ID != "" && m.ID != f.ID {
		return false
	}
	if f.OwnerID != "" && m.OwnerID != f.OwnerID {
		return false
	}
	return true
}

// where renders the filter as a SQL predicate with placeholders numbered from argIndex.
func (f MemoFilter) where(argIndex int) (string, []any) {
	var clauses []string
	var args []any

	if f.ID != "" {
		clauses = append(clauses, fmt.Sprintf("id = $%d", argIndex))
		args = append(args, f.ID)
		argIndex++
	}
	if f.OwnerID != "" {
		clauses = append(clauses, fmt.Sprintf("owner_id = $%d", argIndex))
		args = append(args, f.OwnerID)
	}

	return strings.Join(clauses, " AND "), args
}

// InsertMemo inserts a new memo into the database.
func (r *Repository) InsertMemo(ctx context.Context, memo *model.Memo) error {
	query := `
		INSERT INTO memos (id, owner_id, title, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		memo.ID,
		memo.OwnerID,
		memo.Title,
		memo.Content,
		memo.CreatedAt,
		memo.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUnknownOwner
		}
		return fmt.Errorf("failed to insert memo: %w", err)
	}

	return nil
}

// FindMemos returns every memo matching the filter, newest first.
func (r *Repository) FindMemos(ctx context.Context, filter MemoFilter) ([]*model.Memo, error) {
	if filter.IsEmpty() {
		return nil, ErrUnscopedFilter
	}

	where, args := filter.where(1)
	query := "SELECT " + memoColumns + " FROM memos WHERE " + where + " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find memos: %w", err)
	}
	defer rows.Close()

	memos := make([]*model.Memo, 0)
	for rows.Next() {
		memo, err := scanMemo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan memo: %w", err)
		}
		memos = append(memos, memo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memos: %w", err)
	}

	return memos, nil
}

// FindMemo returns the first memo matching the filter.
// Returns ErrMemoNotFound when nothing matches.
func (r *Repository) FindMemo(ctx context.Context, filter MemoFilter) (*model.Memo, error) {
	if filter.IsEmpty() {
		return nil, ErrUnscopedFilter
	}

	where, args := filter.where(1)
	query := "SELECT " + memoColumns + " FROM memos WHERE " + where + " LIMIT 1"

	memo, err := scanMemo(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemoNotFound
		}
		return nil, fmt.Errorf("failed to find memo: %w", err)
	}

	return memo, nil
}

// UpdateMemos applies the patch to every memo matching the filter
// and returns the number of rows changed.
// updated_at never moves behind created_at.
func (r *Repository) UpdateMemos(ctx context.Context, filter MemoFilter, patch MemoPatch) (int64, error) {
	if filter.IsEmpty() {
		return 0, ErrUnscopedFilter
	}

	where, args := filter.where(4)
	query := "UPDATE memos SET title = $1, content = $2, updated_at = GREATEST($3, created_at) WHERE " + where

	result, err := r.db.Exec(ctx, query, append([]any{patch.Title, patch.Content, patch.UpdatedAt}, args...)...)
	if err != nil {
		return 0, fmt.Errorf("failed to update memos: %w", err)
	}

	return result.RowsAffected(), nil
}

// DeleteMemos removes every memo matching the filter
// and returns the number of rows removed.
func (r *Repository) DeleteMemos(ctx context.Context, filter MemoFilter) (int64, error) {
	if filter.IsEmpty() {
		return 0, ErrUnscopedFilter
	}

	where, args := filter.where(1)
	query := "DELETE FROM memos WHERE " + where

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete memos: %w", err)
	}

	return result.RowsAffected(), nil
}

// scanMemo scans a single row into a Memo model.
func scanMemo(row pgx.Row) (*model.Memo, error) {
	var memo model.Memo
	err := row.Scan(
		&memo.ID,
		&memo.OwnerID,
		&memo.Title,
		&memo.Content,
		&memo.CreatedAt,
		&memo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &memo, nil
}
