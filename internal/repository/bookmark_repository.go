package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"jee-solver/internal/models"
)

// BookmarkRepository keeps one JSONB document per user, keyed by question id.
type BookmarkRepository struct {
	db *sql.DB
}

func NewBookmarkRepository(db *sql.DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

func (r *BookmarkRepository) AddBookmark(ctx context.Context, userID string, detail models.BookmarkDetail) error {
	payload, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("failed to marshal bookmark: %w", err)
	}

	query := `
		INSERT INTO user_bookmarks (user_id, bookmarks, updated_at)
		VALUES ($1, jsonb_build_object($2::text, $3::jsonb), CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE SET
			bookmarks = user_bookmarks.bookmarks || jsonb_build_object($2::text, $3::jsonb),
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := r.db.ExecContext(ctx, query, userID, detail.QuestionID, string(payload)); err != nil {
		return fmt.Errorf("failed to add bookmark: %w", err)
	}
	return nil
}

func (r *BookmarkRepository) RemoveBookmark(ctx context.Context, userID, questionID string) error {
	query := `
		UPDATE user_bookmarks
		SET bookmarks = bookmarks - $2::text, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID, questionID); err != nil {
		return fmt.Errorf("failed to remove bookmark: %w", err)
	}
	return nil
}

// List returns the user's bookmarks, most recent first.
func (r *BookmarkRepository) List(ctx context.Context, userID string) ([]models.BookmarkDetail, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `SELECT bookmarks FROM user_bookmarks WHERE user_id = $1`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []models.BookmarkDetail{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmarks: %w", err)
	}
	return decodeBookmarks(raw)
}

func decodeBookmarks(raw []byte) ([]models.BookmarkDetail, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bookmarks: %w", err)
	}
	out := make([]models.BookmarkDetail, 0, len(doc))
	for questionID, entry := range doc {
		var detail models.BookmarkDetail
		// older documents may hold a bare boolean flag instead of the detail
		if err := json.Unmarshal(entry, &detail); err != nil || detail.Question == "" {
			continue
		}
		detail.QuestionID = questionID
		out = append(out, detail)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BookmarkedAt.Equal(out[j].BookmarkedAt) {
			return out[i].BookmarkedAt.After(out[j].BookmarkedAt)
		}
		return out[i].QuestionID < out[j].QuestionID
	})
	return out, nil
}
