package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"jee-solver/internal/models"
)

type ProgressRepository struct {
	db *sql.DB
}

func NewProgressRepository(db *sql.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

func (r *ProgressRepository) Get(ctx context.Context, userID string) (*models.ProgressSummary, error) {
	query := `
		SELECT user_id, total_questions, correct_answers, accuracy, quiz_attempts, subjects, topics, last_updated
		FROM user_progress
		WHERE user_id = $1
	`
	summary, err := scanProgress(r.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return summary, nil
}

// Apply loads the user's summary under a row lock, passes it to fn and stores
// what fn returns. A first-time user gets a zero row inserted before the lock
// is taken, so concurrent first merges serialize on it.
func (r *ProgressRepository) Apply(ctx context.Context, userID string, fn func(prev *models.ProgressSummary) *models.ProgressSummary) (*models.ProgressSummary, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	seed := `
		INSERT INTO user_progress (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, seed, userID); err != nil {
		return nil, fmt.Errorf("failed to seed progress: %w", err)
	}

	query := `
		SELECT user_id, total_questions, correct_answers, accuracy, quiz_attempts, subjects, topics, last_updated
		FROM user_progress
		WHERE user_id = $1
		FOR UPDATE
	`
	prev, err := scanProgress(tx.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		prev = nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	next := fn(prev)
	next.UserID = userID

	subjects, err := json.Marshal(next.Subjects)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal subjects: %w", err)
	}
	topics, err := json.Marshal(next.Topics)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal topics: %w", err)
	}

	upsert := `
		INSERT INTO user_progress (user_id, total_questions, correct_answers, accuracy, quiz_attempts, subjects, topics, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			total_questions = EXCLUDED.total_questions,
			correct_answers = EXCLUDED.correct_answers,
			accuracy = EXCLUDED.accuracy,
			quiz_attempts = EXCLUDED.quiz_attempts,
			subjects = EXCLUDED.subjects,
			topics = EXCLUDED.topics,
			last_updated = EXCLUDED.last_updated
	`
	_, err = tx.ExecContext(ctx, upsert,
		next.UserID,
		next.TotalQuestions,
		next.CorrectAnswers,
		next.Accuracy,
		next.QuizAttempts,
		string(subjects),
		string(topics),
		next.LastUpdated,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert progress: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit progress: %w", err)
	}
	return next, nil
}

func scanProgress(row rowScanner) (*models.ProgressSummary, error) {
	s := &models.ProgressSummary{}
	var subjects, topics []byte
	err := row.Scan(
		&s.UserID,
		&s.TotalQuestions,
		&s.CorrectAnswers,
		&s.Accuracy,
		&s.QuizAttempts,
		&subjects,
		&topics,
		&s.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(subjects, &s.Subjects); err != nil {
		return nil, fmt.Errorf("failed to unmarshal subjects: %w", err)
	}
	if err := json.Unmarshal(topics, &s.Topics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal topics: %w", err)
	}
	return s, nil
}
