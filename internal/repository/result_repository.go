package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"jee-solver/internal/models"
)

type ResultRepository struct {
	db *sql.DB
}

func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

const resultColumns = `id, user_id, quiz_title, subject, difficulty, mode, total_questions,
	correct_answers, accuracy, time_spent_sec, started_at, completed_at, questions`

func (r *ResultRepository) Create(ctx context.Context, res *models.QuizResult) error {
	questions, err := json.Marshal(res.Questions)
	if err != nil {
		return fmt.Errorf("failed to marshal questions: %w", err)
	}

	query := `
		INSERT INTO quiz_results (` + resultColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = r.db.ExecContext(ctx, query,
		res.ID,
		res.UserID,
		res.QuizTitle,
		res.Subject,
		res.Difficulty,
		res.Mode,
		res.TotalQuestions,
		res.CorrectAnswers,
		res.Accuracy,
		res.TimeSpentSec,
		res.StartedAt,
		res.CompletedAt,
		string(questions),
	)
	if err != nil {
		return fmt.Errorf("failed to insert quiz result: %w", err)
	}
	return nil
}

func (r *ResultRepository) GetByID(ctx context.Context, id string) (*models.QuizResult, error) {
	query := `SELECT ` + resultColumns + ` FROM quiz_results WHERE id = $1`
	res, err := scanResult(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz result: %w", err)
	}
	return res, nil
}

func (r *ResultRepository) Latest(ctx context.Context, userID string) (*models.QuizResult, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM quiz_results
		WHERE user_id = $1
		ORDER BY completed_at DESC
		LIMIT 1
	`
	res, err := scanResult(r.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest quiz result: %w", err)
	}
	return res, nil
}

// ListByUser returns the user's results, newest first.
func (r *ResultRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.QuizResult, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM quiz_results
		WHERE user_id = $1
		ORDER BY completed_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list quiz results: %w", err)
	}
	defer rows.Close()

	var out []models.QuizResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quiz result: %w", err)
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanResult(row rowScanner) (*models.QuizResult, error) {
	res := &models.QuizResult{}
	var questions []byte
	err := row.Scan(
		&res.ID,
		&res.UserID,
		&res.QuizTitle,
		&res.Subject,
		&res.Difficulty,
		&res.Mode,
		&res.TotalQuestions,
		&res.CorrectAnswers,
		&res.Accuracy,
		&res.TimeSpentSec,
		&res.StartedAt,
		&res.CompletedAt,
		&questions,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questions, &res.Questions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions: %w", err)
	}
	return res, nil
}
