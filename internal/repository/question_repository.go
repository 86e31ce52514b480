package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"jee-solver/internal/models"
)

// QuestionRepository stores question bank entries.
type QuestionRepository struct {
	db *sql.DB
}

func NewQuestionRepository(db *sql.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

const questionColumns = `id, text, options, correct_answer, hint, explanation, subject, topic, difficulty, year, created_at, updated_at`

func (r *QuestionRepository) Create(ctx context.Context, q *models.StoredQuestion) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt

	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("failed to marshal options: %w", err)
	}

	query := `
		INSERT INTO questions (` + questionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.db.ExecContext(ctx, query,
		q.ID,
		q.Text,
		string(options),
		q.CorrectAnswer,
		q.Hint,
		q.Explanation,
		q.Subject,
		q.Topic,
		q.Difficulty,
		q.Year,
		q.CreatedAt,
		q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert question: %w", err)
	}
	return nil
}

func (r *QuestionRepository) Get(ctx context.Context, id string) (*models.StoredQuestion, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`
	q, err := scanQuestion(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return q, nil
}

// List returns questions for subject, or every question when subject is empty.
func (r *QuestionRepository) List(ctx context.Context, subject string, limit, offset int) ([]models.StoredQuestion, error) {
	query := `
		SELECT ` + questionColumns + `
		FROM questions
		WHERE ($1 = '' OR subject = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, subject, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	out := []models.StoredQuestion{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

func (r *QuestionRepository) Update(ctx context.Context, q *models.StoredQuestion) error {
	q.UpdatedAt = time.Now()
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("failed to marshal options: %w", err)
	}

	query := `
		UPDATE questions
		SET text = $1, options = $2, correct_answer = $3, hint = $4, explanation = $5,
			subject = $6, topic = $7, difficulty = $8, year = $9, updated_at = $10
		WHERE id = $11
	`
	result, err := r.db.ExecContext(ctx, query,
		q.Text,
		string(options),
		q.CorrectAnswer,
		q.Hint,
		q.Explanation,
		q.Subject,
		q.Topic,
		q.Difficulty,
		q.Year,
		q.UpdatedAt,
		q.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	return expectOneRow(result)
}

func (r *QuestionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	return expectOneRow(result)
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanQuestion(row rowScanner) (*models.StoredQuestion, error) {
	q := &models.StoredQuestion{}
	var options []byte
	err := row.Scan(
		&q.ID,
		&q.Text,
		&options,
		&q.CorrectAnswer,
		&q.Hint,
		&q.Explanation,
		&q.Subject,
		&q.Topic,
		&q.Difficulty,
		&q.Year,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(options, &q.Options); err != nil {
		return nil, fmt.Errorf("failed to unmarshal options: %w", err)
	}
	return q, nil
}
