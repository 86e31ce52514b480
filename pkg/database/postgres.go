package database

import (
	"context"
	"database/sql"
	"fmt"

	"jee-solver/config"

	_ "github.com/lib/pq"
)

type PostgresClient struct {
	db     *sql.DB
	config *config.DBConfig
}

func NewPostgresClient(cfg *config.DBConfig) (*PostgresClient, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{
		db:     db,
		config: cfg,
	}, nil
}

func (c *PostgresClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *PostgresClient) GetDB() *sql.DB {
	return c.db
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *PostgresClient) InitSchema(ctx context.Context) error {
	for _, stmt := range []struct {
		table string
		ddl   string
	}{
		{"quiz_results", createQuizResultsTable},
		{"user_progress", createUserProgressTable},
		{"user_bookmarks", createUserBookmarksTable},
		{"questions", createQuestionsTable},
	} {
		if _, err := c.db.ExecContext(ctx, stmt.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", stmt.table, err)
		}
	}
	return nil
}

const createQuizResultsTable = `
	CREATE TABLE IF NOT EXISTS quiz_results (
		id VARCHAR(64) PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		quiz_title VARCHAR(255) NOT NULL,
		subject VARCHAR(100) NOT NULL,
		difficulty VARCHAR(50) NOT NULL DEFAULT '',
		mode VARCHAR(50) NOT NULL DEFAULT '',
		total_questions INTEGER NOT NULL,
		correct_answers INTEGER NOT NULL,
		accuracy INTEGER NOT NULL,
		time_spent_sec INTEGER NOT NULL DEFAULT 0,
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		questions JSONB NOT NULL DEFAULT '[]'
	);
	CREATE INDEX IF NOT EXISTS idx_quiz_results_user_completed ON quiz_results(user_id, completed_at DESC);
`

const createUserProgressTable = `
	CREATE TABLE IF NOT EXISTS user_progress (
		user_id VARCHAR(255) PRIMARY KEY,
		total_questions INTEGER NOT NULL DEFAULT 0,
		correct_answers INTEGER NOT NULL DEFAULT 0,
		accuracy INTEGER NOT NULL DEFAULT 0,
		quiz_attempts INTEGER NOT NULL DEFAULT 0,
		subjects JSONB NOT NULL DEFAULT '{}',
		topics JSONB NOT NULL DEFAULT '{}',
		last_updated TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
`

const createUserBookmarksTable = `
	CREATE TABLE IF NOT EXISTS user_bookmarks (
		user_id VARCHAR(255) PRIMARY KEY,
		bookmarks JSONB NOT NULL DEFAULT '{}',
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
`

const createQuestionsTable = `
	CREATE TABLE IF NOT EXISTS questions (
		id VARCHAR(64) PRIMARY KEY,
		text TEXT NOT NULL,
		options JSONB NOT NULL,
		correct_answer TEXT NOT NULL,
		hint TEXT NOT NULL DEFAULT '',
		explanation TEXT NOT NULL DEFAULT '',
		subject VARCHAR(100) NOT NULL,
		topic VARCHAR(255) NOT NULL DEFAULT '',
		difficulty VARCHAR(50) NOT NULL DEFAULT '',
		year INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_questions_subject ON questions(subject);
`
