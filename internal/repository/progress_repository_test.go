package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"jee-solver/internal/models"
)

// recordingDriver logs every statement it sees and answers the progress
// SELECT with a freshly seeded row.
type recordingDriver struct {
	mu         sync.Mutex
	statements []string
	committed  bool
}

func (d *recordingDriver) record(query string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statements = append(d.statements, strings.Join(strings.Fields(query), " "))
}

func (d *recordingDriver) Open(string) (driver.Conn, error) {
	return &recordingConn{d: d}, nil
}

type recordingConn struct {
	d *recordingDriver
}

func (c *recordingConn) Prepare(query string) (driver.Stmt, error) {
	return &recordingStmt{d: c.d, query: query}, nil
}

func (c *recordingConn) Close() error { return nil }

func (c *recordingConn) Begin() (driver.Tx, error) {
	return &recordingTx{d: c.d}, nil
}

type recordingTx struct {
	d *recordingDriver
}

func (t *recordingTx) Commit() error {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	t.d.committed = true
	return nil
}

func (t *recordingTx) Rollback() error { return nil }

type recordingStmt struct {
	d     *recordingDriver
	query string
}

func (s *recordingStmt) Close() error  { return nil }
func (s *recordingStmt) NumInput() int { return -1 }

func (s *recordingStmt) Exec([]driver.Value) (driver.Result, error) {
	s.d.record(s.query)
	return driver.RowsAffected(1), nil
}

func (s *recordingStmt) Query(args []driver.Value) (driver.Rows, error) {
	s.d.record(s.query)
	return &seededRow{userID: args[0]}, nil
}

type seededRow struct {
	userID driver.Value
	done   bool
}

func (r *seededRow) Columns() []string {
	return []string{"user_id", "total_questions", "correct_answers", "accuracy", "quiz_attempts", "subjects", "topics", "last_updated"}
}

func (r *seededRow) Close() error { return nil }

func (r *seededRow) Next(dest []driver.Value) error {
	if r.done {
		return io.EOF
	}
	r.done = true
	dest[0] = r.userID
	dest[1], dest[2], dest[3], dest[4] = int64(0), int64(0), int64(0), int64(0)
	dest[5] = []byte("{}")
	dest[6] = []byte("{}")
	dest[7] = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	return nil
}

var recorder = &recordingDriver{}

func init() {
	sql.Register("progress-recorder", recorder)
}

func TestApplySeedsRowBeforeLocking(t *testing.T) {
	rec := recorder
	rec.mu.Lock()
	rec.statements, rec.committed = nil, false
	rec.mu.Unlock()

	db, err := sql.Open("progress-recorder", "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var seen *models.ProgressSummary
	repo := NewProgressRepository(db)
	next, err := repo.Apply(context.Background(), "u1", func(prev *models.ProgressSummary) *models.ProgressSummary {
		seen = prev
		return &models.ProgressSummary{TotalQuestions: 2, CorrectAnswers: 1, Accuracy: 50, QuizAttempts: 1}
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if next.UserID != "u1" {
		t.Fatalf("user id not set: %+v", next)
	}
	if seen == nil || seen.QuizAttempts != 0 || seen.TotalQuestions != 0 {
		t.Fatalf("first merge should start from the seeded zero row: %+v", seen)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.statements) != 3 {
		t.Fatalf("statements: %v", rec.statements)
	}
	if !strings.Contains(rec.statements[0], "ON CONFLICT (user_id) DO NOTHING") {
		t.Fatalf("first statement should seed the row: %s", rec.statements[0])
	}
	if !strings.Contains(rec.statements[1], "FOR UPDATE") {
		t.Fatalf("second statement should lock the row: %s", rec.statements[1])
	}
	if !strings.Contains(rec.statements[2], "DO UPDATE") {
		t.Fatalf("third statement should store the merge: %s", rec.statements[2])
	}
	if !rec.committed {
		t.Fatalf("transaction not committed")
	}
}
