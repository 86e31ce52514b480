package models

import (
	"fmt"
	"time"

	"jee-solver/internal/constants"
	"jee-solver/pkg/validator"
)

type Question struct {
	ID            string   `json:"id" validate:"required"`
	Text          string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"min=2,unique,dive,required"`
	CorrectAnswer string   `json:"correct_answer" validate:"required"`
	Hint          string   `json:"hint,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
	Subject       string   `json:"subject,omitempty"`
	Topic         string   `json:"topic,omitempty"`
}

// HasOption reports whether option is one of the question's options verbatim.
func (q *Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// Quiz is the payload handed from quiz setup to a session.
type Quiz struct {
	Title       string     `json:"quiz_title"`
	Subject     string     `json:"subject"`
	Mode        string     `json:"mode,omitempty"`
	Topic       string     `json:"topic,omitempty"`
	Difficulty  string     `json:"difficulty,omitempty"`
	DurationSec int        `json:"duration_sec,omitempty" validate:"gte=0"`
	Questions   []Question `json:"questions" validate:"min=1,dive"`
}

func (q *Quiz) Validate() error {
	if err := validator.Struct(q); err != nil {
		return fmt.Errorf("invalid quiz: %w", err)
	}
	seen := make(map[string]struct{}, len(q.Questions))
	for i := range q.Questions {
		question := &q.Questions[i]
		if _, dup := seen[question.ID]; dup {
			return fmt.Errorf("invalid quiz: duplicate question id %q", question.ID)
		}
		seen[question.ID] = struct{}{}
		if !question.HasOption(question.CorrectAnswer) {
			return fmt.Errorf("invalid quiz: correct answer of question %q is not one of its options", question.ID)
		}
	}
	return nil
}

// ApplyDefaults fills in fields older payloads may omit.
func (q *Quiz) ApplyDefaults() {
	if q.Title == "" {
		q.Title = constants.DefaultQuizTitle
	}
	if q.Difficulty == "" {
		q.Difficulty = constants.DefaultDifficulty
	}
	if q.DurationSec <= 0 {
		q.DurationSec = constants.DefaultDurationSec
	}
}

type AnswerRecord struct {
	Selected   string    `json:"selected"`
	IsCorrect  bool      `json:"is_correct"`
	AnsweredAt time.Time `json:"answered_at"`
}

type BookmarkDetail struct {
	QuestionID    string    `json:"question_id"`
	Question      string    `json:"question"`
	Options       []string  `json:"options"`
	CorrectAnswer string    `json:"correct_answer"`
	Hint          string    `json:"hint"`
	Subject       string    `json:"subject"`
	Topic         string    `json:"topic"`
	BookmarkedAt  time.Time `json:"bookmarked_at"`
}

type QuestionDetail struct {
	QuestionID    string   `json:"question_id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	UserAnswer    string   `json:"user_answer"`
	CorrectAnswer string   `json:"correct_answer"`
	IsCorrect     bool     `json:"is_correct"`
	Hint          string   `json:"hint"`
	Subject       string   `json:"subject"`
	Topic         string   `json:"topic"`
}

type QuizResult struct {
	ID             string           `json:"id"`
	UserID         string           `json:"user_id,omitempty"`
	QuizTitle      string           `json:"quiz_title"`
	Subject        string           `json:"subject"`
	Difficulty     string           `json:"difficulty"`
	Mode           string           `json:"mode,omitempty"`
	TotalQuestions int              `json:"total_questions"`
	CorrectAnswers int              `json:"correct_answers"`
	Accuracy       int              `json:"accuracy"`
	TimeSpentSec   int              `json:"time_spent_sec"`
	StartedAt      time.Time        `json:"started_at"`
	CompletedAt    time.Time        `json:"completed_at"`
	Questions      []QuestionDetail `json:"questions"`
}

// CategoryStat is a running (correct, total) pair. Percentages are derived on read.
type CategoryStat struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
}

type ProgressSummary struct {
	UserID         string                             `json:"user_id"`
	TotalQuestions int                                `json:"total_questions"`
	CorrectAnswers int                                `json:"correct_answers"`
	Accuracy       int                                `json:"accuracy"`
	QuizAttempts   int                                `json:"quiz_attempts"`
	Subjects       map[string]CategoryStat            `json:"subjects"`
	Topics         map[string]map[string]CategoryStat `json:"topics"`
	LastUpdated    time.Time                          `json:"last_updated"`
}

type TopicScore struct {
	Topic    string `json:"topic"`
	Accuracy int    `json:"accuracy"`
	Total    int    `json:"total"`
}

type ProgressView struct {
	ProgressSummary
	SubjectAccuracy map[string]int          `json:"subject_accuracy"`
	TopicAccuracy   map[string][]TopicScore `json:"topic_accuracy"`
}

// StoredQuestion is a question bank entry.
type StoredQuestion struct {
	Question
	Difficulty string    `json:"difficulty,omitempty"`
	Year       int       `json:"year,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type DoubtResult struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Status      string `json:"status"`
	ObjectName  string `json:"object_name"`
	Solution    string `json:"solution,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
}

// Identity is the caller as established by the auth middleware. An empty
// UserID means an anonymous session.
type Identity struct {
	UserID string
	Email  string
}

func (i Identity) IsAnonymous() bool {
	return i.UserID == ""
}

type ExplanationRequest struct {
	Question      string
	Options       []string
	CorrectAnswer string
	UserAnswer    string
}

type ProgressRecord struct {
	QuestionID   string
	IsCorrect    bool
	IsBookmarked bool
}
