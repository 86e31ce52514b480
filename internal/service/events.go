package service

import (
	"context"
	"errors"
	"time"
)

// ErrMalformedEvent marks a message that can never be processed.
var ErrMalformedEvent = errors.New("malformed event")

type RabbitMQPublisher interface {
	Publish(ctx context.Context, queueName string, body []byte) error
}

type ResultsReadyEvent struct {
	ResultID       string    `json:"result_id"`
	UserID         string    `json:"user_id"`
	Email          string    `json:"email,omitempty"`
	QuizTitle      string    `json:"quiz_title"`
	Subject        string    `json:"subject"`
	CorrectAnswers int       `json:"correct_answers"`
	TotalQuestions int       `json:"total_questions"`
	Accuracy       int       `json:"accuracy"`
	CompletedAt    time.Time `json:"completed_at"`
}

type PDFAssessmentEvent struct {
	DoubtID     string    `json:"doubt_id"`
	UserID      string    `json:"user_id"`
	Bucket      string    `json:"bucket"`
	ObjectName  string    `json:"object_name"`
	Filename    string    `json:"filename"`
	SubmittedAt time.Time `json:"submitted_at"`
}
