package service

import (
	"context"
	"encoding/json"
	"fmt"

	"jee-solver/pkg/email"
	"jee-solver/pkg/logger"
	"jee-solver/pkg/validator"
)

type Mailer interface {
	SendQuizResults(to string, summary email.QuizSummary) error
}

type NotificationService struct {
	mailer Mailer
	log    *logger.Logger
}

func NewNotificationService(mailer Mailer, log *logger.Logger) *NotificationService {
	if log == nil {
		log = logger.Nop()
	}
	return &NotificationService{mailer: mailer, log: log.With("service", "NotificationService")}
}

// HandleQuizResultsReady emails the score summary. Events without a usable
// address are acknowledged and dropped.
func (s *NotificationService) HandleQuizResultsReady(ctx context.Context, body []byte) error {
	var event ResultsReadyEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if event.Email == "" {
		s.log.Debug("no email for results_ready, skipping", "result_id", event.ResultID)
		return nil
	}
	if err := validator.ValidateEmail(event.Email); err != nil {
		s.log.Warn("invalid email on results_ready", "result_id", event.ResultID, "error", err)
		return nil
	}

	err := s.mailer.SendQuizResults(event.Email, email.QuizSummary{
		QuizTitle:      event.QuizTitle,
		Subject:        event.Subject,
		CorrectAnswers: event.CorrectAnswers,
		TotalQuestions: event.TotalQuestions,
		Accuracy:       event.Accuracy,
	})
	if err != nil {
		return fmt.Errorf("failed to send results email: %w", err)
	}
	s.log.Info("results email sent", "result_id", event.ResultID, "user_id", event.UserID)
	return nil
}
