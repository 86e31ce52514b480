package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"jee-solver/internal/analytics"
	"jee-solver/internal/constants"
	"jee-solver/internal/models"
	"jee-solver/internal/repository"
	"jee-solver/internal/results"
	"jee-solver/pkg/logger"
)

var (
	ErrNotFound  = repository.ErrNotFound
	ErrForbidden = errors.New("forbidden")
)

type ResultStore interface {
	Create(ctx context.Context, res *models.QuizResult) error
	GetByID(ctx context.Context, id string) (*models.QuizResult, error)
	Latest(ctx context.Context, userID string) (*models.QuizResult, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.QuizResult, error)
}

type ProgressStore interface {
	Get(ctx context.Context, userID string) (*models.ProgressSummary, error)
	Apply(ctx context.Context, userID string, fn func(prev *models.ProgressSummary) *models.ProgressSummary) (*models.ProgressSummary, error)
}

// ResultService finalizes sessions and serves result history and progress.
type ResultService struct {
	results        ResultStore
	progress       ProgressStore
	publisher      RabbitMQPublisher
	log            *logger.Logger
	topicThreshold int
	now            func() time.Time
}

func NewResultService(resultStore ResultStore, progressStore ProgressStore, publisher RabbitMQPublisher, topicThreshold int, log *logger.Logger) *ResultService {
	if log == nil {
		log = logger.Nop()
	}
	if topicThreshold <= 0 {
		topicThreshold = constants.DefaultTopicThreshold
	}
	return &ResultService{
		results:        resultStore,
		progress:       progressStore,
		publisher:      publisher,
		log:            log.With("service", "ResultService"),
		topicThreshold: topicThreshold,
		now:            time.Now,
	}
}

// Finalize computes the result and makes a best-effort attempt to persist
// it. Persistence failures are logged; the computed result is always returned.
func (s *ResultService) Finalize(ctx context.Context, user models.Identity, in results.Input) (*models.QuizResult, error) {
	if in.ResultID == "" {
		in.ResultID = uuid.New().String()
	}
	in.UserID = user.UserID

	res, err := results.Compute(in)
	if err != nil {
		return nil, err
	}

	if user.IsAnonymous() {
		s.log.Info("anonymous session, skipping result persistence", "result_id", res.ID)
		return res, nil
	}

	stored := true
	if err := s.results.Create(ctx, res); err != nil {
		stored = false
		s.log.Error("failed to save quiz result", "user_id", user.UserID, "result_id", res.ID, "error", err)
	}
	if _, err := s.progress.Apply(ctx, user.UserID, func(prev *models.ProgressSummary) *models.ProgressSummary {
		return results.Merge(prev, res)
	}); err != nil {
		s.log.Error("failed to update progress summary", "user_id", user.UserID, "result_id", res.ID, "error", err)
	}
	// The event links to the stored result.
	if stored {
		s.publishResultsReady(ctx, user, res)
	}

	return res, nil
}

func (s *ResultService) publishResultsReady(ctx context.Context, user models.Identity, res *models.QuizResult) {
	if s.publisher == nil {
		return
	}
	event := ResultsReadyEvent{
		ResultID:       res.ID,
		UserID:         user.UserID,
		Email:          user.Email,
		QuizTitle:      res.QuizTitle,
		Subject:        res.Subject,
		CorrectAnswers: res.CorrectAnswers,
		TotalQuestions: res.TotalQuestions,
		Accuracy:       res.Accuracy,
		CompletedAt:    res.CompletedAt,
	}
	body, err := json.Marshal(event)
	if err != nil {
		s.log.Error("failed to marshal results_ready event", "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, constants.QueueResultsReady, body); err != nil {
		s.log.Warn("failed to publish results_ready event", "result_id", res.ID, "error", err)
	}
}

func (s *ResultService) Latest(ctx context.Context, userID string) (*models.QuizResult, error) {
	return s.results.Latest(ctx, userID)
}

func (s *ResultService) Get(ctx context.Context, userID, resultID string) (*models.QuizResult, error) {
	res, err := s.results.GetByID(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return nil, ErrForbidden
	}
	return res, nil
}

func (s *ResultService) History(ctx context.Context, userID string, limit int) ([]models.QuizResult, error) {
	if limit <= 0 || limit > constants.AnalyticsHistoryLimit {
		limit = constants.AnalyticsHistoryLimit
	}
	list, err := s.results.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.QuizResult{}
	}
	return list, nil
}

// Progress returns the stored summary with derived percentages. A user with
// no attempts gets an empty view.
func (s *ResultService) Progress(ctx context.Context, userID string) (*models.ProgressView, error) {
	summary, err := s.progress.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		summary = &models.ProgressSummary{
			UserID:   userID,
			Subjects: map[string]models.CategoryStat{},
			Topics:   map[string]map[string]models.CategoryStat{},
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	return results.View(summary, s.topicThreshold), nil
}

func (s *ResultService) Analytics(ctx context.Context, userID string) (*analytics.Report, error) {
	history, err := s.results.ListByUser(ctx, userID, constants.AnalyticsHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return analytics.Build(history, s.now()), nil
}
