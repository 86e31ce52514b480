package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"jee-solver/internal/models"
	"jee-solver/pkg/logger"
	"jee-solver/pkg/validator"
)

const (
	defaultQuestionPage = 20
	maxQuestionPage     = 100
)

var ErrInvalidQuestion = errors.New("invalid question")

type QuestionStore interface {
	Create(ctx context.Context, q *models.StoredQuestion) error
	Get(ctx context.Context, id string) (*models.StoredQuestion, error)
	List(ctx context.Context, subject string, limit, offset int) ([]models.StoredQuestion, error)
	Update(ctx context.Context, q *models.StoredQuestion) error
	Delete(ctx context.Context, id string) error
}

type QuestionService struct {
	repo QuestionStore
	log  *logger.Logger
}

func NewQuestionService(repo QuestionStore, log *logger.Logger) *QuestionService {
	if log == nil {
		log = logger.Nop()
	}
	return &QuestionService{repo: repo, log: log.With("service", "QuestionService")}
}

func (s *QuestionService) Create(ctx context.Context, q *models.StoredQuestion) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if err := checkQuestion(q); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, q); err != nil {
		return err
	}
	s.log.Info("question created", "question_id", q.ID, "subject", q.Subject)
	return nil
}

func (s *QuestionService) Get(ctx context.Context, id string) (*models.StoredQuestion, error) {
	return s.repo.Get(ctx, id)
}

func (s *QuestionService) List(ctx context.Context, subject string, limit, offset int) ([]models.StoredQuestion, error) {
	if limit <= 0 {
		limit = defaultQuestionPage
	}
	if limit > maxQuestionPage {
		limit = maxQuestionPage
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, strings.TrimSpace(subject), limit, offset)
}

func (s *QuestionService) Update(ctx context.Context, q *models.StoredQuestion) error {
	if err := checkQuestion(q); err != nil {
		return err
	}
	return s.repo.Update(ctx, q)
}

func (s *QuestionService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func checkQuestion(q *models.StoredQuestion) error {
	if err := validator.Struct(&q.Question); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuestion, err)
	}
	if !q.HasOption(q.CorrectAnswer) {
		return fmt.Errorf("%w: correct answer is not one of the options", ErrInvalidQuestion)
	}
	return nil
}
