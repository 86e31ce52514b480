package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"jee-solver/internal/constants"
	"jee-solver/internal/models"
	"jee-solver/internal/questionbank"
	"jee-solver/internal/session"
	"jee-solver/pkg/logger"
)

const explanationFanOut = 4

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidMode     = errors.New("unsupported quiz mode")
	ErrSubjectRequired = errors.New("subject is required")
)

type QuizBackend interface {
	session.Backend
	GenerateQuiz(ctx context.Context, subject, mode, topic string) (*models.Quiz, error)
	Topics(ctx context.Context, subject string) ([]string, error)
}

type HandoffStore interface {
	session.HandoffStore
	Put(ctx context.Context, quiz *models.Quiz) (string, error)
}

type QuestionBank interface {
	Years(subject string) ([]int, error)
	Questions(subject string, year int) ([]questionbank.Entry, error)
}

type QuizServiceConfig struct {
	RequestTimeout time.Duration
	TickInterval   time.Duration
}

// QuizService prepares quizzes and keeps the registry of live sessions.
type QuizService struct {
	backend    QuizBackend
	handoffs   HandoffStore
	bank       QuestionBank
	bookmarks  session.BookmarkStore
	finalizer  session.Finalizer
	notifier   session.Notifier
	dispatcher session.Submitter
	cfg        QuizServiceConfig
	log        *logger.Logger

	mu       sync.RWMutex
	sessions map[string]*session.Controller
}

func NewQuizService(
	backend QuizBackend,
	handoffs HandoffStore,
	bank QuestionBank,
	bookmarks session.BookmarkStore,
	finalizer session.Finalizer,
	notifier session.Notifier,
	dispatcher session.Submitter,
	cfg QuizServiceConfig,
	log *logger.Logger,
) *QuizService {
	if log == nil {
		log = logger.Nop()
	}
	return &QuizService{
		backend:    backend,
		handoffs:   handoffs,
		bank:       bank,
		bookmarks:  bookmarks,
		finalizer:  finalizer,
		notifier:   notifier,
		dispatcher: dispatcher,
		cfg:        cfg,
		log:        log.With("service", "QuizService"),
		sessions:   make(map[string]*session.Controller),
	}
}

type GenerateRequest struct {
	Subject string
	Mode    string
	Topic   string
}

func (s *QuizService) Topics(ctx context.Context, subject string) ([]string, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, ErrSubjectRequired
	}
	return s.backend.Topics(ctx, subject)
}

// Generate asks the AI backend for a quiz and parks it in the handoff store.
func (s *QuizService) Generate(ctx context.Context, req GenerateRequest) (string, *models.Quiz, error) {
	if strings.TrimSpace(req.Subject) == "" {
		return "", nil, ErrSubjectRequired
	}
	switch req.Mode {
	case constants.ModeQuick, constants.ModeFull, constants.ModePYQ, constants.ModeCoaching:
		if req.Topic == "" {
			req.Topic = "random"
		}
	case constants.ModeTopic:
		if req.Topic == "" {
			return "", nil, fmt.Errorf("%w: topic mode needs a topic", ErrInvalidMode)
		}
	default:
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidMode, req.Mode)
	}

	quiz, err := s.backend.GenerateQuiz(ctx, req.Subject, req.Mode, req.Topic)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate quiz: %w", err)
	}
	if quiz.Subject == "" {
		quiz.Subject = req.Subject
	}
	if quiz.Mode == "" {
		quiz.Mode = req.Mode
	}
	if quiz.Topic == "" {
		quiz.Topic = req.Topic
	}
	return s.park(ctx, quiz)
}

func (s *QuizService) BankYears(subject string) ([]int, error) {
	return s.bank.Years(subject)
}

// LoadBank builds a quiz from the local question bank. Explanations are
// generated up front, a few at a time.
func (s *QuizService) LoadBank(ctx context.Context, subject string, year int) (string, *models.Quiz, error) {
	entries, err := s.bank.Questions(subject, year)
	if err != nil {
		return "", nil, err
	}

	questions := make([]models.Question, len(entries))
	for i, e := range entries {
		questions[i] = models.Question{
			ID:            e.ID,
			Text:          e.Question,
			Options:       e.Options,
			CorrectAnswer: e.CorrectAnswer,
			Hint:          constants.BankHint,
			Subject:       subject,
			Topic:         e.Topic,
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(explanationFanOut)
	for i := range questions {
		q := &questions[i]
		g.Go(func() error {
			text := s.backend.FetchExplanation(gctx, models.ExplanationRequest{
				Question:      q.Text,
				Options:       q.Options,
				CorrectAnswer: q.CorrectAnswer,
			})
			if text == constants.ExplanationFallback {
				text = fmt.Sprintf("The correct answer is %s.", q.CorrectAnswer)
			}
			q.Explanation = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", nil, err
	}

	quiz := &models.Quiz{
		Title:     fmt.Sprintf("%s %d Questions", subject, year),
		Subject:   subject,
		Mode:      constants.ModeJSON,
		Topic:     fmt.Sprintf("json_%d", year),
		Questions: questions,
	}
	return s.park(ctx, quiz)
}

func (s *QuizService) park(ctx context.Context, quiz *models.Quiz) (string, *models.Quiz, error) {
	if err := quiz.Validate(); err != nil {
		return "", nil, err
	}
	quiz.ApplyDefaults()
	id, err := s.handoffs.Put(ctx, quiz)
	if err != nil {
		return "", nil, fmt.Errorf("failed to store quiz handoff: %w", err)
	}
	return id, quiz, nil
}

// StartSession consumes the handoff and starts the countdown. A failed load
// leaves nothing in the registry.
func (s *QuizService) StartSession(ctx context.Context, handoffID string, user models.Identity) (*session.Controller, error) {
	id := uuid.New().String()
	ctrl := session.New(id, session.Deps{
		Backend:        s.backend,
		Bookmarks:      s.bookmarks,
		Finalizer:      s.finalizer,
		Notifier:       s.notifier,
		Dispatcher:     s.dispatcher,
		Logger:         s.log,
		OnClose:        s.remove,
		RequestTimeout: s.cfg.RequestTimeout,
		TickInterval:   s.cfg.TickInterval,
	})
	if err := ctrl.Load(ctx, s.handoffs, handoffID, user); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[id] = ctrl
	s.mu.Unlock()

	ctrl.Start()
	s.log.Info("quiz session started", "session_id", id, "user_id", user.UserID)
	return ctrl, nil
}

// Session returns a live session owned by user.
func (s *QuizService) Session(id string, user models.Identity) (*session.Controller, error) {
	s.mu.RLock()
	ctrl, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if ctrl.User().UserID != user.UserID {
		return nil, ErrForbidden
	}
	return ctrl, nil
}

func (s *QuizService) Abandon(id string, user models.Identity) error {
	ctrl, err := s.Session(id, user)
	if err != nil {
		return err
	}
	ctrl.Abandon()
	return nil
}

func (s *QuizService) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Shutdown abandons every live session.
func (s *QuizService) Shutdown() {
	s.mu.RLock()
	live := make([]*session.Controller, 0, len(s.sessions))
	for _, ctrl := range s.sessions {
		live = append(live, ctrl)
	}
	s.mu.RUnlock()

	for _, ctrl := range live {
		ctrl.Abandon()
	}
}

func (s *QuizService) remove(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}
