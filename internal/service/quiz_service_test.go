package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"jee-solver/internal/constants"
	"jee-solver/internal/models"
	"jee-solver/internal/questionbank"
	"jee-solver/internal/session"
)

func generatedQuiz() *models.Quiz {
	return &models.Quiz{
		Title: "Physics Quick Quiz",
		Questions: []models.Question{
			{ID: "1", Text: "Unit of force?", Options: []string{"Newton", "Joule"}, CorrectAnswer: "Newton", Topic: "Units"},
		},
	}
}

func newTestQuizService(backend *fakeBackend, handoffs *memoryHandoffs) *QuizService {
	finalizer := NewResultService(&fakeResultStore{}, newFakeProgressStore(), nil, 3, nil)
	svc := NewQuizService(
		backend,
		handoffs,
		&fakeBank{},
		nil,
		finalizer,
		nil,
		inlineSubmitter{},
		QuizServiceConfig{RequestTimeout: time.Second, TickInterval: time.Hour},
		nil,
	)
	return svc
}

func TestGenerateValidatesMode(t *testing.T) {
	svc := newTestQuizService(&fakeBackend{quiz: generatedQuiz()}, newMemoryHandoffs())
	ctx := context.Background()

	if _, _, err := svc.Generate(ctx, GenerateRequest{Subject: "Physics", Mode: "speedrun"}); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
	if _, _, err := svc.Generate(ctx, GenerateRequest{Subject: "Physics", Mode: constants.ModeTopic}); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("topic mode without topic: expected ErrInvalidMode, got %v", err)
	}
	if _, _, err := svc.Generate(ctx, GenerateRequest{Mode: constants.ModeQuick}); !errors.Is(err, ErrSubjectRequired) {
		t.Fatalf("expected ErrSubjectRequired, got %v", err)
	}
}

func TestGenerateParksQuiz(t *testing.T) {
	backend := &fakeBackend{quiz: generatedQuiz()}
	handoffs := newMemoryHandoffs()
	svc := newTestQuizService(backend, handoffs)

	id, quiz, err := svc.Generate(context.Background(), GenerateRequest{Subject: "Physics", Mode: constants.ModeQuick})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if backend.lastGenerate != [3]string{"Physics", constants.ModeQuick, "random"} {
		t.Fatalf("unexpected upstream args: %v", backend.lastGenerate)
	}
	if quiz.Subject != "Physics" || quiz.Mode != constants.ModeQuick {
		t.Fatalf("subject/mode not filled: %+v", quiz)
	}
	if quiz.DurationSec != constants.DefaultDurationSec {
		t.Fatalf("defaults not applied: %d", quiz.DurationSec)
	}
	if _, ok := handoffs.slots[id]; !ok {
		t.Fatalf("handoff %q not stored", id)
	}
}

func TestGenerateRejectsInvalidUpstreamQuiz(t *testing.T) {
	bad := generatedQuiz()
	bad.Questions[0].CorrectAnswer = "Watt"
	svc := newTestQuizService(&fakeBackend{quiz: bad}, newMemoryHandoffs())

	if _, _, err := svc.Generate(context.Background(), GenerateRequest{Subject: "Physics", Mode: constants.ModeFull}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestStartSessionConsumesHandoffOnce(t *testing.T) {
	handoffs := newMemoryHandoffs()
	svc := newTestQuizService(&fakeBackend{quiz: generatedQuiz()}, handoffs)
	t.Cleanup(svc.Shutdown)
	ctx := context.Background()

	id, _, err := svc.Generate(ctx, GenerateRequest{Subject: "Physics", Mode: constants.ModeQuick})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	ctrl, err := svc.StartSession(ctx, id, models.Identity{UserID: "u1"})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if ctrl.State() != session.StateInProgress {
		t.Fatalf("state: got %s", ctrl.State())
	}
	if _, err := svc.StartSession(ctx, id, models.Identity{UserID: "u1"}); !errors.Is(err, session.ErrNoHandoff) {
		t.Fatalf("second start: expected ErrNoHandoff, got %v", err)
	}
	if svc.ActiveSessions() != 1 {
		t.Fatalf("failed load must not register a session, have %d", svc.ActiveSessions())
	}
}

func TestSessionOwnership(t *testing.T) {
	handoffs := newMemoryHandoffs()
	svc := newTestQuizService(&fakeBackend{quiz: generatedQuiz()}, handoffs)
	t.Cleanup(svc.Shutdown)
	ctx := context.Background()

	id, _, _ := svc.Generate(ctx, GenerateRequest{Subject: "Physics", Mode: constants.ModeQuick})
	ctrl, err := svc.StartSession(ctx, id, models.Identity{UserID: "u1"})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	if _, err := svc.Session(ctrl.ID(), models.Identity{UserID: "u2"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Session("nope", models.Identity{UserID: "u1"}); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := svc.Abandon(ctrl.ID(), models.Identity{UserID: "u1"}); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if svc.ActiveSessions() != 0 {
		t.Fatalf("abandoned session still registered")
	}
}

func TestCompletedSessionLeavesRegistry(t *testing.T) {
	handoffs := newMemoryHandoffs()
	backend := &fakeBackend{quiz: generatedQuiz(), explanation: "Force is measured in newtons."}
	svc := newTestQuizService(backend, handoffs)
	t.Cleanup(svc.Shutdown)
	ctx := context.Background()

	id, _, _ := svc.Generate(ctx, GenerateRequest{Subject: "Physics", Mode: constants.ModeQuick})
	ctrl, err := svc.StartSession(ctx, id, models.Identity{})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if _, _, err := ctrl.SelectAnswer("1", "Newton"); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	res, err := ctrl.Advance(ctx)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if res == nil || res.Accuracy != 100 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if svc.ActiveSessions() != 0 {
		t.Fatalf("submitted session still registered")
	}
	if len(backend.progress) != 1 {
		t.Fatalf("expected one progress record, got %d", len(backend.progress))
	}
}

func TestLoadBankFillsExplanations(t *testing.T) {
	backend := &fakeBackend{}
	handoffs := newMemoryHandoffs()
	svc := newTestQuizService(backend, handoffs)
	svc.bank = &fakeBank{entries: map[int][]questionbank.Entry{
		2024: {
			{ID: "2024-1", Question: "g on earth?", Options: []string{"9.8", "1.6"}, CorrectAnswer: "9.8", Topic: "Gravitation"},
			{ID: "2024-2", Question: "c in vacuum?", Options: []string{"3e8", "3e5"}, CorrectAnswer: "3e8", Topic: "Optics"},
		},
	}}

	id, quiz, err := svc.LoadBank(context.Background(), "Physics", 2024)
	if err != nil {
		t.Fatalf("LoadBank: %v", err)
	}
	if id == "" || quiz.Mode != constants.ModeJSON || quiz.Topic != "json_2024" {
		t.Fatalf("unexpected quiz: %+v", quiz)
	}
	if quiz.Title != "Physics 2024 Questions" {
		t.Fatalf("title: got %q", quiz.Title)
	}
	if backend.explained != 2 {
		t.Fatalf("expected 2 explanation calls, got %d", backend.explained)
	}
	for _, q := range quiz.Questions {
		if q.Explanation != "The correct answer is "+q.CorrectAnswer+"." {
			t.Fatalf("fallback explanation not applied: %q", q.Explanation)
		}
		if q.Hint != constants.BankHint {
			t.Fatalf("hint: got %q", q.Hint)
		}
	}

	if _, _, err := svc.LoadBank(context.Background(), "Physics", 1999); !errors.Is(err, questionbank.ErrUnknownYear) {
		t.Fatalf("expected ErrUnknownYear, got %v", err)
	}
}
