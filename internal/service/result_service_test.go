package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"jee-solver/internal/constants"
	"jee-solver/internal/models"
	"jee-solver/internal/results"
)

func finishedInput() results.Input {
	quiz := &models.Quiz{
		Title:   "Mechanics",
		Subject: "Physics",
		Questions: []models.Question{
			{ID: "q1", Text: "Q1", Options: []string{"A", "B"}, CorrectAnswer: "B", Topic: "Kinematics"},
			{ID: "q2", Text: "Q2", Options: []string{"A", "B"}, CorrectAnswer: "A", Topic: "Kinematics"},
		},
	}
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return results.Input{
		Quiz:        quiz,
		Answers:     map[string]models.AnswerRecord{"q1": {Selected: "B", IsCorrect: true}},
		StartedAt:   now.Add(-5 * time.Minute),
		CompletedAt: now,
	}
}

func TestFinalizeAnonymousSkipsPersistence(t *testing.T) {
	store := &fakeResultStore{}
	progress := newFakeProgressStore()
	pub := &fakePublisher{}
	svc := NewResultService(store, progress, pub, 0, nil)

	res, err := svc.Finalize(context.Background(), models.Identity{}, finishedInput())
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if res.Accuracy != 50 || res.CorrectAnswers != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(store.saved) != 0 || len(progress.summaries) != 0 || len(pub.msgs) != 0 {
		t.Fatalf("anonymous finalize must not persist anything")
	}
}

func TestFinalizePersistsMergesAndPublishes(t *testing.T) {
	store := &fakeResultStore{}
	progress := newFakeProgressStore()
	progress.summaries["u1"] = &models.ProgressSummary{
		UserID:         "u1",
		TotalQuestions: 20,
		CorrectAnswers: 10,
		QuizAttempts:   2,
	}
	pub := &fakePublisher{}
	svc := NewResultService(store, progress, pub, 3, nil)

	user := models.Identity{UserID: "u1", Email: "student@example.com"}
	res, err := svc.Finalize(context.Background(), user, finishedInput())
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if res.ID == "" || res.UserID != "u1" {
		t.Fatalf("result not stamped: %+v", res)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected 1 saved result, got %d", len(store.saved))
	}

	sum := progress.summaries["u1"]
	if sum.TotalQuestions != 22 || sum.CorrectAnswers != 11 || sum.QuizAttempts != 3 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.Accuracy != 50 {
		t.Fatalf("summary accuracy: got %d", sum.Accuracy)
	}

	if pub.count(constants.QueueResultsReady) != 1 {
		t.Fatalf("expected one results_ready event")
	}
	var ev ResultsReadyEvent
	if err := json.Unmarshal(pub.msgs[0].body, &ev); err != nil {
		t.Fatalf("event body: %v", err)
	}
	if ev.Email != "student@example.com" || ev.ResultID != res.ID || ev.Accuracy != 50 {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestFinalizeReturnsResultWhenStorageFails(t *testing.T) {
	store := &fakeResultStore{failErr: errors.New("db down")}
	pub := &fakePublisher{failErr: errors.New("broker down")}
	svc := NewResultService(store, newFakeProgressStore(), pub, 3, nil)

	res, err := svc.Finalize(context.Background(), models.Identity{UserID: "u1"}, finishedInput())
	if err != nil {
		t.Fatalf("storage failures must not fail Finalize: %v", err)
	}
	if res == nil || res.TotalQuestions != 2 {
		t.Fatalf("expected computed result, got %+v", res)
	}
}

func TestFinalizeSkipsEventWhenResultNotStored(t *testing.T) {
	store := &fakeResultStore{failErr: errors.New("db down")}
	progress := newFakeProgressStore()
	pub := &fakePublisher{}
	svc := NewResultService(store, progress, pub, 3, nil)

	user := models.Identity{UserID: "u1", Email: "student@example.com"}
	if _, err := svc.Finalize(context.Background(), user, finishedInput()); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if pub.count(constants.QueueResultsReady) != 0 {
		t.Fatalf("results_ready must not reference an unsaved result")
	}
	if sum := progress.summaries["u1"]; sum == nil || sum.QuizAttempts != 1 {
		t.Fatalf("progress should still be merged: %+v", sum)
	}
}

func TestFinalizeEmptySession(t *testing.T) {
	svc := NewResultService(&fakeResultStore{}, newFakeProgressStore(), nil, 3, nil)
	_, err := svc.Finalize(context.Background(), models.Identity{UserID: "u1"}, results.Input{Quiz: &models.Quiz{}})
	if !errors.Is(err, results.ErrEmptySession) {
		t.Fatalf("expected ErrEmptySession, got %v", err)
	}
}

func TestGetChecksOwner(t *testing.T) {
	store := &fakeResultStore{saved: []*models.QuizResult{{ID: "r1", UserID: "u1"}}}
	svc := NewResultService(store, newFakeProgressStore(), nil, 3, nil)

	if _, err := svc.Get(context.Background(), "u1", "r1"); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := svc.Get(context.Background(), "u2", "r1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "u1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProgressForNewUserIsEmpty(t *testing.T) {
	svc := NewResultService(&fakeResultStore{}, newFakeProgressStore(), nil, 3, nil)
	view, err := svc.Progress(context.Background(), "fresh")
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if view.UserID != "fresh" || view.TotalQuestions != 0 || len(view.TopicAccuracy) != 0 {
		t.Fatalf("unexpected view: %+v", view)
	}
}

func TestHistoryClampsLimit(t *testing.T) {
	store := &fakeResultStore{}
	for i := 0; i < 60; i++ {
		store.saved = append(store.saved, &models.QuizResult{ID: string(rune('a' + i%26)), UserID: "u1"})
	}
	svc := NewResultService(store, newFakeProgressStore(), nil, 3, nil)

	list, err := svc.History(context.Background(), "u1", 500)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(list) != constants.AnalyticsHistoryLimit {
		t.Fatalf("expected %d results, got %d", constants.AnalyticsHistoryLimit, len(list))
	}
}
