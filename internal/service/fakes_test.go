package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"jee-solver/internal/constants"
	"jee-solver/internal/models"
	"jee-solver/internal/questionbank"
	"jee-solver/internal/repository"
	"jee-solver/pkg/email"
)

type fakeResultStore struct {
	mu      sync.Mutex
	saved   []*models.QuizResult
	failErr error
}

func (f *fakeResultStore) Create(_ context.Context, res *models.QuizResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.saved = append(f.saved, res)
	return nil
}

func (f *fakeResultStore) GetByID(_ context.Context, id string) (*models.QuizResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.saved {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeResultStore) Latest(_ context.Context, userID string) (*models.QuizResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.saved) - 1; i >= 0; i-- {
		if f.saved[i].UserID == userID {
			return f.saved[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeResultStore) ListByUser(_ context.Context, userID string, limit int) ([]models.QuizResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.QuizResult
	for i := len(f.saved) - 1; i >= 0 && len(out) < limit; i-- {
		if f.saved[i].UserID == userID {
			out = append(out, *f.saved[i])
		}
	}
	return out, nil
}

type fakeProgressStore struct {
	mu        sync.Mutex
	summaries map[string]*models.ProgressSummary
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{summaries: make(map[string]*models.ProgressSummary)}
}

func (f *fakeProgressStore) Get(_ context.Context, userID string) (*models.ProgressSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.summaries[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s, nil
}

func (f *fakeProgressStore) Apply(_ context.Context, userID string, fn func(prev *models.ProgressSummary) *models.ProgressSummary) (*models.ProgressSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := fn(f.summaries[userID])
	f.summaries[userID] = next
	return next, nil
}

type published struct {
	queue string
	body  []byte
}

type fakePublisher struct {
	mu      sync.Mutex
	msgs    []published
	failErr error
}

func (f *fakePublisher) Publish(_ context.Context, queueName string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.msgs = append(f.msgs, published{queue: queueName, body: body})
	return nil
}

func (f *fakePublisher) count(queue string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.msgs {
		if m.queue == queue {
			n++
		}
	}
	return n
}

type fakeBackend struct {
	mu           sync.Mutex
	quiz         *models.Quiz
	generateErr  error
	explanation  string
	explained    int
	progress     []models.ProgressRecord
	lastGenerate [3]string
}

func (f *fakeBackend) FetchExplanation(_ context.Context, _ models.ExplanationRequest) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.explained++
	if f.explanation == "" {
		return constants.ExplanationFallback
	}
	return f.explanation
}

func (f *fakeBackend) RecordProgress(_ context.Context, rec models.ProgressRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = append(f.progress, rec)
	return nil
}

func (f *fakeBackend) GenerateQuiz(_ context.Context, subject, mode, topic string) (*models.Quiz, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastGenerate = [3]string{subject, mode, topic}
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	copied := *f.quiz
	return &copied, nil
}

func (f *fakeBackend) Topics(_ context.Context, subject string) ([]string, error) {
	return []string{"Kinematics", "Optics"}, nil
}

// memoryHandoffs mimics the consume-once Redis slot.
type memoryHandoffs struct {
	mu    sync.Mutex
	slots map[string][]byte
	next  int
}

func newMemoryHandoffs() *memoryHandoffs {
	return &memoryHandoffs{slots: make(map[string][]byte)}
}

func (m *memoryHandoffs) Put(_ context.Context, quiz *models.Quiz) (string, error) {
	raw, err := json.Marshal(quiz)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	id := fmt.Sprintf("handoff-%d", m.next)
	m.slots[id] = raw
	return id, nil
}

func (m *memoryHandoffs) Take(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.slots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(m.slots, id)
	return raw, nil
}

type fakeBank struct {
	entries map[int][]questionbank.Entry
}

func (f *fakeBank) Years(string) ([]int, error) {
	return []int{2024}, nil
}

func (f *fakeBank) Questions(_ string, year int) ([]questionbank.Entry, error) {
	e, ok := f.entries[year]
	if !ok {
		return nil, questionbank.ErrUnknownYear
	}
	return e, nil
}

type inlineSubmitter struct{}

func (inlineSubmitter) Submit(_ string, fn func()) bool {
	fn()
	return true
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	failErr error
}

func (f *fakeStorage) UploadFile(_ context.Context, bucket, object string, r io.Reader, size int64, _ string) error {
	if f.failErr != nil {
		return f.failErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return errors.New("size mismatch")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[bucket+"/"+object] = data
	return nil
}

func (f *fakeStorage) DeleteFile(_ context.Context, bucket, object string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, bucket+"/"+object)
	return nil
}

func (f *fakeStorage) PresignedURL(_ context.Context, bucket, object string, _ time.Duration) (string, error) {
	return "https://files.test/" + bucket + "/" + object, nil
}

type fakeSolver struct {
	solution string
	err      error
	calls    int
}

func (f *fakeSolver) SolveImage(_ context.Context, _, _ string, r io.Reader) (string, error) {
	f.calls++
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	return f.solution, f.err
}

type sentMail struct {
	to      string
	summary email.QuizSummary
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) SendQuizResults(to string, summary email.QuizSummary) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, summary: summary})
	return nil
}
