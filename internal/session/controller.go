// Package session owns a single quiz attempt: the question pointer, the
// write-once answer map, bookmarks, the countdown and completion.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"jee-solver/internal/constants"
	"jee-solver/internal/models"
	"jee-solver/internal/results"
	"jee-solver/pkg/logger"
)

type State string

const (
	StateLoading     State = "loading"
	StateInProgress  State = "in_progress"
	StateCompleting  State = "completing"
	StateSubmitted   State = "submitted"
	StateRedirecting State = "redirecting"
)

var (
	ErrNoHandoff       = errors.New("no quiz payload for this handoff")
	ErrUnknownQuestion = errors.New("question is not part of this quiz")
	ErrInvalidOption   = errors.New("option is not one of the question's options")
	ErrNotInProgress   = errors.New("session is not in progress")
	ErrEmptyQuiz       = errors.New("quiz has no questions")
)

// HandoffStore hands a prepared quiz payload to exactly one session.
// Take must remove the payload it returns.
type HandoffStore interface {
	Take(ctx context.Context, handoffID string) ([]byte, error)
}

type Backend interface {
	FetchExplanation(ctx context.Context, req models.ExplanationRequest) string
	RecordProgress(ctx context.Context, rec models.ProgressRecord) error
}

type BookmarkStore interface {
	AddBookmark(ctx context.Context, userID string, detail models.BookmarkDetail) error
	RemoveBookmark(ctx context.Context, userID, questionID string) error
}

// Finalizer computes and persists the result. It should return a result even
// when persistence fails.
type Finalizer interface {
	Finalize(ctx context.Context, user models.Identity, in results.Input) (*models.QuizResult, error)
}

type Submitter interface {
	Submit(name string, fn func()) bool
}

type Deps struct {
	Backend    Backend
	Bookmarks  BookmarkStore
	Finalizer  Finalizer
	Notifier   Notifier
	Dispatcher Submitter
	Logger     *logger.Logger

	// OnClose is called once when the session reaches Submitted or is abandoned.
	OnClose func(sessionID string)

	RequestTimeout time.Duration
	TickInterval   time.Duration
	Now            func() time.Time
}

type Controller struct {
	id   string
	deps Deps
	log  *logger.Logger

	mu          sync.Mutex
	state       State
	user        models.Identity
	quiz        *models.Quiz
	index       int
	answers     map[string]models.AnswerRecord
	bookmarks   map[string]bool
	showHint    bool
	explanation string
	explaining  bool
	generation  uint64
	remaining   int
	startedAt   time.Time
	result      *models.QuizResult
	stopTimer   context.CancelFunc
	closed      bool

	bookmarkMu       sync.Mutex
	bookmarkQueue    []func(ctx context.Context)
	bookmarkDraining bool
}

func New(id string, deps Deps) *Controller {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.TickInterval <= 0 {
		deps.TickInterval = time.Second
	}
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 20 * time.Second
	}
	return &Controller{
		id:        id,
		deps:      deps,
		log:       deps.Logger.With("session_id", id),
		state:     StateLoading,
		answers:   make(map[string]models.AnswerRecord),
		bookmarks: make(map[string]bool),
	}
}

func (c *Controller) ID() string {
	return c.id
}

func (c *Controller) User() models.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// Load consumes the handoff payload. Any failure leaves the session in
// Redirecting.
func (c *Controller) Load(ctx context.Context, store HandoffStore, handoffID string, user models.Identity) error {
	c.mu.Lock()
	if c.state != StateLoading {
		c.mu.Unlock()
		return fmt.Errorf("load: %w", ErrNotInProgress)
	}
	c.mu.Unlock()

	raw, err := store.Take(ctx, handoffID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateLoading {
		return fmt.Errorf("load: %w", ErrNotInProgress)
	}
	if err != nil || len(raw) == 0 {
		c.state = StateRedirecting
		if err != nil {
			c.log.Warn("handoff unavailable", "handoff_id", handoffID, "error", err)
		}
		return ErrNoHandoff
	}

	var quiz models.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		c.state = StateRedirecting
		c.log.Warn("handoff payload unreadable", "handoff_id", handoffID, "error", err)
		return ErrNoHandoff
	}
	if len(quiz.Questions) == 0 {
		c.state = StateRedirecting
		return ErrEmptyQuiz
	}
	if err := quiz.Validate(); err != nil {
		c.state = StateRedirecting
		return err
	}
	quiz.ApplyDefaults()

	c.quiz = &quiz
	c.user = user
	c.index = 0
	c.remaining = quiz.DurationSec
	c.startedAt = c.deps.Now()
	c.state = StateInProgress
	return nil
}

// Start launches the countdown. It is a no-op unless the session is in
// progress and the timer is not already running.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.state != StateInProgress || c.stopTimer != nil {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.stopTimer = cancel
	interval := c.deps.TickInterval
	c.mu.Unlock()

	go c.runTimer(ctx, interval)
}

// Stop cancels the countdown without changing state.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelTimerLocked()
}

// Abandon tears the session down without producing a result. In-flight
// explanation and progress calls are left to finish on their own.
func (c *Controller) Abandon() {
	c.mu.Lock()
	c.cancelTimerLocked()
	if c.state == StateSubmitted || c.state == StateCompleting {
		c.mu.Unlock()
		return
	}
	c.state = StateRedirecting
	c.mu.Unlock()
	c.close()
}

func (c *Controller) cancelTimerLocked() {
	if c.stopTimer != nil {
		c.stopTimer()
	}
}

func (c *Controller) runTimer(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		if c.state != StateInProgress || ctx.Err() != nil {
			c.mu.Unlock()
			return
		}
		if c.remaining > 0 {
			c.remaining--
		}
		remaining := c.remaining
		c.mu.Unlock()

		c.notify(EventTick, TickPayload{RemainingSec: remaining})
		if remaining == 0 {
			c.notify(EventTimeExpired, TickPayload{RemainingSec: 0})
			if _, err := c.complete(context.Background()); err != nil {
				c.log.Error("auto-submit failed", "error", err)
			}
			return
		}
	}
}

// SelectAnswer records option for questionID once. A second call for the
// same question returns the stored record with recorded=false.
func (c *Controller) SelectAnswer(questionID, option string) (rec models.AnswerRecord, recorded bool, err error) {
	c.mu.Lock()
	if c.state != StateInProgress {
		c.mu.Unlock()
		return models.AnswerRecord{}, false, ErrNotInProgress
	}
	q := c.findQuestionLocked(questionID)
	if q == nil {
		c.mu.Unlock()
		return models.AnswerRecord{}, false, ErrUnknownQuestion
	}
	if existing, ok := c.answers[questionID]; ok {
		c.mu.Unlock()
		return existing, false, nil
	}
	if !q.HasOption(option) {
		c.mu.Unlock()
		return models.AnswerRecord{}, false, ErrInvalidOption
	}

	rec = models.AnswerRecord{
		Selected:   option,
		IsCorrect:  option == q.CorrectAnswer,
		AnsweredAt: c.deps.Now(),
	}
	c.answers[questionID] = rec
	if c.currentQuestionLocked().ID == questionID {
		c.explanation = ""
		c.explaining = true
	}
	generation := c.generation
	bookmarked := c.bookmarks[questionID]
	req := models.ExplanationRequest{
		Question:      q.Text,
		Options:       append([]string(nil), q.Options...),
		CorrectAnswer: q.CorrectAnswer,
		UserAnswer:    option,
	}
	c.mu.Unlock()

	c.notify(EventAnswerRecorded, AnswerPayload{QuestionID: questionID, Record: rec})

	queued := c.dispatch("explanation", func(ctx context.Context) {
		text := c.deps.Backend.FetchExplanation(ctx, req)
		c.applyExplanation(questionID, generation, text)
	})
	if !queued {
		c.applyExplanation(questionID, generation, constants.ExplanationFallback)
	}
	c.dispatchProgress(models.ProgressRecord{
		QuestionID:   questionID,
		IsCorrect:    rec.IsCorrect,
		IsBookmarked: bookmarked,
	})

	return rec, true, nil
}

func (c *Controller) applyExplanation(questionID string, generation uint64, text string) {
	c.mu.Lock()
	stale := c.state != StateInProgress ||
		c.generation != generation ||
		c.currentQuestionLocked().ID != questionID
	if stale {
		c.mu.Unlock()
		c.log.Debug("discarding stale explanation", "question_id", questionID)
		return
	}
	c.explanation = text
	c.explaining = false
	c.mu.Unlock()

	c.notify(EventExplanation, ExplanationPayload{QuestionID: questionID, Explanation: text})
}

// ToggleBookmark flips bookmark membership and returns the new state. It
// never touches the answer map.
func (c *Controller) ToggleBookmark(questionID string) (bool, error) {
	c.mu.Lock()
	if c.quiz == nil || c.state == StateRedirecting {
		c.mu.Unlock()
		return false, ErrNotInProgress
	}
	q := c.findQuestionLocked(questionID)
	if q == nil {
		c.mu.Unlock()
		return false, ErrUnknownQuestion
	}

	bookmarked := !c.bookmarks[questionID]
	if bookmarked {
		c.bookmarks[questionID] = true
	} else {
		delete(c.bookmarks, questionID)
	}
	rec, answered := c.answers[questionID]
	user := c.user
	detail := c.bookmarkDetailLocked(q)
	c.mu.Unlock()

	c.notify(EventBookmarkToggled, BookmarkPayload{QuestionID: questionID, Bookmarked: bookmarked})

	if !user.IsAnonymous() && c.deps.Bookmarks != nil {
		if bookmarked {
			c.dispatchBookmark(func(ctx context.Context) {
				if err := c.deps.Bookmarks.AddBookmark(ctx, user.UserID, detail); err != nil {
					c.log.Warn("failed to save bookmark", "user_id", user.UserID, "question_id", questionID, "error", err)
				}
			})
		} else {
			c.dispatchBookmark(func(ctx context.Context) {
				if err := c.deps.Bookmarks.RemoveBookmark(ctx, user.UserID, questionID); err != nil {
					c.log.Warn("failed to remove bookmark", "user_id", user.UserID, "question_id", questionID, "error", err)
				}
			})
		}
	}

	if answered {
		c.dispatchProgress(models.ProgressRecord{
			QuestionID:   questionID,
			IsCorrect:    rec.IsCorrect,
			IsBookmarked: bookmarked,
		})
	}
	return bookmarked, nil
}

func (c *Controller) ShowHint(show bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateInProgress {
		return ErrNotInProgress
	}
	c.showHint = show
	return nil
}

// Advance moves to the next question. On the last question it completes the
// session and returns the result. After Submitted it is a no-op.
func (c *Controller) Advance(ctx context.Context) (*models.QuizResult, error) {
	c.mu.Lock()
	switch c.state {
	case StateSubmitted, StateCompleting:
		c.mu.Unlock()
		return nil, nil
	case StateInProgress:
	default:
		c.mu.Unlock()
		return nil, ErrNotInProgress
	}

	if c.index < len(c.quiz.Questions)-1 {
		c.index++
		c.resetTransientLocked()
		c.mu.Unlock()
		return nil, nil
	}
	c.mu.Unlock()

	return c.complete(ctx)
}

func (c *Controller) Retreat() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateInProgress {
		return ErrNotInProgress
	}
	if c.index > 0 {
		c.index--
		c.resetTransientLocked()
	}
	return nil
}

func (c *Controller) resetTransientLocked() {
	c.showHint = false
	c.explanation = ""
	c.explaining = false
	c.generation++
}

// complete runs the Completing path. Only the first caller proceeds.
func (c *Controller) complete(ctx context.Context) (*models.QuizResult, error) {
	c.mu.Lock()
	if c.state != StateInProgress {
		c.mu.Unlock()
		return nil, nil
	}
	c.state = StateCompleting
	c.cancelTimerLocked()

	answers := make(map[string]models.AnswerRecord, len(c.answers))
	for k, v := range c.answers {
		answers[k] = v
	}
	user := c.user
	in := results.Input{
		UserID:       user.UserID,
		Quiz:         c.quiz,
		Answers:      answers,
		StartedAt:    c.startedAt,
		CompletedAt:  c.deps.Now(),
		TimeSpentSec: c.quiz.DurationSec - c.remaining,
	}
	c.mu.Unlock()

	var res *models.QuizResult
	var err error
	if c.deps.Finalizer != nil {
		res, err = c.deps.Finalizer.Finalize(ctx, user, in)
		if err != nil {
			c.log.Error("failed to finalize result", "user_id", user.UserID, "error", err)
		}
	}
	if res == nil {
		res, err = results.Compute(in)
		if err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	c.result = res
	c.state = StateSubmitted
	c.mu.Unlock()

	c.notify(EventQuizFinished, res)
	c.close()
	return res, nil
}

func (c *Controller) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	if c.deps.OnClose != nil {
		c.deps.OnClose(c.id)
	}
}

// dispatch runs fn off the caller's goroutine and reports whether it was
// accepted.
func (c *Controller) dispatch(name string, fn func(ctx context.Context)) bool {
	return c.submit(name, func() { c.run(fn) })
}

func (c *Controller) run(fn func(ctx context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), c.deps.RequestTimeout)
	defer cancel()
	fn(ctx)
}

func (c *Controller) submit(name string, task func()) bool {
	if c.deps.Dispatcher == nil {
		go task()
		return true
	}
	if !c.deps.Dispatcher.Submit(name, task) {
		c.log.Warn("side effect dropped", "task", name)
		return false
	}
	return true
}

// dispatchBookmark queues a bookmark write behind earlier ones for this
// session. At most one drain task is in flight, so writes land in toggle order.
func (c *Controller) dispatchBookmark(fn func(ctx context.Context)) {
	c.bookmarkMu.Lock()
	c.bookmarkQueue = append(c.bookmarkQueue, fn)
	if c.bookmarkDraining {
		c.bookmarkMu.Unlock()
		return
	}
	c.bookmarkDraining = true
	c.bookmarkMu.Unlock()

	if !c.submit("bookmarks", c.drainBookmarks) {
		c.bookmarkMu.Lock()
		dropped := len(c.bookmarkQueue)
		c.bookmarkQueue = nil
		c.bookmarkDraining = false
		c.bookmarkMu.Unlock()
		c.log.Warn("bookmark writes dropped", "count", dropped)
	}
}

func (c *Controller) drainBookmarks() {
	defer func() {
		if r := recover(); r != nil {
			c.bookmarkMu.Lock()
			c.bookmarkQueue = nil
			c.bookmarkDraining = false
			c.bookmarkMu.Unlock()
			panic(r)
		}
	}()
	for {
		c.bookmarkMu.Lock()
		if len(c.bookmarkQueue) == 0 {
			c.bookmarkDraining = false
			c.bookmarkMu.Unlock()
			return
		}
		fn := c.bookmarkQueue[0]
		c.bookmarkQueue = c.bookmarkQueue[1:]
		c.bookmarkMu.Unlock()

		c.run(fn)
	}
}

func (c *Controller) dispatchProgress(rec models.ProgressRecord) {
	if c.deps.Backend == nil {
		return
	}
	c.dispatch("record_progress", func(ctx context.Context) {
		if err := c.deps.Backend.RecordProgress(ctx, rec); err != nil {
			c.log.Warn("failed to record progress", "question_id", rec.QuestionID, "error", err)
		}
	})
}

func (c *Controller) notify(eventType string, payload interface{}) {
	c.deps.Notifier.Notify(c.id, Event{Type: eventType, SessionID: c.id, Payload: payload})
}

func (c *Controller) findQuestionLocked(id string) *models.Question {
	if c.quiz == nil {
		return nil
	}
	for i := range c.quiz.Questions {
		if c.quiz.Questions[i].ID == id {
			return &c.quiz.Questions[i]
		}
	}
	return nil
}

func (c *Controller) currentQuestionLocked() *models.Question {
	return &c.quiz.Questions[c.index]
}

func (c *Controller) bookmarkDetailLocked(q *models.Question) models.BookmarkDetail {
	subject := q.Subject
	if subject == "" {
		subject = c.quiz.Subject
	}
	if subject == "" {
		subject = constants.DefaultSubject
	}
	topic := q.Topic
	if topic == "" {
		topic = constants.DefaultTopic
	}
	return models.BookmarkDetail{
		QuestionID:    q.ID,
		Question:      q.Text,
		Options:       append([]string(nil), q.Options...),
		CorrectAnswer: q.CorrectAnswer,
		Hint:          q.Hint,
		Subject:       subject,
		Topic:         topic,
		BookmarkedAt:  c.deps.Now(),
	}
}
