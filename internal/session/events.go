package session

import "jee-solver/internal/models"

const (
	EventTick            = "tick"
	EventExplanation     = "explanation"
	EventAnswerRecorded  = "answer_recorded"
	EventBookmarkToggled = "bookmark_toggled"
	EventQuizFinished    = "quiz_finished"
	EventTimeExpired     = "time_expired"
)

type Event struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Notifier receives session events. Implementations must not block.
type Notifier interface {
	Notify(sessionID string, ev Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, Event) {}

type TickPayload struct {
	RemainingSec int `json:"remaining_sec"`
}

type AnswerPayload struct {
	QuestionID string              `json:"question_id"`
	Record     models.AnswerRecord `json:"record"`
}

type ExplanationPayload struct {
	QuestionID  string `json:"question_id"`
	Explanation string `json:"explanation"`
}

type BookmarkPayload struct {
	QuestionID string `json:"question_id"`
	Bookmarked bool   `json:"bookmarked"`
}
