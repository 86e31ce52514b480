package websocket

type MessageType string

const (
	// Client -> Server
	MessageTypeAnswer   MessageType = "answer"
	MessageTypeBookmark MessageType = "bookmark"
	MessageTypeHint     MessageType = "hint"
	MessageTypeNext     MessageType = "next"
	MessageTypePrevious MessageType = "previous"
	MessageTypeSnapshot MessageType = "snapshot"
	MessageTypePing     MessageType = "ping"

	// Server -> Client. Session events (tick, explanation, answer_recorded,
	// bookmark_toggled, quiz_finished, time_expired) are forwarded under
	// their own type.
	MessageTypeConnected MessageType = "connected"
	MessageTypeState     MessageType = "state"
	MessageTypeError     MessageType = "error"
	MessageTypePong      MessageType = "pong"
)

type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload,omitempty"`
}

// inbound is how client messages are decoded; the payload shape depends on Type.
type inbound struct {
	Type    MessageType `json:"type"`
	Payload rawPayload  `json:"payload,omitempty"`
}

type rawPayload struct {
	QuestionID string `json:"question_id,omitempty"`
	Answer     string `json:"answer,omitempty"`
	Show       bool   `json:"show,omitempty"`
}

type ConnectedPayload struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
