// Package websocket pushes live session events to connected browsers and
// accepts session actions over the same connection.
package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"jee-solver/internal/models"
	"jee-solver/internal/session"
	"jee-solver/pkg/logger"
)

const actionTimeout = 30 * time.Second

// Session is the part of a session controller the hub drives.
type Session interface {
	ID() string
	Snapshot() session.Snapshot
	SelectAnswer(questionID, option string) (models.AnswerRecord, bool, error)
	ToggleBookmark(questionID string) (bool, error)
	ShowHint(show bool) error
	Advance(ctx context.Context) (*models.QuizResult, error)
	Retreat() error
}

type Hub struct {
	clients    map[string]map[*Client]bool
	Register   chan *Client
	Unregister chan *Client

	log *logger.Logger
	mu  sync.RWMutex
}

func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		log:        log.With("component", "ws_hub"),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)
		}
	}
}

// Notify implements session.Notifier. It never blocks the session.
func (h *Hub) Notify(sessionID string, ev session.Event) {
	h.broadcastToSession(sessionID, MessageType(ev.Type), ev.Payload)
}

func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	if h.clients[client.SessionID] == nil {
		h.clients[client.SessionID] = make(map[*Client]bool)
	}
	h.clients[client.SessionID][client] = true
	h.mu.Unlock()

	h.log.Debug("client registered", "session_id", client.SessionID, "user_id", client.User.UserID)

	client.SendMessage(MessageTypeConnected, ConnectedPayload{
		SessionID: client.SessionID,
		UserID:    client.User.UserID,
	})
	client.SendMessage(MessageTypeState, client.Session.Snapshot())
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	client.closeSend()
	if len(clients) == 0 {
		delete(h.clients, client.SessionID)
	}
	h.log.Debug("client unregistered", "session_id", client.SessionID, "user_id", client.User.UserID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, clients := range h.clients {
		for c := range clients {
			c.closeSend()
		}
		delete(h.clients, id)
	}
}

func (h *Hub) handleClientMessage(client *Client, msg inbound) {
	sess := client.Session

	switch msg.Type {
	case MessageTypeAnswer:
		if _, _, err := sess.SelectAnswer(msg.Payload.QuestionID, msg.Payload.Answer); err != nil {
			client.SendError(actionError(err))
		}

	case MessageTypeBookmark:
		if _, err := sess.ToggleBookmark(msg.Payload.QuestionID); err != nil {
			client.SendError(actionError(err))
		}

	case MessageTypeHint:
		if err := sess.ShowHint(msg.Payload.Show); err != nil {
			client.SendError(actionError(err))
			return
		}
		h.broadcastState(sess)

	case MessageTypeNext:
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		res, err := sess.Advance(ctx)
		if err != nil {
			client.SendError(actionError(err))
			return
		}
		// A finished quiz is announced through the quiz_finished event.
		if res == nil {
			h.broadcastState(sess)
		}

	case MessageTypePrevious:
		if err := sess.Retreat(); err != nil {
			client.SendError(actionError(err))
			return
		}
		h.broadcastState(sess)

	case MessageTypeSnapshot:
		client.SendMessage(MessageTypeState, sess.Snapshot())

	case MessageTypePing:
		client.SendMessage(MessageTypePong, nil)

	default:
		client.SendError("Unknown message type: " + string(msg.Type))
	}
}

func (h *Hub) broadcastState(sess Session) {
	h.broadcastToSession(sess.ID(), MessageTypeState, sess.Snapshot())
}

func (h *Hub) broadcastToSession(sessionID string, msgType MessageType, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[sessionID] {
		client.SendMessage(msgType, payload)
	}
}

func actionError(err error) string {
	switch {
	case errors.Is(err, session.ErrUnknownQuestion):
		return "Question is not part of this quiz"
	case errors.Is(err, session.ErrInvalidOption):
		return "Answer is not one of the options"
	case errors.Is(err, session.ErrNotInProgress):
		return "Quiz is not in progress"
	default:
		return "Action failed"
	}
}
