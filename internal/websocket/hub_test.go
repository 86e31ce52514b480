package websocket

import (
	"context"
	"encoding/json"
	"testing"

	"jee-solver/internal/models"
	"jee-solver/internal/session"
)

type fakeSession struct {
	id       string
	answers  map[string]string
	index    int
	advanced int
	finished bool
}

func (f *fakeSession) ID() string { return f.id }

func (f *fakeSession) Snapshot() session.Snapshot {
	return session.Snapshot{SessionID: f.id, State: session.StateInProgress, Index: f.index}
}

func (f *fakeSession) SelectAnswer(questionID, option string) (models.AnswerRecord, bool, error) {
	if questionID != "q1" {
		return models.AnswerRecord{}, false, session.ErrUnknownQuestion
	}
	f.answers[questionID] = option
	return models.AnswerRecord{Selected: option}, true, nil
}

func (f *fakeSession) ToggleBookmark(string) (bool, error) { return true, nil }

func (f *fakeSession) ShowHint(bool) error { return nil }

func (f *fakeSession) Advance(context.Context) (*models.QuizResult, error) {
	f.advanced++
	if f.finished {
		return &models.QuizResult{ID: "r1"}, nil
	}
	f.index++
	return nil, nil
}

func (f *fakeSession) Retreat() error {
	if f.index > 0 {
		f.index--
	}
	return nil
}

func newTestClient(h *Hub, sess Session) *Client {
	return &Client{
		Hub:       h,
		Send:      make(chan []byte, sendBuffer),
		User:      models.Identity{UserID: "u1"},
		SessionID: sess.ID(),
		Session:   sess,
	}
}

func drain(t *testing.T, c *Client) []Message {
	t.Helper()
	var out []Message
	for {
		select {
		case raw, ok := <-c.Send:
			if !ok {
				return out
			}
			var m Message
			if err := json.Unmarshal(raw, &m); err != nil {
				t.Fatalf("bad frame %s: %v", raw, err)
			}
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestRegisterSendsConnectedAndState(t *testing.T) {
	h := NewHub(nil)
	c := newTestClient(h, &fakeSession{id: "s1", answers: map[string]string{}})

	h.registerClient(c)
	msgs := drain(t, c)
	if len(msgs) != 2 || msgs[0].Type != MessageTypeConnected || msgs[1].Type != MessageTypeState {
		t.Fatalf("unexpected handshake: %+v", msgs)
	}
	if h.ClientCount("s1") != 1 {
		t.Fatalf("client not registered")
	}

	h.unregisterClient(c)
	if h.ClientCount("s1") != 0 {
		t.Fatalf("client not removed")
	}
	if _, ok := <-c.Send; ok {
		t.Fatalf("send channel should be closed")
	}
	h.unregisterClient(c)
}

func TestNotifyForwardsEventsToSessionClients(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient(h, &fakeSession{id: "s1", answers: map[string]string{}})
	b := newTestClient(h, &fakeSession{id: "s2", answers: map[string]string{}})
	h.registerClient(a)
	h.registerClient(b)
	drain(t, a)
	drain(t, b)

	h.Notify("s1", session.Event{Type: session.EventTick, SessionID: "s1", Payload: session.TickPayload{RemainingSec: 42}})

	got := drain(t, a)
	if len(got) != 1 || got[0].Type != MessageType(session.EventTick) {
		t.Fatalf("expected one tick, got %+v", got)
	}
	if len(drain(t, b)) != 0 {
		t.Fatalf("other sessions must not receive the event")
	}
}

func TestNotifyNeverBlocksOnFullClient(t *testing.T) {
	h := NewHub(nil)
	c := newTestClient(h, &fakeSession{id: "s1", answers: map[string]string{}})
	c.Send = make(chan []byte, 1)
	h.mu.Lock()
	h.clients["s1"] = map[*Client]bool{c: true}
	h.mu.Unlock()

	for i := 0; i < 10; i++ {
		h.Notify("s1", session.Event{Type: session.EventTick})
	}
	if len(c.Send) != 1 {
		t.Fatalf("expected buffer to hold one message, got %d", len(c.Send))
	}
}

func TestHandleClientMessages(t *testing.T) {
	h := NewHub(nil)
	sess := &fakeSession{id: "s1", answers: map[string]string{}}
	c := newTestClient(h, sess)
	h.registerClient(c)
	drain(t, c)

	h.handleClientMessage(c, inbound{Type: MessageTypeAnswer, Payload: rawPayload{QuestionID: "q1", Answer: "B"}})
	if sess.answers["q1"] != "B" {
		t.Fatalf("answer not forwarded")
	}

	h.handleClientMessage(c, inbound{Type: MessageTypeAnswer, Payload: rawPayload{QuestionID: "zz", Answer: "B"}})
	msgs := drain(t, c)
	if len(msgs) != 1 || msgs[0].Type != MessageTypeError {
		t.Fatalf("expected error frame, got %+v", msgs)
	}

	h.handleClientMessage(c, inbound{Type: MessageTypeNext})
	msgs = drain(t, c)
	if sess.index != 1 || len(msgs) != 1 || msgs[0].Type != MessageTypeState {
		t.Fatalf("next should broadcast state, got %+v", msgs)
	}

	sess.finished = true
	h.handleClientMessage(c, inbound{Type: MessageTypeNext})
	if len(drain(t, c)) != 0 {
		t.Fatalf("completion is announced by the session event, not by the hub")
	}

	h.handleClientMessage(c, inbound{Type: MessageTypePing})
	msgs = drain(t, c)
	if len(msgs) != 1 || msgs[0].Type != MessageTypePong {
		t.Fatalf("expected pong, got %+v", msgs)
	}

	h.handleClientMessage(c, inbound{Type: "dance"})
	msgs = drain(t, c)
	if len(msgs) != 1 || msgs[0].Type != MessageTypeError {
		t.Fatalf("expected error for unknown type, got %+v", msgs)
	}
}
