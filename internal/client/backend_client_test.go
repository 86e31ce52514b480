package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"jee-solver/internal/constants"
	"jee-solver/internal/models"
)

func TestFetchExplanation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/questions/generate-explanation" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["correctAnswer"] != "B" || body["userAnswer"] != "A" {
			t.Errorf("unexpected body: %v", body)
		}
		w.Write([]byte(`{"explanation":"B is right because..."}`))
	}))
	defer srv.Close()

	c := NewBackendClient(srv.URL+"/api/v1/", time.Second, nil)
	got := c.FetchExplanation(context.Background(), models.ExplanationRequest{
		Question: "q", Options: []string{"A", "B"}, CorrectAnswer: "B", UserAnswer: "A",
	})
	if got != "B is right because..." {
		t.Fatalf("explanation: %q", got)
	}
}

func TestFetchExplanationFallbacks(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) },
		"bad json":     func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("{")) },
		"empty text":   func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"explanation":"  "}`)) },
		"timeout": func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(`{"explanation":"too late"}`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			c := NewBackendClient(srv.URL, 50*time.Millisecond, nil)
			if got := c.FetchExplanation(context.Background(), models.ExplanationRequest{}); got != constants.ExplanationFallback {
				t.Fatalf("expected fallback, got %q", got)
			}
		})
	}
}

func TestRecordProgress(t *testing.T) {
	var got progressRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/questions/record-progress" {
			t.Errorf("path: %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewBackendClient(srv.URL, time.Second, nil)
	if err := c.RecordProgress(context.Background(), models.ProgressRecord{QuestionID: "7", IsCorrect: true, IsBookmarked: true}); err != nil {
		t.Fatalf("RecordProgress: %v", err)
	}
	if got.QuestionID != "7" || !got.IsCorrect || !got.IsBookmarked {
		t.Fatalf("unexpected payload: %+v", got)
	}

	srv.Close()
	if err := c.RecordProgress(context.Background(), models.ProgressRecord{QuestionID: "7"}); err == nil {
		t.Fatalf("expected error once the server is gone")
	}
}

func TestGenerateQuiz(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateQuizRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Subject != "Physics" || req.Mode != "topic" || req.Topic != "Optics" {
			t.Errorf("unexpected request: %+v", req)
		}
		w.Write([]byte(`{
			"quizTitle": "Physics: Optics",
			"subject": "Physics",
			"mode": "topic",
			"questions": [
				{"id": 1, "question": "q1", "options": ["a","b"], "correctAnswer": "a", "topic": "Optics"},
				{"id": "x2", "question": "q2", "options": ["a","b"], "correctAnswer": "b"},
				{"question": "q3", "options": ["a","b"], "correctAnswer": "b"}
			]
		}`))
	}))
	defer srv.Close()

	c := NewBackendClient(srv.URL, time.Second, nil)
	quiz, err := c.GenerateQuiz(context.Background(), "Physics", "topic", "Optics")
	if err != nil {
		t.Fatalf("GenerateQuiz: %v", err)
	}
	if quiz.Title != "Physics: Optics" || len(quiz.Questions) != 3 {
		t.Fatalf("unexpected quiz: %+v", quiz)
	}
	ids := []string{quiz.Questions[0].ID, quiz.Questions[1].ID, quiz.Questions[2].ID}
	if ids[0] != "1" || ids[1] != "x2" || ids[2] != "3" {
		t.Fatalf("ids: %v", ids)
	}
	if err := quiz.Validate(); err != nil {
		t.Fatalf("converted quiz should validate: %v", err)
	}
}

func TestTopics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("subject") != "Maths & Stats" {
			t.Errorf("subject not escaped: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"topics":["Calculus","Algebra"]}`))
	}))
	defer srv.Close()

	topics, err := NewBackendClient(srv.URL, time.Second, nil).Topics(context.Background(), "Maths & Stats")
	if err != nil || len(topics) != 2 {
		t.Fatalf("topics=%v err=%v", topics, err)
	}
}

func TestSolveImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "doubt.png" || string(data) != "PNGDATA" {
			t.Errorf("unexpected upload %q %q", header.Filename, data)
		}
		if ct := header.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("part content type: %q", ct)
		}
		w.Write([]byte(`{"solution":"x = 2"}`))
	}))
	defer srv.Close()

	c := NewBackendClient(srv.URL, time.Second, nil)
	got, err := c.SolveImage(context.Background(), "doubt.png", "image/png", strings.NewReader("PNGDATA"))
	if err != nil || got != "x = 2" {
		t.Fatalf("solution=%q err=%v", got, err)
	}
}
