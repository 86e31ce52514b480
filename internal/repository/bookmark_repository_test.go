package repository

import "testing"

func TestDecodeBookmarks(t *testing.T) {
	raw := []byte(`{
		"q1": {"question": "first", "options": ["a","b"], "correct_answer": "a", "subject": "Physics", "topic": "Optics", "bookmarked_at": "2026-05-01T10:00:00Z"},
		"q2": true,
		"q3": {"question": "third", "options": ["a","b"], "correct_answer": "b", "subject": "Maths", "bookmarked_at": "2026-05-02T10:00:00Z"}
	}`)
	got, err := decodeBookmarks(raw)
	if err != nil {
		t.Fatalf("decodeBookmarks: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 detailed bookmarks, got %d", len(got))
	}
	if got[0].QuestionID != "q3" || got[1].QuestionID != "q1" {
		t.Fatalf("expected newest first: %+v", got)
	}

	if _, err := decodeBookmarks([]byte("[")); err == nil {
		t.Fatalf("expected error for malformed document")
	}
}
