package session

import "jee-solver/internal/models"

// QuestionView is a question as shown to the student. The correct answer
// and hint stay hidden until the question is answered or the hint is shown.
type QuestionView struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	Topic         string   `json:"topic,omitempty"`
	Hint          string   `json:"hint,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
}

type Snapshot struct {
	SessionID          string                         `json:"session_id"`
	State              State                          `json:"state"`
	QuizTitle          string                         `json:"quiz_title,omitempty"`
	Subject            string                         `json:"subject,omitempty"`
	Mode               string                         `json:"mode,omitempty"`
	Index              int                            `json:"index"`
	TotalQuestions     int                            `json:"total_questions"`
	ProgressPercent    int                            `json:"progress_percent"`
	IsLastQuestion     bool                           `json:"is_last_question"`
	Current            *QuestionView                  `json:"current,omitempty"`
	Answers            map[string]models.AnswerRecord `json:"answers"`
	Bookmarks          []string                       `json:"bookmarks"`
	RemainingSec       int                            `json:"remaining_sec"`
	ShowHint           bool                           `json:"show_hint"`
	Explanation        string                         `json:"explanation,omitempty"`
	ExplanationPending bool                           `json:"explanation_pending"`
	Result             *models.QuizResult             `json:"result,omitempty"`
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		SessionID:          c.id,
		State:              c.state,
		Index:              c.index,
		Answers:            make(map[string]models.AnswerRecord, len(c.answers)),
		Bookmarks:          make([]string, 0, len(c.bookmarks)),
		RemainingSec:       c.remaining,
		ShowHint:           c.showHint,
		Explanation:        c.explanation,
		ExplanationPending: c.explaining,
		Result:             c.result,
	}
	for k, v := range c.answers {
		snap.Answers[k] = v
	}
	if c.quiz == nil {
		return snap
	}

	snap.QuizTitle = c.quiz.Title
	snap.Subject = c.quiz.Subject
	snap.Mode = c.quiz.Mode
	snap.TotalQuestions = len(c.quiz.Questions)
	snap.ProgressPercent = (c.index + 1) * 100 / snap.TotalQuestions
	snap.IsLastQuestion = c.index == snap.TotalQuestions-1

	// keep quiz order for bookmarks
	for _, q := range c.quiz.Questions {
		if c.bookmarks[q.ID] {
			snap.Bookmarks = append(snap.Bookmarks, q.ID)
		}
	}

	q := c.quiz.Questions[c.index]
	view := &QuestionView{
		ID:       q.ID,
		Question: q.Text,
		Options:  append([]string(nil), q.Options...),
		Topic:    q.Topic,
	}
	if c.showHint {
		view.Hint = q.Hint
	}
	if _, answered := c.answers[q.ID]; answered {
		view.CorrectAnswer = q.CorrectAnswer
	}
	snap.Current = view
	return snap
}
