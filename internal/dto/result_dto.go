package dto

import "jee-solver/internal/models"

type ResultListResponse struct {
	Results []models.QuizResult `json:"results"`
}

type QuestionRequest struct {
	Question      string   `json:"question" binding:"required"`
	Options       []string `json:"options" binding:"required,min=2"`
	CorrectAnswer string   `json:"correct_answer" binding:"required"`
	Hint          string   `json:"hint"`
	Explanation   string   `json:"explanation"`
	Subject       string   `json:"subject" binding:"required"`
	Topic         string   `json:"topic"`
	Difficulty    string   `json:"difficulty"`
	Year          int      `json:"year"`
}

func (r QuestionRequest) ToModel(id string) *models.StoredQuestion {
	return &models.StoredQuestion{
		Question: models.Question{
			ID:            id,
			Text:          r.Question,
			Options:       r.Options,
			CorrectAnswer: r.CorrectAnswer,
			Hint:          r.Hint,
			Explanation:   r.Explanation,
			Subject:       r.Subject,
			Topic:         r.Topic,
		},
		Difficulty: r.Difficulty,
		Year:       r.Year,
	}
}

type QuestionListResponse struct {
	Questions []models.StoredQuestion `json:"questions"`
	Limit     int                     `json:"limit"`
	Offset    int                     `json:"offset"`
}
