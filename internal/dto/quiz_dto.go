package dto

import (
	"jee-solver/internal/models"
	"jee-solver/internal/session"
)

type GenerateQuizRequest struct {
	Subject string `json:"subject" binding:"required"`
	Mode    string `json:"mode" binding:"required,oneof=quick topic full pyq coaching"`
	Topic   string `json:"topic"`
}

type BankQuizRequest struct {
	Subject string `json:"subject" binding:"required"`
	Year    int    `json:"year" binding:"required,gt=0"`
}

type QuizPreview struct {
	Title          string `json:"quiz_title"`
	Subject        string `json:"subject"`
	Mode           string `json:"mode"`
	Topic          string `json:"topic,omitempty"`
	Difficulty     string `json:"difficulty"`
	DurationSec    int    `json:"duration_sec"`
	TotalQuestions int    `json:"total_questions"`
}

type HandoffResponse struct {
	HandoffID string      `json:"handoff_id"`
	Quiz      QuizPreview `json:"quiz"`
}

func NewHandoffResponse(id string, quiz *models.Quiz) HandoffResponse {
	return HandoffResponse{
		HandoffID: id,
		Quiz: QuizPreview{
			Title:          quiz.Title,
			Subject:        quiz.Subject,
			Mode:           quiz.Mode,
			Topic:          quiz.Topic,
			Difficulty:     quiz.Difficulty,
			DurationSec:    quiz.DurationSec,
			TotalQuestions: len(quiz.Questions),
		},
	}
}

type TopicsResponse struct {
	Subject string   `json:"subject"`
	Topics  []string `json:"topics"`
}

type BankYearsResponse struct {
	Subject string `json:"subject"`
	Years   []int  `json:"years"`
}

type StartSessionRequest struct {
	HandoffID string `json:"handoff_id" binding:"required"`
}

type SelectAnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required"`
	Answer     string `json:"answer" binding:"required"`
}

type SelectAnswerResponse struct {
	QuestionID string              `json:"question_id"`
	Record     models.AnswerRecord `json:"record"`
	// Recorded is false when the question had already been answered.
	Recorded bool `json:"recorded"`
}

type BookmarkResponse struct {
	QuestionID string `json:"question_id"`
	Bookmarked bool   `json:"bookmarked"`
}

type HintRequest struct {
	Show bool `json:"show"`
}

type AdvanceResponse struct {
	Session *session.Snapshot  `json:"session,omitempty"`
	Result  *models.QuizResult `json:"result,omitempty"`
}
