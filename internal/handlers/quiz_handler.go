package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jee-solver/internal/dto"
	"jee-solver/internal/service"
)

type QuizHandler struct {
	quizService *service.QuizService
}

func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// GetTopics godoc
// @Summary List topics for a subject
// @Tags Quiz
// @Produce json
// @Param subject query string true "Subject"
// @Success 200 {object} dto.TopicsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /questions/topics [get]
func (h *QuizHandler) GetTopics(c *gin.Context) {
	subject := strings.TrimSpace(c.Query("subject"))
	topics, err := h.quizService.Topics(c.Request.Context(), subject)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TopicsResponse{Subject: subject, Topics: topics})
}

// GenerateQuiz godoc
// @Summary Generate a quiz with the AI backend
// @Description Returns a handoff id that a session consumes exactly once.
// @Tags Quiz
// @Accept json
// @Produce json
// @Param request body dto.GenerateQuizRequest true "Quiz parameters"
// @Success 201 {object} dto.HandoffResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /quizzes/generate [post]
func (h *QuizHandler) GenerateQuiz(c *gin.Context) {
	var req dto.GenerateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.JsonError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, quiz, err := h.quizService.Generate(c.Request.Context(), service.GenerateRequest{
		Subject: req.Subject,
		Mode:    req.Mode,
		Topic:   req.Topic,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewHandoffResponse(id, quiz))
}

// GetBankYears godoc
// @Summary List question bank years for a subject
// @Tags Quiz
// @Produce json
// @Param subject query string true "Subject"
// @Success 200 {object} dto.BankYearsResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /quizzes/bank/years [get]
func (h *QuizHandler) GetBankYears(c *gin.Context) {
	subject := strings.TrimSpace(c.Query("subject"))
	years, err := h.quizService.BankYears(subject)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BankYearsResponse{Subject: subject, Years: years})
}

// LoadBankQuiz godoc
// @Summary Build a quiz from the local question bank
// @Tags Quiz
// @Accept json
// @Produce json
// @Param request body dto.BankQuizRequest true "Subject and year"
// @Success 201 {object} dto.HandoffResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /quizzes/bank [post]
func (h *QuizHandler) LoadBankQuiz(c *gin.Context) {
	var req dto.BankQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.JsonError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, quiz, err := h.quizService.LoadBank(c.Request.Context(), req.Subject, req.Year)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewHandoffResponse(id, quiz))
}
