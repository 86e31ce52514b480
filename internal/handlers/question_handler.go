package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"jee-solver/internal/dto"
	"jee-solver/internal/service"
)

type QuestionHandler struct {
	questionService *service.QuestionService
}

func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// CreateQuestion godoc
// @Summary Add a question to the bank
// @Tags Question Bank
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.QuestionRequest true "Question"
// @Success 201 {object} models.StoredQuestion
// @Failure 400 {object} dto.ErrorResponse
// @Router /bank/questions [post]
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var req dto.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.JsonError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	q := req.ToModel("")
	if err := h.questionService.Create(c.Request.Context(), q); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

// GetQuestion godoc
// @Summary Get a bank question
// @Tags Question Bank
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Success 200 {object} models.StoredQuestion
// @Failure 404 {object} dto.ErrorResponse
// @Router /bank/questions/{id} [get]
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	q, err := h.questionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// ListQuestions godoc
// @Summary List bank questions
// @Tags Question Bank
// @Produce json
// @Security BearerAuth
// @Param subject query string false "Subject"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} dto.QuestionListResponse
// @Router /bank/questions [get]
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	list, err := h.questionService.List(c.Request.Context(), c.Query("subject"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.QuestionListResponse{Questions: list, Limit: limit, Offset: offset})
}

// UpdateQuestion godoc
// @Summary Replace a bank question
// @Tags Question Bank
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Param request body dto.QuestionRequest true "Question"
// @Success 200 {object} models.StoredQuestion
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /bank/questions/{id} [put]
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	var req dto.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.JsonError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	q := req.ToModel(c.Param("id"))
	if err := h.questionService.Update(c.Request.Context(), q); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// DeleteQuestion godoc
// @Summary Delete a bank question
// @Tags Question Bank
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /bank/questions/{id} [delete]
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	if err := h.questionService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Question deleted"})
}
