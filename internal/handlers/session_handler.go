package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"jee-solver/internal/constants"
	"jee-solver/internal/dto"
	"jee-solver/internal/middleware"
	"jee-solver/internal/service"
	"jee-solver/internal/session"
)

type SessionHandler struct {
	quizService *service.QuizService
}

func NewSessionHandler(quizService *service.QuizService) *SessionHandler {
	return &SessionHandler{quizService: quizService}
}

func (h *SessionHandler) session(c *gin.Context) (*session.Controller, bool) {
	ctrl, err := h.quizService.Session(c.Param("id"), middleware.Identity(c))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return ctrl, true
}

// StartSession godoc
// @Summary Start a quiz session from a handoff
// @Description Consumes the handoff. A missing or invalid payload answers with a redirect to the practice page.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param request body dto.StartSessionRequest true "Handoff"
// @Success 201 {object} session.Snapshot
// @Failure 404 {object} dto.RedirectResponse
// @Failure 422 {object} dto.RedirectResponse
// @Router /sessions [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req dto.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.JsonError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctrl, err := h.quizService.StartSession(c.Request.Context(), req.HandoffID, middleware.Identity(c))
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, session.ErrNoHandoff) {
			status = http.StatusNotFound
		}
		c.JSON(status, dto.RedirectResponse{
			Error:    http.StatusText(status),
			Message:  err.Error(),
			Redirect: constants.PracticeRedirect,
		})
		return
	}
	c.JSON(http.StatusCreated, ctrl.Snapshot())
}

// GetSession godoc
// @Summary Get the current session state
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} session.Snapshot
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

// SelectAnswer godoc
// @Summary Answer a question
// @Description Answers are write-once; repeating the call returns the stored answer with recorded=false.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.SelectAnswerRequest true "Answer"
// @Success 200 {object} dto.SelectAnswerResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /sessions/{id}/answers [post]
func (h *SessionHandler) SelectAnswer(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	var req dto.SelectAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.JsonError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, recorded, err := ctrl.SelectAnswer(req.QuestionID, req.Answer)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SelectAnswerResponse{
		QuestionID: req.QuestionID,
		Record:     rec,
		Recorded:   recorded,
	})
}

// ToggleBookmark godoc
// @Summary Toggle a bookmark
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Param questionId path string true "Question ID"
// @Success 200 {object} dto.BookmarkResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /sessions/{id}/bookmarks/{questionId} [post]
func (h *SessionHandler) ToggleBookmark(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	questionID := c.Param("questionId")
	bookmarked, err := ctrl.ToggleBookmark(questionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BookmarkResponse{QuestionID: questionID, Bookmarked: bookmarked})
}

// ShowHint godoc
// @Summary Show or hide the hint for the current question
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.HintRequest true "Visibility"
// @Success 200 {object} session.Snapshot
// @Failure 409 {object} dto.ErrorResponse
// @Router /sessions/{id}/hint [post]
func (h *SessionHandler) ShowHint(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	var req dto.HintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.JsonError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := ctrl.ShowHint(req.Show); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

// Next godoc
// @Summary Advance to the next question
// @Description On the last question the session completes and the result is returned.
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} dto.AdvanceResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /sessions/{id}/next [post]
func (h *SessionHandler) Next(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	res, err := ctrl.Advance(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	snap := ctrl.Snapshot()
	if res == nil {
		res = snap.Result
	}
	c.JSON(http.StatusOK, dto.AdvanceResponse{Session: &snap, Result: res})
}

// Previous godoc
// @Summary Go back to the previous question
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} session.Snapshot
// @Failure 409 {object} dto.ErrorResponse
// @Router /sessions/{id}/previous [post]
func (h *SessionHandler) Previous(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	if err := ctrl.Retreat(); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

// AbandonSession godoc
// @Summary Abandon a session without a result
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /sessions/{id} [delete]
func (h *SessionHandler) AbandonSession(c *gin.Context) {
	if err := h.quizService.Abandon(c.Param("id"), middleware.Identity(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Session abandoned"})
}
