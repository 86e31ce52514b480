package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"jee-solver/internal/dto"
	"jee-solver/internal/service"
)

type ResultHandler struct {
	resultService *service.ResultService
}

func NewResultHandler(resultService *service.ResultService) *ResultHandler {
	return &ResultHandler{resultService: resultService}
}

// GetLatestResult godoc
// @Summary Most recent quiz result
// @Tags Results
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.QuizResult
// @Failure 404 {object} dto.ErrorResponse
// @Router /results/latest [get]
func (h *ResultHandler) GetLatestResult(c *gin.Context) {
	res, err := h.resultService.Latest(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetResult godoc
// @Summary Quiz result by id
// @Tags Results
// @Produce json
// @Security BearerAuth
// @Param id path string true "Result ID"
// @Success 200 {object} models.QuizResult
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /results/{id} [get]
func (h *ResultHandler) GetResult(c *gin.Context) {
	res, err := h.resultService.Get(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListResults godoc
// @Summary Recent quiz results
// @Tags Results
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max results (1-50)"
// @Success 200 {object} dto.ResultListResponse
// @Router /results [get]
func (h *ResultHandler) ListResults(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.resultService.History(c.Request.Context(), c.GetString("user_id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ResultListResponse{Results: list})
}

// GetProgress godoc
// @Summary Running progress summary
// @Tags Progress
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.ProgressView
// @Router /progress [get]
func (h *ResultHandler) GetProgress(c *gin.Context) {
	view, err := h.resultService.Progress(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetAnalytics godoc
// @Summary Progress analytics from recent results
// @Tags Progress
// @Produce json
// @Security BearerAuth
// @Success 200 {object} analytics.Report
// @Router /progress/analytics [get]
func (h *ResultHandler) GetAnalytics(c *gin.Context) {
	report, err := h.resultService.Analytics(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
