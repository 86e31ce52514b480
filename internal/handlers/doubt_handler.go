package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jee-solver/internal/dto"
	"jee-solver/internal/service"
	"jee-solver/pkg/validator"
)

type DoubtHandler struct {
	doubtService *service.DoubtService
}

func NewDoubtHandler(doubtService *service.DoubtService) *DoubtHandler {
	return &DoubtHandler{doubtService: doubtService}
}

// SubmitDoubt godoc
// @Summary Upload a problem image or PDF
// @Description Images are solved immediately; PDFs are queued for assessment.
// @Tags Doubts
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "PNG, JPEG or PDF, up to 10MB"
// @Success 201 {object} models.DoubtResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 413 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /doubts [post]
func (h *DoubtHandler) SubmitDoubt(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, validator.MaxUploadSize+1<<20)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		dto.JsonError(c, http.StatusBadRequest, "File is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		dto.JsonError(c, http.StatusBadRequest, "Failed to read file")
		return
	}
	defer file.Close()

	result, err := h.doubtService.Submit(c.Request.Context(), c.GetString("user_id"), service.Upload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}
