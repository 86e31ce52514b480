package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jee-solver/internal/dto"
	"jee-solver/internal/service"
)

type RevisionHandler struct {
	bookmarkService *service.BookmarkService
}

func NewRevisionHandler(bookmarkService *service.BookmarkService) *RevisionHandler {
	return &RevisionHandler{bookmarkService: bookmarkService}
}

// GetFlashcards godoc
// @Summary Bookmarked questions as flashcards
// @Tags Revision
// @Produce json
// @Security BearerAuth
// @Param subject query string false "Subject filter, or all"
// @Success 200 {object} service.Flashcards
// @Router /revision/bookmarks [get]
func (h *RevisionHandler) GetFlashcards(c *gin.Context) {
	cards, err := h.bookmarkService.Flashcards(c.Request.Context(), c.GetString("user_id"), c.Query("subject"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cards)
}

// RemoveBookmark godoc
// @Summary Remove a bookmark
// @Tags Revision
// @Produce json
// @Security BearerAuth
// @Param questionId path string true "Question ID"
// @Success 200 {object} dto.MessageResponse
// @Router /revision/bookmarks/{questionId} [delete]
func (h *RevisionHandler) RemoveBookmark(c *gin.Context) {
	if err := h.bookmarkService.Remove(c.Request.Context(), c.GetString("user_id"), c.Param("questionId")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Bookmark removed"})
}
