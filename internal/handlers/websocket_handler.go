package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"jee-solver/internal/middleware"
	"jee-solver/internal/service"
	ws "jee-solver/internal/websocket"
	"jee-solver/pkg/logger"
)

type WebSocketHandler struct {
	hub         *ws.Hub
	quizService *service.QuizService
	upgrader    websocket.Upgrader
	log         *logger.Logger
}

// NewWebSocketHandler accepts upgrades from allowedOrigins; an empty list
// allows any origin.
func NewWebSocketHandler(hub *ws.Hub, quizService *service.QuizService, allowedOrigins []string, log *logger.Logger) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WebSocketHandler{
		hub:         hub,
		quizService: quizService,
		log:         log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				return allowed[r.Header.Get("Origin")]
			},
		},
	}
}

// HandleWebSocket godoc
// @Summary Live session channel
// @Description Streams tick, explanation, answer_recorded, bookmark_toggled, time_expired and quiz_finished events and accepts session actions.
// @Tags Sessions
// @Param id path string true "Session ID"
// @Param token query string false "Access token for browsers that cannot set headers"
// @Success 101
// @Failure 404 {object} dto.ErrorResponse
// @Router /ws/sessions/{id} [get]
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	user := middleware.Identity(c)
	ctrl, err := h.quizService.Session(c.Param("id"), user)
	if err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("failed to upgrade connection", "session_id", ctrl.ID(), "error", err)
		return
	}

	client := ws.NewClient(h.hub, conn, user, ctrl)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
