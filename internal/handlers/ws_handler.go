package handlers

import (
	"sosmed_backend/internal/middleware"
	"sosmed_backend/pkg/apperrors"
	"sosmed_backend/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	*BaseHandler
	manager *ws.Manager
}

func NewWSHandler(base *BaseHandler, manager *ws.Manager) *WSHandler {
	return &WSHandler{
		BaseHandler: base,
		manager:     manager,
	}
}

func (h *WSHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ws", middleware.QueryToken(), h.auth.Required(), h.Connect)
}

// Connect godoc
// @Summary Поток событий ленты (WebSocket)
// @Description Токен передается заголовком Authorization или параметром access_token.
// @Description Команды клиента: {"action":"subscribe"|"unsubscribe","post_ids":[...]}.
// @Tags realtime
// @Param access_token query string false "JWT, если нельзя передать заголовок"
// @Success 101 {string} string "Switching Protocols"
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Security BearerAuth
// @Router /ws [get]
func (h *WSHandler) Connect(c *gin.Context) {
	user, ok := h.GetCurrentUser(c)
	if !ok {
		return
	}

	if !websocket.IsWebSocketUpgrade(c.Request) {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Expected a websocket upgrade request"))
		return
	}

	h.manager.ServeWS(c.Writer, c.Request, user.UniqueID)
}
