package ws

import (
	"net/http"

	"sosmed_backend/internal/logger"

	"github.com/gorilla/websocket"
)

// ServeWS поднимает соединение для уже аутентифицированного пользователя
func (m *Manager) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return m.originAllowed(r.Header.Get("Origin"))
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// ответ с ошибкой уже записан Upgrade
		logger.CtxWarn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		UserID:  userID,
		conn:    conn,
		send:    make(chan []byte, m.sendBuffer),
		manager: m,
		posts:   make(map[string]struct{}),
	}

	select {
	case m.register <- client:
	case <-m.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
