package ws

import (
	"encoding/json"
	"sort"
	"time"

	"sosmed_backend/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// IncomingMessage - команда от клиента
type IncomingMessage struct {
	Action  string   `json:"action"` // subscribe, unsubscribe
	PostIDs []string `json:"post_ids"`
}

type Client struct {
	UserID  string
	conn    *websocket.Conn
	send    chan []byte
	manager *Manager

	// только из цикла Manager.Run; пусто = все события
	posts map[string]struct{}
}

func (c *Client) wants(postID string) bool {
	if len(c.posts) == 0 || postID == "" {
		return true
	}
	_, ok := c.posts[postID]
	return ok
}

func (c *Client) subscribedPosts() []string {
	ids := make([]string, 0, len(c.posts))
	for id := range c.posts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.manager.unregister <- c:
		case <-c.manager.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read error", "user_id", c.UserID, "error", err)
			}
			return
		}

		var msg IncomingMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			logger.Debug("ignoring malformed websocket message", "user_id", c.UserID, "error", err)
			continue
		}

		switch msg.Action {
		case "subscribe", "unsubscribe":
			sub := subscription{client: c, postIDs: msg.PostIDs, add: msg.Action == "subscribe"}
			select {
			case c.manager.subscribe <- sub:
			case <-c.manager.done:
				return
			}
		default:
			logger.Debug("unhandled websocket action", "user_id", c.UserID, "action", msg.Action)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// менеджер закрыл очередь
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Debug("websocket write error", "user_id", c.UserID, "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
