// Package ws - поток событий ленты по WebSocket.
// Manager реализует events.Publisher и рассылает доменные события подключенным клиентам.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"sosmed_backend/internal/events"
	"sosmed_backend/internal/logger"
)

// ErrManagerClosed - Publish после Close
var ErrManagerClosed = errors.New("websocket manager is closed")

const (
	TypeConnected  = "connected"
	TypeSubscribed = "subscribed"
)

// Message - кадр, который получает клиент
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type Options struct {
	AllowedOrigins []string
	SendBuffer     int // сообщений в очереди клиента до отключения
}

type outbound struct {
	postID  string
	payload []byte
}

type subscription struct {
	client  *Client
	postIDs []string
	add     bool
}

type Manager struct {
	clients map[*Client]struct{}
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	subscribe  chan subscription
	broadcast  chan outbound

	done      chan struct{}
	closeOnce sync.Once

	sendBuffer int
	origins    map[string]bool
	allowAll   bool
}

func NewManager(opts Options) *Manager {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}

	m := &Manager{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan subscription),
		broadcast:  make(chan outbound, 256),
		done:       make(chan struct{}),
		sendBuffer: opts.SendBuffer,
		origins:    make(map[string]bool, len(opts.AllowedOrigins)),
	}
	for _, o := range opts.AllowedOrigins {
		if o == "*" {
			m.allowAll = true
		}
		m.origins[o] = true
	}
	return m
}

// Run - цикл менеджера; все изменения состояния клиентов происходят здесь
func (m *Manager) Run() {
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			m.clients[client] = struct{}{}
			total := len(m.clients)
			m.mu.Unlock()
			logger.Debug("websocket client registered", "user_id", client.UserID, "total", total)
			m.enqueue(client, mustEncode(Message{Type: TypeConnected, Data: map[string]string{"user_id": client.UserID}}))

		case client := <-m.unregister:
			m.remove(client)

		case sub := <-m.subscribe:
			if _, ok := m.clients[sub.client]; !ok {
				continue
			}
			for _, id := range sub.postIDs {
				if sub.add {
					sub.client.posts[id] = struct{}{}
				} else {
					delete(sub.client.posts, id)
				}
			}
			m.enqueue(sub.client, mustEncode(Message{Type: TypeSubscribed, Data: map[string][]string{"post_ids": sub.client.subscribedPosts()}}))

		case msg := <-m.broadcast:
			m.mu.RLock()
			targets := make([]*Client, 0, len(m.clients))
			for client := range m.clients {
				if client.wants(msg.postID) {
					targets = append(targets, client)
				}
			}
			m.mu.RUnlock()
			for _, client := range targets {
				m.enqueue(client, msg.payload)
			}

		case <-m.done:
			m.mu.Lock()
			for client := range m.clients {
				close(client.send)
				delete(m.clients, client)
			}
			m.mu.Unlock()
			return
		}
	}
}

// enqueue - медленный клиент с полной очередью отключается
func (m *Manager) enqueue(client *Client, payload []byte) {
	select {
	case client.send <- payload:
	default:
		logger.Warn("websocket client is too slow, disconnecting", "user_id", client.UserID)
		m.remove(client)
	}
}

func (m *Manager) remove(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[client]; ok {
		close(client.send)
		delete(m.clients, client)
		logger.Debug("websocket client unregistered", "user_id", client.UserID, "total", len(m.clients))
	}
}

// Publish реализует events.Publisher
func (m *Manager) Publish(ctx context.Context, subject string, event interface{}) error {
	payload, err := json.Marshal(Message{Type: subject, Data: event})
	if err != nil {
		return fmt.Errorf("failed to encode websocket message %s: %w", subject, err)
	}

	select {
	case <-m.done:
		return ErrManagerClosed
	default:
	}

	select {
	case m.broadcast <- outbound{postID: postIDOf(event), payload: payload}:
		return nil
	case <-m.done:
		return ErrManagerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

func (m *Manager) originAllowed(origin string) bool {
	return origin == "" || m.allowAll || m.origins[origin]
}

func postIDOf(event interface{}) string {
	switch e := event.(type) {
	case events.PostEvent:
		return e.PostID
	case events.LikeEvent:
		return e.PostID
	case events.CommentEvent:
		return e.PostID
	}
	return ""
}

func mustEncode(msg Message) []byte {
	payload, err := json.Marshal(msg)
	if err != nil {
		panic(err)
	}
	return payload
}
