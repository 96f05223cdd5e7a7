package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sosmed_backend/internal/events"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func startManager(t *testing.T, opts Options) (*Manager, string) {
	t.Helper()

	m := NewManager(opts)
	go m.Run()
	t.Cleanup(m.Close)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.ServeWS(w, r, r.URL.Query().Get("user"))
	}))
	t.Cleanup(srv.Close)

	return m, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url+"?user=u1", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	hello := read(t, conn)
	require.Equal(t, TypeConnected, hello.Type)
	return conn
}

func read(t *testing.T, conn *websocket.Conn) received {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg received
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func postIDFrom(t *testing.T, msg received) string {
	t.Helper()
	var data struct {
		PostID string `json:"post_id"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	return data.PostID
}

func TestManager_BroadcastsEvents(t *testing.T) {
	m, url := startManager(t, Options{AllowedOrigins: []string{"*"}})
	first := dial(t, url)
	second := dial(t, url)
	assert.Equal(t, 2, m.ClientCount())

	require.NoError(t, m.Publish(context.Background(), events.SubjectPostCreated, events.PostEvent{PostID: "p1", UserID: "u2"}))

	for _, conn := range []*websocket.Conn{first, second} {
		msg := read(t, conn)
		assert.Equal(t, events.SubjectPostCreated, msg.Type)
		assert.Equal(t, "p1", postIDFrom(t, msg))
	}
}

func TestManager_SubscriptionFiltersByPost(t *testing.T) {
	m, url := startManager(t, Options{})
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(IncomingMessage{Action: "subscribe", PostIDs: []string{"p1"}}))
	ack := read(t, conn)
	require.Equal(t, TypeSubscribed, ack.Type)
	assert.JSONEq(t, `{"post_ids":["p1"]}`, string(ack.Data))

	ctx := context.Background()
	require.NoError(t, m.Publish(ctx, events.SubjectPostLiked, events.LikeEvent{PostID: "p2", LikesCount: 1}))
	require.NoError(t, m.Publish(ctx, events.SubjectCommentCreated, events.CommentEvent{CommentID: "c1", PostID: "p1"}))

	msg := read(t, conn)
	assert.Equal(t, events.SubjectCommentCreated, msg.Type)
	assert.Equal(t, "p1", postIDFrom(t, msg))

	require.NoError(t, conn.WriteJSON(IncomingMessage{Action: "unsubscribe", PostIDs: []string{"p1"}}))
	ack = read(t, conn)
	assert.JSONEq(t, `{"post_ids":[]}`, string(ack.Data))

	require.NoError(t, m.Publish(ctx, events.SubjectPostLiked, events.LikeEvent{PostID: "p2", LikesCount: 2}))
	assert.Equal(t, "p2", postIDFrom(t, read(t, conn)), "без подписок приходят все события")
}

func TestManager_RejectsForeignOrigin(t *testing.T) {
	_, url := startManager(t, Options{AllowedOrigins: []string{"https://app.example"}})

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://app.example")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	conn.Close()
}

func TestManager_DisconnectAndClose(t *testing.T) {
	m, url := startManager(t, Options{})
	conn := dial(t, url)
	other := dial(t, url)

	conn.Close()
	require.Eventually(t, func() bool { return m.ClientCount() == 1 }, 5*time.Second, 10*time.Millisecond)

	m.Close()
	require.NoError(t, other.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := other.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNoStatusReceived, websocket.CloseNormalClosure), "%v", err)

	err = m.Publish(context.Background(), events.SubjectPostDeleted, events.PostEvent{PostID: "p1"})
	assert.ErrorIs(t, err, ErrManagerClosed)
}
