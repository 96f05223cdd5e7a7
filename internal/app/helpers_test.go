package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sosmed_backend/internal/app"
	"sosmed_backend/internal/cache"
	"sosmed_backend/internal/config"
	"sosmed_backend/internal/events"
	"sosmed_backend/internal/metrics"
	"sosmed_backend/internal/models"
	"sosmed_backend/internal/storage"
	"sosmed_backend/internal/testutil"
	"sosmed_backend/ws"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// TestServer - приложение целиком поверх sqlite и временного хранилища
type TestServer struct {
	Server  *httptest.Server
	DB      *gorm.DB
	Storage *storage.LocalStorage
	Metrics *metrics.Metrics
}

type serverOption func(deps *app.Dependencies)

// withRedisFeed включает кэш ленты на miniredis
func withRedisFeed(t *testing.T) serverOption {
	return func(deps *app.Dependencies) {
		mr := miniredis.RunT(t)
		client, err := cache.NewRedisClient(context.Background(), mr.Addr(), "", 0)
		require.NoError(t, err)
		t.Cleanup(func() { client.Close() })
		deps.FeedCache = cache.NewRedisFeedCache(client, time.Minute)
	}
}

// withRealtime включает /v1/ws; события идут только в WebSocket
func withRealtime(t *testing.T) serverOption {
	return func(deps *app.Dependencies) {
		deps.Realtime = ws.NewManager(ws.Options{AllowedOrigins: []string{"*"}})
		go deps.Realtime.Run()
		t.Cleanup(deps.Realtime.Close)
		deps.Publisher = events.NewFanoutPublisher(deps.Publisher, deps.Realtime)
	}
}

func NewTestServer(t *testing.T, opts ...serverOption) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Defaults()
	cfg.Server.Env = "test"
	cfg.JWT.Secret = "integration-secret"
	cfg.JWT.TTL = 60
	cfg.Upload.ThumbnailSize = 64

	db := testutil.NewTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	deps := &app.Dependencies{
		Storage:   testutil.NewTestStorage(t),
		FeedCache: cache.NewNoopFeedCache(),
		Publisher: events.NewNoopPublisher(),
		Metrics:   metrics.New(),
	}
	for _, opt := range opts {
		opt(deps)
	}

	server := httptest.NewServer(app.SetupRouter(cfg, db, sqlDB, deps))
	t.Cleanup(server.Close)

	return &TestServer{
		Server:  server,
		DB:      db,
		Storage: deps.Storage.(*storage.LocalStorage),
		Metrics: deps.Metrics,
	}
}

// envelope - общий конверт ответа
type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type response struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r *response) Envelope(t *testing.T) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(r.Body, &env), string(r.Body))
	return env
}

// Decode разбирает поле data в dst
func (r *response) Decode(t *testing.T, dst interface{}) envelope {
	t.Helper()
	env := r.Envelope(t)
	require.True(t, env.Success, string(r.Body))
	require.NoError(t, json.Unmarshal(env.Data, dst), string(r.Body))
	return env
}

func (ts *TestServer) do(t *testing.T, req *http.Request, token string) *response {
	t.Helper()

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")

	res, err := ts.Server.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return &response{Status: res.StatusCode, Header: res.Header, Body: body}
}

// SendRequest - JSON-запрос; body == nil означает запрос без тела
func (ts *TestServer) SendRequest(t *testing.T, method, path, token string, body interface{}) *response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			encoded, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(encoded)
		}
		reqBody = bytes.NewBufferString(raw)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return ts.do(t, req, token)
}

func (ts *TestServer) SendMultipart(t *testing.T, method, path, token string, fields map[string]string, files ...testutil.File) *response {
	t.Helper()

	body, contentType := testutil.MultipartBody(t, fields, files...)
	req, err := http.NewRequest(method, ts.Server.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	return ts.do(t, req, token)
}

// Login создает пользователя и возвращает его вместе с токеном
func (ts *TestServer) Login(t *testing.T, opts ...testutil.UserOption) (*models.User, string) {
	t.Helper()

	user := testutil.CreateUser(t, ts.DB, opts...)
	res := ts.SendRequest(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    user.Email,
		"password": testutil.DefaultPassword,
	})
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))

	var auth struct {
		Token string `json:"token"`
	}
	res.Decode(t, &auth)
	require.NotEmpty(t, auth.Token)
	return user, auth.Token
}

func photo(t *testing.T, name string) testutil.File {
	return testutil.File{Field: "files[]", Filename: name, Content: testutil.PNG(t, 40, 30)}
}

// CreatePost - пост с одним изображением через API
func (ts *TestServer) CreatePost(t *testing.T, token, caption string) string {
	t.Helper()

	res := ts.SendMultipart(t, http.MethodPost, "/v1/posts", token, map[string]string{"caption": caption}, photo(t, "a.png"))
	require.Equal(t, http.StatusCreated, res.Status, string(res.Body))

	var post struct {
		ID string `json:"id"`
	}
	res.Decode(t, &post)
	return post.ID
}
