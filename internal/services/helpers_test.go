package services

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"sosmed_backend/internal/auth"
	"sosmed_backend/internal/cache"
	"sosmed_backend/internal/config"
	"sosmed_backend/internal/imageprocessor"
	"sosmed_backend/internal/metrics"
	"sosmed_backend/internal/models"
	"sosmed_backend/internal/repositories"
	"sosmed_backend/internal/services/dto"
	"sosmed_backend/internal/storage"
	"sosmed_backend/internal/testutil"
	"sosmed_backend/pkg/apperrors"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type publishedEvent struct {
	Subject string
	Event   interface{}
}

// recordingPublisher запоминает опубликованные события
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, subject string, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Subject: subject, Event: event})
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) Subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	subjects := make([]string, 0, len(p.events))
	for _, e := range p.events {
		subjects = append(subjects, e.Subject)
	}
	return subjects
}

func (p *recordingPublisher) Last() publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

// countingFeed - кэш выключен, но сбросы считаются
type countingFeed struct {
	cache.NoopFeedCache
	mu            sync.Mutex
	invalidations int
}

func (f *countingFeed) Invalidate(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidations++
	return nil
}

func (f *countingFeed) Invalidations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.invalidations
}

type testEnv struct {
	ctx     context.Context
	db      *gorm.DB
	storage *storage.LocalStorage
	feed    *countingFeed
	events  *recordingPublisher
	tokens  *auth.TokenManager

	uploads  UploadService
	auth     AuthService
	users    UserService
	posts    PostService
	comments CommentService
	likes    LikeService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		ctx:     context.Background(),
		db:      testutil.NewTestDB(t),
		storage: testutil.NewTestStorage(t),
		feed:    &countingFeed{},
		events:  &recordingPublisher{},
		tokens:  auth.NewTokenManager("test-secret", time.Hour),
	}

	cfg := config.DefaultUploadConfig()
	m := metrics.New()

	userRepo := repositories.NewUserRepository()
	postRepo := repositories.NewPostRepository()
	likeRepo := repositories.NewLikeRepository()

	env.uploads = NewUploadService(env.storage, imageprocessor.NewProcessor(cfg.ImageQuality, 64), cfg)
	env.auth = NewAuthService(userRepo, env.tokens, m)
	env.users = NewUserService(userRepo, env.uploads, cfg.AvatarMaxSize)
	env.posts = NewPostService(postRepo, repositories.NewMediaRepository(), likeRepo, env.uploads, env.feed, env.events, m, cfg.PostMaxSize)
	env.comments = NewCommentService(repositories.NewCommentRepository(), postRepo, env.feed, env.events, m)
	env.likes = NewLikeService(likeRepo, postRepo, env.feed, env.events, m)
	return env
}

func (e *testEnv) createPost(t *testing.T, user *models.User, caption string) *dto.PostResponse {
	t.Helper()

	req := &dto.CreatePostRequest{
		Files: testutil.FileHeaders(t, testutil.File{Field: "files[]", Filename: "photo.png", Content: testutil.PNG(t, 8, 6)}),
	}
	if caption != "" {
		req.Caption = &caption
	}

	post, err := e.posts.Create(e.ctx, e.db, user, req)
	require.NoError(t, err)
	return post
}

func (e *testEnv) createComment(t *testing.T, user *models.User, postID, body string, parentID *string) *dto.CommentResponse {
	t.Helper()

	comment, err := e.comments.Create(e.ctx, e.db, user, postID, &dto.CreateCommentRequest{Body: body, ParentID: parentID})
	require.NoError(t, err)
	return comment
}

// storedFiles - все файлы в локальном хранилище (ключи со слэшами)
func (e *testEnv) storedFiles(t *testing.T) []string {
	t.Helper()

	var files []string
	root := e.storage.BasePath()
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			rel, _ := filepath.Rel(root, p)
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	return files
}

// requireAppError проверяет HTTP-статус AppError и возвращает ее
func requireAppError(t *testing.T, err error, status int) *apperrors.AppError {
	t.Helper()

	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "ожидалась AppError, получено %T: %v", err, err)
	require.Equal(t, status, appErr.HTTPCode, appErr.Message)
	return appErr
}

// fieldErrors - детали ValidationError
func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()

	appErr := requireAppError(t, err, http.StatusUnprocessableEntity)
	details, ok := appErr.Details.(map[string]string)
	require.True(t, ok, "детали: %T", appErr.Details)
	return details
}

func strPtr(s string) *string {
	return &s
}
