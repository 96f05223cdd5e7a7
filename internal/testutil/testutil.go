// Package testutil - общие хелперы тестов: sqlite-БД на временном файле,
// фикстуры пользователей, PNG и multipart-формы.
package testutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"path/filepath"
	"sync/atomic"
	"testing"

	"sosmed_backend/database"
	"sosmed_backend/internal/auth"
	"sosmed_backend/internal/logger"
	"sosmed_backend/internal/models"
	"sosmed_backend/internal/storage"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// DefaultPassword - пароль всех пользователей из CreateUser
const DefaultPassword = "password123"

var userSeq atomic.Int64

func init() {
	logger.Init("test")
}

// NewTestDB - отдельная sqlite-БД на каждый тест, с миграциями
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)

	db, err := database.Open(database.DriverSQLite, dsn, "test")
	require.NoError(t, err, "Не удалось открыть тестовую БД")
	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// NewTestStorage - локальное хранилище во временной директории
func NewTestStorage(t *testing.T) *storage.LocalStorage {
	t.Helper()

	s, err := storage.NewLocalStorage(storage.Config{
		Type:     "local",
		BasePath: t.TempDir(),
		BaseURL:  "/files",
	})
	require.NoError(t, err)
	return s
}

// UserOption меняет поля пользователя перед сохранением
type UserOption func(u *models.User)

func WithRole(role models.UserRole) UserOption {
	return func(u *models.User) { u.Role = role }
}

func WithUsername(username string) UserOption {
	return func(u *models.User) { u.Username = username }
}

func WithEmail(email string) UserOption {
	return func(u *models.User) { u.Email = email }
}

// CreateUser создает пользователя с паролем DefaultPassword
func CreateUser(t *testing.T, db *gorm.DB, opts ...UserOption) *models.User {
	t.Helper()

	n := userSeq.Add(1)
	hash, err := auth.HashPassword(DefaultPassword)
	require.NoError(t, err)

	user := &models.User{
		Name:         fmt.Sprintf("Test User %d", n),
		Email:        fmt.Sprintf("user%d@test.com", n),
		Username:     fmt.Sprintf("user_%d", n),
		PasswordHash: hash,
		Role:         models.UserRoleUser,
	}
	for _, opt := range opts {
		opt(user)
	}

	require.NoError(t, db.Create(user).Error, "Не удалось создать пользователя %s", user.Email)
	return user
}

func CreateAdmin(t *testing.T, db *gorm.DB, opts ...UserOption) *models.User {
	t.Helper()
	return CreateUser(t, db, append([]UserOption{WithRole(models.UserRoleAdmin)}, opts...)...)
}

// PNG - валидное изображение w x h
func PNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// File - файл multipart-формы
type File struct {
	Field    string
	Filename string
	Content  []byte
}

// MultipartBody собирает тело формы, возвращает его и Content-Type
func MultipartBody(t *testing.T, fields map[string]string, files ...File) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		require.NoError(t, err)
		_, err = io.Copy(part, bytes.NewReader(f.Content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

// FileHeaders - *multipart.FileHeader для прямого вызова сервисов, в порядке files
func FileHeaders(t *testing.T, files ...File) []*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	var fields []string
	seen := map[string]bool{}
	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		require.NoError(t, err)
		_, err = part.Write(f.Content)
		require.NoError(t, err)
		if !seen[f.Field] {
			seen[f.Field] = true
			fields = append(fields, f.Field)
		}
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	var headers []*multipart.FileHeader
	for _, field := range fields {
		headers = append(headers, form.File[field]...)
	}
	return headers
}
