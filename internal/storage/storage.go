package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrFileNotFound - файла по ключу нет в хранилище
var ErrFileNotFound = errors.New("file not found in storage")

// Storage - файловое хранилище медиа постов и аватаров.
// path - ключ внутри хранилища вида "posts/<user>/<file>".
type Storage interface {
	Save(ctx context.Context, path string, reader io.Reader, contentType string) error
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	GetURL(ctx context.Context, path string) (string, error)
	GetSize(ctx context.Context, path string) (int64, error)
}

// Config holds storage configuration
type Config struct {
	Type       string // local, s3, cloudflare_r2
	BasePath   string // For local storage
	BaseURL    string // Public URL base
	Bucket     string // For S3/R2
	Region     string // For S3
	AccessKey  string // For S3/R2
	SecretKey  string // For S3/R2
	Endpoint   string // For R2 or custom S3
	UseSSL     bool   // For S3/R2
	PublicRead bool   // Make files public by default
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "local", "":
		return NewLocalStorage(cfg)
	case "s3":
		return NewS3Storage(cfg)
	case "cloudflare_r2":
		return NewCloudflareR2Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// DeleteAll удаляет несколько файлов, пропуская пустые ключи.
// Возвращает первую ошибку, но пытается удалить все.
func DeleteAll(ctx context.Context, s Storage, paths ...string) error {
	var firstErr error
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := s.Delete(ctx, p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
