package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"sosmed_backend/internal/config"
	"sosmed_backend/internal/imageprocessor"
	"sosmed_backend/internal/logger"
	"sosmed_backend/internal/storage"
	"sosmed_backend/pkg/apperrors"

	"github.com/google/uuid"
)

// ============================================
// ЗАГРУЗКА ИЗОБРАЖЕНИЙ (медиа постов, аватары)
// ============================================

// UploadedImage - файл из формы, уже прочитанный и проверенный
type UploadedImage struct {
	OriginalName string
	Data         []byte
	Info         *imageprocessor.Info
}

// StoredImage - результат записи в storage
type StoredImage struct {
	Path          string
	ThumbnailPath string
	MimeType      string
	Size          int64
	Width         int
	Height        int
	OriginalName  string
}

// Paths - все ключи в storage (для компенсации и удаления)
func (s *StoredImage) Paths() []string {
	return []string{s.Path, s.ThumbnailPath}
}

type UploadService interface {
	// PrepareImage проверяет размер и формат, ошибки - ValidationError по полю field
	PrepareImage(field string, file *multipart.FileHeader, maxSize int64) (*UploadedImage, error)
	PrepareImages(field string, files []*multipart.FileHeader, maxSize int64) ([]*UploadedImage, error)
	// StoreImage пишет файл (и миниатюру) в dir/<uuid>.<ext>
	StoreImage(ctx context.Context, dir string, img *UploadedImage, withThumbnail bool) (*StoredImage, error)
	// Remove удаляет файлы, ошибки только логируются
	Remove(ctx context.Context, paths ...string)
	URL(ctx context.Context, path string) string
}

type uploadService struct {
	storage   storage.Storage
	processor *imageprocessor.Processor
	config    config.UploadConfig
}

func NewUploadService(storage storage.Storage, processor *imageprocessor.Processor, cfg config.UploadConfig) UploadService {
	return &uploadService{
		storage:   storage,
		processor: processor,
		config:    cfg,
	}
}

func (s *uploadService) PrepareImages(field string, files []*multipart.FileHeader, maxSize int64) ([]*UploadedImage, error) {
	if len(files) == 0 {
		return nil, apperrors.FieldError(field, "At least one file is required")
	}
	if s.config.MaxFiles > 0 && len(files) > s.config.MaxFiles {
		return nil, apperrors.FieldError(field, fmt.Sprintf("No more than %d files are allowed", s.config.MaxFiles))
	}

	images := make([]*UploadedImage, 0, len(files))
	for i, file := range files {
		img, err := s.PrepareImage(fmt.Sprintf("%s.%d", field, i), file, maxSize)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

func (s *uploadService) PrepareImage(field string, file *multipart.FileHeader, maxSize int64) (*UploadedImage, error) {
	if file == nil {
		return nil, apperrors.FieldError(field, "This field is required")
	}

	tooLarge := apperrors.FieldError(field, fmt.Sprintf("The file may not be greater than %d kilobytes", maxSize/1024))
	if file.Size > maxSize {
		return nil, tooLarge
	}

	src, err := file.Open()
	if err != nil {
		return nil, apperrors.InternalError(fmt.Errorf("failed to open uploaded file: %w", err))
	}
	defer src.Close()

	// Заголовок Size мог соврать - читаем не больше лимита
	data, err := io.ReadAll(io.LimitReader(src, maxSize+1))
	if err != nil {
		return nil, apperrors.InternalError(fmt.Errorf("failed to read uploaded file: %w", err))
	}
	if int64(len(data)) > maxSize {
		return nil, tooLarge
	}

	info, err := s.processor.Inspect(data)
	if err != nil {
		if errors.Is(err, imageprocessor.ErrNotAnImage) {
			return nil, apperrors.FieldError(field, "The file must be an image")
		}
		return nil, apperrors.InternalError(err)
	}
	if !s.isAllowed(info.MimeType()) {
		return nil, apperrors.FieldError(field, "The file must be a file of type: "+s.allowedList())
	}

	return &UploadedImage{OriginalName: file.Filename, Data: data, Info: info}, nil
}

func (s *uploadService) StoreImage(ctx context.Context, dir string, img *UploadedImage, withThumbnail bool) (*StoredImage, error) {
	name := uuid.NewString()
	stored := &StoredImage{
		Path:         path.Join(dir, name+extensionFor(img.Info.Format)),
		MimeType:     img.Info.MimeType(),
		Size:         int64(len(img.Data)),
		Width:        img.Info.Width,
		Height:       img.Info.Height,
		OriginalName: img.OriginalName,
	}

	if err := s.storage.Save(ctx, stored.Path, bytes.NewReader(img.Data), stored.MimeType); err != nil {
		return nil, apperrors.StorageError(fmt.Errorf("failed to save %s: %w", stored.Path, err))
	}

	if !withThumbnail {
		return stored, nil
	}

	thumb, err := s.processor.MakeThumbnail(img.Data)
	if err != nil {
		// Файл уже прошел Inspect; без миниатюры пост все равно валиден
		logger.CtxWarn(ctx, "thumbnail generation failed", "path", stored.Path, "error", err)
		return stored, nil
	}

	thumbPath := path.Join(dir, "thumbs", name+thumb.Ext)
	if err := s.storage.Save(ctx, thumbPath, bytes.NewReader(thumb.Data), thumb.ContentType); err != nil {
		s.Remove(ctx, stored.Path)
		return nil, apperrors.StorageError(fmt.Errorf("failed to save thumbnail %s: %w", thumbPath, err))
	}
	stored.ThumbnailPath = thumbPath

	return stored, nil
}

func (s *uploadService) Remove(ctx context.Context, paths ...string) {
	if err := storage.DeleteAll(ctx, s.storage, paths...); err != nil {
		logger.CtxWarn(ctx, "failed to delete files from storage", "paths", paths, "error", err)
	}
}

func (s *uploadService) URL(ctx context.Context, p string) string {
	if p == "" {
		return ""
	}
	url, err := s.storage.GetURL(ctx, p)
	if err != nil {
		logger.CtxWarn(ctx, "failed to build file URL", "path", p, "error", err)
		return ""
	}
	return url
}

func (s *uploadService) isAllowed(mimeType string) bool {
	if len(s.config.AllowedTypes) == 0 {
		return true
	}
	for _, allowed := range s.config.AllowedTypes {
		if strings.EqualFold(allowed, mimeType) {
			return true
		}
	}
	return false
}

func (s *uploadService) allowedList() string {
	names := make([]string, 0, len(s.config.AllowedTypes))
	for _, t := range s.config.AllowedTypes {
		names = append(names, strings.TrimPrefix(t, "image/"))
	}
	return strings.Join(names, ", ")
}

func extensionFor(format string) string {
	switch format {
	case "jpeg":
		return ".jpg"
	case "":
		return ""
	default:
		return "." + format
	}
}
