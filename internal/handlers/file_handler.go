package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"sosmed_backend/internal/logger"
	"sosmed_backend/internal/storage"
	"sosmed_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// FileHandler раздает файлы из хранилища по ключу (для local-хранилища
// это единственный способ получить медиа постов и аватары).
type FileHandler struct {
	*BaseHandler
	storage storage.Storage
}

func NewFileHandler(base *BaseHandler, storage storage.Storage) *FileHandler {
	return &FileHandler{
		BaseHandler: base,
		storage:     storage,
	}
}

func (h *FileHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/files/*path", h.ServeFile)
	r.HEAD("/files/*path", h.CheckFileExists)
}

// ServeFile godoc
// @Summary Получить файл из хранилища
// @Tags files
// @Produce octet-stream
// @Param path path string true "Ключ файла, например posts/<id>/<file>.jpg"
// @Success 200 {file} binary
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /files/{path} [get]
func (h *FileHandler) ServeFile(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("path"), "/")
	if key == "" {
		apperrors.HandleError(c, apperrors.NewNotFoundError("file", "File not found"))
		return
	}

	reader, err := h.storage.Get(c.Request.Context(), key)
	if err != nil {
		if !errors.Is(err, storage.ErrFileNotFound) {
			logger.CtxWarn(c.Request.Context(), "Failed to read file from storage", "path", key, "error", err.Error())
		}
		apperrors.HandleError(c, apperrors.NewNotFoundError("file", "File not found"))
		return
	}
	defer reader.Close()

	if size, err := h.storage.GetSize(c.Request.Context(), key); err == nil {
		c.Header("Content-Length", strconv.FormatInt(size, 10))
	}
	c.Header("Content-Type", contentTypeFor(key))
	c.Header("Cache-Control", "public, max-age=31536000")
	c.Header("ETag", fmt.Sprintf(`"%s"`, filepath.Base(key)))

	if c.Query("download") == "true" {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filepath.Base(key)))
	} else {
		c.Header("Content-Disposition", "inline")
	}

	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		// заголовки уже ушли, остается только залогировать
		_ = c.Error(err)
	}
}

// CheckFileExists - HEAD без тела
func (h *FileHandler) CheckFileExists(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("path"), "/")

	exists, err := h.storage.Exists(c.Request.Context(), key)
	if err != nil || !exists {
		c.Status(http.StatusNotFound)
		return
	}

	if size, err := h.storage.GetSize(c.Request.Context(), key); err == nil {
		c.Header("Content-Length", strconv.FormatInt(size, 10))
	}
	c.Header("Content-Type", contentTypeFor(key))
	c.Header("ETag", fmt.Sprintf(`"%s"`, filepath.Base(key)))
	c.Status(http.StatusOK)
}

func contentTypeFor(key string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(key))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
