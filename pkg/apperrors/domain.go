package apperrors

import (
	"net/http"
)

/*
Предопределенные ошибки домена.
Сервисы возвращают их напрямую или через WithError.
*/

// --- Auth ---

var ErrUnauthenticated = NewUnauthorizedError("Unauthenticated. Please login again!")

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid credentials",
	http.StatusUnauthorized,
)

var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized,
)

// --- Posts ---

var ErrPostNotFound = NewNotFoundError("post", "Post not found")

var ErrPostUpdateForbidden = NewForbiddenError("post", "You are not allowed to update this post")

var ErrPostDeleteForbidden = NewForbiddenError("post", "You are not allowed to delete this post")

// --- Comments ---

var ErrCommentNotFound = NewNotFoundError("comment", "Comment not found")

var ErrCommentDeleteForbidden = NewForbiddenError("comment", "You are not allowed to delete this comment")

// --- Users ---

var ErrUserNotFound = NewNotFoundError("user", "User not found")

// ErrAdminProfileHidden - профиль администратора виден только администраторам
var ErrAdminProfileHidden = NewForbiddenError("user", "You are not allowed to view this profile")

// --- Uploads ---

// ErrFileTooLarge - используется как 413 только на уровне multipart-парсинга.
// Размер отдельных файлов проверяется как ошибка валидации поля.
var ErrFileTooLarge = New(
	CodeLimitExceeded,
	"validation",
	"Request body is too large",
	http.StatusRequestEntityTooLarge,
)
