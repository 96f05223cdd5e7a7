package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handle(t *testing.T, err error) (int, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	HandleError(c, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHandleError_ValidationEnvelope(t *testing.T) {
	status, body := handle(t, FieldError("email", "The email has already been taken"))

	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Validation failed", body["message"])
	assert.Equal(t, map[string]interface{}{"email": "The email has already been taken"}, body["errors"])
}

func TestHandleError_WrappedDomainError(t *testing.T) {
	status, body := handle(t, fmt.Errorf("loading post: %w", ErrPostNotFound))

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Post not found", body["message"])
	assert.Nil(t, body["errors"])
}

func TestHandleError_HidesInternalDetails(t *testing.T) {
	cause := errors.New("connection refused")

	status, body := handle(t, cause)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", body["message"])
	assert.Nil(t, body["errors"])

	SetDebug(true)
	t.Cleanup(func() { SetDebug(false) })

	_, body = handle(t, StorageError(cause))
	assert.Equal(t, map[string]interface{}{"cause": "connection refused"}, body["errors"])
}

func TestAppError_CopiesDoNotMutateSentinels(t *testing.T) {
	withDetails := ErrInvalidToken.WithDetails("x")
	withCause := ErrInvalidToken.WithError(errors.New("expired"))

	assert.Nil(t, ErrInvalidToken.Details)
	assert.Nil(t, ErrInvalidToken.Err)
	assert.Equal(t, "x", withDetails.Details)
	assert.True(t, Is(withCause, withCause))
	assert.Contains(t, withCause.Error(), "expired")
}

func TestDomainErrors_StatusAndDomain(t *testing.T) {
	cases := []struct {
		err    *AppError
		status int
		domain string
	}{
		{ErrUnauthenticated, http.StatusUnauthorized, "auth"},
		{ErrPostUpdateForbidden, http.StatusForbidden, "post"},
		{ErrCommentDeleteForbidden, http.StatusForbidden, "comment"},
		{ErrAdminProfileHidden, http.StatusForbidden, "user"},
		{ErrUserNotFound, http.StatusNotFound, "user"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.HTTPCode, tc.err.Message)
		assert.Equal(t, tc.domain, tc.err.Domain, tc.err.Message)
	}

	status, body := handle(t, ErrPostDeleteForbidden)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "You are not allowed to delete this post", body["message"])
}
