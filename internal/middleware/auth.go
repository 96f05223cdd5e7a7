package middleware

import (
	"strings"

	"sosmed_backend/internal/logger"
	"sosmed_backend/internal/models"
	"sosmed_backend/internal/services"
	"sosmed_backend/pkg/apperrors"
	"sosmed_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Authenticator - проверка bearer-токена. Пользователь перечитывается из БД
// на каждый запрос, поэтому удаление и смена роли действуют сразу.
type Authenticator struct {
	authService services.AuthService
}

func NewAuthenticator(authService services.AuthService) *Authenticator {
	return &Authenticator{authService: authService}
}

// Required - middleware проверки JWT, без токена 401
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			apperrors.HandleError(c, apperrors.ErrUnauthenticated)
			return
		}

		user, err := a.authService.ResolveCurrentUser(c.Request.Context(), requestDB(c), token)
		if err != nil {
			logger.CtxWarn(c.Request.Context(), "authentication failed", "error", err, "path", c.Request.URL.Path)
			apperrors.HandleError(c, err)
			return
		}

		setCurrentUser(c, user)
		c.Next()
	}
}

// Optional - токен не обязателен; невалидный токен означает анонимный запрос
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token != "" {
			user, err := a.authService.ResolveCurrentUser(c.Request.Context(), requestDB(c), token)
			if err != nil {
				logger.CtxDebug(c.Request.Context(), "ignoring invalid token on public route", "error", err)
			} else {
				setCurrentUser(c, user)
			}
		}
		c.Next()
	}
}

// QueryToken - браузерный WebSocket не умеет ставить Authorization,
// поэтому токен принимается из ?access_token=. Только для маршрута /ws.
func QueryToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			if token := c.Query("access_token"); token != "" {
				c.Request.Header.Set("Authorization", "Bearer "+token)
			}
		}
		c.Next()
	}
}

// CurrentUser - пользователь, загруженный Required/Optional, или nil
func CurrentUser(c *gin.Context) *models.User {
	val, exists := c.Get(string(contextkeys.CurrentUserKey))
	if !exists {
		return nil
	}
	user, _ := val.(*models.User)
	return user
}

// GetUserID извлекает публичный ID пользователя из контекста
func GetUserID(c *gin.Context) string {
	userID, exists := c.Get(string(contextkeys.UserIDKey))
	if !exists {
		return ""
	}

	id, ok := userID.(string)
	if !ok {
		return ""
	}

	return id
}

func setCurrentUser(c *gin.Context, user *models.User) {
	c.Set(string(contextkeys.CurrentUserKey), user)
	c.Set(string(contextkeys.UserIDKey), user.UniqueID)
	c.Set(string(contextkeys.RoleKey), string(user.Role))
	c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), user.UniqueID))
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func requestDB(c *gin.Context) *gorm.DB {
	if db, ok := c.Get(string(contextkeys.DBContextKey)); ok {
		if gormDB, ok := db.(*gorm.DB); ok {
			return gormDB
		}
	}
	panic("critical error: DBMiddleware did not set the db key")
}
