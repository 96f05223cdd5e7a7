package handlers

import (
	"net/http"

	"sosmed_backend/internal/config"
	"sosmed_backend/internal/middleware"
	"sosmed_backend/internal/services"
	"sosmed_backend/internal/services/dto"
	"sosmed_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	*BaseHandler
	userService services.UserService
	maxBody     int64
}

func NewUserHandler(base *BaseHandler, userService services.UserService, uploadCfg config.UploadConfig) *UserHandler {
	return &UserHandler{
		BaseHandler: base,
		userService: userService,
		maxBody:     uploadCfg.AvatarMaxSize + multipartOverhead,
	}
}

func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	me := rg.Group("/me")
	me.Use(h.auth.Required())
	{
		me.GET("", h.GetMe)
		me.PUT("", h.UpdateMe)
		me.POST("/avatar", h.UploadAvatar)
	}

	rg.GET("/users/:username", h.auth.Optional(), h.GetUserProfile)
}

// GetMe godoc
// @Summary Свой профиль
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse{data=dto.UserResponse}
// @Router /me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	user, ok := h.GetCurrentUser(c)
	if !ok {
		return
	}

	h.Respond(c, http.StatusOK, "User profile fetched successfully", h.userService.GetSelf(user))
}

// UpdateMe godoc
// @Summary Изменить имя и/или bio
// @Description Отсутствующее поле не меняется, bio = null или "" очищает bio
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Поля профиля"
// @Success 200 {object} SuccessResponse{data=dto.UserResponse}
// @Failure 422 {object} apperrors.ErrorResponse
// @Router /me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	user, ok := h.GetCurrentUser(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	updated, err := h.userService.UpdateSelf(c.Request.Context(), h.GetDB(c), user, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Profile updated successfully", updated)
}

// UploadAvatar godoc
// @Summary Загрузить аватар
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "Изображение до 2 МБ"
// @Success 200 {object} SuccessResponse{data=dto.UserResponse}
// @Failure 422 {object} apperrors.ErrorResponse
// @Router /me/avatar [post]
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	user, ok := h.GetCurrentUser(c)
	if !ok {
		return
	}
	if !h.ParseMultipart(c, h.maxBody) {
		return
	}

	files := c.Request.MultipartForm.File["avatar"]
	if len(files) == 0 {
		apperrors.HandleError(c, apperrors.FieldError("avatar", "The avatar field is required"))
		return
	}

	updated, err := h.userService.UploadAvatar(c.Request.Context(), h.GetDB(c), user, files[0])
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Avatar uploaded successfully", updated)
}

// GetUserProfile godoc
// @Summary Публичный профиль по username
// @Description Профиль администратора доступен только администраторам
// @Tags profile
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} SuccessResponse{data=dto.ProfileResponse}
// @Failure 403 {object} apperrors.ErrorResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /users/{username} [get]
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	profile, err := h.userService.GetByUsername(c.Request.Context(), h.GetDB(c), c.Param("username"), middleware.CurrentUser(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "User profile fetched successfully", profile)
}
