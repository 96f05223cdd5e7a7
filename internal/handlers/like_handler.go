package handlers

import (
	"net/http"

	"sosmed_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type LikeHandler struct {
	*BaseHandler
	likeService services.LikeService
}

func NewLikeHandler(base *BaseHandler, likeService services.LikeService) *LikeHandler {
	return &LikeHandler{
		BaseHandler: base,
		likeService: likeService,
	}
}

func (h *LikeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	likes := rg.Group("/posts/:id")
	likes.Use(h.auth.Required())
	{
		likes.POST("/like", h.ToggleLike)
		likes.GET("/likes", h.ListLikes)
	}
}

// ToggleLike godoc
// @Summary Поставить или снять лайк
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID поста"
// @Success 200 {object} SuccessResponse{data=dto.ToggleLikeResponse}
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /posts/{id}/like [post]
func (h *LikeHandler) ToggleLike(c *gin.Context) {
	user, ok := h.GetCurrentUser(c)
	if !ok {
		return
	}

	result, err := h.likeService.Toggle(c.Request.Context(), h.GetDB(c), user, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	message := "Like removed"
	if result.Liked {
		message = "Liked"
	}
	h.Respond(c, http.StatusOK, message, result)
}

// ListLikes godoc
// @Summary Кто лайкнул пост
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID поста"
// @Success 200 {object} SuccessResponse{data=dto.LikesResponse}
// @Router /posts/{id}/likes [get]
func (h *LikeHandler) ListLikes(c *gin.Context) {
	likes, err := h.likeService.ListLikes(c.Request.Context(), h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Likes retrieved successfully", likes)
}
