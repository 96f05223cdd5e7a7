package handlers

import (
	"net/http"

	"sosmed_backend/internal/services"
	"sosmed_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	*BaseHandler
	commentService services.CommentService
}

func NewCommentHandler(base *BaseHandler, commentService services.CommentService) *CommentHandler {
	return &CommentHandler{
		BaseHandler:    base,
		commentService: commentService,
	}
}

func (h *CommentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/posts/:id/comments", h.ListComments)

	protected := rg.Group("")
	protected.Use(h.auth.Required())
	{
		protected.POST("/posts/:id/comments", h.CreateComment)
		protected.DELETE("/comments/:id", h.DeleteComment)
	}
}

// ListComments godoc
// @Summary Комментарии поста
// @Description Комментарии верхнего уровня (старые сверху) с ответами, по 10 на страницу
// @Tags comments
// @Produce json
// @Param id path string true "ID поста"
// @Param page query int false "Страница" default(1)
// @Success 200 {object} SuccessResponse{data=dto.Paginated[dto.CommentThreadResponse]}
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /posts/{id}/comments [get]
func (h *CommentHandler) ListComments(c *gin.Context) {
	page := ParseQueryInt(c, "page", 1)

	comments, err := h.commentService.List(c.Request.Context(), h.GetDB(c), c.Param("id"), page)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Comments retrieved successfully", comments)
}

// CreateComment godoc
// @Summary Добавить комментарий или ответ
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID поста"
// @Param request body dto.CreateCommentRequest true "Текст и, для ответа, parent_id"
// @Success 201 {object} SuccessResponse{data=dto.CommentResponse}
// @Failure 422 {object} apperrors.ErrorResponse
// @Router /posts/{id}/comments [post]
func (h *CommentHandler) CreateComment(c *gin.Context) {
	user, ok := h.GetCurrentUser(c)
	if !ok {
		return
	}

	var req dto.CreateCommentRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	comment, err := h.commentService.Create(c.Request.Context(), h.GetDB(c), user, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusCreated, "Comment added successfully", comment)
}

// DeleteComment godoc
// @Summary Удалить комментарий вместе с ответами
// @Tags comments
// @Security BearerAuth
// @Param id path string true "ID комментария"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /comments/{id} [delete]
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	user, ok := h.GetCurrentUser(c)
	if !ok {
		return
	}

	if err := h.commentService.Delete(c.Request.Context(), h.GetDB(c), user, c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Comment deleted successfully", nil)
}
