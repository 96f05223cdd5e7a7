package handlers

import (
	"net/http"

	"sosmed_backend/internal/config"
	"sosmed_backend/internal/middleware"
	"sosmed_backend/internal/services"
	"sosmed_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

// запас на caption и служебные части multipart
const multipartOverhead = 1 << 20

type PostHandler struct {
	*BaseHandler
	postService services.PostService
	maxBody     int64
}

func NewPostHandler(base *BaseHandler, postService services.PostService, uploadCfg config.UploadConfig) *PostHandler {
	maxFiles := int64(uploadCfg.MaxFiles)
	if maxFiles <= 0 {
		maxFiles = 1
	}
	return &PostHandler{
		BaseHandler: base,
		postService: postService,
		maxBody:     uploadCfg.PostMaxSize*maxFiles + multipartOverhead,
	}
}

func (h *PostHandler) RegisterRoutes(rg *gin.RouterGroup) {
	posts := rg.Group("/posts")
	{
		posts.GET("", h.auth.Optional(), h.ListPosts)
		posts.GET("/:id", h.auth.Optional(), h.GetPost)
	}

	protected := posts.Group("")
	protected.Use(h.auth.Required())
	{
		protected.POST("", h.CreatePost)
		protected.PUT("/:id", h.UpdatePost)
		protected.DELETE("/:id", h.DeletePost)
	}
}

// ListPosts godoc
// @Summary Лента постов
// @Description Новые сверху. search - подстрока подписи без учета регистра.
// @Tags posts
// @Produce json
// @Param search query string false "Строка поиска"
// @Param page query int false "Страница" default(1)
// @Param limit query int false "Размер страницы" default(10)
// @Success 200 {object} SuccessResponse{data=dto.Paginated[dto.PostResponse]}
// @Router /posts [get]
func (h *PostHandler) ListPosts(c *gin.Context) {
	var query dto.PostListQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	page, err := h.postService.List(c.Request.Context(), h.GetDB(c), middleware.CurrentUser(c), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Posts fetched successfully", page)
}

// CreatePost godoc
// @Summary Создать пост
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param caption formData string false "Подпись"
// @Param files[] formData file true "Изображения"
// @Success 201 {object} SuccessResponse{data=dto.PostResponse}
// @Failure 413 {object} apperrors.ErrorResponse
// @Failure 422 {object} apperrors.ErrorResponse
// @Router /posts [post]
func (h *PostHandler) CreatePost(c *gin.Context) {
	user, ok := h.GetCurrentUser(c)
	if !ok {
		return
	}
	if !h.ParseMultipart(c, h.maxBody) {
		return
	}

	form := c.Request.MultipartForm
	req := dto.CreatePostRequest{}
	if values, exists := form.Value["caption"]; exists && len(values) > 0 {
		caption := values[0]
		req.Caption = &caption
	}
	// принимаем и files[], и files
	req.Files = append(req.Files, form.File["files[]"]...)
	req.Files = append(req.Files, form.File["files"]...)

	if !h.validate(c, &req) {
		return
	}

	post, err := h.postService.Create(c.Request.Context(), h.GetDB(c), user, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusCreated, "Post created successfully", post)
}

// GetPost godoc
// @Summary Пост с медиа, лайками и комментариями
// @Tags posts
// @Produce json
// @Param id path string true "ID поста"
// @Success 200 {object} SuccessResponse{data=dto.PostDetailResponse}
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /posts/{id} [get]
func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.postService.Get(c.Request.Context(), h.GetDB(c), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Post fetched successfully", post)
}

// UpdatePost godoc
// @Summary Изменить подпись
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID поста"
// @Param request body dto.UpdatePostRequest true "Новая подпись"
// @Success 200 {object} SuccessResponse{data=dto.PostResponse}
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /posts/{id} [put]
func (h *PostHandler) UpdatePost(c *gin.Context) {
	user, ok := h.GetCurrentUser(c)
	if !ok {
		return
	}

	var req dto.UpdatePostRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	post, err := h.postService.Update(c.Request.Context(), h.GetDB(c), user, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Post updated successfully", post)
}

// DeletePost godoc
// @Summary Удалить пост
// @Description Владелец или администратор. Файлы медиа удаляются из хранилища.
// @Tags posts
// @Security BearerAuth
// @Param id path string true "ID поста"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /posts/{id} [delete]
func (h *PostHandler) DeletePost(c *gin.Context) {
	user, ok := h.GetCurrentUser(c)
	if !ok {
		return
	}

	if err := h.postService.Delete(c.Request.Context(), h.GetDB(c), user, c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Post deleted successfully", nil)
}
