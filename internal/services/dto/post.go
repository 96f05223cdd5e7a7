package dto

import (
	"mime/multipart"
	"time"
)

// PostListQuery - GET /posts?search=&page=&limit=
type PostListQuery struct {
	Search string `form:"search" validate:"max=255"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

// CreatePostRequest собирается хендлером из multipart-формы
type CreatePostRequest struct {
	Caption *string                 `form:"caption" validate:"omitempty,max=5000"`
	Files   []*multipart.FileHeader `form:"-" validate:"-"`
}

type UpdatePostRequest struct {
	Caption *string `json:"caption" validate:"omitempty,max=5000"`
}

type MediaResponse struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	MediaType    string    `json:"media_type"`
	MimeType     string    `json:"mime_type"`
	Size         int64     `json:"size"`
	OrderIndex   int       `json:"order_index"`
	Width        int       `json:"width,omitempty"`
	Height       int       `json:"height,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// PostResponse - элемент ленты
type PostResponse struct {
	ID            string          `json:"id"`
	Caption       *string         `json:"caption"`
	User          UserSummary     `json:"user"`
	Media         []MediaResponse `json:"media"`
	LikesCount    int64           `json:"likes_count"`
	CommentsCount int64           `json:"comments_count"`
	IsLiked       bool            `json:"is_liked"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// PostDetailResponse - пост со списком лайков и всеми комментариями (плоско)
type PostDetailResponse struct {
	PostResponse
	Likes    []LikeResponse    `json:"likes"`
	Comments []CommentResponse `json:"comments"`
}
