package dto

import "time"

type CreateCommentRequest struct {
	Body     string  `json:"body" validate:"required,notblank,max=1000"`
	ParentID *string `json:"parent_id" validate:"omitempty,max=36"`
}

type CommentResponse struct {
	ID        string      `json:"id"`
	PostID    string      `json:"post_id"`
	ParentID  *string     `json:"parent_id"`
	Body      string      `json:"body"`
	User      UserSummary `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// CommentThreadResponse - комментарий верхнего уровня с прямыми ответами
type CommentThreadResponse struct {
	CommentResponse
	Replies []CommentResponse `json:"replies"`
}
