package dto

import (
	"time"

	"sosmed_backend/internal/models"
)

// UserSummary - автор поста/комментария, лайкнувший пользователь
type UserSummary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

// UserResponse - полная запись пользователя. Email пустой, если его нельзя показывать.
type UserResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email,omitempty"`
	Username  string          `json:"username"`
	Bio       *string         `json:"bio"`
	AvatarURL *string         `json:"avatar_url"`
	Role      models.UserRole `json:"role"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ProfileResponse - публичный профиль со счетчиками
type ProfileResponse struct {
	UserResponse
	PostsCount    int64 `json:"posts_count"`
	LikesCount    int64 `json:"likes_count"`
	CommentsCount int64 `json:"comments_count"`
}

// UpdateProfileRequest - частичное обновление: отсутствующее поле не меняется,
// bio: null очищает bio.
type UpdateProfileRequest struct {
	Name *string        `json:"name" validate:"omitempty,notblank,max=255"`
	Bio  OptionalString `json:"bio" validate:"omitempty,max=500"`
}
