package dto

import "time"

type ToggleLikeResponse struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likes_count"`
}

type LikeResponse struct {
	User      UserSummary `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
}

type LikesResponse struct {
	Total int64          `json:"total"`
	Likes []LikeResponse `json:"likes"`
}
