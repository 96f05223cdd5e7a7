package services

import (
	"context"
	"encoding/json"

	"sosmed_backend/internal/models"
	"sosmed_backend/internal/services/dto"
)

// Наружу уходит только UniqueID, числовой ID остается внутри

func toUserSummary(u *models.User) dto.UserSummary {
	return dto.UserSummary{
		ID:        u.UniqueID,
		Name:      u.Name,
		Username:  u.Username,
		AvatarURL: u.AvatarURL,
	}
}

func toUserResponse(u *models.User, showEmail bool) *dto.UserResponse {
	resp := &dto.UserResponse{
		ID:        u.UniqueID,
		Name:      u.Name,
		Username:  u.Username,
		Bio:       u.Bio,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if showEmail {
		resp.Email = u.Email
	}
	return resp
}

func toMediaResponses(ctx context.Context, uploads UploadService, media []models.Media) []dto.MediaResponse {
	items := make([]dto.MediaResponse, 0, len(media))
	for _, m := range media {
		item := dto.MediaResponse{
			ID:           m.UniqueID,
			URL:          uploads.URL(ctx, m.FilePath),
			ThumbnailURL: uploads.URL(ctx, m.ThumbnailPath),
			MediaType:    string(m.MediaType),
			MimeType:     m.MimeType,
			Size:         m.Size,
			OrderIndex:   m.OrderIndex,
			CreatedAt:    m.CreatedAt,
		}
		item.Width = metadataInt(m.Metadata, "width")
		item.Height = metadataInt(m.Metadata, "height")
		items = append(items, item)
	}
	return items
}

// metadataInt - datatypes.JSONMap читается с UseNumber, до записи в БД там int
func metadataInt(meta map[string]interface{}, key string) int {
	switch v := meta[key].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func toPostResponse(ctx context.Context, uploads UploadService, p *models.Post, isLiked bool) dto.PostResponse {
	return dto.PostResponse{
		ID:            p.UniqueID,
		Caption:       p.Caption,
		User:          toUserSummary(&p.User),
		Media:         toMediaResponses(ctx, uploads, p.Media),
		LikesCount:    p.LikesCount,
		CommentsCount: p.CommentsCount,
		IsLiked:       isLiked,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toCommentResponse(c *models.Comment, postUID string, parentUID *string) dto.CommentResponse {
	return dto.CommentResponse{
		ID:        c.UniqueID,
		PostID:    postUID,
		ParentID:  parentUID,
		Body:      c.Body,
		User:      toUserSummary(&c.User),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toCommentThread(c *models.Comment, postUID string) dto.CommentThreadResponse {
	thread := dto.CommentThreadResponse{
		CommentResponse: toCommentResponse(c, postUID, nil),
		Replies:         make([]dto.CommentResponse, 0, len(c.Replies)),
	}
	parentUID := c.UniqueID
	for i := range c.Replies {
		thread.Replies = append(thread.Replies, toCommentResponse(&c.Replies[i], postUID, &parentUID))
	}
	return thread
}

func toLikeResponses(likes []models.Like) []dto.LikeResponse {
	items := make([]dto.LikeResponse, 0, len(likes))
	for i := range likes {
		items = append(items, dto.LikeResponse{
			User:      toUserSummary(&likes[i].User),
			CreatedAt: likes[i].CreatedAt,
		})
	}
	return items
}
