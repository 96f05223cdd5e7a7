package services

import (
	"context"
	"errors"
	"time"

	"sosmed_backend/internal/cache"
	"sosmed_backend/internal/events"
	"sosmed_backend/internal/logger"
	"sosmed_backend/internal/metrics"
	"sosmed_backend/internal/models"
	"sosmed_backend/internal/repositories"
	"sosmed_backend/internal/services/dto"
	"sosmed_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type LikeService interface {
	// Toggle снимает лайк, если он есть, иначе ставит
	Toggle(ctx context.Context, db *gorm.DB, user *models.User, postID string) (*dto.ToggleLikeResponse, error)
	ListLikes(ctx context.Context, db *gorm.DB, postID string) (*dto.LikesResponse, error)
}

type LikeServiceImpl struct {
	likeRepo repositories.LikeRepository
	postRepo repositories.PostRepository
	feed     cache.FeedCache
	events   events.Publisher
	metrics  *metrics.Metrics
}

func NewLikeService(
	likeRepo repositories.LikeRepository,
	postRepo repositories.PostRepository,
	feed cache.FeedCache,
	publisher events.Publisher,
	m *metrics.Metrics,
) LikeService {
	return &LikeServiceImpl{
		likeRepo: likeRepo,
		postRepo: postRepo,
		feed:     feed,
		events:   publisher,
		metrics:  m,
	}
}

func (s *LikeServiceImpl) Toggle(ctx context.Context, db *gorm.DB, user *models.User, postID string) (*dto.ToggleLikeResponse, error) {
	db = db.WithContext(ctx)

	post, err := s.postRepo.FindByUniqueID(db, postID)
	if err != nil {
		return nil, mapPostError(err)
	}

	liked, err := s.toggle(db, user.ID, post.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	// Счетчик читаем вне транзакции: после конфликта уникальности
	// транзакция в Postgres уже непригодна
	count, err := s.likeRepo.CountByPost(db, post.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	subject := events.SubjectPostUnliked
	if liked {
		subject = events.SubjectPostLiked
	}
	invalidateFeed(ctx, s.feed)
	s.metrics.LikeToggled(liked)
	publishEvent(ctx, s.events, subject, events.LikeEvent{
		PostID:     post.UniqueID,
		UserID:     user.UniqueID,
		LikesCount: count,
		Timestamp:  time.Now().UTC(),
	})
	logger.CtxInfo(ctx, "like toggled", "post_id", post.UniqueID, "liked", liked)

	return &dto.ToggleLikeResponse{Liked: liked, LikesCount: count}, nil
}

// toggle - одна транзакция на переключение. Уникальный индекс (user_id, post_id)
// ловит двойную отправку: проигравший запрос считает лайк поставленным.
func (s *LikeServiceImpl) toggle(db *gorm.DB, userID, postID uint) (bool, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return false, tx.Error
	}
	defer tx.Rollback()

	existing, err := s.likeRepo.Find(tx, userID, postID)
	switch {
	case err == nil:
		if err := s.likeRepo.Delete(tx, existing); err != nil {
			return false, err
		}
		return false, tx.Commit().Error

	case errors.Is(err, repositories.ErrLikeNotFound):
		err := s.likeRepo.Create(tx, &models.Like{UserID: userID, PostID: postID})
		if errors.Is(err, repositories.ErrLikeAlreadyExists) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		return true, tx.Commit().Error

	default:
		return false, err
	}
}

func (s *LikeServiceImpl) ListLikes(ctx context.Context, db *gorm.DB, postID string) (*dto.LikesResponse, error) {
	db = db.WithContext(ctx)

	post, err := s.postRepo.FindByUniqueID(db, postID)
	if err != nil {
		return nil, mapPostError(err)
	}

	likes, err := s.likeRepo.ListByPost(db, post.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.LikesResponse{
		Total: int64(len(likes)),
		Likes: toLikeResponses(likes),
	}, nil
}
