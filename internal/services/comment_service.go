package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"sosmed_backend/internal/auth"
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

const commentsPerPage = 10

type CommentService interface {
	// List - только комментарии верхнего уровня (старые сверху) с прямыми ответами
	List(ctx context.Context, db *gorm.DB, postID string, page int) (*dto.Paginated[dto.CommentThreadResponse], error)
	Create(ctx context.Context, db *gorm.DB, user *models.User, postID string, req *dto.CreateCommentRequest) (*dto.CommentResponse, error)
	Delete(ctx context.Context, db *gorm.DB, user *models.User, commentID string) error
}

type CommentServiceImpl struct {
	commentRepo repositories.CommentRepository
	postRepo    repositories.PostRepository
	feed        cache.FeedCache
	events      events.Publisher
	metrics     *metrics.Metrics
}

func NewCommentService(
	commentRepo repositories.CommentRepository,
	postRepo repositories.PostRepository,
	feed cache.FeedCache,
	publisher events.Publisher,
	m *metrics.Metrics,
) CommentService {
	return &CommentServiceImpl{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		feed:        feed,
		events:      publisher,
		metrics:     m,
	}
}

func (s *CommentServiceImpl) List(ctx context.Context, db *gorm.DB, postID string, page int) (*dto.Paginated[dto.CommentThreadResponse], error) {
	db = db.WithContext(ctx)

	post, err := s.postRepo.FindByUniqueID(db, postID)
	if err != nil {
		return nil, mapPostError(err)
	}

	page = clampPage(page, commentsPerPage)
	if page < 1 {
		page = 1
	}

	comments, total, err := s.commentRepo.ListTopLevel(db, post.ID, page, commentsPerPage)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	items := make([]dto.CommentThreadResponse, 0, len(comments))
	for i := range comments {
		items = append(items, toCommentThread(&comments[i], post.UniqueID))
	}
	return dto.NewPaginated(items, page, commentsPerPage, total), nil
}

// Create - parent_id (публичный id) должен быть комментарием верхнего уровня того же поста
func (s *CommentServiceImpl) Create(ctx context.Context, db *gorm.DB, user *models.User, postID string, req *dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	db = db.WithContext(ctx)

	post, err := s.postRepo.FindByUniqueID(db, postID)
	if err != nil {
		return nil, mapPostError(err)
	}

	comment := &models.Comment{
		UserID: user.ID,
		PostID: post.ID,
		Body:   strings.TrimSpace(req.Body),
	}

	var parentUID *string
	if req.ParentID != nil && strings.TrimSpace(*req.ParentID) != "" {
		parent, err := s.findParent(db, post, strings.TrimSpace(*req.ParentID))
		if err != nil {
			return nil, err
		}
		comment.ParentID = &parent.ID
		parentUID = &parent.UniqueID
	}

	if err := s.commentRepo.Create(db, comment); err != nil {
		return nil, apperrors.InternalError(err)
	}

	invalidateFeed(ctx, s.feed)
	s.metrics.CommentCreated()
	event := events.CommentEvent{
		CommentID: comment.UniqueID,
		PostID:    post.UniqueID,
		UserID:    user.UniqueID,
		Timestamp: time.Now().UTC(),
	}
	if parentUID != nil {
		event.ParentID = *parentUID
	}
	publishEvent(ctx, s.events, events.SubjectCommentCreated, event)
	logger.CtxInfo(ctx, "comment created", "comment_id", comment.UniqueID, "post_id", post.UniqueID, "reply", parentUID != nil)

	resp := toCommentResponse(comment, post.UniqueID, parentUID)
	return &resp, nil
}

func (s *CommentServiceImpl) findParent(db *gorm.DB, post *models.Post, parentID string) (*models.Comment, error) {
	parent, err := s.commentRepo.FindByUniqueID(db, parentID)
	if err != nil {
		if errors.Is(err, repositories.ErrCommentNotFound) {
			return nil, apperrors.FieldError("parent_id", "The selected parent id is invalid")
		}
		return nil, apperrors.InternalError(err)
	}
	if parent.PostID != post.ID {
		return nil, apperrors.FieldError("parent_id", "The parent comment belongs to another post")
	}
	if !parent.IsTopLevel() {
		return nil, apperrors.FieldError("parent_id", "Replies can only be added to top-level comments")
	}
	return parent, nil
}

// Delete - автор или администратор; ответы удаляются вместе с комментарием
func (s *CommentServiceImpl) Delete(ctx context.Context, db *gorm.DB, user *models.User, commentID string) error {
	db = db.WithContext(ctx)

	comment, err := s.commentRepo.FindByUniqueID(db, commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrCommentNotFound) {
			return apperrors.ErrCommentNotFound
		}
		return apperrors.InternalError(err)
	}

	if !auth.CanDeleteComment(user, comment) {
		return apperrors.ErrCommentDeleteForbidden
	}

	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.commentRepo.DeleteWithReplies(tx, comment); err != nil {
		if errors.Is(err, repositories.ErrCommentNotFound) {
			return apperrors.ErrCommentNotFound
		}
		return apperrors.InternalError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return apperrors.InternalError(err)
	}

	invalidateFeed(ctx, s.feed)
	publishEvent(ctx, s.events, events.SubjectCommentDeleted, events.CommentEvent{
		CommentID: comment.UniqueID,
		UserID:    user.UniqueID,
		Timestamp: time.Now().UTC(),
	})
	logger.CtxInfo(ctx, "comment deleted", "comment_id", comment.UniqueID)
	return nil
}
