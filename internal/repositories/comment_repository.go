package repositories

import (
	"errors"

	"sosmed_backend/internal/models"

	"gorm.io/gorm"
)

var ErrCommentNotFound = errors.New("comment not found")

type CommentRepository interface {
	Create(db *gorm.DB, comment *models.Comment) error
	FindByUniqueID(db *gorm.DB, uniqueID string) (*models.Comment, error)
	ListTopLevel(db *gorm.DB, postID uint, page, pageSize int) ([]models.Comment, int64, error)
	DeleteWithReplies(db *gorm.DB, comment *models.Comment) error
}

type CommentRepositoryImpl struct{}

func NewCommentRepository() CommentRepository {
	return &CommentRepositoryImpl{}
}

func (r *CommentRepositoryImpl) Create(db *gorm.DB, comment *models.Comment) error {
	if err := db.Omit("User", "Replies").Create(comment).Error; err != nil {
		return err
	}
	return db.First(&comment.User, comment.UserID).Error
}

func (r *CommentRepositoryImpl) FindByUniqueID(db *gorm.DB, uniqueID string) (*models.Comment, error) {
	var comment models.Comment
	err := db.Preload("User").Where("unique_id = ?", uniqueID).First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return &comment, nil
}

// ListTopLevel - только комментарии верхнего уровня, каждый с прямыми ответами
func (r *CommentRepositoryImpl) ListTopLevel(db *gorm.DB, postID uint, page, pageSize int) ([]models.Comment, int64, error) {
	base := func(q *gorm.DB) *gorm.DB {
		return q.Model(&models.Comment{}).Where("post_id = ? AND parent_id IS NULL", postID)
	}

	var total int64
	if err := base(db).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	comments := make([]models.Comment, 0)
	if total == 0 {
		return comments, 0, nil
	}

	err := base(db).
		Preload("User").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC, comments.id ASC")
		}).
		Preload("Replies.User").
		Order("comments.created_at ASC, comments.id ASC").
		Scopes(paginate(page, pageSize)).
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// DeleteWithReplies - мягкое удаление комментария и его ответов. Вызывать в транзакции.
func (r *CommentRepositoryImpl) DeleteWithReplies(db *gorm.DB, comment *models.Comment) error {
	if comment.IsTopLevel() {
		if err := db.Where("parent_id = ?", comment.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
	}
	result := db.Delete(&models.Comment{}, comment.ID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}
