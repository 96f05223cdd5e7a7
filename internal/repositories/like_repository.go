package repositories

import (
	"errors"

	"sosmed_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrLikeNotFound      = errors.New("like not found")
	ErrLikeAlreadyExists = errors.New("like already exists")
)

type LikeRepository interface {
	Find(db *gorm.DB, userID, postID uint) (*models.Like, error)
	Create(db *gorm.DB, like *models.Like) error
	Delete(db *gorm.DB, like *models.Like) error
	CountByPost(db *gorm.DB, postID uint) (int64, error)
	ListByPost(db *gorm.DB, postID uint) ([]models.Like, error)
	LikedPostIDs(db *gorm.DB, userID uint, postIDs []uint) (map[uint]bool, error)
}

type LikeRepositoryImpl struct{}

func NewLikeRepository() LikeRepository {
	return &LikeRepositoryImpl{}
}

func (r *LikeRepositoryImpl) Find(db *gorm.DB, userID, postID uint) (*models.Like, error) {
	var like models.Like
	err := db.Where("user_id = ? AND post_id = ?", userID, postID).First(&like).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLikeNotFound
		}
		return nil, err
	}
	return &like, nil
}

func (r *LikeRepositoryImpl) Create(db *gorm.DB, like *models.Like) error {
	if err := db.Omit("User").Create(like).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrLikeAlreadyExists
		}
		return err
	}
	return nil
}

func (r *LikeRepositoryImpl) Delete(db *gorm.DB, like *models.Like) error {
	return db.Delete(&models.Like{}, like.ID).Error
}

func (r *LikeRepositoryImpl) CountByPost(db *gorm.DB, postID uint) (int64, error) {
	var count int64
	err := db.Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}

// ListByPost - лайки поста, новые сверху
func (r *LikeRepositoryImpl) ListByPost(db *gorm.DB, postID uint) ([]models.Like, error) {
	likes := make([]models.Like, 0)
	err := db.Preload("User").
		Where("post_id = ?", postID).
		Order("created_at DESC, id DESC").
		Find(&likes).Error
	return likes, err
}

// LikedPostIDs - какие из постов лайкнуты пользователем (для is_liked в ленте)
func (r *LikeRepositoryImpl) LikedPostIDs(db *gorm.DB, userID uint, postIDs []uint) (map[uint]bool, error) {
	liked := make(map[uint]bool, len(postIDs))
	if len(postIDs) == 0 {
		return liked, nil
	}

	var ids []uint
	err := db.Model(&models.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}
