package repositories

import (
	"sosmed_backend/internal/models"

	"gorm.io/gorm"
)

type MediaRepository interface {
	CreateBatch(db *gorm.DB, media []models.Media) error
	FindByPost(db *gorm.DB, postID uint) ([]models.Media, error)
	DeleteByPost(db *gorm.DB, postID uint) error
}

type MediaRepositoryImpl struct{}

func NewMediaRepository() MediaRepository {
	return &MediaRepositoryImpl{}
}

func (r *MediaRepositoryImpl) CreateBatch(db *gorm.DB, media []models.Media) error {
	if len(media) == 0 {
		return nil
	}
	return db.Create(&media).Error
}

func (r *MediaRepositoryImpl) FindByPost(db *gorm.DB, postID uint) ([]models.Media, error) {
	var media []models.Media
	err := db.Where("post_id = ?", postID).Order("order_index ASC").Find(&media).Error
	return media, err
}

func (r *MediaRepositoryImpl) DeleteByPost(db *gorm.DB, postID uint) error {
	return db.Where("post_id = ?", postID).Delete(&models.Media{}).Error
}
