package repositories

import (
	"errors"
	"time"

	"sosmed_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UserStats - счетчики для публичного профиля
type UserStats struct {
	PostsCount    int64
	LikesCount    int64
	CommentsCount int64
}

type UserRepository interface {
	Create(db *gorm.DB, user *models.User) error
	FindByID(db *gorm.DB, id uint) (*models.User, error)
	FindByUniqueID(db *gorm.DB, uniqueID string) (*models.User, error)
	FindByEmail(db *gorm.DB, email string) (*models.User, error)
	FindByUsername(db *gorm.DB, username string) (*models.User, error)
	EmailTaken(db *gorm.DB, email string) (bool, error)
	UsernameTaken(db *gorm.DB, username string) (bool, error)
	Update(db *gorm.DB, user *models.User, fields map[string]interface{}) error
	GetStats(db *gorm.DB, userID uint) (*UserStats, error)
}

type UserRepositoryImpl struct{}

func NewUserRepository() UserRepository {
	return &UserRepositoryImpl{}
}

func (r *UserRepositoryImpl) Create(db *gorm.DB, user *models.User) error {
	if err := db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

func (r *UserRepositoryImpl) FindByID(db *gorm.DB, id uint) (*models.User, error) {
	return r.findOne(db, "id = ?", id)
}

func (r *UserRepositoryImpl) FindByUniqueID(db *gorm.DB, uniqueID string) (*models.User, error) {
	return r.findOne(db, "unique_id = ?", uniqueID)
}

func (r *UserRepositoryImpl) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	return r.findOne(db, "email = ?", email)
}

func (r *UserRepositoryImpl) FindByUsername(db *gorm.DB, username string) (*models.User, error) {
	return r.findOne(db, "username = ?", username)
}

func (r *UserRepositoryImpl) findOne(db *gorm.DB, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := db.Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// EmailTaken учитывает и удаленных пользователей: уникальный индекс их тоже покрывает
func (r *UserRepositoryImpl) EmailTaken(db *gorm.DB, email string) (bool, error) {
	var count int64
	err := db.Unscoped().Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *UserRepositoryImpl) UsernameTaken(db *gorm.DB, username string) (bool, error) {
	var count int64
	err := db.Unscoped().Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (r *UserRepositoryImpl) Update(db *gorm.DB, user *models.User, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	// Model(user) записал бы значения в указатели *string пользователя,
	// которые уже могли уйти в ответы
	now := time.Now()
	values := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		values[k] = v
	}
	values["updated_at"] = now
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Updates(values).Error; err != nil {
		return err
	}
	user.UpdatedAt = now
	return nil
}

func (r *UserRepositoryImpl) GetStats(db *gorm.DB, userID uint) (*UserStats, error) {
	var stats UserStats

	if err := db.Model(&models.Post{}).Where("user_id = ?", userID).Count(&stats.PostsCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Like{}).Where("user_id = ?", userID).Count(&stats.LikesCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Comment{}).Where("user_id = ?", userID).Count(&stats.CommentsCount).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}
