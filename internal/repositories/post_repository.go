package repositories

import (
	"errors"
	"strings"
	"time"

	"sosmed_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrPostNotFound = errors.New("post not found")

// PostFilter - параметры ленты
type PostFilter struct {
	Search string
	Page   int
	Limit  int
}

type PostRepository interface {
	Create(db *gorm.DB, post *models.Post) error
	FindByUniqueID(db *gorm.DB, uniqueID string) (*models.Post, error)
	FindDetail(db *gorm.DB, uniqueID string) (*models.Post, error)
	List(db *gorm.DB, filter PostFilter) ([]models.Post, int64, error)
	UpdateCaption(db *gorm.DB, post *models.Post, caption *string) error
	Delete(db *gorm.DB, post *models.Post) error
}

type PostRepositoryImpl struct{}

func NewPostRepository() PostRepository {
	return &PostRepositoryImpl{}
}

// withCounts добавляет likes_count и comments_count (ответы тоже считаются)
func withCounts(db *gorm.DB) *gorm.DB {
	return db.Select("posts.*, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id AND comments.deleted_at IS NULL) AS comments_count")
}

func orderedMedia(db *gorm.DB) *gorm.DB {
	return db.Order("media.order_index ASC")
}

func (r *PostRepositoryImpl) Create(db *gorm.DB, post *models.Post) error {
	// Media создаются отдельно, в той же транзакции
	return db.Omit(clause.Associations).Create(post).Error
}

func (r *PostRepositoryImpl) FindByUniqueID(db *gorm.DB, uniqueID string) (*models.Post, error) {
	var post models.Post
	err := withCounts(db.Model(&models.Post{})).
		Preload("User").
		Preload("Media", orderedMedia).
		Where("posts.unique_id = ?", uniqueID).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// FindDetail - пост со всеми лайками и комментариями (старые сверху)
func (r *PostRepositoryImpl) FindDetail(db *gorm.DB, uniqueID string) (*models.Post, error) {
	var post models.Post
	err := withCounts(db.Model(&models.Post{})).
		Preload("User").
		Preload("Media", orderedMedia).
		Preload("Likes", func(db *gorm.DB) *gorm.DB {
			return db.Order("likes.created_at DESC, likes.id DESC")
		}).
		Preload("Likes.User").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC, comments.id ASC")
		}).
		Preload("Comments.User").
		Where("posts.unique_id = ?", uniqueID).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *PostRepositoryImpl) List(db *gorm.DB, filter PostFilter) ([]models.Post, int64, error) {
	scope := func(q *gorm.DB) *gorm.DB {
		q = q.Model(&models.Post{})
		if search := strings.TrimSpace(filter.Search); search != "" {
			pattern := "%" + strings.ToLower(likeEscape(search)) + "%"
			q = q.Where("LOWER(posts.caption) LIKE ? ESCAPE '!'", pattern)
		}
		return q
	}

	var total int64
	if err := scope(db).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	posts := make([]models.Post, 0)
	if total == 0 {
		return posts, 0, nil
	}

	err := withCounts(scope(db)).
		Preload("User").
		Preload("Media", orderedMedia).
		Order("posts.created_at DESC, posts.id DESC").
		Scopes(paginate(filter.Page, filter.Limit)).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *PostRepositoryImpl) UpdateCaption(db *gorm.DB, post *models.Post, caption *string) error {
	// map, чтобы nil записался как NULL
	now := time.Now()
	if err := db.Model(&models.Post{}).
		Where("id = ?", post.ID).
		Updates(map[string]interface{}{"caption": caption, "updated_at": now}).Error; err != nil {
		return err
	}
	post.Caption = caption
	post.UpdatedAt = now
	return nil
}

func (r *PostRepositoryImpl) Delete(db *gorm.DB, post *models.Post) error {
	result := db.Delete(&models.Post{}, post.ID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}
