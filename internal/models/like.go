package models

import "time"

// Like удаляется физически. Не более одного лайка на пару (user, post).
type Like struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_post"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_user_post;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	User User `gorm:"foreignKey:UserID"`
}

// AllModels - порядок для AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Post{},
		&Media{},
		&Comment{},
		&Like{},
	}
}
