package models

type Post struct {
	BaseModelWithDeleted
	UserID  uint    `gorm:"not null;index"`
	Caption *string `gorm:"type:text"`

	// Relations
	User     User      `gorm:"foreignKey:UserID"`
	Media    []Media   `gorm:"foreignKey:PostID"`
	Likes    []Like    `gorm:"foreignKey:PostID"`
	Comments []Comment `gorm:"foreignKey:PostID"`

	// Вычисляемые подзапросами колонки, в схему не попадают
	LikesCount    int64 `gorm:"->;-:migration"`
	CommentsCount int64 `gorm:"->;-:migration"`
}
