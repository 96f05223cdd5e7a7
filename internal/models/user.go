package models

type User struct {
	BaseModelWithDeleted
	Name         string   `gorm:"size:255;not null"`
	Email        string   `gorm:"size:255;uniqueIndex;not null"`
	Username     string   `gorm:"size:50;uniqueIndex;not null"`
	PasswordHash string   `gorm:"not null"`
	Bio          *string  `gorm:"size:500"`
	AvatarURL    *string  `gorm:"size:1024"`
	AvatarPath   *string  `gorm:"size:1024"` // ключ в storage, для удаления старого аватара
	Role         UserRole `gorm:"type:varchar(20);not null;default:'user'"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}
