package models

import "gorm.io/datatypes"

// Media - файл поста. OrderIndex повторяет порядок загрузки (0..N-1).
type Media struct {
	BaseModelWithDeleted
	PostID        uint      `gorm:"not null;index"`
	FilePath      string    `gorm:"size:1024;not null"`
	ThumbnailPath string    `gorm:"size:1024"`
	MediaType     MediaType `gorm:"type:varchar(20);not null;default:'image'"`
	MimeType      string    `gorm:"size:100"`
	Size          int64
	OrderIndex    int `gorm:"not null;default:0"`
	Metadata      datatypes.JSONMap
}

func (Media) TableName() string {
	return "media"
}
