package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel - внутренний числовой ID никогда не уходит наружу,
// клиенту отдается только UniqueID.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey"`
	UniqueID  string    `gorm:"type:varchar(36);uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// BeforeCreate проставляет публичный идентификатор
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.UniqueID == "" {
		m.UniqueID = uuid.NewString()
	}
	return nil
}

type BaseModelWithDeleted struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
