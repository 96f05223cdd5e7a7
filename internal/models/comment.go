package models

// Comment - двухуровневое дерево: ParentID == nil у комментариев верхнего уровня,
// ответы ссылаются только на комментарий верхнего уровня того же поста.
type Comment struct {
	BaseModelWithDeleted
	UserID   uint   `gorm:"not null;index"`
	PostID   uint   `gorm:"not null;index"`
	ParentID *uint  `gorm:"index"`
	Body     string `gorm:"type:text;not null"`

	// Relations
	User    User      `gorm:"foreignKey:UserID"`
	Replies []Comment `gorm:"foreignKey:ParentID"`
}

func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil
}
