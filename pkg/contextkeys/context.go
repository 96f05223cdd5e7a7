package contextkeys

// Используем кастомный тип, чтобы избежать коллизий
type contextKey string

const (
	// DBContextKey - ключ, по которому хранится *gorm.DB в gin.Context
	DBContextKey = contextKey("db")

	// CurrentUserKey - ключ для *models.User, загруженного по токену
	CurrentUserKey = contextKey("current_user")

	// UserIDKey и RoleKey - публичный id и роль из claims токена
	UserIDKey = contextKey("userID")
	RoleKey   = contextKey("role")
)
