package handlers

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler    *AuthHandler
	PostHandler    *PostHandler
	CommentHandler *CommentHandler
	LikeHandler    *LikeHandler
	UserHandler    *UserHandler
	HealthHandler  *HealthHandler
	// WSHandler - nil, если realtime выключен
	WSHandler *WSHandler
	// FileHandler - nil, если хранилище не локальное
	FileHandler *FileHandler
}
