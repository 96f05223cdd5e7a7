package dto

// RegisterRequest - запрос регистрации
type RegisterRequest struct {
	Name                 string `json:"name" validate:"required,notblank,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Username             string `json:"username" validate:"required,username,min=3,max=50"`
	Password             string `json:"password" validate:"required,min=6,max=72"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// LoginRequest - запрос входа
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse - пользователь и bearer-токен
type AuthResponse struct {
	User      *UserResponse `json:"user"`
	Token     string        `json:"token"`
	TokenType string        `json:"token_type"`
	ExpiresIn int64         `json:"expires_in"` // секунды
}

// MeResponse - ответ GET /auth/me
type MeResponse struct {
	User *UserResponse `json:"user"`
}
