package services

import (
	"context"
	"errors"
	"strings"

	"sosmed_backend/internal/auth"
	"sosmed_backend/internal/logger"
	"sosmed_backend/internal/metrics"
	"sosmed_backend/internal/models"
	"sosmed_backend/internal/repositories"
	"sosmed_backend/internal/services/dto"
	"sosmed_backend/pkg/apperrors"

	"gorm.io/gorm"
)

const tokenTypeBearer = "bearer"

type AuthService interface {
	Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResponse, error)
	// ResolveCurrentUser проверяет токен и заново читает пользователя из БД
	ResolveCurrentUser(ctx context.Context, db *gorm.DB, token string) (*models.User, error)
}

type AuthServiceImpl struct {
	userRepo repositories.UserRepository
	tokens   *auth.TokenManager
	metrics  *metrics.Metrics
}

func NewAuthService(
	userRepo repositories.UserRepository,
	tokens *auth.TokenManager,
	m *metrics.Metrics,
) AuthService {
	return &AuthServiceImpl{
		userRepo: userRepo,
		tokens:   tokens,
		metrics:  m,
	}
}

// Register - регистрация нового пользователя с ролью user
func (s *AuthServiceImpl) Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	db = db.WithContext(ctx)

	email := normalizeEmail(req.Email)
	username := strings.TrimSpace(req.Username)

	taken, err := s.uniquenessErrors(db, email, username)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if len(taken) > 0 {
		return nil, apperrors.ValidationError(taken)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Role:         models.UserRoleUser,
	}

	if err := s.userRepo.Create(db, user); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			// Параллельная регистрация с теми же данными
			taken, checkErr := s.uniquenessErrors(db, email, username)
			if checkErr != nil || len(taken) == 0 {
				taken = map[string]string{"email": "The email has already been taken"}
			}
			return nil, apperrors.ValidationError(taken)
		}
		return nil, apperrors.InternalError(err)
	}

	s.metrics.UserRegistered()
	logger.CtxInfo(ctx, "user registered", "user_id", user.UniqueID, "username", user.Username)

	return s.issueToken(user)
}

// Login - аутентификация по email и паролю
func (s *AuthServiceImpl) Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	db = db.WithContext(ctx)

	user, err := s.userRepo.FindByEmail(db, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.CtxWarn(ctx, "login failed: wrong password", "user_id", user.UniqueID)
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.issueToken(user)
}

func (s *AuthServiceImpl) ResolveCurrentUser(ctx context.Context, db *gorm.DB, token string) (*models.User, error) {
	if token == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, apperrors.ErrInvalidToken.WithError(err)
	}

	user, err := s.userRepo.FindByUniqueID(db.WithContext(ctx), claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			// Пользователь удален после выдачи токена
			return nil, apperrors.ErrUnauthenticated
		}
		return nil, apperrors.InternalError(err)
	}
	return user, nil
}

func (s *AuthServiceImpl) issueToken(user *models.User) (*dto.AuthResponse, error) {
	token, err := s.tokens.GenerateToken(user.UniqueID, string(user.Role))
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.AuthResponse{
		User:      toUserResponse(user, true),
		Token:     token,
		TokenType: tokenTypeBearer,
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
	}, nil
}

func (s *AuthServiceImpl) uniquenessErrors(db *gorm.DB, email, username string) (map[string]string, error) {
	taken := make(map[string]string)

	emailTaken, err := s.userRepo.EmailTaken(db, email)
	if err != nil {
		return nil, err
	}
	if emailTaken {
		taken["email"] = "The email has already been taken"
	}

	usernameTaken, err := s.userRepo.UsernameTaken(db, username)
	if err != nil {
		return nil, err
	}
	if usernameTaken {
		taken["username"] = "The username has already been taken"
	}
	return taken, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
