package services

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"sosmed_backend/internal/auth"
	"sosmed_backend/internal/logger"
	"sosmed_backend/internal/models"
	"sosmed_backend/internal/repositories"
	"sosmed_backend/internal/services/dto"
	"sosmed_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type UserService interface {
	GetSelf(user *models.User) *dto.UserResponse
	UpdateSelf(ctx context.Context, db *gorm.DB, user *models.User, req *dto.UpdateProfileRequest) (*dto.UserResponse, error)
	UploadAvatar(ctx context.Context, db *gorm.DB, user *models.User, file *multipart.FileHeader) (*dto.UserResponse, error)
	// GetByUsername - requester может быть nil (аноним)
	GetByUsername(ctx context.Context, db *gorm.DB, username string, requester *models.User) (*dto.ProfileResponse, error)
}

type UserServiceImpl struct {
	userRepo      repositories.UserRepository
	uploads       UploadService
	avatarMaxSize int64
}

func NewUserService(userRepo repositories.UserRepository, uploads UploadService, avatarMaxSize int64) UserService {
	return &UserServiceImpl{
		userRepo:      userRepo,
		uploads:       uploads,
		avatarMaxSize: avatarMaxSize,
	}
}

func (s *UserServiceImpl) GetSelf(user *models.User) *dto.UserResponse {
	return toUserResponse(user, true)
}

// UpdateSelf - частичное обновление name/bio
func (s *UserServiceImpl) UpdateSelf(ctx context.Context, db *gorm.DB, user *models.User, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	fields := make(map[string]interface{})

	var name string
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		fields["name"] = name
	}

	var bio *string
	if req.Bio.Set {
		if req.Bio.Value != nil && strings.TrimSpace(*req.Bio.Value) != "" {
			trimmed := strings.TrimSpace(*req.Bio.Value)
			bio = &trimmed
		}
		fields["bio"] = bio
	}

	if err := s.userRepo.Update(db.WithContext(ctx), user, fields); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if req.Name != nil {
		user.Name = name
	}
	if req.Bio.Set {
		user.Bio = bio
	}

	logger.CtxInfo(ctx, "profile updated", "user_id", user.UniqueID)
	return toUserResponse(user, true), nil
}

// UploadAvatar сохраняет новый аватар; старый файл удаляется после обновления записи
func (s *UserServiceImpl) UploadAvatar(ctx context.Context, db *gorm.DB, user *models.User, file *multipart.FileHeader) (*dto.UserResponse, error) {
	img, err := s.uploads.PrepareImage("avatar", file, s.avatarMaxSize)
	if err != nil {
		return nil, err
	}

	stored, err := s.uploads.StoreImage(ctx, "avatars/"+user.UniqueID, img, false)
	if err != nil {
		return nil, err
	}

	url := s.uploads.URL(ctx, stored.Path)
	var oldPath string
	if user.AvatarPath != nil {
		oldPath = *user.AvatarPath
	}

	fields := map[string]interface{}{
		"avatar_url":  url,
		"avatar_path": stored.Path,
	}
	if err := s.userRepo.Update(db.WithContext(ctx), user, fields); err != nil {
		s.uploads.Remove(ctx, stored.Path)
		return nil, apperrors.InternalError(err)
	}

	user.AvatarURL = &url
	user.AvatarPath = &stored.Path

	if oldPath != "" && oldPath != stored.Path {
		s.uploads.Remove(ctx, oldPath)
	}

	logger.CtxInfo(ctx, "avatar uploaded", "user_id", user.UniqueID, "path", stored.Path)
	return toUserResponse(user, true), nil
}

func (s *UserServiceImpl) GetByUsername(ctx context.Context, db *gorm.DB, username string, requester *models.User) (*dto.ProfileResponse, error) {
	db = db.WithContext(ctx)

	target, err := s.userRepo.FindByUsername(db, username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	if !auth.CanViewProfile(requester, target) {
		return nil, apperrors.ErrAdminProfileHidden
	}

	stats, err := s.userRepo.GetStats(db, target.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.ProfileResponse{
		UserResponse:  *toUserResponse(target, auth.CanSeeEmail(requester, target)),
		PostsCount:    stats.PostsCount,
		LikesCount:    stats.LikesCount,
		CommentsCount: stats.CommentsCount,
	}, nil
}
