package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goalpool/prediction-pools/models"
	"github.com/goalpool/prediction-pools/repositories"
	"github.com/goalpool/prediction-pools/storage"
)

type UserService interface {
	GetUser(ctx context.Context, id int) (*models.User, error)
	// UpdateUser позволяет пользователю обновить собственный профиль.
	UpdateUser(ctx context.Context, id, currentUserID int, input UpdateUserInput) (*models.User, error)
	UploadAvatar(ctx context.Context, id, currentUserID int, contentType string, file io.Reader) (*models.User, error)
}

type UpdateUserInput struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
}

type userService struct {
	userRepo repositories.UserRepository
	uploader storage.FileUploader
}

func NewUserService(userRepo repositories.UserRepository, uploader storage.FileUploader) UserService {
	return &userService{userRepo: userRepo, uploader: uploader}
}

func (s *userService) GetUser(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	s.populateProfileDetails(user)
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, id, currentUserID int, input UpdateUserInput) (*models.User, error) {
	if id != currentUserID {
		return nil, ErrForbiddenOperation
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}

	if input.FullName != nil {
		if *input.FullName == "" {
			return nil, fmt.Errorf("%w: full name must not be empty", ErrValidationFailed)
		}
		user.FullName = *input.FullName
	}
	if input.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repositories.ErrUserEmailConflict):
			return nil, ErrUserEmailConflict
		}
		return nil, fmt.Errorf("failed to update user %d: %w", id, err)
	}

	s.populateProfileDetails(user)
	return user, nil
}

func (s *userService) UploadAvatar(ctx context.Context, id, currentUserID int, contentType string, file io.Reader) (*models.User, error) {
	if id != currentUserID {
		return nil, ErrForbiddenOperation
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}

	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	key := fmt.Sprintf("users/%d/avatar%s", id, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	if err := s.userRepo.UpdateProfileImageKey(ctx, id, &key); err != nil {
		return nil, fmt.Errorf("failed to store avatar key: %w", err)
	}

	user.ProfileImageKey = &key
	s.populateProfileDetails(user)
	return user, nil
}

func (s *userService) populateProfileDetails(user *models.User) {
	if user == nil {
		return
	}
	user.PasswordHash = ""
	if user.ProfileImageKey != nil && *user.ProfileImageKey != "" && s.uploader != nil {
		if url := s.uploader.GetPublicURL(*user.ProfileImageKey); url != "" {
			user.ProfileImageURL = &url
		}
	}
}
