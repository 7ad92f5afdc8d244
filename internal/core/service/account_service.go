package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tubehub/user-service/internal/core/domain"
	"github.com/tubehub/user-service/internal/core/ports"
)

// AccountService updates profile fields and images.
type AccountService struct {
	users   ports.UserRepository
	media   ports.MediaStore
	janitor ports.MediaJanitor
	log     zerolog.Logger
}

func NewAccountService(users ports.UserRepository, media ports.MediaStore, janitor ports.MediaJanitor, log zerolog.Logger) *AccountService {
	return &AccountService{users: users, media: media, janitor: janitor, log: log}
}

func (s *AccountService) UpdateAccount(ctx context.Context, userID, fullName, email string) (*domain.User, error) {
	fullName, email = strings.TrimSpace(fullName), strings.TrimSpace(email)
	if fullName == "" || email == "" {
		return nil, domain.Errorf(domain.ErrValidation, "all fields are required")
	}

	user, err := s.users.UpdateAccount(ctx, userID, fullName, email)
	if err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	return user.Public(), nil
}

func (s *AccountService) UpdateAvatar(ctx context.Context, userID string, file *domain.MediaFile) (*domain.User, error) {
	if file == nil {
		return nil, domain.Errorf(domain.ErrValidation, "avatar file is missing")
	}
	return s.replaceImage(ctx, userID, *file, domain.FolderAvatars)
}

func (s *AccountService) UpdateCoverImage(ctx context.Context, userID string, file *domain.MediaFile) (*domain.User, error) {
	if file == nil {
		return nil, domain.Errorf(domain.ErrValidation, "cover image file is missing")
	}
	return s.replaceImage(ctx, userID, *file, domain.FolderCoverImages)
}

// replaceImage uploads the new image, points the user at it and hands the
// superseded object to the janitor.
func (s *AccountService) replaceImage(ctx context.Context, userID string, file domain.MediaFile, folder string) (*domain.User, error) {
	current, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("replace %s: %w", folder, err)
	}

	uploaded, err := s.media.Upload(ctx, file, folder)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Str("folder", folder).Msg("image upload failed")
		return nil, domain.Errorf(domain.ErrValidation, "error while uploading %s", imageLabel(folder))
	}

	var (
		updated  *domain.User
		previous string
	)
	if folder == domain.FolderAvatars {
		previous = current.AvatarID
		updated, err = s.users.UpdateAvatar(ctx, userID, *uploaded)
	} else {
		previous = current.CoverImageID
		updated, err = s.users.UpdateCoverImage(ctx, userID, *uploaded)
	}
	if err != nil {
		s.janitor.Discard(uploaded.PublicID)
		return nil, fmt.Errorf("replace %s: %w", folder, err)
	}

	if previous != "" && previous != uploaded.PublicID {
		s.janitor.Discard(previous)
	}
	return updated.Public(), nil
}

func imageLabel(folder string) string {
	if folder == domain.FolderAvatars {
		return "avatar"
	}
	return "cover image"
}
