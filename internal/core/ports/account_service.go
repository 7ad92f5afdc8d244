package ports

import (
	"context"

	"github.com/tubehub/user-service/internal/core/domain"
)

// AccountService mutates profile fields of an authenticated user.
type AccountService interface {
	UpdateAccount(ctx context.Context, userID, fullName, email string) (*domain.User, error)
	UpdateAvatar(ctx context.Context, userID string, file *domain.MediaFile) (*domain.User, error)
	UpdateCoverImage(ctx context.Context, userID string, file *domain.MediaFile) (*domain.User, error)
}

// ChannelService answers the social-graph and history queries.
type ChannelService interface {
	ChannelProfile(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]domain.WatchedVideo, error)
}
