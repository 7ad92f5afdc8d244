package ports

import (
	"context"

	"github.com/tubehub/user-service/internal/core/domain"
)

// NewUser carries the fields persisted on registration. Password is plaintext
// here; the repository hashes it before writing.
type NewUser struct {
	Username   string
	Email      string
	FullName   string
	Password   string
	Avatar     domain.Media
	CoverImage *domain.Media
}

// UserRepository is the credential store.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByIdentifier matches username OR email; empty values are ignored.
	FindByIdentifier(ctx context.Context, username, email string) (*domain.User, error)
	Create(ctx context.Context, in NewUser) (*domain.User, error)

	SetRefreshToken(ctx context.Context, id, token string) error
	// SwapRefreshToken replaces the persisted token only while it still equals
	// current. Returns domain.ErrRefreshTokenReused when it does not.
	SwapRefreshToken(ctx context.Context, id, current, next string) error
	ClearRefreshToken(ctx context.Context, id string) error

	UpdatePassword(ctx context.Context, id, password string) error
	UpdateAccount(ctx context.Context, id, fullName, email string) (*domain.User, error)
	UpdateAvatar(ctx context.Context, id string, media domain.Media) (*domain.User, error)
	UpdateCoverImage(ctx context.Context, id string, media domain.Media) (*domain.User, error)
}

// RelationshipRepository runs the read-only aggregation queries.
type RelationshipRepository interface {
	// ChannelProfile returns nil, nil when no user has the given username.
	ChannelProfile(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]domain.WatchedVideo, error)
}
