package ports

import (
	"context"

	"github.com/tubehub/user-service/internal/core/domain"
)

// MediaStore uploads and deletes profile images.
type MediaStore interface {
	Upload(ctx context.Context, file domain.MediaFile, folder string) (*domain.Media, error)
	Delete(ctx context.Context, publicID string) error
}

// MediaJanitor removes media objects off the request path.
type MediaJanitor interface {
	Discard(publicID string)
}

// LoginThrottle counts failed logins per identifier.
type LoginThrottle interface {
	Allowed(ctx context.Context, identifier string) (bool, error)
	RecordFailure(ctx context.Context, identifier string) error
	Reset(ctx context.Context, identifier string) error
}
