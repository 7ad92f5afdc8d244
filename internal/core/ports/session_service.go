package ports

import (
	"context"

	"github.com/tubehub/user-service/internal/core/domain"
)

// RegisterInput is the registration form. Avatar is required, CoverImage is optional.
type RegisterInput struct {
	FullName   string
	Email      string
	Username   string
	Password   string
	Avatar     *domain.MediaFile
	CoverImage *domain.MediaFile
}

// LoginInput identifies the user by username or email.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	User   *domain.User
	Tokens domain.TokenPair
}

// SessionService owns registration and the refresh-token lifecycle.
type SessionService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	Logout(ctx context.Context, userID string) error
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}

// TokenIssuer signs and verifies access and refresh tokens.
type TokenIssuer interface {
	IssueAccessToken(u *domain.User) (string, error)
	IssueRefreshToken(u *domain.User) (string, error)
	Verify(token string, class domain.TokenClass) (*domain.TokenClaims, error)
}

// Authenticator resolves a raw access token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*domain.User, error)
}
