package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/tubehub/user-service/internal/core/domain"
	"github.com/tubehub/user-service/internal/core/ports"
)

// AuthGuard resolves access tokens to users.
type AuthGuard struct {
	users  ports.UserRepository
	tokens ports.TokenIssuer
}

func NewAuthGuard(users ports.UserRepository, tokens ports.TokenIssuer) *AuthGuard {
	return &AuthGuard{users: users, tokens: tokens}
}

// Authenticate verifies rawToken as an access token and loads its subject.
// Token failures and unknown subjects are reported as unauthorized.
func (g *AuthGuard) Authenticate(ctx context.Context, rawToken string) (*domain.User, error) {
	if rawToken == "" {
		return nil, domain.Errorf(domain.ErrUnauthorized, "unauthorized request")
	}

	claims, err := g.tokens.Verify(rawToken, domain.AccessToken)
	if err != nil {
		return nil, err
	}

	user, err := g.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.Errorf(domain.ErrUnauthorized, "invalid access token")
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return user.Public(), nil
}
