package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tubehub/user-service/internal/core/domain"
)

const (
	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 10 * 24 * time.Hour
)

// TokenOptions configures the two token classes.
type TokenOptions struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

// tokenClaims is the JWT payload. Profile fields are set on access tokens only.
type tokenClaims struct {
	Class    domain.TokenClass `json:"typ"`
	Username string            `json:"username,omitempty"`
	Email    string            `json:"email,omitempty"`
	FullName string            `json:"fullName,omitempty"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 access and refresh tokens.
type TokenService struct {
	accessSecret  []byte
	accessTTL     time.Duration
	refreshSecret []byte
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenService fails when a signing secret is missing.
func NewTokenService(opts TokenOptions) (*TokenService, error) {
	if opts.AccessSecret == "" {
		return nil, errors.New("token service: access token secret is required")
	}
	if opts.RefreshSecret == "" {
		return nil, errors.New("token service: refresh token secret is required")
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = defaultAccessTTL
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = defaultRefreshTTL
	}
	return &TokenService{
		accessSecret:  []byte(opts.AccessSecret),
		accessTTL:     opts.AccessTTL,
		refreshSecret: []byte(opts.RefreshSecret),
		refreshTTL:    opts.RefreshTTL,
		now:           time.Now,
	}, nil
}

// WithClock overrides the time source. Intended for tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// IssueAccessToken signs a short-lived token carrying the user's profile.
func (s *TokenService) IssueAccessToken(u *domain.User) (string, error) {
	claims := s.baseClaims(domain.AccessToken, u.ID, s.accessTTL)
	claims.Username = u.Username
	claims.Email = u.Email
	claims.FullName = u.FullName
	return s.sign(claims, s.accessSecret)
}

// IssueRefreshToken signs a long-lived token carrying only the user id.
func (s *TokenService) IssueRefreshToken(u *domain.User) (string, error) {
	return s.sign(s.baseClaims(domain.RefreshToken, u.ID, s.refreshTTL), s.refreshSecret)
}

// Verify checks signature, expiry and class. Structurally broken tokens yield
// domain.ErrMalformedToken, every other failure domain.ErrInvalidToken.
func (s *TokenService) Verify(token string, class domain.TokenClass) (*domain.TokenClaims, error) {
	secret, err := s.secretFor(class)
	if err != nil {
		return nil, err
	}

	claims := &tokenClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, domain.ErrMalformedToken
		}
		return nil, domain.ErrInvalidToken
	}
	if claims.Class != class || claims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}

	out := &domain.TokenClaims{
		Class:    claims.Class,
		Subject:  claims.Subject,
		Username: claims.Username,
		Email:    claims.Email,
		FullName: claims.FullName,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func (s *TokenService) baseClaims(class domain.TokenClass, subject string, ttl time.Duration) *tokenClaims {
	now := s.now()
	return &tokenClaims{
		Class: class,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

func (s *TokenService) sign(claims *tokenClaims, secret []byte) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", claims.Class, err)
	}
	return signed, nil
}

func (s *TokenService) secretFor(class domain.TokenClass) ([]byte, error) {
	switch class {
	case domain.AccessToken:
		return s.accessSecret, nil
	case domain.RefreshToken:
		return s.refreshSecret, nil
	default:
		return nil, fmt.Errorf("unknown token class %q", class)
	}
}
