package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tubehub/user-service/internal/core/domain"
	"github.com/tubehub/user-service/internal/core/ports"
	"github.com/tubehub/user-service/internal/pkg/password"
)

// SessionService implements registration, login, logout, refresh-token
// rotation and password changes.
type SessionService struct {
	users    ports.UserRepository
	tokens   ports.TokenIssuer
	media    ports.MediaStore
	throttle ports.LoginThrottle
	log      zerolog.Logger
}

// NewSessionService wires the session manager. throttle may be nil.
func NewSessionService(
	users ports.UserRepository,
	tokens ports.TokenIssuer,
	media ports.MediaStore,
	throttle ports.LoginThrottle,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		users:    users,
		tokens:   tokens,
		media:    media,
		throttle: throttle,
		log:      log,
	}
}

// Register creates a user after uploading the avatar and optional cover image.
// Uploaded media is deleted again when the user cannot be created or read back.
func (s *SessionService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	for _, field := range []string{in.FullName, in.Email, in.Username, in.Password} {
		if strings.TrimSpace(field) == "" {
			return nil, domain.Errorf(domain.ErrValidation, "all fields are required")
		}
	}
	if in.Avatar == nil {
		return nil, domain.Errorf(domain.ErrValidation, "avatar image is required")
	}

	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.TrimSpace(in.Email)

	existing, err := s.users.FindByIdentifier(ctx, username, email)
	switch {
	case err == nil && existing != nil:
		return nil, domain.ErrUserExists
	case err != nil && !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("register: lookup: %w", err)
	}

	avatar, err := s.media.Upload(ctx, *in.Avatar, domain.FolderAvatars)
	if err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("avatar upload failed")
		return nil, domain.Errorf(domain.ErrValidation, "avatar image is required")
	}

	var cover *domain.Media
	if in.CoverImage != nil {
		cover, err = s.media.Upload(ctx, *in.CoverImage, domain.FolderCoverImages)
		if err != nil {
			s.log.Warn().Err(err).Str("username", username).Msg("cover image upload failed, continuing without it")
			cover = nil
		}
	}

	created, err := s.users.Create(ctx, ports.NewUser{
		Username:   username,
		Email:      email,
		FullName:   strings.TrimSpace(in.FullName),
		Password:   in.Password,
		Avatar:     *avatar,
		CoverImage: cover,
	})
	if err != nil {
		s.discardMedia(ctx, avatar, cover)
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("register: create: %w", err)
	}

	stored, err := s.users.FindByID(ctx, created.ID)
	if err != nil || stored == nil {
		s.log.Error().Err(err).Str("user_id", created.ID).Msg("registered user could not be read back")
		s.discardMedia(ctx, avatar, cover)
		return nil, domain.Errorf(domain.ErrInternal, "something went wrong while registering the user, uploaded images were deleted")
	}

	s.log.Info().Str("user_id", stored.ID).Str("username", stored.Username).Msg("user registered")
	return stored.Public(), nil
}

// Login checks credentials and opens a session, overwriting any previous
// refresh token.
func (s *SessionService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.TrimSpace(in.Email)
	if username == "" && email == "" {
		return nil, domain.Errorf(domain.ErrValidation, "username or email is required")
	}

	key := username
	if key == "" {
		key = strings.ToLower(email)
	}
	if err := s.checkThrottle(ctx, key); err != nil {
		return nil, err
	}

	user, err := s.users.FindByIdentifier(ctx, username, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("login: lookup: %w", err)
	}

	if !password.Matches(user.PasswordHash, in.Password) {
		s.recordFailure(ctx, key)
		return nil, domain.ErrInvalidCredentials
	}
	s.resetThrottle(ctx, key)

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("persist refresh token failed")
		return nil, domain.Errorf(domain.ErrInternal, "something went wrong while generating refresh and access token")
	}

	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return &ports.LoginResult{User: user.Public(), Tokens: *pair}, nil
}

// Logout clears the persisted refresh token. Issued access tokens stay valid
// until they expire.
func (s *SessionService) Logout(ctx context.Context, userID string) error {
	if err := s.users.ClearRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info().Str("user_id", userID).Msg("user logged out")
	return nil
}

// Refresh rotates the session: the presented token must be the one currently
// persisted, and it is replaced atomically by a freshly issued one.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, domain.Errorf(domain.ErrUnauthorized, "unauthorized request")
	}

	claims, err := s.tokens.Verify(refreshToken, domain.RefreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.Errorf(domain.ErrUnauthorized, "invalid refresh token")
		}
		return nil, fmt.Errorf("refresh: lookup: %w", err)
	}

	if user.RefreshToken != refreshToken {
		s.log.Warn().Str("user_id", user.ID).Msg("superseded refresh token presented")
		return nil, domain.ErrRefreshTokenReused
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}
	if err := s.users.SwapRefreshToken(ctx, user.ID, refreshToken, pair.RefreshToken); err != nil {
		if errors.Is(err, domain.ErrRefreshTokenReused) {
			s.log.Warn().Str("user_id", user.ID).Msg("concurrent refresh lost the swap")
			return nil, domain.ErrRefreshTokenReused
		}
		return nil, fmt.Errorf("refresh: persist: %w", err)
	}

	return pair, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *SessionService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return domain.Errorf(domain.ErrValidation, "new password is required")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if !password.Matches(user.PasswordHash, oldPassword) {
		return domain.Errorf(domain.ErrUnauthorized, "invalid old password")
	}

	if err := s.users.UpdatePassword(ctx, userID, newPassword); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	s.log.Info().Str("user_id", userID).Msg("password changed")
	return nil
}

func (s *SessionService) issuePair(u *domain.User) (*domain.TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(u)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(u)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// discardMedia is best-effort; failures are only logged.
func (s *SessionService) discardMedia(ctx context.Context, items ...*domain.Media) {
	for _, m := range items {
		if m == nil || m.PublicID == "" {
			continue
		}
		if err := s.media.Delete(ctx, m.PublicID); err != nil {
			s.log.Warn().Err(err).Str("public_id", m.PublicID).Msg("compensating media delete failed")
		}
	}
}

func (s *SessionService) checkThrottle(ctx context.Context, key string) error {
	if s.throttle == nil {
		return nil
	}
	ok, err := s.throttle.Allowed(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Msg("login throttle unavailable, allowing attempt")
		return nil
	}
	if !ok {
		return domain.ErrTooManyAttempts
	}
	return nil
}

func (s *SessionService) recordFailure(ctx context.Context, key string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.RecordFailure(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("failed to record login failure")
	}
}

func (s *SessionService) resetThrottle(ctx context.Context, key string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.Reset(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("failed to reset login throttle")
	}
}
