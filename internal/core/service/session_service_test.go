package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tubehub/user-service/internal/core/domain"
	"github.com/tubehub/user-service/internal/core/ports"
	"github.com/tubehub/user-service/internal/pkg/password"
)

type sessionFixture struct {
	repo     *stubUserRepo
	media    *stubMedia
	throttle *stubThrottle
	tokens   *TokenService
	svc      *SessionService
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		repo:     newStubUserRepo(),
		media:    &stubMedia{},
		throttle: newStubThrottle(3),
		tokens:   newTestTokens(t),
	}
	f.svc = NewSessionService(f.repo, f.tokens, f.media, f.throttle, zerolog.Nop())
	return f
}

func adaInput() ports.RegisterInput {
	return ports.RegisterInput{
		FullName: "Ada L",
		Email:    "a@x.com",
		Username: "Ada",
		Password: "p1",
		Avatar:   avatarFile(),
	}
}

func (f *sessionFixture) register(t *testing.T) *domain.User {
	t.Helper()
	user, err := f.svc.Register(context.Background(), adaInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return user
}

func TestSessionService_Register_Success(t *testing.T) {
	f := newSessionFixture(t)
	in := adaInput()
	in.CoverImage = &domain.MediaFile{Name: "cover.png"}

	user, err := f.svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Username != "ada" {
		t.Fatalf("expected lower-cased username, got %q", user.Username)
	}
	if user.PasswordHash != "" || user.RefreshToken != "" {
		t.Fatalf("expected stripped projection, got %+v", user)
	}
	if user.Avatar == "" || user.CoverImage == "" {
		t.Fatalf("expected avatar and cover image urls, got %+v", user)
	}

	stored := f.repo.stored(user.ID)
	if stored.PasswordHash == "p1" || !password.Matches(stored.PasswordHash, "p1") {
		t.Fatalf("expected stored password to be a hash of p1")
	}
}

func TestSessionService_Register_Validation(t *testing.T) {
	f := newSessionFixture(t)

	blank := adaInput()
	blank.FullName = "   "
	if _, err := f.svc.Register(context.Background(), blank); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for blank field, got %v", err)
	}

	noAvatar := adaInput()
	noAvatar.Avatar = nil
	if _, err := f.svc.Register(context.Background(), noAvatar); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing avatar, got %v", err)
	}

	if len(f.media.uploaded) != 0 || f.repo.creates != 0 {
		t.Fatalf("expected no side effects on validation failure")
	}
}

func TestSessionService_Register_Duplicate(t *testing.T) {
	f := newSessionFixture(t)
	f.register(t)

	sameUsername := adaInput()
	sameUsername.Email = "other@x.com"
	if _, err := f.svc.Register(context.Background(), sameUsername); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate username, got %v", err)
	}

	sameEmail := adaInput()
	sameEmail.Username = "someone"
	if _, err := f.svc.Register(context.Background(), sameEmail); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate email, got %v", err)
	}

	if f.repo.creates != 1 {
		t.Fatalf("expected exactly one record, got %d", f.repo.creates)
	}
}

func TestSessionService_Register_StoreConstraintCompensates(t *testing.T) {
	f := newSessionFixture(t)
	f.repo.createErr = domain.ErrUserExists

	if _, err := f.svc.Register(context.Background(), adaInput()); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if len(f.media.deleted) != 1 || f.media.deleted[0] != f.media.uploaded[0] {
		t.Fatalf("expected uploaded avatar to be deleted, got %v", f.media.deleted)
	}
}

func TestSessionService_Register_ReadBackFailureRollsBackMedia(t *testing.T) {
	f := newSessionFixture(t)
	f.repo.findByIDErr = errStore
	f.media.deleteErr = errors.New("cdn down") // compensation failure stays silent

	in := adaInput()
	in.CoverImage = &domain.MediaFile{Name: "cover.png"}

	_, err := f.svc.Register(context.Background(), in)
	if !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
	if len(f.media.deleted) != 2 {
		t.Fatalf("expected avatar and cover to be deleted, got %v", f.media.deleted)
	}
}

func TestSessionService_Register_AvatarUploadFails(t *testing.T) {
	f := newSessionFixture(t)
	f.media.uploadErr = map[string]error{domain.FolderAvatars: errors.New("boom")}

	if _, err := f.svc.Register(context.Background(), adaInput()); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if f.repo.creates != 0 {
		t.Fatalf("expected no user to be created")
	}
}

func TestSessionService_Register_CoverUploadFailureIsTolerated(t *testing.T) {
	f := newSessionFixture(t)
	f.media.uploadErr = map[string]error{domain.FolderCoverImages: errors.New("boom")}
	in := adaInput()
	in.CoverImage = &domain.MediaFile{Name: "cover.png"}

	user, err := f.svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.CoverImage != "" {
		t.Fatalf("expected empty cover image, got %q", user.CoverImage)
	}
}

func TestSessionService_Login_Success(t *testing.T) {
	f := newSessionFixture(t)
	registered := f.register(t)

	res, err := f.svc.Login(context.Background(), ports.LoginInput{Username: "ada", Password: "p1"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Tokens.AccessToken == "" || res.Tokens.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", res.Tokens)
	}
	if res.User.PasswordHash != "" || res.User.RefreshToken != "" {
		t.Fatalf("expected stripped user, got %+v", res.User)
	}
	if got := f.repo.stored(registered.ID).RefreshToken; got != res.Tokens.RefreshToken {
		t.Fatalf("persisted refresh token differs from returned one")
	}

	claims, err := f.tokens.Verify(res.Tokens.AccessToken, domain.AccessToken)
	if err != nil {
		t.Fatalf("access token invalid: %v", err)
	}
	if claims.Subject != registered.ID || claims.Username != "ada" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestSessionService_Login_ByEmailOverwritesSession(t *testing.T) {
	f := newSessionFixture(t)
	registered := f.register(t)

	first, err := f.svc.Login(context.Background(), ports.LoginInput{Email: "a@x.com", Password: "p1"})
	if err != nil {
		t.Fatalf("first login failed: %v", err)
	}
	second, err := f.svc.Login(context.Background(), ports.LoginInput{Email: "a@x.com", Password: "p1"})
	if err != nil {
		t.Fatalf("second login failed: %v", err)
	}
	if got := f.repo.stored(registered.ID).RefreshToken; got != second.Tokens.RefreshToken || got == first.Tokens.RefreshToken {
		t.Fatalf("expected the second login to overwrite the refresh token")
	}
}

func TestSessionService_Login_Failures(t *testing.T) {
	f := newSessionFixture(t)
	f.register(t)

	if _, err := f.svc.Login(context.Background(), ports.LoginInput{Password: "p1"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := f.svc.Login(context.Background(), ports.LoginInput{Username: "ghost", Password: "p1"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.Login(context.Background(), ports.LoginInput{Username: "ada", Password: "wrong"}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSessionService_Login_Throttled(t *testing.T) {
	f := newSessionFixture(t)
	f.register(t)

	for i := 0; i < 3; i++ {
		if _, err := f.svc.Login(context.Background(), ports.LoginInput{Username: "ada", Password: "wrong"}); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}
	if _, err := f.svc.Login(context.Background(), ports.LoginInput{Username: "ada", Password: "p1"}); !errors.Is(err, domain.ErrTooManyRequests) {
		t.Fatalf("expected ErrTooManyRequests, got %v", err)
	}
}

func TestSessionService_Login_ThrottleFailsOpen(t *testing.T) {
	f := newSessionFixture(t)
	f.register(t)
	f.throttle.err = errStore

	if _, err := f.svc.Login(context.Background(), ports.LoginInput{Username: "ada", Password: "p1"}); err != nil {
		t.Fatalf("expected login to succeed when throttle is down, got %v", err)
	}
}

func TestSessionService_Login_PersistFailure(t *testing.T) {
	f := newSessionFixture(t)
	f.register(t)
	f.repo.setErr = errStore

	if _, err := f.svc.Login(context.Background(), ports.LoginInput{Username: "ada", Password: "p1"}); !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
}

func TestSessionService_Refresh_Rotates(t *testing.T) {
	f := newSessionFixture(t)
	registered := f.register(t)
	login, err := f.svc.Login(context.Background(), ports.LoginInput{Username: "ada", Password: "p1"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	pair, err := f.svc.Refresh(context.Background(), login.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if pair.RefreshToken == login.Tokens.RefreshToken {
		t.Fatalf("expected a new refresh token")
	}
	if got := f.repo.stored(registered.ID).RefreshToken; got != pair.RefreshToken {
		t.Fatalf("expected rotated token to be persisted")
	}

	if _, err := f.svc.Refresh(context.Background(), login.Tokens.RefreshToken); !errors.Is(err, domain.ErrRefreshTokenReused) {
		t.Fatalf("expected reuse of the old token to fail, got %v", err)
	}
	if got := f.repo.stored(registered.ID).RefreshToken; got != pair.RefreshToken {
		t.Fatalf("rejected refresh must not change the active session")
	}

	if _, err := f.svc.Refresh(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("expected current token to keep working, got %v", err)
	}
}

func TestSessionService_Refresh_Rejections(t *testing.T) {
	f := newSessionFixture(t)
	registered := f.register(t)

	if _, err := f.svc.Refresh(context.Background(), ""); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for empty token, got %v", err)
	}
	if _, err := f.svc.Refresh(context.Background(), "garbage"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for malformed token, got %v", err)
	}

	access, _ := f.tokens.IssueAccessToken(registered)
	if _, err := f.svc.Refresh(context.Background(), access); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for access token, got %v", err)
	}

	ghost, _ := f.tokens.IssueRefreshToken(&domain.User{ID: "missing"})
	if _, err := f.svc.Refresh(context.Background(), ghost); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unknown subject, got %v", err)
	}

	// Signed correctly but never persisted: no session.
	stray, _ := f.tokens.IssueRefreshToken(registered)
	if _, err := f.svc.Refresh(context.Background(), stray); !errors.Is(err, domain.ErrRefreshTokenReused) {
		t.Fatalf("expected ErrRefreshTokenReused, got %v", err)
	}
}

func TestSessionService_Logout(t *testing.T) {
	f := newSessionFixture(t)
	registered := f.register(t)
	guard := NewAuthGuard(f.repo, f.tokens)

	login, err := f.svc.Login(context.Background(), ports.LoginInput{Username: "ada", Password: "p1"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if err := f.svc.Logout(context.Background(), registered.ID); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if err := f.svc.Logout(context.Background(), registered.ID); err != nil {
		t.Fatalf("second logout should be a no-op, got %v", err)
	}
	if f.repo.stored(registered.ID).HasSession() {
		t.Fatalf("expected refresh token to be cleared")
	}

	if _, err := guard.Authenticate(context.Background(), login.Tokens.AccessToken); err != nil {
		t.Fatalf("access token must stay valid after logout, got %v", err)
	}
	if _, err := f.svc.Refresh(context.Background(), login.Tokens.RefreshToken); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected refresh after logout to fail, got %v", err)
	}

	if err := f.svc.Logout(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestSessionService_ChangePassword(t *testing.T) {
	f := newSessionFixture(t)
	registered := f.register(t)

	if err := f.svc.ChangePassword(context.Background(), registered.ID, "wrong", "p2"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := f.svc.ChangePassword(context.Background(), registered.ID, "p1", " "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err := f.svc.ChangePassword(context.Background(), registered.ID, "p1", "p2"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	if _, err := f.svc.Login(context.Background(), ports.LoginInput{Username: "ada", Password: "p1"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password must no longer work, got %v", err)
	}
	if _, err := f.svc.Login(context.Background(), ports.LoginInput{Username: "ada", Password: "p2"}); err != nil {
		t.Fatalf("new password must work, got %v", err)
	}
}

// Register "ada" → login → refresh → old refresh token rejected.
func TestSessionService_Scenario(t *testing.T) {
	f := newSessionFixture(t)

	user, err := f.svc.Register(context.Background(), adaInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if f.repo.stored(user.ID).PasswordHash == "p1" {
		t.Fatalf("stored password must not be plaintext")
	}

	login, err := f.svc.Login(context.Background(), ports.LoginInput{Username: "ada", Password: "p1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !f.repo.stored(user.ID).HasSession() {
		t.Fatalf("expected refresh token to be set")
	}

	if _, err := f.svc.Refresh(context.Background(), login.Tokens.RefreshToken); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := f.svc.Refresh(context.Background(), login.Tokens.RefreshToken); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected old refresh token to be rejected, got %v", err)
	}
}
