package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/tubehub/user-service/internal/core/domain"
	"github.com/tubehub/user-service/internal/core/ports"
)

type stubSessionService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error)
	logoutFn   func(ctx context.Context, userID string) error
	refreshFn  func(ctx context.Context, token string) (*domain.TokenPair, error)
	changeFn   func(ctx context.Context, userID, oldPassword, newPassword string) error
}

func (s *stubSessionService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubSessionService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	return s.loginFn(ctx, in)
}

func (s *stubSessionService) Logout(ctx context.Context, userID string) error {
	return s.logoutFn(ctx, userID)
}

func (s *stubSessionService) Refresh(ctx context.Context, token string) (*domain.TokenPair, error) {
	return s.refreshFn(ctx, token)
}

func (s *stubSessionService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	return s.changeFn(ctx, userID, oldPassword, newPassword)
}

type stubAccountService struct {
	updateFn func(ctx context.Context, userID, fullName, email string) (*domain.User, error)
	imageFn  func(ctx context.Context, userID string, file *domain.MediaFile) (*domain.User, error)
}

func (s *stubAccountService) UpdateAccount(ctx context.Context, userID, fullName, email string) (*domain.User, error) {
	return s.updateFn(ctx, userID, fullName, email)
}

func (s *stubAccountService) UpdateAvatar(ctx context.Context, userID string, file *domain.MediaFile) (*domain.User, error) {
	return s.imageFn(ctx, userID, file)
}

func (s *stubAccountService) UpdateCoverImage(ctx context.Context, userID string, file *domain.MediaFile) (*domain.User, error) {
	return s.imageFn(ctx, userID, file)
}

type stubChannelService struct {
	profileFn func(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, error)
	historyFn func(ctx context.Context, userID string) ([]domain.WatchedVideo, error)
}

func (s *stubChannelService) ChannelProfile(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, error) {
	return s.profileFn(ctx, username, viewerID)
}

func (s *stubChannelService) WatchHistory(ctx context.Context, userID string) ([]domain.WatchedVideo, error) {
	return s.historyFn(ctx, userID)
}

var alice = &domain.User{ID: "65a000000000000000000001", Username: "alice", Email: "alice@example.com", FullName: "Alice"}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// withUser attaches u the way the Auth middleware does.
func withUser(c echo.Context, u *domain.User) echo.Context {
	req := c.Request()
	c.SetRequest(req.WithContext(domain.WithUser(req.Context(), u)))
	return c
}

type part struct {
	field, filename, content string
}

func multipartContext(t *testing.T, e *echo.Echo, method, target string, fields map[string]string, files ...part) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, f := range files {
		fw, err := w.CreateFormFile(f.field, f.filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := io.WriteString(fw, f.content); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
