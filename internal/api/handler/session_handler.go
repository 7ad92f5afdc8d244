package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tubehub/user-service/internal/api/metrics"
	"github.com/tubehub/user-service/internal/core/domain"
	"github.com/tubehub/user-service/internal/core/ports"
)

type SessionHandler struct {
	sessions   ports.SessionService
	production bool
}

func NewSessionHandler(sessions ports.SessionService, production bool) *SessionHandler {
	return &SessionHandler{sessions: sessions, production: production}
}

type registerRequest struct {
	FullName string `form:"fullName" json:"fullName"`
	Email    string `form:"email"    json:"email"    validate:"omitempty,email"`
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required_without=Email"`
	Email    string `json:"email"    validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type loginData struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// Register creates an account from a multipart form.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Param        fullName    formData  string  true   "Full name"
// @Param        email       formData  string  true   "Email"
// @Param        username    formData  string  true   "Username"
// @Param        password    formData  string  true   "Password"
// @Param        avatar      formData  file    true   "Avatar image"
// @Param        coverImage  formData  file    false  "Cover image"
// @Success      201  {object}  Response{data=domain.User}
// @Failure      400  {object}  api.ErrorResponse
// @Failure      409  {object}  api.ErrorResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /users/register [post]
func (h *SessionHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return domain.Errorf(domain.ErrValidation, "invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	avatar, closeAvatar, err := formFile(c, "avatar")
	if err != nil {
		return err
	}
	defer closeAvatar()
	cover, closeCover, err := formFile(c, "coverImage")
	if err != nil {
		return err
	}
	defer closeCover()

	user, err := h.sessions.Register(c.Request().Context(), ports.RegisterInput{
		FullName:   req.FullName,
		Email:      req.Email,
		Username:   req.Username,
		Password:   req.Password,
		Avatar:     avatar,
		CoverImage: cover,
	})
	metrics.RegistrationsTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, user, "User registered successfully")
}

// Login authenticates by username or email and opens a session.
//
// @Summary      Login
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  Response{data=loginData}
// @Failure      400   {object}  api.ErrorResponse
// @Failure      401   {object}  api.ErrorResponse
// @Failure      404   {object}  api.ErrorResponse
// @Failure      429   {object}  api.ErrorResponse
// @Router       /users/login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return domain.Errorf(domain.ErrValidation, "invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.sessions.Login(c.Request().Context(), ports.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	metrics.AuthOperationsTotal.WithLabelValues("login", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	setSessionCookies(c, res.Tokens)
	return respond(c, http.StatusOK, loginData{
		User:         res.User,
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
	}, "User logged In Successfully")
}

// Logout clears the persisted refresh token and both cookies.
//
// @Summary      Logout
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Response
// @Failure      401  {object}  api.ErrorResponse
// @Router       /users/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	err = h.sessions.Logout(c.Request().Context(), user.ID)
	metrics.AuthOperationsTotal.WithLabelValues("logout", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	clearSessionCookies(c, h.production)
	return respond(c, http.StatusOK, struct{}{}, "User logged Out")
}

// Refresh rotates the session. The token is read from the refreshToken
// cookie, then from the JSON body.
//
// @Summary      Refresh the access token
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  false  "Refresh token for non-cookie clients"
// @Success      200   {object}  Response{data=domain.TokenPair}
// @Failure      401   {object}  api.ErrorResponse
// @Router       /users/refresh-token [post]
func (h *SessionHandler) Refresh(c echo.Context) error {
	token := ""
	if ck, err := c.Cookie(RefreshTokenCookie); err == nil {
		token = ck.Value
	}
	if token == "" {
		// Bind is a no-op for an empty body, so only malformed payloads fail here.
		var req refreshRequest
		if err := c.Bind(&req); err != nil {
			return domain.Errorf(domain.ErrValidation, "invalid request payload")
		}
		token = req.RefreshToken
	}

	pair, err := h.sessions.Refresh(c.Request().Context(), token)
	metrics.AuthOperationsTotal.WithLabelValues("refresh", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	setSessionCookies(c, *pair)
	return respond(c, http.StatusOK, pair, "Access token refreshed")
}

// ChangePassword replaces the current user's password.
//
// @Summary      Change password
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Old and new password"
// @Success      200   {object}  Response
// @Failure      400   {object}  api.ErrorResponse
// @Failure      401   {object}  api.ErrorResponse
// @Router       /users/change-password [post]
func (h *SessionHandler) ChangePassword(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return domain.Errorf(domain.ErrValidation, "invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	err = h.sessions.ChangePassword(c.Request().Context(), user.ID, req.OldPassword, req.NewPassword)
	metrics.AuthOperationsTotal.WithLabelValues("change_password", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, struct{}{}, "Password changed successfully")
}
