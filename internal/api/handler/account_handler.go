package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tubehub/user-service/internal/api/metrics"
	"github.com/tubehub/user-service/internal/core/domain"
	"github.com/tubehub/user-service/internal/core/ports"
)

type AccountHandler struct {
	accounts ports.AccountService
}

func NewAccountHandler(accounts ports.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type updateAccountRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
}

// CurrentUser returns the authenticated user.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Response{data=domain.User}
// @Failure      401  {object}  api.ErrorResponse
// @Router       /users/current-user [get]
func (h *AccountHandler) CurrentUser(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user, "User fetched successfully")
}

// UpdateAccount changes the full name and email.
//
// @Summary      Update account details
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateAccountRequest  true  "New details"
// @Success      200   {object}  Response{data=domain.User}
// @Failure      400   {object}  api.ErrorResponse
// @Failure      409   {object}  api.ErrorResponse
// @Router       /users/update-account [patch]
func (h *AccountHandler) UpdateAccount(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req updateAccountRequest
	if err := c.Bind(&req); err != nil {
		return domain.Errorf(domain.ErrValidation, "invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	updated, err := h.accounts.UpdateAccount(c.Request().Context(), user.ID, req.FullName, req.Email)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, updated, "Account details updated successfully")
}

// UpdateAvatar replaces the avatar image.
//
// @Summary      Update avatar
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        avatar  formData  file  true  "Avatar image"
// @Success      200     {object}  Response{data=domain.User}
// @Failure      400     {object}  api.ErrorResponse
// @Router       /users/avatar [patch]
func (h *AccountHandler) UpdateAvatar(c echo.Context) error {
	return h.replaceImage(c, "avatar", domain.FolderAvatars, h.accounts.UpdateAvatar, "Avatar image updated successfully")
}

// UpdateCoverImage replaces the cover image.
//
// @Summary      Update cover image
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        coverImage  formData  file  true  "Cover image"
// @Success      200         {object}  Response{data=domain.User}
// @Failure      400         {object}  api.ErrorResponse
// @Router       /users/cover-image [patch]
func (h *AccountHandler) UpdateCoverImage(c echo.Context) error {
	return h.replaceImage(c, "coverImage", domain.FolderCoverImages, h.accounts.UpdateCoverImage, "Cover image updated successfully")
}

type imageUpdater func(ctx context.Context, userID string, file *domain.MediaFile) (*domain.User, error)

func (h *AccountHandler) replaceImage(c echo.Context, field, folder string, update imageUpdater, message string) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	file, closeFile, err := formFile(c, field)
	if err != nil {
		return err
	}
	defer closeFile()

	updated, err := update(c.Request().Context(), user.ID, file)
	metrics.MediaUploadsTotal.WithLabelValues(folder, metrics.Result(err)).Inc()
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, updated, message)
}
