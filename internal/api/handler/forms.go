package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tubehub/user-service/internal/core/domain"
)

// formFile opens the named multipart file. A missing field yields a nil
// file and a no-op closer.
func formFile(c echo.Context, field string) (*domain.MediaFile, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		return nil, func() {}, domain.Errorf(domain.ErrValidation, "invalid %s upload", field)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, domain.Errorf(domain.ErrValidation, "invalid %s upload", field)
	}
	return &domain.MediaFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	}, closer(f), nil
}

func closer(c io.Closer) func() {
	return func() { _ = c.Close() }
}
