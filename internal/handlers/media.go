package handlers

import (
	"bufio"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/anonto42/yatube/backend/internal/storage"
	"github.com/labstack/echo/v4"
)

// sniffLen is how much of a file http.DetectContentType looks at.
const sniffLen = 512

// MediaHandler streams uploaded files
type MediaHandler struct {
	media storage.MediaStorage
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(media storage.MediaStorage) *MediaHandler {
	return &MediaHandler{media: media}
}

// RegisterMediaRoutes registers media routes
func (h *MediaHandler) RegisterMediaRoutes(e *echo.Echo) {
	e.GET("/media/*", h.ServeMedia)
}

// ServeMedia streams a stored image with the content type its bytes sniff as.
func (h *MediaHandler) ServeMedia(c echo.Context) error {
	name := c.Param("*")
	rc, err := h.media.Open(c.Request().Context(), name)
	if errors.Is(err, storage.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	if err != nil {
		return err
	}
	defer rc.Close()

	// only images are ever stored, so anything else is not served
	body := bufio.NewReaderSize(rc, sniffLen)
	head, err := body.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		return echo.NewHTTPError(http.StatusNotFound)
	}

	c.Response().Header().Set("X-Content-Type-Options", "nosniff")
	return c.Stream(http.StatusOK, contentType, body)
}
