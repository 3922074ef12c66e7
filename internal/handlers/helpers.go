package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/pagination"
	"github.com/anonto42/yatube/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// isNotFound reports whether err means the requested record does not exist.
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// lookupError turns a repository error into 404 or 500.
func lookupError(err error) error {
	if isNotFound(err) {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	return err
}

// paramID parses a numeric path parameter; anything else is a 404, as the
// route would not have matched it.
func paramID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound)
	}
	return uint(id), nil
}

// postsPage fetches the page of filtered posts selected by the raw page
// parameter.
func postsPage(ctx context.Context, posts repositories.PostRepository, filter repositories.PostFilter, rawPage string) (pagination.Page[models.Post], error) {
	count, err := posts.CountPosts(ctx, filter)
	if err != nil {
		return pagination.Page[models.Post]{}, err
	}
	window := pagination.Resolve(rawPage, count)
	items, err := posts.ListPosts(ctx, filter, window.Offset, window.Limit)
	if err != nil {
		return pagination.Page[models.Post]{}, err
	}
	return pagination.NewPage(window, count, items), nil
}

func profileURL(username string) string {
	return "/profile/" + username + "/"
}

func postURL(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/"
}
