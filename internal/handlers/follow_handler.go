package handlers

import (
	"net/http"
	"time"

	"github.com/anonto42/yatube/backend/internal/events"
	"github.com/anonto42/yatube/backend/internal/middleware"
	"github.com/anonto42/yatube/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow-related HTTP requests
type FollowHandler struct {
	followRepository repositories.FollowRepository
	userRepository   repositories.UserRepository
	publisher        events.Publisher
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followRepo repositories.FollowRepository, userRepo repositories.UserRepository, publisher events.Publisher) *FollowHandler {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &FollowHandler{
		followRepository: followRepo,
		userRepository:   userRepo,
		publisher:        publisher,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(e *echo.Echo) {
	e.GET("/profile/:username/follow/", h.FollowUser, middleware.RequireLogin)
	e.GET("/profile/:username/unfollow/", h.UnfollowUser, middleware.RequireLogin)
}

// FollowUser subscribes the current user to an author. Following yourself
// or someone already followed is silently ignored.
func (h *FollowHandler) FollowUser(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	author, err := h.userRepository.GetUserByUsername(ctx, c.Param("username"))
	if err != nil {
		return lookupError(err)
	}

	if author.ID != user.ID {
		created, err := h.followRepository.CreateFollow(ctx, user.ID, author.ID)
		if err != nil {
			return err
		}
		if created {
			h.publisher.Publish(ctx, events.FollowCreated, events.FollowEvent{
				UserID: user.ID, AuthorUsername: author.Username, At: time.Now(),
			})
		}
	}

	return c.Redirect(http.StatusFound, profileURL(user.Username))
}

// UnfollowUser removes the subscription, if any. Unknown authors are not an
// error.
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)
	username := c.Param("username")

	deleted, err := h.followRepository.DeleteFollowByUsername(ctx, user.ID, username)
	if err != nil {
		return err
	}
	if deleted > 0 {
		h.publisher.Publish(ctx, events.FollowDeleted, events.FollowEvent{
			UserID: user.ID, AuthorUsername: username, At: time.Now(),
		})
	}

	return c.Redirect(http.StatusFound, profileURL(user.Username))
}
