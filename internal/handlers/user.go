package handlers

import (
	"net/http"

	"github.com/anonto42/yatube/backend/internal/middleware"
	"github.com/anonto42/yatube/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// UserHandler serves author profile pages
type UserHandler struct {
	userRepository   repositories.UserRepository
	postRepository   repositories.PostRepository
	followRepository repositories.FollowRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, postRepo repositories.PostRepository, followRepo repositories.FollowRepository) *UserHandler {
	return &UserHandler{
		userRepository:   userRepo,
		postRepository:   postRepo,
		followRepository: followRepo,
	}
}

// RegisterProfileRoutes registers profile-related routes
func (h *UserHandler) RegisterProfileRoutes(e *echo.Echo) {
	e.GET("/profile/:username/", h.GetProfile)
}

// GetProfile lists an author's posts along with their post and follow
// counts and, for signed-in visitors, whether they follow the author.
func (h *UserHandler) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()

	author, err := h.userRepository.GetUserByUsername(ctx, c.Param("username"))
	if err != nil {
		return lookupError(err)
	}

	page, err := postsPage(ctx, h.postRepository, repositories.PostFilter{AuthorID: &author.ID}, c.QueryParam("page"))
	if err != nil {
		return err
	}

	followers, err := h.followRepository.GetFollowersCount(ctx, author.ID)
	if err != nil {
		return err
	}
	followingCount, err := h.followRepository.GetFollowingCount(ctx, author.ID)
	if err != nil {
		return err
	}

	following := false
	if user := middleware.CurrentUser(c); user != nil {
		if following, err = h.followRepository.IsFollowing(ctx, user.ID, author.ID); err != nil {
			return err
		}
	}

	return c.Render(http.StatusOK, "posts/profile.html", map[string]interface{}{
		"author":     author,
		"post_count": page.Count,
		"page_obj":   page,
		"following":  following,

		"followers_count": followers,
		"following_count": followingCount,
	})
}
