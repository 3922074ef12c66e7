package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/anonto42/yatube/backend/internal/cache"
	"github.com/anonto42/yatube/backend/internal/middleware"
	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/pagination"
	"github.com/anonto42/yatube/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FeedHandler serves the post listings: everything, one group, and the
// authors the current user follows.
type FeedHandler struct {
	postRepository   repositories.PostRepository
	groupRepository  repositories.GroupRepository
	followRepository repositories.FollowRepository
	indexCache       cache.PageCache
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(
	postRepo repositories.PostRepository,
	groupRepo repositories.GroupRepository,
	followRepo repositories.FollowRepository,
	indexCache cache.PageCache,
) *FeedHandler {
	if indexCache == nil {
		indexCache = cache.NoopCache{}
	}
	return &FeedHandler{
		postRepository:   postRepo,
		groupRepository:  groupRepo,
		followRepository: followRepo,
		indexCache:       indexCache,
	}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(e *echo.Echo) {
	e.GET("/", h.Index)
	e.GET("/group/:slug/", h.GroupPosts)
	e.GET("/follow/", h.FollowIndex, middleware.RequireLogin)
}

// Index lists every post, newest first.
func (h *FeedHandler) Index(c echo.Context) error {
	ctx := c.Request().Context()
	rawPage := strings.TrimSpace(c.QueryParam("page"))

	var page pagination.Page[models.Post]
	cached, ok := h.indexCache.Get(ctx, rawPage)
	if ok && json.Unmarshal(cached, &page) == nil {
		return h.renderIndex(c, page)
	}

	page, err := postsPage(ctx, h.postRepository, repositories.PostFilter{}, rawPage)
	if err != nil {
		return err
	}
	if data, err := json.Marshal(page); err == nil {
		h.indexCache.Set(ctx, rawPage, data)
	} else {
		slog.Warn("failed to encode index page for cache", "error", err)
	}
	return h.renderIndex(c, page)
}

func (h *FeedHandler) renderIndex(c echo.Context, page pagination.Page[models.Post]) error {
	return c.Render(http.StatusOK, "posts/index.html", map[string]interface{}{
		"page_obj": page,
		"index":    true,
	})
}

// GroupPosts lists the posts of one group.
func (h *FeedHandler) GroupPosts(c echo.Context) error {
	ctx := c.Request().Context()

	group, err := h.groupRepository.GetGroupBySlug(ctx, c.Param("slug"))
	if err != nil {
		return lookupError(err)
	}

	page, err := postsPage(ctx, h.postRepository, repositories.PostFilter{GroupID: &group.ID}, c.QueryParam("page"))
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "posts/group_list.html", map[string]interface{}{
		"group":    group,
		"page_obj": page,
	})
}

// FollowIndex lists the posts of every author the current user follows.
func (h *FeedHandler) FollowIndex(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	authorIDs, err := h.followRepository.GetFollowingIDs(ctx, user.ID)
	if err != nil {
		return err
	}

	page, err := postsPage(ctx, h.postRepository, repositories.PostFilter{AuthorIDs: authorIDs}, c.QueryParam("page"))
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "posts/follow.html", map[string]interface{}{
		"page_obj": page,
		"follow":   true,
	})
}
