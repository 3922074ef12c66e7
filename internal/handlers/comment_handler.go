package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/anonto42/yatube/backend/internal/events"
	"github.com/anonto42/yatube/backend/internal/middleware"
	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles comment-related HTTP requests
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	postRepository    repositories.PostRepository
	publisher         events.Publisher
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository, publisher events.Publisher) *CommentHandler {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &CommentHandler{
		commentRepository: commentRepo,
		postRepository:    postRepo,
		publisher:         publisher,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(e *echo.Echo) {
	e.POST("/posts/:id/comment/", h.CreateComment, middleware.RequireLogin)
}

// CreateComment adds a comment to a post. An empty comment is dropped; either
// way the visitor goes back to the post.
func (h *CommentHandler) CreateComment(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	post, err := h.postRepository.GetPostByID(ctx, id)
	if err != nil {
		return lookupError(err)
	}

	form := models.CommentForm{Text: strings.TrimSpace(c.FormValue("text"))}
	if err := c.Validate(&form); err == nil {
		comment := &models.Comment{
			PostID:   post.ID,
			AuthorID: user.ID,
			Text:     form.Text,
		}
		if err := h.commentRepository.CreateComment(ctx, comment); err != nil {
			return err
		}
		h.publisher.Publish(ctx, events.CommentCreated, events.CommentEvent{
			CommentID: comment.ID,
			PostID:    post.ID,
			AuthorID:  user.ID,
			At:        time.Now(),
		})
	}

	return c.Redirect(http.StatusFound, postURL(post.ID))
}
