package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/anonto42/yatube/backend/internal/cache"
	"github.com/anonto42/yatube/backend/internal/events"
	"github.com/anonto42/yatube/backend/internal/middleware"
	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/repositories"
	"github.com/anonto42/yatube/backend/internal/storage"
	"github.com/anonto42/yatube/backend/validators"
	"github.com/labstack/echo/v4"
)

// MaxImageSize is the largest accepted post image upload.
const MaxImageSize = 5 << 20

// PostHandler handles HTTP requests related to single posts
type PostHandler struct {
	postRepository    repositories.PostRepository
	groupRepository   repositories.GroupRepository
	commentRepository repositories.CommentRepository
	media             storage.MediaStorage
	indexCache        cache.PageCache
	publisher         events.Publisher
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(
	postRepo repositories.PostRepository,
	groupRepo repositories.GroupRepository,
	commentRepo repositories.CommentRepository,
	media storage.MediaStorage,
	indexCache cache.PageCache,
	publisher events.Publisher,
) *PostHandler {
	if indexCache == nil {
		indexCache = cache.NoopCache{}
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &PostHandler{
		postRepository:    postRepo,
		groupRepository:   groupRepo,
		commentRepository: commentRepo,
		media:             media,
		indexCache:        indexCache,
		publisher:         publisher,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(e *echo.Echo) {
	e.GET("/posts/:id/", h.GetPost)
	e.GET("/create/", h.CreatePost, middleware.RequireLogin)
	e.POST("/create/", h.CreatePost, middleware.RequireLogin)
	e.GET("/posts/:id/edit/", h.UpdatePost, middleware.RequireLogin)
	e.POST("/posts/:id/edit/", h.UpdatePost, middleware.RequireLogin)
	e.POST("/posts/:id/delete/", h.DeletePost, middleware.RequireLogin)
}

// GetPost shows a post with its comments, oldest first.
func (h *PostHandler) GetPost(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	post, err := h.postRepository.GetPostByID(ctx, id)
	if err != nil {
		return lookupError(err)
	}

	postCount, err := h.postRepository.CountPosts(ctx, repositories.PostFilter{AuthorID: &post.AuthorID})
	if err != nil {
		return err
	}
	comments, err := h.commentRepository.GetCommentsByPostID(ctx, post.ID)
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "posts/post_detail.html", map[string]interface{}{
		"post":       post,
		"post_count": postCount,
		"form":       CommentFormView{Errors: validators.FieldErrors{}},
		"comments":   comments,
	})
}

// CreatePost shows the new post form and saves valid submissions.
func (h *PostHandler) CreatePost(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	groups, err := h.groupRepository.ListGroups(ctx)
	if err != nil {
		return err
	}
	form := PostFormView{Groups: groups, Errors: validators.FieldErrors{}}

	if c.Request().Method != http.MethodPost {
		return h.renderForm(c, form, nil)
	}

	post := &models.Post{AuthorID: user.ID}
	if ok, err := h.bindPost(c, post, &form); err != nil || !ok {
		if err != nil {
			return err
		}
		return h.renderForm(c, form, nil)
	}

	if err := h.postRepository.CreatePost(ctx, post); err != nil {
		h.discardImage(ctx, post.Image)
		return err
	}

	h.indexCache.Invalidate(ctx)
	h.publisher.Publish(ctx, events.PostCreated, postEvent(post))
	return c.Redirect(http.StatusFound, profileURL(user.Username))
}

// UpdatePost edits a post. Anyone but the author is sent back to the post
// page without an error.
func (h *PostHandler) UpdatePost(c echo.Context) error {
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
	if !post.IsAuthoredBy(user) {
		return c.Redirect(http.StatusFound, postURL(post.ID))
	}

	groups, err := h.groupRepository.ListGroups(ctx)
	if err != nil {
		return err
	}
	form := PostFormView{
		Text:   post.Text,
		Image:  post.Image,
		Groups: groups,
		Errors: validators.FieldErrors{},
	}
	if post.GroupID != nil {
		form.Group = strconv.FormatUint(uint64(*post.GroupID), 10)
	}

	if c.Request().Method != http.MethodPost {
		return h.renderForm(c, form, post)
	}

	oldImage := post.Image
	if ok, err := h.bindPost(c, post, &form); err != nil || !ok {
		if err != nil {
			return err
		}
		return h.renderForm(c, form, post)
	}

	if err := h.postRepository.UpdatePost(ctx, post); err != nil {
		if post.Image != oldImage {
			h.discardImage(ctx, post.Image)
		}
		return lookupError(err)
	}
	if post.Image != oldImage {
		h.discardImage(ctx, oldImage)
	}

	h.indexCache.Invalidate(ctx)
	h.publisher.Publish(ctx, events.PostUpdated, postEvent(post))
	return c.Redirect(http.StatusFound, postURL(post.ID))
}

// DeletePost removes a post and its comments. Non-authors are sent back to
// the post page.
func (h *PostHandler) DeletePost(c echo.Context) error {
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
	if !post.IsAuthoredBy(user) {
		return c.Redirect(http.StatusFound, postURL(post.ID))
	}

	if err := h.postRepository.DeletePost(ctx, post.ID); err != nil {
		return lookupError(err)
	}
	h.discardImage(ctx, post.Image)

	h.indexCache.Invalidate(ctx)
	h.publisher.Publish(ctx, events.PostDeleted, postEvent(post))
	return c.Redirect(http.StatusFound, profileURL(user.Username))
}

func (h *PostHandler) renderForm(c echo.Context, form PostFormView, post *models.Post) error {
	data := map[string]interface{}{
		"form":    form,
		"is_edit": post != nil,
	}
	if post != nil {
		data["post"] = post
	}
	return c.Render(http.StatusOK, "posts/post_create.html", data)
}

// bindPost validates the submitted form into post. It reports false, with
// form.Errors filled, when the submission is invalid; nothing is stored then.
func (h *PostHandler) bindPost(c echo.Context, post *models.Post, form *PostFormView) (bool, error) {
	ctx := c.Request().Context()

	input := models.PostForm{
		Text:       strings.TrimSpace(c.FormValue("text")),
		Group:      strings.TrimSpace(c.FormValue("group")),
		ClearImage: c.FormValue("image-clear") != "",
	}
	form.Text, form.Group = input.Text, input.Group
	form.Errors = validators.Errors(c.Validate(&input))

	var groupID *uint
	if input.Group != "" && form.Errors["group"] == "" {
		id, _ := strconv.ParseUint(input.Group, 10, 64)
		group, err := h.groupRepository.GetGroupByID(ctx, uint(id))
		switch {
		case isNotFound(err):
			form.Errors.Add("group", "Select a valid choice. That choice is not one of the available choices.")
		case err != nil:
			return false, err
		default:
			groupID = &group.ID
		}
	}

	img, msg := readUpload(c)
	if msg != "" {
		form.Errors.Add("image", msg)
	} else if img != nil && input.ClearImage {
		form.Errors.Add("image", "Please either submit a file or check the clear checkbox, not both.")
	}

	if form.Errors.Any() {
		return false, nil
	}

	image := post.Image
	if input.ClearImage {
		image = ""
	}
	if img != nil {
		var err error
		image, err = h.media.Save(ctx, models.ImagePrefix, img.name, bytes.NewReader(img.data))
		if err != nil {
			return false, fmt.Errorf("saving image: %w", err)
		}
	}

	post.Text = input.Text
	post.GroupID = groupID
	post.Group = nil
	post.Image = image
	return true, nil
}

type upload struct {
	name string
	data []byte
}

const notImageMessage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."

// imageExtensions are the upload extensions accepted for post images.
var imageExtensions = map[string]bool{
	".gif":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// readUpload returns the submitted image, or nil when none was sent. A
// non-empty message means the upload is invalid.
func readUpload(c echo.Context) (*upload, string) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, ""
	}
	if err != nil {
		return nil, "The submitted data was not a file. Check the encoding type on the form."
	}
	if fh.Size == 0 {
		return nil, "The submitted file is empty."
	}
	if fh.Size > MaxImageSize {
		return nil, fmt.Sprintf("Ensure the image is at most %d MB.", MaxImageSize>>20)
	}
	if !imageExtensions[strings.ToLower(path.Ext(fh.Filename))] {
		return nil, notImageMessage
	}

	data, err := readFileHeader(fh)
	if err != nil || !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return nil, notImageMessage
	}
	return &upload{name: fh.Filename, data: data}, ""
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, MaxImageSize))
}

// discardImage removes a stored image that no post refers to any more.
func (h *PostHandler) discardImage(ctx context.Context, name string) {
	if name == "" {
		return
	}
	if err := h.media.Delete(ctx, name); err != nil && !errors.Is(err, storage.ErrNotFound) {
		slog.Warn("failed to delete image", "image", name, "error", err)
	}
}

func postEvent(post *models.Post) events.PostEvent {
	return events.PostEvent{
		PostID:   post.ID,
		AuthorID: post.AuthorID,
		GroupID:  post.GroupID,
		At:       time.Now(),
	}
}
