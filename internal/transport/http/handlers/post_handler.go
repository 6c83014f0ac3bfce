package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/blogicum/internal/media"
	"github.com/example/blogicum/internal/models"
	"github.com/example/blogicum/internal/service"
	"github.com/example/blogicum/internal/transport/http/middleware"
	"github.com/example/blogicum/internal/validation"
)

type PostHandler struct {
	Responder
	posts   *service.PostService
	catalog *service.CatalogService
	media   *media.Store
}

func NewPostHandler(r Responder, posts *service.PostService, catalog *service.CatalogService, media *media.Store) *PostHandler {
	return &PostHandler{Responder: r, posts: posts, catalog: catalog, media: media}
}

func (h *PostHandler) Index(c *gin.Context) {
	page, err := h.posts.ListHome(c.Request.Context(), c.Query("page"))
	if err != nil {
		h.ServerError(c, err)
		return
	}
	h.HTML(c, http.StatusOK, "index", gin.H{"Title": "Latest posts", "Page": page})
}

func (h *PostHandler) Category(c *gin.Context) {
	category, page, err := h.posts.ListCategory(c.Request.Context(), c.Param("slug"), c.Query("page"))
	if errors.Is(err, service.ErrNotFound) {
		h.NotFound(c)
		return
	}
	if err != nil {
		h.ServerError(c, err)
		return
	}
	h.HTML(c, http.StatusOK, "category", gin.H{"Title": category.Title, "Category": category, "Page": page})
}

func (h *PostHandler) Detail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.NotFound(c)
		return
	}
	detail, err := h.posts.Detail(c.Request.Context(), middleware.Viewer(c), id)
	if errors.Is(err, service.ErrNotFound) {
		h.NotFound(c)
		return
	}
	if err != nil {
		h.ServerError(c, err)
		return
	}
	h.HTML(c, http.StatusOK, "detail", gin.H{
		"Title":    detail.Post.Title,
		"Post":     detail.Post,
		"Comments": detail.Comments,
		"Form":     service.CommentInput{},
	})
}

func (h *PostHandler) Search(c *gin.Context) {
	query := c.Query("q")
	page, err := h.posts.Search(c.Request.Context(), query, c.Query("page"))
	if err != nil {
		h.ServerError(c, err)
		return
	}
	h.HTML(c, http.StatusOK, "search", gin.H{"Title": "Search", "Query": query, "Page": page})
}

func (h *PostHandler) CreateForm(c *gin.Context) {
	in := service.PostInput{
		PubDate:     service.FormatPubDate(time.Now()),
		IsPublished: true,
	}
	h.form(c, gin.H{"Title": "New post", "Form": in})
}

func (h *PostHandler) Create(c *gin.Context) {
	viewer := middleware.Viewer(c)
	data := gin.H{"Title": "New post"}

	in, err := h.bind(c)
	if err == nil {
		if _, err = h.posts.Create(c.Request.Context(), viewer, in); err == nil {
			h.Redirect(c, profileURL(viewer.Username))
			return
		}
	}
	data["Form"] = in
	h.formError(c, data, err)
}

func (h *PostHandler) EditForm(c *gin.Context) {
	post, ok := h.lookup(c, h.posts.ForEdit)
	if !ok {
		return
	}
	h.form(c, gin.H{"Title": "Edit post", "Form": service.InputFromPost(post), "Post": post})
}

func (h *PostHandler) Update(c *gin.Context) {
	post, ok := h.lookup(c, h.posts.ForEdit)
	if !ok {
		return
	}
	data := gin.H{"Title": "Edit post", "Post": post}

	in, err := h.bind(c)
	if err == nil {
		var outcome service.Outcome
		_, outcome, err = h.posts.Update(c.Request.Context(), middleware.Viewer(c), post.ID, in)
		if err == nil {
			if !h.handled(c, outcome, post.ID) {
				h.Redirect(c, postURL(post.ID))
			}
			return
		}
	}
	data["Form"] = in
	h.formError(c, data, err)
}

func (h *PostHandler) DeleteForm(c *gin.Context) {
	post, ok := h.lookup(c, h.posts.ForDelete)
	if !ok {
		return
	}
	h.HTML(c, http.StatusOK, "create", gin.H{
		"Title":    "Delete post",
		"Form":     service.InputFromPost(post),
		"Post":     post,
		"Deleting": true,
	})
}

func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.NotFound(c)
		return
	}
	viewer := middleware.Viewer(c)
	outcome, err := h.posts.Delete(c.Request.Context(), viewer, id)
	if err != nil {
		h.ServerError(c, err)
		return
	}
	if h.handled(c, outcome, id) {
		return
	}
	h.Redirect(c, profileURL(viewer.Username))
}

type postFinder func(ctx context.Context, viewer *models.User, id uint) (*models.Post, service.Outcome, error)

// lookup resolves the :id post for the viewer. It writes the response and
// returns false when the post is missing or the viewer is refused.
func (h *PostHandler) lookup(c *gin.Context, find postFinder) (*models.Post, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		h.NotFound(c)
		return nil, false
	}
	post, outcome, err := find(c.Request.Context(), middleware.Viewer(c), id)
	if err != nil {
		h.ServerError(c, err)
		return nil, false
	}
	if h.handled(c, outcome, id) {
		return nil, false
	}
	return post, true
}

// handled writes the response for NotFound and Forbidden outcomes. Refused
// viewers go back to the post page.
func (h *PostHandler) handled(c *gin.Context, outcome service.Outcome, id uint) bool {
	switch outcome {
	case service.NotFound:
		h.NotFound(c)
		return true
	case service.Forbidden:
		h.Redirect(c, postURL(id))
		return true
	}
	return false
}

// bind reads the post form and stores an uploaded image.
func (h *PostHandler) bind(c *gin.Context) (service.PostInput, error) {
	var in service.PostInput
	if err := c.ShouldBind(&in); err != nil {
		return in, validation.Errors{"__all__": "The submitted form could not be read."}
	}

	fh, err := c.FormFile("image")
	if err != nil || fh.Filename == "" {
		return in, nil
	}
	rel, err := h.media.Save(fh)
	switch {
	case errors.Is(err, media.ErrUnsupported):
		return in, validation.Errors{"image": "Upload a jpg, png, gif or webp image."}
	case errors.Is(err, media.ErrTooLarge):
		return in, validation.Errors{"image": "The image is larger than 5 MB."}
	case err != nil:
		return in, err
	}
	in.Image = rel
	return in, nil
}

func (h *PostHandler) form(c *gin.Context, data gin.H) {
	if err := h.choices(c, data); err != nil {
		h.ServerError(c, err)
		return
	}
	h.HTML(c, http.StatusOK, "create", data)
}

func (h *PostHandler) formError(c *gin.Context, data gin.H, err error) {
	if err := h.choices(c, data); err != nil {
		h.ServerError(c, err)
		return
	}
	h.Form(c, "create", data, err)
}

func (h *PostHandler) choices(c *gin.Context, data gin.H) error {
	categories, locations, err := h.catalog.Choices(c.Request.Context())
	if err != nil {
		return err
	}
	data["Categories"] = categories
	data["Locations"] = locations
	return nil
}
