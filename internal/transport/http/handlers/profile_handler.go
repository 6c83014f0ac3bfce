package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/blogicum/internal/service"
	"github.com/example/blogicum/internal/transport/http/middleware"
	"github.com/example/blogicum/internal/validation"
)

type ProfileHandler struct {
	Responder
	posts    *service.PostService
	accounts *service.AccountService
}

func NewProfileHandler(r Responder, posts *service.PostService, accounts *service.AccountService) *ProfileHandler {
	return &ProfileHandler{Responder: r, posts: posts, accounts: accounts}
}

func (h *ProfileHandler) Show(c *gin.Context) {
	profile, page, err := h.posts.ListProfile(c.Request.Context(), middleware.Viewer(c), c.Param("username"), c.Query("page"))
	if errors.Is(err, service.ErrNotFound) {
		h.NotFound(c)
		return
	}
	if err != nil {
		h.ServerError(c, err)
		return
	}
	h.HTML(c, http.StatusOK, "profile", gin.H{"Title": profile.Username, "Profile": profile, "Page": page})
}

func (h *ProfileHandler) EditForm(c *gin.Context) {
	username := c.Param("username")
	profile, outcome, err := h.accounts.ForEdit(c.Request.Context(), middleware.Viewer(c), username)
	if err != nil {
		h.ServerError(c, err)
		return
	}
	if h.handled(c, outcome, username) {
		return
	}
	h.HTML(c, http.StatusOK, "user", gin.H{"Title": "Edit profile", "Profile": profile, "Form": service.InputFromUser(profile)})
}

func (h *ProfileHandler) Update(c *gin.Context) {
	username := c.Param("username")
	var in service.ProfileInput
	if err := c.ShouldBind(&in); err != nil {
		h.Form(c, "user", gin.H{"Title": "Edit profile", "Form": in},
			validation.Errors{"__all__": "The submitted form could not be read."})
		return
	}

	updated, outcome, err := h.accounts.UpdateProfile(c.Request.Context(), middleware.Viewer(c), username, in)
	if err != nil {
		h.Form(c, "user", gin.H{"Title": "Edit profile", "Profile": updated, "Form": in}, err)
		return
	}
	if h.handled(c, outcome, username) {
		return
	}
	h.Redirect(c, profileURL(updated.Username))
}

// handled answers NotFound and Forbidden outcomes. Other users' profiles
// redirect to the profile page.
func (h *ProfileHandler) handled(c *gin.Context, outcome service.Outcome, username string) bool {
	switch outcome {
	case service.NotFound:
		h.NotFound(c)
		return true
	case service.Forbidden:
		h.Redirect(c, profileURL(username))
		return true
	}
	return false
}
