package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/example/blogicum/internal/transport/http/middleware"
	"github.com/example/blogicum/internal/validation"
)

// Responder renders pages with the values every template expects.
type Responder struct {
	Log zerolog.Logger
}

func (r Responder) HTML(c *gin.Context, status int, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Viewer"] = middleware.Viewer(c)
	data["CSRFToken"] = middleware.CSRFToken(c)
	data["Path"] = c.Request.URL.Path
	c.HTML(status, page, data)
}

// Form re-renders a page after a failed submission. Validation failures are
// shown next to the fields; anything else is a server error.
func (r Responder) Form(c *gin.Context, page string, data gin.H, err error) {
	errs, ok := validation.As(err)
	if !ok {
		r.ServerError(c, err)
		return
	}
	data["Errors"] = errs
	r.HTML(c, http.StatusOK, page, data)
}

func (r Responder) NotFound(c *gin.Context) {
	r.HTML(c, http.StatusNotFound, "404", gin.H{"Title": "Page not found"})
}

func (r Responder) ServerError(c *gin.Context, err error) {
	r.Log.Error().Err(err).Str("method", c.Request.Method).Str("path", c.Request.URL.Path).Msg("request failed")
	r.HTML(c, http.StatusInternalServerError, "500", gin.H{"Title": "Server error"})
}

func (r Responder) CSRFFailure(c *gin.Context) {
	r.Log.Warn().Str("path", c.Request.URL.Path).Str("client_ip", c.ClientIP()).Msg("csrf check failed")
	r.HTML(c, http.StatusForbidden, "403csrf", gin.H{"Title": "CSRF check failed"})
}

// Panic renders the 500 page for gin.CustomRecovery.
func (r Responder) Panic(c *gin.Context, recovered any) {
	r.ServerError(c, fmt.Errorf("panic: %v", recovered))
	c.Abort()
}

func (r Responder) Redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
}

func paramID(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func postURL(id uint) string { return fmt.Sprintf("/posts/%d/", id) }

func profileURL(username string) string { return "/profile/" + url.PathEscape(username) + "/" }
