package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/example/blogicum/internal/models"
	"github.com/example/blogicum/internal/service"
	"github.com/example/blogicum/internal/session"
)

const (
	SessionCookie = "sessionid"
	LoginPath     = "/auth/login/"

	viewerKey = "viewer"
)

// UserLoader resolves the user behind a session.
type UserLoader interface {
	User(ctx context.Context, id uint) (*models.User, error)
}

type Auth struct {
	sessions session.Store
	users    UserLoader
	secure   bool
	log      zerolog.Logger
}

func NewAuth(sessions session.Store, users UserLoader, secureCookie bool, log zerolog.Logger) *Auth {
	return &Auth{sessions: sessions, users: users, secure: secureCookie, log: log}
}

// LoadViewer attaches the logged-in user, if any, to the request.
func (a *Auth) LoadViewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil || token == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		sess, err := a.sessions.Get(ctx, token)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				a.log.Warn().Err(err).Msg("session lookup failed")
			}
			a.clearCookie(c)
			c.Next()
			return
		}

		user, err := a.users.User(ctx, sess.UserID)
		if err != nil {
			if !errors.Is(err, service.ErrNotFound) {
				a.log.Warn().Err(err).Uint("user_id", sess.UserID).Msg("session user lookup failed")
			}
			c.Next()
			return
		}
		c.Set(viewerKey, user)
		c.Next()
	}
}

// Login starts a session for user and sets its cookie.
func (a *Auth) Login(c *gin.Context, user *models.User) error {
	sess, err := a.sessions.Create(c.Request.Context(), user.ID)
	if err != nil {
		return err
	}
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, sess.Token, maxAge, "/", "", a.secure, true)
	c.Set(viewerKey, user)
	return nil
}

// Logout ends the current session, if any.
func (a *Auth) Logout(c *gin.Context) error {
	defer a.clearCookie(c)
	token, err := c.Cookie(SessionCookie)
	if err != nil || token == "" {
		return nil
	}
	return a.sessions.Delete(c.Request.Context(), token)
}

func (a *Auth) clearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", a.secure, true)
}

// Viewer returns the logged-in user or nil for anonymous requests.
func Viewer(c *gin.Context) *models.User {
	if v, ok := c.Get(viewerKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// RequireAuth sends anonymous users to the login page.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		if Viewer(c) == nil {
			c.Redirect(http.StatusFound, LoginURL(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

func LoginURL(next string) string {
	if next == "" {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(next)
}

// SafeNext returns next when it is a path on this site, fallback otherwise.
func SafeNext(next, fallback string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}
