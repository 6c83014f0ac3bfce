package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/blogicum/internal/session"
)

const (
	CSRFCookie = "csrftoken"
	CSRFField  = "csrf_token"
	CSRFHeader = "X-CSRFToken"

	csrfKey    = "csrf_token"
	csrfMaxAge = 365 * 24 * 60 * 60
)

// CSRF implements the double-submit cookie check. Every response carries a
// csrftoken cookie; unsafe requests must echo it in the csrf_token form
// field or the X-CSRFToken header. onFailure renders the rejection.
func CSRF(secureCookie bool, onFailure gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(CSRFCookie)
		fresh := false
		if err != nil || !wellFormed(token) {
			token = session.NewToken()
			fresh = true
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(CSRFCookie, token, csrfMaxAge, "/", "", secureCookie, false)
		}
		c.Set(csrfKey, token)

		if safeMethod(c.Request.Method) {
			c.Next()
			return
		}

		submitted := c.PostForm(CSRFField)
		if submitted == "" {
			submitted = c.GetHeader(CSRFHeader)
		}
		if fresh || submitted == "" || subtle.ConstantTimeCompare([]byte(submitted), []byte(token)) != 1 {
			onFailure(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CSRFToken returns the token to embed in forms.
func CSRFToken(c *gin.Context) string {
	return c.GetString(csrfKey)
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

func wellFormed(token string) bool {
	if len(token) != 64 {
		return false
	}
	for _, r := range token {
		if !('0' <= r && r <= '9' || 'a' <= r && r <= 'f') {
			return false
		}
	}
	return true
}
