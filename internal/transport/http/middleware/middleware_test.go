package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/blogicum/internal/models"
	"github.com/example/blogicum/internal/service"
	"github.com/example/blogicum/internal/session"
)

func init() { gin.SetMode(gin.TestMode) }

func csrfEngine() *gin.Engine {
	r := gin.New()
	r.Use(CSRF(false, func(c *gin.Context) { c.String(http.StatusForbidden, "csrf") }))
	r.GET("/form", func(c *gin.Context) { c.String(http.StatusOK, CSRFToken(c)) })
	r.POST("/form", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func cookieValue(t *testing.T, w *httptest.ResponseRecorder, name string) string {
	t.Helper()
	for _, ck := range w.Result().Cookies() {
		if ck.Name == name {
			return ck.Value
		}
	}
	t.Fatalf("cookie %s not set", name)
	return ""
}

func TestCSRFIssuesToken(t *testing.T) {
	r := csrfEngine()
	w := httptest.NewRecorder()

	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/form", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	token := cookieValue(t, w, CSRFCookie)
	assert.Len(t, token, 64)
	assert.Equal(t, token, w.Body.String())
}

func TestCSRFValidation(t *testing.T) {
	r := csrfEngine()
	token := session.NewToken()

	post := func(cookie, field, header string) int {
		form := url.Values{}
		if field != "" {
			form.Set(CSRFField, field)
		}
		req := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: CSRFCookie, Value: cookie})
		}
		if header != "" {
			req.Header.Set(CSRFHeader, header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, post(token, token, ""))
	assert.Equal(t, http.StatusOK, post(token, "", token))
	assert.Equal(t, http.StatusForbidden, post(token, "", ""))
	assert.Equal(t, http.StatusForbidden, post(token, session.NewToken(), ""))
	assert.Equal(t, http.StatusForbidden, post("", token, ""))
	assert.Equal(t, http.StatusForbidden, post("short", "short", ""))
}

type stubUsers map[uint]*models.User

func (s stubUsers) User(_ context.Context, id uint) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, service.ErrNotFound
}

func authEngine(sessions session.Store, users stubUsers) (*gin.Engine, *Auth) {
	auth := NewAuth(sessions, users, false, zerolog.Nop())
	r := gin.New()
	r.Use(auth.LoadViewer())
	r.GET("/whoami", func(c *gin.Context) {
		if v := Viewer(c); v != nil {
			c.String(http.StatusOK, v.Username)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	r.GET("/private", RequireAuth(), func(c *gin.Context) { c.String(http.StatusOK, "secret") })
	r.POST("/login", func(c *gin.Context) {
		if err := auth.Login(c, users[1]); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	r.POST("/logout", func(c *gin.Context) {
		_ = auth.Logout(c)
		c.Status(http.StatusNoContent)
	})
	return r, auth
}

func TestLoadViewerFromSession(t *testing.T) {
	sessions := session.NewMemoryStore(time.Hour)
	users := stubUsers{1: {ID: 1, Username: "alice"}}
	r, _ := authEngine(sessions, users)

	sess, err := sessions.Create(context.Background(), 1)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sess.Token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "alice", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "bogus"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "anonymous", w.Body.String())
	assert.Equal(t, "", cookieValue(t, w, SessionCookie))
}

func TestLoginAndLogout(t *testing.T) {
	sessions := session.NewMemoryStore(time.Hour)
	r, _ := authEngine(sessions, stubUsers{1: {ID: 1, Username: "alice"}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	token := cookieValue(t, w, SessionCookie)
	_, err := sessions.Get(context.Background(), token)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	_, err = sessions.Get(context.Background(), token)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestRequireAuthRedirectsToLogin(t *testing.T) {
	r, _ := authEngine(session.NewMemoryStore(time.Hour), stubUsers{})
	w := httptest.NewRecorder()

	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private?x=1", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/?next=%2Fprivate%3Fx%3D1", w.Header().Get("Location"))
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/posts/1/", SafeNext("/posts/1/", "/"))
	assert.Equal(t, "/", SafeNext("https://evil.example/", "/"))
	assert.Equal(t, "/", SafeNext("//evil.example/", "/"))
	assert.Equal(t, "/", SafeNext("", "/"))
}
