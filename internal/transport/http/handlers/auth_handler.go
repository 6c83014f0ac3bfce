package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/blogicum/internal/service"
	"github.com/example/blogicum/internal/transport/http/middleware"
	"github.com/example/blogicum/internal/validation"
)

type loginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
	Next     string `form:"next"`
}

type AuthHandler struct {
	Responder
	accounts *service.AccountService
	auth     *middleware.Auth
}

func NewAuthHandler(r Responder, accounts *service.AccountService, auth *middleware.Auth) *AuthHandler {
	return &AuthHandler{Responder: r, accounts: accounts, auth: auth}
}

func (h *AuthHandler) LoginForm(c *gin.Context) {
	h.HTML(c, http.StatusOK, "login", gin.H{"Title": "Log in", "Next": c.Query("next")})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var in loginForm
	_ = c.ShouldBind(&in)
	data := gin.H{"Title": "Log in", "Next": in.Next, "Username": in.Username}

	user, err := h.accounts.Authenticate(c.Request.Context(), in.Username, in.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		err = validation.Errors{"__all__": "Please enter a correct username and password."}
	}
	if err != nil {
		h.Form(c, "login", data, err)
		return
	}
	if err := h.auth.Login(c, user); err != nil {
		h.ServerError(c, err)
		return
	}
	h.Log.Info().Uint("user_id", user.ID).Str("client_ip", c.ClientIP()).Msg("user logged in")
	h.Redirect(c, middleware.SafeNext(in.Next, "/"))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c); err != nil {
		h.Log.Warn().Err(err).Msg("session delete failed")
	}
	h.Redirect(c, "/")
}

func (h *AuthHandler) RegisterForm(c *gin.Context) {
	h.HTML(c, http.StatusOK, "registration", gin.H{"Title": "Sign up", "Form": service.RegistrationInput{}})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var in service.RegistrationInput
	_ = c.ShouldBind(&in)

	if _, err := h.accounts.Register(c.Request.Context(), in); err != nil {
		in.Password, in.PasswordConfirm = "", ""
		h.Form(c, "registration", gin.H{"Title": "Sign up", "Form": in}, err)
		return
	}
	h.Redirect(c, middleware.LoginPath)
}
