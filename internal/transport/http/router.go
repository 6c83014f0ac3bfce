package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/example/blogicum/internal/config"
	"github.com/example/blogicum/internal/logging"
	"github.com/example/blogicum/internal/media"
	"github.com/example/blogicum/internal/metrics"
	"github.com/example/blogicum/internal/service"
	"github.com/example/blogicum/internal/session"
	"github.com/example/blogicum/internal/transport/http/handlers"
	"github.com/example/blogicum/internal/transport/http/middleware"
	"github.com/example/blogicum/internal/transport/http/render"
)

type Router = *gin.Engine

type Deps struct {
	Config   *config.Config
	Services *service.Services
	Sessions session.Store
	Media    *media.Store
	Renderer *render.HTML
	Logger   zerolog.Logger
}

func NewRouter(d Deps) Router {
	if mode := d.Config.GinMode; mode != "" {
		gin.SetMode(mode)
	}
	r := gin.New()
	r.HTMLRender = d.Renderer
	r.MaxMultipartMemory = media.MaxImageSize + 1<<20

	resp := handlers.Responder{Log: d.Logger}
	auth := middleware.NewAuth(d.Sessions, d.Services.Accounts, d.Config.CookieSecure, d.Logger)

	r.Use(gin.CustomRecovery(resp.Panic))
	r.Use(logging.Middleware(d.Logger))
	r.Use(metrics.Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Static("/media", d.Media.Dir())

	site := r.Group("/")
	site.Use(middleware.CSRF(d.Config.CookieSecure, resp.CSRFFailure))
	site.Use(auth.LoadViewer())
	requireAuth := middleware.RequireAuth()

	posts := handlers.NewPostHandler(resp, d.Services.Posts, d.Services.Catalog, d.Media)
	comments := handlers.NewCommentHandler(resp, d.Services.Comments)
	profiles := handlers.NewProfileHandler(resp, d.Services.Posts, d.Services.Accounts)
	accounts := handlers.NewAuthHandler(resp, d.Services.Accounts, auth)
	manage := handlers.NewManageHandler(resp, d.Services.Catalog)
	pages := handlers.NewPageHandler(resp)

	site.GET("/", posts.Index)
	site.GET("/category/:slug/", posts.Category)
	site.GET("/search/", posts.Search)

	site.GET("/posts/create/", requireAuth, posts.CreateForm)
	site.POST("/posts/create/", requireAuth, posts.Create)
	site.GET("/posts/:id/", posts.Detail)
	site.GET("/posts/:id/edit/", posts.EditForm)
	site.POST("/posts/:id/edit/", posts.Update)
	site.GET("/posts/:id/delete/", posts.DeleteForm)
	site.POST("/posts/:id/delete/", posts.Delete)

	site.POST("/posts/:id/comment/", requireAuth, comments.Create)
	site.GET("/posts/:id/comment/:cid/edit/", comments.EditForm)
	site.POST("/posts/:id/comment/:cid/edit/", comments.Update)
	site.GET("/posts/:id/comment/:cid/delete/", comments.DeleteForm)
	site.POST("/posts/:id/comment/:cid/delete/", comments.Delete)

	site.GET("/profile/:username/", profiles.Show)
	site.GET("/profile/:username/edit/", requireAuth, profiles.EditForm)
	site.POST("/profile/:username/edit/", requireAuth, profiles.Update)

	site.GET("/auth/login/", accounts.LoginForm)
	site.POST("/auth/login/", accounts.Login)
	site.POST("/auth/logout/", accounts.Logout)
	site.GET("/auth/registration/", accounts.RegisterForm)
	site.POST("/auth/registration/", accounts.Register)

	staff := site.Group("/manage", requireAuth)
	staff.GET("/categories/", manage.Categories)
	staff.POST("/categories/", manage.CreateCategory)
	staff.POST("/categories/:id/toggle/", manage.ToggleCategory)
	staff.POST("/categories/:id/delete/", manage.DeleteCategory)
	staff.GET("/locations/", manage.Locations)
	staff.POST("/locations/", manage.CreateLocation)
	staff.POST("/locations/:id/toggle/", manage.ToggleLocation)
	staff.POST("/locations/:id/delete/", manage.DeleteLocation)

	site.GET("/pages/about/", pages.About)
	site.GET("/pages/rules/", pages.Rules)

	r.NoRoute(middleware.CSRF(d.Config.CookieSecure, resp.CSRFFailure), auth.LoadViewer(), resp.NotFound)

	return r
}
