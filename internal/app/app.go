package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/blogicum/internal/cache"
	"github.com/example/blogicum/internal/config"
	"github.com/example/blogicum/internal/db"
	"github.com/example/blogicum/internal/media"
	"github.com/example/blogicum/internal/repository"
	"github.com/example/blogicum/internal/repository/memory"
	"github.com/example/blogicum/internal/search"
	"github.com/example/blogicum/internal/service"
	"github.com/example/blogicum/internal/session"
	"github.com/example/blogicum/internal/transport/http"
	"github.com/example/blogicum/internal/transport/http/render"
	"github.com/example/blogicum/web"
)

const startupTimeout = 10 * time.Second

type Application struct {
	Config   *config.Config
	Logger   zerolog.Logger
	DB       *db.Database
	Cache    *cache.RedisClient
	Search   *search.Elastic
	Sessions session.Store
	Services *service.Services
	Router   http.Router
}

// Open connects the storage, cache and search backends named by cfg and
// builds the services on top of them. It does not migrate or serve.
func Open(cfg *config.Config, logger zerolog.Logger) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Application{Config: cfg, Logger: logger}
	opts := service.Options{Logger: logger}

	switch cfg.StoreDriver {
	case config.StorePostgres:
		database, err := db.Connect(cfg)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		a.DB = database
		opts.Store = repository.NewStore(database.Gorm)
	case config.StoreMemory:
		logger.Warn().Msg("using the in-memory store; data is lost on restart")
		opts.Store = memory.New()
	}

	if cfg.SessionBackend == config.SessionRedis {
		a.Cache = cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()
		if err := a.Cache.Ping(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.Sessions = session.NewRedisStore(a.Cache, cfg.SessionTTL)
		opts.Cache = a.Cache
	} else {
		a.Sessions = session.NewMemoryStore(cfg.SessionTTL)
	}

	if cfg.SearchEnabled() {
		es, err := search.NewElastic(cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("elasticsearch: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()
		if err := es.EnsurePostsIndex(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("ensure ES index: %w", err)
		}
		a.Search = es
		opts.Search = es
	} else {
		logger.Info().Msg("ELASTICSEARCH_ADDR not set; search is disabled")
	}

	a.Services = service.New(opts)
	return a, nil
}

// Initialize opens the application, migrates the schema and builds the router.
func Initialize(cfg *config.Config, logger zerolog.Logger) (*Application, error) {
	a, err := Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := a.Migrate(); err != nil {
		a.Close()
		return nil, err
	}

	renderer, err := render.New(web.Templates())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("templates: %w", err)
	}
	a.Router = http.NewRouter(http.Deps{
		Config:   cfg,
		Services: a.Services,
		Sessions: a.Sessions,
		Media:    media.NewStore(cfg.MediaDir),
		Renderer: renderer,
		Logger:   logger,
	})
	return a, nil
}

// Migrate is a no-op for the in-memory store.
func (a *Application) Migrate() error {
	if a.DB == nil {
		return nil
	}
	if err := a.DB.Migrate(); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}
	return nil
}

func (a *Application) Close() {
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("db close error")
		}
	}
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
}
