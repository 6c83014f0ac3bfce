package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/blogicum/internal/models"
	"github.com/example/blogicum/internal/pagination"
	"github.com/example/blogicum/internal/repository"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Outcome tags the result of looking an entity up on behalf of a viewer.
type Outcome int

const (
	Found Outcome = iota
	NotFound
	Forbidden
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

type PostStore interface {
	CountPosts(ctx context.Context, f repository.PostFilter) (int64, error)
	ListPosts(ctx context.Context, f repository.PostFilter, offset, limit int) ([]models.Post, error)
	GetPost(ctx context.Context, id uint) (*models.Post, error)
	CreatePost(ctx context.Context, p *models.Post) error
	UpdatePost(ctx context.Context, p *models.Post, actorID uint) error
	DeletePost(ctx context.Context, id, actorID uint) error
}

type CommentStore interface {
	ListComments(ctx context.Context, postID uint) ([]models.Comment, error)
	GetComment(ctx context.Context, id uint) (*models.Comment, error)
	CreateComment(ctx context.Context, c *models.Comment) error
	UpdateComment(ctx context.Context, c *models.Comment) error
	DeleteComment(ctx context.Context, c *models.Comment) error
}

type CatalogStore interface {
	GetCategory(ctx context.Context, id uint) (*models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	ListCategories(ctx context.Context, onlyPublished bool) ([]models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	SetCategoryPublished(ctx context.Context, id uint, published bool) error
	DeleteCategory(ctx context.Context, id uint) error

	GetLocation(ctx context.Context, id uint) (*models.Location, error)
	ListLocations(ctx context.Context, onlyPublished bool) ([]models.Location, error)
	CreateLocation(ctx context.Context, l *models.Location) error
	SetLocationPublished(ctx context.Context, id uint, published bool) error
	DeleteLocation(ctx context.Context, id uint) error
}

type UserStore interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, u *models.User) error
}

// Store is satisfied by repository.Store and memory.Store.
type Store interface {
	PostStore
	CommentStore
	CatalogStore
	UserStore
}

// SearchIndex mirrors posts into a full-text index.
type SearchIndex interface {
	IndexPost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id uint) error
	SearchPostIDs(ctx context.Context, query string) ([]uint, error)
}

// Cache is a JSON read-through cache such as cache.RedisClient.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}) error
	Del(ctx context.Context, key string) error
}

type Options struct {
	Store Store
	// Cache may be nil.
	Cache Cache
	// Search may be nil; indexing is then skipped and searches return nothing.
	Search  SearchIndex
	Logger  zerolog.Logger
	Now     func() time.Time
	PerPage int
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

type Services struct {
	Posts    *PostService
	Comments *CommentService
	Accounts *AccountService
	Catalog  *CatalogService
}

func New(opts Options) *Services {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	pager := pagination.New(opts.PerPage)

	return &Services{
		Posts: &PostService{
			store:  opts.Store,
			search: opts.Search,
			pager:  pager,
			now:    opts.Now,
			log:    opts.Logger.With().Str("component", "posts").Logger(),
		},
		Comments: &CommentService{
			store: opts.Store,
			log:   opts.Logger.With().Str("component", "comments").Logger(),
		},
		Accounts: &AccountService{
			store: opts.Store,
			cache: opts.Cache,
			cost:  opts.BcryptCost,
			log:   opts.Logger.With().Str("component", "accounts").Logger(),
		},
		Catalog: &CatalogService{
			store: opts.Store,
			log:   opts.Logger.With().Str("component", "catalog").Logger(),
		},
	}
}

func notFound(err error) bool { return errors.Is(err, repository.ErrNotFound) }
