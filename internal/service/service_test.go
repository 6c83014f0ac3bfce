package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/blogicum/internal/models"
	"github.com/example/blogicum/internal/repository/memory"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeSearch struct {
	mu      sync.Mutex
	indexed map[uint]string
	deleted []uint
	hits    []uint
	fail    error
}

func newFakeSearch() *fakeSearch { return &fakeSearch{indexed: map[uint]string{}} }

func (f *fakeSearch) IndexPost(_ context.Context, post *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.indexed[post.ID] = post.Title
	return nil
}

func (f *fakeSearch) DeletePost(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.deleted = append(f.deleted, id)
	delete(f.indexed, id)
	return nil
}

func (f *fakeSearch) SearchPostIDs(_ context.Context, _ string) ([]uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	return f.hits, nil
}

var errIndexDown = errors.New("index unavailable")

type fixture struct {
	ctx    context.Context
	store  *memory.Store
	search *fakeSearch
	svc    *Services

	author *models.User
	reader *models.User
	staff  *models.User
	travel *models.Category
	hidden *models.Category
	moscow *models.Location
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New().WithClock(func() time.Time { return testNow })
	search := newFakeSearch()
	svc := New(Options{
		Store:      store,
		Search:     search,
		Logger:     zerolog.Nop(),
		Now:        func() time.Time { return testNow },
		PerPage:    10,
		BcryptCost: bcrypt.MinCost,
	})

	f := &fixture{ctx: ctx, store: store, search: search, svc: svc}
	f.author = f.user(t, "author", false)
	f.reader = f.user(t, "reader", false)
	f.staff = f.user(t, "editor", true)

	f.travel = &models.Category{Title: "Travel", Description: "d", Slug: "travel", IsPublished: true}
	require.NoError(t, store.CreateCategory(ctx, f.travel))
	f.hidden = &models.Category{Title: "Hidden", Description: "d", Slug: "hidden", IsPublished: false}
	require.NoError(t, store.CreateCategory(ctx, f.hidden))
	f.moscow = &models.Location{Name: "Moscow", IsPublished: true}
	require.NoError(t, store.CreateLocation(ctx, f.moscow))
	return f
}

func (f *fixture) user(t *testing.T, username string, staff bool) *models.User {
	t.Helper()
	u, err := f.svc.Accounts.CreateUser(f.ctx, username, username+"@example.com", "s3cret-pass", staff)
	require.NoError(t, err)
	return u
}

// post stores a post directly, bypassing validation.
func (f *fixture) post(t *testing.T, title string, published bool, category *models.Category, pubDate time.Time) *models.Post {
	t.Helper()
	p := &models.Post{Title: title, Text: "text", AuthorID: f.author.ID, IsPublished: published, PubDate: pubDate}
	if category != nil {
		p.CategoryID = &category.ID
	}
	require.NoError(t, f.store.CreatePost(f.ctx, p))
	return p
}

func titles(posts []models.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Title)
	}
	return out
}
