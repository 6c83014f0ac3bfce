// Package memory is an in-process Store with the same contract as the gorm
// repositories. It backs STORE_DRIVER=memory and the service and handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/blogicum/internal/models"
	"github.com/example/blogicum/internal/policy"
	"github.com/example/blogicum/internal/repository"
)

type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	users      map[uint]models.User
	categories map[uint]models.Category
	locations  map[uint]models.Location
	posts      map[uint]models.Post
	comments   map[uint]models.Comment
	activity   []models.ActivityLog

	nextID uint
}

func New() *Store {
	return &Store{
		now:        time.Now,
		users:      make(map[uint]models.User),
		categories: make(map[uint]models.Category),
		locations:  make(map[uint]models.Location),
		posts:      make(map[uint]models.Post),
		comments:   make(map[uint]models.Comment),
	}
}

// WithClock sets the source of CreatedAt timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

func (s *Store) log(action string, postID, userID uint) {
	s.activity = append(s.activity, models.ActivityLog{
		ID: s.id(), Action: action, PostID: postID, UserID: userID, LoggedAt: s.now(),
	})
}

// Activity returns a copy of the activity log in write order.
func (s *Store) Activity() []models.ActivityLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ActivityLog(nil), s.activity...)
}

// hydrate attaches copies of the post's associations. Callers hold the lock.
func (s *Store) hydrate(p models.Post) models.Post {
	if u, ok := s.users[p.AuthorID]; ok {
		p.Author = &u
	}
	p.Category = nil
	if p.CategoryID != nil {
		if c, ok := s.categories[*p.CategoryID]; ok {
			p.Category = &c
		}
	}
	p.Location = nil
	if p.LocationID != nil {
		if l, ok := s.locations[*p.LocationID]; ok {
			p.Location = &l
		}
	}
	return p
}

func strip(p models.Post) models.Post {
	p.Author, p.Category, p.Location = nil, nil, nil
	p.CommentCount = 0
	return p
}

// Posts

func (s *Store) CreatePost(_ context.Context, p *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.id()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	s.posts[p.ID] = strip(*p)
	s.log(models.ActionNewPost, p.ID, p.AuthorID)
	return nil
}

func (s *Store) UpdatePost(_ context.Context, p *models.Post, actorID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.posts[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Title = p.Title
	cur.Text = p.Text
	cur.PubDate = p.PubDate
	cur.IsPublished = p.IsPublished
	cur.Image = p.Image
	cur.CategoryID = p.CategoryID
	cur.LocationID = p.LocationID
	s.posts[p.ID] = cur
	s.log(models.ActionUpdatePost, p.ID, actorID)
	return nil
}

func (s *Store) DeletePost(_ context.Context, id, actorID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return repository.ErrNotFound
	}
	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
		}
	}
	delete(s.posts, id)
	s.log(models.ActionDeletePost, id, actorID)
	return nil
}

func (s *Store) GetPost(_ context.Context, id uint) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p = s.hydrate(p)
	return &p, nil
}

func (s *Store) CountPosts(_ context.Context, f repository.PostFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.match(f))), nil
}

func (s *Store) ListPosts(_ context.Context, f repository.PostFilter, offset, limit int) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := s.match(f)
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].PubDate.Equal(posts[j].PubDate) {
			return posts[i].PubDate.After(posts[j].PubDate)
		}
		return posts[i].ID > posts[j].ID
	})

	if offset > len(posts) {
		offset = len(posts)
	}
	posts = posts[offset:]
	if limit > 0 && limit < len(posts) {
		posts = posts[:limit]
	}
	for i := range posts {
		posts[i].CommentCount = s.commentCount(posts[i].ID)
	}
	return posts, nil
}

func (s *Store) match(f repository.PostFilter) []models.Post {
	var ids map[uint]bool
	if len(f.IDs) > 0 {
		ids = make(map[uint]bool, len(f.IDs))
		for _, id := range f.IDs {
			ids[id] = true
		}
	}

	out := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
			continue
		}
		if f.AuthorID != nil && p.AuthorID != *f.AuthorID {
			continue
		}
		if ids != nil && !ids[p.ID] {
			continue
		}
		p = s.hydrate(p)
		if f.VisibleAt != nil && !policy.IsPostPublic(&p, *f.VisibleAt) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *Store) commentCount(postID uint) int64 {
	var n int64
	for _, c := range s.comments {
		if c.PostID == postID {
			n++
		}
	}
	return n
}

// Comments

func (s *Store) CreateComment(_ context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[c.PostID]; !ok {
		return repository.ErrNotFound
	}
	c.ID = s.id()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	stored := *c
	stored.Post, stored.Author = nil, nil
	s.comments[c.ID] = stored
	s.log(models.ActionNewComment, c.PostID, c.AuthorID)
	return nil
}

func (s *Store) UpdateComment(_ context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.comments[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Text = c.Text
	s.comments[c.ID] = cur
	s.log(models.ActionUpdateComment, cur.PostID, cur.AuthorID)
	return nil
}

func (s *Store) DeleteComment(_ context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.comments[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	delete(s.comments, c.ID)
	s.log(models.ActionDeleteComment, cur.PostID, cur.AuthorID)
	return nil
}

func (s *Store) GetComment(_ context.Context, id uint) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if u, ok := s.users[c.AuthorID]; ok {
		c.Author = &u
	}
	return &c, nil
}

func (s *Store) ListComments(_ context.Context, postID uint) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Comment
	for _, c := range s.comments {
		if c.PostID != postID {
			continue
		}
		if u, ok := s.users[c.AuthorID]; ok {
			c.Author = &u
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Catalog

func (s *Store) GetCategory(_ context.Context, id uint) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (s *Store) GetCategoryBySlug(_ context.Context, slug string) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.categories {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) ListCategories(_ context.Context, onlyPublished bool) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if onlyPublished && !c.IsPublished {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (s *Store) CreateCategory(_ context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.categories {
		if existing.Slug == c.Slug {
			return repository.ErrDuplicate
		}
	}
	c.ID = s.id()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.categories[c.ID] = *c
	return nil
}

func (s *Store) SetCategoryPublished(_ context.Context, id uint, published bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.IsPublished = published
	s.categories[id] = c
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return repository.ErrNotFound
	}
	for pid, p := range s.posts {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
			s.posts[pid] = p
		}
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) GetLocation(_ context.Context, id uint) (*models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.locations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &l, nil
}

func (s *Store) ListLocations(_ context.Context, onlyPublished bool) ([]models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Location, 0, len(s.locations))
	for _, l := range s.locations {
		if onlyPublished && !l.IsPublished {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateLocation(_ context.Context, l *models.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l.ID = s.id()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = s.now()
	}
	s.locations[l.ID] = *l
	return nil
}

func (s *Store) SetLocationPublished(_ context.Context, id uint, published bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locations[id]
	if !ok {
		return repository.ErrNotFound
	}
	l.IsPublished = published
	s.locations[id] = l
	return nil
}

func (s *Store) DeleteLocation(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.locations[id]; !ok {
		return repository.ErrNotFound
	}
	for pid, p := range s.posts {
		if p.LocationID != nil && *p.LocationID == id {
			p.LocationID = nil
			s.posts[pid] = p
		}
	}
	delete(s.locations, id)
	return nil
}

// Users

func (s *Store) GetUser(_ context.Context, id uint) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username {
			return repository.ErrDuplicate
		}
	}
	u.ID = s.id()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) UpdateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, existing := range s.users {
		if id != u.ID && existing.Username == u.Username {
			return repository.ErrDuplicate
		}
	}
	cur.Username = u.Username
	cur.FirstName = u.FirstName
	cur.LastName = u.LastName
	cur.Email = u.Email
	s.users[u.ID] = cur
	return nil
}
