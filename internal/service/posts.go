package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/blogicum/internal/metrics"
	"github.com/example/blogicum/internal/models"
	"github.com/example/blogicum/internal/pagination"
	"github.com/example/blogicum/internal/policy"
	"github.com/example/blogicum/internal/repository"
	"github.com/example/blogicum/internal/validation"
)

// PubDateLayouts are the accepted pub_date formats, most specific first.
var PubDateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

type PostInput struct {
	Title       string `form:"title" validate:"required,max=256"`
	Text        string `form:"text" validate:"required"`
	PubDate     string `form:"pub_date" validate:"required"`
	IsPublished bool   `form:"is_published"`
	Category    string `form:"category"`
	Location    string `form:"location"`
	ClearImage  bool   `form:"clear_image"`
	// Image is the stored path of a freshly uploaded file.
	Image string `form:"-"`
}

// PubDateInputLayout is the datetime-local form value. Form values are UTC
// on the way out and on the way back in.
const PubDateInputLayout = "2006-01-02T15:04"

// FormatPubDate renders t for a datetime-local input.
func FormatPubDate(t time.Time) string { return t.UTC().Format(PubDateInputLayout) }

// InputFromPost pre-fills an edit form.
func InputFromPost(p *models.Post) PostInput {
	in := PostInput{
		Title:       p.Title,
		Text:        p.Text,
		PubDate:     FormatPubDate(p.PubDate),
		IsPublished: p.IsPublished,
	}
	if p.CategoryID != nil {
		in.Category = strconv.FormatUint(uint64(*p.CategoryID), 10)
	}
	if p.LocationID != nil {
		in.Location = strconv.FormatUint(uint64(*p.LocationID), 10)
	}
	return in
}

type PostPage struct {
	Page  pagination.Page
	Posts []models.Post
}

type PostDetail struct {
	Post     *models.Post
	Comments []models.Comment
}

type PostService struct {
	store  Store
	search SearchIndex
	pager  pagination.Paginator
	now    func() time.Time
	log    zerolog.Logger
}

// ListHome pages through every publicly visible post.
func (s *PostService) ListHome(ctx context.Context, requestedPage string) (*PostPage, error) {
	now := s.now()
	return s.list(ctx, repository.PostFilter{VisibleAt: &now}, requestedPage)
}

// ListCategory pages through the visible posts of a published category.
func (s *PostService) ListCategory(ctx context.Context, slug, requestedPage string) (*models.Category, *PostPage, error) {
	category, err := s.store.GetCategoryBySlug(ctx, slug)
	if notFound(err) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get category %q: %w", slug, err)
	}
	if !policy.IsCategoryVisible(category) {
		return nil, nil, ErrNotFound
	}

	now := s.now()
	page, err := s.list(ctx, repository.PostFilter{CategoryID: &category.ID, VisibleAt: &now}, requestedPage)
	if err != nil {
		return nil, nil, err
	}
	return category, page, nil
}

// ListProfile pages through a user's posts. The owner sees all of them,
// including drafts and scheduled ones; everyone else sees the visible ones.
func (s *PostService) ListProfile(ctx context.Context, viewer *models.User, username, requestedPage string) (*models.User, *PostPage, error) {
	profile, err := s.store.GetUserByUsername(ctx, username)
	if notFound(err) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get user %q: %w", username, err)
	}

	f := repository.PostFilter{AuthorID: &profile.ID}
	if !models.SameUser(viewer, profile) {
		now := s.now()
		f.VisibleAt = &now
	}
	page, err := s.list(ctx, f, requestedPage)
	if err != nil {
		return nil, nil, err
	}
	return profile, page, nil
}

// Search runs query against the index and pages through the visible hits.
func (s *PostService) Search(ctx context.Context, query, requestedPage string) (*PostPage, error) {
	query = strings.TrimSpace(query)
	if query == "" || s.search == nil {
		return s.emptyPage(), nil
	}
	ids, err := s.search.SearchPostIDs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if len(ids) == 0 {
		return s.emptyPage(), nil
	}
	now := s.now()
	return s.list(ctx, repository.PostFilter{IDs: ids, VisibleAt: &now}, requestedPage)
}

func (s *PostService) emptyPage() *PostPage {
	return &PostPage{Page: s.pager.Page(0, "")}
}

func (s *PostService) list(ctx context.Context, f repository.PostFilter, requestedPage string) (*PostPage, error) {
	total, err := s.store.CountPosts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	page := s.pager.Page(total, requestedPage)
	posts, err := s.store.ListPosts(ctx, f, page.Offset(), page.Limit())
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return &PostPage{Page: page, Posts: posts}, nil
}

// Detail returns a post the viewer may see, with its comments oldest first.
func (s *PostService) Detail(ctx context.Context, viewer *models.User, id uint) (*PostDetail, error) {
	post, err := s.store.GetPost(ctx, id)
	if notFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	if !policy.IsPostVisible(post, viewer, s.now()) {
		return nil, ErrNotFound
	}

	comments, err := s.store.ListComments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list comments of post %d: %w", id, err)
	}
	return &PostDetail{Post: post, Comments: comments}, nil
}

// PostPredicate decides whether a user may act on a post.
type PostPredicate func(user *models.User, post *models.Post) bool

// Lookup loads a post and checks allow for viewer. Store failures come back
// as the error; a missing post is NotFound, a refused one Forbidden.
func (s *PostService) Lookup(ctx context.Context, viewer *models.User, id uint, allow PostPredicate) (*models.Post, Outcome, error) {
	post, err := s.store.GetPost(ctx, id)
	if notFound(err) {
		return nil, NotFound, nil
	}
	if err != nil {
		return nil, NotFound, fmt.Errorf("get post %d: %w", id, err)
	}
	if !allow(viewer, post) {
		return post, Forbidden, nil
	}
	return post, Found, nil
}

func (s *PostService) ForEdit(ctx context.Context, viewer *models.User, id uint) (*models.Post, Outcome, error) {
	return s.Lookup(ctx, viewer, id, policy.CanEditPost)
}

func (s *PostService) ForDelete(ctx context.Context, viewer *models.User, id uint) (*models.Post, Outcome, error) {
	return s.Lookup(ctx, viewer, id, policy.CanDeletePost)
}

// Create stores a post authored by viewer. Validation failures come back as
// validation.Errors.
func (s *PostService) Create(ctx context.Context, viewer *models.User, in PostInput) (*models.Post, error) {
	if viewer == nil {
		return nil, ErrUnauthenticated
	}
	post := &models.Post{AuthorID: viewer.ID}
	if err := s.apply(ctx, post, in); err != nil {
		return nil, err
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	metrics.RecordWrite("post", "create")
	s.log.Info().Uint("post_id", post.ID).Str("author", viewer.Username).Msg("post created")
	s.reindex(ctx, post.ID)
	return post, nil
}

// Update edits a post when viewer is its author or staff. Authorship is kept.
func (s *PostService) Update(ctx context.Context, viewer *models.User, id uint, in PostInput) (*models.Post, Outcome, error) {
	post, outcome, err := s.ForEdit(ctx, viewer, id)
	if err != nil || outcome != Found {
		return post, outcome, err
	}
	if err := s.apply(ctx, post, in); err != nil {
		return post, Found, err
	}
	if err := s.store.UpdatePost(ctx, post, viewer.ID); err != nil {
		if notFound(err) {
			return nil, NotFound, nil
		}
		return post, Found, fmt.Errorf("update post %d: %w", id, err)
	}

	metrics.RecordWrite("post", "update")
	s.log.Info().Uint("post_id", id).Str("editor", viewer.Username).Msg("post updated")
	s.reindex(ctx, id)
	return post, Found, nil
}

// Delete removes a post and its comments when viewer is the author.
func (s *PostService) Delete(ctx context.Context, viewer *models.User, id uint) (Outcome, error) {
	_, outcome, err := s.ForDelete(ctx, viewer, id)
	if err != nil || outcome != Found {
		return outcome, err
	}
	if err := s.store.DeletePost(ctx, id, viewer.ID); err != nil {
		if notFound(err) {
			return NotFound, nil
		}
		return Found, fmt.Errorf("delete post %d: %w", id, err)
	}

	metrics.RecordWrite("post", "delete")
	s.log.Info().Uint("post_id", id).Str("author", viewer.Username).Msg("post deleted")
	if s.search != nil {
		if err := s.search.DeletePost(ctx, id); err != nil {
			metrics.SearchIndexErrors.Inc()
			s.log.Warn().Err(err).Uint("post_id", id).Msg("search index delete failed")
		}
	}
	return Found, nil
}

// Reindex pushes every stored post to the search index.
func (s *PostService) Reindex(ctx context.Context) (int, error) {
	if s.search == nil {
		return 0, nil
	}
	posts, err := s.store.ListPosts(ctx, repository.PostFilter{}, 0, 0)
	if err != nil {
		return 0, fmt.Errorf("list posts: %w", err)
	}
	for i := range posts {
		if err := s.search.IndexPost(ctx, &posts[i]); err != nil {
			return i, fmt.Errorf("index post %d: %w", posts[i].ID, err)
		}
	}
	return len(posts), nil
}

func (s *PostService) reindex(ctx context.Context, id uint) {
	if s.search == nil {
		return
	}
	post, err := s.store.GetPost(ctx, id)
	if err == nil {
		err = s.search.IndexPost(ctx, post)
	}
	if err != nil {
		metrics.SearchIndexErrors.Inc()
		s.log.Warn().Err(err).Uint("post_id", id).Msg("search index update failed")
	}
}

// apply validates in and copies it onto post.
func (s *PostService) apply(ctx context.Context, post *models.Post, in PostInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Text = strings.TrimSpace(in.Text)
	errs := validation.Struct(&in)

	pubDate, ok := parsePubDate(in.PubDate)
	if !ok && in.PubDate != "" {
		errs.Add("pub_date", "Enter a valid date/time.")
	}

	categoryID, msg, err := s.resolveCategory(ctx, in.Category)
	if err != nil {
		return err
	}
	if msg != "" {
		errs.Add("category", msg)
	}
	locationID, msg, err := s.resolveLocation(ctx, in.Location)
	if err != nil {
		return err
	}
	if msg != "" {
		errs.Add("location", msg)
	}
	if err := errs.Err(); err != nil {
		return err
	}

	post.Title = in.Title
	post.Text = in.Text
	post.PubDate = pubDate
	post.IsPublished = in.IsPublished
	post.CategoryID = categoryID
	post.LocationID = locationID
	switch {
	case in.Image != "":
		post.Image = in.Image
	case in.ClearImage:
		post.Image = ""
	}
	return nil
}

func parsePubDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	for _, layout := range PubDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseID(raw string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

const invalidChoice = "Select a valid choice."

// resolveCategory maps a form value to a category id. A non-empty message
// means the choice is invalid.
func (s *PostService) resolveCategory(ctx context.Context, raw string) (*uint, string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, "", nil
	}
	id, ok := parseID(raw)
	if !ok {
		return nil, invalidChoice, nil
	}
	if _, err := s.store.GetCategory(ctx, id); err != nil {
		if notFound(err) {
			return nil, invalidChoice, nil
		}
		return nil, "", fmt.Errorf("get category %d: %w", id, err)
	}
	return &id, "", nil
}

func (s *PostService) resolveLocation(ctx context.Context, raw string) (*uint, string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, "", nil
	}
	id, ok := parseID(raw)
	if !ok {
		return nil, invalidChoice, nil
	}
	if _, err := s.store.GetLocation(ctx, id); err != nil {
		if notFound(err) {
			return nil, invalidChoice, nil
		}
		return nil, "", fmt.Errorf("get location %d: %w", id, err)
	}
	return &id, "", nil
}
