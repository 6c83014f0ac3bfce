package service

import (
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/blogicum/internal/models"
	"github.com/example/blogicum/internal/repository"
	"github.com/example/blogicum/internal/validation"
)

func TestListHomeShowsOnlyVisiblePosts(t *testing.T) {
	f := newFixture(t)
	f.post(t, "older", true, f.travel, testNow.Add(-2*time.Hour))
	f.post(t, "newer", true, nil, testNow.Add(-time.Hour))
	f.post(t, "boundary", true, f.travel, testNow)
	f.post(t, "scheduled", true, f.travel, testNow.Add(time.Minute))
	f.post(t, "draft", false, f.travel, testNow.Add(-time.Hour))
	f.post(t, "in hidden category", true, f.hidden, testNow.Add(-time.Hour))

	page, err := f.svc.Posts.ListHome(f.ctx, "")

	require.NoError(t, err)
	assert.Equal(t, []string{"boundary", "newer", "older"}, titles(page.Posts))
	assert.Equal(t, int64(3), page.Page.Total)
	assert.Equal(t, 1, page.Page.NumPages)
}

func TestListHomePagination(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 25; i++ {
		f.post(t, fmt.Sprintf("post %02d", i), true, nil, testNow.Add(-time.Duration(i)*time.Minute))
	}

	tests := []struct {
		requested string
		number    int
		count     int
		first     string
	}{
		{"", 1, 10, "post 00"},
		{"2", 2, 10, "post 10"},
		{"3", 3, 5, "post 20"},
		{"99", 3, 5, "post 20"},
		{"abc", 1, 10, "post 00"},
		{"0", 1, 10, "post 00"},
		{"-4", 1, 10, "post 00"},
	}
	for _, tt := range tests {
		t.Run(tt.requested, func(t *testing.T) {
			page, err := f.svc.Posts.ListHome(f.ctx, tt.requested)
			require.NoError(t, err)
			assert.Equal(t, tt.number, page.Page.Number)
			assert.Equal(t, 3, page.Page.NumPages)
			require.Len(t, page.Posts, tt.count)
			assert.Equal(t, tt.first, page.Posts[0].Title)
		})
	}
}

func TestListHomeEmpty(t *testing.T) {
	f := newFixture(t)

	page, err := f.svc.Posts.ListHome(f.ctx, "5")

	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.Equal(t, 1, page.Page.Number)
	assert.Equal(t, 1, page.Page.NumPages)
}

func TestListCategory(t *testing.T) {
	f := newFixture(t)
	f.post(t, "in travel", true, f.travel, testNow.Add(-time.Hour))
	f.post(t, "travel draft", false, f.travel, testNow.Add(-time.Hour))
	f.post(t, "elsewhere", true, nil, testNow.Add(-time.Hour))

	category, page, err := f.svc.Posts.ListCategory(f.ctx, "travel", "")
	require.NoError(t, err)
	assert.Equal(t, f.travel.ID, category.ID)
	assert.Equal(t, []string{"in travel"}, titles(page.Posts))

	_, _, err = f.svc.Posts.ListCategory(f.ctx, "hidden", "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = f.svc.Posts.ListCategory(f.ctx, "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListProfileOwnerSeesEverything(t *testing.T) {
	f := newFixture(t)
	f.post(t, "public", true, f.travel, testNow.Add(-time.Hour))
	f.post(t, "draft", false, f.travel, testNow.Add(-time.Hour))
	f.post(t, "scheduled", true, nil, testNow.Add(time.Hour))
	f.post(t, "in hidden category", true, f.hidden, testNow.Add(-2*time.Hour))

	_, own, err := f.svc.Posts.ListProfile(f.ctx, f.author, "author", "")
	require.NoError(t, err)
	assert.Len(t, own.Posts, 4)
	assert.Equal(t, "scheduled", own.Posts[0].Title)

	for _, viewer := range []*models.User{nil, f.reader, f.staff} {
		_, other, err := f.svc.Posts.ListProfile(f.ctx, viewer, "author", "")
		require.NoError(t, err)
		assert.Equal(t, []string{"public"}, titles(other.Posts))
	}

	_, _, err = f.svc.Posts.ListProfile(f.ctx, nil, "nobody", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDetailVisibility(t *testing.T) {
	f := newFixture(t)
	draft := f.post(t, "draft", false, f.travel, testNow.Add(-time.Hour))
	public := f.post(t, "public", true, f.travel, testNow.Add(-time.Hour))

	_, err := f.svc.Posts.Detail(f.ctx, nil, draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Posts.Detail(f.ctx, f.staff, draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Posts.Detail(f.ctx, f.reader, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	own, err := f.svc.Posts.Detail(f.ctx, f.author, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "draft", own.Post.Title)

	for _, text := range []string{"first", "second"} {
		_, err := f.svc.Comments.Create(f.ctx, f.reader, public.ID, CommentInput{Text: text})
		require.NoError(t, err)
	}
	detail, err := f.svc.Posts.Detail(f.ctx, nil, public.ID)
	require.NoError(t, err)
	require.Len(t, detail.Comments, 2)
	assert.Equal(t, "first", detail.Comments[0].Text)
	assert.Equal(t, "author", detail.Post.Author.Username)
	assert.Equal(t, "Travel", detail.Post.Category.Title)
}

func validInput() PostInput {
	return PostInput{
		Title:       "Trip",
		Text:        "We went north.",
		PubDate:     "2024-04-30T10:00",
		IsPublished: true,
	}
}

func TestInputFromPostRoundTripsPubDateInUTC(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)
	stored := time.Date(2024, 4, 30, 13, 0, 0, 0, msk)

	in := InputFromPost(&models.Post{Title: "t", Text: "x", PubDate: stored})

	assert.Equal(t, "2024-04-30T10:00", in.PubDate)
	parsed, ok := parsePubDate(in.PubDate)
	require.True(t, ok)
	assert.True(t, parsed.Equal(stored), "got %s", parsed)
}

func TestCreatePost(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.Category = strconv.FormatUint(uint64(f.travel.ID), 10)
	in.Location = strconv.FormatUint(uint64(f.moscow.ID), 10)
	in.Image = "posts_images/abc.png"

	post, err := f.svc.Posts.Create(f.ctx, f.author, in)

	require.NoError(t, err)
	assert.Equal(t, f.author.ID, post.AuthorID)
	assert.Equal(t, time.Date(2024, 4, 30, 10, 0, 0, 0, time.UTC), post.PubDate)
	require.NotNil(t, post.CategoryID)
	assert.Equal(t, f.travel.ID, *post.CategoryID)
	require.NotNil(t, post.LocationID)
	assert.Equal(t, "posts_images/abc.png", post.Image)
	assert.Equal(t, "Trip", f.search.indexed[post.ID])

	page, err := f.svc.Posts.ListHome(f.ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Trip"}, titles(page.Posts))
}

func TestCreatePostScheduledStaysHidden(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.PubDate = "2024-05-02 09:00"

	post, err := f.svc.Posts.Create(f.ctx, f.author, in)
	require.NoError(t, err)

	home, err := f.svc.Posts.ListHome(f.ctx, "")
	require.NoError(t, err)
	assert.Empty(t, home.Posts)

	_, err = f.svc.Posts.Detail(f.ctx, f.reader, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Posts.Detail(f.ctx, f.author, post.ID)
	assert.NoError(t, err)
}

func TestCreatePostValidation(t *testing.T) {
	f := newFixture(t)
	in := PostInput{
		Title:    "",
		Text:     "  ",
		PubDate:  "yesterday",
		Category: "999",
		Location: "x",
	}

	_, err := f.svc.Posts.Create(f.ctx, f.author, in)

	errs, ok := validation.As(err)
	require.True(t, ok, "expected validation errors, got %v", err)
	assert.Contains(t, errs, "title")
	assert.Contains(t, errs, "text")
	assert.Equal(t, "Enter a valid date/time.", errs["pub_date"])
	assert.Equal(t, "Select a valid choice.", errs["category"])
	assert.Equal(t, "Select a valid choice.", errs["location"])

	n, err := f.store.CountPosts(f.ctx, repository.PostFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreatePostRequiresUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Posts.Create(f.ctx, nil, validInput())

	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCreatePostSurvivesIndexFailure(t *testing.T) {
	f := newFixture(t)
	f.search.fail = errIndexDown

	post, err := f.svc.Posts.Create(f.ctx, f.author, validInput())

	require.NoError(t, err)
	_, err = f.store.GetPost(f.ctx, post.ID)
	assert.NoError(t, err)
}

func TestUpdatePostAccess(t *testing.T) {
	f := newFixture(t)
	post := f.post(t, "original", true, nil, testNow.Add(-time.Hour))
	in := validInput()
	in.Title = "changed"

	_, outcome, err := f.svc.Posts.Update(f.ctx, f.reader, post.ID, in)
	require.NoError(t, err)
	assert.Equal(t, Forbidden, outcome)
	stored, _ := f.store.GetPost(f.ctx, post.ID)
	assert.Equal(t, "original", stored.Title)

	_, outcome, err = f.svc.Posts.Update(f.ctx, nil, post.ID, in)
	require.NoError(t, err)
	assert.Equal(t, Forbidden, outcome)

	_, outcome, err = f.svc.Posts.Update(f.ctx, f.reader, 9999, in)
	require.NoError(t, err)
	assert.Equal(t, NotFound, outcome)

	updated, outcome, err := f.svc.Posts.Update(f.ctx, f.staff, post.ID, in)
	require.NoError(t, err)
	assert.Equal(t, Found, outcome)
	assert.Equal(t, "changed", updated.Title)
	assert.Equal(t, f.author.ID, updated.AuthorID)

	stored, _ = f.store.GetPost(f.ctx, post.ID)
	assert.Equal(t, "changed", stored.Title)
	assert.Equal(t, "author", stored.Author.Username)
}

func TestUpdatePostKeepsImageUnlessCleared(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.Image = "posts_images/a.png"
	post, err := f.svc.Posts.Create(f.ctx, f.author, in)
	require.NoError(t, err)

	in.Image = ""
	updated, _, err := f.svc.Posts.Update(f.ctx, f.author, post.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "posts_images/a.png", updated.Image)

	in.ClearImage = true
	updated, _, err = f.svc.Posts.Update(f.ctx, f.author, post.ID, in)
	require.NoError(t, err)
	assert.Empty(t, updated.Image)
}

func TestUpdatePostInvalidKeepsStoredValues(t *testing.T) {
	f := newFixture(t)
	post := f.post(t, "original", true, nil, testNow.Add(-time.Hour))
	in := validInput()
	in.Title = ""

	_, outcome, err := f.svc.Posts.Update(f.ctx, f.author, post.ID, in)

	assert.Equal(t, Found, outcome)
	_, ok := validation.As(err)
	assert.True(t, ok)
	stored, _ := f.store.GetPost(f.ctx, post.ID)
	assert.Equal(t, "original", stored.Title)
}

func TestDeletePostAuthorOnly(t *testing.T) {
	f := newFixture(t)
	post := f.post(t, "doomed", true, nil, testNow.Add(-time.Hour))
	comment, err := f.svc.Comments.Create(f.ctx, f.reader, post.ID, CommentInput{Text: "hi"})
	require.NoError(t, err)

	for _, viewer := range []*models.User{nil, f.reader, f.staff} {
		outcome, err := f.svc.Posts.Delete(f.ctx, viewer, post.ID)
		require.NoError(t, err)
		assert.Equal(t, Forbidden, outcome)
	}

	outcome, err := f.svc.Posts.Delete(f.ctx, f.author, post.ID)
	require.NoError(t, err)
	assert.Equal(t, Found, outcome)
	assert.Equal(t, []uint{post.ID}, f.search.deleted)

	_, err = f.store.GetComment(f.ctx, comment.ID)
	assert.Error(t, err)

	outcome, err = f.svc.Posts.Delete(f.ctx, f.author, post.ID)
	require.NoError(t, err)
	assert.Equal(t, NotFound, outcome)
}

func TestSearchFiltersInvisibleHits(t *testing.T) {
	f := newFixture(t)
	public := f.post(t, "public", true, nil, testNow.Add(-time.Hour))
	draft := f.post(t, "draft", false, nil, testNow.Add(-time.Hour))
	f.search.hits = []uint{draft.ID, public.ID, 9999}

	page, err := f.svc.Posts.Search(f.ctx, "trip", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"public"}, titles(page.Posts))

	page, err = f.svc.Posts.Search(f.ctx, "   ", "")
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.Equal(t, 1, page.Page.NumPages)

	f.search.fail = errIndexDown
	_, err = f.svc.Posts.Search(f.ctx, "trip", "")
	assert.ErrorIs(t, err, errIndexDown)
}

func TestSearchDisabled(t *testing.T) {
	f := newFixture(t)
	svc := New(Options{Store: f.store, Logger: zerolog.Nop()})
	f.post(t, "public", true, nil, testNow.Add(-time.Hour))

	page, err := svc.Posts.Search(f.ctx, "public", "")
	require.NoError(t, err)
	assert.Empty(t, page.Posts)

	n, err := svc.Posts.Reindex(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReindex(t *testing.T) {
	f := newFixture(t)
	f.post(t, "one", true, nil, testNow)
	f.post(t, "two", false, nil, testNow)

	n, err := f.svc.Posts.Reindex(f.ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, f.search.indexed, 2)
}
