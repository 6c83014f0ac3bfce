package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/blogicum/internal/validation"
)

func TestCatalogRequiresStaff(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Catalog.Categories(f.ctx, f.author)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Catalog.CreateCategory(f.ctx, nil, CategoryInput{Title: "t", Description: "d", Slug: "s"})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, f.svc.Catalog.DeleteCategory(f.ctx, f.reader, f.travel.ID), ErrForbidden)
	assert.ErrorIs(t, f.svc.Catalog.SetLocationPublished(f.ctx, f.reader, f.moscow.ID, false), ErrForbidden)

	categories, err := f.svc.Catalog.Categories(f.ctx, f.staff)
	require.NoError(t, err)
	assert.Len(t, categories, 2)
}

func TestCreateCategory(t *testing.T) {
	f := newFixture(t)

	category, err := f.svc.Catalog.CreateCategory(f.ctx, f.staff, CategoryInput{
		Title: "Food", Description: "Eating out", Slug: "food", IsPublished: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "food", category.Slug)

	_, err = f.svc.Catalog.CreateCategory(f.ctx, f.staff, CategoryInput{Title: "Again", Description: "d", Slug: "food"})
	errs, ok := validation.As(err)
	require.True(t, ok)
	assert.Contains(t, errs, "slug")

	_, err = f.svc.Catalog.CreateCategory(f.ctx, f.staff, CategoryInput{Title: "Bad", Description: "d", Slug: "no spaces"})
	errs, ok = validation.As(err)
	require.True(t, ok)
	assert.Equal(t, "Use only latin letters, digits, hyphens and underscores.", errs["slug"])
}

func TestUnpublishingCategoryHidesPosts(t *testing.T) {
	f := newFixture(t)
	post := f.post(t, "in travel", true, f.travel, testNow.Add(-time.Hour))

	require.NoError(t, f.svc.Catalog.SetCategoryPublished(f.ctx, f.staff, f.travel.ID, false))

	home, err := f.svc.Posts.ListHome(f.ctx, "")
	require.NoError(t, err)
	assert.Empty(t, home.Posts)
	_, _, err = f.svc.Posts.ListCategory(f.ctx, "travel", "")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Posts.Detail(f.ctx, f.reader, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, f.svc.Catalog.SetCategoryPublished(f.ctx, f.staff, 9999, true), ErrNotFound)
}

func TestDeleteCategoryKeepsPosts(t *testing.T) {
	f := newFixture(t)
	post := f.post(t, "orphan", true, f.hidden, testNow.Add(-time.Hour))

	require.NoError(t, f.svc.Catalog.DeleteCategory(f.ctx, f.staff, f.hidden.ID))

	detail, err := f.svc.Posts.Detail(f.ctx, f.reader, post.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.Post.CategoryID)

	assert.ErrorIs(t, f.svc.Catalog.DeleteCategory(f.ctx, f.staff, f.hidden.ID), ErrNotFound)
}

func TestLocations(t *testing.T) {
	f := newFixture(t)

	loc, err := f.svc.Catalog.CreateLocation(f.ctx, f.staff, LocationInput{Name: "Kazan"})
	require.NoError(t, err)

	categories, locations, err := f.svc.Catalog.Choices(f.ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
	require.Len(t, locations, 1)
	assert.Equal(t, "Moscow", locations[0].Name)

	require.NoError(t, f.svc.Catalog.SetLocationPublished(f.ctx, f.staff, loc.ID, true))
	_, locations, err = f.svc.Catalog.Choices(f.ctx)
	require.NoError(t, err)
	assert.Len(t, locations, 2)

	require.NoError(t, f.svc.Catalog.DeleteLocation(f.ctx, f.staff, loc.ID))
	all, err := f.svc.Catalog.Locations(f.ctx, f.staff)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = f.svc.Catalog.CreateLocation(f.ctx, f.staff, LocationInput{Name: " "})
	_, ok := validation.As(err)
	assert.True(t, ok)
}
