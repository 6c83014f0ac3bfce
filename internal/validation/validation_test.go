package validation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title string `form:"title" validate:"required,max=5"`
	Slug  string `form:"slug" validate:"required,slug"`
	Email string `form:"email" validate:"omitempty,email"`
	Login string `validate:"omitempty,username"`
}

func TestStructReportsFormNames(t *testing.T) {
	errs := Struct(&sample{Title: "too long", Slug: "bad slug", Email: "nope", Login: "a b"})

	assert.Equal(t, "Ensure this value has at most 5 characters.", errs["title"])
	assert.Contains(t, errs, "slug")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "Login")
	assert.Error(t, errs.Err())
}

func TestStructValid(t *testing.T) {
	errs := Struct(&sample{Title: "ok", Slug: "travel_2024"})

	assert.Empty(t, errs)
	assert.NoError(t, errs.Err())
}

func TestAsUnwraps(t *testing.T) {
	errs := Errors{}
	errs.Add("title", "first")
	errs.Add("title", "second")

	got, ok := As(fmt.Errorf("create post: %w", errs))

	require.True(t, ok)
	assert.Equal(t, "first", got["title"])
	assert.Equal(t, "title: first", got.Error())
}
