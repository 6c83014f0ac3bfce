// Package policy holds the rules deciding which posts a viewer may see and
// which entities a user may change. The functions are pure; callers pass the
// viewer (nil for anonymous) and the current time.
package policy

import (
	"time"

	"github.com/example/blogicum/internal/models"
)

// IsPostVisible reports whether viewer may see post at now. Authors always
// see their own posts. Everyone else needs a published post, a published
// category (or none) and a publication date that is not in the future.
// post.Category must be loaded when CategoryID is set.
func IsPostVisible(post *models.Post, viewer *models.User, now time.Time) bool {
	if post == nil {
		return false
	}
	if viewer != nil && viewer.ID != 0 && viewer.ID == post.AuthorID {
		return true
	}
	return IsPostPublic(post, now)
}

// IsPostPublic is IsPostVisible for an anonymous viewer.
func IsPostPublic(post *models.Post, now time.Time) bool {
	if !post.IsPublished {
		return false
	}
	if post.Category != nil && !IsCategoryVisible(post.Category) {
		return false
	}
	return !post.PubDate.After(now)
}

func IsCategoryVisible(category *models.Category) bool {
	return category != nil && category.IsPublished
}

// FilterVisible keeps the posts viewer may see, preserving order.
func FilterVisible(posts []models.Post, viewer *models.User, now time.Time) []models.Post {
	out := make([]models.Post, 0, len(posts))
	for i := range posts {
		if IsPostVisible(&posts[i], viewer, now) {
			out = append(out, posts[i])
		}
	}
	return out
}
