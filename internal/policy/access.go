package policy

import "github.com/example/blogicum/internal/models"

// CanEditPost allows the author and staff.
func CanEditPost(user *models.User, post *models.Post) bool {
	if user == nil || post == nil {
		return false
	}
	return user.ID == post.AuthorID || user.IsStaff
}

// CanDeletePost allows the author only. Staff may edit but not delete other
// users' posts.
func CanDeletePost(user *models.User, post *models.Post) bool {
	if user == nil || post == nil {
		return false
	}
	return user.ID == post.AuthorID
}

// CanModifyComment covers both editing and deleting a comment.
func CanModifyComment(user *models.User, comment *models.Comment) bool {
	if user == nil || comment == nil {
		return false
	}
	return user.ID == comment.AuthorID
}

func CanEditProfile(user, profile *models.User) bool {
	return models.SameUser(user, profile)
}

func CanManageCatalog(user *models.User) bool {
	return user != nil && user.IsStaff
}
