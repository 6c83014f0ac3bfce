package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/blogicum/internal/models"
)

const commentCountColumn = "(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count"

type PostRepository struct{ db *gorm.DB }

func NewPostRepository(db *gorm.DB) *PostRepository { return &PostRepository{db: db} }

func (r *PostRepository) CreatePost(ctx context.Context, p *models.Post) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(p).Error; err != nil {
			return err
		}
		return logActivity(tx, models.ActionNewPost, p.ID, p.AuthorID)
	}))
}

// UpdatePost writes the editable fields. Author and creation time never change.
func (r *PostRepository) UpdatePost(ctx context.Context, p *models.Post, actorID uint) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
			"title":        p.Title,
			"text":         p.Text,
			"pub_date":     p.PubDate,
			"is_published": p.IsPublished,
			"image":        p.Image,
			"category_id":  p.CategoryID,
			"location_id":  p.LocationID,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return logActivity(tx, models.ActionUpdatePost, p.ID, actorID)
	}))
}

// DeletePost removes the post together with its comments.
func (r *PostRepository) DeletePost(ctx context.Context, id, actorID uint) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return logActivity(tx, models.ActionDeletePost, id, actorID)
	}))
}

func (r *PostRepository) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").Preload("Category").Preload("Location").
		First(&post, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (r *PostRepository) CountPosts(ctx context.Context, f PostFilter) (int64, error) {
	var n int64
	if err := r.filtered(ctx, f).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// ListPosts returns posts newest first with CommentCount filled. A
// non-positive limit returns everything from offset on.
func (r *PostRepository) ListPosts(ctx context.Context, f PostFilter, offset, limit int) ([]models.Post, error) {
	q := r.filtered(ctx, f).
		Select("posts.*, " + commentCountColumn).
		Preload("Author").Preload("Category").Preload("Location").
		Order("posts.pub_date DESC").Order("posts.id DESC").
		Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}

	var posts []models.Post
	if err := q.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *PostRepository) filtered(ctx context.Context, f PostFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Post{})
	if f.CategoryID != nil {
		q = q.Where("posts.category_id = ?", *f.CategoryID)
	}
	if f.AuthorID != nil {
		q = q.Where("posts.author_id = ?", *f.AuthorID)
	}
	if len(f.IDs) > 0 {
		q = q.Where("posts.id IN ?", f.IDs)
	}
	if f.VisibleAt != nil {
		q = q.Joins("LEFT JOIN categories ON categories.id = posts.category_id").
			Where("posts.is_published = ?", true).
			Where("(posts.category_id IS NULL OR categories.is_published = ?)", true).
			Where("posts.pub_date <= ?", *f.VisibleAt)
	}
	return q
}
