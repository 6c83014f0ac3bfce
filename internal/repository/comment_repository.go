package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/blogicum/internal/models"
)

type CommentRepository struct{ db *gorm.DB }

func NewCommentRepository(db *gorm.DB) *CommentRepository { return &CommentRepository{db: db} }

func (r *CommentRepository) CreateComment(ctx context.Context, c *models.Comment) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(c).Error; err != nil {
			return err
		}
		return logActivity(tx, models.ActionNewComment, c.PostID, c.AuthorID)
	}))
}

func (r *CommentRepository) UpdateComment(ctx context.Context, c *models.Comment) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Comment{}).Where("id = ?", c.ID).Update("text", c.Text)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return logActivity(tx, models.ActionUpdateComment, c.PostID, c.AuthorID)
	}))
}

func (r *CommentRepository) DeleteComment(ctx context.Context, c *models.Comment) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Comment{}, c.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return logActivity(tx, models.ActionDeleteComment, c.PostID, c.AuthorID)
	}))
}

func (r *CommentRepository) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	var c models.Comment
	if err := r.db.WithContext(ctx).Preload("Author").First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// ListComments returns the comments of a post oldest first.
func (r *CommentRepository) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC").Order("id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}
