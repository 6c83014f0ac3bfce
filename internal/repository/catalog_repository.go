package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/blogicum/internal/models"
)

// CatalogRepository stores categories and locations.
type CatalogRepository struct{ db *gorm.DB }

func NewCatalogRepository(db *gorm.DB) *CatalogRepository { return &CatalogRepository{db: db} }

func (r *CatalogRepository) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *CatalogRepository) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *CatalogRepository) ListCategories(ctx context.Context, onlyPublished bool) ([]models.Category, error) {
	q := r.db.WithContext(ctx).Order("title ASC")
	if onlyPublished {
		q = q.Where("is_published = ?", true)
	}
	var out []models.Category
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CatalogRepository) CreateCategory(ctx context.Context, c *models.Category) error {
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

func (r *CatalogRepository) SetCategoryPublished(ctx context.Context, id uint, published bool) error {
	res := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Update("is_published", published)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory detaches the category's posts before removing it.
func (r *CatalogRepository) DeleteCategory(ctx context.Context, id uint) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	}))
}

func (r *CatalogRepository) GetLocation(ctx context.Context, id uint) (*models.Location, error) {
	var l models.Location
	if err := r.db.WithContext(ctx).First(&l, id).Error; err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (r *CatalogRepository) ListLocations(ctx context.Context, onlyPublished bool) ([]models.Location, error) {
	q := r.db.WithContext(ctx).Order("name ASC")
	if onlyPublished {
		q = q.Where("is_published = ?", true)
	}
	var out []models.Location
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CatalogRepository) CreateLocation(ctx context.Context, l *models.Location) error {
	return translate(r.db.WithContext(ctx).Create(l).Error)
}

func (r *CatalogRepository) SetLocationPublished(ctx context.Context, id uint, published bool) error {
	res := r.db.WithContext(ctx).Model(&models.Location{}).Where("id = ?", id).Update("is_published", published)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CatalogRepository) DeleteLocation(ctx context.Context, id uint) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).Where("location_id = ?", id).Update("location_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Location{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	}))
}
