package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/example/blogicum/internal/metrics"
	"github.com/example/blogicum/internal/models"
	"github.com/example/blogicum/internal/policy"
	"github.com/example/blogicum/internal/repository"
	"github.com/example/blogicum/internal/validation"
)

type CategoryInput struct {
	Title       string `form:"title" validate:"required,max=256"`
	Description string `form:"description" validate:"required"`
	Slug        string `form:"slug" validate:"required,max=64,slug"`
	IsPublished bool   `form:"is_published"`
}

type LocationInput struct {
	Name        string `form:"name" validate:"required,max=256"`
	IsPublished bool   `form:"is_published"`
}

type CatalogService struct {
	store Store
	log   zerolog.Logger
}

// Choices returns the published categories and locations offered on the post form.
func (s *CatalogService) Choices(ctx context.Context) ([]models.Category, []models.Location, error) {
	categories, err := s.store.ListCategories(ctx, true)
	if err != nil {
		return nil, nil, fmt.Errorf("list categories: %w", err)
	}
	locations, err := s.store.ListLocations(ctx, true)
	if err != nil {
		return nil, nil, fmt.Errorf("list locations: %w", err)
	}
	return categories, locations, nil
}

func (s *CatalogService) Categories(ctx context.Context, viewer *models.User) ([]models.Category, error) {
	if !policy.CanManageCatalog(viewer) {
		return nil, ErrForbidden
	}
	categories, err := s.store.ListCategories(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, viewer *models.User, in CategoryInput) (*models.Category, error) {
	if !policy.CanManageCatalog(viewer) {
		return nil, ErrForbidden
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Slug = strings.TrimSpace(in.Slug)
	if err := validation.Struct(&in).Err(); err != nil {
		return nil, err
	}

	category := &models.Category{Title: in.Title, Description: in.Description, Slug: in.Slug, IsPublished: in.IsPublished}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, validation.Errors{"slug": "A category with this slug already exists."}
		}
		return nil, fmt.Errorf("create category: %w", err)
	}

	metrics.RecordWrite("category", "create")
	s.log.Info().Uint("category_id", category.ID).Str("slug", category.Slug).Msg("category created")
	return category, nil
}

// SetCategoryPublished hides or shows a category and thereby its posts.
func (s *CatalogService) SetCategoryPublished(ctx context.Context, viewer *models.User, id uint, published bool) error {
	if !policy.CanManageCatalog(viewer) {
		return ErrForbidden
	}
	if err := s.store.SetCategoryPublished(ctx, id, published); err != nil {
		if notFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("publish category %d: %w", id, err)
	}
	metrics.RecordWrite("category", "update")
	s.log.Info().Uint("category_id", id).Bool("published", published).Msg("category visibility changed")
	return nil
}

// DeleteCategory removes a category; its posts stay, without a category.
func (s *CatalogService) DeleteCategory(ctx context.Context, viewer *models.User, id uint) error {
	if !policy.CanManageCatalog(viewer) {
		return ErrForbidden
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		if notFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	metrics.RecordWrite("category", "delete")
	s.log.Info().Uint("category_id", id).Msg("category deleted")
	return nil
}

func (s *CatalogService) Locations(ctx context.Context, viewer *models.User) ([]models.Location, error) {
	if !policy.CanManageCatalog(viewer) {
		return nil, ErrForbidden
	}
	locations, err := s.store.ListLocations(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}

func (s *CatalogService) CreateLocation(ctx context.Context, viewer *models.User, in LocationInput) (*models.Location, error) {
	if !policy.CanManageCatalog(viewer) {
		return nil, ErrForbidden
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(&in).Err(); err != nil {
		return nil, err
	}

	location := &models.Location{Name: in.Name, IsPublished: in.IsPublished}
	if err := s.store.CreateLocation(ctx, location); err != nil {
		return nil, fmt.Errorf("create location: %w", err)
	}

	metrics.RecordWrite("location", "create")
	s.log.Info().Uint("location_id", location.ID).Str("name", location.Name).Msg("location created")
	return location, nil
}

func (s *CatalogService) SetLocationPublished(ctx context.Context, viewer *models.User, id uint, published bool) error {
	if !policy.CanManageCatalog(viewer) {
		return ErrForbidden
	}
	if err := s.store.SetLocationPublished(ctx, id, published); err != nil {
		if notFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("publish location %d: %w", id, err)
	}
	metrics.RecordWrite("location", "update")
	s.log.Info().Uint("location_id", id).Bool("published", published).Msg("location visibility changed")
	return nil
}

func (s *CatalogService) DeleteLocation(ctx context.Context, viewer *models.User, id uint) error {
	if !policy.CanManageCatalog(viewer) {
		return ErrForbidden
	}
	if err := s.store.DeleteLocation(ctx, id); err != nil {
		if notFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete location %d: %w", id, err)
	}
	metrics.RecordWrite("location", "delete")
	s.log.Info().Uint("location_id", id).Msg("location deleted")
	return nil
}
