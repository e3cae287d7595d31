package service

import (
	"context"
	"strings"

	"usof/internal/models"
	"usof/internal/policy"
	"usof/internal/query"
	"usof/internal/repository"
)

type CategoryService struct {
	categoryRepo repository.CategoryRepository
	postRepo     repository.PostRepository
}

type CategoryInput struct {
	Actor       policy.Actor
	Title       *string
	Description *string
}

func NewCategoryService(categoryRepo repository.CategoryRepository, postRepo repository.PostRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo, postRepo: postRepo}
}

const maxCategoryTitleLen = 100

func categoryTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", models.NewValidationError("Title is required")
	}
	if len(title) > maxCategoryTitleLen {
		return "", models.NewValidationError("Title too long (max 100 characters)")
	}
	return title, nil
}

func (s *CategoryService) ListCategories(ctx context.Context, opts query.Options) (query.Page[models.Category], error) {
	return s.categoryRepo.List(ctx, opts)
}

func (s *CategoryService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	return s.categoryRepo.GetByID(ctx, id)
}

// ListPosts lists the posts filed under the category, with the same
// visibility rules as the main post listing.
func (s *CategoryService) ListPosts(ctx context.Context, actor policy.Actor, id uint, opts query.Options) (query.Page[models.Post], error) {
	if _, err := s.categoryRepo.GetByID(ctx, id); err != nil {
		return query.Page[models.Post]{}, err
	}
	opts.Filters.CategoryID = id
	if err := restrictStatus(actor, &opts.Filters, string(models.PostActive)); err != nil {
		return query.Page[models.Post]{}, err
	}
	return s.postRepo.List(ctx, opts)
}

func (s *CategoryService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if !policy.IsAdmin(in.Actor) {
		return nil, deny(in.Actor, "Only admins can manage categories")
	}
	if in.Title == nil {
		return nil, models.NewValidationError("Title is required")
	}
	title, err := categoryTitle(*in.Title)
	if err != nil {
		return nil, err
	}
	category := &models.Category{Title: title}
	if in.Description != nil {
		category.Description = *in.Description
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id uint, in CategoryInput) (*models.Category, error) {
	if !policy.IsAdmin(in.Actor) {
		return nil, deny(in.Actor, "Only admins can manage categories")
	}
	if in.Title == nil && in.Description == nil {
		return nil, models.NewValidationError("Nothing to update")
	}
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		if category.Title, err = categoryTitle(*in.Title); err != nil {
			return nil, err
		}
	}
	if in.Description != nil {
		category.Description = *in.Description
	}
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) DeleteCategory(ctx context.Context, actor policy.Actor, id uint) error {
	if !policy.IsAdmin(actor) {
		return deny(actor, "Only admins can manage categories")
	}
	return s.categoryRepo.Delete(ctx, id)
}
