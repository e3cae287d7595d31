package repository

import (
	"context"

	"usof/internal/cache"
	"usof/internal/models"
	"usof/internal/query"

	"gorm.io/gorm"
)

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Category, error)
	List(ctx context.Context, opts query.Options) (query.Page[models.Category], error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uint) error
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository returns a new CategoryRepository implementation.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	return translate(r.db.WithContext(ctx).Create(category).Error, "Category", category.Title)
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	err := cache.Aside(ctx, cache.CategoryKey(id), &category, cache.CategoryTTL, func() error {
		return r.db.WithContext(ctx).First(&category, id).Error
	})
	if err != nil {
		return nil, translate(err, "Category", id)
	}
	return &category, nil
}

// GetByIDs loads every listed category and fails with NOT_FOUND naming the
// first missing id.
func (r *categoryRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Category, error) {
	categories := make([]models.Category, 0, len(ids))
	if len(ids) == 0 {
		return categories, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&categories).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	found := make(map[uint]struct{}, len(categories))
	for _, c := range categories {
		found[c.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return nil, models.NewNotFoundError("Category", id)
		}
	}
	return categories, nil
}

func (r *categoryRepository) List(ctx context.Context, opts query.Options) (query.Page[models.Category], error) {
	return query.Paginate[models.Category](ctx, r.db, query.CategorySpec, opts)
}

func (r *categoryRepository) Update(ctx context.Context, category *models.Category) error {
	err := r.db.WithContext(ctx).Model(category).
		Select("Title", "Description", "UpdatedAt").
		Updates(category).Error
	if err != nil {
		return translate(err, "Category", category.Title)
	}
	cache.InvalidateCategory(ctx, category.ID)
	return nil
}

// Delete removes the category and unlinks it from its posts. The posts
// themselves stay.
func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec("DELETE FROM post_categories WHERE category_id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		res = tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return translate(err, "Category", id)
	}
	cache.InvalidateCategory(ctx, id)
	return nil
}
