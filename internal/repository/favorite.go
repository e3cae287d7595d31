package repository

import (
	"context"

	"usof/internal/models"
	"usof/internal/query"

	"gorm.io/gorm"
)

// FavoriteRepository defines persistence operations for bookmarked posts.
type FavoriteRepository interface {
	Create(ctx context.Context, favorite *models.Favorite) error
	Get(ctx context.Context, userID, postID uint) (*models.Favorite, error)
	Delete(ctx context.Context, userID, postID uint) error
	ListPosts(ctx context.Context, userID uint, opts query.Options) (query.Page[models.Post], error)
}

type favoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository returns a new FavoriteRepository implementation.
func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Create(ctx context.Context, favorite *models.Favorite) error {
	if err := r.db.WithContext(ctx).Create(favorite).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("post is already in favorites")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *favoriteRepository) Get(ctx context.Context, userID, postID uint) (*models.Favorite, error) {
	var favorite models.Favorite
	err := r.db.WithContext(ctx).
		Preload("Post").
		Preload("Post.Author").
		Preload("Post.Categories").
		Where("user_id = ? AND post_id = ?", userID, postID).
		First(&favorite).Error
	if err != nil {
		return nil, translate(err, "Favorite", postID)
	}
	return &favorite, nil
}

func (r *favoriteRepository) Delete(ctx context.Context, userID, postID uint) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Favorite{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Favorite", postID)
	}
	return nil
}

// ListPosts pages through the posts the user has favorited.
func (r *favoriteRepository) ListPosts(ctx context.Context, userID uint, opts query.Options) (query.Page[models.Post], error) {
	base := r.db.Where("posts.id IN (SELECT post_id FROM favorites WHERE user_id = ?)", userID)
	return query.Paginate[models.Post](ctx, base, query.FavoriteSpec, opts)
}
