package repository

import (
	"context"

	"usof/internal/cache"
	"usof/internal/models"
	"usof/internal/query"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, opts query.Options) (query.Page[models.Post], error)
	Update(ctx context.Context, post *models.Post, categories []models.Category) error
	Delete(ctx context.Context, id uint) ([]Affected, error)
	Categories(ctx context.Context, postID uint) ([]models.Category, error)
	LockForReaction(ctx context.Context, id uint) (*models.Post, error)
	AdjustReactionCount(ctx context.Context, id uint, typ models.ReactionType, delta int64) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts the post and links it to its already existing categories.
func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Omit("Categories.*").Create(post).Error
	return translate(err, "Post", post.ID)
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		return r.db.WithContext(ctx).
			Preload("Categories").
			First(&post, id).Error
	})
	if err != nil {
		return nil, translate(err, "Post", id)
	}
	// The author lives under its own key, which rating recomputes invalidate.
	author, err := NewUserRepository(r.db).GetByID(ctx, post.UserID)
	if err != nil {
		return nil, err
	}
	post.Author = author
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, opts query.Options) (query.Page[models.Post], error) {
	return query.Paginate[models.Post](ctx, r.db, query.PostSpec, opts)
}

// Update writes the editable columns and, when categories is non-nil,
// replaces the post's category links.
func (r *postRepository) Update(ctx context.Context, post *models.Post, categories []models.Category) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(post).
			Select("Title", "Content", "Status", "Images", "UpdatedAt").
			Updates(post).Error; err != nil {
			return err
		}
		if categories == nil {
			return nil
		}
		if err := tx.Model(post).Omit("Categories.*").Association("Categories").Replace(categories); err != nil {
			return err
		}
		post.Categories = categories
		return nil
	})
	if err != nil {
		return translate(err, "Post", post.ID)
	}
	cache.InvalidatePost(ctx, post.ID)
	return nil
}

// Delete removes the post with its reactions, favorites, category links and
// comments. It returns the users whose ratings changed.
func (r *postRepository) Delete(ctx context.Context, id uint) ([]Affected, error) {
	var affected affectedSet
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := lockRow(tx).Select("id", "user_id").First(&post, id).Error; err != nil {
			return err
		}
		got, err := deletePost(tx, &post)
		if err != nil {
			return err
		}
		affected.merge(got)
		return nil
	})
	if err != nil {
		return nil, translate(err, "Post", id)
	}
	cache.InvalidatePost(ctx, id)
	return affected.items, nil
}

// deletePost cascades a post delete inside tx. Child rows go first so that
// no foreign key is ever left dangling.
func deletePost(tx *gorm.DB, post *models.Post) ([]Affected, error) {
	var affected affectedSet
	affected.add(post.UserID, models.EntityPost)

	var comments []models.Comment
	if err := tx.Model(&models.Comment{}).
		Select("id", "user_id", "post_id", "parent_comment_id").
		Where("post_id = ?", post.ID).
		Find(&comments).Error; err != nil {
		return nil, err
	}
	if err := removeComments(tx, comments, false); err != nil {
		return nil, err
	}
	for _, c := range comments {
		affected.add(c.UserID, models.EntityComment)
	}

	if err := tx.Where("entity_type = ? AND target_id = ?", models.EntityPost, post.ID).
		Delete(&models.Like{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("post_id = ?", post.ID).Delete(&models.Favorite{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(post).Association("Categories").Clear(); err != nil {
		return nil, err
	}
	if err := tx.Delete(&models.Post{}, post.ID).Error; err != nil {
		return nil, err
	}
	return affected.items, nil
}

func (r *postRepository) Categories(ctx context.Context, postID uint) ([]models.Category, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Select("id").First(&post, postID).Error; err != nil {
		return nil, translate(err, "Post", postID)
	}
	categories := make([]models.Category, 0)
	if err := r.db.WithContext(ctx).Model(&post).Order("categories.id").Association("Categories").Find(&categories); err != nil {
		return nil, models.NewInternalError(err)
	}
	return categories, nil
}

// LockForReaction loads the post for a vote, locking the row where the
// dialect allows it.
func (r *postRepository) LockForReaction(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := lockRow(r.db.WithContext(ctx)).First(&post, id).Error; err != nil {
		return nil, translate(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) AdjustReactionCount(ctx context.Context, id uint, typ models.ReactionType, delta int64) error {
	return adjustCounter(r.db.WithContext(ctx).Model(&models.Post{}), "Post", id, counterColumn(typ), delta)
}
