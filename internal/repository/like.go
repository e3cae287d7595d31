package repository

import (
	"context"
	"errors"

	"usof/internal/models"
	"usof/internal/query"

	"gorm.io/gorm"
)

// LikeRepository stores reactions. Counter maintenance belongs to the vote
// coordinator; these methods only touch the likes table.
type LikeRepository interface {
	Find(ctx context.Context, userID uint, kind models.EntityType, targetID uint) (*models.Like, error)
	Create(ctx context.Context, like *models.Like) error
	Delete(ctx context.Context, id uint) error
	ListByTarget(ctx context.Context, kind models.EntityType, targetID uint, typ models.ReactionType, opts query.Options) (query.Page[models.Like], error)
	CountByTarget(ctx context.Context, kind models.EntityType, targetID uint, typ models.ReactionType) (int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository returns a new LikeRepository implementation.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// Find returns the user's reaction to the target, or nil when there is none.
func (r *likeRepository) Find(ctx context.Context, userID uint, kind models.EntityType, targetID uint) (*models.Like, error) {
	var like models.Like
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND entity_type = ? AND target_id = ?", userID, kind, targetID).
		First(&like).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &like, nil
}

// Create inserts the reaction. The unique (user, entity type, target) index
// turns a concurrent duplicate into a conflict.
func (r *likeRepository) Create(ctx context.Context, like *models.Like) error {
	switch like.EntityType {
	case models.EntityPost:
		like.PostID, like.CommentID = &like.TargetID, nil
	case models.EntityComment:
		like.PostID, like.CommentID = nil, &like.TargetID
	default:
		return models.NewValidationError("invalid entity type")
	}
	if err := r.db.WithContext(ctx).Create(like).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("reaction already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *likeRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Like{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Reaction", id)
	}
	return nil
}

func targetScope(kind models.EntityType, targetID uint, typ models.ReactionType) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("likes.entity_type = ? AND likes.target_id = ?", kind, targetID)
		if typ != "" {
			db = db.Where("likes.type = ?", typ)
		}
		return db
	}
}

// ListByTarget lists reactions on a target. An empty typ lists both kinds.
func (r *likeRepository) ListByTarget(ctx context.Context, kind models.EntityType, targetID uint, typ models.ReactionType, opts query.Options) (query.Page[models.Like], error) {
	return query.Paginate[models.Like](ctx, r.db.Scopes(targetScope(kind, targetID, typ)), query.LikeSpec, opts)
}

// CountByTarget counts reactions on a target straight from the likes table.
func (r *likeRepository) CountByTarget(ctx context.Context, kind models.EntityType, targetID uint, typ models.ReactionType) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).Scopes(targetScope(kind, targetID, typ)).Count(&n).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
