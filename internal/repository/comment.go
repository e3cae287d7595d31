package repository

import (
	"context"
	"slices"

	"usof/internal/cache"
	"usof/internal/models"
	"usof/internal/query"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint, opts query.Options) (query.Page[models.Comment], error)
	ListChildren(ctx context.Context, parentID uint, opts query.Options) (query.Page[models.Comment], error)
	Update(ctx context.Context, comment *models.Comment) error
	DeleteTree(ctx context.Context, id uint) ([]models.Comment, error)
	LockForReaction(ctx context.Context, id uint) (*models.Comment, error)
	AdjustReactionCount(ctx context.Context, id uint, typ models.ReactionType, delta int64) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts the comment and bumps the post's comments_count in the same
// transaction. The post row is locked first so a concurrent post delete
// cannot leave the comment orphaned.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRow(tx).Select("id").First(&models.Post{}, comment.PostID).Error; err != nil {
			return translate(err, "Post", comment.PostID)
		}
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return adjustCounter(tx.Model(&models.Post{}), "Post", comment.PostID, "comments_count", 1)
	})
	if err != nil {
		return translate(err, "Comment", comment.ID)
	}
	cache.InvalidatePost(ctx, comment.PostID)
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("Author").First(&comment, id).Error; err != nil {
		return nil, translate(err, "Comment", id)
	}
	return &comment, nil
}

// ListByPost lists the top-level comments of a post.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint, opts query.Options) (query.Page[models.Comment], error) {
	base := r.db.Where("comments.post_id = ? AND comments.parent_comment_id IS NULL", postID)
	return query.Paginate[models.Comment](ctx, base, query.CommentSpec, opts)
}

// ListChildren lists the direct replies to a comment.
func (r *commentRepository) ListChildren(ctx context.Context, parentID uint, opts query.Options) (query.Page[models.Comment], error) {
	base := r.db.Where("comments.parent_comment_id = ?", parentID)
	return query.Paginate[models.Comment](ctx, base, query.CommentSpec, opts)
}

// Update writes the editable columns. Counters are never written here.
func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Model(comment).
		Select("Content", "Status").
		Updates(comment).Error
	return translate(err, "Comment", comment.ID)
}

// DeleteTree removes the comment and every reply below it, together with
// their reactions, and lowers the post's comments_count by the number of
// removed comments. It returns the removed comments.
func (r *commentRepository) DeleteTree(ctx context.Context, id uint) ([]models.Comment, error) {
	var removed []models.Comment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var root models.Comment
		if err := lockRow(tx).Select("id", "user_id", "post_id", "parent_comment_id").First(&root, id).Error; err != nil {
			return err
		}
		tree, err := collectSubtree(tx, []models.Comment{root})
		if err != nil {
			return err
		}
		if err := removeComments(tx, tree, true); err != nil {
			return err
		}
		removed = tree
		return nil
	})
	if err != nil {
		return nil, translate(err, "Comment", id)
	}
	invalidatePosts(ctx, removed)
	return removed, nil
}

// invalidatePosts drops the cached posts the comments belong to.
func invalidatePosts(ctx context.Context, comments []models.Comment) {
	keys := make([]string, 0, 1)
	seen := make(map[uint]struct{}, 1)
	for _, c := range comments {
		if _, ok := seen[c.PostID]; ok {
			continue
		}
		seen[c.PostID] = struct{}{}
		keys = append(keys, cache.PostKey(c.PostID))
	}
	cache.Invalidate(ctx, keys...)
}

// LockForReaction loads the comment for a vote, locking the row where the
// dialect allows it.
func (r *commentRepository) LockForReaction(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := lockRow(r.db.WithContext(ctx)).First(&comment, id).Error; err != nil {
		return nil, translate(err, "Comment", id)
	}
	return &comment, nil
}

// AdjustReactionCount applies a relative change to one of the comment's
// reaction counters, flooring at zero.
func (r *commentRepository) AdjustReactionCount(ctx context.Context, id uint, typ models.ReactionType, delta int64) error {
	return adjustCounter(r.db.WithContext(ctx).Model(&models.Comment{}), "Comment", id, counterColumn(typ), delta)
}

// adjustCounter runs "col = col + delta" (floored at zero for negative
// deltas) on the row with the given id.
func adjustCounter(db *gorm.DB, resource string, id uint, column string, delta int64) error {
	if delta == 0 {
		return nil
	}
	expr := gorm.Expr(column+" + ?", delta)
	if delta < 0 {
		expr = decrementFloor(column, -delta)
	}
	res := db.Where("id = ?", id).UpdateColumn(column, expr)
	if res.Error != nil {
		return translate(res.Error, resource, id)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError(resource, id)
	}
	return nil
}

const idChunk = 500

func commentIDs(comments []models.Comment) []uint {
	out := make([]uint, len(comments))
	for i, c := range comments {
		out[i] = c.ID
	}
	return out
}

// collectSubtree walks the reply tree below roots with a work list, one
// query per level, and returns roots followed by all descendants.
func collectSubtree(tx *gorm.DB, roots []models.Comment) ([]models.Comment, error) {
	all := slices.Clone(roots)
	seen := make(map[uint]struct{}, len(roots))
	for _, c := range roots {
		seen[c.ID] = struct{}{}
	}

	frontier := commentIDs(roots)
	for len(frontier) > 0 {
		var next []uint
		for chunk := range slices.Chunk(frontier, idChunk) {
			var children []models.Comment
			if err := tx.Model(&models.Comment{}).
				Select("id", "user_id", "post_id", "parent_comment_id").
				Where("parent_comment_id IN ?", chunk).
				Find(&children).Error; err != nil {
				return nil, err
			}
			for _, c := range children {
				if _, dup := seen[c.ID]; dup {
					continue
				}
				seen[c.ID] = struct{}{}
				all = append(all, c)
				next = append(next, c.ID)
			}
		}
		frontier = next
	}
	return all, nil
}

// removeComments deletes the comments and the reactions on them. When
// adjustPosts is set, each post's comments_count drops by the number of its
// comments removed.
func removeComments(tx *gorm.DB, comments []models.Comment, adjustPosts bool) error {
	if len(comments) == 0 {
		return nil
	}
	for chunk := range slices.Chunk(commentIDs(comments), idChunk) {
		if err := tx.Where("entity_type = ? AND target_id IN ?", models.EntityComment, chunk).
			Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", chunk).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
	}
	if !adjustPosts {
		return nil
	}

	perPost := make(map[uint]int64)
	var order []uint
	for _, c := range comments {
		if _, ok := perPost[c.PostID]; !ok {
			order = append(order, c.PostID)
		}
		perPost[c.PostID]++
	}
	for _, postID := range order {
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("comments_count", decrementFloor("comments_count", perPost[postID])).Error; err != nil {
			return err
		}
	}
	return nil
}
