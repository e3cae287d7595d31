// Package vote owns reactions: one per user per target, with the target's
// counters kept in step inside the same transaction.
package vote

import (
	"context"
	"fmt"

	"usof/internal/cache"
	"usof/internal/models"
	"usof/internal/observability"
	"usof/internal/rating"
	"usof/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// Target identifies the post or comment a reaction applies to.
type Target struct {
	ID   uint
	Kind models.EntityType
}

// Coordinator applies and removes reactions. Authorization happens before
// it is called.
type Coordinator struct {
	store     *repository.Store
	scheduler rating.Scheduler
}

// NewCoordinator returns a coordinator writing through store and handing
// rating recomputes to scheduler once a vote has committed.
func NewCoordinator(store *repository.Store, scheduler rating.Scheduler) *Coordinator {
	return &Coordinator{store: store, scheduler: scheduler}
}

// target is the locked row a vote applies to.
type target struct {
	authorID uint
	postID   uint
}

func validate(t Target, typ models.ReactionType) error {
	if !t.Kind.Valid() {
		return models.NewValidationError(fmt.Sprintf("invalid target kind %q", t.Kind))
	}
	if !typ.Valid() {
		return models.NewValidationError(fmt.Sprintf("invalid reaction type %q", typ))
	}
	return nil
}

// lock loads and locks the target row inside tx.
func lock(ctx context.Context, tx *repository.Store, t Target) (target, error) {
	if t.Kind == models.EntityPost {
		post, err := tx.Posts.LockForReaction(ctx, t.ID)
		if err != nil {
			return target{}, err
		}
		return target{authorID: post.UserID, postID: post.ID}, nil
	}
	comment, err := tx.Comments.LockForReaction(ctx, t.ID)
	if err != nil {
		return target{}, err
	}
	return target{authorID: comment.UserID, postID: comment.PostID}, nil
}

func adjust(ctx context.Context, tx *repository.Store, t Target, typ models.ReactionType, delta int64) error {
	if t.Kind == models.EntityPost {
		return tx.Posts.AdjustReactionCount(ctx, t.ID, typ, delta)
	}
	return tx.Comments.AdjustReactionCount(ctx, t.ID, typ, delta)
}

// ApplyReaction records the user's reaction. An identical reaction is a
// conflict; the opposite one is replaced, moving one unit between the
// counters.
func (c *Coordinator) ApplyReaction(ctx context.Context, t Target, userID uint, typ models.ReactionType) (like *models.Like, err error) {
	span, ctx := observability.NewSpan(ctx, "vote.ApplyReaction",
		attribute.String("target.kind", string(t.Kind)),
		attribute.Int64("target.id", int64(t.ID)),
		attribute.Int64("user.id", int64(userID)),
		attribute.String("reaction.type", string(typ)),
	)
	defer func() { finish(span, "apply", t, typ, err) }()

	if err := validate(t, typ); err != nil {
		return nil, err
	}

	var locked target
	err = c.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if locked, err = lock(ctx, tx, t); err != nil {
			return err
		}

		existing, err := tx.Likes.Find(ctx, userID, t.Kind, t.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.Type == typ {
				return models.NewConflictError(fmt.Sprintf("%s already %sd", t.Kind, typ))
			}
			if err := tx.Likes.Delete(ctx, existing.ID); err != nil {
				return err
			}
			if err := adjust(ctx, tx, t, existing.Type, -1); err != nil {
				return err
			}
		}

		like = &models.Like{UserID: userID, EntityType: t.Kind, TargetID: t.ID, Type: typ}
		if err := tx.Likes.Create(ctx, like); err != nil {
			return err
		}
		return adjust(ctx, tx, t, typ, 1)
	})
	if err != nil {
		return nil, err
	}

	c.afterCommit(ctx, t, locked)
	return like, nil
}

// RemoveReaction deletes the user's reaction of the given type.
func (c *Coordinator) RemoveReaction(ctx context.Context, t Target, userID uint, typ models.ReactionType) (err error) {
	span, ctx := observability.NewSpan(ctx, "vote.RemoveReaction",
		attribute.String("target.kind", string(t.Kind)),
		attribute.Int64("target.id", int64(t.ID)),
		attribute.Int64("user.id", int64(userID)),
		attribute.String("reaction.type", string(typ)),
	)
	defer func() { finish(span, "remove", t, typ, err) }()

	if err := validate(t, typ); err != nil {
		return err
	}

	var locked target
	err = c.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if locked, err = lock(ctx, tx, t); err != nil {
			return err
		}

		existing, err := tx.Likes.Find(ctx, userID, t.Kind, t.ID)
		if err != nil {
			return err
		}
		if existing == nil || existing.Type != typ {
			return &models.AppError{
				Code:    models.CodeNotFound,
				Message: fmt.Sprintf("no %s on %s %d", typ, t.Kind, t.ID),
			}
		}
		if err := tx.Likes.Delete(ctx, existing.ID); err != nil {
			return err
		}
		return adjust(ctx, tx, t, typ, -1)
	})
	if err != nil {
		return err
	}

	c.afterCommit(ctx, t, locked)
	return nil
}

// afterCommit runs the side effects that must not share the vote's
// transaction.
func (c *Coordinator) afterCommit(ctx context.Context, t Target, locked target) {
	cache.InvalidatePost(ctx, locked.postID)
	if c.scheduler != nil {
		c.scheduler.Schedule(ctx, locked.authorID, t.Kind)
	}
}

func finish(span *observability.Span, op string, t Target, typ models.ReactionType, err error) {
	if err != nil {
		span.SetError(err)
	}
	span.End()
	observability.ReactionsTotal.WithLabelValues(string(t.Kind), string(typ), op+"_"+observability.Outcome(err, models.ErrorCode)).Inc()
}
