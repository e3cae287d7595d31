// Package rating derives user ratings from the reaction counters on their
// posts and comments.
package rating

import (
	"context"
	"fmt"

	"usof/internal/cache"
	"usof/internal/models"
	"usof/internal/observability"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

var (
	minRating = models.MinRating
	maxRating = models.MaxRating
	nine      = decimal.NewFromInt(9)
)

// Compute returns clamp(round(9L/(L+D+1), 2), 1, 10). Negative inputs are
// treated as zero.
func Compute(likes, dislikes int64) decimal.Decimal {
	likes, dislikes = max(likes, 0), max(dislikes, 0)

	raw := nine.Mul(decimal.NewFromInt(likes)).
		DivRound(decimal.NewFromInt(likes+dislikes+1), 2)

	switch {
	case raw.LessThan(minRating):
		return minRating
	case raw.GreaterThan(maxRating):
		return maxRating
	}
	return raw
}

// Recomputer recomputes one rating of one user.
type Recomputer interface {
	Recompute(ctx context.Context, userID uint, kind models.EntityType) (decimal.Decimal, error)
}

// Engine stores ratings derived from the current counters. It never applies
// deltas, so redundant recomputes are harmless.
type Engine struct {
	db *gorm.DB
}

// NewEngine returns an engine backed by db.
func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

type totals struct {
	Likes    int64
	Dislikes int64
}

// Column returns the user column that stores the rating for kind.
func Column(kind models.EntityType) (string, error) {
	switch kind {
	case models.EntityPost:
		return "publisher_rating", nil
	case models.EntityComment:
		return "commentator_rating", nil
	}
	return "", models.NewValidationError(fmt.Sprintf("unknown rating kind %q", kind))
}

// Recompute sums the counters over the user's posts or comments and stores
// the resulting rating.
func (e *Engine) Recompute(ctx context.Context, userID uint, kind models.EntityType) (rating decimal.Decimal, err error) {
	span, ctx := observability.NewSpan(ctx, "rating.Recompute",
		attribute.Int64("user.id", int64(userID)),
		attribute.String("rating.kind", string(kind)),
	)
	defer func() {
		if err != nil {
			span.SetError(err)
		}
		span.End()
		observability.RatingRecomputes.WithLabelValues(string(kind), observability.Outcome(err, models.ErrorCode)).Inc()
	}()

	column, err := Column(kind)
	if err != nil {
		return decimal.Decimal{}, err
	}

	var source any = &models.Post{}
	if kind == models.EntityComment {
		source = &models.Comment{}
	}

	var sum totals
	err = e.db.WithContext(ctx).Model(source).
		Select("COALESCE(SUM(likes_count), 0) AS likes, COALESCE(SUM(dislikes_count), 0) AS dislikes").
		Where("user_id = ?", userID).
		Scan(&sum).Error
	if err != nil {
		return decimal.Decimal{}, models.NewInternalError(err)
	}

	rating = Compute(sum.Likes, sum.Dislikes)
	res := e.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn(column, rating)
	if res.Error != nil {
		return decimal.Decimal{}, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return decimal.Decimal{}, models.NewNotFoundError("user", userID)
	}

	cache.InvalidateUser(ctx, userID)
	span.AddAttributes(attribute.String("rating.value", rating.String()))
	return rating, nil
}

// RecomputeAll rebuilds both ratings of every user and returns how many
// users were processed.
func (e *Engine) RecomputeAll(ctx context.Context) (int, error) {
	var ids []uint
	if err := e.db.WithContext(ctx).Model(&models.User{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return 0, models.NewInternalError(err)
	}

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		for _, kind := range []models.EntityType{models.EntityPost, models.EntityComment} {
			if _, err := e.Recompute(ctx, id, kind); err != nil {
				return i, fmt.Errorf("recompute user %d %s rating: %w", id, kind, err)
			}
		}
	}
	return len(ids), nil
}
