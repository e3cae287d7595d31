// Package service implements the forum's use cases on top of the
// repositories, the access policy and the vote coordinator.
package service

import (
	"context"

	"usof/internal/models"
	"usof/internal/policy"
	"usof/internal/query"
	"usof/internal/rating"
	"usof/internal/repository"
	"usof/internal/vote"
)

// Reactor records and retracts reactions. *vote.Coordinator implements it.
type Reactor interface {
	ApplyReaction(ctx context.Context, t vote.Target, userID uint, typ models.ReactionType) (*models.Like, error)
	RemoveReaction(ctx context.Context, t vote.Target, userID uint, typ models.ReactionType) error
}

var _ Reactor = (*vote.Coordinator)(nil)

func requireActor(a policy.Actor) error {
	if !policy.IsAuthenticated(a) {
		return models.NewUnauthorizedError("Authentication required")
	}
	return nil
}

// deny reports Unauthorized to anonymous callers and Forbidden to everyone
// else.
func deny(a policy.Actor, message string) error {
	if err := requireActor(a); err != nil {
		return err
	}
	return models.NewForbiddenError(message)
}

// restrictStatus limits a listing to active rows unless the actor is an
// admin or is listing their own content.
func restrictStatus(a policy.Actor, f *query.Filters, active string) error {
	if policy.IsAdmin(a) || (f.AuthorID != 0 && f.AuthorID == a.ID) {
		return nil
	}
	switch f.Status {
	case "":
		f.Status = active
	case active:
	default:
		return deny(a, "Only active entries can be listed")
	}
	return nil
}

func parseReaction(raw models.ReactionType) (models.ReactionType, error) {
	if !raw.Valid() {
		return "", models.NewValidationError("Reaction type must be like or dislike")
	}
	return raw, nil
}

func scheduleAffected(ctx context.Context, scheduler rating.Scheduler, affected []repository.Affected) {
	for _, a := range affected {
		scheduler.Schedule(ctx, a.UserID, a.Kind)
	}
}
