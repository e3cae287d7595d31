package server

import (
	"usof/internal/models"
	"usof/internal/rating"

	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags returns configured feature flags and evaluated state for current user.
// @Summary Get feature flags
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{raw=map[string]string,evaluated=map[string]bool}
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(actorFrom(c).ID),
	})
}

// RecomputeRatings handles POST /api/admin/ratings/:id/recompute. Both
// ratings of the user are rebuilt from the current counters.
// @Summary Recompute user ratings
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} object{data=object{user_id=int,publisher_rating=string,commentator_rating=string}}
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/ratings/{id}/recompute [post]
func (s *Server) RecomputeRatings(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	out := fiber.Map{"user_id": id}
	for _, kind := range []models.EntityType{models.EntityPost, models.EntityComment} {
		column, err := rating.Column(kind)
		if err != nil {
			return respond(c, err)
		}
		value, err := s.ratings.Recompute(c.UserContext(), id, kind)
		if err != nil {
			return respond(c, err)
		}
		out[column] = value
	}
	return data(c, fiber.StatusOK, out)
}
