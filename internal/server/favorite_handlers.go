package server

import "github.com/gofiber/fiber/v2"

// ListFavorites handles GET /api/favorites
// @Summary List favorites
// @Tags favorites
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Param sortField query string false "Sort field"
// @Param sortDirection query string false "asc or desc"
// @Success 200 {object} query.Page[models.Favorite]
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /favorites [get]
func (s *Server) ListFavorites(c *fiber.Ctx) error {
	opts, err := parseListOptions(c)
	if err != nil {
		return nil
	}
	page, err := s.favoriteService.ListFavorites(c.UserContext(), actorFrom(c), opts)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(page)
}

// GetFavorite handles GET /api/favorites/:postId
// @Summary Get favorite
// @Tags favorites
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Success 200 {object} object{data=models.Favorite}
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /favorites/{postId} [get]
func (s *Server) GetFavorite(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	favorite, err := s.favoriteService.GetFavorite(c.UserContext(), actorFrom(c), postID)
	if err != nil {
		return respond(c, err)
	}
	return data(c, fiber.StatusOK, favorite)
}

// AddFavorite handles POST /api/favorites
// @Summary Add favorite
// @Tags favorites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body favoriteRequest true "Request body"
// @Success 201 {object} object{data=models.Favorite}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /favorites [post]
func (s *Server) AddFavorite(c *fiber.Ctx) error {
	var req favoriteRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	favorite, err := s.favoriteService.AddFavorite(c.UserContext(), actorFrom(c), req.PostID)
	if err != nil {
		return respond(c, err)
	}
	return data(c, fiber.StatusCreated, favorite)
}

// RemoveFavorite handles DELETE /api/favorites/:postId
// @Summary Remove favorite
// @Tags favorites
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Success 204 "No Content"
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /favorites/{postId} [delete]
func (s *Server) RemoveFavorite(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	if err := s.favoriteService.RemoveFavorite(c.UserContext(), actorFrom(c), postID); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
