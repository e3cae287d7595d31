package server

import (
	"usof/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListCategories handles GET /api/categories
// @Summary List categories
// @Tags categories
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Param sortField query string false "Sort field"
// @Param sortDirection query string false "asc or desc"
// @Success 200 {object} query.Page[models.Category]
// @Failure 400 {object} models.ErrorResponse
// @Router /categories [get]
func (s *Server) ListCategories(c *fiber.Ctx) error {
	opts, err := parseListOptions(c)
	if err != nil {
		return nil
	}
	page, err := s.categoryService.ListCategories(c.UserContext(), opts)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(page)
}

// GetCategory handles GET /api/categories/:id
// @Summary Get category
// @Tags categories
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} object{data=models.Category}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /categories/{id} [get]
func (s *Server) GetCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	category, err := s.categoryService.GetCategory(c.UserContext(), id)
	if err != nil {
		return respond(c, err)
	}
	return data(c, fiber.StatusOK, category)
}

// ListCategoryPosts handles GET /api/categories/:id/posts
// @Summary List category posts
// @Tags categories
// @Produce json
// @Param id path int true "Category ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Param sortField query string false "Sort field"
// @Param sortDirection query string false "asc or desc"
// @Success 200 {object} query.Page[models.Post]
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /categories/{id}/posts [get]
func (s *Server) ListCategoryPosts(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	opts, err := parseListOptions(c)
	if err != nil {
		return nil
	}
	page, err := s.categoryService.ListPosts(c.UserContext(), actorFrom(c), id, opts)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(page)
}

// CreateCategory handles POST /api/categories (admin)
// @Summary Create category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body categoryRequest true "Request body"
// @Success 201 {object} object{data=models.Category}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /categories [post]
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	category, err := s.categoryService.CreateCategory(c.UserContext(), service.CategoryInput{
		Actor:       actorFrom(c),
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return respond(c, err)
	}
	return data(c, fiber.StatusCreated, category)
}

// UpdateCategory handles PATCH /api/categories/:id (admin)
// @Summary Update category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Param request body categoryRequest true "Request body"
// @Success 200 {object} object{data=models.Category}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /categories/{id} [patch]
func (s *Server) UpdateCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req categoryRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	category, err := s.categoryService.UpdateCategory(c.UserContext(), id, service.CategoryInput{
		Actor:       actorFrom(c),
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return respond(c, err)
	}
	return data(c, fiber.StatusOK, category)
}

// DeleteCategory handles DELETE /api/categories/:id (admin)
// @Summary Delete category
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 204 "No Content"
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /categories/{id} [delete]
func (s *Server) DeleteCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.categoryService.DeleteCategory(c.UserContext(), actorFrom(c), id); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
