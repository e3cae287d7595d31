package server

import (
	"usof/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListUsers handles GET /api/users
// @Summary List users
// @Tags users
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Param sortField query string false "Sort field"
// @Param sortDirection query string false "asc or desc"
// @Success 200 {object} query.Page[models.User]
// @Failure 400 {object} models.ErrorResponse
// @Router /users [get]
func (s *Server) ListUsers(c *fiber.Ctx) error {
	opts, err := parseListOptions(c)
	if err != nil {
		return nil
	}
	page, err := s.userService.ListUsers(c.UserContext(), opts)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(page)
}

// GetUser handles GET /api/users/:id
// @Summary Get user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{data=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.userService.GetUserByID(c.UserContext(), id)
	if err != nil {
		return respond(c, err)
	}
	return data(c, fiber.StatusOK, user)
}

// GetMyProfile handles GET /api/users/me
// @Summary Get current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{data=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByID(c.UserContext(), actorFrom(c).ID)
	if err != nil {
		return respond(c, err)
	}
	return data(c, fiber.StatusOK, user)
}

// CreateUser handles POST /api/users (admin)
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createUserRequest true "Request body"
// @Success 201 {object} object{data=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users [post]
func (s *Server) CreateUser(c *fiber.Ctx) error {
	var req createUserRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.userService.CreateUser(c.UserContext(), service.CreateUserInput{
		Actor:          actorFrom(c),
		Login:          req.Login,
		Password:       req.Password,
		FullName:       req.FullName,
		Email:          req.Email,
		Verified:       req.Verified,
		ProfilePicture: req.ProfilePicture,
		Role:           req.Role,
	})
	if err != nil {
		return respond(c, err)
	}
	return data(c, fiber.StatusCreated, user)
}

// UpdateUser handles PATCH /api/users/:id
// @Summary Update user
// @Description Only admins change role or verified
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body updateUserRequest true "Request body"
// @Success 200 {object} object{data=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users/{id} [patch]
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updateUserRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.userService.UpdateUser(c.UserContext(), service.UpdateUserInput{
		Actor:          actorFrom(c),
		UserID:         id,
		Login:          req.Login,
		Password:       req.Password,
		FullName:       req.FullName,
		Email:          req.Email,
		Verified:       req.Verified,
		ProfilePicture: req.ProfilePicture,
		Role:           req.Role,
	})
	if err != nil {
		return respond(c, err)
	}
	return data(c, fiber.StatusOK, user)
}

// DeleteUser handles DELETE /api/users/:id
// @Summary Delete user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204 "No Content"
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [delete]
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.userService.DeleteUser(c.UserContext(), actorFrom(c), id); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
