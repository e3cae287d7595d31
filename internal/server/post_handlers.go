package server

import (
	"usof/internal/models"
	"usof/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListPosts handles GET /api/posts
// @Summary List posts
// @Description Anonymous callers see active posts only; filters combine with AND
// @Tags posts
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Param sortField query string false "Sort field"
// @Param sortDirection query string false "asc or desc"
// @Param search query string false "Title or content substring"
// @Param status query string false "active, inactive or locked"
// @Param categories query string false "Comma-separated category IDs"
// @Param authorId query int false "Author ID"
// @Param dateFrom query string false "RFC3339 or YYYY-MM-DD"
// @Param dateTo query string false "RFC3339 or YYYY-MM-DD"
// @Success 200 {object} query.Page[models.Post]
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	opts, err := parseListOptions(c)
	if err != nil {
		return nil
	}
	page, err := s.postService.ListPosts(c.UserContext(), actorFrom(c), opts)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(page)
}

// GetPost handles GET /api/posts/:id
// @Summary Get post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{data=models.Post}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respond(c, err)
	}
	return data(c, fiber.StatusOK, post)
}

// CreatePost handles POST /api/posts
// @Summary Create post
// @Description Status locked is admin only
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createPostRequest true "Request body"
// @Success 201 {object} object{data=models.Post}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		Actor:       actorFrom(c),
		Title:       req.Title,
		Content:     req.Content,
		Images:      req.Images,
		CategoryIDs: req.Categories,
		Status:      req.Status,
		PublishDate: req.PublishDate,
	})
	if err != nil {
		return respond(c, err)
	}
	return data(c, fiber.StatusCreated, post)
}

// UpdatePost handles PATCH /api/posts/:id
// @Summary Update post
// @Description Authors edit content; admins change status and categories
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body updatePostRequest true "Request body"
// @Success 200 {object} object{data=models.Post}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [patch]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updatePostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		Actor:       actorFrom(c),
		PostID:      id,
		Title:       req.Title,
		Content:     req.Content,
		Images:      req.Images,
		CategoryIDs: req.Categories,
		Status:      req.Status,
	})
	if err != nil {
		return respond(c, err)
	}
	return data(c, fiber.StatusOK, post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete post
// @Description Removes comments, reactions and favorites of the post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204 "No Content"
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), actorFrom(c), id); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListPostCategories handles GET /api/posts/:id/categories
// @Summary List post categories
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{data=[]models.Category}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/categories [get]
func (s *Server) ListPostCategories(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	categories, err := s.postService.ListCategories(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respond(c, err)
	}
	return data(c, fiber.StatusOK, categories)
}

// ListPostReactions handles GET /api/posts/:id/likes. An optional type
// query parameter narrows the list to likes or dislikes.
// @Summary List post reactions
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Param sortField query string false "Sort field"
// @Param sortDirection query string false "asc or desc"
// @Param type query string false "like or dislike"
// @Success 200 {object} query.Page[models.Like]
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/likes [get]
func (s *Server) ListPostReactions(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	opts, err := parseListOptions(c, "type")
	if err != nil {
		return nil
	}
	typ := models.ReactionType(c.Query("type"))

	page, err := s.postService.ListReactions(c.UserContext(), actorFrom(c), id, typ, opts)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(page)
}

// ReactToPost handles POST /api/posts/:id/like
// @Summary React to post
// @Description Replaces an existing reaction of the other type
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body reactionRequest true "Request body"
// @Success 201 {object} object{data=models.Like}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /posts/{id}/like [post]
func (s *Server) ReactToPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req reactionRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	like, err := s.postService.React(c.UserContext(), actorFrom(c), id, req.Type)
	if err != nil {
		return respond(c, err)
	}
	return data(c, fiber.StatusCreated, like)
}

// UnreactToPost handles DELETE /api/posts/:id/like
// @Summary Remove post reaction
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body reactionRequest true "Request body"
// @Success 204 "No Content"
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/like [delete]
func (s *Server) UnreactToPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req reactionRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if err := s.postService.Unreact(c.UserContext(), actorFrom(c), id, req.Type); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
