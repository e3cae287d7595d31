package server

import (
	"usof/internal/models"
	"usof/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListPostComments handles GET /api/posts/:id/comments
// @Summary List post comments
// @Description Top-level comments only
// @Tags comments
// @Produce json
// @Param id path int true "Post ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Param sortField query string false "Sort field"
// @Param sortDirection query string false "asc or desc"
// @Success 200 {object} query.Page[models.Comment]
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [get]
func (s *Server) ListPostComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	opts, err := parseListOptions(c)
	if err != nil {
		return nil
	}
	page, err := s.commentService.ListPostComments(c.UserContext(), actorFrom(c), postID, opts)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(page)
}

// CreateComment handles POST /api/posts/:id/comments. A parent_id makes the
// comment a reply.
// @Summary Create comment
// @Description A parent_id makes the comment a reply
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body createCommentRequest true "Request body"
// @Success 201 {object} object{data=models.Comment}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req createCommentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		Actor:    actorFrom(c),
		PostID:   postID,
		ParentID: req.ParentID,
		Content:  req.Content,
	})
	if err != nil {
		return respond(c, err)
	}
	return data(c, fiber.StatusCreated, comment)
}

// GetComment handles GET /api/comments/:id
// @Summary Get comment
// @Tags comments
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} object{data=models.Comment}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id} [get]
func (s *Server) GetComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	comment, err := s.commentService.GetComment(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respond(c, err)
	}
	return data(c, fiber.StatusOK, comment)
}

// ListCommentReplies handles GET /api/comments/:id/replies
// @Summary List comment replies
// @Tags comments
// @Produce json
// @Param id path int true "Comment ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Param sortField query string false "Sort field"
// @Param sortDirection query string false "asc or desc"
// @Success 200 {object} query.Page[models.Comment]
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id}/replies [get]
func (s *Server) ListCommentReplies(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	opts, err := parseListOptions(c)
	if err != nil {
		return nil
	}
	page, err := s.commentService.ListChildren(c.UserContext(), actorFrom(c), id, opts)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(page)
}

// UpdateComment handles PATCH /api/comments/:id
// @Summary Update comment
// @Description Authors edit content; admins change status
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Param request body updateCommentRequest true "Request body"
// @Success 200 {object} object{data=models.Comment}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id} [patch]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updateCommentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		Actor:     actorFrom(c),
		CommentID: id,
		Content:   req.Content,
		Status:    req.Status,
	})
	if err != nil {
		return respond(c, err)
	}
	return data(c, fiber.StatusOK, comment)
}

// DeleteComment handles DELETE /api/comments/:id. Replies are removed with
// their parent.
// @Summary Delete comment
// @Description Replies are removed with their parent
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 204 "No Content"
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.commentService.DeleteComment(c.UserContext(), actorFrom(c), id); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// listCommentReactions serves GET /api/comments/:id/like and /dislike.
// @Summary List comment reactions
// @Tags comments
// @Produce json
// @Param id path int true "Comment ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Param sortField query string false "Sort field"
// @Param sortDirection query string false "asc or desc"
// @Success 200 {object} query.Page[models.Like]
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id}/like [get]
// @Router /comments/{id}/dislike [get]
func (s *Server) listCommentReactions(typ models.ReactionType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "id")
		if err != nil {
			return nil
		}
		opts, err := parseListOptions(c)
		if err != nil {
			return nil
		}
		page, err := s.commentService.ListReactions(c.UserContext(), actorFrom(c), id, typ, opts)
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(page)
	}
}

// ReactToComment handles POST /api/comments/:id/like
// @Summary React to comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Param request body reactionRequest true "Request body"
// @Success 201 {object} object{data=models.Like}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /comments/{id}/like [post]
func (s *Server) ReactToComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req reactionRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	like, err := s.commentService.React(c.UserContext(), actorFrom(c), id, req.Type)
	if err != nil {
		return respond(c, err)
	}
	return data(c, fiber.StatusCreated, like)
}

// UnreactToComment handles DELETE /api/comments/:id/like
// @Summary Remove comment reaction
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Param request body reactionRequest true "Request body"
// @Success 204 "No Content"
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id}/like [delete]
func (s *Server) UnreactToComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req reactionRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if err := s.commentService.Unreact(c.UserContext(), actorFrom(c), id, req.Type); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
