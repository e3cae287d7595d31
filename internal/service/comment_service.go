package service

import (
	"context"
	"strings"

	"usof/internal/models"
	"usof/internal/policy"
	"usof/internal/query"
	"usof/internal/rating"
	"usof/internal/repository"
	"usof/internal/vote"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	likeRepo    repository.LikeRepository
	reactor     Reactor
	scheduler   rating.Scheduler
}

type CreateCommentInput struct {
	Actor    policy.Actor
	PostID   uint
	ParentID *uint
	Content  string
}

type UpdateCommentInput struct {
	Actor     policy.Actor
	CommentID uint
	Content   *string
	Status    *models.CommentStatus
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	likeRepo repository.LikeRepository,
	reactor Reactor,
	scheduler rating.Scheduler,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		likeRepo:    likeRepo,
		reactor:     reactor,
		scheduler:   scheduler,
	}
}

const maxCommentLen = 10000

func checkComment(content string) error {
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Content is required")
	}
	if len(content) > maxCommentLen {
		return models.NewValidationError("Comment too long (max 10000 characters)")
	}
	return nil
}

// load returns the comment with its post.
func (s *CommentService) load(ctx context.Context, id uint) (*models.Comment, *models.Post, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	post, err := s.postRepo.GetByID(ctx, comment.PostID)
	if err != nil {
		return nil, nil, err
	}
	return comment, post, nil
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}
	if err := checkComment(in.Content); err != nil {
		return nil, err
	}
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if !policy.CanComment(in.Actor, post) {
		return nil, models.NewForbiddenError("Comments are closed on this post")
	}
	if in.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != post.ID {
			return nil, models.NewValidationError("Parent comment belongs to another post")
		}
		if !policy.CanViewComment(in.Actor, parent, post) {
			return nil, models.NewForbiddenError("Parent comment is not available")
		}
	}

	comment := &models.Comment{
		UserID:          in.Actor.ID,
		PostID:          post.ID,
		ParentCommentID: in.ParentID,
		Content:         in.Content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *CommentService) GetComment(ctx context.Context, actor policy.Actor, id uint) (*models.Comment, error) {
	comment, post, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewComment(actor, comment, post) {
		return nil, deny(actor, "Comment is not available")
	}
	return comment, nil
}

// ListPostComments lists the top-level comments of a post.
func (s *CommentService) ListPostComments(ctx context.Context, actor policy.Actor, postID uint, opts query.Options) (query.Page[models.Comment], error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return query.Page[models.Comment]{}, err
	}
	if !policy.CanViewPost(actor, post) {
		return query.Page[models.Comment]{}, deny(actor, "Post is not available")
	}
	if err := restrictStatus(actor, &opts.Filters, string(models.CommentActive)); err != nil {
		return query.Page[models.Comment]{}, err
	}
	return s.commentRepo.ListByPost(ctx, postID, opts)
}

// ListChildren lists the direct replies to a comment.
func (s *CommentService) ListChildren(ctx context.Context, actor policy.Actor, parentID uint, opts query.Options) (query.Page[models.Comment], error) {
	if _, err := s.GetComment(ctx, actor, parentID); err != nil {
		return query.Page[models.Comment]{}, err
	}
	if err := restrictStatus(actor, &opts.Filters, string(models.CommentActive)); err != nil {
		return query.Page[models.Comment]{}, err
	}
	return s.commentRepo.ListChildren(ctx, parentID, opts)
}

// UpdateComment edits the content or status. The post must still be active
// unless the actor is an admin.
func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, post, err := s.load(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if !policy.CanMutateComment(in.Actor, comment) {
		return nil, deny(in.Actor, "Only the author or an admin can edit this comment")
	}
	if post.Status != models.PostActive && !policy.IsAdmin(in.Actor) {
		return nil, models.NewForbiddenError("Post is not active")
	}

	if in.Content != nil {
		if err := checkComment(*in.Content); err != nil {
			return nil, err
		}
		comment.Content = *in.Content
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, models.NewValidationError("Comment status must be active or inactive")
		}
		comment.Status = *in.Status
	}

	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

// DeleteComment removes the comment and its whole reply tree, then
// refreshes the commentator rating of every author who lost a comment.
func (s *CommentService) DeleteComment(ctx context.Context, actor policy.Actor, id uint) error {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanMutateComment(actor, comment) {
		return deny(actor, "Only the author or an admin can delete this comment")
	}
	removed, err := s.commentRepo.DeleteTree(ctx, id)
	if err != nil {
		return err
	}

	seen := make(map[uint]struct{}, len(removed))
	var affected []repository.Affected
	for _, c := range removed {
		if _, dup := seen[c.UserID]; dup {
			continue
		}
		seen[c.UserID] = struct{}{}
		affected = append(affected, repository.Affected{UserID: c.UserID, Kind: models.EntityComment})
	}
	scheduleAffected(ctx, s.scheduler, affected)
	return nil
}

func (s *CommentService) React(ctx context.Context, actor policy.Actor, commentID uint, typ models.ReactionType) (*models.Like, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	typ, err := parseReaction(typ)
	if err != nil {
		return nil, err
	}
	comment, post, err := s.load(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if !policy.CanReactToComment(actor, comment, post) {
		return nil, models.NewForbiddenError("Reactions are closed on this comment")
	}
	return s.reactor.ApplyReaction(ctx, vote.Target{ID: commentID, Kind: models.EntityComment}, actor.ID, typ)
}

func (s *CommentService) Unreact(ctx context.Context, actor policy.Actor, commentID uint, typ models.ReactionType) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	typ, err := parseReaction(typ)
	if err != nil {
		return err
	}
	if _, err := s.GetComment(ctx, actor, commentID); err != nil {
		return err
	}
	return s.reactor.RemoveReaction(ctx, vote.Target{ID: commentID, Kind: models.EntityComment}, actor.ID, typ)
}

// ListReactions lists the likes or dislikes on a comment.
func (s *CommentService) ListReactions(ctx context.Context, actor policy.Actor, commentID uint, typ models.ReactionType, opts query.Options) (query.Page[models.Like], error) {
	if typ != "" && !typ.Valid() {
		return query.Page[models.Like]{}, models.NewValidationError("Reaction type must be like or dislike")
	}
	if _, err := s.GetComment(ctx, actor, commentID); err != nil {
		return query.Page[models.Like]{}, err
	}
	return s.likeRepo.ListByTarget(ctx, models.EntityComment, commentID, typ, opts)
}
