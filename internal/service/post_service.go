package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"usof/internal/models"
	"usof/internal/policy"
	"usof/internal/query"
	"usof/internal/rating"
	"usof/internal/repository"
	"usof/internal/vote"
)

type PostService struct {
	postRepo     repository.PostRepository
	categoryRepo repository.CategoryRepository
	likeRepo     repository.LikeRepository
	reactor      Reactor
	scheduler    rating.Scheduler
}

type CreatePostInput struct {
	Actor       policy.Actor
	Title       string
	Content     string
	Images      []string
	CategoryIDs []uint
	Status      models.PostStatus
	PublishDate *time.Time
}

// UpdatePostInput carries a partial update. Nil fields are left unchanged.
type UpdatePostInput struct {
	Actor       policy.Actor
	PostID      uint
	Title       *string
	Content     *string
	Images      []string
	CategoryIDs []uint
	Status      *models.PostStatus
}

func NewPostService(
	postRepo repository.PostRepository,
	categoryRepo repository.CategoryRepository,
	likeRepo repository.LikeRepository,
	reactor Reactor,
	scheduler rating.Scheduler,
) *PostService {
	return &PostService{
		postRepo:     postRepo,
		categoryRepo: categoryRepo,
		likeRepo:     likeRepo,
		reactor:      reactor,
		scheduler:    scheduler,
	}
}

const (
	minTitleLen   = 3
	maxTitleLen   = 255
	minContentLen = 10
	maxContentLen = 50000
)

func checkTitle(title string) error {
	n := len(strings.TrimSpace(title))
	if n < minTitleLen || n > maxTitleLen {
		return models.NewValidationError(fmt.Sprintf("Title must be %d to %d characters long", minTitleLen, maxTitleLen))
	}
	return nil
}

func checkContent(content string) error {
	n := len(strings.TrimSpace(content))
	if n < minContentLen {
		return models.NewValidationError(fmt.Sprintf("Content must be at least %d characters long", minContentLen))
	}
	if n > maxContentLen {
		return models.NewValidationError("Content too long (max 50000 characters)")
	}
	return nil
}

// categories loads the referenced categories. A post belongs to at least
// one.
func (s *PostService) categories(ctx context.Context, ids []uint) ([]models.Category, error) {
	if len(ids) == 0 {
		return nil, models.NewValidationError("At least one category is required")
	}
	cats, err := s.categoryRepo.GetByIDs(ctx, ids)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewValidationError(err.Error())
		}
		return nil, err
	}
	return cats, nil
}

// statusAllowed reports whether the actor may put a post into status.
// Locking is reserved to admins.
func statusAllowed(a policy.Actor, status models.PostStatus) error {
	if !status.Valid() {
		return models.NewValidationError(fmt.Sprintf("Invalid post status %q", status))
	}
	if status == models.PostLocked && !policy.IsAdmin(a) {
		return models.NewForbiddenError("Only admins can lock posts")
	}
	return nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}
	if err := checkTitle(in.Title); err != nil {
		return nil, err
	}
	if err := checkContent(in.Content); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = models.PostActive
	}
	if err := statusAllowed(in.Actor, status); err != nil {
		return nil, err
	}
	cats, err := s.categories(ctx, in.CategoryIDs)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:     in.Actor.ID,
		Title:      strings.TrimSpace(in.Title),
		Content:    in.Content,
		Status:     status,
		Images:     in.Images,
		Categories: cats,
	}
	if in.PublishDate != nil {
		post.PublishDate = in.PublishDate.UTC()
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// GetPost returns the post if the actor may see it.
func (s *PostService) GetPost(ctx context.Context, actor policy.Actor, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewPost(actor, post) {
		return nil, deny(actor, "Post is not available")
	}
	return post, nil
}

// ListPosts lists posts. Non-admins only see active posts, except when they
// filter by their own authorship.
func (s *PostService) ListPosts(ctx context.Context, actor policy.Actor, opts query.Options) (query.Page[models.Post], error) {
	if err := restrictStatus(actor, &opts.Filters, string(models.PostActive)); err != nil {
		return query.Page[models.Post]{}, err
	}
	return s.postRepo.List(ctx, opts)
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if !policy.CanMutatePost(in.Actor, post) {
		return nil, deny(in.Actor, "Only the author or an admin can edit this post")
	}
	admin := policy.IsAdmin(in.Actor)
	if post.Status == models.PostLocked && !admin {
		return nil, models.NewForbiddenError("Post is locked")
	}

	if in.Title != nil {
		if err := checkTitle(*in.Title); err != nil {
			return nil, err
		}
		post.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		if err := checkContent(*in.Content); err != nil {
			return nil, err
		}
		post.Content = *in.Content
	}
	if in.Images != nil {
		post.Images = in.Images
	}
	if in.Status != nil {
		if err := statusAllowed(in.Actor, *in.Status); err != nil {
			return nil, err
		}
		post.Status = *in.Status
	}

	var cats []models.Category
	if in.CategoryIDs != nil {
		if cats, err = s.categories(ctx, in.CategoryIDs); err != nil {
			return nil, err
		}
	}

	if err := s.postRepo.Update(ctx, post, cats); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// DeletePost removes the post with its comments, reactions, favorites and
// category links, then refreshes the ratings of everyone who lost votes.
func (s *PostService) DeletePost(ctx context.Context, actor policy.Actor, id uint) error {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanMutatePost(actor, post) {
		return deny(actor, "Only the author or an admin can delete this post")
	}
	affected, err := s.postRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	scheduleAffected(ctx, s.scheduler, affected)
	return nil
}

// React records the actor's like or dislike on the post.
func (s *PostService) React(ctx context.Context, actor policy.Actor, postID uint, typ models.ReactionType) (*models.Like, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	typ, err := parseReaction(typ)
	if err != nil {
		return nil, err
	}
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !policy.CanReactToPost(actor, post) {
		return nil, models.NewForbiddenError("Reactions are closed on this post")
	}
	return s.reactor.ApplyReaction(ctx, vote.Target{ID: postID, Kind: models.EntityPost}, actor.ID, typ)
}

// Unreact retracts the actor's reaction of the given type.
func (s *PostService) Unreact(ctx context.Context, actor policy.Actor, postID uint, typ models.ReactionType) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	typ, err := parseReaction(typ)
	if err != nil {
		return err
	}
	if _, err := s.GetPost(ctx, actor, postID); err != nil {
		return err
	}
	return s.reactor.RemoveReaction(ctx, vote.Target{ID: postID, Kind: models.EntityPost}, actor.ID, typ)
}

// ListReactions lists the reactions on a post. An empty typ lists both
// kinds.
func (s *PostService) ListReactions(ctx context.Context, actor policy.Actor, postID uint, typ models.ReactionType, opts query.Options) (query.Page[models.Like], error) {
	if typ != "" && !typ.Valid() {
		return query.Page[models.Like]{}, models.NewValidationError("Reaction type must be like or dislike")
	}
	if _, err := s.GetPost(ctx, actor, postID); err != nil {
		return query.Page[models.Like]{}, err
	}
	return s.likeRepo.ListByTarget(ctx, models.EntityPost, postID, typ, opts)
}

func (s *PostService) ListCategories(ctx context.Context, actor policy.Actor, postID uint) ([]models.Category, error) {
	if _, err := s.GetPost(ctx, actor, postID); err != nil {
		return nil, err
	}
	return s.postRepo.Categories(ctx, postID)
}
