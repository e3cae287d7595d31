package service

import (
	"context"

	"usof/internal/models"
	"usof/internal/policy"
	"usof/internal/query"
	"usof/internal/repository"
)

type FavoriteService struct {
	favoriteRepo repository.FavoriteRepository
	postRepo     repository.PostRepository
}

func NewFavoriteService(favoriteRepo repository.FavoriteRepository, postRepo repository.PostRepository) *FavoriteService {
	return &FavoriteService{favoriteRepo: favoriteRepo, postRepo: postRepo}
}

// AddFavorite bookmarks a post the actor can see. Bookmarking twice is a
// conflict.
func (s *FavoriteService) AddFavorite(ctx context.Context, actor policy.Actor, postID uint) (*models.Favorite, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewPost(actor, post) {
		return nil, models.NewForbiddenError("Post is not available")
	}
	favorite := &models.Favorite{UserID: actor.ID, PostID: postID}
	if err := s.favoriteRepo.Create(ctx, favorite); err != nil {
		return nil, err
	}
	favorite.Post = post
	return favorite, nil
}

func (s *FavoriteService) RemoveFavorite(ctx context.Context, actor policy.Actor, postID uint) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	return s.favoriteRepo.Delete(ctx, actor.ID, postID)
}

func (s *FavoriteService) GetFavorite(ctx context.Context, actor policy.Actor, postID uint) (*models.Favorite, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.favoriteRepo.Get(ctx, actor.ID, postID)
}

// ListFavorites pages through the actor's bookmarked posts. Posts that have
// since become hidden are left out for non-admins.
func (s *FavoriteService) ListFavorites(ctx context.Context, actor policy.Actor, opts query.Options) (query.Page[models.Post], error) {
	if err := requireActor(actor); err != nil {
		return query.Page[models.Post]{}, err
	}
	if err := restrictStatus(actor, &opts.Filters, string(models.PostActive)); err != nil {
		return query.Page[models.Post]{}, err
	}
	return s.favoriteRepo.ListPosts(ctx, actor.ID, opts)
}
