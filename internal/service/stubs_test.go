package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"usof/internal/models"
	"usof/internal/policy"
	"usof/internal/query"
	"usof/internal/repository"
	"usof/internal/vote"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	anon    = policy.Anonymous
	alice   = policy.Actor{ID: 1, Role: models.RoleUser}
	bob     = policy.Actor{ID: 2, Role: models.RoleUser}
	admin   = policy.Actor{ID: 9, Role: models.RoleAdmin}
	bgCtx   = context.Background()
	errBoom = errors.New("boom")
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn     func(context.Context, *models.Post) error
	getByIDFn    func(context.Context, uint) (*models.Post, error)
	listFn       func(context.Context, query.Options) (query.Page[models.Post], error)
	updateFn     func(context.Context, *models.Post, []models.Category) error
	deleteFn     func(context.Context, uint) ([]repository.Affected, error)
	categoriesFn func(context.Context, uint) ([]models.Category, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, opts query.Options) (query.Page[models.Post], error) {
	return s.listFn(ctx, opts)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post, categories []models.Category) error {
	return s.updateFn(ctx, post, categories)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) ([]repository.Affected, error) {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) Categories(ctx context.Context, postID uint) ([]models.Category, error) {
	return s.categoriesFn(ctx, postID)
}
func (s *postRepoStub) LockForReaction(context.Context, uint) (*models.Post, error) {
	panic("LockForReaction is owned by the vote coordinator")
}
func (s *postRepoStub) AdjustReactionCount(context.Context, uint, models.ReactionType, int64) error {
	panic("AdjustReactionCount is owned by the vote coordinator")
}

// postRepoWith serves the given post from GetByID and accepts every write.
func postRepoWith(post *models.Post) *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.Post) error { p.ID = 100; return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
			if post == nil || post.ID != id {
				return nil, models.NewNotFoundError("Post", id)
			}
			cp := *post
			return &cp, nil
		},
		listFn:       func(context.Context, query.Options) (query.Page[models.Post], error) { return query.Page[models.Post]{}, nil },
		updateFn:     func(context.Context, *models.Post, []models.Category) error { return nil },
		deleteFn:     func(context.Context, uint) ([]repository.Affected, error) { return nil, nil },
		categoriesFn: func(context.Context, uint) ([]models.Category, error) { return nil, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn       func(context.Context, *models.Comment) error
	getByIDFn      func(context.Context, uint) (*models.Comment, error)
	listByPostFn   func(context.Context, uint, query.Options) (query.Page[models.Comment], error)
	listChildrenFn func(context.Context, uint, query.Options) (query.Page[models.Comment], error)
	updateFn       func(context.Context, *models.Comment) error
	deleteTreeFn   func(context.Context, uint) ([]models.Comment, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint, opts query.Options) (query.Page[models.Comment], error) {
	return s.listByPostFn(ctx, postID, opts)
}
func (s *commentRepoStub) ListChildren(ctx context.Context, parentID uint, opts query.Options) (query.Page[models.Comment], error) {
	return s.listChildrenFn(ctx, parentID, opts)
}
func (s *commentRepoStub) Update(ctx context.Context, comment *models.Comment) error {
	return s.updateFn(ctx, comment)
}
func (s *commentRepoStub) DeleteTree(ctx context.Context, id uint) ([]models.Comment, error) {
	return s.deleteTreeFn(ctx, id)
}
func (s *commentRepoStub) LockForReaction(context.Context, uint) (*models.Comment, error) {
	panic("LockForReaction is owned by the vote coordinator")
}
func (s *commentRepoStub) AdjustReactionCount(context.Context, uint, models.ReactionType, int64) error {
	panic("AdjustReactionCount is owned by the vote coordinator")
}

// commentRepoWith serves the given comments by id and accepts every write.
func commentRepoWith(comments ...*models.Comment) *commentRepoStub {
	byID := make(map[uint]*models.Comment, len(comments))
	for _, c := range comments {
		byID[c.ID] = c
	}
	return &commentRepoStub{
		createFn: func(_ context.Context, c *models.Comment) error {
			c.ID = 500
			byID[c.ID] = c
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Comment, error) {
			c, ok := byID[id]
			if !ok {
				return nil, models.NewNotFoundError("Comment", id)
			}
			cp := *c
			return &cp, nil
		},
		listByPostFn: func(context.Context, uint, query.Options) (query.Page[models.Comment], error) {
			return query.Page[models.Comment]{}, nil
		},
		listChildrenFn: func(context.Context, uint, query.Options) (query.Page[models.Comment], error) {
			return query.Page[models.Comment]{}, nil
		},
		updateFn: func(_ context.Context, c *models.Comment) error {
			cp := *c
			byID[c.ID] = &cp
			return nil
		},
		deleteTreeFn: func(context.Context, uint) ([]models.Comment, error) { return nil, nil },
	}
}

// categoryRepoStub is a stub for repository.CategoryRepository.
type categoryRepoStub struct {
	createFn   func(context.Context, *models.Category) error
	getByIDFn  func(context.Context, uint) (*models.Category, error)
	getByIDsFn func(context.Context, []uint) ([]models.Category, error)
	listFn     func(context.Context, query.Options) (query.Page[models.Category], error)
	updateFn   func(context.Context, *models.Category) error
	deleteFn   func(context.Context, uint) error
}

func (s *categoryRepoStub) Create(ctx context.Context, c *models.Category) error {
	return s.createFn(ctx, c)
}
func (s *categoryRepoStub) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	return s.getByIDFn(ctx, id)
}
func (s *categoryRepoStub) GetByIDs(ctx context.Context, ids []uint) ([]models.Category, error) {
	return s.getByIDsFn(ctx, ids)
}
func (s *categoryRepoStub) List(ctx context.Context, opts query.Options) (query.Page[models.Category], error) {
	return s.listFn(ctx, opts)
}
func (s *categoryRepoStub) Update(ctx context.Context, c *models.Category) error {
	return s.updateFn(ctx, c)
}
func (s *categoryRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

// categoryRepoWith knows categories 1..n.
func categoryRepoWith(n uint) *categoryRepoStub {
	get := func(id uint) (*models.Category, error) {
		if id == 0 || id > n {
			return nil, models.NewNotFoundError("Category", id)
		}
		return &models.Category{ID: id, Title: "cat"}, nil
	}
	return &categoryRepoStub{
		createFn:  func(_ context.Context, c *models.Category) error { c.ID = n + 1; return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Category, error) { return get(id) },
		getByIDsFn: func(_ context.Context, ids []uint) ([]models.Category, error) {
			out := make([]models.Category, 0, len(ids))
			for _, id := range ids {
				c, err := get(id)
				if err != nil {
					return nil, err
				}
				out = append(out, *c)
			}
			return out, nil
		},
		listFn:   func(context.Context, query.Options) (query.Page[models.Category], error) { return query.Page[models.Category]{}, nil },
		updateFn: func(context.Context, *models.Category) error { return nil },
		deleteFn: func(context.Context, uint) error { return nil },
	}
}

// likeRepoStub is a stub for repository.LikeRepository. Only listing is
// reachable from the services.
type likeRepoStub struct {
	repository.LikeRepository
	listByTargetFn func(context.Context, models.EntityType, uint, models.ReactionType, query.Options) (query.Page[models.Like], error)
}

func (s *likeRepoStub) ListByTarget(ctx context.Context, kind models.EntityType, targetID uint, typ models.ReactionType, opts query.Options) (query.Page[models.Like], error) {
	return s.listByTargetFn(ctx, kind, targetID, typ, opts)
}

func noopLikeRepo() *likeRepoStub {
	return &likeRepoStub{
		listByTargetFn: func(context.Context, models.EntityType, uint, models.ReactionType, query.Options) (query.Page[models.Like], error) {
			return query.Page[models.Like]{}, nil
		},
	}
}

// reactorStub records the reactions routed to the coordinator.
type reactorStub struct {
	applied []vote.Target
	removed []vote.Target
	err     error
}

func (r *reactorStub) ApplyReaction(_ context.Context, t vote.Target, userID uint, typ models.ReactionType) (*models.Like, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.applied = append(r.applied, t)
	return &models.Like{UserID: userID, EntityType: t.Kind, TargetID: t.ID, Type: typ}, nil
}

func (r *reactorStub) RemoveReaction(_ context.Context, t vote.Target, _ uint, _ models.ReactionType) error {
	if r.err != nil {
		return r.err
	}
	r.removed = append(r.removed, t)
	return nil
}

// schedulerStub records scheduled recomputes.
type schedulerStub struct {
	mu   sync.Mutex
	jobs []repository.Affected
}

func (s *schedulerStub) Schedule(_ context.Context, userID uint, kind models.EntityType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, repository.Affected{UserID: userID, Kind: kind})
}

// assertCode asserts that err is an AppError with the given code.
func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}

// assertUnauthorizedError asserts that err is an AppError with code UNAUTHORIZED.
func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeUnauthorized)
}

func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeForbidden)
}

func ptr[T any](v T) *T { return &v }
