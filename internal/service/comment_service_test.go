package service

import (
	"context"
	"strings"
	"testing"

	"usof/internal/models"
	"usof/internal/query"
	"usof/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommentService(post *models.Post, comments ...*models.Comment) (*CommentService, *commentRepoStub, *reactorStub, *schedulerStub) {
	repo := commentRepoWith(comments...)
	reactor := &reactorStub{}
	scheduler := &schedulerStub{}
	return NewCommentService(repo, postRepoWith(post), noopLikeRepo(), reactor, scheduler), repo, reactor, scheduler
}

func activePost() *models.Post {
	return &models.Post{ID: 1, UserID: alice.ID, Status: models.PostActive}
}

func TestCommentService_CreateComment_Validation(t *testing.T) {
	t.Parallel()

	otherPostComment := &models.Comment{ID: 7, PostID: 2, UserID: bob.ID, Status: models.CommentActive}
	hiddenReply := &models.Comment{ID: 8, PostID: 1, UserID: bob.ID, Status: models.CommentInactive}

	tests := []struct {
		name   string
		post   *models.Post
		input  CreateCommentInput
		assert func(*testing.T, error)
	}{
		{
			name:   "anonymous",
			post:   activePost(),
			input:  CreateCommentInput{Actor: anon, PostID: 1, Content: "hello"},
			assert: assertUnauthorizedError,
		},
		{
			name:   "empty content",
			post:   activePost(),
			input:  CreateCommentInput{Actor: bob, PostID: 1, Content: "   "},
			assert: assertValidationError,
		},
		{
			name:   "content too long",
			post:   activePost(),
			input:  CreateCommentInput{Actor: bob, PostID: 1, Content: strings.Repeat("x", maxCommentLen+1)},
			assert: assertValidationError,
		},
		{
			name:   "locked post",
			post:   &models.Post{ID: 1, UserID: alice.ID, Status: models.PostLocked},
			input:  CreateCommentInput{Actor: bob, PostID: 1, Content: "hello"},
			assert: assertForbiddenError,
		},
		{
			name:   "parent on another post",
			post:   activePost(),
			input:  CreateCommentInput{Actor: bob, PostID: 1, ParentID: ptr(uint(7)), Content: "hello"},
			assert: assertValidationError,
		},
		{
			name:   "hidden parent",
			post:   activePost(),
			input:  CreateCommentInput{Actor: alice, PostID: 1, ParentID: ptr(uint(8)), Content: "hello"},
			assert: assertForbiddenError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc, _, _, _ := newCommentService(tc.post, otherPostComment, hiddenReply)
			_, err := svc.CreateComment(bgCtx, tc.input)
			tc.assert(t, err)
		})
	}
}

func TestCommentService_CreateComment_Reply(t *testing.T) {
	t.Parallel()

	parent := &models.Comment{ID: 3, PostID: 1, UserID: alice.ID, Status: models.CommentActive}
	svc, _, _, _ := newCommentService(activePost(), parent)

	comment, err := svc.CreateComment(bgCtx, CreateCommentInput{Actor: bob, PostID: 1, ParentID: &parent.ID, Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, uint(500), comment.ID)
	assert.Equal(t, bob.ID, comment.UserID)
	require.NotNil(t, comment.ParentCommentID)
	assert.Equal(t, parent.ID, *comment.ParentCommentID)

	locked := &models.Post{ID: 1, UserID: alice.ID, Status: models.PostLocked}
	svc, _, _, _ = newCommentService(locked)
	_, err = svc.CreateComment(bgCtx, CreateCommentInput{Actor: admin, PostID: 1, Content: "moderator note"})
	assert.NoError(t, err, "admins may comment on locked posts")
}

func TestCommentService_GetComment_Visibility(t *testing.T) {
	t.Parallel()

	inactive := &models.Comment{ID: 3, PostID: 1, UserID: bob.ID, Status: models.CommentInactive}
	svc, _, _, _ := newCommentService(activePost(), inactive)

	_, err := svc.GetComment(bgCtx, bob, 3)
	assert.NoError(t, err)
	_, err = svc.GetComment(bgCtx, admin, 3)
	assert.NoError(t, err)
	_, err = svc.GetComment(bgCtx, alice, 3)
	assertForbiddenError(t, err)
	_, err = svc.GetComment(bgCtx, anon, 3)
	assertUnauthorizedError(t, err)
	_, err = svc.GetComment(bgCtx, admin, 4)
	assertCode(t, err, models.CodeNotFound)
}

func TestCommentService_ListChildren(t *testing.T) {
	t.Parallel()

	parent := &models.Comment{ID: 3, PostID: 1, UserID: alice.ID, Status: models.CommentActive}
	svc, repo, _, _ := newCommentService(activePost(), parent)
	var (
		gotParent uint
		gotOpts   query.Options
	)
	repo.listChildrenFn = func(_ context.Context, id uint, opts query.Options) (query.Page[models.Comment], error) {
		gotParent, gotOpts = id, opts
		return query.Page[models.Comment]{Items: []models.Comment{}, Page: opts.Page}, nil
	}

	_, err := svc.ListChildren(bgCtx, anon, 3, query.Options{Page: 1, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, uint(3), gotParent)
	assert.Equal(t, "active", gotOpts.Filters.Status)
	assert.Equal(t, 5, gotOpts.Limit)

	_, err = svc.ListChildren(bgCtx, anon, 99, query.Options{Page: 1})
	assertCode(t, err, models.CodeNotFound)
}

func TestCommentService_ListPostComments_HiddenPost(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newCommentService(&models.Post{ID: 1, UserID: alice.ID, Status: models.PostInactive})
	_, err := svc.ListPostComments(bgCtx, bob, 1, query.Options{Page: 1})
	assertForbiddenError(t, err)

	_, err = svc.ListPostComments(bgCtx, alice, 1, query.Options{Page: 1})
	assert.NoError(t, err)
}

func TestCommentService_UpdateComment(t *testing.T) {
	t.Parallel()

	t.Run("non-owner is forbidden", func(t *testing.T) {
		t.Parallel()
		svc, _, _, _ := newCommentService(activePost(), &models.Comment{ID: 3, PostID: 1, UserID: alice.ID})
		_, err := svc.UpdateComment(bgCtx, UpdateCommentInput{Actor: bob, CommentID: 3, Content: ptr("new")})
		assertForbiddenError(t, err)
	})

	t.Run("empty content is invalid", func(t *testing.T) {
		t.Parallel()
		svc, _, _, _ := newCommentService(activePost(), &models.Comment{ID: 3, PostID: 1, UserID: bob.ID})
		_, err := svc.UpdateComment(bgCtx, UpdateCommentInput{Actor: bob, CommentID: 3, Content: ptr("")})
		assertValidationError(t, err)
	})

	t.Run("post must be active for the author", func(t *testing.T) {
		t.Parallel()
		locked := &models.Post{ID: 1, UserID: alice.ID, Status: models.PostLocked}
		svc, _, _, _ := newCommentService(locked, &models.Comment{ID: 3, PostID: 1, UserID: bob.ID})
		_, err := svc.UpdateComment(bgCtx, UpdateCommentInput{Actor: bob, CommentID: 3, Content: ptr("edit")})
		assertForbiddenError(t, err)

		_, err = svc.UpdateComment(bgCtx, UpdateCommentInput{Actor: admin, CommentID: 3, Status: ptr(models.CommentInactive)})
		assert.NoError(t, err)
	})

	t.Run("owner can update content", func(t *testing.T) {
		t.Parallel()
		svc, _, _, _ := newCommentService(activePost(), &models.Comment{ID: 3, PostID: 1, UserID: bob.ID, Content: "old"})
		comment, err := svc.UpdateComment(bgCtx, UpdateCommentInput{Actor: bob, CommentID: 3, Content: ptr("updated")})
		require.NoError(t, err)
		assert.Equal(t, "updated", comment.Content)
	})

	t.Run("invalid status", func(t *testing.T) {
		t.Parallel()
		svc, _, _, _ := newCommentService(activePost(), &models.Comment{ID: 3, PostID: 1, UserID: bob.ID})
		_, err := svc.UpdateComment(bgCtx, UpdateCommentInput{Actor: bob, CommentID: 3, Status: ptr(models.CommentStatus("locked"))})
		assertValidationError(t, err)
	})
}

func TestCommentService_DeleteComment_SchedulesDistinctAuthors(t *testing.T) {
	t.Parallel()

	root := &models.Comment{ID: 3, PostID: 1, UserID: bob.ID}
	svc, repo, _, scheduler := newCommentService(activePost(), root)
	repo.deleteTreeFn = func(_ context.Context, id uint) ([]models.Comment, error) {
		assert.Equal(t, uint(3), id)
		return []models.Comment{
			{ID: 3, UserID: bob.ID},
			{ID: 4, UserID: alice.ID},
			{ID: 5, UserID: bob.ID},
		}, nil
	}

	assertForbiddenError(t, svc.DeleteComment(bgCtx, alice, 3))
	require.NoError(t, svc.DeleteComment(bgCtx, bob, 3))
	assert.Equal(t, []repository.Affected{
		{UserID: bob.ID, Kind: models.EntityComment},
		{UserID: alice.ID, Kind: models.EntityComment},
	}, scheduler.jobs)
}

func TestCommentService_React(t *testing.T) {
	t.Parallel()

	t.Run("active comment", func(t *testing.T) {
		t.Parallel()
		svc, _, reactor, _ := newCommentService(activePost(), &models.Comment{ID: 3, PostID: 1, UserID: alice.ID, Status: models.CommentActive})
		_, err := svc.React(bgCtx, bob, 3, models.ReactionLike)
		require.NoError(t, err)
		require.Len(t, reactor.applied, 1)
		assert.Equal(t, models.EntityComment, reactor.applied[0].Kind)
		assert.Equal(t, uint(3), reactor.applied[0].ID)
	})

	t.Run("inactive comment", func(t *testing.T) {
		t.Parallel()
		svc, _, reactor, _ := newCommentService(activePost(), &models.Comment{ID: 3, PostID: 1, UserID: alice.ID, Status: models.CommentInactive})
		_, err := svc.React(bgCtx, bob, 3, models.ReactionLike)
		assertForbiddenError(t, err)
		assert.Empty(t, reactor.applied)
	})

	t.Run("remove passes not found through", func(t *testing.T) {
		t.Parallel()
		svc, _, reactor, _ := newCommentService(activePost(), &models.Comment{ID: 3, PostID: 1, UserID: alice.ID, Status: models.CommentActive})
		reactor.err = models.NewNotFoundError("Like", 3)
		assertCode(t, svc.Unreact(bgCtx, bob, 3, models.ReactionDislike), models.CodeNotFound)
	})
}
