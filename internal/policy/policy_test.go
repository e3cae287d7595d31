package policy

import (
	"testing"

	"usof/internal/models"

	"github.com/stretchr/testify/assert"
)

var (
	author   = Actor{ID: 1, Role: models.RoleUser}
	stranger = Actor{ID: 2, Role: models.RoleUser}
	admin    = Actor{ID: 3, Role: models.RoleAdmin}
)

func post(status models.PostStatus) *models.Post {
	return &models.Post{ID: 10, UserID: author.ID, Status: status}
}

func comment(status models.CommentStatus) *models.Comment {
	return &models.Comment{ID: 20, UserID: author.ID, PostID: 10, Status: status}
}

func TestCanViewPost(t *testing.T) {
	tests := []struct {
		name   string
		actor  Actor
		status models.PostStatus
		want   bool
	}{
		{"anyone sees active", Anonymous, models.PostActive, true},
		{"stranger cannot see inactive", stranger, models.PostInactive, false},
		{"anonymous cannot see locked", Anonymous, models.PostLocked, false},
		{"author sees inactive", author, models.PostInactive, true},
		{"admin sees locked", admin, models.PostLocked, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanViewPost(tt.actor, post(tt.status)))
		})
	}
}

func TestCanMutatePost(t *testing.T) {
	p := post(models.PostActive)
	assert.True(t, CanMutatePost(author, p))
	assert.True(t, CanMutatePost(admin, p))
	assert.False(t, CanMutatePost(stranger, p))
	assert.False(t, CanMutatePost(Anonymous, &models.Post{UserID: 0}), "anonymous never owns a post")
}

func TestCanReactToPost(t *testing.T) {
	assert.True(t, CanReactToPost(stranger, post(models.PostActive)))
	assert.False(t, CanReactToPost(stranger, post(models.PostLocked)))
	assert.False(t, CanReactToPost(author, post(models.PostInactive)), "authors are bound by status too")
	assert.True(t, CanReactToPost(admin, post(models.PostLocked)))
	assert.False(t, CanReactToPost(Anonymous, post(models.PostActive)))
}

func TestCanReactToComment(t *testing.T) {
	assert.True(t, CanReactToComment(stranger, comment(models.CommentActive), post(models.PostActive)))
	assert.False(t, CanReactToComment(stranger, comment(models.CommentInactive), post(models.PostActive)))
	assert.False(t, CanReactToComment(stranger, comment(models.CommentActive), post(models.PostLocked)))
	assert.True(t, CanReactToComment(admin, comment(models.CommentInactive), post(models.PostLocked)))
}

func TestCanViewComment(t *testing.T) {
	assert.True(t, CanViewComment(Anonymous, comment(models.CommentActive), post(models.PostActive)))
	assert.False(t, CanViewComment(stranger, comment(models.CommentActive), post(models.PostInactive)))
	assert.False(t, CanViewComment(stranger, comment(models.CommentInactive), post(models.PostActive)))
	assert.True(t, CanViewComment(author, comment(models.CommentInactive), post(models.PostInactive)))
	assert.True(t, CanViewComment(admin, comment(models.CommentInactive), post(models.PostLocked)))
}

func TestCanComment(t *testing.T) {
	assert.True(t, CanComment(stranger, post(models.PostActive)))
	assert.False(t, CanComment(author, post(models.PostLocked)))
	assert.True(t, CanComment(admin, post(models.PostLocked)))
	assert.False(t, CanComment(Anonymous, post(models.PostActive)))
}

func TestCanMutateCommentAndUser(t *testing.T) {
	c := comment(models.CommentActive)
	assert.True(t, CanMutateComment(author, c))
	assert.True(t, CanMutateComment(admin, c))
	assert.False(t, CanMutateComment(stranger, c))

	assert.True(t, CanMutateUser(stranger, stranger.ID))
	assert.False(t, CanMutateUser(stranger, author.ID))
	assert.True(t, CanMutateUser(admin, author.ID))
	assert.False(t, CanMutateUser(Anonymous, 0))
}

func TestActorFor(t *testing.T) {
	assert.Equal(t, Anonymous, ActorFor(nil))
	assert.Equal(t, Actor{ID: 7, Role: models.RoleAdmin}, ActorFor(&models.User{ID: 7, Role: models.RoleAdmin}))
}
