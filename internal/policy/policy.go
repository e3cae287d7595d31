// Package policy holds the forum's authorization rules as pure predicates.
// Callers resolve the actor and load the target; nothing here touches
// storage.
package policy

import "usof/internal/models"

// Actor is the caller of an operation. The zero value is an anonymous user.
type Actor struct {
	ID   uint
	Role models.Role
}

// Anonymous is the actor for unauthenticated requests.
var Anonymous = Actor{Role: models.RoleUser}

// ActorFor builds the actor for a loaded user.
func ActorFor(u *models.User) Actor {
	if u == nil {
		return Anonymous
	}
	return Actor{ID: u.ID, Role: u.Role}
}

// IsAdmin reports whether the actor holds the admin role.
func IsAdmin(a Actor) bool {
	return a.Role == models.RoleAdmin
}

// IsAuthenticated reports whether the actor is a signed-in user.
func IsAuthenticated(a Actor) bool {
	return a.ID != 0
}

func owns(a Actor, authorID uint) bool {
	return a.ID != 0 && a.ID == authorID
}

// CanViewPost allows active posts to everyone; other posts only to their
// author and admins.
func CanViewPost(a Actor, p *models.Post) bool {
	return p.Status == models.PostActive || IsAdmin(a) || owns(a, p.UserID)
}

// CanMutatePost allows the author and admins.
func CanMutatePost(a Actor, p *models.Post) bool {
	return owns(a, p.UserID) || IsAdmin(a)
}

// CanReactToPost requires a signed-in actor and an active post. Admins may
// react to inactive or locked posts.
func CanReactToPost(a Actor, p *models.Post) bool {
	if !IsAuthenticated(a) {
		return false
	}
	return IsAdmin(a) || p.Status == models.PostActive
}

// CanReactToComment requires an active comment on an active post unless the
// actor is an admin.
func CanReactToComment(a Actor, c *models.Comment, p *models.Post) bool {
	if !IsAuthenticated(a) {
		return false
	}
	return IsAdmin(a) || (c.Status == models.CommentActive && p.Status == models.PostActive)
}

// CanViewComment follows the parent post's visibility. Inactive comments
// are hidden from everyone but their author and admins.
func CanViewComment(a Actor, c *models.Comment, p *models.Post) bool {
	if !CanViewPost(a, p) {
		return false
	}
	return c.Status == models.CommentActive || IsAdmin(a) || owns(a, c.UserID)
}

// CanMutateComment allows the author and admins.
func CanMutateComment(a Actor, c *models.Comment) bool {
	return owns(a, c.UserID) || IsAdmin(a)
}

// CanComment requires a signed-in actor and an active post. Locked posts
// accept comments from admins only.
func CanComment(a Actor, p *models.Post) bool {
	if !IsAuthenticated(a) {
		return false
	}
	return IsAdmin(a) || p.Status == models.PostActive
}

// CanMutateUser allows users to change themselves and admins to change
// anyone.
func CanMutateUser(a Actor, userID uint) bool {
	return owns(a, userID) || IsAdmin(a)
}
