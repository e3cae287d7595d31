package models

import "time"

// EntityType names the kind of object a reaction targets.
type EntityType string

const (
	EntityPost    EntityType = "post"
	EntityComment EntityType = "comment"
)

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool {
	return t == EntityPost || t == EntityComment
}

// ReactionType is either a like or a dislike.
type ReactionType string

const (
	ReactionLike    ReactionType = "like"
	ReactionDislike ReactionType = "dislike"
)

// Valid reports whether t is a known reaction type.
func (t ReactionType) Valid() bool {
	return t == ReactionLike || t == ReactionDislike
}

// Opposite returns the mutually exclusive reaction.
func (t ReactionType) Opposite() ReactionType {
	if t == ReactionLike {
		return ReactionDislike
	}
	return ReactionLike
}

// Like records one user's reaction to a post or a comment.
// Exactly one of PostID and CommentID is set, matching EntityType, and
// TargetID mirrors it so (UserID, EntityType, TargetID) can be unique
// without relying on NULL comparison semantics.
type Like struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	UserID      uint         `gorm:"not null;uniqueIndex:idx_likes_user_target,priority:1" json:"user_id"`
	Author      *User        `gorm:"foreignKey:UserID" json:"author,omitempty"`
	EntityType  EntityType   `gorm:"type:varchar(10);not null;uniqueIndex:idx_likes_user_target,priority:2;index:idx_likes_target,priority:1" json:"entity_type"`
	TargetID    uint         `gorm:"not null;uniqueIndex:idx_likes_user_target,priority:3;index:idx_likes_target,priority:2" json:"-"`
	PostID      *uint        `gorm:"index" json:"post_id,omitempty"`
	CommentID   *uint        `gorm:"index" json:"comment_id,omitempty"`
	Type        ReactionType `gorm:"type:varchar(10);not null" json:"type"`
	PublishDate time.Time    `gorm:"autoCreateTime" json:"publish_date"`
}
