package models

import (
	"time"

	"gorm.io/gorm"
)

// CommentStatus is the visibility state of a comment.
type CommentStatus string

const (
	CommentActive   CommentStatus = "active"
	CommentInactive CommentStatus = "inactive"
)

// Valid reports whether s is a known comment status.
func (s CommentStatus) Valid() bool {
	return s == CommentActive || s == CommentInactive
}

// Comment is an answer on a post, or a reply to another comment when
// ParentCommentID is set.
type Comment struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	UserID          uint          `gorm:"not null;index" json:"user_id"`
	Author          *User         `gorm:"foreignKey:UserID" json:"author,omitempty"`
	PostID          uint          `gorm:"not null;index" json:"post_id"`
	ParentCommentID *uint         `gorm:"index" json:"parent_comment_id"`
	Content         string        `gorm:"type:text;not null" json:"content"`
	Status          CommentStatus `gorm:"type:varchar(10);not null;default:active" json:"status"`
	LikesCount      int64         `gorm:"not null;default:0" json:"likes_count"`
	DislikesCount   int64         `gorm:"not null;default:0" json:"dislikes_count"`
	CreatedAt       time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.Status == "" {
		c.Status = CommentActive
	}
	return nil
}
