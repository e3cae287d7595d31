// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// PostStatus is the visibility state of a post.
type PostStatus string

const (
	PostActive   PostStatus = "active"
	PostInactive PostStatus = "inactive"
	PostLocked   PostStatus = "locked"
)

// Valid reports whether s is a known post status.
func (s PostStatus) Valid() bool {
	switch s {
	case PostActive, PostInactive, PostLocked:
		return true
	}
	return false
}

// Post represents a question or discussion thread.
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	Author      *User      `gorm:"foreignKey:UserID" json:"author,omitempty"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	Status      PostStatus `gorm:"type:varchar(10);not null;default:active;index" json:"status"`
	PublishDate time.Time  `gorm:"not null;index" json:"publish_date"`
	Images      []string   `gorm:"serializer:json;type:text" json:"images"`
	Categories  []Category `gorm:"many2many:post_categories" json:"categories,omitempty"`
	// Counters are maintained by the vote coordinator and the comment tree
	// service only.
	LikesCount    int64     `gorm:"not null;default:0" json:"likes_count"`
	DislikesCount int64     `gorm:"not null;default:0" json:"dislikes_count"`
	CommentsCount int64     `gorm:"not null;default:0" json:"comments_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BeforeCreate sets the status and publish date when the caller left them empty.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.Status == "" {
		p.Status = PostActive
	}
	if p.PublishDate.IsZero() {
		p.PublishDate = time.Now().UTC()
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return nil
}
