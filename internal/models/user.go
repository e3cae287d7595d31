// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Ratings are rendered as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Role is the privilege level of a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Rating bounds shared by publisher and commentator ratings.
var (
	MinRating = decimal.NewFromInt(1)
	MaxRating = decimal.NewFromInt(10)
)

// User represents a forum member.
type User struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	Login             string          `gorm:"size:20;uniqueIndex;not null" json:"login"`
	Password          string          `gorm:"not null" json:"-"`
	FullName          string          `gorm:"size:100;not null" json:"full_name"`
	Email             string          `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Verified          bool            `gorm:"not null;default:false" json:"verified"`
	ProfilePicture    string          `gorm:"size:255" json:"profile_picture"`
	Role              Role            `gorm:"type:varchar(10);not null;default:user" json:"role"`
	PublisherRating   decimal.Decimal `gorm:"type:decimal(4,2);not null;default:1" json:"publisher_rating"`
	CommentatorRating decimal.Decimal `gorm:"type:decimal(4,2);not null;default:1" json:"commentator_rating"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// BeforeCreate fills the defaults the database would otherwise assign, so
// the struct reflects the stored row without a reload.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.PublisherRating.LessThan(MinRating) {
		u.PublisherRating = MinRating
	}
	if u.CommentatorRating.LessThan(MinRating) {
		u.CommentatorRating = MinRating
	}
	return nil
}
