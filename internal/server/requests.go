package server

import (
	"time"

	"usof/internal/models"
)

type createPostRequest struct {
	Title       string            `json:"title" validate:"required,max=255"`
	Content     string            `json:"content" validate:"required"`
	Images      []string          `json:"images" validate:"max=10,dive,required,max=255"`
	Categories  []uint            `json:"categories" validate:"required,min=1,dive,gt=0"`
	Status      models.PostStatus `json:"status" validate:"omitempty,oneof=active inactive locked"`
	PublishDate *time.Time        `json:"publish_date"`
}

type updatePostRequest struct {
	Title      *string            `json:"title" validate:"omitempty,max=255"`
	Content    *string            `json:"content"`
	Images     []string           `json:"images" validate:"omitempty,max=10,dive,required,max=255"`
	Categories []uint             `json:"categories" validate:"omitempty,min=1,dive,gt=0"`
	Status     *models.PostStatus `json:"status" validate:"omitempty,oneof=active inactive locked"`
}

type createCommentRequest struct {
	Content  string `json:"content" validate:"required"`
	ParentID *uint  `json:"parent_id" validate:"omitempty,gt=0"`
}

type updateCommentRequest struct {
	Content *string               `json:"content"`
	Status  *models.CommentStatus `json:"status" validate:"omitempty,oneof=active inactive"`
}

type reactionRequest struct {
	Type models.ReactionType `json:"type" validate:"required,oneof=like dislike"`
}

type categoryRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

type createUserRequest struct {
	Login                string      `json:"login" validate:"required,login"`
	Password             string      `json:"password" validate:"required,password"`
	PasswordConfirmation string      `json:"password_confirmation" validate:"required,eqfield=Password"`
	FullName             string      `json:"full_name" validate:"omitempty,full_name"`
	Email                string      `json:"email" validate:"required,mailbox"`
	Verified             bool        `json:"verified"`
	ProfilePicture       string      `json:"profile_picture" validate:"max=255"`
	Role                 models.Role `json:"role" validate:"omitempty,oneof=user admin"`
}

type updateUserRequest struct {
	Login          *string      `json:"login" validate:"omitempty,login"`
	Password       *string      `json:"password" validate:"omitempty,password"`
	FullName       *string      `json:"full_name" validate:"omitempty,full_name"`
	Email          *string      `json:"email" validate:"omitempty,mailbox"`
	Verified       *bool        `json:"verified"`
	ProfilePicture *string      `json:"profile_picture" validate:"omitempty,max=255"`
	Role           *models.Role `json:"role" validate:"omitempty,oneof=user admin"`
}

type favoriteRequest struct {
	PostID uint `json:"post_id" validate:"required,gt=0"`
}
