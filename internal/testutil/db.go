// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"usof/internal/database"
	"usof/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB returns a migrated in-memory SQLite database private to the test.
// The pool is pinned to one connection so every query sees the same
// in-memory database; code under test must not use the outer handle while
// a transaction is open.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateUser inserts a regular user with the given login.
func CreateUser(t *testing.T, db *gorm.DB, login string) *models.User {
	t.Helper()
	return createUser(t, db, login, models.RoleUser)
}

// CreateAdmin inserts an admin user with the given login.
func CreateAdmin(t *testing.T, db *gorm.DB, login string) *models.User {
	t.Helper()
	return createUser(t, db, login, models.RoleAdmin)
}

func createUser(t *testing.T, db *gorm.DB, login string, role models.Role) *models.User {
	user := &models.User{
		Login:    login,
		Password: "$2a$10$fixturefixturefixturefixturefixturefixturefixturefix",
		FullName: "Test User",
		Email:    fmt.Sprintf("%s@example.com", login),
		Role:     role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateCategory inserts a category.
func CreateCategory(t *testing.T, db *gorm.DB, title string) *models.Category {
	t.Helper()
	category := &models.Category{Title: title, Description: title + " questions"}
	require.NoError(t, db.Create(category).Error)
	return category
}

// CreatePost inserts an active post by authorID. Mutators run before insert.
func CreatePost(t *testing.T, db *gorm.DB, authorID uint, mutate ...func(*models.Post)) *models.Post {
	t.Helper()
	post := &models.Post{
		UserID:  authorID,
		Title:   "How do I write a test?",
		Content: "Looking for examples of table driven tests.",
		Status:  models.PostActive,
	}
	for _, m := range mutate {
		m(post)
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

// CreateComment inserts a comment and keeps the post's comments_count in step.
func CreateComment(t *testing.T, db *gorm.DB, authorID, postID uint, parentID *uint) *models.Comment {
	t.Helper()
	comment := &models.Comment{
		UserID:          authorID,
		PostID:          postID,
		ParentCommentID: parentID,
		Content:         "Have you tried testify?",
	}
	require.NoError(t, db.Create(comment).Error)
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", postID).
		UpdateColumn("comments_count", gorm.Expr("comments_count + ?", 1)).Error)
	return comment
}

// Reload fetches a fresh copy of the row with the given primary key.
func Reload[T any](t *testing.T, db *gorm.DB, id uint) *T {
	t.Helper()
	var out T
	require.NoError(t, db.First(&out, id).Error)
	return &out
}

// Exists reports whether a row with the given primary key is present.
func Exists[T any](t *testing.T, db *gorm.DB, id uint) bool {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(new(T)).Where("id = ?", id).Count(&count).Error)
	return count > 0
}

// UintPtr returns a pointer to v.
func UintPtr(v uint) *uint {
	return &v
}
