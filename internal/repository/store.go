// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"slices"

	"usof/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store groups the repositories over one database handle. A Store obtained
// from Transaction is bound to that transaction.
type Store struct {
	db *gorm.DB

	Users      UserRepository
	Posts      PostRepository
	Comments   CommentRepository
	Categories CategoryRepository
	Likes      LikeRepository
	Favorites  FavoriteRepository
}

// NewStore wires every repository to db.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:         db,
		Users:      NewUserRepository(db),
		Posts:      NewPostRepository(db),
		Comments:   NewCommentRepository(db),
		Categories: NewCategoryRepository(db),
		Likes:      NewLikeRepository(db),
		Favorites:  NewFavoriteRepository(db),
	}
}

// DB returns the underlying handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn against a Store bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise; fn's
// error is returned unchanged.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// Affected names a user whose rating must be recomputed after a write.
type Affected struct {
	UserID uint
	Kind   models.EntityType
}

// affectedSet collects Affected values without duplicates, keeping insertion
// order.
type affectedSet struct {
	seen  map[Affected]struct{}
	items []Affected
}

func (s *affectedSet) add(userID uint, kind models.EntityType) {
	if s.seen == nil {
		s.seen = make(map[Affected]struct{})
	}
	a := Affected{UserID: userID, Kind: kind}
	if _, ok := s.seen[a]; ok {
		return
	}
	s.seen[a] = struct{}{}
	s.items = append(s.items, a)
}

func (s *affectedSet) merge(other []Affected) {
	for _, a := range other {
		s.add(a.UserID, a.Kind)
	}
}

// without drops every entry for userID, e.g. a user being deleted.
func (s *affectedSet) without(userID uint) []Affected {
	return slices.DeleteFunc(slices.Clone(s.items), func(a Affected) bool { return a.UserID == userID })
}

// lockRow adds FOR UPDATE where the dialect supports it. SQLite serialises
// writers already.
func lockRow(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// decrementFloor returns a relative decrement that never drops below zero.
func decrementFloor(column string, n int64) clause.Expr {
	return gorm.Expr("CASE WHEN "+column+" > ? THEN "+column+" - ? ELSE 0 END", n, n)
}

func counterColumn(typ models.ReactionType) string {
	if typ == models.ReactionDislike {
		return "dislikes_count"
	}
	return "likes_count"
}
