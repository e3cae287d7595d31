package seed

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"usof/internal/database"
	"usof/internal/middleware"
	"usof/internal/models"
	"usof/internal/repository"
	"usof/internal/vote"

	"gorm.io/gorm"
)

// Reactor records reactions so counters and ratings stay consistent.
// *vote.Coordinator implements it.
type Reactor interface {
	ApplyReaction(ctx context.Context, t vote.Target, userID uint, typ models.ReactionType) (*models.Like, error)
}

// Options configure a seeding run.
type Options struct {
	NumUsers         int
	NumPosts         int
	CommentsPerPost  int
	ReactionsPerPost int
	ShouldClean      bool
	// CategoriesFile is a YAML fixtures file; empty uses BuiltInCategories.
	CategoriesFile string
	Factory        SeedOptions
}

// Summary counts the rows a run created.
type Summary struct {
	Users      int
	Categories int
	Posts      int
	Comments   int
	Reactions  int
}

// Seed populates the database with demo users, categories, posts, comment
// trees and reactions. Reactions go through reactor.
func Seed(ctx context.Context, db *gorm.DB, reactor Reactor, opts Options) (Summary, error) {
	var sum Summary
	log := middleware.Logger.With(slog.String("component", "seed"))
	log.Info("starting database seeding", slog.Int("users", opts.NumUsers), slog.Int("posts", opts.NumPosts))

	if opts.ShouldClean {
		if err := Clean(db); err != nil {
			return sum, fmt.Errorf("clean database: %w", err)
		}
	}

	items := BuiltInCategories
	if opts.CategoriesFile != "" {
		loaded, err := LoadCategories(opts.CategoriesFile)
		if err != nil {
			return sum, err
		}
		items = loaded
	}
	categories, err := Categories(db, items)
	if err != nil {
		return sum, err
	}
	sum.Categories = len(categories)

	store := repository.NewStore(db)
	factory, err := NewFactory(store, opts.Factory)
	if err != nil {
		return sum, err
	}

	users := make([]*models.User, 0, opts.NumUsers)
	for range opts.NumUsers {
		user, err := factory.CreateUser(ctx)
		if err != nil {
			return sum, fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)
	}
	sum.Users = len(users)
	if len(users) == 0 {
		log.Info("no users requested, skipping content")
		return sum, nil
	}

	for i := range opts.NumPosts {
		author := users[factory.Number(0, len(users)-1)]
		post, err := factory.CreatePost(ctx, author, categories)
		if err != nil {
			return sum, fmt.Errorf("create post: %w", err)
		}
		sum.Posts++

		comments, err := seedComments(ctx, factory, users, post, opts.CommentsPerPost)
		sum.Comments += len(comments)
		if err != nil {
			return sum, err
		}

		n, err := seedReactions(ctx, factory, reactor, users, vote.Target{ID: post.ID, Kind: models.EntityPost}, opts.ReactionsPerPost)
		sum.Reactions += n
		if err != nil {
			return sum, err
		}
		for _, c := range comments {
			n, err := seedReactions(ctx, factory, reactor, users, vote.Target{ID: c.ID, Kind: models.EntityComment}, opts.ReactionsPerPost/2)
			sum.Reactions += n
			if err != nil {
				return sum, err
			}
		}

		if (i+1)%100 == 0 {
			log.Info("seeded posts", slog.Int("count", i+1))
		}
	}

	log.Info("database seeding completed",
		slog.Int("users", sum.Users),
		slog.Int("categories", sum.Categories),
		slog.Int("posts", sum.Posts),
		slog.Int("comments", sum.Comments),
		slog.Int("reactions", sum.Reactions),
	)
	return sum, nil
}

// seedComments creates up to n comments on post. Roughly a third reply to
// an earlier comment.
func seedComments(ctx context.Context, f *Factory, users []*models.User, post *models.Post, n int) ([]*models.Comment, error) {
	if n <= 0 {
		return nil, nil
	}
	comments := make([]*models.Comment, 0, n)
	for range f.Number(0, n) {
		var parent *models.Comment
		if len(comments) > 0 && f.Number(1, 3) == 1 {
			parent = comments[f.Number(0, len(comments)-1)]
		}
		author := users[f.Number(0, len(users)-1)]
		comment, err := f.CreateComment(ctx, author, post, parent)
		if err != nil {
			return comments, fmt.Errorf("create comment on post %d: %w", post.ID, err)
		}
		comments = append(comments, comment)
	}
	return comments, nil
}

// seedReactions has up to n distinct users react to t.
func seedReactions(ctx context.Context, f *Factory, reactor Reactor, users []*models.User, t vote.Target, n int) (int, error) {
	created := 0
	for _, i := range f.Pick(len(users), f.Number(0, max(n, 0))) {
		if _, err := reactor.ApplyReaction(ctx, t, users[i].ID, f.Reaction()); err != nil {
			return created, fmt.Errorf("react to %s %d: %w", t.Kind, t.ID, err)
		}
		created++
	}
	return created, nil
}

// Clean removes every forum row, children first.
func Clean(db *gorm.DB) error {
	middleware.Logger.Info("clearing existing data")
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM post_categories").Error; err != nil {
			return err
		}
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range slices.Backward(database.PersistentModels()) {
			if err := all.Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
