// Package seed provides helpers to create demo data for the forum database.
// These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"usof/internal/models"
	"usof/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the password of every generated account.
const DefaultPassword = "Password123"

// SeedOptions tune how the factory generates rows.
type SeedOptions struct {
	// SkipBcrypt hashes DefaultPassword with the minimum cost.
	SkipBcrypt bool
	// MaxDays bounds how far back publish dates are spread.
	MaxDays int
	// RandSeed makes the generated content reproducible when non-zero.
	RandSeed int64
}

// Factory builds domain entities and persists them through the repositories.
type Factory struct {
	store  *repository.Store
	opts   SeedOptions
	faker  *gofakeit.Faker
	hashed string
	serial int
}

// NewFactory creates a Factory bound to store.
func NewFactory(store *repository.Store, opts SeedOptions) (*Factory, error) {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}

	cost := bcrypt.DefaultCost
	if opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	return &Factory{store: store, opts: opts, faker: gofakeit.New(seed), hashed: string(hashed)}, nil
}

// login derives a unique login from a first name.
func (f *Factory) login(first string) string {
	f.serial++
	base := strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, first)
	if len(base) < 3 {
		base = "user"
	}
	if len(base) > 12 {
		base = base[:12]
	}
	return fmt.Sprintf("%s%d", base, f.serial)
}

// pastDate returns a moment within the last MaxDays days.
func (f *Factory) pastDate() time.Time {
	back := time.Duration(f.faker.Number(0, f.opts.MaxDays*24*60)) * time.Minute
	return time.Now().UTC().Add(-back)
}

// CreateUser persists a generated user. Overrides run before insert.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	first, last := f.faker.FirstName(), f.faker.LastName()
	login := f.login(first)
	user := &models.User{
		Login:          login,
		Password:       f.hashed,
		FullName:       first + " " + last,
		Email:          login + "@example.com",
		Verified:       f.faker.Bool(),
		ProfilePicture: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", login),
		Role:           models.RoleUser,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.store.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost persists a generated post by author filed under one to three of
// categories.
func (f *Factory) CreatePost(ctx context.Context, author *models.User, categories []models.Category, overrides ...func(*models.Post)) (*models.Post, error) {
	title := strings.TrimSuffix(f.faker.Question(), "?") + "?"
	if len(title) > 255 {
		title = title[:254] + "?"
	}
	post := &models.Post{
		UserID:      author.ID,
		Title:       title,
		Content:     f.faker.Paragraph(1, 3, 12, "\n\n"),
		Status:      models.PostActive,
		PublishDate: f.pastDate(),
	}
	if f.faker.Number(1, 10) == 1 {
		post.Status = models.PostInactive
	}
	if f.faker.Number(1, 4) == 1 {
		post.Images = []string{fmt.Sprintf("https://picsum.photos/seed/%s/800/600", f.faker.UUID())}
	}
	if len(categories) > 0 {
		n := f.faker.Number(1, min(3, len(categories)))
		for _, i := range f.faker.Rand.Perm(len(categories))[:n] {
			post.Categories = append(post.Categories, categories[i])
		}
	}
	for _, override := range overrides {
		override(post)
	}
	if err := f.store.Posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a generated comment, as a reply when parent is set.
func (f *Factory) CreateComment(ctx context.Context, author *models.User, post *models.Post, parent *models.Comment, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		UserID:  author.ID,
		PostID:  post.ID,
		Content: f.faker.Sentence(f.faker.Number(4, 20)),
	}
	if parent != nil {
		comment.ParentCommentID = &parent.ID
	}
	for _, override := range overrides {
		override(comment)
	}
	if err := f.store.Comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Reaction picks a like three times out of four.
func (f *Factory) Reaction() models.ReactionType {
	if f.faker.Number(1, 4) == 1 {
		return models.ReactionDislike
	}
	return models.ReactionLike
}

// Pick returns up to n distinct indexes below size.
func (f *Factory) Pick(size, n int) []int {
	if n > size {
		n = size
	}
	if n <= 0 {
		return nil
	}
	return f.faker.Rand.Perm(size)[:n]
}

// Number returns a random int in [lo, hi].
func (f *Factory) Number(lo, hi int) int {
	return f.faker.Number(lo, hi)
}
