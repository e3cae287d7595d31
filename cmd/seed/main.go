// Command main runs the database seeder for the usof forum.
package main

import (
	"context"
	"flag"
	"log"

	"usof/internal/config"
	"usof/internal/database"
	"usof/internal/rating"
	"usof/internal/repository"
	"usof/internal/seed"
	"usof/internal/vote"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	comments := flag.Int("comments", 6, "Maximum comments per post")
	reactions := flag.Int("reactions", 10, "Maximum reactions per post")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fast := flag.Bool("fast", true, "Hash the shared password with the minimum bcrypt cost")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = time based)")
	categories := flag.String("categories", "", "YAML category fixtures (defaults to SEED_FIXTURES_PATH)")
	flag.Parse()

	log.Printf("Target: %d users, %d posts, clean=%v", *numUsers, *numPosts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	fixtures := *categories
	if fixtures == "" {
		fixtures = cfg.SeedFixturesPath
	}

	// Ratings are recomputed inline so the run finishes with final values.
	reactor := vote.NewCoordinator(repository.NewStore(db), rating.NewInline(rating.NewEngine(db)))

	sum, err := seed.Seed(context.Background(), db, reactor, seed.Options{
		NumUsers:         *numUsers,
		NumPosts:         *numPosts,
		CommentsPerPost:  *comments,
		ReactionsPerPost: *reactions,
		ShouldClean:      *shouldClean,
		CategoriesFile:   fixtures,
		Factory:          seed.SeedOptions{SkipBcrypt: *fast, RandSeed: *randSeed},
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d categories, %d posts, %d comments, %d reactions",
		sum.Users, sum.Categories, sum.Posts, sum.Comments, sum.Reactions)
	log.Printf("All generated users have the password: %s", seed.DefaultPassword)
}
