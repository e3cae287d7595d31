// Package main provides admin management utilities for the usof forum.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"usof/internal/config"
	"usof/internal/database"
	"usof/internal/models"
	"usof/internal/rating"
	"usof/internal/repository"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <user_id>            - Promote user to admin")
	fmt.Println("  go run ./cmd/admin demote <user_id>             - Demote admin to user")
	fmt.Println("  go run ./cmd/admin list-admins                  - List all admins")
	fmt.Println("  go run ./cmd/admin recompute-ratings [user_id]  - Rebuild ratings for one or all users")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	ctx := context.Background()
	users := repository.NewUserRepository(db)

	switch command := os.Args[1]; command {
	case "promote":
		setRole(ctx, users, userIDArg(), models.RoleAdmin)
	case "demote":
		setRole(ctx, users, userIDArg(), models.RoleUser)
	case "list-admins":
		listAdmins(ctx, users)
	case "recompute-ratings":
		engine := rating.NewEngine(db)
		if len(os.Args) > 2 {
			recomputeUser(ctx, engine, userIDArg())
			return
		}
		n, err := engine.RecomputeAll(ctx)
		if err != nil {
			log.Fatalf("Recompute stopped after %d users: %v", n, err)
		}
		fmt.Printf("Recomputed ratings for %d users\n", n)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
	}
}

func userIDArg() uint {
	if len(os.Args) < 3 {
		usage()
	}
	id, err := strconv.ParseUint(os.Args[2], 10, 64)
	if err != nil || id == 0 {
		fmt.Printf("Invalid user ID: %s\n", os.Args[2])
		os.Exit(1)
	}
	return uint(id)
}

func setRole(ctx context.Context, users repository.UserRepository, id uint, role models.Role) {
	user, err := users.GetByID(ctx, id)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			fmt.Printf("User with ID %d not found\n", id)
			os.Exit(1)
		}
		log.Fatalf("Database error: %v", err)
	}

	if user.Role == role {
		fmt.Printf("User %s (ID: %d) already has role %s\n", user.Login, user.ID, role)
		return
	}

	if err := users.SetRole(ctx, id, role); err != nil {
		log.Fatalf("Failed to change role: %v", err)
	}
	fmt.Printf("Changed role of %s (ID: %d) to %s\n", user.Login, user.ID, role)
}

func listAdmins(ctx context.Context, users repository.UserRepository) {
	admins, err := users.ListByRole(ctx, models.RoleAdmin)
	if err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}

	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return
	}

	fmt.Println("\nCurrent Admins:")
	fmt.Println("─────────────────────────────────────")
	for _, admin := range admins {
		fmt.Printf("ID: %d | Login: %s | Email: %s\n", admin.ID, admin.Login, admin.Email)
	}
	fmt.Println("─────────────────────────────────────")
}

func recomputeUser(ctx context.Context, engine *rating.Engine, id uint) {
	for _, kind := range []models.EntityType{models.EntityPost, models.EntityComment} {
		column, err := rating.Column(kind)
		if err != nil {
			log.Fatal(err)
		}
		value, err := engine.Recompute(ctx, id, kind)
		if err != nil {
			log.Fatalf("Failed to recompute %s: %v", column, err)
		}
		fmt.Printf("User %d %s = %s\n", id, column, value)
	}
}
