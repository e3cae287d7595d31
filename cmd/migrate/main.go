// Command migrate runs schema operations for the backend.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"usof/internal/config"
	"usof/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate/main.go <auto|status>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	switch cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0))); cmd {
	case "auto":
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		log.Println("automigrations applied")
	case "status":
		missing := 0
		for _, model := range database.PersistentModels() {
			ok := db.Migrator().HasTable(model)
			if !ok {
				missing++
			}
			log.Printf("%T present=%t", model, ok)
		}
		if !db.Migrator().HasTable("post_categories") {
			missing++
			log.Println("post_categories present=false")
		}
		log.Printf("env=%s missing=%d", cfg.Env, missing)
	default:
		return usage()
	}

	return nil
}
