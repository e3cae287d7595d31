// Package bootstrap prepares the database and cache before the server or a
// tool starts using them.
package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"usof/internal/cache"
	"usof/internal/config"
	"usof/internal/database"
	"usof/internal/middleware"
	"usof/internal/models"
	"usof/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedCategories upserts the category fixtures (or the built-in list).
	SeedCategories bool
}

// InitRuntime connects to DB and Redis and optionally seeds categories.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := Prepare(cfg, db, opts); err != nil {
		return nil, nil, err
	}
	return db, r, nil
}

// Prepare runs the idempotent startup writes against an open database.
func Prepare(cfg *config.Config, db *gorm.DB, opts Options) error {
	if err := ensureDevRootAdmin(cfg, db); err != nil {
		return fmt.Errorf("failed to bootstrap development root admin: %w", err)
	}

	if opts.SeedCategories {
		items := seed.BuiltInCategories
		if cfg.SeedFixturesPath != "" {
			loaded, err := seed.LoadCategories(cfg.SeedFixturesPath)
			if err != nil {
				return err
			}
			items = loaded
		}
		if _, err := seed.Categories(db, items); err != nil {
			return fmt.Errorf("failed to seed categories: %w", err)
		}
	}
	return nil
}

func ensureDevRootAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapRoot {
		return nil
	}

	login := strings.TrimSpace(cfg.DevRootLogin)
	if login == "" {
		login = "root"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevRootEmail))
	if email == "" {
		email = "root@usof.local"
	}
	password := cfg.DevRootPassword
	if password == "" {
		return errors.New("DEV_ROOT_PASSWORD must be set when DEV_BOOTSTRAP_ROOT is enabled")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		var root models.User
		findErr := tx.Where("login = ?", login).First(&root).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			root = models.User{
				Login:    login,
				FullName: "Root Admin",
				Email:    email,
				Password: string(hashedPassword),
				Verified: true,
				Role:     models.RoleAdmin,
			}
			return tx.Create(&root).Error
		case findErr != nil:
			return findErr
		default:
			updates := map[string]any{"role": models.RoleAdmin}
			if cfg.DevRootForceCredentials {
				updates["email"] = email
				updates["password"] = string(hashedPassword)
			}
			return tx.Model(&models.User{}).Where("id = ?", root.ID).Updates(updates).Error
		}
	}); err != nil {
		return err
	}

	middleware.Logger.Info("development root admin ensured", slog.String("login", login), slog.String("email", email))
	return nil
}
