// Package server contains the HTTP handlers for the forum API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	_ "usof/docs" // swagger docs
	"usof/internal/cache"
	"usof/internal/config"
	"usof/internal/database"
	"usof/internal/featureflags"
	"usof/internal/middleware"
	"usof/internal/models"
	"usof/internal/policy"
	"usof/internal/rating"
	"usof/internal/repository"
	"usof/internal/service"
	"usof/internal/vote"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config          *config.Config
	db              *gorm.DB
	redis           *redis.Client
	limiter         *middleware.RateLimiter
	app             *fiber.App
	promMiddleware  *fiberprometheus.FiberPrometheus
	store           *repository.Store
	ratings         *rating.Engine
	scheduler       rating.Scheduler
	featureFlags    *featureflags.Manager
	postService     *service.PostService
	commentService  *service.CommentService
	categoryService *service.CategoryService
	userService     *service.UserService
	favoriteService *service.FavoriteService
}

// NewServer connects to the database and Redis and wires every dependency.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Initialize Redis (nil client when unreachable)
	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	middleware.InitMiddleware(cfg)

	flags := featureflags.NewManager(cfg.FeatureFlags)
	store := repository.NewStore(db)
	engine := rating.NewEngine(db)

	var scheduler rating.Scheduler = rating.NewInline(engine)
	if flags.Global(featureflags.RatingAsync) {
		scheduler = rating.NewQueue(engine, cfg.RatingQueueSize)
	}
	coordinator := vote.NewCoordinator(store, scheduler)

	return &Server{
		config:          cfg,
		db:              db,
		redis:           redisClient,
		limiter:         middleware.NewRateLimiter(redisClient, cfg.Env, callerKey),
		promMiddleware:  middleware.InitMetrics("usof-api"),
		store:           store,
		ratings:         engine,
		scheduler:       scheduler,
		featureFlags:    flags,
		postService:     service.NewPostService(store.Posts, store.Categories, store.Likes, coordinator, scheduler),
		commentService:  service.NewCommentService(store.Comments, store.Posts, store.Likes, coordinator, scheduler),
		categoryService: service.NewCategoryService(store.Categories, store.Posts),
		userService:     service.NewUserService(store.Users, scheduler),
		favoriteService: service.NewFavoriteService(store.Favorites, store.Posts),
	}, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so that throttled responses still carry
	// CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowCredentials: origins != "*",
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !s.config.IsProduction()
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api", middleware.OptionalAuth, s.ResolveActor())
	auth := s.AuthRequired()

	api.Get("/swagger/*", swagger.HandlerDefault)
	api.Get("/docs", func(c *fiber.Ctx) error {
		return c.Redirect("/api/swagger/index.html", fiber.StatusMovedPermanently)
	})

	posts := api.Group("/posts")
	posts.Get("/", s.ListPosts)
	posts.Post("/", auth, s.throttle(middleware.ThrottlePosts), s.CreatePost)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	posts.Get("/:id/comments", s.ListPostComments)
	posts.Post("/:id/comments", auth, s.throttle(middleware.ThrottleComments), s.CreateComment)
	posts.Get("/:id/categories", s.ListPostCategories)
	posts.Get("/:id/likes", s.ListPostReactions)
	posts.Post("/:id/like", auth, s.throttle(middleware.ThrottleReactions), s.ReactToPost)
	posts.Delete("/:id/like", auth, s.UnreactToPost)
	posts.Get("/:id", s.GetPost)
	posts.Patch("/:id", auth, s.UpdatePost)
	posts.Delete("/:id", auth, s.DeletePost)

	comments := api.Group("/comments")
	comments.Get("/:id/replies", s.ListCommentReplies)
	comments.Get("/:id/like", s.listCommentReactions(models.ReactionLike))
	comments.Get("/:id/dislike", s.listCommentReactions(models.ReactionDislike))
	comments.Post("/:id/like", auth, s.throttle(middleware.ThrottleReactions), s.ReactToComment)
	comments.Delete("/:id/like", auth, s.UnreactToComment)
	comments.Get("/:id", s.GetComment)
	comments.Patch("/:id", auth, s.UpdateComment)
	comments.Delete("/:id", auth, s.DeleteComment)

	categories := api.Group("/categories")
	categories.Get("/", s.ListCategories)
	categories.Post("/", auth, s.AdminRequired(), s.CreateCategory)
	categories.Get("/:id/posts", s.ListCategoryPosts)
	categories.Get("/:id", s.GetCategory)
	categories.Patch("/:id", auth, s.AdminRequired(), s.UpdateCategory)
	categories.Delete("/:id", auth, s.AdminRequired(), s.DeleteCategory)

	users := api.Group("/users")
	users.Get("/", s.ListUsers)
	users.Post("/", auth, s.AdminRequired(), s.CreateUser)
	users.Get("/me", auth, s.GetMyProfile)
	users.Get("/:id", s.GetUser)
	users.Patch("/:id", auth, s.UpdateUser)
	users.Delete("/:id", auth, s.DeleteUser)

	favorites := api.Group("/favorites", auth)
	favorites.Get("/", s.ListFavorites)
	favorites.Post("/", s.AddFavorite)
	favorites.Get("/:postId", s.GetFavorite)
	favorites.Delete("/:postId", s.RemoveFavorite)

	admin := api.Group("/admin", auth, s.AdminRequired())
	admin.Get("/feature-flags", s.GetFeatureFlags)
	admin.Post("/ratings/:id/recompute", s.RecomputeRatings)
}

// throttle enforces t per caller. With strict_rate_limit on, requests fail
// while Redis is unreachable.
func (s *Server) throttle(t middleware.Throttle) fiber.Handler {
	fail := middleware.FailOpen
	if s.featureFlags.Global(featureflags.StrictRateLimit) {
		fail = middleware.FailClosed
	}
	return s.limiter.Handler(t, fail)
}

// callerKey names the requester for rate limiting: the resolved user when
// authenticated, the client IP otherwise.
func callerKey(c *fiber.Ctx) string {
	if a := actorFrom(c); a.ID > 0 {
		return "user:" + strconv.FormatUint(uint64(a.ID), 10)
	}
	return "ip:" + c.IP()
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports the database and Redis status. Redis is optional:
// without it the API serves uncached reads and skips rate limiting.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	switch {
	case dbStatus != "healthy":
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	case redisStatus != "healthy":
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// ResolveActor loads the caller named by the token, so that the role comes
// from storage rather than from a possibly stale claim.
func (s *Server) ResolveActor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userID").(uint)
		if !ok {
			c.Locals(actorKey, policy.Anonymous)
			return c.Next()
		}
		actor, err := s.userService.ResolveActor(c.UserContext(), userID)
		if err != nil {
			return respond(c, err)
		}
		c.Locals(actorKey, actor)
		return c.Next()
	}
}

// AuthRequired rejects anonymous callers with 401.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !policy.IsAuthenticated(actorFrom(c)) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}
		return c.Next()
	}
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !policy.IsAdmin(actorFrom(c)) {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// errorHandler renders errors that escaped a handler.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return respond(c, models.NewInternalError(err))
}

// Start starts the server
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName:      "usof API",
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: errorHandler,
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown stops the HTTP server, drains the rating queue and closes the
// database and Redis connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if q, ok := s.scheduler.(*rating.Queue); ok {
		if err := q.Close(ctx); err != nil {
			middleware.Logger.Error("rating queue did not drain", slog.String("error", err.Error()))
		}
	}

	if err := database.Close(s.db); err != nil {
		middleware.Logger.Error("error closing database", slog.String("error", err.Error()))
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
