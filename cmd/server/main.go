package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Baaaki/newsletter-app/internal/broker"
	"github.com/Baaaki/newsletter-app/internal/config"
	"github.com/Baaaki/newsletter-app/internal/database"
	"github.com/Baaaki/newsletter-app/internal/handler"
	"github.com/Baaaki/newsletter-app/internal/middleware"
	"github.com/Baaaki/newsletter-app/internal/repository"
	"github.com/Baaaki/newsletter-app/internal/service"
	"github.com/Baaaki/newsletter-app/pkg/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(!cfg.IsProduction()); err != nil {
		panic(err)
	}
	logger.SetLevel(cfg.LogLevel)
	defer logger.Sync()

	logger.Log.Info("Config loaded successfully",
		zap.String("environment", cfg.Environment),
		zap.String("post_store", cfg.PostStore),
	)

	ctx := context.Background()

	// PostgreSQL (users)
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to connect database", zap.Error(err))
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Post and comment store
	var (
		postRepo    repository.PostRepository
		commentRepo repository.CommentRepository
	)
	switch cfg.PostStore {
	case config.PostStoreMemory:
		logger.Log.Warn("Using in-memory post store, data is lost on restart")
		postRepo = repository.NewMemoryPostRepository()
		commentRepo = repository.NewMemoryCommentRepository()
	default:
		mongoClient, mongoDB, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			logger.Log.Fatal("Failed to connect MongoDB", zap.Error(err))
		}
		defer mongoClient.Disconnect(context.Background())

		mongoPosts := repository.NewMongoPostRepository(mongoDB)
		mongoComments := repository.NewMongoCommentRepository(mongoDB)
		if err := database.EnsureIndexes(ctx, mongoPosts, mongoComments); err != nil {
			logger.Log.Fatal("Failed to create MongoDB indexes", zap.Error(err))
		}
		postRepo, commentRepo = mongoPosts, mongoComments
	}

	// Redis (rate limiting + post events)
	redisClient, err := broker.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Log.Fatal("Failed to connect Redis", zap.Error(err))
	}
	defer redisClient.Close()
	events := broker.NewRedisEventBroker(redisClient)
	defer events.Close()

	// Initialize repositories and services
	userRepo := repository.NewUserRepository(db)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiry, cfg.Environment)
	postService := service.NewPostService(postRepo, commentRepo, userRepo, events)
	commentService := service.NewCommentService(commentRepo, postService, userRepo)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.HSTSMiddleware(cfg.IsProduction()))

	var limits handler.Limits
	if cfg.RateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(redisClient, middleware.RateLimiterConfig{
			Scope:       "auth",
			MaxRequests: cfg.RateLimitAuthMaxRequests,
			Window:      cfg.RateLimitWindow,
		})
		writeLimiter := middleware.NewRateLimiter(redisClient, middleware.RateLimiterConfig{
			Scope:       "write",
			MaxRequests: cfg.RateLimitMaxRequests,
			Window:      cfg.RateLimitWindow,
		})
		limits = handler.Limits{Auth: authLimiter.Middleware(), Write: writeLimiter.Middleware()}
	}

	// Live feed of post events from every instance
	feedCtx, stopFeed := context.WithCancel(ctx)
	defer stopFeed()
	feed := handler.NewEventFeedHandler(cfg.CORSOrigins)
	postEvents, err := events.Subscribe(feedCtx)
	if err != nil {
		logger.Log.Fatal("Failed to subscribe to post events", zap.Error(err))
	}
	go feed.Run(feedCtx, postEvents)

	handler.RegisterRoutes(router, handler.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Admin:   handler.NewAdminHandler(authService),
		Post:    handler.NewPostHandler(postService),
		Comment: handler.NewCommentHandler(commentService),
		Feed:    feed,
	}, cfg.JWTSecret, limits)

	srv := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		logger.Log.Info("Server starting", zap.String("addr", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
