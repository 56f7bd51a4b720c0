package main

import (
	"context"
	"os"

	"github.com/Baaaki/newsletter-app/internal/config"
	"github.com/Baaaki/newsletter-app/internal/database"
	"github.com/Baaaki/newsletter-app/internal/models"
	"github.com/Baaaki/newsletter-app/internal/repository"
	"github.com/Baaaki/newsletter-app/internal/utils"
	"github.com/Baaaki/newsletter-app/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// seed creates the admin account named by ADMIN_NAME, ADMIN_EMAIL and
// ADMIN_PASSWORD unless a user with that email already exists.
func main() {
	cfg := config.Load()
	if err := logger.Init(true); err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to connect database", zap.Error(err))
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Failed to migrate database", zap.Error(err))
	}

	adminName := os.Getenv("ADMIN_NAME")
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminName == "" || adminEmail == "" || adminPassword == "" {
		logger.Log.Fatal("Missing environment variables: ADMIN_NAME, ADMIN_EMAIL, ADMIN_PASSWORD")
	}

	ctx := context.Background()
	users := repository.NewUserRepository(db)

	existing, err := users.GetUserByEmailUnscoped(ctx, adminEmail)
	if err != nil {
		logger.Log.Fatal("Failed to look up admin", zap.Error(err))
	}
	if existing != nil {
		logger.Log.Info("Admin user already exists",
			zap.String("name", existing.Name),
			zap.String("email", existing.Email),
			zap.String("role", string(existing.Role)),
		)
		return
	}

	passwordHash, err := utils.HashPassword(adminPassword)
	if err != nil {
		logger.Log.Fatal("Failed to hash password", zap.Error(err))
	}

	admin := &models.User{
		ID:           uuid.NewString(),
		Name:         adminName,
		Email:        adminEmail,
		PasswordHash: passwordHash,
		Role:         models.RoleAdmin,
	}
	if err := users.CreateUser(ctx, admin); err != nil {
		logger.Log.Fatal("Failed to create admin", zap.Error(err))
	}

	logger.Log.Info("Admin user created successfully",
		zap.String("name", admin.Name),
		zap.String("email", admin.Email),
	)
}
