package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Baaaki/newsletter-app/internal/models"
	"github.com/Baaaki/newsletter-app/internal/repository"
	"github.com/Baaaki/newsletter-app/internal/utils"
	"github.com/Baaaki/newsletter-app/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type AuthService struct {
	userRepo      *repository.UserRepository
	jwtSecret     string
	jwtExpiration time.Duration
	environment   string
}

func NewAuthService(userRepo *repository.UserRepository, jwtSecret string, jwtExpiration time.Duration, environment string) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		environment:   environment,
	}
}

// IsProduction returns true if running in production environment
func (s *AuthService) IsProduction() bool {
	return s.environment == "production"
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.jwtExpiration
}

// Register creates an account. The very first account becomes the admin.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, string, error) {
	start := time.Now()
	name = utils.SanitizeText(name)
	email = strings.ToLower(strings.TrimSpace(email))

	logger.Log.Debug("Processing user registration",
		zap.String("name", name),
		zap.String("email", email),
	)

	// 1. Validate input
	if err := validateRegisterInput(name, email, password); err != nil {
		logger.Log.Warn("Registration validation failed",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, "", err
	}

	// 2. Banned accounts keep their address
	existingUser, err := s.userRepo.GetUserByEmailUnscoped(ctx, email)
	if err != nil {
		logger.Log.Error("Failed to check email existence",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, "", err
	}
	if existingUser != nil {
		logger.Log.Warn("Email already exists", zap.String("email", email))
		return nil, "", ErrEmailAlreadyExists
	}

	// 3. Hash password (Argon2)
	hashStart := time.Now()
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		logger.Log.Error("Failed to hash password", zap.Error(err))
		return nil, "", err
	}
	hashDuration := time.Since(hashStart)

	// 4. Create user
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         models.RoleUser,
	}
	if err := s.userRepo.CreateFirstAdminAware(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			// Lost a race with a concurrent registration
			logger.Log.Warn("Email already exists", zap.String("email", email))
			return nil, "", ErrEmailAlreadyExists
		}
		logger.Log.Error("Failed to create user in database",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, "", err
	}

	// 5. Generate JWT token
	token, err := utils.GenerateToken(user, s.jwtSecret, s.jwtExpiration)
	if err != nil {
		logger.Log.Error("Failed to generate JWT token",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		return nil, "", err
	}

	logger.Log.Info("User registered successfully",
		zap.String("user_id", user.ID),
		zap.String("email", email),
		zap.String("role", string(user.Role)),
		zap.Duration("hash_duration", hashDuration),
		zap.Duration("total_duration", time.Since(start)),
	)

	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	start := time.Now()
	email = strings.ToLower(strings.TrimSpace(email))

	logger.Log.Debug("Processing user login", zap.String("email", email))

	// 1. Get user by email
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		logger.Log.Error("Failed to get user by email",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, "", err
	}
	if user == nil {
		logger.Log.Warn("Login failed: user not found", zap.String("email", email))
		return nil, "", ErrInvalidCredentials
	}

	// 2. Verify password
	verifyStart := time.Now()
	valid, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		logger.Log.Error("Failed to verify password",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, "", err
	}
	verifyDuration := time.Since(verifyStart)

	if !valid {
		logger.Log.Warn("Login failed: invalid password",
			zap.String("email", email),
			zap.String("user_id", user.ID),
		)
		return nil, "", ErrInvalidCredentials
	}

	// 3. Generate JWT token
	token, err := utils.GenerateToken(user, s.jwtSecret, s.jwtExpiration)
	if err != nil {
		logger.Log.Error("Failed to generate JWT token",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		return nil, "", err
	}

	logger.Log.Info("User logged in successfully",
		zap.String("user_id", user.ID),
		zap.Duration("password_verify_duration", verifyDuration),
		zap.Duration("total_duration", time.Since(start)),
	)

	return user, token, nil
}

// Authenticate loads the live account behind already verified token
// claims. Banned or deleted users no longer authenticate.
func (s *AuthService) Authenticate(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		logger.Log.Error("Failed to load authenticated user",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) GetProfile(ctx context.Context, id string) (*models.User, error) {
	return s.Authenticate(ctx, id)
}

func validateRegisterInput(name, email, password string) error {
	// Name validation
	if name == "" {
		return validationError("name is required")
	}
	if utf8.RuneCountInString(name) > 100 {
		return validationError("name must be at most 100 characters")
	}

	// Email validation (regex)
	if len(email) > 100 {
		return validationError("email too long")
	}
	if !emailRegex.MatchString(email) {
		return validationError("invalid email format")
	}

	// Password validation
	if len(password) < 8 {
		return validationError("password must be at least 8 characters")
	}
	if len(password) > 128 {
		return validationError("password too long")
	}

	return nil
}

// GetAllUsers returns all users (including soft-deleted ones)
func (s *AuthService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	logger.Log.Debug("Fetching all users (including deleted)")

	users, err := s.userRepo.GetAllUsers(ctx)
	if err != nil {
		logger.Log.Error("Failed to fetch all users", zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Fetched all users", zap.Int("count", len(users)))
	return users, nil
}

// BanUser soft deletes a user (sets DeletedAt). Their posts and comments
// stay stored but drop out of listings.
func (s *AuthService) BanUser(ctx context.Context, userID, adminID, reason string) error {
	logger.Log.Info("Banning user",
		zap.String("user_id", userID),
		zap.String("admin_id", adminID),
		zap.String("reason", reason),
	)

	if _, err := uuid.Parse(userID); err != nil {
		logger.Log.Warn("Invalid user ID format",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return validationError("invalid user ID format")
	}
	if userID == adminID {
		return validationError("admins cannot ban themselves")
	}

	admin, err := s.userRepo.GetUserByID(ctx, adminID)
	if err != nil {
		return err
	}
	if !admin.IsAdmin() {
		return forbiddenError("admin access required")
	}

	banned, err := s.userRepo.SoftDeleteUser(ctx, userID)
	if err != nil {
		logger.Log.Error("Failed to ban user",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return err
	}
	if !banned {
		return ErrUserNotFound
	}

	logger.Log.Info("User banned successfully",
		zap.String("user_id", userID),
		zap.String("admin_id", adminID),
	)
	return nil
}

