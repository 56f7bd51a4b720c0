package service_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Baaaki/newsletter-app/internal/models"
	"github.com/Baaaki/newsletter-app/internal/repository"
	"github.com/Baaaki/newsletter-app/internal/service"
	"github.com/Baaaki/newsletter-app/internal/testutil"
	"github.com/Baaaki/newsletter-app/internal/utils"
	"github.com/Baaaki/newsletter-app/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type AuthServiceTestSuite struct {
	suite.Suite
	testDB      *testutil.TestDatabase
	authService *service.AuthService
	ctx         context.Context
}

func (s *AuthServiceTestSuite) SetupSuite() {
	logger.Init(false)
	s.ctx = context.Background()
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.testDB = testutil.SetupTestDatabase(s.T())
	userRepo := repository.NewUserRepository(s.testDB.DB)
	s.authService = service.NewAuthService(userRepo, testutil.TestJWTSecret, time.Hour, "test")
}

func (s *AuthServiceTestSuite) TearDownTest() {
	s.testDB.Teardown(s.T())
}

func (s *AuthServiceTestSuite) TestRegister_FirstUserIsAdmin() {
	first, token, err := s.authService.Register(s.ctx, "First", "First@Example.com", "Password123")
	s.Require().NoError(err)
	assert.Equal(s.T(), models.RoleAdmin, first.Role)
	assert.Equal(s.T(), "first@example.com", first.Email)

	claims, err := utils.ValidateToken(token, testutil.TestJWTSecret)
	s.Require().NoError(err)
	assert.Equal(s.T(), first.ID, claims.UserID)

	second, _, err := s.authService.Register(s.ctx, "Second", "second@example.com", "Password123")
	s.Require().NoError(err)
	assert.Equal(s.T(), models.RoleUser, second.Role)
}

func (s *AuthServiceTestSuite) TestRegister_Validation() {
	tests := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{"empty name", "", "a@example.com", "Password123"},
		{"bad email", "Name", "not-an-email", "Password123"},
		{"short password", "Name", "a@example.com", "short"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, _, err := s.authService.Register(s.ctx, tt.userName, tt.email, tt.password)
			assert.ErrorIs(s.T(), err, service.ErrValidation)
		})
	}
}

func (s *AuthServiceTestSuite) TestRegister_DuplicateEmailIncludingBanned() {
	_, _, err := s.authService.Register(s.ctx, "One", "dup@example.com", "Password123")
	s.Require().NoError(err)

	_, _, err = s.authService.Register(s.ctx, "Two", "DUP@example.com", "Password123")
	assert.ErrorIs(s.T(), err, service.ErrEmailAlreadyExists)

	s.Require().NoError(s.testDB.DB.Where("email = ?", "dup@example.com").Delete(&models.User{}).Error)
	_, _, err = s.authService.Register(s.ctx, "Three", "dup@example.com", "Password123")
	assert.ErrorIs(s.T(), err, service.ErrEmailAlreadyExists)
}

// A row with the same email lands between the existence check and the
// insert, the way a concurrent registration would.
func (s *AuthServiceTestSuite) TestRegister_LosingEmailRaceIsDuplicate() {
	var fired atomic.Bool
	err := s.testDB.DB.Callback().Create().Before("gorm:create").Register("test:concurrent_register", func(tx *gorm.DB) {
		if !fired.CompareAndSwap(false, true) {
			return
		}
		rival, err := testutil.CreateTestUser("Rival", "race@example.com", "Password123", models.RoleUser)
		if err != nil {
			tx.AddError(err)
			return
		}
		tx.Session(&gorm.Session{NewDB: true}).Create(rival)
	})
	s.Require().NoError(err)

	_, _, err = s.authService.Register(s.ctx, "Loser", "race@example.com", "Password123")
	assert.ErrorIs(s.T(), err, service.ErrEmailAlreadyExists)
	assert.True(s.T(), fired.Load())
}

func (s *AuthServiceTestSuite) TestLogin() {
	registered, _, err := s.authService.Register(s.ctx, "Login", "login@example.com", "Password123")
	s.Require().NoError(err)

	user, token, err := s.authService.Login(s.ctx, "login@example.com", "Password123")
	s.Require().NoError(err)
	assert.Equal(s.T(), registered.ID, user.ID)
	assert.NotEmpty(s.T(), token)

	_, _, err = s.authService.Login(s.ctx, "login@example.com", "WrongPassword")
	assert.ErrorIs(s.T(), err, service.ErrInvalidCredentials)

	_, _, err = s.authService.Login(s.ctx, "nobody@example.com", "Password123")
	assert.ErrorIs(s.T(), err, service.ErrInvalidCredentials)
}

func (s *AuthServiceTestSuite) TestBanUser() {
	admin, _, err := s.authService.Register(s.ctx, "Admin", "admin@example.com", "Password123")
	s.Require().NoError(err)
	member, _, err := s.authService.Register(s.ctx, "Member", "member@example.com", "Password123")
	s.Require().NoError(err)

	err = s.authService.BanUser(s.ctx, admin.ID, member.ID, "not an admin")
	assert.ErrorIs(s.T(), err, service.ErrForbidden)

	err = s.authService.BanUser(s.ctx, admin.ID, admin.ID, "self")
	assert.ErrorIs(s.T(), err, service.ErrValidation)

	err = s.authService.BanUser(s.ctx, "not-a-uuid", admin.ID, "typo")
	assert.ErrorIs(s.T(), err, service.ErrValidation)

	err = s.authService.BanUser(s.ctx, uuid.NewString(), admin.ID, "ghost")
	assert.ErrorIs(s.T(), err, service.ErrUserNotFound)

	s.Require().NoError(s.authService.BanUser(s.ctx, member.ID, admin.ID, "spam"))

	_, err = s.authService.Authenticate(s.ctx, member.ID)
	assert.ErrorIs(s.T(), err, service.ErrUserNotFound)
	_, _, err = s.authService.Login(s.ctx, "member@example.com", "Password123")
	assert.ErrorIs(s.T(), err, service.ErrInvalidCredentials)

	users, err := s.authService.GetAllUsers(s.ctx)
	s.Require().NoError(err)
	assert.Len(s.T(), users, 2)
}

func (s *AuthServiceTestSuite) TestGetProfile() {
	user, _, err := s.authService.Register(s.ctx, "Profile", "profile@example.com", "Password123")
	s.Require().NoError(err)

	profile, err := s.authService.GetProfile(s.ctx, user.ID)
	s.Require().NoError(err)
	assert.Equal(s.T(), "Profile", profile.Name)

	_, err = s.authService.GetProfile(s.ctx, uuid.NewString())
	assert.ErrorIs(s.T(), err, service.ErrNotFound)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
