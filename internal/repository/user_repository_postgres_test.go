package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/Baaaki/newsletter-app/internal/models"
	"github.com/Baaaki/newsletter-app/internal/repository"
	"github.com/Baaaki/newsletter-app/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupPostgres connects to POSTGRES_TEST_URL and empties the users table.
// The tests are skipped when no server is configured.
func setupPostgres(t *testing.T) *gorm.DB {
	dsn := os.Getenv("POSTGRES_TEST_URL")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	testutil.CleanDatabase(t, db)

	t.Cleanup(func() {
		testutil.CleanDatabase(t, db)
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestUserRepository_Postgres_ConcurrentFirstRegistrations(t *testing.T) {
	repo := repository.NewUserRepository(setupPostgres(t))
	ctx := context.Background()

	const registrations = 8
	var wg sync.WaitGroup
	errs := make(chan error, registrations)
	for i := 0; i < registrations; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- repo.CreateFirstAdminAware(ctx, newUser(fmt.Sprintf("user%d@example.com", i)))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	users, err := repo.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, registrations)
	admins := 0
	for _, u := range users {
		if u.Role == models.RoleAdmin {
			admins++
		}
	}
	assert.Equal(t, 1, admins)
}

func TestUserRepository_Postgres_ConcurrentSameEmail(t *testing.T) {
	repo := repository.NewUserRepository(setupPostgres(t))
	ctx := context.Background()

	const registrations = 8
	var wg sync.WaitGroup
	errs := make(chan error, registrations)
	for i := 0; i < registrations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.CreateFirstAdminAware(ctx, newUser("same@example.com"))
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, repository.ErrEmailTaken):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, created)
}
