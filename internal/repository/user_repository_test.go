package repository_test

import (
	"context"
	"testing"

	"github.com/Baaaki/newsletter-app/internal/models"
	"github.com/Baaaki/newsletter-app/internal/repository"
	"github.com/Baaaki/newsletter-app/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(email string) *models.User {
	return &models.User{ID: uuid.NewString(), Name: "n", Email: email, PasswordHash: "x"}
}

func TestUserRepository_FirstUserBecomesAdmin(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	defer testDB.Teardown(t)
	repo := repository.NewUserRepository(testDB.DB)
	ctx := context.Background()

	first := newUser("first@example.com")
	require.NoError(t, repo.CreateFirstAdminAware(ctx, first))
	assert.Equal(t, models.RoleAdmin, first.Role)

	second := newUser("second@example.com")
	require.NoError(t, repo.CreateFirstAdminAware(ctx, second))
	assert.Equal(t, models.RoleUser, second.Role)
}

func TestUserRepository_BannedFirstAdminStillCounts(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	defer testDB.Teardown(t)
	repo := repository.NewUserRepository(testDB.DB)
	ctx := context.Background()

	first := newUser("first@example.com")
	require.NoError(t, repo.CreateFirstAdminAware(ctx, first))
	ok, err := repo.SoftDeleteUser(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, ok)

	next := newUser("next@example.com")
	require.NoError(t, repo.CreateFirstAdminAware(ctx, next))
	assert.Equal(t, models.RoleUser, next.Role)
}

func TestUserRepository_LookupsSkipBannedUsers(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	defer testDB.Teardown(t)
	repo := repository.NewUserRepository(testDB.DB)
	ctx := context.Background()

	alive := testutil.MustCreateUser(t, testDB.DB, "Alive", "alive@example.com", models.RoleUser)
	banned := testutil.MustCreateUser(t, testDB.DB, "Banned", "banned@example.com", models.RoleUser)
	_, err := repo.SoftDeleteUser(ctx, banned.ID)
	require.NoError(t, err)

	got, err := repo.GetUserByID(ctx, banned.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	byEmail, err := repo.GetUserByEmail(ctx, "banned@example.com")
	require.NoError(t, err)
	assert.Nil(t, byEmail)

	unscoped, err := repo.GetUserByEmailUnscoped(ctx, "banned@example.com")
	require.NoError(t, err)
	require.NotNil(t, unscoped)
	assert.Equal(t, banned.ID, unscoped.ID)

	users, err := repo.GetUsersByIDs(ctx, []string{alive.ID, banned.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Contains(t, users, alive.ID)

	all, err := repo.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUserRepository_SoftDeleteUnknownUser(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	defer testDB.Teardown(t)
	repo := repository.NewUserRepository(testDB.DB)

	ok, err := repo.SoftDeleteUser(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserRepository_DuplicateEmailIsTaken(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	defer testDB.Teardown(t)
	repo := repository.NewUserRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, repo.CreateFirstAdminAware(ctx, newUser("same@example.com")))

	err := repo.CreateFirstAdminAware(ctx, newUser("same@example.com"))
	assert.ErrorIs(t, err, repository.ErrEmailTaken)
	err = repo.CreateUser(ctx, newUser("same@example.com"))
	assert.ErrorIs(t, err, repository.ErrEmailTaken)
}
