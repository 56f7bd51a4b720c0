package repository

import (
	"context"
	"errors"

	"github.com/Baaaki/newsletter-app/internal/models"
	"gorm.io/gorm"
)

// ErrEmailTaken reports a unique index violation on users.email.
var ErrEmailTaken = errors.New("email already in use")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateFirstAdminAware inserts user, promoting it to admin when no user
// row (banned ones included) exists yet. On postgres the users table is
// locked for the count and insert, so only one concurrent registration
// can see an empty table.
func (r *UserRepository) CreateFirstAdminAware(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
				return err
			}
		}

		var count int64
		if err := tx.Unscoped().Model(&models.User{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			user.Role = models.RoleAdmin
		} else if user.Role == "" {
			user.Role = models.RoleUser
		}
		return tx.Create(user).Error
	})
	return translateUserError(err)
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return translateUserError(r.db.WithContext(ctx).Create(user).Error)
}

// translateUserError relies on gorm.Config.TranslateError being set.
func translateUserError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrEmailTaken
	}
	return err
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	// Note: GORM automatically excludes soft-deleted users (deleted_at IS NOT NULL)
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByEmailUnscoped also sees banned users so their address stays taken.
func (r *UserRepository) GetUserByEmailUnscoped(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Unscoped().Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetUsersByIDs resolves author references in bulk. Ids without a live
// user are simply absent from the map.
func (r *UserRepository) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	result := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var users []*models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

// GetAllUsers returns all users including soft-deleted ones
func (r *UserRepository) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	// Unscoped() includes soft-deleted records (deleted_at IS NOT NULL)
	err := r.db.WithContext(ctx).Unscoped().Order("created_at DESC").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// SoftDeleteUser marks a user as deleted (sets DeletedAt)
func (r *UserRepository) SoftDeleteUser(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
