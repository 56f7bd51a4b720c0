package testutil

import (
	"github.com/Baaaki/newsletter-app/internal/models"
	"github.com/Baaaki/newsletter-app/internal/utils"
	"github.com/google/uuid"
)

// CreateTestUser builds a user with a hashed password, ready for db.Create.
func CreateTestUser(name, email, password string, role models.Role) (*models.User, error) {
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	return &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         role,
	}, nil
}
