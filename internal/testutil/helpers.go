package testutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Baaaki/newsletter-app/internal/models"
	"github.com/Baaaki/newsletter-app/internal/utils"
	"gorm.io/gorm"
)

// TestJWTSecret signs every token issued in tests.
const TestJWTSecret = "test-secret-key"

// MustCreateUser persists a user built by CreateTestUser and fails the test on error.
func MustCreateUser(t *testing.T, db *gorm.DB, name, email string, role models.Role) *models.User {
	t.Helper()
	user, err := CreateTestUser(name, email, "Password123", role)
	if err != nil {
		t.Fatalf("Failed to build test user: %v", err)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to insert test user: %v", err)
	}
	return user
}

// BearerToken returns an Authorization header value for user.
func BearerToken(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(user, TestJWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	return "Bearer " + token
}

// DecodeBody unmarshals a JSON response body into a generic map.
func DecodeBody(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("Invalid JSON response %q: %v", string(body), err)
	}
	return out
}
