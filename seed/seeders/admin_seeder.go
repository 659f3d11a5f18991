package seeders

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/lac-hong-legacy/lms_api/model"
	"github.com/lac-hong-legacy/lms_api/shared"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	defaultAdminEmail    = "admin@example.com"
	defaultAdminPassword = "admin123"
)

// AdminSeeder handles seeding admin users
type AdminSeeder struct {
	db *gorm.DB
}

// NewAdminSeeder creates a new admin seeder
func NewAdminSeeder(db *gorm.DB) *AdminSeeder {
	return &AdminSeeder{db: db}
}

// SeedAdmin creates the default admin, or resets its role and password when it exists.
// SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD override the defaults.
func (s *AdminSeeder) SeedAdmin() (*model.User, error) {
	email := envOr("SEED_ADMIN_EMAIL", defaultAdminEmail)
	password := envOr("SEED_ADMIN_PASSWORD", defaultAdminPassword)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var admin model.User
	err = s.db.Where("email = ?", email).First(&admin).Error
	switch {
	case err == nil:
		admin.Role = shared.RoleAdmin
		admin.PasswordHash = string(hash)
		admin.IsActive = true
		if err := s.db.Save(&admin).Error; err != nil {
			return nil, err
		}
		log.Printf("Updated admin user: %s", admin.Email)
		return &admin, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		now := time.Now()
		admin = model.User{
			ID:           newID(),
			Email:        email,
			Name:         "Administrator",
			Role:         shared.RoleAdmin,
			PasswordHash: string(hash),
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.db.Create(&admin).Error; err != nil {
			log.Printf("Error creating admin user: %v", err)
			return nil, err
		}
		log.Printf("Created admin user: %s (password: %s)", admin.Email, password)
		return &admin, nil

	default:
		return nil, err
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
