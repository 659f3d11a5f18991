package seeders

import (
	"log"

	"github.com/google/uuid"
	"github.com/lac-hong-legacy/lms_api/model"
	"gorm.io/gorm"
)

// MainSeeder coordinates all seeding operations
type MainSeeder struct {
	db *gorm.DB
}

// NewMainSeeder creates a new main seeder
func NewMainSeeder(db *gorm.DB) *MainSeeder {
	return &MainSeeder{db: db}
}

// Migrate makes sure the schema exists before anything is inserted.
func (s *MainSeeder) Migrate() error {
	return s.db.AutoMigrate(model.Models()...)
}

// SeedAll runs all seeders in the correct order
func (s *MainSeeder) SeedAll() error {
	log.Println("Starting database seeding...")

	// 1. Admin first, the demo course records it as its author
	admin, err := NewAdminSeeder(s.db).SeedAdmin()
	if err != nil {
		log.Printf("Admin seeding failed: %v", err)
		return err
	}

	// 2. Demo course with lessons, test and reward
	if err := NewCourseSeeder(s.db).SeedDemoCourse(admin.ID); err != nil {
		log.Printf("Course seeding failed: %v", err)
		return err
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

// SeedAdminOnly seeds only the admin user
func (s *MainSeeder) SeedAdminOnly() error {
	_, err := NewAdminSeeder(s.db).SeedAdmin()
	return err
}

// SeedCoursesOnly seeds only the demo course
func (s *MainSeeder) SeedCoursesOnly() error {
	return NewCourseSeeder(s.db).SeedDemoCourse("")
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
