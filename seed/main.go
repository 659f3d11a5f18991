package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"github.com/lac-hong-legacy/lms_api/seed/seeders"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var (
		seedType = flag.String("type", "all", "Type of seeding: all, admin (init-admin), courses")
		driver   = flag.String("driver", "", "Database driver: sqlite or postgres (overrides DB_DRIVER)")
		dsn      = flag.String("db", "", "SQLite path or Postgres DSN (overrides DB_DATABASE / DATABASE_URL)")
		help     = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	db, err := openDatabase(*driver, *dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	mainSeeder := seeders.NewMainSeeder(db)
	if err := mainSeeder.Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	switch *seedType {
	case "all":
		log.Println("Running complete database seeding...")
		err = mainSeeder.SeedAll()
	case "admin", "init-admin":
		log.Println("Seeding admin user only...")
		err = mainSeeder.SeedAdminOnly()
	case "courses":
		log.Println("Seeding demo course only...")
		err = mainSeeder.SeedCoursesOnly()
	default:
		log.Fatalf("Unknown seed type: %s. Use 'all', 'admin' or 'courses'", *seedType)
	}
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding operation completed successfully!")
}

func openDatabase(driver, dsn string) (*gorm.DB, error) {
	if driver == "" {
		driver = os.Getenv("DB_DRIVER")
	}
	config := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	switch strings.ToLower(driver) {
	case "postgres", "postgresql":
		if dsn == "" {
			dsn = os.Getenv("DATABASE_URL")
		}
		log.Println("Connecting to postgres")
		return gorm.Open(postgres.Open(dsn), config)
	default:
		if dsn == "" {
			dsn = os.Getenv("DB_DATABASE")
		}
		if dsn == "" {
			dsn = "lms.db"
		}
		log.Printf("Connecting to sqlite database: %s", dsn)
		return gorm.Open(sqlite.Open(dsn), config)
	}
}

func showHelp() {
	log.Print(`
Database Seeding Tool for the LMS API

Usage: go run ./seed [flags]

Flags:
  -type string
        Type of seeding to perform (default "all")
        Options: all, admin, courses
  -driver string
        sqlite or postgres (overrides DB_DRIVER)
  -db string
        SQLite path or Postgres DSN (overrides DB_DATABASE / DATABASE_URL)
  -help
        Show this help message

Environment Variables:
  DB_DRIVER           - sqlite (default) or postgres
  DB_DATABASE         - SQLite path (default: lms.db)
  DATABASE_URL        - Postgres DSN
  SEED_ADMIN_EMAIL    - Admin email (default: admin@example.com)
  SEED_ADMIN_PASSWORD - Admin password (default: admin123)
`)
}
