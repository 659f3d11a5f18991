package services

import (
	"strings"

	"github.com/alphabatem/common/context"
	"github.com/glebarez/sqlite"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type SqliteService struct {
	context.DefaultService
	db *gorm.DB

	database string
}

// Id returns Service ID
func (ds SqliteService) Id() string {
	return DATABASE_SVC
}

// Db Access to raw SqliteService db
func (ds SqliteService) Db() *gorm.DB {
	return ds.db
}

// Configure the service
func (ds *SqliteService) Configure(ctx *context.Context) error {
	ds.database = getEnv("DB_DATABASE", "lms.db")

	return ds.DefaultService.Configure(ctx)
}

// Start the service and open connection to the database
// Migrate any tables that have changed since last runtime
func (ds *SqliteService) Start() (err error) {
	ds.db, err = OpenSqlite(ds.database)
	if err != nil {
		return err
	}

	if err = migrate(ds.db); err != nil {
		return err
	}

	log.Println("Database connected and migrated successfully")
	return nil
}

// OpenSqlite opens a pure-Go SQLite database with WAL and a busy timeout so concurrent
// writers queue instead of failing.
func OpenSqlite(path string) (*gorm.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// A single connection serializes writes; SQLite has one writer anyway.
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// UseDB wires an already-open connection, migrating it. Used by the seeder and tests.
func (ds *SqliteService) UseDB(db *gorm.DB) error {
	ds.db = db
	return migrate(db)
}

func (ds *SqliteService) Shutdown() {
	if ds.db == nil {
		return
	}
	sqlDB, err := ds.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

func (ds *SqliteService) HandleError(err error) error {
	return handleDBError(err)
}
