package services

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/lms_api/model"
	"github.com/lac-hong-legacy/lms_api/shared"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const DATABASE_SVC = "database_svc"

// Database is implemented by every persistence backend registered under DATABASE_SVC.
type Database interface {
	context.Service
	Db() *gorm.DB
	HandleError(err error) error
}

// NewDatabaseService picks the backend named by DB_DRIVER (postgres when unset).
func NewDatabaseService() Database {
	switch strings.ToLower(os.Getenv("DB_DRIVER")) {
	case "sqlite", "sqlite3":
		return &SqliteService{}
	default:
		return &PostgresService{}
	}
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.Models()...); err != nil {
		log.WithError(err).Error("Failed to migrate database")
		return err
	}
	return nil
}

// classifyDBError maps a gorm/driver error to an HTTP status and a short category.
func classifyDBError(err error) (int, string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return http.StatusBadRequest, "FOREIGN_KEY_VIOLATION"
	case errors.Is(err, gorm.ErrInvalidTransaction):
		return http.StatusInternalServerError, "TRANSACTION_ERROR"
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "duplicate key value violates unique constraint"),
		strings.Contains(msg, "UNIQUE constraint failed"):
		return http.StatusConflict, "UNIQUE_CONSTRAINT"
	case strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist"),
		strings.Contains(msg, "no such table"):
		return http.StatusInternalServerError, "SCHEMA_ERROR"
	case strings.Contains(msg, "connection refused"):
		return http.StatusServiceUnavailable, "DATABASE_CONNECTION_ERROR"
	case strings.Contains(msg, "database is locked"):
		return http.StatusServiceUnavailable, "DATABASE_BUSY"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func handleDBError(err error) error {
	if err == nil {
		return nil
	}

	statusCode, errorType := classifyDBError(err)

	logEntry := log.WithFields(log.Fields{
		"status_code": statusCode,
		"error_type":  errorType,
		"error":       err.Error(),
	})

	if statusCode >= 500 {
		logEntry.Error("Database error occurred")
	} else {
		logEntry.Warn("Database operation failed")
	}

	return fmt.Errorf("%s: %w", errorType, err)
}

// dbError turns a repository error into an AppError. notFound is used as the message for
// missing rows; anything else keeps the classified status.
func dbError(db Database, err error, notFound string) error {
	if err == nil {
		return nil
	}
	if _, ok := shared.GetAppError(err); ok {
		return err
	}

	var wrapped error
	if db != nil {
		wrapped = db.HandleError(err)
	} else {
		wrapped = handleDBError(err)
	}
	statusCode, _ := classifyDBError(err)
	switch statusCode {
	case http.StatusNotFound:
		return shared.NewNotFoundError(wrapped, notFound)
	case http.StatusConflict:
		return shared.NewConflictError(wrapped, "Resource already exists")
	case http.StatusBadRequest:
		return shared.NewBadRequestError(wrapped, "Invalid reference")
	case http.StatusServiceUnavailable:
		return shared.NewAppError(http.StatusServiceUnavailable, wrapped, "Database unavailable")
	default:
		return shared.NewInternalError(wrapped, "Database error")
	}
}
