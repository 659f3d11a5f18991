package shared

import (
	"errors"
	"fmt"
	"net/http"
)

type AppError struct {
	StatusCode int
	Message    string
	Data       interface{}
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(statusCode int, err error, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}

func NewBadRequestError(err error, message string) *AppError {
	return NewAppError(http.StatusBadRequest, err, message)
}

func NewValidationError(err error, message string) *AppError {
	return NewAppError(http.StatusUnprocessableEntity, err, message)
}

func NewUnauthorizedError(err error, message string) *AppError {
	return NewAppError(http.StatusUnauthorized, err, message)
}

func NewForbiddenError(err error, message string) *AppError {
	return NewAppError(http.StatusForbidden, err, message)
}

func NewNotFoundError(err error, message string) *AppError {
	return NewAppError(http.StatusNotFound, err, message)
}

func NewConflictError(err error, message string) *AppError {
	return NewAppError(http.StatusConflict, err, message)
}

func NewInternalError(err error, message string) *AppError {
	return NewAppError(http.StatusInternalServerError, err, message)
}

type AttemptsExhaustedData struct {
	AttemptsUsed int `json:"attemptsUsed"`
	MaxAttempts  int `json:"maxAttempts"`
}

// NewAttemptsExhaustedError is returned when a learner has used every allowed attempt.
func NewAttemptsExhaustedError(used, max int) *AppError {
	appErr := NewAppError(http.StatusForbidden, ErrAttemptsExhausted, "Attempts limit reached")
	appErr.Data = AttemptsExhaustedData{AttemptsUsed: used, MaxAttempts: max}
	return appErr
}

var ErrAttemptsExhausted = errors.New("attempts exhausted")

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsStatus reports whether err is an AppError carrying the given status code.
func IsStatus(err error, statusCode int) bool {
	appErr, ok := GetAppError(err)
	return ok && appErr.StatusCode == statusCode
}
