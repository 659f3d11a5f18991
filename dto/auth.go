package dto

import "time"

// ==================== AUTHENTICATION DTOs ====================

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"admin@example.com"`
	Password string `json:"password" validate:"required" example:"admin123"`
}

func (l LoginRequest) Validate() error {
	return GetValidator().Struct(l)
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expiresIn" example:"86400"`
	User      UserResponse `json:"user"`
}

type ClaimsResponse struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Role      string    `json:"role" example:"student"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ==================== ERROR RESPONSE DTOs ====================

type ValidationError struct {
	Field   string `json:"field" example:"email"`
	Message string `json:"message" example:"invalid email format"`
}

type ValidationErrorResponse struct {
	Code    int               `json:"code" example:"400"`
	Message string            `json:"message" example:"Validation failed"`
	Errors  []ValidationError `json:"errors"`
}

type MessageResponse struct {
	Message string `json:"message" example:"Operation successful"`
}

type CreatedResponse struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
}
