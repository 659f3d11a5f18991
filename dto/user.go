package dto

import "time"

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255" example:"learner@example.com"`
	Name     string `json:"name" validate:"required,not_blank,max=200" example:"Jane Doe"`
	Role     string `json:"role" validate:"omitempty,oneof=admin student" example:"student"`
	Password string `json:"password" validate:"required,min=8,max=128" example:"password123"`
}

func (r CreateUserRequest) Validate() error {
	return GetValidator().Struct(r)
}

// UpdateUserRequest is a patch: only non-nil fields are applied.
type UpdateUserRequest struct {
	Email    *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	IsActive *bool   `json:"isActive,omitempty"`
}

func (r UpdateUserRequest) Validate() error {
	return GetValidator().Struct(r)
}

func (r UpdateUserRequest) Empty() bool {
	return r.Email == nil && r.Name == nil && r.IsActive == nil
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword,omitempty"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=128"`
}

func (r UpdatePasswordRequest) Validate() error {
	return GetValidator().Struct(r)
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin student" example:"admin"`
}

func (r UpdateRoleRequest) Validate() error {
	return GetValidator().Struct(r)
}

type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
}
