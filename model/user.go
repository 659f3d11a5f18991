package model

import "time"

type User struct {
	ID           string     `json:"id" gorm:"primaryKey;type:text"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Name         string     `json:"name" gorm:"not null"`
	Role         string     `json:"role" gorm:"not null;size:20"`
	PasswordHash string     `json:"-" gorm:"not null"`
	IsActive     bool       `json:"is_active" gorm:"not null"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
