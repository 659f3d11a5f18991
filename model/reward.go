package model

import (
	"time"

	"gorm.io/datatypes"
)

// Reward is unlocked into CourseProgress.EarnedRewards when its course is completed.
type Reward struct {
	ID          string         `json:"id" gorm:"primaryKey;type:text"`
	CourseID    *string        `json:"course_id" gorm:"index"`
	Name        string         `json:"name" gorm:"not null"`
	Icon        string         `json:"icon"`
	Color       string         `json:"color"`
	Description string         `json:"description" gorm:"type:text"`
	Condition   string         `json:"condition" gorm:"type:text"`
	Bonuses     datatypes.JSON `json:"bonuses"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type SystemLog struct {
	ID        string         `json:"id" gorm:"primaryKey;type:text"`
	Level     string         `json:"level" gorm:"not null;size:20;index"`
	Action    string         `json:"action" gorm:"not null;size:100;index"`
	Message   string         `json:"message" gorm:"type:text"`
	UserID    *string        `json:"user_id" gorm:"index"`
	IPAddress string         `json:"ip_address" gorm:"size:64"`
	UserAgent string         `json:"user_agent" gorm:"type:text"`
	Details   datatypes.JSON `json:"details"`
	CreatedAt time.Time      `json:"created_at" gorm:"index"`
}
