package model

import "time"

// RateLimit is a fixed-window request counter for one identifier on one endpoint class.
type RateLimit struct {
	ID           string     `json:"id" gorm:"primaryKey;type:text;not null"`
	Identifier   string     `json:"identifier" gorm:"not null;uniqueIndex:idx_rate_limit_key;size:255"`
	EndpointType string     `json:"endpoint_type" gorm:"not null;uniqueIndex:idx_rate_limit_key;size:50"`
	RequestCount int        `json:"request_count" gorm:"not null"`
	WindowStart  time.Time  `json:"window_start" gorm:"not null"`
	BlockedUntil *time.Time `json:"blocked_until,omitempty" gorm:"index"`
	CreatedAt    time.Time  `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"not null"`
}

// Models lists every persisted type in migration order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&Course{},
		&Lesson{},
		&CourseAssignment{},
		&Test{},
		&Question{},
		&CourseProgress{},
		&TestAttempt{},
		&TestResult{},
		&Reward{},
		&SystemLog{},
		&RateLimit{},
	}
}
