package model

import (
	"time"

	"gorm.io/datatypes"
)

// CourseProgress is one learner's state in one course. Version is bumped on every write
// and used as a compare-and-swap guard.
type CourseProgress struct {
	ID                   string     `json:"id" gorm:"primaryKey;type:text"`
	UserID               string     `json:"user_id" gorm:"not null;uniqueIndex:idx_progress_user_course"`
	CourseID             string     `json:"course_id" gorm:"not null;uniqueIndex:idx_progress_user_course;index"`
	CompletedLessonIDs   IDSet      `json:"completed_lesson_ids" gorm:"not null"`
	CompletedLessons     int        `json:"completed_lessons" gorm:"not null"`
	TotalLessons         int        `json:"total_lessons" gorm:"not null"`
	TestScore            *int       `json:"test_score"`
	Completed            bool       `json:"completed" gorm:"not null"`
	LastAccessedLessonID *string    `json:"last_accessed_lesson_id"`
	EarnedRewards        IDSet      `json:"earned_rewards" gorm:"not null"`
	Version              int        `json:"version" gorm:"not null"`
	StartedAt            time.Time  `json:"started_at"`
	CompletedAt          *time.Time `json:"completed_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (CourseProgress) TableName() string {
	return "course_progress"
}

// TestAttempt tracks attempt usage for one learner on one test lesson. MaxAttempts is a
// snapshot taken when the row is created; 0 means unlimited.
type TestAttempt struct {
	ID            string     `json:"id" gorm:"primaryKey;type:text"`
	UserID        string     `json:"user_id" gorm:"not null;uniqueIndex:idx_attempt_user_lesson"`
	LessonID      string     `json:"lesson_id" gorm:"not null;uniqueIndex:idx_attempt_user_lesson;index"`
	TestID        string     `json:"test_id" gorm:"not null;index"`
	CourseID      string     `json:"course_id" gorm:"not null;index"`
	AttemptsUsed  int        `json:"attempts_used" gorm:"not null"`
	MaxAttempts   int        `json:"max_attempts" gorm:"not null"`
	BestScore     int        `json:"best_score" gorm:"not null"`
	LastAttemptAt *time.Time `json:"last_attempt_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (a *TestAttempt) Unlimited() bool {
	return a.MaxAttempts <= 0
}

func (a *TestAttempt) Exhausted() bool {
	return !a.Unlimited() && a.AttemptsUsed >= a.MaxAttempts
}

// TestResult is an append-only record of one graded submission.
type TestResult struct {
	ID           string         `json:"id" gorm:"primaryKey;type:text"`
	UserID       string         `json:"user_id" gorm:"not null;index"`
	TestID       string         `json:"test_id" gorm:"not null;index"`
	LessonID     *string        `json:"lesson_id" gorm:"index"`
	CourseID     *string        `json:"course_id" gorm:"index"`
	Answers      datatypes.JSON `json:"answers"`
	Breakdown    datatypes.JSON `json:"breakdown"`
	Score        int            `json:"score" gorm:"not null"`
	EarnedPoints int            `json:"earned_points" gorm:"not null"`
	TotalPoints  int            `json:"total_points" gorm:"not null"`
	Passed       bool           `json:"passed" gorm:"not null"`
	CreatedAt    time.Time      `json:"created_at"`
}
