package model

import (
	"time"

	"gorm.io/datatypes"
)

// Course is the root aggregate owning lessons, tests and rewards.
type Course struct {
	ID           string     `json:"id" gorm:"primaryKey;type:text"`
	Title        string     `json:"title" gorm:"not null"`
	Description  string     `json:"description" gorm:"type:text"`
	Duration     int        `json:"duration"`
	Category     string     `json:"category"`
	Image        string     `json:"image"`
	PassScore    int        `json:"pass_score" gorm:"not null"`
	Level        string     `json:"level"`
	Instructor   string     `json:"instructor"`
	AccessType   string     `json:"access_type" gorm:"not null;size:20"`
	Status       string     `json:"status" gorm:"not null;size:20;index"`
	LessonsCount int        `json:"lessons_count" gorm:"not null"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	CreatedBy    *string    `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (c *Course) IsClosed() bool {
	return c.AccessType != "open"
}

// Lesson belongs to exactly one course and is ordered by Order.
type Lesson struct {
	ID                          string         `json:"id" gorm:"primaryKey;type:text"`
	CourseID                    string         `json:"course_id" gorm:"not null;index"`
	Title                       string         `json:"title" gorm:"not null"`
	Content                     string         `json:"content" gorm:"type:text"`
	Type                        string         `json:"type" gorm:"not null;size:20"`
	Order                       int            `json:"order" gorm:"not null"`
	Duration                    int            `json:"duration"`
	VideoURL                    string         `json:"video_url"`
	Description                 string         `json:"description" gorm:"type:text"`
	Materials                   datatypes.JSON `json:"materials"`
	RequiresPrevious            bool           `json:"requires_previous"`
	TestID                      *string        `json:"test_id" gorm:"index"`
	IsFinalTest                 bool           `json:"is_final_test"`
	FinalTestRequiresAllLessons bool           `json:"final_test_requires_all_lessons"`
	FinalTestRequiresAllTests   bool           `json:"final_test_requires_all_tests"`
	CreatedAt                   time.Time      `json:"created_at"`
	UpdatedAt                   time.Time      `json:"updated_at"`
}

// IsTestLesson reports whether completing the lesson represents passing a graded test.
func (l *Lesson) IsTestLesson() bool {
	return l.Type == "test" || l.Type == "quiz" || (l.TestID != nil && *l.TestID != "")
}

type CourseAssignment struct {
	ID         string    `json:"id" gorm:"primaryKey;type:text"`
	CourseID   string    `json:"course_id" gorm:"not null;uniqueIndex:idx_assignment_course_user"`
	UserID     string    `json:"user_id" gorm:"not null;uniqueIndex:idx_assignment_course_user;index"`
	AssignedBy *string   `json:"assigned_by"`
	CreatedAt  time.Time `json:"created_at"`
}
