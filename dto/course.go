package dto

import (
	"encoding/json"
	"time"
)

// ==================== COURSE DTOs ====================

type CreateCourseRequest struct {
	Title       string     `json:"title" validate:"required,not_blank,max=255" example:"Information security basics"`
	Description string     `json:"description" validate:"max=10000"`
	Duration    int        `json:"duration" validate:"min=0"`
	Category    string     `json:"category" validate:"max=100"`
	Image       string     `json:"image" validate:"max=1000"`
	PassScore   *int       `json:"passScore" validate:"omitempty,min=0,max=100" example:"70"`
	Level       string     `json:"level" validate:"max=50"`
	Instructor  string     `json:"instructor" validate:"max=255"`
	AccessType  string     `json:"accessType" validate:"omitempty,oneof=open closed" example:"closed"`
	Status      string     `json:"status" validate:"omitempty,oneof=draft published archived" example:"draft"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
}

func (r CreateCourseRequest) Validate() error {
	return GetValidator().Struct(r)
}

// UpdateCourseRequest is a patch: only non-nil fields are applied.
type UpdateCourseRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=10000"`
	Duration    *int       `json:"duration,omitempty" validate:"omitempty,min=0"`
	Category    *string    `json:"category,omitempty" validate:"omitempty,max=100"`
	Image       *string    `json:"image,omitempty" validate:"omitempty,max=1000"`
	PassScore   *int       `json:"passScore,omitempty" validate:"omitempty,min=0,max=100"`
	Level       *string    `json:"level,omitempty" validate:"omitempty,max=50"`
	Instructor  *string    `json:"instructor,omitempty" validate:"omitempty,max=255"`
	AccessType  *string    `json:"accessType,omitempty" validate:"omitempty,oneof=open closed"`
	Status      *string    `json:"status,omitempty" validate:"omitempty,oneof=draft published archived"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
}

func (r UpdateCourseRequest) Validate() error {
	return GetValidator().Struct(r)
}

type CourseResponse struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Duration     int        `json:"duration"`
	Category     string     `json:"category"`
	Image        string     `json:"image"`
	PassScore    int        `json:"passScore"`
	Level        string     `json:"level"`
	Instructor   string     `json:"instructor"`
	AccessType   string     `json:"accessType"`
	Status       string     `json:"status"`
	Published    bool       `json:"published"`
	LessonsCount int        `json:"lessonsCount"`
	StartDate    *time.Time `json:"startDate,omitempty"`
	EndDate      *time.Time `json:"endDate,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type CourseListResponse struct {
	Courses []CourseResponse `json:"courses"`
}

// ==================== LESSON DTOs ====================

type CreateLessonRequest struct {
	CourseID                    string          `json:"courseId" validate:"required"`
	Title                       string          `json:"title" validate:"required,not_blank,max=255"`
	Content                     string          `json:"content"`
	Type                        string          `json:"type" validate:"omitempty,oneof=text video pdf quiz test" example:"text"`
	Order                       *int            `json:"order" validate:"omitempty,min=0"`
	Duration                    int             `json:"duration" validate:"min=0"`
	VideoURL                    string          `json:"videoUrl" validate:"max=1000"`
	Description                 string          `json:"description"`
	Materials                   json.RawMessage `json:"materials,omitempty" swaggertype:"array,object"`
	RequiresPrevious            bool            `json:"requiresPrevious"`
	TestID                      *string         `json:"testId,omitempty"`
	IsFinalTest                 bool            `json:"isFinalTest"`
	FinalTestRequiresAllLessons bool            `json:"finalTestRequiresAllLessons"`
	FinalTestRequiresAllTests   bool            `json:"finalTestRequiresAllTests"`
}

func (r CreateLessonRequest) Validate() error {
	return GetValidator().Struct(r)
}

// UpdateLessonRequest is a patch: only non-nil fields are applied.
type UpdateLessonRequest struct {
	Title                       *string         `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Content                     *string         `json:"content,omitempty"`
	Type                        *string         `json:"type,omitempty" validate:"omitempty,oneof=text video pdf quiz test"`
	Order                       *int            `json:"order,omitempty" validate:"omitempty,min=0"`
	Duration                    *int            `json:"duration,omitempty" validate:"omitempty,min=0"`
	VideoURL                    *string         `json:"videoUrl,omitempty" validate:"omitempty,max=1000"`
	Description                 *string         `json:"description,omitempty"`
	Materials                   json.RawMessage `json:"materials,omitempty" swaggertype:"array,object"`
	RequiresPrevious            *bool           `json:"requiresPrevious,omitempty"`
	TestID                      *string         `json:"testId,omitempty"`
	IsFinalTest                 *bool           `json:"isFinalTest,omitempty"`
	FinalTestRequiresAllLessons *bool           `json:"finalTestRequiresAllLessons,omitempty"`
	FinalTestRequiresAllTests   *bool           `json:"finalTestRequiresAllTests,omitempty"`
}

func (r UpdateLessonRequest) Validate() error {
	return GetValidator().Struct(r)
}

type LessonResponse struct {
	ID                          string          `json:"id"`
	CourseID                    string          `json:"courseId"`
	Title                       string          `json:"title"`
	Content                     string          `json:"content"`
	Type                        string          `json:"type"`
	Order                       int             `json:"order"`
	Duration                    int             `json:"duration"`
	VideoURL                    string          `json:"videoUrl,omitempty"`
	Description                 string          `json:"description,omitempty"`
	Materials                   json.RawMessage `json:"materials,omitempty" swaggertype:"array,object"`
	RequiresPrevious            bool            `json:"requiresPrevious"`
	TestID                      *string         `json:"testId,omitempty"`
	IsFinalTest                 bool            `json:"isFinalTest"`
	FinalTestRequiresAllLessons bool            `json:"finalTestRequiresAllLessons"`
	FinalTestRequiresAllTests   bool            `json:"finalTestRequiresAllTests"`
}

type LessonListResponse struct {
	Lessons []LessonResponse `json:"lessons"`
}

// ==================== ASSIGNMENT DTOs ====================

type CreateAssignmentRequest struct {
	CourseID string `json:"courseId" validate:"required"`
	UserID   string `json:"userId" validate:"required"`
}

func (r CreateAssignmentRequest) Validate() error {
	return GetValidator().Struct(r)
}

type AssignmentResponse struct {
	ID         string    `json:"id"`
	CourseID   string    `json:"courseId"`
	UserID     string    `json:"userId"`
	AssignedBy *string   `json:"assignedBy,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type AssignmentListResponse struct {
	Assignments []AssignmentResponse `json:"assignments"`
}
