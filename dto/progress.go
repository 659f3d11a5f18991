package dto

import (
	"encoding/json"
	"time"
)

// ==================== PROGRESS DTOs ====================

type StartCourseRequest struct {
	CourseID string `json:"courseId" validate:"required"`
}

func (r StartCourseRequest) Validate() error {
	return GetValidator().Struct(r)
}

type CompleteLessonRequest struct {
	CourseID string `json:"courseId" validate:"required"`
	LessonID string `json:"lessonId" validate:"required"`
}

func (r CompleteLessonRequest) Validate() error {
	return GetValidator().Struct(r)
}

type SubmitTestRequest struct {
	CourseID string                     `json:"courseId" validate:"required"`
	TestID   string                     `json:"testId" validate:"required"`
	LessonID string                     `json:"lessonId,omitempty"`
	Answers  map[string]json.RawMessage `json:"answers" validate:"required" swaggertype:"object"`
}

func (r SubmitTestRequest) Validate() error {
	return GetValidator().Struct(r)
}

type ResetProgressRequest struct {
	CourseID  string `json:"courseId" validate:"required"`
	ResetType string `json:"resetType" validate:"omitempty,oneof=reset_all reset_tests keep" example:"reset_all"`
	UserID    string `json:"userId,omitempty"`
}

func (r ResetProgressRequest) Validate() error {
	return GetValidator().Struct(r)
}

type ProgressQuery struct {
	UserID   string `query:"userId"`
	CourseID string `query:"courseId"`
}

type ProgressResponse struct {
	CourseID           string     `json:"courseId"`
	UserID             string     `json:"userId"`
	CompletedLessons   int        `json:"completedLessons"`
	TotalLessons       int        `json:"totalLessons"`
	TestScore          *int       `json:"testScore"`
	Completed          bool       `json:"completed"`
	CompletedLessonIDs []string   `json:"completedLessonIds"`
	EarnedRewards      []string   `json:"earnedRewards"`
	LastAccessedLesson *string    `json:"lastAccessedLesson"`
	StartedAt          time.Time  `json:"startedAt"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
}

type ProgressEnvelope struct {
	Progress ProgressResponse `json:"progress"`
}

type ProgressListResponse struct {
	Progress []ProgressResponse `json:"progress"`
}

type SubmitTestResponse struct {
	Result   CheckTestResponse `json:"result"`
	Progress *ProgressResponse `json:"progress,omitempty"`
}

type LessonLockResponse struct {
	LessonID  string `json:"lessonId"`
	IsLocked  bool   `json:"isLocked"`
	Reason    string `json:"reason" example:"none"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// ==================== ATTEMPT DTOs ====================

type StartAttemptRequest struct {
	LessonID string `json:"lessonId" validate:"required"`
}

func (r StartAttemptRequest) Validate() error {
	return GetValidator().Struct(r)
}

type RecordAttemptRequest struct {
	LessonID string `json:"lessonId" validate:"required"`
	CourseID string `json:"courseId" validate:"required"`
	TestID   string `json:"testId" validate:"required"`
	Score    int    `json:"score" validate:"min=0,max=100"`
	Passed   bool   `json:"passed"`
}

func (r RecordAttemptRequest) Validate() error {
	return GetValidator().Struct(r)
}

// AttemptStatusResponse reports attempt usage. MaxAttempts and RemainingAttempts are null
// for unlimited tests unless the legacy sentinel is enabled.
type AttemptStatusResponse struct {
	LessonID             string     `json:"lessonId"`
	AttemptsUsed         int        `json:"attemptsUsed"`
	RemainingAttempts    *int       `json:"remainingAttempts"`
	MaxAttempts          *int       `json:"maxAttempts"`
	BestScore            int        `json:"bestScore"`
	LastAttemptAt        *time.Time `json:"lastAttemptAt"`
	HasUnlimitedAttempts bool       `json:"hasUnlimitedAttempts"`
}

type RecordAttemptResponse struct {
	Success   bool `json:"success"`
	BestScore int  `json:"bestScore"`
}
