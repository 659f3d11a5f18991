package dto

import (
	"encoding/json"
	"time"
)

// ==================== TEST DTOs ====================

type CreateTestRequest struct {
	CourseID    *string `json:"courseId,omitempty"`
	Title       string  `json:"title" validate:"required,not_blank,max=255"`
	Description string  `json:"description"`
	PassScore   *int    `json:"passScore,omitempty" validate:"omitempty,min=0,max=100" example:"70"`
	TimeLimit   *int    `json:"timeLimit,omitempty" validate:"omitempty,min=1" example:"60"`
	Attempts    *int    `json:"attempts,omitempty" validate:"omitempty,min=0" example:"3"`
	Status      string  `json:"status" validate:"omitempty,oneof=draft published" example:"draft"`
}

func (r CreateTestRequest) Validate() error {
	return GetValidator().Struct(r)
}

// UpdateTestRequest is a patch: only non-nil fields are applied.
type UpdateTestRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty"`
	PassScore   *int    `json:"passScore,omitempty" validate:"omitempty,min=0,max=100"`
	TimeLimit   *int    `json:"timeLimit,omitempty" validate:"omitempty,min=1"`
	Attempts    *int    `json:"attempts,omitempty" validate:"omitempty,min=0"`
	Status      *string `json:"status,omitempty" validate:"omitempty,oneof=draft published"`
}

func (r UpdateTestRequest) Validate() error {
	return GetValidator().Struct(r)
}

type TestResponse struct {
	ID             string    `json:"id"`
	CourseID       *string   `json:"courseId,omitempty"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	PassScore      int       `json:"passScore"`
	TimeLimit      int       `json:"timeLimit"`
	Attempts       int       `json:"attempts"`
	Status         string    `json:"status"`
	QuestionsCount int       `json:"questionsCount"`
	CreatedAt      time.Time `json:"createdAt"`
}

type TestListResponse struct {
	Tests []TestResponse `json:"tests"`
}

// ==================== QUESTION DTOs ====================

type MatchingPair struct {
	Left  string `json:"left" validate:"required"`
	Right string `json:"right" validate:"required"`
}

type CreateQuestionRequest struct {
	TestID        string          `json:"testId" validate:"required"`
	Type          string          `json:"type" validate:"required,oneof=single multiple text matching" example:"single"`
	Text          string          `json:"text" validate:"required,not_blank"`
	Options       []string        `json:"options,omitempty"`
	CorrectAnswer json.RawMessage `json:"correctAnswer,omitempty" swaggertype:"object"`
	Points        *int            `json:"points,omitempty" validate:"omitempty,min=0" example:"1"`
	Order         *int            `json:"order,omitempty" validate:"omitempty,min=0"`
	MatchingPairs []MatchingPair  `json:"matchingPairs,omitempty" validate:"omitempty,dive"`
	TextCheckType string          `json:"textCheckType,omitempty" validate:"omitempty,oneof=manual automatic"`
}

func (r CreateQuestionRequest) Validate() error {
	return GetValidator().Struct(r)
}

// UpdateQuestionRequest is a patch: only non-nil fields are applied.
type UpdateQuestionRequest struct {
	Type          *string         `json:"type,omitempty" validate:"omitempty,oneof=single multiple text matching"`
	Text          *string         `json:"text,omitempty" validate:"omitempty,min=1"`
	Options       []string        `json:"options,omitempty"`
	CorrectAnswer json.RawMessage `json:"correctAnswer,omitempty" swaggertype:"object"`
	Points        *int            `json:"points,omitempty" validate:"omitempty,min=0"`
	Order         *int            `json:"order,omitempty" validate:"omitempty,min=0"`
	MatchingPairs []MatchingPair  `json:"matchingPairs,omitempty" validate:"omitempty,dive"`
	TextCheckType *string         `json:"textCheckType,omitempty" validate:"omitempty,oneof=manual automatic"`
}

func (r UpdateQuestionRequest) Validate() error {
	return GetValidator().Struct(r)
}

type QuestionResponse struct {
	ID            string          `json:"id"`
	TestID        string          `json:"testId"`
	Type          string          `json:"type"`
	Text          string          `json:"text"`
	Options       []string        `json:"options"`
	CorrectAnswer json.RawMessage `json:"correctAnswer,omitempty" swaggertype:"object"`
	Points        int             `json:"points"`
	Order         int             `json:"order"`
	MatchingPairs []MatchingPair  `json:"matchingPairs,omitempty"`
	TextCheckType string          `json:"textCheckType,omitempty"`
}

type QuestionListResponse struct {
	Questions []QuestionResponse `json:"questions"`
}

// ==================== EVALUATION DTOs ====================

// CheckTestRequest carries answers keyed by question id; the value shape depends on the
// question type (index, index list, label list or free text).
type CheckTestRequest struct {
	TestID   string                     `json:"testId" validate:"required"`
	LessonID string                     `json:"lessonId,omitempty"`
	CourseID string                     `json:"courseId,omitempty"`
	Answers  map[string]json.RawMessage `json:"answers" validate:"required" swaggertype:"object"`
}

func (r CheckTestRequest) Validate() error {
	return GetValidator().Struct(r)
}

type QuestionResult struct {
	QuestionID    string          `json:"questionId"`
	IsCorrect     bool            `json:"isCorrect"`
	Points        int             `json:"points"`
	EarnedPoints  int             `json:"earnedPoints"`
	CorrectAnswer json.RawMessage `json:"correctAnswer,omitempty" swaggertype:"object"`
}

type CheckTestResponse struct {
	ResultID     string           `json:"resultId"`
	Score        int              `json:"score"`
	EarnedPoints int              `json:"earnedPoints"`
	TotalPoints  int              `json:"totalPoints"`
	Passed       bool             `json:"passed"`
	PassScore    int              `json:"passScore"`
	Results      []QuestionResult `json:"results"`
}

type TestResultResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	TestID       string    `json:"testId"`
	LessonID     *string   `json:"lessonId,omitempty"`
	Score        int       `json:"score"`
	EarnedPoints int       `json:"earnedPoints"`
	TotalPoints  int       `json:"totalPoints"`
	Passed       bool      `json:"passed"`
	CreatedAt    time.Time `json:"createdAt"`
}

type TestResultListResponse struct {
	Results []TestResultResponse `json:"results"`
}
