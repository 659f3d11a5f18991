package model

import (
	"time"

	"gorm.io/datatypes"
)

type Test struct {
	ID              string    `json:"id" gorm:"primaryKey;type:text"`
	CourseID        *string   `json:"course_id" gorm:"index"`
	Title           string    `json:"title" gorm:"not null"`
	Description     string    `json:"description" gorm:"type:text"`
	PassScore       *int      `json:"pass_score"`
	TimeLimit       int       `json:"time_limit" gorm:"not null"`
	AttemptsAllowed int       `json:"attempts_allowed" gorm:"not null"` // 0 = unlimited
	Status          string    `json:"status" gorm:"not null;size:20"`
	QuestionsCount  int       `json:"questions_count" gorm:"not null"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// EffectivePassScore falls back to 70 when no threshold was configured.
func (t *Test) EffectivePassScore() int {
	if t.PassScore == nil {
		return 70
	}
	return *t.PassScore
}

type Question struct {
	ID            string         `json:"id" gorm:"primaryKey;type:text"`
	TestID        string         `json:"test_id" gorm:"not null;index"`
	Type          string         `json:"type" gorm:"not null;size:20"`
	Text          string         `json:"text" gorm:"type:text;not null"`
	// text columns: a JSON-typed column has numeric affinity on SQLite and bare keys like 1
	// come back as integers
	Options       datatypes.JSON `json:"options" gorm:"type:text"`
	CorrectAnswer datatypes.JSON `json:"correct_answer" gorm:"type:text"`
	MatchingPairs datatypes.JSON `json:"matching_pairs" gorm:"type:text"`
	Points        int            `json:"points" gorm:"not null"`
	Order         int            `json:"order" gorm:"not null"`
	TextCheckType string         `json:"text_check_type" gorm:"size:20"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type MatchingPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}
