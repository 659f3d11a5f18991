package dto

import (
	"encoding/json"
	"time"
)

type CreateRewardRequest struct {
	Name        string          `json:"name" validate:"required,not_blank,max=255"`
	Icon        string          `json:"icon" validate:"max=255"`
	Color       string          `json:"color" validate:"max=50"`
	CourseID    *string         `json:"courseId,omitempty"`
	Description string          `json:"description"`
	Condition   string          `json:"condition"`
	Bonuses     json.RawMessage `json:"bonuses,omitempty" swaggertype:"array,object"`
}

func (r CreateRewardRequest) Validate() error {
	return GetValidator().Struct(r)
}

// UpdateRewardRequest is a patch: only non-nil fields are applied.
type UpdateRewardRequest struct {
	Name        *string         `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Icon        *string         `json:"icon,omitempty" validate:"omitempty,max=255"`
	Color       *string         `json:"color,omitempty" validate:"omitempty,max=50"`
	CourseID    *string         `json:"courseId,omitempty"`
	Description *string         `json:"description,omitempty"`
	Condition   *string         `json:"condition,omitempty"`
	Bonuses     json.RawMessage `json:"bonuses,omitempty" swaggertype:"array,object"`
}

func (r UpdateRewardRequest) Validate() error {
	return GetValidator().Struct(r)
}

type RewardResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Icon        string          `json:"icon"`
	Color       string          `json:"color"`
	CourseID    *string         `json:"courseId,omitempty"`
	Description string          `json:"description"`
	Condition   string          `json:"condition"`
	Bonuses     json.RawMessage `json:"bonuses" swaggertype:"array,object"`
	EarnedCount int64           `json:"earnedCount"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type RewardListResponse struct {
	Rewards []RewardResponse `json:"rewards"`
}
