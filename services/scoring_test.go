package services

import (
	"encoding/json"
	"testing"

	"github.com/lac-hong-legacy/lms_api/model"
	"github.com/lac-hong-legacy/lms_api/shared"
	"gorm.io/datatypes"
)

func TestIsAnswerCorrect(t *testing.T) {
	single := &model.Question{Type: shared.QuestionTypeSingle, CorrectAnswer: datatypes.JSON(`2`)}
	multiple := &model.Question{Type: shared.QuestionTypeMultiple, CorrectAnswer: datatypes.JSON(`[0,2]`)}
	matching := &model.Question{
		Type:          shared.QuestionTypeMatching,
		MatchingPairs: datatypes.JSON(`[{"left":"Go","right":"gopher"},{"left":"Rust","right":"crab"}]`),
	}
	text := &model.Question{Type: shared.QuestionTypeText, CorrectAnswer: datatypes.JSON(`"Paris"`)}
	emptyText := &model.Question{Type: shared.QuestionTypeText, CorrectAnswer: datatypes.JSON(`"  "`)}

	tests := []struct {
		name     string
		question *model.Question
		answer   string
		want     bool
	}{
		{"single exact", single, `2`, true},
		{"single numeric string", single, `"2"`, true},
		{"single wrong", single, `1`, false},
		{"single fractional", single, `2.5`, false},
		{"single garbage", single, `"two"`, false},
		{"multiple same set", multiple, `[0,2]`, true},
		{"multiple any order", multiple, `[2,0]`, true},
		{"multiple missing option", multiple, `[0]`, false},
		{"multiple extra option", multiple, `[0,1,2]`, false},
		{"multiple duplicate instead of option", multiple, `[0,0]`, false},
		{"matching in order", matching, `["gopher","crab"]`, true},
		{"matching swapped", matching, `["crab","gopher"]`, false},
		{"matching short", matching, `["gopher"]`, false},
		{"text case and space insensitive", text, `"  paris "`, true},
		{"text wrong", text, `"Lyon"`, false},
		{"text without key never matches", emptyText, `""`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAnswerCorrect(tt.question, json.RawMessage(tt.answer)); got != tt.want {
				t.Errorf("IsAnswerCorrect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScorePercent(t *testing.T) {
	tests := []struct {
		earned, total, want int
	}{
		{0, 0, 0},
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{3, 3, 100},
	}
	for _, tt := range tests {
		if got := ScorePercent(tt.earned, tt.total); got != tt.want {
			t.Errorf("ScorePercent(%d, %d) = %d, want %d", tt.earned, tt.total, got, tt.want)
		}
	}
}

func TestEvaluate(t *testing.T) {
	questions := []model.Question{
		{ID: "q1", Type: shared.QuestionTypeSingle, CorrectAnswer: datatypes.JSON(`0`), Points: 2},
		{ID: "q2", Type: shared.QuestionTypeSingle, CorrectAnswer: datatypes.JSON(`1`)},
		{ID: "q3", Type: shared.QuestionTypeText, CorrectAnswer: datatypes.JSON(`"yes"`), Points: 1},
	}

	t.Run("unanswered questions still count", func(t *testing.T) {
		ev := Evaluate(questions, map[string]json.RawMessage{"q1": json.RawMessage(`0`)}, 70, false)
		if ev.TotalPoints != 4 || ev.EarnedPoints != 2 {
			t.Fatalf("expected 2/4 points, got %d/%d", ev.EarnedPoints, ev.TotalPoints)
		}
		if ev.Score != 50 || ev.Passed {
			t.Errorf("expected failing 50, got %d passed=%v", ev.Score, ev.Passed)
		}
		if len(ev.Results) != 3 {
			t.Errorf("expected a result per question, got %d", len(ev.Results))
		}
	})

	t.Run("pass threshold is inclusive", func(t *testing.T) {
		ev := Evaluate(questions, map[string]json.RawMessage{
			"q1": json.RawMessage(`0`),
			"q3": json.RawMessage(`"YES"`),
		}, 75, false)
		if ev.Score != 75 || !ev.Passed {
			t.Errorf("expected passing 75, got %d passed=%v", ev.Score, ev.Passed)
		}
	})

	t.Run("answers are revealed only on request", func(t *testing.T) {
		hidden := Evaluate(questions, nil, 70, false)
		for _, r := range hidden.Results {
			if r.CorrectAnswer != nil {
				t.Errorf("question %s revealed its answer", r.QuestionID)
			}
		}
		shown := Evaluate(questions, nil, 70, true)
		if string(shown.Results[0].CorrectAnswer) != `0` {
			t.Errorf("expected revealed answer 0, got %s", shown.Results[0].CorrectAnswer)
		}
	})
}
