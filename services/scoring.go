package services

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/lac-hong-legacy/lms_api/dto"
	"github.com/lac-hong-legacy/lms_api/model"
	"github.com/lac-hong-legacy/lms_api/shared"
)

// Evaluation is the outcome of grading one submission.
type Evaluation struct {
	Score        int
	EarnedPoints int
	TotalPoints  int
	Passed       bool
	Results      []dto.QuestionResult
}

func questionPoints(q *model.Question) int {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}

// Evaluate grades answers (keyed by question id) against the question bank. Every question
// counts toward the total whether or not it was answered.
func Evaluate(questions []model.Question, answers map[string]json.RawMessage, passScore int, revealAnswers bool) Evaluation {
	ev := Evaluation{Results: make([]dto.QuestionResult, 0, len(questions))}

	for i := range questions {
		q := &questions[i]
		points := questionPoints(q)
		ev.TotalPoints += points

		answer, answered := answers[q.ID]
		correct := answered && IsAnswerCorrect(q, answer)

		result := dto.QuestionResult{
			QuestionID: q.ID,
			IsCorrect:  correct,
			Points:     points,
		}
		if correct {
			result.EarnedPoints = points
			ev.EarnedPoints += points
		}
		if revealAnswers {
			result.CorrectAnswer = correctAnswerOf(q)
		}
		ev.Results = append(ev.Results, result)
	}

	ev.Score = ScorePercent(ev.EarnedPoints, ev.TotalPoints)
	ev.Passed = ev.Score >= passScore
	return ev
}

// ScorePercent rounds earned/total to a whole percentage; an empty test scores 0.
func ScorePercent(earned, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(earned) / float64(total) * 100))
}

func IsAnswerCorrect(q *model.Question, answer json.RawMessage) bool {
	switch q.Type {
	case shared.QuestionTypeSingle:
		want, ok := decodeIndex(q.CorrectAnswer)
		if !ok {
			return false
		}
		got, ok := decodeIndex(answer)
		return ok && got == want

	case shared.QuestionTypeMultiple:
		want, ok := decodeIndexList(q.CorrectAnswer)
		if !ok {
			return false
		}
		got, ok := decodeIndexList(answer)
		return ok && sameIndexSet(want, got)

	case shared.QuestionTypeMatching:
		var pairs []model.MatchingPair
		if len(q.MatchingPairs) == 0 || shared.JSON.Unmarshal(q.MatchingPairs, &pairs) != nil || len(pairs) == 0 {
			return false
		}
		var got []string
		if shared.JSON.Unmarshal(answer, &got) != nil || len(got) != len(pairs) {
			return false
		}
		for i, pair := range pairs {
			if got[i] != pair.Right {
				return false
			}
		}
		return true

	case shared.QuestionTypeText:
		want, ok := decodeText(q.CorrectAnswer)
		if !ok || strings.TrimSpace(want) == "" {
			return false
		}
		got, ok := decodeText(answer)
		return ok && strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(want))
	}

	return false
}

// correctAnswerOf is the key revealed to admins: the right-hand order for matching
// questions, the stored answer otherwise.
func correctAnswerOf(q *model.Question) json.RawMessage {
	if q.Type == shared.QuestionTypeMatching {
		var pairs []model.MatchingPair
		if shared.JSON.Unmarshal(q.MatchingPairs, &pairs) != nil {
			return nil
		}
		rights := make([]string, 0, len(pairs))
		for _, p := range pairs {
			rights = append(rights, p.Right)
		}
		raw, err := shared.JSON.Marshal(rights)
		if err != nil {
			return nil
		}
		return raw
	}
	if len(q.CorrectAnswer) == 0 {
		return nil
	}
	return json.RawMessage(q.CorrectAnswer)
}

// decodeIndex accepts a JSON number or a numeric string.
func decodeIndex(raw []byte) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var v interface{}
	if shared.JSON.Unmarshal(raw, &v) != nil {
		return 0, false
	}
	return toIndex(v)
}

func toIndex(v interface{}) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := strconv.ParseFloat(n.String(), 64)
		if err != nil || i != math.Trunc(i) {
			return 0, false
		}
		return int(i), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

func decodeIndexList(raw []byte) ([]int, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var values []interface{}
	if shared.JSON.Unmarshal(raw, &values) != nil {
		return nil, false
	}
	out := make([]int, 0, len(values))
	for _, v := range values {
		i, ok := toIndex(v)
		if !ok {
			return nil, false
		}
		out = append(out, i)
	}
	return out, true
}

// sameIndexSet compares sorted copies, so a repeated index never matches a set without it.
func sameIndexSet(want, got []int) bool {
	if len(want) != len(got) {
		return false
	}
	a := append([]int(nil), want...)
	b := append([]int(nil), got...)
	sort.Ints(a)
	sort.Ints(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func decodeText(raw []byte) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if shared.JSON.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}
