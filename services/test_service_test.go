package services

import (
	"encoding/json"
	"net/http"
	"reflect"
	"testing"

	"github.com/lac-hong-legacy/lms_api/dto"
	"github.com/lac-hong-legacy/lms_api/shared"
)

func intPtr(v int) *int { return &v }

func TestValidateAnswerKey(t *testing.T) {
	tests := []struct {
		name      string
		qType     string
		key       string
		pairs     []dto.MatchingPair
		checkType string
		wantErr   bool
	}{
		{"single index", shared.QuestionTypeSingle, `1`, nil, "", false},
		{"single missing", shared.QuestionTypeSingle, ``, nil, "", true},
		{"single list", shared.QuestionTypeSingle, `[1]`, nil, "", true},
		{"multiple list", shared.QuestionTypeMultiple, `[0,1]`, nil, "", false},
		{"multiple empty", shared.QuestionTypeMultiple, `[]`, nil, "", true},
		{"matching pairs", shared.QuestionTypeMatching, ``, []dto.MatchingPair{{Left: "a", Right: "b"}}, "", false},
		{"matching without pairs", shared.QuestionTypeMatching, ``, nil, "", true},
		{"text manual without key", shared.QuestionTypeText, ``, nil, shared.TextCheckManual, false},
		{"text string", shared.QuestionTypeText, `"ok"`, nil, shared.TextCheckAutomatic, false},
		{"text number", shared.QuestionTypeText, `5`, nil, shared.TextCheckAutomatic, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var key json.RawMessage
			if tt.key != "" {
				key = json.RawMessage(tt.key)
			}
			err := validateAnswerKey(tt.qType, key, tt.pairs, tt.checkType)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateAnswerKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !shared.IsStatus(err, http.StatusBadRequest) {
				t.Errorf("expected 400, got %v", err)
			}
		})
	}
}

func TestStudentQuestionView(t *testing.T) {
	q := dto.QuestionResponse{
		Type:          shared.QuestionTypeMatching,
		CorrectAnswer: json.RawMessage(`["x"]`),
		MatchingPairs: []dto.MatchingPair{
			{Left: "Go", Right: "gopher"},
			{Left: "Rust", Right: "crab"},
		},
	}
	view := studentQuestionView(q)

	if view.CorrectAnswer != nil {
		t.Error("expected answer key to be hidden")
	}
	if !reflect.DeepEqual(view.Options, []string{"crab", "gopher"}) {
		t.Errorf("expected sorted right labels, got %v", view.Options)
	}
	for _, p := range view.MatchingPairs {
		if p.Right != "" {
			t.Errorf("pair %q leaked its right side", p.Left)
		}
	}
}

func TestQuestionLifecycle_RefreshesCount(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, shared.AccessOpen)
	test, err := f.tests.CreateTest(dto.CreateTestRequest{
		CourseID: &course.ID,
		Title:    "Quiz",
		Attempts: intPtr(2),
		Status:   shared.TestStatusPublished,
	})
	if err != nil {
		t.Fatalf("create test: %v", err)
	}
	if test.Attempts != 2 || test.PassScore != shared.DefaultPassScore {
		t.Errorf("unexpected defaults %+v", test)
	}

	_, err = f.tests.CreateQuestion(dto.CreateQuestionRequest{
		TestID: test.ID,
		Type:   shared.QuestionTypeSingle,
		Text:   "Bad",
	})
	wantStatus(t, err, http.StatusBadRequest)

	q, err := f.tests.CreateQuestion(dto.CreateQuestionRequest{
		TestID:        test.ID,
		Type:          shared.QuestionTypeText,
		Text:          "Capital of France",
		CorrectAnswer: json.RawMessage(`"Paris"`),
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	if q.Order != 1 || q.Points != 1 || q.TextCheckType != shared.TextCheckAutomatic {
		t.Errorf("unexpected question defaults %+v", q)
	}

	got, err := f.tests.GetTest(adminActor, test.ID)
	if err != nil {
		t.Fatalf("get test: %v", err)
	}
	if got.QuestionsCount != 1 {
		t.Errorf("expected 1 question, got %d", got.QuestionsCount)
	}

	if err := f.tests.DeleteQuestion(q.ID); err != nil {
		t.Fatalf("delete question: %v", err)
	}
	got, _ = f.tests.GetTest(adminActor, test.ID)
	if got.QuestionsCount != 0 {
		t.Errorf("expected 0 questions after delete, got %d", got.QuestionsCount)
	}

	_, err = f.tests.CreateQuestion(dto.CreateQuestionRequest{
		TestID:        "missing",
		Type:          shared.QuestionTypeSingle,
		Text:          "Orphan",
		CorrectAnswer: json.RawMessage(`0`),
	})
	wantStatus(t, err, http.StatusNotFound)
}

func TestListQuestions_HidesKeyFromStudents(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, shared.AccessOpen)
	test, _ := f.test(t, course.ID, 3)

	student, err := f.tests.ListQuestions(studentActor, test.ID)
	if err != nil {
		t.Fatalf("list as student: %v", err)
	}
	if len(student.Questions) != 1 || student.Questions[0].CorrectAnswer != nil {
		t.Errorf("expected one question without key, got %+v", student.Questions)
	}

	admin, err := f.tests.ListQuestions(adminActor, test.ID)
	if err != nil {
		t.Fatalf("list as admin: %v", err)
	}
	if string(admin.Questions[0].CorrectAnswer) != `1` {
		t.Errorf("expected admin to see key 1, got %s", admin.Questions[0].CorrectAnswer)
	}
}

func TestCheckTest(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, shared.AccessOpen)
	test, question := f.test(t, course.ID, 3)

	resp, err := f.tests.CheckTest(studentActor, dto.CheckTestRequest{
		TestID:  test.ID,
		Answers: answerSet(map[string]string{question.ID: `1`}),
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if resp.Score != 100 || !resp.Passed || resp.ResultID == "" {
		t.Errorf("unexpected result %+v", resp)
	}
	if resp.Results[0].CorrectAnswer != nil {
		t.Error("students must not see the key in results")
	}

	results, err := f.tests.ListResults(studentActor, "", test.ID)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(results.Results) != 1 || results.Results[0].UserID != studentActor.UserID {
		t.Errorf("expected the student's single result, got %+v", results.Results)
	}

	_, err = f.tests.ListResults(studentActor, "someone-else", test.ID)
	wantStatus(t, err, http.StatusForbidden)
}

func TestCheckTest_DraftHiddenFromStudents(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, shared.AccessOpen)
	draft, err := f.tests.CreateTest(dto.CreateTestRequest{CourseID: &course.ID, Title: "Draft"})
	if err != nil {
		t.Fatalf("create test: %v", err)
	}

	_, err = f.tests.CheckTest(studentActor, dto.CheckTestRequest{TestID: draft.ID, Answers: map[string]json.RawMessage{}})
	wantStatus(t, err, http.StatusNotFound)

	list, err := f.tests.ListTests(studentActor, course.ID)
	if err != nil {
		t.Fatalf("list tests: %v", err)
	}
	if len(list.Tests) != 0 {
		t.Errorf("expected drafts to be filtered, got %d", len(list.Tests))
	}
}
