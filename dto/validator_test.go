package dto

import "testing"

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     Validator
		wantErr bool
	}{
		{"login ok", LoginRequest{Email: "a@b.co", Password: "x"}, false},
		{"login bad email", LoginRequest{Email: "nope", Password: "x"}, true},
		{"reward blank name", CreateRewardRequest{Name: "   "}, true},
		{"test pass score above 100", CreateTestRequest{Title: "T", PassScore: intPtr(101)}, true},
		{"test negative attempts", CreateTestRequest{Title: "T", Attempts: intPtr(-1)}, true},
		{"test unlimited attempts", CreateTestRequest{Title: "T", Attempts: intPtr(0)}, false},
		{"question unknown type", CreateQuestionRequest{TestID: "t", Type: "essay", Text: "Q"}, true},
		{"matching pair without right", CreateQuestionRequest{TestID: "t", Type: "matching", Text: "Q", MatchingPairs: []MatchingPair{{Left: "a"}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateValidationErrorResponse(t *testing.T) {
	resp := CreateValidationErrorResponse(CreateRewardRequest{Name: " "}.Validate())
	if resp.Code != 400 || len(resp.Errors) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Errors[0].Field != "Name" || resp.Errors[0].Message != "Name must not be blank" {
		t.Errorf("unexpected error %+v", resp.Errors[0])
	}
}

func intPtr(v int) *int { return &v }
