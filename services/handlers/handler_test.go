package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/lms_api/dto"
	"github.com/lac-hong-legacy/lms_api/shared"
)

type fakeAttempts struct {
	AttemptServiceInterface

	used  int
	max   int
	actor shared.Actor
}

func (f *fakeAttempts) GetStatus(actor shared.Actor, lessonID string) (*dto.AttemptStatusResponse, error) {
	f.actor = actor
	remaining := f.max - f.used
	return &dto.AttemptStatusResponse{LessonID: lessonID, AttemptsUsed: f.used, MaxAttempts: &f.max, RemainingAttempts: &remaining}, nil
}

func (f *fakeAttempts) StartAttempt(_ context.Context, actor shared.Actor, lessonID string) (*dto.AttemptStatusResponse, error) {
	if f.used >= f.max {
		return nil, shared.NewAttemptsExhaustedError(f.used, f.max)
	}
	f.used++
	return f.GetStatus(actor, lessonID)
}

type fakeProgress struct {
	ProgressServiceInterface

	submitted dto.SubmitTestRequest
}

func (f *fakeProgress) SubmitTest(_ context.Context, _ shared.Actor, req dto.SubmitTestRequest) (*dto.SubmitTestResponse, error) {
	f.submitted = req
	return &dto.SubmitTestResponse{Result: dto.CheckTestResponse{Score: 100, Passed: true}}, nil
}

func testErrorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		return shared.ResponseError(c, appErr)
	}
	return fiber.DefaultErrorHandler(c, err)
}

func newTestApp(role string) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: testErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(shared.UserID, "student-1")
		c.Locals(shared.UserRole, role)
		return c.Next()
	})
	return app
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, shared.Response) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	raw, _ := io.ReadAll(resp.Body)

	var out shared.Response
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func TestAttemptHandler_StartUntilExhausted(t *testing.T) {
	svc := &fakeAttempts{max: 1}
	h := NewAttemptHandler(svc)
	app := newTestApp(shared.RoleStudent)
	app.Get("/test-attempts", h.Get)
	app.Post("/test-attempts", h.Post)

	code, _ := do(t, app, http.MethodGet, "/test-attempts", "")
	if code != http.StatusBadRequest {
		t.Errorf("expected 400 without lessonId, got %d", code)
	}

	code, _ = do(t, app, http.MethodPost, "/test-attempts?action=start", `{"lessonId":"l1"}`)
	if code != http.StatusOK {
		t.Fatalf("expected first start to pass, got %d", code)
	}
	if svc.actor.UserID != "student-1" {
		t.Errorf("expected actor from locals, got %+v", svc.actor)
	}

	code, resp := do(t, app, http.MethodPost, "/test-attempts?action=start", `{"lessonId":"l1"}`)
	if code != http.StatusForbidden {
		t.Fatalf("expected 403 once exhausted, got %d", code)
	}
	data, _ := resp.Data.(map[string]interface{})
	if data["attemptsUsed"] != float64(1) || data["maxAttempts"] != float64(1) {
		t.Errorf("expected attempt counts in data, got %v", resp.Data)
	}

	code, _ = do(t, app, http.MethodPost, "/test-attempts?action=start", `{}`)
	if code != http.StatusBadRequest {
		t.Errorf("expected validation failure, got %d", code)
	}

	code, _ = do(t, app, http.MethodPost, "/test-attempts?action=bogus", `{}`)
	if code != http.StatusBadRequest {
		t.Errorf("expected unknown action to fail, got %d", code)
	}
}

func TestProgressHandler_Submit(t *testing.T) {
	svc := &fakeProgress{}
	h := NewProgressHandler(svc)
	app := newTestApp(shared.RoleStudent)
	app.Post("/progress", h.Post)

	code, resp := do(t, app, http.MethodPost, "/progress?action=submit",
		`{"courseId":"c1","testId":"t1","lessonId":"l1","answers":{"q1":1}}`)
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if resp.Message != "Test submitted successfully" {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if svc.submitted.TestID != "t1" || string(svc.submitted.Answers["q1"]) != "1" {
		t.Errorf("unexpected request %+v", svc.submitted)
	}

	code, _ = do(t, app, http.MethodPost, "/progress?action=submit", `{"courseId":"c1"}`)
	if code != http.StatusBadRequest {
		t.Errorf("expected 400 for a missing test id, got %d", code)
	}

	code, _ = do(t, app, http.MethodPost, "/progress?action=submit", `not json`)
	if code != http.StatusBadRequest {
		t.Errorf("expected 400 for a malformed body, got %d", code)
	}
}

type fakeRewards struct {
	RewardServiceInterface
	created int
}

func (f *fakeRewards) CreateReward(_ shared.Actor, _ dto.CreateRewardRequest) (*dto.CreatedResponse, error) {
	f.created++
	return &dto.CreatedResponse{ID: "r1"}, nil
}

func TestRewardHandler_CreateRequiresAdmin(t *testing.T) {
	body := `{"courseId":"c1","name":"Badge"}`

	svc := &fakeRewards{}
	student := newTestApp(shared.RoleStudent)
	student.Post("/rewards", NewRewardHandler(svc).Create)
	if code, _ := do(t, student, http.MethodPost, "/rewards", body); code != http.StatusForbidden {
		t.Errorf("expected 403 for a student, got %d", code)
	}

	admin := newTestApp(shared.RoleAdmin)
	admin.Post("/rewards", NewRewardHandler(svc).Create)
	if code, _ := do(t, admin, http.MethodPost, "/rewards", body); code != http.StatusCreated {
		t.Errorf("expected 201 for an admin, got %d", code)
	}
	if svc.created != 1 {
		t.Errorf("expected one reward created, got %d", svc.created)
	}
}
