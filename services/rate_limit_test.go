package services

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/lms_api/shared"
)

func newRateLimitService(t *testing.T, max int) *RateLimitService {
	t.Helper()
	dbSvc := newTestDB(t)
	svc := &RateLimitService{dbSvc: dbSvc}
	svc.useDB(dbSvc.Db())
	svc.configs[LimitTestCheck].MaxRequests = max
	svc.configs[LimitTestCheck].BlockTime = time.Minute
	return svc
}

func TestIsAllowed_BlocksAfterWindowIsFull(t *testing.T) {
	svc := newRateLimitService(t, 3)

	for i := 1; i <= 3; i++ {
		allowed, info, err := svc.IsAllowed("u1", LimitTestCheck)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		if !allowed || info.Remaining != 3-i {
			t.Errorf("request %d: allowed=%v remaining=%d", i, allowed, info.Remaining)
		}
	}

	allowed, info, err := svc.IsAllowed("u1", LimitTestCheck)
	if err != nil {
		t.Fatalf("blocked request: %v", err)
	}
	if allowed || info.BlockedUntil == nil {
		t.Fatalf("expected block, got allowed=%v info=%+v", allowed, info)
	}

	// other callers keep their own window
	if allowed, _, _ := svc.IsAllowed("u2", LimitTestCheck); !allowed {
		t.Error("expected a different identifier to be allowed")
	}

	if err := svc.ResetRateLimit("u1", LimitTestCheck); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if allowed, _, _ := svc.IsAllowed("u1", LimitTestCheck); !allowed {
		t.Error("expected reset identifier to be allowed again")
	}

	stats, err := svc.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalRecords != 2 || stats.BlockedRecords != 0 {
		t.Errorf("expected 2 counters and none blocked, got %+v", stats)
	}
}

func TestIsAllowed_UnknownEndpointIsUnlimited(t *testing.T) {
	svc := newRateLimitService(t, 1)
	allowed, info, err := svc.IsAllowed("u1", "nope")
	if err != nil || !allowed || info.Remaining != -1 {
		t.Errorf("expected unlimited pass, got allowed=%v info=%+v err=%v", allowed, info, err)
	}
}

func TestResetRateLimit_RequiresIdentifier(t *testing.T) {
	svc := newRateLimitService(t, 1)
	wantStatus(t, svc.ResetRateLimit("", LimitTestCheck), http.StatusBadRequest)
}

func TestRateLimitMiddleware(t *testing.T) {
	svc := newRateLimitService(t, 2)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(shared.UserID, "student-1")
		return c.Next()
	})
	app.Post("/check", svc.RateLimit(LimitTestCheck), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/check", nil))
		if err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
		codes = append(codes, resp.StatusCode)
		if i == 0 && resp.Header.Get("X-RateLimit-Remaining") != "1" {
			t.Errorf("expected remaining header 1, got %q", resp.Header.Get("X-RateLimit-Remaining"))
		}
		if i == 2 && resp.Header.Get(fiber.HeaderRetryAfter) == "" {
			t.Error("expected Retry-After on the blocked response")
		}
	}

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d: expected %d, got %d", i+1, want[i], codes[i])
		}
	}
}

func TestGetClientIP_PrefersForwardedFor(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(getClientIP(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderXForwardedFor, "10.0.0.1, 10.0.0.2")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if got := string(body); got != "10.0.0.1" {
		t.Errorf("expected 10.0.0.1, got %q", got)
	}
}
