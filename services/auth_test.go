package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/lms_api/dto"
	"github.com/lac-hong-legacy/lms_api/model"
	"github.com/lac-hong-legacy/lms_api/shared"
)

func TestJWT_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)
	token, exp, err := svc.ToJWT(&model.User{ID: "u1", Email: "a@b.c", Role: shared.RoleAdmin})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Errorf("expected expiry in the future, got %v", exp)
	}

	claims, err := svc.VerifyJWTToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "u1" || claims.Role != shared.RoleAdmin || claims.ID == "" {
		t.Errorf("unexpected claims %+v", claims)
	}

	if _, err := NewJWTService("other", time.Hour).VerifyJWTToken(token); err != ErrTokenInvalid {
		t.Errorf("expected ErrTokenInvalid for a foreign key, got %v", err)
	}

	expired, _, _ := NewJWTService("secret", -time.Minute).ToJWT(&model.User{ID: "u1"})
	if _, err := svc.VerifyJWTToken(expired); err != ErrTokenInvalid {
		t.Errorf("expected expired token to be rejected, got %v", err)
	}
}

func TestExtractToken(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)
	tests := []struct {
		name      string
		authToken string
		header    string
		want      string
		wantErr   error
	}{
		{"custom header wins", "abc", "Bearer xyz", "abc", nil},
		{"bearer", "", "Bearer xyz", "xyz", nil},
		{"bearer any case", "", "bearer xyz", "xyz", nil},
		{"missing", "", "", "", ErrTokenMissing},
		{"wrong scheme", "", "Basic xyz", "", ErrTokenInvalid},
		{"empty bearer", "", "Bearer   ", "", ErrTokenMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ExtractToken(tt.authToken, tt.header)
			if err != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func newAuthService(t *testing.T) (*AuthService, *UserService) {
	t.Helper()
	dbSvc := newTestDB(t)
	audit := &AuditService{dbSvc: dbSvc}
	audit.useDB(dbSvc.Db())

	users := &UserService{dbSvc: dbSvc}
	users.useDB(dbSvc.Db())

	auth := &AuthService{dbSvc: dbSvc, jwtSvc: NewJWTService("secret", time.Hour), auditSvc: audit}
	auth.useDB(dbSvc.Db())
	return auth, users
}

func TestLogin(t *testing.T) {
	auth, users := newAuthService(t)
	if _, err := users.CreateUser(dto.CreateUserRequest{
		Email:    "Student@Example.com",
		Name:     "Student",
		Password: "hunter22",
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	resp, err := auth.Login(dto.LoginRequest{Email: " student@example.com ", Password: "hunter22"}, "127.0.0.1", "test")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token == "" || resp.User.Role != shared.RoleStudent {
		t.Errorf("unexpected login response %+v", resp)
	}

	_, err = auth.Login(dto.LoginRequest{Email: "student@example.com", Password: "wrong"}, "127.0.0.1", "test")
	wantStatus(t, err, http.StatusUnauthorized)

	_, err = auth.Login(dto.LoginRequest{Email: "nobody@example.com", Password: "hunter22"}, "127.0.0.1", "test")
	wantStatus(t, err, http.StatusUnauthorized)

	// without Redis logout has nothing to revoke
	claims, err := auth.jwtSvc.VerifyJWTToken(resp.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := auth.Logout(context.Background(), resp.Token, claims); err != nil {
		t.Errorf("logout: %v", err)
	}
}

func TestRequiredAuthAndRole(t *testing.T) {
	auth, _ := newAuthService(t)
	student, _, _ := auth.jwtSvc.ToJWT(&model.User{ID: "s1", Role: shared.RoleStudent})
	admin, _, _ := auth.jwtSvc.ToJWT(&model.User{ID: "a1", Role: shared.RoleAdmin})

	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Get("/me", auth.RequiredAuth(), func(c *fiber.Ctx) error {
		return c.SendString(shared.ActorFromCtx(c).UserID)
	})
	app.Get("/admin", auth.RequiredAuth(), auth.RequireRole(shared.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	tests := []struct {
		name   string
		path   string
		header string
		token  string
		want   int
	}{
		{"no token", "/me", "", "", http.StatusUnauthorized},
		{"garbage token", "/me", fiber.HeaderAuthorization, "Bearer nope", http.StatusUnauthorized},
		{"bearer student", "/me", fiber.HeaderAuthorization, "Bearer " + student, http.StatusOK},
		{"custom header", "/me", shared.AuthTokenHeader, student, http.StatusOK},
		{"student on admin route", "/admin", shared.AuthTokenHeader, student, http.StatusForbidden},
		{"admin on admin route", "/admin", shared.AuthTokenHeader, admin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.token)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}
