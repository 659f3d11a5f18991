package services

import (
	"context"
	"errors"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/lms_api/dto"
	"github.com/lac-hong-legacy/lms_api/services/repositories"
	"github.com/lac-hong-legacy/lms_api/shared"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	appContext.DefaultService

	dbSvc    Database
	jwtSvc   *JWTService
	redisSvc *RedisService
	auditSvc *AuditService

	userRepo *repositories.UserRepository
}

const AUTH_SVC = "auth_svc"

const revokedTokenPrefix = "lms:revoked:"

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Configure(ctx *appContext.Context) error {
	svc.dbSvc = ctx.Service(DATABASE_SVC).(Database)
	svc.jwtSvc = ctx.Service(JWT_SVC).(*JWTService)
	svc.redisSvc = ctx.Service(REDIS_SVC).(*RedisService)
	svc.auditSvc = ctx.Service(AUDIT_SVC).(*AuditService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthService) Start() error {
	svc.useDB(svc.dbSvc.Db())
	return nil
}

func (svc *AuthService) useDB(db *gorm.DB) {
	svc.userRepo = repositories.NewUserRepository(db)
}

func (svc *AuthService) Login(req dto.LoginRequest, ip, userAgent string) (*dto.LoginResponse, error) {
	user, err := svc.userRepo.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			svc.auditSvc.LogAction(shared.LogLevelWarning, "auth.login_failed", "Unknown email", "", ip, userAgent,
				map[string]interface{}{"email": req.Email})
			return nil, shared.NewUnauthorizedError(nil, "Invalid email or password")
		}
		return nil, dbError(svc.dbSvc, err, "User not found")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		svc.auditSvc.LogAction(shared.LogLevelWarning, "auth.login_failed", "Wrong password", user.ID, ip, userAgent, nil)
		return nil, shared.NewUnauthorizedError(nil, "Invalid email or password")
	}

	if !user.IsActive {
		return nil, shared.NewForbiddenError(nil, "Account is disabled")
	}

	token, expiresAt, err := svc.jwtSvc.ToJWT(user)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to issue token")
	}

	now := time.Now()
	if err := svc.userRepo.TouchLogin(user.ID, now); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("Failed to record login time")
	}
	user.LastLoginAt = &now

	svc.auditSvc.LogAction(shared.LogLevelSuccess, "auth.login", "User logged in", user.ID, ip, userAgent, nil)

	return &dto.LoginResponse{
		Token:     token,
		ExpiresIn: int64(time.Until(expiresAt).Seconds()),
		User:      toUserResponse(user),
	}, nil
}

// Logout revokes the token until it would have expired. Without Redis it is a no-op.
func (svc *AuthService) Logout(c context.Context, token string, claims *CustomClaims) error {
	if !svc.redisSvc.Enabled() || claims == nil || claims.ExpiresAt == nil {
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := svc.redisSvc.Set(c, revokedTokenPrefix+revocationKey(token, claims), "1", ttl); err != nil {
		return shared.NewInternalError(err, "Failed to revoke token")
	}
	return nil
}

func (svc *AuthService) isRevoked(c context.Context, token string, claims *CustomClaims) bool {
	if !svc.redisSvc.Enabled() {
		return false
	}
	revoked, err := svc.redisSvc.Exists(c, revokedTokenPrefix+revocationKey(token, claims))
	if err != nil {
		log.WithError(err).Warn("Token revocation check failed")
		return false
	}
	return revoked
}

func revocationKey(token string, claims *CustomClaims) string {
	if claims.ID != "" {
		return claims.ID
	}
	return token
}

// Authenticate resolves the request token to its claims.
func (svc *AuthService) Authenticate(c context.Context, authToken, authHeader string) (string, *CustomClaims, error) {
	token, err := svc.jwtSvc.ExtractToken(authToken, authHeader)
	if err != nil {
		return "", nil, shared.NewUnauthorizedError(err, err.Error())
	}

	claims, err := svc.jwtSvc.VerifyJWTToken(token)
	if err != nil {
		return "", nil, shared.NewUnauthorizedError(err, "invalid token")
	}

	if svc.isRevoked(c, token, claims) {
		return "", nil, shared.NewUnauthorizedError(ErrTokenInvalid, "invalid token")
	}
	return token, claims, nil
}

// RequiredAuth rejects requests without a valid token and exposes the caller in Locals.
func (svc *AuthService) RequiredAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, claims, err := svc.Authenticate(c.UserContext(), c.Get(shared.AuthTokenHeader), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return err
		}

		c.Locals(shared.UserID, claims.UserID)
		c.Locals(shared.UserRole, claims.Role)
		c.Locals(shared.Claims, claims)
		c.Locals(shared.AuthToken, token)
		return c.Next()
	}
}

// RequireRole must run after RequiredAuth.
func (svc *AuthService) RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if current, _ := c.Locals(shared.UserRole).(string); current != role {
			return shared.NewForbiddenError(nil, "Insufficient permissions")
		}
		return c.Next()
	}
}

func ClaimsToResponse(claims *CustomClaims) dto.ClaimsResponse {
	resp := dto.ClaimsResponse{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	return resp
}

// LogoutCurrent revokes the token of the authenticated request.
func (svc *AuthService) LogoutCurrent(c *fiber.Ctx) error {
	token, _ := c.Locals(shared.AuthToken).(string)
	claims, _ := c.Locals(shared.Claims).(*CustomClaims)
	if err := svc.Logout(c.UserContext(), token, claims); err != nil {
		return err
	}
	svc.auditSvc.LogRequest(c, shared.LogLevelInfo, "auth.logout", "User logged out", nil)
	return nil
}

// CurrentClaims returns the verified claims of the authenticated request.
func (svc *AuthService) CurrentClaims(c *fiber.Ctx) (*dto.ClaimsResponse, error) {
	claims, ok := c.Locals(shared.Claims).(*CustomClaims)
	if !ok || claims == nil {
		return nil, shared.NewUnauthorizedError(ErrTokenMissing, "token missing")
	}
	resp := ClaimsToResponse(claims)
	return &resp, nil
}
