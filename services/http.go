package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/rs/zerolog/log"

	"github.com/lac-hong-legacy/lms_api/docs"
	"github.com/lac-hong-legacy/lms_api/services/handlers"
	"github.com/lac-hong-legacy/lms_api/shared"
)

const (
	HTTP_SVC = "http_svc"

	defaultRequestTimeout = 10 * time.Second
)

type HttpService struct {
	appContext.DefaultService

	authSvc       *AuthService
	userSvc       *UserService
	catalogSvc    *CatalogService
	assignmentSvc *AssignmentService
	progressSvc   *ProgressService
	testSvc       *TestService
	attemptSvc    *AttemptService
	rewardSvc     *RewardService
	auditSvc      *AuditService
	rateLimitSvc  *RateLimitService
	monitoring    *MonitoringService

	port           int
	corsOrigins    string
	requestTimeout time.Duration

	app *fiber.App
}

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *appContext.Context) error {
	svc.port = getEnvInt("HTTP_PORT", 8000)
	svc.corsOrigins = getEnv("CORS_ORIGINS", "*")
	svc.requestTimeout = time.Duration(getEnvInt("HTTP_REQUEST_TIMEOUT_SECONDS", int(defaultRequestTimeout/time.Second))) * time.Second

	svc.authSvc = ctx.Service(AUTH_SVC).(*AuthService)
	svc.userSvc = ctx.Service(USER_SVC).(*UserService)
	svc.catalogSvc = ctx.Service(CATALOG_SVC).(*CatalogService)
	svc.assignmentSvc = ctx.Service(ASSIGNMENT_SVC).(*AssignmentService)
	svc.progressSvc = ctx.Service(PROGRESS_SVC).(*ProgressService)
	svc.testSvc = ctx.Service(TEST_SVC).(*TestService)
	svc.attemptSvc = ctx.Service(ATTEMPT_SVC).(*AttemptService)
	svc.rewardSvc = ctx.Service(REWARD_SVC).(*RewardService)
	svc.auditSvc = ctx.Service(AUDIT_SVC).(*AuditService)
	svc.rateLimitSvc = ctx.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.monitoring, _ = ctx.Service(MONITORING_SVC).(*MonitoringService)

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.app = svc.newApp()

	log.Info().Int("port", svc.port).Msg("HTTP server started")
	return svc.app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.app != nil {
		_ = svc.app.ShutdownWithTimeout(5 * time.Second)
	}
}

func (svc *HttpService) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		JSONEncoder:           shared.JSON.Marshal,
		JSONDecoder:           shared.JSON.Unmarshal,
		ErrorHandler:          errorHandler,
		ProxyHeader:           os.Getenv("HTTP_PROXY_HEADER"),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: svc.corsOrigins,
		AllowHeaders: "Content-Type, X-Auth-Token, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
		MaxAge:       86400,
	}))
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(svc.requestContext())
	app.Use(MonitoringMiddleware(svc.monitoring))

	docs.SwaggerInfo.BasePath = "/"

	app.Get("/ping", ping)
	app.Get("/swagger/*", swagger.HandlerDefault)

	svc.registerRoutes(app)

	app.Use(func(c *fiber.Ctx) error {
		return shared.NewNotFoundError(nil, "Not Found")
	})
	return app
}

func (svc *HttpService) registerRoutes(app *fiber.App) {
	authHandler := handlers.NewAuthHandler(svc.authSvc, svc.userSvc)
	userHandler := handlers.NewUserHandler(svc.userSvc, svc.auditSvc)
	courseHandler := handlers.NewCourseHandler(svc.catalogSvc, svc.auditSvc)
	assignmentHandler := handlers.NewAssignmentHandler(svc.assignmentSvc, svc.auditSvc)
	progressHandler := handlers.NewProgressHandler(svc.progressSvc)
	testHandler := handlers.NewTestHandler(svc.testSvc, svc.auditSvc)
	attemptHandler := handlers.NewAttemptHandler(svc.attemptSvc)
	rewardHandler := handlers.NewRewardHandler(svc.rewardSvc)
	adminHandler := handlers.NewAdminHandler(svc.auditSvc, svc.rateLimitSvc)

	requiredAuth := svc.authSvc.RequiredAuth()
	adminOnly := svc.authSvc.RequireRole(shared.RoleAdmin)

	v1 := app.Group("/api/v1", svc.rateLimitSvc.IPRateLimit())
	v1.Get("/ping", ping)

	auth := v1.Group("/auth")
	auth.Post("/",
		onAction("login", svc.rateLimitSvc.RateLimit(LimitLogin)),
		onAction("logout", requiredAuth),
		authHandler.Post,
	)
	auth.Get("/", requiredAuth, authHandler.Get)

	users := v1.Group("/users", requiredAuth)
	users.Get("/", userHandler.Get)
	users.Post("/", adminOnly, userHandler.Create)
	users.Put("/", userHandler.Update)
	users.Delete("/", adminOnly, userHandler.Delete)

	courses := v1.Group("/courses", requiredAuth)
	courses.Get("/", courseHandler.GetCourses)
	courses.Post("/", adminOnly, courseHandler.CreateCourse)
	courses.Put("/", adminOnly, courseHandler.UpdateCourse)
	courses.Delete("/", adminOnly, courseHandler.DeleteCourse)

	lessons := v1.Group("/lessons", requiredAuth)
	lessons.Get("/", courseHandler.GetLessons)
	lessons.Post("/", adminOnly, courseHandler.CreateLesson)
	lessons.Put("/", adminOnly, courseHandler.UpdateLesson)
	lessons.Delete("/", adminOnly, courseHandler.DeleteLesson)

	assignments := v1.Group("/assignments", requiredAuth, adminOnly)
	assignments.Get("/", assignmentHandler.List)
	assignments.Post("/", assignmentHandler.Assign)
	assignments.Delete("/", assignmentHandler.Unassign)

	progress := v1.Group("/progress", requiredAuth)
	progress.Get("/", progressHandler.Get)
	progress.Post("/", svc.rateLimitSvc.RateLimit(LimitProgressWrite), progressHandler.Post)

	tests := v1.Group("/tests", requiredAuth)
	tests.Get("/", testHandler.Get)
	tests.Post("/", onAction("check", svc.rateLimitSvc.RateLimit(LimitTestCheck)), testHandler.Post)
	tests.Put("/", testHandler.Put)
	tests.Delete("/", testHandler.Delete)

	attempts := v1.Group("/test-attempts", requiredAuth)
	attempts.Get("/", attemptHandler.Get)
	attempts.Post("/", svc.rateLimitSvc.RateLimit(LimitProgressWrite), attemptHandler.Post)

	rewards := v1.Group("/rewards", requiredAuth)
	rewards.Get("/", rewardHandler.Get)
	rewards.Post("/", rewardHandler.Create)
	rewards.Put("/", rewardHandler.Update)
	rewards.Delete("/", rewardHandler.Delete)

	admin := v1.Group("/admin", requiredAuth, adminOnly)
	admin.Get("/logs", adminHandler.GetLogs)
	admin.Get("/rate-limits", adminHandler.GetRateLimitStats)
	admin.Delete("/rate-limits", adminHandler.DeleteRateLimit)
}

// requestContext bounds each request with a deadline and logs it once finished.
func (svc *HttpService) requestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(context.Background(), svc.requestTimeout)
		defer cancel()
		c.SetUserContext(ctx)

		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if appErr, ok := shared.GetAppError(err); ok {
			status = appErr.StatusCode
		}

		event := log.Debug()
		if status >= fiber.StatusInternalServerError {
			event = log.Warn()
		}
		event.
			Str("request_id", fmt.Sprint(c.Locals(requestid.ConfigDefault.ContextKey))).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("request")
		return err
	}
}

// onAction applies h only when the request's action query matches.
func onAction(action string, h fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !strings.EqualFold(c.Query("action"), action) {
			return c.Next()
		}
		return h(c)
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		if appErr.StatusCode >= fiber.StatusInternalServerError {
			log.Error().Err(appErr).Str("path", c.Path()).Msg("request failed")
		}
		return shared.ResponseError(c, appErr)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return shared.ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return shared.ResponseJSON(c, fiber.StatusServiceUnavailable, "Request timed out", nil)
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	return shared.ResponseJSON(c, fiber.StatusInternalServerError, "Internal Server Error", nil)
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func ping(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "max-age=10")
	return shared.ResponseOK(c, "pong")
}
