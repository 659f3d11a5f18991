package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/lms_api/dto"
	"github.com/lac-hong-legacy/lms_api/model"
	"github.com/lac-hong-legacy/lms_api/shared"
)

type AuthServiceInterface interface {
	Login(req dto.LoginRequest, clientIP, userAgent string) (*dto.LoginResponse, error)
	LogoutCurrent(c *fiber.Ctx) error
	CurrentClaims(c *fiber.Ctx) (*dto.ClaimsResponse, error)
}

type UserServiceInterface interface {
	CreateUser(req dto.CreateUserRequest) (*dto.UserResponse, error)
	GetProfile(id string) (*dto.UserResponse, error)
	ListUsers() (*dto.UserListResponse, error)
	UpdateUser(id string, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	UpdateRole(id string, req dto.UpdateRoleRequest) (*dto.UserResponse, error)
	UpdatePassword(actorID string, actorIsAdmin bool, targetID string, req dto.UpdatePasswordRequest) error
	DeleteUser(actorID, id string) error
}

type CatalogServiceInterface interface {
	ListCourses(actor shared.Actor) (*dto.CourseListResponse, error)
	GetCourse(actor shared.Actor, id string) (*dto.CourseResponse, error)
	CreateCourse(actor shared.Actor, req dto.CreateCourseRequest) (*dto.CourseResponse, error)
	UpdateCourse(id string, req dto.UpdateCourseRequest) (*dto.CourseResponse, error)
	CopyCourse(actor shared.Actor, id string) (*dto.CourseResponse, error)
	DeleteCourse(id string) error

	ListLessons(actor shared.Actor, courseID string) (*dto.LessonListResponse, error)
	GetLesson(actor shared.Actor, id string) (*dto.LessonResponse, error)
	CreateLesson(req dto.CreateLessonRequest) (*dto.LessonResponse, error)
	UpdateLesson(id string, req dto.UpdateLessonRequest) (*dto.LessonResponse, error)
	DeleteLesson(id string) error
}

type AssignmentServiceInterface interface {
	Assign(actor shared.Actor, req dto.CreateAssignmentRequest) (*dto.AssignmentResponse, error)
	List(courseID, userID string) (*dto.AssignmentListResponse, error)
	Unassign(id string) error
}

type ProgressServiceInterface interface {
	GetProgress(actor shared.Actor, query dto.ProgressQuery) (*dto.ProgressListResponse, error)
	StartCourse(ctx context.Context, actor shared.Actor, courseID string) (*dto.ProgressEnvelope, error)
	CompleteLesson(ctx context.Context, actor shared.Actor, courseID, lessonID string) (*dto.ProgressEnvelope, error)
	TouchLesson(ctx context.Context, actor shared.Actor, courseID, lessonID string) (*dto.ProgressEnvelope, error)
	SubmitTest(ctx context.Context, actor shared.Actor, req dto.SubmitTestRequest) (*dto.SubmitTestResponse, error)
	ResetProgress(ctx context.Context, actor shared.Actor, req dto.ResetProgressRequest) (*dto.MessageResponse, error)
	LessonLockStatus(actor shared.Actor, lessonID string) (*dto.LessonLockResponse, error)
}

type TestServiceInterface interface {
	ListTests(actor shared.Actor, courseID string) (*dto.TestListResponse, error)
	GetTest(actor shared.Actor, id string) (*dto.TestResponse, error)
	CreateTest(req dto.CreateTestRequest) (*dto.TestResponse, error)
	UpdateTest(id string, req dto.UpdateTestRequest) (*dto.TestResponse, error)
	DeleteTest(id string) error

	ListQuestions(actor shared.Actor, testID string) (*dto.QuestionListResponse, error)
	CreateQuestion(req dto.CreateQuestionRequest) (*dto.QuestionResponse, error)
	UpdateQuestion(id string, req dto.UpdateQuestionRequest) (*dto.QuestionResponse, error)
	DeleteQuestion(id string) error

	CheckTest(actor shared.Actor, req dto.CheckTestRequest) (*dto.CheckTestResponse, error)
	ListResults(actor shared.Actor, userID, testID string) (*dto.TestResultListResponse, error)
}

type AttemptServiceInterface interface {
	GetStatus(actor shared.Actor, lessonID string) (*dto.AttemptStatusResponse, error)
	StartAttempt(ctx context.Context, actor shared.Actor, lessonID string) (*dto.AttemptStatusResponse, error)
	RecordBestScore(ctx context.Context, actor shared.Actor, req dto.RecordAttemptRequest) (*dto.RecordAttemptResponse, error)
}

type RewardServiceInterface interface {
	GetReward(id string) (*dto.RewardResponse, error)
	ListRewards(courseID string) (*dto.RewardListResponse, error)
	CreateReward(actor shared.Actor, req dto.CreateRewardRequest) (*dto.CreatedResponse, error)
	UpdateReward(id string, req dto.UpdateRewardRequest) (*dto.RewardResponse, error)
	DeleteReward(id string) error
}

type AuditServiceInterface interface {
	List(level, action string, limit int) ([]model.SystemLog, error)
	LogRequest(c *fiber.Ctx, level, action, message string, details map[string]interface{})
}

type RateLimitServiceInterface interface {
	Stats() (*dto.RateLimitStats, error)
	ResetRateLimit(identifier, endpointType string) error
	CleanupOldRecords() error
}

// bind parses the JSON body into req and validates it. When ok is false the response (or
// the error to return) is already decided.
func bind(c *fiber.Ctx, req dto.Validator) (ok bool, err error) {
	if err := c.BodyParser(req); err != nil {
		return false, shared.NewBadRequestError(err, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}
	return true, nil
}

func requireAdmin(actor shared.Actor) error {
	if !actor.IsAdmin() {
		return shared.NewForbiddenError(nil, "Insufficient permissions")
	}
	return nil
}

func requireQuery(c *fiber.Ctx, key string) (string, error) {
	v := c.Query(key)
	if v == "" {
		return "", shared.NewBadRequestError(nil, key+" is required")
	}
	return v, nil
}

func unknownAction(action string) error {
	return shared.NewBadRequestError(nil, "Unknown action: "+action)
}
