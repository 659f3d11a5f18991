package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/lms_api/dto"
	"github.com/lac-hong-legacy/lms_api/shared"
)

type ProgressHandler struct {
	progressSvc ProgressServiceInterface
}

func NewProgressHandler(progressSvc ProgressServiceInterface) *ProgressHandler {
	return &ProgressHandler{progressSvc: progressSvc}
}

// @Summary Get progress
// @Description Lists progress rows (students only their own); action=lock reports whether a lesson is locked
// @Tags progress
// @Produce json
// @Security Bearer
// @Param action query string false "lock"
// @Param userId query string false "User ID"
// @Param courseId query string false "Course ID"
// @Param lessonId query string false "Lesson ID (action=lock)"
// @Success 200 {object} shared.Response{data=dto.ProgressListResponse}
// @Router /api/v1/progress [get]
func (h *ProgressHandler) Get(c *fiber.Ctx) error {
	actor := shared.ActorFromCtx(c)

	switch action := c.Query("action"); action {
	case "lock":
		lessonID, err := requireQuery(c, "lessonId")
		if err != nil {
			return err
		}
		status, err := h.progressSvc.LessonLockStatus(actor, lessonID)
		if err != nil {
			return err
		}
		return shared.ResponseOK(c, status)

	case "":
		var query dto.ProgressQuery
		if err := c.QueryParser(&query); err != nil {
			return shared.NewBadRequestError(err, "Invalid query")
		}
		resp, err := h.progressSvc.GetProgress(actor, query)
		if err != nil {
			return err
		}
		return shared.ResponseOK(c, resp)

	default:
		return unknownAction(action)
	}
}

// @Summary Update progress
// @Description action=start|complete|access|submit|reset
// @Tags progress
// @Accept json
// @Produce json
// @Security Bearer
// @Param action query string true "start | complete | access | submit | reset"
// @Param request body dto.CompleteLessonRequest false "Payload for the action"
// @Success 200 {object} shared.Response{data=dto.ProgressEnvelope}
// @Router /api/v1/progress [post]
func (h *ProgressHandler) Post(c *fiber.Ctx) error {
	actor := shared.ActorFromCtx(c)
	ctx := c.UserContext()

	switch action := c.Query("action"); action {
	case "start":
		var req dto.StartCourseRequest
		if ok, err := bind(c, &req); !ok {
			return err
		}
		resp, err := h.progressSvc.StartCourse(ctx, actor, req.CourseID)
		if err != nil {
			return err
		}
		return shared.ResponseOK(c, resp)

	case "complete":
		var req dto.CompleteLessonRequest
		if ok, err := bind(c, &req); !ok {
			return err
		}
		resp, err := h.progressSvc.CompleteLesson(ctx, actor, req.CourseID, req.LessonID)
		if err != nil {
			return err
		}
		return shared.ResponseOK(c, resp)

	case "access":
		var req dto.CompleteLessonRequest
		if ok, err := bind(c, &req); !ok {
			return err
		}
		resp, err := h.progressSvc.TouchLesson(ctx, actor, req.CourseID, req.LessonID)
		if err != nil {
			return err
		}
		return shared.ResponseOK(c, resp)

	case "submit":
		var req dto.SubmitTestRequest
		if ok, err := bind(c, &req); !ok {
			return err
		}
		resp, err := h.progressSvc.SubmitTest(ctx, actor, req)
		if err != nil {
			return err
		}
		return shared.ResponseJSON(c, http.StatusCreated, "Test submitted successfully", resp)

	case "reset":
		var req dto.ResetProgressRequest
		if ok, err := bind(c, &req); !ok {
			return err
		}
		resp, err := h.progressSvc.ResetProgress(ctx, actor, req)
		if err != nil {
			return err
		}
		return shared.ResponseOK(c, resp)

	default:
		return unknownAction(action)
	}
}
