package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/lms_api/dto"
	"github.com/lac-hong-legacy/lms_api/shared"
)

type CourseHandler struct {
	catalogSvc CatalogServiceInterface
	auditSvc   AuditServiceInterface
}

func NewCourseHandler(catalogSvc CatalogServiceInterface, auditSvc AuditServiceInterface) *CourseHandler {
	return &CourseHandler{
		catalogSvc: catalogSvc,
		auditSvc:   auditSvc,
	}
}

// ==================== COURSES ====================

// @Summary List or get courses
// @Description Students see published open courses, assigned closed courses and archived courses they started
// @Tags courses
// @Produce json
// @Security Bearer
// @Param id query string false "Course ID"
// @Success 200 {object} shared.Response{data=dto.CourseListResponse}
// @Router /api/v1/courses [get]
func (h *CourseHandler) GetCourses(c *fiber.Ctx) error {
	actor := shared.ActorFromCtx(c)

	if id := c.Query("id"); id != "" {
		course, err := h.catalogSvc.GetCourse(actor, id)
		if err != nil {
			return err
		}
		return shared.ResponseOK(c, course)
	}

	courses, err := h.catalogSvc.ListCourses(actor)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, courses)
}

// @Summary Create or copy a course
// @Description action=copy&id= clones a course with its lessons as a draft
// @Tags courses
// @Accept json
// @Produce json
// @Security Bearer
// @Param action query string false "copy"
// @Param id query string false "Course ID to copy"
// @Param request body dto.CreateCourseRequest false "Course"
// @Success 201 {object} shared.Response{data=dto.CourseResponse}
// @Router /api/v1/courses [post]
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	actor := shared.ActorFromCtx(c)
	if err := requireAdmin(actor); err != nil {
		return err
	}

	switch action := c.Query("action"); action {
	case "copy":
		id, err := requireQuery(c, "id")
		if err != nil {
			return err
		}
		course, err := h.catalogSvc.CopyCourse(actor, id)
		if err != nil {
			return err
		}
		h.auditSvc.LogRequest(c, shared.LogLevelInfo, "course.copy", "Course copied", map[string]interface{}{"sourceId": id, "courseId": course.ID})
		return shared.ResponseJSON(c, http.StatusCreated, "Course copied successfully", course)

	case "":
		var req dto.CreateCourseRequest
		if ok, err := bind(c, &req); !ok {
			return err
		}
		course, err := h.catalogSvc.CreateCourse(actor, req)
		if err != nil {
			return err
		}
		h.auditSvc.LogRequest(c, shared.LogLevelInfo, "course.create", "Course created", map[string]interface{}{"courseId": course.ID})
		return shared.ResponseJSON(c, http.StatusCreated, "Course created successfully", course)

	default:
		return unknownAction(action)
	}
}

// @Summary Update course
// @Tags courses
// @Accept json
// @Produce json
// @Security Bearer
// @Param id query string true "Course ID"
// @Param request body dto.UpdateCourseRequest true "Patch"
// @Success 200 {object} shared.Response{data=dto.CourseResponse}
// @Router /api/v1/courses [put]
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	if err := requireAdmin(shared.ActorFromCtx(c)); err != nil {
		return err
	}
	id, err := requireQuery(c, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateCourseRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	course, err := h.catalogSvc.UpdateCourse(id, req)
	if err != nil {
		return err
	}
	h.auditSvc.LogRequest(c, shared.LogLevelInfo, "course.update", "Course updated", map[string]interface{}{"courseId": id})
	return shared.ResponseOK(c, course)
}

// @Summary Delete course
// @Description Removes the course with its lessons, tests, rewards, assignments and learner state
// @Tags courses
// @Produce json
// @Security Bearer
// @Param id query string true "Course ID"
// @Success 200 {object} shared.Response{data=dto.MessageResponse}
// @Router /api/v1/courses [delete]
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	if err := requireAdmin(shared.ActorFromCtx(c)); err != nil {
		return err
	}
	id, err := requireQuery(c, "id")
	if err != nil {
		return err
	}

	if err := h.catalogSvc.DeleteCourse(id); err != nil {
		return err
	}
	h.auditSvc.LogRequest(c, shared.LogLevelWarning, "course.delete", "Course deleted", map[string]interface{}{"courseId": id})
	return shared.ResponseOK(c, dto.MessageResponse{Message: "Course deleted"})
}

// ==================== LESSONS ====================

// @Summary List or get lessons
// @Tags lessons
// @Produce json
// @Security Bearer
// @Param id query string false "Lesson ID"
// @Param courseId query string false "Course ID"
// @Success 200 {object} shared.Response{data=dto.LessonListResponse}
// @Router /api/v1/lessons [get]
func (h *CourseHandler) GetLessons(c *fiber.Ctx) error {
	actor := shared.ActorFromCtx(c)

	if id := c.Query("id"); id != "" {
		lesson, err := h.catalogSvc.GetLesson(actor, id)
		if err != nil {
			return err
		}
		return shared.ResponseOK(c, lesson)
	}

	courseID, err := requireQuery(c, "courseId")
	if err != nil {
		return err
	}
	lessons, err := h.catalogSvc.ListLessons(actor, courseID)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, lessons)
}

// @Summary Create lesson
// @Tags lessons
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body dto.CreateLessonRequest true "Lesson"
// @Success 201 {object} shared.Response{data=dto.LessonResponse}
// @Router /api/v1/lessons [post]
func (h *CourseHandler) CreateLesson(c *fiber.Ctx) error {
	if err := requireAdmin(shared.ActorFromCtx(c)); err != nil {
		return err
	}

	var req dto.CreateLessonRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	lesson, err := h.catalogSvc.CreateLesson(req)
	if err != nil {
		return err
	}
	return shared.ResponseJSON(c, http.StatusCreated, "Lesson created successfully", lesson)
}

// @Summary Update lesson
// @Tags lessons
// @Accept json
// @Produce json
// @Security Bearer
// @Param id query string true "Lesson ID"
// @Param request body dto.UpdateLessonRequest true "Patch"
// @Success 200 {object} shared.Response{data=dto.LessonResponse}
// @Router /api/v1/lessons [put]
func (h *CourseHandler) UpdateLesson(c *fiber.Ctx) error {
	if err := requireAdmin(shared.ActorFromCtx(c)); err != nil {
		return err
	}
	id, err := requireQuery(c, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateLessonRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	lesson, err := h.catalogSvc.UpdateLesson(id, req)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, lesson)
}

// @Summary Delete lesson
// @Tags lessons
// @Produce json
// @Security Bearer
// @Param id query string true "Lesson ID"
// @Success 200 {object} shared.Response{data=dto.MessageResponse}
// @Router /api/v1/lessons [delete]
func (h *CourseHandler) DeleteLesson(c *fiber.Ctx) error {
	if err := requireAdmin(shared.ActorFromCtx(c)); err != nil {
		return err
	}
	id, err := requireQuery(c, "id")
	if err != nil {
		return err
	}

	if err := h.catalogSvc.DeleteLesson(id); err != nil {
		return err
	}
	return shared.ResponseOK(c, dto.MessageResponse{Message: "Lesson deleted"})
}
