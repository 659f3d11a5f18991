package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/lms_api/dto"
	"github.com/lac-hong-legacy/lms_api/shared"
)

type AssignmentHandler struct {
	assignmentSvc AssignmentServiceInterface
	auditSvc      AuditServiceInterface
}

func NewAssignmentHandler(assignmentSvc AssignmentServiceInterface, auditSvc AuditServiceInterface) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentSvc: assignmentSvc,
		auditSvc:      auditSvc,
	}
}

// @Summary List assignments
// @Tags assignments
// @Produce json
// @Security Bearer
// @Param courseId query string false "Course ID"
// @Param userId query string false "User ID"
// @Success 200 {object} shared.Response{data=dto.AssignmentListResponse}
// @Router /api/v1/assignments [get]
func (h *AssignmentHandler) List(c *fiber.Ctx) error {
	resp, err := h.assignmentSvc.List(c.Query("courseId"), c.Query("userId"))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, resp)
}

// @Summary Assign a course to a user
// @Tags assignments
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body dto.CreateAssignmentRequest true "Assignment"
// @Success 201 {object} shared.Response{data=dto.AssignmentResponse}
// @Router /api/v1/assignments [post]
func (h *AssignmentHandler) Assign(c *fiber.Ctx) error {
	var req dto.CreateAssignmentRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	resp, err := h.assignmentSvc.Assign(shared.ActorFromCtx(c), req)
	if err != nil {
		return err
	}

	h.auditSvc.LogRequest(c, shared.LogLevelInfo, "assignment.create", "Course assigned", map[string]interface{}{
		"courseId": req.CourseID,
		"userId":   req.UserID,
	})
	return shared.ResponseJSON(c, http.StatusCreated, "Course assigned successfully", resp)
}

// @Summary Remove an assignment
// @Tags assignments
// @Produce json
// @Security Bearer
// @Param id query string true "Assignment ID"
// @Success 200 {object} shared.Response{data=dto.MessageResponse}
// @Router /api/v1/assignments [delete]
func (h *AssignmentHandler) Unassign(c *fiber.Ctx) error {
	id, err := requireQuery(c, "id")
	if err != nil {
		return err
	}
	if err := h.assignmentSvc.Unassign(id); err != nil {
		return err
	}

	h.auditSvc.LogRequest(c, shared.LogLevelInfo, "assignment.delete", "Assignment removed", map[string]interface{}{"assignmentId": id})
	return shared.ResponseOK(c, dto.MessageResponse{Message: "Assignment removed"})
}
