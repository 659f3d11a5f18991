package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/lms_api/dto"
	"github.com/lac-hong-legacy/lms_api/shared"
)

type TestHandler struct {
	testSvc  TestServiceInterface
	auditSvc AuditServiceInterface
}

func NewTestHandler(testSvc TestServiceInterface, auditSvc AuditServiceInterface) *TestHandler {
	return &TestHandler{
		testSvc:  testSvc,
		auditSvc: auditSvc,
	}
}

// @Summary Read tests
// @Description Default lists tests (optionally by courseId) or fetches one by id; action=questions lists a test's questions; action=results lists result history
// @Tags tests
// @Produce json
// @Security Bearer
// @Param action query string false "questions | results"
// @Param id query string false "Test ID"
// @Param testId query string false "Test ID (questions, results)"
// @Param courseId query string false "Course ID"
// @Param userId query string false "User ID (results)"
// @Success 200 {object} shared.Response{data=dto.TestListResponse}
// @Router /api/v1/tests [get]
func (h *TestHandler) Get(c *fiber.Ctx) error {
	actor := shared.ActorFromCtx(c)

	switch action := c.Query("action"); action {
	case "questions":
		testID, err := requireQuery(c, "testId")
		if err != nil {
			return err
		}
		resp, err := h.testSvc.ListQuestions(actor, testID)
		if err != nil {
			return err
		}
		return shared.ResponseOK(c, resp)

	case "results":
		resp, err := h.testSvc.ListResults(actor, c.Query("userId"), c.Query("testId"))
		if err != nil {
			return err
		}
		return shared.ResponseOK(c, resp)

	case "":
		if id := c.Query("id"); id != "" {
			resp, err := h.testSvc.GetTest(actor, id)
			if err != nil {
				return err
			}
			return shared.ResponseOK(c, resp)
		}
		resp, err := h.testSvc.ListTests(actor, c.Query("courseId"))
		if err != nil {
			return err
		}
		return shared.ResponseOK(c, resp)

	default:
		return unknownAction(action)
	}
}

// @Summary Create tests and questions, check answers
// @Description action=check grades a submission; action=question creates a question; default creates a test
// @Tags tests
// @Accept json
// @Produce json
// @Security Bearer
// @Param action query string false "check | question"
// @Param request body dto.CheckTestRequest false "Payload for the action"
// @Success 200 {object} shared.Response{data=dto.CheckTestResponse}
// @Router /api/v1/tests [post]
func (h *TestHandler) Post(c *fiber.Ctx) error {
	actor := shared.ActorFromCtx(c)

	switch action := c.Query("action"); action {
	case "check":
		var req dto.CheckTestRequest
		if ok, err := bind(c, &req); !ok {
			return err
		}
		resp, err := h.testSvc.CheckTest(actor, req)
		if err != nil {
			return err
		}
		return shared.ResponseOK(c, resp)

	case "question":
		if err := requireAdmin(actor); err != nil {
			return err
		}
		var req dto.CreateQuestionRequest
		if ok, err := bind(c, &req); !ok {
			return err
		}
		resp, err := h.testSvc.CreateQuestion(req)
		if err != nil {
			return err
		}
		return shared.ResponseJSON(c, http.StatusCreated, "Question created successfully", resp)

	case "":
		if err := requireAdmin(actor); err != nil {
			return err
		}
		var req dto.CreateTestRequest
		if ok, err := bind(c, &req); !ok {
			return err
		}
		resp, err := h.testSvc.CreateTest(req)
		if err != nil {
			return err
		}
		h.auditSvc.LogRequest(c, shared.LogLevelInfo, "test.create", "Test created", map[string]interface{}{"testId": resp.ID})
		return shared.ResponseJSON(c, http.StatusCreated, "Test created successfully", resp)

	default:
		return unknownAction(action)
	}
}

// @Summary Update a test or question
// @Tags tests
// @Accept json
// @Produce json
// @Security Bearer
// @Param action query string false "question"
// @Param id query string true "Test or question ID"
// @Param request body dto.UpdateTestRequest true "Patch"
// @Success 200 {object} shared.Response{data=dto.TestResponse}
// @Router /api/v1/tests [put]
func (h *TestHandler) Put(c *fiber.Ctx) error {
	if err := requireAdmin(shared.ActorFromCtx(c)); err != nil {
		return err
	}
	id, err := requireQuery(c, "id")
	if err != nil {
		return err
	}

	switch action := c.Query("action"); action {
	case "question":
		var req dto.UpdateQuestionRequest
		if ok, err := bind(c, &req); !ok {
			return err
		}
		resp, err := h.testSvc.UpdateQuestion(id, req)
		if err != nil {
			return err
		}
		return shared.ResponseOK(c, resp)

	case "":
		var req dto.UpdateTestRequest
		if ok, err := bind(c, &req); !ok {
			return err
		}
		resp, err := h.testSvc.UpdateTest(id, req)
		if err != nil {
			return err
		}
		return shared.ResponseOK(c, resp)

	default:
		return unknownAction(action)
	}
}

// @Summary Delete a test or question
// @Tags tests
// @Produce json
// @Security Bearer
// @Param action query string false "question"
// @Param id query string true "Test or question ID"
// @Success 200 {object} shared.Response{data=dto.MessageResponse}
// @Router /api/v1/tests [delete]
func (h *TestHandler) Delete(c *fiber.Ctx) error {
	if err := requireAdmin(shared.ActorFromCtx(c)); err != nil {
		return err
	}
	id, err := requireQuery(c, "id")
	if err != nil {
		return err
	}

	switch action := c.Query("action"); action {
	case "question":
		if err := h.testSvc.DeleteQuestion(id); err != nil {
			return err
		}
		return shared.ResponseOK(c, dto.MessageResponse{Message: "Question deleted"})

	case "":
		if err := h.testSvc.DeleteTest(id); err != nil {
			return err
		}
		h.auditSvc.LogRequest(c, shared.LogLevelWarning, "test.delete", "Test deleted", map[string]interface{}{"testId": id})
		return shared.ResponseOK(c, dto.MessageResponse{Message: "Test deleted"})

	default:
		return unknownAction(action)
	}
}
