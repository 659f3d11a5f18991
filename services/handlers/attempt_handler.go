package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/lms_api/dto"
	"github.com/lac-hong-legacy/lms_api/shared"
)

type AttemptHandler struct {
	attemptSvc AttemptServiceInterface
}

func NewAttemptHandler(attemptSvc AttemptServiceInterface) *AttemptHandler {
	return &AttemptHandler{attemptSvc: attemptSvc}
}

// @Summary Attempt status
// @Description maxAttempts and remainingAttempts are null for unlimited tests
// @Tags test-attempts
// @Produce json
// @Security Bearer
// @Param lessonId query string true "Lesson ID"
// @Success 200 {object} shared.Response{data=dto.AttemptStatusResponse}
// @Router /api/v1/test-attempts [get]
func (h *AttemptHandler) Get(c *fiber.Ctx) error {
	lessonID, err := requireQuery(c, "lessonId")
	if err != nil {
		return err
	}
	resp, err := h.attemptSvc.GetStatus(shared.ActorFromCtx(c), lessonID)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, resp)
}

// @Summary Start an attempt or record a score
// @Description action=start consumes one attempt (403 with attemptsUsed/maxAttempts once exhausted); action=record keeps the best score
// @Tags test-attempts
// @Accept json
// @Produce json
// @Security Bearer
// @Param action query string true "start | record"
// @Param request body dto.StartAttemptRequest true "Payload for the action"
// @Success 200 {object} shared.Response{data=dto.AttemptStatusResponse}
// @Router /api/v1/test-attempts [post]
func (h *AttemptHandler) Post(c *fiber.Ctx) error {
	actor := shared.ActorFromCtx(c)

	switch action := c.Query("action"); action {
	case "start":
		var req dto.StartAttemptRequest
		if ok, err := bind(c, &req); !ok {
			return err
		}
		resp, err := h.attemptSvc.StartAttempt(c.UserContext(), actor, req.LessonID)
		if err != nil {
			return err
		}
		return shared.ResponseOK(c, resp)

	case "record":
		var req dto.RecordAttemptRequest
		if ok, err := bind(c, &req); !ok {
			return err
		}
		resp, err := h.attemptSvc.RecordBestScore(c.UserContext(), actor, req)
		if err != nil {
			return err
		}
		return shared.ResponseOK(c, resp)

	default:
		return unknownAction(action)
	}
}
