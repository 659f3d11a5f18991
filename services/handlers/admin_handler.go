package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/lms_api/dto"
	"github.com/lac-hong-legacy/lms_api/shared"
)

type AdminHandler struct {
	auditSvc     AuditServiceInterface
	rateLimitSvc RateLimitServiceInterface
}

func NewAdminHandler(auditSvc AuditServiceInterface, rateLimitSvc RateLimitServiceInterface) *AdminHandler {
	return &AdminHandler{
		auditSvc:     auditSvc,
		rateLimitSvc: rateLimitSvc,
	}
}

// @Summary System logs (Admin)
// @Tags admin
// @Produce json
// @Security Bearer
// @Param level query string false "info | success | warning | error"
// @Param action query string false "Audit action, e.g. reward.unlock"
// @Param limit query int false "Max rows" default(100)
// @Success 200 {object} shared.Response{data=[]model.SystemLog}
// @Router /api/v1/admin/logs [get]
func (h *AdminHandler) GetLogs(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "100"))

	logs, err := h.auditSvc.List(c.Query("level"), c.Query("action"), limit)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, logs)
}

// @Summary Rate limit statistics (Admin)
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} shared.Response{data=dto.RateLimitStats}
// @Router /api/v1/admin/rate-limits [get]
func (h *AdminHandler) GetRateLimitStats(c *fiber.Ctx) error {
	stats, err := h.rateLimitSvc.Stats()
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, stats)
}

// @Summary Clear a rate limit (Admin)
// @Description Without identifier, stale counters are cleaned up instead
// @Tags admin
// @Produce json
// @Security Bearer
// @Param identifier query string false "IP or user ID"
// @Param endpointType query string false "login | progress_write | test_check | api_general"
// @Success 200 {object} shared.Response{data=dto.MessageResponse}
// @Router /api/v1/admin/rate-limits [delete]
func (h *AdminHandler) DeleteRateLimit(c *fiber.Ctx) error {
	identifier := c.Query("identifier")
	if identifier == "" {
		if err := h.rateLimitSvc.CleanupOldRecords(); err != nil {
			return shared.NewInternalError(err, "Failed to cleanup rate limits")
		}
		return shared.ResponseOK(c, dto.MessageResponse{Message: "Rate limits cleaned up"})
	}

	endpointType := c.Query("endpointType")
	if err := h.rateLimitSvc.ResetRateLimit(identifier, endpointType); err != nil {
		return err
	}

	h.auditSvc.LogRequest(c, shared.LogLevelInfo, "rate_limit.reset", "Rate limit removed", map[string]interface{}{
		"identifier":   identifier,
		"endpointType": endpointType,
	})
	return shared.ResponseOK(c, dto.MessageResponse{Message: "Rate limit removed"})
}
