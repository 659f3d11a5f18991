package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/lms_api/dto"
	"github.com/lac-hong-legacy/lms_api/shared"
)

type RewardHandler struct {
	rewardSvc RewardServiceInterface
}

func NewRewardHandler(rewardSvc RewardServiceInterface) *RewardHandler {
	return &RewardHandler{rewardSvc: rewardSvc}
}

// @Summary List or get rewards
// @Tags rewards
// @Produce json
// @Security Bearer
// @Param id query string false "Reward ID"
// @Param courseId query string false "Course ID"
// @Success 200 {object} shared.Response{data=dto.RewardListResponse}
// @Router /api/v1/rewards [get]
func (h *RewardHandler) Get(c *fiber.Ctx) error {
	if id := c.Query("id"); id != "" {
		reward, err := h.rewardSvc.GetReward(id)
		if err != nil {
			return err
		}
		return shared.ResponseOK(c, reward)
	}

	rewards, err := h.rewardSvc.ListRewards(c.Query("courseId"))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, rewards)
}

// @Summary Create reward
// @Tags rewards
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body dto.CreateRewardRequest true "Reward"
// @Success 201 {object} shared.Response{data=dto.CreatedResponse}
// @Router /api/v1/rewards [post]
func (h *RewardHandler) Create(c *fiber.Ctx) error {
	actor := shared.ActorFromCtx(c)
	if err := requireAdmin(actor); err != nil {
		return err
	}

	var req dto.CreateRewardRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	resp, err := h.rewardSvc.CreateReward(actor, req)
	if err != nil {
		return err
	}
	return shared.ResponseJSON(c, http.StatusCreated, "Reward created successfully", resp)
}

// @Summary Update reward
// @Tags rewards
// @Accept json
// @Produce json
// @Security Bearer
// @Param id query string true "Reward ID"
// @Param request body dto.UpdateRewardRequest true "Patch"
// @Success 200 {object} shared.Response{data=dto.RewardResponse}
// @Router /api/v1/rewards [put]
func (h *RewardHandler) Update(c *fiber.Ctx) error {
	if err := requireAdmin(shared.ActorFromCtx(c)); err != nil {
		return err
	}
	id, err := requireQuery(c, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateRewardRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	resp, err := h.rewardSvc.UpdateReward(id, req)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, resp)
}

// @Summary Delete reward
// @Tags rewards
// @Produce json
// @Security Bearer
// @Param id query string true "Reward ID"
// @Success 200 {object} shared.Response{data=dto.MessageResponse}
// @Router /api/v1/rewards [delete]
func (h *RewardHandler) Delete(c *fiber.Ctx) error {
	if err := requireAdmin(shared.ActorFromCtx(c)); err != nil {
		return err
	}
	id, err := requireQuery(c, "id")
	if err != nil {
		return err
	}

	if err := h.rewardSvc.DeleteReward(id); err != nil {
		return err
	}
	return shared.ResponseOK(c, dto.MessageResponse{Message: "Reward deleted"})
}
