package services

import (
	"encoding/json"
	"strings"

	"github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/lms_api/dto"
	"github.com/lac-hong-legacy/lms_api/model"
	"github.com/lac-hong-legacy/lms_api/services/repositories"
	"github.com/lac-hong-legacy/lms_api/shared"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RewardService struct {
	context.DefaultService

	dbSvc    Database
	auditSvc *AuditService

	rewardRepo   *repositories.RewardRepository
	courseRepo   *repositories.CourseRepository
	progressRepo *repositories.ProgressRepository
}

const REWARD_SVC = "reward_svc"

func (svc RewardService) Id() string {
	return REWARD_SVC
}

func (svc *RewardService) Configure(ctx *context.Context) error {
	svc.dbSvc = ctx.Service(DATABASE_SVC).(Database)
	svc.auditSvc, _ = ctx.Service(AUDIT_SVC).(*AuditService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *RewardService) Start() error {
	svc.useDB(svc.dbSvc.Db())
	return nil
}

func (svc *RewardService) useDB(db *gorm.DB) {
	svc.rewardRepo = repositories.NewRewardRepository(db)
	svc.courseRepo = repositories.NewCourseRepository(db)
	svc.progressRepo = repositories.NewProgressRepository(db)
}

func (svc *RewardService) GetReward(id string) (*dto.RewardResponse, error) {
	reward, err := svc.rewardRepo.GetByID(id)
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Reward not found")
	}
	return svc.toRewardResponse(reward)
}

func (svc *RewardService) ListRewards(courseID string) (*dto.RewardListResponse, error) {
	rewards, err := svc.rewardRepo.List(courseID)
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Rewards not found")
	}

	resp := &dto.RewardListResponse{Rewards: make([]dto.RewardResponse, 0, len(rewards))}
	for i := range rewards {
		r, err := svc.toRewardResponse(&rewards[i])
		if err != nil {
			return nil, err
		}
		resp.Rewards = append(resp.Rewards, *r)
	}
	return resp, nil
}

func (svc *RewardService) CreateReward(actor shared.Actor, req dto.CreateRewardRequest) (*dto.CreatedResponse, error) {
	courseID := blankToNil(req.CourseID)
	if courseID != nil {
		if _, err := svc.courseRepo.GetByID(*courseID); err != nil {
			return nil, dbError(svc.dbSvc, err, "Course not found")
		}
	}

	reward := &model.Reward{
		CourseID:    courseID,
		Name:        strings.TrimSpace(req.Name),
		Icon:        req.Icon,
		Color:       req.Color,
		Description: req.Description,
		Condition:   req.Condition,
		Bonuses:     bonusesJSON(req.Bonuses),
	}
	if err := svc.rewardRepo.Create(reward); err != nil {
		return nil, dbError(svc.dbSvc, err, "Reward not found")
	}

	svc.auditSvc.LogAction(shared.LogLevelInfo, "reward.create", "Reward created", actor.UserID, "", "", map[string]interface{}{
		"rewardId": reward.ID,
		"courseId": courseID,
	})
	return &dto.CreatedResponse{ID: reward.ID}, nil
}

func (svc *RewardService) UpdateReward(id string, req dto.UpdateRewardRequest) (*dto.RewardResponse, error) {
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Icon != nil {
		updates["icon"] = *req.Icon
	}
	if req.Color != nil {
		updates["color"] = *req.Color
	}
	if req.CourseID != nil {
		courseID := blankToNil(req.CourseID)
		if courseID != nil {
			if _, err := svc.courseRepo.GetByID(*courseID); err != nil {
				return nil, dbError(svc.dbSvc, err, "Course not found")
			}
		}
		updates["course_id"] = courseID
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Condition != nil {
		updates["condition"] = *req.Condition
	}
	if len(req.Bonuses) > 0 {
		updates["bonuses"] = bonusesJSON(req.Bonuses)
	}
	if len(updates) == 0 {
		return nil, shared.NewBadRequestError(nil, "No fields to update")
	}

	if err := svc.rewardRepo.Update(id, updates); err != nil {
		return nil, dbError(svc.dbSvc, err, "Reward not found")
	}
	return svc.GetReward(id)
}

func (svc *RewardService) DeleteReward(id string) error {
	if err := svc.rewardRepo.Delete(id); err != nil {
		return dbError(svc.dbSvc, err, "Reward not found")
	}
	return nil
}

func bonusesJSON(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(raw)
}

func (svc *RewardService) toRewardResponse(r *model.Reward) (*dto.RewardResponse, error) {
	earned, err := svc.progressRepo.CountEarned(r.ID)
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Reward not found")
	}

	bonuses := json.RawMessage(r.Bonuses)
	if len(bonuses) == 0 {
		bonuses = json.RawMessage("[]")
	}
	return &dto.RewardResponse{
		ID:          r.ID,
		Name:        r.Name,
		Icon:        r.Icon,
		Color:       r.Color,
		CourseID:    r.CourseID,
		Description: r.Description,
		Condition:   r.Condition,
		Bonuses:     bonuses,
		EarnedCount: earned,
		CreatedAt:   r.CreatedAt,
	}, nil
}
