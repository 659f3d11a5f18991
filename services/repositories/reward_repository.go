package repositories

import (
	"time"

	"github.com/lac-hong-legacy/lms_api/model"
	"gorm.io/gorm"
)

type RewardRepository struct {
	BaseRepository
}

func NewRewardRepository(db *gorm.DB) *RewardRepository {
	return &RewardRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (r *RewardRepository) WithTx(tx *gorm.DB) *RewardRepository {
	return NewRewardRepository(tx)
}

func (r *RewardRepository) Create(reward *model.Reward) error {
	if reward.ID == "" {
		reward.ID = newID()
	}
	return r.db.Create(reward).Error
}

func (r *RewardRepository) GetByID(id string) (*model.Reward, error) {
	var reward model.Reward
	if err := r.db.Where("id = ?", id).First(&reward).Error; err != nil {
		return nil, err
	}
	return &reward, nil
}

func (r *RewardRepository) List(courseID string) ([]model.Reward, error) {
	query := r.db.Model(&model.Reward{})
	if courseID != "" {
		query = query.Where("course_id = ?", courseID)
	}
	var rewards []model.Reward
	if err := query.Order("created_at ASC").Find(&rewards).Error; err != nil {
		return nil, err
	}
	return rewards, nil
}

// IDsForCourse returns the reward ids granted when the course is completed.
func (r *RewardRepository) IDsForCourse(courseID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&model.Reward{}).Where("course_id = ?", courseID).
		Order("created_at ASC").Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *RewardRepository) Update(id string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.Model(&model.Reward{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *RewardRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&model.Reward{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *RewardRepository) DeleteByCourse(courseID string) error {
	return r.db.Where("course_id = ?", courseID).Delete(&model.Reward{}).Error
}
