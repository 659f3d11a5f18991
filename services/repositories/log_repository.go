package repositories

import (
	"github.com/lac-hong-legacy/lms_api/model"
	"gorm.io/gorm"
)

type LogRepository struct {
	BaseRepository
}

func NewLogRepository(db *gorm.DB) *LogRepository {
	return &LogRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (r *LogRepository) Create(entry *model.SystemLog) error {
	if entry.ID == "" {
		entry.ID = newID()
	}
	return r.db.Create(entry).Error
}

// List returns the newest entries first, optionally filtered by level and action.
func (r *LogRepository) List(level, action string, limit int) ([]model.SystemLog, error) {
	query := r.db.Model(&model.SystemLog{})
	if level != "" {
		query = query.Where("level = ?", level)
	}
	if action != "" {
		query = query.Where("action = ?", action)
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var entries []model.SystemLog
	if err := query.Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
