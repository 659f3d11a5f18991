package repositories

import (
	"errors"
	"time"

	"github.com/lac-hong-legacy/lms_api/model"
	"gorm.io/gorm"
)

type RateLimitRepository struct {
	BaseRepository
}

func NewRateLimitRepository(db *gorm.DB) *RateLimitRepository {
	return &RateLimitRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Get returns nil, nil when no counter exists yet.
func (r *RateLimitRepository) Get(identifier, endpointType string) (*model.RateLimit, error) {
	var rateLimit model.RateLimit

	err := r.db.Where("identifier = ? AND endpoint_type = ?", identifier, endpointType).First(&rateLimit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &rateLimit, nil
}

// Save inserts or fully overwrites the counter row.
func (r *RateLimitRepository) Save(rateLimit *model.RateLimit) error {
	if rateLimit.ID == "" {
		rateLimit.ID = newID()
	}

	now := time.Now()
	if rateLimit.CreatedAt.IsZero() {
		rateLimit.CreatedAt = now
	}
	rateLimit.UpdatedAt = now

	return r.db.Save(rateLimit).Error
}

func (r *RateLimitRepository) Update(rateLimit *model.RateLimit) error {
	return r.db.Model(rateLimit).Where("id = ?", rateLimit.ID).Updates(map[string]interface{}{
		"request_count": rateLimit.RequestCount,
		"blocked_until": rateLimit.BlockedUntil,
		"updated_at":    rateLimit.UpdatedAt,
	}).Error
}

func (r *RateLimitRepository) Remove(identifier, endpointType string) error {
	return r.db.Where("identifier = ? AND endpoint_type = ?", identifier, endpointType).
		Delete(&model.RateLimit{}).Error
}

// Stats returns the number of counters and how many of them are blocking right now.
func (r *RateLimitRepository) Stats(now time.Time) (total int64, blocked int64, err error) {
	if err = r.db.Model(&model.RateLimit{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err = r.db.Model(&model.RateLimit{}).Where("blocked_until > ?", now).Count(&blocked).Error
	return total, blocked, err
}

// Cleanup removes counters older than maxAge that are not currently blocking.
func (r *RateLimitRepository) Cleanup(maxAge time.Duration) error {
	now := time.Now()
	cutoff := now.Add(-maxAge)

	return r.db.Where("updated_at < ? AND (blocked_until IS NULL OR blocked_until < ?)", cutoff, now).
		Delete(&model.RateLimit{}).Error
}
