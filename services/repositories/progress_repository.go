package repositories

import (
	"time"

	"github.com/lac-hong-legacy/lms_api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	BaseRepository
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (r *ProgressRepository) WithTx(tx *gorm.DB) *ProgressRepository {
	return NewProgressRepository(tx)
}

func (r *ProgressRepository) Get(userID, courseID string) (*model.CourseProgress, error) {
	var progress model.CourseProgress
	err := r.db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// GetForUpdate reads the row with a row lock where the dialect supports one.
func (r *ProgressRepository) GetForUpdate(userID, courseID string) (*model.CourseProgress, error) {
	var progress model.CourseProgress
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// CreateIfAbsent inserts the row unless one already exists for (user, course).
// It reports whether this call created it.
func (r *ProgressRepository) CreateIfAbsent(progress *model.CourseProgress) (bool, error) {
	if progress.ID == "" {
		progress.ID = newID()
	}
	if progress.CompletedLessonIDs == nil {
		progress.CompletedLessonIDs = model.IDSet{}
	}
	if progress.EarnedRewards == nil {
		progress.EarnedRewards = model.IDSet{}
	}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(progress)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CompareAndSwap writes the mutable fields of progress only if the stored version still
// equals expectedVersion. On success progress.Version is advanced.
func (r *ProgressRepository) CompareAndSwap(progress *model.CourseProgress, expectedVersion int) (bool, error) {
	now := time.Now()
	result := r.db.Model(&model.CourseProgress{}).
		Where("id = ? AND version = ?", progress.ID, expectedVersion).
		Updates(map[string]interface{}{
			"completed_lesson_ids":    progress.CompletedLessonIDs,
			"completed_lessons":       progress.CompletedLessons,
			"total_lessons":           progress.TotalLessons,
			"test_score":              progress.TestScore,
			"completed":               progress.Completed,
			"last_accessed_lesson_id": progress.LastAccessedLessonID,
			"earned_rewards":          progress.EarnedRewards,
			"completed_at":            progress.CompletedAt,
			"version":                 expectedVersion + 1,
			"updated_at":              now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	progress.Version = expectedVersion + 1
	progress.UpdatedAt = now
	return true, nil
}

func (r *ProgressRepository) List(userID, courseID string) ([]model.CourseProgress, error) {
	query := r.db.Model(&model.CourseProgress{})
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if courseID != "" {
		query = query.Where("course_id = ?", courseID)
	}

	var rows []model.CourseProgress
	if err := query.Order("started_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ProgressRepository) HasProgress(userID, courseID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.CourseProgress{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count > 0, err
}

// Delete removes progress for a course, optionally narrowed to one learner.
func (r *ProgressRepository) Delete(courseID, userID string) error {
	query := r.db.Where("course_id = ?", courseID)
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	return query.Delete(&model.CourseProgress{}).Error
}

// CountEarned returns how many progress rows contain the reward in their earned set.
func (r *ProgressRepository) CountEarned(rewardID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.CourseProgress{}).
		Where("earned_rewards LIKE ?", `%"`+rewardID+`"%`).
		Count(&count).Error
	return count, err
}
