package repositories

import (
	"time"

	"github.com/lac-hong-legacy/lms_api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptRepository struct {
	BaseRepository
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (r *AttemptRepository) WithTx(tx *gorm.DB) *AttemptRepository {
	return NewAttemptRepository(tx)
}

func (r *AttemptRepository) Get(userID, lessonID string) (*model.TestAttempt, error) {
	var attempt model.TestAttempt
	err := r.db.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *AttemptRepository) GetForUpdate(userID, lessonID string) (*model.TestAttempt, error) {
	var attempt model.TestAttempt
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *AttemptRepository) Create(attempt *model.TestAttempt) error {
	if attempt.ID == "" {
		attempt.ID = newID()
	}
	return r.db.Create(attempt).Error
}

// Consume increments attempts_used if the counter still equals expectedUsed and, for
// bounded rows, stays below max_attempts.
func (r *AttemptRepository) Consume(attempt *model.TestAttempt, expectedUsed int, at time.Time) (bool, error) {
	query := r.db.Model(&model.TestAttempt{}).
		Where("id = ? AND attempts_used = ?", attempt.ID, expectedUsed).
		Where("max_attempts <= 0 OR attempts_used < max_attempts")
	result := query.Updates(map[string]interface{}{
		"attempts_used":   expectedUsed + 1,
		"last_attempt_at": at,
		"updated_at":      at,
	})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	attempt.AttemptsUsed = expectedUsed + 1
	attempt.LastAttemptAt = &at
	return true, nil
}

func (r *AttemptRepository) UpdateBestScore(id string, bestScore int, at time.Time) error {
	return r.db.Model(&model.TestAttempt{}).Where("id = ?", id).Updates(map[string]interface{}{
		"best_score":      bestScore,
		"last_attempt_at": at,
		"updated_at":      at,
	}).Error
}

// Delete removes attempts for a course, optionally narrowed to one learner.
func (r *AttemptRepository) Delete(courseID, userID string) error {
	query := r.db.Where("course_id = ?", courseID)
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	return query.Delete(&model.TestAttempt{}).Error
}
