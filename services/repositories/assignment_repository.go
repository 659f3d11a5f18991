package repositories

import (
	"github.com/lac-hong-legacy/lms_api/model"
	"gorm.io/gorm"
)

type AssignmentRepository struct {
	BaseRepository
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (r *AssignmentRepository) WithTx(tx *gorm.DB) *AssignmentRepository {
	return NewAssignmentRepository(tx)
}

func (r *AssignmentRepository) Create(assignment *model.CourseAssignment) error {
	if assignment.ID == "" {
		assignment.ID = newID()
	}
	return r.db.Create(assignment).Error
}

func (r *AssignmentRepository) Exists(courseID, userID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.CourseAssignment{}).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *AssignmentRepository) ListByCourse(courseID string) ([]model.CourseAssignment, error) {
	var assignments []model.CourseAssignment
	if err := r.db.Where("course_id = ?", courseID).Order("created_at DESC").Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *AssignmentRepository) ListByUser(userID string) ([]model.CourseAssignment, error) {
	var assignments []model.CourseAssignment
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *AssignmentRepository) ListAll() ([]model.CourseAssignment, error) {
	var assignments []model.CourseAssignment
	if err := r.db.Order("created_at DESC").Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *AssignmentRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&model.CourseAssignment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *AssignmentRepository) DeleteByCourse(courseID string) error {
	return r.db.Where("course_id = ?", courseID).Delete(&model.CourseAssignment{}).Error
}
