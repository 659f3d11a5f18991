package repositories

import (
	"time"

	"github.com/lac-hong-legacy/lms_api/model"
	"gorm.io/gorm"
)

type CourseRepository struct {
	BaseRepository
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (r *CourseRepository) WithTx(tx *gorm.DB) *CourseRepository {
	return NewCourseRepository(tx)
}

// ==================== COURSES ====================

func (r *CourseRepository) Create(course *model.Course) error {
	if course.ID == "" {
		course.ID = newID()
	}
	return r.db.Create(course).Error
}

func (r *CourseRepository) GetByID(id string) (*model.Course, error) {
	var course model.Course
	if err := r.db.Where("id = ?", id).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) List() ([]model.Course, error) {
	var courses []model.Course
	if err := r.db.Order("created_at DESC").Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

// ListVisible returns published open courses, assigned closed courses that are not archived
// and archived courses the learner already has progress in.
func (r *CourseRepository) ListVisible(userID string) ([]model.Course, error) {
	assigned := r.db.Model(&model.CourseAssignment{}).Select("course_id").Where("user_id = ?", userID)
	started := r.db.Model(&model.CourseProgress{}).Select("course_id").Where("user_id = ?", userID)

	var courses []model.Course
	err := r.db.
		Where("status = ? AND access_type = ?", "published", "open").
		Or("access_type = ? AND status <> ? AND id IN (?)", "closed", "archived", assigned).
		Or("status = ? AND id IN (?)", "archived", started).
		Order("created_at DESC").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *CourseRepository) Update(id string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.Model(&model.Course{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CourseRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&model.Course{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RefreshLessonsCount recomputes the denormalized lessons_count from the lessons table.
func (r *CourseRepository) RefreshLessonsCount(courseID string) (int, error) {
	count, err := r.CountLessons(courseID)
	if err != nil {
		return 0, err
	}
	err = r.db.Model(&model.Course{}).Where("id = ?", courseID).
		Updates(map[string]interface{}{"lessons_count": count, "updated_at": time.Now()}).Error
	return count, err
}

// ==================== LESSONS ====================

func (r *CourseRepository) CreateLesson(lesson *model.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = newID()
	}
	return r.db.Create(lesson).Error
}

func (r *CourseRepository) GetLesson(id string) (*model.Lesson, error) {
	var lesson model.Lesson
	if err := r.db.Where("id = ?", id).First(&lesson).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *CourseRepository) GetCourseLesson(courseID, lessonID string) (*model.Lesson, error) {
	var lesson model.Lesson
	if err := r.db.Where("id = ? AND course_id = ?", lessonID, courseID).First(&lesson).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *CourseRepository) ListLessons(courseID string) ([]model.Lesson, error) {
	var lessons []model.Lesson
	if err := r.db.Where("course_id = ?", courseID).Order(`"order" ASC, created_at ASC`).Find(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *CourseRepository) CountLessons(courseID string) (int, error) {
	var count int64
	if err := r.db.Model(&model.Lesson{}).Where("course_id = ?", courseID).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *CourseRepository) NextLessonOrder(courseID string) (int, error) {
	var maxOrder *int
	err := r.db.Model(&model.Lesson{}).Where("course_id = ?", courseID).
		Select(`MAX("order")`).Scan(&maxOrder).Error
	if err != nil {
		return 0, err
	}
	if maxOrder == nil {
		return 1, nil
	}
	return *maxOrder + 1, nil
}

func (r *CourseRepository) UpdateLesson(id string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.Model(&model.Lesson{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CourseRepository) DeleteLesson(id string) error {
	result := r.db.Where("id = ?", id).Delete(&model.Lesson{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CourseRepository) DeleteLessonsByCourse(courseID string) error {
	return r.db.Where("course_id = ?", courseID).Delete(&model.Lesson{}).Error
}

// OwnedTestIDs returns the ids of tests whose course_id is the course.
func (r *CourseRepository) OwnedTestIDs(courseID string) ([]string, error) {
	var ids []string
	if err := r.db.Model(&model.Test{}).Where("course_id = ?", courseID).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// TestIDsForCourse returns the ids of tests owned by the course or referenced by its lessons.
func (r *CourseRepository) TestIDsForCourse(courseID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&model.Test{}).
		Where("course_id = ?", courseID).
		Or("id IN (?)", r.db.Model(&model.Lesson{}).Select("test_id").Where("course_id = ? AND test_id IS NOT NULL", courseID)).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
