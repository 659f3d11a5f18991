package repositories

import (
	"time"

	"github.com/lac-hong-legacy/lms_api/model"
	"gorm.io/gorm"
)

type TestRepository struct {
	BaseRepository
}

func NewTestRepository(db *gorm.DB) *TestRepository {
	return &TestRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (r *TestRepository) WithTx(tx *gorm.DB) *TestRepository {
	return NewTestRepository(tx)
}

// ==================== TESTS ====================

func (r *TestRepository) CreateTest(test *model.Test) error {
	if test.ID == "" {
		test.ID = newID()
	}
	return r.db.Create(test).Error
}

func (r *TestRepository) GetTest(id string) (*model.Test, error) {
	var test model.Test
	if err := r.db.Where("id = ?", id).First(&test).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *TestRepository) ListTests(courseID string) ([]model.Test, error) {
	query := r.db.Model(&model.Test{})
	if courseID != "" {
		query = query.Where("course_id = ?", courseID)
	}
	var tests []model.Test
	if err := query.Order("created_at DESC").Find(&tests).Error; err != nil {
		return nil, err
	}
	return tests, nil
}

func (r *TestRepository) UpdateTest(id string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.Model(&model.Test{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteTests removes the tests and every question they own.
func (r *TestRepository) DeleteTests(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.Where("test_id IN ?", ids).Delete(&model.Question{}).Error; err != nil {
		return err
	}
	return r.db.Where("id IN ?", ids).Delete(&model.Test{}).Error
}

func (r *TestRepository) RefreshQuestionsCount(testID string) error {
	var count int64
	if err := r.db.Model(&model.Question{}).Where("test_id = ?", testID).Count(&count).Error; err != nil {
		return err
	}
	return r.db.Model(&model.Test{}).Where("id = ?", testID).
		Updates(map[string]interface{}{"questions_count": count, "updated_at": time.Now()}).Error
}

// ==================== QUESTIONS ====================

func (r *TestRepository) CreateQuestion(question *model.Question) error {
	if question.ID == "" {
		question.ID = newID()
	}
	return r.db.Create(question).Error
}

func (r *TestRepository) GetQuestion(id string) (*model.Question, error) {
	var question model.Question
	if err := r.db.Where("id = ?", id).First(&question).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *TestRepository) ListQuestions(testID string) ([]model.Question, error) {
	var questions []model.Question
	err := r.db.Where("test_id = ?", testID).Order(`"order" ASC, created_at ASC`).Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *TestRepository) NextQuestionOrder(testID string) (int, error) {
	var maxOrder *int
	err := r.db.Model(&model.Question{}).Where("test_id = ?", testID).
		Select(`MAX("order")`).Scan(&maxOrder).Error
	if err != nil {
		return 0, err
	}
	if maxOrder == nil {
		return 1, nil
	}
	return *maxOrder + 1, nil
}

func (r *TestRepository) UpdateQuestion(id string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.Model(&model.Question{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *TestRepository) DeleteQuestion(id string) error {
	result := r.db.Where("id = ?", id).Delete(&model.Question{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ==================== RESULTS ====================

func (r *TestRepository) CreateResult(result *model.TestResult) error {
	if result.ID == "" {
		result.ID = newID()
	}
	return r.db.Create(result).Error
}

func (r *TestRepository) ListResults(userID, testID string) ([]model.TestResult, error) {
	query := r.db.Model(&model.TestResult{})
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if testID != "" {
		query = query.Where("test_id = ?", testID)
	}
	var results []model.TestResult
	if err := query.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteResults removes results for a course (by course id or by the given test ids),
// optionally narrowed to one learner.
func (r *TestRepository) DeleteResults(courseID string, testIDs []string, userID string) error {
	var query *gorm.DB
	if len(testIDs) > 0 {
		query = r.db.Where("(course_id = ? OR test_id IN ?)", courseID, testIDs)
	} else {
		query = r.db.Where("course_id = ?", courseID)
	}
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	return query.Delete(&model.TestResult{}).Error
}
