package seeders

import (
	"log"
	"time"

	"github.com/lac-hong-legacy/lms_api/model"
	"github.com/lac-hong-legacy/lms_api/shared"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const demoCourseTitle = "Getting started"

// CourseSeeder creates a small published course: two reading lessons, a final test and a
// completion reward.
type CourseSeeder struct {
	db *gorm.DB
}

func NewCourseSeeder(db *gorm.DB) *CourseSeeder {
	return &CourseSeeder{db: db}
}

func (s *CourseSeeder) SeedDemoCourse(createdBy string) error {
	var existing int64
	if err := s.db.Model(&model.Course{}).Where("title = ?", demoCourseTitle).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		log.Println("Demo course already exists, skipping course seeding")
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		courseID := newID()
		testID := newID()
		passScore := 70

		course := model.Course{
			ID:           courseID,
			Title:        demoCourseTitle,
			Description:  "A short course to try out progress tracking, tests and rewards.",
			Duration:     30,
			Category:     "general",
			PassScore:    passScore,
			Level:        "beginner",
			Instructor:   "Administrator",
			AccessType:   shared.AccessOpen,
			Status:       shared.CourseStatusPublished,
			LessonsCount: 3,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if createdBy != "" {
			course.CreatedBy = &createdBy
		}
		if err := tx.Create(&course).Error; err != nil {
			return err
		}

		test := model.Test{
			ID:              testID,
			CourseID:        &courseID,
			Title:           "Final test",
			PassScore:       &passScore,
			TimeLimit:       shared.DefaultTimeLimit,
			AttemptsAllowed: shared.DefaultAttempts,
			Status:          shared.TestStatusPublished,
			QuestionsCount:  3,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.Create(&test).Error; err != nil {
			return err
		}

		lessons := []model.Lesson{
			{Title: "Welcome", Type: shared.LessonTypeText, Content: "How the course works."},
			{Title: "Taking tests", Type: shared.LessonTypeText, Content: "Attempts, scores and retakes.", RequiresPrevious: true},
			{Title: "Final test", Type: shared.LessonTypeTest, TestID: &testID, IsFinalTest: true, FinalTestRequiresAllLessons: true},
		}
		for i := range lessons {
			lessons[i].ID = newID()
			lessons[i].CourseID = courseID
			lessons[i].Order = i + 1
			lessons[i].Materials = datatypes.JSON("[]")
			lessons[i].CreatedAt = now
			lessons[i].UpdatedAt = now
		}
		if err := tx.Create(&lessons).Error; err != nil {
			return err
		}

		questions := []model.Question{
			{
				Type:          shared.QuestionTypeSingle,
				Text:          "How many attempts does the final test allow?",
				Options:       datatypes.JSON(`["1","3","Unlimited"]`),
				CorrectAnswer: datatypes.JSON(`1`),
			},
			{
				Type:          shared.QuestionTypeMultiple,
				Text:          "Which actions count toward course completion?",
				Options:       datatypes.JSON(`["Completing lessons","Opening a lesson","Passing the final test"]`),
				CorrectAnswer: datatypes.JSON(`[0,2]`),
			},
			{
				Type:          shared.QuestionTypeText,
				Text:          "What do you receive when the course is completed?",
				CorrectAnswer: datatypes.JSON(`"reward"`),
				TextCheckType: shared.TextCheckAutomatic,
			},
		}
		for i := range questions {
			questions[i].ID = newID()
			questions[i].TestID = testID
			questions[i].Points = 1
			questions[i].Order = i + 1
			questions[i].CreatedAt = now
			questions[i].UpdatedAt = now
		}
		if err := tx.Create(&questions).Error; err != nil {
			return err
		}

		reward := model.Reward{
			ID:          newID(),
			CourseID:    &courseID,
			Name:        "First steps",
			Icon:        "star",
			Color:       "#f5b301",
			Description: "Completed the getting started course.",
			Condition:   "Complete every lesson",
			Bonuses:     datatypes.JSON("[]"),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Create(&reward).Error; err != nil {
			return err
		}

		log.Printf("Created demo course %q with %d lessons and %d questions", course.Title, len(lessons), len(questions))
		return nil
	})
}
