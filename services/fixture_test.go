package services

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/lac-hong-legacy/lms_api/model"
	"github.com/lac-hong-legacy/lms_api/services/repositories"
	"github.com/lac-hong-legacy/lms_api/shared"
	"gorm.io/datatypes"
)

var (
	adminActor   = shared.Actor{UserID: "admin-1", Role: shared.RoleAdmin}
	studentActor = shared.Actor{UserID: "student-1", Role: shared.RoleStudent}
)

// fixture wires the domain services against a throwaway SQLite file, the same way Start
// does against the configured database.
type fixture struct {
	db       *SqliteService
	audit    *AuditService
	catalog  *CatalogService
	tests    *TestService
	progress *ProgressService
	attempts *AttemptService
	rewards  *RewardService

	courseRepo  *repositories.CourseRepository
	testRepo    *repositories.TestRepository
	rewardRepo  *repositories.RewardRepository
	attemptRepo *repositories.AttemptRepository

	order int
}

func newTestDB(t *testing.T) *SqliteService {
	t.Helper()

	db, err := OpenSqlite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	svc := &SqliteService{}
	if err := svc.UseDB(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(svc.Shutdown)
	return svc
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dbSvc := newTestDB(t)
	db := dbSvc.Db()
	locker := NewLocalLocker()

	f := &fixture{
		db:          dbSvc,
		audit:       &AuditService{dbSvc: dbSvc},
		catalog:     &CatalogService{dbSvc: dbSvc},
		courseRepo:  repositories.NewCourseRepository(db),
		testRepo:    repositories.NewTestRepository(db),
		rewardRepo:  repositories.NewRewardRepository(db),
		attemptRepo: repositories.NewAttemptRepository(db),
	}
	f.audit.useDB(db)
	f.catalog.useDB(db)

	f.tests = &TestService{dbSvc: dbSvc, catalogSvc: f.catalog}
	f.tests.useDB(db)

	f.progress = &ProgressService{
		dbSvc:      dbSvc,
		catalogSvc: f.catalog,
		testSvc:    f.tests,
		lockSvc:    locker,
		auditSvc:   f.audit,
	}
	f.progress.useDB(db)

	f.attempts = &AttemptService{dbSvc: dbSvc, catalogSvc: f.catalog, lockSvc: locker}
	f.attempts.useDB(db)

	f.rewards = &RewardService{dbSvc: dbSvc, auditSvc: f.audit}
	f.rewards.useDB(db)

	return f
}

func (f *fixture) course(t *testing.T, access string) *model.Course {
	t.Helper()
	course := &model.Course{
		Title:      "Course",
		PassScore:  shared.DefaultPassScore,
		AccessType: access,
		Status:     shared.CourseStatusPublished,
	}
	if err := f.courseRepo.Create(course); err != nil {
		t.Fatalf("create course: %v", err)
	}
	return course
}

func (f *fixture) lesson(t *testing.T, courseID string, edit func(l *model.Lesson)) *model.Lesson {
	t.Helper()
	f.order++
	lesson := &model.Lesson{
		CourseID: courseID,
		Title:    "Lesson",
		Type:     shared.LessonTypeText,
		Order:    f.order,
	}
	if edit != nil {
		edit(lesson)
	}
	if err := f.courseRepo.CreateLesson(lesson); err != nil {
		t.Fatalf("create lesson: %v", err)
	}
	return lesson
}

func (f *fixture) lessons(t *testing.T, courseID string, n int) []*model.Lesson {
	t.Helper()
	out := make([]*model.Lesson, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, f.lesson(t, courseID, nil))
	}
	return out
}

// test creates a published test with one single-choice question whose answer is index 1.
func (f *fixture) test(t *testing.T, courseID string, attemptsAllowed int) (*model.Test, *model.Question) {
	t.Helper()
	test := &model.Test{
		CourseID:        &courseID,
		Title:           "Test",
		TimeLimit:       shared.DefaultTimeLimit,
		AttemptsAllowed: attemptsAllowed,
		Status:          shared.TestStatusPublished,
	}
	if err := f.testRepo.CreateTest(test); err != nil {
		t.Fatalf("create test: %v", err)
	}
	question := &model.Question{
		TestID:        test.ID,
		Type:          shared.QuestionTypeSingle,
		Text:          "Pick B",
		Options:       datatypes.JSON(`["A","B","C"]`),
		CorrectAnswer: datatypes.JSON(`1`),
		Points:        1,
		Order:         1,
	}
	if err := f.testRepo.CreateQuestion(question); err != nil {
		t.Fatalf("create question: %v", err)
	}
	return test, question
}

// testLesson adds a lesson bound to a fresh test.
func (f *fixture) testLesson(t *testing.T, courseID string, attemptsAllowed int) (*model.Lesson, *model.Test, *model.Question) {
	t.Helper()
	test, question := f.test(t, courseID, attemptsAllowed)
	lesson := f.lesson(t, courseID, func(l *model.Lesson) {
		l.Type = shared.LessonTypeTest
		l.TestID = &test.ID
	})
	return lesson, test, question
}

func (f *fixture) reward(t *testing.T, courseID string) *model.Reward {
	t.Helper()
	reward := &model.Reward{CourseID: &courseID, Name: "Badge", Bonuses: datatypes.JSON("[]")}
	if err := f.rewardRepo.Create(reward); err != nil {
		t.Fatalf("create reward: %v", err)
	}
	return reward
}

func answerSet(values map[string]string) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		out[k] = json.RawMessage(v)
	}
	return out
}

func wantStatus(t *testing.T, err error, status int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d, got nil", status)
	}
	if !shared.IsStatus(err, status) {
		t.Fatalf("expected status %d, got %v", status, err)
	}
}
