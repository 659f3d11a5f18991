package services

import (
	"context"
	"errors"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/lms_api/dto"
	"github.com/lac-hong-legacy/lms_api/model"
	"github.com/lac-hong-legacy/lms_api/services/repositories"
	"github.com/lac-hong-legacy/lms_api/shared"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const ATTEMPT_SVC = "attempt_svc"

const maxConsumeRetries = 3

// AttemptService enforces per-learner attempt limits on test lessons.
type AttemptService struct {
	appContext.DefaultService

	dbSvc      Database
	catalogSvc *CatalogService
	lockSvc    Locker
	monitoring *MonitoringService

	legacySentinel bool

	attemptRepo *repositories.AttemptRepository
	courseRepo  *repositories.CourseRepository
	testRepo    *repositories.TestRepository
}

func (svc AttemptService) Id() string {
	return ATTEMPT_SVC
}

func (svc *AttemptService) Configure(ctx *appContext.Context) error {
	svc.dbSvc = ctx.Service(DATABASE_SVC).(Database)
	svc.catalogSvc = ctx.Service(CATALOG_SVC).(*CatalogService)
	svc.lockSvc = ctx.Service(LOCK_SVC).(*LockService)
	svc.monitoring, _ = ctx.Service(MONITORING_SVC).(*MonitoringService)
	svc.legacySentinel = getEnvBool("LEGACY_UNLIMITED_SENTINEL", false)
	return svc.DefaultService.Configure(ctx)
}

func (svc *AttemptService) Start() error {
	svc.useDB(svc.dbSvc.Db())
	return nil
}

func (svc *AttemptService) useDB(db *gorm.DB) {
	svc.attemptRepo = repositories.NewAttemptRepository(db)
	svc.courseRepo = repositories.NewCourseRepository(db)
	svc.testRepo = repositories.NewTestRepository(db)
}

// resolve loads the test lesson and its test, checking the actor may open the course.
func (svc *AttemptService) resolve(actor shared.Actor, lessonID string) (*model.Lesson, *model.Test, error) {
	lesson, err := svc.courseRepo.GetLesson(lessonID)
	if err != nil {
		return nil, nil, dbError(svc.dbSvc, err, "Lesson not found")
	}
	if _, err := svc.catalogSvc.LoadCourse(actor, lesson.CourseID); err != nil {
		return nil, nil, err
	}
	if lesson.TestID == nil || *lesson.TestID == "" {
		return nil, nil, shared.NewBadRequestError(nil, "Lesson has no test")
	}
	test, err := svc.testRepo.GetTest(*lesson.TestID)
	if err != nil {
		return nil, nil, dbError(svc.dbSvc, err, "Test not found")
	}
	return lesson, test, nil
}

// GetStatus reports attempt usage without consuming an attempt.
func (svc *AttemptService) GetStatus(actor shared.Actor, lessonID string) (*dto.AttemptStatusResponse, error) {
	lesson, test, err := svc.resolve(actor, lessonID)
	if err != nil {
		return nil, err
	}

	attempt, err := svc.attemptRepo.Get(actor.UserID, lesson.ID)
	if err != nil && !isNotFound(err) {
		return nil, dbError(svc.dbSvc, err, "Attempt not found")
	}
	if attempt == nil {
		attempt = &model.TestAttempt{LessonID: lesson.ID, MaxAttempts: test.AttemptsAllowed}
	}
	return svc.status(attempt), nil
}

// StartAttempt consumes one attempt, creating the counter row on first use with a snapshot of
// the test's limit. It fails with AttemptsExhausted once the limit is reached.
func (svc *AttemptService) StartAttempt(ctx context.Context, actor shared.Actor, lessonID string) (*dto.AttemptStatusResponse, error) {
	lesson, test, err := svc.resolve(actor, lessonID)
	if err != nil {
		return nil, err
	}

	release, err := svc.lockSvc.Acquire(ctx, LearnerKey("attempt", actor.UserID, lesson.ID))
	if err != nil {
		return nil, err
	}
	defer release()

	var attempt *model.TestAttempt
	err = svc.attemptRepo.Transaction(func(tx *gorm.DB) error {
		repo := svc.attemptRepo.WithTx(tx)
		now := time.Now()

		current, err := repo.GetForUpdate(actor.UserID, lesson.ID)
		if err != nil && !isNotFound(err) {
			return err
		}
		if current == nil {
			attempt = &model.TestAttempt{
				UserID:        actor.UserID,
				LessonID:      lesson.ID,
				TestID:        test.ID,
				CourseID:      lesson.CourseID,
				AttemptsUsed:  1,
				MaxAttempts:   test.AttemptsAllowed,
				LastAttemptAt: &now,
			}
			return repo.Create(attempt)
		}

		for i := 0; i < maxConsumeRetries; i++ {
			if current.Exhausted() {
				return shared.NewAttemptsExhaustedError(current.AttemptsUsed, current.MaxAttempts)
			}
			ok, err := repo.Consume(current, current.AttemptsUsed, now)
			if err != nil {
				return err
			}
			if ok {
				attempt = current
				return nil
			}
			if current, err = repo.Get(actor.UserID, lesson.ID); err != nil {
				return err
			}
		}
		return shared.NewConflictError(nil, "Attempt counter changed concurrently, please retry")
	})
	if err != nil {
		if errors.Is(err, shared.ErrAttemptsExhausted) {
			svc.monitoring.AttemptStarted(true)
			log.WithFields(log.Fields{
				"user_id":   actor.UserID,
				"lesson_id": lesson.ID,
			}).Info("Attempt refused, limit reached")
		}
		return nil, dbError(svc.dbSvc, err, "Attempt not found")
	}

	svc.monitoring.AttemptStarted(false)
	return svc.status(attempt), nil
}

// RecordBestScore keeps the highest score the learner reached on the lesson's test.
func (svc *AttemptService) RecordBestScore(ctx context.Context, actor shared.Actor, req dto.RecordAttemptRequest) (*dto.RecordAttemptResponse, error) {
	lesson, test, err := svc.resolve(actor, req.LessonID)
	if err != nil {
		return nil, err
	}

	release, err := svc.lockSvc.Acquire(ctx, LearnerKey("attempt", actor.UserID, lesson.ID))
	if err != nil {
		return nil, err
	}
	defer release()

	best := req.Score
	err = svc.attemptRepo.Transaction(func(tx *gorm.DB) error {
		repo := svc.attemptRepo.WithTx(tx)
		now := time.Now()

		current, err := repo.GetForUpdate(actor.UserID, lesson.ID)
		if err != nil && !isNotFound(err) {
			return err
		}
		if current == nil {
			return repo.Create(&model.TestAttempt{
				UserID:        actor.UserID,
				LessonID:      lesson.ID,
				TestID:        test.ID,
				CourseID:      lesson.CourseID,
				AttemptsUsed:  1,
				MaxAttempts:   test.AttemptsAllowed,
				BestScore:     best,
				LastAttemptAt: &now,
			})
		}

		if current.BestScore > best {
			best = current.BestScore
		}
		return repo.UpdateBestScore(current.ID, best, now)
	})
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Attempt not found")
	}

	return &dto.RecordAttemptResponse{Success: true, BestScore: best}, nil
}

func (svc *AttemptService) status(a *model.TestAttempt) *dto.AttemptStatusResponse {
	resp := &dto.AttemptStatusResponse{
		LessonID:      a.LessonID,
		AttemptsUsed:  a.AttemptsUsed,
		BestScore:     a.BestScore,
		LastAttemptAt: a.LastAttemptAt,
	}

	if a.Unlimited() {
		resp.HasUnlimitedAttempts = true
		if svc.legacySentinel {
			remaining := shared.LegacyUnlimitedAttempts
			resp.RemainingAttempts = &remaining
		}
		return resp
	}

	max := a.MaxAttempts
	remaining := a.MaxAttempts - a.AttemptsUsed
	if remaining < 0 {
		remaining = 0
	}
	resp.MaxAttempts = &max
	resp.RemainingAttempts = &remaining
	return resp
}
