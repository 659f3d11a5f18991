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

const PROGRESS_SVC = "progress_svc"

// maxProgressRetries bounds the compare-and-swap loop of one progress write.
const maxProgressRetries = 5

var errVersionConflict = errors.New("progress version changed concurrently")

// ProgressService tracks per-learner course progress. Every write runs under a
// per-(user, course) lock and is committed with a version compare-and-swap.
type ProgressService struct {
	appContext.DefaultService

	dbSvc      Database
	catalogSvc *CatalogService
	testSvc    *TestService
	lockSvc    Locker
	auditSvc   *AuditService
	monitoring *MonitoringService

	progressRepo *repositories.ProgressRepository
	courseRepo   *repositories.CourseRepository
	rewardRepo   *repositories.RewardRepository
	attemptRepo  *repositories.AttemptRepository
	testRepo     *repositories.TestRepository
}

func (svc ProgressService) Id() string {
	return PROGRESS_SVC
}

func (svc *ProgressService) Configure(ctx *appContext.Context) error {
	svc.dbSvc = ctx.Service(DATABASE_SVC).(Database)
	svc.catalogSvc = ctx.Service(CATALOG_SVC).(*CatalogService)
	svc.testSvc = ctx.Service(TEST_SVC).(*TestService)
	svc.lockSvc = ctx.Service(LOCK_SVC).(*LockService)
	svc.auditSvc, _ = ctx.Service(AUDIT_SVC).(*AuditService)
	svc.monitoring, _ = ctx.Service(MONITORING_SVC).(*MonitoringService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *ProgressService) Start() error {
	svc.useDB(svc.dbSvc.Db())
	return nil
}

func (svc *ProgressService) useDB(db *gorm.DB) {
	svc.progressRepo = repositories.NewProgressRepository(db)
	svc.courseRepo = repositories.NewCourseRepository(db)
	svc.rewardRepo = repositories.NewRewardRepository(db)
	svc.attemptRepo = repositories.NewAttemptRepository(db)
	svc.testRepo = repositories.NewTestRepository(db)
}

// ==================== READ ====================

// GetProgress lists progress rows. Students may only read their own; admins may filter by
// any learner or read everything.
func (svc *ProgressService) GetProgress(actor shared.Actor, query dto.ProgressQuery) (*dto.ProgressListResponse, error) {
	userID := query.UserID
	if !actor.IsAdmin() {
		if userID != "" && userID != actor.UserID {
			return nil, shared.NewForbiddenError(nil, "Access denied")
		}
		userID = actor.UserID
	}

	rows, err := svc.progressRepo.List(userID, query.CourseID)
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Progress not found")
	}

	resp := &dto.ProgressListResponse{Progress: make([]dto.ProgressResponse, 0, len(rows))}
	for i := range rows {
		resp.Progress = append(resp.Progress, toProgressResponse(&rows[i]))
	}
	return resp, nil
}

// ==================== WRITES ====================

// StartCourse creates the learner's progress row if it does not exist yet.
func (svc *ProgressService) StartCourse(ctx context.Context, actor shared.Actor, courseID string) (*dto.ProgressEnvelope, error) {
	course, err := svc.catalogSvc.LoadCourse(actor, courseID)
	if err != nil {
		return nil, err
	}

	release, err := svc.lockSvc.Acquire(ctx, LearnerKey("progress", actor.UserID, course.ID))
	if err != nil {
		return nil, err
	}
	defer release()

	// an existing row is returned untouched
	if existing, err := svc.progressRepo.Get(actor.UserID, course.ID); err == nil {
		return &dto.ProgressEnvelope{Progress: toProgressResponse(existing)}, nil
	} else if !isNotFound(err) {
		return nil, dbError(svc.dbSvc, err, "Progress not found")
	}

	lessons, err := svc.courseRepo.ListLessons(course.ID)
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Course not found")
	}
	now := time.Now()
	if _, err := svc.progressRepo.CreateIfAbsent(&model.CourseProgress{
		UserID:       actor.UserID,
		CourseID:     course.ID,
		TotalLessons: len(lessons),
		StartedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		return nil, dbError(svc.dbSvc, err, "Course not found")
	}

	progress, err := svc.progressRepo.Get(actor.UserID, course.ID)
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Progress not found")
	}
	return &dto.ProgressEnvelope{Progress: toProgressResponse(progress)}, nil
}

// CompleteLesson adds the lesson to the learner's completed set and, on the transition to
// completed, unlocks the course's rewards.
func (svc *ProgressService) CompleteLesson(ctx context.Context, actor shared.Actor, courseID, lessonID string) (*dto.ProgressEnvelope, error) {
	course, lesson, err := svc.catalogSvc.LoadCourseLesson(actor, courseID, lessonID)
	if err != nil {
		return nil, err
	}

	var newlyCompleted bool
	progress, unlocked, err := svc.mutate(ctx, actor.UserID, course.ID, func(p *model.CourseProgress, _ []model.Lesson) error {
		p.CompletedLessonIDs, newlyCompleted = p.CompletedLessonIDs.Add(lesson.ID)
		id := lesson.ID
		p.LastAccessedLessonID = &id
		return nil
	})
	if err != nil {
		return nil, err
	}

	if newlyCompleted {
		svc.monitoring.LessonCompleted()
	}
	svc.reportUnlocks(actor.UserID, course.ID, unlocked)

	return &dto.ProgressEnvelope{Progress: toProgressResponse(progress)}, nil
}

// TouchLesson records the lesson as the learner's last accessed one.
func (svc *ProgressService) TouchLesson(ctx context.Context, actor shared.Actor, courseID, lessonID string) (*dto.ProgressEnvelope, error) {
	course, lesson, err := svc.catalogSvc.LoadCourseLesson(actor, courseID, lessonID)
	if err != nil {
		return nil, err
	}

	progress, _, err := svc.mutate(ctx, actor.UserID, course.ID, func(p *model.CourseProgress, _ []model.Lesson) error {
		id := lesson.ID
		p.LastAccessedLessonID = &id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.ProgressEnvelope{Progress: toProgressResponse(progress)}, nil
}

// SubmitTest grades the submission, stores the result and copies the score into the
// learner's progress row when one exists. It never completes a lesson.
func (svc *ProgressService) SubmitTest(ctx context.Context, actor shared.Actor, req dto.SubmitTestRequest) (*dto.SubmitTestResponse, error) {
	course, err := svc.catalogSvc.LoadCourse(actor, req.CourseID)
	if err != nil {
		return nil, err
	}

	result, err := svc.testSvc.CheckTest(actor, dto.CheckTestRequest{
		TestID:   req.TestID,
		LessonID: req.LessonID,
		CourseID: course.ID,
		Answers:  req.Answers,
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.SubmitTestResponse{Result: *result}

	exists, err := svc.progressRepo.HasProgress(actor.UserID, course.ID)
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Progress not found")
	}
	if !exists {
		return resp, nil
	}

	score := result.Score
	progress, _, err := svc.mutate(ctx, actor.UserID, course.ID, func(p *model.CourseProgress, _ []model.Lesson) error {
		p.TestScore = &score
		if req.LessonID != "" {
			id := req.LessonID
			p.LastAccessedLessonID = &id
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	view := toProgressResponse(progress)
	resp.Progress = &view
	return resp, nil
}

// mutate loads (or creates) the progress row, applies fn, recomputes the derived counters
// and commits with a version check. It returns the stored row and the rewards newly added
// to its earned set.
func (svc *ProgressService) mutate(ctx context.Context, userID, courseID string, fn func(p *model.CourseProgress, lessons []model.Lesson) error) (*model.CourseProgress, []string, error) {
	release, err := svc.lockSvc.Acquire(ctx, LearnerKey("progress", userID, courseID))
	if err != nil {
		return nil, nil, err
	}
	defer release()

	for attempt := 1; attempt <= maxProgressRetries; attempt++ {
		var stored *model.CourseProgress
		var unlocked []string
		var justCompleted bool

		err = svc.progressRepo.Transaction(func(tx *gorm.DB) error {
			progressRepo := svc.progressRepo.WithTx(tx)
			courseRepo := svc.courseRepo.WithTx(tx)

			lessons, err := courseRepo.ListLessons(courseID)
			if err != nil {
				return err
			}

			now := time.Now()
			if _, err := progressRepo.CreateIfAbsent(&model.CourseProgress{
				UserID:       userID,
				CourseID:     courseID,
				TotalLessons: len(lessons),
				StartedAt:    now,
				UpdatedAt:    now,
			}); err != nil {
				return err
			}

			p, err := progressRepo.GetForUpdate(userID, courseID)
			if err != nil {
				return err
			}
			expected := p.Version
			wasCompleted := p.Completed

			if err := fn(p, lessons); err != nil {
				return err
			}

			applyCounters(p, lessons)

			justCompleted = p.Completed && !wasCompleted
			if justCompleted {
				rewardIDs, err := svc.rewardRepo.WithTx(tx).IDsForCourse(courseID)
				if err != nil {
					return err
				}
				p.EarnedRewards, unlocked = p.EarnedRewards.Union(rewardIDs)
				p.CompletedAt = &now
			}

			ok, err := progressRepo.CompareAndSwap(p, expected)
			if err != nil {
				return err
			}
			if !ok {
				return errVersionConflict
			}
			stored = p
			return nil
		})

		if err == nil {
			if justCompleted {
				svc.monitoring.CourseCompleted()
			}
			return stored, unlocked, nil
		}
		if !errors.Is(err, errVersionConflict) {
			return nil, nil, dbError(svc.dbSvc, err, "Progress not found")
		}

		svc.monitoring.ProgressRetry()
		log.WithFields(log.Fields{
			"user_id":   userID,
			"course_id": courseID,
			"attempt":   attempt,
		}).Warn("Progress write conflicted, retrying")
	}

	return nil, nil, shared.NewConflictError(errVersionConflict, "Progress was modified concurrently, please retry")
}

// applyCounters keeps completedLessons equal to the set size, refreshes the lesson total and
// marks the row completed once every lesson is done. Completion is sticky.
func applyCounters(p *model.CourseProgress, lessons []model.Lesson) {
	p.CompletedLessons = p.CompletedLessonIDs.Len()
	p.TotalLessons = len(lessons)
	if !p.Completed && p.TotalLessons > 0 && p.CompletedLessons >= p.TotalLessons {
		p.Completed = true
	}
}

func (svc *ProgressService) reportUnlocks(userID, courseID string, unlocked []string) {
	if len(unlocked) == 0 {
		return
	}
	svc.monitoring.RewardsUnlocked(len(unlocked))
	for _, rewardID := range unlocked {
		svc.auditSvc.LogAction(shared.LogLevelSuccess, "reward.unlock", "Reward unlocked", userID, "", "", map[string]interface{}{
			"courseId": courseID,
			"rewardId": rewardID,
		})
	}
	log.WithFields(log.Fields{
		"user_id":   userID,
		"course_id": courseID,
		"rewards":   unlocked,
	}).Info("Course completed, rewards unlocked")
}

// ==================== RESET ====================

// ResetProgress clears learner state for a course. reset_all removes progress, attempts and
// results; reset_tests removes attempts and results and strips test lessons from the
// completed sets; keep leaves everything in place.
func (svc *ProgressService) ResetProgress(ctx context.Context, actor shared.Actor, req dto.ResetProgressRequest) (*dto.MessageResponse, error) {
	if !actor.IsAdmin() {
		return nil, shared.NewForbiddenError(nil, "Only administrators can reset progress")
	}

	mode := req.ResetType
	if mode == "" {
		mode = shared.ResetAll
	}

	if _, err := svc.courseRepo.GetByID(req.CourseID); err != nil {
		return nil, dbError(svc.dbSvc, err, "Course not found")
	}

	var err error
	switch mode {
	case shared.ResetKeep:
		return &dto.MessageResponse{Message: "Progress kept"}, nil
	case shared.ResetAll:
		err = svc.resetAll(req.CourseID, req.UserID)
	case shared.ResetTests:
		err = svc.resetTests(ctx, req.CourseID, req.UserID)
	default:
		return nil, shared.NewBadRequestError(nil, "Unknown reset type")
	}
	if err != nil {
		return nil, err
	}

	svc.auditSvc.LogAction(shared.LogLevelWarning, "progress.reset", "Progress reset", actor.UserID, "", "", map[string]interface{}{
		"courseId":  req.CourseID,
		"userId":    req.UserID,
		"resetType": mode,
	})
	log.WithFields(log.Fields{
		"course_id":  req.CourseID,
		"user_id":    req.UserID,
		"reset_type": mode,
	}).Info("Progress reset")

	return &dto.MessageResponse{Message: "Progress reset successfully"}, nil
}

func (svc *ProgressService) resetAll(courseID, userID string) error {
	err := svc.progressRepo.Transaction(func(tx *gorm.DB) error {
		testIDs, err := svc.courseRepo.WithTx(tx).TestIDsForCourse(courseID)
		if err != nil {
			return err
		}
		if err := svc.progressRepo.WithTx(tx).Delete(courseID, userID); err != nil {
			return err
		}
		if err := svc.attemptRepo.WithTx(tx).Delete(courseID, userID); err != nil {
			return err
		}
		return svc.testRepo.WithTx(tx).DeleteResults(courseID, testIDs, userID)
	})
	return dbError(svc.dbSvc, err, "Course not found")
}

func (svc *ProgressService) resetTests(ctx context.Context, courseID, userID string) error {
	err := svc.progressRepo.Transaction(func(tx *gorm.DB) error {
		testIDs, err := svc.courseRepo.WithTx(tx).TestIDsForCourse(courseID)
		if err != nil {
			return err
		}
		if err := svc.attemptRepo.WithTx(tx).Delete(courseID, userID); err != nil {
			return err
		}
		return svc.testRepo.WithTx(tx).DeleteResults(courseID, testIDs, userID)
	})
	if err != nil {
		return dbError(svc.dbSvc, err, "Course not found")
	}

	rows, err := svc.progressRepo.List(userID, courseID)
	if err != nil {
		return dbError(svc.dbSvc, err, "Progress not found")
	}

	for _, row := range rows {
		_, _, err := svc.mutate(ctx, row.UserID, courseID, func(p *model.CourseProgress, lessons []model.Lesson) error {
			testLessons := map[string]bool{}
			for i := range lessons {
				if lessons[i].IsTestLesson() {
					testLessons[lessons[i].ID] = true
				}
			}
			kept := p.CompletedLessonIDs.Without(func(id string) bool {
				return testLessons[id]
			})
			if kept.Len() < p.CompletedLessonIDs.Len() {
				p.Completed = false
				p.CompletedAt = nil
				p.EarnedRewards = model.IDSet{}
			}
			p.CompletedLessonIDs = kept
			p.TestScore = nil
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ==================== LOCK STATUS ====================

const (
	LockReasonNone       = "none"
	LockReasonPrevious   = "previous"
	LockReasonAllLessons = "allLessons"
	LockReasonAllTests   = "allTests"
)

// LessonLockStatus reports whether the learner may open the lesson yet.
func (svc *ProgressService) LessonLockStatus(actor shared.Actor, lessonID string) (*dto.LessonLockResponse, error) {
	lesson, err := svc.courseRepo.GetLesson(lessonID)
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Lesson not found")
	}
	if _, err := svc.catalogSvc.LoadCourse(actor, lesson.CourseID); err != nil {
		return nil, err
	}

	lessons, err := svc.courseRepo.ListLessons(lesson.CourseID)
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Lessons not found")
	}

	completed := model.IDSet{}
	progress, err := svc.progressRepo.Get(actor.UserID, lesson.CourseID)
	if err != nil && !isNotFound(err) {
		return nil, dbError(svc.dbSvc, err, "Progress not found")
	}
	if progress != nil {
		completed = progress.CompletedLessonIDs
	}

	status := computeLock(lesson, lessons, completed)
	status.LessonID = lesson.ID
	return status, nil
}

// computeLock evaluates the lesson's prerequisites against the completed set. lessons must
// be in course order.
func computeLock(lesson *model.Lesson, lessons []model.Lesson, completed model.IDSet) *dto.LessonLockResponse {
	status := &dto.LessonLockResponse{Reason: LockReasonNone}

	if lesson.IsFinalTest && lesson.FinalTestRequiresAllLessons {
		for i := range lessons {
			l := &lessons[i]
			if l.ID == lesson.ID || l.IsFinalTest {
				continue
			}
			status.Total++
			if completed.Contains(l.ID) {
				status.Completed++
			}
		}
		if status.Completed < status.Total {
			status.IsLocked = true
			status.Reason = LockReasonAllLessons
			return status
		}
	}

	if lesson.IsFinalTest && lesson.FinalTestRequiresAllTests {
		status.Completed, status.Total = 0, 0
		for i := range lessons {
			l := &lessons[i]
			if l.ID == lesson.ID || l.IsFinalTest || !l.IsTestLesson() {
				continue
			}
			status.Total++
			if completed.Contains(l.ID) {
				status.Completed++
			}
		}
		if status.Completed < status.Total {
			status.IsLocked = true
			status.Reason = LockReasonAllTests
			return status
		}
	}

	if lesson.RequiresPrevious {
		for i := range lessons {
			if lessons[i].ID != lesson.ID {
				continue
			}
			if i > 0 && !completed.Contains(lessons[i-1].ID) {
				status.IsLocked = true
				status.Reason = LockReasonPrevious
				status.Completed, status.Total = 0, 1
			}
			break
		}
	}

	return status
}

// ==================== MAPPERS ====================

func toProgressResponse(p *model.CourseProgress) dto.ProgressResponse {
	return dto.ProgressResponse{
		CourseID:           p.CourseID,
		UserID:             p.UserID,
		CompletedLessons:   p.CompletedLessons,
		TotalLessons:       p.TotalLessons,
		TestScore:          p.TestScore,
		Completed:          p.Completed,
		CompletedLessonIDs: p.CompletedLessonIDs.Strings(),
		EarnedRewards:      p.EarnedRewards.Strings(),
		LastAccessedLesson: p.LastAccessedLessonID,
		StartedAt:          p.StartedAt,
		CompletedAt:        p.CompletedAt,
	}
}
