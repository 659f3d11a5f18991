package services

import (
	"errors"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/lms_api/dto"
	"github.com/lac-hong-legacy/lms_api/model"
	"github.com/lac-hong-legacy/lms_api/services/repositories"
	"github.com/lac-hong-legacy/lms_api/shared"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CatalogService owns courses and lessons and decides who may see them.
type CatalogService struct {
	context.DefaultService

	dbSvc Database

	courseRepo     *repositories.CourseRepository
	assignmentRepo *repositories.AssignmentRepository
	progressRepo   *repositories.ProgressRepository
}

const CATALOG_SVC = "catalog_svc"

func (svc CatalogService) Id() string {
	return CATALOG_SVC
}

func (svc *CatalogService) Configure(ctx *context.Context) error {
	svc.dbSvc = ctx.Service(DATABASE_SVC).(Database)
	return svc.DefaultService.Configure(ctx)
}

func (svc *CatalogService) Start() error {
	svc.useDB(svc.dbSvc.Db())
	return nil
}

func (svc *CatalogService) useDB(db *gorm.DB) {
	svc.courseRepo = repositories.NewCourseRepository(db)
	svc.assignmentRepo = repositories.NewAssignmentRepository(db)
	svc.progressRepo = repositories.NewProgressRepository(db)
}

// ==================== ACCESS ====================

// LoadCourse returns the course if the actor may open it. Students never see drafts, need an
// assignment for closed courses and may only revisit archived courses they already started.
func (svc *CatalogService) LoadCourse(actor shared.Actor, courseID string) (*model.Course, error) {
	course, err := svc.courseRepo.GetByID(courseID)
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Course not found")
	}
	if actor.IsAdmin() {
		return course, nil
	}

	if course.Status == shared.CourseStatusDraft {
		return nil, shared.NewNotFoundError(nil, "Course not found")
	}

	if course.IsClosed() {
		assigned, err := svc.assignmentRepo.Exists(course.ID, actor.UserID)
		if err != nil {
			return nil, dbError(svc.dbSvc, err, "Course not found")
		}
		if !assigned {
			return nil, shared.NewForbiddenError(nil, "Course is not assigned to you")
		}
	}

	if course.Status == shared.CourseStatusArchived {
		started, err := svc.progressRepo.HasProgress(actor.UserID, course.ID)
		if err != nil {
			return nil, dbError(svc.dbSvc, err, "Course not found")
		}
		if !started {
			return nil, shared.NewForbiddenError(nil, "Course is archived")
		}
	}

	return course, nil
}

// LoadCourseLesson resolves a lesson inside an accessible course.
func (svc *CatalogService) LoadCourseLesson(actor shared.Actor, courseID, lessonID string) (*model.Course, *model.Lesson, error) {
	course, err := svc.LoadCourse(actor, courseID)
	if err != nil {
		return nil, nil, err
	}
	lesson, err := svc.courseRepo.GetCourseLesson(course.ID, lessonID)
	if err != nil {
		return nil, nil, dbError(svc.dbSvc, err, "Lesson not found in this course")
	}
	return course, lesson, nil
}

// ==================== COURSES ====================

func (svc *CatalogService) ListCourses(actor shared.Actor) (*dto.CourseListResponse, error) {
	var courses []model.Course
	var err error
	if actor.IsAdmin() {
		courses, err = svc.courseRepo.List()
	} else {
		courses, err = svc.courseRepo.ListVisible(actor.UserID)
	}
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Courses not found")
	}

	resp := &dto.CourseListResponse{Courses: make([]dto.CourseResponse, 0, len(courses))}
	for i := range courses {
		resp.Courses = append(resp.Courses, toCourseResponse(&courses[i]))
	}
	return resp, nil
}

func (svc *CatalogService) GetCourse(actor shared.Actor, id string) (*dto.CourseResponse, error) {
	course, err := svc.LoadCourse(actor, id)
	if err != nil {
		return nil, err
	}
	resp := toCourseResponse(course)
	return &resp, nil
}

func (svc *CatalogService) CreateCourse(actor shared.Actor, req dto.CreateCourseRequest) (*dto.CourseResponse, error) {
	course := &model.Course{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Duration:    req.Duration,
		Category:    req.Category,
		Image:       req.Image,
		PassScore:   shared.DefaultPassScore,
		Level:       req.Level,
		Instructor:  req.Instructor,
		AccessType:  req.AccessType,
		Status:      req.Status,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if req.PassScore != nil {
		course.PassScore = *req.PassScore
	}
	if course.AccessType == "" {
		course.AccessType = shared.AccessClosed
	}
	if course.Status == "" {
		course.Status = shared.CourseStatusDraft
	}
	if actor.UserID != "" {
		course.CreatedBy = &actor.UserID
	}

	if err := svc.courseRepo.Create(course); err != nil {
		return nil, dbError(svc.dbSvc, err, "Course not found")
	}

	resp := toCourseResponse(course)
	return &resp, nil
}

func (svc *CatalogService) UpdateCourse(id string, req dto.UpdateCourseRequest) (*dto.CourseResponse, error) {
	updates := courseUpdates(req)
	if len(updates) == 0 {
		return nil, shared.NewBadRequestError(nil, "No fields to update")
	}
	if err := svc.courseRepo.Update(id, updates); err != nil {
		return nil, dbError(svc.dbSvc, err, "Course not found")
	}
	return svc.GetCourse(shared.Actor{Role: shared.RoleAdmin}, id)
}

func courseUpdates(req dto.UpdateCourseRequest) map[string]interface{} {
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Duration != nil {
		updates["duration"] = *req.Duration
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Image != nil {
		updates["image"] = *req.Image
	}
	if req.PassScore != nil {
		updates["pass_score"] = *req.PassScore
	}
	if req.Level != nil {
		updates["level"] = *req.Level
	}
	if req.Instructor != nil {
		updates["instructor"] = *req.Instructor
	}
	if req.AccessType != nil {
		updates["access_type"] = *req.AccessType
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.StartDate != nil {
		updates["start_date"] = *req.StartDate
	}
	if req.EndDate != nil {
		updates["end_date"] = *req.EndDate
	}
	return updates
}

// CopyCourse clones a course and its lessons into a new draft.
func (svc *CatalogService) CopyCourse(actor shared.Actor, id string) (*dto.CourseResponse, error) {
	var copied *model.Course

	err := svc.courseRepo.Transaction(func(tx *gorm.DB) error {
		repo := svc.courseRepo.WithTx(tx)

		source, err := repo.GetByID(id)
		if err != nil {
			return err
		}
		lessons, err := repo.ListLessons(source.ID)
		if err != nil {
			return err
		}

		clone := *source
		clone.ID = ""
		clone.Title = source.Title + " (copy)"
		clone.Status = shared.CourseStatusDraft
		clone.LessonsCount = len(lessons)
		clone.CreatedBy = nil
		clone.CreatedAt = time.Time{}
		clone.UpdatedAt = time.Time{}
		if actor.UserID != "" {
			clone.CreatedBy = &actor.UserID
		}
		if err := repo.Create(&clone); err != nil {
			return err
		}

		for _, lesson := range lessons {
			lesson.ID = ""
			lesson.CourseID = clone.ID
			lesson.CreatedAt = time.Time{}
			lesson.UpdatedAt = time.Time{}
			if err := repo.CreateLesson(&lesson); err != nil {
				return err
			}
		}

		copied = &clone
		return nil
	})
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Course not found")
	}

	log.WithFields(log.Fields{"source": id, "copy": copied.ID}).Info("Course copied")
	resp := toCourseResponse(copied)
	return &resp, nil
}

// DeleteCourse removes every learner record, assignment, reward, lesson, owned test and
// question of the course before the course row itself, all in one transaction.
func (svc *CatalogService) DeleteCourse(id string) error {
	err := svc.courseRepo.Transaction(func(tx *gorm.DB) error {
		courseRepo := svc.courseRepo.WithTx(tx)
		if _, err := courseRepo.GetByID(id); err != nil {
			return err
		}

		testIDs, err := courseRepo.TestIDsForCourse(id)
		if err != nil {
			return err
		}

		if err := repositories.NewProgressRepository(tx).Delete(id, ""); err != nil {
			return err
		}
		if err := repositories.NewAttemptRepository(tx).Delete(id, ""); err != nil {
			return err
		}
		testRepo := repositories.NewTestRepository(tx)
		if err := testRepo.DeleteResults(id, testIDs, ""); err != nil {
			return err
		}
		if err := svc.assignmentRepo.WithTx(tx).DeleteByCourse(id); err != nil {
			return err
		}
		if err := repositories.NewRewardRepository(tx).DeleteByCourse(id); err != nil {
			return err
		}
		if err := courseRepo.DeleteLessonsByCourse(id); err != nil {
			return err
		}
		// tests of other courses referenced by these lessons survive
		ownedIDs, err := courseRepo.OwnedTestIDs(id)
		if err != nil {
			return err
		}
		if err := testRepo.DeleteTests(ownedIDs...); err != nil {
			return err
		}
		return courseRepo.Delete(id)
	})
	if err != nil {
		return dbError(svc.dbSvc, err, "Course not found")
	}

	log.WithField("course_id", id).Info("Course deleted")
	return nil
}

// ==================== LESSONS ====================

func (svc *CatalogService) ListLessons(actor shared.Actor, courseID string) (*dto.LessonListResponse, error) {
	course, err := svc.LoadCourse(actor, courseID)
	if err != nil {
		return nil, err
	}

	lessons, err := svc.courseRepo.ListLessons(course.ID)
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Lessons not found")
	}

	resp := &dto.LessonListResponse{Lessons: make([]dto.LessonResponse, 0, len(lessons))}
	for i := range lessons {
		resp.Lessons = append(resp.Lessons, toLessonResponse(&lessons[i]))
	}
	return resp, nil
}

func (svc *CatalogService) GetLesson(actor shared.Actor, id string) (*dto.LessonResponse, error) {
	lesson, err := svc.courseRepo.GetLesson(id)
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Lesson not found")
	}
	if _, err := svc.LoadCourse(actor, lesson.CourseID); err != nil {
		return nil, err
	}
	resp := toLessonResponse(lesson)
	return &resp, nil
}

func (svc *CatalogService) CreateLesson(req dto.CreateLessonRequest) (*dto.LessonResponse, error) {
	var lesson *model.Lesson

	err := svc.courseRepo.Transaction(func(tx *gorm.DB) error {
		repo := svc.courseRepo.WithTx(tx)
		if _, err := repo.GetByID(req.CourseID); err != nil {
			return err
		}

		lesson = &model.Lesson{
			CourseID:                    req.CourseID,
			Title:                       strings.TrimSpace(req.Title),
			Content:                     req.Content,
			Type:                        req.Type,
			Duration:                    req.Duration,
			VideoURL:                    req.VideoURL,
			Description:                 req.Description,
			Materials:                   datatypes.JSON(req.Materials),
			RequiresPrevious:            req.RequiresPrevious,
			TestID:                      blankToNil(req.TestID),
			IsFinalTest:                 req.IsFinalTest,
			FinalTestRequiresAllLessons: req.FinalTestRequiresAllLessons,
			FinalTestRequiresAllTests:   req.FinalTestRequiresAllTests,
		}
		if lesson.Type == "" {
			lesson.Type = shared.LessonTypeText
		}
		if req.Order != nil {
			lesson.Order = *req.Order
		} else {
			next, err := repo.NextLessonOrder(req.CourseID)
			if err != nil {
				return err
			}
			lesson.Order = next
		}

		if err := repo.CreateLesson(lesson); err != nil {
			return err
		}
		_, err := repo.RefreshLessonsCount(req.CourseID)
		return err
	})
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Course not found")
	}

	resp := toLessonResponse(lesson)
	return &resp, nil
}

func (svc *CatalogService) UpdateLesson(id string, req dto.UpdateLessonRequest) (*dto.LessonResponse, error) {
	updates := lessonUpdates(req)
	if len(updates) == 0 {
		return nil, shared.NewBadRequestError(nil, "No fields to update")
	}
	if err := svc.courseRepo.UpdateLesson(id, updates); err != nil {
		return nil, dbError(svc.dbSvc, err, "Lesson not found")
	}

	lesson, err := svc.courseRepo.GetLesson(id)
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Lesson not found")
	}
	resp := toLessonResponse(lesson)
	return &resp, nil
}

func lessonUpdates(req dto.UpdateLessonRequest) map[string]interface{} {
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if req.Type != nil {
		updates["type"] = *req.Type
	}
	if req.Order != nil {
		updates["order"] = *req.Order
	}
	if req.Duration != nil {
		updates["duration"] = *req.Duration
	}
	if req.VideoURL != nil {
		updates["video_url"] = *req.VideoURL
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if len(req.Materials) > 0 {
		updates["materials"] = datatypes.JSON(req.Materials)
	}
	if req.RequiresPrevious != nil {
		updates["requires_previous"] = *req.RequiresPrevious
	}
	if req.TestID != nil {
		updates["test_id"] = blankToNil(req.TestID)
	}
	if req.IsFinalTest != nil {
		updates["is_final_test"] = *req.IsFinalTest
	}
	if req.FinalTestRequiresAllLessons != nil {
		updates["final_test_requires_all_lessons"] = *req.FinalTestRequiresAllLessons
	}
	if req.FinalTestRequiresAllTests != nil {
		updates["final_test_requires_all_tests"] = *req.FinalTestRequiresAllTests
	}
	return updates
}

func (svc *CatalogService) DeleteLesson(id string) error {
	err := svc.courseRepo.Transaction(func(tx *gorm.DB) error {
		repo := svc.courseRepo.WithTx(tx)
		lesson, err := repo.GetLesson(id)
		if err != nil {
			return err
		}
		if err := repo.DeleteLesson(id); err != nil {
			return err
		}
		_, err = repo.RefreshLessonsCount(lesson.CourseID)
		return err
	})
	if err != nil {
		return dbError(svc.dbSvc, err, "Lesson not found")
	}
	return nil
}

// ==================== MAPPERS ====================

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func toCourseResponse(c *model.Course) dto.CourseResponse {
	return dto.CourseResponse{
		ID:           c.ID,
		Title:        c.Title,
		Description:  c.Description,
		Duration:     c.Duration,
		Category:     c.Category,
		Image:        c.Image,
		PassScore:    c.PassScore,
		Level:        c.Level,
		Instructor:   c.Instructor,
		AccessType:   c.AccessType,
		Status:       c.Status,
		Published:    c.Status == shared.CourseStatusPublished,
		LessonsCount: c.LessonsCount,
		StartDate:    c.StartDate,
		EndDate:      c.EndDate,
		CreatedAt:    c.CreatedAt,
	}
}

func toLessonResponse(l *model.Lesson) dto.LessonResponse {
	return dto.LessonResponse{
		ID:                          l.ID,
		CourseID:                    l.CourseID,
		Title:                       l.Title,
		Content:                     l.Content,
		Type:                        l.Type,
		Order:                       l.Order,
		Duration:                    l.Duration,
		VideoURL:                    l.VideoURL,
		Description:                 l.Description,
		Materials:                   []byte(l.Materials),
		RequiresPrevious:            l.RequiresPrevious,
		TestID:                      l.TestID,
		IsFinalTest:                 l.IsFinalTest,
		FinalTestRequiresAllLessons: l.FinalTestRequiresAllLessons,
		FinalTestRequiresAllTests:   l.FinalTestRequiresAllTests,
	}
}
