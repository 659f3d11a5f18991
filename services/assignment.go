package services

import (
	"net/http"

	"github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/lms_api/dto"
	"github.com/lac-hong-legacy/lms_api/model"
	"github.com/lac-hong-legacy/lms_api/services/repositories"
	"github.com/lac-hong-legacy/lms_api/shared"
	"gorm.io/gorm"
)

type AssignmentService struct {
	context.DefaultService

	dbSvc Database

	assignmentRepo *repositories.AssignmentRepository
	courseRepo     *repositories.CourseRepository
	userRepo       *repositories.UserRepository
}

const ASSIGNMENT_SVC = "assignment_svc"

func (svc AssignmentService) Id() string {
	return ASSIGNMENT_SVC
}

func (svc *AssignmentService) Configure(ctx *context.Context) error {
	svc.dbSvc = ctx.Service(DATABASE_SVC).(Database)
	return svc.DefaultService.Configure(ctx)
}

func (svc *AssignmentService) Start() error {
	svc.useDB(svc.dbSvc.Db())
	return nil
}

func (svc *AssignmentService) useDB(db *gorm.DB) {
	svc.assignmentRepo = repositories.NewAssignmentRepository(db)
	svc.courseRepo = repositories.NewCourseRepository(db)
	svc.userRepo = repositories.NewUserRepository(db)
}

func (svc *AssignmentService) Assign(actor shared.Actor, req dto.CreateAssignmentRequest) (*dto.AssignmentResponse, error) {
	if _, err := svc.courseRepo.GetByID(req.CourseID); err != nil {
		return nil, dbError(svc.dbSvc, err, "Course not found")
	}
	if _, err := svc.userRepo.GetByID(req.UserID); err != nil {
		return nil, dbError(svc.dbSvc, err, "User not found")
	}

	exists, err := svc.assignmentRepo.Exists(req.CourseID, req.UserID)
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Assignment not found")
	}
	if exists {
		return nil, shared.NewConflictError(nil, "User is already assigned to this course")
	}

	assignment := &model.CourseAssignment{
		CourseID: req.CourseID,
		UserID:   req.UserID,
	}
	if actor.UserID != "" {
		assignment.AssignedBy = &actor.UserID
	}
	if err := svc.assignmentRepo.Create(assignment); err != nil {
		// lost a race with a concurrent assign of the same pair
		appErr := dbError(svc.dbSvc, err, "Assignment not found")
		if shared.IsStatus(appErr, http.StatusConflict) {
			return nil, shared.NewConflictError(err, "User is already assigned to this course")
		}
		return nil, appErr
	}

	resp := toAssignmentResponse(assignment)
	return &resp, nil
}

// List filters by course or user; with neither it returns every assignment.
func (svc *AssignmentService) List(courseID, userID string) (*dto.AssignmentListResponse, error) {
	var assignments []model.CourseAssignment
	var err error
	switch {
	case courseID != "":
		assignments, err = svc.assignmentRepo.ListByCourse(courseID)
	case userID != "":
		assignments, err = svc.assignmentRepo.ListByUser(userID)
	default:
		assignments, err = svc.assignmentRepo.ListAll()
	}
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Assignments not found")
	}

	resp := &dto.AssignmentListResponse{Assignments: make([]dto.AssignmentResponse, 0, len(assignments))}
	for i := range assignments {
		resp.Assignments = append(resp.Assignments, toAssignmentResponse(&assignments[i]))
	}
	return resp, nil
}

func (svc *AssignmentService) Unassign(id string) error {
	if err := svc.assignmentRepo.Delete(id); err != nil {
		return dbError(svc.dbSvc, err, "Assignment not found")
	}
	return nil
}

func toAssignmentResponse(a *model.CourseAssignment) dto.AssignmentResponse {
	return dto.AssignmentResponse{
		ID:         a.ID,
		CourseID:   a.CourseID,
		UserID:     a.UserID,
		AssignedBy: a.AssignedBy,
		CreatedAt:  a.CreatedAt,
	}
}
