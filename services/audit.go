package services

import (
	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/lms_api/model"
	"github.com/lac-hong-legacy/lms_api/services/repositories"
	"github.com/lac-hong-legacy/lms_api/shared"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditService struct {
	context.DefaultService

	dbSvc   Database
	logRepo *repositories.LogRepository
}

const AUDIT_SVC = "audit_svc"

func (svc AuditService) Id() string {
	return AUDIT_SVC
}

func (svc *AuditService) Configure(ctx *context.Context) error {
	svc.dbSvc = ctx.Service(DATABASE_SVC).(Database)
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuditService) Start() error {
	svc.useDB(svc.dbSvc.Db())
	return nil
}

func (svc *AuditService) useDB(db *gorm.DB) {
	svc.logRepo = repositories.NewLogRepository(db)
}

// LogAction persists one audit row. Failures are logged and swallowed.
func (svc *AuditService) LogAction(level, action, message, userID, ip, userAgent string, details map[string]interface{}) {
	if svc == nil || svc.logRepo == nil {
		return
	}

	entry := &model.SystemLog{
		Level:     level,
		Action:    action,
		Message:   message,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	if userID != "" {
		entry.UserID = &userID
	}
	if len(details) > 0 {
		if raw, err := shared.JSON.Marshal(details); err == nil {
			entry.Details = datatypes.JSON(raw)
		}
	}

	if err := svc.logRepo.Create(entry); err != nil {
		log.WithFields(log.Fields{
			"action": action,
			"user":   userID,
			"error":  err.Error(),
		}).Warn("Failed to write audit log")
	}
}

// LogRequest is LogAction with the caller, IP and user agent taken from the request.
func (svc *AuditService) LogRequest(c *fiber.Ctx, level, action, message string, details map[string]interface{}) {
	userID, _ := c.Locals(shared.UserID).(string)
	svc.LogAction(level, action, message, userID, c.IP(), c.Get(fiber.HeaderUserAgent), details)
}

func (svc *AuditService) List(level, action string, limit int) ([]model.SystemLog, error) {
	entries, err := svc.logRepo.List(level, action, limit)
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Logs not found")
	}
	return entries, nil
}
