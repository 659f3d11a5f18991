package shared

const (
	UserID    = "user_id"
	UserRole  = "user_role"
	Claims    = "claims"
	AuthToken = "auth_token"

	AuthTokenHeader = "X-Auth-Token"

	RoleAdmin   = "admin"
	RoleStudent = "student"

	AccessOpen   = "open"
	AccessClosed = "closed"

	CourseStatusDraft     = "draft"
	CourseStatusPublished = "published"
	CourseStatusArchived  = "archived"

	TestStatusDraft     = "draft"
	TestStatusPublished = "published"

	LessonTypeText  = "text"
	LessonTypeVideo = "video"
	LessonTypePDF   = "pdf"
	LessonTypeQuiz  = "quiz"
	LessonTypeTest  = "test"

	QuestionTypeSingle   = "single"
	QuestionTypeMultiple = "multiple"
	QuestionTypeMatching = "matching"
	QuestionTypeText     = "text"

	TextCheckManual    = "manual"
	TextCheckAutomatic = "automatic"

	ResetAll   = "reset_all"
	ResetTests = "reset_tests"
	ResetKeep  = "keep"

	LogLevelInfo    = "info"
	LogLevelSuccess = "success"
	LogLevelWarning = "warning"
	LogLevelError   = "error"

	DefaultPassScore = 70
	DefaultTimeLimit = 60
	DefaultAttempts  = 3

	// Remaining-attempts value reported to legacy clients for unlimited tests.
	LegacyUnlimitedAttempts = 999
)
