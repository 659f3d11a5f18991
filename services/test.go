package services

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/lms_api/dto"
	"github.com/lac-hong-legacy/lms_api/model"
	"github.com/lac-hong-legacy/lms_api/services/repositories"
	"github.com/lac-hong-legacy/lms_api/shared"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TestService struct {
	context.DefaultService

	dbSvc      Database
	catalogSvc *CatalogService
	monitoring *MonitoringService

	testRepo *repositories.TestRepository
}

const TEST_SVC = "test_svc"

func (svc TestService) Id() string {
	return TEST_SVC
}

func (svc *TestService) Configure(ctx *context.Context) error {
	svc.dbSvc = ctx.Service(DATABASE_SVC).(Database)
	svc.catalogSvc = ctx.Service(CATALOG_SVC).(*CatalogService)
	svc.monitoring, _ = ctx.Service(MONITORING_SVC).(*MonitoringService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *TestService) Start() error {
	svc.useDB(svc.dbSvc.Db())
	return nil
}

func (svc *TestService) useDB(db *gorm.DB) {
	svc.testRepo = repositories.NewTestRepository(db)
}

// loadTest returns the test if the actor may take it: students only see published tests
// of courses they can open.
func (svc *TestService) loadTest(actor shared.Actor, testID string) (*model.Test, error) {
	test, err := svc.testRepo.GetTest(testID)
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Test not found")
	}
	if actor.IsAdmin() {
		return test, nil
	}
	if test.Status != shared.TestStatusPublished {
		return nil, shared.NewNotFoundError(nil, "Test not found")
	}
	if test.CourseID != nil && *test.CourseID != "" {
		if _, err := svc.catalogSvc.LoadCourse(actor, *test.CourseID); err != nil {
			return nil, err
		}
	}
	return test, nil
}

// ==================== TESTS ====================

func (svc *TestService) ListTests(actor shared.Actor, courseID string) (*dto.TestListResponse, error) {
	if courseID != "" && !actor.IsAdmin() {
		if _, err := svc.catalogSvc.LoadCourse(actor, courseID); err != nil {
			return nil, err
		}
	}

	tests, err := svc.testRepo.ListTests(courseID)
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Tests not found")
	}

	resp := &dto.TestListResponse{Tests: make([]dto.TestResponse, 0, len(tests))}
	for i := range tests {
		if !actor.IsAdmin() && tests[i].Status != shared.TestStatusPublished {
			continue
		}
		resp.Tests = append(resp.Tests, toTestResponse(&tests[i]))
	}
	return resp, nil
}

func (svc *TestService) GetTest(actor shared.Actor, id string) (*dto.TestResponse, error) {
	test, err := svc.loadTest(actor, id)
	if err != nil {
		return nil, err
	}
	resp := toTestResponse(test)
	return &resp, nil
}

func (svc *TestService) CreateTest(req dto.CreateTestRequest) (*dto.TestResponse, error) {
	test := &model.Test{
		CourseID:        blankToNil(req.CourseID),
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		PassScore:       req.PassScore,
		TimeLimit:       shared.DefaultTimeLimit,
		AttemptsAllowed: shared.DefaultAttempts,
		Status:          req.Status,
	}
	if test.PassScore == nil {
		passScore := shared.DefaultPassScore
		test.PassScore = &passScore
	}
	if req.TimeLimit != nil {
		test.TimeLimit = *req.TimeLimit
	}
	if req.Attempts != nil {
		test.AttemptsAllowed = *req.Attempts
	}
	if test.Status == "" {
		test.Status = shared.TestStatusDraft
	}

	if err := svc.testRepo.CreateTest(test); err != nil {
		return nil, dbError(svc.dbSvc, err, "Test not found")
	}
	resp := toTestResponse(test)
	return &resp, nil
}

func (svc *TestService) UpdateTest(id string, req dto.UpdateTestRequest) (*dto.TestResponse, error) {
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.PassScore != nil {
		updates["pass_score"] = *req.PassScore
	}
	if req.TimeLimit != nil {
		updates["time_limit"] = *req.TimeLimit
	}
	if req.Attempts != nil {
		updates["attempts_allowed"] = *req.Attempts
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if len(updates) == 0 {
		return nil, shared.NewBadRequestError(nil, "No fields to update")
	}

	if err := svc.testRepo.UpdateTest(id, updates); err != nil {
		return nil, dbError(svc.dbSvc, err, "Test not found")
	}
	return svc.GetTest(shared.Actor{Role: shared.RoleAdmin}, id)
}

func (svc *TestService) DeleteTest(id string) error {
	err := svc.testRepo.Transaction(func(tx *gorm.DB) error {
		repo := svc.testRepo.WithTx(tx)
		if _, err := repo.GetTest(id); err != nil {
			return err
		}
		return repo.DeleteTests(id)
	})
	if err != nil {
		return dbError(svc.dbSvc, err, "Test not found")
	}
	return nil
}

// ==================== QUESTIONS ====================

// ListQuestions returns the test's questions in order. Students get no answer key; matching
// questions expose the left items with the right-hand labels sorted into Options.
func (svc *TestService) ListQuestions(actor shared.Actor, testID string) (*dto.QuestionListResponse, error) {
	test, err := svc.loadTest(actor, testID)
	if err != nil {
		return nil, err
	}

	questions, err := svc.testRepo.ListQuestions(test.ID)
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Questions not found")
	}

	resp := &dto.QuestionListResponse{Questions: make([]dto.QuestionResponse, 0, len(questions))}
	for i := range questions {
		q := toQuestionResponse(&questions[i])
		if !actor.IsAdmin() {
			q = studentQuestionView(q)
		}
		resp.Questions = append(resp.Questions, q)
	}
	return resp, nil
}

func studentQuestionView(q dto.QuestionResponse) dto.QuestionResponse {
	q.CorrectAnswer = nil
	if q.Type == shared.QuestionTypeMatching && len(q.MatchingPairs) > 0 {
		rights := make([]string, 0, len(q.MatchingPairs))
		lefts := make([]dto.MatchingPair, 0, len(q.MatchingPairs))
		for _, p := range q.MatchingPairs {
			rights = append(rights, p.Right)
			lefts = append(lefts, dto.MatchingPair{Left: p.Left})
		}
		sort.Strings(rights)
		q.Options = rights
		q.MatchingPairs = lefts
	}
	return q
}

func (svc *TestService) CreateQuestion(req dto.CreateQuestionRequest) (*dto.QuestionResponse, error) {
	if err := validateAnswerKey(req.Type, req.CorrectAnswer, req.MatchingPairs, req.TextCheckType); err != nil {
		return nil, err
	}

	var question *model.Question
	err := svc.testRepo.Transaction(func(tx *gorm.DB) error {
		repo := svc.testRepo.WithTx(tx)
		if _, err := repo.GetTest(req.TestID); err != nil {
			return err
		}

		question = &model.Question{
			TestID:        req.TestID,
			Type:          req.Type,
			Text:          strings.TrimSpace(req.Text),
			Options:       mustJSON(req.Options),
			CorrectAnswer: datatypes.JSON(req.CorrectAnswer),
			MatchingPairs: pairsJSON(req.MatchingPairs),
			Points:        1,
			TextCheckType: req.TextCheckType,
		}
		if req.Points != nil {
			question.Points = *req.Points
		}
		if question.Type == shared.QuestionTypeText && question.TextCheckType == "" {
			question.TextCheckType = shared.TextCheckAutomatic
		}
		if req.Order != nil {
			question.Order = *req.Order
		} else {
			next, err := repo.NextQuestionOrder(req.TestID)
			if err != nil {
				return err
			}
			question.Order = next
		}

		if err := repo.CreateQuestion(question); err != nil {
			return err
		}
		return repo.RefreshQuestionsCount(req.TestID)
	})
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Test not found")
	}

	resp := toQuestionResponse(question)
	return &resp, nil
}

func (svc *TestService) UpdateQuestion(id string, req dto.UpdateQuestionRequest) (*dto.QuestionResponse, error) {
	current, err := svc.testRepo.GetQuestion(id)
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Question not found")
	}

	updates := map[string]interface{}{}
	qType := current.Type
	if req.Type != nil {
		qType = *req.Type
		updates["type"] = qType
	}
	if req.Text != nil {
		updates["text"] = strings.TrimSpace(*req.Text)
	}
	if req.Options != nil {
		updates["options"] = mustJSON(req.Options)
	}
	if len(req.CorrectAnswer) > 0 {
		updates["correct_answer"] = datatypes.JSON(req.CorrectAnswer)
	}
	if req.Points != nil {
		updates["points"] = *req.Points
	}
	if req.Order != nil {
		updates["order"] = *req.Order
	}
	if req.MatchingPairs != nil {
		updates["matching_pairs"] = pairsJSON(req.MatchingPairs)
	}
	if req.TextCheckType != nil {
		updates["text_check_type"] = *req.TextCheckType
	}
	if len(updates) == 0 {
		return nil, shared.NewBadRequestError(nil, "No fields to update")
	}

	// re-check the key only when the type or key changes
	if req.Type != nil || len(req.CorrectAnswer) > 0 || req.MatchingPairs != nil {
		key := req.CorrectAnswer
		if len(key) == 0 {
			key = json.RawMessage(current.CorrectAnswer)
		}
		pairs := req.MatchingPairs
		if pairs == nil {
			_ = shared.JSON.Unmarshal(current.MatchingPairs, &pairs)
		}
		checkType := current.TextCheckType
		if req.TextCheckType != nil {
			checkType = *req.TextCheckType
		}
		if err := validateAnswerKey(qType, key, pairs, checkType); err != nil {
			return nil, err
		}
	}

	if err := svc.testRepo.UpdateQuestion(id, updates); err != nil {
		return nil, dbError(svc.dbSvc, err, "Question not found")
	}

	question, err := svc.testRepo.GetQuestion(id)
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Question not found")
	}
	resp := toQuestionResponse(question)
	return &resp, nil
}

func (svc *TestService) DeleteQuestion(id string) error {
	err := svc.testRepo.Transaction(func(tx *gorm.DB) error {
		repo := svc.testRepo.WithTx(tx)
		question, err := repo.GetQuestion(id)
		if err != nil {
			return err
		}
		if err := repo.DeleteQuestion(id); err != nil {
			return err
		}
		return repo.RefreshQuestionsCount(question.TestID)
	})
	if err != nil {
		return dbError(svc.dbSvc, err, "Question not found")
	}
	return nil
}

// validateAnswerKey rejects keys that could never be graded for the question type.
// Manually checked text questions may omit the reference answer.
func validateAnswerKey(qType string, key json.RawMessage, pairs []dto.MatchingPair, textCheckType string) error {
	switch qType {
	case shared.QuestionTypeSingle:
		if _, ok := decodeIndex(key); !ok {
			return shared.NewBadRequestError(nil, "Single choice questions need a numeric correctAnswer")
		}
	case shared.QuestionTypeMultiple:
		if idx, ok := decodeIndexList(key); !ok || len(idx) == 0 {
			return shared.NewBadRequestError(nil, "Multiple choice questions need a list of correct indexes")
		}
	case shared.QuestionTypeMatching:
		if len(pairs) == 0 {
			return shared.NewBadRequestError(nil, "Matching questions need matchingPairs")
		}
	case shared.QuestionTypeText:
		if len(key) == 0 && textCheckType == shared.TextCheckManual {
			return nil
		}
		if _, ok := decodeText(key); !ok && len(key) > 0 {
			return shared.NewBadRequestError(nil, "Text questions need a string correctAnswer")
		}
	}
	return nil
}

// ==================== EVALUATION ====================

// CheckTest grades a submission and appends it to the learner's result history.
func (svc *TestService) CheckTest(actor shared.Actor, req dto.CheckTestRequest) (*dto.CheckTestResponse, error) {
	test, err := svc.loadTest(actor, req.TestID)
	if err != nil {
		return nil, err
	}

	questions, err := svc.testRepo.ListQuestions(test.ID)
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Questions not found")
	}

	passScore := test.EffectivePassScore()
	ev := Evaluate(questions, req.Answers, passScore, actor.IsAdmin())

	result := &model.TestResult{
		UserID:       actor.UserID,
		TestID:       test.ID,
		LessonID:     blankToNil(&req.LessonID),
		CourseID:     blankToNil(&req.CourseID),
		Answers:      mustJSON(req.Answers),
		Breakdown:    mustJSON(ev.Results),
		Score:        ev.Score,
		EarnedPoints: ev.EarnedPoints,
		TotalPoints:  ev.TotalPoints,
		Passed:       ev.Passed,
	}
	if result.CourseID == nil {
		result.CourseID = test.CourseID
	}
	if err := svc.testRepo.CreateResult(result); err != nil {
		return nil, dbError(svc.dbSvc, err, "Test not found")
	}

	svc.monitoring.TestSubmitted(ev.Passed)
	log.WithFields(log.Fields{
		"user_id": actor.UserID,
		"test_id": test.ID,
		"score":   ev.Score,
		"passed":  ev.Passed,
	}).Info("Test checked")

	return &dto.CheckTestResponse{
		ResultID:     result.ID,
		Score:        ev.Score,
		EarnedPoints: ev.EarnedPoints,
		TotalPoints:  ev.TotalPoints,
		Passed:       ev.Passed,
		PassScore:    passScore,
		Results:      ev.Results,
	}, nil
}

// ListResults returns result history. Students only ever see their own.
func (svc *TestService) ListResults(actor shared.Actor, userID, testID string) (*dto.TestResultListResponse, error) {
	if !actor.IsAdmin() {
		if userID != "" && userID != actor.UserID {
			return nil, shared.NewForbiddenError(nil, "Access denied")
		}
		userID = actor.UserID
	}

	results, err := svc.testRepo.ListResults(userID, testID)
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Results not found")
	}

	resp := &dto.TestResultListResponse{Results: make([]dto.TestResultResponse, 0, len(results))}
	for _, r := range results {
		resp.Results = append(resp.Results, dto.TestResultResponse{
			ID:           r.ID,
			UserID:       r.UserID,
			TestID:       r.TestID,
			LessonID:     r.LessonID,
			Score:        r.Score,
			EarnedPoints: r.EarnedPoints,
			TotalPoints:  r.TotalPoints,
			Passed:       r.Passed,
			CreatedAt:    r.CreatedAt,
		})
	}
	return resp, nil
}

// ==================== MAPPERS ====================

func mustJSON(v interface{}) datatypes.JSON {
	raw, err := shared.JSON.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(raw)
}

func pairsJSON(pairs []dto.MatchingPair) datatypes.JSON {
	if len(pairs) == 0 {
		return nil
	}
	out := make([]model.MatchingPair, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, model.MatchingPair{Left: p.Left, Right: p.Right})
	}
	return mustJSON(out)
}

func toTestResponse(t *model.Test) dto.TestResponse {
	return dto.TestResponse{
		ID:             t.ID,
		CourseID:       t.CourseID,
		Title:          t.Title,
		Description:    t.Description,
		PassScore:      t.EffectivePassScore(),
		TimeLimit:      t.TimeLimit,
		Attempts:       t.AttemptsAllowed,
		Status:         t.Status,
		QuestionsCount: t.QuestionsCount,
		CreatedAt:      t.CreatedAt,
	}
}

func toQuestionResponse(q *model.Question) dto.QuestionResponse {
	resp := dto.QuestionResponse{
		ID:            q.ID,
		TestID:        q.TestID,
		Type:          q.Type,
		Text:          q.Text,
		Options:       []string{},
		Points:        q.Points,
		Order:         q.Order,
		TextCheckType: q.TextCheckType,
	}
	if len(q.Options) > 0 {
		_ = shared.JSON.Unmarshal(q.Options, &resp.Options)
		if resp.Options == nil {
			resp.Options = []string{}
		}
	}
	if len(q.CorrectAnswer) > 0 {
		resp.CorrectAnswer = json.RawMessage(q.CorrectAnswer)
	}
	if len(q.MatchingPairs) > 0 {
		_ = shared.JSON.Unmarshal(q.MatchingPairs, &resp.MatchingPairs)
	}
	return resp
}
