package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/lac-hong-legacy/lms_api/dto"
	"github.com/lac-hong-legacy/lms_api/model"
	"github.com/lac-hong-legacy/lms_api/shared"
)

func TestCompleteLesson_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, shared.AccessOpen)
	lessons := f.lessons(t, course.ID, 3)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		resp, err := f.progress.CompleteLesson(ctx, studentActor, course.ID, lessons[0].ID)
		if err != nil {
			t.Fatalf("complete lesson: %v", err)
		}
		if resp.Progress.CompletedLessons != 1 {
			t.Errorf("call %d: expected 1 completed lesson, got %d", i+1, resp.Progress.CompletedLessons)
		}
		if len(resp.Progress.CompletedLessonIDs) != 1 {
			t.Errorf("call %d: expected 1 completed id, got %v", i+1, resp.Progress.CompletedLessonIDs)
		}
		if resp.Progress.TotalLessons != 3 {
			t.Errorf("expected 3 total lessons, got %d", resp.Progress.TotalLessons)
		}
		if resp.Progress.Completed {
			t.Error("course must not be completed after one of three lessons")
		}
	}
}

func TestCompleteLesson_CompletionGrantsRewardsOnce(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, shared.AccessOpen)
	lessons := f.lessons(t, course.ID, 3)
	reward := f.reward(t, course.ID)
	ctx := context.Background()

	var last *dto.ProgressEnvelope
	for _, l := range lessons {
		resp, err := f.progress.CompleteLesson(ctx, studentActor, course.ID, l.ID)
		if err != nil {
			t.Fatalf("complete lesson: %v", err)
		}
		last = resp
	}

	if !last.Progress.Completed {
		t.Fatal("expected course to be completed")
	}
	if last.Progress.CompletedAt == nil {
		t.Error("expected completedAt to be set")
	}
	if len(last.Progress.EarnedRewards) != 1 || last.Progress.EarnedRewards[0] != reward.ID {
		t.Fatalf("expected earned rewards [%s], got %v", reward.ID, last.Progress.EarnedRewards)
	}

	// Completing again must not grant the reward a second time.
	again, err := f.progress.CompleteLesson(ctx, studentActor, course.ID, lessons[1].ID)
	if err != nil {
		t.Fatalf("complete lesson again: %v", err)
	}
	if len(again.Progress.EarnedRewards) != 1 {
		t.Errorf("expected reward to stay unique, got %v", again.Progress.EarnedRewards)
	}

	logs, err := f.audit.List("", "reward.unlock", 10)
	if err != nil {
		t.Fatalf("list audit logs: %v", err)
	}
	if len(logs) != 1 {
		t.Errorf("expected one reward.unlock entry, got %d", len(logs))
	}

	rewardView, err := f.rewards.GetReward(reward.ID)
	if err != nil {
		t.Fatalf("get reward: %v", err)
	}
	if rewardView.EarnedCount != 1 {
		t.Errorf("expected earnedCount 1, got %d", rewardView.EarnedCount)
	}
}

func TestCompleteLesson_CompletionIsSticky(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, shared.AccessOpen)
	lesson := f.lesson(t, course.ID, nil)
	ctx := context.Background()

	if _, err := f.progress.CompleteLesson(ctx, studentActor, course.ID, lesson.ID); err != nil {
		t.Fatalf("complete lesson: %v", err)
	}

	added := f.lesson(t, course.ID, nil)
	resp, err := f.progress.TouchLesson(ctx, studentActor, course.ID, added.ID)
	if err != nil {
		t.Fatalf("touch lesson: %v", err)
	}
	if !resp.Progress.Completed {
		t.Error("completed course must stay completed when lessons are added")
	}
	if resp.Progress.TotalLessons != 2 {
		t.Errorf("expected total lessons to follow the course, got %d", resp.Progress.TotalLessons)
	}
	if resp.Progress.LastAccessedLesson == nil || *resp.Progress.LastAccessedLesson != added.ID {
		t.Errorf("expected last accessed lesson %s, got %v", added.ID, resp.Progress.LastAccessedLesson)
	}
}

func TestCompleteLesson_ConcurrentWritesAreNotLost(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, shared.AccessOpen)
	lessons := f.lessons(t, course.ID, 8)
	reward := f.reward(t, course.ID)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, len(lessons))
	for _, l := range lessons {
		wg.Add(1)
		go func(lessonID string) {
			defer wg.Done()
			if _, err := f.progress.CompleteLesson(ctx, studentActor, course.ID, lessonID); err != nil {
				errs <- err
			}
		}(l.ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent complete: %v", err)
	}

	resp, err := f.progress.GetProgress(studentActor, dto.ProgressQuery{CourseID: course.ID})
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if len(resp.Progress) != 1 {
		t.Fatalf("expected a single progress row, got %d", len(resp.Progress))
	}
	p := resp.Progress[0]
	if p.CompletedLessons != len(lessons) || len(p.CompletedLessonIDs) != len(lessons) {
		t.Errorf("expected %d completed lessons, got %d (%v)", len(lessons), p.CompletedLessons, p.CompletedLessonIDs)
	}
	if !p.Completed {
		t.Error("expected course to be completed")
	}
	if len(p.EarnedRewards) != 1 || p.EarnedRewards[0] != reward.ID {
		t.Errorf("expected reward granted exactly once, got %v", p.EarnedRewards)
	}
}

func TestCompleteLesson_AccessErrors(t *testing.T) {
	f := newFixture(t)
	open := f.course(t, shared.AccessOpen)
	closed := f.course(t, shared.AccessClosed)
	other := f.course(t, shared.AccessOpen)
	openLesson := f.lesson(t, open.ID, nil)
	closedLesson := f.lesson(t, closed.ID, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		courseID string
		lessonID string
		status   int
	}{
		{"lesson of another course", other.ID, openLesson.ID, http.StatusNotFound},
		{"unknown course", "missing", openLesson.ID, http.StatusNotFound},
		{"closed course without assignment", closed.ID, closedLesson.ID, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.progress.CompleteLesson(ctx, studentActor, tt.courseID, tt.lessonID)
			wantStatus(t, err, tt.status)
		})
	}
}

func TestGetProgress_StudentCannotReadOthers(t *testing.T) {
	f := newFixture(t)

	_, err := f.progress.GetProgress(studentActor, dto.ProgressQuery{UserID: "someone-else"})
	wantStatus(t, err, http.StatusForbidden)

	if _, err := f.progress.GetProgress(adminActor, dto.ProgressQuery{UserID: "someone-else"}); err != nil {
		t.Fatalf("admin read: %v", err)
	}
}

func TestSubmitTest(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, shared.AccessOpen)
	lesson, test, question := f.testLesson(t, course.ID, 3)
	ctx := context.Background()

	req := dto.SubmitTestRequest{
		CourseID: course.ID,
		TestID:   test.ID,
		LessonID: lesson.ID,
		Answers:  answerSet(map[string]string{question.ID: `1`}),
	}

	t.Run("without progress row", func(t *testing.T) {
		resp, err := f.progress.SubmitTest(ctx, studentActor, req)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if resp.Progress != nil {
			t.Error("submit must not create a progress row")
		}
		if !resp.Result.Passed || resp.Result.Score != 100 {
			t.Errorf("expected a passing 100, got %+v", resp.Result)
		}
		exists, err := f.progress.progressRepo.HasProgress(studentActor.UserID, course.ID)
		if err != nil {
			t.Fatal(err)
		}
		if exists {
			t.Error("progress row was created by a submission")
		}
	})

	t.Run("with progress row", func(t *testing.T) {
		if _, err := f.progress.StartCourse(ctx, studentActor, course.ID); err != nil {
			t.Fatalf("start course: %v", err)
		}
		resp, err := f.progress.SubmitTest(ctx, studentActor, req)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if resp.Progress == nil || resp.Progress.TestScore == nil || *resp.Progress.TestScore != 100 {
			t.Fatalf("expected test score 100 on progress, got %+v", resp.Progress)
		}
		if resp.Progress.CompletedLessons != 0 {
			t.Error("submitting a test must not complete its lesson")
		}
	})

	results, err := f.tests.ListResults(studentActor, "", test.ID)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(results.Results) != 2 {
		t.Errorf("expected 2 stored results, got %d", len(results.Results))
	}
}

func TestResetProgress_ResetTests(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, shared.AccessOpen)
	textLesson := f.lesson(t, course.ID, nil)
	testLesson, _, _ := f.testLesson(t, course.ID, 3)
	f.reward(t, course.ID)
	ctx := context.Background()

	for _, id := range []string{textLesson.ID, testLesson.ID} {
		if _, err := f.progress.CompleteLesson(ctx, studentActor, course.ID, id); err != nil {
			t.Fatalf("complete lesson: %v", err)
		}
	}
	if _, err := f.attempts.StartAttempt(ctx, studentActor, testLesson.ID); err != nil {
		t.Fatalf("start attempt: %v", err)
	}

	if _, err := f.progress.ResetProgress(ctx, adminActor, dto.ResetProgressRequest{
		CourseID:  course.ID,
		ResetType: shared.ResetTests,
	}); err != nil {
		t.Fatalf("reset: %v", err)
	}

	p, err := f.progress.progressRepo.Get(studentActor.UserID, course.ID)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if p.CompletedLessonIDs.Len() != 1 || !p.CompletedLessonIDs.Contains(textLesson.ID) {
		t.Errorf("expected only the text lesson to stay completed, got %v", p.CompletedLessonIDs)
	}
	if p.Completed || p.CompletedAt != nil {
		t.Error("expected course to be reopened")
	}
	if p.EarnedRewards.Len() != 0 {
		t.Errorf("expected earned rewards to be cleared, got %v", p.EarnedRewards)
	}
	if _, err := f.attemptRepo.Get(studentActor.UserID, testLesson.ID); !isNotFound(err) {
		t.Errorf("expected attempts to be deleted, got %v", err)
	}
}

func TestResetProgress_ResetTestsWithoutTestLessons(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, shared.AccessOpen)
	lessons := f.lessons(t, course.ID, 2)
	reward := f.reward(t, course.ID)
	ctx := context.Background()

	for _, l := range lessons {
		if _, err := f.progress.CompleteLesson(ctx, studentActor, course.ID, l.ID); err != nil {
			t.Fatalf("complete lesson: %v", err)
		}
	}

	if _, err := f.progress.ResetProgress(ctx, adminActor, dto.ResetProgressRequest{
		CourseID:  course.ID,
		ResetType: shared.ResetTests,
	}); err != nil {
		t.Fatalf("reset: %v", err)
	}

	// nothing was stripped, so the row still satisfies completed == every lesson done
	p, err := f.progress.progressRepo.Get(studentActor.UserID, course.ID)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if !p.Completed || p.CompletedLessonIDs.Len() != 2 {
		t.Errorf("expected the course to stay completed, got completed=%v set=%v", p.Completed, p.CompletedLessonIDs)
	}
	if !p.EarnedRewards.Contains(reward.ID) || p.EarnedRewards.Len() != 1 {
		t.Errorf("expected the reward to be kept once, got %v", p.EarnedRewards)
	}

	logs, err := f.audit.List("", "reward.unlock", 10)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 1 {
		t.Errorf("expected no second unlock, got %d unlock entries", len(logs))
	}
}

func TestStartCourse_RepeatReturnsCurrentState(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, shared.AccessOpen)
	lessons := f.lessons(t, course.ID, 2)
	f.reward(t, course.ID)
	ctx := context.Background()

	first, err := f.progress.StartCourse(ctx, studentActor, course.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if first.Progress.TotalLessons != 2 || first.Progress.CompletedLessons != 0 {
		t.Fatalf("unexpected new row %+v", first.Progress)
	}
	if _, err := f.progress.CompleteLesson(ctx, studentActor, course.ID, lessons[0].ID); err != nil {
		t.Fatalf("complete lesson: %v", err)
	}
	before, err := f.progress.progressRepo.Get(studentActor.UserID, course.ID)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}

	// with the remaining lesson gone a recount would complete the course
	if err := f.catalog.DeleteLesson(lessons[1].ID); err != nil {
		t.Fatalf("delete lesson: %v", err)
	}

	again, err := f.progress.StartCourse(ctx, studentActor, course.ID)
	if err != nil {
		t.Fatalf("start again: %v", err)
	}
	if again.Progress.Completed || again.Progress.TotalLessons != 2 || len(again.Progress.EarnedRewards) != 0 {
		t.Errorf("expected the stored row unchanged, got %+v", again.Progress)
	}

	after, err := f.progress.progressRepo.Get(studentActor.UserID, course.ID)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if after.Version != before.Version {
		t.Errorf("expected version %d to stay, got %d", before.Version, after.Version)
	}
}

func TestResetProgress_ResetAllAndKeep(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, shared.AccessOpen)
	lesson := f.lesson(t, course.ID, nil)
	ctx := context.Background()

	if _, err := f.progress.CompleteLesson(ctx, studentActor, course.ID, lesson.ID); err != nil {
		t.Fatalf("complete lesson: %v", err)
	}

	if _, err := f.progress.ResetProgress(ctx, adminActor, dto.ResetProgressRequest{CourseID: course.ID, ResetType: shared.ResetKeep}); err != nil {
		t.Fatalf("keep: %v", err)
	}
	if ok, _ := f.progress.progressRepo.HasProgress(studentActor.UserID, course.ID); !ok {
		t.Fatal("keep must not delete progress")
	}

	if _, err := f.progress.ResetProgress(ctx, adminActor, dto.ResetProgressRequest{CourseID: course.ID}); err != nil {
		t.Fatalf("reset all: %v", err)
	}
	if ok, _ := f.progress.progressRepo.HasProgress(studentActor.UserID, course.ID); ok {
		t.Error("reset_all must delete progress")
	}
}

func TestResetProgress_Errors(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, shared.AccessOpen)
	ctx := context.Background()

	_, err := f.progress.ResetProgress(ctx, studentActor, dto.ResetProgressRequest{CourseID: course.ID})
	wantStatus(t, err, http.StatusForbidden)

	_, err = f.progress.ResetProgress(ctx, adminActor, dto.ResetProgressRequest{CourseID: "missing"})
	wantStatus(t, err, http.StatusNotFound)
}

func TestComputeLock(t *testing.T) {
	lessons := []model.Lesson{
		{ID: "l1", Order: 1},
		{ID: "l2", Order: 2, RequiresPrevious: true},
		{ID: "t1", Order: 3, Type: shared.LessonTypeTest},
		{ID: "final", Order: 4, Type: shared.LessonTypeTest, IsFinalTest: true, FinalTestRequiresAllLessons: true},
		{ID: "final-tests", Order: 5, Type: shared.LessonTypeTest, IsFinalTest: true, FinalTestRequiresAllTests: true},
	}
	byID := func(id string) *model.Lesson {
		for i := range lessons {
			if lessons[i].ID == id {
				return &lessons[i]
			}
		}
		panic(fmt.Sprintf("no lesson %s", id))
	}

	tests := []struct {
		name      string
		lesson    string
		completed model.IDSet
		locked    bool
		reason    string
		done      int
		total     int
	}{
		{"first lesson is open", "l1", nil, false, LockReasonNone, 0, 0},
		{"previous not done", "l2", nil, true, LockReasonPrevious, 0, 1},
		{"previous done", "l2", model.NewIDSet("l1"), false, LockReasonNone, 0, 0},
		{"final needs all lessons", "final", model.NewIDSet("l1", "l2"), true, LockReasonAllLessons, 2, 3},
		{"final with all lessons", "final", model.NewIDSet("l1", "l2", "t1"), false, LockReasonNone, 3, 3},
		{"final needs all tests", "final-tests", model.NewIDSet("l1"), true, LockReasonAllTests, 0, 1},
		{"final with all tests", "final-tests", model.NewIDSet("t1"), false, LockReasonNone, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeLock(byID(tt.lesson), lessons, tt.completed)
			if got.IsLocked != tt.locked || got.Reason != tt.reason {
				t.Errorf("computeLock() = locked %v reason %q, want %v %q", got.IsLocked, got.Reason, tt.locked, tt.reason)
			}
			if got.Completed != tt.done || got.Total != tt.total {
				t.Errorf("computeLock() counts = %d/%d, want %d/%d", got.Completed, got.Total, tt.done, tt.total)
			}
		})
	}
}
