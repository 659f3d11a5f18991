package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/lac-hong-legacy/lms_api/dto"
	"github.com/lac-hong-legacy/lms_api/shared"
)

func TestStartAttempt_EnforcesLimit(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, shared.AccessOpen)
	lesson, _, _ := f.testLesson(t, course.ID, 3)
	ctx := context.Background()

	status, err := f.attempts.GetStatus(studentActor, lesson.ID)
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if status.AttemptsUsed != 0 || status.MaxAttempts == nil || *status.MaxAttempts != 3 {
		t.Fatalf("expected 0 of 3 before the first start, got %+v", status)
	}

	for i := 1; i <= 3; i++ {
		status, err := f.attempts.StartAttempt(ctx, studentActor, lesson.ID)
		if err != nil {
			t.Fatalf("start %d: %v", i, err)
		}
		if status.AttemptsUsed != i {
			t.Errorf("start %d: expected %d used, got %d", i, i, status.AttemptsUsed)
		}
		if status.RemainingAttempts == nil || *status.RemainingAttempts != 3-i {
			t.Errorf("start %d: expected %d remaining, got %v", i, 3-i, status.RemainingAttempts)
		}
	}

	_, err = f.attempts.StartAttempt(ctx, studentActor, lesson.ID)
	wantStatus(t, err, http.StatusForbidden)
	if !errors.Is(err, shared.ErrAttemptsExhausted) {
		t.Fatalf("expected ErrAttemptsExhausted, got %v", err)
	}
	appErr, _ := shared.GetAppError(err)
	data, ok := appErr.Data.(shared.AttemptsExhaustedData)
	if !ok || data.AttemptsUsed != 3 || data.MaxAttempts != 3 {
		t.Errorf("expected attemptsUsed=3 maxAttempts=3, got %+v", appErr.Data)
	}
}

func TestStartAttempt_LimitSnapshotSurvivesTestEdit(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, shared.AccessOpen)
	lesson, test, _ := f.testLesson(t, course.ID, 1)
	ctx := context.Background()

	if _, err := f.attempts.StartAttempt(ctx, studentActor, lesson.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.testRepo.UpdateTest(test.ID, map[string]interface{}{"attempts_allowed": 5}); err != nil {
		t.Fatalf("update test: %v", err)
	}

	_, err := f.attempts.StartAttempt(ctx, studentActor, lesson.ID)
	wantStatus(t, err, http.StatusForbidden)
}

func TestStartAttempt_Unlimited(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, shared.AccessOpen)
	lesson, _, _ := f.testLesson(t, course.ID, 0)
	ctx := context.Background()

	var status *dto.AttemptStatusResponse
	for i := 0; i < 5; i++ {
		var err error
		if status, err = f.attempts.StartAttempt(ctx, studentActor, lesson.ID); err != nil {
			t.Fatalf("start %d: %v", i+1, err)
		}
	}
	if !status.HasUnlimitedAttempts {
		t.Error("expected hasUnlimitedAttempts")
	}
	if status.MaxAttempts != nil || status.RemainingAttempts != nil {
		t.Errorf("expected null max and remaining, got %v / %v", status.MaxAttempts, status.RemainingAttempts)
	}
	if status.AttemptsUsed != 5 {
		t.Errorf("expected 5 used, got %d", status.AttemptsUsed)
	}

	f.attempts.legacySentinel = true
	legacy, err := f.attempts.GetStatus(studentActor, lesson.ID)
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if legacy.RemainingAttempts == nil || *legacy.RemainingAttempts != shared.LegacyUnlimitedAttempts {
		t.Errorf("expected legacy remaining %d, got %v", shared.LegacyUnlimitedAttempts, legacy.RemainingAttempts)
	}
}

func TestStartAttempt_ConcurrentStartsNeverExceedLimit(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, shared.AccessOpen)
	lesson, _, _ := f.testLesson(t, course.ID, 3)
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		started   int
		exhausted int
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.attempts.StartAttempt(ctx, studentActor, lesson.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				started++
			case errors.Is(err, shared.ErrAttemptsExhausted):
				exhausted++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if started != 3 || exhausted != 3 {
		t.Errorf("expected 3 started and 3 exhausted, got %d and %d", started, exhausted)
	}
}

func TestStartAttempt_LessonWithoutTest(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, shared.AccessOpen)
	lesson := f.lesson(t, course.ID, nil)

	_, err := f.attempts.StartAttempt(context.Background(), studentActor, lesson.ID)
	wantStatus(t, err, http.StatusBadRequest)
}

func TestRecordBestScore_KeepsMaximum(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, shared.AccessOpen)
	lesson, test, _ := f.testLesson(t, course.ID, 3)
	ctx := context.Background()

	tests := []struct {
		score int
		want  int
	}{
		{60, 60},
		{90, 90},
		{40, 90},
	}
	for _, tt := range tests {
		resp, err := f.attempts.RecordBestScore(ctx, studentActor, dto.RecordAttemptRequest{
			LessonID: lesson.ID,
			CourseID: course.ID,
			TestID:   test.ID,
			Score:    tt.score,
		})
		if err != nil {
			t.Fatalf("record %d: %v", tt.score, err)
		}
		if !resp.Success || resp.BestScore != tt.want {
			t.Errorf("record %d: expected best %d, got %+v", tt.score, tt.want, resp)
		}
	}
}
