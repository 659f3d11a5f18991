package services

import (
	"testing"

	"github.com/lac-hong-legacy/lms_api/model"
	"github.com/lac-hong-legacy/lms_api/shared"
)

func TestDeleteCourse_KeepsTestsOfOtherCourses(t *testing.T) {
	f := newFixture(t)
	owner := f.course(t, shared.AccessOpen)
	borrower := f.course(t, shared.AccessOpen)

	borrowed, _ := f.test(t, owner.ID, 3)
	f.lesson(t, borrower.ID, func(l *model.Lesson) {
		l.Type = shared.LessonTypeTest
		l.TestID = &borrowed.ID
	})
	ownLesson, own, _ := f.testLesson(t, borrower.ID, 3)

	if err := f.catalog.DeleteCourse(borrower.ID); err != nil {
		t.Fatalf("delete course: %v", err)
	}

	if _, err := f.testRepo.GetTest(borrowed.ID); err != nil {
		t.Fatalf("expected the other course's test to survive, got %v", err)
	}
	questions, err := f.testRepo.ListQuestions(borrowed.ID)
	if err != nil || len(questions) != 1 {
		t.Errorf("expected its question to survive, got %d (%v)", len(questions), err)
	}

	if _, err := f.testRepo.GetTest(own.ID); !isNotFound(err) {
		t.Errorf("expected the course's own test to be deleted, got %v", err)
	}
	if _, err := f.courseRepo.GetLesson(ownLesson.ID); !isNotFound(err) {
		t.Errorf("expected lessons to be deleted, got %v", err)
	}
}
