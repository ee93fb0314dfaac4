package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/edupath/learning-service/internal/events"
	"github.com/edupath/learning-service/internal/models"
	"github.com/edupath/learning-service/internal/validator"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestGradeSubmission(t *testing.T) {
	questions := []*models.Question{
		{ID: "q1", CorrectOption: 0},
		{ID: "q2", CorrectOption: 1},
		{ID: "q3", CorrectOption: 2},
	}

	tests := []struct {
		name        string
		answers     []models.TestAnswerRequest
		wantScore   int
		wantCorrect int
	}{
		{
			name: "all correct",
			answers: []models.TestAnswerRequest{
				{QuestionID: "q1", SelectedOption: 0},
				{QuestionID: "q2", SelectedOption: 1},
				{QuestionID: "q3", SelectedOption: 2},
			},
			wantScore:   100,
			wantCorrect: 3,
		},
		{
			name: "two of three correct rounds to 67",
			answers: []models.TestAnswerRequest{
				{QuestionID: "q1", SelectedOption: 0},
				{QuestionID: "q2", SelectedOption: 1},
				{QuestionID: "q3", SelectedOption: 0},
			},
			wantScore:   67,
			wantCorrect: 2,
		},
		{
			name: "one of three correct rounds to 33",
			answers: []models.TestAnswerRequest{
				{QuestionID: "q1", SelectedOption: 0},
			},
			wantScore:   33,
			wantCorrect: 1,
		},
		{
			name:        "no answers",
			answers:     nil,
			wantScore:   0,
			wantCorrect: 0,
		},
		{
			name: "unknown question ids are ignored",
			answers: []models.TestAnswerRequest{
				{QuestionID: "q1", SelectedOption: 0},
				{QuestionID: "missing", SelectedOption: 0},
				{QuestionID: "other", SelectedOption: 1},
			},
			wantScore:   33,
			wantCorrect: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, correct, records := gradeSubmission(questions, tt.answers)
			if score != tt.wantScore {
				t.Errorf("score = %d, want %d", score, tt.wantScore)
			}
			if correct != tt.wantCorrect {
				t.Errorf("correct = %d, want %d", correct, tt.wantCorrect)
			}
			if len(records) != len(questions) {
				t.Errorf("records = %d, want one per question (%d)", len(records), len(questions))
			}
		})
	}
}

// Half percentages round up: 1 of 8 correct is 12.5, stored as 13.
func TestGradeSubmission_HalfRoundsUp(t *testing.T) {
	questions := make([]*models.Question, 8)
	for i := range questions {
		questions[i] = &models.Question{ID: string(rune('a' + i)), CorrectOption: 0}
	}

	score, _, _ := gradeSubmission(questions, []models.TestAnswerRequest{
		{QuestionID: "a", SelectedOption: 0},
	})
	if score != 13 {
		t.Errorf("score = %d, want 13", score)
	}
}

func TestTestingService_Submit(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	v := validator.New()

	setup := func() (*memoryRepository, *events.MockEventPublisher, TestingService, *models.User, *models.Lesson) {
		repo := newMemoryRepository()
		publisher := events.NewMockEventPublisher(logger)
		svc := NewTestingService(nil, repo, publisher, logger, v)

		user := repo.seedUser(100, "Test Learner")
		lesson := repo.seedLesson("Algebra", true)
		repo.seedQuestion(lesson.ID, "q1", []string{"a", "b"}, 0)
		repo.seedQuestion(lesson.ID, "q2", []string{"a", "b"}, 1)
		repo.seedQuestion(lesson.ID, "q3", []string{"a", "b"}, 0)
		repo.seedGrant(user.ID, lesson.ID)

		return repo, publisher, svc, user, lesson
	}

	t.Run("grades and stores a passing result", func(t *testing.T) {
		repo, publisher, svc, user, lesson := setup()

		questions, _ := repo.Question().GetByLesson(ctx, nil, lesson.ID)
		resp, err := svc.Submit(ctx, user.TelegramID, lesson.ID, &models.TestSubmissionRequest{
			Answers: []models.TestAnswerRequest{
				{QuestionID: questions[0].ID, SelectedOption: 0},
				{QuestionID: questions[1].ID, SelectedOption: 1},
				{QuestionID: questions[2].ID, SelectedOption: 0},
			},
		})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if resp.Score != 100 || !resp.Passed {
			t.Errorf("got score=%d passed=%t, want 100/true", resp.Score, resp.Passed)
		}

		stored, err := repo.Result().GetByUserAndLesson(ctx, nil, user.ID, lesson.ID)
		if err != nil {
			t.Fatalf("result not stored: %v", err)
		}
		if len(stored.Answers) != 3 {
			t.Errorf("stored %d answer records, want 3", len(stored.Answers))
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventTestSubmitted {
			t.Errorf("expected one %s event, got %v", events.EventTestSubmitted, published)
		}
	})

	t.Run("two of three correct fails below passing score", func(t *testing.T) {
		repo, _, svc, user, lesson := setup()

		questions, _ := repo.Question().GetByLesson(ctx, nil, lesson.ID)
		resp, err := svc.Submit(ctx, user.TelegramID, lesson.ID, &models.TestSubmissionRequest{
			Answers: []models.TestAnswerRequest{
				{QuestionID: questions[0].ID, SelectedOption: 0},
				{QuestionID: questions[1].ID, SelectedOption: 1},
				{QuestionID: questions[2].ID, SelectedOption: 1},
			},
		})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if resp.Score != 67 || resp.Passed {
			t.Errorf("got score=%d passed=%t, want 67/false", resp.Score, resp.Passed)
		}
	})

	t.Run("resubmission replaces the stored result", func(t *testing.T) {
		repo, _, svc, user, lesson := setup()
		questions, _ := repo.Question().GetByLesson(ctx, nil, lesson.ID)

		if _, err := svc.Submit(ctx, user.TelegramID, lesson.ID, &models.TestSubmissionRequest{
			Answers: []models.TestAnswerRequest{
				{QuestionID: questions[0].ID, SelectedOption: 1},
			},
		}); err != nil {
			t.Fatalf("first Submit failed: %v", err)
		}

		resp, err := svc.Submit(ctx, user.TelegramID, lesson.ID, &models.TestSubmissionRequest{
			Answers: []models.TestAnswerRequest{
				{QuestionID: questions[0].ID, SelectedOption: 0},
				{QuestionID: questions[1].ID, SelectedOption: 1},
				{QuestionID: questions[2].ID, SelectedOption: 0},
			},
		})
		if err != nil {
			t.Fatalf("second Submit failed: %v", err)
		}
		if resp.Score != 100 {
			t.Errorf("score = %d, want 100", resp.Score)
		}

		if len(repo.results) != 1 {
			t.Errorf("stored %d results, want exactly 1 per (user, lesson)", len(repo.results))
		}
		stored, _ := repo.Result().GetByUserAndLesson(ctx, nil, user.ID, lesson.ID)
		if stored.Score != 100 {
			t.Errorf("stored score = %d, want the latest submission to win", stored.Score)
		}
	})

	t.Run("rejects users without a grant", func(t *testing.T) {
		repo, _, svc, _, lesson := setup()
		outsider := repo.seedUser(200, "No Access")

		_, err := svc.Submit(ctx, outsider.TelegramID, lesson.ID, &models.TestSubmissionRequest{
			Answers: []models.TestAnswerRequest{{QuestionID: "x", SelectedOption: 0}},
		})
		if !errors.Is(err, ErrAccessDenied) {
			t.Errorf("err = %v, want ErrAccessDenied", err)
		}
	})

	t.Run("rejects unknown users and lessons", func(t *testing.T) {
		_, _, svc, user, lesson := setup()

		if _, err := svc.Submit(ctx, 999, lesson.ID, &models.TestSubmissionRequest{
			Answers: []models.TestAnswerRequest{{QuestionID: "x", SelectedOption: 0}},
		}); !errors.Is(err, ErrUserNotFound) {
			t.Errorf("err = %v, want ErrUserNotFound", err)
		}

		if _, err := svc.Submit(ctx, user.TelegramID, "missing", &models.TestSubmissionRequest{
			Answers: []models.TestAnswerRequest{{QuestionID: "x", SelectedOption: 0}},
		}); !errors.Is(err, ErrLessonNotFound) {
			t.Errorf("err = %v, want ErrLessonNotFound", err)
		}
	})

	t.Run("a lesson without questions scores zero", func(t *testing.T) {
		repo, _, svc, user, _ := setup()
		empty := repo.seedLesson("Empty", true)
		repo.seedGrant(user.ID, empty.ID)

		resp, err := svc.Submit(ctx, user.TelegramID, empty.ID, &models.TestSubmissionRequest{
			Answers: []models.TestAnswerRequest{{QuestionID: "x", SelectedOption: 0}},
		})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if resp.Score != 0 || resp.Passed || resp.TotalQuestions != 0 {
			t.Errorf("got score=%d passed=%t total=%d, want 0/false/0", resp.Score, resp.Passed, resp.TotalQuestions)
		}

		stored, err := repo.Result().GetByUserAndLesson(ctx, nil, user.ID, empty.ID)
		if err != nil {
			t.Fatalf("zero result not stored: %v", err)
		}
		if stored.Score != 0 || stored.Passed {
			t.Errorf("stored score=%d passed=%t, want 0/false", stored.Score, stored.Passed)
		}
	})
}
