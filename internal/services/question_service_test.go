package services

import (
	"context"
	"errors"
	"testing"

	"github.com/edupath/learning-service/internal/models"
	"github.com/edupath/learning-service/internal/validator"
)

func TestQuestionService_Create(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	v := validator.New()

	repo := newMemoryRepository()
	svc := NewQuestionService(nil, repo, logger, v)
	lesson := repo.seedLesson("Algebra", true)

	t.Run("creates a valid question", func(t *testing.T) {
		question, err := svc.Create(ctx, lesson.ID, &models.QuestionCreateRequest{
			Text:          "2 + 2 = ?",
			Options:       []string{"3", "4", "5"},
			CorrectOption: 1,
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if question.LessonID != lesson.ID {
			t.Errorf("lesson id = %q, want %q", question.LessonID, lesson.ID)
		}
	})

	invalid := []struct {
		name string
		req  *models.QuestionCreateRequest
	}{
		{"too few options", &models.QuestionCreateRequest{
			Text: "q", Options: []string{"only"}, CorrectOption: 0,
		}},
		{"duplicate options", &models.QuestionCreateRequest{
			Text: "q", Options: []string{"a", "a"}, CorrectOption: 0,
		}},
		{"blank option", &models.QuestionCreateRequest{
			Text: "q", Options: []string{"a", "  "}, CorrectOption: 0,
		}},
		{"correct option out of range", &models.QuestionCreateRequest{
			Text: "q", Options: []string{"a", "b"}, CorrectOption: 2,
		}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, lesson.ID, tt.req)
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Errorf("err = %v, want ValidationError", err)
			}
		})
	}

	t.Run("unknown lesson", func(t *testing.T) {
		_, err := svc.Create(ctx, "missing", &models.QuestionCreateRequest{
			Text: "q", Options: []string{"a", "b"}, CorrectOption: 0,
		})
		if !errors.Is(err, ErrLessonNotFound) {
			t.Errorf("err = %v, want ErrLessonNotFound", err)
		}
	})
}

func TestQuestionService_QuestionsForTest(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	v := validator.New()

	repo := newMemoryRepository()
	svc := NewQuestionService(nil, repo, logger, v)

	user := repo.seedUser(42, "Ada Learner")
	lesson := repo.seedLesson("Algebra", true)
	repo.seedQuestion(lesson.ID, "2 + 2 = ?", []string{"3", "4"}, 1)
	repo.seedQuestion(lesson.ID, "3 * 3 = ?", []string{"6", "9"}, 1)

	t.Run("requires an access grant", func(t *testing.T) {
		_, err := svc.QuestionsForTest(ctx, user.TelegramID, lesson.ID)
		if !errors.Is(err, ErrAccessDenied) {
			t.Errorf("err = %v, want ErrAccessDenied", err)
		}
	})

	t.Run("returns questions without correct options", func(t *testing.T) {
		repo.seedGrant(user.ID, lesson.ID)

		views, err := svc.QuestionsForTest(ctx, user.TelegramID, lesson.ID)
		if err != nil {
			t.Fatalf("QuestionsForTest failed: %v", err)
		}
		if len(views) != 2 {
			t.Fatalf("got %d questions, want 2", len(views))
		}
		for _, view := range views {
			if view.ID == "" || view.Text == "" || len(view.Options) != 2 {
				t.Errorf("incomplete question view: %+v", view)
			}
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.QuestionsForTest(ctx, 999, lesson.ID)
		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("err = %v, want ErrUserNotFound", err)
		}
	})
}

func TestQuestionService_Update(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	v := validator.New()

	repo := newMemoryRepository()
	svc := NewQuestionService(nil, repo, logger, v)
	lesson := repo.seedLesson("Algebra", true)
	question := repo.seedQuestion(lesson.ID, "2 + 2 = ?", []string{"3", "4"}, 1)

	t.Run("validates the merged question", func(t *testing.T) {
		// Moving the correct option beyond the stored option list must fail
		bad := 5
		_, err := svc.Update(ctx, question.ID, &models.QuestionUpdateRequest{CorrectOption: &bad})
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("err = %v, want ValidationError", err)
		}
	})

	t.Run("applies a partial update", func(t *testing.T) {
		text := "What is 2 + 2?"
		updated, err := svc.Update(ctx, question.ID, &models.QuestionUpdateRequest{Text: &text})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated.Text != text {
			t.Errorf("text = %q, want %q", updated.Text, text)
		}
		if updated.CorrectOption != 1 {
			t.Errorf("correct option changed to %d on a text-only update", updated.CorrectOption)
		}
	})
}
