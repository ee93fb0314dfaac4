package services

import (
	"context"
	"errors"
	"testing"

	"github.com/edupath/learning-service/internal/events"
	"github.com/edupath/learning-service/internal/models"
	"github.com/edupath/learning-service/internal/validator"
)

func TestAccessService_Grant(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	v := validator.New()

	setup := func() (*memoryRepository, *events.MockEventPublisher, AccessService, *models.User, *models.Lesson) {
		repo := newMemoryRepository()
		publisher := events.NewMockEventPublisher(logger)
		svc := NewAccessService(nil, repo, publisher, logger, v)
		user := repo.seedUser(42, "Ada Learner")
		lesson := repo.seedLesson("Algebra", true)
		return repo, publisher, svc, user, lesson
	}

	t.Run("grants access and publishes an event", func(t *testing.T) {
		repo, publisher, svc, user, lesson := setup()

		grant, err := svc.Grant(ctx, &models.GrantAccessRequest{
			UserID:   user.ID,
			LessonID: lesson.ID,
			Amount:   5000,
			Notes:    "manual payment",
		})
		if err != nil {
			t.Fatalf("Grant failed: %v", err)
		}
		if grant.ID == "" {
			t.Error("grant has no id")
		}

		ok, _ := repo.Access().Exists(ctx, nil, user.ID, lesson.ID)
		if !ok {
			t.Error("grant not stored")
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventAccessGranted {
			t.Errorf("expected one %s event, got %v", events.EventAccessGranted, published)
		}
	})

	t.Run("granting twice is a conflict", func(t *testing.T) {
		_, _, svc, user, lesson := setup()

		req := &models.GrantAccessRequest{UserID: user.ID, LessonID: lesson.ID}
		if _, err := svc.Grant(ctx, req); err != nil {
			t.Fatalf("first Grant failed: %v", err)
		}
		if _, err := svc.Grant(ctx, req); !errors.Is(err, ErrDuplicateGrant) {
			t.Errorf("err = %v, want ErrDuplicateGrant", err)
		}
	})

	t.Run("unknown user and lesson", func(t *testing.T) {
		repo, _, svc, user, lesson := setup()
		ghost := repo.seedLesson("deleted", false)
		delete(repo.lessons, ghost.ID)

		if _, err := svc.Grant(ctx, &models.GrantAccessRequest{
			UserID: lesson.ID, LessonID: lesson.ID,
		}); !errors.Is(err, ErrUserNotFound) {
			t.Errorf("err = %v, want ErrUserNotFound", err)
		}

		if _, err := svc.Grant(ctx, &models.GrantAccessRequest{
			UserID: user.ID, LessonID: ghost.ID,
		}); !errors.Is(err, ErrLessonNotFound) {
			t.Errorf("err = %v, want ErrLessonNotFound", err)
		}
	})

	t.Run("rejects malformed ids", func(t *testing.T) {
		_, _, svc, _, _ := setup()

		_, err := svc.Grant(ctx, &models.GrantAccessRequest{UserID: "nope", LessonID: "nope"})
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("err = %v, want ValidationError", err)
		}
	})
}

func TestAccessService_Check(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	repo := newMemoryRepository()
	svc := NewAccessService(nil, repo, events.NewMockEventPublisher(logger), logger, validator.New())

	user := repo.seedUser(42, "Ada Learner")
	lesson := repo.seedLesson("Algebra", true)

	if ok, _ := svc.Check(ctx, user.ID, lesson.ID); ok {
		t.Error("access reported before any grant")
	}

	repo.seedGrant(user.ID, lesson.ID)
	if ok, _ := svc.Check(ctx, user.ID, lesson.ID); !ok {
		t.Error("access not reported after grant")
	}
}
