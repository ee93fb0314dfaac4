package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/edupath/learning-service/internal/events"
	"github.com/edupath/learning-service/internal/models"
	"github.com/edupath/learning-service/internal/repositories"
	"github.com/edupath/learning-service/internal/validator"
)

type accessService struct {
	db        *gorm.DB
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewAccessService(db *gorm.DB, repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, v *validator.Validator) AccessService {
	return &accessService{
		db:        db,
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: v,
	}
}

// Grant unlocks a lesson for a user. Grants are permanent: granting twice is
// rejected rather than updated.
func (s *accessService) Grant(ctx context.Context, req *models.GrantAccessRequest) (*models.AccessGrant, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError(errs)
	}

	if _, err := s.repo.User().GetByID(ctx, nil, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if _, err := s.repo.Lesson().GetByID(ctx, nil, req.LessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	exists, err := s.repo.Access().Exists(ctx, nil, req.UserID, req.LessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing grant: %w", err)
	}
	if exists {
		return nil, ErrDuplicateGrant
	}

	grant := &models.AccessGrant{
		UserID:   req.UserID,
		LessonID: req.LessonID,
		Amount:   req.Amount,
		Notes:    req.Notes,
	}
	if err := s.repo.Access().Create(ctx, nil, grant); err != nil {
		return nil, fmt.Errorf("failed to create grant: %w", err)
	}

	s.logger.Info("access granted",
		"grant_id", grant.ID,
		"user_id", grant.UserID,
		"lesson_id", grant.LessonID)

	if s.publisher != nil {
		event := events.NewEvent(events.EventAccessGranted, events.AccessGrantedEvent{
			GrantID:  grant.ID,
			UserID:   grant.UserID,
			LessonID: grant.LessonID,
			Amount:   grant.Amount,
		})
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish event", "event_type", events.EventAccessGranted, "error", err)
		}
	}

	return grant, nil
}

func (s *accessService) Check(ctx context.Context, userID, lessonID string) (bool, error) {
	exists, err := s.repo.Access().Exists(ctx, nil, userID, lessonID)
	if err != nil {
		return false, fmt.Errorf("failed to check access: %w", err)
	}
	return exists, nil
}

func (s *accessService) ListForUser(ctx context.Context, userID string) ([]*models.AccessGrant, error) {
	if _, err := s.repo.User().GetByID(ctx, nil, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	grants, err := s.repo.Access().ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	return grants, nil
}

func (s *accessService) ListForLesson(ctx context.Context, lessonID string) ([]*models.AccessGrant, error) {
	if _, err := s.repo.Lesson().GetByID(ctx, nil, lessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	grants, err := s.repo.Access().ListByLesson(ctx, nil, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	return grants, nil
}
