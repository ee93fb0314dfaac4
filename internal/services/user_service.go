package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gorm.io/gorm"

	"github.com/edupath/learning-service/internal/events"
	"github.com/edupath/learning-service/internal/models"
	"github.com/edupath/learning-service/internal/repositories"
	"github.com/edupath/learning-service/internal/validator"
)

type userService struct {
	db        *gorm.DB
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewUserService(db *gorm.DB, repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, v *validator.Validator) UserService {
	return &userService{
		db:        db,
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: v,
	}
}

// Register creates a user for the given telegram id, or returns the existing
// one. Re-registration never overwrites stored profile data.
func (s *userService) Register(ctx context.Context, req *models.RegisterUserRequest) (*models.RegisterUserResponse, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError(errs)
	}

	existing, err := s.repo.User().GetByTelegramID(ctx, nil, req.TelegramID)
	if err == nil {
		return &models.RegisterUserResponse{
			UserID:            existing.ID,
			TelegramID:        existing.TelegramID,
			AlreadyRegistered: true,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	user := &models.User{
		TelegramID:  req.TelegramID,
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
	}
	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info("user registered",
		"user_id", user.ID,
		"telegram_id", user.TelegramID)

	s.publishEvent(ctx, events.EventUserRegistered, events.UserRegisteredEvent{
		UserID:     user.ID,
		TelegramID: user.TelegramID,
		FullName:   user.FullName,
	})

	return &models.RegisterUserResponse{
		UserID:            user.ID,
		TelegramID:        user.TelegramID,
		AlreadyRegistered: false,
	}, nil
}

func (s *userService) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	user, err := s.repo.User().GetByTelegramID(ctx, nil, telegramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Update applies only the fields present in the request.
func (s *userService) Update(ctx context.Context, telegramID int64, req *models.UserUpdateRequest) (*models.User, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError(errs)
	}

	user, err := s.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.FullName != nil {
		fields["full_name"] = *req.FullName
	}
	if req.PhoneNumber != nil {
		fields["phone_number"] = *req.PhoneNumber
	}
	if len(fields) == 0 {
		return user, nil
	}

	if err := s.repo.User().UpdateFields(ctx, nil, user.ID, fields); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return s.GetByTelegramID(ctx, telegramID)
}

func (s *userService) Stats(ctx context.Context, telegramID int64) (*models.UserStats, error) {
	user, err := s.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	stats, err := s.repo.Result().GetUserStats(ctx, nil, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}

	return &models.UserStats{
		PhoneNumber:  user.PhoneNumber,
		TotalTests:   stats.TotalTests,
		PassedTests:  stats.PassedTests,
		AverageScore: roundToOneDecimal(stats.AverageScore),
		RegisteredAt: user.JoinedAt,
	}, nil
}

func (s *userService) Progress(ctx context.Context, telegramID int64) (*models.UserProgress, error) {
	user, err := s.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	totalLessons, err := s.repo.Lesson().Count(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count lessons: %w", err)
	}

	accessible, err := s.repo.Access().CountByUser(ctx, nil, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count grants: %w", err)
	}

	// A lesson counts as completed only once its test was passed
	completed, err := s.repo.Result().CountByUser(ctx, nil, user.ID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed tests: %w", err)
	}

	stats, err := s.repo.Result().GetUserStats(ctx, nil, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}

	return &models.UserProgress{
		TotalLessons:      int(totalLessons),
		AccessibleLessons: int(accessible),
		CompletedLessons:  int(completed),
		TotalTests:        stats.TotalTests,
		PassedTests:       stats.PassedTests,
		AverageScore:      roundToOneDecimal(stats.AverageScore),
		LastTestAt:        stats.LastTestAt,
	}, nil
}

func (s *userService) publishEvent(ctx context.Context, eventType string, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(eventType, data)); err != nil {
		s.logger.Warn("failed to publish event", "event_type", eventType, "error", err)
	}
}

func roundToOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
