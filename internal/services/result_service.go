package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/edupath/learning-service/internal/models"
	"github.com/edupath/learning-service/internal/repositories"
	"github.com/edupath/learning-service/internal/validator"
)

type resultService struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewResultService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, v *validator.Validator) ResultService {
	return &resultService{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: v,
	}
}

// ListForUser returns the caller's results, most recent first.
func (s *resultService) ListForUser(ctx context.Context, telegramID int64, limit int) ([]*models.ResultListItem, error) {
	user, err := s.userByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	results, err := s.repo.Result().ListByUser(ctx, nil, user.ID, repositories.ResultFilters{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	items := make([]*models.ResultListItem, 0, len(results))
	for _, r := range results {
		items = append(items, &models.ResultListItem{
			ID:             r.ID,
			LessonID:       r.LessonID,
			LessonTitle:    r.LessonTitle,
			Score:          r.Score,
			CorrectAnswers: r.CorrectAnswers,
			TotalQuestions: r.TotalQuestions,
			Passed:         r.Passed,
			CompletedAt:    r.CompletedAt,
		})
	}
	return items, nil
}

// Detail returns one result with the per-answer breakdown. A result owned by
// a different user is reported as not found rather than forbidden.
func (s *resultService) Detail(ctx context.Context, telegramID int64, resultID string) (*models.ResultDetail, error) {
	user, err := s.userByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	result, err := s.repo.Result().GetByIDWithLesson(ctx, nil, resultID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	if result.UserID != user.ID {
		return nil, ErrResultNotFound
	}

	return &models.ResultDetail{
		ID:             result.ID,
		LessonID:       result.LessonID,
		LessonTitle:    result.LessonTitle,
		Score:          result.Score,
		CorrectAnswers: result.CorrectAnswers,
		TotalQuestions: result.TotalQuestions,
		Passed:         result.Passed,
		CompletedAt:    result.CompletedAt,
		Answers:        []models.AnswerRecord(result.Answers),
	}, nil
}

// LessonStats composes result aggregates with grant counts. Rates are
// percentages: completion is distinct test takers over grant holders.
func (s *resultService) LessonStats(ctx context.Context, lessonID string) (*models.LessonStats, error) {
	if _, err := s.repo.Lesson().GetByID(ctx, nil, lessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	stats, err := s.repo.Result().GetLessonStats(ctx, nil, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson stats: %w", err)
	}

	grantCount, err := s.repo.Access().CountByLesson(ctx, nil, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to count grants: %w", err)
	}

	takers, err := s.repo.Result().CountDistinctTakers(ctx, nil, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to count takers: %w", err)
	}

	completionRate := float64(0)
	if grantCount > 0 {
		completionRate = float64(takers) / float64(grantCount) * 100
	}

	return &models.LessonStats{
		LessonID:       lessonID,
		AttemptCount:   stats.AttemptCount,
		GrantedUsers:   int(grantCount),
		AverageScore:   roundToOneDecimal(stats.AverageScore),
		PassRate:       roundToOneDecimal(stats.PassRate),
		CompletionRate: roundToOneDecimal(completionRate),
	}, nil
}

func (s *resultService) userByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	user, err := s.repo.User().GetByTelegramID(ctx, nil, telegramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
