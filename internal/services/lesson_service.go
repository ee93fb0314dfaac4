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

type lessonService struct {
	db        *gorm.DB
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewLessonService(db *gorm.DB, repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, v *validator.Validator) LessonService {
	return &lessonService{
		db:        db,
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: v,
	}
}

func (s *lessonService) Create(ctx context.Context, req *models.LessonCreateRequest) (*models.Lesson, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError(errs)
	}

	lesson := &models.Lesson{
		Title:           req.Title,
		Description:     req.Description,
		VideoURL:        req.VideoURL,
		PDFURL:          req.PDFURL,
		PresentationURL: req.PresentationURL,
		Price:           req.Price,
		IsPublished:     req.IsPublished,
	}
	if err := s.repo.Lesson().Create(ctx, nil, lesson); err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}

	s.logger.Info("lesson created", "lesson_id", lesson.ID, "title", lesson.Title)

	if lesson.IsPublished {
		s.publishLessonEvent(ctx, lesson)
	}

	return lesson, nil
}

func (s *lessonService) Update(ctx context.Context, lessonID string, req *models.LessonUpdateRequest) (*models.Lesson, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError(errs)
	}

	existing, err := s.Get(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.VideoURL != nil {
		fields["video_url"] = *req.VideoURL
	}
	if req.PDFURL != nil {
		fields["pdf_url"] = *req.PDFURL
	}
	if req.PresentationURL != nil {
		fields["presentation_url"] = *req.PresentationURL
	}
	if req.Price != nil {
		fields["price"] = *req.Price
	}
	if req.IsPublished != nil {
		fields["is_published"] = *req.IsPublished
	}
	if len(fields) == 0 {
		return existing, nil
	}

	if err := s.repo.Lesson().UpdateFields(ctx, nil, lessonID, fields); err != nil {
		return nil, fmt.Errorf("failed to update lesson: %w", err)
	}

	updated, err := s.Get(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	// Announce the transition to published exactly once
	if req.IsPublished != nil && *req.IsPublished && !existing.IsPublished {
		s.publishLessonEvent(ctx, updated)
	}

	return updated, nil
}

func (s *lessonService) Delete(ctx context.Context, lessonID string) error {
	if _, err := s.Get(ctx, lessonID); err != nil {
		return err
	}
	if err := s.repo.Lesson().Delete(ctx, nil, lessonID); err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}

	s.logger.Info("lesson deleted", "lesson_id", lessonID)
	return nil
}

func (s *lessonService) Get(ctx context.Context, lessonID string) (*models.Lesson, error) {
	lesson, err := s.repo.Lesson().GetByID(ctx, nil, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return lesson, nil
}

func (s *lessonService) List(ctx context.Context, filters repositories.LessonFilters) ([]*models.Lesson, int64, error) {
	lessons, total, err := s.repo.Lesson().List(ctx, nil, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, total, nil
}

// ListForUser returns published lessons annotated with the caller's access
// grant and latest test outcome.
func (s *lessonService) ListForUser(ctx context.Context, telegramID int64) ([]*models.LessonSummary, error) {
	user, err := s.userByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	lessons, _, err := s.repo.Lesson().List(ctx, nil, repositories.LessonFilters{
		PublishedOnly: true,
		SortBy:        "created_at",
		SortOrder:     "asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}

	grants, err := s.repo.Access().ListByUser(ctx, nil, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	granted := make(map[string]*models.AccessGrant, len(grants))
	for _, g := range grants {
		granted[g.LessonID] = g
	}

	results, err := s.repo.Result().ListByUser(ctx, nil, user.ID, repositories.ResultFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	scores := make(map[string]int, len(results))
	for _, r := range results {
		scores[r.LessonID] = r.Score
	}

	summaries := make([]*models.LessonSummary, 0, len(lessons))
	for _, lesson := range lessons {
		summary := &models.LessonSummary{
			ID:          lesson.ID,
			Title:       lesson.Title,
			Description: lesson.Description,
			Price:       lesson.Price,
		}
		if grant, ok := granted[lesson.ID]; ok {
			summary.HasAccess = true
			// The grant records what the user actually paid
			if grant.Amount > 0 {
				summary.Price = grant.Amount
			}
		}
		if score, ok := scores[lesson.ID]; ok {
			summary.TestCompleted = true
			sc := score
			summary.Score = &sc
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// DetailForUser returns a lesson with content URLs included only when the
// caller holds an access grant.
func (s *lessonService) DetailForUser(ctx context.Context, telegramID int64, lessonID string) (*models.LessonDetail, error) {
	user, err := s.userByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	lesson, err := s.Get(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if !lesson.IsPublished {
		return nil, ErrLessonNotFound
	}

	hasAccess, err := s.repo.Access().Exists(ctx, nil, user.ID, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to check access: %w", err)
	}

	detail := &models.LessonDetail{
		ID:          lesson.ID,
		Title:       lesson.Title,
		Description: lesson.Description,
		Price:       lesson.Price,
		HasAccess:   hasAccess,
	}
	if hasAccess {
		detail.VideoURL = lesson.VideoURL
		detail.PDFURL = lesson.PDFURL
		detail.PresentationURL = lesson.PresentationURL
	}

	result, err := s.repo.Result().GetByUserAndLesson(ctx, nil, user.ID, lessonID)
	if err == nil {
		detail.TestCompleted = true
		score := result.Score
		detail.Score = &score
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get test result: %w", err)
	}

	return detail, nil
}

func (s *lessonService) userByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	user, err := s.repo.User().GetByTelegramID(ctx, nil, telegramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *lessonService) publishLessonEvent(ctx context.Context, lesson *models.Lesson) {
	if s.publisher == nil {
		return
	}
	event := events.NewEvent(events.EventLessonPublished, events.LessonPublishedEvent{
		LessonID: lesson.ID,
		Title:    lesson.Title,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", events.EventLessonPublished, "error", err)
	}
}
