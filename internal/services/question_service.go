package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/edupath/learning-service/internal/models"
	"github.com/edupath/learning-service/internal/repositories"
	"github.com/edupath/learning-service/internal/validator"
)

type questionService struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuestionService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, v *validator.Validator) QuestionService {
	return &questionService{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: v,
	}
}

func (s *questionService) Create(ctx context.Context, lessonID string, req *models.QuestionCreateRequest) (*models.Question, error) {
	if errs := s.validator.ValidateQuestionCreate(req); errs.HasErrors() {
		return nil, NewValidationError(errs)
	}

	if _, err := s.repo.Lesson().GetByID(ctx, nil, lessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	question := &models.Question{
		LessonID:      lessonID,
		Text:          req.Text,
		Options:       datatypes.NewJSONSlice(req.Options),
		CorrectOption: req.CorrectOption,
	}
	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("question created", "question_id", question.ID, "lesson_id", lessonID)
	return question, nil
}

func (s *questionService) Update(ctx context.Context, questionID string, req *models.QuestionUpdateRequest) (*models.Question, error) {
	existing, err := s.getQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}

	if errs := s.validator.ValidateQuestionUpdate(req, existing); errs.HasErrors() {
		return nil, NewValidationError(errs)
	}

	fields := map[string]interface{}{}
	if req.Text != nil {
		fields["text"] = *req.Text
	}
	if req.Options != nil {
		fields["options"] = datatypes.NewJSONSlice(req.Options)
	}
	if req.CorrectOption != nil {
		fields["correct_option"] = *req.CorrectOption
	}
	if len(fields) == 0 {
		return existing, nil
	}

	if err := s.repo.Question().UpdateFields(ctx, nil, questionID, fields); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	return s.getQuestion(ctx, questionID)
}

func (s *questionService) Delete(ctx context.Context, questionID string) error {
	if _, err := s.getQuestion(ctx, questionID); err != nil {
		return err
	}
	if err := s.repo.Question().Delete(ctx, nil, questionID); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	s.logger.Info("question deleted", "question_id", questionID)
	return nil
}

// ListForLesson is the admin view and includes correct options.
func (s *questionService) ListForLesson(ctx context.Context, lessonID string) ([]*models.Question, error) {
	if _, err := s.repo.Lesson().GetByID(ctx, nil, lessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	questions, err := s.repo.Question().GetByLesson(ctx, nil, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

// QuestionsForTest returns a lesson's questions for a test taker. The caller
// must hold an access grant; correct options are stripped.
func (s *questionService) QuestionsForTest(ctx context.Context, telegramID int64, lessonID string) ([]*models.QuestionView, error) {
	user, err := s.repo.User().GetByTelegramID(ctx, nil, telegramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if _, err := s.repo.Lesson().GetByID(ctx, nil, lessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	hasAccess, err := s.repo.Access().Exists(ctx, nil, user.ID, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to check access: %w", err)
	}
	if !hasAccess {
		return nil, ErrAccessDenied
	}

	questions, err := s.repo.Question().GetByLesson(ctx, nil, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	views := make([]*models.QuestionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, &models.QuestionView{
			ID:      q.ID,
			Text:    q.Text,
			Options: []string(q.Options),
		})
	}
	return views, nil
}

func (s *questionService) getQuestion(ctx context.Context, questionID string) (*models.Question, error) {
	question, err := s.repo.Question().GetByID(ctx, nil, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return question, nil
}
