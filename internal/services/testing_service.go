package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/edupath/learning-service/internal/events"
	"github.com/edupath/learning-service/internal/models"
	"github.com/edupath/learning-service/internal/repositories"
	"github.com/edupath/learning-service/internal/validator"
)

type testingService struct {
	db        *gorm.DB
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewTestingService(db *gorm.DB, repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, v *validator.Validator) TestingService {
	return &testingService{
		db:        db,
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: v,
	}
}

// Submit grades a test submission against the lesson's current question set
// and stores the outcome, replacing any previous result for the pair.
//
// Answers referencing unknown question ids are ignored; unanswered questions
// count as wrong. The score is the percentage of correct answers rounded to
// the nearest integer, halves away from zero.
func (s *testingService) Submit(ctx context.Context, telegramID int64, lessonID string, req *models.TestSubmissionRequest) (*models.TestSubmissionResponse, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError(errs)
	}

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
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}

	// A lesson without questions still produces a stored zero result
	score, correct, records := gradeSubmission(questions, req.Answers)
	passed := score >= models.PassingScore

	result := &models.TestResult{
		UserID:         user.ID,
		LessonID:       lessonID,
		Score:          score,
		CorrectAnswers: correct,
		TotalQuestions: len(questions),
		Passed:         passed,
		Answers:        datatypes.NewJSONSlice(records),
	}

	// Delete and insert in one transaction so the unique index on
	// (user_id, lesson_id) never sees two live rows.
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Result().DeleteByUserAndLesson(ctx, nil, user.ID, lessonID); err != nil {
			return err
		}
		return txRepo.Result().Create(ctx, nil, result)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store test result: %w", err)
	}

	s.logger.Info("test submitted",
		"user_id", user.ID,
		"lesson_id", lessonID,
		"score", score,
		"passed", passed)

	if s.publisher != nil {
		event := events.NewEvent(events.EventTestSubmitted, events.TestSubmittedEvent{
			ResultID:       result.ID,
			UserID:         user.ID,
			LessonID:       lessonID,
			Score:          score,
			Passed:         passed,
			TotalQuestions: len(questions),
		})
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish event", "event_type", events.EventTestSubmitted, "error", err)
		}
	}

	return &models.TestSubmissionResponse{
		ResultID:       result.ID,
		Score:          score,
		CorrectAnswers: correct,
		TotalQuestions: len(questions),
		Passed:         passed,
	}, nil
}

// gradeSubmission matches answers against the question set. The question set
// is authoritative: every question produces one record, and answers that do
// not match a question are dropped.
func gradeSubmission(questions []*models.Question, answers []models.TestAnswerRequest) (score, correct int, records []models.AnswerRecord) {
	selected := make(map[string]int, len(answers))
	for _, a := range answers {
		selected[a.QuestionID] = a.SelectedOption
	}

	records = make([]models.AnswerRecord, 0, len(questions))
	for _, q := range questions {
		record := models.AnswerRecord{
			QuestionID:     q.ID,
			SelectedOption: -1,
			CorrectOption:  q.CorrectOption,
		}
		if sel, ok := selected[q.ID]; ok {
			record.SelectedOption = sel
			record.Correct = sel == q.CorrectOption
		}
		if record.Correct {
			correct++
		}
		records = append(records, record)
	}

	if len(questions) > 0 {
		score = int(math.Round(float64(correct) / float64(len(questions)) * 100))
	}
	return score, correct, records
}
