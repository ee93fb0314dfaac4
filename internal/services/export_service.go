package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/edupath/learning-service/internal/repositories"
)

type exportService struct {
	db     *gorm.DB
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		db:     db,
		repo:   repo,
		logger: logger,
	}
}

var exportHeaders = []string{
	"Full Name", "Phone Number", "Score", "Correct", "Total Questions", "Passed", "Completed At",
}

// ExportLessonResults renders an xlsx workbook with one row per stored result
// for the lesson, ordered as returned by the result listing.
func (s *exportService) ExportLessonResults(ctx context.Context, lessonID string) ([]byte, string, error) {
	lesson, err := s.repo.Lesson().GetByID(ctx, nil, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrLessonNotFound
		}
		return nil, "", fmt.Errorf("failed to get lesson: %w", err)
	}

	grants, err := s.repo.Access().ListByLesson(ctx, nil, lessonID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list grants: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Results"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	row := 2
	for _, grant := range grants {
		user, err := s.repo.User().GetByID(ctx, nil, grant.UserID)
		if err != nil {
			return nil, "", fmt.Errorf("failed to get user: %w", err)
		}

		values := []interface{}{user.FullName, user.PhoneNumber}

		result, err := s.repo.Result().GetByUserAndLesson(ctx, nil, grant.UserID, lessonID)
		switch {
		case err == nil:
			passed := "No"
			if result.Passed {
				passed = "Yes"
			}
			values = append(values,
				result.Score,
				result.CorrectAnswers,
				result.TotalQuestions,
				passed,
				result.CompletedAt.Format(time.RFC3339))
		case errors.Is(err, gorm.ErrRecordNotFound):
			values = append(values, "", "", "", "Not taken", "")
		default:
			return nil, "", fmt.Errorf("failed to get result: %w", err)
		}

		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheet, cell, value)
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to render workbook: %w", err)
	}

	filename := fmt.Sprintf("results_%s_%s.xlsx", sanitizeFilename(lesson.Title), time.Now().UTC().Format("20060102"))

	s.logger.Info("lesson results exported",
		"lesson_id", lessonID,
		"rows", row-2)

	return buf.Bytes(), filename, nil
}

func sanitizeFilename(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		case r == ' ', r == '-', r == '_':
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "lesson"
	}
	if len(out) > 40 {
		out = out[:40]
	}
	return string(out)
}
