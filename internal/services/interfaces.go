package services

import (
	"context"

	"github.com/edupath/learning-service/internal/models"
	"github.com/edupath/learning-service/internal/repositories"
)

// ===== SERVICE INTERFACES =====

// UserService manages bot-originated registrations and per-user reporting.
type UserService interface {
	// Register is idempotent on telegram id: an existing user is returned
	// unchanged with AlreadyRegistered set.
	Register(ctx context.Context, req *models.RegisterUserRequest) (*models.RegisterUserResponse, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	// Update writes only the fields present in the request.
	Update(ctx context.Context, telegramID int64, req *models.UserUpdateRequest) (*models.User, error)
	Stats(ctx context.Context, telegramID int64) (*models.UserStats, error)
	Progress(ctx context.Context, telegramID int64) (*models.UserProgress, error)
}

type LessonService interface {
	Create(ctx context.Context, req *models.LessonCreateRequest) (*models.Lesson, error)
	Update(ctx context.Context, lessonID string, req *models.LessonUpdateRequest) (*models.Lesson, error)
	Delete(ctx context.Context, lessonID string) error
	Get(ctx context.Context, lessonID string) (*models.Lesson, error)
	List(ctx context.Context, filters repositories.LessonFilters) ([]*models.Lesson, int64, error)
	// ListForUser annotates every published lesson with the caller's access
	// and test status.
	ListForUser(ctx context.Context, telegramID int64) ([]*models.LessonSummary, error)
	// DetailForUser strips content URLs unless the caller holds a grant.
	DetailForUser(ctx context.Context, telegramID int64, lessonID string) (*models.LessonDetail, error)
}

type QuestionService interface {
	Create(ctx context.Context, lessonID string, req *models.QuestionCreateRequest) (*models.Question, error)
	Update(ctx context.Context, questionID string, req *models.QuestionUpdateRequest) (*models.Question, error)
	Delete(ctx context.Context, questionID string) error
	ListForLesson(ctx context.Context, lessonID string) ([]*models.Question, error)
	// QuestionsForTest requires an access grant and never exposes the
	// correct option.
	QuestionsForTest(ctx context.Context, telegramID int64, lessonID string) ([]*models.QuestionView, error)
}

type AccessService interface {
	// Grant fails with ErrDuplicateGrant when the pair already holds access.
	Grant(ctx context.Context, req *models.GrantAccessRequest) (*models.AccessGrant, error)
	Check(ctx context.Context, userID, lessonID string) (bool, error)
	ListForUser(ctx context.Context, userID string) ([]*models.AccessGrant, error)
	ListForLesson(ctx context.Context, lessonID string) ([]*models.AccessGrant, error)
}

// TestingService grades submissions and stores the single surviving result
// per user and lesson.
type TestingService interface {
	Submit(ctx context.Context, telegramID int64, lessonID string, req *models.TestSubmissionRequest) (*models.TestSubmissionResponse, error)
}

type ResultService interface {
	ListForUser(ctx context.Context, telegramID int64, limit int) ([]*models.ResultListItem, error)
	// Detail enforces ownership: a result belonging to another user is
	// reported as not found.
	Detail(ctx context.Context, telegramID int64, resultID string) (*models.ResultDetail, error)
	LessonStats(ctx context.Context, lessonID string) (*models.LessonStats, error)
}

// ExportService renders admin reports.
type ExportService interface {
	// ExportLessonResults returns an xlsx workbook with one row per stored
	// result, plus the suggested file name.
	ExportLessonResults(ctx context.Context, lessonID string) ([]byte, string, error)
}

// ===== SERVICE MANAGER =====

// ServiceManager provides access to all services and owns their lifecycle.
type ServiceManager interface {
	User() UserService
	Lesson() LessonService
	Question() QuestionService
	Access() AccessService
	Testing() TestingService
	Result() ResultService
	Export() ExportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
