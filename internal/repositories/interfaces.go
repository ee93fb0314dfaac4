package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/edupath/learning-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type LessonFilters struct {
	PublishedOnly bool    `json:"published_only"`
	Search        *string `json:"search"`
	Limit         int     `json:"limit"`
	Offset        int     `json:"offset"`
	SortBy        string  `json:"sort_by"`    // "created_at", "title"
	SortOrder     string  `json:"sort_order"` // "asc", "desc"
}

type ResultFilters struct {
	LessonID *string    `json:"lesson_id"`
	Passed   *bool      `json:"passed"`
	DateFrom *time.Time `json:"date_from"`
	DateTo   *time.Time `json:"date_to"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

// LessonResultStats carries raw aggregates; PassRate is a percentage.
type LessonResultStats struct {
	AttemptCount int     `json:"attempt_count"`
	GrantedUsers int     `json:"granted_users"`
	AverageScore float64 `json:"average_score"`
	PassRate     float64 `json:"pass_rate"`
}

type UserResultStats struct {
	TotalTests   int        `json:"total_tests"`
	PassedTests  int        `json:"passed_tests"`
	AverageScore float64    `json:"average_score"`
	LastTestAt   *time.Time `json:"last_test_at"`
}

// ResultWithLesson joins a stored result with its lesson title for listings.
type ResultWithLesson struct {
	models.TestResult
	LessonTitle string `json:"lesson_title"`
}

// ===== REPOSITORY INTERFACES =====

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)
	GetByTelegramID(ctx context.Context, tx *gorm.DB, telegramID int64) (*models.User, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id string, fields map[string]interface{}) error
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type LessonRepository interface {
	Create(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Lesson, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error
	List(ctx context.Context, tx *gorm.DB, filters LessonFilters) ([]*models.Lesson, int64, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type QuestionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Question, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error
	GetByLesson(ctx context.Context, tx *gorm.DB, lessonID string) ([]*models.Question, error)
	CountByLesson(ctx context.Context, tx *gorm.DB, lessonID string) (int64, error)
}

type AccessRepository interface {
	Create(ctx context.Context, tx *gorm.DB, grant *models.AccessGrant) error
	GetByUserAndLesson(ctx context.Context, tx *gorm.DB, userID, lessonID string) (*models.AccessGrant, error)
	Exists(ctx context.Context, tx *gorm.DB, userID, lessonID string) (bool, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.AccessGrant, error)
	ListByLesson(ctx context.Context, tx *gorm.DB, lessonID string) ([]*models.AccessGrant, error)
	CountByUser(ctx context.Context, tx *gorm.DB, userID string) (int64, error)
	CountByLesson(ctx context.Context, tx *gorm.DB, lessonID string) (int64, error)
}

type ResultRepository interface {
	Create(ctx context.Context, tx *gorm.DB, result *models.TestResult) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.TestResult, error)
	GetByIDWithLesson(ctx context.Context, tx *gorm.DB, id string) (*ResultWithLesson, error)
	GetByUserAndLesson(ctx context.Context, tx *gorm.DB, userID, lessonID string) (*models.TestResult, error)
	DeleteByUserAndLesson(ctx context.Context, tx *gorm.DB, userID, lessonID string) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters ResultFilters) ([]*ResultWithLesson, error)
	CountByUser(ctx context.Context, tx *gorm.DB, userID string, passedOnly bool) (int64, error)
	CountDistinctTakers(ctx context.Context, tx *gorm.DB, lessonID string) (int64, error)
	GetLessonStats(ctx context.Context, tx *gorm.DB, lessonID string) (*LessonResultStats, error)
	GetUserStats(ctx context.Context, tx *gorm.DB, userID string) (*UserResultStats, error)
}
