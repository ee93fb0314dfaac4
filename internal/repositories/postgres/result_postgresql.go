package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/edupath/learning-service/internal/cache"
	"github.com/edupath/learning-service/internal/models"
	"github.com/edupath/learning-service/internal/repositories"
)

type ResultPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewResultPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ResultRepository {
	return &ResultPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (r *ResultPostgreSQL) Create(ctx context.Context, tx *gorm.DB, result *models.TestResult) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(result).Error; err != nil {
		return fmt.Errorf("failed to create test result: %w", err)
	}

	cache.InvalidateResultCache(ctx, r.cacheManager, result.UserID, result.LessonID)
	return nil
}

func (r *ResultPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.TestResult, error) {
	db := r.getDB(tx)
	var result models.TestResult
	if err := db.WithContext(ctx).First(&result, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ResultPostgreSQL) GetByIDWithLesson(ctx context.Context, tx *gorm.DB, id string) (*repositories.ResultWithLesson, error) {
	db := r.getDB(tx)
	var result repositories.ResultWithLesson
	if err := db.WithContext(ctx).
		Model(&models.TestResult{}).
		Select("user_test_results.*, lessons.title AS lesson_title").
		Joins("JOIN lessons ON lessons.id = user_test_results.lesson_id").
		Where("user_test_results.id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ResultPostgreSQL) GetByUserAndLesson(ctx context.Context, tx *gorm.DB, userID, lessonID string) (*models.TestResult, error) {
	db := r.getDB(tx)
	var result models.TestResult
	if err := db.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteByUserAndLesson removes the previous result for the pair. Callers
// run this and the following Create inside one transaction so the unique
// (user_id, lesson_id) index never sees two live rows.
func (r *ResultPostgreSQL) DeleteByUserAndLesson(ctx context.Context, tx *gorm.DB, userID, lessonID string) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		Delete(&models.TestResult{}).Error; err != nil {
		return fmt.Errorf("failed to delete previous result: %w", err)
	}
	return nil
}

func (r *ResultPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.ResultFilters) ([]*repositories.ResultWithLesson, error) {
	db := r.getDB(tx)

	query := db.WithContext(ctx).
		Model(&models.TestResult{}).
		Select("user_test_results.*, lessons.title AS lesson_title").
		Joins("JOIN lessons ON lessons.id = user_test_results.lesson_id").
		Where("user_test_results.user_id = ?", userID).
		Order("user_test_results.completed_at DESC")

	if filters.LessonID != nil {
		query = query.Where("user_test_results.lesson_id = ?", *filters.LessonID)
	}
	if filters.Passed != nil {
		query = query.Where("user_test_results.passed = ?", *filters.Passed)
	}
	if filters.DateFrom != nil {
		query = query.Where("user_test_results.completed_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("user_test_results.completed_at <= ?", *filters.DateTo)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var results []*repositories.ResultWithLesson
	if err := query.Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to list results by user: %w", err)
	}
	return results, nil
}

func (r *ResultPostgreSQL) CountByUser(ctx context.Context, tx *gorm.DB, userID string, passedOnly bool) (int64, error) {
	db := r.getDB(tx)
	query := db.WithContext(ctx).Model(&models.TestResult{}).Where("user_id = ?", userID)
	if passedOnly {
		query = query.Where("passed = true")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count results: %w", err)
	}
	return count, nil
}

func (r *ResultPostgreSQL) CountDistinctTakers(ctx context.Context, tx *gorm.DB, lessonID string) (int64, error) {
	db := r.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.TestResult{}).
		Where("lesson_id = ?", lessonID).
		Distinct("user_id").
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count distinct takers: %w", err)
	}
	return count, nil
}

// GetLessonStats aggregates result rows for a lesson. Cached because the
// admin dashboard polls it.
func (r *ResultPostgreSQL) GetLessonStats(ctx context.Context, tx *gorm.DB, lessonID string) (*repositories.LessonResultStats, error) {
	cacheKey := fmt.Sprintf("lesson:%s:results", lessonID)
	var stats repositories.LessonResultStats

	err := r.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		db := r.getDB(tx)

		var attemptCount, passedCount int64
		var avgScore float64

		row := db.WithContext(ctx).
			Model(&models.TestResult{}).
			Where("lesson_id = ?", lessonID).
			Select("COUNT(*), COALESCE(AVG(score), 0), COALESCE(SUM(CASE WHEN passed THEN 1 ELSE 0 END), 0)").
			Row()
		if err := row.Scan(&attemptCount, &avgScore, &passedCount); err != nil {
			return nil, fmt.Errorf("failed to aggregate lesson results: %w", err)
		}

		// Percentage, not a fraction
		passRate := float64(0)
		if attemptCount > 0 {
			passRate = float64(passedCount) / float64(attemptCount) * 100
		}

		return &repositories.LessonResultStats{
			AttemptCount: int(attemptCount),
			AverageScore: avgScore,
			PassRate:     passRate,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *ResultPostgreSQL) GetUserStats(ctx context.Context, tx *gorm.DB, userID string) (*repositories.UserResultStats, error) {
	db := r.getDB(tx)
	stats := &repositories.UserResultStats{}

	var total, passed int64
	var avgScore float64

	row := db.WithContext(ctx).
		Model(&models.TestResult{}).
		Where("user_id = ?", userID).
		Select("COUNT(*), COALESCE(AVG(score), 0), COALESCE(SUM(CASE WHEN passed THEN 1 ELSE 0 END), 0)").
		Row()
	if err := row.Scan(&total, &avgScore, &passed); err != nil {
		return nil, fmt.Errorf("failed to aggregate user results: %w", err)
	}

	stats.TotalTests = int(total)
	stats.PassedTests = int(passed)
	stats.AverageScore = avgScore

	if total > 0 {
		var last models.TestResult
		if err := db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("completed_at DESC").
			First(&last).Error; err != nil {
			return nil, fmt.Errorf("failed to get last result: %w", err)
		}
		stats.LastTestAt = &last.CompletedAt
	}

	return stats, nil
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (r *ResultPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
