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

type LessonPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewLessonPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.LessonRepository {
	return &LessonPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (l *LessonPostgreSQL) Create(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	db := l.getDB(tx)
	if err := db.WithContext(ctx).Create(lesson).Error; err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, l.cacheManager.Lesson, "list:*")
	return nil
}

func (l *LessonPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Lesson, error) {
	db := l.getDB(tx)
	cacheKey := fmt.Sprintf("id:%s", id)
	var lesson models.Lesson

	err := l.cacheManager.Lesson.CacheOrExecute(ctx, cacheKey, &lesson, cache.LessonCacheConfig.TTL, func() (interface{}, error) {
		var dbLesson models.Lesson
		if err := db.WithContext(ctx).First(&dbLesson, "id = ?", id).Error; err != nil {
			return nil, err
		}
		return &dbLesson, nil
	})
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (l *LessonPostgreSQL) UpdateFields(ctx context.Context, tx *gorm.DB, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	db := l.getDB(tx)
	if err := db.WithContext(ctx).Model(&models.Lesson{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return fmt.Errorf("failed to update lesson: %w", err)
	}

	cache.InvalidateLessonCache(ctx, l.cacheManager, id)
	return nil
}

func (l *LessonPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	db := l.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.Lesson{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}

	cache.InvalidateLessonCache(ctx, l.cacheManager, id)
	return nil
}

func (l *LessonPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.LessonFilters) ([]*models.Lesson, int64, error) {
	db := l.getDB(tx)
	var lessons []*models.Lesson
	var total int64

	// apply filter first
	query := db.WithContext(ctx).Model(&models.Lesson{})
	if filters.PublishedOnly {
		query = query.Where("is_published = true")
	}
	if filters.Search != nil && *filters.Search != "" {
		query = query.Where("title ILIKE ?", "%"+*filters.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = l.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Find(&lessons).Error; err != nil {
		return nil, 0, err
	}

	return lessons, total, nil
}

func (l *LessonPostgreSQL) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	db := l.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).Model(&models.Lesson{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	return count, nil
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (l *LessonPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return l.db
}
