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

type AccessPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewAccessPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AccessRepository {
	return &AccessPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (a *AccessPostgreSQL) Create(ctx context.Context, tx *gorm.DB, grant *models.AccessGrant) error {
	db := a.getDB(tx)
	if err := db.WithContext(ctx).Create(grant).Error; err != nil {
		return fmt.Errorf("failed to create access grant: %w", err)
	}

	cache.SafeDelete(ctx, a.cacheManager.Exists,
		fmt.Sprintf("access:%s:%s", grant.UserID, grant.LessonID))
	return nil
}

func (a *AccessPostgreSQL) GetByUserAndLesson(ctx context.Context, tx *gorm.DB, userID, lessonID string) (*models.AccessGrant, error) {
	db := a.getDB(tx)
	var grant models.AccessGrant
	if err := db.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&grant).Error; err != nil {
		return nil, err
	}
	return &grant, nil
}

// Exists answers the authorization question. Grants are permanent, so the
// positive answer is safe to cache; the negative one uses a short TTL.
func (a *AccessPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, userID, lessonID string) (bool, error) {
	db := a.getDB(tx)
	cacheKey := fmt.Sprintf("access:%s:%s", userID, lessonID)

	cached, err := a.cacheManager.Exists.GetString(ctx, cacheKey)
	if err == nil {
		return cached == "true", nil
	}

	var count int64
	if err := db.WithContext(ctx).
		Model(&models.AccessGrant{}).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check access grant: %w", err)
	}

	hasAccess := count > 0
	a.cacheManager.Exists.SetString(ctx, cacheKey, fmt.Sprintf("%t", hasAccess), cache.ExistsCacheConfig.TTL)

	return hasAccess, nil
}

func (a *AccessPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.AccessGrant, error) {
	db := a.getDB(tx)
	var grants []*models.AccessGrant
	if err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("granted_at DESC").
		Find(&grants).Error; err != nil {
		return nil, fmt.Errorf("failed to list grants by user: %w", err)
	}
	return grants, nil
}

func (a *AccessPostgreSQL) ListByLesson(ctx context.Context, tx *gorm.DB, lessonID string) ([]*models.AccessGrant, error) {
	db := a.getDB(tx)
	var grants []*models.AccessGrant
	if err := db.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("granted_at DESC").
		Find(&grants).Error; err != nil {
		return nil, fmt.Errorf("failed to list grants by lesson: %w", err)
	}
	return grants, nil
}

func (a *AccessPostgreSQL) CountByUser(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	db := a.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.AccessGrant{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count grants by user: %w", err)
	}
	return count, nil
}

func (a *AccessPostgreSQL) CountByLesson(ctx context.Context, tx *gorm.DB, lessonID string) (int64, error) {
	db := a.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.AccessGrant{}).
		Where("lesson_id = ?", lessonID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count grants by lesson: %w", err)
	}
	return count, nil
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (a *AccessPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}
