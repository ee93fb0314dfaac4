package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateLessonCache drops all caches touched by a lesson write
func InvalidateLessonCache(ctx context.Context, cm *CacheManager, lessonID string) {
	SafeDelete(ctx, cm.Lesson, fmt.Sprintf("id:%s", lessonID))
	SafeInvalidatePattern(ctx, cm.Lesson, "list:*")
	SafeInvalidatePattern(ctx, cm.Question, fmt.Sprintf("lesson:%s:*", lessonID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("lesson:%s:*", lessonID))
}

// InvalidateQuestionCache drops all caches touched by a question write
func InvalidateQuestionCache(ctx context.Context, cm *CacheManager, questionID, lessonID string) {
	SafeDelete(ctx, cm.Question, fmt.Sprintf("id:%s", questionID))
	SafeInvalidatePattern(ctx, cm.Question, fmt.Sprintf("lesson:%s:*", lessonID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("lesson:%s:*", lessonID))
}

// InvalidateResultCache drops caches touched when a test result is replaced
func InvalidateResultCache(ctx context.Context, cm *CacheManager, userID, lessonID string) {
	SafeInvalidatePattern(ctx, cm.Fast, fmt.Sprintf("result:user:%s:*", userID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("lesson:%s:*", lessonID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("user:%s:*", userID))
}
