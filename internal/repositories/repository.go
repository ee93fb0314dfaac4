package repositories

import "context"

// Repository aggregates the per-domain repository interfaces
type Repository interface {
	// User domain
	User() UserRepository

	// Lesson domain
	Lesson() LessonRepository
	Question() QuestionRepository

	// Access domain
	Access() AccessRepository

	// Result domain
	Result() ResultRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
