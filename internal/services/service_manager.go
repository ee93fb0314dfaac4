package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/edupath/learning-service/internal/events"
	"github.com/edupath/learning-service/internal/repositories"
	"github.com/edupath/learning-service/internal/validator"
)

// DefaultServiceManager wires all services over one repository and event
// publisher.
type DefaultServiceManager struct {
	db        *gorm.DB
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator

	userService     UserService
	lessonService   LessonService
	questionService QuestionService
	accessService   AccessService
	testingService  TestingService
	resultService   ResultService
	exportService   ExportService

	initialized bool
}

// ServiceManagerConfig holds the dependencies every service shares.
type ServiceManagerConfig struct {
	DB        *gorm.DB
	Repo      repositories.Repository
	Publisher events.EventPublisher
	Logger    *slog.Logger
	Validator *validator.Validator
}

func NewDefaultServiceManager(config ServiceManagerConfig) ServiceManager {
	return &DefaultServiceManager{
		db:        config.DB,
		repo:      config.Repo,
		publisher: config.Publisher,
		logger:    config.Logger,
		validator: config.Validator,
	}
}

// Initialize constructs all services. Must be called before any getter.
func (sm *DefaultServiceManager) Initialize(ctx context.Context) error {
	if sm.repo == nil {
		return fmt.Errorf("repository is required")
	}
	if sm.validator == nil {
		return fmt.Errorf("validator is required")
	}
	if sm.logger == nil {
		sm.logger = slog.Default()
	}

	sm.userService = NewUserService(sm.db, sm.repo, sm.publisher, sm.logger, sm.validator)
	sm.lessonService = NewLessonService(sm.db, sm.repo, sm.publisher, sm.logger, sm.validator)
	sm.questionService = NewQuestionService(sm.db, sm.repo, sm.logger, sm.validator)
	sm.accessService = NewAccessService(sm.db, sm.repo, sm.publisher, sm.logger, sm.validator)
	sm.testingService = NewTestingService(sm.db, sm.repo, sm.publisher, sm.logger, sm.validator)
	sm.resultService = NewResultService(sm.db, sm.repo, sm.logger, sm.validator)
	sm.exportService = NewExportService(sm.db, sm.repo, sm.logger)

	sm.initialized = true
	sm.logger.Info("service manager initialized")
	return nil
}

func (sm *DefaultServiceManager) User() UserService {
	sm.mustBeInitialized()
	return sm.userService
}

func (sm *DefaultServiceManager) Lesson() LessonService {
	sm.mustBeInitialized()
	return sm.lessonService
}

func (sm *DefaultServiceManager) Question() QuestionService {
	sm.mustBeInitialized()
	return sm.questionService
}

func (sm *DefaultServiceManager) Access() AccessService {
	sm.mustBeInitialized()
	return sm.accessService
}

func (sm *DefaultServiceManager) Testing() TestingService {
	sm.mustBeInitialized()
	return sm.testingService
}

func (sm *DefaultServiceManager) Result() ResultService {
	sm.mustBeInitialized()
	return sm.resultService
}

func (sm *DefaultServiceManager) Export() ExportService {
	sm.mustBeInitialized()
	return sm.exportService
}

// HealthCheck verifies the backing repository connections.
func (sm *DefaultServiceManager) HealthCheck(ctx context.Context) error {
	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	return sm.repo.Ping(ctx)
}

// Shutdown closes the event publisher. Repository connections are owned by
// the repository manager and closed there.
func (sm *DefaultServiceManager) Shutdown(ctx context.Context) error {
	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			return fmt.Errorf("failed to close event publisher: %w", err)
		}
	}
	sm.logger.Info("service manager shut down")
	return nil
}

func (sm *DefaultServiceManager) mustBeInitialized() {
	if !sm.initialized {
		panic("service manager used before Initialize")
	}
}
