package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edupath/learning-service/internal/models"
	"github.com/edupath/learning-service/internal/repositories"
)

// memoryRepository is an in-memory Repository for service tests. All maps are
// keyed by entity id; tx arguments are ignored.
type memoryRepository struct {
	users   map[string]*models.User
	lessons map[string]*models.Lesson
	// question insertion order matters for grading and delivery
	questions []*models.Question
	grants    map[string]*models.AccessGrant
	results   map[string]*models.TestResult
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		users:   make(map[string]*models.User),
		lessons: make(map[string]*models.Lesson),
		grants:  make(map[string]*models.AccessGrant),
		results: make(map[string]*models.TestResult),
	}
}

func (m *memoryRepository) User() repositories.UserRepository         { return (*memoryUserRepo)(m) }
func (m *memoryRepository) Lesson() repositories.LessonRepository     { return (*memoryLessonRepo)(m) }
func (m *memoryRepository) Question() repositories.QuestionRepository { return (*memoryQuestionRepo)(m) }
func (m *memoryRepository) Access() repositories.AccessRepository     { return (*memoryAccessRepo)(m) }
func (m *memoryRepository) Result() repositories.ResultRepository     { return (*memoryResultRepo)(m) }

func (m *memoryRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *memoryRepository) Ping(ctx context.Context) error { return nil }
func (m *memoryRepository) Close() error                   { return nil }

// Seeding helpers

func (m *memoryRepository) seedUser(telegramID int64, fullName string) *models.User {
	user := &models.User{
		ID:         uuid.NewString(),
		TelegramID: telegramID,
		FullName:   fullName,
		JoinedAt:   time.Now().UTC(),
	}
	m.users[user.ID] = user
	return user
}

func (m *memoryRepository) seedLesson(title string, published bool) *models.Lesson {
	lesson := &models.Lesson{
		ID:          uuid.NewString(),
		Title:       title,
		IsPublished: published,
		CreatedAt:   time.Now().UTC(),
	}
	m.lessons[lesson.ID] = lesson
	return lesson
}

func (m *memoryRepository) seedQuestion(lessonID, text string, options []string, correct int) *models.Question {
	question := &models.Question{
		ID:            uuid.NewString(),
		LessonID:      lessonID,
		Text:          text,
		Options:       options,
		CorrectOption: correct,
		CreatedAt:     time.Now().UTC(),
	}
	m.questions = append(m.questions, question)
	return question
}

func (m *memoryRepository) seedGrant(userID, lessonID string) *models.AccessGrant {
	grant := &models.AccessGrant{
		ID:        uuid.NewString(),
		UserID:    userID,
		LessonID:  lessonID,
		GrantedAt: time.Now().UTC(),
	}
	m.grants[grant.ID] = grant
	return grant
}

// ===== User repo =====

type memoryUserRepo memoryRepository

func (m *memoryUserRepo) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.JoinedAt.IsZero() {
		user.JoinedAt = time.Now().UTC()
	}
	m.users[user.ID] = user
	return nil
}

func (m *memoryUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryUserRepo) GetByTelegramID(ctx context.Context, tx *gorm.DB, telegramID int64) (*models.User, error) {
	for _, user := range m.users {
		if user.TelegramID == telegramID {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryUserRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id string, fields map[string]interface{}) error {
	user, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := fields["full_name"]; ok {
		user.FullName = v.(string)
	}
	if v, ok := fields["phone_number"]; ok {
		user.PhoneNumber = v.(string)
	}
	return nil
}

func (m *memoryUserRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	return int64(len(m.users)), nil
}

// ===== Lesson repo =====

type memoryLessonRepo memoryRepository

func (m *memoryLessonRepo) Create(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	lesson.CreatedAt = time.Now().UTC()
	m.lessons[lesson.ID] = lesson
	return nil
}

func (m *memoryLessonRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Lesson, error) {
	if lesson, ok := m.lessons[id]; ok {
		// Return a copy so callers see a snapshot, as a real DB query would;
		// otherwise a later UpdateFields mutates the caller's value in place.
		copied := *lesson
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryLessonRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id string, fields map[string]interface{}) error {
	lesson, ok := m.lessons[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := fields["title"]; ok {
		lesson.Title = v.(string)
	}
	if v, ok := fields["description"]; ok {
		lesson.Description = v.(string)
	}
	if v, ok := fields["is_published"]; ok {
		lesson.IsPublished = v.(bool)
	}
	if v, ok := fields["price"]; ok {
		lesson.Price = v.(int64)
	}
	return nil
}

func (m *memoryLessonRepo) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	if _, ok := m.lessons[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.lessons, id)
	return nil
}

func (m *memoryLessonRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.LessonFilters) ([]*models.Lesson, int64, error) {
	var out []*models.Lesson
	for _, lesson := range m.lessons {
		if filters.PublishedOnly && !lesson.IsPublished {
			continue
		}
		out = append(out, lesson)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (m *memoryLessonRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	return int64(len(m.lessons)), nil
}

// ===== Question repo =====

type memoryQuestionRepo memoryRepository

func (m *memoryQuestionRepo) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	m.questions = append(m.questions, question)
	return nil
}

func (m *memoryQuestionRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Question, error) {
	for _, q := range m.questions {
		if q.ID == id {
			return q, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryQuestionRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id string, fields map[string]interface{}) error {
	question, err := m.GetByID(ctx, tx, id)
	if err != nil {
		return err
	}
	if v, ok := fields["text"]; ok {
		question.Text = v.(string)
	}
	if v, ok := fields["correct_option"]; ok {
		question.CorrectOption = v.(int)
	}
	return nil
}

func (m *memoryQuestionRepo) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	for i, q := range m.questions {
		if q.ID == id {
			m.questions = append(m.questions[:i], m.questions[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memoryQuestionRepo) GetByLesson(ctx context.Context, tx *gorm.DB, lessonID string) ([]*models.Question, error) {
	var out []*models.Question
	for _, q := range m.questions {
		if q.LessonID == lessonID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *memoryQuestionRepo) CountByLesson(ctx context.Context, tx *gorm.DB, lessonID string) (int64, error) {
	questions, _ := m.GetByLesson(ctx, tx, lessonID)
	return int64(len(questions)), nil
}

// ===== Access repo =====

type memoryAccessRepo memoryRepository

func (m *memoryAccessRepo) Create(ctx context.Context, tx *gorm.DB, grant *models.AccessGrant) error {
	if grant.ID == "" {
		grant.ID = uuid.NewString()
	}
	if grant.GrantedAt.IsZero() {
		grant.GrantedAt = time.Now().UTC()
	}
	m.grants[grant.ID] = grant
	return nil
}

func (m *memoryAccessRepo) GetByUserAndLesson(ctx context.Context, tx *gorm.DB, userID, lessonID string) (*models.AccessGrant, error) {
	for _, g := range m.grants {
		if g.UserID == userID && g.LessonID == lessonID {
			return g, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryAccessRepo) Exists(ctx context.Context, tx *gorm.DB, userID, lessonID string) (bool, error) {
	_, err := m.GetByUserAndLesson(ctx, tx, userID, lessonID)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (m *memoryAccessRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.AccessGrant, error) {
	var out []*models.AccessGrant
	for _, g := range m.grants {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *memoryAccessRepo) ListByLesson(ctx context.Context, tx *gorm.DB, lessonID string) ([]*models.AccessGrant, error) {
	var out []*models.AccessGrant
	for _, g := range m.grants {
		if g.LessonID == lessonID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *memoryAccessRepo) CountByUser(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	grants, _ := m.ListByUser(ctx, tx, userID)
	return int64(len(grants)), nil
}

func (m *memoryAccessRepo) CountByLesson(ctx context.Context, tx *gorm.DB, lessonID string) (int64, error) {
	grants, _ := m.ListByLesson(ctx, tx, lessonID)
	return int64(len(grants)), nil
}

// ===== Result repo =====

type memoryResultRepo memoryRepository

func (m *memoryResultRepo) Create(ctx context.Context, tx *gorm.DB, result *models.TestResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CompletedAt.IsZero() {
		result.CompletedAt = time.Now().UTC()
	}
	m.results[result.ID] = result
	return nil
}

func (m *memoryResultRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.TestResult, error) {
	if result, ok := m.results[id]; ok {
		return result, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryResultRepo) GetByIDWithLesson(ctx context.Context, tx *gorm.DB, id string) (*repositories.ResultWithLesson, error) {
	result, err := m.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	title := ""
	if lesson, ok := m.lessons[result.LessonID]; ok {
		title = lesson.Title
	}
	return &repositories.ResultWithLesson{TestResult: *result, LessonTitle: title}, nil
}

func (m *memoryResultRepo) GetByUserAndLesson(ctx context.Context, tx *gorm.DB, userID, lessonID string) (*models.TestResult, error) {
	for _, r := range m.results {
		if r.UserID == userID && r.LessonID == lessonID {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryResultRepo) DeleteByUserAndLesson(ctx context.Context, tx *gorm.DB, userID, lessonID string) error {
	for id, r := range m.results {
		if r.UserID == userID && r.LessonID == lessonID {
			delete(m.results, id)
		}
	}
	return nil
}

func (m *memoryResultRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.ResultFilters) ([]*repositories.ResultWithLesson, error) {
	var out []*repositories.ResultWithLesson
	for _, r := range m.results {
		if r.UserID != userID {
			continue
		}
		row, err := m.GetByIDWithLesson(ctx, tx, r.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

func (m *memoryResultRepo) CountByUser(ctx context.Context, tx *gorm.DB, userID string, passedOnly bool) (int64, error) {
	var count int64
	for _, r := range m.results {
		if r.UserID == userID && (!passedOnly || r.Passed) {
			count++
		}
	}
	return count, nil
}

func (m *memoryResultRepo) CountDistinctTakers(ctx context.Context, tx *gorm.DB, lessonID string) (int64, error) {
	seen := make(map[string]bool)
	for _, r := range m.results {
		if r.LessonID == lessonID {
			seen[r.UserID] = true
		}
	}
	return int64(len(seen)), nil
}

func (m *memoryResultRepo) GetLessonStats(ctx context.Context, tx *gorm.DB, lessonID string) (*repositories.LessonResultStats, error) {
	stats := &repositories.LessonResultStats{}
	var scoreSum, passed int
	for _, r := range m.results {
		if r.LessonID != lessonID {
			continue
		}
		stats.AttemptCount++
		scoreSum += r.Score
		if r.Passed {
			passed++
		}
	}
	if stats.AttemptCount > 0 {
		stats.AverageScore = float64(scoreSum) / float64(stats.AttemptCount)
		stats.PassRate = float64(passed) / float64(stats.AttemptCount) * 100
	}
	return stats, nil
}

func (m *memoryResultRepo) GetUserStats(ctx context.Context, tx *gorm.DB, userID string) (*repositories.UserResultStats, error) {
	stats := &repositories.UserResultStats{}
	var scoreSum int
	for _, r := range m.results {
		if r.UserID != userID {
			continue
		}
		stats.TotalTests++
		scoreSum += r.Score
		if r.Passed {
			stats.PassedTests++
		}
		if stats.LastTestAt == nil || r.CompletedAt.After(*stats.LastTestAt) {
			completed := r.CompletedAt
			stats.LastTestAt = &completed
		}
	}
	if stats.TotalTests > 0 {
		stats.AverageScore = float64(scoreSum) / float64(stats.TotalTests)
	}
	return stats, nil
}
