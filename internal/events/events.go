package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "learning-service"
	EventVersion = "1.0"
)

// Event types published by the service.
const (
	EventUserRegistered  = "user.registered"
	EventAccessGranted   = "access.granted"
	EventTestSubmitted   = "test.submitted"
	EventLessonPublished = "lesson.published"
)

// Event is the envelope for every message published to the event bus.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent builds an envelope with generated id and current timestamp.
func NewEvent(eventType string, data interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// EventPublisher abstracts the outbound event bus.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// ===== EVENT PAYLOADS =====

type UserRegisteredEvent struct {
	UserID     string `json:"user_id"`
	TelegramID int64  `json:"telegram_id"`
	FullName   string `json:"full_name"`
}

type AccessGrantedEvent struct {
	GrantID  string `json:"grant_id"`
	UserID   string `json:"user_id"`
	LessonID string `json:"lesson_id"`
	Amount   int64  `json:"amount"`
}

type TestSubmittedEvent struct {
	ResultID       string `json:"result_id"`
	UserID         string `json:"user_id"`
	LessonID       string `json:"lesson_id"`
	Score          int    `json:"score"`
	Passed         bool   `json:"passed"`
	TotalQuestions int    `json:"total_questions"`
}

type LessonPublishedEvent struct {
	LessonID string `json:"lesson_id"`
	Title    string `json:"title"`
}
