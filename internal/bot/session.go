package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/edupath/learning-service/internal/models"
)

// SessionTTL bounds how long an in-flight quiz survives without activity.
// Losing a session loses only the unfinished quiz, never stored data.
const SessionTTL = 30 * time.Minute

var ErrSessionNotFound = errors.New("quiz session not found")

// QuizSession is the conversational state of one user taking one lesson's
// test. It lives in Redis, not in process memory, so a restart does not
// strand the user mid-quiz.
type QuizSession struct {
	TelegramID int64                      `json:"telegram_id"`
	LessonID   string                     `json:"lesson_id"`
	Questions  []*models.QuestionView     `json:"questions"`
	Index      int                        `json:"index"`
	Answers    []models.TestAnswerRequest `json:"answers"`
	StartedAt  time.Time                  `json:"started_at"`
}

func (s *QuizSession) Current() *models.QuestionView {
	if s.Index < 0 || s.Index >= len(s.Questions) {
		return nil
	}
	return s.Questions[s.Index]
}

func (s *QuizSession) Done() bool {
	return s.Index >= len(s.Questions)
}

// SessionStore keeps quiz sessions in Redis keyed by telegram id and lesson
// id, each refreshed to the TTL on every write.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (ss *SessionStore) Available() bool {
	return ss.client != nil
}

func (ss *SessionStore) Save(ctx context.Context, session *QuizSession) error {
	if ss.client == nil {
		return fmt.Errorf("session store unavailable: no redis connection")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	key := sessionKey(session.TelegramID, session.LessonID)
	if err := ss.client.Set(ctx, key, data, SessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (ss *SessionStore) Get(ctx context.Context, telegramID int64, lessonID string) (*QuizSession, error) {
	if ss.client == nil {
		return nil, fmt.Errorf("session store unavailable: no redis connection")
	}

	data, err := ss.client.Get(ctx, sessionKey(telegramID, lessonID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session QuizSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

func (ss *SessionStore) Delete(ctx context.Context, telegramID int64, lessonID string) error {
	if ss.client == nil {
		return nil
	}
	if err := ss.client.Del(ctx, sessionKey(telegramID, lessonID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func sessionKey(telegramID int64, lessonID string) string {
	return fmt.Sprintf("botsession:%d:%s", telegramID, lessonID)
}
