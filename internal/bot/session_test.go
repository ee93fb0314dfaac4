package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/edupath/learning-service/internal/models"
)

func newTestStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionStore(client), mr
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	session := &QuizSession{
		TelegramID: 42,
		LessonID:   "lesson-1",
		Questions: []*models.QuestionView{
			{ID: "q1", Text: "2 + 2 = ?", Options: []string{"3", "4"}},
			{ID: "q2", Text: "3 * 3 = ?", Options: []string{"6", "9"}},
		},
	}
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Get(ctx, 42, "lesson-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if loaded.LessonID != "lesson-1" || len(loaded.Questions) != 2 {
		t.Errorf("loaded session mismatch: %+v", loaded)
	}
	if loaded.Current() == nil || loaded.Current().ID != "q1" {
		t.Errorf("current question = %+v, want q1", loaded.Current())
	}
}

func TestSessionStore_ProgressSurvivesReload(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	session := &QuizSession{
		TelegramID: 42,
		LessonID:   "lesson-1",
		Questions: []*models.QuestionView{
			{ID: "q1", Options: []string{"a", "b"}},
			{ID: "q2", Options: []string{"a", "b"}},
		},
	}
	session.Answers = append(session.Answers, models.TestAnswerRequest{QuestionID: "q1", SelectedOption: 1})
	session.Index = 1
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Get(ctx, 42, "lesson-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if loaded.Index != 1 || len(loaded.Answers) != 1 {
		t.Errorf("progress lost: index=%d answers=%d", loaded.Index, len(loaded.Answers))
	}
	if loaded.Done() {
		t.Error("session reported done with one question left")
	}
}

func TestSessionStore_MissingAndExpired(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	if _, err := store.Get(ctx, 42, "none"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}

	session := &QuizSession{TelegramID: 42, LessonID: "lesson-1"}
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Sessions expire after the TTL
	mr.FastForward(SessionTTL + 1)
	if _, err := store.Get(ctx, 42, "lesson-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound after expiry", err)
	}
}

func TestSessionStore_Delete(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	session := &QuizSession{TelegramID: 42, LessonID: "lesson-1"}
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Delete(ctx, 42, "lesson-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, 42, "lesson-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound after delete", err)
	}
}

func TestSessionStore_Unavailable(t *testing.T) {
	store := NewSessionStore(nil)
	if store.Available() {
		t.Error("store with nil client reported available")
	}
	if err := store.Save(context.Background(), &QuizSession{}); err == nil {
		t.Error("Save on unavailable store did not fail")
	}
}
