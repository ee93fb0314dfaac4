package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PassingScore is the minimum score (percent) that counts as passing a test.
const PassingScore = 70

// AnswerRecord is one graded answer inside a stored test result.
type AnswerRecord struct {
	QuestionID     string `json:"question_id"`
	SelectedOption int    `json:"selected_option"`
	CorrectOption  int    `json:"correct_option"`
	Correct        bool   `json:"correct"`
}

// TestResult is the single stored outcome for a (user, lesson) pair. A new
// submission replaces the previous row; history is not kept.
type TestResult struct {
	ID       string `json:"id" gorm:"primaryKey;size:36"`
	UserID   string `json:"user_id" gorm:"not null;size:36;uniqueIndex:idx_user_lesson_result"`
	LessonID string `json:"lesson_id" gorm:"not null;size:36;uniqueIndex:idx_user_lesson_result"`

	Score          int  `json:"score" gorm:"not null"`
	CorrectAnswers int  `json:"correct_answers" gorm:"not null"`
	TotalQuestions int  `json:"total_questions" gorm:"not null"`
	Passed         bool `json:"passed" gorm:"not null;index"`

	Answers datatypes.JSONSlice[AnswerRecord] `json:"answers" gorm:"type:jsonb"`

	CompletedAt time.Time `json:"completed_at" gorm:"index"`

	// Relations
	User   User   `json:"-" gorm:"foreignKey:UserID"`
	Lesson Lesson `json:"-" gorm:"foreignKey:LessonID"`
}

func (TestResult) TableName() string {
	return "user_test_results"
}

func (r *TestResult) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CompletedAt.IsZero() {
		r.CompletedAt = time.Now().UTC()
	}
	return nil
}
