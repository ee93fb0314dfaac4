package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MinQuestionOptions = 2
	MaxQuestionOptions = 10
)

// Question is a multiple-choice test question attached to a lesson. Options
// are stored as JSONB; CorrectOption is an index into Options and is never
// included in test-taking responses.
type Question struct {
	ID       string `json:"id" gorm:"primaryKey;size:36"`
	LessonID string `json:"lesson_id" gorm:"not null;index;size:36"`

	Text          string                      `json:"question_text" gorm:"type:text;not null" validate:"required"`
	Options       datatypes.JSONSlice[string] `json:"options" gorm:"type:jsonb"`
	CorrectOption int                         `json:"correct_option" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Lesson Lesson `json:"-" gorm:"foreignKey:LessonID"`
}

func (Question) TableName() string {
	return "test_questions"
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}
