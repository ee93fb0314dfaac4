package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccessGrant unlocks a lesson for a user. The row's existence is the
// authorization; there is no revoked state and no expiry. Amount and Notes
// record the payment that unlocked the lesson.
type AccessGrant struct {
	ID       string `json:"id" gorm:"primaryKey;size:36"`
	UserID   string `json:"user_id" gorm:"not null;size:36;uniqueIndex:idx_user_lesson_grant"`
	LessonID string `json:"lesson_id" gorm:"not null;size:36;uniqueIndex:idx_user_lesson_grant"`

	Amount int64  `json:"amount" gorm:"default:0"`
	Notes  string `json:"notes" gorm:"type:text"`

	GrantedAt time.Time `json:"granted_at"`

	// Relations
	User   User   `json:"-" gorm:"foreignKey:UserID"`
	Lesson Lesson `json:"-" gorm:"foreignKey:LessonID"`
}

func (AccessGrant) TableName() string {
	return "user_lesson_access"
}

func (a *AccessGrant) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.GrantedAt.IsZero() {
		a.GrantedAt = time.Now().UTC()
	}
	return nil
}
