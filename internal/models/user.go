package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a learner registered through the Telegram bot. TelegramID is the
// external identity; the service never authenticates bot calls beyond it.
type User struct {
	ID          string `json:"id" gorm:"primaryKey;size:36"`
	TelegramID  int64  `json:"telegram_id" gorm:"uniqueIndex;not null"`
	FullName    string `json:"full_name" gorm:"not null;size:100"`
	PhoneNumber string `json:"phone_number" gorm:"size:20"`

	JoinedAt  time.Time `json:"joined_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.JoinedAt.IsZero() {
		u.JoinedAt = time.Now().UTC()
	}
	return nil
}
