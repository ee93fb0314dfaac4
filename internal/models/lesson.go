package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lesson holds the course material. Content URLs are only exposed to users
// with an access grant; listing metadata (title, description) is public.
type Lesson struct {
	ID          string `json:"id" gorm:"primaryKey;size:36"`
	Title       string `json:"title" gorm:"not null;size:200" validate:"required,max=200"`
	Description string `json:"description" gorm:"type:text"`

	VideoURL        *string `json:"video_url" gorm:"size:500"`
	PDFURL          *string `json:"pdf_url" gorm:"size:500"`
	PresentationURL *string `json:"presentation_url" gorm:"size:500"`

	Price       int64 `json:"price" gorm:"default:0"`
	IsPublished bool  `json:"is_published" gorm:"default:false;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:LessonID"`
}

func (Lesson) TableName() string {
	return "lessons"
}

func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
