package models

import (
	"time"

	"github.com/google/uuid"
)

// CalendarEvent is an entry in a user's personal schedule. It is not tied to
// a Session; users plan teaching, learning and meetings freely.
type CalendarEvent struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Date        time.Time `gorm:"not null" json:"date"`
	StartTime   string    `gorm:"size:5;not null" json:"start_time"`
	EndTime     string    `gorm:"size:5;not null" json:"end_time"`
	Skill       string    `gorm:"size:255;not null" json:"skill"`
	Type        string    `gorm:"size:20;not null;default:'teaching'" json:"type"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
