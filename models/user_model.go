package models

import (
	"time"

	"github.com/google/uuid"
)

// StartingCredits is the balance every account opens with.
const StartingCredits = 3

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FirstName    string    `gorm:"size:100;not null" json:"first_name"`
	LastName     string    `gorm:"size:100;not null" json:"last_name"`
	Email        string    `gorm:"size:255;not null;unique" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Username     *string   `gorm:"size:100" json:"username,omitempty"`

	Skills       []string `gorm:"type:jsonb;serializer:json" json:"skills"`
	SkillsWanted []string `gorm:"type:jsonb;serializer:json" json:"skills_wanted"`

	Credits int      `gorm:"not null;default:3" json:"credits"`
	Rating  float64  `gorm:"type:numeric(2,1);not null;default:0" json:"rating"`
	Reviews []Review `gorm:"foreignKey:RevieweeID" json:"reviews,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// PublicUser is the profile shape other users get to see.
type PublicUser struct {
	ID           uuid.UUID `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Skills       []string  `json:"skills"`
	SkillsWanted []string  `json:"skills_wanted"`
	Rating       float64   `json:"rating"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		Skills:       u.Skills,
		SkillsWanted: u.SkillsWanted,
		Rating:       u.Rating,
	}
}
