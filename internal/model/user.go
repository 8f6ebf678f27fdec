package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Name      string    `gorm:"size:255" json:"name"`
	Phone     string    `gorm:"size:30" json:"phone"`
	Points    int       `gorm:"not null;default:0" json:"points"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// ContactLine renders the contact details embedded in claim notifications.
func (u *User) ContactLine() string {
	if u.Phone != "" {
		return u.Name + " (" + u.Email + ", " + u.Phone + ")"
	}
	return u.Name + " (" + u.Email + ")"
}
