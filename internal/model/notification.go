package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Notification struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	RecipientID string         `gorm:"type:uuid;not null;index" json:"recipientId"`
	ItemID      string         `gorm:"type:uuid;index" json:"itemId"`
	Message     string         `gorm:"type:text;not null" json:"message"`
	Payload     datatypes.JSON `json:"payload,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
