package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClaimRequest is one attempt by a user to claim an item. Rows are never
// deleted, even when the item is; they are the audit trail and, once
// admin-approved, the claimed-item association.
type ClaimRequest struct {
	ID               string     `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID           string     `gorm:"type:uuid;not null;index" json:"itemId"`
	ClaimerID        string     `gorm:"type:uuid;not null;index" json:"claimerId"`
	FounderConfirmed bool       `gorm:"not null;default:false" json:"founderConfirmed"`
	ClaimerConfirmed bool       `gorm:"not null;default:false" json:"claimerConfirmed"`
	AdminApproved    bool       `gorm:"not null;default:false" json:"adminApproved"`
	Status           ItemStatus `gorm:"size:20;not null;default:'claim-pending'" json:"status"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func (ClaimRequest) TableName() string {
	return "claim_requests"
}

func (c *ClaimRequest) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Open reports whether the claim is still in flight.
func (c *ClaimRequest) Open() bool {
	return !c.AdminApproved
}

// ConfirmationStatus derives the claim status from the two flags. Both set
// yields both-confirmed regardless of which confirmation arrived last.
func (c *ClaimRequest) ConfirmationStatus() ItemStatus {
	switch {
	case c.FounderConfirmed && c.ClaimerConfirmed:
		return StatusBothConfirmed
	case c.FounderConfirmed:
		return StatusFounderConfirmed
	case c.ClaimerConfirmed:
		return StatusClaimerConfirmed
	default:
		return StatusClaimPending
	}
}
