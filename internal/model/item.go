package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ItemStatus is the state machine's source of truth. The two booleans on
// Item are kept consistent with it but never drive transitions themselves.
type ItemStatus string

const (
	StatusPending          ItemStatus = "pending"
	StatusAvailable        ItemStatus = "available"
	StatusClaimPending     ItemStatus = "claim-pending"
	StatusFounderConfirmed ItemStatus = "founder-confirmed"
	StatusClaimerConfirmed ItemStatus = "claimer-confirmed"
	StatusBothConfirmed    ItemStatus = "both-confirmed"
	StatusReunited         ItemStatus = "reunited"
)

// DisplayText returns the human-readable label for a status. Labels are
// derived from the enum, never stored.
func (s ItemStatus) DisplayText() string {
	switch s {
	case StatusPending:
		return "Awaiting approval"
	case StatusAvailable:
		return "Available"
	case StatusClaimPending:
		return "Claim pending"
	case StatusFounderConfirmed:
		return "Confirmed by founder"
	case StatusClaimerConfirmed:
		return "Confirmed by claimer"
	case StatusBothConfirmed:
		return "Both parties confirmed"
	case StatusReunited:
		return "Reunited"
	default:
		return string(s)
	}
}

// Item categories accepted on report submission.
const (
	CategoryElectronics = "electronics"
	CategoryClothing    = "clothing"
	CategoryDocuments   = "documents"
	CategoryAccessories = "accessories"
	CategoryKeys        = "keys"
	CategoryBooks       = "books"
	CategoryOther       = "other"
)

func ValidCategory(category string) bool {
	switch category {
	case CategoryElectronics, CategoryClothing, CategoryDocuments,
		CategoryAccessories, CategoryKeys, CategoryBooks, CategoryOther:
		return true
	}
	return false
}

type Item struct {
	ID                  string         `gorm:"type:uuid;primaryKey" json:"id"`
	FounderID           string         `gorm:"type:uuid;not null;index" json:"founderId"`
	Description         string         `gorm:"type:text;not null" json:"description"`
	Category            string         `gorm:"size:50;default:'other'" json:"category"`
	ImageURL            string         `json:"imageUrl,omitempty"`
	LocationDescription string         `gorm:"type:text" json:"locationDescription,omitempty"`
	FoundAt             time.Time      `gorm:"not null" json:"foundAt"`
	IsApproved          bool           `gorm:"not null;default:false;index" json:"isApproved"`
	Reunited            bool           `gorm:"not null;default:false" json:"reunited"`
	Status              ItemStatus     `gorm:"size:20;not null;default:'pending'" json:"status"`
	Embedding           datatypes.JSON `json:"-"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

func (Item) TableName() string {
	return "items"
}

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// EmbeddingVector decodes the stored embedding. A nil slice means the item
// has no usable embedding and is skipped by the search engine.
func (i *Item) EmbeddingVector() []float32 {
	if len(i.Embedding) == 0 {
		return nil
	}
	var vec []float32
	if err := json.Unmarshal(i.Embedding, &vec); err != nil {
		return nil
	}
	return vec
}

// SetEmbedding encodes the vector for storage as a bound JSON parameter.
func (i *Item) SetEmbedding(vec []float32) error {
	raw, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	i.Embedding = datatypes.JSON(raw)
	return nil
}
