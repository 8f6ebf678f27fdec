package workflow

import (
	"context"
	"errors"

	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/model"
	"gorm.io/gorm"
)

// ItemWithClaim is a founder's report together with its newest claim, if
// any, so the frontend can render confirmation state in one round trip.
type ItemWithClaim struct {
	model.Item
	Claim *model.ClaimRequest `json:"claim,omitempty"`
}

// ItemsByFounder lists a founder's reports ordered by most-recently-changed.
func (s *Service) ItemsByFounder(ctx context.Context, founderID string) ([]ItemWithClaim, error) {
	var items []model.Item
	err := s.db.WithContext(ctx).
		Where("founder_id = ?", founderID).
		Order("updated_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []ItemWithClaim{}, nil
	}

	itemIDs := make([]string, len(items))
	for i, item := range items {
		itemIDs[i] = item.ID
	}

	var claims []model.ClaimRequest
	err = s.db.WithContext(ctx).
		Where("item_id IN ?", itemIDs).
		Order("created_at DESC").
		Find(&claims).Error
	if err != nil {
		return nil, err
	}

	// Claims arrive newest-first, so the first claim seen per item wins.
	newest := make(map[string]*model.ClaimRequest, len(claims))
	for i := range claims {
		if _, ok := newest[claims[i].ItemID]; !ok {
			newest[claims[i].ItemID] = &claims[i]
		}
	}

	out := make([]ItemWithClaim, len(items))
	for i, item := range items {
		out[i] = ItemWithClaim{Item: item, Claim: newest[item.ID]}
	}
	return out, nil
}

// ClaimedItem is one of a user's claims joined with the item and the
// founder's contact details.
type ClaimedItem struct {
	Claim        model.ClaimRequest `json:"claim"`
	Item         *model.Item        `json:"item,omitempty"`
	FounderName  string             `json:"founderName,omitempty"`
	FounderEmail string             `json:"founderEmail,omitempty"`
	FounderPhone string             `json:"founderPhone,omitempty"`
}

// ClaimedByUser lists the items a user has claimed, newest claim first.
// Claims whose item was deleted keep their row with a nil item.
func (s *Service) ClaimedByUser(ctx context.Context, userID string) ([]ClaimedItem, error) {
	var claims []model.ClaimRequest
	err := s.db.WithContext(ctx).
		Where("claimer_id = ?", userID).
		Order("created_at DESC").
		Find(&claims).Error
	if err != nil {
		return nil, err
	}

	out := make([]ClaimedItem, 0, len(claims))
	for _, claim := range claims {
		entry := ClaimedItem{Claim: claim}

		var item model.Item
		if err := s.db.WithContext(ctx).First(&item, "id = ?", claim.ItemID).Error; err == nil {
			entry.Item = &item

			var founder model.User
			if err := s.db.WithContext(ctx).First(&founder, "id = ?", item.FounderID).Error; err == nil {
				entry.FounderName = founder.Name
				entry.FounderEmail = founder.Email
				entry.FounderPhone = founder.Phone
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		out = append(out, entry)
	}
	return out, nil
}
