// Package workflow implements the claim-and-reconciliation state machine:
// report -> approve -> claim -> dual confirmation -> reunite. Every
// transition runs in a single transaction together with the notification it
// produces, so a failed mutation leaves no partial side effects.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/apperr"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/embedding"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/middleware"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/model"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/search"
	"gorm.io/gorm"
)

// Points credited by moderation transitions.
const (
	PointsOnApproval = 20
	PointsOnReunion  = 100
)

type Service struct {
	db       *gorm.DB
	embedder embedding.Embedder
}

func NewService(db *gorm.DB, embedder embedding.Embedder) *Service {
	return &Service{db: db, embedder: embedder}
}

type ReportInput struct {
	Description         string
	Category            string
	ImageURL            string
	LocationDescription string
	FoundAt             time.Time
}

// Report creates a found-item report. The item starts pending and
// unapproved, with its embedding computed from the description up front.
func (s *Service) Report(ctx context.Context, founderID string, in ReportInput) (*model.Item, error) {
	if founderID == "" {
		return nil, apperr.Validation("founderId is required")
	}
	if in.Description == "" {
		return nil, apperr.Validation("description is required")
	}
	if in.FoundAt.IsZero() {
		return nil, apperr.Validation("foundAt is required")
	}
	if in.Category == "" {
		in.Category = model.CategoryOther
	}
	if !model.ValidCategory(in.Category) {
		return nil, apperr.Validation("unknown category %q", in.Category)
	}

	if err := s.findUser(ctx, founderID); err != nil {
		return nil, err
	}

	// Embed before touching the store so a provider outage writes nothing.
	vec, err := s.embedder.Embed(ctx, search.Normalize(in.Description))
	if err != nil {
		return nil, err
	}

	item := &model.Item{
		FounderID:           founderID,
		Description:         in.Description,
		Category:            in.Category,
		ImageURL:            in.ImageURL,
		LocationDescription: in.LocationDescription,
		FoundAt:             in.FoundAt,
		Status:              model.StatusPending,
	}
	if err := item.SetEmbedding(vec); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, apperr.Upstream("item insert", err)
	}

	middleware.RecordClaimTransition("report")
	return item, nil
}

// Approve flips a pending report to available and credits the founder.
// Idempotent: approving an already-approved item is a no-op and must not
// credit points a second time, which the guarded UPDATE guarantees even
// under concurrent requests.
func (s *Service) Approve(ctx context.Context, itemID string) (*model.Item, error) {
	var item model.Item

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, "id = ?", itemID).Error; err != nil {
			return itemErr(itemID, err)
		}

		res := tx.Model(&model.Item{}).
			Where("id = ? AND is_approved = ?", itemID, false).
			Updates(map[string]interface{}{
				"is_approved": true,
				"status":      model.StatusAvailable,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Already approved; nothing else to do.
			return nil
		}

		if err := creditPoints(tx, item.FounderID, PointsOnApproval); err != nil {
			return err
		}

		msg := fmt.Sprintf("Your report %q was approved. You earned %d points.",
			shorten(item.Description), PointsOnApproval)
		return notify(tx, item.FounderID, item.ID, msg, nil)
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		return nil, itemErr(itemID, err)
	}

	middleware.RecordClaimTransition("approve")
	return &item, nil
}

// Reject removes a pending report. The founder is notified inside the same
// transaction, before the row disappears.
func (s *Service) Reject(ctx context.Context, itemID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item model.Item
		if err := tx.First(&item, "id = ?", itemID).Error; err != nil {
			return itemErr(itemID, err)
		}
		if item.IsApproved {
			return apperr.Conflict("only pending reports can be rejected")
		}

		msg := fmt.Sprintf("Your report %q was rejected and removed.", shorten(item.Description))
		if err := notify(tx, item.FounderID, item.ID, msg, nil); err != nil {
			return err
		}

		return tx.Delete(&model.Item{}, "id = ?", itemID).Error
	})
	if err == nil {
		middleware.RecordClaimTransition("reject")
	}
	return err
}

// Claim records a claim attempt against an approved item. Concurrent claims
// on one item are not blocked; the newest open claim is the active one.
func (s *Service) Claim(ctx context.Context, itemID, claimerID string) (*model.ClaimRequest, error) {
	var claim *model.ClaimRequest

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item model.Item
		if err := tx.First(&item, "id = ?", itemID).Error; err != nil {
			return itemErr(itemID, err)
		}

		var claimer model.User
		if err := tx.First(&claimer, "id = ?", claimerID).Error; err != nil {
			return userErr(claimerID, err)
		}

		if !item.IsApproved {
			return apperr.Conflict("item is not available for claims")
		}
		if item.Reunited {
			return apperr.Conflict("item has already been reunited")
		}
		if item.FounderID == claimerID {
			return apperr.Conflict("cannot claim your own report")
		}

		claim = &model.ClaimRequest{
			ItemID:    item.ID,
			ClaimerID: claimerID,
			Status:    model.StatusClaimPending,
		}
		if err := tx.Create(claim).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.Item{}).Where("id = ?", item.ID).
			Update("status", model.StatusClaimPending).Error; err != nil {
			return err
		}

		msg := fmt.Sprintf("%s wants to claim your item %q. Confirm the claim once you have verified ownership.",
			claimer.ContactLine(), shorten(item.Description))
		return notify(tx, item.FounderID, item.ID, msg, map[string]string{
			"claimId":      claim.ID,
			"claimerId":    claimer.ID,
			"claimerEmail": claimer.Email,
			"claimerPhone": claimer.Phone,
		})
	})
	if err != nil {
		return nil, err
	}

	middleware.RecordClaimTransition("claim")
	return claim, nil
}

// ConfirmByFounder records the founder's confirmation on the newest open
// claim for the item. Commutative with ConfirmByClaimer: whichever side
// confirms second promotes the claim to both-confirmed.
func (s *Service) ConfirmByFounder(ctx context.Context, itemID, callerID string) (*model.ClaimRequest, error) {
	var claim model.ClaimRequest

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item model.Item
		if err := tx.First(&item, "id = ?", itemID).Error; err != nil {
			return itemErr(itemID, err)
		}
		if item.FounderID != callerID {
			return apperr.Conflict("only the founder may confirm this claim")
		}

		err := tx.Where("item_id = ? AND admin_approved = ?", itemID, false).
			Order("created_at DESC").First(&claim).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Conflict("no open claim for this item")
			}
			return err
		}

		claim.FounderConfirmed = true
		return applyConfirmation(tx, &claim)
	})
	if err != nil {
		return nil, err
	}

	middleware.RecordClaimTransition("founder-confirm")
	return &claim, nil
}

// ConfirmByClaimer records the claimer's confirmation on their own claim.
func (s *Service) ConfirmByClaimer(ctx context.Context, claimID, callerID string) (*model.ClaimRequest, error) {
	var claim model.ClaimRequest

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&claim, "id = ?", claimID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("claim", claimID)
			}
			return err
		}
		if claim.ClaimerID != callerID {
			return apperr.Conflict("claim belongs to another user")
		}
		if !claim.Open() {
			return apperr.Conflict("claim is already completed")
		}

		claim.ClaimerConfirmed = true
		return applyConfirmation(tx, &claim)
	})
	if err != nil {
		return nil, err
	}

	middleware.RecordClaimTransition("claimer-confirm")
	return &claim, nil
}

// applyConfirmation persists a confirmation flag and keeps claim and item
// status strings derived from the flags. The re-read of both flags happens
// inside the caller's transaction, so two concurrent confirmations still
// converge on both-confirmed.
func applyConfirmation(tx *gorm.DB, claim *model.ClaimRequest) error {
	claim.Status = claim.ConfirmationStatus()

	if err := tx.Model(&model.ClaimRequest{}).Where("id = ?", claim.ID).
		Updates(map[string]interface{}{
			"founder_confirmed": claim.FounderConfirmed,
			"claimer_confirmed": claim.ClaimerConfirmed,
			"status":            claim.Status,
		}).Error; err != nil {
		return err
	}

	// The item may have been admin-deleted; claims outlive it.
	return tx.Model(&model.Item{}).Where("id = ? AND reunited = ?", claim.ItemID, false).
		Update("status", claim.Status).Error
}

// Reunite promotes a fully-confirmed claim: the claim becomes the recorded
// claimed-item association, the item reaches its terminal state and the
// founder is credited exactly once.
func (s *Service) Reunite(ctx context.Context, itemID string) (*model.Item, error) {
	var item model.Item

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, "id = ?", itemID).Error; err != nil {
			return itemErr(itemID, err)
		}

		var claim model.ClaimRequest
		err := tx.Where("item_id = ? AND founder_confirmed = ? AND claimer_confirmed = ? AND admin_approved = ?",
			itemID, true, true, false).
			Order("created_at DESC").First(&claim).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Conflict("claim is not confirmed by both parties")
			}
			return err
		}

		// Guarded promotion: a concurrent reunite sees zero rows here.
		res := tx.Model(&model.ClaimRequest{}).
			Where("id = ? AND admin_approved = ?", claim.ID, false).
			Updates(map[string]interface{}{
				"admin_approved": true,
				"status":         model.StatusReunited,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("claim was already completed")
		}

		if err := tx.Model(&model.Item{}).Where("id = ?", itemID).
			Updates(map[string]interface{}{
				"reunited": true,
				"status":   model.StatusReunited,
			}).Error; err != nil {
			return err
		}

		if err := creditPoints(tx, item.FounderID, PointsOnReunion); err != nil {
			return err
		}

		msg := fmt.Sprintf("Your item %q was reunited with its owner. You earned %d points.",
			shorten(item.Description), PointsOnReunion)
		return notify(tx, item.FounderID, item.ID, msg, map[string]string{
			"claimId": claim.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		return nil, itemErr(itemID, err)
	}

	middleware.RecordClaimTransition("reunite")
	return &item, nil
}

// Delete hard-deletes an approved item on admin request. Claim rows stay.
func (s *Service) Delete(ctx context.Context, itemID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item model.Item
		if err := tx.First(&item, "id = ?", itemID).Error; err != nil {
			return itemErr(itemID, err)
		}
		if !item.IsApproved {
			return apperr.Conflict("pending reports are removed via reject")
		}

		msg := fmt.Sprintf("Your item %q was removed by an administrator.", shorten(item.Description))
		if err := notify(tx, item.FounderID, item.ID, msg, nil); err != nil {
			return err
		}

		return tx.Delete(&model.Item{}, "id = ?", itemID).Error
	})
	if err == nil {
		middleware.RecordClaimTransition("admin-delete")
	}
	return err
}

// Reembed recomputes and stores the embedding for one item. Used by the
// admin maintenance route and the backfill scheduler after an embedding
// model migration.
func (s *Service) Reembed(ctx context.Context, itemID string) (*model.Item, error) {
	var item model.Item
	if err := s.db.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		return nil, itemErr(itemID, err)
	}

	vec, err := s.embedder.Embed(ctx, search.Normalize(item.Description))
	if err != nil {
		return nil, err
	}
	if err := item.SetEmbedding(vec); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&model.Item{}).Where("id = ?", item.ID).
		Update("embedding", item.Embedding).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Service) findUser(ctx context.Context, userID string) error {
	var user model.User
	if err := s.db.WithContext(ctx).Select("id").First(&user, "id = ?", userID).Error; err != nil {
		return userErr(userID, err)
	}
	return nil
}

func creditPoints(tx *gorm.DB, userID string, amount int) error {
	return tx.Model(&model.User{}).Where("id = ?", userID).
		Update("points", gorm.Expr("points + ?", amount)).Error
}

// notify inserts a notification row inside the caller's transaction so the
// transition and its message commit or roll back together.
func notify(tx *gorm.DB, recipientID, itemID, message string, payload map[string]string) error {
	n := model.Notification{
		RecipientID: recipientID,
		ItemID:      itemID,
		Message:     message,
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		n.Payload = raw
	}
	return tx.Create(&n).Error
}

func itemErr(itemID string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("item", itemID)
	}
	return err
}

func userErr(userID string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("user", userID)
	}
	return err
}

func shorten(description string) string {
	const max = 60
	runes := []rune(description)
	if len(runes) <= max {
		return description
	}
	return string(runes[:max]) + "..."
}
