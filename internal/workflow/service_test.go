package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/apperr"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/database"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testVocab = []string{"backpack", "library", "umbrella", "charger", "laptop", "blue", "black"}

type fakeEmbedder struct {
	fail  bool
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.fail {
		return nil, apperr.Upstream("embedding", errors.New("provider down"))
	}
	f.calls++

	// Bag-of-words vector so related texts have nonzero cosine similarity.
	vec := make([]float32, len(testVocab)+1)
	for i, w := range testVocab {
		if strings.Contains(text, w) {
			vec[i] = 1
		}
	}
	vec[len(testVocab)] = 0.1
	return vec, nil
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *fakeEmbedder) {
	t.Helper()
	db := database.NewTestDB(t)
	embedder := &fakeEmbedder{}
	return NewService(db, embedder), db, embedder
}

func seedUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, Name: strings.Split(email, "@")[0], Phone: "+1-555-0000"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func reportItem(t *testing.T, svc *Service, founderID, description string) *model.Item {
	t.Helper()
	item, err := svc.Report(context.Background(), founderID, ReportInput{
		Description: description,
		FoundAt:     time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)
	return item
}

func notificationCount(t *testing.T, db *gorm.DB, recipientID string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&model.Notification{}).Where("recipient_id = ?", recipientID).Count(&count).Error)
	return count
}

func userPoints(t *testing.T, db *gorm.DB, userID string) int {
	t.Helper()
	var user model.User
	require.NoError(t, db.First(&user, "id = ?", userID).Error)
	return user.Points
}

func TestReportDefaults(t *testing.T) {
	svc, db, _ := newTestService(t)
	founder := seedUser(t, db, "mira@campus.edu")

	item := reportItem(t, svc, founder.ID, "blue backpack near the library")

	assert.False(t, item.IsApproved)
	assert.False(t, item.Reunited)
	assert.Equal(t, model.StatusPending, item.Status)
	assert.NotEmpty(t, item.ID)
	assert.NotEmpty(t, item.EmbeddingVector(), "embedding must be computed at creation time")
}

func TestReportValidation(t *testing.T) {
	svc, db, _ := newTestService(t)
	founder := seedUser(t, db, "mira@campus.edu")
	ctx := context.Background()

	var validation *apperr.ValidationError

	_, err := svc.Report(ctx, "", ReportInput{Description: "x", FoundAt: time.Now()})
	assert.ErrorAs(t, err, &validation)

	_, err = svc.Report(ctx, founder.ID, ReportInput{FoundAt: time.Now()})
	assert.ErrorAs(t, err, &validation)

	_, err = svc.Report(ctx, founder.ID, ReportInput{Description: "x"})
	assert.ErrorAs(t, err, &validation)

	_, err = svc.Report(ctx, founder.ID, ReportInput{Description: "x", Category: "starships", FoundAt: time.Now()})
	assert.ErrorAs(t, err, &validation)
}

func TestReportUnknownFounder(t *testing.T) {
	svc, _, _ := newTestService(t)

	var notFound *apperr.NotFoundError
	_, err := svc.Report(context.Background(), "00000000-0000-0000-0000-000000000000", ReportInput{
		Description: "black umbrella",
		FoundAt:     time.Now(),
	})
	assert.ErrorAs(t, err, &notFound)
}

func TestReportEmbeddingFailureWritesNothing(t *testing.T) {
	svc, db, embedder := newTestService(t)
	founder := seedUser(t, db, "mira@campus.edu")
	embedder.fail = true

	var upstream *apperr.UpstreamError
	_, err := svc.Report(context.Background(), founder.ID, ReportInput{
		Description: "black umbrella",
		FoundAt:     time.Now(),
	})
	require.ErrorAs(t, err, &upstream)

	var count int64
	db.Model(&model.Item{}).Count(&count)
	assert.Zero(t, count, "a failed report must not leave a partial row")
}

func TestApproveIdempotent(t *testing.T) {
	svc, db, _ := newTestService(t)
	founder := seedUser(t, db, "mira@campus.edu")
	item := reportItem(t, svc, founder.ID, "blue backpack near the library")
	ctx := context.Background()

	approved, err := svc.Approve(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)
	assert.Equal(t, model.StatusAvailable, approved.Status)
	assert.Equal(t, PointsOnApproval, userPoints(t, db, founder.ID))
	assert.EqualValues(t, 1, notificationCount(t, db, founder.ID))

	// Second approve is a no-op, not an error, and must not double-credit.
	again, err := svc.Approve(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, again.IsApproved)
	assert.Equal(t, PointsOnApproval, userPoints(t, db, founder.ID))
	assert.EqualValues(t, 1, notificationCount(t, db, founder.ID))
}

func TestApproveUnknownItem(t *testing.T) {
	svc, _, _ := newTestService(t)

	var notFound *apperr.NotFoundError
	_, err := svc.Approve(context.Background(), "missing")
	assert.ErrorAs(t, err, &notFound)
}

func TestRejectRemovesItemAndNotifies(t *testing.T) {
	svc, db, _ := newTestService(t)
	founder := seedUser(t, db, "mira@campus.edu")
	item := reportItem(t, svc, founder.ID, "silver charger")
	ctx := context.Background()

	require.NoError(t, svc.Reject(ctx, item.ID))

	var gone model.Item
	err := db.First(&gone, "id = ?", item.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.EqualValues(t, 1, notificationCount(t, db, founder.ID))

	var notFound *apperr.NotFoundError
	assert.ErrorAs(t, svc.Reject(ctx, item.ID), &notFound)
}

func TestRejectApprovedItemConflicts(t *testing.T) {
	svc, db, _ := newTestService(t)
	founder := seedUser(t, db, "mira@campus.edu")
	item := reportItem(t, svc, founder.ID, "silver charger")
	ctx := context.Background()

	_, err := svc.Approve(ctx, item.ID)
	require.NoError(t, err)

	var conflict *apperr.ConflictError
	assert.ErrorAs(t, svc.Reject(ctx, item.ID), &conflict)
}

func TestClaimPreconditions(t *testing.T) {
	svc, db, _ := newTestService(t)
	founder := seedUser(t, db, "mira@campus.edu")
	claimer := seedUser(t, db, "jon@campus.edu")
	item := reportItem(t, svc, founder.ID, "blue backpack near the library")
	ctx := context.Background()

	var conflict *apperr.ConflictError

	// Unapproved items cannot be claimed.
	_, err := svc.Claim(ctx, item.ID, claimer.ID)
	assert.ErrorAs(t, err, &conflict)

	_, err = svc.Approve(ctx, item.ID)
	require.NoError(t, err)

	// Founders cannot claim their own reports.
	_, err = svc.Claim(ctx, item.ID, founder.ID)
	assert.ErrorAs(t, err, &conflict)

	claim, err := svc.Claim(ctx, item.ID, claimer.ID)
	require.NoError(t, err)
	assert.False(t, claim.FounderConfirmed)
	assert.False(t, claim.ClaimerConfirmed)
	assert.Equal(t, model.StatusClaimPending, claim.Status)

	var updated model.Item
	require.NoError(t, db.First(&updated, "id = ?", item.ID).Error)
	assert.Equal(t, model.StatusClaimPending, updated.Status)
}

func TestClaimNotifiesFounderWithContact(t *testing.T) {
	svc, db, _ := newTestService(t)
	founder := seedUser(t, db, "mira@campus.edu")
	claimer := seedUser(t, db, "jon@campus.edu")
	item := reportItem(t, svc, founder.ID, "blue backpack near the library")
	ctx := context.Background()

	_, err := svc.Approve(ctx, item.ID)
	require.NoError(t, err)
	_, err = svc.Claim(ctx, item.ID, claimer.ID)
	require.NoError(t, err)

	var latest model.Notification
	require.NoError(t, db.Where("recipient_id = ?", founder.ID).Order("created_at DESC").First(&latest).Error)
	assert.Contains(t, latest.Message, claimer.Email, "claimer contact details belong in the message text")
	assert.NotEmpty(t, latest.Payload)
}

func setupClaimedItem(t *testing.T) (*Service, *gorm.DB, *model.User, *model.User, *model.Item, *model.ClaimRequest) {
	t.Helper()
	svc, db, _ := newTestService(t)
	founder := seedUser(t, db, "mira@campus.edu")
	claimer := seedUser(t, db, "jon@campus.edu")
	item := reportItem(t, svc, founder.ID, "blue backpack near the library")
	ctx := context.Background()

	_, err := svc.Approve(ctx, item.ID)
	require.NoError(t, err)
	claim, err := svc.Claim(ctx, item.ID, claimer.ID)
	require.NoError(t, err)

	return svc, db, founder, claimer, item, claim
}

func TestConfirmationsAreCommutative(t *testing.T) {
	ctx := context.Background()

	// Founder first, then claimer.
	svc, db, founder, claimer, item, claim := setupClaimedItem(t)
	first, err := svc.ConfirmByFounder(ctx, item.ID, founder.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFounderConfirmed, first.Status)

	second, err := svc.ConfirmByClaimer(ctx, claim.ID, claimer.ID)
	require.NoError(t, err)
	assert.True(t, second.FounderConfirmed)
	assert.True(t, second.ClaimerConfirmed)
	assert.Equal(t, model.StatusBothConfirmed, second.Status)

	var itemState model.Item
	require.NoError(t, db.First(&itemState, "id = ?", item.ID).Error)
	assert.Equal(t, model.StatusBothConfirmed, itemState.Status)

	// Claimer first, then founder, must converge on the same state.
	svc, db, founder, claimer, item, claim = setupClaimedItem(t)
	first, err = svc.ConfirmByClaimer(ctx, claim.ID, claimer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusClaimerConfirmed, first.Status)

	second, err = svc.ConfirmByFounder(ctx, item.ID, founder.ID)
	require.NoError(t, err)
	assert.True(t, second.FounderConfirmed)
	assert.True(t, second.ClaimerConfirmed)
	assert.Equal(t, model.StatusBothConfirmed, second.Status)

	itemState = model.Item{}
	require.NoError(t, db.First(&itemState, "id = ?", item.ID).Error)
	assert.Equal(t, model.StatusBothConfirmed, itemState.Status)
}

func TestConfirmRoleChecks(t *testing.T) {
	svc, _, founder, claimer, item, claim := setupClaimedItem(t)
	ctx := context.Background()

	var conflict *apperr.ConflictError

	// Only the founder confirms as founder.
	_, err := svc.ConfirmByFounder(ctx, item.ID, claimer.ID)
	assert.ErrorAs(t, err, &conflict)

	// Only the claim's owner confirms as claimer.
	_, err = svc.ConfirmByClaimer(ctx, claim.ID, founder.ID)
	assert.ErrorAs(t, err, &conflict)
}

func TestConfirmWithoutClaimConflicts(t *testing.T) {
	svc, db, _ := newTestService(t)
	founder := seedUser(t, db, "mira@campus.edu")
	item := reportItem(t, svc, founder.ID, "black umbrella")
	ctx := context.Background()

	_, err := svc.Approve(ctx, item.ID)
	require.NoError(t, err)

	var conflict *apperr.ConflictError
	_, err = svc.ConfirmByFounder(ctx, item.ID, founder.ID)
	assert.ErrorAs(t, err, &conflict)
}

func TestReuniteRequiresBothFlags(t *testing.T) {
	svc, _, founder, _, item, _ := setupClaimedItem(t)
	ctx := context.Background()

	var conflict *apperr.ConflictError

	// No confirmation at all.
	_, err := svc.Reunite(ctx, item.ID)
	assert.ErrorAs(t, err, &conflict)

	// One-sided confirmation is not enough.
	_, err = svc.ConfirmByFounder(ctx, item.ID, founder.ID)
	require.NoError(t, err)
	_, err = svc.Reunite(ctx, item.ID)
	assert.ErrorAs(t, err, &conflict)
}

func TestReuniteCreditsFounderOnce(t *testing.T) {
	svc, db, founder, claimer, item, claim := setupClaimedItem(t)
	ctx := context.Background()

	_, err := svc.ConfirmByFounder(ctx, item.ID, founder.ID)
	require.NoError(t, err)
	_, err = svc.ConfirmByClaimer(ctx, claim.ID, claimer.ID)
	require.NoError(t, err)

	pointsBefore := userPoints(t, db, founder.ID)

	reunited, err := svc.Reunite(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, reunited.Reunited)
	assert.Equal(t, model.StatusReunited, reunited.Status)
	assert.True(t, reunited.IsApproved, "reunited implies approved")
	assert.Equal(t, pointsBefore+PointsOnReunion, userPoints(t, db, founder.ID))

	var promoted model.ClaimRequest
	require.NoError(t, db.First(&promoted, "id = ?", claim.ID).Error)
	assert.True(t, promoted.AdminApproved)
	assert.Equal(t, model.StatusReunited, promoted.Status)

	// A second reunite finds no open fully-confirmed claim.
	var conflict *apperr.ConflictError
	_, err = svc.Reunite(ctx, item.ID)
	assert.ErrorAs(t, err, &conflict)
	assert.Equal(t, pointsBefore+PointsOnReunion, userPoints(t, db, founder.ID))
}

func TestAdminDeleteNotifiesOnceAndKeepsClaims(t *testing.T) {
	svc, db, founder, _, item, claim := setupClaimedItem(t)
	ctx := context.Background()

	before := notificationCount(t, db, founder.ID)
	require.NoError(t, svc.Delete(ctx, item.ID))
	assert.EqualValues(t, before+1, notificationCount(t, db, founder.ID))

	var gone model.Item
	assert.ErrorIs(t, db.First(&gone, "id = ?", item.ID).Error, gorm.ErrRecordNotFound)

	// The claim row is the audit trail and survives the item.
	var kept model.ClaimRequest
	assert.NoError(t, db.First(&kept, "id = ?", claim.ID).Error)
}

func TestAdminDeletePendingConflicts(t *testing.T) {
	svc, db, _ := newTestService(t)
	founder := seedUser(t, db, "mira@campus.edu")
	item := reportItem(t, svc, founder.ID, "black umbrella")

	var conflict *apperr.ConflictError
	assert.ErrorAs(t, svc.Delete(context.Background(), item.ID), &conflict)
}

func TestItemsByFounderJoinsNewestClaim(t *testing.T) {
	svc, _, founder, _, item, claim := setupClaimedItem(t)

	listed, err := svc.ItemsByFounder(context.Background(), founder.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, item.ID, listed[0].ID)
	require.NotNil(t, listed[0].Claim)
	assert.Equal(t, claim.ID, listed[0].Claim.ID)
}

func TestClaimedByUserIncludesFounderContact(t *testing.T) {
	svc, _, founder, claimer, item, claim := setupClaimedItem(t)

	claimed, err := svc.ClaimedByUser(context.Background(), claimer.ID)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, claim.ID, claimed[0].Claim.ID)
	require.NotNil(t, claimed[0].Item)
	assert.Equal(t, item.ID, claimed[0].Item.ID)
	assert.Equal(t, founder.Email, claimed[0].FounderEmail)
}
