package repository

import (
	"context"
	"strings"
	"testing"

	"tourmarket/internal/database"
	"tourmarket/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB opens a per-test in-memory database through the same Connect and
// Migrate path production uses, partial unique index included.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := database.Connect(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedConfirmedBooking(t *testing.T, db *gorm.DB) *domain.Booking {
	t.Helper()
	b := &domain.Booking{
		TouristID:      1,
		GuideID:        2,
		ListingID:      10,
		StartTime:      "09:00",
		EndTime:        "12:00",
		NumberOfPeople: 2,
		TotalPrice:     decimal.NewFromInt(200),
		Currency:       "USD",
		Status:         domain.BookingConfirmed,
		PaymentStatus:  domain.BookingPaymentPending,
	}
	require.NoError(t, db.Create(b).Error)
	return b
}

func seedPaymentRow(t *testing.T, repo *PaymentRepository, bookingID int64, intentID string, status domain.PaymentStatus) *domain.Payment {
	t.Helper()
	p := &domain.Payment{
		BookingID:       bookingID,
		TouristID:       1,
		GuideID:         2,
		Amount:          decimal.NewFromInt(200),
		Currency:        "USD",
		Status:          status,
		TransactionType: domain.TransactionPayment,
	}
	if intentID != "" {
		p.PaymentIntentID = &intentID
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestReconcileOutcome_SecondIdenticalOutcomeIsNoOp(t *testing.T) {
	db := newTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	b := seedConfirmedBooking(t, db)
	seedPaymentRow(t, repo, b.ID, "pi_1", domain.PaymentPending)

	first, changed, err := repo.ReconcileOutcome(ctx, "pi_1", domain.PaymentCompleted, "")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, domain.PaymentCompleted, first.Status)
	require.NotNil(t, first.ProcessedAt)

	var row domain.Payment
	require.NoError(t, db.Where("payment_intent_id = ?", "pi_1").First(&row).Error)
	require.NotNil(t, row.ProcessedAt)
	stamped := *row.ProcessedAt

	var booking domain.Booking
	require.NoError(t, db.First(&booking, b.ID).Error)
	assert.Equal(t, domain.BookingPaymentPaid, booking.PaymentStatus)

	second, changed, err := repo.ReconcileOutcome(ctx, "pi_1", domain.PaymentCompleted, "")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, domain.PaymentCompleted, second.Status)

	require.NoError(t, db.Where("payment_intent_id = ?", "pi_1").First(&row).Error)
	assert.Equal(t, domain.PaymentCompleted, row.Status)
	require.NotNil(t, row.ProcessedAt)
	assert.True(t, stamped.Equal(*row.ProcessedAt), "processed_at must be stamped exactly once")
}

func TestReconcileOutcome_TerminalRowIgnoresLaterOutcome(t *testing.T) {
	db := newTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	b := seedConfirmedBooking(t, db)
	seedPaymentRow(t, repo, b.ID, "pi_1", domain.PaymentPending)

	_, _, err := repo.ReconcileOutcome(ctx, "pi_1", domain.PaymentCompleted, "")
	require.NoError(t, err)

	// a straggling failure report after settlement changes nothing
	p, changed, err := repo.ReconcileOutcome(ctx, "pi_1", domain.PaymentFailed, "card declined")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, domain.PaymentCompleted, p.Status)

	var booking domain.Booking
	require.NoError(t, db.First(&booking, b.ID).Error)
	assert.Equal(t, domain.BookingPaymentPaid, booking.PaymentStatus)
}

func TestReconcileOutcome_FailureRecordsReasonAndCascades(t *testing.T) {
	db := newTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	b := seedConfirmedBooking(t, db)
	seedPaymentRow(t, repo, b.ID, "pi_1", domain.PaymentPending)

	p, changed, err := repo.ReconcileOutcome(ctx, "pi_1", domain.PaymentFailed, "card declined")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, domain.PaymentFailed, p.Status)

	var row domain.Payment
	require.NoError(t, db.Where("payment_intent_id = ?", "pi_1").First(&row).Error)
	assert.Equal(t, "card declined", row.FailureReason)
	assert.NotNil(t, row.ProcessedAt)

	var booking domain.Booking
	require.NoError(t, db.First(&booking, b.ID).Error)
	assert.Equal(t, domain.BookingPaymentFailed, booking.PaymentStatus)
}

func TestApplyRefund_PartialThenFull(t *testing.T) {
	db := newTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	b := seedConfirmedBooking(t, db)
	seedPaymentRow(t, repo, b.ID, "pi_1", domain.PaymentPending)
	_, _, err := repo.ReconcileOutcome(ctx, "pi_1", domain.PaymentCompleted, "")
	require.NoError(t, err)

	var original domain.Payment
	require.NoError(t, db.Where("payment_intent_id = ?", "pi_1").First(&original).Error)

	refundRow, err := repo.ApplyRefund(ctx, original.ID, decimal.NewFromInt(80), "goodwill")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionRefund, refundRow.TransactionType)
	assert.True(t, refundRow.Amount.Equal(decimal.NewFromInt(80)))

	require.NoError(t, db.Where("id = ?", original.ID).First(&original).Error)
	assert.Equal(t, domain.PaymentPartiallyRefunded, original.Status)
	assert.True(t, original.RefundAmount.Equal(decimal.NewFromInt(80)))

	var booking domain.Booking
	require.NoError(t, db.First(&booking, b.ID).Error)
	assert.Equal(t, domain.BookingPaymentPaid, booking.PaymentStatus, "partial refund keeps the booking paid")

	_, err = repo.ApplyRefund(ctx, original.ID, decimal.NewFromInt(120), "tour cancelled")
	require.NoError(t, err)

	require.NoError(t, db.Where("id = ?", original.ID).First(&original).Error)
	assert.Equal(t, domain.PaymentRefunded, original.Status)
	assert.True(t, original.RefundAmount.Equal(decimal.NewFromInt(200)))

	require.NoError(t, db.First(&booking, b.ID).Error)
	assert.Equal(t, domain.BookingPaymentRefunded, booking.PaymentStatus)

	var refundRows int64
	require.NoError(t, db.Model(&domain.Payment{}).
		Where("booking_id = ? AND transaction_type = ?", b.ID, domain.TransactionRefund).
		Count(&refundRows).Error)
	assert.Equal(t, int64(2), refundRows)
}

func TestCreate_SecondLiveChargeHitsUniqueIndex(t *testing.T) {
	db := newTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	b := seedConfirmedBooking(t, db)
	seedPaymentRow(t, repo, b.ID, "pi_1", domain.PaymentPending)

	intent := "pi_2"
	err := repo.Create(ctx, &domain.Payment{
		ID:              uuid.New(),
		BookingID:       b.ID,
		TouristID:       1,
		GuideID:         2,
		Amount:          decimal.NewFromInt(200),
		Currency:        "USD",
		Status:          domain.PaymentPending,
		TransactionType: domain.TransactionPayment,
		PaymentIntentID: &intent,
	})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	// flipping the stale attempt to cancelled frees the slot
	require.NoError(t, repo.CancelStalePending(ctx, b.ID))
	seedPaymentRow(t, repo, b.ID, "pi_3", domain.PaymentPending)
}
