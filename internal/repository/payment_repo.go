package repository

import (
	"context"
	"time"

	"tourmarket/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByIntentID(ctx context.Context, intentID string) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).Where("payment_intent_id = ?", intentID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetCompletedByBookingID returns the settled charge row for a booking, the
// one a refund is applied against.
func (r *PaymentRepository) GetCompletedByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	var p domain.Payment
	err := r.db.WithContext(ctx).
		Where("booking_id = ? AND transaction_type = ? AND status IN ?",
			bookingID, domain.TransactionPayment,
			[]domain.PaymentStatus{domain.PaymentCompleted, domain.PaymentPartiallyRefunded}).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// HasActivePayment reports whether the booking already has a payment row
// that blocks a new charge attempt. The processing and completed states
// block; pending rows are allowed to be superseded (an abandoned intent
// must not wedge the booking) and the unique index catches them racing.
func (r *PaymentRepository) HasActivePayment(ctx context.Context, bookingID int64) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&domain.Payment{}).
		Where("booking_id = ? AND transaction_type = ? AND status IN ?",
			bookingID, domain.TransactionPayment,
			[]domain.PaymentStatus{domain.PaymentProcessing, domain.PaymentCompleted}).
		Count(&cnt).Error
	return cnt > 0, err
}

// CancelStalePending marks any still-pending payment rows for the booking
// as cancelled before a new attempt is created.
func (r *PaymentRepository) CancelStalePending(ctx context.Context, bookingID int64) error {
	return r.db.WithContext(ctx).Model(&domain.Payment{}).
		Where("booking_id = ? AND transaction_type = ? AND status = ?",
			bookingID, domain.TransactionPayment, domain.PaymentPending).
		Update("status", domain.PaymentCancelled).Error
}

// ReconcileOutcome applies a gateway-reported outcome to the ledger row for
// an intent and cascades it to the booking, all in one transaction. The row
// is locked first; a row already in a terminal status is returned unchanged,
// which makes the webhook and client confirmation paths converge on the same
// result no matter which lands first.
func (r *PaymentRepository) ReconcileOutcome(ctx context.Context, intentID string, outcome domain.PaymentStatus, failureReason string) (*domain.Payment, bool, error) {
	var p domain.Payment
	changed := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			Where("payment_intent_id = ? AND transaction_type = ?", intentID, domain.TransactionPayment).
			First(&p).Error; err != nil {
			return err
		}

		if p.Status.Terminal() {
			return nil
		}
		if p.Status == outcome {
			return nil
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{
			"status": outcome,
		}
		if outcome == domain.PaymentFailed {
			updates["failure_reason"] = failureReason
		}
		// processed_at is stamped once, on the first terminal outcome
		if outcome.Terminal() && p.ProcessedAt == nil {
			updates["processed_at"] = now
		}
		if err := tx.Model(&domain.Payment{}).Where("id = ?", p.ID).Updates(updates).Error; err != nil {
			return err
		}

		p.Status = outcome
		if outcome == domain.PaymentFailed {
			p.FailureReason = failureReason
		}
		if outcome.Terminal() && p.ProcessedAt == nil {
			p.ProcessedAt = &now
		}
		changed = true

		switch outcome {
		case domain.PaymentCompleted:
			return tx.Model(&domain.Booking{}).
				Where("id = ?", p.BookingID).
				Update("payment_status", domain.BookingPaymentPaid).Error
		case domain.PaymentFailed:
			return tx.Model(&domain.Booking{}).
				Where("id = ?", p.BookingID).
				Update("payment_status", domain.BookingPaymentFailed).Error
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &p, changed, nil
}

// ApplyRefund records a refund against a completed payment: the original row
// gets its refund fields and status updated, a refund ledger row is inserted,
// and the booking flips to refunded when fully paid back.
func (r *PaymentRepository) ApplyRefund(ctx context.Context, paymentID uuid.UUID, amount decimal.Decimal, reason string) (*domain.Payment, error) {
	var refundRow domain.Payment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.Payment
		if err := lockForUpdate(tx).
			Where("id = ?", paymentID).
			First(&p).Error; err != nil {
			return err
		}

		now := time.Now().UTC()
		refunded := p.RefundAmount.Add(amount)
		status := domain.PaymentPartiallyRefunded
		if refunded.GreaterThanOrEqual(p.Amount) {
			status = domain.PaymentRefunded
		}

		if err := tx.Model(&domain.Payment{}).Where("id = ?", p.ID).
			Updates(map[string]interface{}{
				"status":        status,
				"refund_amount": refunded,
				"refund_reason": reason,
				"refunded_at":   now,
			}).Error; err != nil {
			return err
		}

		refundRow = domain.Payment{
			ID:              uuid.New(),
			BookingID:       p.BookingID,
			TouristID:       p.TouristID,
			GuideID:         p.GuideID,
			Amount:          amount,
			Currency:        p.Currency,
			PaymentMethod:   p.PaymentMethod,
			Status:          domain.PaymentCompleted,
			TransactionType: domain.TransactionRefund,
			RefundReason:    reason,
			ProcessedAt:     &now,
		}
		if err := tx.Create(&refundRow).Error; err != nil {
			return err
		}

		if status == domain.PaymentRefunded {
			return tx.Model(&domain.Booking{}).
				Where("id = ?", p.BookingID).
				Update("payment_status", domain.BookingPaymentRefunded).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &refundRow, nil
}

type PaymentFilter struct {
	BookingID       int64
	TouristID       int64
	GuideID         int64
	Status          domain.PaymentStatus
	TransactionType domain.TransactionType
	Page            int
	PerPage         int
}

func (r *PaymentRepository) List(ctx context.Context, f PaymentFilter) ([]domain.Payment, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Payment{})
	if f.BookingID != 0 {
		q = q.Where("booking_id = ?", f.BookingID)
	}
	if f.TouristID != 0 {
		q = q.Where("tourist_id = ?", f.TouristID)
	}
	if f.GuideID != 0 {
		q = q.Where("guide_id = ?", f.GuideID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.TransactionType != "" {
		q = q.Where("transaction_type = ?", f.TransactionType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.PerPage <= 0 {
		f.PerPage = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}

	var payments []domain.Payment
	err := q.Order("created_at DESC").
		Limit(f.PerPage).
		Offset((f.Page - 1) * f.PerPage).
		Find(&payments).Error
	return payments, total, err
}

// SumCompleted totals completed rows of one transaction type. Platform
// revenue is payments minus refunds over these sums.
func (r *PaymentRepository) SumCompleted(ctx context.Context, txType domain.TransactionType) (decimal.Decimal, error) {
	var row struct {
		Sum decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&domain.Payment{}).
		Select("COALESCE(SUM(amount), 0) AS sum").
		Where("transaction_type = ? AND status IN ?", txType,
			[]domain.PaymentStatus{domain.PaymentCompleted, domain.PaymentRefunded, domain.PaymentPartiallyRefunded}).
		Scan(&row).Error
	return row.Sum, err
}

func (r *PaymentRepository) CountByStatus(ctx context.Context, status domain.PaymentStatus) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&domain.Payment{}).Where("status = ?", status).Count(&cnt).Error
	return cnt, err
}
