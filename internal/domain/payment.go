package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentProcessing        PaymentStatus = "processing"
	PaymentCompleted         PaymentStatus = "completed"
	PaymentFailed            PaymentStatus = "failed"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
	PaymentCancelled         PaymentStatus = "cancelled"
)

// Terminal reports whether the ledger row may no longer move to another
// outcome through reconciliation. Refund states are reached only through the
// refund path, never through reconcile.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentCompleted, PaymentFailed, PaymentRefunded, PaymentPartiallyRefunded, PaymentCancelled:
		return true
	}
	return false
}

type TransactionType string

const (
	TransactionPayment TransactionType = "payment"
	TransactionRefund  TransactionType = "refund"
	TransactionPayout  TransactionType = "payout"
)

// Payment is one ledger row. Rows are never deleted; a refund inserts a
// second row and updates the original row's status/refund fields only.
type Payment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BookingID int64     `gorm:"index;not null" json:"booking_id"`
	TouristID int64     `gorm:"index;not null" json:"tourist_id"`
	GuideID   int64     `gorm:"index;not null" json:"guide_id"`

	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency      string          `gorm:"type:varchar(3);default:'USD'" json:"currency"`
	PaymentMethod string          `gorm:"type:varchar(20);default:'card'" json:"payment_method"`

	Status          PaymentStatus   `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	TransactionType TransactionType `gorm:"type:varchar(10);default:'payment';index" json:"transaction_type"`

	PaymentIntentID *string `gorm:"uniqueIndex" json:"payment_intent_id,omitempty"`
	ClientSecret    string  `gorm:"type:text" json:"-"`

	RefundAmount decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"refund_amount"`
	RefundReason string          `gorm:"type:text" json:"refund_reason,omitempty"`
	RefundedAt   *time.Time      `json:"refunded_at,omitempty"`

	FailureReason string     `gorm:"type:text" json:"failure_reason,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }

// Remaining returns the amount still refundable on the original payment row.
func (p *Payment) Remaining() decimal.Decimal {
	return p.Amount.Sub(p.RefundAmount)
}
