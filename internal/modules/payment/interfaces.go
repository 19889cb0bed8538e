package payment

import (
	"context"

	"tourmarket/internal/domain"
	"tourmarket/internal/gateway"
	"tourmarket/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStore interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	GetByIntentID(ctx context.Context, intentID string) (*domain.Payment, error)
	GetCompletedByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error)
	HasActivePayment(ctx context.Context, bookingID int64) (bool, error)
	CancelStalePending(ctx context.Context, bookingID int64) error
	ReconcileOutcome(ctx context.Context, intentID string, outcome domain.PaymentStatus, failureReason string) (*domain.Payment, bool, error)
	ApplyRefund(ctx context.Context, paymentID uuid.UUID, amount decimal.Decimal, reason string) (*domain.Payment, error)
	List(ctx context.Context, f repository.PaymentFilter) ([]domain.Payment, int64, error)
}

type BookingStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	SetPaymentIntentID(ctx context.Context, id int64, intentID string) error
}

// Gateway is the external payment processor.
type Gateway interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string, idempotencyKey string) (*gateway.Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*gateway.Intent, error)
	CreateRefund(ctx context.Context, intentID string, amount decimal.Decimal, idempotencyKey string) (*gateway.Refund, error)
	VerifyWebhookSignature(payload []byte, sigHeader string) (*gateway.Event, error)
}
