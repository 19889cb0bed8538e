package payment

import (
	"context"

	"tourmarket/internal/domain"
	"tourmarket/internal/gateway"
	"tourmarket/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service struct {
	payments PaymentStore
	bookings BookingStore
	gw       Gateway
	log      *zap.Logger
}

func NewService(payments PaymentStore, bookings BookingStore, gw Gateway, log *zap.Logger) *Service {
	return &Service{
		payments: payments,
		bookings: bookings,
		gw:       gw,
		log:      log,
	}
}

// CreateIntent opens a charge attempt for a booking. Exactly one attempt can
// be live per booking: the pre-check rejects the common case and the unique
// index on the ledger settles concurrent creators.
func (s *Service) CreateIntent(ctx context.Context, touristID int64, req CreateIntentRequest) (*CreateIntentResponse, error) {
	b, err := s.bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if b.TouristID != touristID {
		return nil, ErrForbidden
	}
	// payment opens only after the guide has confirmed
	if b.Status != domain.BookingConfirmed {
		return nil, ErrNotPayable
	}
	if b.PaymentStatus == domain.BookingPaymentPaid {
		return nil, ErrNotPayable
	}

	active, err := s.payments.HasActivePayment(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, ErrAlreadyActive
	}

	// an abandoned earlier attempt must not hold the unique index slot
	if err := s.payments.CancelStalePending(ctx, req.BookingID); err != nil {
		return nil, err
	}

	intent, err := s.gw.CreateIntent(ctx, b.TotalPrice, b.Currency, map[string]string{
		"booking_id": decimal.NewFromInt(b.ID).String(),
		"tourist_id": decimal.NewFromInt(b.TouristID).String(),
	}, uuid.NewString())
	if err != nil {
		s.log.Error("create intent failed", zap.Int64("booking_id", b.ID), zap.Error(err))
		return nil, ErrGatewayFailed
	}

	p := &domain.Payment{
		ID:              uuid.New(),
		BookingID:       b.ID,
		TouristID:       b.TouristID,
		GuideID:         b.GuideID,
		Amount:          b.TotalPrice,
		Currency:        b.Currency,
		Status:          domain.PaymentPending,
		TransactionType: domain.TransactionPayment,
		PaymentIntentID: &intent.ID,
		ClientSecret:    intent.ClientSecret,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		if repository.IsUniqueViolation(err) {
			// another request won the race for this booking
			return nil, ErrAlreadyActive
		}
		return nil, err
	}

	if err := s.bookings.SetPaymentIntentID(ctx, b.ID, intent.ID); err != nil {
		return nil, err
	}

	s.log.Info("payment intent created",
		zap.Int64("booking_id", b.ID),
		zap.String("intent_id", intent.ID))
	return &CreateIntentResponse{
		PaymentID:    p.ID.String(),
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       p.Amount.StringFixed(2),
		Currency:     p.Currency,
	}, nil
}

// ConfirmPayment is the client-driven settlement path: ask the gateway what
// actually happened to the intent and fold that into the ledger. It shares
// the reconcile entry point with the webhook path, so whichever arrives
// second is a no-op.
func (s *Service) ConfirmPayment(ctx context.Context, touristID int64, intentID string) (*domain.Payment, error) {
	p, err := s.payments.GetByIntentID(ctx, intentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if p.TouristID != touristID {
		return nil, ErrForbidden
	}

	intent, err := s.gw.RetrieveIntent(ctx, intentID)
	if err != nil {
		s.log.Error("retrieve intent failed", zap.String("intent_id", intentID), zap.Error(err))
		return nil, ErrGatewayFailed
	}

	switch intent.Status {
	case gateway.IntentSucceeded:
		return s.reconcile(ctx, intentID, domain.PaymentCompleted, "")
	case gateway.IntentProcessing:
		return s.reconcile(ctx, intentID, domain.PaymentProcessing, "")
	case "canceled":
		return s.reconcile(ctx, intentID, domain.PaymentFailed, "cancelled at gateway")
	default:
		// still awaiting the payer, nothing to record yet
		return p, nil
	}
}

// HandleWebhook verifies and applies a gateway event. Unknown event types
// and unknown intents are acknowledged without effect so the gateway stops
// retrying them.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	ev, err := s.gw.VerifyWebhookSignature(payload, sigHeader)
	if err != nil {
		return ErrBadSignature
	}

	switch ev.Type {
	case "payment_intent.succeeded":
		_, err = s.reconcile(ctx, ev.IntentID, domain.PaymentCompleted, "")
	case "payment_intent.payment_failed":
		reason := ev.FailureMessage
		if reason == "" {
			reason = "payment failed at gateway"
		}
		_, err = s.reconcile(ctx, ev.IntentID, domain.PaymentFailed, reason)
	case "charge.refunded":
		err = s.applyExternalRefund(ctx, ev.IntentID)
	default:
		s.log.Debug("ignoring webhook event", zap.String("type", ev.Type))
		return nil
	}

	if err == ErrNotFound {
		s.log.Warn("webhook for unknown intent", zap.String("intent_id", ev.IntentID))
		return nil
	}
	return err
}

func (s *Service) reconcile(ctx context.Context, intentID string, outcome domain.PaymentStatus, reason string) (*domain.Payment, error) {
	p, changed, err := s.payments.ReconcileOutcome(ctx, intentID, outcome, reason)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if changed {
		s.log.Info("payment reconciled",
			zap.String("intent_id", intentID),
			zap.String("status", string(p.Status)))
	}
	return p, nil
}

// applyExternalRefund handles a refund issued directly at the gateway, e.g.
// from its dashboard. The remaining balance is written back to the ledger.
func (s *Service) applyExternalRefund(ctx context.Context, intentID string) error {
	p, err := s.payments.GetByIntentID(ctx, intentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	if p.Status != domain.PaymentCompleted && p.Status != domain.PaymentPartiallyRefunded {
		return nil
	}
	remaining := p.Remaining()
	if !remaining.IsPositive() {
		return nil
	}
	_, err = s.payments.ApplyRefund(ctx, p.ID, remaining, "refund issued at gateway")
	return err
}

// RefundForBooking refunds everything still held for a booking. The booking
// module calls this before cancelling a paid booking.
func (s *Service) RefundForBooking(ctx context.Context, bookingID int64, reason string) error {
	p, err := s.payments.GetCompletedByBookingID(ctx, bookingID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrNotRefundable
		}
		return err
	}
	remaining := p.Remaining()
	if !remaining.IsPositive() {
		return nil
	}
	return s.refundThroughGateway(ctx, p, remaining, reason)
}

// Refund is the guide/admin-initiated partial or full refund.
func (s *Service) Refund(ctx context.Context, userID int64, role domain.UserRole, paymentID uuid.UUID, req RefundRequest) (*domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if role != domain.RoleAdmin && (role != domain.RoleGuide || p.GuideID != userID) {
		return nil, ErrForbidden
	}
	if p.TransactionType != domain.TransactionPayment {
		return nil, ErrNotRefundable
	}
	if p.Status != domain.PaymentCompleted && p.Status != domain.PaymentPartiallyRefunded {
		return nil, ErrNotRefundable
	}

	remaining := p.Remaining()
	amount := remaining
	if req.Amount != "" {
		amount, err = decimal.NewFromString(req.Amount)
		if err != nil {
			return nil, ErrValidation
		}
	}
	if !amount.IsPositive() || amount.GreaterThan(remaining) {
		return nil, ErrInvalidAmount
	}

	if err := s.refundThroughGateway(ctx, p, amount, req.Reason); err != nil {
		return nil, err
	}
	return s.payments.GetByID(ctx, paymentID)
}

func (s *Service) refundThroughGateway(ctx context.Context, p *domain.Payment, amount decimal.Decimal, reason string) error {
	if p.PaymentIntentID == nil {
		return ErrNotRefundable
	}
	if _, err := s.gw.CreateRefund(ctx, *p.PaymentIntentID, amount, uuid.NewString()); err != nil {
		s.log.Error("gateway refund failed",
			zap.Int64("booking_id", p.BookingID), zap.Error(err))
		return ErrGatewayFailed
	}
	if _, err := s.payments.ApplyRefund(ctx, p.ID, amount, reason); err != nil {
		return err
	}
	s.log.Info("refund applied",
		zap.Int64("booking_id", p.BookingID),
		zap.String("amount", amount.StringFixed(2)))
	return nil
}

func (s *Service) GetPayment(ctx context.Context, userID int64, role domain.UserRole, id uuid.UUID) (*domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if role != domain.RoleAdmin && p.TouristID != userID && p.GuideID != userID {
		return nil, ErrForbidden
	}
	return p, nil
}

func (s *Service) ListPayments(ctx context.Context, userID int64, role domain.UserRole, q ListQuery) ([]domain.Payment, int64, error) {
	f := repository.PaymentFilter{
		BookingID:       q.BookingID,
		Status:          domain.PaymentStatus(q.Status),
		TransactionType: domain.TransactionType(q.Type),
		Page:            q.Page,
		PerPage:         q.PerPage,
	}
	switch role {
	case domain.RoleTourist:
		f.TouristID = userID
	case domain.RoleGuide:
		f.GuideID = userID
	case domain.RoleAdmin:
	default:
		return nil, 0, ErrForbidden
	}
	return s.payments.List(ctx, f)
}
