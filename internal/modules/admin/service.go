package admin

import (
	"context"
	"errors"

	"tourmarket/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrValidation = errors.New("validation error")

type UserAdmin interface {
	SetActiveBulk(ctx context.Context, ids []int64, active bool) (int64, error)
	CountByRole(ctx context.Context, role domain.UserRole) (int64, error)
}

type ListingAdmin interface {
	SetActiveBulk(ctx context.Context, ids []int64, active bool) (int64, error)
}

type BookingStats interface {
	CountByStatus(ctx context.Context, status domain.BookingStatus) (int64, error)
}

type PaymentStats interface {
	SumCompleted(ctx context.Context, txType domain.TransactionType) (decimal.Decimal, error)
	CountByStatus(ctx context.Context, status domain.PaymentStatus) (int64, error)
}

type Service struct {
	users    UserAdmin
	listings ListingAdmin
	bookings BookingStats
	payments PaymentStats
	// platform cut for the revenue line of the stats report
	feePercent decimal.Decimal
	log        *zap.Logger
}

func NewService(users UserAdmin, listings ListingAdmin, bookings BookingStats, payments PaymentStats, feePercent float64, log *zap.Logger) *Service {
	return &Service{
		users:      users,
		listings:   listings,
		bookings:   bookings,
		payments:   payments,
		feePercent: decimal.NewFromFloat(feePercent),
		log:        log,
	}
}

type PlatformStats struct {
	Tourists int64 `json:"tourists"`
	Guides   int64 `json:"guides"`

	Bookings map[string]int64 `json:"bookings"`

	GrossPayments   decimal.Decimal `json:"gross_payments"`
	GrossRefunds    decimal.Decimal `json:"gross_refunds"`
	NetVolume       decimal.Decimal `json:"net_volume"`
	PlatformRevenue decimal.Decimal `json:"platform_revenue"`
	FailedPayments  int64           `json:"failed_payments"`
}

// Stats assembles the operator dashboard numbers. Platform revenue is the
// fee share of net settled volume.
func (s *Service) Stats(ctx context.Context) (*PlatformStats, error) {
	stats := &PlatformStats{Bookings: make(map[string]int64)}

	var err error
	if stats.Tourists, err = s.users.CountByRole(ctx, domain.RoleTourist); err != nil {
		return nil, err
	}
	if stats.Guides, err = s.users.CountByRole(ctx, domain.RoleGuide); err != nil {
		return nil, err
	}

	for _, st := range []domain.BookingStatus{
		domain.BookingPending, domain.BookingConfirmed, domain.BookingCompleted,
		domain.BookingCancelled, domain.BookingRejected,
	} {
		n, err := s.bookings.CountByStatus(ctx, st)
		if err != nil {
			return nil, err
		}
		stats.Bookings[string(st)] = n
	}

	if stats.GrossPayments, err = s.payments.SumCompleted(ctx, domain.TransactionPayment); err != nil {
		return nil, err
	}
	if stats.GrossRefunds, err = s.payments.SumCompleted(ctx, domain.TransactionRefund); err != nil {
		return nil, err
	}
	if stats.FailedPayments, err = s.payments.CountByStatus(ctx, domain.PaymentFailed); err != nil {
		return nil, err
	}

	stats.NetVolume = stats.GrossPayments.Sub(stats.GrossRefunds)
	stats.PlatformRevenue = stats.NetVolume.Mul(s.feePercent).Div(decimal.NewFromInt(100)).Round(2)
	return stats, nil
}

// SetUsersActive bulk-activates or deactivates accounts. Existing bookings
// of a deactivated user keep running; only new activity is blocked.
func (s *Service) SetUsersActive(ctx context.Context, ids []int64, active bool) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrValidation
	}
	n, err := s.users.SetActiveBulk(ctx, ids, active)
	if err != nil {
		return 0, err
	}
	s.log.Info("users active flag updated",
		zap.Int64s("ids", ids), zap.Bool("active", active), zap.Int64("changed", n))
	return n, nil
}

func (s *Service) SetListingsActive(ctx context.Context, ids []int64, active bool) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrValidation
	}
	n, err := s.listings.SetActiveBulk(ctx, ids, active)
	if err != nil {
		return 0, err
	}
	s.log.Info("listings active flag updated",
		zap.Int64s("ids", ids), zap.Bool("active", active), zap.Int64("changed", n))
	return n, nil
}
