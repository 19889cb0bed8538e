package rating

import (
	"context"
	"time"

	"tourmarket/internal/domain"
	"tourmarket/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EarningsMonths is how far back the monthly earnings report reaches.
const EarningsMonths = 6

type Service struct {
	listings ListingAggregates
	earnings EarningsReader
	// platform cut applied at reporting time, never stored on rows
	feePercent decimal.Decimal
	log        *zap.Logger
}

func NewService(listings ListingAggregates, earnings EarningsReader, feePercent float64, log *zap.Logger) *Service {
	return &Service{
		listings:   listings,
		earnings:   earnings,
		feePercent: decimal.NewFromFloat(feePercent),
		log:        log,
	}
}

// RecordReview folds a newly published review into the listing aggregate.
func (s *Service) RecordReview(ctx context.Context, listingID int64, rating int) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	return s.listings.RecordRating(ctx, listingID, rating)
}

// ReviseReview replaces an edited review's old rating with its new one. The
// review count stays put.
func (s *Service) ReviseReview(ctx context.Context, listingID int64, oldRating, newRating int) error {
	if newRating < 1 || newRating > 5 {
		return ErrInvalidRating
	}
	if oldRating == newRating {
		return nil
	}
	return s.listings.ReviseRating(ctx, listingID, oldRating, newRating)
}

// RemoveReview takes a hidden or deleted review out of the aggregate.
func (s *Service) RemoveReview(ctx context.Context, listingID int64, rating int) error {
	return s.listings.RemoveRating(ctx, listingID, rating)
}

// RestoreReview puts an unhidden review back into the aggregate.
func (s *Service) RestoreReview(ctx context.Context, listingID int64, rating int) error {
	return s.listings.RecordRating(ctx, listingID, rating)
}

func (s *Service) IncrementBookingCount(ctx context.Context, listingID int64) error {
	return s.listings.IncrementBookingCount(ctx, listingID)
}

// RecomputeListing rebuilds the aggregate from scratch, used by admins when
// the incremental counters have drifted.
func (s *Service) RecomputeListing(ctx context.Context, listingID int64) (*domain.Listing, error) {
	if err := s.listings.Recompute(ctx, listingID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	s.log.Info("listing aggregate recomputed", zap.Int64("listing_id", listingID))
	return s.listings.GetByID(ctx, listingID)
}

type MonthlyNet struct {
	Month string          `json:"month"`
	Gross decimal.Decimal `json:"gross"`
	Net   decimal.Decimal `json:"net"`
	Count int64           `json:"count"`
}

type GuideEarnings struct {
	TotalGross   decimal.Decimal `json:"total_gross"`
	PlatformFee  decimal.Decimal `json:"platform_fee"`
	TotalNet     decimal.Decimal `json:"total_net"`
	PendingGross decimal.Decimal `json:"pending_gross"`
	PendingNet   decimal.Decimal `json:"pending_net"`
	Monthly      []MonthlyNet    `json:"monthly"`
}

// Earnings reports what a guide has earned. Completed paid bookings count as
// settled; confirmed paid bookings are pending. The platform fee is deducted
// here, at reporting time.
func (s *Service) Earnings(ctx context.Context, guideID int64) (*GuideEarnings, error) {
	total, err := s.earnings.SumEarnings(ctx, guideID, []domain.BookingStatus{domain.BookingCompleted})
	if err != nil {
		return nil, err
	}
	pending, err := s.earnings.SumEarnings(ctx, guideID, []domain.BookingStatus{domain.BookingConfirmed})
	if err != nil {
		return nil, err
	}

	since := time.Now().UTC().AddDate(0, -EarningsMonths, 0)
	months, err := s.earnings.MonthlyEarnings(ctx, guideID, since)
	if err != nil {
		return nil, err
	}

	out := &GuideEarnings{
		TotalGross:   total,
		PlatformFee:  s.fee(total),
		TotalNet:     s.net(total),
		PendingGross: pending,
		PendingNet:   s.net(pending),
		Monthly:      make([]MonthlyNet, 0, len(months)),
	}
	for _, m := range months {
		out.Monthly = append(out.Monthly, MonthlyNet{
			Month: m.Month,
			Gross: m.Amount,
			Net:   s.net(m.Amount),
			Count: m.Count,
		})
	}
	return out, nil
}

func (s *Service) fee(gross decimal.Decimal) decimal.Decimal {
	return gross.Mul(s.feePercent).Div(decimal.NewFromInt(100)).Round(2)
}

func (s *Service) net(gross decimal.Decimal) decimal.Decimal {
	return gross.Sub(s.fee(gross))
}
