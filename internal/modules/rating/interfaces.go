package rating

import (
	"context"
	"time"

	"tourmarket/internal/domain"
	"tourmarket/internal/repository"

	"github.com/shopspring/decimal"
)

// ListingAggregates is the mutation surface for the derived listing fields.
// All writes happen under a row lock inside the repository.
type ListingAggregates interface {
	GetByID(ctx context.Context, id int64) (*domain.Listing, error)
	RecordRating(ctx context.Context, listingID int64, rating int) error
	ReviseRating(ctx context.Context, listingID int64, oldRating, newRating int) error
	RemoveRating(ctx context.Context, listingID int64, rating int) error
	IncrementBookingCount(ctx context.Context, listingID int64) error
	Recompute(ctx context.Context, listingID int64) error
}

type EarningsReader interface {
	SumEarnings(ctx context.Context, guideID int64, statuses []domain.BookingStatus) (decimal.Decimal, error)
	MonthlyEarnings(ctx context.Context, guideID int64, since time.Time) ([]repository.MonthlyEarning, error)
}
