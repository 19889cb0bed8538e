package review

import (
	"context"

	"tourmarket/internal/domain"
	"tourmarket/internal/repository"
)

type ReviewStore interface {
	Create(ctx context.Context, rev *domain.Review) error
	GetByID(ctx context.Context, id int64) (*domain.Review, error)
	Update(ctx context.Context, id int64, rating int, comment string) error
	List(ctx context.Context, f repository.ReviewFilter) ([]domain.Review, int64, error)
	IncrementReport(ctx context.Context, id int64) (int, error)
	SetHidden(ctx context.Context, id int64, hidden bool) (bool, error)
}

type BookingReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
}

// Aggregator keeps the listing rating aggregate in step with review changes.
type Aggregator interface {
	RecordReview(ctx context.Context, listingID int64, rating int) error
	ReviseReview(ctx context.Context, listingID int64, oldRating, newRating int) error
	RemoveReview(ctx context.Context, listingID int64, rating int) error
	RestoreReview(ctx context.Context, listingID int64, rating int) error
}
