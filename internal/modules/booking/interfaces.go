package booking

import (
	"context"
	"time"

	"tourmarket/internal/domain"
	"tourmarket/internal/repository"
)

// BookingStore is the persistence surface the service needs. Status moves go
// through the conditional methods so concurrent writers lose cleanly.
type BookingStore interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	List(ctx context.Context, f repository.BookingFilter) ([]domain.Booking, int64, error)
	UpdateStatusIf(ctx context.Context, id int64, from, to domain.BookingStatus) (bool, error)
	RejectIf(ctx context.Context, id int64, reason string, rejectedBy int64, at time.Time) (bool, error)
	CancelIf(ctx context.Context, id int64, from []domain.BookingStatus, reason string, cancelledBy int64, at time.Time) (bool, error)
	CompleteIfConfirmedPaid(ctx context.Context, id int64, at time.Time) (bool, error)
}

type ListingStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Listing, error)
	IncrementBookingCount(ctx context.Context, listingID int64) error
}

type UserReader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// PaymentRefunder refunds whatever was paid for a booking. Cancellation of a
// paid booking depends on it succeeding first.
type PaymentRefunder interface {
	RefundForBooking(ctx context.Context, bookingID int64, reason string) error
}
