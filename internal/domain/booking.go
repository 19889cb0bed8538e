package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
	BookingRejected  BookingStatus = "rejected"
)

// BookingPaymentStatus is the payment state recorded on the booking itself.
// The full money trail lives in the payment ledger.
type BookingPaymentStatus string

const (
	BookingPaymentPending  BookingPaymentStatus = "pending"
	BookingPaymentPaid     BookingPaymentStatus = "paid"
	BookingPaymentRefunded BookingPaymentStatus = "refunded"
	BookingPaymentFailed   BookingPaymentStatus = "failed"
)

// bookingTransitions is the legal status graph. Terminal states map to an
// empty set.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingRejected, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
	BookingCancelled: {},
	BookingCompleted: {},
	BookingRejected:  {},
}

// CanTransitionBooking reports whether to is reachable from from in one step.
func CanTransitionBooking(from, to BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s BookingStatus) Terminal() bool {
	next, ok := bookingTransitions[s]
	return ok && len(next) == 0
}

func (s BookingStatus) Valid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

type Booking struct {
	ID        int64 `gorm:"primaryKey" json:"id"`
	TouristID int64 `gorm:"index;not null" json:"tourist_id"`
	GuideID   int64 `gorm:"index;not null" json:"guide_id"`
	ListingID int64 `gorm:"index;not null" json:"listing_id"`

	BookingDate    time.Time       `gorm:"index;not null" json:"booking_date"`
	StartTime      string          `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime        string          `gorm:"type:varchar(5);not null" json:"end_time"`
	NumberOfPeople int             `gorm:"not null" json:"number_of_people"`
	TotalPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
	Currency       string          `gorm:"type:varchar(3);default:'USD'" json:"currency"`

	Status        BookingStatus        `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	PaymentStatus BookingPaymentStatus `gorm:"type:varchar(20);default:'pending';index" json:"payment_status"`

	PaymentIntentID *string `gorm:"index" json:"payment_intent_id,omitempty"`

	SpecialRequests    string     `gorm:"type:text" json:"special_requests,omitempty"`
	CancellationReason string     `gorm:"type:text" json:"cancellation_reason,omitempty"`
	CancelledBy        *int64     `json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Booking) TableName() string { return "bookings" }

// DeriveEndTime computes the tour end from an "HH:MM" start and the listing
// duration, wrapping past midnight. Kept as a pure function so the booking
// service derives it before persistence.
func DeriveEndTime(startTime string, durationHours int) (string, error) {
	t, err := time.Parse("15:04", startTime)
	if err != nil {
		return "", fmt.Errorf("invalid start time %q: %w", startTime, err)
	}
	end := t.Add(time.Duration(durationHours) * time.Hour)
	return end.Format("15:04"), nil
}

// TotalBookingPrice computes listing fee x party size.
func TotalBookingPrice(tourFee decimal.Decimal, numberOfPeople int) decimal.Decimal {
	return tourFee.Mul(decimal.NewFromInt(int64(numberOfPeople)))
}
