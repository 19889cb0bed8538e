package repository

import (
	"context"
	"time"

	"tourmarket/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// BookingScope selects one of the canned time-based views. Upcoming means
// still ahead and still live; past means the date went by or the booking
// already reached a closed state.
type BookingScope string

const (
	ScopeUpcoming BookingScope = "upcoming"
	ScopePast     BookingScope = "past"
)

type BookingFilter struct {
	TouristID int64
	GuideID   int64
	ListingID int64
	Status    domain.BookingStatus
	Scope     BookingScope
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PerPage   int
}

func (r *BookingRepository) List(ctx context.Context, f BookingFilter) ([]domain.Booking, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Booking{})
	if f.TouristID != 0 {
		q = q.Where("tourist_id = ?", f.TouristID)
	}
	if f.GuideID != 0 {
		q = q.Where("guide_id = ?", f.GuideID)
	}
	if f.ListingID != 0 {
		q = q.Where("listing_id = ?", f.ListingID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.DateFrom != nil {
		q = q.Where("booking_date >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where("booking_date <= ?", *f.DateTo)
	}

	order := "booking_date DESC, id DESC"
	switch f.Scope {
	case ScopeUpcoming:
		q = q.Where("booking_date >= ? AND status IN ?", startOfToday(),
			[]domain.BookingStatus{domain.BookingPending, domain.BookingConfirmed})
		order = "booking_date ASC, id ASC"
	case ScopePast:
		q = q.Where("(booking_date < ? OR status IN ?)", startOfToday(),
			[]domain.BookingStatus{domain.BookingCompleted, domain.BookingCancelled})
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

	var bookings []domain.Booking
	err := q.Order(order).
		Limit(f.PerPage).
		Offset((f.Page - 1) * f.PerPage).
		Find(&bookings).Error
	return bookings, total, err
}

func startOfToday() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// UpdateStatusIf moves the booking from one status to another in a single
// conditional UPDATE. Returns false when the row was not in the expected
// status, so races lose cleanly instead of clobbering.
func (r *BookingRepository) UpdateStatusIf(ctx context.Context, id int64, from, to domain.BookingStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RejectIf declines a still-pending booking, recording who rejected it, when
// and why in the same conditional UPDATE.
func (r *BookingRepository) RejectIf(ctx context.Context, id int64, reason string, rejectedBy int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("id = ? AND status = ?", id, domain.BookingPending).
		Updates(map[string]interface{}{
			"status":              domain.BookingRejected,
			"cancellation_reason": reason,
			"cancelled_by":        rejectedBy,
			"cancelled_at":        at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CancelIf records a cancellation when the booking is still in one of the
// given statuses.
func (r *BookingRepository) CancelIf(ctx context.Context, id int64, from []domain.BookingStatus, reason string, cancelledBy int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{
			"status":              domain.BookingCancelled,
			"cancellation_reason": reason,
			"cancelled_by":        cancelledBy,
			"cancelled_at":        at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CompleteIfConfirmedPaid marks the tour done only when it was confirmed
// and paid for.
func (r *BookingRepository) CompleteIfConfirmedPaid(ctx context.Context, id int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("id = ? AND status = ? AND payment_status = ?",
			id, domain.BookingConfirmed, domain.BookingPaymentPaid).
		Updates(map[string]interface{}{
			"status":       domain.BookingCompleted,
			"completed_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *BookingRepository) UpdatePaymentStatus(ctx context.Context, id int64, status domain.BookingPaymentStatus) error {
	return r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("id = ?", id).
		Update("payment_status", status).Error
}

func (r *BookingRepository) SetPaymentIntentID(ctx context.Context, id int64, intentID string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("id = ?", id).
		Update("payment_intent_id", intentID).Error
}

func (r *BookingRepository) CountByStatus(ctx context.Context, status domain.BookingStatus) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&domain.Booking{}).Where("status = ?", status).Count(&cnt).Error
	return cnt, err
}

// SumEarnings totals gross booking revenue for a guide across the given
// booking statuses, counting only paid bookings.
func (r *BookingRepository) SumEarnings(ctx context.Context, guideID int64, statuses []domain.BookingStatus) (decimal.Decimal, error) {
	var row struct {
		Sum decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&domain.Booking{}).
		Select("COALESCE(SUM(total_price), 0) AS sum").
		Where("guide_id = ? AND status IN ? AND payment_status = ?",
			guideID, statuses, domain.BookingPaymentPaid).
		Scan(&row).Error
	return row.Sum, err
}

type MonthlyEarning struct {
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
	Count  int64           `json:"count"`
}

// MonthlyEarnings buckets completed, paid bookings by calendar month since
// the cutoff. Bucketing happens in Go so the query stays portable across
// postgres and the sqlite test driver.
func (r *BookingRepository) MonthlyEarnings(ctx context.Context, guideID int64, since time.Time) ([]MonthlyEarning, error) {
	var rows []struct {
		BookingDate time.Time
		TotalPrice  decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&domain.Booking{}).
		Select("booking_date, total_price").
		Where("guide_id = ? AND status = ? AND payment_status = ? AND booking_date >= ?",
			guideID, domain.BookingCompleted, domain.BookingPaymentPaid, since).
		Order("booking_date ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	byMonth := map[string]*MonthlyEarning{}
	var order []string
	for _, row := range rows {
		key := row.BookingDate.Format("2006-01")
		bucket, ok := byMonth[key]
		if !ok {
			bucket = &MonthlyEarning{Month: key, Amount: decimal.Zero}
			byMonth[key] = bucket
			order = append(order, key)
		}
		bucket.Amount = bucket.Amount.Add(row.TotalPrice)
		bucket.Count++
	}

	out := make([]MonthlyEarning, 0, len(order))
	for _, key := range order {
		out = append(out, *byMonth[key])
	}
	return out, nil
}
