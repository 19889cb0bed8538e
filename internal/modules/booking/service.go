package booking

import (
	"context"
	"time"

	"tourmarket/internal/domain"
	"tourmarket/internal/repository"

	"go.uber.org/zap"
)

type Service struct {
	bookings BookingStore
	listings ListingStore
	users    UserReader
	refunder PaymentRefunder
	log      *zap.Logger
}

func NewService(bookings BookingStore, listings ListingStore, users UserReader, refunder PaymentRefunder, log *zap.Logger) *Service {
	return &Service{
		bookings: bookings,
		listings: listings,
		users:    users,
		refunder: refunder,
		log:      log,
	}
}

func (s *Service) CreateBooking(ctx context.Context, touristID int64, req CreateBookingRequest) (*domain.Booking, error) {
	tourist, err := s.users.GetByID(ctx, touristID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	if tourist.Role != domain.RoleTourist || !tourist.IsActive {
		return nil, ErrForbidden
	}

	bookingDate, err := time.Parse("2006-01-02", req.BookingDate)
	if err != nil {
		return nil, ErrValidation
	}

	listing, err := s.listings.GetByID(ctx, req.ListingID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if !listing.Bookable() {
		return nil, ErrListingInactive
	}
	if req.NumberOfPeople > listing.MaxGroupSize {
		return nil, ErrGroupTooLarge
	}

	endTime, err := domain.DeriveEndTime(req.StartTime, listing.DurationHrs)
	if err != nil {
		return nil, ErrValidation
	}

	b := &domain.Booking{
		TouristID:       touristID,
		GuideID:         listing.GuideID,
		ListingID:       listing.ID,
		BookingDate:     bookingDate,
		StartTime:       req.StartTime,
		EndTime:         endTime,
		NumberOfPeople:  req.NumberOfPeople,
		TotalPrice:      domain.TotalBookingPrice(listing.TourFee, req.NumberOfPeople),
		Currency:        listing.Currency,
		Status:          domain.BookingPending,
		PaymentStatus:   domain.BookingPaymentPending,
		SpecialRequests: req.SpecialRequests,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}

	s.log.Info("booking created",
		zap.Int64("booking_id", b.ID),
		zap.Int64("listing_id", listing.ID),
		zap.Int64("tourist_id", touristID))
	return b, nil
}

// UpdateStatus lets the guide confirm or reject a pending booking. The move
// is a conditional update; whoever writes second gets ErrConflict.
func (s *Service) UpdateStatus(ctx context.Context, guideID, bookingID int64, to domain.BookingStatus, reason string) (*domain.Booking, error) {
	if to != domain.BookingConfirmed && to != domain.BookingRejected {
		return nil, ErrValidation
	}

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if b.GuideID != guideID {
		return nil, ErrForbidden
	}
	if !domain.CanTransitionBooking(b.Status, to) {
		return nil, ErrInvalidTransition
	}

	now := time.Now().UTC()
	var ok bool
	if to == domain.BookingRejected {
		// rejections carry the same audit fields as cancellations
		ok, err = s.bookings.RejectIf(ctx, bookingID, reason, guideID, now)
	} else {
		ok, err = s.bookings.UpdateStatusIf(ctx, bookingID, b.Status, to)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	if to == domain.BookingConfirmed {
		if err := s.listings.IncrementBookingCount(ctx, b.ListingID); err != nil {
			// aggregate drift is repairable; the confirmation itself stands
			s.log.Error("increment booking count failed",
				zap.Int64("listing_id", b.ListingID), zap.Error(err))
		}
	}

	b.Status = to
	if to == domain.BookingRejected {
		b.CancellationReason = reason
		b.CancelledBy = &guideID
		b.CancelledAt = &now
	}
	s.log.Info("booking status updated",
		zap.Int64("booking_id", bookingID),
		zap.String("status", string(to)),
		zap.String("reason", reason))
	return b, nil
}

// CancelBooking cancels a pending or confirmed booking. When money was
// taken, the refund runs first; the booking stays in its current status if
// the refund does not go through.
func (s *Service) CancelBooking(ctx context.Context, userID int64, role domain.UserRole, bookingID int64, reason string) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	switch role {
	case domain.RoleAdmin:
	case domain.RoleTourist:
		if b.TouristID != userID {
			return nil, ErrForbidden
		}
	case domain.RoleGuide:
		if b.GuideID != userID {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}

	if !domain.CanTransitionBooking(b.Status, domain.BookingCancelled) {
		return nil, ErrInvalidTransition
	}
	// past tours can be completed or disputed, not cancelled
	if b.BookingDate.Before(startOfDay(time.Now().UTC())) {
		return nil, ErrInvalidTransition
	}

	if b.PaymentStatus == domain.BookingPaymentPaid {
		if err := s.refunder.RefundForBooking(ctx, bookingID, reason); err != nil {
			s.log.Error("refund on cancel failed",
				zap.Int64("booking_id", bookingID), zap.Error(err))
			return nil, ErrRefundFailed
		}
	}

	now := time.Now().UTC()
	ok, err := s.bookings.CancelIf(ctx, bookingID,
		[]domain.BookingStatus{domain.BookingPending, domain.BookingConfirmed},
		reason, userID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	b.Status = domain.BookingCancelled
	b.CancellationReason = reason
	b.CancelledBy = &userID
	b.CancelledAt = &now
	s.log.Info("booking cancelled",
		zap.Int64("booking_id", bookingID), zap.Int64("by", userID))
	return b, nil
}

// CompleteBooking marks a confirmed, paid booking as done. The owning guide
// or an admin may do it.
func (s *Service) CompleteBooking(ctx context.Context, userID int64, role domain.UserRole, bookingID int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if role != domain.RoleAdmin && b.GuideID != userID {
		return nil, ErrForbidden
	}
	if !domain.CanTransitionBooking(b.Status, domain.BookingCompleted) {
		return nil, ErrInvalidTransition
	}

	now := time.Now().UTC()
	ok, err := s.bookings.CompleteIfConfirmedPaid(ctx, bookingID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// confirmed but unpaid, or lost a race
		return nil, ErrConflict
	}

	b.Status = domain.BookingCompleted
	b.CompletedAt = &now
	return b, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func (s *Service) GetBooking(ctx context.Context, userID int64, role domain.UserRole, bookingID int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if role != domain.RoleAdmin && b.TouristID != userID && b.GuideID != userID {
		return nil, ErrForbidden
	}
	return b, nil
}

// ListBookings returns the caller's own bookings; admins see everything.
func (s *Service) ListBookings(ctx context.Context, userID int64, role domain.UserRole, q ListQuery) ([]domain.Booking, int64, error) {
	f, err := s.listFilter(userID, role, q)
	if err != nil {
		return nil, 0, err
	}
	return s.bookings.List(ctx, f)
}

// UpcomingBookings lists the caller's still-live bookings dated today or
// later, earliest first.
func (s *Service) UpcomingBookings(ctx context.Context, userID int64, role domain.UserRole, q ListQuery) ([]domain.Booking, int64, error) {
	f, err := s.listFilter(userID, role, q)
	if err != nil {
		return nil, 0, err
	}
	f.Scope = repository.ScopeUpcoming
	return s.bookings.List(ctx, f)
}

// PastBookings lists bookings whose date went by or that already closed out.
func (s *Service) PastBookings(ctx context.Context, userID int64, role domain.UserRole, q ListQuery) ([]domain.Booking, int64, error) {
	f, err := s.listFilter(userID, role, q)
	if err != nil {
		return nil, 0, err
	}
	f.Scope = repository.ScopePast
	return s.bookings.List(ctx, f)
}

func (s *Service) listFilter(userID int64, role domain.UserRole, q ListQuery) (repository.BookingFilter, error) {
	f := repository.BookingFilter{
		ListingID: q.ListingID,
		Status:    domain.BookingStatus(q.Status),
		Page:      q.Page,
		PerPage:   q.PerPage,
	}
	if q.Status != "" && !f.Status.Valid() {
		return f, ErrValidation
	}
	if q.DateFrom != "" {
		t, err := time.Parse("2006-01-02", q.DateFrom)
		if err != nil {
			return f, ErrValidation
		}
		f.DateFrom = &t
	}
	if q.DateTo != "" {
		t, err := time.Parse("2006-01-02", q.DateTo)
		if err != nil {
			return f, ErrValidation
		}
		f.DateTo = &t
	}
	switch role {
	case domain.RoleTourist:
		f.TouristID = userID
	case domain.RoleGuide:
		f.GuideID = userID
	case domain.RoleAdmin:
	default:
		return f, ErrForbidden
	}
	return f, nil
}
