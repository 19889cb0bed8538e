package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"tourmarket/internal/domain"
	"tourmarket/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockBookingStore struct {
	mock.Mock
}

func (m *MockBookingStore) Create(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	if b != nil {
		b.ID = 101 // simulate DB insert
	}
	return args.Error(0)
}

func (m *MockBookingStore) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingStore) List(ctx context.Context, f repository.BookingFilter) ([]domain.Booking, int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.Booking), args.Get(1).(int64), args.Error(2)
}

func (m *MockBookingStore) UpdateStatusIf(ctx context.Context, id int64, from, to domain.BookingStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingStore) RejectIf(ctx context.Context, id int64, reason string, rejectedBy int64, at time.Time) (bool, error) {
	args := m.Called(ctx, id, reason, rejectedBy, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingStore) CancelIf(ctx context.Context, id int64, from []domain.BookingStatus, reason string, cancelledBy int64, at time.Time) (bool, error) {
	args := m.Called(ctx, id, from, reason, cancelledBy, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingStore) CompleteIfConfirmedPaid(ctx context.Context, id int64, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

type MockListingStore struct {
	mock.Mock
}

func (m *MockListingStore) GetByID(ctx context.Context, id int64) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockListingStore) IncrementBookingCount(ctx context.Context, listingID int64) error {
	args := m.Called(ctx, listingID)
	return args.Error(0)
}

type MockUserReader struct {
	mock.Mock
}

func (m *MockUserReader) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockRefunder struct {
	mock.Mock
}

func (m *MockRefunder) RefundForBooking(ctx context.Context, bookingID int64, reason string) error {
	args := m.Called(ctx, bookingID, reason)
	return args.Error(0)
}

func newTestService() (*Service, *MockBookingStore, *MockListingStore, *MockUserReader, *MockRefunder) {
	bookings := new(MockBookingStore)
	listings := new(MockListingStore)
	users := new(MockUserReader)
	refunder := new(MockRefunder)
	svc := NewService(bookings, listings, users, refunder, zap.NewNop())
	return svc, bookings, listings, users, refunder
}

func activeTourist(id int64) *domain.User {
	return &domain.User{ID: id, Role: domain.RoleTourist, IsActive: true}
}

func activeListing(id, guideID int64) *domain.Listing {
	return &domain.Listing{
		ID:           id,
		GuideID:      guideID,
		TourFee:      decimal.NewFromInt(50),
		Currency:     "USD",
		DurationHrs:  3,
		MaxGroupSize: 6,
		Status:       domain.ListingActive,
		IsActive:     true,
	}
}

func TestCreateBooking(t *testing.T) {
	svc, bookings, listings, users, _ := newTestService()

	users.On("GetByID", mock.Anything, int64(1)).Return(activeTourist(1), nil)
	listings.On("GetByID", mock.Anything, int64(10)).Return(activeListing(10, 2), nil)
	bookings.On("Create", mock.Anything, mock.AnythingOfType("*domain.Booking")).Return(nil)

	b, err := svc.CreateBooking(context.Background(), 1, CreateBookingRequest{
		ListingID:      10,
		BookingDate:    "2026-09-15",
		StartTime:      "09:30",
		NumberOfPeople: 4,
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingPending, b.Status)
	assert.Equal(t, domain.BookingPaymentPending, b.PaymentStatus)
	assert.Equal(t, int64(2), b.GuideID)
	assert.Equal(t, "12:30", b.EndTime)
	assert.True(t, b.TotalPrice.Equal(decimal.NewFromInt(200)))
	bookings.AssertExpectations(t)
}

func TestCreateBooking_GroupTooLarge(t *testing.T) {
	svc, _, listings, users, _ := newTestService()

	users.On("GetByID", mock.Anything, int64(1)).Return(activeTourist(1), nil)
	listings.On("GetByID", mock.Anything, int64(10)).Return(activeListing(10, 2), nil)

	_, err := svc.CreateBooking(context.Background(), 1, CreateBookingRequest{
		ListingID:      10,
		BookingDate:    "2026-09-15",
		StartTime:      "09:30",
		NumberOfPeople: 7,
	})
	assert.ErrorIs(t, err, ErrGroupTooLarge)
}

func TestCreateBooking_InactiveListing(t *testing.T) {
	svc, _, listings, users, _ := newTestService()

	l := activeListing(10, 2)
	l.IsActive = false
	users.On("GetByID", mock.Anything, int64(1)).Return(activeTourist(1), nil)
	listings.On("GetByID", mock.Anything, int64(10)).Return(l, nil)

	_, err := svc.CreateBooking(context.Background(), 1, CreateBookingRequest{
		ListingID:      10,
		BookingDate:    "2026-09-15",
		StartTime:      "09:30",
		NumberOfPeople: 2,
	})
	assert.ErrorIs(t, err, ErrListingInactive)
}

func TestCreateBooking_BadStartTime(t *testing.T) {
	svc, _, listings, users, _ := newTestService()

	users.On("GetByID", mock.Anything, int64(1)).Return(activeTourist(1), nil)
	listings.On("GetByID", mock.Anything, int64(10)).Return(activeListing(10, 2), nil)

	_, err := svc.CreateBooking(context.Background(), 1, CreateBookingRequest{
		ListingID:      10,
		BookingDate:    "2026-09-15",
		StartTime:      "9am",
		NumberOfPeople: 2,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateStatus_ConfirmIncrementsBookingCount(t *testing.T) {
	svc, bookings, listings, _, _ := newTestService()

	bookings.On("GetByID", mock.Anything, int64(5)).Return(&domain.Booking{
		ID: 5, GuideID: 2, ListingID: 10, Status: domain.BookingPending,
	}, nil)
	bookings.On("UpdateStatusIf", mock.Anything, int64(5), domain.BookingPending, domain.BookingConfirmed).
		Return(true, nil)
	listings.On("IncrementBookingCount", mock.Anything, int64(10)).Return(nil)

	b, err := svc.UpdateStatus(context.Background(), 2, 5, domain.BookingConfirmed, "")
	assert.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, b.Status)
	listings.AssertExpectations(t)
}

func TestUpdateStatus_RejectSkipsBookingCount(t *testing.T) {
	svc, bookings, listings, _, _ := newTestService()

	bookings.On("GetByID", mock.Anything, int64(5)).Return(&domain.Booking{
		ID: 5, GuideID: 2, ListingID: 10, Status: domain.BookingPending,
	}, nil)
	bookings.On("RejectIf", mock.Anything, int64(5), "fully booked", int64(2), mock.Anything).
		Return(true, nil)

	b, err := svc.UpdateStatus(context.Background(), 2, 5, domain.BookingRejected, "fully booked")
	assert.NoError(t, err)
	assert.Equal(t, domain.BookingRejected, b.Status)
	listings.AssertNotCalled(t, "IncrementBookingCount", mock.Anything, mock.Anything)
}

func TestUpdateStatus_RejectRecordsAudit(t *testing.T) {
	svc, bookings, _, _, _ := newTestService()

	bookings.On("GetByID", mock.Anything, int64(5)).Return(&domain.Booking{
		ID: 5, GuideID: 2, ListingID: 10, Status: domain.BookingPending,
	}, nil)
	bookings.On("RejectIf", mock.Anything, int64(5), "fully booked", int64(2), mock.AnythingOfType("time.Time")).
		Return(true, nil)

	b, err := svc.UpdateStatus(context.Background(), 2, 5, domain.BookingRejected, "fully booked")
	assert.NoError(t, err)
	assert.Equal(t, "fully booked", b.CancellationReason)
	if assert.NotNil(t, b.CancelledBy) {
		assert.Equal(t, int64(2), *b.CancelledBy)
	}
	assert.NotNil(t, b.CancelledAt)
	bookings.AssertNotCalled(t, "UpdateStatusIf",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	bookings.AssertExpectations(t)
}

func TestUpdateStatus_WrongGuide(t *testing.T) {
	svc, bookings, _, _, _ := newTestService()

	bookings.On("GetByID", mock.Anything, int64(5)).Return(&domain.Booking{
		ID: 5, GuideID: 2, Status: domain.BookingPending,
	}, nil)

	_, err := svc.UpdateStatus(context.Background(), 99, 5, domain.BookingConfirmed, "")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateStatus_TerminalBooking(t *testing.T) {
	svc, bookings, _, _, _ := newTestService()

	bookings.On("GetByID", mock.Anything, int64(5)).Return(&domain.Booking{
		ID: 5, GuideID: 2, Status: domain.BookingCancelled,
	}, nil)

	_, err := svc.UpdateStatus(context.Background(), 2, 5, domain.BookingConfirmed, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatus_LosesRace(t *testing.T) {
	svc, bookings, _, _, _ := newTestService()

	bookings.On("GetByID", mock.Anything, int64(5)).Return(&domain.Booking{
		ID: 5, GuideID: 2, Status: domain.BookingPending,
	}, nil)
	bookings.On("UpdateStatusIf", mock.Anything, int64(5), domain.BookingPending, domain.BookingConfirmed).
		Return(false, nil)

	_, err := svc.UpdateStatus(context.Background(), 2, 5, domain.BookingConfirmed, "")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCancelBooking_PaidRefundsFirst(t *testing.T) {
	svc, bookings, _, _, refunder := newTestService()

	bookings.On("GetByID", mock.Anything, int64(5)).Return(&domain.Booking{
		ID: 5, TouristID: 1, GuideID: 2, Status: domain.BookingConfirmed,
		PaymentStatus: domain.BookingPaymentPaid,
		BookingDate:   time.Now().Add(72 * time.Hour),
	}, nil)
	refunder.On("RefundForBooking", mock.Anything, int64(5), "change of plans").Return(nil)
	bookings.On("CancelIf", mock.Anything, int64(5), mock.Anything, "change of plans", int64(1), mock.Anything).
		Return(true, nil)

	b, err := svc.CancelBooking(context.Background(), 1, domain.RoleTourist, 5, "change of plans")
	assert.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, b.Status)
	refunder.AssertExpectations(t)
}

func TestCancelBooking_RefundFailureKeepsBooking(t *testing.T) {
	svc, bookings, _, _, refunder := newTestService()

	bookings.On("GetByID", mock.Anything, int64(5)).Return(&domain.Booking{
		ID: 5, TouristID: 1, GuideID: 2, Status: domain.BookingConfirmed,
		PaymentStatus: domain.BookingPaymentPaid,
		BookingDate:   time.Now().Add(72 * time.Hour),
	}, nil)
	refunder.On("RefundForBooking", mock.Anything, int64(5), "bail").
		Return(errors.New("gateway down"))

	_, err := svc.CancelBooking(context.Background(), 1, domain.RoleTourist, 5, "bail")
	assert.ErrorIs(t, err, ErrRefundFailed)
	bookings.AssertNotCalled(t, "CancelIf",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelBooking_UnpaidSkipsRefund(t *testing.T) {
	svc, bookings, _, _, refunder := newTestService()

	bookings.On("GetByID", mock.Anything, int64(5)).Return(&domain.Booking{
		ID: 5, TouristID: 1, GuideID: 2, Status: domain.BookingPending,
		PaymentStatus: domain.BookingPaymentPending,
		BookingDate:   time.Now().Add(72 * time.Hour),
	}, nil)
	bookings.On("CancelIf", mock.Anything, int64(5), mock.Anything, "no longer needed", int64(1), mock.Anything).
		Return(true, nil)

	_, err := svc.CancelBooking(context.Background(), 1, domain.RoleTourist, 5, "no longer needed")
	assert.NoError(t, err)
	refunder.AssertNotCalled(t, "RefundForBooking", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelBooking_PastDateRejected(t *testing.T) {
	svc, bookings, _, _, refunder := newTestService()

	bookings.On("GetByID", mock.Anything, int64(5)).Return(&domain.Booking{
		ID: 5, TouristID: 1, GuideID: 2, Status: domain.BookingConfirmed,
		PaymentStatus: domain.BookingPaymentPaid,
		BookingDate:   time.Now().Add(-48 * time.Hour),
	}, nil)

	_, err := svc.CancelBooking(context.Background(), 1, domain.RoleTourist, 5, "missed it")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	refunder.AssertNotCalled(t, "RefundForBooking", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelBooking_CompletedIsTerminal(t *testing.T) {
	svc, bookings, _, _, _ := newTestService()

	bookings.On("GetByID", mock.Anything, int64(5)).Return(&domain.Booking{
		ID: 5, TouristID: 1, GuideID: 2, Status: domain.BookingCompleted,
		PaymentStatus: domain.BookingPaymentPaid,
	}, nil)

	_, err := svc.CancelBooking(context.Background(), 1, domain.RoleTourist, 5, "too late")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCompleteBooking_RequiresPaid(t *testing.T) {
	svc, bookings, _, _, _ := newTestService()

	bookings.On("GetByID", mock.Anything, int64(5)).Return(&domain.Booking{
		ID: 5, GuideID: 2, Status: domain.BookingConfirmed,
		PaymentStatus: domain.BookingPaymentPending,
	}, nil)
	bookings.On("CompleteIfConfirmedPaid", mock.Anything, int64(5), mock.Anything).
		Return(false, nil)

	_, err := svc.CompleteBooking(context.Background(), 2, domain.RoleGuide, 5)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestListBookings_ScopedByRole(t *testing.T) {
	svc, bookings, _, _, _ := newTestService()

	bookings.On("List", mock.Anything, mock.MatchedBy(func(f repository.BookingFilter) bool {
		return f.GuideID == 2 && f.TouristID == 0
	})).Return([]domain.Booking{{ID: 1}}, int64(1), nil)

	got, total, err := svc.ListBookings(context.Background(), 2, domain.RoleGuide, ListQuery{Page: 1, PerPage: 20})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, got, 1)
}

func TestListBookings_FiltersWired(t *testing.T) {
	svc, bookings, _, _, _ := newTestService()

	bookings.On("List", mock.Anything, mock.MatchedBy(func(f repository.BookingFilter) bool {
		return f.TouristID == 1 &&
			f.ListingID == 10 &&
			f.DateFrom != nil && f.DateFrom.Format("2006-01-02") == "2026-09-01" &&
			f.DateTo != nil && f.DateTo.Format("2006-01-02") == "2026-09-30"
	})).Return([]domain.Booking{}, int64(0), nil)

	_, _, err := svc.ListBookings(context.Background(), 1, domain.RoleTourist, ListQuery{
		ListingID: 10, DateFrom: "2026-09-01", DateTo: "2026-09-30", Page: 1, PerPage: 20,
	})
	assert.NoError(t, err)
	bookings.AssertExpectations(t)
}

func TestListBookings_BadDateRejected(t *testing.T) {
	svc, bookings, _, _, _ := newTestService()

	_, _, err := svc.ListBookings(context.Background(), 1, domain.RoleTourist, ListQuery{
		DateFrom: "next week",
	})
	assert.ErrorIs(t, err, ErrValidation)
	bookings.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestUpcomingBookings_ScopesQuery(t *testing.T) {
	svc, bookings, _, _, _ := newTestService()

	bookings.On("List", mock.Anything, mock.MatchedBy(func(f repository.BookingFilter) bool {
		return f.Scope == repository.ScopeUpcoming && f.TouristID == 1
	})).Return([]domain.Booking{{ID: 1}}, int64(1), nil)

	got, _, err := svc.UpcomingBookings(context.Background(), 1, domain.RoleTourist, ListQuery{Page: 1, PerPage: 20})
	assert.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestPastBookings_ScopesQuery(t *testing.T) {
	svc, bookings, _, _, _ := newTestService()

	bookings.On("List", mock.Anything, mock.MatchedBy(func(f repository.BookingFilter) bool {
		return f.Scope == repository.ScopePast && f.GuideID == 2
	})).Return([]domain.Booking{{ID: 1}, {ID: 2}}, int64(2), nil)

	got, total, err := svc.PastBookings(context.Background(), 2, domain.RoleGuide, ListQuery{Page: 1, PerPage: 20})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, got, 2)
}
