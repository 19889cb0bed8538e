package listing

import (
	"context"
	"testing"

	"tourmarket/internal/domain"
	"tourmarket/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockListingStore struct {
	mock.Mock
}

func (m *MockListingStore) Create(ctx context.Context, l *domain.Listing) error {
	args := m.Called(ctx, l)
	if l != nil {
		l.ID = 10 // simulate DB insert
	}
	return args.Error(0)
}

func (m *MockListingStore) GetByID(ctx context.Context, id int64) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockListingStore) Update(ctx context.Context, l *domain.Listing) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockListingStore) List(ctx context.Context, f repository.ListingFilter) ([]domain.Listing, int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.Listing), args.Get(1).(int64), args.Error(2)
}

func newTestService() (*Service, *MockListingStore) {
	listings := new(MockListingStore)
	return NewService(listings, zap.NewNop()), listings
}

func strPtr(s string) *string { return &s }

func TestCreateListing(t *testing.T) {
	svc, listings := newTestService()

	listings.On("Create", mock.Anything, mock.AnythingOfType("*domain.Listing")).Return(nil)

	l, err := svc.CreateListing(context.Background(), 2, CreateListingRequest{
		Title:        "Old Town walking tour",
		City:         "Prague",
		Country:      "Czechia",
		Category:     "walking",
		TourFee:      "45.50",
		DurationHrs:  3,
		MaxGroupSize: 8,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(2), l.GuideID)
	assert.Equal(t, domain.ListingActive, l.Status)
	assert.Equal(t, "USD", l.Currency)
	assert.True(t, l.TourFee.Equal(decimal.RequireFromString("45.50")))
}

func TestCreateListing_BadFee(t *testing.T) {
	svc, listings := newTestService()

	for _, fee := range []string{"free", "-10", "0"} {
		_, err := svc.CreateListing(context.Background(), 2, CreateListingRequest{
			Title: "x", TourFee: fee, DurationHrs: 2, MaxGroupSize: 4,
		})
		assert.ErrorIs(t, err, ErrValidation, "fee %q", fee)
	}
	listings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateListing_OwnerOnly(t *testing.T) {
	svc, listings := newTestService()

	listings.On("GetByID", mock.Anything, int64(10)).Return(&domain.Listing{
		ID: 10, GuideID: 2, TourFee: decimal.NewFromInt(45),
	}, nil)

	_, err := svc.UpdateListing(context.Background(), 99, 10, UpdateListingRequest{
		Title: strPtr("hijacked"),
	})
	assert.ErrorIs(t, err, ErrForbidden)
	listings.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateListing_PartialFields(t *testing.T) {
	svc, listings := newTestService()

	listings.On("GetByID", mock.Anything, int64(10)).Return(&domain.Listing{
		ID: 10, GuideID: 2, Title: "Old title",
		TourFee: decimal.NewFromInt(45), DurationHrs: 3, MaxGroupSize: 8,
	}, nil)
	listings.On("Update", mock.Anything, mock.AnythingOfType("*domain.Listing")).Return(nil)

	l, err := svc.UpdateListing(context.Background(), 2, 10, UpdateListingRequest{
		TourFee: strPtr("60"),
	})
	assert.NoError(t, err)
	assert.Equal(t, "Old title", l.Title)
	assert.True(t, l.TourFee.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, 3, l.DurationHrs)
}

func TestGetListing_HidesInactiveFromStrangers(t *testing.T) {
	svc, listings := newTestService()

	listings.On("GetByID", mock.Anything, int64(10)).Return(&domain.Listing{
		ID: 10, GuideID: 2, Status: domain.ListingInactive, IsActive: true,
	}, nil)

	_, err := svc.GetListing(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrNotFound)

	// the owning guide still sees it
	l, err := svc.GetListing(context.Background(), 2, 10)
	assert.NoError(t, err)
	assert.Equal(t, int64(10), l.ID)
}

func TestListListings_ActiveOnly(t *testing.T) {
	svc, listings := newTestService()

	listings.On("List", mock.Anything, mock.MatchedBy(func(f repository.ListingFilter) bool {
		return f.Status == domain.ListingActive && f.City == "Prague"
	})).Return([]domain.Listing{{ID: 10}}, int64(1), nil)

	got, total, err := svc.ListListings(context.Background(), ListQuery{City: "Prague", Page: 1, PerPage: 20})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, got, 1)
}
