package listing

import (
	"context"

	"tourmarket/internal/domain"
	"tourmarket/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ListingStore interface {
	Create(ctx context.Context, l *domain.Listing) error
	GetByID(ctx context.Context, id int64) (*domain.Listing, error)
	Update(ctx context.Context, l *domain.Listing) error
	List(ctx context.Context, f repository.ListingFilter) ([]domain.Listing, int64, error)
}

type Service struct {
	listings ListingStore
	log      *zap.Logger
}

func NewService(listings ListingStore, log *zap.Logger) *Service {
	return &Service{listings: listings, log: log}
}

func (s *Service) CreateListing(ctx context.Context, guideID int64, req CreateListingRequest) (*domain.Listing, error) {
	fee, err := decimal.NewFromString(req.TourFee)
	if err != nil || !fee.IsPositive() {
		return nil, ErrValidation
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	l := &domain.Listing{
		GuideID:      guideID,
		Title:        req.Title,
		Description:  req.Description,
		City:         req.City,
		Country:      req.Country,
		Category:     req.Category,
		TourFee:      fee,
		Currency:     currency,
		DurationHrs:  req.DurationHrs,
		MaxGroupSize: req.MaxGroupSize,
		Status:       domain.ListingActive,
		IsActive:     true,
	}
	if err := s.listings.Create(ctx, l); err != nil {
		return nil, err
	}

	s.log.Info("listing created",
		zap.Int64("listing_id", l.ID), zap.Int64("guide_id", guideID))
	return l, nil
}

func (s *Service) UpdateListing(ctx context.Context, guideID, listingID int64, req UpdateListingRequest) (*domain.Listing, error) {
	l, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if l.GuideID != guideID {
		return nil, ErrForbidden
	}

	if req.Title != nil {
		l.Title = *req.Title
	}
	if req.Description != nil {
		l.Description = *req.Description
	}
	if req.TourFee != nil {
		fee, err := decimal.NewFromString(*req.TourFee)
		if err != nil || !fee.IsPositive() {
			return nil, ErrValidation
		}
		l.TourFee = fee
	}
	if req.DurationHrs != nil {
		l.DurationHrs = *req.DurationHrs
	}
	if req.MaxGroupSize != nil {
		l.MaxGroupSize = *req.MaxGroupSize
	}
	if req.Status != nil {
		l.Status = domain.ListingStatus(*req.Status)
	}

	if err := s.listings.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// GetListing is the public detail view; inactive listings are only visible
// to their guide.
func (s *Service) GetListing(ctx context.Context, viewerID int64, listingID int64) (*domain.Listing, error) {
	l, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !l.Bookable() && l.GuideID != viewerID {
		return nil, ErrNotFound
	}
	return l, nil
}

func (s *Service) ListListings(ctx context.Context, q ListQuery) ([]domain.Listing, int64, error) {
	return s.listings.List(ctx, repository.ListingFilter{
		GuideID:  q.GuideID,
		City:     q.City,
		Category: q.Category,
		Status:   domain.ListingActive,
		Page:     q.Page,
		PerPage:  q.PerPage,
	})
}
