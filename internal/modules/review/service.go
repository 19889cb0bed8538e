package review

import (
	"context"
	"time"

	"tourmarket/internal/domain"
	"tourmarket/internal/repository"

	"go.uber.org/zap"
)

type Service struct {
	reviews    ReviewStore
	bookings   BookingReader
	aggregator Aggregator
	log        *zap.Logger
	now        func() time.Time
}

func NewService(reviews ReviewStore, bookings BookingReader, aggregator Aggregator, log *zap.Logger) *Service {
	return &Service{
		reviews:    reviews,
		bookings:   bookings,
		aggregator: aggregator,
		log:        log,
		now:        time.Now,
	}
}

// CreateReview publishes a review for a completed booking. One review per
// booking; the unique index is the final arbiter when requests race.
func (s *Service) CreateReview(ctx context.Context, touristID int64, req CreateReviewRequest) (*domain.Review, error) {
	b, err := s.bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if b.TouristID != touristID {
		return nil, ErrForbidden
	}
	if b.Status != domain.BookingCompleted {
		return nil, ErrNotCompleted
	}

	rev := &domain.Review{
		BookingID: b.ID,
		ListingID: b.ListingID,
		TouristID: b.TouristID,
		GuideID:   b.GuideID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := s.reviews.Create(ctx, rev); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrAlreadyReviewed
		}
		return nil, err
	}

	if err := s.aggregator.RecordReview(ctx, b.ListingID, req.Rating); err != nil {
		// the review stands; the aggregate can be recomputed
		s.log.Error("record rating failed",
			zap.Int64("listing_id", b.ListingID), zap.Error(err))
	}

	s.log.Info("review created",
		zap.Int64("review_id", rev.ID),
		zap.Int64("booking_id", b.ID),
		zap.Int("rating", req.Rating))
	return rev, nil
}

// EditReview updates a review inside its edit window. The old rating is
// swapped out of the listing aggregate, not added on top.
func (s *Service) EditReview(ctx context.Context, touristID, reviewID int64, req EditReviewRequest) (*domain.Review, error) {
	rev, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if rev.TouristID != touristID {
		return nil, ErrForbidden
	}
	if !rev.Editable(s.now()) {
		return nil, ErrEditWindowClosed
	}

	oldRating := rev.Rating
	if err := s.reviews.Update(ctx, reviewID, req.Rating, req.Comment); err != nil {
		return nil, err
	}

	if oldRating != req.Rating && !rev.IsHidden {
		if err := s.aggregator.ReviseReview(ctx, rev.ListingID, oldRating, req.Rating); err != nil {
			s.log.Error("revise rating failed",
				zap.Int64("listing_id", rev.ListingID), zap.Error(err))
		}
	}

	rev.Rating = req.Rating
	rev.Comment = req.Comment
	rev.IsEdited = true
	return rev, nil
}

// ReportReview counts a report against a review and hides it once the
// threshold is reached. Hiding withdraws its rating from the aggregate.
func (s *Service) ReportReview(ctx context.Context, reviewID int64) (int, error) {
	rev, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if repository.IsNotFound(err) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	count, err := s.reviews.IncrementReport(ctx, reviewID)
	if err != nil {
		return 0, err
	}

	if count >= domain.HideReportThreshold {
		changed, err := s.reviews.SetHidden(ctx, reviewID, true)
		if err != nil {
			return count, err
		}
		if changed {
			if err := s.aggregator.RemoveReview(ctx, rev.ListingID, rev.Rating); err != nil {
				s.log.Error("remove rating failed",
					zap.Int64("listing_id", rev.ListingID), zap.Error(err))
			}
			s.log.Info("review auto-hidden",
				zap.Int64("review_id", reviewID), zap.Int("reports", count))
		}
	}
	return count, nil
}

// SetVisibility is the moderation override. The conditional update inside
// SetHidden guarantees the aggregate is adjusted exactly once per flip.
func (s *Service) SetVisibility(ctx context.Context, reviewID int64, hidden bool) (*domain.Review, error) {
	rev, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	changed, err := s.reviews.SetHidden(ctx, reviewID, hidden)
	if err != nil {
		return nil, err
	}
	if changed {
		if hidden {
			err = s.aggregator.RemoveReview(ctx, rev.ListingID, rev.Rating)
		} else {
			err = s.aggregator.RestoreReview(ctx, rev.ListingID, rev.Rating)
		}
		if err != nil {
			s.log.Error("adjust rating on visibility change failed",
				zap.Int64("listing_id", rev.ListingID), zap.Error(err))
		}
	}

	rev.IsHidden = hidden
	return rev, nil
}

// ListReviews returns visible reviews; only admins may include hidden ones.
func (s *Service) ListReviews(ctx context.Context, role domain.UserRole, q ListQuery) ([]domain.Review, int64, error) {
	f := repository.ReviewFilter{
		ListingID:     q.ListingID,
		GuideID:       q.GuideID,
		IncludeHidden: q.IncludeHidden && role == domain.RoleAdmin,
		Page:          q.Page,
		PerPage:       q.PerPage,
	}
	return s.reviews.List(ctx, f)
}

func (s *Service) GetReview(ctx context.Context, reviewID int64) (*domain.Review, error) {
	rev, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rev, nil
}
