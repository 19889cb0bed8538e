package repository

import (
	"context"

	"tourmarket/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func (r *ListingRepository) Create(ctx context.Context, l *domain.Listing) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *ListingRepository) GetByID(ctx context.Context, id int64) (*domain.Listing, error) {
	var l domain.Listing
	if err := r.db.WithContext(ctx).First(&l, id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *ListingRepository) Update(ctx context.Context, l *domain.Listing) error {
	return r.db.WithContext(ctx).Save(l).Error
}

type ListingFilter struct {
	GuideID  int64
	City     string
	Category string
	Status   domain.ListingStatus
	Page     int
	PerPage  int
}

func (r *ListingRepository) List(ctx context.Context, f ListingFilter) ([]domain.Listing, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Listing{})
	if f.GuideID != 0 {
		q = q.Where("guide_id = ?", f.GuideID)
	}
	if f.City != "" {
		q = q.Where("city = ?", f.City)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
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

	var listings []domain.Listing
	err := q.Order("created_at DESC").
		Limit(f.PerPage).
		Offset((f.Page - 1) * f.PerPage).
		Find(&listings).Error
	return listings, total, err
}

// SetActiveBulk flips is_active for the given listings. Existing bookings
// are untouched.
func (r *ListingRepository) SetActiveBulk(ctx context.Context, ids []int64, active bool) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Listing{}).
		Where("id IN ?", ids).
		Update("is_active", active)
	return res.RowsAffected, res.Error
}

// IncrementBookingCount bumps total_bookings by one. Called once per
// confirmation, never on payment events.
func (r *ListingRepository) IncrementBookingCount(ctx context.Context, listingID int64) error {
	return r.db.WithContext(ctx).
		Model(&domain.Listing{}).
		Where("id = ?", listingID).
		Update("total_bookings", gorm.Expr("total_bookings + 1")).Error
}

// FoldRating folds one new rating into a running average, returning the new
// average rounded to one decimal and the new count.
func FoldRating(avg decimal.Decimal, total int64, rating int) (decimal.Decimal, int64) {
	sum := avg.Mul(decimal.NewFromInt(total)).Add(decimal.NewFromInt(int64(rating)))
	total++
	return sum.Div(decimal.NewFromInt(total)).Round(1), total
}

// SwapRating replaces an old rating with a new one, count unchanged.
func SwapRating(avg decimal.Decimal, total int64, oldRating, newRating int) (decimal.Decimal, int64) {
	if total == 0 {
		return decimal.Zero, 0
	}
	sum := avg.Mul(decimal.NewFromInt(total)).
		Sub(decimal.NewFromInt(int64(oldRating))).
		Add(decimal.NewFromInt(int64(newRating)))
	return sum.Div(decimal.NewFromInt(total)).Round(1), total
}

// UnfoldRating takes one rating back out of the average.
func UnfoldRating(avg decimal.Decimal, total int64, rating int) (decimal.Decimal, int64) {
	if total <= 1 {
		return decimal.Zero, 0
	}
	sum := avg.Mul(decimal.NewFromInt(total)).Sub(decimal.NewFromInt(int64(rating)))
	total--
	return sum.Div(decimal.NewFromInt(total)).Round(1), total
}

// RecordRating folds a new rating into the running average under a row lock.
func (r *ListingRepository) RecordRating(ctx context.Context, listingID int64, rating int) error {
	return r.mutateRating(ctx, listingID, func(avg decimal.Decimal, total int64) (decimal.Decimal, int64) {
		return FoldRating(avg, total, rating)
	})
}

// ReviseRating swaps an old rating for a new one without changing the count.
func (r *ListingRepository) ReviseRating(ctx context.Context, listingID int64, oldRating, newRating int) error {
	return r.mutateRating(ctx, listingID, func(avg decimal.Decimal, total int64) (decimal.Decimal, int64) {
		return SwapRating(avg, total, oldRating, newRating)
	})
}

// RemoveRating takes a rating out of the aggregate, used when a review is
// hidden or deleted.
func (r *ListingRepository) RemoveRating(ctx context.Context, listingID int64, rating int) error {
	return r.mutateRating(ctx, listingID, func(avg decimal.Decimal, total int64) (decimal.Decimal, int64) {
		return UnfoldRating(avg, total, rating)
	})
}

func (r *ListingRepository) mutateRating(ctx context.Context, listingID int64, fn func(avg decimal.Decimal, total int64) (decimal.Decimal, int64)) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var l domain.Listing
		if err := lockForUpdate(tx).First(&l, listingID).Error; err != nil {
			return err
		}
		avg, total := fn(l.AverageRating, l.TotalReviews)
		return tx.Model(&domain.Listing{}).
			Where("id = ?", listingID).
			Updates(map[string]interface{}{
				"average_rating": avg,
				"total_reviews":  total,
			}).Error
	})
}

// Recompute rebuilds the aggregate from visible reviews. Repair path for
// drift; the incremental entry points are the normal route.
func (r *ListingRepository) Recompute(ctx context.Context, listingID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var l domain.Listing
		if err := lockForUpdate(tx).First(&l, listingID).Error; err != nil {
			return err
		}

		var stats struct {
			Total int64
			Sum   int64
		}
		err := tx.Model(&domain.Review{}).
			Select("COUNT(*) AS total, COALESCE(SUM(rating), 0) AS sum").
			Where("listing_id = ? AND is_hidden = ?", listingID, false).
			Scan(&stats).Error
		if err != nil {
			return err
		}

		avg := decimal.Zero
		if stats.Total > 0 {
			avg = decimal.NewFromInt(stats.Sum).Div(decimal.NewFromInt(stats.Total)).Round(1)
		}
		return tx.Model(&domain.Listing{}).
			Where("id = ?", listingID).
			Updates(map[string]interface{}{
				"average_rating": avg,
				"total_reviews":  stats.Total,
			}).Error
	})
}
