package repository

import (
	"context"

	"tourmarket/internal/domain"

	"gorm.io/gorm"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts the review. The unique index on booking_id makes a second
// review for the same booking fail; callers translate that with
// IsUniqueViolation.
func (r *ReviewRepository) Create(ctx context.Context, rev *domain.Review) error {
	return r.db.WithContext(ctx).Create(rev).Error
}

func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	var rev domain.Review
	if err := r.db.WithContext(ctx).First(&rev, id).Error; err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *ReviewRepository) GetByBookingID(ctx context.Context, bookingID int64) (*domain.Review, error) {
	var rev domain.Review
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&rev).Error; err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *ReviewRepository) Update(ctx context.Context, id int64, rating int, comment string) error {
	return r.db.WithContext(ctx).Model(&domain.Review{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"rating":    rating,
			"comment":   comment,
			"is_edited": true,
		}).Error
}

type ReviewFilter struct {
	ListingID     int64
	GuideID       int64
	TouristID     int64
	IncludeHidden bool
	Page          int
	PerPage       int
}

func (r *ReviewRepository) List(ctx context.Context, f ReviewFilter) ([]domain.Review, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Review{})
	if f.ListingID != 0 {
		q = q.Where("listing_id = ?", f.ListingID)
	}
	if f.GuideID != 0 {
		q = q.Where("guide_id = ?", f.GuideID)
	}
	if f.TouristID != 0 {
		q = q.Where("tourist_id = ?", f.TouristID)
	}
	if !f.IncludeHidden {
		q = q.Where("is_hidden = ?", false)
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

	var reviews []domain.Review
	err := q.Order("created_at DESC").
		Limit(f.PerPage).
		Offset((f.Page - 1) * f.PerPage).
		Find(&reviews).Error
	return reviews, total, err
}

// IncrementReport bumps report_count atomically and returns the new value.
func (r *ReviewRepository) IncrementReport(ctx context.Context, id int64) (int, error) {
	res := r.db.WithContext(ctx).Model(&domain.Review{}).
		Where("id = ?", id).
		Update("report_count", gorm.Expr("report_count + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}

	var rev domain.Review
	if err := r.db.WithContext(ctx).Select("report_count").First(&rev, id).Error; err != nil {
		return 0, err
	}
	return rev.ReportCount, nil
}

// SetHidden flips visibility and reports whether the row actually changed,
// so the caller adjusts the rating aggregate exactly once.
func (r *ReviewRepository) SetHidden(ctx context.Context, id int64, hidden bool) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Review{}).
		Where("id = ? AND is_hidden = ?", id, !hidden).
		Update("is_hidden", hidden)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
