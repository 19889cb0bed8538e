package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ListingStatus string

const (
	ListingActive   ListingStatus = "active"
	ListingInactive ListingStatus = "inactive"
	ListingDraft    ListingStatus = "draft"
)

type Listing struct {
	ID           int64           `gorm:"primaryKey" json:"id"`
	GuideID      int64           `gorm:"index;not null" json:"guide_id"`
	Title        string          `gorm:"not null" json:"title"`
	Description  string          `gorm:"type:text" json:"description,omitempty"`
	City         string          `gorm:"index" json:"city"`
	Country      string          `gorm:"index" json:"country"`
	Category     string          `gorm:"index" json:"category,omitempty"`
	TourFee      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tour_fee"`
	Currency     string          `gorm:"type:varchar(3);default:'USD'" json:"currency"`
	DurationHrs  int             `gorm:"not null" json:"duration_hours"`
	MaxGroupSize int             `gorm:"not null" json:"max_group_size"`
	Status       ListingStatus   `gorm:"type:varchar(20);default:'active';index" json:"status"`
	IsActive     bool            `gorm:"default:true" json:"is_active"`

	// Derived aggregates, owned by the rating aggregator. Mutated only
	// through ListingRepository rating/booking-count entry points.
	AverageRating decimal.Decimal `gorm:"type:decimal(3,1);default:0" json:"average_rating"`
	TotalReviews  int64           `gorm:"default:0" json:"total_reviews"`
	TotalBookings int64           `gorm:"default:0" json:"total_bookings"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Listing) TableName() string { return "listings" }

// Bookable reports whether new bookings may be created against the listing.
func (l *Listing) Bookable() bool {
	return l.IsActive && l.Status == ListingActive
}
