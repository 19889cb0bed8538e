package domain

import "time"

// HideReportThreshold is the report count at which a review is auto-hidden.
const HideReportThreshold = 5

// ReviewEditWindow is how long a tourist may edit their review.
const ReviewEditWindow = 7 * 24 * time.Hour

type Review struct {
	ID        int64 `gorm:"primaryKey" json:"id"`
	BookingID int64 `gorm:"uniqueIndex;not null" json:"booking_id"`
	ListingID int64 `gorm:"index;not null" json:"listing_id"`
	TouristID int64 `gorm:"index;not null" json:"tourist_id"`
	GuideID   int64 `gorm:"index;not null" json:"guide_id"`

	Rating  int    `gorm:"not null" json:"rating"`
	Comment string `gorm:"type:text" json:"comment,omitempty"`

	IsEdited    bool `gorm:"default:false" json:"is_edited"`
	ReportCount int  `gorm:"default:0" json:"report_count"`
	IsHidden    bool `gorm:"default:false;index" json:"is_hidden"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Review) TableName() string { return "reviews" }

// Editable reports whether the review is still inside its edit window.
func (r *Review) Editable(now time.Time) bool {
	return now.Sub(r.CreatedAt) <= ReviewEditWindow
}
