package review

type CreateReviewRequest struct {
	BookingID int64  `json:"booking_id" binding:"required"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Comment   string `json:"comment" binding:"max=2000"`
}

type EditReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

type VisibilityRequest struct {
	Hidden bool `json:"hidden"`
}

type ListQuery struct {
	ListingID     int64 `form:"listing_id"`
	GuideID       int64 `form:"guide_id"`
	IncludeHidden bool  `form:"include_hidden"`
	Page          int   `form:"page,default=1"`
	PerPage       int   `form:"per_page,default=20"`
}
