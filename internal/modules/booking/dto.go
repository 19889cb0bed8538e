package booking

type CreateBookingRequest struct {
	ListingID       int64  `json:"listing_id" binding:"required"`
	BookingDate     string `json:"booking_date" binding:"required"` // 2006-01-02
	StartTime       string `json:"start_time" binding:"required"`   // 15:04
	NumberOfPeople  int    `json:"number_of_people" binding:"required,min=1"`
	SpecialRequests string `json:"special_requests"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=confirmed rejected"`
	Reason string `json:"reason"`
}

type CancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type ListQuery struct {
	Status    string `form:"status"`
	ListingID int64  `form:"listing_id"`
	DateFrom  string `form:"date_from"` // 2006-01-02
	DateTo    string `form:"date_to"`   // 2006-01-02
	Page      int    `form:"page,default=1"`
	PerPage   int    `form:"per_page,default=20"`
}
