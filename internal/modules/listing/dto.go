package listing

type CreateListingRequest struct {
	Title        string `json:"title" binding:"required,max=200"`
	Description  string `json:"description" binding:"max=5000"`
	City         string `json:"city" binding:"required"`
	Country      string `json:"country" binding:"required"`
	Category     string `json:"category"`
	TourFee      string `json:"tour_fee" binding:"required"`
	Currency     string `json:"currency" binding:"omitempty,len=3"`
	DurationHrs  int    `json:"duration_hours" binding:"required,min=1,max=24"`
	MaxGroupSize int    `json:"max_group_size" binding:"required,min=1,max=100"`
}

type UpdateListingRequest struct {
	Title        *string `json:"title" binding:"omitempty,max=200"`
	Description  *string `json:"description" binding:"omitempty,max=5000"`
	TourFee      *string `json:"tour_fee"`
	DurationHrs  *int    `json:"duration_hours" binding:"omitempty,min=1,max=24"`
	MaxGroupSize *int    `json:"max_group_size" binding:"omitempty,min=1,max=100"`
	Status       *string `json:"status" binding:"omitempty,oneof=active inactive draft"`
}

type ListQuery struct {
	City     string `form:"city"`
	Category string `form:"category"`
	GuideID  int64  `form:"guide_id"`
	Page     int    `form:"page,default=1"`
	PerPage  int    `form:"per_page,default=20"`
}
