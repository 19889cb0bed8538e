package payment

type CreateIntentRequest struct {
	BookingID int64 `json:"booking_id" binding:"required"`
}

type CreateIntentResponse struct {
	PaymentID    string `json:"payment_id"`
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
}

type ConfirmRequest struct {
	IntentID string `json:"intent_id" binding:"required"`
}

type RefundRequest struct {
	Amount string `json:"amount"` // empty means refund everything left
	Reason string `json:"reason" binding:"required"`
}

type ListQuery struct {
	BookingID int64  `form:"booking_id"`
	Status    string `form:"status"`
	Type      string `form:"type"`
	Page      int    `form:"page,default=1"`
	PerPage   int    `form:"per_page,default=20"`
}
