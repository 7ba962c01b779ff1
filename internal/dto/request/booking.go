package request

type FinalizeBookingRequest struct {
	HoldID      string `json:"hold_id" validate:"required,uuid"`
	CustomerRef string `json:"customer_ref" validate:"required,min=1,max=200"`
	// PaymentConfirmation is the opaque token from the payment processor.
	// Its presence is a precondition; this service does not validate it.
	PaymentConfirmation string `json:"payment_confirmation" validate:"required,min=1,max=500"`
}
