package request

type CreateHoldRequest struct {
	ShowID string `json:"show_id" validate:"required,uuid"`
	// Seats are external seat identifiers (e.g. "premium-3-7"); clients
	// never see internal seat IDs.
	Seats        []string `json:"seats" validate:"required,min=1,max=10,dive,required"`
	SessionToken string   `json:"session_token" validate:"required,min=8,max=128"`
	// TTLSeconds optionally shortens the hold window; 0 means the
	// configured default. Values above the configured default are clamped.
	TTLSeconds int `json:"ttl_seconds" validate:"min=0,max=3600"`
}
