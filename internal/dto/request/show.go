package request

import "time"

// ProvisionShowRequest carries the venue-layout seed for one show. It is
// consumed exactly once at show-setup time; seat existence is never
// re-derived from it afterwards.
type ProvisionShowRequest struct {
	Title     string          `json:"title" validate:"required,min=1,max=200"`
	VenueName string          `json:"venue_name" validate:"required,min=1,max=200"`
	StartsAt  time.Time       `json:"starts_at" validate:"required"`
	Sections  []SectionLayout `json:"sections" validate:"required,min=1,dive"`
}

type SectionLayout struct {
	Name       string      `json:"name" validate:"required,min=1,max=50"`
	PricePence int         `json:"price_pence" validate:"required,gt=0"`
	Rows       []RowLayout `json:"rows" validate:"required,min=1,dive"`
}

type RowLayout struct {
	Label      string `json:"label" validate:"required,min=1,max=5"`
	Seats      int    `json:"seats" validate:"required,gt=0"`
	Accessible bool   `json:"accessible"`
}
