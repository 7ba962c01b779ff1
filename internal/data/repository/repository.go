package repository

import (
	"theater-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Show        ShowRepository
	Seat        SeatRepository
	SeatMapping SeatMappingRepository
	Hold        HoldRepository
	Booking     BookingRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Show:        NewShowRepository(db, log),
		Seat:        NewSeatRepository(db, log),
		SeatMapping: NewSeatMappingRepository(db, log),
		Hold:        NewHoldRepository(db, log),
		Booking:     NewBookingRepository(db, log),
	}
}
