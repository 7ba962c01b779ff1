package usecase

import (
	"context"
	"testing"
	"time"

	"theater-booking/internal/data/entity"
	"theater-booking/internal/dto/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finalizeRequest(holdID string) *request.FinalizeBookingRequest {
	return &request.FinalizeBookingRequest{
		HoldID:              holdID,
		CustomerRef:         "customer-42",
		PaymentConfirmation: "pay_3fb8c1a0",
	}
}

func TestFinalize(t *testing.T) {
	f := newFixture(t)
	showID := f.provisionShow(t)
	hold := f.holdSeats(t, showID, "premium-1-1", "stalls-1-1")

	booking, err := f.bookings.Finalize(context.Background(), finalizeRequest(hold.ID))
	require.NoError(t, err)

	assert.Regexp(t, `^TKT-\d{8}-[23456789BCDFGHJKLMNPQRSTVWXZ]{6}$`, booking.Reference)
	assert.Equal(t, showID, booking.ShowID)
	assert.Equal(t, "customer-42", booking.CustomerRef)
	assert.Equal(t, []string{"premium-1-1", "stalls-1-1"}, booking.Seats)
	assert.Equal(t, 2, booking.TotalSeats)
	assert.Equal(t, 4500+2500, booking.TotalPence)
	assert.Equal(t, string(entity.BookingStatusConfirmed), booking.Status)

	assert.Equal(t, entity.SeatStatusBooked, f.seatStatus(showID, "premium-1-1"))
	assert.Equal(t, entity.SeatStatusBooked, f.seatStatus(showID, "stalls-1-1"))

	got, err := f.bookings.GetBookingByReference(context.Background(), booking.Reference)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, got.ID)
	assert.Equal(t, booking.Seats, got.Seats)
	assert.Equal(t, booking.TotalPence, got.TotalPence)
}

func TestFinalizeTwice(t *testing.T) {
	f := newFixture(t)
	showID := f.provisionShow(t)
	hold := f.holdSeats(t, showID, "premium-1-2")

	_, err := f.bookings.Finalize(context.Background(), finalizeRequest(hold.ID))
	require.NoError(t, err)

	_, err = f.bookings.Finalize(context.Background(), finalizeRequest(hold.ID))
	require.ErrorIs(t, err, entity.ErrHoldFinalized)

	// The first booking's seats are untouched by the failed retry.
	assert.Equal(t, entity.SeatStatusBooked, f.seatStatus(showID, "premium-1-2"))
}

func TestFinalizeExpiredHold(t *testing.T) {
	f := newFixture(t)
	showID := f.provisionShow(t)
	hold := f.holdSeats(t, showID, "stalls-2-1", "stalls-2-2")

	f.clock.Advance(testHoldTTLSeconds*time.Second + time.Second)

	_, err := f.bookings.Finalize(context.Background(), finalizeRequest(hold.ID))
	require.ErrorIs(t, err, entity.ErrHoldExpired)

	// Expiry frees the seats for the next session.
	assert.Equal(t, entity.SeatStatusAvailable, f.seatStatus(showID, "stalls-2-1"))
	assert.Equal(t, entity.SeatStatusAvailable, f.seatStatus(showID, "stalls-2-2"))
}

func TestFinalizeReleasedHold(t *testing.T) {
	f := newFixture(t)
	showID := f.provisionShow(t)
	hold := f.holdSeats(t, showID, "premium-1-3")

	require.NoError(t, f.holds.ReleaseHold(context.Background(), hold.ID))

	_, err := f.bookings.Finalize(context.Background(), finalizeRequest(hold.ID))
	require.ErrorIs(t, err, entity.ErrHoldExpired)
}

func TestFinalizeUnknownHold(t *testing.T) {
	f := newFixture(t)
	f.provisionShow(t)

	_, err := f.bookings.Finalize(context.Background(), finalizeRequest(uuid.NewString()))
	require.ErrorIs(t, err, entity.ErrHoldNotFound)
}

func TestFinalizeValidation(t *testing.T) {
	f := newFixture(t)
	showID := f.provisionShow(t)
	hold := f.holdSeats(t, showID, "premium-1-1")

	_, err := f.bookings.Finalize(context.Background(), &request.FinalizeBookingRequest{
		HoldID:      hold.ID,
		CustomerRef: "customer-42",
		// Missing payment confirmation must never book seats.
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Equal(t, entity.SeatStatusHeld, f.seatStatus(showID, "premium-1-1"))
}

func TestFinalizeInconsistentSeatState(t *testing.T) {
	f := newFixture(t)
	showID := f.provisionShow(t)
	hold := f.holdSeats(t, showID, "premium-1-1", "premium-1-2")

	// Simulate a lost update: a seat the hold owns is no longer 'held'.
	f.store.setSeatStatus(uuid.MustParse(showID), "premium-1-2", entity.SeatStatusAvailable)

	_, err := f.bookings.Finalize(context.Background(), finalizeRequest(hold.ID))
	require.ErrorIs(t, err, entity.ErrInternalConsistency)

	// Nothing was booked; the untampered seat keeps its held state.
	assert.Equal(t, entity.SeatStatusHeld, f.seatStatus(showID, "premium-1-1"))
}

func TestSeatsRebookableAfterExpiry(t *testing.T) {
	f := newFixture(t)
	showID := f.provisionShow(t)
	first := f.holdSeats(t, showID, "premium-1-1")

	f.clock.Advance(testHoldTTLSeconds*time.Second + time.Second)

	// A second session claims and books the seat the first one let lapse.
	second := f.holdSeats(t, showID, "premium-1-1")
	booking, err := f.bookings.Finalize(context.Background(), finalizeRequest(second.ID))
	require.NoError(t, err)
	assert.Equal(t, []string{"premium-1-1"}, booking.Seats)

	// The lapsed hold can no longer finalize.
	_, err = f.bookings.Finalize(context.Background(), finalizeRequest(first.ID))
	require.ErrorIs(t, err, entity.ErrHoldExpired)
	assert.Equal(t, entity.SeatStatusBooked, f.seatStatus(showID, "premium-1-1"))
}

func TestGetBookingByReferenceNotFound(t *testing.T) {
	f := newFixture(t)
	f.provisionShow(t)

	_, err := f.bookings.GetBookingByReference(context.Background(), "TKT-20260314-XXXXXX")
	require.ErrorIs(t, err, entity.ErrBookingNotFound)
}
