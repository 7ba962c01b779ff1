package usecase

import (
	"context"
	"testing"
	"time"

	"theater-booking/internal/data/entity"
	"theater-booking/internal/dto/request"
	"theater-booking/internal/dto/response"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvisionShow(t *testing.T) {
	f := newFixture(t)
	showID := f.provisionShow(t)

	avail, err := f.shows.GetAvailability(context.Background(), showID)
	require.NoError(t, err)
	require.Len(t, avail.Seats, 7)

	seats := make(map[string]response.SeatResponse, len(avail.Seats))
	for _, seat := range avail.Seats {
		assert.Equal(t, string(entity.SeatStatusAvailable), seat.Status)
		seats[seat.Seat] = seat
	}

	premium := seats["premium-1-3"]
	assert.Equal(t, "Premium", premium.Section)
	assert.Equal(t, "A", premium.Row)
	assert.Equal(t, 3, premium.Number)
	assert.Equal(t, 4500, premium.PricePence)
	assert.False(t, premium.Accessible)

	stalls := seats["stalls-1-2"]
	assert.Equal(t, "Stalls", stalls.Section)
	assert.Equal(t, 2500, stalls.PricePence)
	assert.True(t, stalls.Accessible)

	// The seat map is ordered by external identifier.
	for i := 1; i < len(avail.Seats); i++ {
		assert.Less(t, avail.Seats[i-1].Seat, avail.Seats[i].Seat)
	}
}

func TestProvisionShowValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.shows.ProvisionShow(context.Background(), &request.ProvisionShowRequest{
		Title:     "No Seats",
		VenueName: "Harbour Playhouse",
		StartsAt:  f.clock.Now(),
		Sections:  nil,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestProvisionShowDuplicateExternalID(t *testing.T) {
	f := newFixture(t)

	// Two identically named sections with the same row shape collide on
	// every generated external identifier.
	_, err := f.shows.ProvisionShow(context.Background(), &request.ProvisionShowRequest{
		Title:     "Double Vision",
		VenueName: "Harbour Playhouse",
		StartsAt:  f.clock.Now().Add(24 * time.Hour),
		Sections: []request.SectionLayout{
			{Name: "Stalls", PricePence: 2000, Rows: []request.RowLayout{{Label: "A", Seats: 2}}},
			{Name: "Stalls", PricePence: 3000, Rows: []request.RowLayout{{Label: "A", Seats: 2}}},
		},
	})

	var conflict *entity.MappingConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "stalls-1-1", conflict.ExternalID)

	// The failed provision left nothing behind.
	shows, err := f.shows.GetShows(context.Background(), &request.PaginatedRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Empty(t, shows.Data)
}

func TestGetShows(t *testing.T) {
	f := newFixture(t)
	f.provisionShow(t)
	f.provisionShow(t)
	f.provisionShow(t)

	page, err := f.shows.GetShows(context.Background(), &request.PaginatedRequest{Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, int64(3), page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)

	page, err = f.shows.GetShows(context.Background(), &request.PaginatedRequest{Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)
}

func TestGetShowNotFound(t *testing.T) {
	f := newFixture(t)
	f.provisionShow(t)

	_, err := f.shows.GetShow(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, entity.ErrShowNotFound)
}

func TestGetAvailabilityReflectsLifecycle(t *testing.T) {
	f := newFixture(t)
	showID := f.provisionShow(t)

	hold := f.holdSeats(t, showID, "premium-1-1", "premium-1-2")

	statuses := func() map[string]string {
		avail, err := f.shows.GetAvailability(context.Background(), showID)
		require.NoError(t, err)
		out := make(map[string]string, len(avail.Seats))
		for _, seat := range avail.Seats {
			out[seat.Seat] = seat.Status
		}
		return out
	}

	got := statuses()
	assert.Equal(t, string(entity.SeatStatusHeld), got["premium-1-1"])
	assert.Equal(t, string(entity.SeatStatusHeld), got["premium-1-2"])
	assert.Equal(t, string(entity.SeatStatusAvailable), got["premium-1-3"])

	_, err := f.bookings.Finalize(context.Background(), finalizeRequest(hold.ID))
	require.NoError(t, err)

	got = statuses()
	assert.Equal(t, string(entity.SeatStatusBooked), got["premium-1-1"])
	assert.Equal(t, string(entity.SeatStatusBooked), got["premium-1-2"])
}

func TestGetAvailabilityReleasesExpiredHolds(t *testing.T) {
	f := newFixture(t)
	showID := f.provisionShow(t)
	f.holdSeats(t, showID, "stalls-1-1")

	f.clock.Advance(testHoldTTLSeconds*time.Second + time.Second)

	// Reading availability is enough to surface the seat again; no sweep
	// has to run first.
	avail, err := f.shows.GetAvailability(context.Background(), showID)
	require.NoError(t, err)
	for _, seat := range avail.Seats {
		assert.Equal(t, string(entity.SeatStatusAvailable), seat.Status, seat.Seat)
	}
}

func TestGetAvailabilityUnknownShow(t *testing.T) {
	f := newFixture(t)

	_, err := f.shows.GetAvailability(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, entity.ErrShowNotFound)
}
