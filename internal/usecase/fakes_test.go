package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"theater-booking/internal/data/entity"
	"theater-booking/internal/data/repository"
	"theater-booking/internal/dto/request"
	"theater-booking/internal/dto/response"
	"theater-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStore backs the fake repositories with one mutex standing in for the
// database's transaction isolation. The fakes reproduce the repositories'
// contracts exactly — conditional transitions, all-or-nothing acquisition,
// idempotent release — so the service tests exercise real concurrency
// semantics without a database.
type memStore struct {
	mu       sync.Mutex
	shows    map[uuid.UUID]*entity.Show
	seats    map[uuid.UUID]*entity.Seat
	mappings []*entity.SeatMapping
	holds    map[uuid.UUID]*entity.Hold
	bookings map[uuid.UUID]*entity.Booking
}

func newMemStore() *memStore {
	return &memStore{
		shows:    make(map[uuid.UUID]*entity.Show),
		seats:    make(map[uuid.UUID]*entity.Seat),
		holds:    make(map[uuid.UUID]*entity.Hold),
		bookings: make(map[uuid.UUID]*entity.Booking),
	}
}

// releaseHoldLocked marks the hold released and frees its seats that are
// still held. Seats that moved on to booked are untouched.
func (s *memStore) releaseHoldLocked(h *entity.Hold) {
	h.Status = entity.HoldStatusReleased
	for _, seatID := range h.SeatIDs {
		if seat, ok := s.seats[seatID]; ok && seat.Status == entity.SeatStatusHeld {
			seat.Status = entity.SeatStatusAvailable
		}
	}
}

// seatStatus looks a seat up by its external identifier, bypassing the
// service layer so assertions never trigger lazy expiry as a side effect.
func (s *memStore) seatStatus(showID uuid.UUID, externalID string) entity.SeatStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.mappings {
		if m.ShowID == showID && m.ExternalID == externalID {
			return s.seats[m.SeatID].Status
		}
	}
	return ""
}

func (s *memStore) setSeatStatus(showID uuid.UUID, externalID string, status entity.SeatStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.mappings {
		if m.ShowID == showID && m.ExternalID == externalID {
			s.seats[m.SeatID].Status = status
			return
		}
	}
}

func copyHold(h *entity.Hold) *entity.Hold {
	c := *h
	c.SeatIDs = append([]uuid.UUID(nil), h.SeatIDs...)
	return &c
}

func copyBooking(b *entity.Booking) *entity.Booking {
	c := *b
	c.SeatIDs = append([]uuid.UUID(nil), b.SeatIDs...)
	return &c
}

type fakeShowRepo struct{ store *memStore }

func (f *fakeShowRepo) Provision(_ context.Context, show *entity.Show, seats []*entity.Seat, mappings []*entity.SeatMapping) error {
	s := f.store
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(mappings))
	for _, m := range mappings {
		key := m.ShowID.String() + "/" + m.ExternalID
		if seen[key] {
			return &entity.MappingConflictError{ShowID: m.ShowID, ExternalID: m.ExternalID}
		}
		seen[key] = true
		for _, existing := range s.mappings {
			if existing.ShowID == m.ShowID && existing.ExternalID == m.ExternalID {
				return &entity.MappingConflictError{ShowID: m.ShowID, ExternalID: m.ExternalID}
			}
		}
	}

	showCopy := *show
	s.shows[show.ID] = &showCopy
	for _, seat := range seats {
		seatCopy := *seat
		s.seats[seat.ID] = &seatCopy
	}
	for _, m := range mappings {
		mCopy := *m
		s.mappings = append(s.mappings, &mCopy)
	}
	return nil
}

func (f *fakeShowRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Show, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	show, ok := f.store.shows[id]
	if !ok {
		return nil, entity.ErrShowNotFound
	}
	showCopy := *show
	return &showCopy, nil
}

func (f *fakeShowRepo) FindAll(_ context.Context, limit, offset int) ([]*entity.Show, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	all := make([]*entity.Show, 0, len(f.store.shows))
	for _, show := range f.store.shows {
		showCopy := *show
		all = append(all, &showCopy)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartsAt.Before(all[j].StartsAt) })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeShowRepo) Count(_ context.Context) (int64, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return int64(len(f.store.shows)), nil
}

type fakeSeatRepo struct{ store *memStore }

func seatLess(a, b *entity.Seat) bool {
	if a.Section != b.Section {
		return a.Section < b.Section
	}
	if a.RowLabel != b.RowLabel {
		return a.RowLabel < b.RowLabel
	}
	return a.SeatNumber < b.SeatNumber
}

func (f *fakeSeatRepo) FindByID(_ context.Context, showID, seatID uuid.UUID) (*entity.Seat, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	seat, ok := f.store.seats[seatID]
	if !ok || seat.ShowID != showID {
		return nil, entity.ErrSeatNotFound
	}
	seatCopy := *seat
	return &seatCopy, nil
}

func (f *fakeSeatRepo) FindByShowID(_ context.Context, showID uuid.UUID) ([]*entity.Seat, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var seats []*entity.Seat
	for _, seat := range f.store.seats {
		if seat.ShowID == showID {
			seatCopy := *seat
			seats = append(seats, &seatCopy)
		}
	}
	sort.Slice(seats, func(i, j int) bool { return seatLess(seats[i], seats[j]) })
	return seats, nil
}

func (f *fakeSeatRepo) FindByIDs(_ context.Context, showID uuid.UUID, seatIDs []uuid.UUID) ([]*entity.Seat, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var seats []*entity.Seat
	for _, id := range seatIDs {
		if seat, ok := f.store.seats[id]; ok && seat.ShowID == showID {
			seatCopy := *seat
			seats = append(seats, &seatCopy)
		}
	}
	sort.Slice(seats, func(i, j int) bool { return seatLess(seats[i], seats[j]) })
	return seats, nil
}

func (f *fakeSeatRepo) GetStatus(_ context.Context, showID, seatID uuid.UUID) (entity.SeatStatus, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	seat, ok := f.store.seats[seatID]
	if !ok || seat.ShowID != showID {
		return "", entity.ErrSeatNotFound
	}
	return seat.Status, nil
}

func (f *fakeSeatRepo) TryTransition(_ context.Context, showID, seatID uuid.UUID, from, to entity.SeatStatus) (bool, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	seat, ok := f.store.seats[seatID]
	if !ok || seat.ShowID != showID || seat.Status != from {
		return false, nil
	}
	seat.Status = to
	return true, nil
}

type fakeSeatMappingRepo struct{ store *memStore }

func (f *fakeSeatMappingRepo) Register(_ context.Context, m *entity.SeatMapping) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, existing := range f.store.mappings {
		if existing.ShowID == m.ShowID && existing.ExternalID == m.ExternalID {
			if existing.SeatID == m.SeatID {
				return nil
			}
			return &entity.MappingConflictError{ShowID: m.ShowID, ExternalID: m.ExternalID}
		}
	}
	mCopy := *m
	f.store.mappings = append(f.store.mappings, &mCopy)
	return nil
}

func (f *fakeSeatMappingRepo) Resolve(_ context.Context, showID uuid.UUID, externalID string) (uuid.UUID, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, m := range f.store.mappings {
		if m.ShowID == showID && m.ExternalID == externalID {
			return m.SeatID, nil
		}
	}
	return uuid.Nil, fmt.Errorf("resolve %q for show %s: %w", externalID, showID.String(), entity.ErrMappingNotFound)
}

func (f *fakeSeatMappingRepo) ResolveBatch(ctx context.Context, showID uuid.UUID, externalIDs []string) (map[string]uuid.UUID, error) {
	resolved := make(map[string]uuid.UUID, len(externalIDs))
	for _, externalID := range externalIDs {
		seatID, err := f.Resolve(ctx, showID, externalID)
		if err != nil {
			return nil, err
		}
		resolved[externalID] = seatID
	}
	return resolved, nil
}

func (f *fakeSeatMappingRepo) ExternalIDsByShow(_ context.Context, showID uuid.UUID) (map[uuid.UUID]string, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	mappings := make(map[uuid.UUID]string)
	for _, m := range f.store.mappings {
		if m.ShowID == showID {
			mappings[m.SeatID] = m.ExternalID
		}
	}
	return mappings, nil
}

type fakeHoldRepo struct{ store *memStore }

func (f *fakeHoldRepo) Create(_ context.Context, hold *entity.Hold, now time.Time) ([]uuid.UUID, error) {
	s := f.store
	s.mu.Lock()
	defer s.mu.Unlock()

	requested := make(map[uuid.UUID]bool, len(hold.SeatIDs))
	for _, id := range hold.SeatIDs {
		requested[id] = true
	}

	// Lazy expiry of holds pinning the requested seats.
	for _, h := range s.holds {
		if h.Status != entity.HoldStatusActive || now.Before(h.ExpiresAt) {
			continue
		}
		for _, seatID := range h.SeatIDs {
			if requested[seatID] {
				s.releaseHoldLocked(h)
				break
			}
		}
	}

	var blocked []uuid.UUID
	for _, id := range hold.SeatIDs {
		seat, ok := s.seats[id]
		if !ok || seat.ShowID != hold.ShowID || seat.Status != entity.SeatStatusAvailable {
			blocked = append(blocked, id)
		}
	}
	if len(blocked) > 0 {
		return blocked, nil
	}

	for _, id := range hold.SeatIDs {
		s.seats[id].Status = entity.SeatStatusHeld
	}
	s.holds[hold.ID] = copyHold(hold)
	return nil, nil
}

func (f *fakeHoldRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Hold, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	hold, ok := f.store.holds[id]
	if !ok {
		return nil, entity.ErrHoldNotFound
	}
	return copyHold(hold), nil
}

func (f *fakeHoldRepo) Release(_ context.Context, id uuid.UUID) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	hold, ok := f.store.holds[id]
	if !ok || hold.Status != entity.HoldStatusActive {
		return nil
	}
	f.store.releaseHoldLocked(hold)
	return nil
}

func (f *fakeHoldRepo) ReleaseExpired(ctx context.Context, now time.Time) (int, error) {
	return f.releaseExpired(now, uuid.Nil)
}

func (f *fakeHoldRepo) ReleaseExpiredByShow(_ context.Context, showID uuid.UUID, now time.Time) (int, error) {
	return f.releaseExpired(now, showID)
}

func (f *fakeHoldRepo) releaseExpired(now time.Time, showID uuid.UUID) (int, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	released := 0
	for _, hold := range f.store.holds {
		if hold.Status != entity.HoldStatusActive || now.Before(hold.ExpiresAt) {
			continue
		}
		if showID != uuid.Nil && hold.ShowID != showID {
			continue
		}
		f.store.releaseHoldLocked(hold)
		released++
	}
	return released, nil
}

type fakeBookingRepo struct{ store *memStore }

func (f *fakeBookingRepo) Finalize(_ context.Context, booking *entity.Booking, now time.Time) error {
	s := f.store
	s.mu.Lock()
	defer s.mu.Unlock()

	hold, ok := s.holds[booking.HoldID]
	if !ok {
		return entity.ErrHoldNotFound
	}
	switch {
	case hold.Status == entity.HoldStatusFinalized:
		return entity.ErrHoldFinalized
	case hold.Status == entity.HoldStatusReleased:
		return entity.ErrHoldExpired
	case !now.Before(hold.ExpiresAt):
		s.releaseHoldLocked(hold)
		return entity.ErrHoldExpired
	}

	for _, id := range booking.SeatIDs {
		seat, ok := s.seats[id]
		if !ok || seat.ShowID != booking.ShowID || seat.Status != entity.SeatStatusHeld {
			return entity.ErrInternalConsistency
		}
	}

	for _, id := range booking.SeatIDs {
		s.seats[id].Status = entity.SeatStatusBooked
	}
	hold.Status = entity.HoldStatusFinalized
	s.bookings[booking.ID] = copyBooking(booking)
	return nil
}

func (f *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	booking, ok := f.store.bookings[id]
	if !ok {
		return nil, entity.ErrBookingNotFound
	}
	return copyBooking(booking), nil
}

func (f *fakeBookingRepo) FindByReference(_ context.Context, reference string) (*entity.Booking, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, booking := range f.store.bookings {
		if booking.Reference == reference {
			return copyBooking(booking), nil
		}
	}
	return nil, entity.ErrBookingNotFound
}

// fakeClock stands in for time.Now so TTL expiry is tested by advancing
// time, never by sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

const testHoldTTLSeconds = 900

type fixture struct {
	store    *memStore
	clock    *fakeClock
	shows    ShowService
	holds    HoldService
	bookings BookingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newMemStore()
	repo := &repository.Repository{
		Show:        &fakeShowRepo{store: store},
		Seat:        &fakeSeatRepo{store: store},
		SeatMapping: &fakeSeatMappingRepo{store: store},
		Hold:        &fakeHoldRepo{store: store},
		Booking:     &fakeBookingRepo{store: store},
	}

	clock := &fakeClock{t: time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)}
	cfg := &utils.Config{Hold: utils.HoldConfig{TTLSeconds: testHoldTTLSeconds}}
	log := zap.NewNop()

	showSvc := NewShowService(repo, nil, log).(*showService)
	showSvc.now = clock.Now
	holdSvc := NewHoldService(repo, cfg, nil, log).(*holdService)
	holdSvc.now = clock.Now
	bookingSvc := NewBookingService(repo, nil, log).(*bookingService)
	bookingSvc.now = clock.Now

	return &fixture{
		store:    store,
		clock:    clock,
		shows:    showSvc,
		holds:    holdSvc,
		bookings: bookingSvc,
	}
}

// provisionShow seeds a 7-seat venue: premium-1-1..3, stalls-1-1..2
// (accessible) and stalls-2-1..2.
func (f *fixture) provisionShow(t *testing.T) string {
	t.Helper()

	resp, err := f.shows.ProvisionShow(context.Background(), &request.ProvisionShowRequest{
		Title:     "The Tempest",
		VenueName: "Harbour Playhouse",
		StartsAt:  f.clock.Now().Add(48 * time.Hour),
		Sections: []request.SectionLayout{
			{
				Name:       "Premium",
				PricePence: 4500,
				Rows:       []request.RowLayout{{Label: "A", Seats: 3}},
			},
			{
				Name:       "Stalls",
				PricePence: 2500,
				Rows: []request.RowLayout{
					{Label: "A", Seats: 2, Accessible: true},
					{Label: "B", Seats: 2},
				},
			},
		},
	})
	require.NoError(t, err)
	return resp.ID
}

func (f *fixture) holdSeats(t *testing.T, showID string, seats ...string) *response.HoldResponse {
	t.Helper()

	resp, err := f.holds.CreateHold(context.Background(), &request.CreateHoldRequest{
		ShowID:       showID,
		Seats:        seats,
		SessionToken: "session-token-1",
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) seatStatus(showID, externalID string) entity.SeatStatus {
	return f.store.seatStatus(uuid.MustParse(showID), externalID)
}
