package availability

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/logging"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/daterange"
	"github.com/nekogravitycat/hotel-booking-backend/internal/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cacheKey struct {
	roomID string
	date   string
}

type memRepo struct {
	rows map[cacheKey]Entry
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[cacheKey]Entry{}}
}

func (m *memRepo) Upsert(_ context.Context, entries []Entry) error {
	for _, e := range entries {
		m.rows[cacheKey{e.RoomID, e.Date.Format(daterange.Layout)}] = e
	}
	return nil
}

func (m *memRepo) UnavailableRoomIDs(_ context.Context, stay daterange.Range) ([]string, error) {
	seen := map[string]bool{}
	var ids []string
	for _, e := range m.rows {
		if !e.IsAvailable && stay.Contains(e.Date) && !seen[e.RoomID] {
			seen[e.RoomID] = true
			ids = append(ids, e.RoomID)
		}
	}
	return ids, nil
}

func (m *memRepo) ListEntries(_ context.Context, roomID string, stay daterange.Range) ([]Entry, error) {
	var out []Entry
	for _, e := range m.rows {
		if e.RoomID == roomID && stay.Contains(e.Date) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *memRepo) DeleteWindow(_ context.Context, window daterange.Range) (int64, error) {
	var n int64
	for k, e := range m.rows {
		if window.Contains(e.Date) {
			delete(m.rows, k)
			n++
		}
	}
	return n, nil
}

// available reads a single (room, date) the way search does: no row means free.
func (m *memRepo) available(roomID string, d time.Time) bool {
	e, ok := m.rows[cacheKey{roomID, d.Format(daterange.Layout)}]
	return !ok || e.IsAvailable
}

type fakeOccupancy struct {
	active []Occupancy
}

func (f *fakeOccupancy) ActiveForRoom(_ context.Context, roomID string, window daterange.Range) ([]Occupancy, error) {
	var out []Occupancy
	for _, o := range f.active {
		if o.RoomID == roomID && o.Stay.Overlaps(window) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOccupancy) ActiveInWindow(_ context.Context, window daterange.Range) ([]Occupancy, error) {
	var out []Occupancy
	for _, o := range f.active {
		if o.Stay.Overlaps(window) {
			out = append(out, o)
		}
	}
	return out, nil
}

type fakeRooms struct {
	rooms []*room.Room
}

func (f *fakeRooms) ListBookable(_ context.Context, roomTypeID string, minCapacity int) ([]*room.Room, error) {
	var out []*room.Room
	for _, r := range f.rooms {
		if roomTypeID != "" && (r.RoomTypeID == nil || *r.RoomTypeID != roomTypeID) {
			continue
		}
		if r.Capacity() < minCapacity {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeLocker struct {
	held bool
}

func (l *fakeLocker) TryLock(context.Context, int64) (func(), bool, error) {
	if l.held {
		return nil, false, nil
	}
	l.held = true
	return func() { l.held = false }, true, nil
}

func date(s string) time.Time {
	t, err := time.Parse(daterange.Layout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func stay(in, out string) daterange.Range {
	return daterange.MustNew(date(in), date(out))
}

type fixture struct {
	repo      *memRepo
	occupancy *fakeOccupancy
	locker    *fakeLocker
	svc       *service
}

func newFixture(rooms ...*room.Room) *fixture {
	f := &fixture{repo: newMemRepo(), occupancy: &fakeOccupancy{}, locker: &fakeLocker{}}
	f.svc = NewService(f.repo, f.occupancy, &fakeRooms{rooms: rooms}, passthroughTx{}, f.locker,
		Options{BatchDays: 7}, logging.Discard(), nil).(*service)
	f.svc.now = func() time.Time { return time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC) }
	return f
}

func TestUpdateAvailability_Idempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := "b1"

	s := stay("2024-06-01", "2024-06-05")
	require.NoError(t, f.svc.UpdateAvailability(ctx, "r1", s, false, &id))
	first := len(f.repo.rows)
	require.NoError(t, f.svc.UpdateAvailability(ctx, "r1", s, false, &id))

	assert.Equal(t, 4, first)
	assert.Len(t, f.repo.rows, first)
	assert.False(t, f.repo.available("r1", date("2024-06-04")))
	assert.True(t, f.repo.available("r1", date("2024-06-05")), "check-out night stays free")

	require.NoError(t, f.svc.UpdateAvailability(ctx, "r1", s, true, &id))
	for _, e := range f.repo.rows {
		assert.True(t, e.IsAvailable)
		assert.Nil(t, e.BookingID)
	}
}

func TestRecompute_KeepsOtherBookings(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// b1 was cancelled; b2 still holds the last two nights of its range.
	f.occupancy.active = []Occupancy{{BookingID: "b2", RoomID: "r1", Stay: stay("2024-06-04", "2024-06-08")}}
	b1 := "b1"
	require.NoError(t, f.svc.UpdateAvailability(ctx, "r1", stay("2024-06-01", "2024-06-06"), false, &b1))

	require.NoError(t, f.svc.Recompute(ctx, "r1", stay("2024-06-01", "2024-06-06")))

	entries, err := f.svc.Entries(ctx, "r1", stay("2024-06-01", "2024-06-06"))
	require.NoError(t, err)
	require.Len(t, entries, 5)
	for _, e := range entries {
		if e.Date.Before(date("2024-06-04")) {
			assert.True(t, e.IsAvailable, e.Date)
			assert.Nil(t, e.BookingID)
		} else {
			assert.False(t, e.IsAvailable, e.Date)
			require.NotNil(t, e.BookingID)
			assert.Equal(t, "b2", *e.BookingID)
		}
	}
}

func TestGetAvailableRooms(t *testing.T) {
	deluxe := "rt-deluxe"
	r1 := &room.Room{ID: "r1", RoomNumber: "101", RoomTypeID: &deluxe, MaxOccupancy: 2}
	r2 := &room.Room{ID: "r2", RoomNumber: "102", RoomTypeID: &deluxe, MaxOccupancy: 4}
	r3 := &room.Room{ID: "r3", RoomNumber: "201", MaxOccupancy: 2}
	f := newFixture(r1, r2, r3)
	ctx := context.Background()

	b := "b1"
	require.NoError(t, f.svc.UpdateAvailability(ctx, "r1", stay("2024-06-01", "2024-06-05"), false, &b))

	tests := []struct {
		name       string
		stay       daterange.Range
		roomTypeID string
		guests     int
		want       []string
	}{
		{name: "overlapping stay excludes r1", stay: stay("2024-06-04", "2024-06-06"), want: []string{"r2", "r3"}},
		{name: "back to back stay keeps r1", stay: stay("2024-06-05", "2024-06-07"), want: []string{"r1", "r2", "r3"}},
		{name: "room type filter", stay: stay("2024-06-05", "2024-06-07"), roomTypeID: deluxe, want: []string{"r1", "r2"}},
		{name: "capacity filter", stay: stay("2024-06-05", "2024-06-07"), guests: 3, want: []string{"r2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rooms, err := f.svc.GetAvailableRooms(ctx, tt.stay, tt.roomTypeID, tt.guests)
			require.NoError(t, err)
			var ids []string
			for _, r := range rooms {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	ok, err := f.svc.IsAvailable(ctx, "r1", stay("2024-06-04", "2024-06-06"))
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = f.svc.IsAvailable(ctx, "r1", stay("2024-06-05", "2024-06-06"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRefresh_RebuildsFromBookings(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Drift: a stale row for a booking that no longer exists and a missing row for b1.
	ghost := "ghost"
	require.NoError(t, f.svc.UpdateAvailability(ctx, "r2", stay("2024-06-10", "2024-06-12"), false, &ghost))
	f.occupancy.active = []Occupancy{
		{BookingID: "b1", RoomID: "r1", Stay: stay("2024-06-05", "2024-06-09")},
		// Started before the window; only the nights from today count.
		{BookingID: "b0", RoomID: "r3", Stay: stay("2024-05-30", "2024-06-02")},
	}

	res, err := f.svc.Refresh(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, date("2024-06-01"), res.From)
	assert.Equal(t, date("2024-06-21"), res.To)
	assert.Equal(t, 3, res.Batches)
	assert.Equal(t, int64(2), res.RowsDeleted)
	assert.Equal(t, 5, res.RowsWritten)

	assert.True(t, f.repo.available("r2", date("2024-06-10")))
	for _, d := range stay("2024-06-05", "2024-06-09").Dates() {
		assert.False(t, f.repo.available("r1", d))
	}
	assert.False(t, f.repo.available("r3", date("2024-06-01")))
	assert.True(t, f.repo.available("r3", date("2024-06-02")))
	assert.False(t, f.locker.held, "advisory lock released")
}

func TestRefresh_Guards(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Refresh(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidHorizon)

	f.locker.held = true
	_, err = f.svc.Refresh(ctx, 30)
	assert.ErrorIs(t, err, ErrRefreshInProgress)
	f.locker.held = false

	f.svc.refreshMu.Lock()
	_, err = f.svc.Refresh(ctx, 30)
	assert.ErrorIs(t, err, ErrRefreshInProgress)
	f.svc.refreshMu.Unlock()

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	res, err := f.svc.Refresh(cancelled, 30)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Batches)
}

func TestStartRefreshWorker_StopsOnCancel(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())

	done := StartRefreshWorker(ctx, f.svc, 5*time.Millisecond, 7, logging.Discard())
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
