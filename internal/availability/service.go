package availability

import (
	"context"
	"sync"
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/db"
	"github.com/nekogravitycat/hotel-booking-backend/internal/metrics"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/daterange"
	"github.com/nekogravitycat/hotel-booking-backend/internal/room"
	"github.com/sirupsen/logrus"
)

// refreshLockKey is the pg advisory lock key held during a rebuild.
const refreshLockKey int64 = 0x686f74656c // "hotel"

// OccupancySource reads active bookings from the authoritative store.
type OccupancySource interface {
	ActiveForRoom(ctx context.Context, roomID string, window daterange.Range) ([]Occupancy, error)
	ActiveInWindow(ctx context.Context, window daterange.Range) ([]Occupancy, error)
}

type RoomLister interface {
	ListBookable(ctx context.Context, roomTypeID string, minCapacity int) ([]*room.Room, error)
}

type Locker interface {
	TryLock(ctx context.Context, key int64) (unlock func(), ok bool, err error)
}

type Service interface {
	// UpdateAvailability sets every night of stay for roomID. Repeating it is harmless.
	UpdateAvailability(ctx context.Context, roomID string, stay daterange.Range, isAvailable bool, bookingID *string) error
	// Recompute re-derives the nights of stay for roomID from active bookings.
	Recompute(ctx context.Context, roomID string, stay daterange.Range) error
	GetAvailableRooms(ctx context.Context, stay daterange.Range, roomTypeID string, minCapacity int) ([]*room.Room, error)
	IsAvailable(ctx context.Context, roomID string, stay daterange.Range) (bool, error)
	Entries(ctx context.Context, roomID string, stay daterange.Range) ([]Entry, error)
	// Refresh rebuilds the cache from today for daysAhead days.
	Refresh(ctx context.Context, daysAhead int) (RefreshResult, error)
}

type Options struct {
	BatchDays int
}

type service struct {
	repo      Repository
	occupancy OccupancySource
	rooms     RoomLister
	tx        db.TxManager
	locker    Locker
	batchDays int
	logger    logrus.FieldLogger
	metrics   *metrics.Metrics

	refreshMu sync.Mutex
	now       func() time.Time
}

// NewService creates the cache service. locker may be nil, in which case
// refreshes are only serialised within this process.
func NewService(
	repo Repository,
	occupancy OccupancySource,
	rooms RoomLister,
	tx db.TxManager,
	locker Locker,
	opts Options,
	logger logrus.FieldLogger,
	m *metrics.Metrics,
) Service {
	if opts.BatchDays < 1 {
		opts.BatchDays = 31
	}
	return &service{
		repo:      repo,
		occupancy: occupancy,
		rooms:     rooms,
		tx:        tx,
		locker:    locker,
		batchDays: opts.BatchDays,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

func (s *service) UpdateAvailability(ctx context.Context, roomID string, stay daterange.Range, isAvailable bool, bookingID *string) error {
	if isAvailable {
		bookingID = nil
	}
	return s.repo.Upsert(ctx, entriesFor(roomID, stay, isAvailable, bookingID))
}

func (s *service) Recompute(ctx context.Context, roomID string, stay daterange.Range) error {
	active, err := s.occupancy.ActiveForRoom(ctx, roomID, stay)
	if err != nil {
		return err
	}

	entries := entriesFor(roomID, stay, true, nil)
	for i := range entries {
		for _, o := range active {
			if o.Stay.Contains(entries[i].Date) {
				id := o.BookingID
				entries[i].IsAvailable = false
				entries[i].BookingID = &id
				break
			}
		}
	}
	return s.repo.Upsert(ctx, entries)
}

func (s *service) GetAvailableRooms(ctx context.Context, stay daterange.Range, roomTypeID string, minCapacity int) ([]*room.Room, error) {
	rooms, err := s.rooms.ListBookable(ctx, roomTypeID, minCapacity)
	if err != nil {
		return nil, err
	}

	taken, err := s.repo.UnavailableRoomIDs(ctx, stay)
	if err != nil {
		return nil, err
	}
	blocked := make(map[string]bool, len(taken))
	for _, id := range taken {
		blocked[id] = true
	}

	available := make([]*room.Room, 0, len(rooms))
	for _, r := range rooms {
		if !blocked[r.ID] {
			available = append(available, r)
		}
	}
	return available, nil
}

func (s *service) IsAvailable(ctx context.Context, roomID string, stay daterange.Range) (bool, error) {
	entries, err := s.repo.ListEntries(ctx, roomID, stay)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if !e.IsAvailable {
			return false, nil
		}
	}
	return true, nil
}

func (s *service) Entries(ctx context.Context, roomID string, stay daterange.Range) ([]Entry, error) {
	return s.repo.ListEntries(ctx, roomID, stay)
}

func (s *service) Refresh(ctx context.Context, daysAhead int) (RefreshResult, error) {
	if daysAhead < 1 {
		return RefreshResult{}, ErrInvalidHorizon
	}
	if !s.refreshMu.TryLock() {
		return RefreshResult{}, ErrRefreshInProgress
	}
	defer s.refreshMu.Unlock()

	if s.locker != nil {
		unlock, ok, err := s.locker.TryLock(ctx, refreshLockKey)
		if err != nil {
			return RefreshResult{}, err
		}
		if !ok {
			return RefreshResult{}, ErrRefreshInProgress
		}
		defer unlock()
	}

	start := s.now()
	from := daterange.Day(start)
	res := RefreshResult{From: from, To: from.AddDate(0, 0, daysAhead)}

	for batchStart := res.From; batchStart.Before(res.To); batchStart = batchStart.AddDate(0, 0, s.batchDays) {
		// Stopping between batches leaves a partly rebuilt cache.
		if err := ctx.Err(); err != nil {
			res.Duration = s.now().Sub(start)
			return res, err
		}

		batchEnd := batchStart.AddDate(0, 0, s.batchDays)
		if batchEnd.After(res.To) {
			batchEnd = res.To
		}
		window := daterange.Range{CheckIn: batchStart, CheckOut: batchEnd}

		deleted, written, err := s.rebuildWindow(ctx, window)
		if err != nil {
			res.Duration = s.now().Sub(start)
			return res, err
		}
		res.Batches++
		res.RowsDeleted += deleted
		res.RowsWritten += written
	}

	res.Duration = s.now().Sub(start)
	s.metrics.ObserveRefresh(res.Duration)
	s.logger.WithFields(logrus.Fields{
		"from":         res.From.Format(daterange.Layout),
		"to":           res.To.Format(daterange.Layout),
		"batches":      res.Batches,
		"rows_deleted": res.RowsDeleted,
		"rows_written": res.RowsWritten,
		"duration":     res.Duration.String(),
	}).Info("availability cache refreshed")
	return res, nil
}

func (s *service) rebuildWindow(ctx context.Context, window daterange.Range) (int64, int, error) {
	var deleted int64
	var written int

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		n, err := s.repo.DeleteWindow(ctx, window)
		if err != nil {
			return err
		}
		deleted = n

		active, err := s.occupancy.ActiveInWindow(ctx, window)
		if err != nil {
			return err
		}

		var entries []Entry
		for _, o := range active {
			nights, ok := o.Stay.Intersect(window)
			if !ok {
				continue
			}
			id := o.BookingID
			entries = append(entries, entriesFor(o.RoomID, nights, false, &id)...)
		}
		written = len(entries)
		return s.repo.Upsert(ctx, entries)
	})
	return deleted, written, err
}
