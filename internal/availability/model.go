// Package availability maintains the per-room, per-date availability cache.
//
// The cache is derived data. Bookings are authoritative and every booking
// write re-checks overlaps against the bookings table; the cache only speeds
// up search. A (room, date) pair without a row is available.
package availability

import (
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/daterange"
)

var (
	ErrRefreshInProgress = apperror.Conflict("availability refresh already running")
	ErrInvalidHorizon    = apperror.BadRequest("days ahead must be at least 1")
)

// Entry is one cache row.
type Entry struct {
	RoomID      string
	Date        time.Time
	IsAvailable bool
	BookingID   *string
	LastUpdated time.Time
}

// Occupancy is an active booking holding a room for a stay.
type Occupancy struct {
	BookingID string
	RoomID    string
	Stay      daterange.Range
}

type RefreshResult struct {
	From        time.Time
	To          time.Time
	Batches     int
	RowsDeleted int64
	RowsWritten int
	Duration    time.Duration
}

func entriesFor(roomID string, stay daterange.Range, isAvailable bool, bookingID *string) []Entry {
	dates := stay.Dates()
	entries := make([]Entry, len(dates))
	for i, d := range dates {
		entries[i] = Entry{RoomID: roomID, Date: d, IsAvailable: isAvailable, BookingID: bookingID}
	}
	return entries
}
