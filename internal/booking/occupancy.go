package booking

import (
	"context"

	"github.com/nekogravitycat/hotel-booking-backend/internal/availability"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/daterange"
)

// occupancySource lets the availability cache read active bookings without
// importing this package's service.
type occupancySource struct {
	repo Repository
}

func NewOccupancySource(repo Repository) availability.OccupancySource {
	return &occupancySource{repo: repo}
}

func (o *occupancySource) ActiveForRoom(ctx context.Context, roomID string, window daterange.Range) ([]availability.Occupancy, error) {
	bookings, err := o.repo.ListActive(ctx, roomID, window)
	if err != nil {
		return nil, err
	}
	return toOccupancies(bookings), nil
}

func (o *occupancySource) ActiveInWindow(ctx context.Context, window daterange.Range) ([]availability.Occupancy, error) {
	bookings, err := o.repo.ListActive(ctx, "", window)
	if err != nil {
		return nil, err
	}
	return toOccupancies(bookings), nil
}

func toOccupancies(bookings []*Booking) []availability.Occupancy {
	out := make([]availability.Occupancy, len(bookings))
	for i, b := range bookings {
		out[i] = availability.Occupancy{BookingID: b.ID, RoomID: b.RoomID, Stay: b.Stay()}
	}
	return out
}
