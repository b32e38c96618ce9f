package http

import (
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/availability"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/daterange"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/request"
)

type SearchRequest struct {
	request.StayQuery
	RoomTypeID string `form:"room_type_id" binding:"omitempty,uuid"`
	Guests     int    `form:"guests" binding:"omitempty,min=1"`
}

type RefreshRequest struct {
	DaysAhead int `json:"days_ahead" binding:"omitempty,min=1,max=1095"`
}

type EntryResponse struct {
	Date        string    `json:"date"`
	IsAvailable bool      `json:"is_available"`
	BookingID   *string   `json:"booking_id"`
	LastUpdated time.Time `json:"last_updated"`
}

type RoomCheckResponse struct {
	RoomID      string `json:"room_id"`
	CheckIn     string `json:"check_in"`
	CheckOut    string `json:"check_out"`
	Nights      int    `json:"nights"`
	IsAvailable bool   `json:"is_available"`
}

type RefreshResponse struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Batches     int    `json:"batches"`
	RowsDeleted int64  `json:"rows_deleted"`
	RowsWritten int    `json:"rows_written"`
	DurationMS  int64  `json:"duration_ms"`
}

func NewEntryResponse(e availability.Entry) EntryResponse {
	return EntryResponse{
		Date:        e.Date.Format(daterange.Layout),
		IsAvailable: e.IsAvailable,
		BookingID:   e.BookingID,
		LastUpdated: e.LastUpdated,
	}
}

func NewRefreshResponse(r availability.RefreshResult) RefreshResponse {
	return RefreshResponse{
		From:        r.From.Format(daterange.Layout),
		To:          r.To.Format(daterange.Layout),
		Batches:     r.Batches,
		RowsDeleted: r.RowsDeleted,
		RowsWritten: r.RowsWritten,
		DurationMS:  r.Duration.Milliseconds(),
	}
}
