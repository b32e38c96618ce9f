package http

import (
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/booking"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/daterange"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pricing"
	"github.com/nekogravitycat/hotel-booking-backend/internal/recommendation"
	roomHttp "github.com/nekogravitycat/hotel-booking-backend/internal/room/http"
	"github.com/shopspring/decimal"
)

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	GuestID string `form:"guest_id" binding:"omitempty,uuid"`
	RoomID  string `form:"room_id" binding:"omitempty,uuid"`
	Status  string `form:"status" binding:"omitempty,oneof=PENDING CONFIRMED CHECKED_IN CHECKED_OUT CANCELED NO_SHOW"`
	Source  string `form:"source" binding:"omitempty,oneof=DIRECT OTA AGENT PHONE EMAIL WALK_IN CORPORATE WEBSITE"`
	From    string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To      string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	SortBy  string `form:"sort_by" binding:"omitempty,oneof=check_in check_out created_at status total_amount"`
}

// GuestTag is a brief representation of the booking guest.
type GuestTag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// RoomTag is a brief representation of the booked room.
type RoomTag struct {
	ID         string `json:"id"`
	RoomNumber string `json:"room_number"`
}

type BookingResponse struct {
	ID                 string          `json:"id"`
	Guest              GuestTag        `json:"guest"`
	Room               RoomTag         `json:"room"`
	RatePlanID         *string         `json:"rate_plan_id"`
	CheckIn            string          `json:"check_in"`
	CheckOut           string          `json:"check_out"`
	Nights             int             `json:"nights"`
	Adults             int             `json:"adults"`
	Children           int             `json:"children"`
	IncludeMeal        bool            `json:"include_meal"`
	Status             string          `json:"status"`
	Source             string          `json:"source"`
	BaseAmount         decimal.Decimal `json:"base_amount"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	AdvancePayment     decimal.Decimal `json:"advance_payment"`
	Balance            decimal.Decimal `json:"balance"`
	PaymentStatus      string          `json:"payment_status"`
	PaymentMethod      string          `json:"payment_method,omitempty"`
	SpecialRequests    string          `json:"special_requests,omitempty"`
	CancellationReason string          `json:"cancellation_reason,omitempty"`
	CanceledAt         *time.Time      `json:"canceled_at,omitempty"`
	ModificationCount  int             `json:"modification_count"`
	IDProofFileID      *string         `json:"id_proof_file_id"`
	ActualCheckInTime  *time.Time      `json:"actual_check_in_time,omitempty"`
	ActualCheckOutTime *time.Time      `json:"actual_check_out_time,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:                 b.ID,
		Guest:              GuestTag{ID: b.GuestID, Name: b.GuestName, Email: b.GuestEmail},
		Room:               RoomTag{ID: b.RoomID, RoomNumber: b.RoomNumber},
		RatePlanID:         b.RatePlanID,
		CheckIn:            b.CheckIn.Format(daterange.Layout),
		CheckOut:           b.CheckOut.Format(daterange.Layout),
		Nights:             b.Stay().Nights(),
		Adults:             b.Adults,
		Children:           b.Children,
		IncludeMeal:        b.IncludeMeal,
		Status:             string(b.Status),
		Source:             string(b.Source),
		BaseAmount:         b.BaseAmount,
		TotalAmount:        b.TotalAmount,
		AdvancePayment:     b.AdvancePayment,
		Balance:            b.Balance(),
		PaymentStatus:      string(b.PaymentStatus),
		PaymentMethod:      b.PaymentMethod,
		SpecialRequests:    b.SpecialRequests,
		CancellationReason: b.CancellationReason,
		CanceledAt:         b.CanceledAt,
		ModificationCount:  b.ModificationCount,
		IDProofFileID:      b.IDProofFileID,
		ActualCheckInTime:  b.ActualCheckInTime,
		ActualCheckOutTime: b.ActualCheckOutTime,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

type CreateBookingRequest struct {
	GuestID         string           `json:"guest_id" binding:"required,uuid"`
	RoomID          string           `json:"room_id" binding:"required,uuid"`
	RatePlanID      *string          `json:"rate_plan_id" binding:"omitempty,uuid"`
	CheckIn         string           `json:"check_in" binding:"required,datetime=2006-01-02"`
	CheckOut        string           `json:"check_out" binding:"required,datetime=2006-01-02"`
	Adults          int              `json:"adults" binding:"required,min=1"`
	Children        int              `json:"children" binding:"min=0"`
	IncludeMeal     *bool            `json:"include_meal"`
	Status          string           `json:"status" binding:"omitempty,oneof=PENDING CONFIRMED"`
	Source          string           `json:"source" binding:"omitempty,oneof=DIRECT OTA AGENT PHONE EMAIL WALK_IN CORPORATE WEBSITE"`
	TotalAmount     *decimal.Decimal `json:"total_amount"`
	AdvancePayment  decimal.Decimal  `json:"advance_payment"`
	PaymentMethod   string           `json:"payment_method" binding:"max=50"`
	SpecialRequests string           `json:"special_requests" binding:"max=2000"`
}

type UpdateBookingRequest struct {
	RoomID          *string          `json:"room_id" binding:"omitempty,uuid"`
	RatePlanID      *string          `json:"rate_plan_id" binding:"omitempty,uuid"`
	ClearRatePlan   bool             `json:"clear_rate_plan"`
	CheckIn         *string          `json:"check_in" binding:"omitempty,datetime=2006-01-02"`
	CheckOut        *string          `json:"check_out" binding:"omitempty,datetime=2006-01-02"`
	Adults          *int             `json:"adults" binding:"omitempty,min=1"`
	Children        *int             `json:"children" binding:"omitempty,min=0"`
	IncludeMeal     *bool            `json:"include_meal"`
	TotalAmount     *decimal.Decimal `json:"total_amount"`
	Source          *string          `json:"source" binding:"omitempty,oneof=DIRECT OTA AGENT PHONE EMAIL WALK_IN CORPORATE WEBSITE"`
	PaymentMethod   *string          `json:"payment_method" binding:"omitempty,max=50"`
	SpecialRequests *string          `json:"special_requests" binding:"omitempty,max=2000"`
}

type CancelRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method" binding:"max=50"`
}

// CheckInRequest optionally asks for a GST bill on the booking total.
type CheckInRequest struct {
	Bill     bool             `json:"bill"`
	Mode     string           `json:"mode" binding:"omitempty,oneof=INCLUDING EXCLUDING"`
	CGSTRate *decimal.Decimal `json:"cgst_rate"`
	SGSTRate *decimal.Decimal `json:"sgst_rate"`
	Discount decimal.Decimal  `json:"discount"`
}

type CheckInResponse struct {
	Booking BookingResponse `json:"booking"`
	Bill    *pricing.Bill   `json:"bill,omitempty"`
}

type QuoteRequest struct {
	RoomID      string  `json:"room_id" binding:"required,uuid"`
	RatePlanID  *string `json:"rate_plan_id" binding:"omitempty,uuid"`
	CheckIn     string  `json:"check_in" binding:"required,datetime=2006-01-02"`
	CheckOut    string  `json:"check_out" binding:"required,datetime=2006-01-02"`
	Adults      int     `json:"adults" binding:"required,min=1"`
	Children    int     `json:"children" binding:"min=0"`
	IncludeMeal *bool   `json:"include_meal"`
}

type QuoteResponse struct {
	Total    decimal.Decimal   `json:"total"`
	Nights   int               `json:"nights"`
	Source   string            `json:"source"`
	Lines    []pricing.Line    `json:"lines"`
	Warnings []pricing.Warning `json:"warnings"`
}

func NewQuoteResponse(q pricing.Quote) QuoteResponse {
	lines := q.Lines
	if lines == nil {
		lines = []pricing.Line{}
	}
	warnings := q.Warnings
	if warnings == nil {
		warnings = []pricing.Warning{}
	}
	return QuoteResponse{
		Total:    q.Total,
		Nights:   q.Nights,
		Source:   string(q.Source),
		Lines:    lines,
		Warnings: warnings,
	}
}

type SearchRequest struct {
	request.StayQuery
	Guests     int    `form:"guests" binding:"required,min=1"`
	RoomTypeID string `form:"room_type_id" binding:"omitempty,uuid"`
}

type RecommendationRequest struct {
	SearchRequest
	GuestID string `form:"guest_id" binding:"required,uuid"`
}

type RecommendationResponse struct {
	Room    roomHttp.RoomResponse `json:"room"`
	Score   int                   `json:"score"`
	Reasons []string              `json:"reasons"`
}

func NewRecommendationResponse(r recommendation.Recommendation) RecommendationResponse {
	reasons := r.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return RecommendationResponse{
		Room:    roomHttp.NewRoomResponse(r.Room),
		Score:   r.Score,
		Reasons: reasons,
	}
}

func parseDate(s string) time.Time {
	// Format is checked by the binding tags.
	t, _ := time.Parse(time.DateOnly, s)
	return t
}

func parseDatePtr(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t := parseDate(*s)
	return &t
}
