package booking

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/daterange"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound             = apperror.New(http.StatusNotFound, "booking not found")
	ErrRoomUnavailable      = apperror.New(http.StatusConflict, "room is not available for the selected dates")
	ErrInvalidTransition    = apperror.New(http.StatusConflict, "booking status does not allow this action")
	ErrRoomNotBookable      = apperror.New(http.StatusConflict, "room is not bookable")
	ErrInvalidGuestCount    = apperror.New(http.StatusBadRequest, "adults must be at least 1 and children cannot be negative")
	ErrCapacityExceeded     = apperror.New(http.StatusBadRequest, "guest count exceeds room capacity")
	ErrRatePlanMismatch     = apperror.New(http.StatusBadRequest, "rate plan does not belong to the room type")
	ErrInvalidInitialStatus = apperror.New(http.StatusBadRequest, "new bookings must be PENDING or CONFIRMED")
	ErrInvalidAmount        = apperror.New(http.StatusBadRequest, "payment amount must be greater than zero")
	ErrNegativeAmount       = apperror.New(http.StatusBadRequest, "amounts cannot be negative")
	ErrNoShowTooEarly       = apperror.New(http.StatusConflict, "a booking can only be marked no-show from its check-in date")
	ErrInvalidSource        = apperror.New(http.StatusBadRequest, "invalid booking source")
	ErrOverpayment          = apperror.New(http.StatusBadRequest, "payment exceeds the outstanding balance")
)

// OverlapError reports the active booking already holding the room.
// It matches ErrRoomUnavailable with errors.Is.
type OverlapError struct {
	ConflictingBookingID string
}

func (e *OverlapError) Error() string {
	if e.ConflictingBookingID == "" {
		return ErrRoomUnavailable.Message
	}
	return ErrRoomUnavailable.Message + " (conflicts with booking " + e.ConflictingBookingID + ")"
}

func (e *OverlapError) Unwrap() error {
	return ErrRoomUnavailable
}

func (e *OverlapError) ErrorDetails() any {
	return map[string]string{"conflicting_booking_id": e.ConflictingBookingID}
}

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusCheckedIn  Status = "CHECKED_IN"
	StatusCheckedOut Status = "CHECKED_OUT"
	StatusCanceled   Status = "CANCELED"
	StatusNoShow     Status = "NO_SHOW"
)

// Occupies reports whether a booking in this status holds its room.
func (s Status) Occupies() bool {
	return s == StatusConfirmed || s == StatusCheckedIn
}

func (s Status) CanCheckIn() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) CanCheckOut() bool {
	return s == StatusCheckedIn
}

func (s Status) CanCancel() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) CanEdit() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) CanConfirm() bool {
	return s == StatusPending
}

func (s Status) IsTerminal() bool {
	return s == StatusCheckedOut || s == StatusCanceled || s == StatusNoShow
}

// OccupyingStatuses lists the statuses checked for overlaps.
var OccupyingStatuses = []string{string(StatusConfirmed), string(StatusCheckedIn)}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPartial  PaymentStatus = "PARTIAL"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Source is the channel the booking came through.
type Source string

const (
	SourceDirect    Source = "DIRECT"
	SourceOTA       Source = "OTA"
	SourceAgent     Source = "AGENT"
	SourcePhone     Source = "PHONE"
	SourceEmail     Source = "EMAIL"
	SourceWalkIn    Source = "WALK_IN"
	SourceCorporate Source = "CORPORATE"
	SourceWebsite   Source = "WEBSITE"
)

func (s Source) Valid() bool {
	switch s {
	case SourceDirect, SourceOTA, SourceAgent, SourcePhone, SourceEmail, SourceWalkIn, SourceCorporate, SourceWebsite:
		return true
	}
	return false
}

type Booking struct {
	ID                 string
	GuestID            string
	GuestName          string
	GuestEmail         string
	RoomID             string
	RoomNumber         string
	RatePlanID         *string
	CheckIn            time.Time
	CheckOut           time.Time
	Adults             int
	Children           int
	IncludeMeal        bool
	Status             Status
	Source             Source
	BaseAmount         decimal.Decimal // engine price at the last (re)pricing
	TotalAmount        decimal.Decimal // amount charged, may be set manually
	AdvancePayment     decimal.Decimal
	PaymentStatus      PaymentStatus
	PaymentMethod      string
	SpecialRequests    string
	CancellationReason string
	CanceledAt         *time.Time
	ModificationCount  int
	IDProofFileID      *string
	ActualCheckInTime  *time.Time
	ActualCheckOutTime *time.Time
	CreatedBy          *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (b *Booking) Stay() daterange.Range {
	return daterange.Range{CheckIn: daterange.Day(b.CheckIn), CheckOut: daterange.Day(b.CheckOut)}
}

func (b *Booking) Guests() int {
	return b.Adults + b.Children
}

// Balance is what remains to be paid.
func (b *Booking) Balance() decimal.Decimal {
	return b.TotalAmount.Sub(b.AdvancePayment)
}

// CanMarkNoShow allows no-show from the check-in date onwards.
func (b *Booking) CanMarkNoShow(today time.Time) bool {
	if b.Status != StatusPending && b.Status != StatusConfirmed {
		return false
	}
	return !daterange.Day(today).Before(daterange.Day(b.CheckIn))
}

type Filter struct {
	GuestID   string
	RoomID    string
	Status    string
	Source    string
	From      *time.Time // bookings checking out after this date
	To        *time.Time // bookings checking in before this date
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
