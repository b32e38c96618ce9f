package booking

import (
	"context"
	"errors"
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/db"
	"github.com/nekogravitycat/hotel-booking-backend/internal/guest"
	"github.com/nekogravitycat/hotel-booking-backend/internal/metrics"
	"github.com/nekogravitycat/hotel-booking-backend/internal/notification"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/daterange"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pricing"
	"github.com/nekogravitycat/hotel-booking-backend/internal/rateplan"
	"github.com/nekogravitycat/hotel-booking-backend/internal/recommendation"
	"github.com/nekogravitycat/hotel-booking-backend/internal/room"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const WarningCacheInconsistency = "cache_inconsistency"

type CreateRequest struct {
	GuestID         string
	RoomID          string
	RatePlanID      *string
	CheckIn         time.Time
	CheckOut        time.Time
	Adults          int
	Children        int
	IncludeMeal     *bool            // defaults to true
	Status          Status           // PENDING or CONFIRMED, defaults to CONFIRMED
	Source          Source           // defaults to DIRECT
	TotalAmount     *decimal.Decimal // manual price, used when greater than zero
	AdvancePayment  decimal.Decimal
	PaymentMethod   string
	SpecialRequests string
	CreatedBy       *string
}

type UpdateRequest struct {
	RoomID          *string
	RatePlanID      *string
	ClearRatePlan   bool
	CheckIn         *time.Time
	CheckOut        *time.Time
	Adults          *int
	Children        *int
	IncludeMeal     *bool
	TotalAmount     *decimal.Decimal
	Source          *Source
	PaymentMethod   *string
	SpecialRequests *string
}

type QuoteRequest struct {
	RoomID      string
	RatePlanID  *string
	CheckIn     time.Time
	CheckOut    time.Time
	Adults      int
	Children    int
	IncludeMeal *bool
}

type SearchRequest struct {
	CheckIn    time.Time
	CheckOut   time.Time
	Guests     int
	RoomTypeID string
}

// Service is the booking lifecycle manager.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Booking, error)

	Confirm(ctx context.Context, id string) (*Booking, error)
	CheckIn(ctx context.Context, id string) (*Booking, error)
	CheckOut(ctx context.Context, id string) (*Booking, error)
	Cancel(ctx context.Context, id string, reason string) (*Booking, error)
	MarkNoShow(ctx context.Context, id string) (*Booking, error)
	RecordPayment(ctx context.Context, id string, amount decimal.Decimal, method string) (*Booking, error)
	AttachIDProof(ctx context.Context, id string, fileID string) error

	// IsRoomFree checks the bookings table, never the cache.
	IsRoomFree(ctx context.Context, roomID string, stay daterange.Range, excludeID string) (bool, error)
	// Quote prices a stay without writing anything.
	Quote(ctx context.Context, req QuoteRequest) (pricing.Quote, error)
	SearchAvailable(ctx context.Context, req SearchRequest) ([]*room.Room, error)
	Recommend(ctx context.Context, guestID string, req SearchRequest) ([]recommendation.Recommendation, error)
}

type RoomStore interface {
	GetByID(ctx context.Context, id string) (*room.Room, error)
	LockForUpdate(ctx context.Context, id string) (*room.Room, error)
	UpdateStatus(ctx context.Context, id string, status room.Status) error
}

type RatePlanStore interface {
	GetByID(ctx context.Context, id string) (*rateplan.RatePlan, error)
}

type GuestDirectory interface {
	GetByID(ctx context.Context, id string) (*guest.Guest, error)
	GetPreferences(ctx context.Context, guestID string) (*guest.Preference, error)
}

type AvailabilityCache interface {
	UpdateAvailability(ctx context.Context, roomID string, stay daterange.Range, isAvailable bool, bookingID *string) error
	Recompute(ctx context.Context, roomID string, stay daterange.Range) error
	GetAvailableRooms(ctx context.Context, stay daterange.Range, roomTypeID string, minCapacity int) ([]*room.Room, error)
}

// Deps are the collaborators of the booking service.
type Deps struct {
	Repo         Repository
	Rooms        RoomStore
	RatePlans    RatePlanStore
	Guests       GuestDirectory
	Availability AvailabilityCache
	Pricing      *pricing.Engine
	Notifier     notification.Sender
	Tx           db.TxManager
	Logger       logrus.FieldLogger
	Metrics      *metrics.Metrics
}

type service struct {
	repo         Repository
	rooms        RoomStore
	ratePlans    RatePlanStore
	guests       GuestDirectory
	availability AvailabilityCache
	pricing      *pricing.Engine
	notifier     notification.Sender
	tx           db.TxManager
	logger       logrus.FieldLogger
	metrics      *metrics.Metrics

	now func() time.Time
}

func NewService(d Deps) Service {
	if d.Notifier == nil {
		d.Notifier = notification.NopSender{}
	}
	return &service{
		repo:         d.Repo,
		rooms:        d.Rooms,
		ratePlans:    d.RatePlans,
		guests:       d.Guests,
		availability: d.Availability,
		pricing:      d.Pricing,
		notifier:     d.Notifier,
		tx:           d.Tx,
		logger:       d.Logger,
		metrics:      d.Metrics,
		now:          time.Now,
	}
}

func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) IsRoomFree(ctx context.Context, roomID string, stay daterange.Range, excludeID string) (bool, error) {
	conflict, err := s.repo.FindOverlap(ctx, roomID, stay, excludeID)
	if err != nil {
		return false, err
	}
	return conflict == "", nil
}

func (s *service) Quote(ctx context.Context, req QuoteRequest) (pricing.Quote, error) {
	stay, err := daterange.New(req.CheckIn, req.CheckOut)
	if err != nil {
		return pricing.Quote{}, err
	}
	if err := validateGuests(req.Adults, req.Children); err != nil {
		return pricing.Quote{}, err
	}

	rm, err := s.rooms.GetByID(ctx, req.RoomID)
	if err != nil {
		return pricing.Quote{}, err
	}
	if err := checkCapacity(rm, req.Adults+req.Children); err != nil {
		return pricing.Quote{}, err
	}

	plan, err := s.resolvePlan(ctx, rm, req.RatePlanID)
	if err != nil {
		return pricing.Quote{}, err
	}

	return s.pricing.Quote(pricing.QuoteInput{
		Room:        rm,
		RatePlan:    plan,
		Stay:        stay,
		Adults:      req.Adults,
		Children:    req.Children,
		IncludeMeal: boolOr(req.IncludeMeal, true),
	}), nil
}

func (s *service) SearchAvailable(ctx context.Context, req SearchRequest) ([]*room.Room, error) {
	stay, err := daterange.New(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}
	if req.Guests < 1 {
		return nil, ErrInvalidGuestCount
	}
	return s.availability.GetAvailableRooms(ctx, stay, req.RoomTypeID, req.Guests)
}

// Recommend ranks the available rooms by the guest's saved preferences.
// Guests without preferences get the rooms in search order.
func (s *service) Recommend(ctx context.Context, guestID string, req SearchRequest) ([]recommendation.Recommendation, error) {
	if _, err := s.guests.GetByID(ctx, guestID); err != nil {
		return nil, err
	}

	rooms, err := s.SearchAvailable(ctx, req)
	if err != nil {
		return nil, err
	}

	pref, err := s.guests.GetPreferences(ctx, guestID)
	if err != nil {
		if !errors.Is(err, guest.ErrPreferencesNotFound) {
			return nil, err
		}
		pref = nil
	}
	return recommendation.Rank(pref, rooms), nil
}

func validateGuests(adults, children int) error {
	if adults < 1 || children < 0 {
		return ErrInvalidGuestCount
	}
	return nil
}

func checkCapacity(rm *room.Room, guests int) error {
	if c := rm.Capacity(); c > 0 && guests > c {
		return ErrCapacityExceeded
	}
	return nil
}

// resolvePlan loads the requested rate plan and checks it belongs to rm's type.
// A nil id means no plan. Whether the plan applies to the stay is left to the
// pricing engine, which falls back to the room price when it does not.
func (s *service) resolvePlan(ctx context.Context, rm *room.Room, planID *string) (*rateplan.RatePlan, error) {
	if planID == nil || *planID == "" {
		return nil, nil
	}

	plan, err := s.ratePlans.GetByID(ctx, *planID)
	if err != nil {
		return nil, err
	}
	if rm.RoomTypeID == nil || *rm.RoomTypeID != plan.RoomTypeID {
		return nil, ErrRatePlanMismatch
	}
	return plan, nil
}

// price quotes b and sets its amounts. A positive manual total overrides the quote.
func (s *service) price(b *Booking, rm *room.Room, plan *rateplan.RatePlan, manual *decimal.Decimal) {
	q := s.pricing.Quote(pricing.QuoteInput{
		Room:        rm,
		RatePlan:    plan,
		Stay:        b.Stay(),
		Adults:      b.Adults,
		Children:    b.Children,
		IncludeMeal: b.IncludeMeal,
	})
	b.BaseAmount = q.Total
	b.TotalAmount = q.Total
	if manual != nil && manual.IsPositive() {
		b.TotalAmount = *manual
	}
}

func updatePaymentStatus(b *Booking) {
	switch {
	case !b.AdvancePayment.IsPositive():
		b.PaymentStatus = PaymentPending
	case b.AdvancePayment.LessThan(b.TotalAmount):
		b.PaymentStatus = PaymentPartial
	default:
		b.PaymentStatus = PaymentPaid
	}
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
