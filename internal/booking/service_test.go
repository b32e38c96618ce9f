package booking

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/guest"
	"github.com/nekogravitycat/hotel-booking-backend/internal/notification"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/daterange"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pricing"
	"github.com/nekogravitycat/hotel-booking-backend/internal/rateplan"
	"github.com/nekogravitycat/hotel-booking-backend/internal/room"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	room101  = "room-101"
	room102  = "room-102"
	suite201 = "room-201"
	guestID  = "guest-1"
	planID   = "plan-summer"
)

func june(d int) time.Time {
	return time.Date(2024, time.June, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T { return &v }

type fixture struct {
	svc      *service
	repo     *memRepo
	rooms    *fakeRooms
	cache    *fakeCache
	notifier *recordingSender
	logs     *logtest.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	deluxe := &room.RoomType{ID: "rt-deluxe", Name: "Deluxe", Capacity: 4, PricePerNight: ptr(dec("2500"))}
	suite := &room.RoomType{ID: "rt-suite", Name: "Suite", Capacity: 2, PricePerNight: ptr(dec("6000"))}
	rooms := newFakeRooms(
		&room.Room{ID: room101, RoomNumber: "101", RoomTypeID: &deluxe.ID, RoomType: deluxe, Floor: 1, Status: room.StatusAvailable},
		&room.Room{ID: room102, RoomNumber: "102", RoomTypeID: &deluxe.ID, RoomType: deluxe, Floor: 1, Status: room.StatusAvailable},
		&room.Room{ID: suite201, RoomNumber: "201", RoomTypeID: &suite.ID, RoomType: suite, Floor: 2, Status: room.StatusAvailable},
	)
	plans := fakePlans{
		planID: {
			ID:                    planID,
			RoomTypeID:            deluxe.ID,
			Name:                  "Summer",
			Season:                rateplan.SeasonHigh,
			ValidFrom:             time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			ValidTo:               time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC),
			BaseRate:              dec("3000"),
			AdditionalGuestCharge: dec("500"),
			MealPlan:              rateplan.MealEP,
			MinimumStay:           2,
			MaximumStay:           ptr(14),
			IsActive:              true,
		},
	}
	guests := &fakeGuests{
		guests: map[string]*guest.Guest{guestID: {ID: guestID, FullName: "Asha Rao", Email: "asha@example.com"}},
		prefs:  map[string]*guest.Preference{},
	}

	repo := newMemRepo()
	cache := newFakeCache(repo, rooms)
	notifier := &recordingSender{}
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	svc := NewService(Deps{
		Repo:         repo,
		Rooms:        rooms,
		RatePlans:    plans,
		Guests:       guests,
		Availability: cache,
		Pricing:      pricing.NewEngine([]time.Weekday{time.Friday, time.Saturday}, logger, nil),
		Notifier:     notifier,
		Tx:           passthroughTx{},
		Logger:       logger,
	}).(*service)
	svc.now = func() time.Time { return june(1).Add(9 * time.Hour) }

	return &fixture{svc: svc, repo: repo, rooms: rooms, cache: cache, notifier: notifier, logs: hook}
}

func (f *fixture) book(t *testing.T, roomID string, in, out int) *Booking {
	t.Helper()
	b, err := f.svc.Create(context.Background(), CreateRequest{
		GuestID:  guestID,
		RoomID:   roomID,
		CheckIn:  june(in),
		CheckOut: june(out),
		Adults:   1,
	})
	require.NoError(t, err)
	return b
}

// assertCacheMatches checks that the cache holds exactly the nights of the
// bookings that occupy a room.
func (f *fixture) assertCacheMatches(t *testing.T) {
	t.Helper()
	active, err := f.repo.ListActive(context.Background(), "", daterange.MustNew(june(1), june(30)))
	require.NoError(t, err)

	want := map[string]string{}
	for _, b := range active {
		for _, d := range b.Stay().Dates() {
			want[cacheKey(b.RoomID, d)] = b.ID
		}
	}
	assert.Equal(t, want, f.cache.snapshot())
}

func TestCreatePricesWithRatePlan(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.Create(context.Background(), CreateRequest{
		GuestID:    guestID,
		RoomID:     room101,
		RatePlanID: ptr(planID),
		CheckIn:    june(3),
		CheckOut:   june(5),
		Adults:     2,
		Children:   1,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, b.ID)
	assert.Equal(t, StatusConfirmed, b.Status)
	assert.Equal(t, SourceDirect, b.Source)
	assert.True(t, b.IncludeMeal)
	assert.Equal(t, "101", b.RoomNumber)
	assert.True(t, dec("8000").Equal(b.BaseAmount), "got %s", b.BaseAmount)
	assert.True(t, dec("8000").Equal(b.TotalAmount), "got %s", b.TotalAmount)
	assert.Equal(t, PaymentPending, b.PaymentStatus)

	for _, d := range b.Stay().Dates() {
		owner, ok := f.cache.owner(room101, d)
		assert.True(t, ok)
		assert.Equal(t, b.ID, owner)
	}
	_, ok := f.cache.owner(room101, june(5))
	assert.False(t, ok, "check-out night stays free")

	assert.Equal(t, []notification.TemplateType{notification.TemplateBookingConfirmation}, f.notifier.templates())
}

func TestCreateFallsBackToRoomTypePrice(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.Create(context.Background(), CreateRequest{
		GuestID:  guestID,
		RoomID:   room101,
		CheckIn:  june(3),
		CheckOut: june(6),
		Adults:   1,
	})
	require.NoError(t, err)
	assert.True(t, dec("7500").Equal(b.TotalAmount), "got %s", b.TotalAmount)
}

func TestCreateFallsBackWhenPlanDoesNotApply(t *testing.T) {
	tests := []struct {
		name     string
		checkOut time.Time
		nights   int
	}{
		{"stay shorter than plan minimum", june(4), 1},
		{"stay longer than plan maximum", june(30), 27},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			q, err := f.svc.Quote(ctx, QuoteRequest{
				RoomID: room101, RatePlanID: ptr(planID), CheckIn: june(3), CheckOut: tt.checkOut, Adults: 1,
			})
			require.NoError(t, err)
			assert.Equal(t, pricing.SourceRoomType, q.Source)
			require.Len(t, q.Warnings, 1)
			assert.Equal(t, pricing.WarningPricingFallback, q.Warnings[0].Code)

			b, err := f.svc.Create(ctx, CreateRequest{
				GuestID: guestID, RoomID: room101, RatePlanID: ptr(planID), CheckIn: june(3), CheckOut: tt.checkOut, Adults: 1,
			})
			require.NoError(t, err)
			want := dec("2500").Mul(decimal.NewFromInt(int64(tt.nights)))
			assert.True(t, want.Equal(b.TotalAmount), "got %s", b.TotalAmount)
			require.NotNil(t, b.RatePlanID)
			assert.Equal(t, planID, *b.RatePlanID)
		})
	}
}

func TestCreateManualTotalOverridesQuote(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.Create(context.Background(), CreateRequest{
		GuestID:        guestID,
		RoomID:         room101,
		CheckIn:        june(3),
		CheckOut:       june(5),
		Adults:         1,
		TotalAmount:    ptr(dec("4200")),
		AdvancePayment: dec("1000"),
	})
	require.NoError(t, err)
	assert.True(t, dec("5000").Equal(b.BaseAmount))
	assert.True(t, dec("4200").Equal(b.TotalAmount))
	assert.Equal(t, PaymentPartial, b.PaymentStatus)
	assert.True(t, dec("3200").Equal(b.Balance()))
}

func TestCreateRejectsOverlap(t *testing.T) {
	f := newFixture(t)
	first := f.book(t, room101, 1, 5)

	_, err := f.svc.Create(context.Background(), CreateRequest{
		GuestID:  guestID,
		RoomID:   room101,
		CheckIn:  june(4),
		CheckOut: june(6),
		Adults:   1,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRoomUnavailable)

	var overlap *OverlapError
	require.ErrorAs(t, err, &overlap)
	assert.Equal(t, first.ID, overlap.ConflictingBookingID)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 409, appErr.Code)
}

func TestCreateAllowsBackToBackStays(t *testing.T) {
	f := newFixture(t)
	first := f.book(t, room101, 1, 5)
	second := f.book(t, room101, 5, 7)

	owner, _ := f.cache.owner(room101, june(4))
	assert.Equal(t, first.ID, owner)
	owner, _ = f.cache.owner(room101, june(5))
	assert.Equal(t, second.ID, owner)
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *CreateRequest)
		wantErr error
	}{
		{"check-out before check-in", func(r *CreateRequest) { r.CheckOut = june(2) }, daterange.ErrInvalidRange},
		{"same-day stay", func(r *CreateRequest) { r.CheckOut = r.CheckIn }, daterange.ErrInvalidRange},
		{"no adults", func(r *CreateRequest) { r.Adults = 0 }, ErrInvalidGuestCount},
		{"negative children", func(r *CreateRequest) { r.Children = -1 }, ErrInvalidGuestCount},
		{"over capacity", func(r *CreateRequest) { r.Adults = 3; r.Children = 2 }, ErrCapacityExceeded},
		{"unknown guest", func(r *CreateRequest) { r.GuestID = "nobody" }, guest.ErrNotFound},
		{"unknown room", func(r *CreateRequest) { r.RoomID = "nowhere" }, room.ErrNotFound},
		{"checked-in initial status", func(r *CreateRequest) { r.Status = StatusCheckedIn }, ErrInvalidInitialStatus},
		{"unknown source", func(r *CreateRequest) { r.Source = "CARRIER_PIGEON" }, ErrInvalidSource},
		{"negative advance", func(r *CreateRequest) { r.AdvancePayment = dec("-1") }, ErrNegativeAmount},
		{"advance above total", func(r *CreateRequest) { r.AdvancePayment = dec("99999") }, ErrOverpayment},
		{"plan for another room type", func(r *CreateRequest) { r.RoomID = suite201; r.RatePlanID = ptr(planID) }, ErrRatePlanMismatch},
		{"unknown plan", func(r *CreateRequest) { r.RatePlanID = ptr("plan-missing") }, rateplan.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := CreateRequest{
				GuestID:  guestID,
				RoomID:   room101,
				CheckIn:  june(3),
				CheckOut: june(5),
				Adults:   1,
			}
			tt.mutate(&req)

			_, err := f.svc.Create(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.repo.bookings, "nothing is written on failure")
			assert.Empty(t, f.cache.snapshot())
		})
	}
}

func TestCreateRejectsRoomUnderMaintenance(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.rooms.UpdateStatus(context.Background(), room102, room.StatusMaintenance))

	_, err := f.svc.Create(context.Background(), CreateRequest{
		GuestID: guestID, RoomID: room102, CheckIn: june(3), CheckOut: june(5), Adults: 1,
	})
	assert.ErrorIs(t, err, ErrRoomNotBookable)
}

func TestPendingBookingDoesNotHoldRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending, err := f.svc.Create(ctx, CreateRequest{
		GuestID: guestID, RoomID: room101, CheckIn: june(10), CheckOut: june(12), Adults: 1, Status: StatusPending,
	})
	require.NoError(t, err)
	assert.Empty(t, f.cache.snapshot())
	assert.Empty(t, f.notifier.templates())

	confirmed := f.book(t, room101, 11, 13)

	_, err = f.svc.Confirm(ctx, pending.ID)
	var overlap *OverlapError
	require.ErrorAs(t, err, &overlap)
	assert.Equal(t, confirmed.ID, overlap.ConflictingBookingID)

	got, err := f.svc.GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
}

func TestConfirmPendingBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending, err := f.svc.Create(ctx, CreateRequest{
		GuestID: guestID, RoomID: room101, CheckIn: june(10), CheckOut: june(12), Adults: 1, Status: StatusPending,
	})
	require.NoError(t, err)

	b, err := f.svc.Confirm(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, b.Status)
	f.assertCacheMatches(t)

	_, err = f.svc.Confirm(ctx, pending.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStayLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, room101, 1, 3)

	b, err := f.svc.CheckIn(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCheckedIn, b.Status)
	require.NotNil(t, b.ActualCheckInTime)
	assert.Equal(t, room.StatusOccupied, f.rooms.status(room101))
	f.assertCacheMatches(t)

	b, err = f.svc.CheckOut(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCheckedOut, b.Status)
	require.NotNil(t, b.ActualCheckOutTime)
	assert.Equal(t, room.StatusAvailable, f.rooms.status(room101))
	assert.Empty(t, f.cache.snapshot())

	assert.Equal(t, []notification.TemplateType{
		notification.TemplateBookingConfirmation,
		notification.TemplateCheckInWelcome,
		notification.TemplateCheckOutThanks,
	}, f.notifier.templates())
}

func TestInvalidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture, id string)
		act   func(s *service, id string) error
	}{
		{
			name:  "cancel a checked-in booking",
			setup: func(f *fixture, id string) { _, _ = f.svc.CheckIn(context.Background(), id) },
			act: func(s *service, id string) error {
				_, err := s.Cancel(context.Background(), id, "changed plans")
				return err
			},
		},
		{
			name: "check out a confirmed booking",
			act: func(s *service, id string) error {
				_, err := s.CheckOut(context.Background(), id)
				return err
			},
		},
		{
			name:  "check in a canceled booking",
			setup: func(f *fixture, id string) { _, _ = f.svc.Cancel(context.Background(), id, "") },
			act: func(s *service, id string) error {
				_, err := s.CheckIn(context.Background(), id)
				return err
			},
		},
		{
			name: "edit a checked-out booking",
			setup: func(f *fixture, id string) {
				_, _ = f.svc.CheckIn(context.Background(), id)
				_, _ = f.svc.CheckOut(context.Background(), id)
			},
			act: func(s *service, id string) error {
				_, err := s.Update(context.Background(), id, UpdateRequest{Adults: ptr(2)})
				return err
			},
		},
		{
			name:  "no-show after check-in",
			setup: func(f *fixture, id string) { _, _ = f.svc.CheckIn(context.Background(), id) },
			act: func(s *service, id string) error {
				_, err := s.MarkNoShow(context.Background(), id)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			b := f.book(t, room101, 1, 3)
			if tt.setup != nil {
				tt.setup(f, b.ID)
			}
			before, err := f.repo.GetByID(context.Background(), b.ID)
			require.NoError(t, err)

			err = tt.act(f.svc, b.ID)
			assert.ErrorIs(t, err, ErrInvalidTransition)

			after, err := f.repo.GetByID(context.Background(), b.ID)
			require.NoError(t, err)
			assert.Equal(t, before.Status, after.Status)
		})
	}
}

func TestCancelFreesRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, room101, 10, 14)
	require.NotEmpty(t, f.cache.snapshot())

	canceled, err := f.svc.Cancel(ctx, b.ID, "  flight canceled ")
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, canceled.Status)
	assert.Equal(t, "flight canceled", canceled.CancellationReason)
	require.NotNil(t, canceled.CanceledAt)
	assert.Empty(t, f.cache.snapshot())

	free, err := f.svc.IsRoomFree(ctx, room101, b.Stay(), "")
	require.NoError(t, err)
	assert.True(t, free)

	// The same nights can be sold again.
	again := f.book(t, room101, 10, 14)
	assert.NotEqual(t, b.ID, again.ID)
	f.assertCacheMatches(t)

	last := f.notifier.sent[1]
	assert.Equal(t, notification.TemplateBookingCancellation, last.Template)
	assert.Equal(t, "flight canceled", last.Data["reason"])
	assert.Equal(t, "asha@example.com", last.To.Email)
}

func TestCancelReleasesReservedRoom(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, room101, 10, 12)
	require.NoError(t, f.rooms.UpdateStatus(context.Background(), room101, room.StatusReserved))

	_, err := f.svc.Cancel(context.Background(), b.ID, "")
	require.NoError(t, err)
	assert.Equal(t, room.StatusAvailable, f.rooms.status(room101))
}

func TestCancelKeepsNeighbourNights(t *testing.T) {
	f := newFixture(t)
	first := f.book(t, room101, 1, 5)
	second := f.book(t, room101, 5, 7)

	_, err := f.svc.Cancel(context.Background(), first.ID, "")
	require.NoError(t, err)

	owner, ok := f.cache.owner(room101, june(5))
	assert.True(t, ok)
	assert.Equal(t, second.ID, owner)
	f.assertCacheMatches(t)
}

func TestMarkNoShow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	early := f.book(t, room101, 10, 12)
	_, err := f.svc.MarkNoShow(ctx, early.ID)
	assert.ErrorIs(t, err, ErrNoShowTooEarly)

	due := f.book(t, room102, 1, 3)
	b, err := f.svc.MarkNoShow(ctx, due.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNoShow, b.Status)
	f.assertCacheMatches(t)

	_, err = f.svc.MarkNoShow(ctx, due.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateMovesDatesAndReprices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, room101, 10, 12)

	// Shrinking or shifting into its own nights never conflicts with itself.
	updated, err := f.svc.Update(ctx, b.ID, UpdateRequest{CheckIn: ptr(june(11)), CheckOut: ptr(june(14))})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.ModificationCount)
	assert.True(t, dec("7500").Equal(updated.TotalAmount), "got %s", updated.TotalAmount)

	_, ok := f.cache.owner(room101, june(10))
	assert.False(t, ok)
	f.assertCacheMatches(t)
}

func TestUpdateMovesRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, room101, 10, 12)

	updated, err := f.svc.Update(ctx, b.ID, UpdateRequest{RoomID: ptr(room102)})
	require.NoError(t, err)
	assert.Equal(t, room102, updated.RoomID)
	assert.Equal(t, "102", updated.RoomNumber)
	f.assertCacheMatches(t)
}

func TestUpdateRejectsOverlapAndKeepsBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	blocker := f.book(t, room102, 10, 12)
	b := f.book(t, room101, 10, 12)

	_, err := f.svc.Update(ctx, b.ID, UpdateRequest{RoomID: ptr(room102)})
	var overlap *OverlapError
	require.ErrorAs(t, err, &overlap)
	assert.Equal(t, blocker.ID, overlap.ConflictingBookingID)

	got, err := f.repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, room101, got.RoomID)
	assert.Zero(t, got.ModificationCount)
	f.assertCacheMatches(t)
}

func TestUpdateWithoutPriceChangesKeepsTotal(t *testing.T) {
	f := newFixture(t)
	b, err := f.svc.Create(context.Background(), CreateRequest{
		GuestID: guestID, RoomID: room101, CheckIn: june(10), CheckOut: june(12), Adults: 1,
		TotalAmount: ptr(dec("4000")),
	})
	require.NoError(t, err)

	updated, err := f.svc.Update(context.Background(), b.ID, UpdateRequest{SpecialRequests: ptr("late arrival")})
	require.NoError(t, err)
	assert.True(t, dec("4000").Equal(updated.TotalAmount))
	assert.Equal(t, "late arrival", updated.SpecialRequests)
}

func TestRecordPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, room101, 10, 12) // 5000

	b, err := f.svc.RecordPayment(ctx, b.ID, dec("2000"), "card")
	require.NoError(t, err)
	assert.Equal(t, PaymentPartial, b.PaymentStatus)
	assert.Equal(t, "card", b.PaymentMethod)

	_, err = f.svc.RecordPayment(ctx, b.ID, dec("3000.01"), "")
	assert.ErrorIs(t, err, ErrOverpayment)

	_, err = f.svc.RecordPayment(ctx, b.ID, decimal.Zero, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	b, err = f.svc.RecordPayment(ctx, b.ID, dec("3000"), "")
	require.NoError(t, err)
	assert.Equal(t, PaymentPaid, b.PaymentStatus)
	assert.True(t, b.Balance().IsZero())
}

func TestConcurrentPaymentsDoNotLoseUpdates(t *testing.T) {
	f := newFixture(t)
	f.svc.tx = lockingTx{}
	ctx := context.Background()
	b := f.book(t, room101, 10, 12) // 5000
	f.repo.readDelay = time.Millisecond

	const workers = 60
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		paid     int
		rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.RecordPayment(ctx, b.ID, dec("100"), "cash")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				paid++
			case errors.Is(err, ErrOverpayment):
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, paid)
	assert.Equal(t, 10, rejected)

	got, err := f.repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, dec("5000").Equal(got.AdvancePayment), "got %s", got.AdvancePayment)
	assert.Equal(t, PaymentPaid, got.PaymentStatus)
}

func TestConcurrentEditsAndPaymentsKeepBoth(t *testing.T) {
	f := newFixture(t)
	f.svc.tx = lockingTx{}
	ctx := context.Background()
	b := f.book(t, room101, 10, 12)
	f.repo.readDelay = time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.svc.RecordPayment(ctx, b.ID, dec("200"), "")
			assert.NoError(t, err)
		}()
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Update(ctx, b.ID, UpdateRequest{SpecialRequests: ptr(fmt.Sprintf("note %d", i))})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := f.repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, dec("2000").Equal(got.AdvancePayment), "got %s", got.AdvancePayment)
	assert.Equal(t, 10, got.ModificationCount)
	assert.Equal(t, PaymentPartial, got.PaymentStatus)
}

func TestAttachIDProof(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, room101, 10, 12)

	require.NoError(t, f.svc.AttachIDProof(ctx, b.ID, "file-1"))
	got, err := f.svc.GetByID(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got.IDProofFileID)
	assert.Equal(t, "file-1", *got.IDProofFileID)

	_, err = f.svc.Cancel(ctx, b.ID, "")
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.AttachIDProof(ctx, b.ID, "file-2"), ErrInvalidTransition)
}

func TestCacheFailureKeepsBooking(t *testing.T) {
	f := newFixture(t)
	f.cache.err = errors.New("cache table locked")

	b, err := f.svc.Create(context.Background(), CreateRequest{
		GuestID: guestID, RoomID: room101, CheckIn: june(10), CheckOut: june(12), Adults: 1,
	})
	require.NoError(t, err)

	stored, err := f.repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, stored.Status)

	var warned bool
	for _, e := range f.logs.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["warning"] == WarningCacheInconsistency {
			warned = true
			assert.Equal(t, "create", e.Data["operation"])
			assert.Equal(t, b.ID, e.Data["booking_id"])
		}
	}
	assert.True(t, warned, "cache failure is logged with a warning marker")

	// The bookings table still guards the room.
	_, err = f.svc.Create(context.Background(), CreateRequest{
		GuestID: guestID, RoomID: room101, CheckIn: june(11), CheckOut: june(13), Adults: 1,
	})
	assert.ErrorIs(t, err, ErrRoomUnavailable)
}

func TestQuoteWritesNothing(t *testing.T) {
	f := newFixture(t)

	q, err := f.svc.Quote(context.Background(), QuoteRequest{
		RoomID: room101, RatePlanID: ptr(planID), CheckIn: june(3), CheckOut: june(5), Adults: 2, Children: 1,
	})
	require.NoError(t, err)
	assert.True(t, dec("8000").Equal(q.Total))
	assert.Equal(t, pricing.SourceRatePlan, q.Source)
	assert.Empty(t, f.repo.bookings)
}

func TestSearchAndRecommend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.book(t, room101, 10, 12)

	req := SearchRequest{CheckIn: june(11), CheckOut: june(13), Guests: 2}
	rooms, err := f.svc.SearchAvailable(ctx, req)
	require.NoError(t, err)
	var ids []string
	for _, r := range rooms {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{room102, suite201}, ids)

	recs, err := f.svc.Recommend(ctx, guestID, req)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, room102, recs[0].Room.ID)
	assert.Zero(t, recs[0].Score)

	_, err = f.svc.Recommend(ctx, "nobody", req)
	assert.ErrorIs(t, err, guest.ErrNotFound)

	_, err = f.svc.SearchAvailable(ctx, SearchRequest{CheckIn: june(11), CheckOut: june(13)})
	assert.ErrorIs(t, err, ErrInvalidGuestCount)
}

// TestRandomOperationsKeepInvariants drives the service with a seeded random
// mix of operations and checks, after every step, that no two occupying
// bookings share a night and that the cache mirrors the bookings table.
func TestRandomOperationsKeepInvariants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	roomIDs := []string{room101, room102}
	var ids []string

	pick := func() (string, bool) {
		if len(ids) == 0 {
			return "", false
		}
		return ids[rng.Intn(len(ids))], true
	}

	for step := 0; step < 400; step++ {
		var err error
		switch op := rng.Intn(7); op {
		case 0, 1:
			in := 1 + rng.Intn(20)
			status := StatusConfirmed
			if rng.Intn(3) == 0 {
				status = StatusPending
			}
			var b *Booking
			b, err = f.svc.Create(ctx, CreateRequest{
				GuestID:  guestID,
				RoomID:   roomIDs[rng.Intn(len(roomIDs))],
				CheckIn:  june(in),
				CheckOut: june(in + 1 + rng.Intn(4)),
				Adults:   1,
				Status:   status,
			})
			if err == nil {
				ids = append(ids, b.ID)
			}
		case 2:
			if id, ok := pick(); ok {
				_, err = f.svc.Cancel(ctx, id, "")
			}
		case 3:
			if id, ok := pick(); ok {
				_, err = f.svc.Confirm(ctx, id)
			}
		case 4:
			if id, ok := pick(); ok {
				_, err = f.svc.CheckIn(ctx, id)
			}
		case 5:
			if id, ok := pick(); ok {
				_, err = f.svc.CheckOut(ctx, id)
			}
		case 6:
			if id, ok := pick(); ok {
				in := 1 + rng.Intn(20)
				_, err = f.svc.Update(ctx, id, UpdateRequest{
					RoomID:   ptr(roomIDs[rng.Intn(len(roomIDs))]),
					CheckIn:  ptr(june(in)),
					CheckOut: ptr(june(in + 1 + rng.Intn(4))),
				})
			}
		}

		if err != nil {
			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr, "step %d: unexpected error %v", step, err)
		}

		active, lerr := f.repo.ListActive(ctx, "", daterange.MustNew(june(1), june(30)))
		require.NoError(t, lerr)
		for i := range active {
			for j := i + 1; j < len(active); j++ {
				a, b := active[i], active[j]
				if a.RoomID == b.RoomID {
					require.False(t, a.Stay().Overlaps(b.Stay()),
						fmt.Sprintf("step %d: %s %s overlaps %s %s", step, a.ID, a.Stay(), b.ID, b.Stay()))
				}
			}
		}
		f.assertCacheMatches(t)
	}
}
