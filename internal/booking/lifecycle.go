package booking

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/nekogravitycat/hotel-booking-backend/internal/notification"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/daterange"
	"github.com/nekogravitycat/hotel-booking-backend/internal/room"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	// 1. Validate the request on its own
	stay, err := daterange.New(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}
	if err := validateGuests(req.Adults, req.Children); err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = StatusConfirmed
	}
	if status != StatusPending && status != StatusConfirmed {
		return nil, ErrInvalidInitialStatus
	}
	source := req.Source
	if source == "" {
		source = SourceDirect
	}
	if !source.Valid() {
		return nil, ErrInvalidSource
	}
	if req.AdvancePayment.IsNegative() || (req.TotalAmount != nil && req.TotalAmount.IsNegative()) {
		return nil, ErrNegativeAmount
	}

	// 2. Guest must exist
	g, err := s.guests.GetByID(ctx, req.GuestID)
	if err != nil {
		return nil, err
	}

	b := &Booking{
		GuestID:         g.ID,
		GuestName:       g.FullName,
		GuestEmail:      g.Email,
		RoomID:          req.RoomID,
		RatePlanID:      req.RatePlanID,
		CheckIn:         stay.CheckIn,
		CheckOut:        stay.CheckOut,
		Adults:          req.Adults,
		Children:        req.Children,
		IncludeMeal:     boolOr(req.IncludeMeal, true),
		Status:          status,
		Source:          source,
		AdvancePayment:  req.AdvancePayment,
		PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
		SpecialRequests: strings.TrimSpace(req.SpecialRequests),
		CreatedBy:       req.CreatedBy,
	}
	if b.RatePlanID != nil && *b.RatePlanID == "" {
		b.RatePlanID = nil
	}

	// 3. Lock the room, price, check overlap and write in one transaction
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		rm, err := s.rooms.LockForUpdate(ctx, b.RoomID)
		if err != nil {
			return err
		}
		if !rm.Status.Bookable() {
			return ErrRoomNotBookable
		}
		if err := checkCapacity(rm, b.Guests()); err != nil {
			return err
		}
		b.RoomNumber = rm.RoomNumber

		plan, err := s.resolvePlan(ctx, rm, b.RatePlanID)
		if err != nil {
			return err
		}
		s.price(b, rm, plan, req.TotalAmount)

		if b.AdvancePayment.GreaterThan(b.TotalAmount) {
			return ErrOverpayment
		}
		updatePaymentStatus(b)

		// Overlap check runs last so nothing else can fail between it and the insert.
		if err := s.ensureFree(ctx, b.RoomID, stay, ""); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, b); err != nil {
			return err
		}

		if b.Status.Occupies() {
			s.syncCache(ctx, "create", b, func(ctx context.Context) error {
				return s.availability.UpdateAvailability(ctx, b.RoomID, stay, false, &b.ID)
			})
		}
		return nil
	})
	if err != nil {
		return nil, s.rejected(err)
	}

	s.metrics.BookingCreated()
	s.metrics.BookingTransition(string(b.Status))
	s.log(b).WithField("total_amount", b.TotalAmount.String()).Info("booking created")

	if b.Status == StatusConfirmed {
		s.notify(ctx, notification.TemplateBookingConfirmation, b, nil)
	}
	return b, nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Booking, error) {
	if req.TotalAmount != nil && req.TotalAmount.IsNegative() {
		return nil, ErrNegativeAmount
	}
	if req.Source != nil && !req.Source.Valid() {
		return nil, ErrInvalidSource
	}

	var extraRooms []string
	if req.RoomID != nil {
		extraRooms = append(extraRooms, *req.RoomID)
	}

	var out *Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, rooms, err := s.lockBooking(ctx, id, extraRooms...)
		if err != nil {
			return err
		}
		if !b.Status.CanEdit() {
			return ErrInvalidTransition
		}

		oldRoomID, oldStay := b.RoomID, b.Stay()
		oldGuests, oldPlan, oldMeal := b.Guests(), deref(b.RatePlanID), b.IncludeMeal

		// 1. Apply changes
		if req.RoomID != nil {
			b.RoomID = *req.RoomID
		}
		checkIn, checkOut := b.CheckIn, b.CheckOut
		if req.CheckIn != nil {
			checkIn = *req.CheckIn
		}
		if req.CheckOut != nil {
			checkOut = *req.CheckOut
		}
		stay, err := daterange.New(checkIn, checkOut)
		if err != nil {
			return err
		}
		b.CheckIn, b.CheckOut = stay.CheckIn, stay.CheckOut

		if req.Adults != nil {
			b.Adults = *req.Adults
		}
		if req.Children != nil {
			b.Children = *req.Children
		}
		if err := validateGuests(b.Adults, b.Children); err != nil {
			return err
		}
		if req.ClearRatePlan {
			b.RatePlanID = nil
		} else if req.RatePlanID != nil {
			b.RatePlanID = req.RatePlanID
		}
		if req.IncludeMeal != nil {
			b.IncludeMeal = *req.IncludeMeal
		}
		if req.Source != nil {
			b.Source = *req.Source
		}
		if req.PaymentMethod != nil {
			b.PaymentMethod = strings.TrimSpace(*req.PaymentMethod)
		}
		if req.SpecialRequests != nil {
			b.SpecialRequests = strings.TrimSpace(*req.SpecialRequests)
		}

		// 2. Validate against the target room
		rm := rooms[b.RoomID]
		roomChanged := b.RoomID != oldRoomID
		stayChanged := !stay.CheckIn.Equal(oldStay.CheckIn) || !stay.CheckOut.Equal(oldStay.CheckOut)
		if roomChanged && !rm.Status.Bookable() {
			return ErrRoomNotBookable
		}
		if err := checkCapacity(rm, b.Guests()); err != nil {
			return err
		}
		b.RoomNumber = rm.RoomNumber

		plan, err := s.resolvePlan(ctx, rm, b.RatePlanID)
		if err != nil {
			return err
		}

		// 3. Reprice when anything the price depends on changed
		repriced := roomChanged || stayChanged || b.Guests() != oldGuests ||
			deref(b.RatePlanID) != oldPlan || b.IncludeMeal != oldMeal
		if repriced {
			s.price(b, rm, plan, req.TotalAmount)
		} else if req.TotalAmount != nil && req.TotalAmount.IsPositive() {
			b.TotalAmount = *req.TotalAmount
		}
		updatePaymentStatus(b)

		// 4. Overlap check against everything but this booking, then write
		if b.Status.Occupies() {
			if err := s.ensureFree(ctx, b.RoomID, stay, b.ID); err != nil {
				return err
			}
		}
		b.ModificationCount++
		if err := s.repo.Update(ctx, b); err != nil {
			return err
		}

		if b.Status.Occupies() && (roomChanged || stayChanged) {
			s.syncCache(ctx, "update", b, func(ctx context.Context) error {
				if err := s.availability.Recompute(ctx, oldRoomID, oldStay); err != nil {
					return err
				}
				return s.availability.UpdateAvailability(ctx, b.RoomID, stay, false, &b.ID)
			})
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, s.rejected(err)
	}

	s.log(out).WithField("modification_count", out.ModificationCount).Info("booking updated")
	return out, nil
}

func (s *service) Confirm(ctx context.Context, id string) (*Booking, error) {
	b, err := s.transition(ctx, id, func(ctx context.Context, b *Booking, rm *room.Room) error {
		if !b.Status.CanConfirm() {
			return ErrInvalidTransition
		}
		if !rm.Status.Bookable() {
			return ErrRoomNotBookable
		}
		if err := s.ensureFree(ctx, b.RoomID, b.Stay(), b.ID); err != nil {
			return err
		}

		b.Status = StatusConfirmed
		if err := s.repo.Update(ctx, b); err != nil {
			return err
		}

		s.syncCache(ctx, "confirm", b, func(ctx context.Context) error {
			return s.availability.UpdateAvailability(ctx, b.RoomID, b.Stay(), false, &b.ID)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notification.TemplateBookingConfirmation, b, nil)
	return b, nil
}

func (s *service) CheckIn(ctx context.Context, id string) (*Booking, error) {
	b, err := s.transition(ctx, id, func(ctx context.Context, b *Booking, rm *room.Room) error {
		if !b.Status.CanCheckIn() {
			return ErrInvalidTransition
		}
		// A pending booking never held the room, so it has to win it now.
		if b.Status == StatusPending {
			if err := s.ensureFree(ctx, b.RoomID, b.Stay(), b.ID); err != nil {
				return err
			}
		}

		now := s.now()
		b.Status = StatusCheckedIn
		b.ActualCheckInTime = &now
		if err := s.repo.Update(ctx, b); err != nil {
			return err
		}
		if err := s.rooms.UpdateStatus(ctx, b.RoomID, room.StatusOccupied); err != nil {
			return err
		}

		s.syncCache(ctx, "check_in", b, func(ctx context.Context) error {
			return s.availability.UpdateAvailability(ctx, b.RoomID, b.Stay(), false, &b.ID)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notification.TemplateCheckInWelcome, b, nil)
	return b, nil
}

func (s *service) CheckOut(ctx context.Context, id string) (*Booking, error) {
	b, err := s.transition(ctx, id, func(ctx context.Context, b *Booking, rm *room.Room) error {
		if !b.Status.CanCheckOut() {
			return ErrInvalidTransition
		}

		now := s.now()
		b.Status = StatusCheckedOut
		b.ActualCheckOutTime = &now
		if err := s.repo.Update(ctx, b); err != nil {
			return err
		}
		if err := s.rooms.UpdateStatus(ctx, b.RoomID, room.StatusAvailable); err != nil {
			return err
		}

		// Another booking may already hold part of the range.
		s.syncCache(ctx, "check_out", b, func(ctx context.Context) error {
			return s.availability.Recompute(ctx, b.RoomID, b.Stay())
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notification.TemplateCheckOutThanks, b, nil)
	return b, nil
}

func (s *service) Cancel(ctx context.Context, id string, reason string) (*Booking, error) {
	b, err := s.transition(ctx, id, func(ctx context.Context, b *Booking, rm *room.Room) error {
		if !b.Status.CanCancel() {
			return ErrInvalidTransition
		}

		now := s.now()
		b.Status = StatusCanceled
		b.CancellationReason = strings.TrimSpace(reason)
		b.CanceledAt = &now
		if err := s.repo.Update(ctx, b); err != nil {
			return err
		}
		if rm.Status == room.StatusReserved {
			if err := s.rooms.UpdateStatus(ctx, b.RoomID, room.StatusAvailable); err != nil {
				return err
			}
		}

		s.syncCache(ctx, "cancel", b, func(ctx context.Context) error {
			return s.availability.Recompute(ctx, b.RoomID, b.Stay())
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notification.TemplateBookingCancellation, b, map[string]any{"reason": b.CancellationReason})
	return b, nil
}

func (s *service) MarkNoShow(ctx context.Context, id string) (*Booking, error) {
	return s.transition(ctx, id, func(ctx context.Context, b *Booking, rm *room.Room) error {
		if b.Status != StatusPending && b.Status != StatusConfirmed {
			return ErrInvalidTransition
		}
		if !b.CanMarkNoShow(s.now()) {
			return ErrNoShowTooEarly
		}

		b.Status = StatusNoShow
		if err := s.repo.Update(ctx, b); err != nil {
			return err
		}

		s.syncCache(ctx, "no_show", b, func(ctx context.Context) error {
			return s.availability.Recompute(ctx, b.RoomID, b.Stay())
		})
		return nil
	})
}

func (s *service) RecordPayment(ctx context.Context, id string, amount decimal.Decimal, method string) (*Booking, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var out *Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.repo.LockForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if b.Status == StatusCanceled || b.Status == StatusNoShow {
			return ErrInvalidTransition
		}
		if amount.GreaterThan(b.Balance()) {
			return ErrOverpayment
		}

		b.AdvancePayment = b.AdvancePayment.Add(amount)
		if m := strings.TrimSpace(method); m != "" {
			b.PaymentMethod = m
		}
		updatePaymentStatus(b)
		if err := s.repo.Update(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(out).WithFields(logrus.Fields{
		"amount":         amount.String(),
		"payment_status": out.PaymentStatus,
	}).Info("payment recorded")
	return out, nil
}

func (s *service) AttachIDProof(ctx context.Context, id string, fileID string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.repo.LockForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if b.Status.IsTerminal() {
			return ErrInvalidTransition
		}
		return s.repo.SetIDProof(ctx, id, fileID)
	})
}

// transition runs fn on the booking with its room locked and logs the new status.
func (s *service) transition(ctx context.Context, id string, fn func(ctx context.Context, b *Booking, rm *room.Room) error) (*Booking, error) {
	var out *Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, rooms, err := s.lockBooking(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, b, rooms[b.RoomID]); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, s.rejected(err)
	}

	s.metrics.BookingTransition(string(out.Status))
	s.log(out).Info("booking status changed")
	return out, nil
}

// lockBooking locks the booking's room plus extraRoomIDs in id order, then
// locks and re-reads the booking row so it is current for the rest of the
// transaction.
func (s *service) lockBooking(ctx context.Context, id string, extraRoomIDs ...string) (*Booking, map[string]*room.Room, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	ids := append([]string{b.RoomID}, extraRoomIDs...)
	sort.Strings(ids)

	rooms := make(map[string]*room.Room, len(ids))
	for _, roomID := range ids {
		if _, ok := rooms[roomID]; ok {
			continue
		}
		rm, err := s.rooms.LockForUpdate(ctx, roomID)
		if err != nil {
			return nil, nil, err
		}
		rooms[roomID] = rm
	}

	b, err = s.repo.LockForUpdate(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	// The booking moved rooms between the two reads.
	if _, ok := rooms[b.RoomID]; !ok {
		rm, err := s.rooms.LockForUpdate(ctx, b.RoomID)
		if err != nil {
			return nil, nil, err
		}
		rooms[b.RoomID] = rm
	}
	return b, rooms, nil
}

// ensureFree fails with an OverlapError when an active booking other than
// excludeID holds roomID for any night of stay.
func (s *service) ensureFree(ctx context.Context, roomID string, stay daterange.Range, excludeID string) error {
	conflict, err := s.repo.FindOverlap(ctx, roomID, stay, excludeID)
	if err != nil {
		return err
	}
	if conflict != "" {
		return &OverlapError{ConflictingBookingID: conflict}
	}
	return nil
}

// syncCache applies a cache write in a savepoint. The booking is authoritative,
// so a failure is logged and counted but does not roll the booking back.
func (s *service) syncCache(ctx context.Context, op string, b *Booking, fn func(ctx context.Context) error) {
	if err := s.tx.WithinTx(ctx, fn); err != nil {
		s.log(b).WithError(err).WithFields(logrus.Fields{
			"warning":   WarningCacheInconsistency,
			"operation": op,
		}).Warn("availability cache update failed")
		s.metrics.CacheFailure(op)
	}
}

func (s *service) rejected(err error) error {
	if errors.Is(err, ErrRoomUnavailable) {
		s.metrics.OverlapRejected()
	}
	return err
}

func (s *service) notify(ctx context.Context, t notification.TemplateType, b *Booking, extra map[string]any) {
	data := map[string]any{
		"guest_name":   b.GuestName,
		"booking_id":   b.ID,
		"room_number":  b.RoomNumber,
		"check_in":     b.CheckIn.Format(daterange.Layout),
		"check_out":    b.CheckOut.Format(daterange.Layout),
		"total_amount": b.TotalAmount.StringFixed(2),
	}
	for k, v := range extra {
		data[k] = v
	}
	s.notifier.Send(ctx, t, notification.Recipient{Name: b.GuestName, Email: b.GuestEmail}, data)
}

func (s *service) log(b *Booking) logrus.FieldLogger {
	return s.logger.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"room_id":    b.RoomID,
		"status":     b.Status,
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
