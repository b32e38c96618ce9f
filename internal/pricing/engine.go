// Package pricing turns a room, an optional rate plan and a stay into a quote,
// and computes GST bills at check-in.
package pricing

import (
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/metrics"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/daterange"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/money"
	"github.com/nekogravitycat/hotel-booking-backend/internal/rateplan"
	"github.com/nekogravitycat/hotel-booking-backend/internal/room"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Source tells which price the quote was built from.
type Source string

const (
	SourceRatePlan    Source = "RATE_PLAN"
	SourceRoomType    Source = "ROOM_TYPE"
	SourceRoomDefault Source = "ROOM_DEFAULT"
	SourceNone        Source = "NONE"
)

const WarningPricingFallback = "pricing_fallback"

// Warning is a non-fatal condition met while pricing.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type LineCode string

const (
	LineBase       LineCode = "BASE"
	LineExtraGuest LineCode = "EXTRA_GUESTS"
	LineMeals      LineCode = "MEALS"
	LineWeekend    LineCode = "WEEKEND_SURCHARGE"
)

type Line struct {
	Code   LineCode        `json:"code"`
	Nights int             `json:"nights"`
	Amount decimal.Decimal `json:"amount"`
}

type QuoteInput struct {
	Room        *room.Room
	RatePlan    *rateplan.RatePlan // optional
	Stay        daterange.Range
	Adults      int
	Children    int
	IncludeMeal bool
}

func (in QuoteInput) Guests() int {
	return in.Adults + in.Children
}

type Quote struct {
	Total    decimal.Decimal
	Nights   int
	Source   Source
	Lines    []Line
	Warnings []Warning
}

// Engine prices stays. It holds no state besides its policy and is safe for
// concurrent use.
type Engine struct {
	weekend map[time.Weekday]bool
	logger  logrus.FieldLogger
	metrics *metrics.Metrics
}

// NewEngine creates an engine that treats nights starting on weekendDays as weekend nights.
func NewEngine(weekendDays []time.Weekday, logger logrus.FieldLogger, m *metrics.Metrics) *Engine {
	weekend := make(map[time.Weekday]bool, len(weekendDays))
	for _, d := range weekendDays {
		weekend[d] = true
	}
	return &Engine{weekend: weekend, logger: logger, metrics: m}
}

// IsWeekendNight reports whether the night starting on d carries the weekend surcharge.
func (e *Engine) IsWeekendNight(d time.Time) bool {
	return e.weekend[d.Weekday()]
}

// WeekendNights counts the weekend nights of stay.
func (e *Engine) WeekendNights(stay daterange.Range) int {
	n := 0
	for _, d := range stay.Dates() {
		if e.IsWeekendNight(d) {
			n++
		}
	}
	return n
}

// Quote prices a stay. A rate plan that does not apply to the stay, fails or
// yields nothing falls back to the room type price, then the room's default
// rate, then zero, recording a warning. Identical input always produces
// identical output.
func (e *Engine) Quote(in QuoteInput) Quote {
	q := Quote{Nights: in.Stay.Nights()}

	if in.RatePlan != nil && e.applyPlan(&q, in) {
		return q
	}

	e.roomPrice(&q, in)
	return q
}

// applyPlan prices q from the rate plan and reports whether it succeeded.
func (e *Engine) applyPlan(q *Quote, in QuoteInput) bool {
	if !in.RatePlan.Applies(in.Stay) {
		e.warn(q, in, "rate_plan_not_applicable", notApplicableMessage(in.RatePlan, in.Stay))
		return false
	}

	total, lines, err := e.planTotal(in)
	switch {
	case err != nil:
		e.warn(q, in, "rate_plan_error", "rate plan calculation failed: "+err.Error())
		return false
	case !total.IsPositive():
		e.warn(q, in, "rate_plan_zero", "rate plan produced a zero total")
		return false
	}

	q.Total = total
	q.Source = SourceRatePlan
	q.Lines = lines
	return true
}

func (e *Engine) planTotal(in QuoteInput) (decimal.Decimal, []Line, error) {
	p := in.RatePlan
	nights := in.Stay.Nights()
	guests := in.Guests()

	total, err := p.CalculateTotal(nights, guests, in.IncludeMeal)
	if err != nil {
		return decimal.Zero, nil, err
	}

	n := decimal.NewFromInt(int64(nights))
	lines := []Line{{Code: LineBase, Nights: nights, Amount: money.Round(p.BaseRate.Mul(n))}}
	if guests > 1 {
		extra := p.AdditionalGuestCharge.Mul(decimal.NewFromInt(int64(guests - 1))).Mul(n)
		lines = append(lines, Line{Code: LineExtraGuest, Nights: nights, Amount: money.Round(extra)})
	}
	if in.IncludeMeal && p.MealPlan != rateplan.MealEP {
		meals := p.MealPlanCost.Mul(decimal.NewFromInt(int64(guests))).Mul(n)
		lines = append(lines, Line{Code: LineMeals, Nights: nights, Amount: money.Round(meals)})
	}

	// One surcharge per weekend night actually in the stay, on the room
	// portion of that night.
	if weekendNights := e.WeekendNights(in.Stay); weekendNights > 0 && p.WeekendSurcharge.IsPositive() {
		nightly := p.NightlyRoomRate(guests)
		perNight := p.ApplyWeekendSurcharge(nightly).Sub(nightly)
		surcharge := money.Round(perNight.Mul(decimal.NewFromInt(int64(weekendNights))))
		lines = append(lines, Line{Code: LineWeekend, Nights: weekendNights, Amount: surcharge})
		total = total.Add(surcharge)
	}

	return money.Round(total), lines, nil
}

func notApplicableMessage(p *rateplan.RatePlan, stay daterange.Range) string {
	switch {
	case !p.IsActive:
		return "rate plan is inactive"
	case !p.IsValidOn(stay.CheckIn):
		return "rate plan is not valid for the check-in date"
	case stay.Nights() < p.MinimumStay:
		return "stay is shorter than the rate plan minimum"
	default:
		return "stay is longer than the rate plan maximum"
	}
}

func (e *Engine) roomPrice(q *Quote, in QuoteInput) {
	n := decimal.NewFromInt(int64(q.Nights))

	if rt := in.Room.RoomType; rt != nil && money.Positive(rt.PricePerNight) {
		q.Total = money.Round(rt.PricePerNight.Mul(n))
		q.Source = SourceRoomType
	} else if money.Positive(in.Room.RateDefault) {
		q.Total = money.Round(in.Room.RateDefault.Mul(n))
		q.Source = SourceRoomDefault
	} else {
		q.Total = decimal.Zero
		q.Source = SourceNone
		e.warn(q, in, "no_rate", "room has no type price or default rate, quoting zero")
		return
	}
	q.Lines = []Line{{Code: LineBase, Nights: q.Nights, Amount: q.Total}}
}

func (e *Engine) warn(q *Quote, in QuoteInput, reason, message string) {
	q.Warnings = append(q.Warnings, Warning{Code: WarningPricingFallback, Message: message})
	e.metrics.PricingFallback(reason)

	fields := logrus.Fields{
		"warning": WarningPricingFallback,
		"reason":  reason,
		"room_id": in.Room.ID,
		"stay":    in.Stay.String(),
	}
	if in.RatePlan != nil {
		fields["rate_plan_id"] = in.RatePlan.ID
	}
	e.logger.WithFields(fields).Warn(message)
}
