package rateplan

import (
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/daterange"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/money"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound             = apperror.NotFound("rate plan not found")
	ErrEmptyName            = apperror.BadRequest("name cannot be empty")
	ErrInvalidValidity      = apperror.BadRequest("valid_to must be after valid_from")
	ErrInvalidBaseRate      = apperror.BadRequest("base rate must be greater than zero")
	ErrNegativeCharge       = apperror.BadRequest("charges cannot be negative")
	ErrMealCostWithoutMeals = apperror.BadRequest("meal plan cost must be zero for EP (room only)")
	ErrInvalidMealPlan      = apperror.BadRequest("invalid meal plan")
	ErrInvalidSeason        = apperror.BadRequest("invalid season")
	ErrInvalidStayLimits    = apperror.BadRequest("maximum stay must not be less than minimum stay")
	ErrInvalidStay          = apperror.BadRequest("nights and guests must be at least 1")
	ErrRoomTypeRequired     = apperror.BadRequest("room_type_id is required")
)

// MealPlan follows the usual hotel inclusions.
type MealPlan string

const (
	MealEP  MealPlan = "EP"  // room only
	MealCP  MealPlan = "CP"  // breakfast
	MealMAP MealPlan = "MAP" // breakfast and one meal
	MealAP  MealPlan = "AP"  // all meals
	MealAI  MealPlan = "AI"  // all inclusive
)

func (m MealPlan) Valid() bool {
	switch m {
	case MealEP, MealCP, MealMAP, MealAP, MealAI:
		return true
	}
	return false
}

type Season string

const (
	SeasonPeak    Season = "PEAK"
	SeasonHigh    Season = "HIGH"
	SeasonRegular Season = "REGULAR"
	SeasonLow     Season = "LOW"
	SeasonOff     Season = "OFF"
)

func (s Season) Valid() bool {
	switch s {
	case SeasonPeak, SeasonHigh, SeasonRegular, SeasonLow, SeasonOff:
		return true
	}
	return false
}

// RatePlan is a priced, time-bounded offer for one room type.
type RatePlan struct {
	ID                    string
	RoomTypeID            string
	Name                  string
	Season                Season
	ValidFrom             time.Time
	ValidTo               time.Time
	BaseRate              decimal.Decimal
	AdditionalGuestCharge decimal.Decimal // per extra guest per night
	MealPlan              MealPlan
	MealPlanCost          decimal.Decimal // per person per day
	WeekendSurcharge      decimal.Decimal
	IsPercentageSurcharge bool
	MinimumStay           int
	MaximumStay           *int
	AdvanceBookingDays    int
	CancellationPolicy    string
	Description           string
	IsActive              bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Validate checks the plan's own invariants.
func (p *RatePlan) Validate() error {
	if p.RoomTypeID == "" {
		return ErrRoomTypeRequired
	}
	if p.Name == "" {
		return ErrEmptyName
	}
	if !p.ValidTo.After(p.ValidFrom) {
		return ErrInvalidValidity
	}
	if !p.BaseRate.IsPositive() {
		return ErrInvalidBaseRate
	}
	if p.AdditionalGuestCharge.IsNegative() || p.MealPlanCost.IsNegative() || p.WeekendSurcharge.IsNegative() {
		return ErrNegativeCharge
	}
	if !p.MealPlan.Valid() {
		return ErrInvalidMealPlan
	}
	if p.MealPlan == MealEP && !p.MealPlanCost.IsZero() {
		return ErrMealCostWithoutMeals
	}
	if !p.Season.Valid() {
		return ErrInvalidSeason
	}
	if p.MinimumStay < 1 || (p.MaximumStay != nil && *p.MaximumStay < p.MinimumStay) {
		return ErrInvalidStayLimits
	}
	return nil
}

// CalculateTotal prices a stay on this plan, excluding any weekend surcharge:
// base rate per night, plus the extra-guest charge for every guest beyond the
// first, plus meals per guest per night unless the plan is room only.
func (p *RatePlan) CalculateTotal(nights, totalGuests int, includeMeal bool) (decimal.Decimal, error) {
	if nights < 1 || totalGuests < 1 {
		return decimal.Zero, ErrInvalidStay
	}
	if !p.BaseRate.IsPositive() {
		return decimal.Zero, ErrInvalidBaseRate
	}

	n := decimal.NewFromInt(int64(nights))
	total := p.BaseRate.Mul(n)

	if totalGuests > 1 {
		extra := decimal.NewFromInt(int64(totalGuests - 1))
		total = total.Add(p.AdditionalGuestCharge.Mul(extra).Mul(n))
	}

	if includeMeal && p.MealPlan != MealEP {
		guests := decimal.NewFromInt(int64(totalGuests))
		total = total.Add(p.MealPlanCost.Mul(guests).Mul(n))
	}

	return money.Round(total), nil
}

// NightlyRoomRate is the per-night room charge for the party, without meals.
func (p *RatePlan) NightlyRoomRate(totalGuests int) decimal.Decimal {
	rate := p.BaseRate
	if totalGuests > 1 {
		rate = rate.Add(p.AdditionalGuestCharge.Mul(decimal.NewFromInt(int64(totalGuests - 1))))
	}
	return rate
}

// ApplyWeekendSurcharge returns the nightly amount with the weekend surcharge applied.
func (p *RatePlan) ApplyWeekendSurcharge(nightly decimal.Decimal) decimal.Decimal {
	if p.IsPercentageSurcharge {
		return nightly.Add(money.Percent(nightly, p.WeekendSurcharge))
	}
	return nightly.Add(p.WeekendSurcharge)
}

// IsValidOn reports whether d falls inside the inclusive validity window.
func (p *RatePlan) IsValidOn(d time.Time) bool {
	d = daterange.Day(d)
	return !d.Before(daterange.Day(p.ValidFrom)) && !d.After(daterange.Day(p.ValidTo))
}

// AllowsStay checks the minimum and maximum stay.
func (p *RatePlan) AllowsStay(nights int) bool {
	if nights < p.MinimumStay {
		return false
	}
	return p.MaximumStay == nil || nights <= *p.MaximumStay
}

// Applies reports whether the plan can price stay: active, covering the arrival date
// and within its stay limits.
func (p *RatePlan) Applies(stay daterange.Range) bool {
	return p.IsActive && p.IsValidOn(stay.CheckIn) && p.AllowsStay(stay.Nights())
}

// Filter defines parameters for listing rate plans.
type Filter struct {
	RoomTypeID string
	Season     string
	IsActive   *bool
	ValidOn    *time.Time
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
