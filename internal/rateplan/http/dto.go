package http

import (
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pricing"
	"github.com/nekogravitycat/hotel-booking-backend/internal/rateplan"
	"github.com/shopspring/decimal"
)

type ListRatePlansRequest struct {
	request.ListParams
	RoomTypeID string `form:"room_type_id" binding:"omitempty,uuid"`
	Season     string `form:"season" binding:"omitempty,oneof=PEAK HIGH REGULAR LOW OFF"`
	IsActive   *bool  `form:"is_active"`
	ValidOn    string `form:"valid_on" binding:"omitempty,datetime=2006-01-02"`
	SortBy     string `form:"sort_by" binding:"omitempty,oneof=valid_from valid_to base_rate name created_at"`
}

type CalculatorRequest struct {
	request.StayQuery
	RoomTypeID  string `form:"room_type_id" binding:"required,uuid"`
	Guests      int    `form:"guests" binding:"omitempty,min=1"`
	IncludeMeal *bool  `form:"include_meal"`
}

type CreateRatePlanRequest struct {
	RoomTypeID            string          `json:"room_type_id" binding:"required,uuid"`
	Name                  string          `json:"name" binding:"required"`
	Season                string          `json:"season" binding:"omitempty,oneof=PEAK HIGH REGULAR LOW OFF"`
	ValidFrom             string          `json:"valid_from" binding:"required,datetime=2006-01-02"`
	ValidTo               string          `json:"valid_to" binding:"required,datetime=2006-01-02"`
	BaseRate              decimal.Decimal `json:"base_rate"`
	AdditionalGuestCharge decimal.Decimal `json:"additional_guest_charge"`
	MealPlan              string          `json:"meal_plan" binding:"omitempty,oneof=EP CP MAP AP AI"`
	MealPlanCost          decimal.Decimal `json:"meal_plan_cost"`
	WeekendSurcharge      decimal.Decimal `json:"weekend_surcharge"`
	IsPercentageSurcharge bool            `json:"is_percentage_surcharge"`
	MinimumStay           int             `json:"minimum_stay" binding:"omitempty,min=1"`
	MaximumStay           *int            `json:"maximum_stay" binding:"omitempty,min=1"`
	AdvanceBookingDays    int             `json:"advance_booking_days" binding:"omitempty,min=0"`
	CancellationPolicy    string          `json:"cancellation_policy"`
	Description           string          `json:"description"`
}

type UpdateRatePlanRequest struct {
	Name                  *string          `json:"name" binding:"omitempty,min=1"`
	Season                *string          `json:"season" binding:"omitempty,oneof=PEAK HIGH REGULAR LOW OFF"`
	ValidFrom             *string          `json:"valid_from" binding:"omitempty,datetime=2006-01-02"`
	ValidTo               *string          `json:"valid_to" binding:"omitempty,datetime=2006-01-02"`
	BaseRate              *decimal.Decimal `json:"base_rate"`
	AdditionalGuestCharge *decimal.Decimal `json:"additional_guest_charge"`
	MealPlan              *string          `json:"meal_plan" binding:"omitempty,oneof=EP CP MAP AP AI"`
	MealPlanCost          *decimal.Decimal `json:"meal_plan_cost"`
	WeekendSurcharge      *decimal.Decimal `json:"weekend_surcharge"`
	IsPercentageSurcharge *bool            `json:"is_percentage_surcharge"`
	MinimumStay           *int             `json:"minimum_stay" binding:"omitempty,min=1"`
	MaximumStay           *int             `json:"maximum_stay" binding:"omitempty,min=1"`
	ClearMaximumStay      bool             `json:"clear_maximum_stay"`
	AdvanceBookingDays    *int             `json:"advance_booking_days" binding:"omitempty,min=0"`
	CancellationPolicy    *string          `json:"cancellation_policy"`
	Description           *string          `json:"description"`
	IsActive              *bool            `json:"is_active"`
}

type RatePlanResponse struct {
	ID                    string          `json:"id"`
	RoomTypeID            string          `json:"room_type_id"`
	Name                  string          `json:"name"`
	Season                string          `json:"season"`
	ValidFrom             string          `json:"valid_from"`
	ValidTo               string          `json:"valid_to"`
	BaseRate              decimal.Decimal `json:"base_rate"`
	AdditionalGuestCharge decimal.Decimal `json:"additional_guest_charge"`
	MealPlan              string          `json:"meal_plan"`
	MealPlanCost          decimal.Decimal `json:"meal_plan_cost"`
	WeekendSurcharge      decimal.Decimal `json:"weekend_surcharge"`
	IsPercentageSurcharge bool            `json:"is_percentage_surcharge"`
	MinimumStay           int             `json:"minimum_stay"`
	MaximumStay           *int            `json:"maximum_stay"`
	AdvanceBookingDays    int             `json:"advance_booking_days"`
	CancellationPolicy    string          `json:"cancellation_policy"`
	Description           string          `json:"description"`
	IsActive              bool            `json:"is_active"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

func NewRatePlanResponse(p *rateplan.RatePlan) RatePlanResponse {
	return RatePlanResponse{
		ID:                    p.ID,
		RoomTypeID:            p.RoomTypeID,
		Name:                  p.Name,
		Season:                string(p.Season),
		ValidFrom:             p.ValidFrom.Format(time.DateOnly),
		ValidTo:               p.ValidTo.Format(time.DateOnly),
		BaseRate:              p.BaseRate,
		AdditionalGuestCharge: p.AdditionalGuestCharge,
		MealPlan:              string(p.MealPlan),
		MealPlanCost:          p.MealPlanCost,
		WeekendSurcharge:      p.WeekendSurcharge,
		IsPercentageSurcharge: p.IsPercentageSurcharge,
		MinimumStay:           p.MinimumStay,
		MaximumStay:           p.MaximumStay,
		AdvanceBookingDays:    p.AdvanceBookingDays,
		CancellationPolicy:    p.CancellationPolicy,
		Description:           p.Description,
		IsActive:              p.IsActive,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
}

type PlanQuoteResponse struct {
	RatePlan RatePlanResponse `json:"rate_plan"`
	Nights   int              `json:"nights"`
	Total    decimal.Decimal  `json:"total"`
	Lines    []pricing.Line   `json:"lines"`
}

func NewPlanQuoteResponse(o pricing.PlanOption) PlanQuoteResponse {
	return PlanQuoteResponse{
		RatePlan: NewRatePlanResponse(o.Plan),
		Nights:   o.Quote.Nights,
		Total:    o.Quote.Total,
		Lines:    o.Quote.Lines,
	}
}
