package rateplan

import (
	"context"
	"strings"
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/daterange"
	"github.com/shopspring/decimal"
)

type CreateRequest struct {
	RoomTypeID            string
	Name                  string
	Season                Season
	ValidFrom             time.Time
	ValidTo               time.Time
	BaseRate              decimal.Decimal
	AdditionalGuestCharge decimal.Decimal
	MealPlan              MealPlan
	MealPlanCost          decimal.Decimal
	WeekendSurcharge      decimal.Decimal
	IsPercentageSurcharge bool
	MinimumStay           int
	MaximumStay           *int
	AdvanceBookingDays    int
	CancellationPolicy    string
	Description           string
}

type UpdateRequest struct {
	Name                  *string
	Season                *Season
	ValidFrom             *time.Time
	ValidTo               *time.Time
	BaseRate              *decimal.Decimal
	AdditionalGuestCharge *decimal.Decimal
	MealPlan              *MealPlan
	MealPlanCost          *decimal.Decimal
	WeekendSurcharge      *decimal.Decimal
	IsPercentageSurcharge *bool
	MinimumStay           *int
	MaximumStay           *int
	ClearMaximumStay      bool
	AdvanceBookingDays    *int
	CancellationPolicy    *string
	Description           *string
	IsActive              *bool
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*RatePlan, error)
	GetByID(ctx context.Context, id string) (*RatePlan, error)
	List(ctx context.Context, filter Filter) ([]*RatePlan, int, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*RatePlan, error)
	Delete(ctx context.Context, id string) error

	// FindApplicable returns the plans of a room type that can price stay,
	// the most recently started validity window first.
	FindApplicable(ctx context.Context, roomTypeID string, stay daterange.Range) ([]*RatePlan, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*RatePlan, error) {
	minStay := req.MinimumStay
	if minStay == 0 {
		minStay = 1
	}
	mealPlan := req.MealPlan
	if mealPlan == "" {
		mealPlan = MealEP
	}
	season := req.Season
	if season == "" {
		season = SeasonRegular
	}

	p := &RatePlan{
		RoomTypeID:            req.RoomTypeID,
		Name:                  strings.TrimSpace(req.Name),
		Season:                season,
		ValidFrom:             daterange.Day(req.ValidFrom),
		ValidTo:               daterange.Day(req.ValidTo),
		BaseRate:              req.BaseRate,
		AdditionalGuestCharge: req.AdditionalGuestCharge,
		MealPlan:              mealPlan,
		MealPlanCost:          req.MealPlanCost,
		WeekendSurcharge:      req.WeekendSurcharge,
		IsPercentageSurcharge: req.IsPercentageSurcharge,
		MinimumStay:           minStay,
		MaximumStay:           req.MaximumStay,
		AdvanceBookingDays:    req.AdvanceBookingDays,
		CancellationPolicy:    req.CancellationPolicy,
		Description:           req.Description,
		IsActive:              true,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*RatePlan, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*RatePlan, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*RatePlan, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Season != nil {
		p.Season = *req.Season
	}
	if req.ValidFrom != nil {
		p.ValidFrom = daterange.Day(*req.ValidFrom)
	}
	if req.ValidTo != nil {
		p.ValidTo = daterange.Day(*req.ValidTo)
	}
	if req.BaseRate != nil {
		p.BaseRate = *req.BaseRate
	}
	if req.AdditionalGuestCharge != nil {
		p.AdditionalGuestCharge = *req.AdditionalGuestCharge
	}
	if req.MealPlan != nil {
		p.MealPlan = *req.MealPlan
	}
	if req.MealPlanCost != nil {
		p.MealPlanCost = *req.MealPlanCost
	}
	if req.WeekendSurcharge != nil {
		p.WeekendSurcharge = *req.WeekendSurcharge
	}
	if req.IsPercentageSurcharge != nil {
		p.IsPercentageSurcharge = *req.IsPercentageSurcharge
	}
	if req.MinimumStay != nil {
		p.MinimumStay = *req.MinimumStay
	}
	if req.ClearMaximumStay {
		p.MaximumStay = nil
	} else if req.MaximumStay != nil {
		p.MaximumStay = req.MaximumStay
	}
	if req.AdvanceBookingDays != nil {
		p.AdvanceBookingDays = *req.AdvanceBookingDays
	}
	if req.CancellationPolicy != nil {
		p.CancellationPolicy = *req.CancellationPolicy
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *service) FindApplicable(ctx context.Context, roomTypeID string, stay daterange.Range) ([]*RatePlan, error) {
	candidates, err := s.repo.ListActiveFor(ctx, roomTypeID, stay.CheckIn)
	if err != nil {
		return nil, err
	}

	plans := make([]*RatePlan, 0, len(candidates))
	for _, p := range candidates {
		if p.Applies(stay) {
			plans = append(plans, p)
		}
	}
	return plans, nil
}
