package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/daterange"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pricing"
	"github.com/nekogravitycat/hotel-booking-backend/internal/rateplan"
)

// PlanPricer prices one stay under several rate plans.
type PlanPricer interface {
	ComparePlans(plans []*rateplan.RatePlan, in pricing.CompareInput) []pricing.PlanOption
}

type Handler struct {
	service rateplan.Service
	pricer  PlanPricer
}

func NewHandler(service rateplan.Service, pricer PlanPricer) *Handler {
	return &Handler{service: service, pricer: pricer}
}

func (h *Handler) List(c *gin.Context) {
	var req ListRatePlansRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	filter := rateplan.Filter{
		RoomTypeID: req.RoomTypeID,
		Season:     req.Season,
		IsActive:   req.IsActive,
		Page:       req.Page,
		PageSize:   req.PageSize,
		SortBy:     req.SortBy,
		SortOrder:  strings.ToUpper(req.SortOrder),
	}
	if req.ValidOn != "" {
		d, _ := time.Parse(time.DateOnly, req.ValidOn)
		filter.ValidOn = &d
	}

	plans, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]RatePlanResponse, len(plans))
	for i, p := range plans {
		items[i] = NewRatePlanResponse(p)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewRatePlanResponse(p))
}

// Calculator prices a stay under every plan of a room type that applies to
// it, cheapest first.
func (h *Handler) Calculator(c *gin.Context) {
	var req CalculatorRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	stay, err := daterange.Parse(req.CheckIn, req.CheckOut)
	if err != nil {
		response.Error(c, err)
		return
	}

	plans, err := h.service.FindApplicable(c.Request.Context(), req.RoomTypeID, stay)
	if err != nil {
		response.Error(c, err)
		return
	}

	guests := req.Guests
	if guests == 0 {
		guests = 1
	}
	includeMeal := true
	if req.IncludeMeal != nil {
		includeMeal = *req.IncludeMeal
	}

	options := h.pricer.ComparePlans(plans, pricing.CompareInput{
		RoomTypeID:  req.RoomTypeID,
		Stay:        stay,
		Adults:      guests,
		IncludeMeal: includeMeal,
	})

	items := make([]PlanQuoteResponse, len(options))
	for i, o := range options {
		items[i] = NewPlanQuoteResponse(o)
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "nights": stay.Nights()})
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateRatePlanRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	// Formats are checked by the binding tags.
	validFrom, _ := time.Parse(time.DateOnly, body.ValidFrom)
	validTo, _ := time.Parse(time.DateOnly, body.ValidTo)

	p, err := h.service.Create(c.Request.Context(), rateplan.CreateRequest{
		RoomTypeID:            body.RoomTypeID,
		Name:                  body.Name,
		Season:                rateplan.Season(body.Season),
		ValidFrom:             validFrom,
		ValidTo:               validTo,
		BaseRate:              body.BaseRate,
		AdditionalGuestCharge: body.AdditionalGuestCharge,
		MealPlan:              rateplan.MealPlan(body.MealPlan),
		MealPlanCost:          body.MealPlanCost,
		WeekendSurcharge:      body.WeekendSurcharge,
		IsPercentageSurcharge: body.IsPercentageSurcharge,
		MinimumStay:           body.MinimumStay,
		MaximumStay:           body.MaximumStay,
		AdvanceBookingDays:    body.AdvanceBookingDays,
		CancellationPolicy:    body.CancellationPolicy,
		Description:           body.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewRatePlanResponse(p))
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var body UpdateRatePlanRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	req := rateplan.UpdateRequest{
		Name:                  body.Name,
		BaseRate:              body.BaseRate,
		AdditionalGuestCharge: body.AdditionalGuestCharge,
		MealPlanCost:          body.MealPlanCost,
		WeekendSurcharge:      body.WeekendSurcharge,
		IsPercentageSurcharge: body.IsPercentageSurcharge,
		MinimumStay:           body.MinimumStay,
		MaximumStay:           body.MaximumStay,
		ClearMaximumStay:      body.ClearMaximumStay,
		AdvanceBookingDays:    body.AdvanceBookingDays,
		CancellationPolicy:    body.CancellationPolicy,
		Description:           body.Description,
		IsActive:              body.IsActive,
	}
	if body.Season != nil {
		s := rateplan.Season(*body.Season)
		req.Season = &s
	}
	if body.MealPlan != nil {
		m := rateplan.MealPlan(*body.MealPlan)
		req.MealPlan = &m
	}
	if body.ValidFrom != nil {
		d, _ := time.Parse(time.DateOnly, *body.ValidFrom)
		req.ValidFrom = &d
	}
	if body.ValidTo != nil {
		d, _ := time.Parse(time.DateOnly, *body.ValidTo)
		req.ValidTo = &d
	}

	p, err := h.service.Update(c.Request.Context(), uri.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewRatePlanResponse(p))
}

func (h *Handler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	if err := h.service.Delete(c.Request.Context(), uri.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
