package pricing

import (
	"sort"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/daterange"
	"github.com/nekogravitycat/hotel-booking-backend/internal/rateplan"
	"github.com/nekogravitycat/hotel-booking-backend/internal/room"
)

type CompareInput struct {
	RoomTypeID  string
	Stay        daterange.Range
	Adults      int
	Children    int
	IncludeMeal bool
}

// PlanOption is one rate plan priced for a stay.
type PlanOption struct {
	Plan  *rateplan.RatePlan
	Quote Quote
}

// ComparePlans prices the stay under each plan and returns the plans that
// priced it themselves, cheapest first. Equal totals keep their input order.
func (e *Engine) ComparePlans(plans []*rateplan.RatePlan, in CompareInput) []PlanOption {
	// No concrete room: a plan that cannot price the stay is left out
	// rather than falling back to a room rate.
	rm := &room.Room{RoomTypeID: &in.RoomTypeID}

	out := make([]PlanOption, 0, len(plans))
	for _, p := range plans {
		q := e.Quote(QuoteInput{
			Room:        rm,
			RatePlan:    p,
			Stay:        in.Stay,
			Adults:      in.Adults,
			Children:    in.Children,
			IncludeMeal: in.IncludeMeal,
		})
		if q.Source != SourceRatePlan {
			continue
		}
		out = append(out, PlanOption{Plan: p, Quote: q})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Quote.Total.LessThan(out[j].Quote.Total)
	})
	return out
}
