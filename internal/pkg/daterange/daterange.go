// Package daterange models hotel stays as half-open calendar date ranges
// [CheckIn, CheckOut). A stay occupies the nights starting on each date from
// CheckIn up to, but not including, CheckOut.
package daterange

import (
	"fmt"
	"net/http"
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/apperror"
)

const Layout = "2006-01-02"

var ErrInvalidRange = apperror.BadRequest("check-out date must be after check-in date")

// Range is a half-open interval of calendar dates, normalised to UTC midnight.
type Range struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// Day truncates t to its calendar date at UTC midnight.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// New validates and normalises a stay.
func New(checkIn, checkOut time.Time) (Range, error) {
	r := Range{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if !r.CheckIn.Before(r.CheckOut) {
		return Range{}, ErrInvalidRange
	}
	return r, nil
}

// MustNew is New for literals in tests and fixtures.
func MustNew(checkIn, checkOut time.Time) Range {
	r, err := New(checkIn, checkOut)
	if err != nil {
		panic(err)
	}
	return r
}

// Parse reads two YYYY-MM-DD dates.
func Parse(checkIn, checkOut string) (Range, error) {
	in, err := time.Parse(Layout, checkIn)
	if err != nil {
		return Range{}, apperror.Wrap(err, http.StatusBadRequest, fmt.Sprintf("invalid check-in date %q", checkIn))
	}
	out, err := time.Parse(Layout, checkOut)
	if err != nil {
		return Range{}, apperror.Wrap(err, http.StatusBadRequest, fmt.Sprintf("invalid check-out date %q", checkOut))
	}
	return New(in, out)
}

// Nights is the number of nights in the stay.
func (r Range) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}

// Dates lists the occupied dates (one per night).
func (r Range) Dates() []time.Time {
	dates := make([]time.Time, 0, r.Nights())
	for d := r.CheckIn; d.Before(r.CheckOut); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// Contains reports whether the night starting on d is part of the stay.
func (r Range) Contains(d time.Time) bool {
	d = Day(d)
	return !d.Before(r.CheckIn) && d.Before(r.CheckOut)
}

// Overlaps applies the half-open rule: [a,b) and [c,d) overlap iff a < d and c < b.
// A check-out on the same day as another check-in is not an overlap.
func (r Range) Overlaps(o Range) bool {
	return r.CheckIn.Before(o.CheckOut) && o.CheckIn.Before(r.CheckOut)
}

// Intersect returns the shared nights of two ranges.
func (r Range) Intersect(o Range) (Range, bool) {
	if !r.Overlaps(o) {
		return Range{}, false
	}
	in := r.CheckIn
	if o.CheckIn.After(in) {
		in = o.CheckIn
	}
	out := r.CheckOut
	if o.CheckOut.Before(out) {
		out = o.CheckOut
	}
	return Range{CheckIn: in, CheckOut: out}, true
}

func (r Range) String() string {
	return r.CheckIn.Format(Layout) + ".." + r.CheckOut.Format(Layout)
}
