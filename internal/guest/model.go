package guest

import (
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound               = apperror.NotFound("guest not found")
	ErrPreferencesNotFound    = apperror.NotFound("guest has no saved preferences")
	ErrInvalidFloorPreference = apperror.BadRequest("invalid floor preference")
	ErrInvalidFloor           = apperror.BadRequest("preferred floor cannot be negative")
)

// Guest is the read model of the guest directory.
type Guest struct {
	ID            string
	FullName      string
	Email         string
	ContactNumber string
	LoyaltyLevel  string
	CreatedAt     time.Time
}

type FloorPreference string

const (
	FloorLow          FloorPreference = "LOW"
	FloorMid          FloorPreference = "MID"
	FloorHigh         FloorPreference = "HIGH"
	FloorNoPreference FloorPreference = "NO_PREFERENCE"
)

func (f FloorPreference) Valid() bool {
	switch f {
	case FloorLow, FloorMid, FloorHigh, FloorNoPreference:
		return true
	}
	return false
}

// Matches reports whether floor is in the band: LOW up to 3, MID 4 to 7, HIGH from 8.
func (f FloorPreference) Matches(floor int) bool {
	switch f {
	case FloorLow:
		return floor <= 3
	case FloorMid:
		return floor >= 4 && floor <= 7
	case FloorHigh:
		return floor >= 8
	}
	return false
}

// Preference holds a guest's room preferences. Empty strings and nil
// pointers mean no preference.
type Preference struct {
	GuestID             string
	PreferredFloor      *int
	FloorPreference     FloorPreference
	PreferredView       string
	PreferredBedType    string
	AccessibilityNeeds  string
	QuietRoom           bool
	Smoking             bool
	HighFloorPreference bool
	PreferredAmenities  []string
	UpdatedAt           time.Time
}
