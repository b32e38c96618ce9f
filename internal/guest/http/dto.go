package http

import (
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/guest"
)

type GuestResponse struct {
	ID            string    `json:"id"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	ContactNumber string    `json:"contact_number"`
	LoyaltyLevel  string    `json:"loyalty_level"`
	CreatedAt     time.Time `json:"created_at"`
}

type PreferenceBody struct {
	PreferredFloor      *int     `json:"preferred_floor" binding:"omitempty,min=0"`
	FloorPreference     string   `json:"floor_preference" binding:"omitempty,oneof=LOW MID HIGH NO_PREFERENCE"`
	PreferredView       string   `json:"preferred_view" binding:"omitempty,oneof=SEA CITY GARDEN MOUNTAIN POOL COURTYARD"`
	PreferredBedType    string   `json:"preferred_bed_type" binding:"omitempty,oneof=SINGLE DOUBLE QUEEN KING TWIN"`
	AccessibilityNeeds  string   `json:"accessibility_needs"`
	QuietRoom           bool     `json:"quiet_room_preference"`
	Smoking             bool     `json:"smoking_preference"`
	HighFloorPreference bool     `json:"high_floor_preference"`
	PreferredAmenities  []string `json:"preferred_amenities"`
}

type PreferenceResponse struct {
	GuestID string `json:"guest_id"`
	PreferenceBody
	UpdatedAt time.Time `json:"updated_at"`
}

func NewGuestResponse(g *guest.Guest) GuestResponse {
	return GuestResponse{
		ID:            g.ID,
		FullName:      g.FullName,
		Email:         g.Email,
		ContactNumber: g.ContactNumber,
		LoyaltyLevel:  g.LoyaltyLevel,
		CreatedAt:     g.CreatedAt,
	}
}

func NewPreferenceResponse(p *guest.Preference) PreferenceResponse {
	amenities := p.PreferredAmenities
	if amenities == nil {
		amenities = []string{}
	}
	return PreferenceResponse{
		GuestID: p.GuestID,
		PreferenceBody: PreferenceBody{
			PreferredFloor:      p.PreferredFloor,
			FloorPreference:     string(p.FloorPreference),
			PreferredView:       p.PreferredView,
			PreferredBedType:    p.PreferredBedType,
			AccessibilityNeeds:  p.AccessibilityNeeds,
			QuietRoom:           p.QuietRoom,
			Smoking:             p.Smoking,
			HighFloorPreference: p.HighFloorPreference,
			PreferredAmenities:  amenities,
		},
		UpdatedAt: p.UpdatedAt,
	}
}
