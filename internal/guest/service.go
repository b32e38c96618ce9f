package guest

import (
	"context"
	"strings"
)

type UpsertPreferencesRequest struct {
	PreferredFloor      *int
	FloorPreference     FloorPreference
	PreferredView       string
	PreferredBedType    string
	AccessibilityNeeds  string
	QuietRoom           bool
	Smoking             bool
	HighFloorPreference bool
	PreferredAmenities  []string
}

type Service interface {
	GetByID(ctx context.Context, id string) (*Guest, error)
	GetPreferences(ctx context.Context, guestID string) (*Preference, error)
	UpsertPreferences(ctx context.Context, guestID string, req UpsertPreferencesRequest) (*Preference, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetByID(ctx context.Context, id string) (*Guest, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetPreferences(ctx context.Context, guestID string) (*Preference, error) {
	return s.repo.GetPreferences(ctx, guestID)
}

func (s *service) UpsertPreferences(ctx context.Context, guestID string, req UpsertPreferencesRequest) (*Preference, error) {
	if _, err := s.repo.GetByID(ctx, guestID); err != nil {
		return nil, err
	}

	floorPref := req.FloorPreference
	if floorPref == "" {
		floorPref = FloorNoPreference
	}
	if !floorPref.Valid() {
		return nil, ErrInvalidFloorPreference
	}
	if req.PreferredFloor != nil && *req.PreferredFloor < 0 {
		return nil, ErrInvalidFloor
	}

	amenities := make([]string, 0, len(req.PreferredAmenities))
	seen := make(map[string]bool, len(req.PreferredAmenities))
	for _, a := range req.PreferredAmenities {
		a = strings.TrimSpace(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		amenities = append(amenities, a)
	}

	p := &Preference{
		GuestID:             guestID,
		PreferredFloor:      req.PreferredFloor,
		FloorPreference:     floorPref,
		PreferredView:       strings.ToUpper(req.PreferredView),
		PreferredBedType:    strings.ToUpper(req.PreferredBedType),
		AccessibilityNeeds:  req.AccessibilityNeeds,
		QuietRoom:           req.QuietRoom,
		Smoking:             req.Smoking,
		HighFloorPreference: req.HighFloorPreference,
		PreferredAmenities:  amenities,
	}
	if err := s.repo.UpsertPreferences(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
