// Package recommendation ranks candidate rooms against a guest's saved preferences.
package recommendation

import (
	"sort"

	"github.com/nekogravitycat/hotel-booking-backend/internal/guest"
	"github.com/nekogravitycat/hotel-booking-backend/internal/room"
)

const (
	baseScore = 50
	maxScore  = 100

	exactFloorPoints = 20
	floorBandPoints  = 15
	viewPoints       = 15
	bedTypePoints    = 10
	highFloorPoints  = 5
	amenityPoints    = 2

	highFloorFrom  = 5
	quietFloorFrom = 3
)

type Recommendation struct {
	Room    *room.Room
	Score   int
	Reasons []string
}

// Score rates room for pref in [0, 100].
func Score(pref *guest.Preference, r *room.Room) int {
	score, _ := evaluate(pref, r)
	return score
}

func evaluate(pref *guest.Preference, r *room.Room) (int, []string) {
	if pref == nil {
		return 0, nil
	}

	score := baseScore
	var reasons []string

	switch {
	case pref.PreferredFloor != nil && *pref.PreferredFloor == r.Floor:
		score += exactFloorPoints
		reasons = append(reasons, "matches preferred floor")
	case pref.FloorPreference.Matches(r.Floor):
		score += floorBandPoints
		reasons = append(reasons, "matches preferred floor range")
	}

	if pref.PreferredView != "" && pref.PreferredView == string(r.View) {
		score += viewPoints
		reasons = append(reasons, "matches preferred view")
	}

	if pref.PreferredBedType != "" && pref.PreferredBedType == string(r.BedType) {
		score += bedTypePoints
		reasons = append(reasons, "matches preferred bed type")
	}

	if pref.HighFloorPreference && r.Floor >= highFloorFrom {
		score += highFloorPoints
		reasons = append(reasons, "high floor")
	}

	if pref.QuietRoom && r.Floor >= quietFloorFrom {
		reasons = append(reasons, "higher floor for quieter stay")
	}

	if len(pref.PreferredAmenities) > 0 && len(r.Amenities) > 0 {
		has := make(map[string]bool, len(r.Amenities))
		for _, a := range r.Amenities {
			has[a] = true
		}
		matched := 0
		for _, a := range pref.PreferredAmenities {
			if has[a] {
				matched++
			}
		}
		if matched > 0 {
			score += matched * amenityPoints
			reasons = append(reasons, "has preferred amenities")
		}
	}

	return clamp(score), reasons
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

// Rank scores every room and orders them best first. Rooms with equal scores
// keep their input order. A nil pref keeps the input order with zero scores.
func Rank(pref *guest.Preference, rooms []*room.Room) []Recommendation {
	recs := make([]Recommendation, len(rooms))
	for i, r := range rooms {
		score, reasons := evaluate(pref, r)
		recs[i] = Recommendation{Room: r, Score: score, Reasons: reasons}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})
	return recs
}
