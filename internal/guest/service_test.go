package guest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	guests map[string]*Guest
	prefs  map[string]*Preference
}

func (m *memRepo) GetByID(_ context.Context, id string) (*Guest, error) {
	g, ok := m.guests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return g, nil
}

func (m *memRepo) GetPreferences(_ context.Context, guestID string) (*Preference, error) {
	p, ok := m.prefs[guestID]
	if !ok {
		return nil, ErrPreferencesNotFound
	}
	return p, nil
}

func (m *memRepo) UpsertPreferences(_ context.Context, p *Preference) error {
	m.prefs[p.GuestID] = p
	return nil
}

func TestUpsertPreferences(t *testing.T) {
	repo := &memRepo{
		guests: map[string]*Guest{"g1": {ID: "g1", FullName: "Asha Rao"}},
		prefs:  map[string]*Preference{},
	}
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.GetPreferences(ctx, "g1")
	assert.ErrorIs(t, err, ErrPreferencesNotFound)

	floor := 6
	p, err := svc.UpsertPreferences(ctx, "g1", UpsertPreferencesRequest{
		PreferredFloor:     &floor,
		PreferredView:      "sea",
		PreferredAmenities: []string{"wifi", " wifi", "", "balcony"},
	})
	require.NoError(t, err)
	assert.Equal(t, FloorNoPreference, p.FloorPreference)
	assert.Equal(t, "SEA", p.PreferredView)
	assert.Equal(t, []string{"wifi", "balcony"}, p.PreferredAmenities)

	got, err := svc.GetPreferences(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, p, got)

	_, err = svc.UpsertPreferences(ctx, "missing", UpsertPreferencesRequest{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.UpsertPreferences(ctx, "g1", UpsertPreferencesRequest{FloorPreference: "PENTHOUSE"})
	assert.ErrorIs(t, err, ErrInvalidFloorPreference)
}

func TestFloorPreferenceMatches(t *testing.T) {
	tests := []struct {
		pref  FloorPreference
		floor int
		want  bool
	}{
		{FloorLow, 0, true},
		{FloorLow, 3, true},
		{FloorLow, 4, false},
		{FloorMid, 4, true},
		{FloorMid, 7, true},
		{FloorMid, 8, false},
		{FloorHigh, 8, true},
		{FloorHigh, 7, false},
		{FloorNoPreference, 5, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.pref.Matches(tt.floor), "%s floor %d", tt.pref, tt.floor)
	}
}
