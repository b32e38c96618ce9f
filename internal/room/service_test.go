package room

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	types map[string]*RoomType
	rooms map[string]*Room
	seq   int
}

func newMemRepo() *memRepo {
	return &memRepo{types: map[string]*RoomType{}, rooms: map[string]*Room{}}
}

func (m *memRepo) nextID() string {
	m.seq++
	return "id-" + string(rune('a'+m.seq))
}

func (m *memRepo) CreateType(_ context.Context, rt *RoomType) error {
	rt.ID = m.nextID()
	m.types[rt.ID] = rt
	return nil
}

func (m *memRepo) GetType(_ context.Context, id string) (*RoomType, error) {
	rt, ok := m.types[id]
	if !ok {
		return nil, ErrTypeNotFound
	}
	cp := *rt
	return &cp, nil
}

func (m *memRepo) ListTypes(context.Context, TypeFilter) ([]*RoomType, int, error) {
	return nil, 0, nil
}

func (m *memRepo) UpdateType(_ context.Context, rt *RoomType) error {
	m.types[rt.ID] = rt
	return nil
}

func (m *memRepo) DeleteType(_ context.Context, id string) error {
	delete(m.types, id)
	return nil
}

func (m *memRepo) Create(_ context.Context, r *Room) error {
	for _, existing := range m.rooms {
		if existing.RoomNumber == r.RoomNumber {
			return ErrRoomNumberTaken
		}
	}
	r.ID = m.nextID()
	m.rooms[r.ID] = r
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*Room, error) {
	r, ok := m.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRepo) List(context.Context, Filter) ([]*Room, int, error) { return nil, 0, nil }

func (m *memRepo) Update(_ context.Context, r *Room) error {
	m.rooms[r.ID] = r
	return nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id string, status Status) error {
	r, ok := m.rooms[id]
	if !ok {
		return ErrNotFound
	}
	r.Status = status
	return nil
}

func (m *memRepo) LockForUpdate(ctx context.Context, id string) (*Room, error) {
	return m.GetByID(ctx, id)
}

func (m *memRepo) ListBookable(context.Context, string, int) ([]*Room, error) { return nil, nil }

func TestCreateRoom(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemRepo())

	price := decimal.NewFromInt(3500)
	deluxe, err := svc.CreateType(ctx, CreateTypeRequest{Name: "Deluxe", Capacity: 3, PricePerNight: &price})
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     CreateRequest
		wantErr error
	}{
		{
			name:    "empty room number",
			req:     CreateRequest{RoomNumber: " ", BedType: BedKing, MaxOccupancy: 2},
			wantErr: ErrEmptyRoomNumber,
		},
		{
			name:    "zero occupancy",
			req:     CreateRequest{RoomNumber: "101", BedType: BedKing},
			wantErr: ErrInvalidCapacity,
		},
		{
			name:    "bad bed type",
			req:     CreateRequest{RoomNumber: "101", BedType: "HAMMOCK", MaxOccupancy: 2},
			wantErr: ErrInvalidBedType,
		},
		{
			name:    "unknown room type",
			req:     CreateRequest{RoomNumber: "101", BedType: BedKing, MaxOccupancy: 2, RoomTypeID: strPtr("missing")},
			wantErr: ErrTypeNotFound,
		},
		{
			name: "valid",
			req:  CreateRequest{RoomNumber: "101", BedType: BedKing, View: ViewSea, MaxOccupancy: 2, RoomTypeID: &deluxe.ID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := svc.Create(ctx, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StatusAvailable, r.Status)
			assert.Equal(t, 3, r.Capacity(), "room type capacity wins")
			assert.NotNil(t, r.Amenities)
		})
	}
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemRepo())

	r, err := svc.Create(ctx, CreateRequest{RoomNumber: "201", BedType: BedTwin, MaxOccupancy: 2})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.UpdateStatus(ctx, r.ID, "CLEANING"), ErrInvalidStatus)
	require.NoError(t, svc.UpdateStatus(ctx, r.ID, StatusOccupied))

	got, err := svc.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOccupied, got.Status)
	assert.Equal(t, 2, got.Capacity())
}

func TestStatusBookable(t *testing.T) {
	assert.True(t, StatusAvailable.Bookable())
	assert.True(t, StatusOccupied.Bookable())
	assert.False(t, StatusMaintenance.Bookable())
	assert.False(t, StatusOutOfOrder.Bookable())
}

func strPtr(s string) *string { return &s }
