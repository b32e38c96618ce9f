package room

import (
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/apperror"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = apperror.NotFound("room not found")
	ErrTypeNotFound      = apperror.NotFound("room type not found")
	ErrRoomNumberTaken   = apperror.Conflict("room number already exists")
	ErrEmptyRoomNumber   = apperror.BadRequest("room number cannot be empty")
	ErrEmptyName         = apperror.BadRequest("name cannot be empty")
	ErrInvalidStatus     = apperror.BadRequest("invalid room status")
	ErrInvalidBedType    = apperror.BadRequest("invalid bed type")
	ErrInvalidView       = apperror.BadRequest("invalid view")
	ErrInvalidCapacity   = apperror.BadRequest("capacity must be at least 1")
	ErrNegativeRate      = apperror.BadRequest("rate cannot be negative")
	ErrTypeStillAssigned = apperror.Conflict("room type is still assigned to rooms")
)

type Status string

const (
	StatusAvailable   Status = "AVAILABLE"
	StatusOccupied    Status = "OCCUPIED"
	StatusReserved    Status = "RESERVED"
	StatusMaintenance Status = "MAINTENANCE"
	StatusOutOfOrder  Status = "OUT_OF_ORDER"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusOccupied, StatusReserved, StatusMaintenance, StatusOutOfOrder:
		return true
	}
	return false
}

// Bookable reports whether rooms in this state can be offered for future stays.
// Occupied and reserved rooms are still bookable for other dates.
func (s Status) Bookable() bool {
	return s != StatusMaintenance && s != StatusOutOfOrder
}

type BedType string

const (
	BedSingle BedType = "SINGLE"
	BedDouble BedType = "DOUBLE"
	BedQueen  BedType = "QUEEN"
	BedKing   BedType = "KING"
	BedTwin   BedType = "TWIN"
)

func (b BedType) Valid() bool {
	switch b {
	case BedSingle, BedDouble, BedQueen, BedKing, BedTwin:
		return true
	}
	return false
}

type View string

const (
	ViewNone      View = ""
	ViewSea       View = "SEA"
	ViewCity      View = "CITY"
	ViewGarden    View = "GARDEN"
	ViewMountain  View = "MOUNTAIN"
	ViewPool      View = "POOL"
	ViewCourtyard View = "COURTYARD"
)

func (v View) Valid() bool {
	switch v {
	case ViewNone, ViewSea, ViewCity, ViewGarden, ViewMountain, ViewPool, ViewCourtyard:
		return true
	}
	return false
}

// RoomType is a category of rooms sharing a default price and capacity.
type RoomType struct {
	ID            string
	Name          string
	Description   string
	PricePerNight *decimal.Decimal
	Capacity      int
	BedType       BedType
	CreatedAt     time.Time
}

// Room is a single sellable room.
type Room struct {
	ID           string
	RoomNumber   string
	RoomTypeID   *string
	RoomType     *RoomType // populated by reads when RoomTypeID is set
	Floor        int
	BedType      BedType
	View         View
	MaxOccupancy int
	Status       Status
	RateDefault  *decimal.Decimal
	Amenities    []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Capacity is the maximum number of guests. The room type wins over the room's own value.
func (r *Room) Capacity() int {
	if r.RoomType != nil && r.RoomType.Capacity > 0 {
		return r.RoomType.Capacity
	}
	return r.MaxOccupancy
}

// Filter defines parameters for listing rooms.
type Filter struct {
	RoomTypeID  string
	Status      string
	Floor       *int
	MinCapacity int
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

// TypeFilter defines parameters for listing room types.
type TypeFilter struct {
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
