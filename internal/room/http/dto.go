package http

import (
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/hotel-booking-backend/internal/room"
	"github.com/shopspring/decimal"
)

// ListRoomsRequest defines query parameters for listing rooms.
type ListRoomsRequest struct {
	request.ListParams
	RoomTypeID  string `form:"room_type_id" binding:"omitempty,uuid"`
	Status      string `form:"status" binding:"omitempty,oneof=AVAILABLE OCCUPIED RESERVED MAINTENANCE OUT_OF_ORDER"`
	Floor       *int   `form:"floor"`
	MinCapacity int    `form:"min_capacity" binding:"omitempty,min=1"`
	SortBy      string `form:"sort_by" binding:"omitempty,oneof=room_number floor created_at status"`
}

type ListRoomTypesRequest struct {
	request.ListParams
	SortBy string `form:"sort_by" binding:"omitempty,oneof=name capacity created_at"`
}

type RoomTypeResponse struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	PricePerNight *decimal.Decimal `json:"price_per_night"`
	Capacity      int              `json:"capacity"`
	BedType       string           `json:"bed_type,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// RoomTypeTag is a brief representation of a room type.
type RoomTypeTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RoomResponse struct {
	ID           string           `json:"id"`
	RoomNumber   string           `json:"room_number"`
	RoomType     *RoomTypeTag     `json:"room_type"`
	Floor        int              `json:"floor"`
	BedType      string           `json:"bed_type"`
	View         string           `json:"view,omitempty"`
	MaxOccupancy int              `json:"max_occupancy"`
	Capacity     int              `json:"capacity"`
	Status       string           `json:"status"`
	RateDefault  *decimal.Decimal `json:"rate_default"`
	Amenities    []string         `json:"amenities"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func NewRoomTypeResponse(rt *room.RoomType) RoomTypeResponse {
	return RoomTypeResponse{
		ID:            rt.ID,
		Name:          rt.Name,
		Description:   rt.Description,
		PricePerNight: rt.PricePerNight,
		Capacity:      rt.Capacity,
		BedType:       string(rt.BedType),
		CreatedAt:     rt.CreatedAt,
	}
}

func NewRoomResponse(r *room.Room) RoomResponse {
	var tag *RoomTypeTag
	if r.RoomType != nil {
		tag = &RoomTypeTag{ID: r.RoomType.ID, Name: r.RoomType.Name}
	}
	amenities := r.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return RoomResponse{
		ID:           r.ID,
		RoomNumber:   r.RoomNumber,
		RoomType:     tag,
		Floor:        r.Floor,
		BedType:      string(r.BedType),
		View:         string(r.View),
		MaxOccupancy: r.MaxOccupancy,
		Capacity:     r.Capacity(),
		Status:       string(r.Status),
		RateDefault:  r.RateDefault,
		Amenities:    amenities,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type CreateRoomTypeRequest struct {
	Name          string           `json:"name" binding:"required,min=1,max=100"`
	Description   string           `json:"description"`
	PricePerNight *decimal.Decimal `json:"price_per_night"`
	Capacity      int              `json:"capacity" binding:"required,min=1"`
	BedType       string           `json:"bed_type" binding:"omitempty,oneof=SINGLE DOUBLE QUEEN KING TWIN"`
}

type UpdateRoomTypeRequest struct {
	Name          *string          `json:"name" binding:"omitempty,min=1,max=100"`
	Description   *string          `json:"description"`
	PricePerNight *decimal.Decimal `json:"price_per_night"`
	Capacity      *int             `json:"capacity" binding:"omitempty,min=1"`
	BedType       *string          `json:"bed_type" binding:"omitempty,oneof=SINGLE DOUBLE QUEEN KING TWIN"`
}

type CreateRoomRequest struct {
	RoomNumber   string           `json:"room_number" binding:"required,max=10"`
	RoomTypeID   *string          `json:"room_type_id" binding:"omitempty,uuid"`
	Floor        int              `json:"floor"`
	BedType      string           `json:"bed_type" binding:"required,oneof=SINGLE DOUBLE QUEEN KING TWIN"`
	View         string           `json:"view" binding:"omitempty,oneof=SEA CITY GARDEN MOUNTAIN POOL COURTYARD"`
	MaxOccupancy int              `json:"max_occupancy" binding:"required,min=1"`
	RateDefault  *decimal.Decimal `json:"rate_default"`
	Amenities    []string         `json:"amenities"`
}

type UpdateRoomRequest struct {
	RoomNumber   *string          `json:"room_number" binding:"omitempty,max=10"`
	RoomTypeID   *string          `json:"room_type_id" binding:"omitempty,uuid"`
	Floor        *int             `json:"floor"`
	BedType      *string          `json:"bed_type" binding:"omitempty,oneof=SINGLE DOUBLE QUEEN KING TWIN"`
	View         *string          `json:"view" binding:"omitempty,oneof=SEA CITY GARDEN MOUNTAIN POOL COURTYARD"`
	MaxOccupancy *int             `json:"max_occupancy" binding:"omitempty,min=1"`
	Status       *string          `json:"status" binding:"omitempty,oneof=AVAILABLE OCCUPIED RESERVED MAINTENANCE OUT_OF_ORDER"`
	RateDefault  *decimal.Decimal `json:"rate_default"`
	Amenities    []string         `json:"amenities"`
}
