package room

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

type CreateTypeRequest struct {
	Name          string
	Description   string
	PricePerNight *decimal.Decimal
	Capacity      int
	BedType       BedType
}

type UpdateTypeRequest struct {
	Name          *string
	Description   *string
	PricePerNight *decimal.Decimal
	Capacity      *int
	BedType       *BedType
}

type CreateRequest struct {
	RoomNumber   string
	RoomTypeID   *string
	Floor        int
	BedType      BedType
	View         View
	MaxOccupancy int
	RateDefault  *decimal.Decimal
	Amenities    []string
}

type UpdateRequest struct {
	RoomNumber   *string
	RoomTypeID   *string
	Floor        *int
	BedType      *BedType
	View         *View
	MaxOccupancy *int
	Status       *Status
	RateDefault  *decimal.Decimal
	Amenities    []string
}

// Service is the room master. Other modules only read rooms and change their status.
type Service interface {
	CreateType(ctx context.Context, req CreateTypeRequest) (*RoomType, error)
	GetType(ctx context.Context, id string) (*RoomType, error)
	ListTypes(ctx context.Context, filter TypeFilter) ([]*RoomType, int, error)
	UpdateType(ctx context.Context, id string, req UpdateTypeRequest) (*RoomType, error)
	DeleteType(ctx context.Context, id string) error

	Create(ctx context.Context, req CreateRequest) (*Room, error)
	GetByID(ctx context.Context, id string) (*Room, error)
	List(ctx context.Context, filter Filter) ([]*Room, int, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Room, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	LockForUpdate(ctx context.Context, id string) (*Room, error)
	ListBookable(ctx context.Context, roomTypeID string, minCapacity int) ([]*Room, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func validateRate(d *decimal.Decimal) error {
	if d != nil && d.IsNegative() {
		return ErrNegativeRate
	}
	return nil
}

func (s *service) CreateType(ctx context.Context, req CreateTypeRequest) (*RoomType, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrEmptyName
	}
	if req.Capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	if req.BedType != "" && !req.BedType.Valid() {
		return nil, ErrInvalidBedType
	}
	if err := validateRate(req.PricePerNight); err != nil {
		return nil, err
	}

	rt := &RoomType{
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		PricePerNight: req.PricePerNight,
		Capacity:      req.Capacity,
		BedType:       req.BedType,
	}
	if err := s.repo.CreateType(ctx, rt); err != nil {
		return nil, err
	}
	return rt, nil
}

func (s *service) GetType(ctx context.Context, id string) (*RoomType, error) {
	return s.repo.GetType(ctx, id)
}

func (s *service) ListTypes(ctx context.Context, filter TypeFilter) ([]*RoomType, int, error) {
	return s.repo.ListTypes(ctx, filter)
}

func (s *service) UpdateType(ctx context.Context, id string, req UpdateTypeRequest) (*RoomType, error) {
	rt, err := s.repo.GetType(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, ErrEmptyName
		}
		rt.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		rt.Description = *req.Description
	}
	if req.PricePerNight != nil {
		if err := validateRate(req.PricePerNight); err != nil {
			return nil, err
		}
		rt.PricePerNight = req.PricePerNight
	}
	if req.Capacity != nil {
		if *req.Capacity < 1 {
			return nil, ErrInvalidCapacity
		}
		rt.Capacity = *req.Capacity
	}
	if req.BedType != nil {
		if *req.BedType != "" && !req.BedType.Valid() {
			return nil, ErrInvalidBedType
		}
		rt.BedType = *req.BedType
	}

	if err := s.repo.UpdateType(ctx, rt); err != nil {
		return nil, err
	}
	return rt, nil
}

func (s *service) DeleteType(ctx context.Context, id string) error {
	return s.repo.DeleteType(ctx, id)
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Room, error) {
	if strings.TrimSpace(req.RoomNumber) == "" {
		return nil, ErrEmptyRoomNumber
	}
	if req.MaxOccupancy < 1 {
		return nil, ErrInvalidCapacity
	}
	if !req.BedType.Valid() {
		return nil, ErrInvalidBedType
	}
	if !req.View.Valid() {
		return nil, ErrInvalidView
	}
	if err := validateRate(req.RateDefault); err != nil {
		return nil, err
	}

	var roomType *RoomType
	if req.RoomTypeID != nil {
		rt, err := s.repo.GetType(ctx, *req.RoomTypeID)
		if err != nil {
			return nil, err
		}
		roomType = rt
	}

	amenities := req.Amenities
	if amenities == nil {
		amenities = []string{}
	}

	r := &Room{
		RoomNumber:   strings.TrimSpace(req.RoomNumber),
		RoomTypeID:   req.RoomTypeID,
		RoomType:     roomType,
		Floor:        req.Floor,
		BedType:      req.BedType,
		View:         req.View,
		MaxOccupancy: req.MaxOccupancy,
		Status:       StatusAvailable,
		RateDefault:  req.RateDefault,
		Amenities:    amenities,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Room, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Room, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Room, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.RoomNumber != nil {
		if strings.TrimSpace(*req.RoomNumber) == "" {
			return nil, ErrEmptyRoomNumber
		}
		r.RoomNumber = strings.TrimSpace(*req.RoomNumber)
	}
	if req.RoomTypeID != nil {
		rt, err := s.repo.GetType(ctx, *req.RoomTypeID)
		if err != nil {
			return nil, err
		}
		r.RoomTypeID = &rt.ID
		r.RoomType = rt
	}
	if req.Floor != nil {
		r.Floor = *req.Floor
	}
	if req.BedType != nil {
		if !req.BedType.Valid() {
			return nil, ErrInvalidBedType
		}
		r.BedType = *req.BedType
	}
	if req.View != nil {
		if !req.View.Valid() {
			return nil, ErrInvalidView
		}
		r.View = *req.View
	}
	if req.MaxOccupancy != nil {
		if *req.MaxOccupancy < 1 {
			return nil, ErrInvalidCapacity
		}
		r.MaxOccupancy = *req.MaxOccupancy
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		r.Status = *req.Status
	}
	if req.RateDefault != nil {
		if err := validateRate(req.RateDefault); err != nil {
			return nil, err
		}
		r.RateDefault = req.RateDefault
	}
	if req.Amenities != nil {
		r.Amenities = req.Amenities
	}

	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *service) UpdateStatus(ctx context.Context, id string, status Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *service) LockForUpdate(ctx context.Context, id string) (*Room, error) {
	return s.repo.LockForUpdate(ctx, id)
}

func (s *service) ListBookable(ctx context.Context, roomTypeID string, minCapacity int) ([]*Room, error) {
	return s.repo.ListBookable(ctx, roomTypeID, minCapacity)
}
