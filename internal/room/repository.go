package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nekogravitycat/hotel-booking-backend/internal/db"
	"github.com/shopspring/decimal"
)

type Repository interface {
	CreateType(ctx context.Context, rt *RoomType) error
	GetType(ctx context.Context, id string) (*RoomType, error)
	ListTypes(ctx context.Context, filter TypeFilter) ([]*RoomType, int, error)
	UpdateType(ctx context.Context, rt *RoomType) error
	DeleteType(ctx context.Context, id string) error

	Create(ctx context.Context, r *Room) error
	GetByID(ctx context.Context, id string) (*Room, error)
	List(ctx context.Context, filter Filter) ([]*Room, int, error)
	Update(ctx context.Context, r *Room) error
	UpdateStatus(ctx context.Context, id string, status Status) error

	// LockForUpdate reads a room with a row lock held until the surrounding transaction ends.
	LockForUpdate(ctx context.Context, id string) (*Room, error)
	// ListBookable returns rooms not under maintenance, optionally narrowed by type and capacity.
	ListBookable(ctx context.Context, roomTypeID string, minCapacity int) ([]*Room, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var roomColumns = []string{
	"r.id", "r.room_number", "r.room_type_id", "r.floor", "r.bed_type", "r.view",
	"r.max_occupancy", "r.status", "r.rate_default", "r.amenities", "r.created_at", "r.updated_at",
	"rt.id", "rt.name", "rt.description", "rt.price_per_night", "rt.capacity", "rt.bed_type", "rt.created_at",
}

const capacityExpr = "COALESCE(NULLIF(rt.capacity, 0), r.max_occupancy)"

func selectRooms(extra ...string) squirrel.SelectBuilder {
	return psql.Select(append(roomColumns, extra...)...).
		From("public.rooms r").
		LeftJoin("public.room_types rt ON r.room_type_id = rt.id")
}

// scanRoom reads roomColumns followed by any extra destinations.
func scanRoom(row pgx.Row, extra ...any) (*Room, error) {
	var r Room
	var (
		rtID      *string
		rtName    *string
		rtDesc    *string
		rtPrice   *decimal.Decimal
		rtCap     *int
		rtBed     *string
		rtCreated *time.Time
	)

	dest := []any{
		&r.ID, &r.RoomNumber, &r.RoomTypeID, &r.Floor, &r.BedType, &r.View,
		&r.MaxOccupancy, &r.Status, &r.RateDefault, &r.Amenities, &r.CreatedAt, &r.UpdatedAt,
		&rtID, &rtName, &rtDesc, &rtPrice, &rtCap, &rtBed, &rtCreated,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	if rtID != nil {
		r.RoomType = &RoomType{
			ID:            *rtID,
			Name:          deref(rtName),
			Description:   deref(rtDesc),
			PricePerNight: rtPrice,
			BedType:       BedType(deref(rtBed)),
		}
		if rtCap != nil {
			r.RoomType.Capacity = *rtCap
		}
		if rtCreated != nil {
			r.RoomType.CreatedAt = *rtCreated
		}
	}
	if r.Amenities == nil {
		r.Amenities = []string{}
	}
	return &r, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isUniqueViolation(err error) bool {
	return db.PgErrorCode(err) == pgerrcode.UniqueViolation
}

// --- Room types ---

func (r *pgxRepository) CreateType(ctx context.Context, rt *RoomType) error {
	query, args, err := psql.Insert("public.room_types").
		Columns("name", "description", "price_per_night", "capacity", "bed_type").
		Values(rt.Name, rt.Description, rt.PricePerNight, rt.Capacity, rt.BedType).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create room type query failed: %w", err)
	}

	if err := db.Executor(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&rt.ID, &rt.CreatedAt); err != nil {
		return fmt.Errorf("create room type failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetType(ctx context.Context, id string) (*RoomType, error) {
	query, args, err := psql.Select("id", "name", "description", "price_per_night", "capacity", "bed_type", "created_at").
		From("public.room_types").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get room type query failed: %w", err)
	}

	var rt RoomType
	err = db.Executor(ctx, r.pool).QueryRow(ctx, query, args...).
		Scan(&rt.ID, &rt.Name, &rt.Description, &rt.PricePerNight, &rt.Capacity, &rt.BedType, &rt.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTypeNotFound
		}
		return nil, fmt.Errorf("get room type failed: %w", err)
	}
	return &rt, nil
}

func (r *pgxRepository) ListTypes(ctx context.Context, filter TypeFilter) ([]*RoomType, int, error) {
	queryBuilder := psql.Select(
		"id", "name", "description", "price_per_night", "capacity", "bed_type", "created_at",
		"count(*) OVER() as total_count",
	).From("public.room_types")

	orderBy := "name"
	if filter.SortBy != "" {
		orderBy = filter.SortBy
	}
	orderDir := "ASC"
	if filter.SortOrder != "" {
		orderDir = filter.SortOrder
	}
	queryBuilder = queryBuilder.OrderBy(orderBy + " " + orderDir)

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	queryBuilder = queryBuilder.Limit(uint64(pageSize)).Offset(uint64((page - 1) * pageSize))

	sql, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list room types query failed: %w", err)
	}

	rows, err := db.Executor(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list room types failed: %w", err)
	}
	defer rows.Close()

	var result []*RoomType
	var total int
	for rows.Next() {
		var rt RoomType
		if err := rows.Scan(&rt.ID, &rt.Name, &rt.Description, &rt.PricePerNight, &rt.Capacity, &rt.BedType, &rt.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan room type failed: %w", err)
		}
		result = append(result, &rt)
	}
	return result, total, rows.Err()
}

func (r *pgxRepository) UpdateType(ctx context.Context, rt *RoomType) error {
	query, args, err := psql.Update("public.room_types").
		Set("name", rt.Name).
		Set("description", rt.Description).
		Set("price_per_night", rt.PricePerNight).
		Set("capacity", rt.Capacity).
		Set("bed_type", rt.BedType).
		Where(squirrel.Eq{"id": rt.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update room type query failed: %w", err)
	}

	ct, err := db.Executor(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update room type failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrTypeNotFound
	}
	return nil
}

func (r *pgxRepository) DeleteType(ctx context.Context, id string) error {
	query, args, err := psql.Delete("public.room_types").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete room type query failed: %w", err)
	}

	ct, err := db.Executor(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		if db.PgErrorCode(err) == pgerrcode.ForeignKeyViolation {
			return ErrTypeStillAssigned
		}
		return fmt.Errorf("delete room type failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrTypeNotFound
	}
	return nil
}

// --- Rooms ---

func (r *pgxRepository) Create(ctx context.Context, room *Room) error {
	query, args, err := psql.Insert("public.rooms").
		Columns("room_number", "room_type_id", "floor", "bed_type", "view", "max_occupancy", "status", "rate_default", "amenities").
		Values(room.RoomNumber, room.RoomTypeID, room.Floor, room.BedType, room.View, room.MaxOccupancy, room.Status, room.RateDefault, room.Amenities).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create room query failed: %w", err)
	}

	err = db.Executor(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&room.ID, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrRoomNumberTaken
		}
		return fmt.Errorf("create room failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Room, error) {
	query, args, err := selectRooms().Where(squirrel.Eq{"r.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get room query failed: %w", err)
	}

	room, err := scanRoom(db.Executor(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get room failed: %w", err)
	}
	return room, nil
}

func (r *pgxRepository) LockForUpdate(ctx context.Context, id string) (*Room, error) {
	query, args, err := selectRooms().
		Where(squirrel.Eq{"r.id": id}).
		Suffix("FOR UPDATE OF r").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lock room query failed: %w", err)
	}

	room, err := scanRoom(db.Executor(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock room failed: %w", err)
	}
	return room, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Room, int, error) {
	queryBuilder := selectRooms("count(*) OVER() as total_count")

	if filter.RoomTypeID != "" {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"r.room_type_id": filter.RoomTypeID})
	}
	if filter.Status != "" {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"r.status": filter.Status})
	}
	if filter.Floor != nil {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"r.floor": *filter.Floor})
	}
	if filter.MinCapacity > 0 {
		queryBuilder = queryBuilder.Where(squirrel.Expr(capacityExpr+" >= ?", filter.MinCapacity))
	}

	orderBy := "r.room_number"
	if filter.SortBy != "" {
		orderBy = "r." + filter.SortBy
	}
	orderDir := "ASC"
	if filter.SortOrder != "" {
		orderDir = filter.SortOrder
	}
	queryBuilder = queryBuilder.OrderBy(orderBy + " " + orderDir)

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	queryBuilder = queryBuilder.Limit(uint64(pageSize)).Offset(uint64((page - 1) * pageSize))

	sql, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list rooms query failed: %w", err)
	}

	rows, err := db.Executor(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list rooms failed: %w", err)
	}
	defer rows.Close()

	var rooms []*Room
	var total int
	for rows.Next() {
		room, err := scanRoom(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan room failed: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, total, rows.Err()
}

func (r *pgxRepository) ListBookable(ctx context.Context, roomTypeID string, minCapacity int) ([]*Room, error) {
	queryBuilder := selectRooms().
		Where(squirrel.NotEq{"r.status": []Status{StatusMaintenance, StatusOutOfOrder}}).
		OrderBy("r.room_number ASC")

	if roomTypeID != "" {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"r.room_type_id": roomTypeID})
	}
	if minCapacity > 0 {
		queryBuilder = queryBuilder.Where(squirrel.Expr(capacityExpr+" >= ?", minCapacity))
	}

	sql, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list bookable rooms query failed: %w", err)
	}

	rows, err := db.Executor(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookable rooms failed: %w", err)
	}
	defer rows.Close()

	var rooms []*Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room failed: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *pgxRepository) Update(ctx context.Context, room *Room) error {
	query, args, err := psql.Update("public.rooms").
		Set("room_number", room.RoomNumber).
		Set("room_type_id", room.RoomTypeID).
		Set("floor", room.Floor).
		Set("bed_type", room.BedType).
		Set("view", room.View).
		Set("max_occupancy", room.MaxOccupancy).
		Set("status", room.Status).
		Set("rate_default", room.RateDefault).
		Set("amenities", room.Amenities).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": room.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update room query failed: %w", err)
	}

	ct, err := db.Executor(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrRoomNumberTaken
		}
		return fmt.Errorf("update room failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	query, args, err := psql.Update("public.rooms").
		Set("status", status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update room status query failed: %w", err)
	}

	ct, err := db.Executor(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update room status failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return page, pageSize
}
