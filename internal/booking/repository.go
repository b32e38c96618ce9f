package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nekogravitycat/hotel-booking-backend/internal/db"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/daterange"
)

type Repository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	// LockForUpdate reads a booking with a row lock held until the surrounding transaction ends.
	LockForUpdate(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	Update(ctx context.Context, booking *Booking) error
	SetIDProof(ctx context.Context, id, fileID string) error

	// FindOverlap returns the id of an active booking of roomID whose stay
	// overlaps stay, or "" when the room is free. excludeID is ignored so a
	// booking never conflicts with itself.
	FindOverlap(ctx context.Context, roomID string, stay daterange.Range, excludeID string) (string, error)
	// ListActive returns active bookings overlapping window. An empty roomID means all rooms.
	ListActive(ctx context.Context, roomID string, window daterange.Range) ([]*Booking, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var bookingColumns = []string{
	"b.id", "b.guest_id", "g.full_name", "g.email", "b.room_id", "r.room_number", "b.rate_plan_id",
	"b.check_in", "b.check_out", "b.adults", "b.children", "b.include_meal", "b.status", "b.booking_source",
	"b.base_amount", "b.total_amount", "b.advance_payment", "b.payment_status", "b.payment_method",
	"b.special_requests", "b.cancellation_reason", "b.canceled_at", "b.modification_count",
	"b.id_proof_file_id", "b.actual_check_in_time", "b.actual_check_out_time", "b.created_by",
	"b.created_at", "b.updated_at",
}

func selectBookings(extra ...string) squirrel.SelectBuilder {
	return psql.Select(append(bookingColumns, extra...)...).
		From("public.bookings b").
		Join("public.guests g ON b.guest_id = g.id").
		Join("public.rooms r ON b.room_id = r.id")
}

func scanBooking(row pgx.Row, extra ...any) (*Booking, error) {
	var b Booking
	var email *string
	dest := []any{
		&b.ID, &b.GuestID, &b.GuestName, &email, &b.RoomID, &b.RoomNumber, &b.RatePlanID,
		&b.CheckIn, &b.CheckOut, &b.Adults, &b.Children, &b.IncludeMeal, &b.Status, &b.Source,
		&b.BaseAmount, &b.TotalAmount, &b.AdvancePayment, &b.PaymentStatus, &b.PaymentMethod,
		&b.SpecialRequests, &b.CancellationReason, &b.CanceledAt, &b.ModificationCount,
		&b.IDProofFileID, &b.ActualCheckInTime, &b.ActualCheckOutTime, &b.CreatedBy,
		&b.CreatedAt, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if email != nil {
		b.GuestEmail = *email
	}
	return &b, nil
}

// mapWriteError turns constraint violations into domain errors.
func mapWriteError(err error) error {
	switch db.PgErrorCode(err) {
	case pgerrcode.ExclusionViolation:
		return &OverlapError{}
	case pgerrcode.ForeignKeyViolation:
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	query, args, err := psql.Insert("public.bookings").
		Columns(
			"guest_id", "room_id", "rate_plan_id", "check_in", "check_out", "adults", "children",
			"include_meal", "status", "booking_source", "base_amount", "total_amount", "advance_payment",
			"payment_status", "payment_method", "special_requests", "created_by",
		).
		Values(
			b.GuestID, b.RoomID, b.RatePlanID, b.CheckIn, b.CheckOut, b.Adults, b.Children,
			b.IncludeMeal, b.Status, b.Source, b.BaseAmount, b.TotalAmount, b.AdvancePayment,
			b.PaymentStatus, b.PaymentMethod, b.SpecialRequests, b.CreatedBy,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	err = db.Executor(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if mapped := mapWriteError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("create booking failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	query, args, err := selectBookings().Where(squirrel.Eq{"b.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(db.Executor(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) LockForUpdate(ctx context.Context, id string) (*Booking, error) {
	query, args, err := selectBookings().
		Where(squirrel.Eq{"b.id": id}).
		Suffix("FOR UPDATE OF b").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lock booking query failed: %w", err)
	}

	b, err := scanBooking(db.Executor(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	query := selectBookings("count(*) OVER() as total_count")

	if filter.GuestID != "" {
		query = query.Where(squirrel.Eq{"b.guest_id": filter.GuestID})
	}
	if filter.RoomID != "" {
		query = query.Where(squirrel.Eq{"b.room_id": filter.RoomID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"b.status": filter.Status})
	}
	if filter.Source != "" {
		query = query.Where(squirrel.Eq{"b.booking_source": filter.Source})
	}
	// Stays intersecting [From, To)
	if filter.From != nil {
		query = query.Where(squirrel.Gt{"b.check_out": *filter.From})
	}
	if filter.To != nil {
		query = query.Where(squirrel.Lt{"b.check_in": *filter.To})
	}

	orderBy := "b.check_in"
	if filter.SortBy != "" {
		orderBy = "b." + filter.SortBy
	}
	orderDir := "DESC"
	if filter.SortOrder != "" {
		orderDir = filter.SortOrder
	}
	query = query.OrderBy(orderBy+" "+orderDir, "b.id")

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := db.Executor(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int
	for rows.Next() {
		b, err := scanBooking(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}

	return bookings, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, b *Booking) error {
	query, args, err := psql.Update("public.bookings").
		Set("room_id", b.RoomID).
		Set("rate_plan_id", b.RatePlanID).
		Set("check_in", b.CheckIn).
		Set("check_out", b.CheckOut).
		Set("adults", b.Adults).
		Set("children", b.Children).
		Set("include_meal", b.IncludeMeal).
		Set("status", b.Status).
		Set("booking_source", b.Source).
		Set("base_amount", b.BaseAmount).
		Set("total_amount", b.TotalAmount).
		Set("advance_payment", b.AdvancePayment).
		Set("payment_status", b.PaymentStatus).
		Set("payment_method", b.PaymentMethod).
		Set("special_requests", b.SpecialRequests).
		Set("cancellation_reason", b.CancellationReason).
		Set("canceled_at", b.CanceledAt).
		Set("modification_count", b.ModificationCount).
		Set("actual_check_in_time", b.ActualCheckInTime).
		Set("actual_check_out_time", b.ActualCheckOutTime).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": b.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	err = db.Executor(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if mapped := mapWriteError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("update booking failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) SetIDProof(ctx context.Context, id, fileID string) error {
	query, args, err := psql.Update("public.bookings").
		Set("id_proof_file_id", fileID).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set id proof query failed: %w", err)
	}

	ct, err := db.Executor(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set id proof failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) FindOverlap(ctx context.Context, roomID string, stay daterange.Range, excludeID string) (string, error) {
	// [a,b) and [c,d) overlap iff a < d and c < b.
	query := psql.Select("id").
		From("public.bookings").
		Where(squirrel.Eq{"room_id": roomID}).
		Where(squirrel.Eq{"status": OccupyingStatuses}).
		Where(squirrel.Lt{"check_in": stay.CheckOut}).
		Where(squirrel.Gt{"check_out": stay.CheckIn}).
		OrderBy("check_in").
		Limit(1)

	if excludeID != "" {
		query = query.Where(squirrel.NotEq{"id": excludeID})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return "", fmt.Errorf("build overlap query failed: %w", err)
	}

	var id string
	if err := db.Executor(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("check overlap failed: %w", err)
	}
	return id, nil
}

func (r *pgxRepository) ListActive(ctx context.Context, roomID string, window daterange.Range) ([]*Booking, error) {
	query := selectBookings().
		Where(squirrel.Eq{"b.status": OccupyingStatuses}).
		Where(squirrel.Lt{"b.check_in": window.CheckOut}).
		Where(squirrel.Gt{"b.check_out": window.CheckIn}).
		OrderBy("b.room_id", "b.check_in")

	if roomID != "" {
		query = query.Where(squirrel.Eq{"b.room_id": roomID})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build active bookings query failed: %w", err)
	}

	rows, err := db.Executor(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list active bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active bookings failed: %w", err)
	}
	return bookings, nil
}
