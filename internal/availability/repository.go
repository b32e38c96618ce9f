package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nekogravitycat/hotel-booking-backend/internal/db"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/daterange"
)

type Repository interface {
	// Upsert writes entries keyed by (room_id, date), overwriting existing rows.
	Upsert(ctx context.Context, entries []Entry) error
	// UnavailableRoomIDs returns rooms with at least one unavailable row in stay.
	UnavailableRoomIDs(ctx context.Context, stay daterange.Range) ([]string, error)
	ListEntries(ctx context.Context, roomID string, stay daterange.Range) ([]Entry, error)
	// DeleteWindow removes every row dated inside window.
	DeleteWindow(ctx context.Context, window daterange.Range) (int64, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const upsertEntriesSQL = `
	INSERT INTO public.room_availability_cache (room_id, date, is_available, booking_id, last_updated)
	SELECT r::uuid, d, a, b::uuid, now()
	FROM unnest($1::text[], $2::date[], $3::bool[], $4::text[]) AS t(r, d, a, b)
	ON CONFLICT (room_id, date) DO UPDATE SET
		is_available = EXCLUDED.is_available,
		booking_id = EXCLUDED.booking_id,
		last_updated = EXCLUDED.last_updated`

func (r *pgxRepository) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	roomIDs := make([]string, len(entries))
	dates := make([]time.Time, len(entries))
	available := make([]bool, len(entries))
	bookingIDs := make([]*string, len(entries))
	for i, e := range entries {
		roomIDs[i] = e.RoomID
		dates[i] = e.Date
		available[i] = e.IsAvailable
		bookingIDs[i] = e.BookingID
	}

	if _, err := db.Executor(ctx, r.pool).Exec(ctx, upsertEntriesSQL, roomIDs, dates, available, bookingIDs); err != nil {
		return fmt.Errorf("upsert availability failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) UnavailableRoomIDs(ctx context.Context, stay daterange.Range) ([]string, error) {
	query, args, err := psql.Select("DISTINCT room_id").
		From("public.room_availability_cache").
		Where(squirrel.GtOrEq{"date": stay.CheckIn}).
		Where(squirrel.Lt{"date": stay.CheckOut}).
		Where(squirrel.Eq{"is_available": false}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build unavailable rooms query failed: %w", err)
	}

	rows, err := db.Executor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query unavailable rooms failed: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan room id failed: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *pgxRepository) ListEntries(ctx context.Context, roomID string, stay daterange.Range) ([]Entry, error) {
	query, args, err := psql.Select("room_id", "date", "is_available", "booking_id", "last_updated").
		From("public.room_availability_cache").
		Where(squirrel.Eq{"room_id": roomID}).
		Where(squirrel.GtOrEq{"date": stay.CheckIn}).
		Where(squirrel.Lt{"date": stay.CheckOut}).
		OrderBy("date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list availability query failed: %w", err)
	}

	rows, err := db.Executor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list availability failed: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.RoomID, &e.Date, &e.IsAvailable, &e.BookingID, &e.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan availability failed: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *pgxRepository) DeleteWindow(ctx context.Context, window daterange.Range) (int64, error) {
	query, args, err := psql.Delete("public.room_availability_cache").
		Where(squirrel.GtOrEq{"date": window.CheckIn}).
		Where(squirrel.Lt{"date": window.CheckOut}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete availability query failed: %w", err)
	}

	ct, err := db.Executor(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete availability failed: %w", err)
	}
	return ct.RowsAffected(), nil
}
