package guest

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nekogravitycat/hotel-booking-backend/internal/db"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*Guest, error)
	GetPreferences(ctx context.Context, guestID string) (*Preference, error)
	UpsertPreferences(ctx context.Context, p *Preference) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Guest, error) {
	query, args, err := psql.Select("id", "full_name", "email", "contact_number", "loyalty_level", "created_at").
		From("public.guests").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get guest query failed: %w", err)
	}

	var g Guest
	err = db.Executor(ctx, r.pool).QueryRow(ctx, query, args...).
		Scan(&g.ID, &g.FullName, &g.Email, &g.ContactNumber, &g.LoyaltyLevel, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get guest failed: %w", err)
	}
	return &g, nil
}

func (r *pgxRepository) GetPreferences(ctx context.Context, guestID string) (*Preference, error) {
	query, args, err := psql.Select(
		"guest_id", "preferred_floor", "floor_preference", "preferred_view", "preferred_bed_type",
		"accessibility_needs", "quiet_room_preference", "smoking_preference", "high_floor_preference",
		"preferred_amenities", "updated_at",
	).
		From("public.guest_preferences").
		Where(squirrel.Eq{"guest_id": guestID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get preferences query failed: %w", err)
	}

	var p Preference
	err = db.Executor(ctx, r.pool).QueryRow(ctx, query, args...).Scan(
		&p.GuestID, &p.PreferredFloor, &p.FloorPreference, &p.PreferredView, &p.PreferredBedType,
		&p.AccessibilityNeeds, &p.QuietRoom, &p.Smoking, &p.HighFloorPreference,
		&p.PreferredAmenities, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPreferencesNotFound
		}
		return nil, fmt.Errorf("get preferences failed: %w", err)
	}
	return &p, nil
}

func (r *pgxRepository) UpsertPreferences(ctx context.Context, p *Preference) error {
	amenities := p.PreferredAmenities
	if amenities == nil {
		amenities = []string{}
	}

	query, args, err := psql.Insert("public.guest_preferences").
		Columns(
			"guest_id", "preferred_floor", "floor_preference", "preferred_view", "preferred_bed_type",
			"accessibility_needs", "quiet_room_preference", "smoking_preference", "high_floor_preference",
			"preferred_amenities",
		).
		Values(
			p.GuestID, p.PreferredFloor, p.FloorPreference, p.PreferredView, p.PreferredBedType,
			p.AccessibilityNeeds, p.QuietRoom, p.Smoking, p.HighFloorPreference, amenities,
		).
		Suffix(`ON CONFLICT (guest_id) DO UPDATE SET
			preferred_floor = EXCLUDED.preferred_floor,
			floor_preference = EXCLUDED.floor_preference,
			preferred_view = EXCLUDED.preferred_view,
			preferred_bed_type = EXCLUDED.preferred_bed_type,
			accessibility_needs = EXCLUDED.accessibility_needs,
			quiet_room_preference = EXCLUDED.quiet_room_preference,
			smoking_preference = EXCLUDED.smoking_preference,
			high_floor_preference = EXCLUDED.high_floor_preference,
			preferred_amenities = EXCLUDED.preferred_amenities,
			updated_at = now()
			RETURNING updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert preferences query failed: %w", err)
	}

	if err := db.Executor(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&p.UpdatedAt); err != nil {
		if db.PgErrorCode(err) == pgerrcode.ForeignKeyViolation {
			return ErrNotFound
		}
		return fmt.Errorf("upsert preferences failed: %w", err)
	}
	return nil
}
