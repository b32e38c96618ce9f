package rateplan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nekogravitycat/hotel-booking-backend/internal/db"
)

type Repository interface {
	Create(ctx context.Context, p *RatePlan) error
	GetByID(ctx context.Context, id string) (*RatePlan, error)
	List(ctx context.Context, filter Filter) ([]*RatePlan, int, error)
	Update(ctx context.Context, p *RatePlan) error
	Delete(ctx context.Context, id string) error

	// ListActiveFor returns active plans of a room type whose window contains day,
	// newest window first.
	ListActiveFor(ctx context.Context, roomTypeID string, day time.Time) ([]*RatePlan, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var columns = []string{
	"id", "room_type_id", "name", "season", "valid_from", "valid_to",
	"base_rate", "additional_guest_charge", "meal_plan", "meal_plan_cost",
	"weekend_surcharge", "is_percentage_surcharge", "minimum_stay", "maximum_stay",
	"advance_booking_days", "cancellation_policy", "description", "is_active",
	"created_at", "updated_at",
}

func scanPlan(row pgx.Row, extra ...any) (*RatePlan, error) {
	var p RatePlan
	dest := []any{
		&p.ID, &p.RoomTypeID, &p.Name, &p.Season, &p.ValidFrom, &p.ValidTo,
		&p.BaseRate, &p.AdditionalGuestCharge, &p.MealPlan, &p.MealPlanCost,
		&p.WeekendSurcharge, &p.IsPercentageSurcharge, &p.MinimumStay, &p.MaximumStay,
		&p.AdvanceBookingDays, &p.CancellationPolicy, &p.Description, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pgxRepository) Create(ctx context.Context, p *RatePlan) error {
	query, args, err := psql.Insert("public.rate_plans").
		Columns(
			"room_type_id", "name", "season", "valid_from", "valid_to",
			"base_rate", "additional_guest_charge", "meal_plan", "meal_plan_cost",
			"weekend_surcharge", "is_percentage_surcharge", "minimum_stay", "maximum_stay",
			"advance_booking_days", "cancellation_policy", "description", "is_active",
		).
		Values(
			p.RoomTypeID, p.Name, p.Season, p.ValidFrom, p.ValidTo,
			p.BaseRate, p.AdditionalGuestCharge, p.MealPlan, p.MealPlanCost,
			p.WeekendSurcharge, p.IsPercentageSurcharge, p.MinimumStay, p.MaximumStay,
			p.AdvanceBookingDays, p.CancellationPolicy, p.Description, p.IsActive,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create rate plan query failed: %w", err)
	}

	if err := db.Executor(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("create rate plan failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*RatePlan, error) {
	query, args, err := psql.Select(columns...).
		From("public.rate_plans").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get rate plan query failed: %w", err)
	}

	p, err := scanPlan(db.Executor(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get rate plan failed: %w", err)
	}
	return p, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*RatePlan, int, error) {
	queryBuilder := psql.Select(append(columns, "count(*) OVER() as total_count")...).
		From("public.rate_plans")

	if filter.RoomTypeID != "" {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"room_type_id": filter.RoomTypeID})
	}
	if filter.Season != "" {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"season": filter.Season})
	}
	if filter.IsActive != nil {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"is_active": *filter.IsActive})
	}
	if filter.ValidOn != nil {
		queryBuilder = queryBuilder.
			Where(squirrel.LtOrEq{"valid_from": *filter.ValidOn}).
			Where(squirrel.GtOrEq{"valid_to": *filter.ValidOn})
	}

	orderBy := "valid_from"
	if filter.SortBy != "" {
		orderBy = filter.SortBy
	}
	orderDir := "DESC"
	if filter.SortOrder != "" {
		orderDir = filter.SortOrder
	}
	queryBuilder = queryBuilder.OrderBy(orderBy + " " + orderDir)

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	queryBuilder = queryBuilder.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list rate plans query failed: %w", err)
	}

	rows, err := db.Executor(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list rate plans failed: %w", err)
	}
	defer rows.Close()

	var plans []*RatePlan
	var total int
	for rows.Next() {
		p, err := scanPlan(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan rate plan failed: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, total, rows.Err()
}

func (r *pgxRepository) ListActiveFor(ctx context.Context, roomTypeID string, day time.Time) ([]*RatePlan, error) {
	query, args, err := psql.Select(columns...).
		From("public.rate_plans").
		Where(squirrel.Eq{"room_type_id": roomTypeID, "is_active": true}).
		Where(squirrel.LtOrEq{"valid_from": day}).
		Where(squirrel.GtOrEq{"valid_to": day}).
		OrderBy("valid_from DESC", "created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list active rate plans query failed: %w", err)
	}

	rows, err := db.Executor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active rate plans failed: %w", err)
	}
	defer rows.Close()

	var plans []*RatePlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rate plan failed: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *pgxRepository) Update(ctx context.Context, p *RatePlan) error {
	query, args, err := psql.Update("public.rate_plans").
		SetMap(map[string]any{
			"name":                    p.Name,
			"season":                  p.Season,
			"valid_from":              p.ValidFrom,
			"valid_to":                p.ValidTo,
			"base_rate":               p.BaseRate,
			"additional_guest_charge": p.AdditionalGuestCharge,
			"meal_plan":               p.MealPlan,
			"meal_plan_cost":          p.MealPlanCost,
			"weekend_surcharge":       p.WeekendSurcharge,
			"is_percentage_surcharge": p.IsPercentageSurcharge,
			"minimum_stay":            p.MinimumStay,
			"maximum_stay":            p.MaximumStay,
			"advance_booking_days":    p.AdvanceBookingDays,
			"cancellation_policy":     p.CancellationPolicy,
			"description":             p.Description,
			"is_active":               p.IsActive,
			"updated_at":              squirrel.Expr("now()"),
		}).
		Where(squirrel.Eq{"id": p.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update rate plan query failed: %w", err)
	}

	if err := db.Executor(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update rate plan failed: %w", err)
	}
	return nil
}

// Delete deactivates the plan. Bookings keep referencing it.
func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Update("public.rate_plans").
		Set("is_active", false).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete rate plan query failed: %w", err)
	}

	ct, err := db.Executor(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete rate plan failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
