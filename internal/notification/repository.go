package notification

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nekogravitycat/hotel-booking-backend/internal/db"
)

type Repository interface {
	Create(ctx context.Context, l *Log) error
	UpdateStatus(ctx context.Context, id string, status Status, errMsg string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func (r *pgxRepository) Create(ctx context.Context, l *Log) error {
	query, args, err := psql.Insert("public.notification_logs").
		Columns("template_type", "recipient", "subject", "body", "status", "error").
		Values(l.TemplateType, l.Recipient, l.Subject, l.Body, l.Status, l.Error).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create notification log query failed: %w", err)
	}

	if err := db.Executor(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&l.ID, &l.CreatedAt); err != nil {
		return fmt.Errorf("create notification log failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, id string, status Status, errMsg string) error {
	b := psql.Update("public.notification_logs").
		Set("status", status).
		Set("error", errMsg).
		Where(squirrel.Eq{"id": id})
	if status == StatusSent {
		b = b.Set("sent_at", squirrel.Expr("now()"))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build update notification log query failed: %w", err)
	}
	if _, err := db.Executor(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update notification log failed: %w", err)
	}
	return nil
}
