package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Freeeeeet/court_booking/internal/model"
	"github.com/Freeeeeet/court_booking/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CourtRepository struct {
	*base.Repository
}

func NewCourtRepository(pool *pgxpool.Pool) *CourtRepository {
	return &CourtRepository{Repository: base.NewRepository(pool)}
}

const courtColumns = `id, owner_id, name, weekly_schedule, pricing_rules, created_at, updated_at`

// Create создаёт корт вместе с недельным шаблоном
func (r *CourtRepository) Create(ctx context.Context, court *model.Court) error {
	schedule, err := json.Marshal(court.WeeklySchedule)
	if err != nil {
		return fmt.Errorf("marshal weekly schedule: %w", err)
	}

	rules := court.PricingRules
	if len(rules) == 0 {
		rules = json.RawMessage(`{}`)
	}

	query := `
		INSERT INTO courts (owner_id, name, weekly_schedule, pricing_rules)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err = r.Pool().QueryRow(ctx, query,
		court.OwnerID,
		court.Name,
		schedule,
		[]byte(rules),
	).Scan(&court.ID, &court.CreatedAt, &court.UpdatedAt)
	if err != nil {
		return model.StorageError("create court", err)
	}

	court.PricingRules = rules
	return nil
}

// GetByID получает корт по ID
func (r *CourtRepository) GetByID(ctx context.Context, id int64) (*model.Court, error) {
	query := `SELECT ` + courtColumns + ` FROM courts WHERE id = $1`

	court, err := scanCourt(r.Pool().QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, model.ErrCourtNotFound
		}
		return nil, model.StorageError("get court", err)
	}

	return court, nil
}

// List все корты по ID
func (r *CourtRepository) List(ctx context.Context) ([]*model.Court, error) {
	query := `SELECT ` + courtColumns + ` FROM courts ORDER BY id`
	return r.list(ctx, "list courts", query)
}

// ListByOwner корты владельца
func (r *CourtRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*model.Court, error) {
	query := `SELECT ` + courtColumns + ` FROM courts WHERE owner_id = $1 ORDER BY id`
	return r.list(ctx, "list owner courts", query, ownerID)
}

func (r *CourtRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Court, error) {
	rows, err := r.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, model.StorageError(op, err)
	}
	defer rows.Close()

	courts := make([]*model.Court, 0)
	for rows.Next() {
		court, err := scanCourt(rows)
		if err != nil {
			return nil, model.StorageError(op, err)
		}
		courts = append(courts, court)
	}

	if err := rows.Err(); err != nil {
		return nil, model.StorageError(op, err)
	}

	return courts, nil
}

// UpdateDaySchedule заменяет один день недельного шаблона
func (r *CourtRepository) UpdateDaySchedule(ctx context.Context, courtID int64, weekday time.Weekday, day model.DaySchedule) (*model.Court, error) {
	payload, err := json.Marshal(day)
	if err != nil {
		return nil, fmt.Errorf("marshal day schedule: %w", err)
	}

	query := `
		UPDATE courts
		SET weekly_schedule = jsonb_set(weekly_schedule, ARRAY[$2::text], $3::jsonb),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + courtColumns

	court, err := scanCourt(r.Pool().QueryRow(ctx, query, courtID, strconv.Itoa(int(weekday)), payload))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, model.ErrCourtNotFound
		}
		return nil, model.StorageError("update day schedule", err)
	}

	return court, nil
}

func scanCourt(row pgx.Row) (*model.Court, error) {
	var (
		court    model.Court
		schedule []byte
		rules    []byte
	)

	err := row.Scan(
		&court.ID,
		&court.OwnerID,
		&court.Name,
		&schedule,
		&rules,
		&court.CreatedAt,
		&court.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(schedule, &court.WeeklySchedule); err != nil {
		return nil, fmt.Errorf("unmarshal weekly schedule: %w", err)
	}
	court.PricingRules = json.RawMessage(rules)

	return &court, nil
}
