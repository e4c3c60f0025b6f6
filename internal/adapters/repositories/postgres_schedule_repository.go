package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"route-scheduling-service/internal/domain"
)

// Postgres-backed implementation of the ScheduleRepository port.
type PostgresScheduleRepository struct{ DB *sql.DB }

func NewPostgresScheduleRepository(db *sql.DB) *PostgresScheduleRepository {
	return &PostgresScheduleRepository{DB: db}
}

func (r *PostgresScheduleRepository) Create(ctx context.Context, schedule *domain.Schedule) error {
	_, err := r.DB.ExecContext(ctx, `
	INSERT INTO schedules (schedule_id, user_id, schedule_date, schedule_type)
	VALUES ($1, $2, $3, $4);
	`, schedule.ID, schedule.UserID, schedule.Date, schedule.Type)
	if err != nil {
		return fmt.Errorf("create schedule %s: %w", schedule.ID, err)
	}
	return nil
}

func (r *PostgresScheduleRepository) Get(ctx context.Context, scheduleID string) (*domain.Schedule, error) {
	schedule := &domain.Schedule{}
	err := r.DB.QueryRowContext(ctx, `
	SELECT schedule_id, user_id, schedule_date, schedule_type
	FROM schedules
	WHERE schedule_id = $1;
	`, scheduleID).Scan(&schedule.ID, &schedule.UserID, &schedule.Date, &schedule.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("schedule %s: %w", scheduleID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule %s: %w", scheduleID, err)
	}
	return schedule, nil
}

func (r *PostgresScheduleRepository) Link(ctx context.Context, scheduleID, routeID string) error {
	_, err := r.DB.ExecContext(ctx, `
	INSERT INTO schedule_routes (schedule_id, route_id)
	VALUES ($1, $2)
	ON CONFLICT (schedule_id, route_id) DO NOTHING;
	`, scheduleID, routeID)
	if err != nil {
		return fmt.Errorf("link schedule %s to route %s: %w", scheduleID, routeID, err)
	}
	return nil
}

func (r *PostgresScheduleRepository) UnlinkByRoute(ctx context.Context, routeID string) error {
	_, err := r.DB.ExecContext(ctx, `
	DELETE FROM schedule_routes WHERE route_id = $1;
	`, routeID)
	if err != nil {
		return fmt.Errorf("unlink schedules for route %s: %w", routeID, err)
	}
	return nil
}
