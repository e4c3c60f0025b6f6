package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"route-scheduling-service/internal/domain"
)

// Postgres-backed implementation of the RouteRepository port.
type PostgresRouteRepository struct{ DB *sql.DB }

func NewPostgresRouteRepository(db *sql.DB) *PostgresRouteRepository {
	return &PostgresRouteRepository{DB: db}
}

func (r *PostgresRouteRepository) Create(ctx context.Context, route *domain.Route) error {
	_, err := r.DB.ExecContext(ctx, `
	INSERT INTO routes (route_id, route_date, route_type, status, truck_id, user_id, completed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
	`, route.ID, route.Date, route.Type, route.Status, route.TruckID, route.UserID, route.CompletedAt)
	if err != nil {
		return fmt.Errorf("create route %s: %w", route.ID, err)
	}
	return nil
}

// Get loads the full aggregate: the route row, its destinations, and their
// products, reassembled in memory.
func (r *PostgresRouteRepository) Get(ctx context.Context, routeID string) (*domain.Route, error) {
	route := &domain.Route{}
	err := r.DB.QueryRowContext(ctx, `
	SELECT route_id, route_date, route_type, status, truck_id, user_id, completed_at
	FROM routes
	WHERE route_id = $1;
	`, routeID).Scan(&route.ID, &route.Date, &route.Type, &route.Status, &route.TruckID, &route.UserID, &route.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("route %s: %w", routeID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get route %s: %w", routeID, err)
	}

	destRows, err := r.DB.QueryContext(ctx, `
	SELECT destination_id, route_id, address, dest_type
	FROM destinations
	WHERE route_id = $1
	ORDER BY destination_id;
	`, routeID)
	if err != nil {
		return nil, fmt.Errorf("get route %s: query destinations: %w", routeID, err)
	}
	defer destRows.Close()

	byID := map[string]*domain.Destination{}
	for destRows.Next() {
		d := &domain.Destination{}
		if err := destRows.Scan(&d.ID, &d.RouteID, &d.Address, &d.Type); err != nil {
			return nil, fmt.Errorf("get route %s: scan destination: %w", routeID, err)
		}
		byID[d.ID] = d
		route.Destinations = append(route.Destinations, d)
	}
	if err := destRows.Err(); err != nil {
		return nil, fmt.Errorf("get route %s: destination rows: %w", routeID, err)
	}

	prodRows, err := r.DB.QueryContext(ctx, `
	SELECT dp.destination_product_id, dp.destination_id, dp.product_id, dp.quantity
	FROM destination_products dp
	JOIN destinations d ON d.destination_id = dp.destination_id
	WHERE d.route_id = $1
	ORDER BY dp.destination_product_id;
	`, routeID)
	if err != nil {
		return nil, fmt.Errorf("get route %s: query products: %w", routeID, err)
	}
	defer prodRows.Close()

	for prodRows.Next() {
		p := &domain.DestinationProduct{}
		if err := prodRows.Scan(&p.ID, &p.DestinationID, &p.ProductID, &p.Quantity); err != nil {
			return nil, fmt.Errorf("get route %s: scan product: %w", routeID, err)
		}
		if d, ok := byID[p.DestinationID]; ok {
			d.Products = append(d.Products, p)
		}
	}
	if err := prodRows.Err(); err != nil {
		return nil, fmt.Errorf("get route %s: product rows: %w", routeID, err)
	}

	return route, nil
}

func (r *PostgresRouteRepository) GetByDestination(ctx context.Context, destinationID string) (*domain.Route, error) {
	var routeID string
	err := r.DB.QueryRowContext(ctx, `
	SELECT route_id FROM destinations WHERE destination_id = $1;
	`, destinationID).Scan(&routeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("destination %s: %w", destinationID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("route by destination %s: %w", destinationID, err)
	}
	return r.Get(ctx, routeID)
}

func (r *PostgresRouteRepository) GetByProduct(ctx context.Context, destinationProductID string) (*domain.Route, error) {
	var routeID string
	err := r.DB.QueryRowContext(ctx, `
	SELECT d.route_id
	FROM destination_products dp
	JOIN destinations d ON d.destination_id = dp.destination_id
	WHERE dp.destination_product_id = $1;
	`, destinationProductID).Scan(&routeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("destination product %s: %w", destinationProductID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("route by product %s: %w", destinationProductID, err)
	}
	return r.Get(ctx, routeID)
}

func (r *PostgresRouteRepository) ActiveForTruck(ctx context.Context, truckID string, date time.Time, excludeRouteID string) (bool, error) {
	return r.activeExists(ctx, "truck_id", truckID, date, excludeRouteID)
}

func (r *PostgresRouteRepository) ActiveForUser(ctx context.Context, userID string, date time.Time, excludeRouteID string) (bool, error) {
	return r.activeExists(ctx, "user_id", userID, date, excludeRouteID)
}

// column is one of the two constants above, never caller input.
func (r *PostgresRouteRepository) activeExists(ctx context.Context, column, value string, date time.Time, excludeRouteID string) (bool, error) {
	q := fmt.Sprintf(`
	SELECT EXISTS (
		SELECT 1 FROM routes
		WHERE %s = $1
		  AND route_date = $2
		  AND status <> 'cancelled'
		  AND route_id <> $3
	);
	`, column)

	var exists bool
	if err := r.DB.QueryRowContext(ctx, q, value, domain.DateOnly(date), excludeRouteID).Scan(&exists); err != nil {
		return false, fmt.Errorf("active route for %s=%s: %w", column, value, err)
	}
	return exists, nil
}

func (r *PostgresRouteRepository) UpdateStatus(ctx context.Context, routeID string, status domain.RouteStatus, completedAt *time.Time) error {
	res, err := r.DB.ExecContext(ctx, `
	UPDATE routes SET status = $2, completed_at = COALESCE($3, completed_at)
	WHERE route_id = $1;
	`, routeID, status, completedAt)
	if err != nil {
		return fmt.Errorf("update route %s status: %w", routeID, err)
	}
	return requireRow(res, routeID)
}

func (r *PostgresRouteRepository) UpdateTruck(ctx context.Context, routeID, truckID string) error {
	res, err := r.DB.ExecContext(ctx, `
	UPDATE routes SET truck_id = $2 WHERE route_id = $1;
	`, routeID, truckID)
	if err != nil {
		return fmt.Errorf("update route %s truck: %w", routeID, err)
	}
	return requireRow(res, routeID)
}

func (r *PostgresRouteRepository) AddDestination(ctx context.Context, dest *domain.Destination) error {
	_, err := r.DB.ExecContext(ctx, `
	INSERT INTO destinations (destination_id, route_id, address, dest_type)
	VALUES ($1, $2, $3, $4);
	`, dest.ID, dest.RouteID, dest.Address, dest.Type)
	if err != nil {
		return fmt.Errorf("add destination %s: %w", dest.ID, err)
	}
	return nil
}

func (r *PostgresRouteRepository) RemoveDestinationsByRoute(ctx context.Context, routeID string) error {
	_, err := r.DB.ExecContext(ctx, `
	DELETE FROM destinations WHERE route_id = $1;
	`, routeID)
	if err != nil {
		return fmt.Errorf("remove destinations for route %s: %w", routeID, err)
	}
	return nil
}

func (r *PostgresRouteRepository) AddProduct(ctx context.Context, product *domain.DestinationProduct) error {
	_, err := r.DB.ExecContext(ctx, `
	INSERT INTO destination_products (destination_product_id, destination_id, product_id, quantity)
	VALUES ($1, $2, $3, $4);
	`, product.ID, product.DestinationID, product.ProductID, product.Quantity)
	if err != nil {
		return fmt.Errorf("add destination product %s: %w", product.ID, err)
	}
	return nil
}

func (r *PostgresRouteRepository) RemoveProduct(ctx context.Context, destinationProductID string) error {
	res, err := r.DB.ExecContext(ctx, `
	DELETE FROM destination_products WHERE destination_product_id = $1;
	`, destinationProductID)
	if err != nil {
		return fmt.Errorf("remove destination product %s: %w", destinationProductID, err)
	}
	return requireRow(res, destinationProductID)
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, domain.ErrNotFound)
	}
	return nil
}
