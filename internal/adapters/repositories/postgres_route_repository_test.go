package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"route-scheduling-service/internal/domain"
)

func TestPostgresRouteRepositoryActiveForTruck(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRouteRepository(db)
	date := time.Date(2026, 9, 14, 15, 30, 0, 0, time.UTC)

	// Timestamps normalize to midnight so bookings compare by calendar day.
	mock.ExpectQuery("truck_id = \\$1").
		WithArgs("truck-1", domain.DateOnly(date), "").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	booked, err := repo.ActiveForTruck(context.Background(), "truck-1", date, "")
	require.NoError(t, err)
	require.True(t, booked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRouteRepositoryActiveForUserExcludesRoute(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRouteRepository(db)
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("user_id = \\$1").
		WithArgs("user-1", date, "route-9").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	booked, err := repo.ActiveForUser(context.Background(), "user-1", date, "route-9")
	require.NoError(t, err)
	require.False(t, booked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRouteRepositoryUpdateStatusNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRouteRepository(db)

	mock.ExpectExec("UPDATE routes SET status").
		WithArgs("ghost", domain.RouteCancelled, nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateStatus(context.Background(), "ghost", domain.RouteCancelled, nil)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRouteRepositoryGetAssemblesAggregate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRouteRepository(db)
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM routes").
		WithArgs("route-1").
		WillReturnRows(sqlmock.NewRows([]string{"route_id", "route_date", "route_type", "status", "truck_id", "user_id", "completed_at"}).
			AddRow("route-1", date, "distribute", "planned", "truck-1", "user-1", nil))
	mock.ExpectQuery("FROM destinations").
		WithArgs("route-1").
		WillReturnRows(sqlmock.NewRows([]string{"destination_id", "route_id", "address", "dest_type"}).
			AddRow("dest-1", "route-1", "12 Main St", "distribute"))
	mock.ExpectQuery("FROM destination_products").
		WithArgs("route-1").
		WillReturnRows(sqlmock.NewRows([]string{"destination_product_id", "destination_id", "product_id", "quantity"}).
			AddRow("dp-1", "dest-1", "rice", 6))

	route, err := repo.Get(context.Background(), "route-1")
	require.NoError(t, err)
	require.Equal(t, "route-1", route.ID)
	require.Len(t, route.Destinations, 1)
	require.Len(t, route.Destinations[0].Products, 1)
	require.Equal(t, 6, route.TotalQuantity())
	require.NoError(t, mock.ExpectationsWereMet())
}
