package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"route-scheduling-service/internal/domain"
)

// Postgres-backed implementation of the DonationRepository port.
type PostgresDonationRepository struct{ DB *sql.DB }

func NewPostgresDonationRepository(db *sql.DB) *PostgresDonationRepository {
	return &PostgresDonationRepository{DB: db}
}

func (r *PostgresDonationRepository) Create(ctx context.Context, donation *domain.Donation) error {
	_, err := r.DB.ExecContext(ctx, `
	INSERT INTO donations (donation_id, donor_name, product_id, quantity, route_id, collected, collected_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
	`, donation.ID, donation.DonorName, donation.ProductID, donation.Quantity,
		donation.RouteID, donation.Collected, donation.CollectedAt)
	if err != nil {
		return fmt.Errorf("create donation %s: %w", donation.ID, err)
	}
	return nil
}

func (r *PostgresDonationRepository) Get(ctx context.Context, donationID string) (*domain.Donation, error) {
	donation := &domain.Donation{}
	err := r.DB.QueryRowContext(ctx, `
	SELECT donation_id, donor_name, product_id, quantity, route_id, collected, collected_at
	FROM donations
	WHERE donation_id = $1;
	`, donationID).Scan(&donation.ID, &donation.DonorName, &donation.ProductID,
		&donation.Quantity, &donation.RouteID, &donation.Collected, &donation.CollectedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("donation %s: %w", donationID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get donation %s: %w", donationID, err)
	}
	return donation, nil
}

func (r *PostgresDonationRepository) ListByRoute(ctx context.Context, routeID string) ([]*domain.Donation, error) {
	rows, err := r.DB.QueryContext(ctx, `
	SELECT donation_id, donor_name, product_id, quantity, route_id, collected, collected_at
	FROM donations
	WHERE route_id = $1
	ORDER BY donation_id;
	`, routeID)
	if err != nil {
		return nil, fmt.Errorf("list donations for route %s: %w", routeID, err)
	}
	defer rows.Close()

	var out []*domain.Donation
	for rows.Next() {
		donation := &domain.Donation{}
		if err := rows.Scan(&donation.ID, &donation.DonorName, &donation.ProductID,
			&donation.Quantity, &donation.RouteID, &donation.Collected, &donation.CollectedAt); err != nil {
			return nil, fmt.Errorf("list donations for route %s: scan: %w", routeID, err)
		}
		out = append(out, donation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list donations for route %s: rows: %w", routeID, err)
	}
	return out, nil
}

func (r *PostgresDonationRepository) Update(ctx context.Context, donation *domain.Donation) error {
	res, err := r.DB.ExecContext(ctx, `
	UPDATE donations
	SET route_id = $2, collected = $3, collected_at = $4
	WHERE donation_id = $1;
	`, donation.ID, donation.RouteID, donation.Collected, donation.CollectedAt)
	if err != nil {
		return fmt.Errorf("update donation %s: %w", donation.ID, err)
	}
	return requireRow(res, donation.ID)
}
