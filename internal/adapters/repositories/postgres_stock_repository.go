package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"route-scheduling-service/internal/domain"
)

// Postgres-backed implementation of the StockRepository port.
type PostgresStockRepository struct{ DB *sql.DB }

func NewPostgresStockRepository(db *sql.DB) *PostgresStockRepository {
	return &PostgresStockRepository{DB: db}
}

func (r *PostgresStockRepository) Get(ctx context.Context, productID, zone string) (*domain.StockEntry, error) {
	entry := &domain.StockEntry{}
	err := r.DB.QueryRowContext(ctx, `
	SELECT product_id, zone, on_hand
	FROM stock_entries
	WHERE product_id = $1 AND zone = $2;
	`, productID, zone).Scan(&entry.ProductID, &entry.Zone, &entry.OnHand)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stock %s in %s: %w", productID, zone, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get stock %s in %s: %w", productID, zone, err)
	}
	return entry, nil
}

// ListZones returns zones in ascending order; the ledger's multi-zone
// allocation depends on this being deterministic.
func (r *PostgresStockRepository) ListZones(ctx context.Context, productID string) ([]*domain.StockEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `
	SELECT product_id, zone, on_hand
	FROM stock_entries
	WHERE product_id = $1
	ORDER BY zone ASC;
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("list zones for %s: %w", productID, err)
	}
	defer rows.Close()

	var out []*domain.StockEntry
	for rows.Next() {
		entry := &domain.StockEntry{}
		if err := rows.Scan(&entry.ProductID, &entry.Zone, &entry.OnHand); err != nil {
			return nil, fmt.Errorf("list zones for %s: scan: %w", productID, err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list zones for %s: rows: %w", productID, err)
	}
	return out, nil
}

func (r *PostgresStockRepository) Upsert(ctx context.Context, entry *domain.StockEntry) error {
	if entry.OnHand < 0 {
		return fmt.Errorf("upsert stock %s in %s: negative on-hand %d: %w",
			entry.ProductID, entry.Zone, entry.OnHand, domain.ErrInvalidArgument)
	}

	_, err := r.DB.ExecContext(ctx, `
	INSERT INTO stock_entries (product_id, zone, on_hand)
	VALUES ($1, $2, $3)
	ON CONFLICT (product_id, zone) DO UPDATE SET on_hand = EXCLUDED.on_hand;
	`, entry.ProductID, entry.Zone, entry.OnHand)
	if err != nil {
		return fmt.Errorf("upsert stock %s in %s: %w", entry.ProductID, entry.Zone, err)
	}
	return nil
}
