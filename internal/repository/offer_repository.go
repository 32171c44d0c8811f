package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/umamaheshmadala/sync-coupon-core/internal/model"
)

// PoolInterface defines the database operations needed by repositories.
// This allows for easier testing with mocks.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// OfferRepository provides read access to offers using pgx.
// Offer authoring happens outside this service; nothing here writes.
type OfferRepository struct {
	pool PoolInterface
}

// NewOfferRepository creates a new OfferRepository with the given pool.
func NewOfferRepository(pool *pgxpool.Pool) *OfferRepository {
	return &OfferRepository{pool: pool}
}

// NewOfferRepositoryWithPool creates an OfferRepository with a custom pool
// interface. This is primarily used for testing.
func NewOfferRepositoryWithPool(pool PoolInterface) *OfferRepository {
	return &OfferRepository{pool: pool}
}

// GetByID retrieves an offer by its id.
// Returns nil, nil if the offer is not found (service layer handles this).
func (r *OfferRepository) GetByID(ctx context.Context, id string) (*model.Offer, error) {
	query := `SELECT id, business_id, title, total_quantity, cost_per_coupon, value, terms, start_date, end_date, created_at
	          FROM offers WHERE id = $1`

	var offer model.Offer
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&offer.ID,
		&offer.BusinessID,
		&offer.Title,
		&offer.TotalQuantity,
		&offer.CostPerCoupon,
		&offer.Value,
		&offer.Terms,
		&offer.StartDate,
		&offer.EndDate,
		&offer.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found - let service handle
		}
		return nil, fmt.Errorf("get offer %s: %w", id, err)
	}
	return &offer, nil
}
