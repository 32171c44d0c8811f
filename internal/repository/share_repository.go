package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/umamaheshmadala/sync-coupon-core/internal/model"
	"github.com/umamaheshmadala/sync-coupon-core/pkg/database"
)

// ShareRepository provides data access for share records using pgx.
type ShareRepository struct {
	pool PoolInterface
}

// NewShareRepository creates a new ShareRepository with the given pool.
func NewShareRepository(pool *pgxpool.Pool) *ShareRepository {
	return &ShareRepository{pool: pool}
}

// NewShareRepositoryWithPool creates a ShareRepository with a custom pool
// interface. This is primarily used for testing.
func NewShareRepositoryWithPool(pool PoolInterface) *ShareRepository {
	return &ShareRepository{pool: pool}
}

// Insert inserts a share record within the share transaction.
func (r *ShareRepository) Insert(ctx context.Context, q database.TxQuerier, rec *model.ShareRecord) error {
	_, err := q.Exec(ctx,
		`INSERT INTO share_records (id, original_instance_id, sharer_user_id, receiver_user_id, new_instance_id)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.OriginalInstanceID, rec.SharerUserID, rec.ReceiverUserID, rec.NewInstanceID)
	if err != nil {
		return fmt.Errorf("insert share record: %w", err)
	}
	return nil
}

// GetByID retrieves a share record by its id.
// Returns nil, nil if the record is not found.
func (r *ShareRepository) GetByID(ctx context.Context, id string) (*model.ShareRecord, error) {
	var rec model.ShareRecord
	err := r.pool.QueryRow(ctx,
		`SELECT id, original_instance_id, sharer_user_id, receiver_user_id, new_instance_id, created_at
		 FROM share_records WHERE id = $1`, id).Scan(
		&rec.ID,
		&rec.OriginalInstanceID,
		&rec.SharerUserID,
		&rec.ReceiverUserID,
		&rec.NewInstanceID,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get share record %s: %w", id, err)
	}
	return &rec, nil
}

// GetLiveByTransfer finds the share record for an (instance, sharer,
// receiver) triple. A retried share uses this to detect that the first
// attempt already committed.
func (r *ShareRepository) GetLiveByTransfer(ctx context.Context, originalInstanceID, sharerID, receiverID string) (*model.ShareRecord, error) {
	var rec model.ShareRecord
	err := r.pool.QueryRow(ctx,
		`SELECT id, original_instance_id, sharer_user_id, receiver_user_id, new_instance_id, created_at
		 FROM share_records
		 WHERE original_instance_id = $1 AND sharer_user_id = $2 AND receiver_user_id = $3
		 ORDER BY created_at DESC
		 LIMIT 1`,
		originalInstanceID, sharerID, receiverID).Scan(
		&rec.ID,
		&rec.OriginalInstanceID,
		&rec.SharerUserID,
		&rec.ReceiverUserID,
		&rec.NewInstanceID,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get share record by transfer: %w", err)
	}
	return &rec, nil
}

// Delete removes a share record. Deleting an already-gone record returns
// false, nil; cancellation treats that as success.
func (r *ShareRepository) Delete(ctx context.Context, q database.TxQuerier, id string) (bool, error) {
	tag, err := q.Exec(ctx, `DELETE FROM share_records WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete share record %s: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}
