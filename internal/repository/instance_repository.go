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

// InstanceRepository provides data access for coupon instances using pgx.
//
// Every state transition is expressed as a conditional write guarded by its
// precondition (owner match, not redeemed). A concurrent writer that loses
// the race observes zero rows affected instead of corrupting state.
type InstanceRepository struct {
	pool PoolInterface
}

// NewInstanceRepository creates a new InstanceRepository with the given pool.
func NewInstanceRepository(pool *pgxpool.Pool) *InstanceRepository {
	return &InstanceRepository{pool: pool}
}

// NewInstanceRepositoryWithPool creates an InstanceRepository with a custom
// pool interface. This is primarily used for testing.
func NewInstanceRepositoryWithPool(pool PoolInterface) *InstanceRepository {
	return &InstanceRepository{pool: pool}
}

const instanceColumns = `id, offer_id, unique_code, original_recipient_id, current_owner_id, is_redeemed, redeemed_at, transfer_count, created_at`

func scanInstance(row pgx.Row) (*model.CouponInstance, error) {
	var inst model.CouponInstance
	err := row.Scan(
		&inst.ID,
		&inst.OfferID,
		&inst.UniqueCode,
		&inst.OriginalRecipientID,
		&inst.CurrentOwnerID,
		&inst.IsRedeemed,
		&inst.RedeemedAt,
		&inst.TransferCount,
		&inst.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

// InsertPlaceholder inserts an unowned placeholder instance.
// Returns false without error when the unique code already exists, which
// makes re-running a partially failed bulk issuance safe.
func (r *InstanceRepository) InsertPlaceholder(ctx context.Context, id, offerID, uniqueCode string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO coupon_instances (id, offer_id, unique_code) VALUES ($1, $2, $3)
		 ON CONFLICT (unique_code) DO NOTHING`,
		id, offerID, uniqueCode)
	if err != nil {
		return false, fmt.Errorf("insert placeholder: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// InsertOwned inserts an instance already owned by a recipient.
// Returns false without error when the unique code already exists; the
// caller treats that as "the first attempt committed" and fetches the
// existing row.
func (r *InstanceRepository) InsertOwned(ctx context.Context, q database.TxQuerier, id, offerID, uniqueCode, recipientID string) (bool, error) {
	tag, err := q.Exec(ctx,
		`INSERT INTO coupon_instances (id, offer_id, unique_code, original_recipient_id, current_owner_id)
		 VALUES ($1, $2, $3, $4, $4)
		 ON CONFLICT (unique_code) DO NOTHING`,
		id, offerID, uniqueCode, recipientID)
	if err != nil {
		return false, fmt.Errorf("insert owned instance: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetByID retrieves an instance by its id.
// Returns nil, nil if the instance is not found.
func (r *InstanceRepository) GetByID(ctx context.Context, id string) (*model.CouponInstance, error) {
	inst, err := scanInstance(r.pool.QueryRow(ctx,
		`SELECT `+instanceColumns+` FROM coupon_instances WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get instance %s: %w", id, err)
	}
	return inst, nil
}

// GetByCode retrieves an instance by its unique code.
// Returns nil, nil if the instance is not found.
func (r *InstanceRepository) GetByCode(ctx context.Context, uniqueCode string) (*model.CouponInstance, error) {
	inst, err := scanInstance(r.pool.QueryRow(ctx,
		`SELECT `+instanceColumns+` FROM coupon_instances WHERE unique_code = $1`, uniqueCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get instance by code: %w", err)
	}
	return inst, nil
}

// MarkInTransit retires the sharer's instance: owner cleared, transfer count
// incremented. The WHERE clause is the ownership and not-redeemed guard; a
// false return means the precondition no longer holds.
func (r *InstanceRepository) MarkInTransit(ctx context.Context, q database.TxQuerier, id, ownerID string) (bool, error) {
	tag, err := q.Exec(ctx,
		`UPDATE coupon_instances
		 SET current_owner_id = NULL, transfer_count = transfer_count + 1
		 WHERE id = $1 AND current_owner_id = $2 AND is_redeemed = FALSE`,
		id, ownerID)
	if err != nil {
		return false, fmt.Errorf("mark instance %s in transit: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// RestoreOwner undoes MarkInTransit: ownership returns to the sharer and the
// transfer count drops, clamped at zero. Redeemed instances are left alone.
func (r *InstanceRepository) RestoreOwner(ctx context.Context, q database.TxQuerier, id, ownerID string) (bool, error) {
	tag, err := q.Exec(ctx,
		`UPDATE coupon_instances
		 SET current_owner_id = $2, transfer_count = GREATEST(transfer_count - 1, 0)
		 WHERE id = $1 AND is_redeemed = FALSE`,
		id, ownerID)
	if err != nil {
		return false, fmt.Errorf("restore owner of instance %s: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteUnredeemed removes an instance unless it has been redeemed.
// Deleting an already-gone row returns false, nil; callers doing best-effort
// rollback treat that as success.
func (r *InstanceRepository) DeleteUnredeemed(ctx context.Context, q database.TxQuerier, id string) (bool, error) {
	tag, err := q.Exec(ctx,
		`DELETE FROM coupon_instances WHERE id = $1 AND is_redeemed = FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("delete instance %s: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// RedeemByCode performs the check-and-set of redemption as one conditional
// write: the instance must carry the code, belong to the redeeming business,
// be owned (not mid-share) and not already be redeemed. Exactly one of N
// concurrent calls for the same code can see rows-affected = 1.
func (r *InstanceRepository) RedeemByCode(ctx context.Context, uniqueCode, businessID string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE coupon_instances ci
		 SET is_redeemed = TRUE, redeemed_at = NOW()
		 FROM offers o
		 WHERE ci.offer_id = o.id
		   AND ci.unique_code = $1
		   AND o.business_id = $2
		   AND ci.current_owner_id IS NOT NULL
		   AND ci.is_redeemed = FALSE`,
		uniqueCode, businessID)
	if err != nil {
		return false, fmt.Errorf("redeem code: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
