package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/umamaheshmadala/sync-coupon-core/internal/model"
	"github.com/umamaheshmadala/sync-coupon-core/pkg/database"
)

// OfferRepositoryInterface defines the interface for offer data access.
type OfferRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*model.Offer, error)
}

// InstanceRepositoryInterface defines the interface for coupon instance data access.
type InstanceRepositoryInterface interface {
	InsertPlaceholder(ctx context.Context, id, offerID, uniqueCode string) (bool, error)
	InsertOwned(ctx context.Context, q database.TxQuerier, id, offerID, uniqueCode, recipientID string) (bool, error)
	GetByID(ctx context.Context, id string) (*model.CouponInstance, error)
	GetByCode(ctx context.Context, uniqueCode string) (*model.CouponInstance, error)
	MarkInTransit(ctx context.Context, q database.TxQuerier, id, ownerID string) (bool, error)
	RestoreOwner(ctx context.Context, q database.TxQuerier, id, ownerID string) (bool, error)
	DeleteUnredeemed(ctx context.Context, q database.TxQuerier, id string) (bool, error)
	RedeemByCode(ctx context.Context, uniqueCode, businessID string) (bool, error)
}

// ShareRepositoryInterface defines the interface for share record data access.
type ShareRepositoryInterface interface {
	Insert(ctx context.Context, q database.TxQuerier, rec *model.ShareRecord) error
	GetByID(ctx context.Context, id string) (*model.ShareRecord, error)
	GetLiveByTransfer(ctx context.Context, originalInstanceID, sharerID, receiverID string) (*model.ShareRecord, error)
	Delete(ctx context.Context, q database.TxQuerier, id string) (bool, error)
}

// FollowerRepositoryInterface defines the interface for follower list access.
type FollowerRepositoryInterface interface {
	GetFollowers(ctx context.Context, businessID string) ([]string, error)
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// EntitlementService owns the Offer -> CouponInstance -> ShareRecord
// lifecycle and all of its transition rules.
type EntitlementService struct {
	txer         TxBeginner
	db           database.TxQuerier
	offerRepo    OfferRepositoryInterface
	instanceRepo InstanceRepositoryInterface
	shareRepo    ShareRepositoryInterface
	followerRepo FollowerRepositoryInterface
}

// NewEntitlementService creates an EntitlementService backed by the pool.
func NewEntitlementService(pool *pgxpool.Pool, offerRepo OfferRepositoryInterface, instanceRepo InstanceRepositoryInterface, shareRepo ShareRepositoryInterface, followerRepo FollowerRepositoryInterface) *EntitlementService {
	return &EntitlementService{
		txer:         pool,
		db:           pool,
		offerRepo:    offerRepo,
		instanceRepo: instanceRepo,
		shareRepo:    shareRepo,
		followerRepo: followerRepo,
	}
}

// NewEntitlementServiceWithDB creates an EntitlementService with custom
// transaction and querier implementations. Primarily used for testing.
func NewEntitlementServiceWithDB(txer TxBeginner, db database.TxQuerier, offerRepo OfferRepositoryInterface, instanceRepo InstanceRepositoryInterface, shareRepo ShareRepositoryInterface, followerRepo FollowerRepositoryInterface) *EntitlementService {
	return &EntitlementService{
		txer:         txer,
		db:           db,
		offerRepo:    offerRepo,
		instanceRepo: instanceRepo,
		shareRepo:    shareRepo,
		followerRepo: followerRepo,
	}
}

// IssuePlaceholders bulk-creates unowned placeholder instances for an offer.
// Only the offer's business or a platform admin may issue.
//
// Codes are derived from the offer and the ordinals 0..count-1, and each
// insert skips codes that already exist, so a re-run after a partial failure
// tops the offer up to count instead of duplicating it. Returns the number
// of rows actually created.
func (s *EntitlementService) IssuePlaceholders(ctx context.Context, offerID string, count *int, callerBusinessID string, isAdmin bool) (int, error) {
	offer, err := s.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return 0, fmt.Errorf("get offer: %w", err)
	}
	if offer == nil {
		return 0, ErrOfferNotFound
	}
	if !isAdmin && offer.BusinessID != callerBusinessID {
		return 0, ErrForbidden
	}

	if count == nil {
		count = offer.TotalQuantity
	}
	if count == nil || *count < 0 {
		return 0, ErrInvalidRequest
	}

	created := 0
	for i := 0; i < *count; i++ {
		code := placeholderCode(offerID, i)
		inserted, err := s.instanceRepo.InsertPlaceholder(ctx, uuid.NewString(), offerID, code)
		if err != nil {
			return created, fmt.Errorf("issue placeholder %d: %w", i, err)
		}
		if inserted {
			created++
		}
	}
	return created, nil
}

// directInsertAttempts bounds how often a fresh code is re-minted when an
// insert loses to an existing unique code.
const directInsertAttempts = 3

// IssueDirect creates one instance already owned by the recipient. It backs
// both the self-service collect flow and targeted issuance.
//
// When idemKey is non-empty the unique code is derived from
// (offer, recipient, key), so a retried call whose first attempt committed
// finds the code taken and returns the existing instance instead of
// duplicating it. Without a key a code conflict just means an unlucky
// collision, and a fresh code is minted.
func (s *EntitlementService) IssueDirect(ctx context.Context, offerID, recipientID, idemKey string) (*model.CouponInstance, error) {
	offer, err := s.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("get offer: %w", err)
	}
	if offer == nil {
		return nil, ErrOfferNotFound
	}

	if idemKey == "" {
		return s.issueFresh(ctx, offerID, recipientID)
	}

	code := idempotentCode(offerID, recipientID, idemKey)
	id := uuid.NewString()
	inserted, err := s.instanceRepo.InsertOwned(ctx, s.db, id, offerID, code, recipientID)
	if err != nil {
		return nil, fmt.Errorf("issue direct: %w", err)
	}
	if !inserted {
		// The code is taken, which means this exact request committed
		// before. Verify that before handing the row back: a row minted for
		// anyone else must never be returned here.
		existing, err := s.instanceRepo.GetByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("fetch existing instance: %w", err)
		}
		if existing == nil {
			return nil, fmt.Errorf("issue direct: code %s conflicted but is gone", code)
		}
		if existing.OfferID != offerID ||
			existing.OriginalRecipientID == nil || *existing.OriginalRecipientID != recipientID {
			return nil, fmt.Errorf("issue direct: code %s belongs to a different issuance", code)
		}
		return existing, nil
	}

	return &model.CouponInstance{
		ID:                  id,
		OfferID:             offerID,
		UniqueCode:          code,
		OriginalRecipientID: &recipientID,
		CurrentOwnerID:      &recipientID,
	}, nil
}

// issueFresh inserts an instance under a newly minted code, re-minting on a
// unique-code collision. Collisions are possible when several server
// instances issue for one offer in the same millisecond.
func (s *EntitlementService) issueFresh(ctx context.Context, offerID, recipientID string) (*model.CouponInstance, error) {
	for attempt := 0; attempt < directInsertAttempts; attempt++ {
		id := uuid.NewString()
		code := directCode(offerID, time.Now())
		inserted, err := s.instanceRepo.InsertOwned(ctx, s.db, id, offerID, code, recipientID)
		if err != nil {
			return nil, fmt.Errorf("issue direct: %w", err)
		}
		if inserted {
			return &model.CouponInstance{
				ID:                  id,
				OfferID:             offerID,
				UniqueCode:          code,
				OriginalRecipientID: &recipientID,
				CurrentOwnerID:      &recipientID,
			}, nil
		}
	}
	return nil, fmt.Errorf("issue direct: code collisions persisted across %d attempts", directInsertAttempts)
}

// Share transfers ownership of an instance from sharer to receiver.
//
// The three-part effect (create the receiver's instance, record the share,
// retire the original) runs in one transaction. The final update carries the
// ownership guard; losing a concurrent race rolls the whole thing back.
func (s *EntitlementService) Share(ctx context.Context, instanceID, sharerID, receiverID string) (*model.ShareRecord, *model.CouponInstance, error) {
	orig, err := s.instanceRepo.GetByID(ctx, instanceID)
	if err != nil {
		return nil, nil, fmt.Errorf("get instance: %w", err)
	}
	if orig == nil {
		return nil, nil, ErrInstanceNotFound
	}
	if orig.IsRedeemed {
		return nil, nil, ErrAlreadyRedeemed
	}
	if orig.CurrentOwnerID == nil || *orig.CurrentOwnerID != sharerID {
		// An in-transit original with a live record for this exact transfer
		// means a previous attempt committed; replay its result.
		if orig.CurrentOwnerID == nil {
			if rec, err := s.shareRepo.GetLiveByTransfer(ctx, instanceID, sharerID, receiverID); err != nil {
				return nil, nil, fmt.Errorf("check prior share: %w", err)
			} else if rec != nil {
				newInst, err := s.instanceRepo.GetByID(ctx, rec.NewInstanceID)
				if err != nil {
					return nil, nil, fmt.Errorf("get shared instance: %w", err)
				}
				if newInst != nil {
					return rec, newInst, nil
				}
			}
		}
		return nil, nil, ErrNotOwned
	}

	tx, err := s.txer.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	newID := uuid.NewString()
	code := shareCode(orig.OfferID)
	inserted, err := s.instanceRepo.InsertOwned(ctx, tx, newID, orig.OfferID, code, receiverID)
	if err != nil {
		return nil, nil, fmt.Errorf("create shared instance: %w", err)
	}
	if !inserted {
		return nil, nil, fmt.Errorf("create shared instance: code collision on %s", code)
	}

	rec := &model.ShareRecord{
		ID:                 uuid.NewString(),
		OriginalInstanceID: instanceID,
		SharerUserID:       sharerID,
		ReceiverUserID:     receiverID,
		NewInstanceID:      newID,
	}
	if err := s.shareRepo.Insert(ctx, tx, rec); err != nil {
		return nil, nil, fmt.Errorf("record share: %w", err)
	}

	retired, err := s.instanceRepo.MarkInTransit(ctx, tx, instanceID, sharerID)
	if err != nil {
		return nil, nil, fmt.Errorf("retire original instance: %w", err)
	}
	if !retired {
		// Lost a race since the precheck; the rollback undoes steps 1-2.
		current, err := s.instanceRepo.GetByID(ctx, instanceID)
		if err != nil {
			return nil, nil, fmt.Errorf("diagnose failed share: %w", err)
		}
		switch {
		case current == nil:
			return nil, nil, ErrInstanceNotFound
		case current.IsRedeemed:
			return nil, nil, ErrAlreadyRedeemed
		default:
			return nil, nil, ErrNotOwned
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit share: %w", err)
	}

	newInst := &model.CouponInstance{
		ID:                  newID,
		OfferID:             orig.OfferID,
		UniqueCode:          code,
		OriginalRecipientID: &receiverID,
		CurrentOwnerID:      &receiverID,
	}
	return rec, newInst, nil
}

// CancelShare undoes a share: the receiver's instance is removed, ownership
// returns to the sharer, and the share record is dropped.
//
// Only the original sharer may cancel, and never after the shared instance
// has been redeemed. The steps are idempotent by construction (conditional
// delete, guarded restore, tolerated missing rows) so a retry after a
// partial failure converges instead of erroring.
func (s *EntitlementService) CancelShare(ctx context.Context, shareID, requesterID string) error {
	rec, err := s.shareRepo.GetByID(ctx, shareID)
	if err != nil {
		return fmt.Errorf("get share record: %w", err)
	}
	if rec == nil {
		return ErrShareNotFound
	}
	if rec.SharerUserID != requesterID {
		return ErrForbidden
	}

	shared, err := s.instanceRepo.GetByID(ctx, rec.NewInstanceID)
	if err != nil {
		return fmt.Errorf("get shared instance: %w", err)
	}
	if shared != nil && shared.IsRedeemed {
		return ErrAlreadyRedeemed
	}

	// Best-effort removal: the guarded delete refuses redeemed rows and an
	// already-gone row counts as done.
	if _, err := s.instanceRepo.DeleteUnredeemed(ctx, s.db, rec.NewInstanceID); err != nil {
		return fmt.Errorf("delete shared instance: %w", err)
	}

	if _, err := s.instanceRepo.RestoreOwner(ctx, s.db, rec.OriginalInstanceID, rec.SharerUserID); err != nil {
		return fmt.Errorf("restore original owner: %w", err)
	}

	if _, err := s.shareRepo.Delete(ctx, s.db, rec.ID); err != nil {
		return fmt.Errorf("delete share record: %w", err)
	}
	return nil
}

// Redeem terminally consumes the instance carrying uniqueCode on behalf of
// the issuing business. The check and the set are one conditional write;
// of N concurrent redemptions of the same code exactly one succeeds and the
// rest diagnose a conflict.
func (s *EntitlementService) Redeem(ctx context.Context, uniqueCode, businessID string) error {
	ok, err := s.instanceRepo.RedeemByCode(ctx, uniqueCode, businessID)
	if err != nil {
		return fmt.Errorf("redeem: %w", err)
	}
	if ok {
		return nil
	}

	// Zero rows affected: work out which precondition failed.
	inst, err := s.instanceRepo.GetByCode(ctx, uniqueCode)
	if err != nil {
		return fmt.Errorf("diagnose failed redeem: %w", err)
	}
	if inst == nil {
		return ErrInstanceNotFound
	}
	offer, err := s.offerRepo.GetByID(ctx, inst.OfferID)
	if err != nil {
		return fmt.Errorf("get offer: %w", err)
	}
	if offer != nil && offer.BusinessID != businessID {
		return ErrBusinessMismatch
	}
	if inst.IsRedeemed {
		return ErrAlreadyRedeemed
	}
	if inst.CurrentOwnerID == nil {
		return ErrInTransit
	}
	// The instance became redeemable between the write and the diagnosis;
	// the client should simply retry.
	return fmt.Errorf("redeem: transient precondition failure for code %s", uniqueCode)
}

// IssueTargeted issues one instance of the offer to every follower of the
// offer's business. Returns the number issued.
func (s *EntitlementService) IssueTargeted(ctx context.Context, offerID string) (int, error) {
	offer, err := s.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return 0, fmt.Errorf("get offer: %w", err)
	}
	if offer == nil {
		return 0, ErrOfferNotFound
	}

	followers, err := s.followerRepo.GetFollowers(ctx, offer.BusinessID)
	if err != nil {
		return 0, fmt.Errorf("get followers: %w", err)
	}

	issued := 0
	for _, userID := range followers {
		if _, err := s.issueFresh(ctx, offerID, userID); err != nil {
			return issued, fmt.Errorf("issue to follower %s: %w", userID, err)
		}
		issued++
	}
	return issued, nil
}
