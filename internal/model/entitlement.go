package model

import "time"

// Offer is a business's coupon template. Offers are authored elsewhere;
// this service only reads them to authorize issuance and redemption.
type Offer struct {
	ID            string     `json:"id"`
	BusinessID    string     `json:"business_id"`
	Title         string     `json:"title"`
	TotalQuantity *int       `json:"total_quantity"` // nil = unlimited; informational, not an enforced cap
	CostPerCoupon float64    `json:"cost_per_coupon"`
	Value         *float64   `json:"value"`
	Terms         string     `json:"terms"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	CreatedAt     time.Time  `json:"-"`
}

// CouponInstance is one redeemable token derived from an Offer.
//
// CurrentOwnerID carries the state machine: nil on a never-collected
// placeholder, nil on an instance mid-share (paired with a live
// ShareRecord), otherwise the owning user.
type CouponInstance struct {
	ID                  string     `json:"id"`
	OfferID             string     `json:"offer_id"`
	UniqueCode          string     `json:"unique_code"`
	OriginalRecipientID *string    `json:"original_recipient_id"`
	CurrentOwnerID      *string    `json:"current_owner_id"`
	IsRedeemed          bool       `json:"is_redeemed"`
	RedeemedAt          *time.Time `json:"redeemed_at"`
	TransferCount       int        `json:"transfer_count"`
	CreatedAt           time.Time  `json:"-"`
}

// ShareRecord is the undo/audit record of one ownership transfer.
// It lives exactly as long as the transfer is reversible.
type ShareRecord struct {
	ID                 string    `json:"id"`
	OriginalInstanceID string    `json:"original_instance_id"`
	SharerUserID       string    `json:"sharer_user_id"`
	ReceiverUserID     string    `json:"receiver_user_id"`
	NewInstanceID      string    `json:"new_instance_id"`
	CreatedAt          time.Time `json:"-"`
}

// CollectCouponRequest is the DTO for POST /users/:userId/coupons/collect
type CollectCouponRequest struct {
	CouponID string `json:"coupon_id" validate:"required,notblank,max=64"`
}

// CollectCouponResponse is returned after a successful collect.
type CollectCouponResponse struct {
	OK         bool   `json:"ok"`
	UserID     string `json:"userId"`
	CouponID   string `json:"coupon_id"`
	UniqueCode string `json:"unique_code"`
}

// ShareCouponRequest is the DTO for POST /users/:userId/coupons/:couponId/share
type ShareCouponRequest struct {
	ReceiverUserID string `json:"receiver_user_id" validate:"required,notblank,max=64"`
}

// ShareCouponResponse is returned after a successful share.
type ShareCouponResponse struct {
	OK              bool   `json:"ok"`
	ShareID         string `json:"share_id"`
	NewUserCouponID string `json:"new_user_coupon_id"`
	UniqueCode      string `json:"unique_code"`
}

// RedeemCouponRequest is the DTO for POST /business/:businessId/redeem
type RedeemCouponRequest struct {
	UniqueCode string `json:"unique_code" validate:"required,notblank,max=128"`
}

// GenerateCouponsRequest is the DTO for POST /business/offers/:offerId/coupons
// TotalQuantity is optional; when omitted the offer's own total_quantity is used.
type GenerateCouponsRequest struct {
	TotalQuantity *int `json:"total_quantity" validate:"omitempty,gte=0"`
}

// GenerateCouponsResponse reports how many placeholder instances were created.
type GenerateCouponsResponse struct {
	OK        bool `json:"ok"`
	Generated int  `json:"generated"`
}

// IssueTargetedRequest is the DTO for POST /business/coupons/issue-targeted
type IssueTargetedRequest struct {
	CouponID         string         `json:"coupon_id" validate:"required,notblank,max=64"`
	TargetParameters map[string]any `json:"target_parameters"`
}

// IssueTargetedResponse reports the fan-out result of a targeted issuance.
type IssueTargetedResponse struct {
	OK               bool           `json:"ok"`
	IssuedCount      int            `json:"issued_count"`
	TargetParameters map[string]any `json:"target_parameters"`
}
