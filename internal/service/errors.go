package service

import "errors"

var (
	// ErrOfferNotFound is returned when the referenced offer does not exist
	ErrOfferNotFound = errors.New("offer not found")

	// ErrInstanceNotFound is returned when a coupon instance cannot be found
	ErrInstanceNotFound = errors.New("coupon not found")

	// ErrShareNotFound is returned when a share record cannot be found
	ErrShareNotFound = errors.New("share not found")

	// ErrNotOwned is returned when the caller does not currently own the instance
	ErrNotOwned = errors.New("coupon not owned by user")

	// ErrForbidden is returned when the caller lacks rights over the target resource
	ErrForbidden = errors.New("operation forbidden")

	// ErrAlreadyRedeemed is returned when an instance has already been consumed
	ErrAlreadyRedeemed = errors.New("coupon already redeemed")

	// ErrBusinessMismatch is returned when a business redeems another business's coupon
	ErrBusinessMismatch = errors.New("coupon belongs to a different business")

	// ErrInTransit is returned when an instance is mid-share and owner-only
	// operations must reject it until the transfer settles or is cancelled
	ErrInTransit = errors.New("coupon is being transferred")

	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")
)
