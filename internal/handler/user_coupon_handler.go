package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/umamaheshmadala/sync-coupon-core/internal/auth"
	"github.com/umamaheshmadala/sync-coupon-core/internal/model"
	"github.com/umamaheshmadala/sync-coupon-core/internal/service"
)

// UserCouponServiceInterface defines the entitlement operations reachable
// from user-facing endpoints.
type UserCouponServiceInterface interface {
	IssueDirect(ctx context.Context, offerID, recipientID, idemKey string) (*model.CouponInstance, error)
	Share(ctx context.Context, instanceID, sharerID, receiverID string) (*model.ShareRecord, *model.CouponInstance, error)
	CancelShare(ctx context.Context, shareID, requesterID string) error
}

// UserCouponHandler handles collect, share and cancel-share requests.
type UserCouponHandler struct {
	service   UserCouponServiceInterface
	validator *validator.Validate
}

// NewUserCouponHandler creates a new UserCouponHandler.
func NewUserCouponHandler(svc UserCouponServiceInterface, v *validator.Validate) *UserCouponHandler {
	return &UserCouponHandler{service: svc, validator: v}
}

// callerForPath returns the authenticated identity, enforcing that the
// :userId path segment names the caller. Responds 401/403 itself and
// returns ok=false when the request must not proceed.
func callerForPath(c *fiber.Ctx) (*auth.Identity, bool) {
	ident, ok := auth.FromContext(c)
	if !ok {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"ok": false, "error": "unauthorized"})
		return nil, false
	}
	if c.Params("userId") != ident.UserID {
		_ = c.Status(fiber.StatusForbidden).JSON(fiber.Map{"ok": false, "error": "cannot act on another user"})
		return nil, false
	}
	return ident, true
}

// CollectCoupon handles POST /users/:userId/coupons/collect.
func (h *UserCouponHandler) CollectCoupon(c *fiber.Ctx) error {
	ident, ok := callerForPath(c)
	if !ok {
		return nil
	}

	var req model.CollectCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": formatValidationError(err)})
	}

	inst, err := h.service.IssueDirect(c.Context(), req.CouponID, ident.UserID, c.Get("Idempotency-Key"))
	if err != nil {
		if errors.Is(err, service.ErrOfferNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "offer not found"})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("user_id", ident.UserID).
			Str("coupon_id", req.CouponID).
			Msg("failed to collect coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "internal server error"})
	}

	return c.JSON(model.CollectCouponResponse{
		OK:         true,
		UserID:     ident.UserID,
		CouponID:   req.CouponID,
		UniqueCode: inst.UniqueCode,
	})
}

// ShareCoupon handles POST /users/:userId/coupons/:couponId/share.
func (h *UserCouponHandler) ShareCoupon(c *fiber.Ctx) error {
	ident, ok := callerForPath(c)
	if !ok {
		return nil
	}
	instanceID := c.Params("couponId")

	var req model.ShareCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": formatValidationError(err)})
	}

	rec, newInst, err := h.service.Share(c.Context(), instanceID, ident.UserID, req.ReceiverUserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInstanceNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"ok": false, "error": "coupon not found"})
		case errors.Is(err, service.ErrNotOwned):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"ok": false, "error": "coupon not owned by user"})
		case errors.Is(err, service.ErrAlreadyRedeemed):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"ok": false, "error": "coupon already redeemed"})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("user_id", ident.UserID).
			Str("coupon_instance_id", instanceID).
			Str("receiver_user_id", req.ReceiverUserID).
			Msg("failed to share coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "internal server error"})
	}

	log.Info().
		Str("share_id", rec.ID).
		Str("sharer_user_id", ident.UserID).
		Str("receiver_user_id", req.ReceiverUserID).
		Msg("coupon shared")

	return c.JSON(model.ShareCouponResponse{
		OK:              true,
		ShareID:         rec.ID,
		NewUserCouponID: newInst.ID,
		UniqueCode:      newInst.UniqueCode,
	})
}

// CancelShare handles POST /users/:userId/coupons/shared/:shareId/cancel.
func (h *UserCouponHandler) CancelShare(c *fiber.Ctx) error {
	ident, ok := callerForPath(c)
	if !ok {
		return nil
	}
	shareID := c.Params("shareId")

	if err := h.service.CancelShare(c.Context(), shareID, ident.UserID); err != nil {
		switch {
		case errors.Is(err, service.ErrShareNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"ok": false, "error": "share not found"})
		case errors.Is(err, service.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"ok": false, "error": "only the sharer may cancel"})
		case errors.Is(err, service.ErrAlreadyRedeemed):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"ok": false, "error": "shared coupon already redeemed"})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("user_id", ident.UserID).
			Str("share_id", shareID).
			Msg("failed to cancel share")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "internal server error"})
	}

	return c.JSON(fiber.Map{"ok": true})
}
