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

// BusinessServiceInterface defines the entitlement operations reachable from
// business-facing endpoints.
type BusinessServiceInterface interface {
	Redeem(ctx context.Context, uniqueCode, businessID string) error
	IssuePlaceholders(ctx context.Context, offerID string, count *int, callerBusinessID string, isAdmin bool) (int, error)
	IssueTargeted(ctx context.Context, offerID string) (int, error)
}

// BusinessHandler handles redemption and issuance requests.
type BusinessHandler struct {
	service   BusinessServiceInterface
	validator *validator.Validate
}

// NewBusinessHandler creates a new BusinessHandler.
func NewBusinessHandler(svc BusinessServiceInterface, v *validator.Validate) *BusinessHandler {
	return &BusinessHandler{service: svc, validator: v}
}

// RedeemCoupon handles POST /business/:businessId/redeem.
func (h *BusinessHandler) RedeemCoupon(c *fiber.Ctx) error {
	ident, ok := auth.FromContext(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"ok": false, "error": "unauthorized"})
	}
	businessID := c.Params("businessId")
	if !ident.IsAdmin && ident.BusinessID != businessID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"ok": false, "error": "cannot redeem for another business"})
	}

	var req model.RedeemCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": formatValidationError(err)})
	}

	if err := h.service.Redeem(c.Context(), req.UniqueCode, businessID); err != nil {
		switch {
		case errors.Is(err, service.ErrInstanceNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"ok": false, "error": "coupon not found"})
		case errors.Is(err, service.ErrBusinessMismatch):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"ok": false, "error": "coupon belongs to a different business"})
		case errors.Is(err, service.ErrAlreadyRedeemed):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"ok": false, "error": "coupon already redeemed"})
		case errors.Is(err, service.ErrInTransit):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"ok": false, "error": "coupon is being transferred"})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("business_id", businessID).
			Msg("failed to redeem coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "internal server error"})
	}

	log.Info().
		Str("business_id", businessID).
		Msg("coupon redeemed")

	return c.JSON(fiber.Map{"ok": true})
}

// GenerateCoupons handles POST /business/offers/:offerId/coupons.
func (h *BusinessHandler) GenerateCoupons(c *fiber.Ctx) error {
	ident, ok := auth.FromContext(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"ok": false, "error": "unauthorized"})
	}
	offerID := c.Params("offerId")

	var req model.GenerateCouponsRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "invalid request body"})
		}
		if err := h.validator.Struct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": formatValidationError(err)})
		}
	}

	generated, err := h.service.IssuePlaceholders(c.Context(), offerID, req.TotalQuantity, ident.BusinessID, ident.IsAdmin)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOfferNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"ok": false, "error": "offer not found"})
		case errors.Is(err, service.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"ok": false, "error": "not the offer's business"})
		case errors.Is(err, service.ErrInvalidRequest):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "total_quantity is required"})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("offer_id", offerID).
			Msg("failed to generate coupons")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "internal server error"})
	}

	log.Info().
		Str("offer_id", offerID).
		Int("generated", generated).
		Msg("placeholder coupons generated")

	return c.JSON(model.GenerateCouponsResponse{OK: true, Generated: generated})
}

// IssueTargeted handles POST /business/coupons/issue-targeted.
func (h *BusinessHandler) IssueTargeted(c *fiber.Ctx) error {
	if _, ok := auth.FromContext(c); !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"ok": false, "error": "unauthorized"})
	}

	var req model.IssueTargetedRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": formatValidationError(err)})
	}

	issued, err := h.service.IssueTargeted(c.Context(), req.CouponID)
	if err != nil {
		if errors.Is(err, service.ErrOfferNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "offer not found"})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("coupon_id", req.CouponID).
			Msg("failed targeted issuance")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "internal server error"})
	}

	return c.JSON(model.IssueTargetedResponse{
		OK:               true,
		IssuedCount:      issued,
		TargetParameters: req.TargetParameters,
	})
}
