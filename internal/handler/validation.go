package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// fieldNames maps struct fields to their wire names for validation messages.
var fieldNames = map[string]string{
	"CouponID":       "coupon_id",
	"ReceiverUserID": "receiver_user_id",
	"UniqueCode":     "unique_code",
	"TotalQuantity":  "total_quantity",
}

// formatValidationError converts validator errors into client-facing
// messages keyed by wire field name.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			field := fe.Field()
			if wire, ok := fieldNames[field]; ok {
				field = wire
			}

			switch fe.Tag() {
			case "required":
				return "invalid request: " + field + " is required"
			case "notblank":
				return "invalid request: " + field + " cannot be whitespace only"
			case "max":
				return "invalid request: " + field + " exceeds maximum length"
			case "gte":
				return "invalid request: " + field + " must not be negative"
			default:
				return "invalid request: " + field + " is invalid"
			}
		}
	}
	return "invalid request"
}
