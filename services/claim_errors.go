// services/claim_errors.go
package services

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Stable machine-readable failure codes surfaced by the claim pipeline.
// The transport layer maps each to a fixed HTTP status; human messages are
// advisory only and may change.
const (
	ErrCodeLocationOutOfBounds = "LOCATION_OUT_OF_BOUNDS"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodePrizeNotFound       = "PRIZE_NOT_FOUND"
	ErrCodePrizeNotAvailable   = "PRIZE_NOT_AVAILABLE"
	ErrCodeDistanceTooFar      = "DISTANCE_TOO_FAR"
	ErrCodeAntiCheatViolation  = "ANTI_CHEAT_VIOLATION"
	ErrCodeCooldownActive      = "COOLDOWN_ACTIVE"
	ErrCodeDailyLimitExceeded  = "DAILY_LIMIT_EXCEEDED"
	ErrCodeRewardNotFound      = "REWARD_NOT_FOUND"
	ErrCodeInsufficientStock   = "INSUFFICIENT_STOCK"
	ErrCodeClaimNotFound       = "CLAIM_NOT_FOUND"
	ErrCodeUserBanned          = "USER_BANNED"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// ClaimError is a typed pipeline failure. Validation failures are terminal
// for the attempt and never retried server-side.
type ClaimError struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	RetryAfterSecs int    `json:"retry_after_secs,omitempty"`
}

func (e *ClaimError) Error() string {
	return e.Code + ": " + e.Message
}

func newClaimError(code, message string) *ClaimError {
	return &ClaimError{Code: code, Message: message}
}

// HTTPStatus maps a failure code to its stable transport status.
func (e *ClaimError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeUserNotFound, ErrCodePrizeNotFound, ErrCodeRewardNotFound, ErrCodeClaimNotFound:
		return fiber.StatusNotFound
	case ErrCodePrizeNotAvailable, ErrCodeInsufficientStock:
		return fiber.StatusConflict
	case ErrCodeLocationOutOfBounds, ErrCodeDistanceTooFar:
		return fiber.StatusUnprocessableEntity
	case ErrCodeAntiCheatViolation, ErrCodeUserBanned:
		return fiber.StatusForbidden
	case ErrCodeCooldownActive, ErrCodeDailyLimitExceeded:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondClaimError writes the failure with its stable code. COOLDOWN_ACTIVE
// carries a Retry-After hint.
func RespondClaimError(c *fiber.Ctx, cerr *ClaimError) error {
	body := fiber.Map{
		"code":  cerr.Code,
		"error": cerr.Message,
	}
	if cerr.RetryAfterSecs > 0 {
		body["retry_after_secs"] = cerr.RetryAfterSecs
		c.Set("Retry-After", strconv.Itoa(cerr.RetryAfterSecs))
	}
	return c.Status(cerr.HTTPStatus()).JSON(body)
}
