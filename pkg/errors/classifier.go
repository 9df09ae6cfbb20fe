package errors

import (
	"errors"
	"strings"

	"github.com/novavault/wallet-provisioner/internal/domain/entities"
)

// Classify maps an error coming back from the Circle API onto the
// provisioning error taxonomy. Classification falls back to message text
// because the API reports some conditions (entity secret reuse) only there.
func Classify(err error) ErrorCode {
	if err == nil {
		return ""
	}

	var provErr *ProvisionError
	if errors.As(err, &provErr) {
		return provErr.Code
	}

	msg := strings.ToLower(err.Error())

	var circleErr entities.CircleErrorResponse
	if errors.As(err, &circleErr) {
		// Auth failures surface as HTTP 401 with a domain code in the body,
		// so the transport status is checked alongside the body code.
		switch {
		case circleErr.Code == 401 || circleErr.HTTPStatus == 401:
			return ErrCodeUnauthorized
		case strings.Contains(msg, "already been set"):
			return ErrCodeSecretRegistered
		case circleErr.Code >= 400 && circleErr.Code < 500,
			circleErr.HTTPStatus >= 400 && circleErr.HTTPStatus < 500:
			return ErrCodeValidation
		default:
			return ErrCodeExternal
		}
	}

	switch {
	case strings.Contains(msg, "could not create wallet on any blockchain"):
		return ErrCodeExhausted
	case strings.Contains(msg, "already been set"):
		return ErrCodeSecretRegistered
	case strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized"):
		return ErrCodeUnauthorized
	case strings.Contains(msg, "400") || strings.Contains(msg, "invalid"):
		return ErrCodeValidation
	default:
		return ErrCodeExternal
	}
}

// Hint returns operator guidance for a classified error, empty when no
// specific advice applies.
func Hint(code ErrorCode) string {
	switch code {
	case ErrCodeSecretRegistered:
		return "An entity secret is already registered for this account. " +
			"Contact Circle support to reset it, or reuse the stored secret with the setup command."
	case ErrCodeUnauthorized:
		return "Authentication failed. Verify the API key is correct and has Developer Wallets permissions."
	case ErrCodeValidation:
		return "Invalid request. Check the API key format and its permissions in the Circle console."
	case ErrCodeMissingCredentials:
		return "Set CIRCLE_API_KEY (and CIRCLE_ENTITY_SECRET for setup) in the .env file."
	default:
		return ""
	}
}
