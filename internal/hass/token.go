package hass

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nerrad567/gray-logic-hass/internal/infrastructure/logging"
)

// tokenExpiryWarning is how close to expiry a hub token can get before
// startup logs a warning. Home Assistant long-lived tokens run ten
// years, so anything inside a month means the operator minted it long
// ago and probably forgot.
const tokenExpiryWarning = 30 * 24 * time.Hour

// IntrospectToken inspects a hub token's JWT claims and logs expiry
// warnings at startup. Tokens that fail to parse are logged at debug
// level only; reverse proxies can substitute opaque credentials and
// those are none of our business.
//
// The signature is never verified. The hub is the authority on token
// validity; this is an early warning, not authentication.
func IntrospectToken(token string, logger *logging.Logger) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		logger.Debug("hub token is not a parseable JWT, skipping expiry check", "error", err)
		return
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		logger.Debug("hub token carries no expiry claim")
		return
	}

	remaining := time.Until(exp.Time)
	switch {
	case remaining <= 0:
		logger.Warn("hub token is expired, hub requests will fail with 401",
			"expired_at", exp.Time.Format(time.RFC3339))
	case remaining < tokenExpiryWarning:
		logger.Warn("hub token expires soon",
			"expires_at", exp.Time.Format(time.RFC3339),
			"remaining", remaining.Round(time.Hour).String())
	default:
		logger.Debug("hub token expiry checked",
			"expires_at", exp.Time.Format(time.RFC3339))
	}
}
