package hass

import "errors"

// Domain errors for the Home Assistant driver package.
var (
	// ErrConfiguration is returned when driver configuration is missing
	// required fields or the registry file cannot be loaded.
	ErrConfiguration = errors.New("hass: invalid configuration")

	// ErrPointNotFound is returned when no register exists for the
	// requested point name.
	ErrPointNotFound = errors.New("hass: point not found")

	// ErrReadOnly is returned when a write targets a register whose
	// definition does not mark it writable.
	ErrReadOnly = errors.New("hass: point is read-only")

	// ErrInvalidValue is returned when a write value cannot be coerced to
	// the register's declared type, or is outside the range the entity
	// category accepts.
	ErrInvalidValue = errors.New("hass: invalid value")

	// ErrUnsupportedEntity is returned when an entity id carries a domain
	// prefix no codec handles.
	ErrUnsupportedEntity = errors.New("hass: unsupported entity domain")

	// ErrUnsupportedState is returned when the hub reports a state string
	// the register's codec has no point value for.
	ErrUnsupportedState = errors.New("hass: unsupported hub state")

	// ErrRequestFailed is returned when the hub answers with a non-200
	// status. The error message carries the status code and response body.
	ErrRequestFailed = errors.New("hass: hub request failed")

	// ErrTransport is returned when the hub cannot be reached at all:
	// connection refused, timeout, DNS failure.
	ErrTransport = errors.New("hass: hub unreachable")
)
