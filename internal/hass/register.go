package hass

import (
	"fmt"
	"strconv"
	"strings"
)

// entityPointState is the entity point selecting the hub state string
// rather than an attribute.
const entityPointState = "state"

// ValueType is a register's declared point value type. Write values are
// coerced to this type before any codec or hub call runs.
type ValueType string

// Value types accepted in registry definitions.
const (
	TypeString  ValueType = "string"
	TypeInteger ValueType = "integer"
	TypeFloat   ValueType = "float"
	TypeBoolean ValueType = "boolean"
)

// ParseValueType maps a registry file type name to a ValueType.
// Both long and short spellings are accepted ("int"/"integer",
// "bool"/"boolean"). Unknown names fall back to string.
func ParseValueType(name string) ValueType {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "int", "integer":
		return TypeInteger
	case "float":
		return TypeFloat
	case "bool", "boolean":
		return TypeBoolean
	default:
		return TypeString
	}
}

// Coerce converts a write value to the declared type.
//
// Values arrive as whatever JSON or YAML decoding produced (float64,
// bool, string) or as native Go values from in-process callers. Floats
// coerced to integer are truncated. Strings coerced to numbers go
// through strconv and fail with ErrInvalidValue when unparseable.
//
// Returns:
//   - any: the coerced value, concretely int, float64, bool or string
//   - error: wrapping ErrInvalidValue when no conversion exists
func (t ValueType) Coerce(value any) (any, error) {
	switch t {
	case TypeInteger:
		return coerceInt(value)
	case TypeFloat:
		return coerceFloat(value)
	case TypeBoolean:
		return coerceBool(value)
	default:
		return coerceString(value), nil
	}
}

func coerceInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float32:
		return int(v), nil
	case float64:
		return int(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("%w: cannot coerce %q to integer", ErrInvalidValue, v)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("%w: cannot coerce %T to integer", ErrInvalidValue, value)
	}
}

func coerceFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case bool:
		if v {
			return 1.0, nil
		}
		return 0.0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot coerce %q to float", ErrInvalidValue, v)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("%w: cannot coerce %T to float", ErrInvalidValue, value)
	}
}

func coerceBool(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case int32:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("%w: cannot coerce %q to boolean", ErrInvalidValue, v)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: cannot coerce %T to boolean", ErrInvalidValue, value)
	}
}

func coerceString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

// Register binds one point name to one aspect of one Home Assistant
// entity. Registers are value types; the Catalog owns the canonical
// copies and hands out snapshots.
type Register struct {
	// PointName is the flat-namespace identifier callers use.
	PointName string `json:"point_name"`

	// EntityID is the hub entity, e.g. "light.kitchen".
	EntityID string `json:"entity_id"`

	// EntityPoint selects what the register tracks: "state" for the
	// entity state string, anything else for an attribute of that name.
	EntityPoint string `json:"entity_point"`

	// Type is the declared value type writes are coerced to.
	Type ValueType `json:"type"`

	// ReadOnly blocks writes when true.
	ReadOnly bool `json:"read_only"`

	// Units is free-form. The single unit with behaviour attached: "C"
	// on a climate temperature register converts written Fahrenheit
	// values to Celsius before the hub call.
	Units string `json:"units,omitempty"`

	// Default seeds LastValue before the first scrape or write.
	Default any `json:"default,omitempty"`

	// Notes carries operator commentary from the registry file.
	Notes string `json:"notes,omitempty"`

	// LastValue is the most recent scraped or written value.
	LastValue any `json:"last_value"`
}

// EntityDomain returns the entity id prefix before the first dot, e.g.
// "light" for "light.kitchen". Empty when the id has no dot.
func (r *Register) EntityDomain() string {
	domain, _, found := strings.Cut(r.EntityID, ".")
	if !found {
		return ""
	}
	return domain
}

// IsState reports whether the register tracks the entity state string
// rather than an attribute.
func (r *Register) IsState() bool {
	return r.EntityPoint == entityPointState
}
