package hass

import (
	"fmt"
	"strings"
)

// Service names used by the domain codecs.
const (
	serviceTurnOn         = "turn_on"
	serviceTurnOff        = "turn_off"
	serviceSetHVACMode    = "set_hvac_mode"
	serviceSetTemperature = "set_temperature"
)

// brightnessMax is the upper bound Home Assistant accepts for the
// brightness attribute.
const brightnessMax = 255

// ServiceCall is the hub call a write resolves to: the service name
// within the entity's domain, plus any payload fields beyond entity_id.
type ServiceCall struct {
	Service string
	Fields  map[string]any
}

// Domain translates between hub values and point values for one entity
// category. Implementations are stateless; all register context arrives
// as arguments.
type Domain interface {
	// Name returns the entity id prefix the codec serves. It doubles as
	// the service domain for hub calls.
	Name() string

	// DecodeState converts the hub's state string into the point value a
	// scrape reports.
	DecodeState(state string) (any, error)

	// Encode validates a coerced write value against the register and
	// resolves the service call to issue. A nil call with a nil error
	// means the write is accepted without any hub call; the driver
	// retains the value locally.
	Encode(reg *Register, value any) (*ServiceCall, error)
}

// domains maps entity id prefixes to their codec.
var domains = map[string]Domain{
	"light":         lightDomain{},
	"switch":        onOffDomain{name: "switch", strict: true},
	"fan":           onOffDomain{name: "fan", strict: true},
	"input_boolean": onOffDomain{name: "input_boolean"},
	"climate":       climateDomain{},
}

// DomainFor resolves the codec for an entity id by the prefix before
// the first dot. The second return is false when no codec handles the
// prefix, or the id has no dot at all.
func DomainFor(entityID string) (Domain, bool) {
	prefix, _, found := strings.Cut(entityID, ".")
	if !found {
		return nil, false
	}
	d, ok := domains[prefix]
	return d, ok
}

// decodeOnOffState maps the binary state strings to 1 and 0. Any other
// state ("unavailable", "unknown") passes through unchanged so callers
// can see why a point is not reporting a number.
func decodeOnOffState(state string) (any, error) {
	switch state {
	case "on":
		return 1, nil
	case "off":
		return 0, nil
	default:
		return state, nil
	}
}

// onOffCommand validates a binary write value and maps it to turn_on or
// turn_off. Only the coerced integers 0 and 1 are accepted.
func onOffCommand(domain string, value any) (*ServiceCall, error) {
	n, ok := value.(int)
	if !ok || (n != 0 && n != 1) {
		return nil, fmt.Errorf("%w: %s state expects an integer 0 or 1, got %v", ErrInvalidValue, domain, value)
	}
	if n == 1 {
		return &ServiceCall{Service: serviceTurnOn}, nil
	}
	return &ServiceCall{Service: serviceTurnOff}, nil
}

// lightDomain handles light.* entities: a binary state plus a writable
// brightness attribute.
type lightDomain struct{}

func (lightDomain) Name() string { return "light" }

func (lightDomain) DecodeState(state string) (any, error) {
	return decodeOnOffState(state)
}

func (d lightDomain) Encode(reg *Register, value any) (*ServiceCall, error) {
	switch reg.EntityPoint {
	case entityPointState:
		return onOffCommand(d.Name(), value)
	case "brightness":
		n, ok := value.(int)
		if !ok || n < 0 || n > brightnessMax {
			return nil, fmt.Errorf("%w: brightness expects an integer between 0 and %d, got %v",
				ErrInvalidValue, brightnessMax, value)
		}
		return &ServiceCall{Service: serviceTurnOn, Fields: map[string]any{"brightness": n}}, nil
	default:
		return nil, fmt.Errorf("%w: light registers accept writes to state or brightness, not %q",
			ErrInvalidValue, reg.EntityPoint)
	}
}

// onOffDomain handles the categories whose writes reduce to an on/off
// service pair: switch, fan and input_boolean. strict controls writes
// to non-state entity points: switches and fans reject them, an
// input_boolean retains the value without a hub call.
type onOffDomain struct {
	name   string
	strict bool
}

func (d onOffDomain) Name() string { return d.name }

func (onOffDomain) DecodeState(state string) (any, error) {
	return decodeOnOffState(state)
}

func (d onOffDomain) Encode(reg *Register, value any) (*ServiceCall, error) {
	if reg.EntityPoint != entityPointState {
		if d.strict {
			return nil, fmt.Errorf("%w: %s registers only accept writes to state, not %q",
				ErrInvalidValue, d.name, reg.EntityPoint)
		}
		return nil, nil
	}
	return onOffCommand(d.name, value)
}

// hvacModes maps point values to hub hvac_mode strings. The gap at 1 is
// part of the wire contract scrape consumers already depend on.
// hvacModeValues is its inverse, used when decoding scrapes.
var hvacModes = map[int]string{
	0: "off",
	2: "heat",
	3: "cool",
	4: "auto",
}

var hvacModeValues = map[string]int{
	"off":  0,
	"heat": 2,
	"cool": 3,
	"auto": 4,
}

// climateDomain handles climate.* entities: an enumerated hvac mode
// plus a temperature setpoint.
type climateDomain struct{}

func (climateDomain) Name() string { return "climate" }

func (climateDomain) DecodeState(state string) (any, error) {
	mode, ok := hvacModeValues[state]
	if !ok {
		return nil, fmt.Errorf("%w: hvac mode %q", ErrUnsupportedState, state)
	}
	return mode, nil
}

func (climateDomain) Encode(reg *Register, value any) (*ServiceCall, error) {
	switch reg.EntityPoint {
	case entityPointState:
		n, ok := value.(int)
		if !ok {
			return nil, fmt.Errorf("%w: hvac mode expects an integer, got %T", ErrInvalidValue, value)
		}
		mode, known := hvacModes[n]
		if !known {
			return nil, fmt.Errorf("%w: hvac mode %d is not one of 0 (off), 2 (heat), 3 (cool), 4 (auto)",
				ErrInvalidValue, n)
		}
		return &ServiceCall{Service: serviceSetHVACMode, Fields: map[string]any{"hvac_mode": mode}}, nil
	case "temperature":
		t, ok := toFloat(value)
		if !ok {
			return nil, fmt.Errorf("%w: temperature expects a number, got %v", ErrInvalidValue, value)
		}
		if reg.Units == "C" {
			t = FahrenheitToCelsius(t)
		}
		return &ServiceCall{Service: serviceSetTemperature, Fields: map[string]any{"temperature": t}}, nil
	default:
		return nil, fmt.Errorf("%w: climate registers accept writes to state or temperature, not %q",
			ErrInvalidValue, reg.EntityPoint)
	}
}

// toFloat widens a coerced numeric value to float64. Coercion only
// produces int, float64, bool or string, so two cases suffice.
func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
