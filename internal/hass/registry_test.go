package hass

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nerrad567/gray-logic-hass/internal/infrastructure/logging"
)

// captureLogger returns a debug-level logger writing to buf, for
// asserting on log output.
func captureLogger(buf *bytes.Buffer) *logging.Logger {
	handler := slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return &logging.Logger{Logger: slog.New(handler)}
}

func TestLoadDefinitions(t *testing.T) {
	content := `
registers:
  - point_name: kitchen_light
    entity_id: light.kitchen
    entity_point: state
    writable: "true"
    type: int
  - point_name: hvac_setpoint
    entity_id: climate.living_room
    entity_point: temperature
    units: C
    writable: "true"
    type: float
    default: 68
    notes: thermostat setpoint in fahrenheit
`
	path := filepath.Join(t.TempDir(), "registry.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing registry fixture: %v", err)
	}

	defs, err := LoadDefinitions(path)
	if err != nil {
		t.Fatalf("LoadDefinitions() error = %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("LoadDefinitions() returned %d definitions, want 2", len(defs))
	}
	if defs[0].PointName != "kitchen_light" || defs[0].EntityID != "light.kitchen" {
		t.Errorf("defs[0] = %+v, want kitchen_light/light.kitchen", defs[0])
	}
	if defs[1].Units != "C" || defs[1].Notes == "" {
		t.Errorf("defs[1] = %+v, want units C with notes", defs[1])
	}
	if defs[1].Default != 68 {
		t.Errorf("defs[1].Default = %v (%T), want 68", defs[1].Default, defs[1].Default)
	}
}

func TestLoadDefinitionsMissingFile(t *testing.T) {
	_, err := LoadDefinitions(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("LoadDefinitions() error = %v, want ErrConfiguration", err)
	}
}

func TestLoadDefinitionsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.yaml")
	if err := os.WriteFile(path, []byte("registers: [not: valid: yaml"), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	_, err := LoadDefinitions(path)
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("LoadDefinitions() error = %v, want ErrConfiguration", err)
	}
}

func TestParseDefinitions(t *testing.T) {
	defs := []RegisterDefinition{
		{PointName: "kitchen_light", EntityID: "light.kitchen", EntityPoint: "state", Writable: "true", Type: "int"},
		{PointName: "porch_switch", EntityID: "switch.porch", EntityPoint: "state", Writable: "TRUE", Type: "integer"},
		{PointName: "outdoor_temp", EntityID: "sensor.outdoor", EntityPoint: "temperature", Writable: "false", Type: "float"},
		{PointName: "odd_one", EntityID: "sensor.odd", EntityPoint: "reading", Writable: "yes", Type: "decimal"},
	}

	regs := ParseDefinitions(defs, nil)
	if len(regs) != 4 {
		t.Fatalf("ParseDefinitions() returned %d registers, want 4", len(regs))
	}

	if regs[0].ReadOnly {
		t.Error(`writable "true" parsed as read-only`)
	}
	if regs[1].ReadOnly {
		t.Error(`writable "TRUE" parsed as read-only (case must not matter)`)
	}
	if !regs[2].ReadOnly {
		t.Error(`writable "false" parsed as writable`)
	}
	if !regs[3].ReadOnly {
		t.Error(`writable "yes" parsed as writable; only "true" may enable writes`)
	}
	if regs[3].Type != TypeString {
		t.Errorf("unknown type parsed as %v, want string fallback", regs[3].Type)
	}
}

func TestParseDefinitionsSkipsEmptyEntityID(t *testing.T) {
	var buf bytes.Buffer
	defs := []RegisterDefinition{
		{PointName: "ghost", EntityID: "", EntityPoint: "state", Writable: "true", Type: "int"},
		{PointName: "blank", EntityID: "   ", EntityPoint: "state", Writable: "true", Type: "int"},
		{PointName: "kitchen_light", EntityID: "light.kitchen", EntityPoint: "state", Writable: "true", Type: "int"},
	}

	regs := ParseDefinitions(defs, captureLogger(&buf))
	if len(regs) != 1 {
		t.Fatalf("ParseDefinitions() returned %d registers, want 1", len(regs))
	}
	if regs[0].PointName != "kitchen_light" {
		t.Errorf("surviving register = %q, want kitchen_light", regs[0].PointName)
	}
	if !strings.Contains(buf.String(), "empty entity_id") {
		t.Error("expected a warning about empty entity_id")
	}
}

func TestParseDefinitionsDuplicateLaterWins(t *testing.T) {
	var buf bytes.Buffer
	defs := []RegisterDefinition{
		{PointName: "kitchen_light", EntityID: "light.kitchen", EntityPoint: "state", Writable: "true", Type: "int"},
		{PointName: "hallway_fan", EntityID: "fan.hallway", EntityPoint: "state", Writable: "true", Type: "int"},
		{PointName: "kitchen_light", EntityID: "light.kitchen_main", EntityPoint: "state", Writable: "false", Type: "int"},
	}

	regs := ParseDefinitions(defs, captureLogger(&buf))
	if len(regs) != 2 {
		t.Fatalf("ParseDefinitions() returned %d registers, want 2", len(regs))
	}

	// Later definition wins but keeps the earlier position.
	if regs[0].PointName != "kitchen_light" || regs[0].EntityID != "light.kitchen_main" {
		t.Errorf("regs[0] = %+v, want kitchen_light bound to light.kitchen_main", regs[0])
	}
	if !regs[0].ReadOnly {
		t.Error("later definition's read-only flag not applied")
	}
	if !strings.Contains(buf.String(), "duplicate point name") {
		t.Error("expected a warning about the duplicate point name")
	}
}

func TestParseDefinitionsDefaults(t *testing.T) {
	var buf bytes.Buffer
	defs := []RegisterDefinition{
		{PointName: "hvac_setpoint", EntityID: "climate.living_room", EntityPoint: "temperature", Writable: "true", Type: "float", Default: 68},
		{PointName: "kitchen_light", EntityID: "light.kitchen", EntityPoint: "state", Writable: "true", Type: "int", Default: "not a number"},
	}

	regs := ParseDefinitions(defs, captureLogger(&buf))

	if regs[0].Default != 68.0 || regs[0].LastValue != 68.0 {
		t.Errorf("default = %v, last value = %v, want both 68.0", regs[0].Default, regs[0].LastValue)
	}
	if regs[1].Default != nil || regs[1].LastValue != nil {
		t.Errorf("uncoercible default kept: default = %v, last value = %v", regs[1].Default, regs[1].LastValue)
	}
	if !strings.Contains(buf.String(), "default") {
		t.Error("expected a warning about the dropped default")
	}
}
