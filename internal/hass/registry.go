package hass

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/gray-logic-hass/internal/infrastructure/logging"
)

// RegisterDefinition is one row of the registry file, before
// validation. All fields mirror the file keys; ParseDefinitions turns
// rows into Registers.
type RegisterDefinition struct {
	PointName   string `yaml:"point_name" json:"point_name"`
	EntityID    string `yaml:"entity_id" json:"entity_id"`
	EntityPoint string `yaml:"entity_point" json:"entity_point"`
	Units       string `yaml:"units" json:"units,omitempty"`
	Writable    string `yaml:"writable" json:"writable"`
	Type        string `yaml:"type" json:"type"`
	Default     any    `yaml:"default" json:"default,omitempty"`
	Notes       string `yaml:"notes" json:"notes,omitempty"`
}

// registryFile is the on-disk shape of the registry.
type registryFile struct {
	Registers []RegisterDefinition `yaml:"registers"`
}

// LoadDefinitions reads register definitions from a YAML registry file.
// The file holds a single top-level "registers" list; order is
// preserved and becomes catalog order.
func LoadDefinitions(path string) ([]RegisterDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading registry file: %w", ErrConfiguration, err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: parsing registry file %s: %w", ErrConfiguration, path, err)
	}

	return file.Registers, nil
}

// ParseDefinitions converts raw definitions into registers, applying
// the registry file conventions:
//
//   - rows with an empty entity_id are skipped with a warning
//   - writable is case-insensitive; only the literal "true" makes a
//     register writable, anything else means read-only
//   - unknown type names fall back to string
//   - when two rows share a point name the later row wins, keeping the
//     earlier row's position
//
// Defaults are coerced to the declared type and seed the register's
// last value; a default that fails coercion is dropped with a warning.
// A nil logger suppresses the warnings.
func ParseDefinitions(defs []RegisterDefinition, logger *logging.Logger) []*Register {
	registers := make([]*Register, 0, len(defs))
	position := make(map[string]int, len(defs))

	for _, def := range defs {
		if strings.TrimSpace(def.EntityID) == "" {
			logRegistryWarn(logger, "skipping register with empty entity_id", "point", def.PointName)
			continue
		}

		reg := &Register{
			PointName:   strings.TrimSpace(def.PointName),
			EntityID:    strings.TrimSpace(def.EntityID),
			EntityPoint: strings.TrimSpace(def.EntityPoint),
			Type:        ParseValueType(def.Type),
			ReadOnly:    !strings.EqualFold(strings.TrimSpace(def.Writable), "true"),
			Units:       strings.TrimSpace(def.Units),
			Notes:       def.Notes,
		}

		if def.Default != nil {
			coerced, err := reg.Type.Coerce(def.Default)
			if err != nil {
				logRegistryWarn(logger, "dropping default that does not coerce to declared type",
					"point", reg.PointName, "default", def.Default, "type", reg.Type, "error", err)
			} else {
				reg.Default = coerced
				reg.LastValue = coerced
			}
		}

		if pos, dup := position[reg.PointName]; dup {
			logRegistryWarn(logger, "duplicate point name, later definition replaces earlier",
				"point", reg.PointName, "entity", reg.EntityID)
			registers[pos] = reg
			continue
		}

		position[reg.PointName] = len(registers)
		registers = append(registers, reg)
	}

	return registers
}

func logRegistryWarn(logger *logging.Logger, msg string, args ...any) {
	if logger != nil {
		logger.Warn(msg, args...)
	}
}
