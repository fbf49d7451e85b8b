package hass

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/nerrad567/gray-logic-hass/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-hass/internal/infrastructure/logging"
)

// Driver is the point-model front door to a Home Assistant instance.
// It owns the register catalog and the hub client, translating flat
// point reads and writes into entity state fetches and service calls.
//
// Thread Safety:
//   - All methods are safe for concurrent use once Configure has
//     returned. Configure may also run again at runtime (registry
//     reload); in-flight operations complete against the generation
//     they started with.
type Driver struct {
	mu      sync.RWMutex
	client  *Client
	catalog *Catalog
	logger  *logging.Logger
}

// NewDriver returns an unconfigured driver. Configure must succeed
// before any point operation.
func NewDriver(logger *logging.Logger) *Driver {
	return &Driver{
		catalog: NewCatalog(),
		logger:  logger,
	}
}

// Configure validates hub connection settings, builds the hub client
// and loads the register catalog from definitions.
//
// Returns ErrConfiguration when host, port or token are missing.
// Reconfiguring replaces the catalog wholesale: last values reset to
// the definitions' defaults.
func (d *Driver) Configure(cfg config.HubConfig, defs []RegisterDefinition) error {
	var missing []string
	if cfg.Host == "" {
		missing = append(missing, "host")
	}
	if cfg.Port == 0 {
		missing = append(missing, "port")
	}
	if cfg.Token == "" {
		missing = append(missing, "token")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing hub %s", ErrConfiguration, strings.Join(missing, ", "))
	}

	registers := ParseDefinitions(defs, d.logger)

	d.mu.Lock()
	d.client = NewClient(cfg.BaseURL(), cfg.Token, cfg.GetRequestTimeout())
	d.mu.Unlock()
	d.catalog.Rebuild(registers)

	d.logger.Info("driver configured",
		"hub", cfg.BaseURL(),
		"points", len(registers),
		"defined", len(defs))
	return nil
}

// GetPoint reads the live value for one point.
//
// State registers return the hub's state string untranslated ("on",
// "heat"). Attribute registers return the raw attribute value, or 0
// when the attribute is absent. No codec runs on this path; ScrapeAll
// is the translated view.
func (d *Driver) GetPoint(ctx context.Context, pointName string) (any, error) {
	client, err := d.hub()
	if err != nil {
		return nil, err
	}
	reg, ok := d.catalog.Get(pointName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPointNotFound, pointName)
	}

	doc, err := client.EntityState(ctx, reg.EntityID)
	if err != nil {
		return nil, err
	}

	if reg.IsState() {
		return doc.State, nil
	}
	return doc.Attribute(reg.EntityPoint, 0), nil
}

// SetPoint writes a value to one point and returns the accepted value.
//
// The pipeline is: read-only check, coercion to the register's declared
// type, codec validation, then at most one hub call. Every validation
// failure surfaces before any network traffic. The coerced value is
// recorded as the register's last value once the write is accepted.
func (d *Driver) SetPoint(ctx context.Context, pointName string, value any) (any, error) {
	client, err := d.hub()
	if err != nil {
		return nil, err
	}
	reg, ok := d.catalog.Get(pointName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPointNotFound, pointName)
	}
	if reg.ReadOnly {
		return nil, fmt.Errorf("%w: %q", ErrReadOnly, pointName)
	}

	coerced, err := reg.Type.Coerce(value)
	if err != nil {
		return nil, fmt.Errorf("point %q: %w", pointName, err)
	}

	domain, ok := DomainFor(reg.EntityID)
	if !ok {
		return nil, fmt.Errorf("%w: cannot write to %q", ErrUnsupportedEntity, reg.EntityID)
	}

	call, err := domain.Encode(&reg, coerced)
	if err != nil {
		return nil, fmt.Errorf("point %q: %w", pointName, err)
	}

	if call == nil {
		// The codec accepted the write without a hub call (input_boolean
		// attribute): keep the value locally so consumers see it.
		d.logger.Warn("entity point not writable on hub, value retained locally",
			"point", pointName, "entity", reg.EntityID, "entity_point", reg.EntityPoint)
		d.catalog.SetLastValue(pointName, coerced)
		return coerced, nil
	}

	if err := client.CallService(ctx, domain.Name(), call.Service, reg.EntityID, call.Fields); err != nil {
		return nil, err
	}

	d.catalog.SetLastValue(pointName, coerced)
	d.logger.Debug("point written",
		"point", pointName, "entity", reg.EntityID, "service", call.Service)
	return coerced, nil
}

// ScrapeAll reads every register and returns translated values keyed by
// point name.
//
// Registers that fail to read or decode are logged and omitted; a
// partial map is normal operation when entities are unavailable. The
// error return is non-nil only when the driver is unconfigured or the
// context ends mid-scrape, in which case the partial map gathered so
// far is still returned.
func (d *Driver) ScrapeAll(ctx context.Context) (map[string]any, error) {
	client, err := d.hub()
	if err != nil {
		return nil, err
	}

	registers := d.catalog.Snapshot()
	values := make(map[string]any, len(registers))
	for i := range registers {
		reg := &registers[i]
		if err := ctx.Err(); err != nil {
			return values, fmt.Errorf("%w: %w", ErrTransport, err)
		}

		value, err := d.scrapeRegister(ctx, client, reg)
		if err != nil {
			d.logger.Warn("scrape failed for point",
				"point", reg.PointName, "entity", reg.EntityID, "error", err)
			continue
		}

		d.catalog.SetLastValue(reg.PointName, value)
		values[reg.PointName] = value
	}
	return values, nil
}

// scrapeRegister reads one entity and applies the hub-to-point codec:
// state strings decode per domain, attributes pass through with a 0
// fallback.
func (d *Driver) scrapeRegister(ctx context.Context, client *Client, reg *Register) (any, error) {
	doc, err := client.EntityState(ctx, reg.EntityID)
	if err != nil {
		return nil, err
	}

	if !reg.IsState() {
		return doc.Attribute(reg.EntityPoint, 0), nil
	}

	domain, ok := DomainFor(reg.EntityID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEntity, reg.EntityID)
	}
	return domain.DecodeState(doc.State)
}

// Points returns the catalog contents in registry file order.
func (d *Driver) Points() []Register {
	return d.catalog.Snapshot()
}

// Point returns one register by point name.
func (d *Driver) Point(pointName string) (Register, bool) {
	return d.catalog.Get(pointName)
}

// PointCount returns the catalog size.
func (d *Driver) PointCount() int {
	return d.catalog.Len()
}

// CatalogStats summarises catalog composition.
func (d *Driver) CatalogStats() CatalogStats {
	return d.catalog.Stats()
}

// HubStats returns hub traffic counters, zero before configuration.
func (d *Driver) HubStats() HubStats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.client == nil {
		return HubStats{}
	}
	return d.client.Stats()
}

// HealthCheck verifies hub connectivity with a single API root request.
func (d *Driver) HealthCheck(ctx context.Context) error {
	client, err := d.hub()
	if err != nil {
		return err
	}
	return client.HealthCheck(ctx)
}

// hub returns the configured hub client.
func (d *Driver) hub() (*Client, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.client == nil {
		return nil, fmt.Errorf("%w: driver not configured", ErrConfiguration)
	}
	return d.client, nil
}
