package hass

import "sync"

// Catalog is the in-memory register store behind a driver. It preserves
// registry file order for snapshots and guards all access with a
// read-write mutex, so a poller, an MQTT command handler and REST
// handlers can share one driver without coordination.
type Catalog struct {
	mu        sync.RWMutex
	registers map[string]*Register
	order     []string
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{registers: make(map[string]*Register)}
}

// Rebuild replaces the catalog contents wholesale. Registers are copied
// in, so callers keep ownership of the slice they pass. Last values
// from the previous generation are discarded; defaults seed the new one.
func (c *Catalog) Rebuild(registers []*Register) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.registers = make(map[string]*Register, len(registers))
	c.order = make([]string, 0, len(registers))
	for _, reg := range registers {
		stored := *reg
		c.registers[stored.PointName] = &stored
		c.order = append(c.order, stored.PointName)
	}
}

// Get returns a copy of the named register. The second return is false
// when no register has that point name.
func (c *Catalog) Get(pointName string) (Register, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	reg, ok := c.registers[pointName]
	if !ok {
		return Register{}, false
	}
	return *reg, true
}

// Snapshot returns copies of all registers in registry file order.
func (c *Catalog) Snapshot() []Register {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Register, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, *c.registers[name])
	}
	return out
}

// SetLastValue records the most recent scraped or written value for a
// point. Unknown names are ignored; the register may have been removed
// by a registry reload while an operation was in flight.
func (c *Catalog) SetLastValue(pointName string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if reg, ok := c.registers[pointName]; ok {
		reg.LastValue = value
	}
}

// Len returns the number of registers.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.registers)
}

// CatalogStats summarises catalog composition for health reporting.
type CatalogStats struct {
	Total    int            `json:"total"`
	Writable int            `json:"writable"`
	ByDomain map[string]int `json:"by_domain"`
}

// Stats returns current catalog statistics.
func (c *Catalog) Stats() CatalogStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := CatalogStats{
		Total:    len(c.registers),
		ByDomain: make(map[string]int),
	}
	for _, reg := range c.registers {
		if !reg.ReadOnly {
			stats.Writable++
		}
		stats.ByDomain[reg.EntityDomain()]++
	}
	return stats
}
