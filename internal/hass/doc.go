// Package hass translates between a flat point model and the Home
// Assistant REST API.
//
// Callers see a namespace of named points, each bound by a register to
// one entity and one aspect of it (the state string or a single
// attribute). Reads fetch entity state documents; writes validate
// against the register's declared type and resolve to service calls
// such as light.turn_on or climate.set_hvac_mode.
//
// The package has three layers:
//
//   - Catalog: the in-memory register store, loaded from the registry
//     file and safe for concurrent use
//   - Client: authenticated REST calls against the hub
//   - Domain codecs: per-entity-category translation between hub values
//     and point values
//
// Driver ties the layers together and is the only type most callers
// need:
//
//	driver := hass.NewDriver(logger)
//	defs, err := hass.LoadDefinitions("configs/registry.yaml")
//	if err != nil {
//		return err
//	}
//	if err := driver.Configure(cfg.Hub, defs); err != nil {
//		return err
//	}
//
//	value, err := driver.GetPoint(ctx, "kitchen_light")
//	accepted, err := driver.SetPoint(ctx, "kitchen_light", 1)
//	values, err := driver.ScrapeAll(ctx)
//
// Read paths differ on purpose: GetPoint returns the hub's raw state
// string ("on", "off", "heat"), while ScrapeAll applies the domain
// codec and returns point values (1, 0, 2). Consumers of the scrape
// stream depend on the translated form; consumers of single reads
// depend on the raw form.
//
// All errors wrap the package sentinels, so callers branch with
// errors.Is:
//
//	if errors.Is(err, hass.ErrReadOnly) { ... }
package hass
