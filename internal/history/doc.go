// Package history persists point values to the bridge's local SQLite
// store.
//
// Every scrape pass and accepted write leaves a row, giving operators a
// queryable audit trail that survives MQTT and InfluxDB being down. The
// REST API serves it from GET /points/{name}/history.
//
// Repository is the storage interface; SQLiteRepository is the only
// implementation. Rows older than the configured retention window are
// removed by Prune, which the bridge runs periodically.
package history
