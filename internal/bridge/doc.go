// Package bridge connects the Home Assistant point driver to the Gray Logic
// MQTT fabric.
//
// The bridge owns three loops:
//
//   - Command path: subscribes to graylogic/command/hass/+, decodes
//     WriteMessages, executes them through the driver, and answers with an
//     AckMessage plus a retained point state update.
//   - Poller: scrapes every configured point on a fixed interval, publishes
//     a retained SnapshotMessage and per-point state messages, records the
//     pass to the local history trail, and ships numeric values to InfluxDB.
//   - Health: a HealthReporter publishing retained HealthMessages on
//     graylogic/health/hass, with an LWT announcing unexpected disconnects.
//
// MQTT, history, and telemetry are all optional. A bridge built without an
// MQTT client still polls (the REST API reads the refreshed catalog), one
// without a history repository simply skips recording, and so on. Only the
// driver and configuration are mandatory.
package bridge
