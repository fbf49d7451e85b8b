// Package api implements the HTTP REST API and WebSocket server for the
// Gray Logic Home Assistant bridge.
//
// This package provides:
//   - REST endpoints for point reads, writes, on-demand scrapes, and history
//   - Registry inspection and runtime reload
//   - WebSocket hub for real-time point state and snapshot broadcasts
//   - Static bearer token authentication on mutating and catalog routes
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Architecture
//
// The API server sits beside the MQTT bridge in the same process. Both
// drive the same hass.Driver: MQTT carries the Core command/state flow,
// the REST surface serves operators and dashboards that want synchronous
// answers. Point state published by the bridge over MQTT is relayed to
// WebSocket clients, so a browser sees scrape results and command
// confirmations without polling.
//
// # Security
//
// Authentication is a single static bearer token, mirroring the hub's own
// long-lived token model. WebSocket dials authenticate with a token query
// parameter because browsers cannot set headers on WebSocket connections.
//
// # Graceful Degradation
//
// The server operates without MQTT, history, or telemetry. Missing pieces
// disable their endpoints (history answers 503) or drop from the health
// and metrics reports; point reads and writes work as long as the driver
// is configured.
package api
