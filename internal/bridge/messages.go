package bridge

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MQTT message types for communication between Gray Logic Core and the
// Home Assistant bridge. The envelope shapes mirror the other protocol
// bridges so Core can treat every bridge uniformly; only the addressing
// differs (flat point names instead of bus addresses).

// Protocol is the protocol identifier this bridge announces in messages
// and topic paths.
const Protocol = "hass"

// WriteMessage is sent from Core to the bridge to write a value to a point.
// Topic: graylogic/command/hass/{point}
type WriteMessage struct {
	// ID uniquely identifies this command for correlation with acknowledgments.
	ID string `json:"id"`

	// Timestamp is when the command was issued (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Point is the point name from the register list (e.g., "kitchen_light").
	Point string `json:"point"`

	// Value is the value to write. It is coerced to the register's declared
	// type before dispatch, so JSON numbers are acceptable for int points.
	Value any `json:"value"`

	// Source indicates where the command originated.
	// Values: "api", "automation", "voice", "scene"
	Source string `json:"source,omitempty"`
}

// AckStatus represents the acknowledgment status of a write command.
type AckStatus string

const (
	// AckAccepted indicates the write was executed on the hub.
	AckAccepted AckStatus = "accepted"

	// AckQueued indicates the command was received but waiting to send.
	// Part of the shared bridge contract; this bridge executes writes
	// synchronously and does not emit it.
	AckQueued AckStatus = "queued"

	// AckFailed indicates the write could not be executed.
	AckFailed AckStatus = "failed"

	// AckTimeout indicates the hub did not respond within the timeout.
	AckTimeout AckStatus = "timeout"
)

// AckMessage is sent from the bridge to Core to acknowledge a write.
// Topic: graylogic/ack/hass/{point}
type AckMessage struct {
	// CommandID is the ID from the original write command.
	CommandID string `json:"command_id"`

	// Timestamp is when the acknowledgment was sent (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Point is the point name from the original command.
	Point string `json:"point"`

	// Status indicates the acknowledgment status.
	Status AckStatus `json:"status"`

	// Protocol is the protocol identifier ("hass").
	Protocol string `json:"protocol"`

	// Value is the coerced value that was accepted (status "accepted" only).
	Value any `json:"value,omitempty"`

	// Error contains details if status is "failed" or "timeout".
	Error *AckError `json:"error,omitempty"`
}

// AckError contains error details for failed writes.
type AckError struct {
	// Code is the error code (e.g., "READ_ONLY", "HUB_UNREACHABLE").
	Code string `json:"code"`

	// Message is a human-readable error description.
	Message string `json:"message"`
}

// Error codes for write failures.
const (
	ErrCodeInvalidPayload = "INVALID_PAYLOAD"
	ErrCodePointNotFound  = "POINT_NOT_FOUND"
	ErrCodeReadOnly       = "READ_ONLY"
	ErrCodeInvalidValue   = "INVALID_VALUE"
	ErrCodeUnsupported    = "UNSUPPORTED_ENTITY"
	ErrCodeHubUnreachable = "HUB_UNREACHABLE"
	ErrCodeHubRejected    = "HUB_REJECTED"
	ErrCodeTimeout        = "TIMEOUT"
	ErrCodeNotConfigured  = "NOT_CONFIGURED"
	ErrCodeBridgeError    = "BRIDGE_ERROR"
)

// PointStateMessage is sent from the bridge to Core when a point value is
// observed, either by the scrape loop or after a successful write.
// Topic: graylogic/state/hass/{point}
// QoS: 1, Retained: Yes
type PointStateMessage struct {
	// Point is the point name from the register list.
	Point string `json:"point"`

	// Timestamp is when the value was observed (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Value is the translated point value (int, float, bool, or string).
	Value any `json:"value"`

	// Source is how the value was obtained ("scrape" or "write").
	Source string `json:"source"`

	// Protocol is the protocol identifier ("hass").
	Protocol string `json:"protocol"`
}

// SnapshotMessage carries the result of one full scrape pass.
// Topic: graylogic/snapshot/hass
// QoS: 1, Retained: Yes
type SnapshotMessage struct {
	// ScrapeID uniquely identifies this pass and groups its history rows.
	ScrapeID string `json:"scrape_id"`

	// Timestamp is when the pass completed (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Points maps point names to translated values. Registers that failed
	// to scrape are absent.
	Points map[string]any `json:"points"`

	// PointCount is the number of points successfully read.
	PointCount int `json:"point_count"`

	// FailureCount is the number of registers that errored during the pass.
	FailureCount int `json:"failure_count"`

	// DurationMS is the wall-clock pass duration in milliseconds.
	DurationMS int64 `json:"duration_ms"`

	// Protocol is the protocol identifier ("hass").
	Protocol string `json:"protocol"`
}

// HealthStatus represents the operational status of the bridge.
type HealthStatus string

const (
	// HealthHealthy indicates the bridge is operating normally.
	HealthHealthy HealthStatus = "healthy"

	// HealthDegraded indicates the bridge is operating with issues.
	HealthDegraded HealthStatus = "degraded"

	// HealthUnhealthy indicates the bridge is not operating correctly.
	HealthUnhealthy HealthStatus = "unhealthy"

	// HealthOffline indicates the bridge is not connected (from LWT).
	HealthOffline HealthStatus = "offline"

	// HealthStarting indicates the bridge is starting up.
	HealthStarting HealthStatus = "starting"

	// HealthStopping indicates the bridge is shutting down.
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage is sent from the bridge to Core to report operational status.
// Topic: graylogic/health/hass
// QoS: 1, Retained: Yes
// Interval: Every 30 seconds
type HealthMessage struct {
	// Bridge is the bridge identifier (e.g., "hass").
	Bridge string `json:"bridge"`

	// Timestamp is when the health status was generated (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Status indicates the current operational status.
	Status HealthStatus `json:"status"`

	// Version is the bridge software version.
	Version string `json:"version"`

	// UptimeSeconds is how long the bridge has been running.
	UptimeSeconds int64 `json:"uptime_seconds"`

	// Hub contains Home Assistant connection details.
	Hub *HubStatus `json:"hub,omitempty"`

	// Statistics contains hub request metrics.
	Statistics *BridgeStatistics `json:"statistics,omitempty"`

	// PointsManaged is the number of configured registers.
	PointsManaged int `json:"points_managed"`

	// Reason explains the status (especially for offline/degraded).
	Reason string `json:"reason,omitempty"`
}

// HubStatus describes the Home Assistant connection state.
type HubStatus struct {
	// Status is the connection status ("reachable", "unreachable").
	Status string `json:"status"`

	// LastSuccess is when the hub last answered a request.
	LastSuccess *time.Time `json:"last_success,omitempty"`
}

// BridgeStatistics contains operational metrics.
type BridgeStatistics struct {
	// HubRequests is the total number of HTTP requests issued to the hub.
	HubRequests uint64 `json:"hub_requests"`

	// HubFailures is the total number of failed hub requests.
	HubFailures uint64 `json:"hub_failures"`
}

// JSON marshalling helpers

// MarshalJSON marshals a WriteMessage to JSON.
func (m *WriteMessage) MarshalJSON() ([]byte, error) {
	type Alias WriteMessage
	return json.Marshal(&struct {
		*Alias
		Timestamp string `json:"timestamp"`
	}{
		Alias:     (*Alias)(m),
		Timestamp: m.Timestamp.UTC().Format(time.RFC3339),
	})
}

// UnmarshalJSON unmarshals a WriteMessage from JSON.
func (m *WriteMessage) UnmarshalJSON(data []byte) error {
	type Alias WriteMessage
	aux := &struct {
		*Alias
		Timestamp string `json:"timestamp"`
	}{
		Alias: (*Alias)(m),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return fmt.Errorf("unmarshal write message: %w", err)
	}
	if aux.Timestamp != "" {
		t, err := time.Parse(time.RFC3339, aux.Timestamp)
		if err != nil {
			return fmt.Errorf("parse timestamp: %w", err)
		}
		m.Timestamp = t
	}
	return nil
}

// NewWriteMessage creates a write command with a fresh correlation ID.
func NewWriteMessage(point string, value any, source string) WriteMessage {
	return WriteMessage{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Point:     point,
		Value:     value,
		Source:    source,
	}
}

// NewAckMessage creates an acknowledgment message for a write command.
func NewAckMessage(cmd WriteMessage, status AckStatus) AckMessage {
	return AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		Point:     cmd.Point,
		Status:    status,
		Protocol:  Protocol,
	}
}

// NewAckError creates an acknowledgment with error details.
func NewAckError(cmd WriteMessage, code, message string) AckMessage {
	status := AckFailed
	if code == ErrCodeTimeout {
		status = AckTimeout
	}
	return AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		Point:     cmd.Point,
		Status:    status,
		Protocol:  Protocol,
		Error: &AckError{
			Code:    code,
			Message: message,
		},
	}
}

// NewPointStateMessage creates a state message for a point.
func NewPointStateMessage(point string, value any, source string) PointStateMessage {
	return PointStateMessage{
		Point:     point,
		Timestamp: time.Now().UTC(),
		Value:     value,
		Source:    source,
		Protocol:  Protocol,
	}
}

// NewSnapshotMessage creates a snapshot message for a completed scrape pass.
func NewSnapshotMessage(scrapeID string, points map[string]any, failures int, duration time.Duration) SnapshotMessage {
	return SnapshotMessage{
		ScrapeID:     scrapeID,
		Timestamp:    time.Now().UTC(),
		Points:       points,
		PointCount:   len(points),
		FailureCount: failures,
		DurationMS:   duration.Milliseconds(),
		Protocol:     Protocol,
	}
}

// NewLWTMessage creates a Last Will and Testament message for MQTT.
// This message is published by the broker if the bridge disconnects unexpectedly.
func NewLWTMessage(bridgeID string) HealthMessage {
	return HealthMessage{
		Bridge:    bridgeID,
		Timestamp: time.Now().UTC(),
		Status:    HealthOffline,
		Reason:    "unexpected_disconnect",
	}
}

// Topic helpers

// TopicPrefix is the base topic for all Gray Logic messages.
const TopicPrefix = "graylogic"

// CommandTopic returns the MQTT topic for write commands to a point.
// Example: graylogic/command/hass/kitchen_light
func CommandTopic(point string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefix, Protocol, point)
}

// AckTopic returns the MQTT topic for command acknowledgments.
// Example: graylogic/ack/hass/kitchen_light
func AckTopic(point string) string {
	return fmt.Sprintf("%s/ack/%s/%s", TopicPrefix, Protocol, point)
}

// StateTopic returns the MQTT topic for point state updates.
// Example: graylogic/state/hass/kitchen_light
func StateTopic(point string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, Protocol, point)
}

// SnapshotTopic returns the MQTT topic for scrape snapshots.
// Example: graylogic/snapshot/hass
func SnapshotTopic() string {
	return fmt.Sprintf("%s/snapshot/%s", TopicPrefix, Protocol)
}

// HealthTopic returns the MQTT topic for health status.
// Example: graylogic/health/hass
func HealthTopic() string {
	return fmt.Sprintf("%s/health/%s", TopicPrefix, Protocol)
}

// CommandSubscribeTopic returns the MQTT subscription pattern for all
// write commands. Point names are single topic segments, so a single-level
// wildcard is sufficient.
// Example: graylogic/command/hass/+
func CommandSubscribeTopic() string {
	return fmt.Sprintf("%s/command/%s/+", TopicPrefix, Protocol)
}
