package bridge

import (
	"encoding/json"
	"testing"
	"time"
)

func TestWriteMessageJSON(t *testing.T) {
	cmd := WriteMessage{
		ID:        "cmd-123",
		Timestamp: time.Date(2026, 1, 20, 10, 30, 0, 0, time.UTC),
		Point:     "kitchen_light",
		Value:     1,
		Source:    "api",
	}

	data, err := json.Marshal(&cmd)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	// Verify timestamp format
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal to map failed: %v", err)
	}
	ts, ok := raw["timestamp"].(string)
	if !ok {
		t.Fatal("timestamp should be a string")
	}
	if ts != "2026-01-20T10:30:00Z" {
		t.Errorf("timestamp = %q, want 2026-01-20T10:30:00Z", ts)
	}

	// Unmarshal back
	var decoded WriteMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded.ID != cmd.ID {
		t.Errorf("ID = %q, want %q", decoded.ID, cmd.ID)
	}
	if decoded.Point != cmd.Point {
		t.Errorf("Point = %q, want %q", decoded.Point, cmd.Point)
	}
	// JSON numbers decode as float64
	if decoded.Value != float64(1) {
		t.Errorf("Value = %v (%T), want 1", decoded.Value, decoded.Value)
	}
	if !decoded.Timestamp.Equal(cmd.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", decoded.Timestamp, cmd.Timestamp)
	}
}

func TestWriteMessageUnmarshalTolerance(t *testing.T) {
	// Core peers omit optional fields; the timestamp may be absent entirely.
	var cmd WriteMessage
	if err := json.Unmarshal([]byte(`{"id":"cmd-1","point":"hvac_setpoint","value":72}`), &cmd); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if cmd.Point != "hvac_setpoint" {
		t.Errorf("Point = %q, want hvac_setpoint", cmd.Point)
	}
	if !cmd.Timestamp.IsZero() {
		t.Errorf("Timestamp = %v, want zero for omitted field", cmd.Timestamp)
	}

	// A malformed timestamp is an error, not silently dropped.
	err := json.Unmarshal([]byte(`{"id":"cmd-2","point":"x","value":1,"timestamp":"yesterday"}`), &cmd)
	if err == nil {
		t.Error("Unmarshal should fail for malformed timestamp")
	}
}

func TestNewWriteMessage(t *testing.T) {
	cmd := NewWriteMessage("porch_switch", 0, "automation")

	if cmd.ID == "" {
		t.Error("ID should be generated")
	}
	if cmd.Point != "porch_switch" {
		t.Errorf("Point = %q, want porch_switch", cmd.Point)
	}
	if cmd.Value != 0 {
		t.Errorf("Value = %v, want 0", cmd.Value)
	}
	if cmd.Source != "automation" {
		t.Errorf("Source = %q, want automation", cmd.Source)
	}
	if cmd.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}

	// IDs must differ between messages
	other := NewWriteMessage("porch_switch", 1, "automation")
	if other.ID == cmd.ID {
		t.Error("consecutive messages should carry distinct IDs")
	}
}

func TestNewAckMessage(t *testing.T) {
	cmd := WriteMessage{
		ID:        "cmd-456",
		Timestamp: time.Now().UTC(),
		Point:     "kitchen_light",
		Value:     1,
		Source:    "api",
	}

	ack := NewAckMessage(cmd, AckAccepted)

	if ack.CommandID != cmd.ID {
		t.Errorf("CommandID = %q, want %q", ack.CommandID, cmd.ID)
	}
	if ack.Point != cmd.Point {
		t.Errorf("Point = %q, want %q", ack.Point, cmd.Point)
	}
	if ack.Status != AckAccepted {
		t.Errorf("Status = %q, want %q", ack.Status, AckAccepted)
	}
	if ack.Protocol != "hass" {
		t.Errorf("Protocol = %q, want hass", ack.Protocol)
	}
	if ack.Error != nil {
		t.Error("Error should be nil for accepted status")
	}
}

func TestNewAckError(t *testing.T) {
	cmd := WriteMessage{
		ID:    "cmd-789",
		Point: "hvac_mode",
	}

	ack := NewAckError(cmd, ErrCodeReadOnly, "point is read-only")

	if ack.Status != AckFailed {
		t.Errorf("Status = %q, want %q", ack.Status, AckFailed)
	}
	if ack.Error == nil {
		t.Fatal("Error should not be nil")
	}
	if ack.Error.Code != ErrCodeReadOnly {
		t.Errorf("Error.Code = %q, want %q", ack.Error.Code, ErrCodeReadOnly)
	}
	if ack.Error.Message != "point is read-only" {
		t.Errorf("Error.Message = %q, want 'point is read-only'", ack.Error.Message)
	}

	// Timeout code maps to the timeout status
	ackTimeout := NewAckError(cmd, ErrCodeTimeout, "hub did not answer")
	if ackTimeout.Status != AckTimeout {
		t.Errorf("Timeout status = %q, want %q", ackTimeout.Status, AckTimeout)
	}
}

func TestNewPointStateMessage(t *testing.T) {
	msg := NewPointStateMessage("hvac_setpoint", 21.5, "scrape")

	if msg.Point != "hvac_setpoint" {
		t.Errorf("Point = %q, want hvac_setpoint", msg.Point)
	}
	if msg.Value != 21.5 {
		t.Errorf("Value = %v, want 21.5", msg.Value)
	}
	if msg.Source != "scrape" {
		t.Errorf("Source = %q, want scrape", msg.Source)
	}
	if msg.Protocol != "hass" {
		t.Errorf("Protocol = %q, want hass", msg.Protocol)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestNewSnapshotMessage(t *testing.T) {
	points := map[string]any{
		"kitchen_light": 1,
		"hvac_setpoint": 21.5,
	}

	msg := NewSnapshotMessage("scrape-001", points, 2, 1500*time.Millisecond)

	if msg.ScrapeID != "scrape-001" {
		t.Errorf("ScrapeID = %q, want scrape-001", msg.ScrapeID)
	}
	if msg.PointCount != 2 {
		t.Errorf("PointCount = %d, want 2", msg.PointCount)
	}
	if msg.FailureCount != 2 {
		t.Errorf("FailureCount = %d, want 2", msg.FailureCount)
	}
	if msg.DurationMS != 1500 {
		t.Errorf("DurationMS = %d, want 1500", msg.DurationMS)
	}
	if msg.Points["kitchen_light"] != 1 {
		t.Errorf("Points[kitchen_light] = %v, want 1", msg.Points["kitchen_light"])
	}
}

func TestNewLWTMessage(t *testing.T) {
	msg := NewLWTMessage("hass")

	if msg.Bridge != "hass" {
		t.Errorf("Bridge = %q, want hass", msg.Bridge)
	}
	if msg.Status != HealthOffline {
		t.Errorf("Status = %q, want %q", msg.Status, HealthOffline)
	}
	if msg.Reason != "unexpected_disconnect" {
		t.Errorf("Reason = %q, want unexpected_disconnect", msg.Reason)
	}
}

func TestTopicHelpers(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"CommandTopic", CommandTopic("kitchen_light"), "graylogic/command/hass/kitchen_light"},
		{"AckTopic", AckTopic("kitchen_light"), "graylogic/ack/hass/kitchen_light"},
		{"StateTopic", StateTopic("hvac_mode"), "graylogic/state/hass/hvac_mode"},
		{"SnapshotTopic", SnapshotTopic(), "graylogic/snapshot/hass"},
		{"HealthTopic", HealthTopic(), "graylogic/health/hass"},
		{"CommandSubscribeTopic", CommandSubscribeTopic(), "graylogic/command/hass/+"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.expected)
			}
		})
	}
}

func TestAckMessageJSON(t *testing.T) {
	ack := AckMessage{
		CommandID: "cmd-test",
		Timestamp: time.Date(2026, 1, 20, 11, 0, 0, 0, time.UTC),
		Point:     "kitchen_light",
		Status:    AckFailed,
		Protocol:  "hass",
		Error: &AckError{
			Code:    ErrCodeHubUnreachable,
			Message: "hub did not respond",
		},
	}

	data, err := json.Marshal(ack)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded AckMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded.CommandID != ack.CommandID {
		t.Errorf("CommandID = %q, want %q", decoded.CommandID, ack.CommandID)
	}
	if decoded.Status != ack.Status {
		t.Errorf("Status = %q, want %q", decoded.Status, ack.Status)
	}
	if decoded.Error == nil {
		t.Fatal("Error should not be nil")
	}
	if decoded.Error.Code != ack.Error.Code {
		t.Errorf("Error.Code = %q, want %q", decoded.Error.Code, ack.Error.Code)
	}
}
