package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-hass/internal/hass"
	"github.com/nerrad567/gray-logic-hass/internal/history"
)

// publishedMessage captures one Publish call for assertions.
type publishedMessage struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

// mockMQTT implements MQTTClient for testing.
type mockMQTT struct {
	mu            sync.Mutex
	published     []publishedMessage
	subscriptions []string
	handlers      map[string]func(topic string, payload []byte)
	connected     bool
	publishErr    error
	subscribeErr  error
}

func newMockMQTT() *mockMQTT {
	return &mockMQTT{
		handlers:  make(map[string]func(topic string, payload []byte)),
		connected: true,
	}
}

func (m *mockMQTT) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, publishedMessage{
		Topic:    topic,
		Payload:  payload,
		QoS:      qos,
		Retained: retained,
	})
	return nil
}

func (m *mockMQTT) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscribeErr != nil {
		return m.subscribeErr
	}
	m.subscriptions = append(m.subscriptions, topic)
	m.handlers[topic] = handler
	return nil
}

func (m *mockMQTT) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// SimulateMessage delivers a message to the handler whose subscription
// matches the topic. Only the single-level trailing wildcard is supported.
func (m *mockMQTT) SimulateMessage(topic string, payload []byte) {
	m.mu.Lock()
	var handler func(topic string, payload []byte)
	for pattern, h := range m.handlers {
		if pattern == topic {
			handler = h
			break
		}
		if prefix, ok := strings.CutSuffix(pattern, "/+"); ok && strings.HasPrefix(topic, prefix+"/") {
			handler = h
			break
		}
	}
	m.mu.Unlock()

	if handler != nil {
		handler(topic, payload)
	}
}

func (m *mockMQTT) GetPublished() []publishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]publishedMessage, len(m.published))
	copy(result, m.published)
	return result
}

func (m *mockMQTT) ClearPublished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = nil
}

// publishedTo returns messages published to the given topic.
func (m *mockMQTT) publishedTo(topic string) []publishedMessage {
	var result []publishedMessage
	for _, msg := range m.GetPublished() {
		if msg.Topic == topic {
			result = append(result, msg)
		}
	}
	return result
}

// setCall captures one SetPoint invocation.
type setCall struct {
	Point string
	Value any
}

// mockDriver implements PointDriver for testing.
type mockDriver struct {
	mu         sync.Mutex
	registers  map[string]hass.Register
	setCalls   []setCall
	setResult  any
	setErr     error
	scrapeData map[string]any
	scrapeErr  error
	healthErr  error
	stats      hass.HubStats
}

func newMockDriver() *mockDriver {
	return &mockDriver{
		registers: map[string]hass.Register{
			"kitchen_light": {PointName: "kitchen_light", EntityID: "light.kitchen", EntityPoint: "state", Type: hass.TypeInteger},
			"hvac_setpoint": {PointName: "hvac_setpoint", EntityID: "climate.house", EntityPoint: "temperature", Type: hass.TypeFloat},
			"porch_switch":  {PointName: "porch_switch", EntityID: "switch.porch", EntityPoint: "state", Type: hass.TypeInteger},
		},
		scrapeData: map[string]any{
			"kitchen_light": 1,
			"hvac_setpoint": 21.5,
			"porch_switch":  0,
		},
	}
}

func (d *mockDriver) SetPoint(_ context.Context, pointName string, value any) (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setCalls = append(d.setCalls, setCall{Point: pointName, Value: value})
	if d.setErr != nil {
		return nil, d.setErr
	}
	if d.setResult != nil {
		return d.setResult, nil
	}
	return value, nil
}

func (d *mockDriver) ScrapeAll(_ context.Context) (map[string]any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.scrapeErr != nil {
		return nil, d.scrapeErr
	}
	result := make(map[string]any, len(d.scrapeData))
	for k, v := range d.scrapeData {
		result[k] = v
	}
	return result, nil
}

func (d *mockDriver) Point(pointName string) (hass.Register, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	reg, ok := d.registers[pointName]
	return reg, ok
}

func (d *mockDriver) PointCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.registers)
}

func (d *mockDriver) HubStats() hass.HubStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func (d *mockDriver) HealthCheck(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.healthErr
}

func (d *mockDriver) getSetCalls() []setCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := make([]setCall, len(d.setCalls))
	copy(result, d.setCalls)
	return result
}

// recordedPoint captures one RecordPoint invocation.
type recordedPoint struct {
	Point  string
	Value  any
	Source string
}

// recordedSnapshot captures one RecordSnapshot invocation.
type recordedSnapshot struct {
	ScrapeID string
	Values   map[string]any
}

// mockHistory implements history.Repository for testing.
type mockHistory struct {
	mu           sync.Mutex
	points       []recordedPoint
	snapshots    []recordedSnapshot
	pruneCalls   []time.Duration
	pruneDeleted int64
	pruneErr     error
	recordErr    error
}

func (h *mockHistory) RecordPoint(_ context.Context, pointName string, value any, source string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.recordErr != nil {
		return h.recordErr
	}
	h.points = append(h.points, recordedPoint{Point: pointName, Value: value, Source: source})
	return nil
}

func (h *mockHistory) RecordSnapshot(_ context.Context, scrapeID string, values map[string]any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.recordErr != nil {
		return h.recordErr
	}
	h.snapshots = append(h.snapshots, recordedSnapshot{ScrapeID: scrapeID, Values: values})
	return nil
}

func (h *mockHistory) GetPointHistory(_ context.Context, _ string, _ int, _ time.Time) ([]history.Entry, error) {
	return nil, nil
}

func (h *mockHistory) Prune(_ context.Context, olderThan time.Duration) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pruneCalls = append(h.pruneCalls, olderThan)
	if h.pruneErr != nil {
		return 0, h.pruneErr
	}
	return h.pruneDeleted, nil
}

func (h *mockHistory) getPoints() []recordedPoint {
	h.mu.Lock()
	defer h.mu.Unlock()
	result := make([]recordedPoint, len(h.points))
	copy(result, h.points)
	return result
}

func (h *mockHistory) getSnapshots() []recordedSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	result := make([]recordedSnapshot, len(h.snapshots))
	copy(result, h.snapshots)
	return result
}

func (h *mockHistory) getPruneCalls() []time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	result := make([]time.Duration, len(h.pruneCalls))
	copy(result, h.pruneCalls)
	return result
}

// telemetryValue captures one WritePointValue invocation.
type telemetryValue struct {
	Point  string
	Domain string
	Value  float64
}

// telemetryStats captures one WriteScrapeStats invocation.
type telemetryStats struct {
	Points   int
	Failures int
	Duration time.Duration
}

// mockTelemetry implements TelemetryWriter for testing.
type mockTelemetry struct {
	mu     sync.Mutex
	values []telemetryValue
	stats  []telemetryStats
}

func (t *mockTelemetry) WritePointValue(pointName string, domain string, value float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values = append(t.values, telemetryValue{Point: pointName, Domain: domain, Value: value})
}

func (t *mockTelemetry) WriteScrapeStats(points int, failures int, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats = append(t.stats, telemetryStats{Points: points, Failures: failures, Duration: duration})
}

func (t *mockTelemetry) getValues() []telemetryValue {
	t.mu.Lock()
	defer t.mu.Unlock()
	result := make([]telemetryValue, len(t.values))
	copy(result, t.values)
	return result
}

func (t *mockTelemetry) getStats() []telemetryStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	result := make([]telemetryStats, len(t.stats))
	copy(result, t.stats)
	return result
}

// createTestBridge builds a bridge with all mocks wired and a long scrape
// interval so the poller stays quiet during direct handler tests.
func createTestBridge(t *testing.T) (*Bridge, *mockMQTT, *mockDriver, *mockHistory, *mockTelemetry) {
	t.Helper()

	mqttClient := newMockMQTT()
	driver := newMockDriver()
	hist := &mockHistory{}
	telemetry := &mockTelemetry{}

	b, err := New(Options{
		Version:        "test",
		Driver:         driver,
		MQTT:           mqttClient,
		History:        hist,
		Telemetry:      telemetry,
		ScrapeInterval: time.Hour,
		HealthInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(b.Stop)

	return b, mqttClient, driver, hist, telemetry
}

func TestNewRequiresDriver(t *testing.T) {
	_, err := New(Options{})
	if err == nil {
		t.Fatal("New should fail without a driver")
	}
}

func TestNewDefaults(t *testing.T) {
	b, err := New(Options{Driver: newMockDriver()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(b.Stop)

	if b.bridgeID != "hass" {
		t.Errorf("bridgeID = %q, want hass", b.bridgeID)
	}
	if b.scrapeInterval != time.Minute {
		t.Errorf("scrapeInterval = %v, want 1m", b.scrapeInterval)
	}
}

func TestBridgeStartStop(t *testing.T) {
	b, mqttClient, _, _, _ := createTestBridge(t)

	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Command subscription registered
	found := false
	for _, sub := range mqttClient.subscriptions {
		if sub == "graylogic/command/hass/+" {
			found = true
		}
	}
	if !found {
		t.Errorf("subscriptions = %v, want graylogic/command/hass/+", mqttClient.subscriptions)
	}

	// Health published at least the starting status
	if len(mqttClient.publishedTo("graylogic/health/hass")) == 0 {
		t.Error("expected health messages on graylogic/health/hass")
	}

	b.Stop()
	b.Stop() // Second stop must not panic
}

func TestStartSubscribeError(t *testing.T) {
	mqttClient := newMockMQTT()
	mqttClient.subscribeErr = errors.New("broker refused")

	b, err := New(Options{
		Driver:         newMockDriver(),
		MQTT:           mqttClient,
		ScrapeInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(b.Stop)

	if err := b.Start(context.Background()); err == nil {
		t.Fatal("Start should fail when the command subscription fails")
	}
}

func TestHandleCommandSuccess(t *testing.T) {
	b, mqttClient, driver, hist, telemetry := createTestBridge(t)
	driver.setResult = 1

	cmd := NewWriteMessage("kitchen_light", 1, "api")
	payload, err := json.Marshal(&cmd)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	b.handleMQTTMessage(CommandTopic("kitchen_light"), payload)

	// Driver received the write
	calls := driver.getSetCalls()
	if len(calls) != 1 {
		t.Fatalf("SetPoint calls = %d, want 1", len(calls))
	}
	if calls[0].Point != "kitchen_light" {
		t.Errorf("SetPoint point = %q, want kitchen_light", calls[0].Point)
	}

	// Accepted ack with the coerced value
	acks := mqttClient.publishedTo("graylogic/ack/hass/kitchen_light")
	if len(acks) != 1 {
		t.Fatalf("ack messages = %d, want 1", len(acks))
	}
	if acks[0].QoS != 1 || acks[0].Retained {
		t.Errorf("ack QoS/retained = %d/%v, want 1/false", acks[0].QoS, acks[0].Retained)
	}
	var ack AckMessage
	if err := json.Unmarshal(acks[0].Payload, &ack); err != nil {
		t.Fatalf("ack unmarshal failed: %v", err)
	}
	if ack.CommandID != cmd.ID {
		t.Errorf("ack CommandID = %q, want %q", ack.CommandID, cmd.ID)
	}
	if ack.Status != AckAccepted {
		t.Errorf("ack Status = %q, want %q", ack.Status, AckAccepted)
	}
	if ack.Value != float64(1) {
		t.Errorf("ack Value = %v, want 1", ack.Value)
	}

	// Retained state update sourced from the write
	states := mqttClient.publishedTo("graylogic/state/hass/kitchen_light")
	if len(states) != 1 {
		t.Fatalf("state messages = %d, want 1", len(states))
	}
	if !states[0].Retained {
		t.Error("state message should be retained")
	}
	var state PointStateMessage
	if err := json.Unmarshal(states[0].Payload, &state); err != nil {
		t.Fatalf("state unmarshal failed: %v", err)
	}
	if state.Source != history.SourceWrite {
		t.Errorf("state Source = %q, want %q", state.Source, history.SourceWrite)
	}

	// History row recorded
	points := hist.getPoints()
	if len(points) != 1 {
		t.Fatalf("history records = %d, want 1", len(points))
	}
	if points[0].Point != "kitchen_light" || points[0].Source != history.SourceWrite {
		t.Errorf("history record = %+v, want kitchen_light/write", points[0])
	}

	// Telemetry shipped with the entity domain tag
	values := telemetry.getValues()
	if len(values) != 1 {
		t.Fatalf("telemetry values = %d, want 1", len(values))
	}
	if values[0].Domain != "light" || values[0].Value != 1 {
		t.Errorf("telemetry value = %+v, want light/1", values[0])
	}

	metrics := b.GetMetrics()
	if metrics.CommandsHandled != 1 {
		t.Errorf("CommandsHandled = %d, want 1", metrics.CommandsHandled)
	}
	if metrics.CommandFailures != 0 {
		t.Errorf("CommandFailures = %d, want 0", metrics.CommandFailures)
	}
}

func TestHandleCommandDriverError(t *testing.T) {
	b, mqttClient, driver, hist, _ := createTestBridge(t)
	driver.setErr = fmt.Errorf("%w: register hvac_mode_raw", hass.ErrReadOnly)

	cmd := NewWriteMessage("hvac_mode_raw", 2, "api")
	payload, _ := json.Marshal(&cmd)

	b.handleMQTTMessage(CommandTopic("hvac_mode_raw"), payload)

	acks := mqttClient.publishedTo("graylogic/ack/hass/hvac_mode_raw")
	if len(acks) != 1 {
		t.Fatalf("ack messages = %d, want 1", len(acks))
	}
	var ack AckMessage
	if err := json.Unmarshal(acks[0].Payload, &ack); err != nil {
		t.Fatalf("ack unmarshal failed: %v", err)
	}
	if ack.Status != AckFailed {
		t.Errorf("ack Status = %q, want %q", ack.Status, AckFailed)
	}
	if ack.Error == nil || ack.Error.Code != ErrCodeReadOnly {
		t.Errorf("ack Error = %+v, want code %s", ack.Error, ErrCodeReadOnly)
	}

	// No state update or history row for a rejected write
	if n := len(mqttClient.publishedTo("graylogic/state/hass/hvac_mode_raw")); n != 0 {
		t.Errorf("state messages = %d, want 0", n)
	}
	if n := len(hist.getPoints()); n != 0 {
		t.Errorf("history records = %d, want 0", n)
	}

	metrics := b.GetMetrics()
	if metrics.CommandFailures != 1 {
		t.Errorf("CommandFailures = %d, want 1", metrics.CommandFailures)
	}
}

func TestHandleCommandMalformedPayload(t *testing.T) {
	b, mqttClient, driver, _, _ := createTestBridge(t)

	b.handleMQTTMessage(CommandTopic("kitchen_light"), []byte("{not json"))

	if n := len(driver.getSetCalls()); n != 0 {
		t.Errorf("SetPoint calls = %d, want 0", n)
	}
	// Nothing to ack without a command ID
	if n := len(mqttClient.GetPublished()); n != 0 {
		t.Errorf("published messages = %d, want 0", n)
	}
}

func TestHandleCommandMissingPoint(t *testing.T) {
	b, mqttClient, driver, _, _ := createTestBridge(t)

	b.handleMQTTMessage(CommandTopic("kitchen_light"), []byte(`{"id":"cmd-1","value":1}`))

	if n := len(driver.getSetCalls()); n != 0 {
		t.Errorf("SetPoint calls = %d, want 0", n)
	}

	published := mqttClient.GetPublished()
	if len(published) != 1 {
		t.Fatalf("published messages = %d, want 1", len(published))
	}
	var ack AckMessage
	if err := json.Unmarshal(published[0].Payload, &ack); err != nil {
		t.Fatalf("ack unmarshal failed: %v", err)
	}
	if ack.Status != AckFailed {
		t.Errorf("ack Status = %q, want %q", ack.Status, AckFailed)
	}
	if ack.Error == nil || ack.Error.Code != ErrCodeInvalidPayload {
		t.Errorf("ack Error = %+v, want code %s", ack.Error, ErrCodeInvalidPayload)
	}
}

func TestHandleMQTTMessageBadTopic(t *testing.T) {
	b, mqttClient, driver, _, _ := createTestBridge(t)

	b.handleMQTTMessage("graylogic", []byte(`{}`))
	b.handleMQTTMessage("graylogic/telemetry/hass", []byte(`{}`))

	if n := len(driver.getSetCalls()); n != 0 {
		t.Errorf("SetPoint calls = %d, want 0", n)
	}
	if n := len(mqttClient.GetPublished()); n != 0 {
		t.Errorf("published messages = %d, want 0", n)
	}
}

func TestCommandDeliveryViaSubscription(t *testing.T) {
	b, mqttClient, driver, _, _ := createTestBridge(t)

	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer b.Stop()

	cmd := NewWriteMessage("porch_switch", 0, "scheduler")
	payload, _ := json.Marshal(&cmd)
	mqttClient.SimulateMessage(CommandTopic("porch_switch"), payload)

	calls := driver.getSetCalls()
	if len(calls) != 1 {
		t.Fatalf("SetPoint calls = %d, want 1", len(calls))
	}
	if calls[0].Point != "porch_switch" {
		t.Errorf("SetPoint point = %q, want porch_switch", calls[0].Point)
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"timeout", context.DeadlineExceeded, ErrCodeTimeout},
		{"wrapped timeout", fmt.Errorf("set point: %w", context.DeadlineExceeded), ErrCodeTimeout},
		{"point not found", fmt.Errorf("%w: no_such_point", hass.ErrPointNotFound), ErrCodePointNotFound},
		{"read only", fmt.Errorf("%w: register x", hass.ErrReadOnly), ErrCodeReadOnly},
		{"invalid value", fmt.Errorf("%w: cannot coerce", hass.ErrInvalidValue), ErrCodeInvalidValue},
		{"unsupported entity", fmt.Errorf("%w: domain camera", hass.ErrUnsupportedEntity), ErrCodeUnsupported},
		{"transport", fmt.Errorf("%w: connection refused", hass.ErrTransport), ErrCodeHubUnreachable},
		{"hub rejected", fmt.Errorf("%w: status 500", hass.ErrRequestFailed), ErrCodeHubRejected},
		{"not configured", fmt.Errorf("%w: missing token", hass.ErrConfiguration), ErrCodeNotConfigured},
		{"unknown", errors.New("something else"), ErrCodeBridgeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorCode(tt.err); got != tt.want {
				t.Errorf("errorCode(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestStateChangeDetection(t *testing.T) {
	b, mqttClient, _, _, _ := createTestBridge(t)

	b.publishPointState("kitchen_light", 1, history.SourceScrape)
	b.publishPointState("kitchen_light", 1, history.SourceScrape)

	if n := len(mqttClient.publishedTo("graylogic/state/hass/kitchen_light")); n != 1 {
		t.Errorf("state messages after duplicate = %d, want 1", n)
	}

	b.publishPointState("kitchen_light", 0, history.SourceScrape)
	if n := len(mqttClient.publishedTo("graylogic/state/hass/kitchen_light")); n != 2 {
		t.Errorf("state messages after change = %d, want 2", n)
	}

	// Clearing the cache forces a republish of the same value
	b.ClearStateCache()
	b.publishPointState("kitchen_light", 0, history.SourceScrape)
	if n := len(mqttClient.publishedTo("graylogic/state/hass/kitchen_light")); n != 3 {
		t.Errorf("state messages after cache clear = %d, want 3", n)
	}
}

func TestBridgeWithoutMQTT(t *testing.T) {
	driver := newMockDriver()
	hist := &mockHistory{}

	b, err := New(Options{
		Driver:         driver,
		History:        hist,
		ScrapeInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(b.Stop)

	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Commands still execute and record history without a broker
	cmd := NewWriteMessage("kitchen_light", 1, "api")
	payload, _ := json.Marshal(&cmd)
	b.handleCommand(payload)

	if n := len(driver.getSetCalls()); n != 1 {
		t.Errorf("SetPoint calls = %d, want 1", n)
	}
	if n := len(hist.getPoints()); n != 1 {
		t.Errorf("history records = %d, want 1", n)
	}

	b.Stop()
}

func TestGetMetrics(t *testing.T) {
	b, mqttClient, driver, _, _ := createTestBridge(t)

	okCmd, _ := json.Marshal(NewWriteMessage("kitchen_light", 1, "api"))
	b.handleCommand(okCmd)

	driver.setErr = fmt.Errorf("%w: nope", hass.ErrInvalidValue)
	badCmd, _ := json.Marshal(NewWriteMessage("kitchen_light", "purple", "api"))
	b.handleCommand(badCmd)

	metrics := b.GetMetrics()
	if metrics.CommandsHandled != 1 {
		t.Errorf("CommandsHandled = %d, want 1", metrics.CommandsHandled)
	}
	if metrics.CommandFailures != 1 {
		t.Errorf("CommandFailures = %d, want 1", metrics.CommandFailures)
	}
	if !metrics.MQTTConnected {
		t.Error("MQTTConnected should be true")
	}
	if metrics.PointsManaged != 3 {
		t.Errorf("PointsManaged = %d, want 3", metrics.PointsManaged)
	}

	mqttClient.connected = false
	if b.GetMetrics().MQTTConnected {
		t.Error("MQTTConnected should follow the client")
	}
}

func TestNumericValue(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   float64
		wantOK bool
	}{
		{"int", 1, 1, true},
		{"int64", int64(4), 4, true},
		{"float64", 21.5, 21.5, true},
		{"string", "unavailable", 0, false},
		{"bool", true, 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := numericValue(tt.value)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("numericValue(%v) = (%v, %v), want (%v, %v)", tt.value, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
