package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-hass/internal/bridge"
	"github.com/nerrad567/gray-logic-hass/internal/history"
)

// maxPointNameLen bounds point names taken from URL parameters.
const maxPointNameLen = 128

// handleListPoints returns the full register catalog with last values,
// in registry file order.
func (s *Server) handleListPoints(w http.ResponseWriter, _ *http.Request) {
	points := s.driver.Points()
	writeJSON(w, http.StatusOK, map[string]any{
		"points": points,
		"count":  len(points),
	})
}

// handleGetPoint reads the live hub value for one point.
//
// The value is the hub's raw view: state registers return the state string
// untranslated ("on", "heat"), attribute registers the attribute value.
// The translated view is the scrape endpoint.
func (s *Server) handleGetPoint(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" || len(name) > maxPointNameLen {
		writeBadRequest(w, "invalid point name")
		return
	}

	reg, ok := s.driver.Point(name)
	if !ok {
		writeNotFound(w, "point not found")
		return
	}

	value, err := s.driver.GetPoint(r.Context(), name)
	if err != nil {
		writeDriverError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"point":     name,
		"entity_id": reg.EntityID,
		"value":     value,
		"read_only": reg.ReadOnly,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// WritePointRequest is the body for point writes. Value stays raw so a
// JSON null is distinguishable from a missing key.
type WritePointRequest struct {
	Value json.RawMessage `json:"value"`
}

// handleWritePoint validates, coerces, and writes a value to one point.
// The write is synchronous: a 200 means the hub accepted the service call
// and the response carries the coerced value.
func (s *Server) handleWritePoint(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" || len(name) > maxPointNameLen {
		writeBadRequest(w, "invalid point name")
		return
	}

	var req WritePointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(req.Value) == 0 {
		writeBadRequest(w, "value is required")
		return
	}

	var value any
	if err := json.Unmarshal(req.Value, &value); err != nil {
		writeBadRequest(w, "invalid value")
		return
	}

	accepted, err := s.driver.SetPoint(r.Context(), name, value)
	if err != nil {
		writeDriverError(w, err)
		return
	}

	s.recordWrite(r.Context(), name, accepted)
	s.broadcastPointState(name, accepted)

	s.logger.Info("point written via API",
		"point", name,
		"request_id", r.Context().Value(ctxKeyRequestID))

	writeJSON(w, http.StatusOK, map[string]any{
		"point":  name,
		"value":  accepted,
		"status": "accepted",
	})
}

// handleScrape runs an on-demand scrape pass and returns the snapshot.
// Registers that fail to read are absent from the values map; partial
// results are normal when entities are unavailable.
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	values, err := s.driver.ScrapeAll(r.Context())
	if err != nil {
		writeDriverError(w, err)
		return
	}

	failures := s.driver.PointCount() - len(values)
	snapshot := bridge.NewSnapshotMessage(uuid.NewString(), values, failures, time.Since(start))

	s.recordScrape(r.Context(), snapshot.ScrapeID, values)
	s.broadcastSnapshot(snapshot)

	s.logger.Info("scrape via API",
		"scrape_id", snapshot.ScrapeID,
		"points", snapshot.PointCount,
		"failures", snapshot.FailureCount,
		"duration_ms", snapshot.DurationMS)

	writeJSON(w, http.StatusOK, snapshot)
}

// recordWrite appends an API write to the history trail.
func (s *Server) recordWrite(ctx context.Context, point string, value any) {
	if s.history == nil {
		return
	}
	if err := s.history.RecordPoint(ctx, point, value, history.SourceAPI); err != nil {
		s.logger.Warn("failed to record write history", "point", point, "error", err)
	}
}

// recordScrape persists an on-demand scrape snapshot under one scrape id.
func (s *Server) recordScrape(ctx context.Context, scrapeID string, values map[string]any) {
	if s.history == nil || len(values) == 0 {
		return
	}
	if err := s.history.RecordSnapshot(ctx, scrapeID, values); err != nil {
		s.logger.Warn("failed to record scrape history", "scrape_id", scrapeID, "error", err)
	}
}

// broadcastPointState pushes a write result to WebSocket subscribers.
// MQTT consumers learn of API writes at the next poll; WebSocket clients
// see them immediately. The payload matches the bridge's state messages.
func (s *Server) broadcastPointState(point string, value any) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(wsChannelPointState, bridge.NewPointStateMessage(point, value, history.SourceAPI))
}

// broadcastSnapshot pushes an on-demand scrape result to WebSocket subscribers.
func (s *Server) broadcastSnapshot(snapshot bridge.SnapshotMessage) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(wsChannelSnapshot, snapshot)
}
