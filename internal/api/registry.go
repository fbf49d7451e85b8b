package api

import (
	"net/http"

	"github.com/nerrad567/gray-logic-hass/internal/hass"
)

// handleGetRegistry returns the active register catalog and its source path.
// Registers reflect the definitions as parsed: rows with empty entity ids
// are absent, duplicate point names resolved, defaults coerced.
func (s *Server) handleGetRegistry(w http.ResponseWriter, _ *http.Request) {
	points := s.driver.Points()
	writeJSON(w, http.StatusOK, map[string]any{
		"path":   s.registryPath,
		"points": points,
		"count":  len(points),
		"stats":  s.driver.CatalogStats(),
	})
}

// handleReloadRegistry re-reads the registry file and reconfigures the
// driver. The catalog is replaced wholesale: points absent from the new
// file disappear, last values reset to the definitions' defaults. The
// bridge's state cache is cleared so every point republishes on the next
// scrape pass.
func (s *Server) handleReloadRegistry(w http.ResponseWriter, r *http.Request) {
	defs, err := hass.LoadDefinitions(s.registryPath)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, ErrCodeInvalidRegistry, err.Error())
		return
	}

	if err := s.driver.Configure(s.hubCfg, defs); err != nil {
		writeDriverError(w, err)
		return
	}

	if s.bridge != nil {
		s.bridge.ClearStateCache()
	}

	s.logger.Info("registry reloaded via API",
		"path", s.registryPath,
		"defined", len(defs),
		"points", s.driver.PointCount(),
		"request_id", r.Context().Value(ctxKeyRequestID))

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "reloaded",
		"defined": len(defs),
		"points":  s.driver.PointCount(),
	})
}
