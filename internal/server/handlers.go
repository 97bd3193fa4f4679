package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"feedcache/internal/feedcache"
)

// emptyManifest is served until the first sync has written a manifest.
var emptyManifest = []byte("[]")

// handleManifest serves the stored manifest bytes unchanged. It never
// reports an error to the display surface; anything unreadable is served as
// an empty list and logged.
func (s *Server) handleManifest(key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := s.svc.Manifest(r.Context(), key)
		if err != nil {
			if !errors.Is(err, feedcache.ErrAssetNotFound) {
				s.logger.Warn("manifest unreadable, serving empty list", "key", key, "error", err)
			}
			data = emptyManifest
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

// handleSync runs a sync and answers with the API status payload. The run is
// detached from the request so a client hanging up does not cut it short.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.Sync(context.WithoutCancel(r.Context()), "http")
	payload := feedcache.NewAPIStatusResponse(result)

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, payload)
	case errors.Is(err, feedcache.ErrSyncInProgress):
		writeJSON(w, http.StatusConflict, payload)
	case errors.Is(err, feedcache.ErrNotInstalled):
		s.logger.Warn("sync requested before install", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, payload)
	default:
		s.logger.Error("sync failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, payload)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
