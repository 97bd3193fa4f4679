package server

import "net/http"

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})

	s.mux.HandleFunc("GET /"+s.photoManifest, s.handleManifest(s.photoManifest))
	s.mux.HandleFunc("GET /"+s.userManifest, s.handleManifest(s.userManifest))
	s.mux.HandleFunc("POST /sync", s.handleSync)
}
