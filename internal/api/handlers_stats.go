package api

import (
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"distillations": s.orchestrator.Stats().Snapshot(),
		"queue_depth":   s.orchestrator.QueueDepth(),
	})
}
