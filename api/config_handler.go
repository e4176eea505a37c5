package api

import (
	"net/http"

	"github.com/seenimoa/nsequant/internal/config"
)

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
type ConfigResponse struct {
	Config *config.Config      `json:"config"`
	Paths  []config.PathStatus `json:"paths"`
}

// handleGetConfig returns the running configuration and whether each data
// location exists. The gateway never writes configuration.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Config: s.cfg,
			Paths:  config.CheckPaths(s.cfg),
		},
	})
}
