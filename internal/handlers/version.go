package handlers

import (
	"net/http"

	"photo-vault/internal/startup"
)

// Version returns the build information for the running server.
func (h *Handlers) Version(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, startup.GetBuildInfo())
}
