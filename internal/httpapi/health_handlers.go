package httpapi

import (
	"net/http"
	"os"
	"time"

	"treasury-engine/internal/store"
)

type HealthHandler struct {
	Jobs store.JobStore
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{"ok": true}
	if st, err := os.Stat(h.Jobs.Path); err == nil {
		out["jobsUpdatedAt"] = st.ModTime().UTC().Format(time.RFC3339)
	}
	WriteJSON(w, http.StatusOK, out)
}
