package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"treasury-engine/internal/domain"
	"treasury-engine/internal/store"
)

type ProspectsHandler struct {
	Prospects store.ProspectStore
}

// List serves the prospect store in stored order (best first), optionally
// filtered by ?tier= and ?min_score=.
func (h ProspectsHandler) List(w http.ResponseWriter, r *http.Request) {
	ps, ok := h.load(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	tier := q.Get("tier")
	minScore := 0
	if s := q.Get("min_score"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, "bad_request", "min_score must be an integer")
			return
		}
		minScore = n
	}

	out := make([]domain.Prospect, 0, len(ps))
	for _, p := range ps {
		if tier != "" && p.Tier != tier {
			continue
		}
		if p.Score < minScore {
			continue
		}
		out = append(out, p)
	}
	WriteJSON(w, http.StatusOK, out)
}

func (h ProspectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ps, ok := h.load(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "company")
	for _, p := range ps {
		if p.Company == name {
			WriteJSON(w, http.StatusOK, p)
			return
		}
	}
	WriteError(w, r, http.StatusNotFound, "not_found", "no prospect named "+strconv.Quote(name))
}

func (h ProspectsHandler) load(w http.ResponseWriter, r *http.Request) ([]domain.Prospect, bool) {
	ps, err := h.Prospects.Load()
	if err != nil {
		zap.L().Error("http: load prospects", zap.Error(err))
		WriteError(w, r, http.StatusInternalServerError, "store_error", "could not read prospects")
		return nil, false
	}
	return ps, true
}
