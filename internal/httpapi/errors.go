package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// APIError is the body of every non-2xx response.
type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"requestId,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("http: encode response", zap.Error(err))
	}
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}
