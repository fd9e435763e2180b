package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/govhub-labs/govstate-storage/pkg/sdk"
)

type errorResponse struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

// WriteError maps the provider error taxonomy onto HTTP statuses: a missing
// record is 404, an unreachable provider 503, a shape violation 502 and
// anything else 500.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sdk.ErrNotFound):
		WriteJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, sdk.ErrUnavailable):
		WriteJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "upstream unavailable"})
	case errors.Is(err, sdk.ErrInvalidData):
		WriteJSON(w, http.StatusBadGateway, errorResponse{Error: "invalid upstream data"})
	default:
		WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func WriteBadRequest(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}
