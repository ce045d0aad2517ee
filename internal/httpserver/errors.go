package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/countryguess/internal/countries"
	"github.com/robalobadob/countryguess/internal/game"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto status codes and stable error codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, countries.ErrInvalidTier):
		status, code = http.StatusBadRequest, "invalid_difficulty"
	case errors.Is(err, game.ErrUnknownCountry):
		status, code = http.StatusBadRequest, "unknown_country"
	case errors.Is(err, game.ErrNoActiveGame):
		status, code = http.StatusNotFound, "no_active_game"
	case errors.Is(err, countries.ErrEmptyTier):
		status, code = http.StatusUnprocessableEntity, "empty_difficulty"
	case errors.Is(err, countries.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case countries.IsDataSource(err):
		status, code = http.StatusBadGateway, "data_source"
	}

	ev := hlog.FromRequest(r).Warn()
	if status >= 500 {
		ev = hlog.FromRequest(r).Error()
	}
	ev.Err(err).Int("status", status).Str("code", code).Msg("request failed")

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}
