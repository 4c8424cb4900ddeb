package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"tracker/internal/core"
	applog "tracker/internal/log"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// classify maps err onto a status and API code. fallback is the code used
// for storage failures of the current operation.
func classify(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, core.CodeNotFound
	case errors.Is(err, core.ErrNoFields):
		return http.StatusBadRequest, core.CodeNoFields
	case errors.Is(err, core.ErrInvalidEntry):
		return http.StatusBadRequest, core.CodeInvalidBody
	}
	switch code := core.CodeOf(err); code {
	case core.CodeInvalidBody, core.CodeNoFields, core.CodeInvalidID, core.CodeInvalidQuery:
		return http.StatusBadRequest, code
	case core.CodeNotFound:
		return http.StatusNotFound, code
	case core.CodeRateLimited:
		return http.StatusTooManyRequests, code
	case core.CodeBusUnavailable:
		return http.StatusServiceUnavailable, code
	}
	if fallback == "" {
		fallback = core.CodeInternal
	}
	return http.StatusInternalServerError, fallback
}

// fail writes the coded error response for err and logs it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error, fallback string) {
	status, code := classify(err, fallback)
	ctx := r.Context()
	if status >= http.StatusInternalServerError {
		s.events.LogError(ctx, "Request failed", err, code, applog.ErrorTypeDatabase, op)
	} else {
		applog.FromContext(ctx).WarnContext(ctx, "Request rejected",
			applog.FieldOperation, op,
			applog.FieldErrorCode, code,
			applog.FieldError, err.Error())
	}
	writeJSON(w, status, errorBody{Error: code})
}
