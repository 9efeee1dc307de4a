package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/PabloPavan/bookshelf_api/internal/apperrors"
	"github.com/PabloPavan/bookshelf_api/internal/telemetry"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeAppError maps err to a status code and a JSON body. Storage and
// internal causes are logged, never returned.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		logServerError(r, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if appErr.Kind == apperrors.KindRateLimited && appErr.RetryAfter > 0 {
		seconds := int(appErr.RetryAfter.Seconds())
		if seconds <= 0 {
			seconds = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	status := statusFromKind(appErr.Kind)
	if status >= http.StatusInternalServerError {
		logServerError(r, appErr)
	}
	writeError(w, status, errorMessage(appErr))
}

func logServerError(r *http.Request, err error) {
	if r == nil {
		return
	}
	cause := err.Error()
	var appErr *apperrors.Error
	if errors.As(err, &appErr) && appErr.Err != nil {
		cause = appErr.Message + ": " + appErr.Err.Error()
	}
	telemetry.LogError(r.Context(), "request failed",
		telemetry.LogString("http.method", r.Method),
		telemetry.LogString("http.target", r.URL.Path),
		telemetry.LogString("error.kind", string(apperrors.KindOf(err))),
		telemetry.LogString("error", cause),
		telemetry.LogString("trace.id", telemetry.TraceID(r.Context())),
	)
}

func statusFromKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindInvalidInput, apperrors.KindInvalidRole:
		return http.StatusBadRequest
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindRateLimited:
		return http.StatusTooManyRequests
	case apperrors.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(appErr *apperrors.Error) string {
	if appErr == nil {
		return "internal error"
	}
	switch appErr.Kind {
	case apperrors.KindStorage:
		return "storage error"
	case apperrors.KindInternal:
		if appErr.Message == "" {
			return "internal error"
		}
		return appErr.Message
	}
	if appErr.Message != "" {
		return appErr.Message
	}
	switch appErr.Kind {
	case apperrors.KindUnauthorized:
		return "unauthorized"
	case apperrors.KindForbidden:
		return "access denied"
	case apperrors.KindNotFound:
		return "not found"
	case apperrors.KindConflict:
		return "conflict"
	case apperrors.KindRateLimited:
		return "too many requests"
	case apperrors.KindInvalidRole:
		return "invalid role"
	case apperrors.KindUpstream:
		return "upstream error"
	default:
		return "invalid request"
	}
}
