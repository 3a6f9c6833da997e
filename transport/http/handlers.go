package http

import (
	"encoding/json"
	stdErrors "errors"
	"net/http"
	"strconv"

	"github.com/sreekar2307/clusterhealth/logger"
	"github.com/sreekar2307/clusterhealth/service/errors"
	storageErrors "github.com/sreekar2307/clusterhealth/storage/errors"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 1000
)

type errorRespBody struct {
	Error string `json:"error"`
}

func (h *Http) healthReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report, err := h.health.Check(ctx)
	if err != nil {
		h.writeError(w, r, statusForError(err), err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, report)
}

func (h *Http) healthHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			h.writeError(w, r, http.StatusBadRequest, stdErrors.New("limit must be between 1 and 1000"))
			return
		}
		limit = n
	}
	records, err := h.health.History(ctx, limit)
	if err != nil {
		h.writeError(w, r, statusForError(err), err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, records)
}

func (h *Http) liveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func statusForError(err error) int {
	switch {
	case stdErrors.Is(err, errors.ErrSnapshotUnavailable):
		return http.StatusServiceUnavailable
	case stdErrors.Is(err, errors.ErrInvalidConfiguration):
		return http.StatusInternalServerError
	case stdErrors.Is(err, errors.ErrHistoryDisabled):
		return http.StatusNotFound
	case stdErrors.Is(err, storageErrors.ErrInvalidLimit):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Http) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.log.Error(r.Context(), "request failed",
			logger.NewAttr("path", r.URL.Path),
			logger.NewAttr("status", status),
			logger.NewAttr("error", err),
		)
	}
	h.writeJSON(w, r, status, errorRespBody{Error: err.Error()})
}

func (h *Http) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	responseBody, err := json.Marshal(v)
	if err != nil {
		h.log.Error(r.Context(), "failed to marshal response", logger.NewAttr("error", err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(responseBody)
}
