package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"study-session-engine/internal/app"
	"study-session-engine/internal/auth"
	"study-session-engine/internal/domain"
)

// HistoryHandler serves the history log and its aggregate stats for the
// currently signed-in user (or the anonymous log when signed out).
type HistoryHandler struct {
	history  *app.HistoryStore
	identity *auth.Adapter
}

func NewHistoryHandler(history *app.HistoryStore, identity *auth.Adapter) *HistoryHandler {
	return &HistoryHandler{history: history, identity: identity}
}

// ServeHistory handles GET (full log) and DELETE (clear) on /history.
func (h *HistoryHandler) ServeHistory(w http.ResponseWriter, r *http.Request) {
	userID := h.identity.CurrentUserID()
	switch r.Method {
	case http.MethodGet:
		entries, err := h.history.ReadAll(r.Context(), userID)
		if err != nil {
			writeStorageError(w, err)
			return
		}
		writeJSONResponse(w, entries)
	case http.MethodDelete:
		if err := h.history.Clear(r.Context(), userID); err != nil {
			writeStorageError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ServeStats handles GET /history/stats.
func (h *HistoryHandler) ServeStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	stats, err := h.history.Stats(r.Context(), h.identity.CurrentUserID())
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSONResponse(w, stats)
}

func writeStorageError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrStorageUnavailable) {
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSONResponse(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
