// Package httpx exposes the orchestrator's read side: saga lookups, state
// listings, run statistics and the manual cancel endpoint.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"kafka-ecommerce/services/orchestrator/internal/saga"
)

type Handlers struct {
	Orc *saga.Orchestrator
	Log zerolog.Logger
}

func (h *Handlers) GetSaga(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}
	s, err := h.Orc.Get(r.Context(), id)
	if errors.Is(err, saga.ErrNotFound) {
		http.Error(w, "saga not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, s)
}

func (h *Handlers) ListSagas(w http.ResponseWriter, r *http.Request) {
	var (
		sagas []*saga.Saga
		err   error
	)
	if state := r.URL.Query().Get("state"); state != "" {
		sagas, err = h.Orc.ListByState(r.Context(), saga.State(state))
	} else {
		sagas, err = h.Orc.List(r.Context())
	}
	if err != nil {
		h.serverError(w, err)
		return
	}
	if sagas == nil {
		sagas = []*saga.Saga{}
	}
	h.writeJSON(w, http.StatusOK, sagas)
}

func (h *Handlers) CancelSaga(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}
	s, err := h.Orc.Cancel(r.Context(), id)
	if errors.Is(err, saga.ErrNotFound) {
		http.Error(w, "saga not found", http.StatusNotFound)
		return
	}
	if err != nil {
		// Terminal saga: report the current state as a conflict.
		if s != nil {
			h.writeJSON(w, http.StatusConflict, s)
			return
		}
		h.serverError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, s)
}

func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Orc.Stats(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, st)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Log.Error().Err(err).Msg("encode response")
	}
}

func (h *Handlers) serverError(w http.ResponseWriter, err error) {
	h.Log.Error().Err(err).Msg("request failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}
