package signed

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/piratenetwork/zsign/internal/pkg/handoff"
)

type handler struct {
	log   *slog.Logger
	store handoff.Store
}

func New(log *slog.Logger, store handoff.Store) *handler {
	return &handler{
		log:   log,
		store: store,
	}
}

func (h *handler) Handler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	payload, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, handoff.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		h.log.Error("Could not read signed payload", slog.String("id", id), slog.Any("error", err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if encodeErr := json.NewEncoder(w).Encode(payload); encodeErr != nil {
		h.log.Error("Could not write signed payload", slog.Any("error", encodeErr))
	}
}
