package sign

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/piratenetwork/zsign/internal/pkg/signing"
	"github.com/piratenetwork/zsign/internal/pkg/zsign"
)

// MaxBodyBytes bounds a pasted command. Real commands with a handful of notes
// stay well below it.
const MaxBodyBytes = 1 << 20

type Signer interface {
	Sign(ctx context.Context, raw string) signing.Outcome
}

type Response struct {
	Status  string `json:"status"`
	Kind    string `json:"kind"`
	Heading string `json:"heading"`
	Result  string `json:"result"`
	ID      string `json:"id,omitempty"`
}

type handler struct {
	log    *slog.Logger
	signer Signer
}

func New(log *slog.Logger, signer Signer) *handler {
	return &handler{
		log:    log,
		signer: signer,
	}
}

func (h *handler) Handler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}

		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	outcome := h.signer.Sign(r.Context(), string(body))
	if !outcome.Changed {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := Response{
		Status:  "failed",
		Kind:    outcome.Kind.String(),
		Heading: outcome.Display.Heading,
		Result:  outcome.Display.Text,
		ID:      outcome.ID,
	}
	if outcome.Kind == zsign.KindNone {
		resp.Status = "signed"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusCode(outcome.Kind))
	if encodeErr := json.NewEncoder(w).Encode(resp); encodeErr != nil {
		h.log.Error("Could not write sign response", slog.Any("error", encodeErr))
	}
}

func StatusCode(kind zsign.Kind) int {
	switch kind {
	case zsign.KindNone:
		return http.StatusOK
	case zsign.KindEmptyInput:
		return http.StatusNoContent
	case zsign.KindSchemaMismatch, zsign.KindParameterConversion:
		return http.StatusBadRequest
	case zsign.KindRemoteError, zsign.KindUnparseableRemoteError, zsign.KindEmptyResult, zsign.KindUnexpectedResult:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
