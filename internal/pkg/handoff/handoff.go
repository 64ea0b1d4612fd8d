// Package handoff keeps signed transactions until the online wallet side
// collects them.
package handoff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("signed payload not found")

type SignedPayload struct {
	ID       string    `json:"id"`
	Payload  string    `json:"payload"`
	SignedAt time.Time `json:"signed_at"`
}

func NewSignedPayload(payload string) *SignedPayload {
	return &SignedPayload{
		ID:       uuid.New().String(),
		Payload:  payload,
		SignedAt: time.Now().UTC(),
	}
}

// Sink receives every successfully signed payload.
type Sink interface {
	Deliver(ctx context.Context, p *SignedPayload) error
	Name() string
}

// Store is a Sink that can be read back by id.
type Store interface {
	Sink
	Get(ctx context.Context, id string) (*SignedPayload, error)
}

// Deliver hands p to every sink and joins their errors.
func Deliver(ctx context.Context, p *SignedPayload, sinks ...Sink) error {
	var errs []error
	for _, sink := range sinks {
		if err := sink.Deliver(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}

	return errors.Join(errs...)
}
