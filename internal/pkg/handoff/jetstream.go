package handoff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

type publisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

type jetStreamSink struct {
	js      publisher
	subject string
}

const StreamMaxAge = 10 * time.Minute

// Subject is where signed payloads of streamName are published.
func Subject(streamName string) string {
	return fmt.Sprintf(`%s.signed`, streamName)
}

// StreamName is the JetStream stream that keeps payloads of streamName.
func StreamName(streamName string) string {
	return fmt.Sprintf(`%s_STREAM`, streamName)
}

// EnsureStream creates the stream that keeps published payloads.
func EnsureStream(ctx context.Context, js jetstream.JetStream, streamName string) (jetstream.Stream, error) {
	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName(streamName),
		Discard:  jetstream.DiscardOld,
		MaxAge:   StreamMaxAge,
		Subjects: []string{Subject(streamName)},
	})
	if err == nil {
		return stream, nil
	}

	if errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return js.Stream(ctx, StreamName(streamName))
	}

	return nil, fmt.Errorf("could not create %s stream: %w", StreamName(streamName), err)
}

func NewJetStreamSink(js publisher, streamName string) Sink {
	return &jetStreamSink{
		js:      js,
		subject: Subject(streamName),
	}
}

func (j *jetStreamSink) Name() string {
	return "jetstream"
}

func (j *jetStreamSink) Deliver(ctx context.Context, p *SignedPayload) error {
	data, err := Encode(p)
	if err != nil {
		return err
	}

	if _, err := j.js.Publish(ctx, j.subject, data, jetstream.WithMsgID(p.ID)); err != nil {
		return fmt.Errorf("could not publish payload %s to %s: %w", p.ID, j.subject, err)
	}

	return nil
}
