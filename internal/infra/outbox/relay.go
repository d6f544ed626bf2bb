package outbox

import (
	"context"
	"errors"

	appoutbox "airbrb/internal/app/outbox"
)

var ErrRelayNotConfigured = errors.New("outbox: relay missing producer")

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Relay publishes one record through Producer, keyed by aggregate so events of
// one booking or listing stay ordered within a partition.
type Relay struct {
	Producer Producer
	Envelope Envelope
}

func (r Relay) Publish(ctx context.Context, rec appoutbox.EventRecord) error {
	if r.Producer == nil {
		return ErrRelayNotConfigured
	}
	payload, headers, err := r.Envelope.Format(rec)
	if err != nil {
		return err
	}
	return r.Producer.Publish(ctx, r.Envelope.Topic(rec.Name), rec.Aggregate, payload, headers)
}

var _ appoutbox.Publisher = Relay{}
