package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"airbrb/internal/domain/shared/events"
)

// EventRecord is a serialised domain event waiting to be published.
type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

// Outbox stages records inside the current unit of work. Flush hands
// committed records to the publisher.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

// Publisher delivers one committed record to the broker.
type Publisher interface {
	Publish(ctx context.Context, record EventRecord) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

type JSONEventEncoder struct {
	IDGenerator func() string
	Source      string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	idGen := e.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	source := e.Source
	if source == "" {
		source = "airbrb"
	}
	return EventRecord{
		ID:         idGen(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt().UTC(),
		Aggregate:  ev.AggregateID(),
		Headers: map[string]string{
			"content-type": "application/json",
			"ce-type":      ev.EventName(),
			"ce-source":    source,
		},
	}, nil
}

// RecordDomainEvents drains the recorder into box.
func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, recorder interface{ Drain() []events.DomainEvent }) error {
	evs := recorder.Drain()
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
