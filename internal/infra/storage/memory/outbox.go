package memory

import (
	"context"
	"sync"

	appoutbox "airbrb/internal/app/outbox"
	"airbrb/internal/app/uow"
)

// Outbox holds records in memory. Records added inside a memory unit of work
// become visible once that unit commits. Flush hands pending records to
// Publisher when one is set and otherwise discards them.
type Outbox struct {
	Publisher appoutbox.Publisher

	mu      sync.Mutex
	records []appoutbox.EventRecord
}

func NewOutbox(publisher appoutbox.Publisher) *Outbox {
	return &Outbox{Publisher: publisher}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if unit, ok := uow.FromContext(ctx); ok {
		if mem, ok := uow.Innermost(unit).(*Unit); ok {
			mem.OnCommit(func() { o.append(record) })
			return nil
		}
	}
	o.append(record)
	return nil
}

func (o *Outbox) append(record appoutbox.EventRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
}

// Flush publishes pending records in order. Records after a failed publish
// stay queued for the next flush.
func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	pending := o.records
	o.records = nil
	o.mu.Unlock()
	if o.Publisher == nil {
		return nil
	}
	for i, rec := range pending {
		if err := o.Publisher.Publish(ctx, rec); err != nil {
			o.mu.Lock()
			o.records = append(append([]appoutbox.EventRecord(nil), pending[i:]...), o.records...)
			o.mu.Unlock()
			return err
		}
	}
	return nil
}

// Pending returns a copy of queued records.
func (o *Outbox) Pending() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]appoutbox.EventRecord(nil), o.records...)
}

var _ appoutbox.Outbox = (*Outbox)(nil)
