package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	appoutbox "airbrb/internal/app/outbox"
)

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

// Claimed is a record leased to one worker.
type Claimed struct {
	Record   appoutbox.EventRecord
	Attempts int
}

// Queue is the durable side of the outbox as seen by the relay worker.
type Queue interface {
	// Claim leases the oldest due record or returns nil when none is due.
	Claim(ctx context.Context, workerID string) (*Claimed, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

// Worker drains a Queue into a Publisher on a fixed interval.
type Worker struct {
	Queue     Queue
	Publisher appoutbox.Publisher
	Interval  time.Duration
	ID        string
	Backoff   []time.Duration
	Logger    *slog.Logger
	Now       func() time.Time
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Queue == nil || w.Publisher == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Drain(ctx); err != nil {
				return err
			}
		}
	}
}

// Drain publishes due records until the queue is empty and reports how many
// were sent. Publish failures are rescheduled, queue failures are returned.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	sent := 0
	for {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		ok, err := w.processOnce(ctx)
		if err != nil || !ok {
			return sent, err
		}
		sent++
	}
}

// processOnce reports false when nothing was sent.
func (w *Worker) processOnce(ctx context.Context) (bool, error) {
	claimed, err := w.Queue.Claim(ctx, w.ID)
	if err != nil || claimed == nil {
		return false, err
	}
	rec := claimed.Record
	if err := w.Publisher.Publish(ctx, rec); err != nil {
		w.logger().WarnContext(ctx, "outbox publish failed",
			"event_id", rec.ID,
			"event", rec.Name,
			"attempts", claimed.Attempts+1,
			"error", err,
		)
		if markErr := w.Queue.MarkFailed(ctx, rec.ID, w.nextRetry(claimed.Attempts), err.Error()); markErr != nil {
			return false, markErr
		}
		return false, nil
	}
	return true, w.Queue.MarkSent(ctx, rec.ID)
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) now() time.Time {
	if w.Now != nil {
		return w.Now().UTC()
	}
	return time.Now().UTC()
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return w.now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return w.now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return w.now().Add(5 * time.Second)
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
