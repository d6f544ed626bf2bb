package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Publisher matches Producer.Publish.
type Publisher interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// BreakerSettings tune the circuit around the broker.
type BreakerSettings struct {
	Name             string
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// GuardedProducer stops calling the broker after repeated failures so a
// broker outage fails fast instead of stalling every flush. While open,
// Publish returns gobreaker.ErrOpenState and records stay queued.
type GuardedProducer struct {
	next    Publisher
	breaker *gobreaker.CircuitBreaker
}

func NewGuardedProducer(next Publisher, settings BreakerSettings, logger *slog.Logger) *GuardedProducer {
	if logger == nil {
		logger = slog.Default()
	}
	threshold := settings.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	name := settings.Name
	if name == "" {
		name = "kafka-producer"
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &GuardedProducer{next: next, breaker: cb}
}

func (g *GuardedProducer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, g.next.Publish(ctx, topic, key, payload, headers)
	})
	return err
}

func (g *GuardedProducer) State() gobreaker.State {
	return g.breaker.State()
}
