package audit

import (
	"context"
	"encoding/json"
	"time"

	"parkgate/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Queue is the Redis list the audit worker drains.
const Queue = "audit:events"

// RedisSink pushes events onto a Redis list. The circuit breaker keeps a dead
// Redis from adding a network timeout to every settlement: once open, events
// are dropped immediately (and logged) until the probe succeeds.
type RedisSink struct {
	rdb     *redis.Client
	breaker *infra.CircuitBreaker
}

func NewRedisSink(rdb *redis.Client) *RedisSink {
	return &RedisSink{
		rdb: rdb,
		breaker: infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
			FailureThreshold: 3,
			SuccessThreshold: 1,
			OpenTimeout:      30 * time.Second,
		}),
	}
}

// Emit serializes the event and enqueues it. Failures are logged and dropped.
func (s *RedisSink) Emit(ctx context.Context, ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("action", ev.Action).Msg("audit: marshal event")
		return
	}

	err = s.breaker.Execute(func() error {
		return s.rdb.LPush(ctx, Queue, data).Err()
	})
	if err != nil {
		log.Warn().
			Err(err).
			Str("action", ev.Action).
			Str("entity_id", ev.EntityID).
			Msg("audit: event dropped")
	}
}

// BreakerState exposes the breaker for the health endpoint.
func (s *RedisSink) BreakerState() string {
	return s.breaker.State().String()
}
