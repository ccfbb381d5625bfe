package worker

import (
	"context"
	"encoding/json"
	"time"

	"parkgate/internal/audit"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueShiftReport = "jobs:shift_report"
	QueueEmail       = "jobs:email"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ShiftReportPayload requests an end-of-shift summary email for a closed shift.
type ShiftReportPayload struct {
	ShiftID string `json:"shift_id"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueShiftReport pushes a shift report job to Redis.
func (d *Dispatcher) EnqueueShiftReport(ctx context.Context, payload interface{}) error {
	return d.enqueue(ctx, QueueShiftReport, "shift_report", payload)
}

// EnqueueEmail pushes an email job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload interface{}) error {
	return d.enqueue(ctx, QueueEmail, "email", payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Handlers bundles the job processors a worker goroutine dispatches to.
type Handlers struct {
	Audit       *AuditWorker
	ShiftReport *ShiftReportWorker
	Email       *EmailWorker
}

// StartWorkerPool launches numWorkers goroutines consuming the audit queue
// and both job queues. Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, numWorkers int, h Handlers) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, i, h)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, id int, h Handlers) {
	queues := []string{audit.Queue, QueueShiftReport, QueueEmail}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, h, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, h Handlers, queue, raw string) {
	// The audit queue carries bare events, not Job envelopes.
	if queue == audit.Queue {
		if h.Audit == nil {
			return
		}
		if err := h.Audit.Process(ctx, []byte(raw)); err != nil {
			log.Error().Err(err).Msg("audit worker: persist failed")
			SendToDLQ(ctx, rdb, queue, "audit", []byte(raw), err.Error(), 1)
		}
		return
	}

	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	var procErr error
	switch job.Type {
	case "shift_report":
		if h.ShiftReport != nil {
			procErr = h.ShiftReport.Process(ctx, job.Payload)
		}
	case "email":
		if h.Email != nil {
			procErr = h.Email.Process(ctx, job.Payload)
		}
	default:
		log.Warn().Str("type", job.Type).Str("queue", queue).Msg("unknown job type")
		return
	}
	if procErr != nil {
		log.Error().Err(procErr).Str("type", job.Type).Msg("job processing failed")
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, procErr.Error(), 1)
	}
}
