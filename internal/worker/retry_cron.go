package worker

// retry_cron.go
// Background goroutine that periodically re-attempts dead-lettered jobs.
// Audit events especially must not be lost to a transient database outage:
// they cycle back until the insert succeeds or the attempt cap parks them
// for manual inspection.

import (
	"context"
	"encoding/json"
	"time"

	"parkgate/internal/audit"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 20
	maxJobAttempts    = 5

	// ParkedQueue holds entries that exhausted their retries.
	ParkedQueue = "dlq:parked"
)

// StartRetryCron launches a goroutine that ticks every 30s and re-runs
// dead-lettered jobs through their handlers. It respects the context for
// graceful shutdown.
func StartRetryCron(ctx context.Context, rdb *redis.Client, h Handlers) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				for _, queue := range []string{audit.Queue, QueueShiftReport, QueueEmail} {
					retryDLQ(ctx, rdb, h, queue)
				}
			}
		}
	}()
}

func retryDLQ(ctx context.Context, rdb *redis.Client, h Handlers, queue string) {
	dlqKey := DLQPrefix + queue
	for i := 0; i < retryBatchSize; i++ {
		raw, err := rdb.RPop(ctx, dlqKey).Result()
		if err != nil {
			return // empty or redis unavailable
		}

		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Error().Err(err).Str("dlq_key", dlqKey).Msg("retry_cron: corrupt DLQ entry parked")
			_ = rdb.LPush(ctx, ParkedQueue, raw).Err()
			continue
		}

		var procErr error
		switch {
		case queue == audit.Queue && h.Audit != nil:
			procErr = h.Audit.Process(ctx, entry.Payload)
		case entry.JobType == "shift_report" && h.ShiftReport != nil:
			procErr = h.ShiftReport.Process(ctx, entry.Payload)
		case entry.JobType == "email" && h.Email != nil:
			procErr = h.Email.Process(ctx, entry.Payload)
		default:
			_ = rdb.LPush(ctx, ParkedQueue, raw).Err()
			continue
		}

		if procErr == nil {
			log.Info().
				Str("queue", entry.OriginalQueue).
				Str("job_type", entry.JobType).
				Int("attempts", entry.Attempts).
				Msg("retry_cron: job recovered")
			continue
		}

		entry.Attempts++
		entry.Reason = procErr.Error()
		entry.FailedAt = time.Now().UTC().Format(time.RFC3339)
		data, err := json.Marshal(entry)
		if err != nil {
			log.Error().Err(err).Msg("retry_cron: marshal DLQ entry")
			continue
		}
		if entry.Attempts >= maxJobAttempts {
			log.Warn().
				Str("queue", entry.OriginalQueue).
				Str("job_type", entry.JobType).
				Int("attempts", entry.Attempts).
				Msg("retry_cron: attempt cap reached, parking for manual inspection")
			_ = rdb.LPush(ctx, ParkedQueue, data).Err()
			continue
		}
		_ = rdb.LPush(ctx, dlqKey, data).Err()
	}
}
