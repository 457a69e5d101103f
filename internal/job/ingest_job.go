package job

import (
	"context"
	"log"
	"sync"
	"time"

	"market-mood/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// Runner executes one pipeline cycle.
type Runner interface {
	Run(ctx context.Context, now time.Time) domain.RunResult
}

// Locker guards against overlapping runs. A nil Locker disables locking.
type Locker interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Notifier receives the report of every completed run.
type Notifier interface {
	NotifyRun(result domain.RunResult)
}

// IngestJob triggers the ingestion pipeline on a fixed schedule and keeps
// the last run's report for the ops endpoints.
type IngestJob struct {
	tracer   trace.Tracer
	runner   Runner
	locker   Locker
	notifier Notifier
	interval time.Duration

	mu   sync.Mutex
	last *domain.RunResult
}

func NewIngestJob(tracer trace.Tracer, runner Runner, locker Locker, notifier Notifier, interval time.Duration) *IngestJob {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &IngestJob{
		tracer:   tracer,
		runner:   runner,
		locker:   locker,
		notifier: notifier,
		interval: interval,
	}
}

// Start runs immediately, then on every tick. Blocks until ctx is cancelled.
func (j *IngestJob) Start(ctx context.Context) {
	log.Println("Ingest job starting...")

	j.RunNow(ctx)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Ingest job stopped")
			return
		case <-ticker.C:
			j.RunNow(ctx)
		}
	}
}

// RunNow executes one cycle under the run lock. The second return value is
// false when another run holds the lock and this one was skipped.
func (j *IngestJob) RunNow(ctx context.Context) (domain.RunResult, bool) {
	ctx, span := j.tracer.Start(ctx, "ingest-job.run-now")
	defer span.End()

	if j.locker != nil {
		acquired, err := j.locker.Acquire(ctx)
		if err != nil {
			log.Printf("Ingest run lock error: %v", err)
			return domain.RunResult{}, false
		}
		if !acquired {
			log.Println("Ingest run skipped: another run holds the lock")
			return domain.RunResult{}, false
		}
		defer func() {
			if err := j.locker.Release(ctx); err != nil {
				log.Printf("Ingest run lock release error: %v", err)
			}
		}()
	}

	result := j.runner.Run(ctx, time.Now().UTC())

	j.mu.Lock()
	j.last = &result
	j.mu.Unlock()

	if result.Failed() {
		log.Printf("Ingest run finished with errors: %v", result.StageErrors())
	} else {
		log.Printf(
			"Ingest run complete candles=%d/%d readings=%d/%d articles=%d/%d",
			result.CandlesInserted, result.Candles,
			result.ReadingsInserted, result.Readings,
			result.ArticlesInserted, result.Articles,
		)
	}

	if j.notifier != nil {
		j.notifier.NotifyRun(result)
	}
	return result, true
}

// LastResult returns the report of the most recent run, or nil before the
// first one completes.
func (j *IngestJob) LastResult() *domain.RunResult {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.last == nil {
		return nil
	}
	out := *j.last
	return &out
}
