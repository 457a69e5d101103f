package repository

import (
	"context"

	"market-mood/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

// FearGreedRepository writes index readings into fact_fear_greed.
type FearGreedRepository struct {
	db     DB
	tracer trace.Tracer
}

func NewFearGreedRepository(db DB, tracer trace.Tracer) *FearGreedRepository {
	return &FearGreedRepository{db: db, tracer: tracer}
}

// InsertReadings inserts readings not already present by timestamp and
// reports the inserted count. Empty input is a no-op reporting zero.
func (r *FearGreedRepository) InsertReadings(ctx context.Context, readings []domain.FearGreedReading) (int, error) {
	if len(readings) == 0 {
		return 0, nil
	}

	_, span := r.tracer.Start(ctx, "feargreed-repo.insert-readings")
	defer span.End()

	batch := &pgx.Batch{}
	for _, reading := range readings {
		batch.Queue(
			`INSERT INTO fact_fear_greed (timestamp, value, classification)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (timestamp) DO NOTHING`,
			reading.Timestamp.UTC(), reading.Value, reading.Classification,
		)
	}
	return execCountingBatch(ctx, r.db, batch, len(readings))
}
