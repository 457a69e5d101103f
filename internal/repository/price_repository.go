package repository

import (
	"context"

	"market-mood/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

// DB is the connection surface the repositories need. It is satisfied by
// *pgx.Conn and *pgxpool.Conn; the caller owns the connection lifecycle.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PriceRepository writes daily OHLCV rows into fact_price.
type PriceRepository struct {
	db     DB
	tracer trace.Tracer
}

func NewPriceRepository(db DB, tracer trace.Tracer) *PriceRepository {
	return &PriceRepository{db: db, tracer: tracer}
}

// InsertCandles inserts rows not already present by (coin_id, timestamp)
// and reports how many were actually inserted. Conflicting rows are skipped,
// never updated: persisted candles are immutable. One transaction per call;
// an empty batch is a no-op reporting zero.
func (r *PriceRepository) InsertCandles(ctx context.Context, candles []domain.PriceCandle) (int, error) {
	if len(candles) == 0 {
		return 0, nil
	}

	_, span := r.tracer.Start(ctx, "price-repo.insert-candles")
	defer span.End()

	batch := &pgx.Batch{}
	for _, c := range candles {
		batch.Queue(
			`INSERT INTO fact_price (coin_id, timestamp, open, high, low, close, volume)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (coin_id, timestamp) DO NOTHING`,
			c.CoinID, c.Timestamp.UTC(), c.Open, c.High, c.Low, c.Close, c.Volume,
		)
	}
	return execCountingBatch(ctx, r.db, batch, len(candles))
}

// execCountingBatch runs batch inside a single transaction and sums the
// affected-row counts, which with DO NOTHING equals the rows actually
// inserted.
func execCountingBatch(ctx context.Context, db DB, batch *pgx.Batch, n int) (int, error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, batch)
	inserted := 0
	for i := 0; i < n; i++ {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return 0, err
		}
		inserted += int(tag.RowsAffected())
	}
	if err := br.Close(); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return inserted, nil
}
