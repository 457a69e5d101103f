package repository

import (
	"context"

	"market-mood/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"
)

// Opener hands the pipeline one connection per run. The orchestrator owns
// the run's connection lifecycle; the repositories just use it.
type Opener struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

func NewOpener(pool *pgxpool.Pool, tracer trace.Tracer) *Opener {
	return &Opener{pool: pool, tracer: tracer}
}

// Store bundles the three repositories over a single acquired connection.
type Store struct {
	conn      *pgxpool.Conn
	prices    *PriceRepository
	fearGreed *FearGreedRepository
	news      *NewsRepository
}

// Open acquires one connection from the pool and builds the repositories
// on top of it. Close must be called when the run finishes.
func (o *Opener) Open(ctx context.Context) (*Store, error) {
	conn, err := o.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &Store{
		conn:      conn,
		prices:    NewPriceRepository(conn, o.tracer),
		fearGreed: NewFearGreedRepository(conn, o.tracer),
		news:      NewNewsRepository(conn, o.tracer),
	}, nil
}

func (s *Store) InsertCandles(ctx context.Context, candles []domain.PriceCandle) (int, error) {
	return s.prices.InsertCandles(ctx, candles)
}

func (s *Store) InsertReadings(ctx context.Context, readings []domain.FearGreedReading) (int, error) {
	return s.fearGreed.InsertReadings(ctx, readings)
}

func (s *Store) InsertArticles(ctx context.Context, articles []domain.NewsArticle) (int, error) {
	return s.news.InsertArticles(ctx, articles)
}

// Close releases the run's connection back to the pool.
func (s *Store) Close() {
	s.conn.Release()
}
