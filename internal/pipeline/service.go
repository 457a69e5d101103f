// Package pipeline sequences one ingestion run: fetch market data, the
// fear & greed index and news, classify news sentiment, and persist all
// three datasets.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"market-mood/internal/domain"
	"market-mood/internal/sentiment"

	"go.opentelemetry.io/otel/trace"
)

type PriceFetcher interface {
	FetchCandles(ctx context.Context, instruments domain.InstrumentMap, interval string, limit int, start time.Time) ([]domain.PriceCandle, error)
}

type FearGreedFetcher interface {
	FetchRecent(ctx context.Context, limit int) ([]domain.FearGreedReading, error)
}

type NewsFetcher interface {
	FetchFeed(ctx context.Context, feedURL string, maxItems int) ([]domain.NewsArticle, error)
}

type Normalizer interface {
	NormalizeAll(articles []domain.NewsArticle) []string
}

type Classifier interface {
	ClassifyBatch(ctx context.Context, texts []string) []sentiment.Prediction
}

// Store is the per-run persistence surface. All three inserts run against
// the same underlying connection.
type Store interface {
	InsertCandles(ctx context.Context, candles []domain.PriceCandle) (int, error)
	InsertReadings(ctx context.Context, readings []domain.FearGreedReading) (int, error)
	InsertArticles(ctx context.Context, articles []domain.NewsArticle) (int, error)
	Close()
}

// OpenStoreFunc opens the run's store. The service owns the resulting
// connection for the duration of the run and always closes it.
type OpenStoreFunc func(ctx context.Context) (Store, error)

type Config struct {
	Instruments    domain.InstrumentMap
	KlineInterval  string
	KlineLimit     int
	FearGreedLimit int
	NewsFeeds      []string
	NewsFeedLimit  int
}

type Service struct {
	tracer     trace.Tracer
	prices     PriceFetcher
	fearGreed  FearGreedFetcher
	news       NewsFetcher
	normalizer Normalizer
	classifier Classifier
	openStore  OpenStoreFunc
	cfg        Config
}

func NewService(
	tracer trace.Tracer,
	prices PriceFetcher,
	fearGreed FearGreedFetcher,
	news NewsFetcher,
	normalizer Normalizer,
	classifier Classifier,
	openStore OpenStoreFunc,
	cfg Config,
) *Service {
	if cfg.KlineInterval == "" {
		cfg.KlineInterval = "1d"
	}
	if cfg.KlineLimit <= 0 {
		cfg.KlineLimit = 1
	}
	if cfg.FearGreedLimit <= 0 {
		cfg.FearGreedLimit = 5
	}
	if cfg.NewsFeedLimit <= 0 {
		cfg.NewsFeedLimit = 40
	}
	return &Service{
		tracer:     tracer,
		prices:     prices,
		fearGreed:  fearGreed,
		news:       news,
		normalizer: normalizer,
		classifier: classifier,
		openStore:  openStore,
		cfg:        cfg,
	}
}

// Run executes one full pipeline cycle. Every stage is recorded in the
// result; a failed fetch leaves its dataset empty but the run continues, so
// partial success across entity types is an accepted outcome. The
// persistence connection is opened only for the persist phase and is always
// released.
func (s *Service) Run(ctx context.Context, now time.Time) domain.RunResult {
	ctx, span := s.tracer.Start(ctx, "pipeline.run")
	defer span.End()

	result := domain.RunResult{StartedAt: now.UTC()}
	stage := func(name string, fn func() error) {
		start := time.Now()
		err := fn()
		sr := domain.StageResult{Stage: name, Duration: time.Since(start)}
		if err != nil {
			sr.Err = err.Error()
			log.Printf("pipeline: stage %s failed: %v", name, err)
		}
		result.Stages = append(result.Stages, sr)
	}

	var (
		candles  []domain.PriceCandle
		readings []domain.FearGreedReading
		articles []domain.NewsArticle
	)

	stage(domain.StageFetchPrices, func() error {
		var err error
		candles, err = s.prices.FetchCandles(ctx, s.cfg.Instruments, s.cfg.KlineInterval, s.cfg.KlineLimit, time.Time{})
		result.Candles = len(candles)
		return err
	})

	stage(domain.StageFetchFearGreed, func() error {
		var err error
		readings, err = s.fearGreed.FetchRecent(ctx, s.cfg.FearGreedLimit)
		result.Readings = len(readings)
		return err
	})

	stage(domain.StageFetchNews, func() error {
		var errs []error
		for _, feed := range s.cfg.NewsFeeds {
			items, err := s.news.FetchFeed(ctx, feed, s.cfg.NewsFeedLimit)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", feed, err))
				continue
			}
			articles = append(articles, items...)
		}
		result.Articles = len(articles)
		return errors.Join(errs...)
	})

	stage(domain.StageClassifyNews, func() error {
		if len(articles) == 0 {
			return nil
		}
		texts := s.normalizer.NormalizeAll(articles)
		if len(texts) != len(articles) {
			return fmt.Errorf("normalizer returned %d texts for %d articles", len(texts), len(articles))
		}
		preds := s.classifier.ClassifyBatch(ctx, texts)
		if len(preds) != len(articles) {
			return fmt.Errorf("classifier returned %d predictions for %d articles", len(preds), len(articles))
		}
		for i := range articles {
			label := preds[i].Label
			confidence := preds[i].Confidence
			articles[i].Sentiment = &label
			articles[i].Confidence = &confidence
		}
		return nil
	})

	store, err := s.openStore(ctx)
	if err != nil {
		// Without a connection none of the persist stages can run; record
		// the failure on each so the report stays per-stage.
		for _, name := range []string{domain.StagePersistPrices, domain.StagePersistIndex, domain.StagePersistNews} {
			result.Stages = append(result.Stages, domain.StageResult{Stage: name, Err: err.Error()})
		}
		log.Printf("pipeline: open store failed: %v", err)
		result.FinishedAt = time.Now().UTC()
		return result
	}
	defer store.Close()

	// Each insert commits independently: a failure here does not roll back
	// the tables already written.
	stage(domain.StagePersistPrices, func() error {
		var err error
		result.CandlesInserted, err = store.InsertCandles(ctx, candles)
		return err
	})
	stage(domain.StagePersistIndex, func() error {
		var err error
		result.ReadingsInserted, err = store.InsertReadings(ctx, readings)
		return err
	})
	stage(domain.StagePersistNews, func() error {
		var err error
		result.ArticlesInserted, err = store.InsertArticles(ctx, articles)
		return err
	})

	result.FinishedAt = time.Now().UTC()
	return result
}
