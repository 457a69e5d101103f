package repository

import (
	"context"

	"market-mood/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

// NewsRepository writes classified articles into news_articles.
type NewsRepository struct {
	db     DB
	tracer trace.Tracer
}

func NewNewsRepository(db DB, tracer trace.Tracer) *NewsRepository {
	return &NewsRepository{db: db, tracer: tracer}
}

// InsertArticles inserts articles not already present by the
// (title, published_at) dedup key and reports the inserted count. The key
// under-deduplicates republished stories with new timestamps and
// over-deduplicates distinct articles sharing a title; both are accepted
// behavior. Duplicates inside the batch itself are collapsed first so the
// reported count never double-counts a key. Empty input is a no-op.
func (r *NewsRepository) InsertArticles(ctx context.Context, articles []domain.NewsArticle) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	_, span := r.tracer.Start(ctx, "news-repo.insert-articles")
	defer span.End()

	unique := dedupeArticles(articles)
	batch := &pgx.Batch{}
	for _, a := range unique {
		batch.Queue(
			`INSERT INTO news_articles (published_at, title, content, source, sentiment, confidence)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (title, published_at) DO NOTHING`,
			a.PublishedAt.UTC(), a.Title, a.Content, a.Source, sentimentValue(a.Sentiment), a.Confidence,
		)
	}
	return execCountingBatch(ctx, r.db, batch, len(unique))
}

func dedupeArticles(articles []domain.NewsArticle) []domain.NewsArticle {
	type key struct {
		title       string
		publishedAt int64
	}
	seen := make(map[key]struct{}, len(articles))
	out := make([]domain.NewsArticle, 0, len(articles))
	for _, a := range articles {
		k := key{title: a.Title, publishedAt: a.PublishedAt.UTC().UnixNano()}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, a)
	}
	return out
}

func sentimentValue(label *domain.SentimentLabel) *string {
	if label == nil {
		return nil
	}
	s := string(*label)
	return &s
}
