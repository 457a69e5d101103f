package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"market-mood/internal/domain"

	"github.com/mmcdole/gofeed"
	"go.opentelemetry.io/otel/trace"
)

// NewsProvider fetches and sanitizes syndication feeds (RSS or Atom).
type NewsProvider struct {
	client *http.Client
	tracer trace.Tracer
}

func NewNewsProvider(tracer trace.Tracer) *NewsProvider {
	return &NewsProvider{
		client: &http.Client{Timeout: 20 * time.Second},
		tracer: tracer,
	}
}

// FetchFeed parses the feed at feedURL and returns up to maxItems sanitized
// articles. Entries without a title or a parseable publish date are dropped
// silently. Sentiment and confidence are left unset for the classifier.
func (p *NewsProvider) FetchFeed(ctx context.Context, feedURL string, maxItems int) ([]domain.NewsArticle, error) {
	_, span := p.tracer.Start(ctx, "news.fetch-feed")
	defer span.End()

	if feedURL == "" {
		return nil, fmt.Errorf("feed url is required")
	}
	if maxItems <= 0 {
		maxItems = 40
	}

	parser := gofeed.NewParser()
	parser.Client = p.client

	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	source := CleanHTML(feed.Title)
	if source == "" {
		source = feedHost(feedURL)
	}

	articles := make([]domain.NewsArticle, 0, min(maxItems, len(feed.Items)))
	for _, item := range feed.Items {
		if len(articles) >= maxItems {
			break
		}
		if item == nil || item.PublishedParsed == nil {
			continue
		}
		title := CleanHTML(item.Title)
		if title == "" {
			continue
		}

		// Prefer the full content block over the summary when both exist.
		raw := item.Content
		if raw == "" {
			raw = item.Description
		}

		articles = append(articles, domain.NewsArticle{
			PublishedAt: item.PublishedParsed.UTC(),
			Title:       title,
			Content:     CleanHTML(raw),
			Source:      source,
		})
	}
	return articles, nil
}

func feedHost(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Host == "" {
		return "news"
	}
	return u.Host
}
