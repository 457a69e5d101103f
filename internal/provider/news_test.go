package provider

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel>
<title>CoinDesk</title>
<item>
  <title>Bitcoin &amp; ETF flows surge</title>
  <pubDate>Mon, 05 Jan 2026 12:00:00 +0000</pubDate>
  <description>Summary only.</description>
  <content:encoded><![CDATA[<p>Full story with <a href="https://x">a link</a> inside.</p>]]></content:encoded>
</item>
<item>
  <title>Summary-only article</title>
  <pubDate>Mon, 05 Jan 2026 13:00:00 +0000</pubDate>
  <description><![CDATA[Short <b>summary</b> text.]]></description>
</item>
<item>
  <title>No publish date, must be dropped</title>
  <description>whatever</description>
</item>
<item>
  <pubDate>Mon, 05 Jan 2026 14:00:00 +0000</pubDate>
  <description>untitled, must be dropped</description>
</item>
</channel>
</rss>`

func testNewsProvider(body string) *NewsProvider {
	p := NewNewsProvider(trace.NewNoopTracerProvider().Tracer("test"))
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, body), nil
	})}
	return p
}

func TestNewsFetchFeed(t *testing.T) {
	p := testNewsProvider(sampleRSS)

	articles, err := p.FetchFeed(context.Background(), "https://example.com/rss", 40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 surviving articles, got %d", len(articles))
	}

	first := articles[0]
	if first.Title != "Bitcoin & ETF flows surge" {
		t.Fatalf("unexpected title: %q", first.Title)
	}
	if first.Source != "CoinDesk" {
		t.Fatalf("unexpected source: %q", first.Source)
	}
	if !strings.Contains(first.Content, "a link") {
		t.Fatalf("anchor text should survive sanitization: %q", first.Content)
	}
	if strings.Contains(first.Content, "<a") || strings.Contains(first.Content, "href") {
		t.Fatalf("markup should be stripped: %q", first.Content)
	}
	if !strings.Contains(first.Content, "Full story") {
		t.Fatalf("full content should win over summary: %q", first.Content)
	}
	if first.Sentiment != nil || first.Confidence != nil {
		t.Fatal("sentiment must be unset before classification")
	}

	if articles[1].Content != "Short summary text." {
		t.Fatalf("summary fallback failed: %q", articles[1].Content)
	}
}

func TestNewsFetchFeedRespectsMaxItems(t *testing.T) {
	p := testNewsProvider(sampleRSS)

	articles, err := p.FetchFeed(context.Background(), "https://example.com/rss", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
}

func TestNewsFetchFeedRequiresURL(t *testing.T) {
	p := NewNewsProvider(trace.NewNoopTracerProvider().Tracer("test"))
	if _, err := p.FetchFeed(context.Background(), "", 10); err == nil {
		t.Fatal("expected error for empty feed url")
	}
}
