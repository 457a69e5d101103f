package domain

import "time"

// PriceCandle is one daily OHLCV row for a tracked coin.
// (CoinID, Timestamp) is the unique key in fact_price.
type PriceCandle struct {
	CoinID    int       `json:"coin_id"`
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// FearGreedReading is one fear & greed index point. Timestamp is the unique
// key in fact_fear_greed.
type FearGreedReading struct {
	Timestamp      time.Time `json:"timestamp"`
	Value          int       `json:"value"`
	Classification string    `json:"classification"`
}

// NewsArticle is a sanitized news feed entry. Sentiment and Confidence stay
// nil until the classifier has run. (Title, PublishedAt) is the dedup key
// in news_articles.
type NewsArticle struct {
	PublishedAt time.Time       `json:"published_at"`
	Title       string          `json:"title"`
	Content     string          `json:"content"`
	Source      string          `json:"source"`
	Sentiment   *SentimentLabel `json:"sentiment,omitempty"`
	Confidence  *float64        `json:"confidence,omitempty"`
}

// InstrumentMap assigns stable internal coin ids to exchange symbols. The
// mapping is configuration: changing an id silently reassigns price history,
// so it is injected into the fetcher rather than hardcoded there.
type InstrumentMap map[string]int

// Symbols returns the mapped symbols in deterministic (id) order.
func (m InstrumentMap) Symbols() []string {
	out := make([]string, 0, len(m))
	for sym := range m {
		out = append(out, sym)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && m[out[j-1]] > m[out[j]]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
