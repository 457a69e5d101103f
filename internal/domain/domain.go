package domain

import "time"

// SentimentLabel is the closed set of labels the news classifier can emit.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

func (l SentimentLabel) IsValid() bool {
	return l == SentimentPositive || l == SentimentNeutral || l == SentimentNegative
}

// Pipeline stage identifiers used in StageResult.
const (
	StageFetchPrices    = "fetch_prices"
	StageFetchFearGreed = "fetch_fear_greed"
	StageFetchNews      = "fetch_news"
	StageClassifyNews   = "classify_news"
	StagePersistPrices  = "persist_prices"
	StagePersistIndex   = "persist_fear_greed"
	StagePersistNews    = "persist_news"
)

// StageResult records the outcome of a single pipeline stage.
type StageResult struct {
	Stage    string        `json:"stage"`
	Err      string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// RunResult is the structured report of one pipeline run. Counts reflect
// what the fetchers produced and what the upserts actually inserted; a
// stage error does not abort the later persistence stages for entity
// types that did fetch successfully.
type RunResult struct {
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Stages     []StageResult `json:"stages"`

	Candles  int `json:"candles"`
	Readings int `json:"readings"`
	Articles int `json:"articles"`

	CandlesInserted  int `json:"candles_inserted"`
	ReadingsInserted int `json:"readings_inserted"`
	ArticlesInserted int `json:"articles_inserted"`
}

// Failed reports whether any stage recorded an error.
func (r RunResult) Failed() bool {
	for _, s := range r.Stages {
		if s.Err != "" {
			return true
		}
	}
	return false
}

// StageErrors returns the non-empty stage errors, prefixed with the stage name.
func (r RunResult) StageErrors() []string {
	var out []string
	for _, s := range r.Stages {
		if s.Err != "" {
			out = append(out, s.Stage+": "+s.Err)
		}
	}
	return out
}
