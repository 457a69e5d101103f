package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"market-mood/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const fearGreedBaseURL = "https://api.alternative.me"

// FearGreedProvider fetches the crypto fear & greed index from alternative.me.
type FearGreedProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewFearGreedProvider(tracer trace.Tracer) *FearGreedProvider {
	return &FearGreedProvider{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: fearGreedBaseURL,
		tracer:  tracer,
	}
}

// FetchRecent returns the limit most recent index readings, newest first.
// A payload with an empty data array yields (nil, nil): no new reading is
// not an error. Non-2xx responses and timeouts surface as *TransportError.
func (p *FearGreedProvider) FetchRecent(ctx context.Context, limit int) ([]domain.FearGreedReading, error) {
	_, span := p.tracer.Start(ctx, "feargreed.fetch-recent")
	defer span.End()

	if limit <= 0 {
		limit = 1
	}

	url := strings.TrimRight(p.baseURL, "/") + "/fng/?limit=" + strconv.Itoa(limit)
	body, err := getWithRetry(ctx, p.client, url, "application/json")
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data []struct {
			Value          string `json:"value"`
			Classification string `json:"value_classification"`
			Timestamp      string `json:"timestamp"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode fear & greed response: %w", err)
	}
	if len(payload.Data) == 0 {
		return nil, nil
	}

	readings := make([]domain.FearGreedReading, 0, len(payload.Data))
	for _, row := range payload.Data {
		value, err := strconv.Atoi(strings.TrimSpace(row.Value))
		if err != nil {
			return nil, fmt.Errorf("parse fear & greed value: %w", err)
		}
		ts, err := strconv.ParseInt(strings.TrimSpace(row.Timestamp), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse fear & greed timestamp: %w", err)
		}
		if ts > 1_000_000_000_000 {
			ts = ts / 1000
		}
		readings = append(readings, domain.FearGreedReading{
			Timestamp:      time.Unix(ts, 0).UTC(),
			Value:          value,
			Classification: row.Classification,
		})
	}
	return readings, nil
}
