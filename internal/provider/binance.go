package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"market-mood/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const binanceBaseURL = "https://api.binance.com"

// BinanceProvider fetches OHLCV klines from the Binance public API.
type BinanceProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewBinanceProvider creates a provider with built-in rate limiting: bursts
// of up to two requests, refilled every second.
func NewBinanceProvider(tracer trace.Tracer) *BinanceProvider {
	return &BinanceProvider{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: binanceBaseURL,
		tracer:  tracer,
		limiter: NewRateLimiter(2, time.Second),
	}
}

// FetchCandles fetches up to limit klines per mapped symbol starting at
// start (defaulting to the start of yesterday, UTC). A symbol that fails is
// logged and skipped so one bad instrument cannot sink the whole fetch; if
// every symbol fails the result is an empty, non-nil slice.
func (p *BinanceProvider) FetchCandles(ctx context.Context, instruments domain.InstrumentMap, interval string, limit int, start time.Time) ([]domain.PriceCandle, error) {
	_, span := p.tracer.Start(ctx, "binance.fetch-candles")
	defer span.End()

	if interval == "" {
		interval = "1d"
	}
	if limit <= 0 {
		limit = 1
	}
	if start.IsZero() {
		start = time.Now().UTC().AddDate(0, 0, -1).Truncate(24 * time.Hour)
	}

	candles := make([]domain.PriceCandle, 0, len(instruments)*limit)
	for _, symbol := range instruments.Symbols() {
		if err := p.limiter.Wait(ctx); err != nil {
			return candles, err
		}

		rows, err := p.fetchSymbol(ctx, symbol, interval, limit, start)
		if err != nil {
			log.Printf("binance: fetch %s failed: %v", symbol, err)
			continue
		}
		coinID := instruments[symbol]
		for _, row := range rows {
			row.CoinID = coinID
			candles = append(candles, row)
		}
	}
	return candles, nil
}

func (p *BinanceProvider) fetchSymbol(ctx context.Context, symbol, interval string, limit int, start time.Time) ([]domain.PriceCandle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("startTime", strconv.FormatInt(start.UnixMilli(), 10))

	body, err := getWithRetry(ctx, p.client, p.baseURL+"/api/v3/klines?"+q.Encode(), "application/json")
	if err != nil {
		return nil, err
	}

	// Each kline is a 12-field array; only open time and OHLCV are consumed.
	var raw [][]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}

	out := make([]domain.PriceCandle, 0, len(raw))
	for _, k := range raw {
		if len(k) < 6 {
			return nil, fmt.Errorf("kline has %d fields, want at least 6", len(k))
		}
		var openTimeMs int64
		if err := json.Unmarshal(k[0], &openTimeMs); err != nil {
			return nil, fmt.Errorf("parse kline open time: %w", err)
		}
		c := domain.PriceCandle{Timestamp: time.UnixMilli(openTimeMs).UTC()}
		for i, dst := range []*float64{&c.Open, &c.High, &c.Low, &c.Close, &c.Volume} {
			v, err := parseNumericString(k[i+1])
			if err != nil {
				return nil, fmt.Errorf("parse kline field %d: %w", i+1, err)
			}
			*dst = v
		}
		out = append(out, c)
	}
	return out, nil
}

func parseNumericString(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}
