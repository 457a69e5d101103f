package provider

import (
	"context"
	"net/http"
	"testing"
	"time"

	"market-mood/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const btcKline = `[[1736121600000,"97000.1","98500.5","96750.0","98123.4","12345.67",1736207999999,"0","0","0","0","0"]]`
const ethKline = `[[1736121600000,"3300.0","3400.0","3250.0","3390.5","98765.43",1736207999999,"0","0","0","0","0"]]`

func testBinanceProvider(rt roundTripFunc) *BinanceProvider {
	p := NewBinanceProvider(trace.NewNoopTracerProvider().Tracer("test"))
	p.baseURL = "https://example.com"
	p.client = &http.Client{Transport: rt}
	p.limiter = NewRateLimiter(100, time.Millisecond)
	return p
}

func TestBinanceFetchCandles(t *testing.T) {
	p := testBinanceProvider(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/api/v3/klines" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		q := req.URL.Query()
		if q.Get("interval") != "1d" || q.Get("limit") != "1" {
			t.Fatalf("unexpected query: %s", req.URL.RawQuery)
		}
		if q.Get("startTime") == "" {
			t.Fatal("startTime missing")
		}
		switch q.Get("symbol") {
		case "BTCUSDT":
			return jsonResponse(http.StatusOK, btcKline), nil
		case "ETHUSDT":
			return jsonResponse(http.StatusOK, ethKline), nil
		default:
			t.Fatalf("unexpected symbol: %s", q.Get("symbol"))
			return nil, nil
		}
	})

	instruments := domain.InstrumentMap{"BTCUSDT": 1, "ETHUSDT": 2}
	candles, err := p.FetchCandles(context.Background(), instruments, "1d", 1, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}

	btc := candles[0]
	if btc.CoinID != 1 {
		t.Fatalf("expected coin id 1 first (id order), got %d", btc.CoinID)
	}
	if !btc.Timestamp.Equal(time.UnixMilli(1736121600000).UTC()) {
		t.Fatalf("unexpected timestamp: %v", btc.Timestamp)
	}
	if btc.Open != 97000.1 || btc.High != 98500.5 || btc.Low != 96750.0 || btc.Close != 98123.4 || btc.Volume != 12345.67 {
		t.Fatalf("unexpected OHLCV: %+v", btc)
	}
	if candles[1].CoinID != 2 {
		t.Fatalf("expected coin id 2 second, got %d", candles[1].CoinID)
	}
}

func TestBinanceFetchCandlesSkipsFailedSymbol(t *testing.T) {
	oldDelay := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = oldDelay }()

	p := testBinanceProvider(func(req *http.Request) (*http.Response, error) {
		if req.URL.Query().Get("symbol") == "BTCUSDT" {
			return jsonResponse(http.StatusInternalServerError, `{"code":-1}`), nil
		}
		return jsonResponse(http.StatusOK, ethKline), nil
	})

	instruments := domain.InstrumentMap{"BTCUSDT": 1, "ETHUSDT": 2}
	candles, err := p.FetchCandles(context.Background(), instruments, "1d", 1, time.Now().UTC())
	if err != nil {
		t.Fatalf("per-symbol failure must not be fatal: %v", err)
	}
	if len(candles) != 1 || candles[0].CoinID != 2 {
		t.Fatalf("expected only the surviving symbol, got %+v", candles)
	}
}

func TestBinanceFetchCandlesAllSymbolsFail(t *testing.T) {
	oldDelay := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = oldDelay }()

	p := testBinanceProvider(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusInternalServerError, "boom"), nil
	})

	candles, err := p.FetchCandles(context.Background(), domain.InstrumentMap{"BTCUSDT": 1}, "1d", 1, time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if candles == nil || len(candles) != 0 {
		t.Fatalf("expected a typed empty result, got %#v", candles)
	}
}

func TestBinanceRejectsNonFiniteFields(t *testing.T) {
	p := testBinanceProvider(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `[[1736121600000,"NaN","1","1","1","1",0,"0","0","0","0","0"]]`), nil
	})

	candles, err := p.FetchCandles(context.Background(), domain.InstrumentMap{"BTCUSDT": 1}, "1d", 1, time.Now().UTC())
	if err != nil {
		t.Fatalf("bad symbol payload is skip-and-continue: %v", err)
	}
	if len(candles) != 0 {
		t.Fatalf("expected no candles from a NaN payload, got %+v", candles)
	}
}
