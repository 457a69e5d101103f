package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"market-mood/internal/domain"
)

type Config struct {
	DatabaseURL string
	RedisURL    string

	Instruments   domain.InstrumentMap
	KlineInterval string
	KlineLimit    int

	FearGreedLimit int
	NewsFeeds      []string
	NewsFeedLimit  int

	ModelDir string

	IngestIntervalSecs int
	RunLockTTLSecs     int
	HTTPPort           int

	TelegramBotToken string
	TelegramChatID   int64
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, run lock disabled")
	}

	cfg.Instruments = parseInstrumentMap(os.Getenv("BINANCE_SYMBOLS"))
	if len(cfg.Instruments) == 0 {
		cfg.Instruments = domain.InstrumentMap{"BTCUSDT": 1, "ETHUSDT": 2}
	}

	cfg.KlineInterval = strings.TrimSpace(os.Getenv("BINANCE_INTERVAL"))
	if cfg.KlineInterval == "" {
		cfg.KlineInterval = "1d"
	}

	cfg.KlineLimit = 1
	if v := strings.TrimSpace(os.Getenv("BINANCE_KLINE_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.KlineLimit = n
		}
	}

	cfg.FearGreedLimit = 5
	if v := strings.TrimSpace(os.Getenv("FEAR_GREED_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FearGreedLimit = n
		}
	}

	cfg.NewsFeeds = parseList(os.Getenv("NEWS_FEEDS"))
	if len(cfg.NewsFeeds) == 0 {
		cfg.NewsFeeds = []string{"https://feeds.feedburner.com/CoinDesk"}
	}

	cfg.NewsFeedLimit = 40
	if v := strings.TrimSpace(os.Getenv("NEWS_FEED_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.NewsFeedLimit = n
		}
	}

	cfg.ModelDir = strings.TrimSpace(os.Getenv("MODEL_DIR"))
	if cfg.ModelDir == "" {
		cfg.ModelDir = "model"
	}

	cfg.IngestIntervalSecs = 86400
	if v := strings.TrimSpace(os.Getenv("INGEST_INTERVAL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.IngestIntervalSecs = n
		}
	}

	cfg.RunLockTTLSecs = 1800
	if v := strings.TrimSpace(os.Getenv("RUN_LOCK_TTL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RunLockTTLSecs = n
		}
	}

	cfg.HTTPPort = 8080
	if v := strings.TrimSpace(os.Getenv("HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}

	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TelegramChatID = n
		} else {
			log.Printf("Warning: invalid TELEGRAM_CHAT_ID=%q, notifier disabled", v)
		}
	}

	return cfg
}

// parseInstrumentMap reads "BTCUSDT:1,ETHUSDT:2" into an InstrumentMap.
// Malformed entries are skipped with a warning so a typo cannot silently
// reassign ids of the remaining symbols.
func parseInstrumentMap(raw string) domain.InstrumentMap {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	m := make(domain.InstrumentMap)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			log.Printf("Warning: skipping malformed BINANCE_SYMBOLS entry %q", pair)
			continue
		}
		symbol := strings.ToUpper(strings.TrimSpace(parts[0]))
		id, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if symbol == "" || err != nil || id <= 0 {
			log.Printf("Warning: skipping malformed BINANCE_SYMBOLS entry %q", pair)
			continue
		}
		m[symbol] = id
	}
	return m
}

func parseList(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
