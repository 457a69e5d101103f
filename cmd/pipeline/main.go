package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"market-mood/internal/bot"
	"market-mood/internal/cache"
	"market-mood/internal/config"
	"market-mood/internal/handler"
	"market-mood/internal/job"
	"market-mood/internal/pipeline"
	"market-mood/internal/provider"
	"market-mood/internal/repository"
	"market-mood/internal/sentiment"
	"market-mood/internal/textnorm"
	"market-mood/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initTracerFunc         = tracing.InitTracer
	newPoolFunc            = pgxpool.New
	initRedisFunc          = cache.InitRedis
	loadBundleFunc         = sentiment.LoadBundle
	newNormalizerFunc      = textnorm.New
	newRouterFunc          = gin.Default
	startIngestFunc        = func(j *job.IngestJob, ctx context.Context) { go j.Start(ctx) }
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	exitFunc               = os.Exit
)

func main() {
	once := flag.Bool("once", false, "run a single ingestion cycle and exit")
	flag.Parse()

	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Init Postgres
	pool, err := newPoolFunc(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to Postgres: %v", err)
	}
	defer pool.Close()

	// Init Redis and the run lock when configured
	var locker job.Locker
	if cfg.RedisURL != "" {
		initRedisFunc(ctx, cfg.RedisURL)
		locker = cache.NewRunLock(cache.Client, time.Duration(cfg.RunLockTTLSecs)*time.Second)
	}

	// Load the sentiment model once; the bundle is shared read-only across runs
	bundle, err := loadBundleFunc(cfg.ModelDir)
	if err != nil {
		log.Fatalf("failed to load sentiment model from %s: %v", cfg.ModelDir, err)
	}
	log.Printf("Loaded sentiment model %s", bundle.Version())

	normalizer, err := newNormalizerFunc()
	if err != nil {
		log.Fatalf("failed to initialize text normalizer: %v", err)
	}

	// Wire the pipeline
	opener := repository.NewOpener(pool, tracer)
	openStore := func(ctx context.Context) (pipeline.Store, error) {
		s, err := opener.Open(ctx)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	svc := pipeline.NewService(
		tracer,
		provider.NewBinanceProvider(tracer),
		provider.NewFearGreedProvider(tracer),
		provider.NewNewsProvider(tracer),
		normalizer,
		sentiment.NewClassifier(bundle, tracer),
		openStore,
		pipeline.Config{
			Instruments:    cfg.Instruments,
			KlineInterval:  cfg.KlineInterval,
			KlineLimit:     cfg.KlineLimit,
			FearGreedLimit: cfg.FearGreedLimit,
			NewsFeeds:      cfg.NewsFeeds,
			NewsFeedLimit:  cfg.NewsFeedLimit,
		},
	)

	var notifier job.Notifier
	if n := bot.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID); n != nil {
		notifier = n
	}

	ingest := job.NewIngestJob(tracer, svc, locker, notifier, time.Duration(cfg.IngestIntervalSecs)*time.Second)

	if *once {
		result, ran := ingest.RunNow(ctx)
		if !ran {
			exitFunc(2)
		} else if result.Failed() {
			exitFunc(1)
		}
		return
	}

	// Start scheduled ingestion (background goroutine, stopped by ctx cancel)
	startIngestFunc(ingest, ctx)

	// Create handlers and routes
	h := handler.New(tracer, ingest)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("market-mood"))

	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
