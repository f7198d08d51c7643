// Package main implements the Wessley parts price API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/WessleyAI/wessley-parts/engine/domain"
	"github.com/WessleyAI/wessley-parts/engine/pricing"
	"github.com/WessleyAI/wessley-parts/engine/sources"
	"github.com/WessleyAI/wessley-parts/pkg/logging"
	"github.com/WessleyAI/wessley-parts/pkg/metrics"
	"github.com/WessleyAI/wessley-parts/pkg/natsutil"
	"github.com/WessleyAI/wessley-parts/pkg/resilience"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
)

// Config holds all environment-based configuration.
type Config struct {
	Port             string
	CORSOrigin       string
	LogLevel         string
	SourceTimeout    time.Duration
	Sources          []string
	NATSURL          string
	NATSSubject      string
	RateLimitRPS     float64
	RateLimitBurst   int
	EbayClientID     string
	EbayClientSecret string
	EbayMarketplace  string
}

func loadConfig() (Config, error) {
	cfg := Config{
		Port:             envOr("PORT", "8080"),
		CORSOrigin:       envOr("CORS_ORIGIN", "*"),
		LogLevel:         envOr("LOG_LEVEL", "info"),
		Sources:          splitList(os.Getenv("SOURCES")),
		NATSURL:          os.Getenv("NATS_URL"),
		NATSSubject:      envOr("NATS_SUBJECT", "wessley.parts.search.completed"),
		EbayClientID:     os.Getenv("EBAY_CLIENT_ID"),
		EbayClientSecret: os.Getenv("EBAY_CLIENT_SECRET"),
		EbayMarketplace:  envOr("EBAY_MARKETPLACE", "EBAY_US"),
	}
	var err error
	if cfg.SourceTimeout, err = time.ParseDuration(envOr("SOURCE_TIMEOUT", "8s")); err != nil || cfg.SourceTimeout <= 0 {
		return cfg, fmt.Errorf("SOURCE_TIMEOUT: invalid duration %q", os.Getenv("SOURCE_TIMEOUT"))
	}
	if cfg.RateLimitRPS, err = strconv.ParseFloat(envOr("RATE_LIMIT_RPS", "5"), 64); err != nil {
		return cfg, fmt.Errorf("RATE_LIMIT_RPS: %w", err)
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(envOr("RATE_LIMIT_BURST", "10")); err != nil {
		return cfg, fmt.Errorf("RATE_LIMIT_BURST: %w", err)
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func main() {
	// .env is optional; real environment wins.
	_ = godotenv.Load()

	cfg, err := loadConfig()
	logger := logging.New(cfg.LogLevel)
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

// app bundles what the HTTP layer needs.
type app struct {
	cfg      Config
	agg      *pricing.Aggregator
	slugs    []string
	breakers *resilience.Set
	metrics  *metrics.Registry
	log      *slog.Logger
}

// newApp wires adapters, guards and the aggregator. onComplete may be nil.
func newApp(cfg Config, adapters []sources.Adapter, logger *slog.Logger, onComplete func(context.Context, *domain.AggregateSearchResult)) (*app, error) {
	selected, err := sources.Select(adapters, cfg.Sources)
	if err != nil {
		return nil, err
	}
	reg := metrics.New()
	breakers := resilience.NewSet(resilience.DefaultBreakerOpts)
	guarded := sources.GuardAll(selected, sources.GuardOpts{
		Timeout:  cfg.SourceTimeout,
		Breakers: breakers,
		Metrics:  reg,
		Logger:   logger,
	})
	orch := pricing.NewOrchestrator(pricing.Guarded(guarded)...)
	agg := pricing.NewAggregator(orch, pricing.Options{
		Metrics:    reg,
		Logger:     logger,
		OnComplete: onComplete,
	})
	return &app{
		cfg:      cfg,
		agg:      agg,
		slugs:    orch.Slugs(),
		breakers: breakers,
		metrics:  reg,
		log:      logger,
	}, nil
}

// connectEvents returns an OnComplete hook publishing search summaries, or
// nil when NATS is not configured or unreachable.
func connectEvents(cfg Config, logger *slog.Logger) (func(context.Context, *domain.AggregateSearchResult), func()) {
	if cfg.NATSURL == "" {
		return nil, func() {}
	}
	nc, err := nats.Connect(cfg.NATSURL, nats.Name("wessley-parts-api"))
	if err != nil {
		logger.Warn("nats unavailable, search events disabled", "url", cfg.NATSURL, "err", err)
		return nil, func() {}
	}
	pub := natsutil.NewPublisher[pricing.SearchCompleted](nc, cfg.NATSSubject)
	logger.Info("publishing search events", "subject", pub.Subject())
	hook := func(ctx context.Context, res *domain.AggregateSearchResult) {
		if err := pub.Publish(ctx, pricing.Summarize(res)); err != nil {
			logger.Warn("search event publish failed", "err", err)
		}
	}
	return hook, func() { nc.Drain() }
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	adapters, skipped := sources.Defaults(sources.DefaultsConfig{
		Ebay: sources.EbayConfig{
			ClientID:     cfg.EbayClientID,
			ClientSecret: cfg.EbayClientSecret,
			Marketplace:  cfg.EbayMarketplace,
		},
	})
	if len(skipped) > 0 {
		logger.Warn("sources skipped, missing credentials", "sources", skipped)
	}

	onComplete, closeEvents := connectEvents(cfg, logger)
	defer closeEvents()

	a, err := newApp(cfg, adapters, logger, onComplete)
	if err != nil {
		return fmt.Errorf("sources: %w", err)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.SourceTimeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port, "sources", a.slugs)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
