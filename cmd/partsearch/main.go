// Command partsearch runs one price aggregation and prints the result as
// indented JSON.
//
//	partsearch -q "brake pads" -year 2018 -make Honda -model Civic
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/WessleyAI/wessley-parts/engine/domain"
	"github.com/WessleyAI/wessley-parts/engine/pricing"
	"github.com/WessleyAI/wessley-parts/engine/sources"
	"github.com/WessleyAI/wessley-parts/pkg/logging"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	logger := logging.NewWithWriter(os.Stderr, os.Getenv("LOG_LEVEL"))

	adapters, skipped := sources.Defaults(sources.DefaultsConfig{
		Ebay: sources.EbayConfig{
			ClientID:     os.Getenv("EBAY_CLIENT_ID"),
			ClientSecret: os.Getenv("EBAY_CLIENT_SECRET"),
			Marketplace:  os.Getenv("EBAY_MARKETPLACE"),
		},
	})
	if len(skipped) > 0 {
		logger.Warn("sources skipped, missing credentials", "sources", skipped)
	}

	if err := run(context.Background(), os.Args[1:], os.Stdout, adapters, logger); err != nil {
		fmt.Fprintln(os.Stderr, "partsearch:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer, adapters []sources.Adapter, logger *slog.Logger) error {
	fs := flag.NewFlagSet("partsearch", flag.ContinueOnError)
	query := fs.String("q", "", "part search phrase (required)")
	year := fs.String("year", "", "vehicle model year")
	mk := fs.String("make", "", "vehicle make")
	model := fs.String("model", "", "vehicle model")
	timeout := fs.Duration("timeout", sources.DefaultTimeout, "per-source deadline")
	only := fs.String("sources", "", "comma-separated source slugs (default all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	selected, err := sources.Select(adapters, strings.Split(*only, ","))
	if err != nil {
		return err
	}
	guarded := sources.GuardAll(selected, sources.GuardOpts{Timeout: *timeout, Logger: logger})
	agg := pricing.NewAggregator(pricing.NewOrchestrator(pricing.Guarded(guarded)...), pricing.Options{Logger: logger})

	// every source has its own deadline; this only guards against a stuck run
	ctx, cancel := context.WithTimeout(ctx, *timeout+5*time.Second)
	defer cancel()

	res, err := agg.Aggregate(ctx, *query, &domain.VehicleContext{Year: *year, Make: *mk, Model: *model})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
