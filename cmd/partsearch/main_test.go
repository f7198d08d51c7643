package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/WessleyAI/wessley-parts/engine/domain"
	"github.com/WessleyAI/wessley-parts/engine/sources"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func offline() []sources.Adapter {
	return []sources.Adapter{sources.NewAmazon(), sources.NewRockAuto()}
}

func TestRunPrintsJSON(t *testing.T) {
	var out bytes.Buffer
	args := []string{"-q", "brake pads", "-year", "2018", "-make", "Honda", "-model", "Civic", "-sources", "rockauto"}
	if err := run(context.Background(), args, &out, offline(), quietLogger()); err != nil {
		t.Fatal(err)
	}
	var res domain.AggregateSearchResult
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if res.ComposedQuery != "2018 Honda Civic brake pads" {
		t.Fatalf("got %q", res.ComposedQuery)
	}
	if len(res.Results) != 1 || res.Results[0].SourceSlug != "rockauto" {
		t.Fatalf("expected only rockauto, got %+v", res.Results)
	}
}

func TestRunRequiresQuery(t *testing.T) {
	err := run(context.Background(), nil, io.Discard, offline(), quietLogger())
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestRunUnknownSource(t *testing.T) {
	if err := run(context.Background(), []string{"-q", "x", "-sources", "nope"}, io.Discard, offline(), quietLogger()); err == nil {
		t.Fatal("expected error")
	}
}
