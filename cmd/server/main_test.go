package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliamunaev/order-session-server/internal/apperr"
	"github.com/iliamunaev/order-session-server/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		ListenAddr:        "127.0.0.1:0",
		CatalogSize:       2,
		PriceMin:          decimal.NewFromInt(10),
		PriceMax:          decimal.NewFromInt(100),
		StockMin:          1,
		StockMax:          5,
		Seed:              1,
		MaxSessions:       1,
		SessionPopulation: 0,
		OrdersPerSession:  1,
		MaxOrderQty:       5,
		ShutdownTimeout:   2 * time.Second,
		LogLevel:          "error",
		LogFormat:         "text",
	}
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.CatalogSize = 0

	err := run(context.Background(), cfg, &bytes.Buffer{}, &bytes.Buffer{})
	if apperr.Kind(err) != "invalid_config" {
		t.Fatalf("expected invalid_config, got %v", err)
	}
}

func TestRunListenFailure(t *testing.T) {
	cfg := testConfig()
	cfg.ListenAddr = "127.0.0.1:-1"

	if err := run(context.Background(), cfg, &bytes.Buffer{}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected listen error")
	}
}

func TestRunReportsOnShutdown(t *testing.T) {
	cfg := testConfig()
	cfg.AdminAddr = "127.0.0.1:0"

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var stdout, stderr bytes.Buffer
	if err := run(ctx, cfg, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, "--- Sales Report ---") {
		t.Fatalf("expected sales report, got %q", out)
	}
	if !strings.Contains(out, "Product: Product 2") {
		t.Fatalf("expected every product in report, got %q", out)
	}
}
