// Package config provides runtime configuration values for the server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliamunaev/order-session-server/internal/apperr"
)

// Config holds the knobs for the listener, catalog seeding and sessions.
type Config struct {
	ListenAddr string
	AdminAddr  string

	CatalogSize int
	PriceMin    decimal.Decimal
	PriceMax    decimal.Decimal
	StockMin    int
	StockMax    int
	Seed        uint64

	MaxSessions       int
	SessionPopulation int
	OrdersPerSession  int
	MaxOrderQty       int
	Pacing            time.Duration
	WriteTimeout      time.Duration

	ShutdownTimeout time.Duration
	ReportLinger    time.Duration

	LogLevel  string
	LogFormat string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func uintenv(key string, def uint64) uint64 {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func decenv(key string, def decimal.Decimal) decimal.Decimal {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return def
	}
	return d
}

func durenvms(key string, defMs int) time.Duration {
	ms := atoienv(key, defMs)
	return time.Duration(ms) * time.Millisecond
}

func durenvs(key string, defSec int) time.Duration {
	sec := atoienv(key, defSec)
	return time.Duration(sec) * time.Second
}

// Load collects configuration from environment with defaults.
func Load() Config {
	maxSessions := atoienv("MAX_SESSIONS", 5)
	return Config{
		ListenAddr:        getenv("LISTEN_ADDR", ":8080"),
		AdminAddr:         getenv("ADMIN_ADDR", ""),
		CatalogSize:       atoienv("CATALOG_SIZE", 20),
		PriceMin:          decenv("PRICE_MIN", decimal.NewFromInt(10)),
		PriceMax:          decenv("PRICE_MAX", decimal.NewFromInt(100)),
		StockMin:          atoienv("STOCK_MIN", 1),
		StockMax:          atoienv("STOCK_MAX", 5),
		Seed:              uintenv("SEED", 0),
		MaxSessions:       maxSessions,
		SessionPopulation: atoienv("SESSION_POPULATION", maxSessions),
		OrdersPerSession:  atoienv("ORDERS_PER_SESSION", 10),
		MaxOrderQty:       atoienv("MAX_ORDER_QTY", 5),
		Pacing:            durenvms("PACING_MS", 1000),
		WriteTimeout:      durenvms("WRITE_TIMEOUT_MS", 5000),
		ShutdownTimeout:   durenvs("SHUTDOWN_TIMEOUT", 15),
		ReportLinger:      durenvs("REPORT_LINGER", 0),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		LogFormat:         getenv("LOG_FORMAT", "json"),
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.ListenAddr != "", "LISTEN_ADDR is empty")
	check(c.CatalogSize >= 1, "CATALOG_SIZE %d must be at least 1", c.CatalogSize)
	check(c.PriceMin.IsPositive(), "PRICE_MIN %s must be positive", c.PriceMin)
	check(c.PriceMax.GreaterThanOrEqual(c.PriceMin), "PRICE_MAX %s below PRICE_MIN %s", c.PriceMax, c.PriceMin)
	check(c.StockMin >= 0, "STOCK_MIN %d must not be negative", c.StockMin)
	check(c.StockMax >= c.StockMin, "STOCK_MAX %d below STOCK_MIN %d", c.StockMax, c.StockMin)
	check(c.MaxSessions >= 1, "MAX_SESSIONS %d must be at least 1", c.MaxSessions)
	check(c.SessionPopulation >= 0, "SESSION_POPULATION %d must not be negative", c.SessionPopulation)
	check(c.OrdersPerSession >= 1, "ORDERS_PER_SESSION %d must be at least 1", c.OrdersPerSession)
	check(c.MaxOrderQty >= 1, "MAX_ORDER_QTY %d must be at least 1", c.MaxOrderQty)
	check(c.Pacing >= 0, "PACING_MS must not be negative")
	check(c.ShutdownTimeout > 0, "SHUTDOWN_TIMEOUT must be positive")
	check(c.LogFormat == "json" || c.LogFormat == "text", "LOG_FORMAT %q must be json or text", c.LogFormat)

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", apperr.ErrInvalidConfig, errors.Join(errs...))
}
