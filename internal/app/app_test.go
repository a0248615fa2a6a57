package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/iliamunaev/order-session-server/internal/apperr"
	"github.com/iliamunaev/order-session-server/internal/config"
	"github.com/iliamunaev/order-session-server/internal/transport/tcp"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var discard = slog.New(slog.DiscardHandler)

func testConfig() config.Config {
	return config.Config{
		ListenAddr:        "127.0.0.1:0",
		CatalogSize:       3,
		PriceMin:          decimal.NewFromInt(10),
		PriceMax:          decimal.NewFromInt(100),
		StockMin:          2,
		StockMax:          2,
		Seed:              7,
		MaxSessions:       2,
		SessionPopulation: 2,
		OrdersPerSession:  3,
		MaxOrderQty:       2,
		Pacing:            0,
		WriteTimeout:      time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "json",
	}
}

func newApp(t *testing.T, cfg config.Config) (*App, net.Listener) {
	t.Helper()
	ln, err := net.Listen("tcp", cfg.ListenAddr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	a, err := New(cfg, ln, discard)
	require.NoError(t, err)
	return a, ln
}

// drain reads every message a session sends and returns how many arrived.
func drain(addr string) (int, error) {
	c, err := net.Dial("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer c.Close()

	r := tcp.NewReader(c)
	n := 0
	for {
		_, err := r.ReadMessage()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSessions = 0

	a, err := New(cfg, nil, discard)
	assert.Nil(t, a)
	assert.ErrorIs(t, err, apperr.ErrInvalidConfig)
}

func TestRun_FullPopulationThenReport(t *testing.T) {
	a, ln := newApp(t, testConfig())
	admin := a.AdminHandler()

	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/report", nil))
	assert.Equal(t, http.StatusConflict, rec.Code, "no report while sessions may run")

	var out bytes.Buffer
	done := make(chan error, 1)
	go func() {
		sum, err := a.Run(context.Background(), &out)
		if err == nil && sum.Completed != 2 {
			err = errors.New("expected two completed sessions")
		}
		done <- err
	}()

	var wg sync.WaitGroup
	counts := make([]int, 2)
	for i := range counts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := drain(ln.Addr().String())
			assert.NoError(t, err)
			counts[i] = n
		}()
	}
	wg.Wait()
	require.NoError(t, <-done)

	assert.Equal(t, []int{6, 6}, counts, "three request/outcome pairs per session")
	assert.Contains(t, out.String(), "--- Sales Report ---")
	assert.Contains(t, out.String(), "Product: Product 3")

	products, err := a.FinalReport()
	require.NoError(t, err)
	require.Len(t, products, 3)
	total := 0
	for _, p := range products {
		total += p.TotalOrders
		assert.Equal(t, p.TotalOrders, p.SuccessfulOrders+p.FailedOrders)
		assert.Equal(t, p.InitialStock-p.Stock, p.UnitsSold)
		assert.GreaterOrEqual(t, p.Stock, 0)
	}
	assert.Equal(t, 6, total)
	assert.True(t, a.Ledger.Sealed())
	assert.Equal(t, int64(2), a.Stats().Completed)

	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/report", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRun_CanceledStillReports(t *testing.T) {
	cfg := testConfig()
	cfg.SessionPopulation = 0
	a, _ := newApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	var out bytes.Buffer
	done := make(chan error, 1)
	go func() {
		sum, err := a.Run(ctx, &out)
		if err == nil && !sum.Interrupted {
			err = errors.New("expected interrupted summary")
		}
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.True(t, strings.HasPrefix(out.String(), "\n--- Sales Report ---"))
}

func TestNew_SameSeedSameCatalog(t *testing.T) {
	a1, _ := newApp(t, testConfig())
	a2, _ := newApp(t, testConfig())
	assert.Equal(t, a1.Ledger.Snapshot(), a2.Ledger.Snapshot())
	assert.Equal(t, uint64(7), a1.Seed)
}

func TestNew_ZeroSeedIsRandomized(t *testing.T) {
	cfg := testConfig()
	cfg.Seed = 0
	a, _ := newApp(t, cfg)
	assert.NotZero(t, a.Seed)
}

func TestServeAdmin(t *testing.T) {
	a, _ := newApp(t, testConfig())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.ServeAdmin(ctx, ln) }()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
	client.CloseIdleConnections()

	cancel()
	require.NoError(t, <-done)
}

func TestSessionSeed(t *testing.T) {
	seen := map[uint64]bool{}
	for seq := 0; seq < 100; seq++ {
		s := sessionSeed(42, seq)
		assert.False(t, seen[s], "seed collision at %d", seq)
		seen[s] = true
	}
}
