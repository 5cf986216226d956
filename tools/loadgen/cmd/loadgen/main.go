// Command loadgen replays a weighted mix of API requests against a
// running server. It logs in once, seeds a parameter pool from the
// list endpoints, then lets detail and analytics requests draw real
// identifiers from the pool.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/taxgeo/tools/loadgen/internal/pool"
	"github.com/taxgeo/tools/loadgen/internal/scenario"
)

func main() {
	var (
		baseURL  = flag.String("base-url", "http://localhost:8080", "server base URL")
		login    = flag.String("login", "admin", "employee login")
		password = flag.String("password", "", "employee password")
		workers  = flag.Int("workers", 8, "concurrent workers")
		duration = flag.Duration("duration", time.Minute, "how long to run")
		pause    = flag.Duration("pause", 0, "per-worker delay between requests")
		year     = flag.Int("year", time.Now().Year()-1, "reporting year for analytics requests")
	)
	flag.Parse()

	if *password == "" {
		fmt.Fprintln(os.Stderr, "loadgen: -password is required")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *baseURL, *login, *password, *workers, *duration, *pause, *year); err != nil {
		fmt.Fprintln(os.Stderr, "loadgen:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, baseURL, login, password string, workers int, duration, pause time.Duration, year int) error {
	client := scenario.NewClient(baseURL, 30*time.Second)
	if err := client.Login(ctx, login, password); err != nil {
		return err
	}

	cfg := pool.DefaultConfig()
	cfg.TTL = duration + time.Minute
	store := pool.New(cfg)
	defer store.Close()

	if err := seed(ctx, client, store); err != nil {
		return fmt.Errorf("seed pool: %w", err)
	}
	fmt.Printf("pool seeded: %d organizations, %d kkms, %d risks, %d orders\n",
		store.Len(pool.KindOrganizationID), store.Len(pool.KindKkmID),
		store.Len(pool.KindRiskID), store.Len(pool.KindOrderID))

	runner := scenario.NewRunner(steps(client, store, year), workers, pause)
	report := runner.Run(ctx, duration)

	printReport(report, store.Stats())
	if report.Errors > 0 {
		return fmt.Errorf("%d of %d requests failed", report.Errors, report.Requests)
	}
	return nil
}

// seed fills the pool from one page of each list endpoint.
func seed(ctx context.Context, client *scenario.Client, store *pool.Pool) error {
	lists := []struct {
		path string
		put  func(row map[string]any)
	}{
		{"/api/v1/organizations?page_size=200", func(row map[string]any) {
			putID(store, row, pool.KindOrganizationID, "GET /api/v1/organizations")
			if iin, ok := row["iin_bin"].(string); ok && iin != "" {
				_ = store.Put(pool.NewSample(iin, pool.KindIinBin, 0).FromEndpoint("GET /api/v1/organizations"))
			}
		}},
		{"/api/v1/kkms?page_size=200", func(row map[string]any) {
			putID(store, row, pool.KindKkmID, "GET /api/v1/kkms")
		}},
		{"/api/v1/risks?page_size=200", func(row map[string]any) {
			putID(store, row, pool.KindRiskID, "GET /api/v1/risks")
		}},
		{"/api/v1/orders?page_size=200", func(row map[string]any) {
			putID(store, row, pool.KindOrderID, "GET /api/v1/orders")
		}},
	}

	for _, list := range lists {
		rows, err := client.ListRows(ctx, list.path)
		if err != nil {
			return err
		}
		for _, row := range rows {
			list.put(row)
		}
	}
	return nil
}

func putID(store *pool.Pool, row map[string]any, kind pool.Kind, origin string) {
	if id, ok := row["id"].(float64); ok {
		_ = store.Put(pool.NewSample(int(id), kind, 0).FromEndpoint(origin))
	}
}

// steps builds the request mix. List and analytics endpoints carry most
// of the weight; detail requests draw identifiers from the pool and
// keep feeding it from fresh list pages.
func steps(client *scenario.Client, store *pool.Pool, year int) []scenario.Step {
	return []scenario.Step{
		{Name: "organizations list", Weight: 5, Do: func(ctx context.Context) error {
			rows, err := client.ListRows(ctx, "/api/v1/organizations?page_size=50")
			if err != nil {
				return err
			}
			for _, row := range rows {
				putID(store, row, pool.KindOrganizationID, "GET /api/v1/organizations")
			}
			return nil
		}},
		{Name: "organization by id", Weight: 8, Do: func(ctx context.Context) error {
			s := store.Pick(pool.KindOrganizationID)
			if s == nil {
				return scenario.ErrSkip
			}
			id, _ := s.Int()
			return client.Get(ctx, fmt.Sprintf("/api/v1/organizations/%d", id))
		}},
		{Name: "organizations count", Weight: 2, Do: func(ctx context.Context) error {
			return client.Get(ctx, "/api/v1/organizations/count")
		}},
		{Name: "risks by taxpayer", Weight: 4, Do: func(ctx context.Context) error {
			s := store.Pick(pool.KindIinBin)
			if s == nil {
				return scenario.ErrSkip
			}
			iin, _ := s.String()
			return client.Get(ctx, "/api/v1/risks?page_size=50&organization__iin_bin="+iin)
		}},
		{Name: "kkm receipts", Weight: 4, Do: func(ctx context.Context) error {
			s := store.Pick(pool.KindKkmID)
			if s == nil {
				return scenario.ErrSkip
			}
			id, _ := s.Int()
			return client.Get(ctx, fmt.Sprintf("/api/v1/receipts/kkms/%d/receipts?page_size=50", id))
		}},
		{Name: "orders list", Weight: 3, Do: func(ctx context.Context) error {
			return client.Get(ctx, "/api/v1/orders?page_size=50")
		}},
		{Name: "order by id", Weight: 3, Do: func(ctx context.Context) error {
			s := store.Pick(pool.KindOrderID)
			if s == nil {
				return scenario.ErrSkip
			}
			id, _ := s.Int()
			return client.Get(ctx, fmt.Sprintf("/api/v1/orders/%d", id))
		}},
		{Name: "population summary", Weight: 3, Do: func(ctx context.Context) error {
			return client.Get(ctx, fmt.Sprintf("/api/v1/analytics/population?region=RK&year=%d", year))
		}},
		{Name: "tax revenue", Weight: 3, Do: func(ctx context.Context) error {
			return client.Get(ctx, fmt.Sprintf("/api/v1/analytics/tax-revenue?region=RK&year=%d", year))
		}},
		{Name: "esf monthly", Weight: 2, Do: func(ctx context.Context) error {
			return client.Get(ctx, fmt.Sprintf("/api/v1/analytics/esf/monthly?region=RK&year=%d", year))
		}},
	}
}

func printReport(report scenario.Report, stats pool.Stats) {
	fmt.Printf("\n%-22s %9s %7s %7s %10s %10s %10s\n",
		"step", "requests", "errors", "skipped", "p50", "p95", "max")
	for _, s := range report.Steps {
		fmt.Printf("%-22s %9d %7d %7d %10s %10s %10s\n",
			s.Name, s.Requests, s.Errors, s.Skipped,
			s.P50.Round(time.Millisecond), s.P95.Round(time.Millisecond), s.Max.Round(time.Millisecond))
	}
	fmt.Printf("\n%d requests in %s (%.1f req/s), %d errors\n",
		report.Requests, report.Elapsed.Round(time.Second),
		float64(report.Requests)/report.Elapsed.Seconds(), report.Errors)

	fmt.Printf("pool: %d samples, %.0f%% hit rate, %d drops, %d stale\n",
		stats.Samples, stats.HitRate()*100, stats.Drops, stats.Stale)

	kinds := make([]string, 0, len(stats.ByKind))
	for k := range stats.ByKind {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Printf("  %-20s %d\n", k, stats.ByKind[pool.Kind(k)])
	}
}
