// README: Bench cases covering environment, catalog, mobilization quotes, auth, orders, concurrency and throughput.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"sewaalat/internal/modules/location"
	"sewaalat/internal/modules/pricing"
	"sewaalat/internal/types"
	"sewaalat/migrations"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"
)

var (
	jakarta = types.Point{Lat: -6.2088, Lng: 106.8456}
	bandung = types.Point{Lat: -6.9175, Lng: 107.6191}
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client

	// Filled in by earlier cases.
	token   string
	userID  string
	orderID string
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name  string
	Focus string
	Run   func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-7s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}

	return results
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{
			Name:  "Env: Postgres connect",
			Focus: "database reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusFail, Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name:  "Env: Redis connect",
			Focus: "cache reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: statusFail, Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name:  "Migration: apply (optional)",
			Focus: "embedded migrations",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.ApplyMigration {
					return Result{Status: statusSkip, Note: "apply-migration=false"}
				}
				if r.db == nil {
					return Result{Status: statusFail, Note: "db not configured"}
				}
				if err := migrations.Apply(ctx, r.db); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name:  "Migration: tables exist",
			Focus: "schema present",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusFail, Note: "db not configured"}
				}
				for _, t := range []string{"users", "products", "transactions", "order_events", "schema_migrations"} {
					var exists bool
					err := r.db.QueryRow(ctx,
						"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
						t,
					).Scan(&exists)
					if err != nil {
						return Result{Status: statusFail, Note: err.Error()}
					}
					if !exists {
						return Result{Status: statusFail, Note: "missing table: " + t}
					}
				}
				return Result{Status: statusPass}
			},
		},

		// Public surface
		httpCase("API: health", http.MethodGet, base+"/health", nil, "", http.StatusOK),
		httpCase("Catalog: list products", http.MethodGet, base+"/api/products", nil, "", http.StatusOK),
		httpCase("Catalog: unknown product -> 404", http.MethodGet, base+"/api/products/999999", nil, "", http.StatusNotFound),
		httpCase("Catalog: non-numeric id -> 400", http.MethodGet, base+"/api/products/abc", nil, "", http.StatusBadRequest),
		{
			Name:  "Catalog: list cached in Redis",
			Focus: "cache-aside fill",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: statusSkip, Note: "redis not configured"}
				}
				n, err := r.redis.Exists(ctx, "catalog:products").Result()
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				if n == 0 {
					return Result{Status: statusFail, Note: "catalog:products missing after list"}
				}
				return Result{Status: statusPass}
			},
		},

		// Mobilization quotes
		quoteCase("Mobilization: same point -> flat default fee", base, "", jakarta, jakarta),
		quoteCase("Mobilization: Jakarta to Bandung, category 3", base, "3", jakarta, bandung),
		httpCase("Mobilization: non-numeric coordinate -> 400", http.MethodPost, base+"/api/calculate-mobilization", map[string]any{
			"vendor_lat": "north", "vendor_lng": 106.8456, "project_lat": -6.9175, "project_lng": 107.6191,
		}, "", http.StatusBadRequest),
		httpCase("Mobilization: latitude out of range -> 400", http.MethodPost, base+"/api/calculate-mobilization", map[string]any{
			"vendor_lat": 123.0, "vendor_lng": 106.8456, "project_lat": -6.9175, "project_lng": 107.6191,
		}, "", http.StatusBadRequest),

		// Auth
		httpCase("Auth: bad credentials -> 401", http.MethodPost, base+"/api/login", map[string]any{
			"username": "nobody", "password": "wrong-password",
		}, "", http.StatusUnauthorized),
		{
			Name:  "Auth: login",
			Focus: "token for order cases",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.cfg.Username == "" {
					return Result{Status: statusSkip, Note: "no -username given"}
				}
				var out struct {
					Data struct {
						ID int64 `json:"id"`
					} `json:"data"`
					Token string `json:"token"`
				}
				res, code := r.call(ctx, http.MethodPost, base+"/api/login", map[string]any{
					"username": r.cfg.Username, "password": r.cfg.Password,
				}, "", &out)
				if res.Status == statusFail {
					return res
				}
				if code != http.StatusOK || out.Token == "" {
					return Result{Status: statusFail, Latency: res.Latency, Note: fmt.Sprintf("status=%d", code)}
				}
				r.token, r.userID = out.Token, fmt.Sprint(out.Data.ID)
				return res
			},
		},

		// Orders
		httpCase("Checkout: unauthenticated -> 401", http.MethodPost, base+"/api/checkout", map[string]any{}, "", http.StatusUnauthorized),
		{
			Name:  "Checkout: create order",
			Focus: "201 with order code",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.token == "" {
					return Result{Status: statusSkip, Note: "not logged in"}
				}
				var out struct {
					OrderID string `json:"orderId"`
				}
				res, code := r.call(ctx, http.MethodPost, base+"/api/checkout", r.checkoutBody(), r.token, &out)
				if res.Status == statusFail {
					return res
				}
				if code != http.StatusCreated || out.OrderID == "" {
					return Result{Status: statusFail, Latency: res.Latency, Note: fmt.Sprintf("status=%d", code)}
				}
				r.orderID = out.OrderID
				res.Note = out.OrderID
				return res
			},
		},
		{
			Name:  "Checkout: invoice readable",
			Focus: "owner can read invoice",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.orderID == "" {
					return Result{Status: statusSkip, Note: "no order created"}
				}
				res, code := r.call(ctx, http.MethodGet, base+"/api/invoices/"+r.orderID, nil, r.token, nil)
				if res.Status != statusFail && code != http.StatusOK {
					return Result{Status: statusFail, Latency: res.Latency, Note: fmt.Sprintf("status=%d", code)}
				}
				return res
			},
		},
		{
			Name:  "Consistency: stored order matches checkout",
			Focus: "pending status, remaining = total - down payment",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.orderID == "" || r.db == nil {
					return Result{Status: statusSkip, Note: "no order or db"}
				}
				var status string
				var balanced bool
				err := r.db.QueryRow(ctx,
					`SELECT status, remaining_balance = total_rental_fee - down_payment
					 FROM transactions WHERE order_id = $1`, r.orderID,
				).Scan(&status, &balanced)
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				if status != "pending" || !balanced {
					return Result{Status: statusFail, Note: fmt.Sprintf("status=%s balanced=%v", status, balanced)}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name:  "Admin: user token rejected",
			Focus: "role guard",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.token == "" {
					return Result{Status: statusSkip, Note: "not logged in"}
				}
				res, code := r.call(ctx, http.MethodGet, base+"/api/admin/transactions", nil, r.token, nil)
				if res.Status == statusFail {
					return res
				}
				if code != http.StatusForbidden && code != http.StatusOK {
					return Result{Status: statusFail, Note: fmt.Sprintf("status=%d", code)}
				}
				res.Note = fmt.Sprintf("status=%d", code)
				return res
			},
		},

		// Concurrency
		{
			Name:  "Concurrency: parallel checkouts get distinct codes",
			Focus: "order code uniqueness",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.token == "" {
					return Result{Status: statusSkip, Note: "not logged in"}
				}
				return concurrentCheckout(ctx, r, base+"/api/checkout")
			},
		},

		// Performance
		{
			Name:  "Perf: mobilization quote throughput",
			Focus: "engine under load",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, base+"/api/calculate-mobilization", quoteBody("1", jakarta, bandung))
			},
		},
	}
}

func (r *Runner) checkoutBody() map[string]any {
	start := time.Now().AddDate(0, 0, 7)
	return map[string]any{
		"user_id":          r.userID,
		"product_id":       1,
		"total_rental_fee": 10000000,
		"delivery_fee":     0,
		"start_date":       start.Format("2006-01-02"),
		"end_date":         start.AddDate(0, 0, 3).Format("2006-01-02"),
	}
}

// call sends a JSON request and decodes the response into out when non-nil.
// A transport error yields a FAIL result.
func (r *Runner) call(ctx context.Context, method, url string, body any, token string, out any) (Result, int) {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req, _ := http.NewRequestWithContext(ctx, method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}, 0
	}
	defer resp.Body.Close()
	if out != nil {
		_ = json.NewDecoder(resp.Body).Decode(out)
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return Result{Status: statusPass, Latency: time.Since(start)}, resp.StatusCode
}

func httpCase(name, method, url string, body any, token string, okStatuses ...int) TestCase {
	return TestCase{
		Name:  name,
		Focus: "HTTP API",
		Run: func(ctx context.Context, r *Runner) Result {
			res, code := r.call(ctx, method, url, body, token, nil)
			if res.Status == statusFail {
				return res
			}
			res.Note = fmt.Sprintf("status=%d", code)
			if !slices.Contains(okStatuses, code) {
				res.Status = statusFail
			}
			return res
		},
	}
}

func quoteBody(category string, vendor, project types.Point) map[string]any {
	body := map[string]any{
		"vendor_lat":  vendor.Lat,
		"vendor_lng":  vendor.Lng,
		"project_lat": project.Lat,
		"project_lng": project.Lng,
	}
	if category != "" {
		body["product_id"] = category
	}
	return body
}

// quoteCase compares the API quote with the built-in rate table. Deployments
// with a custom rates file will report a mismatch.
func quoteCase(name, base, category string, vendor, project types.Point) TestCase {
	return TestCase{
		Name:  name,
		Focus: "distance and pricing engines",
		Run: func(ctx context.Context, r *Runner) Result {
			want := pricing.DefaultRateTable().Quote(category, location.GreatCircleDistanceKm(vendor, project))
			var got struct {
				Success    bool  `json:"success"`
				DistanceKm int64 `json:"distance_km"`
				Fee        int64 `json:"mobilization_fee"`
			}
			res, code := r.call(ctx, http.MethodPost, base+"/api/calculate-mobilization", quoteBody(category, vendor, project), "", &got)
			if res.Status == statusFail {
				return res
			}
			res.Note = fmt.Sprintf("distance_km=%d fee=%d", got.DistanceKm, got.Fee)
			if code != http.StatusOK || !got.Success || got.DistanceKm != want.DistanceKm || got.Fee != want.Fee.Amount {
				res.Status = statusFail
				res.Note += fmt.Sprintf(" want distance_km=%d fee=%d (status=%d)", want.DistanceKm, want.Fee.Amount, code)
			}
			return res
		},
	}
}

func concurrentCheckout(ctx context.Context, r *Runner, url string) Result {
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = map[string]struct{}{}
		fails int
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var out struct {
				OrderID string `json:"orderId"`
			}
			res, code := r.call(ctx, http.MethodPost, url, r.checkoutBody(), r.token, &out)
			mu.Lock()
			defer mu.Unlock()
			if res.Status == statusFail || code != http.StatusCreated {
				fails++
				return
			}
			codes[out.OrderID] = struct{}{}
		}()
	}
	wg.Wait()

	note := fmt.Sprintf("created=%d distinct=%d failed=%d", r.cfg.Concurrency-fails, len(codes), fails)
	if fails > 0 || len(codes) != r.cfg.Concurrency {
		return Result{Status: statusFail, Note: note}
	}
	return Result{Status: statusPass, Note: note}
}

func perfLoad(ctx context.Context, r *Runner, url string, payload any) Result {
	b, _ := json.Marshal(payload)
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount int64
	var mu sync.Mutex
	wg := sync.WaitGroup{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
				req.Header.Set("Content-Type", "application/json")
				resp, err := r.httpc.Do(req)
				if err != nil {
					mu.Lock()
					errCount++
					mu.Unlock()
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				mu.Lock()
				count++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: statusFail, Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}
