package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	cronrunner "github.com/zencoLabs/predict-contract/internal/cron"
	"github.com/zencoLabs/predict-contract/internal/limits"
	"github.com/zencoLabs/predict-contract/internal/metrics"
	"github.com/zencoLabs/predict-contract/internal/prediction"
	"github.com/zencoLabs/predict-contract/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load .env if present; system environment wins.
	if err := godotenv.Load(); err != nil {
		slog.Info(".env not found, using system environment")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// --- Initialize store ---
	var st store.Store
	var cleanup []func()

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(context.Background(), dbURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)

		pg := store.NewPostgresStore(pool)
		if err := pg.InitSchema(context.Background()); err != nil {
			slog.Error("schema init failed", "err", err)
			os.Exit(1)
		}
		st = pg
		slog.Info("connected to PostgreSQL")

		// Wrap with Redis read-through cache if configured.
		if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
			opt, err := redis.ParseURL(redisURL)
			if err != nil {
				slog.Error("invalid REDIS_URL", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			st = store.NewCachedStore(st, rdb, 30*time.Second)
			slog.Info("Redis cache enabled")
		}
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory store (data will not persist)")
		st = store.NewMemoryStore()
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Stake limits ---
	limiter := limits.NewStakeLimiter(
		envDecimal("MAX_STAKE_PER_USER"),
		envDecimal("MAX_POOL_PER_PREDICTION"),
	)

	// --- WebSocket hub ---
	hub := prediction.NewEventHub()
	go hub.Run()

	// --- Prediction service ---
	svc := prediction.NewService(st, limiter, hub)

	// --- Background jobs ---
	runner := cronrunner.New(context.Background())
	if _, err := runner.Add("@every 1m", func(ctx context.Context) {
		open, err := svc.Unfinished(ctx)
		if err != nil {
			slog.Warn("open-predictions refresh failed", "err", err)
			return
		}
		metrics.OpenPredictions.Set(float64(len(open)))
	}); err != nil {
		slog.Error("cron setup failed", "err", err)
		os.Exit(1)
	}
	runner.Start()
	defer runner.Stop()

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"predict-contract"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket endpoint for real-time ledger events.
		r.Get("/ws", hub.HandleWS)

		// Prediction lifecycle and queries.
		r.Get("/predictions", svc.HandleList)
		r.Post("/predictions", svc.HandleCreate)
		r.Get("/predictions/unfinished", svc.HandleUnfinished)
		r.Get("/predictions/{index}", svc.HandleGet)
		r.Get("/predictions/{index}/total", svc.HandleTotal)
		r.Get("/predictions/{index}/history", svc.HandleBetHistory)
		r.Get("/predictions/{index}/bets/{userID}", svc.HandleUserBets)
		r.Get("/predictions/{index}/claimable/{userID}", svc.HandleClaimable)
		r.Get("/users/{userID}/bets", svc.HandleUserBetHistory)

		// Staking and settlement.
		r.Post("/predictions/{index}/bets", svc.HandleBet)
		r.Post("/predictions/{index}/reveal", svc.HandleReveal)
		r.Post("/predictions/{index}/claims", svc.HandleClaim)
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("predict-contract listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down predict-contract...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("predict-contract stopped")
}

// envDecimal parses a decimal environment variable; unset or malformed
// values mean "no limit".
func envDecimal(key string) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		slog.Warn("ignoring malformed decimal env", "key", key, "value", v)
		return decimal.Zero
	}
	return d
}
