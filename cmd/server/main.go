// Command server runs the Ladle billing webhook service: the RevenueCat
// webhook endpoint plus health and metrics, with the user store selected by
// environment.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ladleapp/ladle-billing/pkg/billing"
	prommetrics "github.com/ladleapp/ladle-billing/pkg/billing/metrics/prometheus"
	"github.com/ladleapp/ladle-billing/pkg/billing/revenuecat"
	"github.com/ladleapp/ladle-billing/pkg/entitlement"
	zerologadapter "github.com/ladleapp/ladle-billing/pkg/entitlement/logger/zerolog"
	firestorestore "github.com/ladleapp/ladle-billing/storage/firestore"
	"github.com/ladleapp/ladle-billing/storage/memory"
	"github.com/ladleapp/ladle-billing/storage/postgres"
	redisledger "github.com/ladleapp/ladle-billing/storage/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	zlog := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if err := run(zlog); err != nil {
		zlog.Fatal().Err(err).Msg("server exited")
	}
}

func run(zlog zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := zerologadapter.NewLogger(zlog)

	store, cleanup, err := buildStore(ctx, zlog)
	if err != nil {
		return err
	}
	defer cleanup()

	var ledger billing.DeliveryLedger
	if addr := os.Getenv("LADLE_REDIS_ADDR"); addr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: addr})
		defer client.Close()
		ledger, err = redisledger.New(client, redisledger.DefaultConfig())
		if err != nil {
			return err
		}
		zlog.Info().Str("addr", addr).Msg("delivery deduplication ledger enabled")
	}

	metrics := prommetrics.NewMetrics(prometheus.DefaultRegisterer, "ladle")

	provider, err := revenuecat.NewProvider(billing.Config{
		Store:         store,
		WebhookSecret: os.Getenv("LADLE_WEBHOOK_SECRET"),
		Logger:        logger,
		Metrics:       metrics,
		Ledger:        ledger,
	})
	if err != nil {
		return err
	}
	if !provider.Configured() {
		zlog.Warn().Msg("LADLE_WEBHOOK_SECRET is not set; webhook deliveries will be rejected")
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Handle("/webhooks/"+provider.Name(), provider.WebhookHandler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	addr := os.Getenv("LADLE_LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zlog.Info().Str("addr", addr).Str("provider", provider.Name()).Msg("billing webhook server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		zlog.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildStore selects the user store backend from LADLE_USER_STORE:
// "postgres" (default when LADLE_DATABASE_URL is set), "firestore", or
// "memory" for local development.
func buildStore(ctx context.Context, zlog zerolog.Logger) (entitlement.UserStore, func(), error) {
	backend := os.Getenv("LADLE_USER_STORE")
	if backend == "" {
		if os.Getenv("LADLE_DATABASE_URL") != "" {
			backend = "postgres"
		} else {
			backend = "memory"
		}
	}

	switch backend {
	case "postgres":
		cfg := postgres.DefaultConfig()
		cfg.ConnectionString = os.Getenv("LADLE_DATABASE_URL")
		store, err := postgres.New(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		zlog.Info().Str("store", "postgres").Msg("user store ready")
		return store, store.Close, nil

	case "firestore":
		client, err := firestore.NewClient(ctx, os.Getenv("LADLE_FIRESTORE_PROJECT"))
		if err != nil {
			return nil, nil, err
		}
		store, err := firestorestore.New(client, firestorestore.Config{})
		if err != nil {
			return nil, nil, err
		}
		zlog.Info().Str("store", "firestore").Msg("user store ready")
		return store, func() { _ = client.Close() }, nil

	case "memory":
		zlog.Warn().Msg("using in-memory user store; entitlements are not persisted")
		return memory.New(), func() {}, nil
	}

	return nil, nil, errors.New("unknown LADLE_USER_STORE: " + backend)
}
