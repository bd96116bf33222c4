package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"veriflow/internal/account"
	accountstore "veriflow/internal/account/store"
	"veriflow/internal/audit"
	"veriflow/internal/exchange"
	exchangehandler "veriflow/internal/exchange/handler"
	"veriflow/internal/pipeline"
	"veriflow/internal/pipeline/metrics"
	"veriflow/internal/platform/config"
	"veriflow/internal/platform/httpserver"
	"veriflow/internal/platform/logger"
	"veriflow/internal/platform/middleware"
	"veriflow/internal/platform/postgres"
	platformredis "veriflow/internal/platform/redis"
	"veriflow/internal/provider"
	"veriflow/internal/provider/tokencache"
	"veriflow/internal/risk"
	webhookhandler "veriflow/internal/webhook/handler"
	"veriflow/internal/workitem"
	workitemstore "veriflow/internal/workitem/store"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages; every external system (postgres,
// redis, kafka, the provider API) is optional and falls back to an in-process
// substitute so a bare `go run ./cmd/server` works.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := postgres.Open(cfg.Database.URL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	kafkaPublisher, err := audit.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, log)
	if err != nil {
		log.Error("kafka connection failed", "error", err)
		os.Exit(1)
	}

	var accounts account.Store
	var workitems workitem.Store
	if db != nil {
		accounts = accountstore.NewPostgres(db)
		workitems = workitemstore.NewPostgres(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		accounts = accountstore.NewInMemory()
		workitems = workitemstore.NewInMemory()
	}

	auditSinks := []audit.Sink{audit.NewMemoryStore()}
	if kafkaPublisher != nil {
		defer kafkaPublisher.Close()
		auditSinks = append(auditSinks, kafkaPublisher)
	}
	audits := audit.NewService(log, auditSinks...)

	var tokens provider.TokenCache
	var exchangeStore exchange.Store
	if redisClient != nil {
		tokens = tokencache.NewRedis(redisClient.Client)
		exchangeStore = exchange.NewRedisStore(redisClient.Client)
	} else {
		log.Warn("REDIS_URL not set, using process-local token stores")
		tokens = tokencache.NewInMemory()
		exchangeStore = exchange.NewInMemoryStore()
	}

	providerClient := provider.New(cfg.Provider, tokens, log)
	if !providerClient.Enabled() {
		log.Warn("PROVIDER_BASE_URL not set, image enrichment disabled")
	}

	pipelineSvc := pipeline.New(
		risk.ThresholdsFromConfig(cfg.Risk),
		account.NewReconciler(accounts, log),
		workitem.NewFactory(workitems, audits, log),
		audits,
		providerClient,
		metrics.New(),
		log,
	)

	router := chi.NewRouter()
	router.Use(middleware.RequestMeta)

	webhookhandler.New(pipelineSvc, log).Register(router)
	exchangehandler.New(exchangeStore, log).Register(router)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", healthz(db, redisClient))

	srv := httpserver.New(cfg.Server.Addr, router)

	go func() {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// healthz reports liveness plus the state of the configured backends.
// Unconfigured backends are skipped, not failed.
func healthz(db *sql.DB, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status := http.StatusOK
		body := []byte(`{"status":"ok"}`)

		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body = []byte(`{"status":"degraded","postgres":"unreachable"}`)
			}
		}
		if redisClient != nil && status == http.StatusOK {
			if err := redisClient.Health(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body = []byte(`{"status":"degraded","redis":"unreachable"}`)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}
}
