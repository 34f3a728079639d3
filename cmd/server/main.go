package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"motormint/internal/audit"
	"motormint/internal/chain"
	"motormint/internal/identity"
	"motormint/internal/mint"
	"motormint/internal/platform/config"
	"motormint/internal/platform/httpserver"
	"motormint/internal/platform/logger"
	"motormint/internal/platform/metrics"
	platformredis "motormint/internal/platform/redis"
	"motormint/internal/reconcile"
	"motormint/internal/storage"
	"motormint/internal/token"
	httptransport "motormint/internal/transport/http"
	"motormint/internal/vehicle"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		log.Error("apply schema", "error", err)
		os.Exit(1)
	}

	// The audit outbox runs on database/sql; everything else uses the pool.
	auditDB, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("open audit database", "error", err)
		os.Exit(1)
	}
	defer auditDB.Close()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var reader chain.Reader
	rpcReader, err := chain.NewRPCReader(cfg.Chain.RPCURL, cfg.Chain.RegistryContract)
	if err != nil {
		log.Error("configure chain reader", "error", err)
		os.Exit(1)
	}
	reader = rpcReader
	if redisClient != nil {
		reader = chain.NewCachedReader(rpcReader, redisClient.Client, cfg.Chain.ReceiptCacheTTL, log)
	}

	m := metrics.New()
	auditStore := audit.NewPostgresStore(auditDB)
	auditPublisher := audit.NewPublisher(auditStore)
	identities := identity.NewRegistry(identity.NewPostgresStore(db.Pool), m, log)
	profiles := vehicle.NewPostgresStore(db.Pool)
	verifier := chain.NewVerifier(reader, m, log)
	reconciler := mint.NewReconciler(verifier, identities, profiles, auditPublisher, m, log)
	auditor := reconcile.NewAuditor(reader, profiles, auditPublisher, cfg.AuditConcurrency, m, log)
	sessions := token.NewService(cfg.JWTSigningKey)

	health := map[string]httptransport.HealthCheck{
		"postgres": func(ctx context.Context) error { return db.Pool.Ping(ctx) },
	}
	if redisClient != nil {
		health["redis"] = redisClient.Health
	}

	handler := httptransport.NewHandler(identities, sessions, reconciler, auditor, health, log)
	router := httptransport.NewRouter(handler, sessions, m, log)
	srv := httpserver.New(cfg.Addr, router)

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := audit.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			log.Error("connect to kafka", "error", err)
			os.Exit(1)
		}
		defer producer.Close()

		worker := audit.NewOutboxWorker(auditDB, producer, log)
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("outbox worker stopped", "error", err)
			}
		}()
	} else {
		log.Info("kafka brokers not configured, audit outbox publication disabled")
	}

	go func() {
		log.Info("starting motormint server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
