// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"training-admissions/internal/admission/organizations"
	"training-admissions/internal/admission/sessions"
	"training-admissions/internal/common/camunda"
	"training-admissions/internal/common/config"
	"training-admissions/internal/common/database"
	"training-admissions/internal/common/logger"
	"training-admissions/internal/common/observability"
	"training-admissions/pkg/registry"

	caf "training-admissions/internal/workers/application/calculate-application-fee"
	lo "training-admissions/internal/workers/application/lookup-organizations"
	lp "training-admissions/internal/workers/application/lookup-participants"
	ra "training-admissions/internal/workers/application/review-application"
	sa "training-admissions/internal/workers/application/submit-application"
	va "training-admissions/internal/workers/application/validate-application"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// workerTimeout returns the configured job timeout for taskType, or
// fallback when none is set.
func workerTimeout(cfg *config.Config, taskType string, fallback time.Duration) time.Duration {
	if ms := cfg.Workers[taskType].Timeout; ms > 0 {
		return config.GetDuration(ms)
	}
	return fallback
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Activity registry ---
	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}
	if err := reg.Validate(); err != nil {
		zapLog.Fatal("activity registry invalid", zap.Error(err))
	}
	formSchema, err := reg.InputSchema(va.TaskType)
	if err != nil {
		zapLog.Fatal("validation schema unavailable", zap.Error(err))
	}

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: cfg.Camunda.Plaintext,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	if err := pg.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("postgres schema failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Shared admission services ---
	sessionStore := sessions.NewStore(pg.DB)
	sessionCache := sessions.NewCachedLoader(sessionStore, redis.Client, redis.Prefix(),
		config.GetDuration(cfg.Fees.SessionCacheTTL), log)
	orgSearch := organizations.NewSearcher(esClient.Client, cfg.Database.Elasticsearch.OrganizationsIndex)

	// --- Register workers ---
	client := zeebe.GetClient()
	var workers []worker.JobWorker
	start := func(taskType string, h camunda.HandlerFunc) {
		w := camunda.StartWorker(client, taskType, cfg.Workers[taskType],
			camunda.Instrument(taskType, h, obs), log)
		if w != nil {
			workers = append(workers, w)
		}
	}

	{
		c := va.LoadConfig()
		c.Timeout = workerTimeout(cfg, va.TaskType, c.Timeout)
		handler := va.NewHandler(c, sessionCache, sessionStore, orgSearch, formSchema, log)
		start(va.TaskType, handler.Handle)
	}

	{
		c := caf.LoadConfig()
		c.Timeout = workerTimeout(cfg, caf.TaskType, c.Timeout)
		handler := caf.NewHandler(c, sessionCache, log)
		start(caf.TaskType, handler.Handle)
	}

	{
		c := sa.LoadConfig()
		c.Timeout = workerTimeout(cfg, sa.TaskType, c.Timeout)
		c.Tolerance = cfg.Fees.Tolerance
		c.IdempotencyTTL = config.GetDuration(cfg.Submission.IdempotencyTTL)
		c.InFlightTTL = config.GetDuration(cfg.Submission.InFlightTTL)
		c.KeyPrefix = redis.Prefix()
		handler := sa.NewHandler(c, pg.DB, redis.Client, sessionCache, orgSearch, log)
		start(sa.TaskType, handler.Handle)
	}

	{
		c := ra.LoadConfig()
		c.Timeout = workerTimeout(cfg, ra.TaskType, c.Timeout)
		handler := ra.NewHandler(c, pg.DB, sessionCache, log)
		start(ra.TaskType, handler.Handle)
	}

	{
		c := lp.LoadConfig()
		c.Timeout = workerTimeout(cfg, lp.TaskType, c.Timeout)
		handler := lp.NewHandler(c, pg.DB, log)
		start(lp.TaskType, handler.Handle)
	}

	{
		c := lo.LoadConfig()
		c.Timeout = workerTimeout(cfg, lo.TaskType, c.Timeout)
		handler := lo.NewHandler(c, orgSearch, log)
		start(lo.TaskType, handler.Handle)
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{"postgres": "ok", "redis": "ok"}
		status := http.StatusOK
		if err := pg.Ping(ctx); err != nil {
			checks["postgres"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if err := redis.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		state := "ready"
		if status != http.StatusOK {
			state = "not_ready"
		}
		writeStatus(w, status, state, checks)
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.Metrics.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Close()
	}
	for _, w := range workers {
		w.AwaitClose()
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping Health/Metrics server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func writeStatus(w http.ResponseWriter, code int, status string, checks map[string]string) {
	body := map[string]interface{}{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if checks != nil {
		body["checks"] = checks
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
