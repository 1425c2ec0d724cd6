// cmd/quotationd/main.go
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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/liduanken/bakery-quotation-agent/internal/agent"
	"github.com/liduanken/bakery-quotation-agent/internal/bom"
	"github.com/liduanken/bakery-quotation-agent/internal/common/config"
	"github.com/liduanken/bakery-quotation-agent/internal/common/database"
	"github.com/liduanken/bakery-quotation-agent/internal/common/errors"
	"github.com/liduanken/bakery-quotation-agent/internal/common/logger"
	"github.com/liduanken/bakery-quotation-agent/internal/common/observability"
	"github.com/liduanken/bakery-quotation-agent/internal/costs"
	"github.com/liduanken/bakery-quotation-agent/internal/pipeline"
	"github.com/liduanken/bakery-quotation-agent/internal/pricing"
	"github.com/liduanken/bakery-quotation-agent/internal/render"
	"github.com/liduanken/bakery-quotation-agent/internal/session"
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
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
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

	zapLog.Info("Starting quotation service...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Wire the quotation pipeline ---
	store := costs.NewPostgresStore(pg, log)
	if err := store.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("cost schema setup failed", zap.Error(err))
	}
	costSource := costs.NewCachedSource(store, rdb,
		time.Duration(cfg.Database.Redis.CacheTTL)*time.Second, log)

	estimator := bom.NewClient(cfg.BOMAPI.BaseURL, time.Duration(cfg.BOMAPI.Timeout)*time.Millisecond)
	resolver := bom.NewResolver(estimator, log,
		cfg.BOMAPI.MaxRetries, time.Duration(cfg.BOMAPI.BackoffMs)*time.Millisecond)

	calculator, err := pricing.NewCalculator(cfg.Pricing.LaborRate, cfg.Pricing.MarkupPct, cfg.Pricing.VATPct)
	if err != nil {
		zapLog.Fatal("pricing configuration invalid", zap.Error(err))
	}

	renderer, err := render.NewMarkdownRenderer(cfg.Template.Path, cfg.Template.OutputDir, log)
	if err != nil {
		zapLog.Fatal("template setup failed", zap.Error(err))
	}

	quotePipeline := pipeline.New(resolver, costSource, calculator, renderer, pipeline.Options{
		CompanyName: cfg.Pricing.CompanyName,
		Currency:    cfg.Pricing.Currency,
		ValidDays:   cfg.Pricing.QuoteValidDays,
	}, log)

	sessions := session.NewMemoryStore(time.Duration(cfg.Sessions.IdleTimeout)*time.Second, log)
	go sessions.RunSweeper(ctx, time.Duration(cfg.Sessions.SweepInterval)*time.Second)

	dispatcher := agent.NewDispatcher(quotePipeline, sessions, log)

	// --- HTTP surface: commands, health, metrics ---
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/command", commandHandler(dispatcher, obs))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pg.Ping(r.Context()); err != nil {
			http.Error(w, "postgres unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if cfg.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: mux,
	}
	go func() {
		zapLog.Info("HTTP listener started", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("http shutdown incomplete", zap.Error(err))
	}
	zapLog.Info("Quotation service stopped")
}

type commandRequest struct {
	SessionID string                 `json:"session_id"`
	Command   string                 `json:"command"`
	Payload   map[string]interface{} `json:"payload"`
}

// commandHandler is the thin JSON transport over the dispatcher. The
// conversational front-end lives elsewhere; this is its integration point.
func commandHandler(d *agent.Dispatcher, obs *observability.Observability) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req commandRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "malformed request body", http.StatusBadRequest)
			return
		}

		start := time.Now()
		resp, err := d.Handle(r.Context(), req.SessionID, req.Command, req.Payload)
		status := "success"
		if err != nil {
			status = "error"
		}
		obs.RecordQuoteProcessed(r.Context(), status)
		obs.RecordQuoteDuration(r.Context(), time.Since(start), status)
		if err != nil {
			writeCommandError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func writeCommandError(w http.ResponseWriter, err error) {
	status := http.StatusUnprocessableEntity
	stdErr := errors.AsStandard(err)
	if stdErr == nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	switch stdErr.Code {
	case errors.ErrCodeInvalidCommand:
		status = http.StatusBadRequest
	case errors.ErrCodeBOMConnectionFailed, errors.ErrCodeMaterialLookupFailed,
		errors.ErrCodeDatabaseConnectionFail:
		status = http.StatusBadGateway
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(stdErr)
}
