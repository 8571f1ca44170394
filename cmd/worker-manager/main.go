// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"scheme-workers/internal/common/aws"
	"scheme-workers/internal/common/camunda"
	"scheme-workers/internal/common/config"
	"scheme-workers/internal/common/database"
	"scheme-workers/internal/common/logger"
	"scheme-workers/internal/common/observability"
	"scheme-workers/internal/corpus"
	"scheme-workers/internal/models"
	"scheme-workers/internal/profile"
	"scheme-workers/internal/ranking/eligibility"
	"scheme-workers/internal/ranking/engine"

	cse "scheme-workers/internal/workers/schemes/check-scheme-eligibility"
	gsn "scheme-workers/internal/workers/schemes/generate-smart-notifications"
	msk "scheme-workers/internal/workers/schemes/match-scheme-keywords"
	rs "scheme-workers/internal/workers/schemes/recommend-schemes"
	ss "scheme-workers/internal/workers/schemes/search-schemes"
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

// readinessCheck is one dependency checked by /ready.
type readinessCheck struct {
	name  string
	check func(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewFromConfig(cfg.Logging)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting scheme worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()
	var checks []readinessCheck

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("failed to connect to Zeebe", zap.Error(err))
	}
	defer zeebe.Close()
	checks = append(checks, readinessCheck{name: "zeebe", check: zeebe.HealthCheck})
	zapLog.Info("Connected to Zeebe", zap.String("address", cfg.Camunda.BrokerAddress))

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pg.Ping(pingCtx); err != nil {
			pg.Close()
			return err
		}
		return nil
	}, 5, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pg.Close()
	checks = append(checks, readinessCheck{name: "postgres", check: pg.Ping})
	zapLog.Info("Connected to PostgreSQL", zap.String("host", cfg.Database.Postgres.Host))

	// --- Elasticsearch, only when it serves the corpus ---
	var es *database.ElasticsearchClient
	if cfg.Ranking.CorpusBackend == "elasticsearch" {
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping()
		}, 5, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("failed to connect to Elasticsearch", zap.Error(err))
		}
		checks = append(checks, readinessCheck{name: "elasticsearch", check: func(context.Context) error { return es.Ping() }})
		zapLog.Info("Connected to Elasticsearch", zap.String("url", cfg.Database.Elasticsearch.GetURL()))
	}

	// --- Redis ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		return rdb.Ping(pingCtx)
	}, 5, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer rdb.Close()
	checks = append(checks, readinessCheck{name: "redis", check: rdb.Ping})
	zapLog.Info("Connected to Redis", zap.String("address", cfg.Database.Redis.Address))

	// --- Corpus, profiles and engines ---
	var backend corpus.Accessor
	switch cfg.Ranking.CorpusBackend {
	case "elasticsearch":
		backend = corpus.NewElasticsearchAccessor(es.Client, cfg.Database.Elasticsearch.SchemeIndex)
	default:
		backend = corpus.NewPostgresAccessor(pg.DB)
	}
	cached := corpus.NewCachedAccessor(backend, rdb.Client, time.Duration(cfg.Ranking.CacheTTL)*time.Second, log)
	profiles := profile.NewStore(pg.DB, rdb.Client, time.Duration(cfg.Ranking.ProfileCacheTTL)*time.Second)

	terms := eligibility.TermBanksFromConfig(cfg.Ranking.TermBanks)
	phrases := make(map[models.Language][]string, len(cfg.Ranking.SuggestionPhrases))
	for lang, list := range cfg.Ranking.SuggestionPhrases {
		phrases[models.ParseLanguage(lang)] = list
	}
	opts := engine.Options{
		FetchTimeout:      config.GetDuration(cfg.Ranking.FetchTimeout),
		ParallelThreshold: cfg.Ranking.ParallelThreshold,
		PoolSize:          cfg.Ranking.PoolSize,
		RecencyWindow:     time.Duration(cfg.Ranking.RecencyWindowDays) * 24 * time.Hour,
		Terms:             &terms,
		Phrases:           phrases,
	}

	ranking, err := engine.New(cached, profiles, opts, obs, log)
	if err != nil {
		zapLog.Fatal("failed to build ranking engine", zap.Error(err))
	}
	defer ranking.Close()

	// Chat and voice answer from the bundled catalogue so they stay up when the corpus is not.
	staticOpts := opts
	staticOpts.PoolSize = 0
	matcher, err := engine.New(
		corpus.NewStaticAccessor(corpus.DefaultStaticSchemes(), corpus.DefaultStaticPopularQueries),
		nil, staticOpts, obs, log,
	)
	if err != nil {
		zapLog.Fatal("failed to build keyword matcher", zap.Error(err))
	}
	defer matcher.Close()

	messenger, err := aws.NewMessengerFromConfig(ctx, aws.MessengerConfig{
		Region:      cfg.Integrations.AWS.Region,
		FromEmail:   cfg.Notifications.Email.FromEmail,
		SMSSenderID: cfg.Integrations.AWS.SNS.DefaultSMSSenderID,
	}, cfg.Integrations.AWS.SES.Enabled, cfg.Integrations.AWS.SNS.Enabled)
	if err != nil {
		zapLog.Warn("AWS messaging unavailable, notifications will not be dispatched", zap.Error(err))
		messenger = aws.NewMessenger(aws.MessengerConfig{}, nil, nil)
	}

	// --- Workers ---
	handlers := map[string]camunda.JobHandler{
		ss.TaskType:  ss.NewHandler(ss.NewConfig(cfg), ranking, log),
		msk.TaskType: msk.NewHandler(msk.NewConfig(cfg), matcher, log),
		rs.TaskType:  rs.NewHandler(rs.NewConfig(cfg), ranking, log),
		gsn.TaskType: gsn.NewHandler(gsn.NewConfig(cfg, terms, time.Now), ranking, messenger, log),
		cse.TaskType: cse.NewHandler(cse.NewConfig(cfg), cached, profiles, log),
	}
	taskOrder := []string{ss.TaskType, msk.TaskType, rs.TaskType, gsn.TaskType, cse.TaskType}

	var workers []*camunda.CamundaWorker
	for _, taskType := range taskOrder {
		if !config.IsWorkerEnabled(cfg, taskType) {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			continue
		}
		wcfg := config.GetWorkerConfig(cfg, taskType)
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), camunda.WorkerOptions{
			TaskType:      taskType,
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
			Observability: obs,
		}, handlers[taskType], zapLog))
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		body := map[string]string{"status": "ready"}
		code := http.StatusOK
		for _, c := range checks {
			if err := c.check(checkCtx); err != nil {
				body[c.name] = err.Error()
				body["status"] = "not_ready"
				code = http.StatusServiceUnavailable
			}
		}
		writeStatus(w, code, body)
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.App.HealthPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	for _, w := range workers {
		w.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Health/Metrics server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped")
}

func writeStatus(w http.ResponseWriter, code int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
