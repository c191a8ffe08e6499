// cmd/pipeline-manager/main.go
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

	awsclient "diagnosis-pipeline/internal/common/aws"
	"diagnosis-pipeline/internal/common/config"
	"diagnosis-pipeline/internal/common/database"
	stderrors "diagnosis-pipeline/internal/common/errors"
	httpclient "diagnosis-pipeline/internal/common/http"
	"diagnosis-pipeline/internal/common/logger"
	"diagnosis-pipeline/internal/common/observability"
	"diagnosis-pipeline/internal/history"
	"diagnosis-pipeline/internal/models"
	"diagnosis-pipeline/internal/notify"
	"diagnosis-pipeline/internal/pipeline"
	"diagnosis-pipeline/internal/scoring"
	"diagnosis-pipeline/internal/stages/analyze"
	"diagnosis-pipeline/internal/stages/deliver"
	"diagnosis-pipeline/internal/stages/qualitygate"
	"diagnosis-pipeline/internal/stages/synthesize"
	"diagnosis-pipeline/internal/stages/validate"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting pipeline manager", map[string]interface{}{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure clients ---

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		log.WithError(err).Error("failed to open postgres", nil)
		os.Exit(1)
	}
	defer pg.Close()
	if err := pg.Ping(ctx); err != nil {
		log.WithError(err).Error("postgres unreachable", nil)
		os.Exit(1)
	}

	redisClient, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		log.WithError(err).Error("failed to create redis client", nil)
		os.Exit(1)
	}
	defer redisClient.Close()
	if err := redisClient.Ping(ctx); err != nil {
		log.WithError(err).Warn("redis unreachable, benchmark lookups fall back to postgres", nil)
		redisClient = nil
	}

	var esClient *database.ElasticsearchClient
	if len(cfg.Database.Elasticsearch.Addresses) > 0 {
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			log.WithError(err).Warn("failed to create elasticsearch client, report archiving disabled", nil)
			esClient = nil
		} else if err := esClient.Ping(); err != nil {
			log.WithError(err).Warn("elasticsearch unreachable, report archiving disabled", nil)
			esClient = nil
		}
	}

	meters, err := observability.NewMeters(cfg.App.Name)
	if err != nil {
		log.WithError(err).Warn("failed to initialize otel meters", nil)
	}

	// --- Reference data ---

	framework, err := scoring.LoadFramework(cfg.Framework.Path)
	if err != nil {
		log.WithError(err).Error("failed to load assessment framework", nil)
		os.Exit(1)
	}

	catalog, err := pipeline.LoadCatalog(cfg.Pipeline.CatalogPath)
	if err != nil {
		log.WithError(err).Error("failed to load stage catalog", nil)
		os.Exit(1)
	}
	applyStageOverrides(catalog, cfg)

	// --- Scoring engine ---

	benchmarkStore := scoring.NewSQLBenchmarkStore(pg, redisClient,
		config.GetDuration(cfg.Database.Redis.CacheTTL*1000), log)
	scorer := scoring.NewScorer(framework, scoring.NewComparator(benchmarkStore, log))

	// --- Stage handlers ---

	validateHandler, err := validate.New(scorer, log)
	if err != nil {
		log.WithError(err).Error("failed to build validate stage", nil)
		os.Exit(1)
	}

	genaiClient := httpclient.NewClient(config.GetDuration(cfg.APIs.GenAI.Timeout))
	analyzeHandler := analyze.New(cfg.APIs.GenAI, genaiClient, log)

	synthesizeHandler, err := synthesize.New(log)
	if err != nil {
		log.WithError(err).Error("failed to build synthesize stage", nil)
		os.Exit(1)
	}

	gateHandler := qualitygate.New(qualitygate.DefaultChecks(), log)

	var mailer deliver.Mailer
	var archiver deliver.Archiver
	if cfg.Integrations.AWS.SES.Enabled {
		sesClient, err := awsclient.NewSESClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			log.WithError(err).Error("failed to create ses client", nil)
			os.Exit(1)
		}
		mailer = deliver.NewSESMailer(sesClient, cfg.Integrations.AWS.SES.FromEmail)
	} else {
		mailer = logMailer{log: log}
	}
	if esClient != nil {
		archiver = deliver.NewESArchiver(esClient, cfg.Database.Elasticsearch.ReportIndex)
	}
	deliverHandler := deliver.New(mailer, archiver, log)

	// --- Orchestrator ---

	executor := pipeline.NewExecutor(history.NewSQLStore(pg, log), log)
	orchestrator, err := pipeline.NewOrchestrator(catalog, map[string]pipeline.Handler{
		"validate":     validateHandler,
		"analyze":      analyzeHandler,
		"synthesize":   synthesizeHandler,
		"quality-gate": gateHandler,
		"deliver":      deliverHandler,
	}, executor, config.GetDuration(cfg.Pipeline.AverageStageDuration), log)
	if err != nil {
		log.WithError(err).Error("failed to build orchestrator", nil)
		os.Exit(1)
	}

	if cfg.Integrations.AWS.SNS.Enabled {
		snsClient, err := awsclient.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			log.WithError(err).Error("failed to create sns client", nil)
			os.Exit(1)
		}
		orchestrator.SetFailureNotifier(notify.NewSNSNotifier(snsClient, cfg.Integrations.AWS.SNS.TopicARN, log))
	}

	// --- HTTP server ---

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pg.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/diagnosis", diagnosisHandler(orchestrator, meters, cfg.Pipeline.ProgressBuffer, log))

	server := &http.Server{
		Addr:              ":8080",
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http server listening", map[string]interface{}{"addr": server.Addr})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("http server failed", nil)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http server shutdown failed", nil)
	}
}

// diagnosisHandler runs one pipeline per request and returns the
// execution trace. Progress snapshots are drained into the log so the
// orchestrator never blocks on a slow observer.
func diagnosisHandler(orchestrator *pipeline.Orchestrator, meters *observability.Meters, progressBuffer int, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var submission models.DiagnosisSubmission
		if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
			http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
			return
		}

		progress := make(chan models.PipelineExecution, progressBuffer)
		go func() {
			for snap := range progress {
				log.Debug("pipeline progress", map[string]interface{}{
					"pipelineId": snap.ExecutionID,
					"status":     string(snap.Status),
					"progress":   snap.OverallProgress,
				})
				if meters != nil && snap.CurrentStageIndex < len(snap.Stages) {
					stage := snap.Stages[snap.CurrentStageIndex]
					if stage.Status == models.StageCompleted && !stage.EndTime.IsZero() {
						meters.StageLatency.Record(r.Context(),
							float64(stage.EndTime.Sub(stage.StartTime).Milliseconds()))
					}
				}
			}
		}()

		result, runErr := orchestrator.Run(r.Context(), &submission, progress)
		if meters != nil && runErr == nil {
			meters.ScoreProcessed.Add(r.Context(), 1)
		}

		w.Header().Set("Content-Type", "application/json")
		if runErr != nil {
			status := http.StatusBadGateway
			if stderrors.IsValidation(runErr) || stderrors.IsQualityGateFailure(runErr) {
				status = http.StatusUnprocessableEntity
			}
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success":   false,
				"error":     runErr.Error(),
				"execution": result.Execution,
			})
			return
		}

		response := map[string]interface{}{
			"success":   true,
			"execution": result.Execution,
		}
		if delivered, ok := result.Output.(models.Delivered); ok {
			response["report"] = delivered.Artifact
			response["receipt"] = delivered.Receipt
		}
		json.NewEncoder(w).Encode(response)
	}
}

// applyStageOverrides lays the yaml stages section over the static
// catalog, so operators can tune a stage's timeout and retry budget
// without editing the catalog file. Stages absent from the yaml keep
// their catalog values.
func applyStageOverrides(catalog *pipeline.Catalog, cfg *config.Config) {
	for i := range catalog.Stages {
		id := catalog.Stages[i].ID
		if _, ok := cfg.Stages[id]; !ok {
			continue
		}
		sc := config.GetStageConfig(cfg, id)
		catalog.Stages[i].TimeoutMs = sc.Timeout
		catalog.Stages[i].Retry.MaxAttempts = sc.MaxAttempts
		catalog.Stages[i].Retry.DelayMs = sc.Delay
		catalog.Stages[i].Retry.ExponentialBackoff = sc.ExponentialBackoff
	}
}

// logMailer stands in for SES when email delivery is disabled: the report
// is written to the log instead of sent.
type logMailer struct {
	log logger.Logger
}

func (m logMailer) Send(_ context.Context, to, subject, body string) (string, error) {
	m.log.Info("email delivery disabled, report logged", map[string]interface{}{
		"to":      to,
		"subject": subject,
		"bytes":   len(body),
	})
	return fmt.Sprintf("local-%d", time.Now().UnixNano()), nil
}
