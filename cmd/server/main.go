package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"veridoc/internal/audit"
	"veridoc/internal/document/metrics"
	"veridoc/internal/document/ocr"
	"veridoc/internal/document/orchestrator"
	"veridoc/internal/document/pipeline"
	"veridoc/internal/document/preprocess"
	"veridoc/internal/document/zonal"
	"veridoc/internal/face"
	httpapi "veridoc/internal/http"
	"veridoc/internal/platform/config"
	"veridoc/internal/platform/httpserver"
	"veridoc/internal/platform/logger"
	platformredis "veridoc/internal/platform/redis"
	"veridoc/internal/token"
	"veridoc/internal/verification"
	verificationhandler "veridoc/internal/verification/handler"
	verificationmetrics "veridoc/internal/verification/metrics"
	"veridoc/internal/verification/store"
	adminmw "veridoc/pkg/platform/middleware/admin"
	"veridoc/pkg/platform/middleware/ratelimit"
)

// main wires dependencies and keeps the server lifecycle small.
// Business logic lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Error("create upload directory", "error", err)
		os.Exit(1)
	}

	healthChecks := map[string]httpapi.HealthCheck{}

	// Storage: Postgres when configured, in-memory otherwise.
	var recordStore store.Store = store.NewInMemoryStore()
	var pool *pgxpool.Pool
	if cfg.Database.URL != "" {
		poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
		if err != nil {
			log.Error("parse database url", "error", err)
			os.Exit(1)
		}
		poolCfg.MaxConns = cfg.Database.MaxConns
		poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime

		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			log.Error("connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pgStore, err := store.NewPostgres(ctx, pool)
		if err != nil {
			log.Error("initialize verification store", "error", err)
			os.Exit(1)
		}
		recordStore = pgStore
		healthChecks["postgres"] = pool.Ping
		log.Info("using postgres verification store")
	} else {
		log.Warn("DATABASE_URL not set, records are kept in memory")
	}

	// Redis recent-submission index, optional.
	var recent *store.RecentSubmissions
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		recent = store.NewRecentSubmissions(redisClient.Client, cfg.Redis.RecentTTL)
		healthChecks["redis"] = redisClient.Health
	}

	// Recognition engines.
	registry := ocr.NewRegistry(cfg.OCR.DefaultModel)
	tesseract := ocr.NewTesseract(cfg.OCR.TesseractPaths, log)
	if err := registry.Register(tesseract); err != nil {
		log.Error("register tesseract engine", "error", err)
		os.Exit(1)
	}
	if cfg.OCR.VisionAPIKey != "" {
		vision := ocr.NewVision(cfg.OCR.VisionAPIKey, cfg.OCR.VisionEndpoint, cfg.OCR.RunTimeout, log)
		if err := registry.Register(vision); err != nil {
			log.Error("register vision engine", "error", err)
			os.Exit(1)
		}
	}

	// Extraction pipeline.
	normalizer := preprocess.NewMagick(cfg.OCR.PreprocessBinary, log)
	extractionMetrics := metrics.New()

	orch, err := orchestrator.New(registry, normalizer, log, orchestrator.WithMetrics(extractionMetrics))
	if err != nil {
		log.Error("build orchestrator", "error", err)
		os.Exit(1)
	}

	var zonalExtractor pipeline.ZonalExtractor
	if zonalEngine, ok := registry.Get("tesseract"); ok {
		zonalExtractor = zonal.New(zonalEngine, normalizer, log, zonal.WithMetrics(extractionMetrics))
	}

	docPipeline, err := pipeline.New(orch, zonalExtractor, log, pipeline.WithMetrics(extractionMetrics))
	if err != nil {
		log.Error("build extraction pipeline", "error", err)
		os.Exit(1)
	}

	// Face comparison chain, cloud first, then local models.
	faceChain := face.NewChain(log)
	faceBackends := []face.Backend{
		face.NewVision(cfg.OCR.VisionAPIKey, cfg.OCR.VisionEndpoint, cfg.Face.RunTimeout, log),
	}
	for _, model := range []string{"deepface", "insightface", "yolov8-face"} {
		faceBackends = append(faceBackends,
			face.NewPythonBackend(model, cfg.Face.PythonBinary, cfg.Face.RunnerScript, cfg.Face.RunTimeout, log))
	}
	for _, backend := range faceBackends {
		if err := faceChain.Register(backend); err != nil {
			log.Error("register face backend", "error", err)
			os.Exit(1)
		}
	}

	// Audit trail: Postgres store when a database is configured,
	// in-memory otherwise, Kafka sink when brokers are set.
	var auditStore audit.Store = audit.NewInMemoryStore()
	if pool != nil {
		pgAudit, err := audit.NewPostgres(ctx, pool)
		if err != nil {
			log.Error("init postgres audit store", "error", err)
			os.Exit(1)
		}
		auditStore = pgAudit
		log.Info("using postgres audit store")
	}
	var sinks []audit.Sink
	if len(cfg.Audit.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.Audit.KafkaBrokers, cfg.Audit.KafkaTopic)
		if err != nil {
			log.Error("connect audit kafka sink", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
	}
	publisher := audit.NewPublisher(auditStore, log, sinks...)
	asyncAudit := audit.NewAsync(publisher, cfg.Audit.BufferSize, log)
	go func() {
		if err := asyncAudit.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	// Verification service.
	detector := verification.NewDuplicateDetector(recordStore, log,
		verification.WithRecentIndex(recent))
	service, err := verification.NewService(docPipeline, faceChain, detector, recordStore, log,
		verification.WithMetrics(verificationmetrics.New()),
		verification.WithRecentRecorder(recent),
		verification.WithAuditor(asyncAudit),
		verification.WithDefaultFaceModel(cfg.Face.DefaultModel),
	)
	if err != nil {
		log.Error("build verification service", "error", err)
		os.Exit(1)
	}

	// HTTP surface.
	tokens := token.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	adminGuard := adminmw.RequireAdmin(token.NewAdminValidator(tokens), log)

	verificationHandler := verificationhandler.New(
		service, registry, faceChain, publisher, cfg.UploadDir, log)

	limiter := ratelimit.NewLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)

	router := httpapi.NewRouter(httpapi.Config{
		Verification: verificationHandler,
		AdminGuard:   adminGuard,
		RateLimit:    limiter.Middleware,
		Logger:       log,
		HealthChecks: healthChecks,
	})

	srv := httpserver.New(cfg.Addr, router)
	go func() {
		log.Info("veridoc listening", "addr", cfg.Addr)
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
	}
}
