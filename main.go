package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"evse-cloud/internal/audit"
	"evse-cloud/internal/auth"
	meteringapp "evse-cloud/internal/metering/application"
	metering "evse-cloud/internal/metering/domain"
	meteringmemory "evse-cloud/internal/metering/infrastructure/memory"
	"evse-cloud/internal/metering/infrastructure/objectstore"
	meteringpostgres "evse-cloud/internal/metering/infrastructure/postgres"
	meteringhttp "evse-cloud/internal/metering/interfaces/http"
	"evse-cloud/internal/metering/interfaces/ocpp"
	"evse-cloud/internal/observability/metrics"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	var (
		sampleRepo  metering.SampleRepository
		sampleQuery metering.SampleQuery
		auditLog    audit.Logger
		db          *sql.DB
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
		repo := meteringpostgres.NewSampleRepository(db)
		sampleRepo, sampleQuery = repo, repo
		auditRepo, err := audit.NewRepository(db)
		if err != nil {
			logger.Fatalf("audit repo error: %v", err)
		}
		auditLog = auditRepo
	} else {
		logger.Printf("DATABASE_URL not set; using in-memory sample store")
		repo := meteringmemory.NewSampleRepository()
		sampleRepo, sampleQuery = repo, repo
		auditLog = audit.NewLogWriter(logger)
	}

	metrics.Init(db, logger)

	presets, err := meteringapp.LoadPresets(cfg.ChartsConfig)
	if err != nil {
		logger.Fatalf("chart presets error: %v", err)
	}
	seriesService, err := meteringapp.NewSeriesService(sampleQuery, presets, logger)
	if err != nil {
		logger.Fatalf("series service error: %v", err)
	}

	handlerOpts := []meteringhttp.Option{meteringhttp.WithLogger(logger), meteringhttp.WithAudit(auditLog)}
	if cfg.ExportBucket != "" {
		archive, err := objectstore.NewExportArchive(cfg.ExportRegion, cfg.ExportBucket, cfg.ExportPrefix)
		if err != nil {
			logger.Fatalf("export archive error: %v", err)
		}
		handlerOpts = append(handlerOpts, meteringhttp.WithArchive(archive))
	}
	seriesHandler, err := meteringhttp.NewSeriesHandler(seriesService, cfg.TenantID, handlerOpts...)
	if err != nil {
		logger.Fatalf("series handler error: %v", err)
	}

	ingestHandler, err := ocpp.NewIngestHandler(sampleRepo, logger)
	if err != nil {
		logger.Fatalf("ingest handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, []string{"/ingest/"})
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)
	ingestAuth := auth.NewIngestAuthMiddleware([]byte(cfg.IngestSecret), time.Duration(cfg.IngestSkewSeconds)*time.Second)

	mux := http.NewServeMux()
	mux.Handle("/ingest/ocpp/meter-values", ingestAuth.Wrap(ingestHandler))
	mux.Handle("/api/v1/transactions/", seriesHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           loggingMiddleware(authMiddleware.Wrap(mux), logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	logger.Printf("http listening on %s (charts: %v)", cfg.HTTPAddr, presets.Charts())
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL       string
	HTTPAddr          string
	TenantID          string
	JWTSecret         string
	IngestSecret      string
	IngestSkewSeconds int
	ReadHeaderTimeout time.Duration
	ChartsConfig      string
	ExportBucket      string
	ExportRegion      string
	ExportPrefix      string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:       getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:          getenvDefault("HTTP_ADDR", ":8080"),
		TenantID:          getenvDefault("TENANT_ID", ""),
		JWTSecret:         getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		IngestSecret:      getenvDefault("INGEST_HMAC_SECRET", ""),
		IngestSkewSeconds: getenvIntDefault("INGEST_MAX_SKEW_SECONDS", 300),
		ReadHeaderTimeout: getenvDuration("HTTP_READ_HEADER_TIMEOUT", 10*time.Second),
		ChartsConfig:      getenvDefault("METERING_CHARTS_CONFIG", ""),
		ExportBucket:      getenvDefault("EXPORT_S3_BUCKET", ""),
		ExportRegion:      getenvDefault("EXPORT_S3_REGION", "eu-west-1"),
		ExportPrefix:      getenvDefault("EXPORT_S3_PREFIX", "series-exports"),
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
