package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"evse-cloud/internal/audit"
	"evse-cloud/internal/auth"
	meteringapp "evse-cloud/internal/metering/application"
	metering "evse-cloud/internal/metering/domain"
	"evse-cloud/internal/observability/metrics"
)

const routePrefix = "/api/v1/transactions/"

// ExportArchiver stores rendered exports.
type ExportArchiver interface {
	Put(ctx context.Context, name, contentType string, body []byte) (string, error)
}

// SeriesHandler serves chart series and their exports.
type SeriesHandler struct {
	service  *meteringapp.SeriesService
	tenantID string
	archive  ExportArchiver
	audit    audit.Logger
	logger   *log.Logger
	now      func() time.Time
}

// Option configures the handler.
type Option func(*SeriesHandler)

// WithArchive archives every rendered export.
func WithArchive(archive ExportArchiver) Option {
	return func(h *SeriesHandler) {
		h.archive = archive
	}
}

// WithAudit records every successful export.
func WithAudit(logger audit.Logger) Option {
	return func(h *SeriesHandler) {
		h.audit = logger
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(h *SeriesHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewSeriesHandler constructs a handler. tenantID is used when the request carries no identity.
func NewSeriesHandler(service *meteringapp.SeriesService, tenantID string, opts ...Option) (*SeriesHandler, error) {
	if service == nil {
		return nil, errors.New("series handler: nil service")
	}
	h := &SeriesHandler{service: service, tenantID: tenantID, logger: log.Default(), now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

type seriesResponse struct {
	TransactionID string                `json:"transactionId"`
	Chart         meteringapp.Chart     `json:"chart"`
	Measurand     metering.Measurand    `json:"measurand"`
	Points        []metering.Point      `json:"points"`
	Diagnostics   []metering.Diagnostic `json:"diagnostics"`
}

type errorResponse struct {
	Error     string             `json:"error"`
	Measurand metering.Measurand `json:"measurand,omitempty"`
	Unit      string             `json:"unit,omitempty"`
}

// ServeHTTP handles /api/v1/transactions/{id}/series and /series/export.{xlsx,pdf}.
func (h *SeriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, routePrefix)
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] != "series" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	transactionID := parts[0]

	switch {
	case len(parts) == 2:
		h.handleSeries(w, r, transactionID)
	case len(parts) == 3 && parts[2] == "export.xlsx":
		h.handleExport(w, r, transactionID, formatXLSX)
	case len(parts) == 3 && parts[2] == "export.pdf":
		h.handleExport(w, r, transactionID, formatPDF)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *SeriesHandler) handleSeries(w http.ResponseWriter, r *http.Request, transactionID string) {
	series, _, ok := h.loadSeries(w, r, transactionID)
	if !ok {
		return
	}
	diagnostics := series.Diagnostics
	if diagnostics == nil {
		diagnostics = []metering.Diagnostic{}
	}
	writeJSON(w, http.StatusOK, seriesResponse{
		TransactionID: series.TransactionID,
		Chart:         series.Chart,
		Measurand:     series.Measurand,
		Points:        series.Points,
		Diagnostics:   diagnostics,
	})
}

func (h *SeriesHandler) handleExport(w http.ResponseWriter, r *http.Request, transactionID string, format exportFormat) {
	series, tenantID, ok := h.loadSeries(w, r, transactionID)
	if !ok {
		return
	}

	start := time.Now()
	var (
		data []byte
		err  error
	)
	switch format {
	case formatXLSX:
		data, err = BuildSeriesXLSX(series)
	case formatPDF:
		data, err = BuildSeriesPDF(series)
	}
	if err != nil {
		metrics.ObserveExport(string(format), metrics.ResultError, time.Since(start))
		h.logger.Printf("series export: transaction=%s format=%s: %v", transactionID, format, err)
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	metrics.ObserveExport(string(format), metrics.ResultSuccess, time.Since(start))

	name := fmt.Sprintf("%s-%s.%s", transactionID, series.Chart, format)
	digest := audit.Digest(data)
	var archiveKey string
	if h.archive != nil {
		object := archiveObjectName(tenantID, series, format, h.now(), digest)
		if key, err := h.archive.Put(r.Context(), object, format.contentType(), data); err != nil {
			metrics.IncArchive(metrics.ResultError)
			h.logger.Printf("series export: archive %s: %v", object, err)
		} else {
			metrics.IncArchive(metrics.ResultSuccess)
			archiveKey = key
			w.Header().Set("X-Export-Archive-Key", key)
		}
	}
	h.recordExport(r, tenantID, series, format, archiveKey, digest)

	w.Header().Set("Content-Type", format.contentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type exportAuditMetadata struct {
	Chart      meteringapp.Chart  `json:"chart"`
	Measurand  metering.Measurand `json:"measurand"`
	Format     exportFormat       `json:"format"`
	Points     int                `json:"points"`
	ArchiveKey string             `json:"archiveKey,omitempty"`
}

// archiveObjectName returns {tenant}/{transaction}/{chart}-{UTC time}-{digest prefix}.{ext}.
func archiveObjectName(tenantID string, series *meteringapp.ChartSeries, format exportFormat, at time.Time, digest string) string {
	if len(digest) > 12 {
		digest = digest[:12]
	}
	return fmt.Sprintf("%s/%s/%s-%s-%s.%s",
		url.PathEscape(tenantID), url.PathEscape(series.TransactionID), series.Chart,
		at.UTC().Format("20060102T150405Z"), digest, format)
}

func (h *SeriesHandler) recordExport(r *http.Request, tenantID string, series *meteringapp.ChartSeries, format exportFormat, archiveKey, digest string) {
	if h.audit == nil {
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	metadata, err := json.Marshal(exportAuditMetadata{
		Chart:      series.Chart,
		Measurand:  series.Measurand,
		Format:     format,
		Points:     len(series.Points),
		ArchiveKey: archiveKey,
	})
	if err != nil {
		h.logger.Printf("series export: audit metadata: %v", err)
		return
	}
	entry := audit.Entry{
		TenantID:      tenantID,
		Actor:         identity.Subject,
		Role:          string(identity.Role),
		Action:        audit.ActionSeriesExport,
		ResourceType:  "transaction",
		ResourceID:    series.TransactionID,
		Metadata:      metadata,
		PayloadDigest: digest,
		IP:            r.RemoteAddr,
		UserAgent:     r.UserAgent(),
	}
	if err := h.audit.Log(r.Context(), entry); err != nil {
		h.logger.Printf("series export: audit transaction=%s: %v", series.TransactionID, err)
	}
}

func (h *SeriesHandler) loadSeries(w http.ResponseWriter, r *http.Request, transactionID string) (*meteringapp.ChartSeries, string, bool) {
	chart := meteringapp.Chart(r.URL.Query().Get("chart"))
	if chart == "" {
		http.Error(w, "chart is required", http.StatusBadRequest)
		return nil, "", false
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == "" {
		tenantID = h.tenantID
	}
	if tenantID == "" {
		http.Error(w, "tenant_id is required", http.StatusServiceUnavailable)
		return nil, "", false
	}

	series, err := h.service.ChartSeries(r.Context(), tenantID, transactionID, chart)
	if err != nil {
		respondSeriesError(w, err)
		return nil, "", false
	}
	return series, tenantID, true
}

func respondSeriesError(w http.ResponseWriter, err error) {
	var unitErr *metering.UnitError
	switch {
	case errors.As(err, &unitErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:     "unknown unit",
			Measurand: unitErr.Measurand,
			Unit:      unitErr.Unit,
		})
	case errors.Is(err, meteringapp.ErrUnknownChart):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, metering.ErrTransactionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "transaction not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "query series error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
