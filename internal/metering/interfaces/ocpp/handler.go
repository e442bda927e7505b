package ocpp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"time"

	metering "evse-cloud/internal/metering/domain"
	"evse-cloud/internal/observability/metrics"
)

const maxBodyBytes = 4 << 20

// IngestHandler stores OCPP MeterValues forwarded by the charging station gateway.
type IngestHandler struct {
	repo   metering.SampleRepository
	logger *log.Logger
}

// NewIngestHandler constructs an ingest handler.
func NewIngestHandler(repo metering.SampleRepository, logger *log.Logger) (*IngestHandler, error) {
	if repo == nil {
		return nil, errors.New("ocpp ingest: nil repository")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &IngestHandler{repo: repo, logger: logger}, nil
}

// ServeHTTP ingests meter values.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.fail(w, start, "read_body", http.StatusBadRequest, "read body error", err)
		return
	}
	defer r.Body.Close()

	var req meterValuesRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.fail(w, start, "decode", http.StatusBadRequest, "invalid json", err)
		return
	}

	samples, err := req.toSamples()
	if err != nil {
		h.fail(w, start, "invalid_payload", http.StatusBadRequest, "invalid payload: "+err.Error(), err)
		return
	}

	if err := h.repo.InsertSamples(r.Context(), samples); err != nil {
		h.fail(w, start, "insert", http.StatusInternalServerError, "insert error", err)
		return
	}

	metrics.ObserveIngest(metrics.ResultSuccess, time.Since(start))
	metrics.AddIngestSamples(len(samples))
	resp := map[string]any{"inserted": len(samples)}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *IngestHandler) fail(w http.ResponseWriter, start time.Time, reason string, status int, msg string, err error) {
	h.logger.Printf("meter values ingest: %s: %v", reason, err)
	metrics.IncIngestError(reason)
	metrics.ObserveIngest(metrics.ResultError, time.Since(start))
	http.Error(w, msg, status)
}

type meterValuesRequest struct {
	TenantID      string       `json:"tenantId"`
	StationID     string       `json:"stationId"`
	TransactionID string       `json:"transactionId"`
	EVSEID        int          `json:"evseId"`
	MeterValue    []meterValue `json:"meterValue"`
}

type meterValue struct {
	Timestamp    string         `json:"timestamp"`
	SampledValue []sampledValue `json:"sampledValue"`
}

type sampledValue struct {
	Value         *float64       `json:"value"`
	Context       string         `json:"context"`
	Measurand     string         `json:"measurand"`
	Phase         string         `json:"phase"`
	Location      string         `json:"location"`
	UnitOfMeasure *unitOfMeasure `json:"unitOfMeasure"`
}

type unitOfMeasure struct {
	Unit       string `json:"unit"`
	Multiplier int    `json:"multiplier"`
}

// toSamples converts the payload into stored samples. Meter values that share a timestamp
// are one snapshot and are merged into a single sample.
func (r meterValuesRequest) toSamples() ([]metering.StoredSample, error) {
	if r.TenantID == "" || r.StationID == "" || r.TransactionID == "" {
		return nil, errors.New("missing tenantId/stationId/transactionId")
	}
	if len(r.MeterValue) == 0 {
		return nil, errors.New("no meter values")
	}

	samples := make([]metering.StoredSample, 0, len(r.MeterValue))
	byID := make(map[string]int, len(r.MeterValue))
	for i, mv := range r.MeterValue {
		ts, err := time.Parse(time.RFC3339Nano, mv.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("meterValue[%d]: invalid timestamp", i)
		}
		if len(mv.SampledValue) == 0 {
			return nil, fmt.Errorf("meterValue[%d]: empty sampledValue", i)
		}
		readings := make([]metering.Reading, 0, len(mv.SampledValue))
		for j, sv := range mv.SampledValue {
			reading, err := sv.toReading()
			if err != nil {
				return nil, fmt.Errorf("meterValue[%d].sampledValue[%d]: %w", i, j, err)
			}
			readings = append(readings, reading)
		}

		id := metering.SampleID(r.TenantID, r.StationID, r.TransactionID, r.EVSEID, ts)
		if idx, ok := byID[id]; ok {
			samples[idx].Readings = append(samples[idx].Readings, readings...)
			continue
		}
		byID[id] = len(samples)
		samples = append(samples, metering.StoredSample{
			ID:            id,
			TenantID:      r.TenantID,
			StationID:     r.StationID,
			TransactionID: r.TransactionID,
			EVSEID:        r.EVSEID,
			Sample:        metering.Sample{Timestamp: ts.UTC(), Readings: readings},
		})
	}
	return samples, nil
}

func (sv sampledValue) toReading() (metering.Reading, error) {
	if sv.Value == nil || math.IsNaN(*sv.Value) || math.IsInf(*sv.Value, 0) {
		return metering.Reading{}, errors.New("missing value")
	}
	measurand, ok := metering.ParseMeasurand(sv.Measurand)
	if !ok {
		return metering.Reading{}, fmt.Errorf("unknown measurand %q", sv.Measurand)
	}
	phase, ok := metering.ParsePhase(sv.Phase)
	if !ok {
		return metering.Reading{}, fmt.Errorf("unknown phase %q", sv.Phase)
	}
	readingCtx, ok := metering.ParseReadingContext(sv.Context)
	if !ok {
		return metering.Reading{}, fmt.Errorf("unknown context %q", sv.Context)
	}
	reading := metering.Reading{
		Measurand: measurand,
		Phase:     phase,
		Context:   readingCtx,
		Value:     *sv.Value,
	}
	if sv.UnitOfMeasure != nil {
		reading.Unit = &metering.UnitOfMeasure{Unit: sv.UnitOfMeasure.Unit, Multiplier: sv.UnitOfMeasure.Multiplier}
	}
	return reading, nil
}
