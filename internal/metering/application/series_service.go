package application

import (
	"context"
	"errors"
	"log"
	"time"

	metering "evse-cloud/internal/metering/domain"
	"evse-cloud/internal/observability/metrics"
)

// ChartSeries is a built chart series for one transaction.
type ChartSeries struct {
	TransactionID string
	Chart         Chart
	Measurand     metering.Measurand
	Points        []metering.Point
	Diagnostics   []metering.Diagnostic
}

// SeriesService builds chart series from stored samples.
type SeriesService struct {
	query   metering.SampleQuery
	presets Presets
	logger  *log.Logger
}

// NewSeriesService constructs a SeriesService.
func NewSeriesService(query metering.SampleQuery, presets Presets, logger *log.Logger) (*SeriesService, error) {
	if query == nil {
		return nil, errors.New("series service: nil sample query")
	}
	if len(presets) == 0 {
		presets = DefaultPresets()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &SeriesService{query: query, presets: presets, logger: logger}, nil
}

// ChartSeries loads the samples of a transaction and builds the series for chart.
func (s *SeriesService) ChartSeries(ctx context.Context, tenantID, transactionID string, chart Chart) (*ChartSeries, error) {
	preset, err := s.presets.Lookup(chart)
	if err != nil {
		return nil, err
	}
	if transactionID == "" {
		return nil, metering.ErrTransactionNotFound
	}

	samples, err := s.query.ListByTransaction(ctx, tenantID, transactionID)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, metering.ErrTransactionNotFound
	}

	start := time.Now()
	result, err := metering.Build(samples, preset.Measurand, preset.Contexts)
	if err != nil {
		metrics.ObserveSeriesBuild(string(chart), metrics.ResultBadData, time.Since(start))
		s.logger.Printf("series: transaction=%s chart=%s build failed: %v", transactionID, chart, err)
		return nil, err
	}

	resultLabel := metrics.ResultSuccess
	if len(result.Points) == 0 {
		resultLabel = metrics.ResultNoData
	}
	metrics.ObserveSeriesBuild(string(chart), resultLabel, time.Since(start))
	for _, outcome := range []metering.Outcome{
		metering.OutcomeIncluded,
		metering.OutcomeSkippedContext,
		metering.OutcomeSkippedNoData,
		metering.OutcomeSkippedOutOfRange,
		metering.OutcomeSkippedNotNumeric,
	} {
		metrics.AddSeriesSamples(string(outcome), result.Count(outcome))
	}
	for _, d := range result.Diagnostics {
		s.logger.Printf("series: transaction=%s chart=%s sample=%d %s: %s", transactionID, chart, d.Index, d.Outcome, d.Message)
	}

	return &ChartSeries{
		TransactionID: transactionID,
		Chart:         chart,
		Measurand:     preset.Measurand,
		Points:        result.Points,
		Diagnostics:   result.Diagnostics,
	}, nil
}
