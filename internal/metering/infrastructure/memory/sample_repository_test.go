package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	metering "evse-cloud/internal/metering/domain"
)

func TestSampleRepository_ListOrdersByTimestamp(t *testing.T) {
	repo := NewSampleRepository()
	ctx := context.Background()
	base := time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC)
	reading := metering.Reading{Measurand: metering.MeasurandVoltage, Value: 230, Unit: &metering.UnitOfMeasure{Unit: "V"}}

	err := repo.InsertSamples(ctx, []metering.StoredSample{
		{ID: "b", TenantID: "tenant-a", TransactionID: "tx-1", Sample: metering.Sample{Timestamp: base.Add(time.Minute), Readings: []metering.Reading{reading}}},
		{ID: "a", TenantID: "tenant-a", TransactionID: "tx-1", Sample: metering.Sample{Timestamp: base, Readings: []metering.Reading{reading}}},
		{ID: "c", TenantID: "tenant-b", TransactionID: "tx-1", Sample: metering.Sample{Timestamp: base, Readings: []metering.Reading{reading}}},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	samples, err := repo.ListByTransaction(ctx, "tenant-a", "tx-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples for tenant-a, got %d", len(samples))
	}
	if !samples[0].Timestamp.Equal(base) || !samples[1].Timestamp.Equal(base.Add(time.Minute)) {
		t.Fatalf("samples not ordered: %v, %v", samples[0].Timestamp, samples[1].Timestamp)
	}
}

func TestSampleRepository_RejectsInvalid(t *testing.T) {
	repo := NewSampleRepository()
	err := repo.InsertSamples(context.Background(), []metering.StoredSample{{ID: "x", TenantID: "tenant-a"}})
	if !errors.Is(err, metering.ErrInvalidSample) {
		t.Fatalf("expected ErrInvalidSample, got %v", err)
	}
}
