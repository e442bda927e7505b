package metering

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

var seriesBase = time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)

func energySample(offset time.Duration, kwh float64) Sample {
	return Sample{
		Timestamp: seriesBase.Add(offset),
		Readings: []Reading{{
			Measurand: MeasurandEnergyActiveImport,
			Context:   ContextSamplePeriodic,
			Value:     kwh,
			Unit:      &UnitOfMeasure{Unit: "kWh"},
		}},
	}
}

func periodic() ContextSet {
	return NewContextSet(ContextSamplePeriodic, ContextTransactionBegin, ContextTransactionEnd)
}

func TestBuildSeries_EndToEnd(t *testing.T) {
	samples := []Sample{
		energySample(0, 1.0),
		energySample(5*time.Second, 1.2),
		energySample(10*time.Second, 1.5),
	}
	got, err := BuildSeries(samples, MeasurandEnergyActiveImport, periodic())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := []Point{{0, "1.00"}, {5, "1.20"}, {10, "1.50"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestBuildSeries_Idempotent(t *testing.T) {
	samples := []Sample{energySample(0, 1.0), energySample(time.Minute, 2.0)}
	first, err := BuildSeries(samples, MeasurandEnergyActiveImport, periodic())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	second, err := BuildSeries(samples, MeasurandEnergyActiveImport, periodic())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical output, got %v and %v", first, second)
	}
}

func TestBuildSeries_Empty(t *testing.T) {
	got, err := BuildSeries(nil, MeasurandEnergyActiveImport, periodic())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil series, got %#v", got)
	}
}

func TestBuild_OutOfRangeDropped(t *testing.T) {
	samples := []Sample{
		energySample(0, 1.0),
		energySample(MaxElapsed, 2.0),
		energySample(MaxElapsed+time.Second, 3.0),
	}
	result, err := Build(samples, MeasurandEnergyActiveImport, periodic())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(result.Points) != 2 {
		t.Fatalf("expected 2 points, got %v", result.Points)
	}
	if result.Points[1].ElapsedSeconds != 7200 {
		t.Fatalf("sample exactly on the bound should be kept, got %v", result.Points[1])
	}
	if result.Count(OutcomeSkippedOutOfRange) != 1 {
		t.Fatalf("expected one out-of-range outcome, got %v", result.Outcomes)
	}
	if len(result.Diagnostics) != 1 || result.Diagnostics[0].Index != 2 {
		t.Fatalf("expected diagnostic for sample 2, got %+v", result.Diagnostics)
	}
}

func TestBuild_IncompletePhasesSkipped(t *testing.T) {
	samples := []Sample{
		{Timestamp: seriesBase, Readings: []Reading{amps(PhaseL1, 10), amps(PhaseL2, 10), amps(PhaseL3, 10)}},
		{Timestamp: seriesBase.Add(time.Second), Readings: []Reading{amps(PhaseL1, 10), amps(PhaseL2, 10)}},
	}
	result, err := Build(samples, MeasurandCurrentImport, periodic())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(result.Points) != 1 || result.Points[0].Value != "30.00" {
		t.Fatalf("unexpected points: %v", result.Points)
	}
	if result.Outcomes[1] != OutcomeSkippedNoData {
		t.Fatalf("expected no-data outcome, got %s", result.Outcomes[1])
	}
}

func TestBuild_ContextCheckedOnFirstReading(t *testing.T) {
	trigger := Reading{Measurand: MeasurandVoltage, Context: ContextTrigger, Value: 230, Unit: &UnitOfMeasure{Unit: "V"}}
	energy := Reading{Measurand: MeasurandEnergyActiveImport, Context: ContextSamplePeriodic, Value: 2, Unit: &UnitOfMeasure{Unit: "kWh"}}
	samples := []Sample{
		{Timestamp: seriesBase, Readings: []Reading{trigger, energy}},
		{Timestamp: seriesBase.Add(time.Second), Readings: []Reading{energy, trigger}},
	}
	result, err := Build(samples, MeasurandEnergyActiveImport, periodic())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := []Outcome{OutcomeSkippedContext, OutcomeIncluded}
	if !reflect.DeepEqual(result.Outcomes, want) {
		t.Fatalf("expected %v, got %v", want, result.Outcomes)
	}
	if result.Points[0].ElapsedSeconds != 1 {
		t.Fatalf("elapsed should be measured from the first sample, got %v", result.Points[0])
	}
}

func TestBuild_UnknownUnitFails(t *testing.T) {
	samples := []Sample{
		energySample(0, 1.0),
		{Timestamp: seriesBase.Add(time.Second), Readings: []Reading{{
			Measurand: MeasurandEnergyActiveImport,
			Value:     1,
			Unit:      &UnitOfMeasure{Unit: "FOO"},
		}}},
	}
	_, err := Build(samples, MeasurandEnergyActiveImport, periodic())
	var unitErr *UnitError
	if !errors.As(err, &unitErr) {
		t.Fatalf("expected *UnitError, got %v", err)
	}
	if unitErr.Unit != "FOO" {
		t.Fatalf("expected FOO, got %q", unitErr.Unit)
	}
}

func TestPointMarshalJSON(t *testing.T) {
	data, err := Point{ElapsedSeconds: 5, Value: "1.20"}.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `[5,"1.20"]` {
		t.Fatalf("unexpected encoding: %s", data)
	}
}

func TestSampleID_Stable(t *testing.T) {
	ts := time.Date(2026, time.May, 1, 10, 0, 0, 0, time.UTC)
	a := SampleID("tenant-a", "cs-1", "tx-1", 1, ts)
	if a != SampleID("tenant-a", "cs-1", "tx-1", 1, ts.In(time.FixedZone("CEST", 2*3600))) {
		t.Fatalf("same instant in another zone should give the same id")
	}
	for _, other := range []string{
		SampleID("tenant-b", "cs-1", "tx-1", 1, ts),
		SampleID("tenant-a", "cs-1", "tx-2", 1, ts),
		SampleID("tenant-a", "cs-1", "tx-1", 2, ts),
		SampleID("tenant-a", "cs-1", "tx-1", 1, ts.Add(time.Second)),
	} {
		if other == a {
			t.Fatalf("expected distinct ids, got %s twice", a)
		}
	}
}
