package metering

import (
	"fmt"
	"time"
)

// MaxElapsed bounds how far after the first sample a point may lie.
const MaxElapsed = 2 * time.Hour

// Outcome classifies what happened to one sample while building a series.
type Outcome string

const (
	OutcomeIncluded          Outcome = "included"
	OutcomeSkippedContext    Outcome = "skipped_context"
	OutcomeSkippedNoData     Outcome = "skipped_no_data"
	OutcomeSkippedOutOfRange Outcome = "skipped_out_of_range"
	OutcomeSkippedNotNumeric Outcome = "skipped_not_numeric"
)

// Diagnostic records a non-fatal anomaly found while building a series.
type Diagnostic struct {
	Index          int       `json:"index"`
	Timestamp      time.Time `json:"timestamp"`
	Outcome        Outcome   `json:"outcome"`
	ElapsedSeconds float64   `json:"elapsedSeconds"`
	Message        string    `json:"message"`
}

// Result is the output of Build: the chart points plus per-sample outcomes.
type Result struct {
	Points      []Point
	Outcomes    []Outcome
	Diagnostics []Diagnostic
}

// Count returns how many samples ended with the given outcome.
func (r Result) Count(o Outcome) int {
	n := 0
	for _, got := range r.Outcomes {
		if got == o {
			n++
		}
	}
	return n
}

// Build walks samples once and produces the normalized series for a measurand.
//
// Context is checked against the first reading of each sample only. An unknown unit
// aborts the build with a *UnitError.
func Build(samples []Sample, m Measurand, valid ContextSet) (Result, error) {
	result := Result{Points: []Point{}}
	if len(samples) == 0 {
		return result, nil
	}
	result.Outcomes = make([]Outcome, 0, len(samples))

	base := samples[0].Timestamp
	for i, sample := range samples {
		point, outcome, err := evaluateSample(sample, base, m, valid)
		if err != nil {
			return Result{}, fmt.Errorf("sample %d at %s: %w", i, sample.Timestamp.Format(time.RFC3339), err)
		}
		result.Outcomes = append(result.Outcomes, outcome)
		switch outcome {
		case OutcomeIncluded:
			result.Points = append(result.Points, point)
		case OutcomeSkippedOutOfRange:
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Index:          i,
				Timestamp:      sample.Timestamp,
				Outcome:        outcome,
				ElapsedSeconds: point.ElapsedSeconds,
				Message:        fmt.Sprintf("elapsed %.0fs exceeds %.0fs bound", point.ElapsedSeconds, MaxElapsed.Seconds()),
			})
		}
	}
	return result, nil
}

// BuildSeries returns only the chart points of Build.
func BuildSeries(samples []Sample, m Measurand, valid ContextSet) ([]Point, error) {
	result, err := Build(samples, m, valid)
	if err != nil {
		return nil, err
	}
	return result.Points, nil
}

func evaluateSample(sample Sample, base time.Time, m Measurand, valid ContextSet) (Point, Outcome, error) {
	if len(sample.Readings) == 0 {
		return Point{}, OutcomeSkippedNoData, nil
	}
	if !IsValidContext(sample.Readings[0], valid) {
		return Point{}, OutcomeSkippedContext, nil
	}
	overall, ok := FindOverallValue(sample.Readings, m)
	if !ok {
		return Point{}, OutcomeSkippedNoData, nil
	}

	elapsed := sample.Timestamp.Sub(base).Seconds()
	if elapsed > MaxElapsed.Seconds() {
		return Point{ElapsedSeconds: elapsed}, OutcomeSkippedOutOfRange, nil
	}

	value, ok, err := NormalizeValue(overall)
	if err != nil {
		return Point{}, "", err
	}
	if !ok {
		return Point{}, OutcomeSkippedNotNumeric, nil
	}
	return Point{ElapsedSeconds: elapsed, Value: value}, OutcomeIncluded, nil
}
