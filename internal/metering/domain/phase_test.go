package metering

import "testing"

func amps(phase Phase, value float64) Reading {
	return Reading{Measurand: MeasurandCurrentImport, Phase: phase, Value: value, Unit: &UnitOfMeasure{Unit: "A"}}
}

func TestFindOverallValue_SumsPhases(t *testing.T) {
	readings := []Reading{amps(PhaseL1, 10), amps(PhaseL2, 20), amps(PhaseL3, 30)}
	got, ok := FindOverallValue(readings, MeasurandCurrentImport)
	if !ok {
		t.Fatalf("expected overall value")
	}
	if got.Value != 60 {
		t.Fatalf("expected 60, got %v", got.Value)
	}
	if got.Phase != PhaseNone {
		t.Fatalf("expected phase cleared, got %q", got.Phase)
	}
	value, _, err := NormalizeValue(got)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if value != "60.00" {
		t.Fatalf("expected 60.00, got %s", value)
	}
	if readings[0].Value != 10 || readings[0].Phase != PhaseL1 {
		t.Fatalf("input mutated: %+v", readings[0])
	}
}

func TestFindOverallValue_PrefersSummedReading(t *testing.T) {
	watts := func(phase Phase, value float64) Reading {
		return Reading{Measurand: MeasurandPowerActiveImport, Phase: phase, Value: value, Unit: &UnitOfMeasure{Unit: "W"}}
	}
	readings := []Reading{watts(PhaseL1, 30), watts(PhaseNone, 100), watts(PhaseL2, 30), watts(PhaseL3, 30)}
	got, ok := FindOverallValue(readings, MeasurandPowerActiveImport)
	if !ok {
		t.Fatalf("expected overall value")
	}
	if got.Value != 100 {
		t.Fatalf("expected pre-summed 100, got %v", got.Value)
	}
}

func TestFindOverallValue_IncompletePhases(t *testing.T) {
	readings := []Reading{amps(PhaseL1, 10), amps(PhaseL2, 20)}
	if _, ok := FindOverallValue(readings, MeasurandCurrentImport); ok {
		t.Fatalf("expected no value for two phases")
	}
	duplicated := []Reading{amps(PhaseL1, 10), amps(PhaseL1, 10), amps(PhaseL2, 20)}
	if _, ok := FindOverallValue(duplicated, MeasurandCurrentImport); ok {
		t.Fatalf("duplicated phase must not replace a missing one")
	}
}

func TestFindOverallValue_DefaultMeasurand(t *testing.T) {
	readings := []Reading{{Value: 1200, Unit: &UnitOfMeasure{Unit: "Wh"}}}
	if _, ok := FindOverallValue(readings, MeasurandEnergyActiveImport); !ok {
		t.Fatalf("reading without measurand should match the default measurand")
	}
	if _, ok := FindOverallValue(readings, MeasurandPowerActiveImport); ok {
		t.Fatalf("reading without measurand should not match other measurands")
	}
}

func TestFindOverallValue_NoMatch(t *testing.T) {
	if _, ok := FindOverallValue([]Reading{amps(PhaseNone, 5)}, MeasurandVoltage); ok {
		t.Fatalf("expected no match")
	}
}

func TestIsValidContext(t *testing.T) {
	valid := NewContextSet(ContextSamplePeriodic)
	if !IsValidContext(Reading{}, valid) {
		t.Fatalf("missing context should be valid")
	}
	if !IsValidContext(Reading{Context: ContextSamplePeriodic}, valid) {
		t.Fatalf("member context should be valid")
	}
	if IsValidContext(Reading{Context: ContextTrigger}, valid) {
		t.Fatalf("non-member context should be invalid")
	}
}
