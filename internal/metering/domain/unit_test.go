package metering

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestNormalizeValue(t *testing.T) {
	cases := []struct {
		name    string
		reading Reading
		want    string
	}{
		{"wh to kwh", Reading{Value: 1500, Unit: &UnitOfMeasure{Unit: "Wh"}}, "1.50"},
		{"watts", Reading{Measurand: MeasurandPowerActiveImport, Value: 7400, Unit: &UnitOfMeasure{Unit: "W"}}, "7.40"},
		{"absent unit", Reading{Value: 2500}, "2.50"},
		{"kwh unchanged", Reading{Value: 1.2, Unit: &UnitOfMeasure{Unit: "kWh"}}, "1.20"},
		{"case insensitive", Reading{Value: 3, Unit: &UnitOfMeasure{Unit: "KWH"}}, "3.00"},
		{"multiplier", Reading{Value: 15, Unit: &UnitOfMeasure{Unit: "Wh", Multiplier: 3}}, "15.00"},
		{"percent", Reading{Measurand: MeasurandStateOfCharge, Value: 55, Unit: &UnitOfMeasure{Unit: "Percent"}}, "0.55"},
		{"volts", Reading{Measurand: MeasurandVoltage, Value: 230.4, Unit: &UnitOfMeasure{Unit: "V"}}, "230.40"},
		{"amps", Reading{Measurand: MeasurandCurrentImport, Value: 16, Unit: &UnitOfMeasure{Unit: "A"}}, "16.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok, err := NormalizeValue(tc.reading)
			if err != nil {
				t.Fatalf("normalize: %v", err)
			}
			if !ok {
				t.Fatalf("expected ok")
			}
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestNormalizeValue_RoundsHalfAwayFromZero(t *testing.T) {
	cases := []struct {
		reading Reading
		want    string
	}{
		{Reading{Value: 125, Unit: &UnitOfMeasure{Unit: "Wh"}}, "0.13"},
		{Reading{Value: 1125, Unit: &UnitOfMeasure{Unit: "Wh"}}, "1.13"},
		{Reading{Value: 0.125, Unit: &UnitOfMeasure{Unit: "kWh"}}, "0.13"},
		{Reading{Value: -125, Unit: &UnitOfMeasure{Unit: "Wh"}}, "-0.13"},
		{Reading{Value: 1124, Unit: &UnitOfMeasure{Unit: "Wh"}}, "1.12"},
	}
	for _, tc := range cases {
		got, ok, err := NormalizeValue(tc.reading)
		if err != nil || !ok {
			t.Fatalf("normalize %v: ok=%v err=%v", tc.reading.Value, ok, err)
		}
		if got != tc.want {
			t.Fatalf("%v %s: expected %s, got %s", tc.reading.Value, tc.reading.Unit.Unit, tc.want, got)
		}
	}
}

func TestNormalizeValue_UnknownUnit(t *testing.T) {
	r := Reading{Measurand: MeasurandPowerActiveImport, Value: 1, Unit: &UnitOfMeasure{Unit: "FOO"}}
	got, ok, err := NormalizeValue(r)
	if err == nil {
		t.Fatalf("expected error, got value %q ok=%v", got, ok)
	}
	if !errors.Is(err, ErrUnknownUnit) {
		t.Fatalf("expected ErrUnknownUnit, got %v", err)
	}
	var unitErr *UnitError
	if !errors.As(err, &unitErr) {
		t.Fatalf("expected *UnitError, got %T", err)
	}
	if unitErr.Unit != "FOO" || unitErr.Measurand != MeasurandPowerActiveImport {
		t.Fatalf("unexpected error fields: %+v", unitErr)
	}
	if !strings.Contains(err.Error(), "FOO") || !strings.Contains(err.Error(), string(MeasurandPowerActiveImport)) {
		t.Fatalf("error message should name unit and measurand: %s", err.Error())
	}
}

func TestNormalizeValue_NotFinite(t *testing.T) {
	_, ok, err := NormalizeValue(Reading{Value: math.NaN(), Unit: &UnitOfMeasure{Unit: "kWh"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected NaN to be rejected")
	}
}
