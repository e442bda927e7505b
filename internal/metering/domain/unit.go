package metering

import (
	"math"
	"strconv"
	"strings"
)

// Unit is a recognised unit symbol.
type Unit int

const (
	UnitUnknown Unit = iota
	UnitAbsent
	UnitKWh
	UnitWh
	UnitW
	UnitPercent
	UnitV
	UnitA
)

// ParseUnit maps a case-insensitive unit symbol to a Unit. An empty symbol is UnitAbsent.
func ParseUnit(symbol string) Unit {
	switch strings.ToLower(strings.TrimSpace(symbol)) {
	case "":
		return UnitAbsent
	case "kwh":
		return UnitKWh
	case "wh":
		return UnitWh
	case "w":
		return UnitW
	case "percent":
		return UnitPercent
	case "v":
		return UnitV
	case "a":
		return UnitA
	default:
		return UnitUnknown
	}
}

// exponentAdjustment is added to the declared multiplier to reach the display unit.
func exponentAdjustment(u Unit) (int, bool) {
	switch u {
	case UnitKWh, UnitV, UnitA:
		return 0, true
	case UnitAbsent, UnitWh, UnitW:
		return -3, true
	case UnitPercent:
		return -2, true
	case UnitUnknown:
		return 0, false
	}
	return 0, false
}

// NormalizeValue rescales a reading into its measurand's display unit, formatted with two
// decimals (ties round away from zero). ok is false when the value is not a finite number. An unrecognised unit
// yields a *UnitError.
func NormalizeValue(r Reading) (value string, ok bool, err error) {
	symbol := ""
	multiplier := 0
	if r.Unit != nil {
		symbol = r.Unit.Unit
		multiplier = r.Unit.Multiplier
	}
	adj, known := exponentAdjustment(ParseUnit(symbol))
	if !known {
		return "", false, &UnitError{Measurand: r.Measurand.OrDefault(), Unit: symbol}
	}
	if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		return "", false, nil
	}
	scaled := r.Value * math.Pow10(multiplier+adj)
	if math.IsNaN(scaled) || math.IsInf(scaled, 0) {
		return "", false, nil
	}
	return formatHundredths(scaled), true, nil
}

// formatHundredths renders v with two decimals, rounding ties away from zero.
func formatHundredths(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', 2, 64)
}
