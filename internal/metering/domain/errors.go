package metering

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownUnit is returned when a reading declares a unit outside the normalization table.
	ErrUnknownUnit = errors.New("metering: unknown unit")
	// ErrTransactionNotFound is returned when no samples exist for a transaction.
	ErrTransactionNotFound = errors.New("metering: transaction not found")
	// ErrInvalidSample is returned when a sample cannot be stored.
	ErrInvalidSample = errors.New("metering: invalid sample")
)

// UnitError identifies the measurand and unit that could not be normalized.
type UnitError struct {
	Measurand Measurand
	Unit      string
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("metering: unknown unit %q for measurand %s", e.Unit, e.Measurand)
}

// Unwrap lets errors.Is match ErrUnknownUnit.
func (e *UnitError) Unwrap() error {
	return ErrUnknownUnit
}
