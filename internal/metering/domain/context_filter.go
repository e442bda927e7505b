package metering

// IsValidContext reports whether a reading belongs in a series. A reading without a
// reported context is always accepted.
func IsValidContext(r Reading, valid ContextSet) bool {
	if r.Context == ContextNone {
		return true
	}
	return valid.Contains(r.Context)
}
