package metering

// FindOverallValue resolves the total reading for a measurand within one sample.
//
// A single reading without a phase is taken as the pre-summed total. Otherwise the
// L1, L2 and L3 readings are summed into a synthetic reading; if any of the three is
// missing the sample has no overall value.
func FindOverallValue(readings []Reading, m Measurand) (Reading, bool) {
	var matches []Reading
	for _, r := range readings {
		if r.Measurand.OrDefault() == m.OrDefault() {
			matches = append(matches, r)
		}
	}
	if len(matches) == 0 {
		return Reading{}, false
	}

	var summed []Reading
	for _, r := range matches {
		if r.Phase == PhaseNone {
			summed = append(summed, r)
		}
	}
	if len(summed) == 1 {
		return summed[0], true
	}

	lines := make(map[Phase]Reading, 3)
	var first *Reading
	for i := range matches {
		r := matches[i]
		if !r.Phase.IsLine() {
			continue
		}
		if _, seen := lines[r.Phase]; seen {
			continue
		}
		lines[r.Phase] = r
		if first == nil {
			first = &matches[i]
		}
	}
	if len(lines) < 3 {
		return Reading{}, false
	}

	total := *first
	total.Phase = PhaseNone
	total.Value = lines[PhaseL1].Value + lines[PhaseL2].Value + lines[PhaseL3].Value
	if first.Unit != nil {
		unit := *first.Unit
		total.Unit = &unit
	}
	return total, true
}
