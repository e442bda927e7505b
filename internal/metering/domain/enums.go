package metering

// Measurand identifies the physical quantity a reading represents.
type Measurand string

const (
	MeasurandCurrentImport      Measurand = "Current.Import"
	MeasurandCurrentExport      Measurand = "Current.Export"
	MeasurandCurrentOffered     Measurand = "Current.Offered"
	MeasurandEnergyActiveImport Measurand = "Energy.Active.Import.Register"
	MeasurandEnergyActiveExport Measurand = "Energy.Active.Export.Register"
	MeasurandPowerActiveImport  Measurand = "Power.Active.Import"
	MeasurandPowerActiveExport  Measurand = "Power.Active.Export"
	MeasurandPowerOffered       Measurand = "Power.Offered"
	MeasurandVoltage            Measurand = "Voltage"
	MeasurandStateOfCharge      Measurand = "SoC"
	MeasurandFrequency          Measurand = "Frequency"
	MeasurandTemperature        Measurand = "Temperature"
)

// DefaultMeasurand applies to readings that do not report a measurand.
const DefaultMeasurand = MeasurandEnergyActiveImport

// ParseMeasurand validates a measurand name. An empty name is accepted and left empty.
func ParseMeasurand(value string) (Measurand, bool) {
	switch m := Measurand(value); m {
	case "",
		MeasurandCurrentImport,
		MeasurandCurrentExport,
		MeasurandCurrentOffered,
		MeasurandEnergyActiveImport,
		MeasurandEnergyActiveExport,
		MeasurandPowerActiveImport,
		MeasurandPowerActiveExport,
		MeasurandPowerOffered,
		MeasurandVoltage,
		MeasurandStateOfCharge,
		MeasurandFrequency,
		MeasurandTemperature:
		return m, true
	default:
		return "", false
	}
}

// OrDefault returns the measurand, substituting DefaultMeasurand when empty.
func (m Measurand) OrDefault() Measurand {
	if m == "" {
		return DefaultMeasurand
	}
	return m
}

// Phase tags one leg of a polyphase supply. Empty means already summed.
type Phase string

const (
	PhaseNone Phase = ""
	PhaseL1   Phase = "L1"
	PhaseL2   Phase = "L2"
	PhaseL3   Phase = "L3"
	PhaseN    Phase = "N"
	PhaseL1N  Phase = "L1-N"
	PhaseL2N  Phase = "L2-N"
	PhaseL3N  Phase = "L3-N"
	PhaseL1L2 Phase = "L1-L2"
	PhaseL2L3 Phase = "L2-L3"
	PhaseL3L1 Phase = "L3-L1"
)

// ParsePhase validates a phase tag.
func ParsePhase(value string) (Phase, bool) {
	switch p := Phase(value); p {
	case PhaseNone, PhaseL1, PhaseL2, PhaseL3, PhaseN,
		PhaseL1N, PhaseL2N, PhaseL3N, PhaseL1L2, PhaseL2L3, PhaseL3L1:
		return p, true
	default:
		return "", false
	}
}

// IsLine reports whether the phase is one of the summable lines L1, L2, L3.
func (p Phase) IsLine() bool {
	return p == PhaseL1 || p == PhaseL2 || p == PhaseL3
}

// ReadingContext describes why a sample was taken. Empty means not reported.
type ReadingContext string

const (
	ContextNone              ReadingContext = ""
	ContextInterruptionBegin ReadingContext = "Interruption.Begin"
	ContextInterruptionEnd   ReadingContext = "Interruption.End"
	ContextOther             ReadingContext = "Other"
	ContextSampleClock       ReadingContext = "Sample.Clock"
	ContextSamplePeriodic    ReadingContext = "Sample.Periodic"
	ContextTransactionBegin  ReadingContext = "Transaction.Begin"
	ContextTransactionEnd    ReadingContext = "Transaction.End"
	ContextTrigger           ReadingContext = "Trigger"
)

// ParseReadingContext validates a reading context.
func ParseReadingContext(value string) (ReadingContext, bool) {
	switch c := ReadingContext(value); c {
	case ContextNone, ContextInterruptionBegin, ContextInterruptionEnd, ContextOther,
		ContextSampleClock, ContextSamplePeriodic, ContextTransactionBegin,
		ContextTransactionEnd, ContextTrigger:
		return c, true
	default:
		return "", false
	}
}

// ContextSet is an immutable set of reading contexts.
type ContextSet struct {
	members map[ReadingContext]struct{}
}

// NewContextSet builds a set from the given contexts.
func NewContextSet(contexts ...ReadingContext) ContextSet {
	members := make(map[ReadingContext]struct{}, len(contexts))
	for _, c := range contexts {
		members[c] = struct{}{}
	}
	return ContextSet{members: members}
}

// Contains reports membership.
func (s ContextSet) Contains(c ReadingContext) bool {
	_, ok := s.members[c]
	return ok
}

// Len returns the number of members.
func (s ContextSet) Len() int {
	return len(s.members)
}
