package metering

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UnitOfMeasure declares the unit symbol and power-of-ten multiplier of a value.
type UnitOfMeasure struct {
	Unit       string
	Multiplier int
}

// Reading is one sub-measurement within a sample.
type Reading struct {
	Measurand Measurand
	Phase     Phase
	Context   ReadingContext
	Value     float64
	Unit      *UnitOfMeasure
}

// Sample is one metering snapshot.
type Sample struct {
	Timestamp time.Time
	Readings  []Reading
}

// StoredSample is a sample bound to its transaction for persistence.
type StoredSample struct {
	ID            string
	TenantID      string
	StationID     string
	TransactionID string
	EVSEID        int
	Sample
}

var sampleNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:evse-cloud:meter-sample"))

// SampleID derives the stable id of the sample a station reported for a transaction at ts.
// A resent MeterValues message maps to the same id, so storing it again replaces the sample.
func SampleID(tenantID, stationID, transactionID string, evseID int, ts time.Time) string {
	key := strings.Join([]string{
		tenantID,
		stationID,
		transactionID,
		strconv.Itoa(evseID),
		ts.UTC().Format(time.RFC3339Nano),
	}, "\x1f")
	return uuid.NewSHA1(sampleNamespace, []byte(key)).String()
}

// Point is one chart point: seconds since the first sample and a two-decimal value.
type Point struct {
	ElapsedSeconds float64
	Value          string
}

// MarshalJSON encodes the point as a [elapsed, "value"] pair.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.ElapsedSeconds, p.Value})
}

// SampleRepository persists samples.
type SampleRepository interface {
	InsertSamples(ctx context.Context, samples []StoredSample) error
}

// SampleQuery loads the time-ordered samples of a transaction.
type SampleQuery interface {
	ListByTransaction(ctx context.Context, tenantID, transactionID string) ([]Sample, error)
}
