package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	metering "evse-cloud/internal/metering/domain"
)

const defaultReadingsTable = "meter_readings"

// SampleRepository is a Postgres implementation of sample storage.
// Each reading is one row; rows of a sample share sample_id.
type SampleRepository struct {
	db    *sql.DB
	table string
}

// NewSampleRepository constructs a repository with default table name.
func NewSampleRepository(db *sql.DB, opts ...RepositoryOption) *SampleRepository {
	repo := &SampleRepository{db: db, table: defaultReadingsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// RepositoryOption configures the repository.
type RepositoryOption func(*SampleRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(repo *SampleRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// InsertSamples upserts every reading of the given samples.
func (r *SampleRepository) InsertSamples(ctx context.Context, samples []metering.StoredSample) error {
	if r == nil || r.db == nil {
		return errors.New("sample repo: nil db")
	}
	if len(samples) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	sample_id,
	reading_index,
	tenant_id,
	station_id,
	transaction_id,
	evse_id,
	ts,
	measurand,
	phase,
	context,
	value,
	unit,
	multiplier
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
)
ON CONFLICT (sample_id, reading_index)
DO UPDATE SET
	measurand = EXCLUDED.measurand,
	phase = EXCLUDED.phase,
	context = EXCLUDED.context,
	value = EXCLUDED.value,
	unit = EXCLUDED.unit,
	multiplier = EXCLUDED.multiplier,
	updated_at = NOW()`, r.table)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	trim, err := tx.PrepareContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE sample_id = $1 AND reading_index >= $2`, r.table))
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer trim.Close()

	for _, s := range samples {
		sampleID, err := uuid.Parse(s.ID)
		if err != nil || s.TenantID == "" || s.TransactionID == "" || s.Timestamp.IsZero() {
			_ = tx.Rollback()
			return metering.ErrInvalidSample
		}
		for i, reading := range s.Readings {
			unit := sql.NullString{}
			multiplier := sql.NullInt64{}
			if reading.Unit != nil {
				unit = sql.NullString{String: reading.Unit.Unit, Valid: true}
				multiplier = sql.NullInt64{Int64: int64(reading.Unit.Multiplier), Valid: true}
			}
			if _, err := stmt.ExecContext(
				ctx,
				sampleID,
				i,
				s.TenantID,
				s.StationID,
				s.TransactionID,
				s.EVSEID,
				s.Timestamp.UTC(),
				string(reading.Measurand),
				string(reading.Phase),
				string(reading.Context),
				reading.Value,
				unit,
				multiplier,
			); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		// Drop readings left over from an earlier, longer version of the sample.
		if _, err := trim.ExecContext(ctx, sampleID, len(s.Readings)); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// ListByTransaction returns the samples of a transaction ordered by timestamp.
func (r *SampleRepository) ListByTransaction(ctx context.Context, tenantID, transactionID string) ([]metering.Sample, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("sample repo: nil db")
	}
	if tenantID == "" || transactionID == "" {
		return nil, errors.New("sample repo: invalid arguments")
	}

	query := fmt.Sprintf(`
SELECT sample_id, ts, measurand, phase, context, value, unit, multiplier
FROM %s
WHERE tenant_id = $1
	AND transaction_id = $2
ORDER BY ts ASC, sample_id ASC, reading_index ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, tenantID, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := make([]metering.Sample, 0)
	var current uuid.UUID
	for rows.Next() {
		var (
			sampleID   uuid.UUID
			ts         time.Time
			measurand  string
			phase      string
			readingCtx string
			value      float64
			unit       sql.NullString
			multiplier sql.NullInt64
		)
		if err := rows.Scan(&sampleID, &ts, &measurand, &phase, &readingCtx, &value, &unit, &multiplier); err != nil {
			return nil, err
		}
		reading := metering.Reading{
			Measurand: metering.Measurand(measurand),
			Phase:     metering.Phase(phase),
			Context:   metering.ReadingContext(readingCtx),
			Value:     value,
		}
		if unit.Valid {
			reading.Unit = &metering.UnitOfMeasure{Unit: unit.String, Multiplier: int(multiplier.Int64)}
		}
		if len(samples) == 0 || sampleID != current {
			samples = append(samples, metering.Sample{Timestamp: ts.UTC()})
			current = sampleID
		}
		last := &samples[len(samples)-1]
		last.Readings = append(last.Readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}
