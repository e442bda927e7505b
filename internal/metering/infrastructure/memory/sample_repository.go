package memory

import (
	"context"
	"sort"
	"sync"

	metering "evse-cloud/internal/metering/domain"
)

// SampleRepository is an in-memory sample store for demo/testing.
// It implements both SampleRepository and SampleQuery.
type SampleRepository struct {
	mu   sync.RWMutex
	data map[string]map[string]metering.StoredSample
}

// NewSampleRepository constructs a repository.
func NewSampleRepository() *SampleRepository {
	return &SampleRepository{data: make(map[string]map[string]metering.StoredSample)}
}

// InsertSamples upserts samples by id.
func (r *SampleRepository) InsertSamples(ctx context.Context, samples []metering.StoredSample) error {
	_ = ctx
	for _, s := range samples {
		if s.ID == "" || s.TenantID == "" || s.TransactionID == "" || s.Timestamp.IsZero() {
			return metering.ErrInvalidSample
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range samples {
		key := transactionKey(s.TenantID, s.TransactionID)
		byID := r.data[key]
		if byID == nil {
			byID = make(map[string]metering.StoredSample)
			r.data[key] = byID
		}
		s.Readings = append([]metering.Reading(nil), s.Readings...)
		byID[s.ID] = s
	}
	return nil
}

// ListByTransaction returns the samples of a transaction ordered by timestamp.
func (r *SampleRepository) ListByTransaction(ctx context.Context, tenantID, transactionID string) ([]metering.Sample, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	byID := r.data[transactionKey(tenantID, transactionID)]
	stored := make([]metering.StoredSample, 0, len(byID))
	for _, s := range byID {
		stored = append(stored, s)
	}
	sort.SliceStable(stored, func(i, j int) bool {
		if stored[i].Timestamp.Equal(stored[j].Timestamp) {
			return stored[i].ID < stored[j].ID
		}
		return stored[i].Timestamp.Before(stored[j].Timestamp)
	})

	samples := make([]metering.Sample, 0, len(stored))
	for _, s := range stored {
		samples = append(samples, metering.Sample{
			Timestamp: s.Timestamp,
			Readings:  append([]metering.Reading(nil), s.Readings...),
		})
	}
	return samples, nil
}

func transactionKey(tenantID, transactionID string) string {
	return tenantID + "/" + transactionID
}
