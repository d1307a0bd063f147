package core

import (
	"context"
	"sort"
	"sync"
	"time"
)

// RunRecord is the persisted trace of one classify action. It carries
// counts only, never record content.
type RunRecord struct {
	ID            string    `json:"id"`
	FileName      string    `json:"fileName"`
	AddressColumn string    `json:"addressColumn"`
	Summary       Summary   `json:"summary"`
	ClientIP      string    `json:"clientIp,omitempty"`
	UserAgent     string    `json:"userAgent,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// RunStore persists run records.
type RunStore interface {
	Save(ctx context.Context, rec RunRecord) error
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]RunRecord, error)
	// Prune deletes records created before cutoff and returns how many went.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewRunRecord builds the history entry for a completed run.
func NewRunRecord(ctx context.Context, run *Run) RunRecord {
	return RunRecord{
		ID:            run.ID,
		FileName:      run.FileName,
		AddressColumn: run.AddressColumn,
		Summary:       run.Summary,
		ClientIP:      ClientIP(ctx),
		UserAgent:     ClientUserAgent(ctx),
		CreatedAt:     run.CreatedAt,
	}
}

// MemoryRunStore is a RunStore for single-process deployments and tests.
type MemoryRunStore struct {
	mu      sync.RWMutex
	records []RunRecord
}

// NewMemoryRunStore returns an empty store.
func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{}
}

func (m *MemoryRunStore) Save(_ context.Context, rec RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *MemoryRunStore) Recent(_ context.Context, limit int) ([]RunRecord, error) {
	m.mu.RLock()
	out := make([]RunRecord, len(m.records))
	copy(out, m.records)
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRunStore) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.records[:0]
	for _, rec := range m.records {
		if !rec.CreatedAt.Before(cutoff) {
			kept = append(kept, rec)
		}
	}
	removed := int64(len(m.records) - len(kept))
	m.records = kept
	return removed, nil
}
