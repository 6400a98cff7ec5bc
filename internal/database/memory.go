package database

import (
	"sort"
	"sync"
	"time"
)

// MemoryLedger is an in-memory Ledger, useful for tests that want to assert
// on run bookkeeping without touching disk.
type MemoryLedger struct {
	mu   sync.RWMutex
	runs []*Run
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (m *MemoryLedger) CreateRun(targetDir string, incremental, zip bool, sequenceNr int) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run := &Run{
		ID:          int64(len(m.runs)) + 1,
		TargetDir:   targetDir,
		Incremental: incremental,
		Zip:         zip,
		SequenceNr:  sequenceNr,
		StartedAt:   time.Now().UTC(),
		Status:      RunStatusRunning,
	}
	m.runs = append(m.runs, run)

	// Return a copy so callers can't mutate the stored record behind our back.
	copied := *run
	return &copied, nil
}

func (m *MemoryLedger) FinishRun(id int64, status RunStatus, documentsExported, orphansRescued, errorsReported int, archivePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, run := range m.runs {
		if run.ID == id {
			now := time.Now().UTC()
			run.FinishedAt = &now
			run.Status = status
			run.DocumentsExported = documentsExported
			run.OrphansRescued = orphansRescued
			run.ErrorsReported = errorsReported
			if archivePath != "" {
				run.ArchivePath = &archivePath
			}
			return nil
		}
	}
	return nil
}

func (m *MemoryLedger) ListRuns(limit int) ([]*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sorted := make([]*Run, len(m.runs))
	copy(sorted, m.runs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartedAt.After(sorted[j].StartedAt)
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	out := make([]*Run, len(sorted))
	for i, r := range sorted {
		copied := *r
		out[i] = &copied
	}
	return out, nil
}

func (m *MemoryLedger) LatestRun() (*Run, error) {
	runs, err := m.ListRuns(1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return runs[0], nil
}

// CheckMigrations always succeeds: there is no schema to drift on.
func (m *MemoryLedger) CheckMigrations() error {
	return nil
}

func (m *MemoryLedger) Close() error {
	return nil
}

var _ Ledger = (*MemoryLedger)(nil)
