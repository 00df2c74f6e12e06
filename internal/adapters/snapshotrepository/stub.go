package snapshotrepository

import (
	"context"
	"sync"
	"time"

	"github.com/Amund211/beacon/internal/domain"
)

// StubSnapshotRepository keeps snapshots in memory. Intended for tests and
// development.
type StubSnapshotRepository struct {
	lock      sync.Mutex
	snapshots []domain.StatusSnapshot
}

func NewStubSnapshotRepository() *StubSnapshotRepository {
	return &StubSnapshotRepository{}
}

func (r *StubSnapshotRepository) StoreSnapshot(ctx context.Context, snapshot *domain.StatusSnapshot) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.snapshots = append(r.snapshots, *snapshot)
	return nil
}

func (r *StubSnapshotRepository) GetHistory(ctx context.Context, upstream string, start, end time.Time, limit int) ([]domain.StatusSnapshot, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	history := make([]domain.StatusSnapshot, 0)
	for _, snapshot := range r.snapshots {
		if len(history) >= limit {
			break
		}
		if snapshot.Upstream != upstream {
			continue
		}
		if snapshot.QueriedAt.Before(start) || snapshot.QueriedAt.After(end) {
			continue
		}
		history = append(history, snapshot)
	}

	return history, nil
}

// Stored returns a copy of every stored snapshot, in insertion order.
func (r *StubSnapshotRepository) Stored() []domain.StatusSnapshot {
	r.lock.Lock()
	defer r.lock.Unlock()

	return append([]domain.StatusSnapshot{}, r.snapshots...)
}
