package snapshotrepository

import (
	"context"
	"time"

	"github.com/Amund211/beacon/internal/domain"
)

type SnapshotRepository interface {
	StoreSnapshot(ctx context.Context, snapshot *domain.StatusSnapshot) error
	GetHistory(ctx context.Context, upstream string, start, end time.Time, limit int) ([]domain.StatusSnapshot, error)
}
