package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Amund211/beacon/internal/adapters/snapshotrepository"
	"github.com/Amund211/beacon/internal/domain"
)

type GetStatusHistory = func(
	ctx context.Context,
	upstream string,
	start, end time.Time,
	limit int,
) ([]domain.StatusSnapshot, error)

func BuildGetStatusHistory(repo snapshotrepository.SnapshotRepository) GetStatusHistory {
	return func(ctx context.Context,
		upstream string,
		start, end time.Time,
		limit int,
	) ([]domain.StatusSnapshot, error) {
		history, err := repo.GetHistory(ctx, upstream, start, end, limit)
		if err != nil {
			// NOTE: SnapshotRepository implementations handle their own error reporting
			return nil, fmt.Errorf("failed to get history: %w", err)
		}

		return history, nil
	}
}
