package snapshotrepository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Amund211/beacon/internal/domain"
	"github.com/Amund211/beacon/internal/reporting"
)

type Postgres struct {
	db     *sqlx.DB
	schema string

	tracer trace.Tracer
}

func NewPostgres(db *sqlx.DB, schema string) *Postgres {
	tracer := otel.Tracer("beacon/snapshotrepository/postgres")

	return &Postgres{
		db:     db,
		schema: schema,

		tracer: tracer,
	}
}

type dbSnapshotEntry struct {
	ID         string    `db:"id"`
	Upstream   string    `db:"upstream"`
	QueriedAt  time.Time `db:"queried_at"`
	Healthy    bool      `db:"healthy"`
	StatusCode int       `db:"status_code"`
	LatencyMS  int64     `db:"latency_ms"`
	Message    *string   `db:"message"`
	Components []byte    `db:"components"`
}

type componentStorage struct {
	Name    string  `json:"name"`
	Healthy bool    `json:"healthy"`
	Message *string `json:"message,omitempty"`
}

func (p *Postgres) StoreSnapshot(ctx context.Context, snapshot *domain.StatusSnapshot) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.StoreSnapshot")
	defer span.End()

	components := make([]componentStorage, 0, len(snapshot.Components))
	for _, component := range snapshot.Components {
		components = append(components, componentStorage{
			Name:    component.Name,
			Healthy: component.Healthy,
			Message: component.Message,
		})
	}
	componentsJSON, err := json.Marshal(components)
	if err != nil {
		err := fmt.Errorf("failed to marshal components: %w", err)
		reporting.Report(ctx, err, map[string]string{"upstream": snapshot.Upstream})
		return err
	}

	txx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("failed to begin transaction: %w", err)
		reporting.Report(ctx, err)
		return err
	}
	defer txx.Rollback()

	_, err = txx.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(p.schema)))
	if err != nil {
		err := fmt.Errorf("failed to set search path: %w", err)
		reporting.Report(ctx, err, map[string]string{"schema": p.schema})
		return err
	}

	_, err = txx.ExecContext(ctx,
		`INSERT INTO status_snapshots
		(id, upstream, queried_at, healthy, status_code, latency_ms, message, components)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New().String(),
		snapshot.Upstream,
		snapshot.QueriedAt,
		snapshot.Healthy,
		snapshot.StatusCode,
		snapshot.Latency.Milliseconds(),
		snapshot.Message,
		componentsJSON,
	)
	if err != nil {
		err := fmt.Errorf("failed to insert snapshot: %w", err)
		reporting.Report(ctx, err, map[string]string{"upstream": snapshot.Upstream})
		return err
	}

	if err := txx.Commit(); err != nil {
		err := fmt.Errorf("failed to commit transaction: %w", err)
		reporting.Report(ctx, err)
		return err
	}

	return nil
}

func (p *Postgres) GetHistory(ctx context.Context, upstream string, start, end time.Time, limit int) ([]domain.StatusSnapshot, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.GetHistory")
	defer span.End()

	var entries []dbSnapshotEntry
	err := p.db.SelectContext(ctx, &entries, fmt.Sprintf(
		`SELECT id, upstream, queried_at, healthy, status_code, latency_ms, message, components
		FROM %s.status_snapshots
		WHERE upstream = $1 AND queried_at >= $2 AND queried_at <= $3
		ORDER BY queried_at ASC
		LIMIT $4`,
		pq.QuoteIdentifier(p.schema),
	), upstream, start, end, limit)
	if err != nil {
		err := fmt.Errorf("failed to select snapshots: %w", err)
		reporting.Report(ctx, err, map[string]string{"upstream": upstream})
		return nil, err
	}

	snapshots := make([]domain.StatusSnapshot, 0, len(entries))
	for _, entry := range entries {
		snapshot, err := entry.toDomain()
		if err != nil {
			reporting.Report(ctx, err, map[string]string{"upstream": upstream, "id": entry.ID})
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, nil
}

func (entry dbSnapshotEntry) toDomain() (domain.StatusSnapshot, error) {
	var storedComponents []componentStorage
	if err := json.Unmarshal(entry.Components, &storedComponents); err != nil {
		return domain.StatusSnapshot{}, fmt.Errorf("failed to unmarshal components: %w", err)
	}

	components := make([]domain.ComponentStatus, 0, len(storedComponents))
	for _, component := range storedComponents {
		components = append(components, domain.ComponentStatus{
			Name:    component.Name,
			Healthy: component.Healthy,
			Message: component.Message,
		})
	}

	return domain.StatusSnapshot{
		QueriedAt:  entry.QueriedAt,
		Upstream:   entry.Upstream,
		Healthy:    entry.Healthy,
		StatusCode: entry.StatusCode,
		Latency:    time.Duration(entry.LatencyMS) * time.Millisecond,
		Message:    entry.Message,
		Components: components,
	}, nil
}
