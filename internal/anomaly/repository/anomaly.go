// Package repository persists anomalies and reports in PostgreSQL. Lifecycle
// transitions run inside row-locked transactions so concurrent reports and
// resolves against the same anomaly serialize instead of racing.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/odme-systems/sentinel/internal/anomaly/model"
	"github.com/odme-systems/sentinel/internal/threat"
)

// ErrNotFound is returned when an anomaly is not found in the database.
var ErrNotFound = errors.New("anomaly not found")

// ErrResolved is returned when a transition is attempted on an anomaly that
// has already reached its terminal state. Handlers map it to HTTP 409.
var ErrResolved = errors.New("anomaly already resolved")

// AnomalyRepository provides CRUD and lifecycle transitions for anomalies.
type AnomalyRepository struct {
	db *pgxpool.Pool
}

// NewAnomalyRepository creates a new AnomalyRepository.
func NewAnomalyRepository(db *pgxpool.Pool) *AnomalyRepository {
	return &AnomalyRepository{db: db}
}

// Create inserts a newly ingested anomaly in active state.
func (r *AnomalyRepository) Create(ctx context.Context, a *model.Anomaly) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now().UTC()
	a.Status = model.StatusActive

	query := `
		INSERT INTO anomalies (id, status, category, location, current_level, current_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		a.ID, a.Status, a.Category, a.Location,
		a.CurrentLevel.String(), a.CurrentScore, a.CreatedAt,
	)
	return err
}

// GetByID retrieves an anomaly without its reports.
func (r *AnomalyRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Anomaly, error) {
	query := `SELECT id, status, category, location, current_level, current_score, created_at
	          FROM anomalies WHERE id = $1`
	a, err := scanAnomaly(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

// List returns anomalies matching the filter, newest first.
func (r *AnomalyRepository) List(ctx context.Context, f model.ListFilter, limit, offset int) ([]*model.Anomaly, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, status, category, location, current_level, current_score, created_at
	          FROM anomalies
	          WHERE ($1 = '' OR status = $1)
	            AND ($2 = '' OR category = $2)
	          ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, string(f.Status), string(f.Category))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// The level filter compares band order, not the stored name, so it is
	// applied here rather than in SQL.
	var result []*model.Anomaly
	skipped := 0
	for rows.Next() {
		a, err := scanAnomaly(rows)
		if err != nil {
			return nil, err
		}
		if f.MinLevel != nil && a.CurrentLevel < *f.MinLevel {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		result = append(result, a)
		if len(result) == limit {
			break
		}
	}
	return result, rows.Err()
}

// CountByStatus returns anomaly counts per lifecycle status, for metrics.
func (r *AnomalyRepository) CountByStatus(ctx context.Context) (map[model.Status]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM anomalies GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[model.Status(status)] = n
	}
	return counts, rows.Err()
}

// Summary computes registry-wide statistics in a single round trip per value.
func (r *AnomalyRepository) Summary(ctx context.Context) (*model.Summary, error) {
	var s model.Summary

	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM anomalies`).Scan(&s.TotalAnomalies); err != nil {
		return nil, fmt.Errorf("count anomalies: %w", err)
	}

	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM anomalies WHERE status = $1`, model.StatusActive,
	).Scan(&s.UnresolvedCount); err != nil {
		return nil, fmt.Errorf("count unresolved: %w", err)
	}

	var category *string
	if err := r.db.QueryRow(ctx,
		`SELECT category FROM anomalies WHERE category <> ''
		 GROUP BY category ORDER BY COUNT(*) DESC LIMIT 1`,
	).Scan(&category); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("most common category: %w", err)
	}
	if category != nil {
		s.MostCommonCategory = *category
	}

	var avg *float64
	if err := r.db.QueryRow(ctx,
		`SELECT AVG(current_score) FROM anomalies WHERE status = $1`, model.StatusActive,
	).Scan(&avg); err != nil {
		return nil, fmt.Errorf("average unresolved score: %w", err)
	}
	s.AvgUnresolvedScore = avg

	return &s, nil
}

// AppendReport atomically validates the anomaly is active, inserts the
// report, and moves the anomaly's current assessment per the aggregation
// policy. The row lock serializes concurrent transitions on one anomaly;
// different anomalies proceed in parallel.
func (r *AnomalyRepository) AppendReport(ctx context.Context, report *model.Report, policy threat.Policy) (*model.Anomaly, error) {
	report.ID = uuid.New()
	report.CreatedAt = time.Now().UTC()

	attrs, err := json.Marshal(report.Attributes)
	if err != nil {
		return nil, fmt.Errorf("marshal attributes: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	current, err := lockAnomaly(ctx, tx, report.AnomalyID)
	if err != nil {
		return nil, err
	}
	if current.Status != model.StatusActive {
		return nil, ErrResolved
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO reports (id, anomaly_id, agent_name, attributes, level, score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		report.ID, report.AnomalyID, report.AgentName,
		attrs, report.Level.String(), report.Score, report.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}

	next := threat.Aggregate(policy,
		threat.Assessment{Level: current.CurrentLevel, Score: current.CurrentScore},
		threat.Assessment{Level: report.Level, Score: report.Score},
	)
	if _, err := tx.Exec(ctx,
		`UPDATE anomalies SET current_level = $2, current_score = $3 WHERE id = $1`,
		report.AnomalyID, next.Level.String(), next.Score,
	); err != nil {
		return nil, fmt.Errorf("update current assessment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	current.CurrentLevel = next.Level
	current.CurrentScore = next.Score
	return current, nil
}

// Resolve transitions an active anomaly to resolved. Resolving an anomaly
// that is already resolved fails with ErrResolved so callers can detect
// double-resolution attempts.
func (r *AnomalyRepository) Resolve(ctx context.Context, id uuid.UUID) (*model.Anomaly, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	a, err := lockAnomaly(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != model.StatusActive {
		return nil, ErrResolved
	}

	if _, err := tx.Exec(ctx,
		`UPDATE anomalies SET status = $2 WHERE id = $1`,
		id, model.StatusResolved,
	); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	a.Status = model.StatusResolved
	return a, nil
}

// lockAnomaly reads one anomaly row under FOR UPDATE inside tx.
func lockAnomaly(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Anomaly, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, status, category, location, current_level, current_score, created_at
		FROM anomalies WHERE id = $1 FOR UPDATE`, id)
	a, err := scanAnomaly(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func scanAnomaly(row pgx.Row) (*model.Anomaly, error) {
	var a model.Anomaly
	var level string
	err := row.Scan(&a.ID, &a.Status, &a.Category, &a.Location, &level, &a.CurrentScore, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.CurrentLevel, err = threat.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("stored level: %w", err)
	}
	return &a, nil
}
