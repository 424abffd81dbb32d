package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/odme-systems/sentinel/internal/anomaly/model"
	"github.com/odme-systems/sentinel/internal/threat"
)

// ReportRepository reads the append-only report history. Writes go through
// AnomalyRepository.AppendReport so they stay inside the transition
// transaction.
type ReportRepository struct {
	db *pgxpool.Pool
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: db}
}

// ListByAnomaly returns an anomaly's reports in submission order.
func (r *ReportRepository) ListByAnomaly(ctx context.Context, anomalyID uuid.UUID) ([]*model.Report, error) {
	query := `SELECT id, anomaly_id, agent_name, attributes, level, score, created_at
	          FROM reports WHERE anomaly_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, anomalyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*model.Report
	for rows.Next() {
		rpt, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rpt)
	}
	return reports, rows.Err()
}

func scanReport(rows pgx.Rows) (*model.Report, error) {
	var rpt model.Report
	var attrs []byte
	var level string
	err := rows.Scan(&rpt.ID, &rpt.AnomalyID, &rpt.AgentName, &attrs, &level, &rpt.Score, &rpt.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(attrs, &rpt.Attributes); err != nil {
		return nil, fmt.Errorf("unmarshal attributes: %w", err)
	}
	rpt.Level, err = threat.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("stored level: %w", err)
	}
	return &rpt, nil
}
