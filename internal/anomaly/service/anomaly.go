// Package service contains the anomaly lifecycle logic: ingestion, report
// submission, resolution, and queries. All blocking happens at the
// persistence boundary; the scoring and transition decisions themselves are
// pure and synchronous.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/odme-systems/sentinel/internal/anomaly/model"
	"github.com/odme-systems/sentinel/internal/threat"
	"go.uber.org/zap"
)

// anomalyRepo is the persistence interface for the anomaly service.
// *repository.AnomalyRepository satisfies this interface.
type anomalyRepo interface {
	Create(ctx context.Context, a *model.Anomaly) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Anomaly, error)
	List(ctx context.Context, f model.ListFilter, limit, offset int) ([]*model.Anomaly, error)
	Summary(ctx context.Context) (*model.Summary, error)
	AppendReport(ctx context.Context, report *model.Report, policy threat.Policy) (*model.Anomaly, error)
	Resolve(ctx context.Context, id uuid.UUID) (*model.Anomaly, error)
}

// reportRepo reads an anomaly's report history.
// *repository.ReportRepository satisfies this interface.
type reportRepo interface {
	ListByAnomaly(ctx context.Context, anomalyID uuid.UUID) ([]*model.Report, error)
}

// AnomalyService orchestrates the anomaly lifecycle around the scoring
// engine and the repositories.
type AnomalyService struct {
	anomalies anomalyRepo
	reports   reportRepo
	engine    *threat.Engine
	policy    threat.Policy
	logger    *zap.Logger
}

// NewAnomalyService creates a new AnomalyService with the most-recent-wins
// aggregation policy.
func NewAnomalyService(anomalies anomalyRepo, reports reportRepo, engine *threat.Engine, logger *zap.Logger) *AnomalyService {
	return &AnomalyService{
		anomalies: anomalies,
		reports:   reports,
		engine:    engine,
		policy:    threat.PolicyRecent,
		logger:    logger,
	}
}

// SetAggregationPolicy replaces the policy that decides how new reports move
// an anomaly's current assessment.
func (s *AnomalyService) SetAggregationPolicy(p threat.Policy) {
	s.policy = p
}

// Ingest validates the attribute set, scores it, and creates a new anomaly
// in active state.
func (s *AnomalyService) Ingest(ctx context.Context, attrs model.AttributeSet) (*model.Anomaly, error) {
	if err := attrs.Validate(); err != nil {
		return nil, err
	}

	assessment := s.engine.Evaluate(attrs.ScoringInput())
	anomaly := &model.Anomaly{
		Category:     attrs.Category,
		Location:     attrs.Location,
		CurrentLevel: assessment.Level,
		CurrentScore: assessment.Score,
	}

	if err := s.anomalies.Create(ctx, anomaly); err != nil {
		s.logger.Error("failed to create anomaly", zap.Error(err))
		return nil, fmt.Errorf("create anomaly: %w", err)
	}

	s.logger.Info("anomaly ingested",
		zap.String("anomaly_id", anomaly.ID.String()),
		zap.String("category", string(anomaly.Category)),
		zap.String("level", anomaly.CurrentLevel.String()),
		zap.Float64("score", anomaly.CurrentScore),
	)
	return anomaly, nil
}

// SubmitReport validates and scores a new report against an active anomaly.
// The repository serializes the transition per anomaly id, so a report can
// never be accepted after a concurrent resolve commits. Returns the created
// report and the anomaly with its updated current assessment.
func (s *AnomalyService) SubmitReport(ctx context.Context, anomalyID uuid.UUID, attrs model.AttributeSet) (*model.Report, *model.Anomaly, error) {
	if err := attrs.Validate(); err != nil {
		return nil, nil, err
	}

	assessment := s.engine.Evaluate(attrs.ScoringInput())
	report := &model.Report{
		AnomalyID:  anomalyID,
		AgentName:  attrs.AgentName,
		Attributes: attrs,
		Level:      assessment.Level,
		Score:      assessment.Score,
	}

	anomaly, err := s.anomalies.AppendReport(ctx, report, s.policy)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("report accepted",
		zap.String("anomaly_id", anomalyID.String()),
		zap.String("report_id", report.ID.String()),
		zap.String("report_level", report.Level.String()),
		zap.String("current_level", anomaly.CurrentLevel.String()),
	)
	return report, anomaly, nil
}

// Resolve transitions an anomaly to its terminal state, freezing its current
// assessment and report list.
func (s *AnomalyService) Resolve(ctx context.Context, id uuid.UUID) (*model.Anomaly, error) {
	anomaly, err := s.anomalies.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("anomaly resolved",
		zap.String("anomaly_id", id.String()),
		zap.String("final_level", anomaly.CurrentLevel.String()),
	)
	return anomaly, nil
}

// Get returns one anomaly with its full report history.
func (s *AnomalyService) Get(ctx context.Context, id uuid.UUID) (*model.Anomaly, error) {
	anomaly, err := s.anomalies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	reports, err := s.reports.ListByAnomaly(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load reports: %w", err)
	}
	anomaly.Reports = reports
	return anomaly, nil
}

// List returns anomalies matching the filter.
func (s *AnomalyService) List(ctx context.Context, f model.ListFilter, limit, offset int) ([]*model.Anomaly, error) {
	return s.anomalies.List(ctx, f, limit, offset)
}

// Summary returns registry-wide statistics.
func (s *AnomalyService) Summary(ctx context.Context) (*model.Summary, error) {
	return s.anomalies.Summary(ctx)
}
