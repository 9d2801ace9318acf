package clickhouse

import (
	"context"
	"fmt"

	"github.com/kr1s57/linkshield/internal/entity"
)

// AssessmentsRepository persists finished assessments for the history and
// dashboard endpoints. The aggregation engine never reads from here.
type AssessmentsRepository struct {
	conn *Connection
}

// NewAssessmentsRepository creates a new assessments repository
func NewAssessmentsRepository(conn *Connection) *AssessmentsRepository {
	return &AssessmentsRepository{conn: conn}
}

// EnsureSchema creates the assessments table if it does not exist yet.
func (r *AssessmentsRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS assessments (
			id String,
			target String,
			kind LowCardinality(String),
			domain String,
			overall_score Int32,
			risk_level LowCardinality(String),
			confidence Int32,
			risk_factors Array(String),
			providers_consulted Int32,
			providers_failed Int32,
			elapsed_ms Int64,
			created_at DateTime
		)
		ENGINE = MergeTree()
		ORDER BY (created_at, target)
		TTL created_at + INTERVAL 90 DAY
	`
	if err := r.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure assessments schema: %w", err)
	}
	return nil
}

// RecordAssessment stores the flattened form of a finished report.
func (r *AssessmentsRepository) RecordAssessment(ctx context.Context, report *entity.AggregateReport) error {
	rec := entity.NewAssessmentRecord(report)

	query := `
		INSERT INTO assessments (
			id, target, kind, domain, overall_score, risk_level, confidence,
			risk_factors, providers_consulted, providers_failed, elapsed_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if err := r.conn.Exec(ctx, query,
		rec.ID,
		rec.Target,
		rec.Kind,
		rec.Domain,
		rec.OverallScore,
		rec.RiskLevel,
		rec.Confidence,
		rec.RiskFactors,
		rec.ProvidersConsulted,
		rec.ProvidersFailed,
		rec.ElapsedMs,
		rec.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}

	return nil
}

// Recent returns the most recently assessed targets.
func (r *AssessmentsRepository) Recent(ctx context.Context, limit int) ([]entity.AssessmentRecord, error) {
	query := `
		SELECT id, target, kind, domain, overall_score, risk_level, confidence,
		       risk_factors, providers_consulted, providers_failed, elapsed_ms, created_at
		FROM assessments
		ORDER BY created_at DESC
		LIMIT ?
	`
	return r.queryRecords(ctx, query, limit)
}

// TopRisky returns the highest-scoring targets.
func (r *AssessmentsRepository) TopRisky(ctx context.Context, limit int) ([]entity.AssessmentRecord, error) {
	query := `
		SELECT id, target, kind, domain, overall_score, risk_level, confidence,
		       risk_factors, providers_consulted, providers_failed, elapsed_ms, created_at
		FROM assessments
		ORDER BY overall_score DESC, created_at DESC
		LIMIT ?
	`
	return r.queryRecords(ctx, query, limit)
}

// ByLevel returns assessments filtered by risk level.
func (r *AssessmentsRepository) ByLevel(ctx context.Context, level string, limit int) ([]entity.AssessmentRecord, error) {
	query := `
		SELECT id, target, kind, domain, overall_score, risk_level, confidence,
		       risk_factors, providers_consulted, providers_failed, elapsed_ms, created_at
		FROM assessments
		WHERE risk_level = ?
		ORDER BY created_at DESC
		LIMIT ?
	`
	return r.queryRecords(ctx, query, level, limit)
}

func (r *AssessmentsRepository) queryRecords(ctx context.Context, query string, args ...interface{}) ([]entity.AssessmentRecord, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query assessments: %w", err)
	}
	defer rows.Close()

	var records []entity.AssessmentRecord
	for rows.Next() {
		var rec entity.AssessmentRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Target,
			&rec.Kind,
			&rec.Domain,
			&rec.OverallScore,
			&rec.RiskLevel,
			&rec.Confidence,
			&rec.RiskFactors,
			&rec.ProvidersConsulted,
			&rec.ProvidersFailed,
			&rec.ElapsedMs,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
