package entity

import "time"

// AssessmentRecord is the flattened form of an AggregateReport persisted for
// historical queries. The engine never reads these back; they feed the
// dashboard endpoints only.
type AssessmentRecord struct {
	ID                 string    `json:"id" ch:"id"`
	Target             string    `json:"target" ch:"target"`
	Kind               string    `json:"kind" ch:"kind"`
	Domain             string    `json:"domain" ch:"domain"`
	OverallScore       int32     `json:"overall_score" ch:"overall_score"`
	RiskLevel          string    `json:"risk_level" ch:"risk_level"`
	Confidence         int32     `json:"confidence" ch:"confidence"`
	RiskFactors        []string  `json:"risk_factors" ch:"risk_factors"`
	ProvidersConsulted int32     `json:"providers_consulted" ch:"providers_consulted"`
	ProvidersFailed    int32     `json:"providers_failed" ch:"providers_failed"`
	ElapsedMs          int64     `json:"elapsed_ms" ch:"elapsed_ms"`
	CreatedAt          time.Time `json:"created_at" ch:"created_at"`
}

// NewAssessmentRecord flattens a report for storage.
func NewAssessmentRecord(r *AggregateReport) *AssessmentRecord {
	return &AssessmentRecord{
		ID:                 r.ID,
		Target:             r.Target.Raw,
		Kind:               string(r.Target.Kind),
		Domain:             r.Target.Domain,
		OverallScore:       int32(r.OverallScore),
		RiskLevel:          string(r.RiskLevel),
		Confidence:         int32(r.Confidence),
		RiskFactors:        r.RiskFactors,
		ProvidersConsulted: int32(r.ProvidersConsulted),
		ProvidersFailed:    int32(len(r.FailedProviders)),
		ElapsedMs:          r.Elapsed.Milliseconds(),
		CreatedAt:          r.CreatedAt,
	}
}
