package entity

import (
	"time"
)

// TargetKind identifies what form of target an adapter is asked to assess.
type TargetKind string

const (
	TargetURL    TargetKind = "url"
	TargetDomain TargetKind = "domain"
	TargetIP     TargetKind = "ip"
	TargetEmail  TargetKind = "email"
)

// Target is the subject of one assessment. It is built once by validation
// and never mutated afterwards.
type Target struct {
	Kind   TargetKind `json:"kind"`
	Raw    string     `json:"raw"`
	URL    string     `json:"url,omitempty"`
	Domain string     `json:"domain,omitempty"`
	IP     string     `json:"ip,omitempty"`
	Email  string     `json:"email,omitempty"`
}

// Flag is a categorical finding reported by a provider.
type Flag string

const (
	FlagMalicious   Flag = "malicious"
	FlagPhishing    Flag = "phishing"
	FlagSuspicious  Flag = "suspicious"
	FlagCompromised Flag = "compromised-credentials"
	FlagAdult       Flag = "adult"
	FlagUnrated     Flag = "unrated"
)

// ProviderVerdict is the normalized output of one adapter for one target.
// RiskContribution is only meaningful when Succeeded is true.
type ProviderVerdict struct {
	ProviderID       string         `json:"provider_id"`
	ProviderName     string         `json:"provider_name"`
	Succeeded        bool           `json:"succeeded"`
	RiskContribution int            `json:"risk_contribution"` // 0-100, higher = more dangerous
	Flags            []Flag         `json:"flags,omitempty"`
	Confidence       int            `json:"confidence"` // provider self-reported certainty, reporting only
	Detail           map[string]any `json:"detail,omitempty"`
	Synthetic        bool           `json:"synthetic"`
	ErrorReason      string         `json:"error_reason,omitempty"`
	Elapsed          time.Duration  `json:"elapsed"`
}

// HasFlag reports whether the verdict carries the given flag.
func (v ProviderVerdict) HasFlag(f Flag) bool {
	for _, have := range v.Flags {
		if have == f {
			return true
		}
	}
	return false
}

// RiskLevel is the discrete classification derived from the consensus score.
type RiskLevel string

const (
	RiskVeryLow  RiskLevel = "very-low"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very-high"
	RiskUnknown  RiskLevel = "unknown"
)

// AggregateReport is the final output of one assessment. It is an ephemeral
// value; persistence, if any, happens outside the engine.
type AggregateReport struct {
	ID                 string                     `json:"id"`
	Target             Target                     `json:"target"`
	ProviderResults    map[string]ProviderVerdict `json:"provider_results"`
	FailedProviders    map[string]string          `json:"failed_providers,omitempty"`
	OverallScore       int                        `json:"overall_score"`
	RiskLevel          RiskLevel                  `json:"risk_level"`
	Confidence         int                        `json:"confidence"`
	RiskFactors        []string                   `json:"risk_factors"`
	Recommendations    []string                   `json:"recommendations"`
	Summary            string                     `json:"summary"`
	ProvidersConsulted int                        `json:"providers_consulted"`
	Elapsed            time.Duration              `json:"elapsed"`
	CreatedAt          time.Time                  `json:"created_at"`
}

// SucceededCount returns the number of providers that produced a verdict.
func (r *AggregateReport) SucceededCount() int {
	n := 0
	for _, v := range r.ProviderResults {
		if v.Succeeded {
			n++
		}
	}
	return n
}

// ProviderStatus describes one adapter for operational tooling. Read-only,
// no effect on scoring.
type ProviderStatus struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Configured   bool     `json:"configured"`
	Capabilities []string `json:"capabilities"`
}
