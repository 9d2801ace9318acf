package entity

import "fmt"

// InvalidTargetError rejects an assessment before any adapter is invoked.
// It is the only error the engine surfaces to its caller.
type InvalidTargetError struct {
	Input  string
	Reason string
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid target %q: %s", e.Input, e.Reason)
}

// Failure reason strings recorded on ProviderVerdict.ErrorReason. Provider
// failures never propagate past the orchestrator; they are classified into
// one of these and absorbed into the report.
const (
	ReasonTimeout     = "timeout"
	ReasonTransport   = "transport"
	ReasonAuth        = "auth"
	ReasonRateLimited = "rate_limited"
	ReasonBadResponse = "bad_response"
	ReasonInternal    = "internal"
)
