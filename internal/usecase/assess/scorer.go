package assess

import (
	"math"

	"github.com/kr1s57/linkshield/internal/entity"
)

// Score assigned when no provider produced a verdict: dead center of the
// scale, neither safe nor dangerous.
const unknownScore = 50

// score computes the weighted consensus over the providers that succeeded.
// Weights of failed providers contribute to neither numerator nor
// denominator, so the result is always a weighted average over exactly the
// available evidence.
func (s *Service) score(results map[string]entity.ProviderVerdict) (int, entity.RiskLevel, int) {
	var weightedSum, totalWeight float64
	succeeded := 0
	severe := false

	for id, v := range results {
		if !v.Succeeded {
			continue
		}
		succeeded++
		w := s.policy.weightFor(id)
		weightedSum += float64(v.RiskContribution) * w
		totalWeight += w
		if w > 0 && s.severeFinding(v) {
			severe = true
		}
	}

	if succeeded == 0 || totalWeight == 0 {
		return unknownScore, entity.RiskUnknown, 0
	}

	overall := int(math.Round(weightedSum / totalWeight))
	// A confirmed detection keeps the consensus at or above the severe
	// floor no matter how many clean answers dilute the average.
	if severe && overall < s.policy.SevereFloor {
		overall = s.policy.SevereFloor
	}
	if overall < 0 {
		overall = 0
	}
	if overall > 100 {
		overall = 100
	}

	return overall, s.levelFor(overall), confidenceFor(succeeded)
}

// severeFinding reports whether one verdict alone amounts to a confirmed
// detection: a phishing, malware or compromised-credentials flag, or a
// contribution at or above the policy's severe score.
func (s *Service) severeFinding(v entity.ProviderVerdict) bool {
	if v.HasFlag(entity.FlagPhishing) || v.HasFlag(entity.FlagMalicious) || v.HasFlag(entity.FlagCompromised) {
		return true
	}
	return s.policy.SevereScore > 0 && v.RiskContribution >= s.policy.SevereScore
}

// levelFor maps a score onto the discrete risk scale using the policy
// thresholds.
func (s *Service) levelFor(score int) entity.RiskLevel {
	t := s.policy.Levels
	switch {
	case score >= t.VeryHigh:
		return entity.RiskVeryHigh
	case score >= t.High:
		return entity.RiskHigh
	case score >= t.Medium:
		return entity.RiskMedium
	case score >= t.Low:
		return entity.RiskLow
	default:
		return entity.RiskVeryLow
	}
}

// confidenceFor grows with the number of corroborating sources but stays
// capped below full certainty.
func confidenceFor(succeeded int) int {
	c := succeeded * 12
	if c > 95 {
		c = 95
	}
	return c
}
