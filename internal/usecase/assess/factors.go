package assess

import (
	"fmt"
	"sort"

	"github.com/kr1s57/linkshield/internal/entity"
)

// derive translates the verdict set into the human-facing risk factors,
// recommendations and summary. Everything here is a pure function of the
// provider results; a factor is never invented independently of them.
func (s *Service) derive(results map[string]entity.ProviderVerdict) (factors, recommendations []string, summary string) {
	verdicts := make([]entity.ProviderVerdict, 0, len(results))
	succeeded := 0
	for _, v := range results {
		if v.Succeeded {
			succeeded++
			verdicts = append(verdicts, v)
		}
	}

	// Highest risk first; provider id breaks ties so output is stable
	// across runs regardless of map iteration order.
	sort.Slice(verdicts, func(i, j int) bool {
		if verdicts[i].RiskContribution != verdicts[j].RiskContribution {
			return verdicts[i].RiskContribution > verdicts[j].RiskContribution
		}
		return verdicts[i].ProviderID < verdicts[j].ProviderID
	})

	factors = []string{}
	var sawMalicious, sawPhishing, sawCompromised bool

	for _, v := range verdicts {
		switch {
		case v.HasFlag(entity.FlagPhishing):
			factors = append(factors, fmt.Sprintf("%s reported this target as a phishing site", v.ProviderName))
			sawPhishing = true
		case v.HasFlag(entity.FlagMalicious):
			factors = append(factors, fmt.Sprintf("%s flagged this target for malware or malicious activity", v.ProviderName))
			sawMalicious = true
		case v.HasFlag(entity.FlagCompromised):
			factors = append(factors, fmt.Sprintf("%s found data breaches exposing credentials on this domain", v.ProviderName))
			sawCompromised = true
		case v.RiskContribution >= s.policy.NotableScore:
			factors = append(factors, fmt.Sprintf("%s rated this target high risk (%d/100)", v.ProviderName, v.RiskContribution))
		}
	}

	recommendations = s.recommend(len(factors), succeeded, sawMalicious, sawPhishing, sawCompromised)
	summary = summarize(len(factors), succeeded, len(results))
	return factors, recommendations, summary
}

// recommend builds the action list: a fixed severity-escalating core when
// anything was found, plus conditional items keyed by the flag categories.
func (s *Service) recommend(factorCount, succeeded int, sawMalicious, sawPhishing, sawCompromised bool) []string {
	if succeeded == 0 {
		return []string{
			"No threat intelligence source could be reached for this target; treat it with caution until it can be re-checked",
		}
	}

	if factorCount == 0 {
		return []string{
			"No provider flagged this target, but stay cautious: only enter sensitive data on sites you trust",
		}
	}

	recs := []string{
		"Avoid visiting this link",
		"Do not enter credentials, payment details, or personal information",
		"If you must investigate further, do so from an isolated environment",
		"Report this target to your security team or local authorities",
	}
	if sawMalicious {
		recs = append(recs, "Run a full malware scan if you have already visited this link")
	}
	if sawPhishing {
		recs = append(recs, "Be wary of similar-looking links in future emails and messages")
	}
	if sawCompromised {
		recs = append(recs, "Rotate any passwords used on this domain and enable multi-factor authentication")
	}
	return recs
}

// summarize produces the one-line overall verdict. A report built from zero
// successful providers never claims the target is safe.
func summarize(factorCount, succeeded, consulted int) string {
	if succeeded == 0 {
		return "No threat intelligence providers responded; the risk of this target is unknown"
	}

	switch {
	case factorCount >= 3:
		return fmt.Sprintf("High risk: %d findings reported across %d providers", factorCount, consulted)
	case factorCount == 2:
		return fmt.Sprintf("Caution: 2 findings reported across %d providers", consulted)
	case factorCount == 1:
		return fmt.Sprintf("Low risk: 1 finding reported across %d providers", consulted)
	default:
		return fmt.Sprintf("This target appears safe: no findings across %d providers", consulted)
	}
}
