package assess

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kr1s57/linkshield/internal/entity"
)

func TestDeriveCleanTarget(t *testing.T) {
	s := newTestService()

	results := map[string]entity.ProviderVerdict{
		"safebrowsing": okVerdict("safebrowsing", 5),
		"phishtank":    okVerdict("phishtank", 10),
	}

	factors, recs, summary := s.derive(results)

	assert.Empty(t, factors)
	assert.NotNil(t, factors, "factors must be an empty slice, not nil")
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0], "stay cautious")
	assert.Contains(t, summary, "appears safe")
}

func TestDeriveFactorPerFlagCategory(t *testing.T) {
	s := newTestService()

	results := map[string]entity.ProviderVerdict{
		"phishtank":    okVerdict("PhishTank", 95, entity.FlagPhishing),
		"urlhaus":      okVerdict("URLhaus", 90, entity.FlagMalicious),
		"breachwatch":  okVerdict("BreachWatch", 40, entity.FlagCompromised),
		"safebrowsing": okVerdict("Safe Browsing", 8),
	}

	factors, recs, summary := s.derive(results)

	require.Len(t, factors, 3)
	assert.Contains(t, factors[0], "phishing site")
	assert.Contains(t, factors[1], "malware or malicious activity")
	assert.Contains(t, factors[2], "data breaches")

	// Core escalation plus one conditional item per flag category seen.
	assert.GreaterOrEqual(t, len(recs), 7)
	assert.Contains(t, recs[0], "Avoid visiting")
	assert.Contains(t, summary, "High risk")
}

func TestDeriveNotableScoreWithoutFlags(t *testing.T) {
	s := newTestService()

	// 60 is the notable cutoff: at the bound a flagless verdict still
	// yields a factor, just below it does not.
	results := map[string]entity.ProviderVerdict{
		"urlscore": okVerdict("URL Score", 60),
		"otx":      okVerdict("OTX", 59),
	}

	factors, _, _ := s.derive(results)

	require.Len(t, factors, 1)
	assert.Contains(t, factors[0], "high risk (60/100)")
}

func TestDeriveOrderingIsDeterministic(t *testing.T) {
	s := newTestService()

	results := map[string]entity.ProviderVerdict{
		"webrep":    okVerdict("WebRep", 80, entity.FlagMalicious),
		"urlhaus":   okVerdict("URLhaus", 80, entity.FlagMalicious),
		"phishtank": okVerdict("PhishTank", 95, entity.FlagPhishing),
	}

	first, _, _ := s.derive(results)
	for i := 0; i < 20; i++ {
		again, _, _ := s.derive(results)
		assert.Equal(t, first, again)
	}

	// Highest contribution first, ties broken by provider id.
	require.Len(t, first, 3)
	assert.Contains(t, first[0], "PhishTank")
	assert.Contains(t, first[1], "URLhaus")
	assert.Contains(t, first[2], "WebRep")
}

func TestDeriveNoProvidersResponded(t *testing.T) {
	s := newTestService()

	results := map[string]entity.ProviderVerdict{
		"safebrowsing": failedVerdict("safebrowsing", entity.ReasonTimeout),
	}

	factors, recs, summary := s.derive(results)

	assert.Empty(t, factors)
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0], "caution")
	// Zero evidence must never read as safe.
	assert.NotContains(t, summary, "safe")
	assert.Contains(t, summary, "unknown")
}

func TestRecommendConditionalItems(t *testing.T) {
	s := newTestService()

	tests := []struct {
		name     string
		flag     entity.Flag
		expected string
	}{
		{"malicious adds scan advice", entity.FlagMalicious, "malware scan"},
		{"phishing adds lookalike warning", entity.FlagPhishing, "similar-looking links"},
		{"compromised adds password rotation", entity.FlagCompromised, "Rotate any passwords"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := map[string]entity.ProviderVerdict{
				"p": okVerdict("Provider", 90, tt.flag),
			}
			_, recs, _ := s.derive(results)

			found := false
			for _, r := range recs {
				if strings.Contains(r, tt.expected) {
					found = true
				}
			}
			assert.True(t, found, "expected recommendation containing %q, got %v", tt.expected, recs)
		})
	}
}

func TestSummarizeTiers(t *testing.T) {
	assert.Contains(t, summarize(4, 8, 9), "High risk")
	assert.Contains(t, summarize(3, 8, 9), "High risk")
	assert.Contains(t, summarize(2, 8, 9), "Caution")
	assert.Contains(t, summarize(1, 8, 9), "Low risk")
	assert.Contains(t, summarize(0, 8, 9), "appears safe")
	assert.Contains(t, summarize(0, 0, 9), "unknown")
}
