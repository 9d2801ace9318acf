package intel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kr1s57/linkshield/internal/entity"
)

func urlTarget(raw string, domain string) entity.Target {
	return entity.Target{
		Kind:   entity.TargetURL,
		Raw:    raw,
		URL:    raw,
		Domain: domain,
	}
}

func TestSyntheticVerdictIsDeterministic(t *testing.T) {
	s := &syntheticStrategy{providerID: "phishtank", providerName: "PhishTank"}
	target := urlTarget("https://secure-login-update.example.com/verify", "secure-login-update.example.com")

	first := s.assess(context.Background(), target)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, s.assess(context.Background(), target))
	}

	assert.True(t, first.Succeeded)
	assert.True(t, first.Synthetic)
	assert.Equal(t, 30, first.Confidence)
}

func TestSyntheticProvidersDisagreeSlightly(t *testing.T) {
	target := urlTarget("https://example.com/", "example.com")

	a := &syntheticStrategy{providerID: "phishtank", providerName: "PhishTank"}
	b := &syntheticStrategy{providerID: "urlhaus", providerName: "URLhaus"}

	va := a.assess(context.Background(), target)
	vb := b.assess(context.Background(), target)

	// The per-provider offset keeps scores within a narrow band of each
	// other but the band itself stays low for an unremarkable URL.
	assert.InDelta(t, va.RiskContribution, vb.RiskContribution, 6)
	assert.Less(t, va.RiskContribution, 25)
}

func TestSyntheticKeywordElevation(t *testing.T) {
	s := &syntheticStrategy{providerID: "webrep", providerName: "WebRep"}

	clean := s.assess(context.Background(), urlTarget("https://example.com/about", "example.com"))
	phishy := s.assess(context.Background(), urlTarget("https://phish-login-verify.example.com/secure", "phish-login-verify.example.com"))

	assert.Greater(t, phishy.RiskContribution, clean.RiskContribution)
	assert.True(t, phishy.HasFlag(entity.FlagPhishing))
	assert.False(t, clean.HasFlag(entity.FlagPhishing))
}

func TestSyntheticStructuralSignals(t *testing.T) {
	s := &syntheticStrategy{providerID: "otx", providerName: "OTX"}

	tests := []struct {
		name   string
		target entity.Target
		signal string
	}{
		{
			name: "ip literal host",
			target: entity.Target{
				Kind: entity.TargetURL, Raw: "http://203.0.113.9/x",
				URL: "http://203.0.113.9/x", Domain: "203.0.113.9", IP: "203.0.113.9",
			},
			signal: "ip_literal_host",
		},
		{
			name:   "userinfo in url",
			target: urlTarget("https://user@example.com/", "example.com"),
			signal: "userinfo_in_url",
		},
		{
			name:   "deep subdomains",
			target: urlTarget("https://a.b.c.d.example.com/", "a.b.c.d.example.com"),
			signal: "deep_subdomains",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := s.assess(context.Background(), tt.target)
			signals, ok := v.Detail["signals"].([]string)
			require.True(t, ok)
			assert.Contains(t, signals, tt.signal)
		})
	}
}

func TestSyntheticScoreClamped(t *testing.T) {
	s := &syntheticStrategy{providerID: "urlscore", providerName: "URL Score"}

	// Pile every signal into one target.
	raw := "https://user@phish-malware-suspicious-login-verify-secure-account-update-free-winner.x.y.z.example.com/"
	v := s.assess(context.Background(), urlTarget(raw, "phish-malware-suspicious-login-verify-secure-account-update-free-winner.x.y.z.example.com"))

	assert.LessOrEqual(t, v.RiskContribution, 100)
	assert.GreaterOrEqual(t, v.RiskContribution, 70)
	assert.True(t, v.HasFlag(entity.FlagSuspicious))
}

func TestUnconfiguredProviderUsesSyntheticStrategy(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"empty key", ""},
		{"short key", "abc"},
		{"placeholder", "changeme"},
		{"templated", "your-api-key-here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPhishTank(PhishTankConfig{APIKey: tt.key})
			assert.False(t, p.Configured())

			v := p.Assess(context.Background(), urlTarget("https://example.com/", "example.com"))
			assert.True(t, v.Succeeded)
			assert.True(t, v.Synthetic)
		})
	}
}

func TestConfiguredProviderReportsLive(t *testing.T) {
	p := NewPhishTank(PhishTankConfig{APIKey: "a-real-looking-api-key-123456"})
	assert.True(t, p.Configured())
}
