package intel

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kr1s57/linkshield/internal/entity"
)

func TestValidKey(t *testing.T) {
	tests := []struct {
		key   string
		valid bool
	}{
		{"", false},
		{"   ", false},
		{"short", false},
		{"changeme", false},
		{"PLACEHOLDER", false},
		{"your-api-key", false},
		{"your_api_key_goes_here", false},
		{"xxxxxxxx", false},
		{"sk-live-4f9a8b7c6d5e", true},
		{"8charkey", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.valid, validKey(tt.key), "key %q", tt.key)
	}
}

func TestSupports(t *testing.T) {
	p := NewSafeBrowsing(SafeBrowsingConfig{})

	assert.True(t, p.Supports(entity.TargetURL))
	assert.False(t, p.Supports(entity.TargetEmail))
}

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, entity.ReasonAuth, classifyStatus(http.StatusUnauthorized))
	assert.Equal(t, entity.ReasonAuth, classifyStatus(http.StatusForbidden))
	assert.Equal(t, entity.ReasonRateLimited, classifyStatus(http.StatusTooManyRequests))
	assert.Equal(t, entity.ReasonTransport, classifyStatus(http.StatusInternalServerError))
	assert.Equal(t, entity.ReasonTransport, classifyStatus(http.StatusBadGateway))
}

func TestClassifyErr(t *testing.T) {
	assert.Equal(t, entity.ReasonTimeout, classifyErr(context.DeadlineExceeded))
	assert.Equal(t, entity.ReasonTransport, classifyErr(errors.New("connection refused")))
}

type panickingStrategy struct{}

func (panickingStrategy) assess(context.Context, entity.Target) entity.ProviderVerdict {
	panic("adapter bug")
}

func TestAssessRecoversFromPanic(t *testing.T) {
	p := &Provider{
		id:         "broken",
		name:       "Broken",
		caps:       []entity.TargetKind{entity.TargetURL},
		configured: true,
		strategy:   panickingStrategy{},
	}

	v := p.Assess(context.Background(), entity.Target{Kind: entity.TargetURL, Raw: "https://example.com/"})

	assert.False(t, v.Succeeded)
	assert.Equal(t, entity.ReasonInternal, v.ErrorReason)
	assert.NotNil(t, v.Flags)
}

func TestTargetHost(t *testing.T) {
	assert.Equal(t, "203.0.113.9", targetHost(entity.Target{Kind: entity.TargetIP, IP: "203.0.113.9"}))
	assert.Equal(t, "example.com", targetHost(entity.Target{Kind: entity.TargetDomain, Domain: "example.com"}))
	assert.Equal(t, "example.com", targetHost(entity.Target{Kind: entity.TargetURL, Domain: "example.com", Raw: "https://example.com/"}))
}
