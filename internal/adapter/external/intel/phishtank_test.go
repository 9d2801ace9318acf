package intel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kr1s57/linkshield/internal/entity"
)

const testAPIKey = "test-api-key-0123456789"

func phishTankServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, testAPIKey, r.FormValue("app_key"))
		assert.NotEmpty(t, r.FormValue("url"))

		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestPhishTankVerifiedPhish(t *testing.T) {
	srv := phishTankServer(t, `{"results":{"in_database":true,"verified":true,"valid":true,"phish_id":8123001}}`, http.StatusOK)
	defer srv.Close()

	p := NewPhishTank(PhishTankConfig{APIKey: testAPIKey, BaseURL: srv.URL})
	require.True(t, p.Configured())

	v := p.Assess(context.Background(), urlTarget("https://phish.example.com/login", "phish.example.com"))

	assert.True(t, v.Succeeded)
	assert.False(t, v.Synthetic)
	assert.Equal(t, 95, v.RiskContribution)
	assert.True(t, v.HasFlag(entity.FlagPhishing))
	assert.Equal(t, int64(8123001), v.Detail["phish_id"])
}

func TestPhishTankUnverifiedEntry(t *testing.T) {
	srv := phishTankServer(t, `{"results":{"in_database":true,"verified":false,"valid":false}}`, http.StatusOK)
	defer srv.Close()

	p := NewPhishTank(PhishTankConfig{APIKey: testAPIKey, BaseURL: srv.URL})
	v := p.Assess(context.Background(), urlTarget("https://maybe.example.com/", "maybe.example.com"))

	assert.True(t, v.Succeeded)
	assert.Equal(t, 75, v.RiskContribution)
	assert.True(t, v.HasFlag(entity.FlagPhishing))
}

func TestPhishTankCleanURL(t *testing.T) {
	srv := phishTankServer(t, `{"results":{"in_database":false}}`, http.StatusOK)
	defer srv.Close()

	p := NewPhishTank(PhishTankConfig{APIKey: testAPIKey, BaseURL: srv.URL})
	v := p.Assess(context.Background(), urlTarget("https://example.com/", "example.com"))

	assert.True(t, v.Succeeded)
	assert.Equal(t, 10, v.RiskContribution)
	assert.Empty(t, v.Flags)
}

func TestPhishTankFailureClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		reason string
	}{
		{"auth rejected", http.StatusForbidden, "", entity.ReasonAuth},
		{"rate limited", http.StatusTooManyRequests, "", entity.ReasonRateLimited},
		{"server error", http.StatusInternalServerError, "", entity.ReasonTransport},
		{"garbage body", http.StatusOK, "<html>not json</html>", entity.ReasonBadResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := phishTankServer(t, tt.body, tt.status)
			defer srv.Close()

			p := NewPhishTank(PhishTankConfig{APIKey: testAPIKey, BaseURL: srv.URL})
			v := p.Assess(context.Background(), urlTarget("https://example.com/", "example.com"))

			assert.False(t, v.Succeeded)
			assert.Equal(t, tt.reason, v.ErrorReason)
			assert.Zero(t, v.RiskContribution)
		})
	}
}

func TestPhishTankUnreachableServer(t *testing.T) {
	srv := phishTankServer(t, "{}", http.StatusOK)
	srv.Close() // shut down before the call

	p := NewPhishTank(PhishTankConfig{APIKey: testAPIKey, BaseURL: srv.URL})
	v := p.Assess(context.Background(), urlTarget("https://example.com/", "example.com"))

	assert.False(t, v.Succeeded)
	assert.Equal(t, entity.ReasonTransport, v.ErrorReason)
}
