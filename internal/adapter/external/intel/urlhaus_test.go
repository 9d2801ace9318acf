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

func urlhausServer(t *testing.T, wantPath string, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, wantPath, r.URL.Path)
		assert.Equal(t, testAPIKey, r.Header.Get("Auth-Key"))

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}))
}

func TestURLhausOnlineMalwareURL(t *testing.T) {
	srv := urlhausServer(t, "/url/",
		`{"query_status":"ok","url_status":"online","threat":"malware_download","tags":["elf","mozi"]}`)
	defer srv.Close()

	p := NewURLhaus(URLhausConfig{APIKey: testAPIKey, BaseURL: srv.URL})
	v := p.Assess(context.Background(), urlTarget("http://bad.example.com/payload.bin", "bad.example.com"))

	assert.True(t, v.Succeeded)
	assert.Equal(t, 90, v.RiskContribution)
	assert.True(t, v.HasFlag(entity.FlagMalicious))
	assert.Equal(t, "malware_download", v.Detail["threat"])
}

func TestURLhausOfflineEntryScoresLower(t *testing.T) {
	srv := urlhausServer(t, "/url/",
		`{"query_status":"ok","url_status":"offline","threat":"malware_download"}`)
	defer srv.Close()

	p := NewURLhaus(URLhausConfig{APIKey: testAPIKey, BaseURL: srv.URL})
	v := p.Assess(context.Background(), urlTarget("http://old.example.com/gone.exe", "old.example.com"))

	assert.True(t, v.Succeeded)
	assert.Equal(t, 65, v.RiskContribution)
	assert.True(t, v.HasFlag(entity.FlagMalicious))
}

func TestURLhausNoResults(t *testing.T) {
	srv := urlhausServer(t, "/url/", `{"query_status":"no_results"}`)
	defer srv.Close()

	p := NewURLhaus(URLhausConfig{APIKey: testAPIKey, BaseURL: srv.URL})
	v := p.Assess(context.Background(), urlTarget("https://example.com/", "example.com"))

	assert.True(t, v.Succeeded)
	assert.Equal(t, 10, v.RiskContribution)
	assert.Empty(t, v.Flags)
}

func TestURLhausHostLookupForIPTarget(t *testing.T) {
	srv := urlhausServer(t, "/host/",
		`{"query_status":"ok","url_count":5,"urls":[{"url_status":"online"},{"url_status":"offline"}]}`)
	defer srv.Close()

	p := NewURLhaus(URLhausConfig{APIKey: testAPIKey, BaseURL: srv.URL})
	v := p.Assess(context.Background(), entity.Target{
		Kind: entity.TargetIP,
		Raw:  "203.0.113.9",
		IP:   "203.0.113.9",
	})

	assert.True(t, v.Succeeded)
	assert.Equal(t, 90, v.RiskContribution, "an active distribution host scores as online")
	assert.Equal(t, 1, v.Detail["active_urls"])
}

func TestURLhausHostLookupAllOffline(t *testing.T) {
	srv := urlhausServer(t, "/host/",
		`{"query_status":"ok","url_count":2,"urls":[{"url_status":"offline"},{"url_status":"offline"}]}`)
	defer srv.Close()

	p := NewURLhaus(URLhausConfig{APIKey: testAPIKey, BaseURL: srv.URL})
	v := p.Assess(context.Background(), entity.Target{
		Kind:   entity.TargetDomain,
		Raw:    "stale.example.com",
		Domain: "stale.example.com",
	})

	assert.True(t, v.Succeeded)
	assert.Equal(t, 65, v.RiskContribution)
}

func TestURLhausAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewURLhaus(URLhausConfig{APIKey: testAPIKey, BaseURL: srv.URL})
	v := p.Assess(context.Background(), urlTarget("https://example.com/", "example.com"))

	assert.False(t, v.Succeeded)
	assert.Equal(t, entity.ReasonAuth, v.ErrorReason)
}
