package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/kr1s57/linkshield/internal/entity"
)

// WebRepConfig holds the domain-reputation client configuration
type WebRepConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewWebRep creates the domain-reputation adapter. The upstream reports a
// 0-100 trust score, which is the inverse of our risk scale.
func NewWebRep(cfg WebRepConfig) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://scorecard.api.mywot.com/v3"
	}

	live := &webRepLive{
		liveBase: liveBase{
			providerID:   "webrep",
			providerName: "Web Reputation",
			apiKey:       cfg.APIKey,
			baseURL:      baseURL,
			httpClient:   newHTTPClient(cfg.Timeout),
			limiter:      rate.NewLimiter(rate.Limit(2), 2),
		},
	}

	return newProvider("webrep", "Web Reputation",
		[]entity.TargetKind{entity.TargetURL, entity.TargetDomain},
		validKey(cfg.APIKey), live)
}

type webRepLive struct {
	liveBase
}

type webRepEntry struct {
	Target     string           `json:"target"`
	Safety     webRepSafety     `json:"safety"`
	Categories []webRepCategory `json:"categories"`
}

type webRepSafety struct {
	Status      string `json:"status"`      // SAFE, NOT_SAFE, SUSPICIOUS
	Reputations int    `json:"reputations"` // trust score 0-100
	Confidence  int    `json:"confidence"`
}

type webRepCategory struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Confidence int    `json:"confidence"`
}

func (c *webRepLive) assess(ctx context.Context, t entity.Target) entity.ProviderVerdict {
	if err := c.wait(ctx); err != nil {
		return c.failErr(err)
	}

	host := targetHost(t)
	reqURL := fmt.Sprintf("%s/targets?t=%s", c.baseURL, url.QueryEscape(host))

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return c.fail(entity.ReasonInternal)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.failErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.fail(classifyStatus(resp.StatusCode))
	}

	var entries []webRepEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return c.fail(entity.ReasonBadResponse)
	}

	v := c.verdict()
	v.Succeeded = true

	if len(entries) == 0 {
		// Domain unknown to the reputation service.
		v.RiskContribution = 30
		v.Flags = append(v.Flags, entity.FlagUnrated)
		v.Confidence = 20
		v.Detail = map[string]any{"rated": false}
		return v
	}

	entry := entries[0]

	// Trust score inversion: high trust = low risk.
	trust := entry.Safety.Reputations
	if trust < 0 {
		trust = 0
	}
	if trust > 100 {
		trust = 100
	}
	v.RiskContribution = 100 - trust
	v.Confidence = entry.Safety.Confidence
	v.Detail = map[string]any{
		"rated":       true,
		"trust_score": trust,
		"status":      entry.Safety.Status,
	}

	switch entry.Safety.Status {
	case "NOT_SAFE":
		v.Flags = append(v.Flags, entity.FlagMalicious)
	case "SUSPICIOUS":
		v.Flags = append(v.Flags, entity.FlagSuspicious)
	}

	for _, cat := range entry.Categories {
		switch cat.Name {
		case "Phishing", "phishing":
			if !containsFlag(v.Flags, entity.FlagPhishing) {
				v.Flags = append(v.Flags, entity.FlagPhishing)
			}
		case "Adult content", "adult":
			if !containsFlag(v.Flags, entity.FlagAdult) {
				v.Flags = append(v.Flags, entity.FlagAdult)
			}
		}
	}

	return v
}
