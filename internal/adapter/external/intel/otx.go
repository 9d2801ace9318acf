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

// OTXConfig holds AlienVault OTX client configuration
type OTXConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewOTX creates the OTX threat-feed adapter. Scoring is based on how many
// community pulses reference the indicator and what malware families they
// carry.
func NewOTX(cfg OTXConfig) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://otx.alienvault.com/api/v1"
	}

	live := &otxLive{
		liveBase: liveBase{
			providerID:   "otx",
			providerName: "AlienVault OTX",
			apiKey:       cfg.APIKey,
			baseURL:      baseURL,
			httpClient:   newHTTPClient(cfg.Timeout),
			limiter:      rate.NewLimiter(rate.Limit(2), 2),
		},
	}

	return newProvider("otx", "AlienVault OTX",
		[]entity.TargetKind{entity.TargetURL, entity.TargetDomain, entity.TargetIP},
		validKey(cfg.APIKey), live)
}

type otxLive struct {
	liveBase
}

type otxGeneralResponse struct {
	PulseInfo otxPulseInfo `json:"pulse_info"`
}

type otxPulseInfo struct {
	Count  int        `json:"count"`
	Pulses []otxPulse `json:"pulses"`
}

type otxPulse struct {
	Name            string   `json:"name"`
	Tags            []string `json:"tags"`
	MalwareFamilies []struct {
		DisplayName string `json:"display_name"`
	} `json:"malware_families"`
}

func (c *otxLive) assess(ctx context.Context, t entity.Target) entity.ProviderVerdict {
	if err := c.wait(ctx); err != nil {
		return c.failErr(err)
	}

	var indicator, value string
	switch t.Kind {
	case entity.TargetIP:
		indicator, value = "IPv4", t.IP
	case entity.TargetDomain:
		indicator, value = "domain", t.Domain
	default:
		indicator, value = "url", t.URL
	}

	reqURL := fmt.Sprintf("%s/indicators/%s/%s/general", c.baseURL, indicator, url.PathEscape(value))
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return c.fail(entity.ReasonInternal)
	}
	req.Header.Set("X-OTX-API-KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.failErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Indicator unknown to OTX, treated as a clean answer.
		v := c.verdict()
		v.Succeeded = true
		v.RiskContribution = 5
		v.Confidence = 40
		v.Detail = map[string]any{"pulse_count": 0}
		return v
	}
	if resp.StatusCode != http.StatusOK {
		return c.fail(classifyStatus(resp.StatusCode))
	}

	var apiResp otxGeneralResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return c.fail(entity.ReasonBadResponse)
	}

	var families []string
	for _, p := range apiResp.PulseInfo.Pulses {
		for _, mf := range p.MalwareFamilies {
			if mf.DisplayName != "" {
				families = append(families, mf.DisplayName)
			}
		}
	}

	// Pulse count drives the base score; malware family references raise it.
	score := apiResp.PulseInfo.Count * 5
	if score > 50 {
		score = 50
	}
	famScore := len(families) * 10
	if famScore > 40 {
		famScore = 40
	}
	score += famScore
	if apiResp.PulseInfo.Count > 0 {
		score += 10
	}
	if score > 100 {
		score = 100
	}

	v := c.verdict()
	v.Succeeded = true
	v.RiskContribution = score
	v.Confidence = 70
	v.Detail = map[string]any{"pulse_count": apiResp.PulseInfo.Count}
	if len(families) > 0 {
		v.Detail["malware_families"] = families
		v.Flags = append(v.Flags, entity.FlagMalicious)
	} else if apiResp.PulseInfo.Count >= 3 {
		v.Flags = append(v.Flags, entity.FlagSuspicious)
	}

	return v
}
