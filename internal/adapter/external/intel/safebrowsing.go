package intel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/kr1s57/linkshield/internal/entity"
)

// SafeBrowsingConfig holds Safe Browsing client configuration
type SafeBrowsingConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewSafeBrowsing creates the Safe Browsing adapter. Without a valid API key
// it operates in synthetic mode.
func NewSafeBrowsing(cfg SafeBrowsingConfig) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://safebrowsing.googleapis.com/v4"
	}

	live := &safeBrowsingLive{
		liveBase: liveBase{
			providerID:   "safebrowsing",
			providerName: "Safe Browsing",
			apiKey:       cfg.APIKey,
			baseURL:      baseURL,
			httpClient:   newHTTPClient(cfg.Timeout),
			limiter:      rate.NewLimiter(rate.Limit(5), 5),
		},
	}

	return newProvider("safebrowsing", "Safe Browsing",
		[]entity.TargetKind{entity.TargetURL},
		validKey(cfg.APIKey), live)
}

type safeBrowsingLive struct {
	liveBase
}

// threatMatches.find request/response shapes
type sbRequest struct {
	Client     sbClient     `json:"client"`
	ThreatInfo sbThreatInfo `json:"threatInfo"`
}

type sbClient struct {
	ClientID      string `json:"clientId"`
	ClientVersion string `json:"clientVersion"`
}

type sbThreatInfo struct {
	ThreatTypes      []string      `json:"threatTypes"`
	PlatformTypes    []string      `json:"platformTypes"`
	ThreatEntryTypes []string      `json:"threatEntryTypes"`
	ThreatEntries    []sbThreatURL `json:"threatEntries"`
}

type sbThreatURL struct {
	URL string `json:"url"`
}

type sbResponse struct {
	Matches []sbMatch `json:"matches"`
}

type sbMatch struct {
	ThreatType   string `json:"threatType"`
	PlatformType string `json:"platformType"`
	CacheDur     string `json:"cacheDuration"`
}

// boolean verdicts map to fixed contributions, combined by max severity
var sbThreatSeverity = map[string]struct {
	score int
	flag  entity.Flag
}{
	"MALWARE":                         {92, entity.FlagMalicious},
	"SOCIAL_ENGINEERING":              {90, entity.FlagPhishing},
	"UNWANTED_SOFTWARE":               {70, entity.FlagSuspicious},
	"POTENTIALLY_HARMFUL_APPLICATION": {65, entity.FlagSuspicious},
}

const sbCleanScore = 8

func (c *safeBrowsingLive) assess(ctx context.Context, t entity.Target) entity.ProviderVerdict {
	if err := c.wait(ctx); err != nil {
		return c.failErr(err)
	}

	body, err := json.Marshal(sbRequest{
		Client: sbClient{ClientID: "linkshield", ClientVersion: "1.0"},
		ThreatInfo: sbThreatInfo{
			ThreatTypes: []string{
				"MALWARE", "SOCIAL_ENGINEERING",
				"UNWANTED_SOFTWARE", "POTENTIALLY_HARMFUL_APPLICATION",
			},
			PlatformTypes:    []string{"ANY_PLATFORM"},
			ThreatEntryTypes: []string{"URL"},
			ThreatEntries:    []sbThreatURL{{URL: t.URL}},
		},
	})
	if err != nil {
		return c.fail(entity.ReasonInternal)
	}

	reqURL := fmt.Sprintf("%s/threatMatches:find?key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", reqURL, bytes.NewReader(body))
	if err != nil {
		return c.fail(entity.ReasonInternal)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.failErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.fail(classifyStatus(resp.StatusCode))
	}

	var apiResp sbResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return c.fail(entity.ReasonBadResponse)
	}

	v := c.verdict()
	v.Succeeded = true
	v.RiskContribution = sbCleanScore
	v.Confidence = 90
	v.Detail = map[string]any{"matches": len(apiResp.Matches)}

	// Multiple threat types combine by taking the highest severity.
	for _, m := range apiResp.Matches {
		sev, known := sbThreatSeverity[m.ThreatType]
		if !known {
			continue
		}
		if sev.score > v.RiskContribution {
			v.RiskContribution = sev.score
		}
		if !containsFlag(v.Flags, sev.flag) {
			v.Flags = append(v.Flags, sev.flag)
		}
		v.Detail["threat_type"] = m.ThreatType
	}

	return v
}
