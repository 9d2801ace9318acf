package intel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kr1s57/linkshield/internal/entity"
)

// PhishTankConfig holds PhishTank client configuration
type PhishTankConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewPhishTank creates the PhishTank adapter. PhishTank reports only a
// boolean verdict; verified detections score at the top of the high band.
func NewPhishTank(cfg PhishTankConfig) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://checkurl.phishtank.com/checkurl/"
	}

	live := &phishTankLive{
		liveBase: liveBase{
			providerID:   "phishtank",
			providerName: "PhishTank",
			apiKey:       cfg.APIKey,
			baseURL:      baseURL,
			httpClient:   newHTTPClient(cfg.Timeout),
			limiter:      rate.NewLimiter(rate.Limit(2), 2),
		},
	}

	return newProvider("phishtank", "PhishTank",
		[]entity.TargetKind{entity.TargetURL},
		validKey(cfg.APIKey), live)
}

type phishTankLive struct {
	liveBase
}

type phishTankResponse struct {
	Results phishTankResults `json:"results"`
}

type phishTankResults struct {
	InDatabase bool   `json:"in_database"`
	Verified   bool   `json:"verified"`
	Valid      bool   `json:"valid"`
	PhishID    int64  `json:"phish_id"`
	DetailPage string `json:"phish_detail_page"`
}

// fixed contributions for the boolean verdict
const (
	phishTankVerifiedScore   = 95
	phishTankUnverifiedScore = 75
	phishTankCleanScore      = 10
)

func (c *phishTankLive) assess(ctx context.Context, t entity.Target) entity.ProviderVerdict {
	if err := c.wait(ctx); err != nil {
		return c.failErr(err)
	}

	form := url.Values{}
	form.Set("url", t.URL)
	form.Set("format", "json")
	form.Set("app_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return c.fail(entity.ReasonInternal)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.failErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.fail(classifyStatus(resp.StatusCode))
	}

	var apiResp phishTankResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return c.fail(entity.ReasonBadResponse)
	}

	v := c.verdict()
	v.Succeeded = true
	v.Detail = map[string]any{
		"in_database": apiResp.Results.InDatabase,
		"verified":    apiResp.Results.Verified,
	}

	switch {
	case apiResp.Results.InDatabase && apiResp.Results.Verified && apiResp.Results.Valid:
		v.RiskContribution = phishTankVerifiedScore
		v.Flags = append(v.Flags, entity.FlagPhishing)
		v.Confidence = 95
		v.Detail["phish_id"] = apiResp.Results.PhishID
	case apiResp.Results.InDatabase:
		v.RiskContribution = phishTankUnverifiedScore
		v.Flags = append(v.Flags, entity.FlagPhishing)
		v.Confidence = 70
	default:
		v.RiskContribution = phishTankCleanScore
		v.Confidence = 60
	}

	return v
}
