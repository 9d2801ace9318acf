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

// URLScoreConfig holds the URL-reputation scorer configuration
type URLScoreConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewURLScore creates the quantitative URL-reputation adapter (IPQS-style).
// The upstream risk score maps directly onto our 0-100 scale; its boolean
// flags combine with it by taking the maximum severity, never by summing.
func NewURLScore(cfg URLScoreConfig) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://ipqualityscore.com/api/json/url"
	}

	live := &urlScoreLive{
		liveBase: liveBase{
			providerID:   "urlscore",
			providerName: "URL Risk Score",
			apiKey:       cfg.APIKey,
			baseURL:      baseURL,
			httpClient:   newHTTPClient(cfg.Timeout),
			limiter:      rate.NewLimiter(rate.Limit(1), 2),
		},
	}

	return newProvider("urlscore", "URL Risk Score",
		[]entity.TargetKind{entity.TargetURL},
		validKey(cfg.APIKey), live)
}

type urlScoreLive struct {
	liveBase
}

type urlScoreResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	RiskScore   int    `json:"risk_score"`
	Malware     bool   `json:"malware"`
	Phishing    bool   `json:"phishing"`
	Suspicious  bool   `json:"suspicious"`
	Adult       bool   `json:"adult"`
	Spamming    bool   `json:"spamming"`
	Parking     bool   `json:"parking"`
	DomainAge   any    `json:"domain_age"`
	CountryCode string `json:"country_code"`
	Category    string `json:"category"`
}

// severities applied when the upstream quantitative score underreports a
// boolean detection
const (
	urlScoreMalwareFloor    = 90
	urlScorePhishingFloor   = 85
	urlScoreSuspiciousFloor = 60
)

func (c *urlScoreLive) assess(ctx context.Context, t entity.Target) entity.ProviderVerdict {
	if err := c.wait(ctx); err != nil {
		return c.failErr(err)
	}

	reqURL := fmt.Sprintf("%s/%s/%s", c.baseURL, c.apiKey, url.QueryEscape(t.URL))
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return c.fail(entity.ReasonInternal)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.failErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.fail(classifyStatus(resp.StatusCode))
	}

	var apiResp urlScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return c.fail(entity.ReasonBadResponse)
	}
	if !apiResp.Success {
		return c.fail(entity.ReasonBadResponse)
	}

	v := c.verdict()
	v.Succeeded = true
	v.Confidence = 85

	// Quantitative score maps directly.
	score := apiResp.RiskScore
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	// Boolean flags: take the max applicable severity.
	if apiResp.Malware {
		v.Flags = append(v.Flags, entity.FlagMalicious)
		if score < urlScoreMalwareFloor {
			score = urlScoreMalwareFloor
		}
	}
	if apiResp.Phishing {
		v.Flags = append(v.Flags, entity.FlagPhishing)
		if score < urlScorePhishingFloor {
			score = urlScorePhishingFloor
		}
	}
	if apiResp.Suspicious {
		v.Flags = append(v.Flags, entity.FlagSuspicious)
		if score < urlScoreSuspiciousFloor {
			score = urlScoreSuspiciousFloor
		}
	}
	if apiResp.Adult {
		v.Flags = append(v.Flags, entity.FlagAdult)
	}

	v.RiskContribution = score
	v.Detail = map[string]any{
		"risk_score": apiResp.RiskScore,
		"category":   apiResp.Category,
		"country":    apiResp.CountryCode,
	}

	return v
}
