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

// BreachWatchConfig holds the breach-data client configuration
type BreachWatchConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewBreachWatch creates the breach-data adapter (HIBP-style). It is keyed
// by domain rather than URL, so the orchestrator invokes it as the secondary
// domain-only lookup after the main batch.
func NewBreachWatch(cfg BreachWatchConfig) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://haveibeenpwned.com/api/v3"
	}

	live := &breachWatchLive{
		liveBase: liveBase{
			providerID:   "breachwatch",
			providerName: "Breach Watch",
			apiKey:       cfg.APIKey,
			baseURL:      baseURL,
			httpClient:   newHTTPClient(cfg.Timeout),
			limiter:      rate.NewLimiter(rate.Limit(1), 1),
		},
	}

	return newProvider("breachwatch", "Breach Watch",
		[]entity.TargetKind{entity.TargetDomain, entity.TargetEmail},
		validKey(cfg.APIKey), live)
}

type breachWatchLive struct {
	liveBase
}

type breachEntry struct {
	Name        string   `json:"Name"`
	Title       string   `json:"Title"`
	Domain      string   `json:"Domain"`
	BreachDate  string   `json:"BreachDate"`
	PwnCount    int64    `json:"PwnCount"`
	DataClasses []string `json:"DataClasses"`
	IsVerified  bool     `json:"IsVerified"`
}

func (c *breachWatchLive) assess(ctx context.Context, t entity.Target) entity.ProviderVerdict {
	if err := c.wait(ctx); err != nil {
		return c.failErr(err)
	}

	var reqURL string
	if t.Kind == entity.TargetEmail {
		reqURL = fmt.Sprintf("%s/breachedaccount/%s?truncateResponse=false", c.baseURL, url.PathEscape(t.Email))
	} else {
		reqURL = fmt.Sprintf("%s/breaches?domain=%s", c.baseURL, url.QueryEscape(t.Domain))
	}

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return c.fail(entity.ReasonInternal)
	}
	req.Header.Set("hibp-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.failErr(err)
	}
	defer resp.Body.Close()

	// 404 on account lookups means no breaches, a clean answer.
	if resp.StatusCode == http.StatusNotFound {
		v := c.verdict()
		v.Succeeded = true
		v.RiskContribution = 5
		v.Confidence = 80
		v.Detail = map[string]any{"breach_count": 0}
		return v
	}
	if resp.StatusCode != http.StatusOK {
		return c.fail(classifyStatus(resp.StatusCode))
	}

	var breaches []breachEntry
	if err := json.NewDecoder(resp.Body).Decode(&breaches); err != nil {
		return c.fail(entity.ReasonBadResponse)
	}

	v := c.verdict()
	v.Succeeded = true
	v.Confidence = 80
	v.Detail = map[string]any{"breach_count": len(breaches)}

	if len(breaches) == 0 {
		v.RiskContribution = 5
		return v
	}

	// Breach count scales the contribution; leaked credentials flag the
	// target regardless of count.
	score := 20 + len(breaches)*10
	if score > 70 {
		score = 70
	}

	passwordsLeaked := false
	names := make([]string, 0, len(breaches))
	for _, b := range breaches {
		names = append(names, b.Name)
		for _, dc := range b.DataClasses {
			if dc == "Passwords" {
				passwordsLeaked = true
			}
		}
	}
	v.Detail["breaches"] = names

	if passwordsLeaked {
		score += 15
		if score > 85 {
			score = 85
		}
		v.Flags = append(v.Flags, entity.FlagCompromised)
	}

	v.RiskContribution = score
	return v
}
