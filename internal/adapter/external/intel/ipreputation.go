package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/kr1s57/linkshield/internal/entity"
)

// IPReputationConfig holds AbuseIPDB client configuration
type IPReputationConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewIPReputation creates the IP-reputation adapter. The upstream abuse
// confidence score is already on our 0-100 scale. For URL targets the host
// is used when it is an IP literal, otherwise its first A record is
// resolved.
func NewIPReputation(cfg IPReputationConfig) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.abuseipdb.com/api/v2"
	}

	live := &ipReputationLive{
		liveBase: liveBase{
			providerID:   "iprep",
			providerName: "IP Reputation",
			apiKey:       cfg.APIKey,
			baseURL:      baseURL,
			httpClient:   newHTTPClient(cfg.Timeout),
			limiter:      rate.NewLimiter(rate.Limit(1), 2),
		},
		resolver: net.DefaultResolver,
	}

	return newProvider("iprep", "IP Reputation",
		[]entity.TargetKind{entity.TargetURL, entity.TargetIP},
		validKey(cfg.APIKey), live)
}

type ipReputationLive struct {
	liveBase
	resolver *net.Resolver
}

type ipReputationResponse struct {
	Data struct {
		IPAddress            string `json:"ipAddress"`
		AbuseConfidenceScore int    `json:"abuseConfidenceScore"`
		TotalReports         int    `json:"totalReports"`
		CountryCode          string `json:"countryCode"`
		ISP                  string `json:"isp"`
		UsageType            string `json:"usageType"`
		IsTor                bool   `json:"isTor"`
		IsWhitelisted        bool   `json:"isWhitelisted"`
	} `json:"data"`
}

func (c *ipReputationLive) assess(ctx context.Context, t entity.Target) entity.ProviderVerdict {
	if err := c.wait(ctx); err != nil {
		return c.failErr(err)
	}

	ip, err := c.resolveIP(ctx, t)
	if err != nil {
		return c.failErr(err)
	}

	reqURL := fmt.Sprintf("%s/check?ipAddress=%s&maxAgeInDays=90", c.baseURL, url.QueryEscape(ip))
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return c.fail(entity.ReasonInternal)
	}
	req.Header.Set("Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.failErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.fail(classifyStatus(resp.StatusCode))
	}

	var apiResp ipReputationResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return c.fail(entity.ReasonBadResponse)
	}

	v := c.verdict()
	v.Succeeded = true
	v.RiskContribution = apiResp.Data.AbuseConfidenceScore // already 0-100
	v.Confidence = 85
	v.Detail = map[string]any{
		"ip":            ip,
		"total_reports": apiResp.Data.TotalReports,
		"country":       apiResp.Data.CountryCode,
		"isp":           apiResp.Data.ISP,
		"is_tor":        apiResp.Data.IsTor,
	}

	switch {
	case apiResp.Data.AbuseConfidenceScore >= 75:
		v.Flags = append(v.Flags, entity.FlagMalicious)
	case apiResp.Data.AbuseConfidenceScore >= 40:
		v.Flags = append(v.Flags, entity.FlagSuspicious)
	}

	return v
}

// resolveIP picks the address to query: the target's own IP, an IP-literal
// hostname, or the first resolved A record.
func (c *ipReputationLive) resolveIP(ctx context.Context, t entity.Target) (string, error) {
	if t.Kind == entity.TargetIP {
		return t.IP, nil
	}
	host := targetHost(t)
	if parsed := net.ParseIP(host); parsed != nil {
		return host, nil
	}
	addrs, err := c.resolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", host, err)
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("resolve %s: no addresses", host)
	}
	return addrs[0].String(), nil
}
