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

// URLhausConfig holds URLhaus client configuration
type URLhausConfig struct {
	APIKey  string // Auth-Key from auth.abuse.ch
	BaseURL string
	Timeout time.Duration
}

// NewURLhaus creates the URLhaus adapter. URLhaus tracks malware
// distribution URLs; a URL lookup is used for URL targets and a host lookup
// for domain/IP targets.
func NewURLhaus(cfg URLhausConfig) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://urlhaus-api.abuse.ch/v1"
	}

	live := &urlhausLive{
		liveBase: liveBase{
			providerID:   "urlhaus",
			providerName: "URLhaus",
			apiKey:       cfg.APIKey,
			baseURL:      baseURL,
			httpClient:   newHTTPClient(cfg.Timeout),
			limiter:      rate.NewLimiter(rate.Limit(5), 5),
		},
	}

	return newProvider("urlhaus", "URLhaus",
		[]entity.TargetKind{entity.TargetURL, entity.TargetDomain, entity.TargetIP},
		validKey(cfg.APIKey), live)
}

type urlhausLive struct {
	liveBase
}

type urlhausURLResponse struct {
	QueryStatus string   `json:"query_status"`
	URLStatus   string   `json:"url_status"`
	Threat      string   `json:"threat"`
	Tags        []string `json:"tags"`
	Reference   string   `json:"urlhaus_reference"`
}

type urlhausHostResponse struct {
	QueryStatus string `json:"query_status"`
	URLCount    int    `json:"url_count"`
	URLs        []struct {
		URLStatus string `json:"url_status"`
		Threat    string `json:"threat"`
	} `json:"urls"`
}

const (
	urlhausOnlineScore  = 90
	urlhausOfflineScore = 65
	urlhausCleanScore   = 10
)

func (c *urlhausLive) assess(ctx context.Context, t entity.Target) entity.ProviderVerdict {
	if err := c.wait(ctx); err != nil {
		return c.failErr(err)
	}

	if t.Kind == entity.TargetURL {
		return c.lookupURL(ctx, t)
	}
	return c.lookupHost(ctx, t)
}

func (c *urlhausLive) lookupURL(ctx context.Context, t entity.Target) entity.ProviderVerdict {
	form := url.Values{}
	form.Set("url", t.URL)

	apiResp := urlhausURLResponse{}
	if v, ok := c.post(ctx, "/url/", form, &apiResp); !ok {
		return v
	}

	v := c.verdict()
	v.Succeeded = true
	v.Detail = map[string]any{"query_status": apiResp.QueryStatus}

	if apiResp.QueryStatus != "ok" {
		// no_results means the URL is not in the corpus
		v.RiskContribution = urlhausCleanScore
		v.Confidence = 60
		return v
	}

	v.Flags = append(v.Flags, entity.FlagMalicious)
	v.Confidence = 90
	v.Detail["url_status"] = apiResp.URLStatus
	v.Detail["threat"] = apiResp.Threat
	if len(apiResp.Tags) > 0 {
		v.Detail["tags"] = apiResp.Tags
	}

	if apiResp.URLStatus == "online" {
		v.RiskContribution = urlhausOnlineScore
	} else {
		v.RiskContribution = urlhausOfflineScore
	}

	return v
}

func (c *urlhausLive) lookupHost(ctx context.Context, t entity.Target) entity.ProviderVerdict {
	form := url.Values{}
	form.Set("host", targetHost(t))

	apiResp := urlhausHostResponse{}
	if v, ok := c.post(ctx, "/host/", form, &apiResp); !ok {
		return v
	}

	v := c.verdict()
	v.Succeeded = true
	v.Detail = map[string]any{"query_status": apiResp.QueryStatus}

	if apiResp.QueryStatus != "ok" {
		v.RiskContribution = urlhausCleanScore
		v.Confidence = 60
		return v
	}

	active := 0
	for _, u := range apiResp.URLs {
		if u.URLStatus == "online" {
			active++
		}
	}

	v.Flags = append(v.Flags, entity.FlagMalicious)
	v.Confidence = 85
	v.Detail["url_count"] = apiResp.URLCount
	v.Detail["active_urls"] = active
	if active > 0 {
		v.RiskContribution = urlhausOnlineScore
	} else {
		v.RiskContribution = urlhausOfflineScore
	}

	return v
}

// post sends a form-encoded lookup and decodes the response. The bool result
// is false when the returned verdict is a failure that should be passed
// through as-is.
func (c *urlhausLive) post(ctx context.Context, path string, form url.Values, out any) (entity.ProviderVerdict, bool) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return c.fail(entity.ReasonInternal), false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Auth-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.failErr(err), false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.fail(classifyStatus(resp.StatusCode)), false
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return c.fail(entity.ReasonBadResponse), false
	}

	return entity.ProviderVerdict{}, true
}
