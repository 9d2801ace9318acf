package intel

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kr1s57/linkshield/internal/entity"
)

// RegionalConfig holds configuration for the regional blocklist aggregate.
// Mirrors are plain-text blocklists (one host or IP per line, '#' comments);
// with no mirrors configured the adapter runs in synthetic mode.
type RegionalConfig struct {
	Mirrors       []string
	Timeout       time.Duration
	RefreshPeriod time.Duration
}

// NewRegional creates the regional threat-checker aggregate. It is not one
// provider but a membership check across several regional blocklist mirrors;
// the more mirrors list a host, the higher the contribution.
func NewRegional(cfg RegionalConfig) *Provider {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RefreshPeriod == 0 {
		cfg.RefreshPeriod = 6 * time.Hour
	}

	live := &regionalLive{
		liveBase: liveBase{
			providerID:   "regional",
			providerName: "Regional Blocklists",
			httpClient:   newHTTPClient(cfg.Timeout),
		},
		mirrors:       cfg.Mirrors,
		refreshPeriod: cfg.RefreshPeriod,
		listed:        make(map[string]int),
	}

	return newProvider("regional", "Regional Blocklists",
		[]entity.TargetKind{entity.TargetURL, entity.TargetDomain, entity.TargetIP},
		len(cfg.Mirrors) > 0, live)
}

type regionalLive struct {
	liveBase
	mirrors       []string
	refreshPeriod time.Duration

	mu         sync.RWMutex
	listed     map[string]int // host -> number of mirrors listing it
	lastUpdate time.Time
}

const (
	regionalBaseScore = 50
	regionalPerList   = 15
	regionalClean     = 10
)

func (c *regionalLive) assess(ctx context.Context, t entity.Target) entity.ProviderVerdict {
	if err := c.refreshIfStale(ctx); err != nil {
		c.mu.RLock()
		empty := len(c.listed) == 0
		c.mu.RUnlock()
		// A stale cache still answers; an empty one cannot.
		if empty {
			return c.failErr(err)
		}
	}

	host := strings.ToLower(targetHost(t))

	c.mu.RLock()
	count := c.listed[host]
	updated := c.lastUpdate
	c.mu.RUnlock()

	v := c.verdict()
	v.Succeeded = true
	v.Detail = map[string]any{
		"mirrors":      len(c.mirrors),
		"listed_in":    count,
		"last_updated": updated.Format(time.RFC3339),
	}

	if count == 0 {
		v.RiskContribution = regionalClean
		v.Confidence = 50
		return v
	}

	score := regionalBaseScore + count*regionalPerList
	if score > 100 {
		score = 100
	}
	v.RiskContribution = score
	v.Confidence = 40 + min(count*15, 50)
	v.Flags = append(v.Flags, entity.FlagSuspicious)
	if count >= 3 {
		v.Flags = append(v.Flags, entity.FlagMalicious)
	}

	return v
}

func (c *regionalLive) refreshIfStale(ctx context.Context) error {
	c.mu.RLock()
	stale := time.Since(c.lastUpdate) > c.refreshPeriod || len(c.listed) == 0
	c.mu.RUnlock()
	if !stale {
		return nil
	}
	return c.refresh(ctx)
}

// refresh downloads every mirror and rebuilds the membership index.
func (c *regionalLive) refresh(ctx context.Context) error {
	fresh := make(map[string]int)
	var lastErr error
	loaded := 0

	for _, mirror := range c.mirrors {
		if err := c.loadMirror(ctx, mirror, fresh); err != nil {
			lastErr = err
			continue
		}
		loaded++
	}

	if loaded == 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("no mirrors configured")
		}
		return fmt.Errorf("refresh blocklists: %w", lastErr)
	}

	c.mu.Lock()
	c.listed = fresh
	c.lastUpdate = time.Now()
	c.mu.Unlock()

	return nil
}

func (c *regionalLive) loadMirror(ctx context.Context, mirror string, into map[string]int) error {
	req, err := http.NewRequestWithContext(ctx, "GET", mirror, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", mirror, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: status %d", mirror, resp.StatusCode)
	}

	seen := make(map[string]bool)
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// Some lists carry "host<tab>count" rows; the first field is the host.
		host := strings.ToLower(strings.Fields(line)[0])
		if !seen[host] {
			seen[host] = true
			into[host]++
		}
	}
	return scanner.Err()
}
