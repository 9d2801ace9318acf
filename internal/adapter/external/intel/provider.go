package intel

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kr1s57/linkshield/internal/entity"
)

// strategy is the per-provider assessment behavior. Each provider owns two
// implementations: a live one talking to the real API and a synthetic one
// producing deterministic placeholder verdicts. The choice is made once at
// construction, based on configuration validity.
type strategy interface {
	assess(ctx context.Context, target entity.Target) entity.ProviderVerdict
}

// Provider wraps one external threat-intelligence source behind the common
// verdict contract. Providers are stateless and safe for concurrent use.
type Provider struct {
	id         string
	name       string
	caps       []entity.TargetKind
	configured bool
	strategy   strategy
}

func newProvider(id, name string, caps []entity.TargetKind, configured bool, live strategy) *Provider {
	s := live
	if !configured {
		s = &syntheticStrategy{providerID: id, providerName: name}
	}
	return &Provider{
		id:         id,
		name:       name,
		caps:       caps,
		configured: configured,
		strategy:   s,
	}
}

// ID returns the stable provider identifier.
func (p *Provider) ID() string { return p.id }

// Name returns the human-readable provider name.
func (p *Provider) Name() string { return p.name }

// Configured reports whether the provider runs against its real API.
// Unconfigured providers answer with synthetic verdicts.
func (p *Provider) Configured() bool { return p.configured }

// Capabilities lists the target kinds this provider can assess.
func (p *Provider) Capabilities() []entity.TargetKind { return p.caps }

// Supports reports whether the provider can assess the given target kind.
func (p *Provider) Supports(kind entity.TargetKind) bool {
	for _, c := range p.caps {
		if c == kind {
			return true
		}
	}
	return false
}

// Assess produces a verdict for the target. It never returns an error and
// never panics past this boundary; every failure mode ends up as a
// succeeded=false verdict with a classified reason.
func (p *Provider) Assess(ctx context.Context, target entity.Target) (v entity.ProviderVerdict) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			v = Failed(p.id, p.name, entity.ReasonInternal)
		}
		if v.Flags == nil {
			v.Flags = []entity.Flag{}
		}
		v.Elapsed = time.Since(start)
	}()

	v = p.strategy.assess(ctx, target)
	return v
}

// Failed builds a failure verdict for a provider.
func Failed(id, name, reason string) entity.ProviderVerdict {
	return entity.ProviderVerdict{
		ProviderID:   id,
		ProviderName: name,
		Succeeded:    false,
		ErrorReason:  reason,
		Flags:        []entity.Flag{},
	}
}

// placeholder values that must not be mistaken for real credentials
var placeholderKeys = map[string]struct{}{
	"changeme":     {},
	"placeholder":  {},
	"your-api-key": {},
	"your_api_key": {},
	"xxxxxxxx":     {},
}

// validKey implements the configured predicate: non-empty, non-placeholder,
// minimum length.
func validKey(key string) bool {
	k := strings.TrimSpace(strings.ToLower(key))
	if len(k) < 8 {
		return false
	}
	if _, bad := placeholderKeys[k]; bad {
		return false
	}
	if strings.HasPrefix(k, "your-") || strings.HasPrefix(k, "your_") {
		return false
	}
	return true
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// liveBase carries the plumbing shared by all live strategies.
type liveBase struct {
	providerID   string
	providerName string
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	limiter      *rate.Limiter
}

// wait blocks on the client-side rate limiter, if one is set.
func (b *liveBase) wait(ctx context.Context) error {
	if b.limiter == nil {
		return nil
	}
	return b.limiter.Wait(ctx)
}

func (b *liveBase) verdict() entity.ProviderVerdict {
	return entity.ProviderVerdict{
		ProviderID:   b.providerID,
		ProviderName: b.providerName,
		Flags:        []entity.Flag{},
	}
}

func (b *liveBase) fail(reason string) entity.ProviderVerdict {
	return Failed(b.providerID, b.providerName, reason)
}

func (b *liveBase) failErr(err error) entity.ProviderVerdict {
	return b.fail(classifyErr(err))
}

// classifyErr maps a transport-level error to a failure reason.
func classifyErr(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return entity.ReasonTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return entity.ReasonTimeout
	}
	return entity.ReasonTransport
}

// classifyStatus maps a non-2xx HTTP status to a failure reason.
func classifyStatus(code int) string {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return entity.ReasonAuth
	case code == http.StatusTooManyRequests:
		return entity.ReasonRateLimited
	default:
		return entity.ReasonTransport
	}
}

// targetHost returns the hostname an adapter should use for domain-level
// lookups against the given target.
func targetHost(t entity.Target) string {
	switch t.Kind {
	case entity.TargetIP:
		return t.IP
	case entity.TargetDomain:
		return t.Domain
	default:
		if t.Domain != "" {
			return t.Domain
		}
		return t.Raw
	}
}
