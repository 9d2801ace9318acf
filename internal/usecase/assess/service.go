package assess

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/kr1s57/linkshield/internal/entity"
)

// Adapter is one threat-intelligence provider behind the common verdict
// contract. Assess never returns an error; every failure mode is absorbed
// into a succeeded=false verdict.
type Adapter interface {
	ID() string
	Name() string
	Configured() bool
	Capabilities() []entity.TargetKind
	Supports(kind entity.TargetKind) bool
	Assess(ctx context.Context, target entity.Target) entity.ProviderVerdict
}

// Recorder persists finished reports. The engine itself holds no state; a
// recorder is an optional external collaborator invoked after the report is
// built.
type Recorder interface {
	RecordAssessment(ctx context.Context, report *entity.AggregateReport) error
}

// Event types handed to the Broadcaster.
const (
	EventAssessment     = "assessment"
	EventAlert          = "alert"
	EventProviderIssues = "provider_issues"
)

// Broadcaster announces finished reports, e.g. over a websocket hub.
type Broadcaster interface {
	Broadcast(msgType string, payload any)
}

// Config holds the orchestration bounds.
type Config struct {
	PerCallTimeout time.Duration // hard upper bound per adapter call
	BatchDeadline  time.Duration // hard upper bound for the whole assessment
	MaxInFlight    int64         // cap on concurrent adapter invocations
}

func (c Config) withDefaults() Config {
	if c.PerCallTimeout == 0 {
		c.PerCallTimeout = 15 * time.Second
	}
	if c.BatchDeadline == 0 {
		c.BatchDeadline = 45 * time.Second
	}
	if c.MaxInFlight == 0 {
		c.MaxInFlight = 16
	}
	return c
}

// Service is the risk aggregation engine: it fans a target out to the
// applicable adapters, scores the consensus and derives the human-facing
// report. Adapters are injected explicitly; there is no global registry.
type Service struct {
	adapters  []Adapter
	secondary Adapter // domain-keyed lookup run after the main batch
	policy    Policy
	cfg       Config
	sem       *semaphore.Weighted
	logger    *slog.Logger
	recorder  Recorder
	events    Broadcaster
}

// NewService creates the engine. secondary may be nil.
func NewService(adapters []Adapter, secondary Adapter, policy Policy, cfg Config, logger *slog.Logger) *Service {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		adapters:  adapters,
		secondary: secondary,
		policy:    policy,
		cfg:       cfg,
		sem:       semaphore.NewWeighted(cfg.MaxInFlight),
		logger:    logger,
	}
}

// SetRecorder attaches an optional report sink.
func (s *Service) SetRecorder(r Recorder) { s.recorder = r }

// SetBroadcaster attaches an optional event announcer.
func (s *Service) SetBroadcaster(b Broadcaster) { s.events = b }

// AssessURL validates the URL and runs the full assessment against every
// URL-capable adapter, plus the domain-only secondary lookup.
func (s *Service) AssessURL(ctx context.Context, rawURL string) (*entity.AggregateReport, error) {
	target, err := ParseURLTarget(rawURL)
	if err != nil {
		return nil, err
	}
	return s.assess(ctx, target), nil
}

// AssessIP runs the assessment against the IP-capable adapter subset.
func (s *Service) AssessIP(ctx context.Context, rawIP string) (*entity.AggregateReport, error) {
	target, err := ParseIPTarget(rawIP)
	if err != nil {
		return nil, err
	}
	return s.assess(ctx, target), nil
}

func (s *Service) assess(ctx context.Context, target entity.Target) *entity.AggregateReport {
	start := time.Now()

	batchCtx, cancel := context.WithTimeout(ctx, s.cfg.BatchDeadline)
	defer cancel()

	applicable := make([]Adapter, 0, len(s.adapters))
	for _, a := range s.adapters {
		if a.Supports(target.Kind) {
			applicable = append(applicable, a)
		}
	}

	results := s.fanOut(batchCtx, target, applicable)

	// The breach lookup is keyed by domain, not URL, so it runs after the
	// main batch under the same deadline and merges into the same set.
	if s.secondary != nil && target.Domain != "" && target.IP == "" {
		if _, already := results[s.secondary.ID()]; !already {
			domainTarget := entity.Target{
				Kind:   entity.TargetDomain,
				Raw:    target.Domain,
				Domain: target.Domain,
			}
			results[s.secondary.ID()] = s.invoke(batchCtx, s.secondary, domainTarget)
		}
	}

	report := s.buildReport(target, results)
	report.Elapsed = time.Since(start)

	s.logger.Info("assessment complete",
		"target", target.Raw,
		"kind", target.Kind,
		"score", report.OverallScore,
		"level", report.RiskLevel,
		"providers", report.ProvidersConsulted,
		"failed", len(report.FailedProviders),
		"elapsed", report.Elapsed,
	)

	s.publish(report)
	return report
}

func (s *Service) buildReport(target entity.Target, results map[string]entity.ProviderVerdict) *entity.AggregateReport {
	report := &entity.AggregateReport{
		ID:                 uuid.NewString(),
		Target:             target,
		ProviderResults:    results,
		FailedProviders:    map[string]string{},
		ProvidersConsulted: len(results),
		CreatedAt:          time.Now().UTC(),
	}

	for id, v := range results {
		if !v.Succeeded {
			report.FailedProviders[id] = v.ErrorReason
		}
	}

	report.OverallScore, report.RiskLevel, report.Confidence = s.score(results)
	report.RiskFactors, report.Recommendations, report.Summary = s.derive(results)

	return report
}

// publish hands the finished report to the optional collaborators. Both run
// off the request path; a slow sink must not delay the caller.
func (s *Service) publish(report *entity.AggregateReport) {
	if s.events != nil {
		s.events.Broadcast(EventAssessment, report)
		if len(report.FailedProviders) > 0 {
			s.events.Broadcast(EventProviderIssues, map[string]any{
				"target":  report.Target.Raw,
				"failed":  report.FailedProviders,
				"healthy": report.SucceededCount(),
			})
		}
		if report.RiskLevel == entity.RiskHigh || report.RiskLevel == entity.RiskVeryHigh {
			s.events.Broadcast(EventAlert, map[string]any{
				"target":  report.Target.Raw,
				"score":   report.OverallScore,
				"level":   report.RiskLevel,
				"factors": report.RiskFactors,
			})
		}
	}
	if s.recorder != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.recorder.RecordAssessment(ctx, report); err != nil {
				s.logger.Error("failed to record assessment", "target", report.Target.Raw, "error", err)
			}
		}()
	}
}

// ProviderStatus reports which adapters are live vs. synthetic. Read-only,
// no effect on scoring.
func (s *Service) ProviderStatus() []entity.ProviderStatus {
	all := s.adapters
	if s.secondary != nil {
		found := false
		for _, a := range all {
			if a.ID() == s.secondary.ID() {
				found = true
				break
			}
		}
		if !found {
			all = append(append([]Adapter{}, all...), s.secondary)
		}
	}

	statuses := make([]entity.ProviderStatus, 0, len(all))
	for _, a := range all {
		caps := make([]string, 0, len(a.Capabilities()))
		for _, c := range a.Capabilities() {
			caps = append(caps, string(c))
		}
		statuses = append(statuses, entity.ProviderStatus{
			ID:           a.ID(),
			Name:         a.Name(),
			Configured:   a.Configured(),
			Capabilities: caps,
		})
	}
	return statuses
}
