package assess

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kr1s57/linkshield/internal/entity"
)

func newTestService() *Service {
	return NewService(nil, nil, DefaultPolicy(), Config{}, nil)
}

func okVerdict(id string, risk int, flags ...entity.Flag) entity.ProviderVerdict {
	if flags == nil {
		flags = []entity.Flag{}
	}
	return entity.ProviderVerdict{
		ProviderID:       id,
		ProviderName:     id,
		Succeeded:        true,
		RiskContribution: risk,
		Flags:            flags,
	}
}

func failedVerdict(id, reason string) entity.ProviderVerdict {
	return entity.ProviderVerdict{
		ProviderID:   id,
		ProviderName: id,
		Succeeded:    false,
		ErrorReason:  reason,
		Flags:        []entity.Flag{},
	}
}

func TestScoreWeightedConsensus(t *testing.T) {
	s := newTestService()

	// safebrowsing 0.20 and phishtank 0.15, renormalized over the pair:
	// (90*0.20 + 20*0.15) / 0.35 = 60
	results := map[string]entity.ProviderVerdict{
		"safebrowsing": okVerdict("safebrowsing", 90),
		"phishtank":    okVerdict("phishtank", 20),
	}

	score, level, confidence := s.score(results)
	assert.Equal(t, 60, score)
	assert.Equal(t, entity.RiskHigh, level)
	assert.Equal(t, 24, confidence)
}

func TestScoreIgnoresFailedProviders(t *testing.T) {
	s := newTestService()

	results := map[string]entity.ProviderVerdict{
		"safebrowsing": okVerdict("safebrowsing", 80),
		"phishtank":    failedVerdict("phishtank", entity.ReasonTimeout),
		"urlhaus":      failedVerdict("urlhaus", entity.ReasonAuth),
	}

	score, level, _ := s.score(results)

	// The failed providers contribute to neither side of the average.
	assert.Equal(t, 80, score)
	assert.Equal(t, entity.RiskVeryHigh, level)
}

func TestScoreAllProvidersFailed(t *testing.T) {
	s := newTestService()

	results := map[string]entity.ProviderVerdict{
		"safebrowsing": failedVerdict("safebrowsing", entity.ReasonTimeout),
		"phishtank":    failedVerdict("phishtank", entity.ReasonTransport),
	}

	score, level, confidence := s.score(results)
	assert.Equal(t, unknownScore, score)
	assert.Equal(t, entity.RiskUnknown, level)
	assert.Equal(t, 0, confidence)
}

func TestScoreEmptyResults(t *testing.T) {
	s := newTestService()

	score, level, confidence := s.score(map[string]entity.ProviderVerdict{})
	assert.Equal(t, unknownScore, score)
	assert.Equal(t, entity.RiskUnknown, level)
	assert.Equal(t, 0, confidence)
}

func TestScoreUnanimousVerdictIsPreserved(t *testing.T) {
	s := newTestService()

	// When every provider reports the same value, the weighted average must
	// equal it regardless of which subset of weights is in play.
	for _, value := range []int{0, 25, 50, 100} {
		results := map[string]entity.ProviderVerdict{
			"safebrowsing": okVerdict("safebrowsing", value),
			"otx":          okVerdict("otx", value),
			"regional":     okVerdict("regional", value),
		}
		score, _, _ := s.score(results)
		assert.Equal(t, value, score, "unanimous value %d", value)
	}
}

func TestScoreStaysWithinBounds(t *testing.T) {
	s := newTestService()

	results := map[string]entity.ProviderVerdict{
		"safebrowsing": okVerdict("safebrowsing", 100),
		"urlscore":     okVerdict("urlscore", 100),
	}
	score, _, _ := s.score(results)
	assert.LessOrEqual(t, score, 100)

	results = map[string]entity.ProviderVerdict{
		"safebrowsing": okVerdict("safebrowsing", 0),
		"urlscore":     okVerdict("urlscore", 0),
	}
	score, _, _ = s.score(results)
	assert.GreaterOrEqual(t, score, 0)
}

func TestScoreSevereFindingFloorsConsensus(t *testing.T) {
	s := newTestService()

	// One high-weight phishing detection among eight clean answers: the
	// raw weighted average (26) would read as low risk, the floor keeps
	// it at medium.
	results := map[string]entity.ProviderVerdict{
		"safebrowsing": okVerdict("safebrowsing", 90, entity.FlagPhishing),
		"urlscore":     okVerdict("urlscore", 10),
		"phishtank":    okVerdict("phishtank", 10),
		"urlhaus":      okVerdict("urlhaus", 10),
		"webrep":       okVerdict("webrep", 10),
		"otx":          okVerdict("otx", 10),
		"iprep":        okVerdict("iprep", 10),
		"regional":     okVerdict("regional", 10),
		"breachwatch":  okVerdict("breachwatch", 10),
	}
	score, level, _ := s.score(results)
	assert.Equal(t, 40, score)
	assert.Equal(t, entity.RiskMedium, level)

	// A high contribution without any flag triggers the same floor.
	results["safebrowsing"] = okVerdict("safebrowsing", 95)
	score, level, _ = s.score(results)
	assert.Equal(t, 40, score)
	assert.Equal(t, entity.RiskMedium, level)

	// Without the detection the average stands on its own.
	results["safebrowsing"] = okVerdict("safebrowsing", 10)
	score, level, _ = s.score(results)
	assert.Equal(t, 10, score)
	assert.Equal(t, entity.RiskVeryLow, level)
}

func TestScoreSevereFloorCanBeDisabled(t *testing.T) {
	s := newTestService()
	s.policy.SevereFloor = 0

	results := map[string]entity.ProviderVerdict{
		"safebrowsing": okVerdict("safebrowsing", 90, entity.FlagPhishing),
		"urlscore":     okVerdict("urlscore", 10),
		"phishtank":    okVerdict("phishtank", 10),
		"urlhaus":      okVerdict("urlhaus", 10),
	}
	score, _, _ := s.score(results)
	assert.Equal(t, 35, score) // (90*0.20+10*0.45)/0.65
}

func TestScoreZeroWeightProviderHasNoInfluence(t *testing.T) {
	s := newTestService()
	s.policy.Weights["regional"] = 0

	// A silenced provider moves neither the average nor the severe floor.
	results := map[string]entity.ProviderVerdict{
		"safebrowsing": okVerdict("safebrowsing", 10),
		"regional":     okVerdict("regional", 100, entity.FlagMalicious),
	}
	score, level, _ := s.score(results)
	assert.Equal(t, 10, score)
	assert.Equal(t, entity.RiskVeryLow, level)
}

func TestScoreMonotonicInContribution(t *testing.T) {
	s := newTestService()

	prev := -1
	for _, value := range []int{0, 25, 50, 75, 100} {
		results := map[string]entity.ProviderVerdict{
			"safebrowsing": okVerdict("safebrowsing", value),
			"phishtank":    okVerdict("phishtank", 40),
			"urlhaus":      okVerdict("urlhaus", 40),
		}
		score, _, _ := s.score(results)
		assert.GreaterOrEqual(t, score, prev, "raising one contribution to %d lowered the score", value)
		prev = score
	}
}

func TestScoreUsesDefaultWeightForUnknownProvider(t *testing.T) {
	s := newTestService()

	// A provider outside the weight table still participates via the
	// default weight rather than being dropped.
	results := map[string]entity.ProviderVerdict{
		"newcomer": okVerdict("newcomer", 70),
	}
	score, _, _ := s.score(results)
	assert.Equal(t, 70, score)
}

func TestLevelThresholds(t *testing.T) {
	s := newTestService()

	tests := []struct {
		score    int
		expected entity.RiskLevel
	}{
		{0, entity.RiskVeryLow},
		{19, entity.RiskVeryLow},
		{20, entity.RiskLow},
		{39, entity.RiskLow},
		{40, entity.RiskMedium},
		{59, entity.RiskMedium},
		{60, entity.RiskHigh},
		{79, entity.RiskHigh},
		{80, entity.RiskVeryHigh},
		{100, entity.RiskVeryHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, s.levelFor(tt.score), "score %d", tt.score)
	}
}

func TestConfidenceGrowsWithSources(t *testing.T) {
	assert.Equal(t, 12, confidenceFor(1))
	assert.Equal(t, 36, confidenceFor(3))
	assert.Equal(t, 84, confidenceFor(7))

	// Capped below full certainty no matter how many sources agree.
	assert.Equal(t, 95, confidenceFor(8))
	assert.Equal(t, 95, confidenceFor(50))
}
