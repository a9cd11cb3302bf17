package scoring

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudvet/cloudvet/types"
)

func classify(findings []types.Finding, pillars []types.Pillar) []types.Classification {
	cls := make([]types.Classification, len(findings))
	for i := range findings {
		cls[i] = types.Classification{Pillar: pillars[i], Confidence: 0.9, Rule: "test"}
	}
	return cls
}

func TestAggregateZeroFindings(t *testing.T) {
	scores, overall, err := Aggregate(nil, nil)
	require.NoError(t, err)

	require.Len(t, scores, 6)
	for _, pillar := range types.Pillars {
		assert.Equal(t, 100.0, scores[pillar].Score)
		assert.Equal(t, 0, scores[pillar].FindingsCount)
	}
	assert.Equal(t, 100.0, overall)
}

func TestAggregateSingleCritical(t *testing.T) {
	findings := []types.Finding{{ID: "f1", Severity: types.SeverityCritical}}
	cls := classify(findings, []types.Pillar{types.PillarSecurity})

	scores, overall, err := Aggregate(findings, cls)
	require.NoError(t, err)

	assert.Equal(t, 85.0, scores[types.PillarSecurity].Score)
	assert.Equal(t, 1, scores[types.PillarSecurity].FindingsCount)
	for _, pillar := range types.Pillars {
		if pillar == types.PillarSecurity {
			continue
		}
		assert.Equal(t, 100.0, scores[pillar].Score, string(pillar))
	}
	// (85 + 5*100) / 6 = 97.5
	assert.Equal(t, 97.5, overall)
}

func TestAggregateClampsOnceAfterSummation(t *testing.T) {
	// 8 criticals = 120 penalty, clamped to 0, not to per-finding floors
	var findings []types.Finding
	var pillars []types.Pillar
	for i := 0; i < 8; i++ {
		findings = append(findings, types.Finding{Severity: types.SeverityCritical})
		pillars = append(pillars, types.PillarSecurity)
	}

	scores, _, err := Aggregate(findings, classify(findings, pillars))
	require.NoError(t, err)
	assert.Equal(t, 0.0, scores[types.PillarSecurity].Score)
}

func TestAggregateOrderIndependent(t *testing.T) {
	findings := []types.Finding{
		{ID: "a", Severity: types.SeverityCritical},
		{ID: "b", Severity: types.SeverityHigh},
		{ID: "c", Severity: types.SeverityMedium},
		{ID: "d", Severity: types.SeverityLow},
		{ID: "e", Severity: types.SeverityHigh},
		{ID: "f", Severity: types.SeverityCritical},
	}
	pillars := []types.Pillar{
		types.PillarSecurity,
		types.PillarSecurity,
		types.PillarCost,
		types.PillarReliability,
		types.PillarCost,
		types.PillarReliability,
	}

	base, baseOverall, err := Aggregate(findings, classify(findings, pillars))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 20; trial++ {
		perm := rng.Perm(len(findings))
		shuffledF := make([]types.Finding, len(findings))
		shuffledP := make([]types.Pillar, len(pillars))
		for i, j := range perm {
			shuffledF[i] = findings[j]
			shuffledP[i] = pillars[j]
		}

		scores, overall, err := Aggregate(shuffledF, classify(shuffledF, shuffledP))
		require.NoError(t, err)
		assert.Equal(t, baseOverall, overall)
		for _, pillar := range types.Pillars {
			assert.Equal(t, base[pillar].Score, scores[pillar].Score, string(pillar))
			assert.Equal(t, base[pillar].FindingsCount, scores[pillar].FindingsCount, string(pillar))
		}
	}
}

func TestAggregateSeverityWeights(t *testing.T) {
	tests := []struct {
		severity types.Severity
		want     float64
	}{
		{types.SeverityCritical, 85.0},
		{types.SeverityHigh, 90.0},
		{types.SeverityMedium, 95.0},
		{types.SeverityLow, 98.0},
	}

	for _, tt := range tests {
		findings := []types.Finding{{Severity: tt.severity}}
		scores, _, err := Aggregate(findings, classify(findings, []types.Pillar{types.PillarPerformance}))
		require.NoError(t, err)
		assert.Equal(t, tt.want, scores[types.PillarPerformance].Score, string(tt.severity))
	}
}

func TestAggregateLengthMismatch(t *testing.T) {
	_, _, err := Aggregate([]types.Finding{{}}, nil)
	assert.Error(t, err)
}

func TestAggregateUnknownPillar(t *testing.T) {
	findings := []types.Finding{{ID: "x", Severity: types.SeverityLow}}
	cls := []types.Classification{{Pillar: "nope"}}
	_, _, err := Aggregate(findings, cls)
	assert.Error(t, err)
}

func TestAggregateOverallRounding(t *testing.T) {
	// One LOW finding: (98 + 500) / 6 = 99.666... -> 99.7
	findings := []types.Finding{{Severity: types.SeverityLow}}
	_, overall, err := Aggregate(findings, classify(findings, []types.Pillar{types.PillarCost}))
	require.NoError(t, err)
	assert.Equal(t, 99.7, overall)
}
