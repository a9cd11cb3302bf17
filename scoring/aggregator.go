// Package scoring reduces classified findings into pillar scores.
package scoring

import (
	"fmt"
	"math"

	"github.com/cloudvet/cloudvet/types"
)

// Severity penalty weights
const (
	PenaltyCritical = 15.0
	PenaltyHigh     = 10.0
	PenaltyMedium   = 5.0
	PenaltyLow      = 2.0
)

// MaxScore is the ceiling every pillar starts from
const MaxScore = 100.0

// Penalty returns the score penalty for a severity
func Penalty(s types.Severity) float64 {
	switch s {
	case types.SeverityCritical:
		return PenaltyCritical
	case types.SeverityHigh:
		return PenaltyHigh
	case types.SeverityMedium:
		return PenaltyMedium
	case types.SeverityLow:
		return PenaltyLow
	}
	return 0
}

// Aggregate folds findings and their parallel classifications into
// per-pillar scores plus the overall score (mean of the six pillars,
// one decimal).
//
// Penalties are summed per pillar first and clamped into [0,100] only
// once at the end, so the result is independent of the order findings
// are supplied. A pillar with no findings scores 100; callers must
// check FindingsCount to tell verified-clean from no-evidence.
func Aggregate(findings []types.Finding, classifications []types.Classification) (map[types.Pillar]types.PillarScore, float64, error) {
	if len(findings) != len(classifications) {
		return nil, 0, fmt.Errorf("aggregate: %d findings but %d classifications", len(findings), len(classifications))
	}

	penalties := make(map[types.Pillar]float64, len(types.Pillars))
	grouped := make(map[types.Pillar][]types.Finding, len(types.Pillars))

	for i, f := range findings {
		pillar := classifications[i].Pillar
		if !pillar.Valid() {
			return nil, 0, fmt.Errorf("aggregate: finding %s classified into unknown pillar %q", f.ID, pillar)
		}
		penalties[pillar] += Penalty(f.Severity)
		grouped[pillar] = append(grouped[pillar], f)
	}

	scores := make(map[types.Pillar]types.PillarScore, len(types.Pillars))
	var sum float64
	for _, pillar := range types.Pillars {
		score := clamp(MaxScore-penalties[pillar], 0, MaxScore)
		scores[pillar] = types.PillarScore{
			Pillar:        pillar,
			Score:         score,
			FindingsCount: len(grouped[pillar]),
			Findings:      grouped[pillar],
		}
		sum += score
	}

	overall := round1(sum / float64(len(types.Pillars)))
	return scores, overall, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
