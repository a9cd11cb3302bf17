package types

import "strings"

// Severity is the ordinal risk classification of a finding
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Severities lists all severities from most to least severe
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// Rank returns a numeric rank for ordering (higher = more severe)
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// Valid reports whether s is one of the four known severities
func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// Pillar is one of the six fixed assessment categories
type Pillar string

const (
	PillarSecurity       Pillar = "security"
	PillarReliability    Pillar = "reliability"
	PillarPerformance    Pillar = "performance_efficiency"
	PillarCost           Pillar = "cost_optimization"
	PillarOperations     Pillar = "operational_excellence"
	PillarSustainability Pillar = "sustainability"
)

// Pillars is the closed set of assessment pillars, in report order
var Pillars = []Pillar{
	PillarSecurity,
	PillarReliability,
	PillarPerformance,
	PillarCost,
	PillarOperations,
	PillarSustainability,
}

// Valid reports whether p is one of the six fixed pillars
func (p Pillar) Valid() bool {
	for _, known := range Pillars {
		if p == known {
			return true
		}
	}
	return false
}

// Finding is one detected issue on one resource.
// Produced by a service scanner and never mutated afterwards.
type Finding struct {
	ID          string   `json:"id"`
	Service     string   `json:"service"`
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Resource    string   `json:"resource"`
	Description string   `json:"description,omitempty"`
	Remediation string   `json:"remediation,omitempty"`
	Pillar      Pillar   `json:"pillar,omitempty"` // optional pre-assignment by the scanner
}

// Signature returns the normalized identity of a finding used for
// cross-account pattern grouping: service plus title, case-insensitive,
// whitespace-collapsed.
func (f Finding) Signature() string {
	title := strings.Join(strings.Fields(strings.ToLower(f.Title)), " ")
	return strings.ToLower(f.Service) + "|" + title
}

// Classification is the result of classifying one finding
type Classification struct {
	Pillar     Pillar  `json:"pillar"`
	Confidence float64 `json:"confidence"` // in [0,1], 0.0 for fallback
	Rule       string  `json:"rule"`       // matched rule name, or "fallback"
}
