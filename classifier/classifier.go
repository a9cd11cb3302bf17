// Package classifier maps findings onto the six assessment pillars.
package classifier

import (
	"strings"

	"github.com/cloudvet/cloudvet/types"
)

// FallbackRule is the rule name reported when no rule matched
const FallbackRule = "fallback"

// PreassignedRule is the rule name reported when the scanner already
// assigned a pillar to the finding
const PreassignedRule = "preassigned"

// fallbackPillar is the deterministic guess for unmatched findings
const fallbackPillar = types.PillarOperations

// Classifier classifies findings against an ordered rule table.
// Classification is a pure function of the finding and the table, so
// identical input always yields identical output.
type Classifier struct {
	rules []Rule
}

// New returns a classifier using the built-in rule table
func New() *Classifier {
	return &Classifier{rules: defaultRules}
}

// NewWithRules returns a classifier with a custom table, for tests and
// callers with domain-specific rules
func NewWithRules(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify assigns exactly one pillar to the finding. It never fails:
// a finding with a pre-assigned valid pillar is passed through with
// full confidence, otherwise the most specific matching rule wins with
// declaration order breaking ties, and unmatched findings land on the
// fallback pillar with confidence 0.0.
func (c *Classifier) Classify(finding types.Finding) types.Classification {
	if finding.Pillar.Valid() {
		return types.Classification{
			Pillar:     finding.Pillar,
			Confidence: 1.0,
			Rule:       PreassignedRule,
		}
	}

	best := types.Classification{
		Pillar:     fallbackPillar,
		Confidence: 0.0,
		Rule:       FallbackRule,
	}
	bestSpecificity := 0

	for _, rule := range c.rules {
		specificity := matchSpecificity(finding, rule)
		if specificity > bestSpecificity {
			bestSpecificity = specificity
			best = types.Classification{
				Pillar:     rule.Pillar,
				Confidence: rule.Confidence,
				Rule:       rule.Name,
			}
		}
	}

	return best
}

// matchSpecificity scores how specifically a rule matches a finding.
// 0 means no match. A matched service constraint counts more than a
// keyword hit so service-scoped rules beat generic keyword rules.
func matchSpecificity(finding types.Finding, rule Rule) int {
	service := strings.ToLower(finding.Service)
	title := strings.ToLower(finding.Title)

	serviceScore := 0
	if len(rule.Services) > 0 {
		matched := false
		for _, s := range rule.Services {
			if service == s {
				matched = true
				break
			}
		}
		if !matched {
			return 0
		}
		serviceScore = 2
	}

	keywordHits := 0
	for _, kw := range rule.Keywords {
		if strings.Contains(title, kw) {
			keywordHits++
		}
	}
	if keywordHits == 0 {
		return 0
	}

	return serviceScore + keywordHits
}
