// Package patterns finds finding signatures that recur across accounts.
package patterns

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cloudvet/cloudvet/types"
)

// DefaultMinFraction is the default fraction of assessed accounts a
// signature must appear in before it is flagged as systemic
const DefaultMinFraction = 0.3

// Detect groups all findings across the batch's assessed results
// (SUCCEEDED or PARTIAL) by normalized signature and returns every
// signature seen in at least ceil(minFraction × accountsConsidered)
// distinct accounts. FAILED and CANCELLED accounts contribute nothing
// and do not count toward the denominator.
//
// Output is ordered by severity, ties broken by the earliest
// contributing account in batch order, so detection is deterministic.
func Detect(batch *types.ScanBatch, minFraction float64) ([]types.Pattern, error) {
	if minFraction < 0 || minFraction > 1 {
		return nil, fmt.Errorf("min occurrence fraction must be in [0,1], got %v", minFraction)
	}

	considered := batch.Assessed()
	if len(considered) == 0 {
		return nil, nil
	}

	threshold := int(math.Ceil(minFraction * float64(len(considered))))
	if threshold < 1 {
		threshold = 1
	}

	groups := groupBySignature(considered)

	var patterns []types.Pattern
	for _, g := range groups {
		if len(g.accountIDs) < threshold {
			continue
		}
		patterns = append(patterns, types.Pattern{
			Signature:  g.signature,
			Service:    g.service,
			Title:      g.title,
			AccountIDs: g.accountIDs,
			Severity:   g.severity,
			Count:      g.count,
		})
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		si, sj := patterns[i].Severity.Rank(), patterns[j].Severity.Rank()
		if si != sj {
			return si > sj
		}
		return groups[patterns[i].Signature].firstAccount < groups[patterns[j].Signature].firstAccount
	})

	return patterns, nil
}

type group struct {
	signature    string
	service      string
	title        string
	accountIDs   []string // distinct, in batch order
	severity     types.Severity
	count        int
	firstAccount int // index into the assessed slice
}

func groupBySignature(results []types.ScanResult) map[string]*group {
	groups := make(map[string]*group)

	for idx, result := range results {
		seen := make(map[string]bool)
		for _, f := range result.Findings {
			sig := f.Signature()
			g, ok := groups[sig]
			if !ok {
				g = &group{
					signature:    sig,
					service:      strings.ToLower(f.Service),
					title:        f.Title,
					severity:     f.Severity,
					firstAccount: idx,
				}
				groups[sig] = g
			}
			g.count++
			if f.Severity.Rank() > g.severity.Rank() {
				g.severity = f.Severity
			}
			if !seen[sig] {
				seen[sig] = true
				g.accountIDs = append(g.accountIDs, result.AccountID)
			}
		}
	}

	return groups
}
