// Package report assembles renderer-agnostic report models. It performs
// no formatting or layout; document renderers consume the model.
package report

import (
	"math"
	"sort"

	"github.com/cloudvet/cloudvet/types"
)

// MaxFindingsPerGroup caps each severity group to bound report size
const MaxFindingsPerGroup = 25

// Remediation horizons, fixed by severity
const (
	HorizonImmediate  = "0-7 days"   // CRITICAL
	HorizonShortTerm  = "1-4 weeks"  // HIGH
	HorizonMediumTerm = "1-3 months" // MEDIUM
	HorizonLongTerm   = "3-6 months" // LOW
)

// ReportModel is the structured output of an assessment, for one
// account or a whole batch
type ReportModel struct {
	BatchID             string              `json:"batch_id,omitempty"`
	Summary             ExecutiveSummary    `json:"summary"`
	PillarScores        []types.PillarScore `json:"pillar_scores"`
	FindingsBySeverity  []SeverityGroup     `json:"findings_by_severity"`
	Roadmap             []RoadmapPhase      `json:"roadmap"`
	Patterns            []types.Pattern     `json:"patterns,omitempty"`
	Comparison          []AccountScore      `json:"comparison,omitempty"`
	FailedAccounts      []FailedAccount     `json:"failed_accounts,omitempty"`
	Enrichment          string              `json:"enrichment,omitempty"`
	EnrichmentAvailable bool                `json:"enrichment_available"`
}

// ExecutiveSummary carries the headline numbers
type ExecutiveSummary struct {
	AccountsAssessed int          `json:"accounts_assessed"`
	OverallScore     float64      `json:"overall_score"`
	BestPillar       types.Pillar `json:"best_pillar"`
	WorstPillar      types.Pillar `json:"worst_pillar"`
	CriticalCount    int          `json:"critical_count"`
	HighCount        int          `json:"high_count"`
	TotalFindings    int          `json:"total_findings"`
}

// SeverityGroup holds findings of one severity, capped at
// MaxFindingsPerGroup; TotalCount preserves the uncapped count
type SeverityGroup struct {
	Severity   types.Severity  `json:"severity"`
	TotalCount int             `json:"total_count"`
	Findings   []types.Finding `json:"findings"`
}

// RoadmapPhase is one time horizon of the remediation roadmap. Every
// finding lands in exactly one phase, decided solely by severity.
type RoadmapPhase struct {
	Horizon  string          `json:"horizon"`
	Severity types.Severity  `json:"severity"`
	Findings []types.Finding `json:"findings"`
}

// AccountScore is one row of the per-account comparison
type AccountScore struct {
	AccountID    string           `json:"account_id"`
	AccountName  string           `json:"account_name"`
	OverallScore float64          `json:"overall_score"`
	Status       types.ScanStatus `json:"status"`
	Delta        *float64         `json:"delta,omitempty"` // vs previous batch, when known
}

// FailedAccount records why an account produced no assessment
type FailedAccount struct {
	AccountID   string           `json:"account_id"`
	AccountName string           `json:"account_name"`
	Status      types.ScanStatus `json:"status"`
	Error       string           `json:"error,omitempty"`
}

// Option adjusts batch assembly
type Option func(*assembleOptions)

type assembleOptions struct {
	previous *types.ScanBatch
}

// WithPreviousBatch adds score deltas against an earlier batch of the
// same accounts to the comparison section
func WithPreviousBatch(prev *types.ScanBatch) Option {
	return func(o *assembleOptions) { o.previous = prev }
}

// AssembleBatch builds the report model for a whole batch. A report is
// always produced, even when every account failed; failed accounts are
// listed with their errors and excluded from scores and patterns.
func AssembleBatch(batch *types.ScanBatch, patterns []types.Pattern, opts ...Option) *ReportModel {
	var options assembleOptions
	for _, opt := range opts {
		opt(&options)
	}

	assessed := batch.Assessed()
	findings := collectFindings(assessed)

	model := &ReportModel{
		BatchID:            batch.ID,
		Summary:            summarize(assessed, findings),
		PillarScores:       meanPillarScores(assessed),
		FindingsBySeverity: groupBySeverity(findings),
		Roadmap:            buildRoadmap(findings),
		Patterns:           patterns,
		Comparison:         compareAccounts(batch, options.previous),
		FailedAccounts:     failedAccounts(batch),
	}

	for _, r := range assessed {
		if r.Enrichment != "" {
			model.Enrichment = r.Enrichment
			model.EnrichmentAvailable = true
			break
		}
	}

	return model
}

// AssembleResult builds the report model for a single account scan
func AssembleResult(result types.ScanResult) *ReportModel {
	batch := &types.ScanBatch{Results: []types.ScanResult{result}}
	model := AssembleBatch(batch, nil)
	model.BatchID = ""
	model.Comparison = nil
	return model
}

func collectFindings(assessed []types.ScanResult) []types.Finding {
	var findings []types.Finding
	for _, r := range assessed {
		findings = append(findings, r.Findings...)
	}
	return findings
}

func summarize(assessed []types.ScanResult, findings []types.Finding) ExecutiveSummary {
	summary := ExecutiveSummary{
		AccountsAssessed: len(assessed),
		TotalFindings:    len(findings),
	}

	for _, f := range findings {
		switch f.Severity {
		case types.SeverityCritical:
			summary.CriticalCount++
		case types.SeverityHigh:
			summary.HighCount++
		}
	}

	if len(assessed) == 0 {
		return summary
	}

	var sum float64
	for _, r := range assessed {
		sum += r.OverallScore
	}
	summary.OverallScore = math.Round(sum/float64(len(assessed))*10) / 10

	pillarMeans := pillarScoreMeans(assessed)
	summary.BestPillar = types.Pillars[0]
	summary.WorstPillar = types.Pillars[0]
	for _, pillar := range types.Pillars {
		if pillarMeans[pillar] > pillarMeans[summary.BestPillar] {
			summary.BestPillar = pillar
		}
		if pillarMeans[pillar] < pillarMeans[summary.WorstPillar] {
			summary.WorstPillar = pillar
		}
	}

	return summary
}

func pillarScoreMeans(assessed []types.ScanResult) map[types.Pillar]float64 {
	means := make(map[types.Pillar]float64, len(types.Pillars))
	if len(assessed) == 0 {
		return means
	}
	for _, pillar := range types.Pillars {
		var sum float64
		for _, r := range assessed {
			sum += r.PillarScores[pillar].Score
		}
		means[pillar] = sum / float64(len(assessed))
	}
	return means
}

// meanPillarScores produces the six pillar rows shown in the report:
// the cross-account mean score and total finding counts per pillar
func meanPillarScores(assessed []types.ScanResult) []types.PillarScore {
	means := pillarScoreMeans(assessed)

	scores := make([]types.PillarScore, 0, len(types.Pillars))
	for _, pillar := range types.Pillars {
		count := 0
		for _, r := range assessed {
			count += r.PillarScores[pillar].FindingsCount
		}
		scores = append(scores, types.PillarScore{
			Pillar:        pillar,
			Score:         math.Round(means[pillar]*10) / 10,
			FindingsCount: count,
		})
	}
	return scores
}

func groupBySeverity(findings []types.Finding) []SeverityGroup {
	groups := make([]SeverityGroup, 0, len(types.Severities))
	for _, severity := range types.Severities {
		group := SeverityGroup{Severity: severity}
		for _, f := range findings {
			if f.Severity != severity {
				continue
			}
			group.TotalCount++
			if len(group.Findings) < MaxFindingsPerGroup {
				group.Findings = append(group.Findings, f)
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// buildRoadmap partitions findings into the four fixed horizons by
// severity. Every finding appears in exactly one phase.
func buildRoadmap(findings []types.Finding) []RoadmapPhase {
	phases := []RoadmapPhase{
		{Horizon: HorizonImmediate, Severity: types.SeverityCritical},
		{Horizon: HorizonShortTerm, Severity: types.SeverityHigh},
		{Horizon: HorizonMediumTerm, Severity: types.SeverityMedium},
		{Horizon: HorizonLongTerm, Severity: types.SeverityLow},
	}

	byseverity := make(map[types.Severity]int, len(phases))
	for i, phase := range phases {
		byseverity[phase.Severity] = i
	}

	for _, f := range findings {
		if idx, ok := byseverity[f.Severity]; ok {
			phases[idx].Findings = append(phases[idx].Findings, f)
		}
	}

	return phases
}

func compareAccounts(batch *types.ScanBatch, previous *types.ScanBatch) []AccountScore {
	var prevScores map[string]float64
	if previous != nil {
		prevScores = make(map[string]float64)
		for _, r := range previous.Results {
			if r.Status.Assessed() {
				prevScores[r.AccountID] = r.OverallScore
			}
		}
	}

	rows := make([]AccountScore, 0, len(batch.Results))
	for _, r := range batch.Results {
		row := AccountScore{
			AccountID:   r.AccountID,
			AccountName: r.AccountName,
			Status:      r.Status,
		}
		if r.Status.Assessed() {
			row.OverallScore = r.OverallScore
			if prev, ok := prevScores[r.AccountID]; ok {
				delta := math.Round((r.OverallScore-prev)*10) / 10
				row.Delta = &delta
			}
		}
		rows = append(rows, row)
	}

	// Worst accounts first for at-a-glance triage; assessed before failed
	sort.SliceStable(rows, func(i, j int) bool {
		ai, aj := rows[i].Status.Assessed(), rows[j].Status.Assessed()
		if ai != aj {
			return ai
		}
		return rows[i].OverallScore < rows[j].OverallScore
	})

	return rows
}

func failedAccounts(batch *types.ScanBatch) []FailedAccount {
	var failed []FailedAccount
	for _, r := range batch.Results {
		if r.Status.Assessed() {
			continue
		}
		failed = append(failed, FailedAccount{
			AccountID:   r.AccountID,
			AccountName: r.AccountName,
			Status:      r.Status,
			Error:       r.Error,
		})
	}
	return failed
}
