// Package enrich generates optional narrative summaries for scan results.
package enrich

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/cloudvet/cloudvet/telemetry"
	"github.com/cloudvet/cloudvet/types"
)

const defaultModel = "gemini-1.5-flash"

// maxPromptFindings bounds how many findings the prompt carries
const maxPromptFindings = 10

// GeminiEnricher produces a short executive narrative for one account's
// scan result. Failures are reported to the caller, who treats
// enrichment as best effort.
type GeminiEnricher struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger *telemetry.Logger
}

// NewGeminiEnricher creates an enricher backed by the given API key
func NewGeminiEnricher(ctx context.Context, apiKey, modelName string) (*GeminiEnricher, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("enrichment requires an API key")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	if modelName == "" {
		modelName = defaultModel
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)

	return &GeminiEnricher{
		client: client,
		model:  model,
		logger: telemetry.NewLogger("enrich"),
	}, nil
}

// Enrich summarizes the result into a few sentences of narrative
func (e *GeminiEnricher) Enrich(ctx context.Context, result types.ScanResult) (string, error) {
	resp, err := e.model.GenerateContent(ctx, genai.Text(buildPrompt(result)))
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	if text == "" {
		return "", fmt.Errorf("empty response")
	}

	e.logger.WithContext(ctx).Debug().
		Str("account_id", result.AccountID).
		Int("prompt_findings", min(len(result.Findings), maxPromptFindings)).
		Msg("summary generated")

	return strings.TrimSpace(text), nil
}

// Close releases the underlying client
func (e *GeminiEnricher) Close() {
	e.client.Close()
}

// buildPrompt renders pillar scores and the highest severity findings
// into a deterministic prompt
func buildPrompt(result types.ScanResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a cloud assessment analyst. Summarize this AWS account assessment in 3-4 sentences for an executive audience. Name the weakest areas and the most urgent fixes.\n\n")
	fmt.Fprintf(&b, "Account: %s (%s)\nOverall score: %.1f/100\n\nPillar scores:\n", result.AccountName, result.AccountID, result.OverallScore)

	for _, pillar := range types.Pillars {
		if score, ok := result.PillarScores[pillar]; ok {
			fmt.Fprintf(&b, "- %s: %.1f (%d findings)\n", pillar, score.Score, score.FindingsCount)
		}
	}

	findings := topFindings(result.Findings, maxPromptFindings)
	if len(findings) > 0 {
		b.WriteString("\nTop findings:\n")
		for _, f := range findings {
			fmt.Fprintf(&b, "- [%s] %s: %s (%s)\n", f.Severity, f.Service, f.Title, f.Resource)
		}
	}

	return b.String()
}

// topFindings returns up to n findings ordered by severity rank
func topFindings(findings []types.Finding, n int) []types.Finding {
	sorted := make([]types.Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity.Rank() > sorted[j].Severity.Rank()
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
