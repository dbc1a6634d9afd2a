package clauses

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeLocally_Cascade(t *testing.T) {
	blocks := []string{
		"The Vendor shall INDEMNIFY the Client and may terminate on notice.",
		"Either party may terminate this Agreement with 30 days notice.",
		"All Confidential Information remains the property of the discloser.",
		strings.Repeat("word ", 200),
		"The Parties agree as follows.",
	}

	got := AnalyzeLocally(blocks)

	assert.Equal(t, []string{
		"Clause 1: Indemnity detected; ensure scope and caps are balanced.",
		"Clause 2: Termination language; verify notice periods and cure rights.",
		"Clause 3: Confidentiality clause; check exceptions & duration.",
		"Clause 4: Long clause; consider splitting for clarity.",
		"Clause 5: Standard clause.",
	}, got.BlockAnalyses)
	assert.Equal(t, HeuristicOverall, got.OverallAnalysis)
	assert.Equal(t, HeuristicSuggestions, got.Suggestions)
	assert.Equal(t, SourceHeuristic, got.Source)
}

func TestAnalyzeLocally_LengthThresholdIsExclusive(t *testing.T) {
	got := AnalyzeLocally([]string{strings.Repeat("a", LongClauseThreshold), strings.Repeat("a", LongClauseThreshold+1)})
	assert.Equal(t, "Clause 1: Standard clause.", got.BlockAnalyses[0])
	assert.Equal(t, "Clause 2: Long clause; consider splitting for clarity.", got.BlockAnalyses[1])
}

func TestAnalyzeLocally_BlankBlockGetsPlaceholder(t *testing.T) {
	got := AnalyzeLocally([]string{"Fees are due monthly.", "  ", "Terminate on notice."})

	assert.Equal(t, []string{
		"Clause 1: Standard clause.",
		"Clause 2: Review required.",
		"Clause 3: Termination language; verify notice periods and cure rights.",
	}, got.BlockAnalyses)
}

func TestAnalyzeLocally_Deterministic(t *testing.T) {
	blocks := []string{"indemnity", "termination", "other"}
	a, err := json.Marshal(AnalyzeLocally(blocks))
	require.NoError(t, err)
	b, err := json.Marshal(AnalyzeLocally(blocks))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAnalyzeLocally_SuggestionsAreCopied(t *testing.T) {
	got := AnalyzeLocally([]string{"x"})
	got.Suggestions[0] = "changed"
	assert.NotEqual(t, "changed", HeuristicSuggestions[0])
}

func TestAnalyzeLocally_Empty(t *testing.T) {
	got := AnalyzeLocally(nil)
	assert.Empty(t, got.BlockAnalyses)
	assert.NotNil(t, got.BlockAnalyses)
}

func TestLocalClauses(t *testing.T) {
	text := "1. The Supplier accepts unlimited liability for data loss.\n2. The Client shall indemnify the Supplier against claims.\n\nThis agreement is governed by the laws of India."

	got := LocalClauses(text)
	require.Len(t, got, 3)
	assert.Equal(t, RiskUnavoidable, got[0].RiskLevel)
	assert.Equal(t, "Indemnification & Liability", got[1].ClauseType)
	assert.Equal(t, RiskHigh, got[1].RiskLevel)
	assert.Equal(t, "Governing Law", got[2].ClauseType)
	assert.Equal(t, "Low Risk", got[2].RiskBand)
}

func TestLocalClauses_ShortText(t *testing.T) {
	got := LocalClauses("Payment due.")
	require.Len(t, got, 1)
	assert.Equal(t, "Consideration & Payment", got[0].ClauseType)
	assert.Empty(t, LocalClauses("   "))
}
