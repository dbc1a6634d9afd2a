package clauses

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeClauses_Coercion(t *testing.T) {
	raw := `{"clauses": [
		{"text": "Each party shall indemnify the other.", "clause_type": "Indemnification & Liability", "risk_level": "High", "anomaly_score": 0.456},
		{"text": "Payment within 30 days.", "clause_type": "Consideration & Payment", "risk_level": "high", "anomaly_score": 1.7},
		{"text": "Unlimited liability applies.", "risk_level": "Unavoidable", "anomaly_score": -3},
		{"text": "Notices by email.", "clause_type": "Notices", "anomaly_score": "0.25"},
		{"text": "Governed by Indian law.", "risk_level": "Medium", "anomaly_score": "n/a"},
		{"text": "", "risk_level": "High"},
		{"clause_type": "Confidentiality"},
		"not an object"
	]}`

	got, err := NormalizeClauses(raw)
	require.NoError(t, err)
	require.Len(t, got, 5)

	assert.Equal(t, RiskHigh, got[0].RiskLevel)
	assert.Equal(t, "High Risk", got[0].RiskBand)
	assert.Equal(t, 0.46, got[0].AnomalyScore)

	// case-sensitive mapping
	assert.Equal(t, RiskLow, got[1].RiskLevel)
	assert.Equal(t, 1.0, got[1].AnomalyScore)

	assert.Equal(t, RiskUnavoidable, got[2].RiskLevel)
	assert.Equal(t, "General", got[2].ClauseType)
	assert.Equal(t, 0.0, got[2].AnomalyScore)

	assert.Equal(t, RiskLow, got[3].RiskLevel)
	assert.Equal(t, 0.25, got[3].AnomalyScore)

	assert.Equal(t, RiskMedium, got[4].RiskLevel)
	assert.Equal(t, 0.0, got[4].AnomalyScore)
}

func TestNormalizeClauses_AnomalyAlwaysInRange(t *testing.T) {
	inputs := []string{`-1`, `0`, `0.5`, `1`, `2.5`, `1e9`, `"abc"`, `null`, `true`, `[]`, `{}`, `"-0.4"`}
	for _, in := range inputs {
		raw := fmt.Sprintf(`{"clauses":[{"text":"t","anomaly_score":%s}]}`, in)
		got, err := NormalizeClauses(raw)
		require.NoError(t, err, in)
		assert.GreaterOrEqual(t, got[0].AnomalyScore, 0.0, in)
		assert.LessOrEqual(t, got[0].AnomalyScore, 1.0, in)
	}
}

func TestNormalizeClauses_Fenced(t *testing.T) {
	raw := "```json\n[{\"text\": \"Fees are due monthly.\", \"risk_level\": \"Medium\"}]\n```"
	got, err := NormalizeClauses(raw)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, RiskMedium, got[0].RiskLevel)
}

func TestNormalizeClauses_ProsePrefix(t *testing.T) {
	raw := `Sure! Here is the analysis: {"clauses":[{"text":"Term is two years.","risk_level":"Low"}]} Hope it helps.`
	got, err := NormalizeClauses(raw)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestNormalizeClauses_EmptyIsNotAnError(t *testing.T) {
	for _, raw := range []string{`{"clauses": []}`, `[]`, `{"clauses": [{"text": "  "}]}`} {
		got, err := NormalizeClauses(raw)
		require.NoError(t, err, raw)
		assert.NotNil(t, got, raw)
		assert.Empty(t, got, raw)
	}
}

func TestNormalizeClauses_Errors(t *testing.T) {
	_, err := NormalizeClauses("I cannot help with that.")
	assert.ErrorIs(t, err, ErrUnparsableOutput)

	_, err = NormalizeClauses(`{"result": []}`)
	assert.ErrorIs(t, err, ErrUnparsableOutput)

	_, err = NormalizeClauses("")
	assert.ErrorIs(t, err, ErrUnparsableOutput)
}

func TestNormalizeDocument_LengthRepair(t *testing.T) {
	blocks := []string{"a", "b", "c"}
	raw := `{"overall_analysis": "Fine.", "block_analyses": ["Clause 1: ok"], "suggestions": ["Add cap"]}`

	got, err := NormalizeDocument(raw, blocks, 8)
	require.NoError(t, err)
	assert.Equal(t, []string{"Clause 1: ok", "Clause 2: Review required.", "Clause 3: Review required."}, got.BlockAnalyses)
	assert.Equal(t, "Fine.", got.OverallAnalysis)
	assert.Equal(t, []string{"Add cap"}, got.Suggestions)
	assert.Equal(t, SourceModel, got.Source)
}

func TestNormalizeDocument_OneAnalysisPerBlock(t *testing.T) {
	variants := []string{
		`[]`,
		`["one"]`,
		`["one", "two", "three", "four", "five", "six", "seven"]`,
		`[null, 3, {"analysis": "obj"}, ""]`,
	}
	for n := 0; n <= 6; n++ {
		blocks := make([]string, n)
		for _, v := range variants {
			raw := fmt.Sprintf(`{"block_analyses": %s}`, v)
			got, err := NormalizeDocument(raw, blocks, 8)
			require.NoError(t, err)
			assert.Len(t, got.BlockAnalyses, n, "n=%d variant=%s", n, v)
		}
	}
}

func TestParseDocument_SuggestionsKeepOrder(t *testing.T) {
	got, err := ParseDocument(`{"block_analyses": [], "suggestions": ["Add cap", "", 5, {"x": 1}, " Add venue "]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Add cap", "", "Add venue"}, got.Suggestions)
}

func TestNormalizeDocument_Defaults(t *testing.T) {
	sugg := make([]string, 12)
	for i := range sugg {
		sugg[i] = fmt.Sprintf(`"s%d"`, i)
	}
	raw := fmt.Sprintf(`{"block_analyses": [{"analysis": "from object"}, 42], "suggestions": [%s]}`, strings.Join(sugg, ","))

	got, err := NormalizeDocument(raw, []string{"x", "y"}, 8)
	require.NoError(t, err)
	assert.Equal(t, OverallUnavailable, got.OverallAnalysis)
	assert.Equal(t, []string{"from object", "Clause 2: Review required."}, got.BlockAnalyses)
	assert.Equal(t, []string{"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7"}, got.Suggestions)
}

func TestNormalizeDocument_SuggestionsNotSequence(t *testing.T) {
	got, err := NormalizeDocument(`{"block_analyses": ["a"], "suggestions": "add a cap"}`, []string{"x"}, 0)
	require.NoError(t, err)
	assert.NotNil(t, got.Suggestions)
	assert.Empty(t, got.Suggestions)
}

func TestNormalizeDocument_Failures(t *testing.T) {
	_, err := NormalizeDocument(`{"overall_analysis": "no blocks"}`, []string{"x"}, 8)
	assert.ErrorIs(t, err, ErrUnparsableOutput)

	_, err = NormalizeDocument(`{"block_analyses": "nope"}`, []string{"x"}, 8)
	assert.ErrorIs(t, err, ErrUnparsableOutput)

	_, err = NormalizeDocument(`<html>`, []string{"x"}, 8)
	assert.ErrorIs(t, err, ErrUnparsableOutput)
}

func TestRepairDocument_DoesNotMutateInput(t *testing.T) {
	in := DocumentAnalysisResult{BlockAnalyses: []string{"a", "b", "c"}, Suggestions: []string{"s"}}
	out := RepairDocument(in, 2, 8)

	assert.Equal(t, []string{"a", "b"}, out.BlockAnalyses)
	assert.Equal(t, []string{"a", "b", "c"}, in.BlockAnalyses)
}

func TestCheckShape(t *testing.T) {
	assert.NoError(t, CheckShape(DocumentAnalysisResult{BlockAnalyses: []string{"a"}}, 1))
	assert.ErrorIs(t, CheckShape(DocumentAnalysisResult{}, 2), ErrShapeMismatch)
}

func TestNormalizeDraftOptions(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want DraftOptions
	}{
		{
			name: "option keys",
			raw:  `{"option_a": {"title": "Strict", "text": "A text"}, "option_b": {"text": "B text"}}`,
			want: DraftOptions{OptionA: DraftOption{"Strict", "A text"}, OptionB: DraftOption{DefaultTitleB, "B text"}},
		},
		{
			name: "short keys with bare strings",
			raw:  `{"a": "A text", "b": "B text"}`,
			want: DraftOptions{OptionA: DraftOption{DefaultTitleA, "A text"}, OptionB: DraftOption{DefaultTitleB, "B text"}},
		},
		{
			name: "array of options",
			raw:  `[{"title": "One", "text": "1"}, {"title": "Two", "text": "2"}]`,
			want: DraftOptions{OptionA: DraftOption{"One", "1"}, OptionB: DraftOption{"Two", "2"}},
		},
		{
			name: "array wrapping object",
			raw:  `[{"option_a": "A text"}]`,
			want: DraftOptions{OptionA: DraftOption{DefaultTitleA, "A text"}, OptionB: DraftOption{Title: DefaultTitleB}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDraftOptions(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeDraftOptions_Empty(t *testing.T) {
	for _, raw := range []string{`{"option_a": {"title": "x"}, "option_b": ""}`, `{}`, `[1, 2]`, `"just a string"`} {
		_, err := NormalizeDraftOptions(raw)
		assert.ErrorIs(t, err, ErrEmptyResult, raw)
	}
	_, err := NormalizeDraftOptions("no json here")
	assert.ErrorIs(t, err, ErrUnparsableOutput)
}

func TestNormalizeImprovement(t *testing.T) {
	got, err := NormalizeImprovement(`{"improved_text": "Better clause."}`)
	require.NoError(t, err)
	assert.Equal(t, "Better clause.", got)

	got, err = NormalizeImprovement("The Supplier shall notify the Client in writing.")
	require.NoError(t, err)
	assert.Equal(t, "The Supplier shall notify the Client in writing.", got)

	_, err = NormalizeImprovement(`{"improved_text": ""}`)
	assert.ErrorIs(t, err, ErrEmptyResult)

	_, err = NormalizeImprovement("   ")
	assert.ErrorIs(t, err, ErrEmptyResult)
}
