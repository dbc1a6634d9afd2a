package clauses

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultMaxSuggestions caps DocumentAnalysisResult.Suggestions.
	DefaultMaxSuggestions = 8

	// OverallUnavailable replaces a missing overall analysis.
	OverallUnavailable = "Analysis unavailable."

	DefaultTitleA = "Protective Approach"
	DefaultTitleB = "Balanced Approach"
)

// Placeholder is the block analysis used when the model skipped block i (0-based).
func Placeholder(i int) string {
	return fmt.Sprintf("Clause %d: Review required.", i+1)
}

// parseLoose decodes raw model output into a loosely typed tree. Markdown
// fences and chatter around the JSON payload are tolerated.
func parseLoose(raw string) (any, error) {
	s := stripFences(raw)
	if s == "" {
		return nil, ErrUnparsableOutput
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v, nil
	}

	// model sometimes prefixes prose, try the outermost object or array
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return nil, ErrUnparsableOutput
	}
	closer := "}"
	if s[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(s, closer)
	if end <= start {
		return nil, ErrUnparsableOutput
	}
	if err := json.Unmarshal([]byte(s[start:end+1]), &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsableOutput, err)
	}
	return v, nil
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// field returns the first present key of m.
func field(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringField(m map[string]any, keys ...string) string {
	v, ok := field(m, keys...)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// score coerces a loosely typed number into [0,1]; non-numeric becomes 0.
func score(v any) float64 {
	switch x := v.(type) {
	case float64:
		return round2(clamp01(x))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		return round2(clamp01(f))
	default:
		return 0
	}
}

// NormalizeClauses coerces clause-extraction output into ClauseRecords.
// Accepts {"clauses": [...]} or a bare array. Clauses without text are dropped,
// so a well-formed response may yield an empty, non-nil list.
func NormalizeClauses(raw string) ([]ClauseRecord, error) {
	tree, err := parseLoose(raw)
	if err != nil {
		return nil, err
	}

	var items []any
	switch t := tree.(type) {
	case map[string]any:
		arr, ok := t["clauses"].([]any)
		if !ok {
			return nil, fmt.Errorf("%w: missing clauses array", ErrUnparsableOutput)
		}
		items = arr
	case []any:
		items = t
	default:
		return nil, fmt.Errorf("%w: unexpected %T", ErrUnparsableOutput, tree)
	}

	out := make([]ClauseRecord, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		text := stringField(m, "text", "clause_text")
		if text == "" {
			continue
		}
		ctype := stringField(m, "clause_type", "clauseType", "type")
		if ctype == "" {
			ctype = "General"
		}
		level := ParseRiskLevel(stringField(m, "risk_level", "riskLevel", "risk"))
		var anomaly float64
		if v, ok := field(m, "anomaly_score", "anomalyScore"); ok {
			anomaly = score(v)
		}
		out = append(out, ClauseRecord{
			Text:         text,
			ClauseType:   ctype,
			RiskLevel:    level,
			RiskBand:     level.Band(),
			AnomalyScore: anomaly,
			Suggestion:   stringField(m, "improvement_suggestion", "suggestion"),
		})
	}
	return out, nil
}

// NormalizeDocument coerces document-analysis output for the given blocks.
// A parse failure or missing block_analyses returns ErrUnparsableOutput so the
// caller can fall back; anything else is repaired.
func NormalizeDocument(raw string, blocks []string, maxSuggestions int) (DocumentAnalysisResult, error) {
	res, err := ParseDocument(raw)
	if err != nil {
		return DocumentAnalysisResult{}, err
	}
	return RepairDocument(res, len(blocks), maxSuggestions), nil
}

// ParseDocument coerces document-analysis output without repairing lengths.
func ParseDocument(raw string) (DocumentAnalysisResult, error) {
	tree, err := parseLoose(raw)
	if err != nil {
		return DocumentAnalysisResult{}, err
	}
	m, ok := tree.(map[string]any)
	if !ok {
		return DocumentAnalysisResult{}, fmt.Errorf("%w: expected object, got %T", ErrUnparsableOutput, tree)
	}
	arr, ok := m["block_analyses"].([]any)
	if !ok {
		return DocumentAnalysisResult{}, fmt.Errorf("%w: missing block_analyses", ErrUnparsableOutput)
	}

	res := DocumentAnalysisResult{
		OverallAnalysis: stringField(m, "overall_analysis"),
		BlockAnalyses:   make([]string, len(arr)),
		Source:          SourceModel,
	}
	for i, v := range arr {
		switch x := v.(type) {
		case string:
			res.BlockAnalyses[i] = strings.TrimSpace(x)
		case map[string]any:
			res.BlockAnalyses[i] = stringField(x, "analysis", "text", "note")
		}
	}
	// non-string elements have no text form; strings are kept in order
	if sugg, ok := m["suggestions"].([]any); ok {
		for _, v := range sugg {
			if s, ok := v.(string); ok {
				res.Suggestions = append(res.Suggestions, strings.TrimSpace(s))
			}
		}
	}
	return res, nil
}

// CheckShape reports ErrShapeMismatch when the block count differs from n.
func CheckShape(res DocumentAnalysisResult, n int) error {
	if len(res.BlockAnalyses) != n {
		return fmt.Errorf("%w: got %d block analyses for %d blocks", ErrShapeMismatch, len(res.BlockAnalyses), n)
	}
	return nil
}

// RepairDocument enforces len(BlockAnalyses) == n, the suggestion cap and the
// overall analysis default. The input is not modified.
func RepairDocument(res DocumentAnalysisResult, n, maxSuggestions int) DocumentAnalysisResult {
	if maxSuggestions <= 0 {
		maxSuggestions = DefaultMaxSuggestions
	}
	if n < 0 {
		n = 0
	}

	blocks := make([]string, n)
	for i := range blocks {
		if i < len(res.BlockAnalyses) && strings.TrimSpace(res.BlockAnalyses[i]) != "" {
			blocks[i] = res.BlockAnalyses[i]
		} else {
			blocks[i] = Placeholder(i)
		}
	}

	suggestions := make([]string, 0, min(len(res.Suggestions), maxSuggestions))
	for i, s := range res.Suggestions {
		if i >= maxSuggestions {
			break
		}
		suggestions = append(suggestions, s)
	}

	overall := strings.TrimSpace(res.OverallAnalysis)
	if overall == "" {
		overall = OverallUnavailable
	}

	source := res.Source
	if source == "" {
		source = SourceModel
	}

	return DocumentAnalysisResult{
		OverallAnalysis: overall,
		BlockAnalyses:   blocks,
		Suggestions:     suggestions,
		Source:          source,
	}
}

// NormalizeDraftOptions accepts {option_a, option_b}, {a, b}, or a two element
// array of option objects. Bare strings get the default titles.
func NormalizeDraftOptions(raw string) (DraftOptions, error) {
	tree, err := parseLoose(raw)
	if err != nil {
		return DraftOptions{}, err
	}

	var src map[string]any
	switch t := tree.(type) {
	case []any:
		for _, el := range t {
			if c := pickOptions(el); c != nil {
				src = c
				break
			}
		}
		if src == nil && len(t) >= 2 && looksLikeOption(t[0]) && looksLikeOption(t[1]) {
			src = map[string]any{"option_a": t[0], "option_b": t[1]}
		}
	case map[string]any:
		if c := pickOptions(t); c != nil {
			src = c
		} else {
			src = t
		}
	}
	if src == nil {
		return DraftOptions{}, ErrEmptyResult
	}

	a, _ := field(src, "option_a", "a")
	b, _ := field(src, "option_b", "b")
	opts := DraftOptions{
		OptionA: toOption(a, DefaultTitleA),
		OptionB: toOption(b, DefaultTitleB),
	}
	if opts.OptionA.Text == "" && opts.OptionB.Text == "" {
		return DraftOptions{}, ErrEmptyResult
	}
	return opts, nil
}

func pickOptions(v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	if truthy(m["option_a"]) || truthy(m["option_b"]) {
		return m
	}
	if truthy(m["a"]) || truthy(m["b"]) {
		return map[string]any{"option_a": m["a"], "option_b": m["b"]}
	}
	return nil
}

func looksLikeOption(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	return truthy(m["text"]) || truthy(m["title"])
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	default:
		return true
	}
}

func toOption(v any, title string) DraftOption {
	switch x := v.(type) {
	case string:
		return DraftOption{Title: title, Text: strings.TrimSpace(x)}
	case map[string]any:
		t := stringField(x, "title")
		if t == "" {
			t = title
		}
		return DraftOption{Title: t, Text: stringField(x, "text")}
	default:
		return DraftOption{Title: title}
	}
}

// NormalizeImprovement extracts the rewritten clause from {"improved_text": ...}
// or falls back to the plain response text.
func NormalizeImprovement(raw string) (string, error) {
	if tree, err := parseLoose(raw); err == nil {
		switch t := tree.(type) {
		case map[string]any:
			if s := stringField(t, "improved_text", "text"); s != "" {
				return s, nil
			}
			return "", ErrEmptyResult
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s, nil
			}
			return "", ErrEmptyResult
		}
	}
	s := stripFences(raw)
	if s == "" {
		return "", ErrEmptyResult
	}
	return s, nil
}
