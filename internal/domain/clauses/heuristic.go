package clauses

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// LongClauseThreshold is the length in characters above which a block is flagged as long.
const LongClauseThreshold = 800

// HeuristicOverall is the overall analysis of a locally generated review.
const HeuristicOverall = "Heuristic review used (AI analysis unavailable). Notes are keyword based; verify flagged clauses manually."

// HeuristicSuggestions are the generic drafting prompts of a local review.
var HeuristicSuggestions = []string{
	"Add a limitation of liability cap.",
	"Clarify the termination cure period.",
	"Enhance confidentiality exceptions.",
	"Insert a dispute-resolution jurisdiction clause.",
	"Consider a data-protection addendum.",
}

type blockRule struct {
	re   *regexp.Regexp
	note string
}

// first match wins
var blockRules = []blockRule{
	{regexp.MustCompile(`(?i)indemn`), "Indemnity detected; ensure scope and caps are balanced."},
	{regexp.MustCompile(`(?i)terminat`), "Termination language; verify notice periods and cure rights."},
	{regexp.MustCompile(`(?i)confidential|non-disclosure`), "Confidentiality clause; check exceptions & duration."},
}

// AnalyzeLocally reviews blocks without calling a model. Output is
// deterministic and has exactly one analysis per block.
func AnalyzeLocally(blocks []string) DocumentAnalysisResult {
	analyses := make([]string, len(blocks))
	for i, b := range blocks {
		if strings.TrimSpace(b) == "" {
			analyses[i] = Placeholder(i)
			continue
		}
		analyses[i] = fmt.Sprintf("Clause %d: %s", i+1, blockNote(b))
	}
	suggestions := make([]string, len(HeuristicSuggestions))
	copy(suggestions, HeuristicSuggestions)

	return DocumentAnalysisResult{
		OverallAnalysis: HeuristicOverall,
		BlockAnalyses:   analyses,
		Suggestions:     suggestions,
		Source:          SourceHeuristic,
	}
}

func blockNote(text string) string {
	for _, r := range blockRules {
		if r.re.MatchString(text) {
			return r.note
		}
	}
	if utf8.RuneCountInString(text) > LongClauseThreshold {
		return "Long clause; consider splitting for clarity."
	}
	return "Standard clause."
}

type clauseRule struct {
	re    *regexp.Regexp
	ctype string
	level RiskLevel
}

var clauseRules = []clauseRule{
	{regexp.MustCompile(`(?i)unlimited liability|uncapped|without limit`), "Indemnification & Liability", RiskUnavoidable},
	{regexp.MustCompile(`(?i)indemn`), "Indemnification & Liability", RiskHigh},
	{regexp.MustCompile(`(?i)liabilit`), "Indemnification & Liability", RiskMedium},
	{regexp.MustCompile(`(?i)terminat`), "Term & Termination", RiskMedium},
	{regexp.MustCompile(`(?i)confidential|non-disclosure`), "Confidentiality", RiskMedium},
	{regexp.MustCompile(`(?i)arbitrat|jurisdiction|dispute`), "Dispute Resolution & Jurisdiction", RiskLow},
	{regexp.MustCompile(`(?i)governed by|governing law`), "Governing Law", RiskLow},
	{regexp.MustCompile(`(?i)payment|invoice|\bfees?\b`), "Consideration & Payment", RiskLow},
	{regexp.MustCompile(`(?i)personal data|data protection|gdpr`), "Data Protection", RiskMedium},
}

// LocalClauses segments text and classifies each clause by keyword. Used only
// when a caller explicitly opts into a local fallback for full analysis.
func LocalClauses(text string) []ClauseRecord {
	segments := SplitClauses(text)
	if len(segments) == 0 {
		if t := strings.TrimSpace(text); t != "" {
			segments = []string{t}
		}
	}

	out := make([]ClauseRecord, 0, len(segments))
	for _, s := range segments {
		ctype, level := "General", RiskLow
		for _, r := range clauseRules {
			if r.re.MatchString(s) {
				ctype, level = r.ctype, r.level
				break
			}
		}
		out = append(out, ClauseRecord{
			Text:       s,
			ClauseType: ctype,
			RiskLevel:  level,
			RiskBand:   level.Band(),
		})
	}
	return out
}
