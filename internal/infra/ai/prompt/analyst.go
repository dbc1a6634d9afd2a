package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/juriscope/internal/domain/clauses"
)

// System provides strict directions for JSON output.
const System = `You are an expert contract analyst. When asked for JSON you must produce one valid JSON object only (no markdown, no commentary, no code fences).`

// ClauseExtraction builds the full-analysis prompt with the clause taxonomy.
func ClauseExtraction(text, language string) string {
	if language == "" {
		language = "English"
	}
	return fmt.Sprintf(`Segment the contract below into clauses and classify each one.

Requirements:
- Output a single JSON object following the schema.
- clause_type must be one of: %s.
- risk_level must be exactly one of: Low, Medium, High, Unavoidable.
- anomaly_score is a number between 0 and 1 describing how unusual the clause is compared to standard drafting.
- improvement_suggestion is ONE concise sentence focused on risk mitigation and clarity.
- Keep clause text verbatim.

Schema:
{
  "clauses": [
    {
      "text": "<string>",
      "clause_type": "<string>",
      "risk_level": "<Low|Medium|High|Unavoidable>",
      "anomaly_score": 0.0,
      "improvement_suggestion": "<string>"
    }
  ]
}

Contract language: %s
Contract text:
"""
%s
"""`, strings.Join(clauses.ClauseTypes, ", "), language, text)
}

// DocumentReview builds the multi-block prompt; blocks are numbered from 1.
func DocumentReview(blocks []string, maxSuggestions int) string {
	var b strings.Builder
	for i, blk := range blocks {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, blk)
	}
	return fmt.Sprintf(`Review the contract below. It is split into %d numbered blocks.

Requirements:
- Output a single JSON object following the schema.
- block_analyses must contain exactly %d strings, one per block, in the same order, each starting with "Clause <n>: ".
- suggestions holds at most %d short imperative drafting suggestions.

Schema:
{
  "overall_analysis": "<string>",
  "block_analyses": ["<string>"],
  "suggestions": ["<string>"]
}

Blocks:
%s`, len(blocks), len(blocks), maxSuggestions, b.String())
}

// DraftClause asks for two alternative clauses for a drafting request.
func DraftClause(request string) string {
	return fmt.Sprintf(`Draft a contract clause for the request below and give two alternatives: a protective version favouring our side and a balanced version.

Schema:
{
  "option_a": {"title": "Protective Approach", "text": "<clause text>"},
  "option_b": {"title": "Balanced Approach", "text": "<clause text>"}
}

Request: %s`, request)
}

// ImproveClause asks for a rewritten clause.
func ImproveClause(text string) string {
	return fmt.Sprintf(`Rewrite the clause below so it is clearer and mitigates risk while keeping its intent.

Schema:
{"improved_text": "<string>"}

Clause: "%s"`, text)
}
