package clauses

import (
	"regexp"
	"strings"
)

// numbered heading ("\n 3. ", "\n4) ") or a blank line
var clauseBreak = regexp.MustCompile(`\n\s*([0-9]+[.)])\s+|\n\s*\n+`)

var lineBreak = regexp.MustCompile(`\r?\n`)

// minClauseWords is the word count a segment must exceed to count as a clause.
const minClauseWords = 3

// SplitClauses segments contract text on numbered headings and blank lines.
// A heading is prefixed to the segment that follows it; fragments of three
// words or fewer are dropped.
func SplitClauses(text string) []string {
	var (
		out     []string
		heading string
		prev    int
	)
	take := func(piece string) {
		p := strings.TrimSpace(piece)
		if len(strings.Fields(p)) <= minClauseWords {
			return
		}
		if heading != "" {
			p = heading + " " + p
			heading = ""
		}
		out = append(out, p)
	}

	for _, m := range clauseBreak.FindAllStringSubmatchIndex(text, -1) {
		take(text[prev:m[0]])
		if m[2] >= 0 {
			heading = text[m[2]:m[3]]
		}
		prev = m[1]
	}
	take(text[prev:])
	return out
}

// SplitBlocks splits pasted text into one block per non-empty line.
func SplitBlocks(text string) []string {
	var out []string
	for _, l := range lineBreak.Split(text, -1) {
		if t := strings.TrimSpace(l); t != "" {
			out = append(out, t)
		}
	}
	return out
}
