package middleware

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Input validation and sanitization utilities

const (
	// MaxTextChars bounds a pasted contract.
	MaxTextChars = 200_000
	// MaxBlocks bounds a document analysis request.
	MaxBlocks = 500
	// MaxPromptChars bounds drafting and improve requests.
	MaxPromptChars = 4_000
)

var languagePattern = regexp.MustCompile(`^[\p{L}][\p{L}\p{M} ()-]{0,47}$`)

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateText sanitizes free text and enforces a length cap in characters.
func ValidateText(text string, maxChars int) (string, error) {
	text = SanitizeString(text)
	if text == "" {
		return "", fmt.Errorf("text cannot be empty")
	}
	if n := utf8.RuneCountInString(text); n > maxChars {
		return "", fmt.Errorf("text too long: %d characters (max %d)", n, maxChars)
	}
	return text, nil
}

// ValidateBlocks sanitizes blocks in place. Blank blocks keep their position
// so analyses stay numbered against the input; at least one must have content.
func ValidateBlocks(blocks []string) ([]string, error) {
	if len(blocks) > MaxBlocks {
		return nil, fmt.Errorf("too many blocks: %d (max %d)", len(blocks), MaxBlocks)
	}
	out := make([]string, len(blocks))
	total, filled := 0, 0
	for i, b := range blocks {
		out[i] = SanitizeString(b)
		if out[i] != "" {
			filled++
			total += utf8.RuneCountInString(out[i])
		}
	}
	if filled == 0 {
		return nil, fmt.Errorf("no blocks provided")
	}
	if total > MaxTextChars {
		return nil, fmt.Errorf("document too long: %d characters (max %d)", total, MaxTextChars)
	}
	return out, nil
}

// ValidateLanguage accepts a language name such as "English" or "Bahasa Indonesia".
func ValidateLanguage(lang string) (string, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return "", nil
	}
	if !languagePattern.MatchString(lang) {
		return "", fmt.Errorf("invalid language: %q", lang)
	}
	return lang, nil
}

// ValidateReportID validates report ID format
func ValidateReportID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid report ID format")
	}
	return nil
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidatePage validates page number
func ValidatePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}
