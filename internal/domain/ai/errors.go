package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrTimeout indicates the call did not finish before its deadline.
var ErrTimeout = errors.New("ai call timed out")

// ErrProvider wraps any other provider failure, including empty completions.
var ErrProvider = errors.New("ai provider error")
