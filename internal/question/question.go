// Package question screens inbound question text before it reaches the
// upstream model.
//
// The screen is deliberately narrow: trim, bound the length, and reject a
// small fixed denylist of injection markers. It is not a general sanitizer
// and is not meant to grow into one.
package question

import (
	"strings"
	"unicode/utf8"
)

// MaxLength is the maximum accepted question length in characters,
// measured after trimming.
const MaxLength = 1000

// denylist holds lowercase substrings that reject a question outright.
// A minimal XSS/URI-scheme screen for text that may be echoed into a UI.
var denylist = []string{"<script", "javascript:", "data:", "vbscript:"}

// RejectError describes why a question was rejected. The reason is
// client-safe and is returned verbatim in the HTTP error body.
type RejectError struct {
	Reason string
}

func (e *RejectError) Error() string { return e.Reason }

// Validate normalizes raw question text and rejects malformed input.
// Checks run in order and short-circuit on the first failure:
// absent, empty after trimming, over length, denylisted content.
// On success it returns the trimmed text.
func Validate(raw string) (string, error) {
	if raw == "" {
		return "", &RejectError{Reason: "No question provided"}
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &RejectError{Reason: "Empty question"}
	}

	if utf8.RuneCountInString(trimmed) > MaxLength {
		return "", &RejectError{Reason: "Question too long (max 1000 characters)"}
	}

	lowered := strings.ToLower(trimmed)
	for _, marker := range denylist {
		if strings.Contains(lowered, marker) {
			return "", &RejectError{Reason: "Invalid question content"}
		}
	}

	return trimmed, nil
}
