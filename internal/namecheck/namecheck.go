// Package namecheck scores how plausible a claimed human name is.
package namecheck

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinLength = 2
	MaxLength = 100

	// maxRun is the longest allowed run of one repeated character, ignoring case.
	maxRun = 2
)

// Rejection reasons.
const (
	ReasonRequired     = "required"
	ReasonTooShort     = "too short"
	ReasonTooLong      = "too long"
	ReasonInvalidChars = "invalid characters"
	ReasonRepeating    = "too many repeating characters"
)

// Result is the outcome of scoring a name. Score is only meaningful when Valid.
type Result struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
	Score  int    `json:"validationScore,omitempty"`
}

// Score validates name and computes its 0-100 trust score.
func Score(name string) Result {
	if name == "" {
		return Result{Reason: ReasonRequired}
	}

	trimmed := strings.TrimSpace(name)
	n := utf8.RuneCountInString(trimmed)
	switch {
	case n < MinLength:
		return Result{Reason: ReasonTooShort}
	case n > MaxLength:
		return Result{Reason: ReasonTooLong}
	case !allowedChars(trimmed):
		return Result{Reason: ReasonInvalidChars}
	case hasLongRun(trimmed):
		return Result{Reason: ReasonRepeating}
	}

	return Result{Valid: true, Score: trustScore(trimmed)}
}

func allowedRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == ' ' || r == '\'' || r == '-'
}

func allowedChars(s string) bool {
	for _, r := range s {
		if !allowedRune(r) {
			return false
		}
	}
	return true
}

func hasLongRun(s string) bool {
	var prev rune
	run := 0
	for _, r := range s {
		r = unicode.ToLower(r)
		if run > 0 && r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run > maxRun {
			return true
		}
	}
	return false
}

func trustScore(name string) int {
	n := utf8.RuneCountInString(name)
	hasSpace := strings.ContainsRune(name, ' ')

	score := 100
	if n < 4 {
		score -= 20
	}
	if n > 50 {
		score -= 10
	}
	if !hasSpace && n < 10 {
		score -= 15
	}
	if strings.ContainsAny(name, "0123456789") {
		score -= 30
	}
	if !allowedChars(name) {
		score -= 50
	}
	if hasSpace {
		score += 10
	}
	if strings.ContainsAny(name, "'-") {
		score += 5
	}

	return max(0, min(100, score))
}
