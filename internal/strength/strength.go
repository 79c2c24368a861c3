// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package strength classifies candidate passwords into a small set of
// strength levels with a short advisory hint for each level.
//
// The heuristic is intentionally simple: length, mixed case, digits and
// special characters. It does not look for repeated characters or
// dictionary words.
package strength

import "unicode"

// Level is the ordinal strength of a candidate password.
type Level int

const (
	TooShort Level = iota // empty or shorter than MinLength
	Weak
	Medium
	Strong
)

// MaxLevel is the highest level Classify can return.
const MaxLevel = Strong

const (
	// MinLength is the rune count below which a candidate is always TooShort.
	MinLength = 6
	// LongLength is the rune count that earns the length point.
	LongLength = 8
)

// Result is the outcome of classifying a single candidate.
type Result struct {
	Level    Level  `json:"level"`
	Advisory string `json:"advisory"`
}

// String returns a stable, machine friendly name for the level. It is used
// for translation ids and JSON output.
func (l Level) String() string {
	switch l {
	case TooShort:
		return "too_short"
	case Weak:
		return "weak"
	case Medium:
		return "medium"
	case Strong:
		return "strong"
	default:
		return "unknown"
	}
}

// Advisory returns the fixed hint for a level. Unknown levels map to "".
func Advisory(l Level) string {
	switch l {
	case Weak:
		return "Weak password. Add uppercase letters and numbers."
	case Medium:
		return "Medium password. Add a special character."
	case Strong:
		return "Strong password."
	default:
		return ""
	}
}

// Classify scores candidate and returns its level with the matching advisory.
// Classify is total: every string, including the empty string, has a result.
func Classify(candidate string) Result {
	length := 0
	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range candidate {
		length++
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r):
			hasSpecial = true
		}
	}

	if length < MinLength {
		return Result{Level: TooShort}
	}

	score := 0
	if length >= LongLength {
		score++
	}
	if hasLower && hasUpper {
		score++
	}
	if hasDigit {
		score++
	}
	if hasSpecial {
		score++
	}

	level := min(Level(score), MaxLevel)
	return Result{Level: level, Advisory: Advisory(level)}
}
