package domain

import (
	"strings"
	"unicode/utf8"
)

// MaxQueryLength is the upper bound, in characters, of a trimmed query
const MaxQueryLength = 500

const disallowedChars = "<>;&|"

// Rejection reasons kept on the StageError message
const (
	RejectEmpty          = "empty"
	RejectTooLong        = "too_long"
	RejectOnlyDisallowed = "only_disallowed_characters"
)

// SanitizedQuery is user text that passed SanitizeQuery
type SanitizedQuery string

func (q SanitizedQuery) String() string {
	return string(q)
}

var stripDisallowed = strings.NewReplacer(
	"<", "",
	">", "",
	";", "",
	"&", "",
	"|", "",
)

// SanitizeQuery trims raw, bounds its length and deletes the characters
// < > ; & |. Every rejection matches ErrInputRejected.
func SanitizeQuery(raw string) (SanitizedQuery, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", NewStageError(StageSanitize, KindInputRejected, RejectEmpty)
	}
	if utf8.RuneCountInString(trimmed) > MaxQueryLength {
		return "", NewStageError(StageSanitize, KindInputRejected, RejectTooLong)
	}

	cleaned := trimmed
	if strings.ContainsAny(cleaned, disallowedChars) {
		cleaned = strings.TrimSpace(stripDisallowed.Replace(cleaned))
	}
	if cleaned == "" {
		return "", NewStageError(StageSanitize, KindInputRejected, RejectOnlyDisallowed)
	}

	return SanitizedQuery(cleaned), nil
}
