// Package normalizer canonicalizes free-text scheme queries.
package normalizer

import (
	"strings"
	"unicode/utf8"

	"scheme-workers/internal/common/errors"
	"scheme-workers/internal/models"
)

// MinQueryLength is the minimum rune length of a non-empty normalized query.
const MinQueryLength = 2

// Normalized is the canonical form of a query.
type Normalized struct {
	Text         string          `json:"text"`
	Tokens       []string        `json:"tokens"`
	Language     models.Language `json:"language"`
	CategoryHint string          `json:"categoryHint,omitempty"`
}

// IsEmpty reports a structured-only query with no text.
func (n *Normalized) IsEmpty() bool {
	return n.Text == ""
}

// Normalize lowercases raw, collapses whitespace and tokenizes it. The language is taken as
// given by the caller. A query shorter than MinQueryLength is rejected; an empty query is only
// accepted when the caller supplies a structured filter (category or profile).
func Normalize(raw string, lang models.Language, hasStructuredFilter bool) (*Normalized, error) {
	fields := strings.Fields(strings.ToLower(raw))
	text := strings.Join(fields, " ")

	switch n := utf8.RuneCountInString(text); {
	case n == 0 && !hasStructuredFilter:
		return nil, errors.NewQueryValidationError("query text is empty and no structured filter was supplied")
	case n > 0 && n < MinQueryLength:
		return nil, errors.NewQueryValidationError("query must contain at least 2 characters")
	}

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) > 1 {
			tokens = append(tokens, f)
		}
	}

	return &Normalized{
		Text:         text,
		Tokens:       tokens,
		Language:     models.ParseLanguage(string(lang)),
		CategoryHint: DetectCategory(tokens),
	}, nil
}
