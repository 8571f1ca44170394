// internal/models/scheme.go
package models

import "time"

// Language selects which text variant of a scheme is used.
type Language string

const (
	LanguageDefault   Language = "default"
	LanguageLocalized Language = "localized"
)

// ParseLanguage maps caller input to a Language; anything unrecognised is the default variant.
func ParseLanguage(s string) Language {
	switch Language(s) {
	case LanguageLocalized:
		return LanguageLocalized
	default:
		return LanguageDefault
	}
}

// LocalizedText is one language variant of a scheme's user-facing text.
type LocalizedText struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Benefits    string   `json:"benefits,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// IsZero reports whether the variant carries no text at all.
func (t LocalizedText) IsZero() bool {
	return t.Title == "" && t.Description == "" && t.Benefits == "" && len(t.Keywords) == 0
}

// SchemeRecord is a read-only government welfare scheme from the corpus.
type SchemeRecord struct {
	ID               string                     `json:"id"`
	Category         string                     `json:"category"`
	Subcategory      string                     `json:"subcategory,omitempty"`
	Text             map[Language]LocalizedText `json:"text"`
	EligibilityRules map[string]interface{}     `json:"eligibilityRules,omitempty"`
	CreatedAt        time.Time                  `json:"createdAt"`
	Deadline         *time.Time                 `json:"deadline,omitempty"`
	Active           bool                       `json:"active"`
}

// UndecodableRulesKey marks EligibilityRules whose stored form could not be decoded. The value
// is the raw stored text.
const UndecodableRulesKey = "_undecodable"

// UndecodableRules wraps raw rules text that failed to decode.
func UndecodableRules(raw string) map[string]interface{} {
	return map[string]interface{}{UndecodableRulesKey: raw}
}

// TextFor returns the requested variant, falling back to the default one.
func (s SchemeRecord) TextFor(lang Language) LocalizedText {
	if t, ok := s.Text[lang]; ok && !t.IsZero() {
		return t
	}
	return s.Text[LanguageDefault]
}

// ScoredResult is a scheme with its scores for one request.
type ScoredResult struct {
	Scheme           SchemeRecord  `json:"-"`
	SchemeID         string        `json:"schemeId"`
	Category         string        `json:"category"`
	Text             LocalizedText `json:"text"`
	RelevanceScore   float64       `json:"relevanceScore"`
	EligibilityScore float64       `json:"eligibilityScore"`
	CompositeScore   float64       `json:"compositeScore"`
}
