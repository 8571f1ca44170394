// Package relevance scores text overlap between a normalized query and a scheme's localized text.
package relevance

import (
	"strings"
	"time"

	"scheme-workers/internal/models"
	"scheme-workers/internal/ranking/normalizer"
)

// Rule points, applied in this order.
const (
	TitlePhrasePoints       = 100.0
	TitleTokenPoints        = 50.0
	DescriptionPhrasePoints = 30.0
	DescriptionTokenPoints  = 15.0
	KeywordPhrasePoints     = 40.0
	KeywordTokenPoints      = 20.0
	RecencyPoints           = 10.0

	MaxScore = 100.0
)

const DefaultRecencyWindow = 30 * 24 * time.Hour

// Scorer applies the additive text rules. The zero value uses DefaultRecencyWindow.
type Scorer struct {
	RecencyWindow time.Duration
}

func NewScorer(recencyWindow time.Duration) *Scorer {
	return &Scorer{RecencyWindow: recencyWindow}
}

// Score returns the capped text relevance of text for q. An empty query scores recency only.
func (s *Scorer) Score(q *normalizer.Normalized, text models.LocalizedText, createdAt, now time.Time) float64 {
	total := 0.0
	if q != nil && !q.IsEmpty() {
		total += fieldScore(q, strings.ToLower(text.Title), TitlePhrasePoints, TitleTokenPoints)
		total += fieldScore(q, strings.ToLower(text.Description), DescriptionPhrasePoints, DescriptionTokenPoints)
		total += fieldScore(q, keywordString(text.Keywords), KeywordPhrasePoints, KeywordTokenPoints)
	}
	total += s.recency(createdAt, now)
	return capScore(total)
}

// ScoreKeywords applies only the keyword phrase and keyword token rules.
func (s *Scorer) ScoreKeywords(q *normalizer.Normalized, text models.LocalizedText) float64 {
	if q == nil || q.IsEmpty() {
		return 0
	}
	return capScore(fieldScore(q, keywordString(text.Keywords), KeywordPhrasePoints, KeywordTokenPoints))
}

func (s *Scorer) recency(createdAt, now time.Time) float64 {
	window := s.RecencyWindow
	if window <= 0 {
		window = DefaultRecencyWindow
	}
	if createdAt.IsZero() || createdAt.After(now) {
		return 0
	}
	if now.Sub(createdAt) <= window {
		return RecencyPoints
	}
	return 0
}

func fieldScore(q *normalizer.Normalized, field string, phrasePoints, tokenPoints float64) float64 {
	if field == "" {
		return 0
	}
	score := 0.0
	if strings.Contains(field, q.Text) {
		score += phrasePoints
	}
	for _, tok := range q.Tokens {
		if strings.Contains(field, tok) {
			score += tokenPoints
		}
	}
	return score
}

// keywordString joins the keyword set into one lowercase searchable string.
func keywordString(keywords []string) string {
	return strings.ToLower(strings.Join(keywords, " "))
}

func capScore(v float64) float64 {
	if v > MaxScore {
		return MaxScore
	}
	if v < 0 {
		return 0
	}
	return v
}
