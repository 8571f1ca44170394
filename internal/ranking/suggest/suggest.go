// Package suggest produces related query suggestions from popular queries and static phrase banks.
package suggest

import (
	"context"
	"strings"

	"scheme-workers/internal/common/logger"
	"scheme-workers/internal/models"
)

// MaxSuggestions caps every suggestion list.
const MaxSuggestions = 5

// PopularQuerySource is the part of the corpus accessor the generator reads.
type PopularQuerySource interface {
	FetchPopularQueries(ctx context.Context, prefix string) ([]string, error)
}

// DefaultPhrases is the static phrase bank per language.
var DefaultPhrases = map[models.Language][]string{
	models.LanguageDefault: {
		"scholarship for students",
		"pension for senior citizens",
		"loan for small business",
		"crop insurance for farmers",
		"housing scheme for rural families",
		"health insurance for poor families",
		"skill training for youth",
		"schemes for women entrepreneurs",
		"disability assistance",
		"startup funding",
	},
	models.LanguageLocalized: {
		"छात्रों के लिए छात्रवृत्ति",
		"वरिष्ठ नागरिकों के लिए पेंशन",
		"छोटे व्यवसाय के लिए ऋण",
		"किसानों के लिए फसल बीमा",
		"ग्रामीण परिवारों के लिए आवास योजना",
		"गरीब परिवारों के लिए स्वास्थ्य बीमा",
		"युवाओं के लिए कौशल प्रशिक्षण",
		"महिला उद्यमियों के लिए योजनाएं",
	},
}

type Generator struct {
	source  PopularQuerySource
	phrases map[models.Language][]string
	logger  logger.Logger
}

// NewGenerator uses DefaultPhrases for any language missing from phrases.
func NewGenerator(source PopularQuerySource, phrases map[models.Language][]string, log logger.Logger) *Generator {
	merged := make(map[models.Language][]string, len(DefaultPhrases))
	for lang, p := range DefaultPhrases {
		merged[lang] = p
	}
	for lang, p := range phrases {
		if len(p) > 0 {
			merged[lang] = p
		}
	}
	return &Generator{source: source, phrases: merged, logger: log}
}

// Generate returns up to MaxSuggestions strings containing query: popular queries first, then
// phrase bank entries. The query itself is never suggested. Popular-query failures are logged and
// the phrase bank is still used.
func (g *Generator) Generate(ctx context.Context, query string, lang models.Language) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]string, 0, MaxSuggestions)
	if q == "" {
		return out
	}

	seen := map[string]struct{}{q: {}}
	add := func(candidate string) bool {
		c := strings.ToLower(strings.Join(strings.Fields(candidate), " "))
		if c == "" || !strings.Contains(c, q) {
			return false
		}
		if _, dup := seen[c]; dup {
			return false
		}
		seen[c] = struct{}{}
		out = append(out, c)
		return len(out) == MaxSuggestions
	}

	if g.source != nil {
		popular, err := g.source.FetchPopularQueries(ctx, q)
		if err != nil {
			g.logger.Warn("popular query fetch failed, using phrase bank only", map[string]interface{}{
				"error": err.Error(),
			})
		}
		for _, p := range popular {
			if add(p) {
				return out
			}
		}
	}

	for _, p := range g.phrases[models.ParseLanguage(string(lang))] {
		if add(p) {
			return out
		}
	}
	return out
}
