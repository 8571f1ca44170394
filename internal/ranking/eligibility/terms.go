package eligibility

import (
	"strings"

	"scheme-workers/internal/common/config"
)

// TermBanks is the vocabulary used by SoftBoost. All terms are matched lowercase.
type TermBanks struct {
	Senior               []string
	Youth                []string
	Female               []string
	Poverty              []string
	OccupationCategories map[string][]string // occupation term -> scheme categories
}

// DefaultTermBanks carries the English and Hindi vocabulary used when configuration supplies none.
func DefaultTermBanks() TermBanks {
	return TermBanks{
		Senior:  []string{"senior", "elderly", "old age", "pension", "वृद्ध", "वरिष्ठ", "पेंशन"},
		Youth:   []string{"youth", "young", "student", "युवा", "छात्र"},
		Female:  []string{"women", "woman", "girl", "mother", "female", "widow", "महिला", "बालिका", "विधवा"},
		Poverty: []string{"bpl", "below poverty", "poor", "low income", "economically weaker", "गरीब", "बीपीएल"},
		OccupationCategories: map[string][]string{
			"farmer":       {"agriculture"},
			"kisan":        {"agriculture"},
			"किसान":        {"agriculture"},
			"student":      {"education"},
			"छात्र":        {"education"},
			"entrepreneur": {"business"},
			"business":     {"business"},
			"artisan":      {"business", "employment"},
			"weaver":       {"business", "employment"},
			"labourer":     {"employment"},
			"worker":       {"employment"},
			"unemployed":   {"employment"},
			"fisherman":    {"agriculture", "fisheries"},
		},
	}
}

// TermBanksFromConfig builds banks from configuration, falling back to the defaults per bank.
func TermBanksFromConfig(c config.TermBanksConfig) TermBanks {
	banks := DefaultTermBanks()
	if len(c.Senior) > 0 {
		banks.Senior = lowerAll(c.Senior)
	}
	if len(c.Youth) > 0 {
		banks.Youth = lowerAll(c.Youth)
	}
	if len(c.Female) > 0 {
		banks.Female = lowerAll(c.Female)
	}
	if len(c.Poverty) > 0 {
		banks.Poverty = lowerAll(c.Poverty)
	}
	if len(c.OccupationCategories) > 0 {
		banks.OccupationCategories = make(map[string][]string, len(c.OccupationCategories))
		for occ, cats := range c.OccupationCategories {
			banks.OccupationCategories[strings.ToLower(occ)] = lowerAll(cats)
		}
	}
	return banks
}

// CategoriesFor returns the scheme categories correlated with an occupation.
func (t TermBanks) CategoriesFor(occupation string) []string {
	occ := strings.ToLower(strings.TrimSpace(occupation))
	if occ == "" {
		return nil
	}
	var out []string
	for term, cats := range t.OccupationCategories {
		if strings.Contains(occ, term) {
			out = append(out, cats...)
		}
	}
	return out
}

// CorrelatesWithCategory reports whether occupation maps to the scheme category.
func (t TermBanks) CorrelatesWithCategory(occupation, category string) bool {
	cat := strings.ToLower(category)
	if cat == "" {
		return false
	}
	for _, c := range t.CategoriesFor(occupation) {
		if strings.Contains(cat, c) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(text, t) {
			return true
		}
	}
	return false
}
