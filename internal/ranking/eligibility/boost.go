package eligibility

import (
	"strings"

	"scheme-workers/internal/models"
)

// Soft boost points, added to the relevance score on search-style surfaces.
const (
	BoostAgeBand            = 15.0
	BoostGender             = 15.0
	BoostPoverty            = 10.0
	BoostOccupationCategory = 20.0

	SeniorAge        = 60
	YouthAge         = 30
	LowIncomeCeiling = 250000.0
)

// SoftBoost returns vocabulary bonuses for a scheme given the profile. It never reads eligibility
// rules; that is Score's job.
func SoftBoost(scheme models.SchemeRecord, text models.LocalizedText, profile *models.UserProfile, terms TermBanks) float64 {
	if profile == nil {
		return 0
	}

	haystack := strings.ToLower(text.Title + " " + strings.Join(text.Keywords, " "))
	boost := 0.0

	if profile.Age != nil {
		switch {
		case *profile.Age >= SeniorAge && containsAny(haystack, terms.Senior):
			boost += BoostAgeBand
		case *profile.Age < YouthAge && containsAny(haystack, terms.Youth):
			boost += BoostAgeBand
		}
	}

	if isFemale(profile.Gender) && containsAny(haystack, terms.Female) {
		boost += BoostGender
	}

	if profile.AnnualIncome != nil && *profile.AnnualIncome < LowIncomeCeiling && containsAny(haystack, terms.Poverty) {
		boost += BoostPoverty
	}

	if terms.CorrelatesWithCategory(profile.Occupation, scheme.Category+" "+scheme.Subcategory) {
		boost += BoostOccupationCategory
	}

	return boost
}

func isFemale(gender string) bool {
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case "female", "f", "woman", "महिला":
		return true
	}
	return false
}
