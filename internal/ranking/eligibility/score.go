package eligibility

import (
	"strings"

	"scheme-workers/internal/models"
)

// NeutralScore is returned when no criterion could be evaluated.
const NeutralScore = 50.0

// Criterion weights. Occupation dominates because it is near-determinative for occupation-specific schemes.
const (
	WeightOccupation  = 30.0
	WeightLandholding = 20.0
	WeightIncome      = 20.0
	WeightLocation    = 15.0
	WeightGender      = 15.0
	WeightAgeMin      = 10.0
	WeightAgeMax      = 10.0
	WeightFamilySize  = 10.0
)

// Breakdown records which criteria were evaluated and which were met.
type Breakdown struct {
	Evaluated []string `json:"evaluated"`
	Satisfied []string `json:"satisfied"`
	Earned    float64  `json:"earned"`
	Possible  float64  `json:"possible"`
	Score     float64  `json:"score"`
}

// Score returns how well profile fits rules on a 0-100 scale: earned weight over the weight of the
// criteria present on both sides. With nothing evaluable the result is NeutralScore.
func Score(rules Rules, profile *models.UserProfile) float64 {
	return Explain(rules, profile).Score
}

// Explain is Score with the per-criterion detail.
func Explain(rules Rules, profile *models.UserProfile) Breakdown {
	var b Breakdown
	if profile == nil {
		b.Score = NeutralScore
		return b
	}

	check := func(name string, weight float64, ok bool) {
		b.Evaluated = append(b.Evaluated, name)
		b.Possible += weight
		if ok {
			b.Satisfied = append(b.Satisfied, name)
			b.Earned += weight
		}
	}

	if len(rules.Occupations) > 0 && profile.Occupation != "" {
		check(KeyOccupation, WeightOccupation, matchOccupation(rules.Occupations, profile.Occupation))
	}
	if rules.Landholding != nil && profile.Landholding != nil {
		check(KeyLandholding, WeightLandholding, rules.Landholding.Satisfied(*profile.Landholding))
	}
	if rules.IncomeMax != nil && profile.AnnualIncome != nil {
		check(KeyIncomeMax, WeightIncome, *profile.AnnualIncome < *rules.IncomeMax)
	}
	if rules.LocationType != "" && profile.LocationType != "" {
		check(KeyLocationType, WeightLocation, strings.EqualFold(rules.LocationType, strings.TrimSpace(profile.LocationType)))
	}
	if rules.Gender != "" && profile.Gender != "" {
		check(KeyGender, WeightGender, strings.EqualFold(rules.Gender, strings.TrimSpace(profile.Gender)))
	}
	if rules.AgeMin != nil && profile.Age != nil {
		check(KeyAgeMin, WeightAgeMin, float64(*profile.Age) >= *rules.AgeMin)
	}
	if rules.AgeMax != nil && profile.Age != nil {
		check(KeyAgeMax, WeightAgeMax, float64(*profile.Age) <= *rules.AgeMax)
	}
	if (rules.FamilySizeMin != nil || rules.FamilySizeMax != nil) && profile.FamilySize != nil {
		check("family_size", WeightFamilySize, withinRange(float64(*profile.FamilySize), rules.FamilySizeMin, rules.FamilySizeMax))
	}

	if b.Possible == 0 {
		b.Score = NeutralScore
		return b
	}
	b.Score = clamp(100 * b.Earned / b.Possible)
	return b
}

func matchOccupation(required []string, occupation string) bool {
	occ := strings.ToLower(strings.TrimSpace(occupation))
	if occ == "" {
		return false
	}
	for _, r := range required {
		if strings.Contains(occ, r) || strings.Contains(r, occ) {
			return true
		}
	}
	return false
}

func withinRange(v float64, min, max *float64) bool {
	if min != nil && v < *min {
		return false
	}
	if max != nil && v > *max {
		return false
	}
	return true
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
