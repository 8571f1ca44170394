package eligibility

import (
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"scheme-workers/internal/models"
)

// Criterion outcomes in a ValidationReport.
const (
	StatusPass    = "PASS"
	StatusFail    = "FAIL"
	StatusMissing = "MISSING"
)

// Applicant is the data submitted with an application, typically extracted from documents.
type Applicant struct {
	Age          *int
	Gender       string
	Occupation   string
	AnnualIncome *float64
	LocationType string
	FamilySize   *int
	Landholding  *float64
	LoanAmount   *float64
}

// ApplicantFromProfile copies the demographic attributes of a profile.
func ApplicantFromProfile(p *models.UserProfile) Applicant {
	if p == nil {
		return Applicant{}
	}
	return Applicant{
		Age:          p.Age,
		Gender:       p.Gender,
		Occupation:   p.Occupation,
		AnnualIncome: p.AnnualIncome,
		LocationType: p.LocationType,
		FamilySize:   p.FamilySize,
		Landholding:  p.Landholding,
	}
}

// Overlay returns a copy of a with every attribute present on override replacing it. Document
// fields overlay the stored profile this way.
func (a Applicant) Overlay(override Applicant) Applicant {
	out := a
	if override.Age != nil {
		out.Age = override.Age
	}
	if override.Gender != "" {
		out.Gender = override.Gender
	}
	if override.Occupation != "" {
		out.Occupation = override.Occupation
	}
	if override.AnnualIncome != nil {
		out.AnnualIncome = override.AnnualIncome
	}
	if override.LocationType != "" {
		out.LocationType = override.LocationType
	}
	if override.FamilySize != nil {
		out.FamilySize = override.FamilySize
	}
	if override.Landholding != nil {
		out.Landholding = override.Landholding
	}
	if override.LoanAmount != nil {
		out.LoanAmount = override.LoanAmount
	}
	return out
}

type CriterionResult struct {
	Criterion string `json:"criterion"`
	Status    string `json:"status"`
	Expected  string `json:"expected"`
	Actual    string `json:"actual,omitempty"`
}

// ValidationReport is the outcome of a hard eligibility check.
type ValidationReport struct {
	Eligible bool              `json:"eligible"`
	Results  []CriterionResult `json:"results"`
	Missing  []string          `json:"missing,omitempty"`
	Failed   []string          `json:"failed,omitempty"`
}

// Validate checks every defined rule against the applicant. Unlike Score, a rule the applicant has
// no data for is not skipped: it is reported MISSING and makes the applicant ineligible.
func Validate(rules Rules, a Applicant) ValidationReport {
	var report ValidationReport

	add := func(criterion, expected string, present bool, actual string, ok func() bool) {
		res := CriterionResult{Criterion: criterion, Expected: expected, Actual: actual}
		switch {
		case !present:
			res.Status = StatusMissing
			report.Missing = append(report.Missing, criterion)
		case ok():
			res.Status = StatusPass
		default:
			res.Status = StatusFail
			report.Failed = append(report.Failed, criterion)
		}
		report.Results = append(report.Results, res)
	}

	if len(rules.Occupations) > 0 {
		add(KeyOccupation, strings.Join(rules.Occupations, "|"), strings.TrimSpace(a.Occupation) != "", a.Occupation,
			func() bool { return matchOccupation(rules.Occupations, a.Occupation) })
	}
	if rules.Landholding != nil {
		add(KeyLandholding, rules.Landholding.String(), a.Landholding != nil, fmtFloat(a.Landholding),
			func() bool { return rules.Landholding.Satisfied(*a.Landholding) })
	}
	if rules.IncomeMax != nil {
		add(KeyIncomeMax, "<"+fmtFloat(rules.IncomeMax), a.AnnualIncome != nil, fmtFloat(a.AnnualIncome),
			func() bool { return *a.AnnualIncome < *rules.IncomeMax })
	}
	if rules.LocationType != "" {
		add(KeyLocationType, rules.LocationType, a.LocationType != "", a.LocationType,
			func() bool { return strings.EqualFold(rules.LocationType, strings.TrimSpace(a.LocationType)) })
	}
	if rules.Gender != "" {
		add(KeyGender, rules.Gender, a.Gender != "", a.Gender,
			func() bool { return strings.EqualFold(rules.Gender, strings.TrimSpace(a.Gender)) })
	}
	if rules.AgeMin != nil {
		add(KeyAgeMin, ">="+fmtFloat(rules.AgeMin), a.Age != nil, fmtInt(a.Age),
			func() bool { return float64(*a.Age) >= *rules.AgeMin })
	}
	if rules.AgeMax != nil {
		add(KeyAgeMax, "<="+fmtFloat(rules.AgeMax), a.Age != nil, fmtInt(a.Age),
			func() bool { return float64(*a.Age) <= *rules.AgeMax })
	}
	if rules.FamilySizeMin != nil || rules.FamilySizeMax != nil {
		add("family_size", rangeString(rules.FamilySizeMin, rules.FamilySizeMax), a.FamilySize != nil, fmtInt(a.FamilySize),
			func() bool { return withinRange(float64(*a.FamilySize), rules.FamilySizeMin, rules.FamilySizeMax) })
	}
	if rules.LoanMin != nil || rules.LoanMax != nil {
		add("loan_amount", rangeString(rules.LoanMin, rules.LoanMax), a.LoanAmount != nil, fmtFloat(a.LoanAmount),
			func() bool { return withinRange(*a.LoanAmount, rules.LoanMin, rules.LoanMax) })
	}

	report.Eligible = len(report.Missing) == 0 && len(report.Failed) == 0
	return report
}

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

type fieldAlias struct {
	key  string
	attr string
}

// fieldAliases maps OCR field names onto applicant attributes, in priority order: the first
// readable alias of an attribute wins.
var fieldAliases = []fieldAlias{
	{"age", "age"},
	{"applicant_age", "age"},
	{"gender", "gender"},
	{"sex", "gender"},
	{"occupation", "occupation"},
	{"profession", "occupation"},
	{"annual_income", "income"},
	{"income", "income"},
	{"family_income", "income"},
	{"location_type", "location"},
	{"area_type", "location"},
	{"family_size", "family_size"},
	{"family_members", "family_size"},
	{"landholding", "landholding"},
	{"land_area", "landholding"},
	{"loan_amount", "loan"},
	{"loan", "loan"},
}

type ocrField struct {
	rawKey string
	value  string
}

// ApplicantFromFields builds an Applicant from an OCR field-to-value map. Amounts may carry
// currency symbols or thousands separators. Fields that could not be read are returned sorted.
func ApplicantFromFields(fields map[string]string) (Applicant, []string) {
	byKey := make(map[string]ocrField, len(fields))
	for _, rawKey := range slices.Sorted(maps.Keys(fields)) {
		key := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(rawKey, " ", "_")))
		if _, seen := byKey[key]; !seen {
			byKey[key] = ocrField{rawKey: rawKey, value: strings.TrimSpace(fields[rawKey])}
		}
	}

	var a Applicant
	var unreadable []string
	set := make(map[string]bool)

	for _, alias := range fieldAliases {
		f, ok := byKey[alias.key]
		if !ok || set[alias.attr] {
			continue
		}
		val := f.value

		switch alias.attr {
		case "gender":
			a.Gender = strings.ToLower(val)
		case "occupation":
			a.Occupation = strings.ToLower(val)
		case "location":
			a.LocationType = strings.ToLower(val)
		case "age", "family_size":
			n, ok := extractNumber(val)
			if !ok {
				unreadable = append(unreadable, f.rawKey)
				continue
			}
			i := int(n)
			if alias.attr == "age" {
				a.Age = &i
			} else {
				a.FamilySize = &i
			}
		case "income", "landholding", "loan":
			n, ok := extractNumber(val)
			if !ok {
				unreadable = append(unreadable, f.rawKey)
				continue
			}
			switch alias.attr {
			case "income":
				a.AnnualIncome = &n
			case "landholding":
				a.Landholding = &n
			default:
				a.LoanAmount = &n
			}
		}
		set[alias.attr] = true
	}
	slices.Sort(unreadable)
	return a, unreadable
}

func extractNumber(s string) (float64, bool) {
	m := numberPattern.FindString(strings.ReplaceAll(s, ",", ""))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func fmtFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func fmtInt(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}

func rangeString(min, max *float64) string {
	switch {
	case min != nil && max != nil:
		return fmtFloat(min) + "-" + fmtFloat(max)
	case min != nil:
		return ">=" + fmtFloat(min)
	default:
		return "<=" + fmtFloat(max)
	}
}
