package corpus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"scheme-workers/internal/models"
)

// StaticAccessor serves a fixed in-memory catalog. The chat and voice matcher uses it so a
// conversational turn never waits on the database.
type StaticAccessor struct {
	schemes []models.SchemeRecord
	popular []string
}

func NewStaticAccessor(schemes []models.SchemeRecord, popular []string) *StaticAccessor {
	return &StaticAccessor{schemes: schemes, popular: popular}
}

func (s *StaticAccessor) FetchByCategory(_ context.Context, category string) ([]models.SchemeRecord, error) {
	var out []models.SchemeRecord
	for _, rec := range s.schemes {
		if rec.Active && strings.EqualFold(rec.Category, category) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *StaticAccessor) FetchAll(_ context.Context) ([]models.SchemeRecord, error) {
	out := make([]models.SchemeRecord, 0, len(s.schemes))
	for _, rec := range s.schemes {
		if rec.Active {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *StaticAccessor) FetchByID(_ context.Context, id string) (*models.SchemeRecord, error) {
	for i := range s.schemes {
		if s.schemes[i].ID == id {
			rec := s.schemes[i]
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSchemeNotFound, id)
}

func (s *StaticAccessor) FetchPopularQueries(_ context.Context, prefix string) ([]string, error) {
	needle := strings.ToLower(prefix)
	var out []string
	for _, q := range s.popular {
		if strings.Contains(strings.ToLower(q), needle) {
			out = append(out, q)
		}
	}
	return out, nil
}

func staticScheme(id, category, title, description, benefits string, keywords []string, localized models.LocalizedText, rules map[string]interface{}) models.SchemeRecord {
	rec := models.SchemeRecord{
		ID:       id,
		Category: category,
		Text: map[models.Language]models.LocalizedText{
			models.LanguageDefault: {Title: title, Description: description, Benefits: benefits, Keywords: keywords},
		},
		EligibilityRules: rules,
		CreatedAt:        time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Active:           true,
	}
	if !localized.IsZero() {
		rec.Text[models.LanguageLocalized] = localized
	}
	return rec
}

// DefaultStaticSchemes is the built-in catalog for the chat and voice matcher.
func DefaultStaticSchemes() []models.SchemeRecord {
	return []models.SchemeRecord{
		staticScheme("pm-kisan", "Agriculture",
			"PM-KISAN Samman Nidhi",
			"Income support of Rs 6000 per year to landholding farmer families",
			"Rs 6000 per year in three instalments",
			[]string{"farmer", "kisan", "agriculture", "income support"},
			models.LocalizedText{Title: "पीएम किसान सम्मान निधि", Keywords: []string{"किसान", "खेती"}},
			map[string]interface{}{"occupation": "farmer", "landholding": "<2"}),
		staticScheme("pmfby", "Agriculture",
			"Pradhan Mantri Fasal Bima Yojana",
			"Crop insurance against natural calamities, pests and diseases",
			"Low premium crop insurance",
			[]string{"crop", "insurance", "farmer", "fasal"},
			models.LocalizedText{Title: "प्रधानमंत्री फसल बीमा योजना", Keywords: []string{"फसल", "बीमा", "किसान"}},
			map[string]interface{}{"occupation": "farmer"}),
		staticScheme("pmay-g", "Housing",
			"Pradhan Mantri Awas Yojana Gramin",
			"Assistance to rural households for construction of a pucca house",
			"Up to Rs 1.2 lakh per house",
			[]string{"house", "housing", "awas", "home"},
			models.LocalizedText{Title: "प्रधानमंत्री आवास योजना ग्रामीण", Keywords: []string{"आवास", "घर"}},
			map[string]interface{}{"location_type": "rural", "income_max": 300000}),
		staticScheme("ayushman-bharat", "Health",
			"Ayushman Bharat PM-JAY",
			"Health cover for secondary and tertiary hospitalisation",
			"Rs 5 lakh health cover per family per year",
			[]string{"health", "hospital", "insurance", "medical"},
			models.LocalizedText{Title: "आयुष्मान भारत", Keywords: []string{"स्वास्थ्य", "अस्पताल", "इलाज"}},
			map[string]interface{}{"income_max": 250000}),
		staticScheme("nsp-post-matric", "Education",
			"Post Matric Scholarship",
			"Scholarship for students studying at post matriculation level",
			"Tuition fee and maintenance allowance",
			[]string{"scholarship", "student", "education", "college"},
			models.LocalizedText{Title: "पोस्ट मैट्रिक छात्रवृत्ति", Keywords: []string{"छात्रवृत्ति", "छात्र", "शिक्षा"}},
			map[string]interface{}{"occupation": "student", "income_max": 250000}),
		staticScheme("pmmy", "Business",
			"Pradhan Mantri Mudra Yojana",
			"Collateral free loans for micro and small enterprises",
			"Loans up to Rs 10 lakh",
			[]string{"loan", "mudra", "business", "self employed"},
			models.LocalizedText{Title: "प्रधानमंत्री मुद्रा योजना", Keywords: []string{"ऋण", "लोन", "व्यवसाय"}},
			map[string]interface{}{"loan_max": 1000000}),
		staticScheme("apy", "Pension",
			"Atal Pension Yojana",
			"Guaranteed pension for workers in the unorganised sector",
			"Pension of Rs 1000 to Rs 5000 per month after 60",
			[]string{"pension", "retirement", "old age"},
			models.LocalizedText{Title: "अटल पेंशन योजना", Keywords: []string{"पेंशन", "बुढ़ापा"}},
			map[string]interface{}{"age_min": 18, "age_max": 40}),
		staticScheme("pmuy", "Women",
			"Pradhan Mantri Ujjwala Yojana",
			"Free LPG connections to women from poor households",
			"Deposit free LPG connection",
			[]string{"lpg", "gas", "women", "ujjwala"},
			models.LocalizedText{Title: "प्रधानमंत्री उज्ज्वला योजना", Keywords: []string{"गैस", "महिला"}},
			map[string]interface{}{"gender": "female", "age_min": 18}),
		staticScheme("ssy", "Women",
			"Sukanya Samriddhi Yojana",
			"Small savings scheme for the girl child",
			"High interest tax free savings",
			[]string{"girl", "daughter", "savings", "sukanya"},
			models.LocalizedText{Title: "सुकन्या समृद्धि योजना", Keywords: []string{"बेटी", "बचत"}},
			nil),
		staticScheme("pmkvy", "Employment",
			"Pradhan Mantri Kaushal Vikas Yojana",
			"Short term skill training and certification for youth",
			"Free training and placement support",
			[]string{"skill", "training", "job", "employment", "youth"},
			models.LocalizedText{Title: "प्रधानमंत्री कौशल विकास योजना", Keywords: []string{"कौशल", "प्रशिक्षण", "रोजगार"}},
			map[string]interface{}{"age_min": 15, "age_max": 45}),
	}
}

// DefaultStaticPopularQueries seeds chat suggestions.
var DefaultStaticPopularQueries = []string{
	"farmer income support",
	"crop insurance",
	"housing scheme",
	"health insurance",
	"scholarship for students",
	"business loan",
	"pension scheme",
	"skill training",
}
