package normalizer

import "strings"

// categoryKeywords maps display categories to trigger words. Order decides ties.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"Agriculture", []string{"farming", "farmer", "agriculture", "crop", "irrigation", "kisan", "किसान", "खेती"}},
	{"Education", []string{"education", "student", "school", "scholarship", "learning", "छात्रवृत्ति", "शिक्षा"}},
	{"Health", []string{"health", "medical", "hospital", "doctor", "healthcare", "स्वास्थ्य"}},
	{"Employment", []string{"job", "employment", "skill", "training", "career", "रोजगार"}},
	{"Women", []string{"women", "girl", "mother", "female", "महिला"}},
	{"Youth", []string{"youth", "young", "teenager", "युवा"}},
	{"Senior Citizens", []string{"senior", "elderly", "old age", "pension", "वृद्धावस्था", "पेंशन"}},
	{"Disability", []string{"disability", "disabled", "differently abled", "दिव्यांग"}},
	{"Housing", []string{"house", "home", "housing", "shelter", "आवास"}},
	{"Business", []string{"business", "entrepreneur", "startup", "msme", "व्यवसाय"}},
}

// DetectCategory returns the category with the most keyword hits, or "" when nothing matches.
// It is a hint for callers and is never used to filter or score.
func DetectCategory(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	text := " " + strings.Join(tokens, " ") + " "

	best, bestHits := "", 0
	for _, entry := range categoryKeywords {
		hits := 0
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = entry.category, hits
		}
	}
	return best
}
