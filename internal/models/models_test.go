package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemeRecord_TextForFallsBackToDefault(t *testing.T) {
	s := SchemeRecord{Text: map[Language]LocalizedText{
		LanguageDefault: {Title: "PM Kisan"},
	}}
	assert.Equal(t, "PM Kisan", s.TextFor(LanguageLocalized).Title)

	s.Text[LanguageLocalized] = LocalizedText{Title: "पीएम किसान"}
	assert.Equal(t, "पीएम किसान", s.TextFor(LanguageLocalized).Title)
}

func TestParseLanguage(t *testing.T) {
	assert.Equal(t, LanguageLocalized, ParseLanguage("localized"))
	assert.Equal(t, LanguageDefault, ParseLanguage("hi"))
	assert.Equal(t, LanguageDefault, ParseLanguage(""))
}

func TestUserProfile_IsEmptyAndMerge(t *testing.T) {
	var nilProfile *UserProfile
	assert.True(t, nilProfile.IsEmpty())
	assert.True(t, (&UserProfile{UserID: "u1", Email: "a@b.c"}).IsEmpty())

	age := 34
	stored := &UserProfile{UserID: "u1", Occupation: "farmer"}
	merged := stored.Merge(&UserProfile{Age: &age, Occupation: "weaver"})

	assert.False(t, merged.IsEmpty())
	assert.Equal(t, "weaver", merged.Occupation)
	assert.Equal(t, 34, *merged.Age)
	assert.Equal(t, "u1", merged.UserID)
	assert.Equal(t, "farmer", stored.Occupation)
}
