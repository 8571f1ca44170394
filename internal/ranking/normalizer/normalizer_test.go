package normalizer

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scheme-workers/internal/common/errors"
	"scheme-workers/internal/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		lang       models.Language
		structured bool
		wantText   string
		wantTokens []string
		wantLang   models.Language
		wantErr    bool
	}{
		{
			name:       "lowercases and collapses whitespace",
			raw:        "  PM   Kisan\tSamman \n Nidhi ",
			lang:       models.LanguageDefault,
			wantText:   "pm kisan samman nidhi",
			wantTokens: []string{"pm", "kisan", "samman", "nidhi"},
			wantLang:   models.LanguageDefault,
		},
		{
			name:       "drops single rune tokens",
			raw:        "a scheme for a farmer",
			lang:       models.LanguageDefault,
			wantText:   "a scheme for a farmer",
			wantTokens: []string{"scheme", "for", "farmer"},
			wantLang:   models.LanguageDefault,
		},
		{
			name:       "keeps declared localized language",
			raw:        "किसान योजना",
			lang:       models.LanguageLocalized,
			wantText:   "किसान योजना",
			wantTokens: []string{"किसान", "योजना"},
			wantLang:   models.LanguageLocalized,
		},
		{
			name:       "unknown language falls back to default",
			raw:        "pension",
			lang:       models.Language("fr"),
			wantText:   "pension",
			wantTokens: []string{"pension"},
			wantLang:   models.LanguageDefault,
		},
		{
			name:       "empty text with structured filter",
			raw:        "   ",
			lang:       models.LanguageDefault,
			structured: true,
			wantText:   "",
			wantTokens: []string{},
			wantLang:   models.LanguageDefault,
		},
		{
			name:    "single character rejected",
			raw:     "a",
			wantErr: true,
		},
		{
			name:       "single character rejected even with structured filter",
			raw:        " x ",
			structured: true,
			wantErr:    true,
		},
		{
			name:    "empty without filter rejected",
			raw:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw, tt.lang, tt.structured)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, stderrors.Is(err, errors.ErrQueryValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, got.Text)
			assert.Equal(t, tt.wantTokens, got.Tokens)
			assert.Equal(t, tt.wantLang, got.Language)
		})
	}
}

func TestNormalize_TwoRuneLocalizedQueryAccepted(t *testing.T) {
	got, err := Normalize("कि", models.LanguageLocalized, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"कि"}, got.Tokens)
}

func TestDetectCategory(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"scholarship for school student", "Education"},
		{"crop insurance for farmer", "Agriculture"},
		{"old age pension", "Senior Citizens"},
		{"startup loan", "Business"},
		{"ration card", ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			n, err := Normalize(tt.query, models.LanguageDefault, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.CategoryHint)
		})
	}
}
