package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"scheme-workers/internal/common/config"
	"scheme-workers/internal/models"
	"scheme-workers/internal/ranking/eligibility"
)

func TestSurfacesFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Ranking.Surfaces = map[string]config.SurfaceConfig{
		config.SurfaceSearch: {RelevanceWeight: 0.5, EligibilityWeight: 0.5, Limit: 7},
	}

	search := SearchSurface(cfg)
	assert.Equal(t, 0.5, search.Weights.Relevance)
	assert.Equal(t, 7, search.Limit)
	assert.True(t, search.Suggestions)

	recommend := RecommendSurface(cfg)
	assert.Equal(t, 0.8, recommend.Weights.Eligibility)
	assert.False(t, recommend.Suggestions)
	assert.Equal(t, ModeEligibility, recommend.Mode)

	assert.Equal(t, ModeKeywords, MatchSurface(cfg).Mode)
	assert.Equal(t, "keywords", ModeKeywords.String())
}

func TestNotificationFilter(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	filter := NotificationFilter(eligibility.DefaultTermBanks(), 14*24*time.Hour, func() time.Time { return now })

	soon := now.AddDate(0, 0, 5)
	late := now.AddDate(0, 2, 0)
	past := now.AddDate(0, 0, -1)

	tests := []struct {
		name    string
		scheme  models.SchemeRecord
		profile *models.UserProfile
		want    bool
	}{
		{"deadline inside window", models.SchemeRecord{Category: "Housing", Deadline: &soon}, nil, true},
		{"deadline too far", models.SchemeRecord{Category: "Housing", Deadline: &late}, nil, false},
		{"deadline passed", models.SchemeRecord{Category: "Housing", Deadline: &past}, nil, false},
		{"occupation correlates", models.SchemeRecord{Category: "Agriculture"}, &models.UserProfile{Occupation: "farmer"}, true},
		{"occupation unrelated", models.SchemeRecord{Category: "Housing"}, &models.UserProfile{Occupation: "farmer"}, false},
		{"no profile no deadline", models.SchemeRecord{Category: "Agriculture"}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filter(tt.scheme, tt.profile))
		})
	}
}

func TestTimelinessRelevance(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rel := TimelinessRelevance(eligibility.DefaultTermBanks(), 10*24*time.Hour)

	today := now
	half := now.AddDate(0, 0, 5)
	edge := now.AddDate(0, 0, 10)
	farmer := &models.UserProfile{Occupation: "farmer"}

	assert.Equal(t, 100.0, rel(models.SchemeRecord{Deadline: &today}, nil, now))
	assert.InDelta(t, 75.0, rel(models.SchemeRecord{Deadline: &half}, nil, now), 1e-9)
	assert.InDelta(t, 50.0, rel(models.SchemeRecord{Deadline: &edge}, nil, now), 1e-9)
	assert.Equal(t, 80.0, rel(models.SchemeRecord{Category: "Agriculture", Deadline: &edge}, farmer, now))
	assert.Equal(t, 100.0, rel(models.SchemeRecord{Category: "Agriculture", Deadline: &today}, farmer, now))
	assert.Equal(t, 0.0, rel(models.SchemeRecord{Category: "Housing"}, farmer, now))
}
