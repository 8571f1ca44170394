package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "scheme-workers/internal/common/errors"
	"scheme-workers/internal/common/config"
	"scheme-workers/internal/common/logger"
	"scheme-workers/internal/corpus"
	"scheme-workers/internal/models"
	"scheme-workers/internal/profile"
	"scheme-workers/internal/ranking/eligibility"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func scheme(id, category, title string, keywords []string, rules map[string]interface{}, created time.Time) models.SchemeRecord {
	return models.SchemeRecord{
		ID:       id,
		Category: category,
		Text: map[models.Language]models.LocalizedText{
			models.LanguageDefault: {Title: title, Description: title + " scheme", Keywords: keywords},
		},
		EligibilityRules: rules,
		CreatedAt:        created,
		Active:           true,
	}
}

func testCorpus() []models.SchemeRecord {
	old := fixedNow.AddDate(-1, 0, 0)
	return []models.SchemeRecord{
		scheme("pm-kisan", "Agriculture", "PM Kisan Samman Nidhi", []string{"farmer", "income support"},
			map[string]interface{}{"occupation": "farmer"}, old),
		scheme("pmfby", "Agriculture", "Fasal Bima Yojana", []string{"crop", "insurance"},
			map[string]interface{}{"occupation": "farmer", "landholding": "<2"}, old),
		scheme("nsp", "Education", "Post Matric Scholarship", []string{"scholarship", "student"},
			map[string]interface{}{"occupation": "student", "income_max": 250000}, old),
		scheme("apy", "Pension", "Atal Pension Yojana", []string{"pension", "old age"},
			map[string]interface{}{"age_min": 18, "age_max": 40}, fixedNow.AddDate(0, 0, -3)),
	}
}

type countingAccessor struct {
	corpus.Accessor
	fetches int32
}

func (c *countingAccessor) FetchAll(ctx context.Context) ([]models.SchemeRecord, error) {
	atomic.AddInt32(&c.fetches, 1)
	return c.Accessor.FetchAll(ctx)
}

func (c *countingAccessor) FetchByCategory(ctx context.Context, category string) ([]models.SchemeRecord, error) {
	atomic.AddInt32(&c.fetches, 1)
	return c.Accessor.FetchByCategory(ctx, category)
}

type failingAccessor struct {
	corpus.Accessor
}

func (failingAccessor) FetchAll(context.Context) ([]models.SchemeRecord, error) {
	return nil, errors.New("connection refused")
}

func (failingAccessor) FetchByCategory(context.Context, string) ([]models.SchemeRecord, error) {
	return nil, errors.New("connection refused")
}

type blockingAccessor struct {
	corpus.Accessor
}

func (blockingAccessor) FetchAll(ctx context.Context) ([]models.SchemeRecord, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// stuckAccessor ignores its context and only returns once release is closed.
type stuckAccessor struct {
	corpus.Accessor
	release chan struct{}
}

func (s stuckAccessor) FetchAll(context.Context) ([]models.SchemeRecord, error) {
	<-s.release
	return testCorpus(), nil
}

type stubProfiles struct {
	profile *models.UserProfile
	err     error
}

func (s stubProfiles) FetchProfile(context.Context, string) (*models.UserProfile, error) {
	return s.profile, s.err
}

func newEngine(t *testing.T, acc corpus.Accessor, profiles stubProfiles, poolSize int) *Engine {
	t.Helper()
	var src profile.Source
	if profiles.profile != nil || profiles.err != nil {
		src = profiles
	}
	e, err := New(acc, src, Options{
		FetchTimeout:      50 * time.Millisecond,
		ParallelThreshold: 16,
		PoolSize:          poolSize,
		Now:               func() time.Time { return fixedNow },
	}, nil, logger.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func staticEngine(t *testing.T) *Engine {
	return newEngine(t, corpus.NewStaticAccessor(testCorpus(), nil), stubProfiles{}, 0)
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestRank_FarmerKeywordScenario(t *testing.T) {
	e := staticEngine(t)
	res, err := e.Rank(context.Background(), SearchSurface(&config.Config{}), Request{
		Query: models.Query{RawText: "farmer", Language: models.LanguageDefault},
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Results)

	top := res.Results[0]
	assert.Equal(t, "pm-kisan", top.SchemeID)
	assert.GreaterOrEqual(t, top.RelevanceScore, 40.0)
	assert.LessOrEqual(t, top.RelevanceScore, 100.0)
	assert.Equal(t, "Agriculture", res.CategoryHint)
	assert.Equal(t, 4, res.TotalCandidates)
}

func TestRank_SingleCriterionEligibilityIsMaximal(t *testing.T) {
	e := staticEngine(t)
	res, err := e.Rank(context.Background(), RecommendSurface(&config.Config{}), Request{
		Profile: &models.UserProfile{Occupation: "farmer"},
	})
	require.NoError(t, err)

	var kisan *models.ScoredResult
	for i := range res.Results {
		if res.Results[i].SchemeID == "pm-kisan" {
			kisan = &res.Results[i]
		}
	}
	require.NotNil(t, kisan)
	assert.Equal(t, 100.0, kisan.EligibilityScore)
	assert.Empty(t, res.Suggestions)
}

func TestRank_ShortQueryRejectedWithoutFetch(t *testing.T) {
	acc := &countingAccessor{Accessor: corpus.NewStaticAccessor(testCorpus(), nil)}
	e := newEngine(t, acc, stubProfiles{}, 0)

	_, err := e.Rank(context.Background(), SearchSurface(&config.Config{}), Request{
		Query: models.Query{RawText: "a"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrQueryValidation)
	assert.Equal(t, int32(0), atomic.LoadInt32(&acc.fetches))
}

func TestRank_EmptyQueryNeedsStructuredFilter(t *testing.T) {
	e := staticEngine(t)
	_, err := e.Rank(context.Background(), SearchSurface(&config.Config{}), Request{})
	assert.ErrorIs(t, err, apperrors.ErrQueryValidation)

	res, err := e.Rank(context.Background(), SearchSurface(&config.Config{}), Request{
		Query: models.Query{Category: "agriculture"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalCandidates)
}

func TestRank_UpstreamFailureIsDegraded(t *testing.T) {
	tests := []struct {
		name string
		acc  corpus.Accessor
	}{
		{"error", failingAccessor{}},
		{"timeout", blockingAccessor{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, tt.acc, stubProfiles{}, 0)
			res, err := e.Rank(context.Background(), RecommendSurface(&config.Config{}), Request{
				Profile: &models.UserProfile{Occupation: "farmer"},
			})
			require.NoError(t, err)
			assert.True(t, res.Degraded)
			assert.Equal(t, "UPSTREAM_UNAVAILABLE", res.DegradedReason)
			assert.Equal(t, 0, res.TotalCandidates)
			assert.Empty(t, res.Results)
		})
	}
}

func TestRank_FetchTimeoutWithUncooperativeAccessor(t *testing.T) {
	acc := stuckAccessor{release: make(chan struct{})}
	defer close(acc.release)
	e := newEngine(t, acc, stubProfiles{}, 0)

	start := time.Now()
	res, err := e.Rank(context.Background(), RecommendSurface(&config.Config{}), Request{
		Profile: &models.UserProfile{Occupation: "farmer"},
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, res.Degraded)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", res.DegradedReason)
	assert.Empty(t, res.Results)
}

func TestRank_MalformedRulesSkipped(t *testing.T) {
	schemes := append(testCorpus(),
		scheme("broken", "Agriculture", "Farmer tractor subsidy", []string{"farmer"},
			map[string]interface{}{"age_min": "abc"}, fixedNow))
	e := newEngine(t, corpus.NewStaticAccessor(schemes, nil), stubProfiles{}, 0)

	res, err := e.Rank(context.Background(), SearchSurface(&config.Config{}), Request{
		Query: models.Query{RawText: "farmer"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 4, res.TotalCandidates)
	for _, r := range res.Results {
		assert.NotEqual(t, "broken", r.SchemeID)
	}
}

func TestRank_UndecodableRulesSkipped(t *testing.T) {
	broken := scheme("broken", "Agriculture", "Farmer tractor subsidy", []string{"farmer"}, nil, fixedNow)
	broken.EligibilityRules = models.UndecodableRules(`{"occupation":`)
	e := newEngine(t, corpus.NewStaticAccessor(append(testCorpus(), broken), nil), stubProfiles{}, 0)

	res, err := e.Rank(context.Background(), SearchSurface(&config.Config{}), Request{
		Query: models.Query{RawText: "farmer"},
	})
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	assert.Equal(t, 1, res.Skipped)
	require.NotEmpty(t, res.Results)
	for _, r := range res.Results {
		assert.NotEqual(t, "broken", r.SchemeID)
	}
}

func TestRank_ScoresStayInRange(t *testing.T) {
	e := staticEngine(t)
	profile := &models.UserProfile{
		Age: intPtr(65), Gender: "female", Occupation: "farmer",
		AnnualIncome: floatPtr(90000), Landholding: floatPtr(1), LocationType: "rural",
	}
	for _, s := range []Surface{
		SearchSurface(&config.Config{}),
		RecommendSurface(&config.Config{}),
	} {
		res, err := e.Rank(context.Background(), s, Request{
			Query:   models.Query{RawText: "farmer pension scholarship", Limit: 50},
			Profile: profile,
		})
		require.NoError(t, err)
		for _, r := range res.Results {
			assert.GreaterOrEqual(t, r.RelevanceScore, 0.0)
			assert.LessOrEqual(t, r.RelevanceScore, 100.0)
			assert.GreaterOrEqual(t, r.EligibilityScore, 0.0)
			assert.LessOrEqual(t, r.EligibilityScore, 100.0)
			assert.LessOrEqual(t, r.CompositeScore, 100.0)
		}
	}
}

func TestRank_Idempotent(t *testing.T) {
	e := staticEngine(t)
	req := Request{
		Query:   models.Query{RawText: "yojana", Limit: 10},
		Profile: &models.UserProfile{Occupation: "farmer", Age: intPtr(30)},
	}
	first, err := e.Rank(context.Background(), SearchSurface(&config.Config{}), req)
	require.NoError(t, err)
	second, err := e.Rank(context.Background(), SearchSurface(&config.Config{}), req)
	require.NoError(t, err)
	assert.Equal(t, first.Results, second.Results)
}

func TestRank_ParallelMatchesSequential(t *testing.T) {
	var schemes []models.SchemeRecord
	categories := []string{"Agriculture", "Education", "Health", "Housing"}
	for i := 0; i < 300; i++ {
		rules := map[string]interface{}{"age_min": i % 50}
		if i%7 == 0 {
			rules = map[string]interface{}{"occupation": "farmer"}
		}
		if i%31 == 0 {
			rules = map[string]interface{}{"landholding": "about 2"}
		}
		schemes = append(schemes, scheme(
			fmt.Sprintf("s-%03d", i), categories[i%len(categories)],
			fmt.Sprintf("Scheme %d for farmer families", i%13),
			[]string{"farmer", fmt.Sprintf("k%d", i%5)}, rules,
			fixedNow.AddDate(0, 0, -(i%45))))
	}

	req := Request{
		Query:   models.Query{RawText: "farmer families", Limit: 0},
		Profile: &models.UserProfile{Occupation: "farmer", Age: intPtr(33)},
	}
	seq := newEngine(t, corpus.NewStaticAccessor(schemes, nil), stubProfiles{}, 0)
	par := newEngine(t, corpus.NewStaticAccessor(schemes, nil), stubProfiles{}, 8)

	surface := SearchSurface(&config.Config{})
	surface.Limit = 0
	a, err := seq.Rank(context.Background(), surface, req)
	require.NoError(t, err)
	b, err := par.Rank(context.Background(), surface, req)
	require.NoError(t, err)

	assert.Equal(t, a.Skipped, b.Skipped)
	assert.Equal(t, a.TotalCandidates, b.TotalCandidates)
	require.Equal(t, len(a.Results), len(b.Results))
	for i := range a.Results {
		assert.Equal(t, a.Results[i].SchemeID, b.Results[i].SchemeID)
		assert.Equal(t, a.Results[i].CompositeScore, b.Results[i].CompositeScore)
	}
}

func TestRank_PaginationMatchesClientSlice(t *testing.T) {
	e := staticEngine(t)
	base := Request{Query: models.Query{RawText: "yojana scheme", Limit: 100}}
	full, err := e.Rank(context.Background(), SearchSurface(&config.Config{}), base)
	require.NoError(t, err)

	paged := base
	paged.Query.Offset, paged.Query.Limit = 1, 2
	window, err := e.Rank(context.Background(), SearchSurface(&config.Config{}), paged)
	require.NoError(t, err)

	require.Len(t, window.Results, 2)
	assert.Equal(t, full.Results[1:3], window.Results)
}

func TestRank_MatchSurfaceUsesKeywordsOnly(t *testing.T) {
	e := staticEngine(t)
	res, err := e.Rank(context.Background(), MatchSurface(&config.Config{}), Request{
		Query:   models.Query{RawText: "pension"},
		Profile: &models.UserProfile{Age: intPtr(25)},
	})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "apy", res.Results[0].SchemeID)
	assert.Equal(t, 60.0, res.Results[0].RelevanceScore)
	assert.Equal(t, eligibility.NeutralScore, res.Results[0].EligibilityScore)
	assert.Equal(t, 60.0, res.Results[0].CompositeScore)
}

func TestRank_ProfileSource(t *testing.T) {
	stored := &models.UserProfile{UserID: "u1", Occupation: "student", AnnualIncome: floatPtr(100000)}

	t.Run("stored profile merged with request override", func(t *testing.T) {
		e := newEngine(t, corpus.NewStaticAccessor(testCorpus(), nil), stubProfiles{profile: stored}, 0)
		res, err := e.Rank(context.Background(), RecommendSurface(&config.Config{}), Request{
			UserID:  "u1",
			Profile: &models.UserProfile{Occupation: "farmer"},
		})
		require.NoError(t, err)
		require.NotNil(t, res.Profile)
		assert.Equal(t, "farmer", res.Profile.Occupation)
		require.NotNil(t, res.Profile.AnnualIncome)
		assert.False(t, res.Degraded)
	})

	t.Run("profile failure falls back to neutral", func(t *testing.T) {
		e := newEngine(t, corpus.NewStaticAccessor(testCorpus(), nil), stubProfiles{err: errors.New("timeout")}, 0)
		res, err := e.Rank(context.Background(), RecommendSurface(&config.Config{}), Request{UserID: "u1"})
		require.NoError(t, err)
		assert.False(t, res.Degraded)
		for _, r := range res.Results {
			assert.Equal(t, eligibility.NeutralScore, r.EligibilityScore)
		}
	})
}

func TestRank_SearchSuggestions(t *testing.T) {
	acc := corpus.NewStaticAccessor(testCorpus(), []string{"pension for widows", "pension"})
	e := newEngine(t, acc, stubProfiles{}, 0)

	res, err := e.Rank(context.Background(), SearchSurface(&config.Config{}), Request{
		Query: models.Query{RawText: "Pension"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Suggestions)
	assert.LessOrEqual(t, len(res.Suggestions), 5)
	assert.Equal(t, "pension for widows", res.Suggestions[0])
	assert.NotContains(t, res.Suggestions, "pension")
}

func TestRank_InvalidWeights(t *testing.T) {
	e := staticEngine(t)
	s := SearchSurface(&config.Config{})
	s.Weights.Relevance, s.Weights.Eligibility = 0, 0
	_, err := e.Rank(context.Background(), s, Request{Query: models.Query{RawText: "farmer"}})
	assert.ErrorIs(t, err, apperrors.ErrQueryValidation)
}
