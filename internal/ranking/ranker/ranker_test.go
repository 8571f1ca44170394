package ranker

import (
	stderrors "errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scheme-workers/internal/common/errors"
	"scheme-workers/internal/models"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func result(id string, createdDaysAgo int, rel, elig float64) models.ScoredResult {
	return models.ScoredResult{
		Scheme:           models.SchemeRecord{ID: id, CreatedAt: base.AddDate(0, 0, -createdDaysAgo)},
		SchemeID:         id,
		RelevanceScore:   rel,
		EligibilityScore: elig,
	}
}

func ids(results []models.ScoredResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Scheme.ID
	}
	return out
}

func TestRank_OrdersByCompositeThenTieBreaks(t *testing.T) {
	scored := []models.ScoredResult{
		result("c", 10, 50, 50),
		result("a", 10, 50, 50),
		result("b", 1, 50, 50),
		result("top", 100, 90, 90),
		result("low", 0, 10, 10),
	}

	page, err := Rank(scored, Weights{Relevance: 0.5, Eligibility: 0.5}, 0, 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"top", "b", "a", "c", "low"}, ids(page.Results))
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 90.0, page.Results[0].CompositeScore)
}

func TestRank_SurfaceWeights(t *testing.T) {
	build := func() []models.ScoredResult {
		return []models.ScoredResult{
			result("text-match", 5, 100, 20),
			result("good-fit", 5, 20, 100),
		}
	}

	search, err := Rank(build(), Weights{Relevance: 0.7, Eligibility: 0.3}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "text-match", search.Results[0].Scheme.ID)
	assert.InDelta(t, 76.0, search.Results[0].CompositeScore, 1e-9)

	recommend, err := Rank(build(), Weights{Relevance: 0.2, Eligibility: 0.8}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "good-fit", recommend.Results[0].Scheme.ID)

	keyword, err := Rank(build(), Weights{Relevance: 1, Eligibility: 0}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 100.0, keyword.Results[0].CompositeScore)
}

func TestRank_PaginationMatchesClientSideSlicing(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	build := func() []models.ScoredResult {
		out := make([]models.ScoredResult, 0, 40)
		for i := 0; i < 40; i++ {
			// coarse scores force plenty of ties
			out = append(out, result(fmt.Sprintf("s%02d", i), rng.Intn(5), float64(rng.Intn(3)*25), float64(rng.Intn(3)*25)))
		}
		return out
	}
	corpus := build()
	w := Weights{Relevance: 0.7, Eligibility: 0.3}

	full, err := Rank(append([]models.ScoredResult(nil), corpus...), w, 0, 0)
	require.NoError(t, err)

	for _, tc := range []struct{ offset, limit int }{{0, 5}, {5, 5}, {10, 7}, {35, 10}, {40, 5}, {100, 5}} {
		page, err := Rank(append([]models.ScoredResult(nil), corpus...), w, tc.offset, tc.limit)
		require.NoError(t, err)

		end := tc.offset + tc.limit
		if end > len(full.Results) {
			end = len(full.Results)
		}
		start := tc.offset
		if start > len(full.Results) {
			start = len(full.Results)
		}
		assert.Equal(t, ids(full.Results[start:end]), ids(page.Results), "offset=%d limit=%d", tc.offset, tc.limit)
		assert.Equal(t, 40, page.Total)
	}
}

func TestRank_IsIndependentOfInputOrder(t *testing.T) {
	a := []models.ScoredResult{
		result("x", 3, 40, 60), result("y", 3, 60, 40), result("z", 2, 50, 50), result("w", 3, 50, 50),
	}
	b := []models.ScoredResult{a[3], a[1], a[0], a[2]}

	w := Weights{Relevance: 1, Eligibility: 1}
	pa, err := Rank(a, w, 0, 0)
	require.NoError(t, err)
	pb, err := Rank(b, w, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, ids(pa.Results), ids(pb.Results))
	assert.Equal(t, []string{"z", "w", "x", "y"}, ids(pa.Results))
}

func TestRank_RejectsInvalidInput(t *testing.T) {
	for _, tc := range []struct {
		name   string
		w      Weights
		offset int
	}{
		{"negative weight", Weights{Relevance: -1, Eligibility: 1}, 0},
		{"both zero", Weights{}, 0},
		{"negative offset", Weights{Relevance: 1}, -1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Rank(nil, tc.w, tc.offset, 10)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrQueryValidation))
		})
	}
}

func TestRank_EmptyInput(t *testing.T) {
	page, err := Rank(nil, Weights{Relevance: 1}, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Results)
	assert.NotNil(t, page.Results)
	assert.Equal(t, 0, page.Total)
}
