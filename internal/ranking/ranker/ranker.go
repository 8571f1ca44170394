// Package ranker merges relevance and eligibility sub-scores into one deterministic, paginated order.
package ranker

import (
	"fmt"
	"sort"

	"scheme-workers/internal/common/errors"
	"scheme-workers/internal/models"
)

// Weights is the relevance/eligibility weight pair supplied by each calling surface.
type Weights struct {
	Relevance   float64 `json:"relevance"`
	Eligibility float64 `json:"eligibility"`
}

// Validate rejects negative weights and an all-zero pair.
func (w Weights) Validate() error {
	if w.Relevance < 0 || w.Eligibility < 0 {
		return errors.NewQueryValidationError(fmt.Sprintf("ranking weights must be non-negative, got %+v", w))
	}
	if w.Relevance+w.Eligibility == 0 {
		return errors.NewQueryValidationError("ranking weights must not both be zero")
	}
	return nil
}

// Composite combines the sub-scores as a weighted mean clamped to [0,100].
func (w Weights) Composite(relevance, eligibility float64) float64 {
	v := (w.Relevance*relevance + w.Eligibility*eligibility) / (w.Relevance + w.Eligibility)
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Page is the ranked window plus the size of the full candidate set.
type Page struct {
	Results []models.ScoredResult
	Total   int
}

// Rank fills CompositeScore, sorts by composite desc, CreatedAt desc, ID asc and returns the
// offset/limit window. The input slice is sorted in place. A non-positive limit returns the rest.
func Rank(scored []models.ScoredResult, w Weights, offset, limit int) (Page, error) {
	if err := w.Validate(); err != nil {
		return Page{}, err
	}
	if offset < 0 {
		return Page{}, errors.NewQueryValidationError("offset must not be negative")
	}

	for i := range scored {
		scored[i].CompositeScore = w.Composite(scored[i].RelevanceScore, scored[i].EligibilityScore)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return less(scored[i], scored[j])
	})

	return Page{Results: window(scored, offset, limit), Total: len(scored)}, nil
}

func less(a, b models.ScoredResult) bool {
	if a.CompositeScore != b.CompositeScore {
		return a.CompositeScore > b.CompositeScore
	}
	if !a.Scheme.CreatedAt.Equal(b.Scheme.CreatedAt) {
		return a.Scheme.CreatedAt.After(b.Scheme.CreatedAt)
	}
	return a.Scheme.ID < b.Scheme.ID
}

func window(sorted []models.ScoredResult, offset, limit int) []models.ScoredResult {
	if offset >= len(sorted) {
		return []models.ScoredResult{}
	}
	end := len(sorted)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]models.ScoredResult, end-offset)
	copy(out, sorted[offset:end])
	return out
}
