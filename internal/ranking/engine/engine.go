// Package engine runs the shared ranking pipeline: normalize, fetch, score, rank, suggest.
package engine

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"

	"scheme-workers/internal/common/errors"
	"scheme-workers/internal/common/logger"
	"scheme-workers/internal/common/metrics"
	"scheme-workers/internal/common/observability"
	"scheme-workers/internal/corpus"
	"scheme-workers/internal/models"
	"scheme-workers/internal/profile"
	"scheme-workers/internal/ranking/eligibility"
	"scheme-workers/internal/ranking/normalizer"
	"scheme-workers/internal/ranking/ranker"
	"scheme-workers/internal/ranking/relevance"
	"scheme-workers/internal/ranking/suggest"
)

const (
	DefaultFetchTimeout      = 2 * time.Second
	DefaultParallelThreshold = 64
	slowRankingThreshold     = 500 * time.Millisecond
)

// Options tunes an Engine. Zero values fall back to the package defaults.
type Options struct {
	FetchTimeout      time.Duration
	ParallelThreshold int
	// PoolSize is the number of scoring goroutines. Zero disables parallel scoring.
	PoolSize      int
	RecencyWindow time.Duration
	Terms         *eligibility.TermBanks
	Phrases       map[models.Language][]string
	Now           func() time.Time
}

// Request is one ranking call.
type Request struct {
	Query   models.Query
	Profile *models.UserProfile
	// UserID, when set and a profile source is configured, loads the stored profile. Fields set
	// on Profile override the stored ones.
	UserID string
}

// Result is the ranked window plus request metadata.
type Result struct {
	Results         []models.ScoredResult `json:"results"`
	Suggestions     []string              `json:"suggestions"`
	TotalCandidates int                   `json:"totalCandidates"`
	Degraded        bool                  `json:"degraded"`
	DegradedReason  string                `json:"degradedReason,omitempty"`
	Skipped         int                   `json:"skipped"`
	CategoryHint    string                `json:"categoryHint,omitempty"`
	Language        models.Language       `json:"language"`
	Profile         *models.UserProfile   `json:"-"`
}

// Engine is safe for concurrent use; requests share no mutable state.
type Engine struct {
	corpus    corpus.Accessor
	profiles  profile.Source
	recorder  corpus.QueryRecorder
	scorer    *relevance.Scorer
	suggester *suggest.Generator
	terms     eligibility.TermBanks
	pool      *ants.Pool
	obs       *observability.Observability
	logger    logger.Logger

	fetchTimeout      time.Duration
	parallelThreshold int
	now               func() time.Time
}

// New builds an engine over accessor. profiles and obs may be nil.
func New(accessor corpus.Accessor, profiles profile.Source, opts Options, obs *observability.Observability, log logger.Logger) (*Engine, error) {
	e := &Engine{
		corpus:            accessor,
		profiles:          profiles,
		scorer:            relevance.NewScorer(opts.RecencyWindow),
		suggester:         suggest.NewGenerator(accessor, opts.Phrases, log),
		terms:             eligibility.DefaultTermBanks(),
		obs:               obs,
		logger:            log.WithFields(map[string]interface{}{"component": "ranking-engine"}),
		fetchTimeout:      opts.FetchTimeout,
		parallelThreshold: opts.ParallelThreshold,
		now:               opts.Now,
	}
	if rec, ok := accessor.(corpus.QueryRecorder); ok {
		e.recorder = rec
	}
	if opts.Terms != nil {
		e.terms = *opts.Terms
	}
	if e.fetchTimeout <= 0 {
		e.fetchTimeout = DefaultFetchTimeout
	}
	if e.parallelThreshold <= 0 {
		e.parallelThreshold = DefaultParallelThreshold
	}
	if e.now == nil {
		e.now = time.Now
	}
	if opts.PoolSize > 0 {
		pool, err := ants.NewPool(opts.PoolSize)
		if err != nil {
			return nil, err
		}
		e.pool = pool
	}
	return e, nil
}

// Close releases the scoring pool.
func (e *Engine) Close() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// Terms exposes the vocabulary banks the engine boosts with.
func (e *Engine) Terms() eligibility.TermBanks {
	return e.terms
}

// Rank runs one request for surface. Only query validation errors are returned; upstream
// failures produce an empty degraded result and malformed candidates are skipped.
func (e *Engine) Rank(ctx context.Context, surface Surface, req Request) (*Result, error) {
	start := time.Now()
	ctx, span := e.obs.StartSpan(ctx, "ranking.rank",
		attribute.String("surface", surface.Name),
		attribute.String("mode", surface.Mode.String()))
	defer span.End()

	if err := surface.Weights.Validate(); err != nil {
		metrics.RankingRequests.WithLabelValues(surface.Name, "invalid").Inc()
		return nil, err
	}

	q := req.Query
	hasFilter := q.Category != "" || !req.Profile.IsEmpty() || req.UserID != "" || surface.Mode == ModeEligibility
	raw := q.RawText
	if surface.Mode == ModeEligibility {
		raw = ""
	}
	norm, err := normalizer.Normalize(raw, q.Language, hasFilter)
	if err != nil {
		metrics.RankingRequests.WithLabelValues(surface.Name, "invalid").Inc()
		return nil, err
	}
	if q.Offset < 0 {
		metrics.RankingRequests.WithLabelValues(surface.Name, "invalid").Inc()
		return nil, errors.NewQueryValidationError("offset must not be negative")
	}

	candidates, prof, fetchErr := e.fetch(ctx, surface.Name, q.Category, req)
	result := &Result{
		Suggestions:  []string{},
		CategoryHint: norm.CategoryHint,
		Language:     norm.Language,
		Profile:      prof,
	}
	if fetchErr != nil {
		result.Degraded = true
		result.DegradedReason = string(errors.ErrCodeUpstreamUnavailable)
		metrics.RankingDegraded.WithLabelValues(surface.Name, "corpus").Inc()
		e.logger.Warn("corpus fetch failed, returning degraded result", map[string]interface{}{
			"surface": surface.Name,
			"error":   fetchErr.Error(),
		})
		candidates = nil
	}

	if surface.Filter != nil {
		kept := candidates[:0:0]
		for _, c := range candidates {
			if surface.Filter(c, prof) {
				kept = append(kept, c)
			}
		}
		candidates = kept
	}

	scored, skipped := e.scoreAll(candidates, norm, prof, surface)
	result.Skipped = skipped
	if skipped > 0 {
		metrics.CandidatesSkipped.WithLabelValues(surface.Name).Add(float64(skipped))
	}

	limit := q.Limit
	if limit <= 0 {
		limit = surface.Limit
	}
	page, err := ranker.Rank(scored, surface.Weights, q.Offset, limit)
	if err != nil {
		return nil, err
	}
	result.Results = page.Results
	result.TotalCandidates = page.Total

	if surface.Suggestions && !norm.IsEmpty() {
		result.Suggestions = e.suggester.Generate(ctx, norm.Text, norm.Language)
	}
	if surface.RecordQueries && e.recorder != nil && !norm.IsEmpty() && !result.Degraded {
		if err := e.recorder.RecordQuery(ctx, norm.Text, norm.Language); err != nil {
			e.logger.Warn("failed to record query", map[string]interface{}{"error": err.Error()})
		}
	}

	duration := time.Since(start)
	status := "success"
	if result.Degraded {
		status = "degraded"
	}
	metrics.ObserveRanking(surface.Name, status, duration.Seconds(), result.TotalCandidates)
	e.obs.RecordRanking(ctx, surface.Name, duration, result.Degraded)
	span.SetAttributes(
		attribute.Int("candidates", result.TotalCandidates),
		attribute.Bool("degraded", result.Degraded))

	fields := map[string]interface{}{
		"surface":    surface.Name,
		"candidates": result.TotalCandidates,
		"returned":   len(result.Results),
		"skipped":    skipped,
		"degraded":   result.Degraded,
		"durationMs": duration.Milliseconds(),
	}
	e.logger.Info("ranking completed", fields)
	if duration > slowRankingThreshold {
		e.logger.Warn("slow ranking", fields)
	}
	return result, nil
}

// fetch loads candidates and the profile concurrently, each bounded by the fetch timeout.
// A profile failure falls back to the request profile; a corpus failure is returned.
func (e *Engine) fetch(ctx context.Context, surfaceName, category string, req Request) ([]models.SchemeRecord, *models.UserProfile, error) {
	var (
		wg         sync.WaitGroup
		candidates []models.SchemeRecord
		corpusErr  error
		stored     *models.UserProfile
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		candidates, corpusErr = withTimeout(ctx, e.fetchTimeout, func(fctx context.Context) ([]models.SchemeRecord, error) {
			if category != "" {
				return e.corpus.FetchByCategory(fctx, category)
			}
			return e.corpus.FetchAll(fctx)
		})
		if corpusErr != nil {
			candidates = nil
			corpusErr = errors.NewUpstreamUnavailableError("corpus", corpusErr)
		}
	}()

	if req.UserID != "" && e.profiles != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := withTimeout(ctx, e.fetchTimeout, func(pctx context.Context) (*models.UserProfile, error) {
				return e.profiles.FetchProfile(pctx, req.UserID)
			})
			if err != nil {
				metrics.RankingDegraded.WithLabelValues(surfaceName, "profile").Inc()
				e.logger.Warn("profile fetch failed, using request profile", map[string]interface{}{
					"userId": req.UserID,
					"error":  err.Error(),
				})
				return
			}
			stored = p
		}()
	}

	wg.Wait()
	return candidates, stored.Merge(req.Profile), corpusErr
}

type fetched[T any] struct {
	val T
	err error
}

// withTimeout runs fn under a deadline and returns when the deadline passes even if fn ignores
// its context. A result arriving after the deadline is discarded.
func withTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	fctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan fetched[T], 1)
	go func() {
		v, err := fn(fctx)
		done <- fetched[T]{val: v, err: err}
	}()

	var zero T
	select {
	case f := <-done:
		if f.err != nil {
			return zero, f.err
		}
		if err := fctx.Err(); err != nil {
			return zero, err
		}
		return f.val, nil
	case <-fctx.Done():
		return zero, fctx.Err()
	}
}

type slot struct {
	result models.ScoredResult
	err    error
}

// scoreAll scores every candidate into its own slot, in parallel above the threshold. Output
// order follows input order regardless of scheduling.
func (e *Engine) scoreAll(candidates []models.SchemeRecord, q *normalizer.Normalized, p *models.UserProfile, s Surface) ([]models.ScoredResult, int) {
	slots := make([]slot, len(candidates))
	now := e.now()

	if e.pool != nil && len(candidates) >= e.parallelThreshold {
		var wg sync.WaitGroup
		for i := range candidates {
			i := i
			wg.Add(1)
			task := func() {
				defer wg.Done()
				slots[i].result, slots[i].err = e.scoreOne(candidates[i], q, p, s, now)
			}
			if err := e.pool.Submit(task); err != nil {
				task()
			}
		}
		wg.Wait()
	} else {
		for i := range candidates {
			slots[i].result, slots[i].err = e.scoreOne(candidates[i], q, p, s, now)
		}
	}

	out := make([]models.ScoredResult, 0, len(slots))
	skipped := 0
	for i, sl := range slots {
		if sl.err != nil {
			skipped++
			e.logger.Warn("skipping candidate with malformed eligibility rules", map[string]interface{}{
				"schemeId": candidates[i].ID,
				"error":    sl.err.Error(),
			})
			continue
		}
		if s.MinRelevance > 0 && sl.result.RelevanceScore < s.MinRelevance {
			continue
		}
		out = append(out, sl.result)
	}
	return out, skipped
}

func (e *Engine) scoreOne(rec models.SchemeRecord, q *normalizer.Normalized, p *models.UserProfile, s Surface, now time.Time) (models.ScoredResult, error) {
	text := rec.TextFor(q.Language)
	res := models.ScoredResult{
		Scheme:   rec,
		SchemeID: rec.ID,
		Category: rec.Category,
		Text:     text,
	}

	if s.Mode == ModeKeywords {
		res.RelevanceScore = e.scorer.ScoreKeywords(q, text)
		res.EligibilityScore = eligibility.NeutralScore
		return res, nil
	}

	rules, err := eligibility.ParseRules(rec.EligibilityRules)
	if err != nil {
		return res, errors.NewInternalScoringError(rec.ID, err)
	}

	if s.Mode == ModeEligibility && s.Relevance != nil {
		res.RelevanceScore = capped(s.Relevance(rec, p, now))
	} else {
		res.RelevanceScore = e.scorer.Score(q, text, rec.CreatedAt, now)
	}
	res.EligibilityScore = eligibility.Score(rules, p)

	if s.SoftBoost {
		boost := eligibility.SoftBoost(rec, text, p, e.terms)
		if s.Mode == ModeEligibility {
			res.EligibilityScore = capped(res.EligibilityScore + boost)
		} else {
			res.RelevanceScore = capped(res.RelevanceScore + boost)
		}
	}
	return res, nil
}

func capped(v float64) float64 {
	return math.Max(0, math.Min(relevance.MaxScore, v))
}
