package engine

import (
	"strings"
	"time"

	"scheme-workers/internal/common/config"
	"scheme-workers/internal/models"
	"scheme-workers/internal/ranking/eligibility"
	"scheme-workers/internal/ranking/ranker"
)

// ScoringMode selects which sub-scores a surface computes.
type ScoringMode int

const (
	// ModeFull scores text relevance and eligibility.
	ModeFull ScoringMode = iota
	// ModeKeywords scores only the keyword rules and skips eligibility.
	ModeKeywords
	// ModeEligibility ignores query text; relevance is recency only.
	ModeEligibility
)

func (m ScoringMode) String() string {
	switch m {
	case ModeKeywords:
		return "keywords"
	case ModeEligibility:
		return "eligibility"
	default:
		return "full"
	}
}

// CandidateFilter narrows the fetched candidate set before scoring.
type CandidateFilter func(scheme models.SchemeRecord, profile *models.UserProfile) bool

// RelevanceFunc replaces the text relevance score in ModeEligibility.
type RelevanceFunc func(scheme models.SchemeRecord, profile *models.UserProfile, now time.Time) float64

// Surface is the per-caller configuration fed to the shared engine.
type Surface struct {
	Name    string
	Weights ranker.Weights
	Mode    ScoringMode
	Limit   int
	// SoftBoost adds vocabulary boosts to relevance in ModeFull and to eligibility in
	// ModeEligibility.
	SoftBoost     bool
	Suggestions   bool
	RecordQueries bool
	// MinRelevance drops candidates scoring below it. Zero keeps everything.
	MinRelevance float64
	Filter       CandidateFilter
	Relevance    RelevanceFunc
}

func fromConfig(cfg *config.Config, name string) (ranker.Weights, int) {
	s := config.GetSurface(cfg, name)
	return ranker.Weights{Relevance: s.RelevanceWeight, Eligibility: s.EligibilityWeight}, s.Limit
}

// SearchSurface ranks free-text search with relevance-dominant weights and suggestions.
func SearchSurface(cfg *config.Config) Surface {
	w, limit := fromConfig(cfg, config.SurfaceSearch)
	return Surface{
		Name:          config.SurfaceSearch,
		Weights:       w,
		Mode:          ModeFull,
		Limit:         limit,
		SoftBoost:     true,
		Suggestions:   true,
		RecordQueries: true,
	}
}

// MatchSurface is the cheap keyword matcher used by chat and voice.
func MatchSurface(cfg *config.Config) Surface {
	w, limit := fromConfig(cfg, config.SurfaceMatch)
	return Surface{
		Name:         config.SurfaceMatch,
		Weights:      w,
		Mode:         ModeKeywords,
		Limit:        limit,
		MinRelevance: 1,
	}
}

// RecommendSurface ranks by profile fit with no query text.
func RecommendSurface(cfg *config.Config) Surface {
	w, limit := fromConfig(cfg, config.SurfaceRecommend)
	return Surface{
		Name:    config.SurfaceRecommend,
		Weights: w,
		Mode:    ModeEligibility,
		Limit:   limit,
	}
}

// NotificationSurface keeps schemes whose deadline falls inside window from now, or whose
// category correlates with the profile's occupation.
func NotificationSurface(cfg *config.Config, terms eligibility.TermBanks, now func() time.Time) Surface {
	w, limit := fromConfig(cfg, config.SurfaceNotifications)
	window := time.Duration(cfg.Ranking.Notifications.DeadlineWindowDays) * 24 * time.Hour
	return Surface{
		Name:      config.SurfaceNotifications,
		Weights:   w,
		Mode:      ModeEligibility,
		Limit:     limit,
		SoftBoost: true,
		Filter:    NotificationFilter(terms, window, now),
		Relevance: TimelinessRelevance(terms, window),
	}
}

// NotificationFilter is the smart notification pre-filter.
func NotificationFilter(terms eligibility.TermBanks, window time.Duration, now func() time.Time) CandidateFilter {
	if now == nil {
		now = time.Now
	}
	return func(s models.SchemeRecord, p *models.UserProfile) bool {
		if s.Deadline != nil {
			t := now()
			if !s.Deadline.Before(t) && s.Deadline.Sub(t) <= window {
				return true
			}
		}
		if p == nil || strings.TrimSpace(p.Occupation) == "" {
			return false
		}
		return terms.CorrelatesWithCategory(p.Occupation, s.Category+" "+s.Subcategory)
	}
}

// Timeliness points.
const (
	deadlineMaxPoints = 100.0
	deadlineMinPoints = 50.0
	correlationPoints = 80.0
)

// TimelinessRelevance scores how pressing a scheme is for the citizen: a deadline due now scores
// 100, falling linearly to 50 at the window edge; an occupation/category correlation scores 80.
// The higher of the two applies.
func TimelinessRelevance(terms eligibility.TermBanks, window time.Duration) RelevanceFunc {
	return func(s models.SchemeRecord, p *models.UserProfile, now time.Time) float64 {
		score := 0.0
		if s.Deadline != nil && window > 0 {
			left := s.Deadline.Sub(now)
			if left >= 0 && left <= window {
				frac := float64(left) / float64(window)
				score = deadlineMaxPoints - frac*(deadlineMaxPoints-deadlineMinPoints)
			}
		}
		if p != nil && terms.CorrelatesWithCategory(p.Occupation, s.Category+" "+s.Subcategory) && score < correlationPoints {
			score = correlationPoints
		}
		return score
	}
}
