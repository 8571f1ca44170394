// Package corpus provides read access to the welfare scheme catalog. Adapters only narrow or
// enumerate candidates; none of them rank.
package corpus

import (
	"context"
	"errors"

	"scheme-workers/internal/models"
)

var (
	ErrSchemeNotFound = errors.New("SCHEME_NOT_FOUND")
	ErrCorpusQuery    = errors.New("CORPUS_QUERY_FAILED")
)

// DefaultPopularLimit bounds FetchPopularQueries results.
const DefaultPopularLimit = 20

// Accessor is the scheme store consumed by the ranking engine.
type Accessor interface {
	// FetchByCategory returns active schemes whose category equals category, ignoring case.
	FetchByCategory(ctx context.Context, category string) ([]models.SchemeRecord, error)
	// FetchAll returns every active scheme.
	FetchAll(ctx context.Context) ([]models.SchemeRecord, error)
	// FetchByID returns ErrSchemeNotFound when id is unknown.
	FetchByID(ctx context.Context, id string) (*models.SchemeRecord, error)
	// FetchPopularQueries returns previously logged queries containing prefix, most popular first.
	FetchPopularQueries(ctx context.Context, prefix string) ([]string, error)
}

// QueryRecorder logs a served query so it can feed future suggestions.
type QueryRecorder interface {
	RecordQuery(ctx context.Context, query string, lang models.Language) error
}
