package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"scheme-workers/internal/models"
)

var schemeColumns = []string{
	"id", "category", "subcategory",
	"title", "description", "benefits", "keywords",
	"title_localized", "description_localized", "benefits_localized", "keywords_localized",
	"eligibility_rules", "created_at", "deadline", "active",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresAccessor reads the schemes and search_queries tables.
type PostgresAccessor struct {
	db           *sql.DB
	popularLimit int
}

func NewPostgresAccessor(db *sql.DB) *PostgresAccessor {
	return &PostgresAccessor{db: db, popularLimit: DefaultPopularLimit}
}

func activeSchemes() sq.SelectBuilder {
	return psql.Select(schemeColumns...).From("schemes").Where("active = true")
}

func (p *PostgresAccessor) FetchByCategory(ctx context.Context, category string) ([]models.SchemeRecord, error) {
	return p.querySchemes(ctx, activeSchemes().Where("LOWER(category) = LOWER(?)", category))
}

func (p *PostgresAccessor) FetchAll(ctx context.Context) ([]models.SchemeRecord, error) {
	return p.querySchemes(ctx, activeSchemes())
}

// FetchByID also returns inactive schemes so in-flight applications can still be checked.
func (p *PostgresAccessor) FetchByID(ctx context.Context, id string) (*models.SchemeRecord, error) {
	query, args, err := psql.Select(schemeColumns...).From("schemes").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorpusQuery, err)
	}

	rec, err := scanScheme(p.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSchemeNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorpusQuery, err)
	}
	return rec, nil
}

func (p *PostgresAccessor) FetchPopularQueries(ctx context.Context, prefix string) ([]string, error) {
	query, args, err := psql.Select("query_text").
		From("search_queries").
		Where("query_text ILIKE '%' || ? || '%'", escapeLike(strings.ToLower(prefix))).
		GroupBy("query_text").
		OrderBy("COUNT(*) DESC", "query_text ASC").
		Limit(uint64(p.popularLimit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorpusQuery, err)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorpusQuery, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorpusQuery, err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// RecordQuery appends a served query to search_queries.
func (p *PostgresAccessor) RecordQuery(ctx context.Context, query string, lang models.Language) error {
	stmt, args, err := psql.Insert("search_queries").
		Columns("query_text", "language", "created_at").
		Values(query, string(lang), time.Now().UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorpusQuery, err)
	}
	if _, err := p.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("%w: %v", ErrCorpusQuery, err)
	}
	return nil
}

func (p *PostgresAccessor) querySchemes(ctx context.Context, b sq.SelectBuilder) ([]models.SchemeRecord, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorpusQuery, err)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorpusQuery, err)
	}
	defer rows.Close()

	var out []models.SchemeRecord
	for rows.Next() {
		rec, err := scanScheme(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorpusQuery, err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorpusQuery, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanScheme(row rowScanner) (*models.SchemeRecord, error) {
	var (
		rec                                   models.SchemeRecord
		subcategory                           sql.NullString
		title, description, benefits          sql.NullString
		titleLoc, descriptionLoc, benefitsLoc sql.NullString
		keywords, keywordsLoc                 pq.StringArray
		rules                                 []byte
		deadline                              sql.NullTime
	)

	if err := row.Scan(
		&rec.ID, &rec.Category, &subcategory,
		&title, &description, &benefits, &keywords,
		&titleLoc, &descriptionLoc, &benefitsLoc, &keywordsLoc,
		&rules, &rec.CreatedAt, &deadline, &rec.Active,
	); err != nil {
		return nil, err
	}

	rec.Subcategory = subcategory.String
	rec.Text = map[models.Language]models.LocalizedText{
		models.LanguageDefault: {
			Title:       title.String,
			Description: description.String,
			Benefits:    benefits.String,
			Keywords:    []string(keywords),
		},
	}
	localized := models.LocalizedText{
		Title:       titleLoc.String,
		Description: descriptionLoc.String,
		Benefits:    benefitsLoc.String,
		Keywords:    []string(keywordsLoc),
	}
	if !localized.IsZero() {
		rec.Text[models.LanguageLocalized] = localized
	}

	if len(rules) > 0 {
		dec := json.NewDecoder(strings.NewReader(string(rules)))
		dec.UseNumber()
		if err := dec.Decode(&rec.EligibilityRules); err != nil {
			rec.EligibilityRules = models.UndecodableRules(string(rules))
		}
	}
	if deadline.Valid {
		d := deadline.Time
		rec.Deadline = &d
	}
	return &rec, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
