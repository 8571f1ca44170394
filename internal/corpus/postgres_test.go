package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scheme-workers/internal/models"
)

var schemeRowColumns = []string{
	"id", "category", "subcategory",
	"title", "description", "benefits", "keywords",
	"title_localized", "description_localized", "benefits_localized", "keywords_localized",
	"eligibility_rules", "created_at", "deadline", "active",
}

func newMockAccessor(t *testing.T) (*PostgresAccessor, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresAccessor(db), mock
}

func TestPostgresAccessor_FetchByCategory(t *testing.T) {
	acc, mock := newMockAccessor(t)
	created := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	deadline := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(schemeRowColumns).
		AddRow("pm-kisan", "Agriculture", nil,
			"PM-KISAN", "Income support for farmers", "Rs 6000", "{farmer,kisan}",
			"पीएम किसान", nil, nil, "{किसान}",
			[]byte(`{"occupation":"farmer","landholding":"<2"}`), created, deadline, true).
		AddRow("pmfby", "Agriculture", "Insurance",
			"Fasal Bima", "Crop insurance", nil, "{crop}",
			nil, nil, nil, "{}",
			nil, created, nil, true)

	mock.ExpectQuery(`SELECT (.+) FROM schemes WHERE active = true AND LOWER\(category\) = LOWER\(\$1\)`).
		WithArgs("agriculture").
		WillReturnRows(rows)

	got, err := acc.FetchByCategory(context.Background(), "agriculture")
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, "pm-kisan", first.ID)
	assert.Equal(t, []string{"farmer", "kisan"}, first.Text[models.LanguageDefault].Keywords)
	assert.Equal(t, "पीएम किसान", first.TextFor(models.LanguageLocalized).Title)
	assert.Equal(t, "farmer", first.EligibilityRules["occupation"])
	require.NotNil(t, first.Deadline)
	assert.True(t, first.Deadline.Equal(deadline))

	second := got[1]
	assert.Equal(t, "Insurance", second.Subcategory)
	assert.Nil(t, second.Deadline)
	assert.Empty(t, second.EligibilityRules)
	_, hasLocalized := second.Text[models.LanguageLocalized]
	assert.False(t, hasLocalized)
	assert.Equal(t, "Fasal Bima", second.TextFor(models.LanguageLocalized).Title)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAccessor_FetchAll_UndecodableRulesKeepsRows(t *testing.T) {
	acc, mock := newMockAccessor(t)
	created := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(schemeRowColumns).
		AddRow("bad", "Agriculture", nil, "Broken", "Broken rules", nil, "{farmer}",
			nil, nil, nil, "{}", []byte(`{"occupation":`), created, nil, true).
		AddRow("pm-kisan", "Agriculture", nil, "PM-KISAN", "Income support", nil, "{farmer}",
			nil, nil, nil, "{}", []byte(`{"occupation":"farmer"}`), created, nil, true)
	mock.ExpectQuery(`SELECT (.+) FROM schemes WHERE active = true`).WillReturnRows(rows)

	got, err := acc.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.UndecodableRules(`{"occupation":`), got[0].EligibilityRules)
	assert.Equal(t, "farmer", got[1].EligibilityRules["occupation"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAccessor_FetchAll_QueryError(t *testing.T) {
	acc, mock := newMockAccessor(t)
	mock.ExpectQuery(`SELECT (.+) FROM schemes WHERE active = true`).
		WillReturnError(errors.New("connection refused"))

	_, err := acc.FetchAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorpusQuery)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAccessor_FetchByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		acc, mock := newMockAccessor(t)
		rows := sqlmock.NewRows(schemeRowColumns).
			AddRow("apy", "Pension", nil, "Atal Pension", "Pension", nil, "{pension}",
				nil, nil, nil, "{}", []byte(`{"age_min":18,"age_max":40}`), time.Now(), nil, true)
		mock.ExpectQuery(`SELECT (.+) FROM schemes WHERE id = \$1`).
			WithArgs("apy").
			WillReturnRows(rows)

		rec, err := acc.FetchByID(context.Background(), "apy")
		require.NoError(t, err)
		assert.Equal(t, "Pension", rec.Category)
		assert.Equal(t, json.Number("18"), rec.EligibilityRules["age_min"])
	})

	t.Run("missing", func(t *testing.T) {
		acc, mock := newMockAccessor(t)
		mock.ExpectQuery(`SELECT (.+) FROM schemes WHERE id = \$1`).
			WithArgs("nope").
			WillReturnRows(sqlmock.NewRows(schemeRowColumns))

		_, err := acc.FetchByID(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrSchemeNotFound)
	})
}

func TestPostgresAccessor_PopularQueries(t *testing.T) {
	acc, mock := newMockAccessor(t)
	mock.ExpectQuery(`SELECT query_text FROM search_queries WHERE query_text ILIKE (.+) GROUP BY query_text ORDER BY COUNT\(\*\) DESC, query_text ASC LIMIT 20`).
		WithArgs("farm").
		WillReturnRows(sqlmock.NewRows([]string{"query_text"}).
			AddRow("farmer loan").
			AddRow("farm equipment subsidy"))

	got, err := acc.FetchPopularQueries(context.Background(), "Farm")
	require.NoError(t, err)
	assert.Equal(t, []string{"farmer loan", "farm equipment subsidy"}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAccessor_RecordQuery(t *testing.T) {
	acc, mock := newMockAccessor(t)
	mock.ExpectExec(`INSERT INTO search_queries \(query_text,language,created_at\) VALUES \(\$1,\$2,\$3\)`).
		WithArgs("farmer loan", "default", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, acc.RecordQuery(context.Background(), "farmer loan", models.LanguageDefault))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now`, escapeLike("50% off_now"))
}
