package recommendschemes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scheme-workers/internal/common/config"
	"scheme-workers/internal/common/logger"
	"scheme-workers/internal/corpus"
	"scheme-workers/internal/models"
	"scheme-workers/internal/ranking/engine"
)

type downAccessor struct{ corpus.Accessor }

func (downAccessor) FetchAll(context.Context) ([]models.SchemeRecord, error) {
	return nil, errors.New("connection reset")
}

func createTestHandler(t *testing.T, acc corpus.Accessor) *Handler {
	t.Helper()
	log := logger.NewTestLogger(t)
	eng, err := engine.New(acc, nil, engine.Options{FetchTimeout: time.Second}, nil, log)
	require.NoError(t, err)
	t.Cleanup(eng.Close)
	return NewHandler(NewConfig(&config.Config{}), eng, log)
}

func intPtr(v int) *int { return &v }

func TestHandler_Execute_Personalized(t *testing.T) {
	h := createTestHandler(t, corpus.NewStaticAccessor(corpus.DefaultStaticSchemes(), nil))

	out, err := h.Execute(context.Background(), &Input{
		Profile: &models.UserProfile{Gender: "female", Age: intPtr(28)},
		Limit:   3,
	})
	require.NoError(t, err)
	require.Len(t, out.Recommendations, 3)
	assert.True(t, out.Personalized)

	ids := make([]string, 0, 3)
	for _, r := range out.Recommendations {
		ids = append(ids, r.SchemeID)
		assert.Equal(t, 100.0, r.EligibilityScore)
	}
	// equal composites fall back to id order
	assert.Equal(t, []string{"apy", "pmkvy", "pmuy"}, ids)
}

func TestHandler_Execute_Anonymous(t *testing.T) {
	h := createTestHandler(t, corpus.NewStaticAccessor(corpus.DefaultStaticSchemes(), nil))

	out, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.False(t, out.Personalized)
	for _, r := range out.Recommendations {
		assert.Equal(t, 50.0, r.EligibilityScore)
	}
}

func TestHandler_Execute_MinEligibility(t *testing.T) {
	h := createTestHandler(t, corpus.NewStaticAccessor(corpus.DefaultStaticSchemes(), nil))
	h.config.MinEligibility = 60

	out, err := h.Execute(context.Background(), &Input{
		Profile: &models.UserProfile{Occupation: "student", Age: intPtr(70)},
		Limit:   20,
	})
	require.NoError(t, err)
	for _, r := range out.Recommendations {
		assert.GreaterOrEqual(t, r.EligibilityScore, 60.0)
	}
}

func TestHandler_Execute_Degraded(t *testing.T) {
	h := createTestHandler(t, downAccessor{})

	out, err := h.Execute(context.Background(), &Input{Profile: &models.UserProfile{Occupation: "farmer"}})
	require.NoError(t, err)
	assert.True(t, out.Degraded)
	assert.Empty(t, out.Recommendations)
	assert.Equal(t, 0, out.TotalCandidates)
}
