package registry

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scheme-workers/internal/common/config"
)

func shippedConfig() *config.Config {
	return &config.Config{
		Workers: map[string]config.WorkerConfig{
			"search-schemes":               {Enabled: true},
			"match-scheme-keywords":        {Enabled: true},
			"recommend-schemes":            {Enabled: true},
			"generate-smart-notifications": {Enabled: true},
			"check-scheme-eligibility":     {Enabled: true},
		},
		Ranking: config.RankingConfig{
			Surfaces: map[string]config.SurfaceConfig{
				"search":        {},
				"match":         {},
				"recommend":     {},
				"notifications": {},
			},
		},
	}
}

func TestShippedRegistryIsValid(t *testing.T) {
	reg, err := LoadRegistry(filepath.Join("..", "..", "configs", "activity-registry.json"))
	require.NoError(t, err)

	assert.Len(t, reg.Activities, 5)
	assert.NoError(t, reg.Validate(shippedConfig()))

	a, ok := reg.Find("check-scheme-eligibility")
	require.True(t, ok)
	assert.Contains(t, a.ErrorCodes, "SCHEME_NOT_FOUND")
	assert.Empty(t, a.Surface)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	reg := &ActivityRegistry{Activities: []Activity{
		{ID: "search-schemes", DisplayName: "Search", Category: "schemes", TaskType: "search-schemes", ImplementationStatus: "completed", Surface: "browse"},
		{ID: "search-schemes", DisplayName: "Search", Category: "schemes", TaskType: "search-schemes", ImplementationStatus: "shipped", Timeout: "soon"},
		{ID: "broken", DisplayName: "Broken", Category: "schemes", TaskType: "broken", ImplementationStatus: "planned",
			InputSchema: map[string]interface{}{"type": 12}},
	}}

	err := reg.Validate(shippedConfig())
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "duplicate activity ID: search-schemes")
	assert.Contains(t, msg, `unknown status "shipped"`)
	assert.Contains(t, msg, "invalid timeout")
	assert.Contains(t, msg, `unconfigured surface "browse"`)
	assert.Contains(t, msg, "broken inputSchema")
	assert.Contains(t, msg, "configured worker recommend-schemes has no registry activity")
}

func TestValidate_EmptyRegistry(t *testing.T) {
	assert.EqualError(t, (&ActivityRegistry{}).Validate(nil), "registry contains no activities")
}

func TestAddUpdateSaveRoundTrip(t *testing.T) {
	reg := &ActivityRegistry{Version: "1.0.0"}
	require.NoError(t, reg.Add(Activity{ID: "recommend-schemes", DisplayName: "Recommend", Category: "schemes", TaskType: "recommend-schemes", ImplementationStatus: "planned"}))
	assert.ErrorIs(t, reg.Add(Activity{ID: "recommend-schemes"}), ErrActivityExists)

	require.NoError(t, reg.Update("recommend-schemes", "status", "completed"))
	require.NoError(t, reg.Update("recommend-schemes", "retries", "2"))
	require.NoError(t, reg.Update("recommend-schemes", "timeout", "5s"))
	assert.Error(t, reg.Update("recommend-schemes", "retries", "two"))
	assert.Error(t, reg.Update("recommend-schemes", "timeout", "later"))
	assert.Error(t, reg.Update("recommend-schemes", "owner", "x"))
	assert.ErrorIs(t, reg.Update("missing", "status", "completed"), ErrActivityNotFound)

	path := filepath.Join(t.TempDir(), "nested", "registry.json")
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, reg.Save(path, now))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01T10:00:00Z", loaded.LastUpdated)
	a, ok := loaded.Find("recommend-schemes")
	require.True(t, ok)
	assert.Equal(t, "completed", a.ImplementationStatus)
	assert.Equal(t, 2, a.Retries)
	assert.Equal(t, "5s", a.Timeout)
	assert.NoError(t, loaded.Validate(nil))
}
