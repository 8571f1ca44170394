package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scheme-workers/pkg/registry"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestAddUpdateValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity-registry.json")

	out, err := run(t, "add", "recommend-schemes", "--path", path,
		"--display-name", "Recommend Schemes", "--description", "Profile-driven recommendations", "--surface", "recommend")
	require.NoError(t, err)
	assert.Contains(t, out, "Added activity: recommend-schemes")

	_, err = run(t, "add", "recommend-schemes", "--path", path,
		"--display-name", "Again", "--description", "dup")
	assert.ErrorIs(t, err, registry.ErrActivityExists)

	out, err = run(t, "update", "recommend-schemes", "status", "completed", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "field status to completed")

	out, err = run(t, "validate", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 activities")

	reg, err := registry.LoadRegistry(path)
	require.NoError(t, err)
	a, ok := reg.Find("recommend-schemes")
	require.True(t, ok)
	assert.Equal(t, "recommend-schemes", a.TaskType)
	assert.Equal(t, "recommend", a.Surface)
	assert.Equal(t, "completed", a.ImplementationStatus)
}

func TestUpdateRequiresThreeArgs(t *testing.T) {
	_, err := run(t, "update", "recommend-schemes", "status")
	assert.Error(t, err)
}

func TestValidateMissingFile(t *testing.T) {
	_, err := run(t, "validate", "--path", filepath.Join(t.TempDir(), "none.json"))
	assert.ErrorContains(t, err, "failed to load registry")
}
