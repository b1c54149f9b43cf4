package manager

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_FreshRootIsHealthy(t *testing.T) {
	f := newFixture(t)

	report, err := f.mgr.Check()
	require.NoError(t, err)
	assert.True(t, report.Healthy())
	assert.Equal(t, 0, report.Records)
	assert.Nil(t, report.Current)
	assert.Equal(t, ScriptNone, report.ScriptState)
	assert.Equal(t, report.LatestSchema, report.SchemaVersion)
}

func TestCheck_FindsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.mgr.Install(ctx, "nightly")
	require.NoError(t, err)
	b, err := f.mgr.Install(ctx, "0.3.0")
	require.NoError(t, err)
	_, err = f.mgr.Switch(a.ID)
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(f.layout.PackagePath(b.ID)))
	require.NoError(t, os.MkdirAll(f.layout.PackagePath(17), 0o755))
	require.NoError(t, os.MkdirAll(f.layout.TrashPath(5), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(f.layout.StoreDir(), "notes"), 0o755))

	report, err := f.mgr.Check()
	require.NoError(t, err)
	assert.False(t, report.Healthy())
	assert.Equal(t, 2, report.Records)
	require.NotNil(t, report.Current)
	assert.Equal(t, a.ID, report.Current.ID)
	require.Len(t, report.MissingDirectories, 1)
	assert.Equal(t, b.ID, report.MissingDirectories[0].ID)
	assert.Equal(t, []string{f.layout.PackagePath(17)}, report.OrphanDirectories)
	assert.Equal(t, []string{f.layout.TrashPath(5)}, report.TrashDirectories)
	assert.Equal(t, ScriptOK, report.ScriptState)
}

func TestCheck_ScriptStates(t *testing.T) {
	f := newFixture(t)
	a, err := f.mgr.Install(context.Background(), "nightly")
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(f.layout.BinDir(), 0o755))
	require.NoError(t, os.WriteFile(f.layout.DispatchScriptPath(), []byte("#!/bin/sh\n"), 0o755))
	report, err := f.mgr.Check()
	require.NoError(t, err)
	assert.Equal(t, ScriptUnmanaged, report.ScriptState)

	_, err = f.mgr.Switch(a.ID)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(f.layout.DispatchScriptPath(), []byte("#!/bin/sh\nexec true\n"), 0o755))
	report, err = f.mgr.Check()
	require.NoError(t, err)
	assert.Equal(t, ScriptStale, report.ScriptState)

	require.NoError(t, os.Remove(f.layout.DispatchScriptPath()))
	report, err = f.mgr.Check()
	require.NoError(t, err)
	assert.Equal(t, ScriptMissing, report.ScriptState)
}

func TestPrune_RemovesLeftoversAndRepairsScript(t *testing.T) {
	f := newFixture(t)
	a, err := f.mgr.Install(context.Background(), "nightly")
	require.NoError(t, err)
	_, err = f.mgr.Switch(a.ID)
	require.NoError(t, err)
	want := f.script(t)

	require.NoError(t, os.Remove(f.layout.DispatchScriptPath()))
	require.NoError(t, os.MkdirAll(f.layout.PackagePath(9), 0o755))
	require.NoError(t, os.MkdirAll(f.layout.TrashPath(3), 0o755))

	_, res, err := f.mgr.Prune()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{f.layout.PackagePath(9), f.layout.TrashPath(3)}, res.Removed)
	assert.True(t, res.ScriptRewritten)
	assert.Equal(t, want, f.script(t))
	assert.DirExists(t, f.layout.PackagePath(a.ID))

	report, err := f.mgr.Check()
	require.NoError(t, err)
	assert.True(t, report.Healthy())
}

func TestPrune_KeepsRecordsWithMissingDirectories(t *testing.T) {
	f := newFixture(t)
	a, err := f.mgr.Install(context.Background(), "0.3.0")
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(f.layout.PackagePath(a.ID)))

	report, res, err := f.mgr.Prune()
	require.NoError(t, err)
	assert.Empty(t, res.Removed)
	assert.False(t, res.ScriptRewritten)
	require.Len(t, report.MissingDirectories, 1)

	cur, err := f.mgr.Current()
	require.NoError(t, err)
	assert.Nil(t, cur)
	all, err := f.mgr.List()
	require.NoError(t, err)
	assert.Len(t, all.Stables, 1)
}
