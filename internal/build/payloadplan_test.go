package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpmforge/rpmbuilder/internal/rpm"
	"github.com/rpmforge/rpmbuilder/internal/spec"
)

func writeFixture(t *testing.T, root string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "usr", "bin"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "usr", "share", "doc", "x"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "usr", "bin", "x"), []byte("#!/bin/sh\n"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "usr", "share", "doc", "x", "README"), []byte("hi"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "usr", "share", "doc", "x", "CHANGES"), []byte("log"), 0644))
}

func TestBuildPayloadPlanExpandsGlobsAgainstBuildRoot(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root)

	manifest := []spec.FileEntry{
		{Pattern: "/usr/bin/x"},
		{Pattern: "/usr/share/doc/x/**", Flags: spec.FileDoc},
	}
	plan, err := BuildPayloadPlan(root, manifest)
	require.NoError(t, err)

	names := make([]string, len(plan))
	for i, e := range plan {
		names[i] = e.ArchiveName
	}
	assert.Contains(t, names, "/usr/bin/x")
	assert.Contains(t, names, "/usr/share/doc/x/README")
	assert.Contains(t, names, "/usr/share/doc/x/CHANGES")
}

func TestBuildPayloadPlanMarksDocFlag(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root)

	plan, err := BuildPayloadPlan(root, []spec.FileEntry{
		{Pattern: "/usr/share/doc/x/README", Flags: spec.FileDoc},
	})
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.NotZero(t, plan[0].Flags&rpm.RPMFileDoc)
}

func TestBuildPayloadPlanUnmatchedGlobIsError(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root)

	_, err := BuildPayloadPlan(root, []spec.FileEntry{{Pattern: "/nonexistent/path"}})
	require.Error(t, err)
}

func TestBuildPayloadPlanDeduplicatesOverlappingGlobs(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root)

	plan, err := BuildPayloadPlan(root, []spec.FileEntry{
		{Pattern: "/usr/bin/x"},
		{Pattern: "/usr/bin/*"},
	})
	require.NoError(t, err)
	assert.Len(t, plan, 1)
}

func TestBuildPayloadPlanRecordsSymlinkTarget(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root)
	link := filepath.Join(root, "usr", "bin", "x-link")
	require.NoError(t, os.Symlink("x", link))

	plan, err := BuildPayloadPlan(root, []spec.FileEntry{{Pattern: "/usr/bin/x-link"}})
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, "x", plan[0].LinkTarget)
}
