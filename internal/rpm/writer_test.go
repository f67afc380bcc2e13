package rpm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpmforge/rpmbuilder/internal/header"
)

func newTestHeader(t *testing.T) *header.Header {
	t.Helper()
	h := header.New()
	require.NoError(t, h.Put(TagName, header.Value{Type: header.Str, Str: "hello"}))
	require.NoError(t, h.Put(TagVersion, header.Value{Type: header.Str, Str: "1.0"}))
	require.NoError(t, h.Put(TagRelease, header.Value{Type: header.Str, Str: "1"}))
	return h
}

func TestWriterWriteBinaryProducesRPMFile(t *testing.T) {
	srcDir := t.TempDir()
	destDir := t.TempDir()
	tempDir := t.TempDir()

	srcFile := filepath.Join(srcDir, "hello")
	require.NoError(t, os.WriteFile(srcFile, []byte("#!/bin/sh\necho hi\n"), 0755))

	plan := []PayloadPlanEntry{
		{SrcPath: srcFile, ArchiveName: "/usr/bin/hello", Mode: 0100755, Size: 18, UserName: "root", GroupName: "root"},
	}

	w := NewWriter(tempDir)
	path, err := w.WriteBinary(newTestHeader(t), plan, destDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(destDir, "hello-1.0-1.x86_64.rpm"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, len(data) > 96)
	assert.Equal(t, []byte{0xed, 0xab, 0xee, 0xdb}, data[0:4])
}

func TestWriterWriteSourceUsesSrcSuffix(t *testing.T) {
	destDir := t.TempDir()
	w := NewWriter(t.TempDir())
	path, err := w.WriteSource(newTestHeader(t), nil, destDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(destDir, "hello-1.0-1.src.rpm"), path)
}

func TestWriterCleansUpTempFileOnSignError(t *testing.T) {
	destDir := t.TempDir()
	tempDir := t.TempDir()
	w := NewWriter(tempDir)
	w.Signer = &fakeSigner{err: assert.AnError}

	_, err := w.WriteBinary(newTestHeader(t), nil, destDir)
	require.Error(t, err)

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), "rpmbuilder-pkg")
	}
}
