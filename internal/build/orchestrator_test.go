package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/rpmforge/rpmbuilder/internal/macro"
	"github.com/rpmforge/rpmbuilder/internal/spec"
)

func parseTestSpec(t *testing.T, content string) *spec.Spec {
	t.Helper()
	s, err := spec.Parse("t.spec", content, macro.NewContext(nil), spec.Options{
		CurrentArch: "x86_64",
		CurrentOS:   "linux",
	})
	require.NoError(t, err)
	return s
}

func TestRunScriptStageSucceeds(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")
	content := "Name: x\nVersion: 1\nRelease: 1\n%install\ntouch " + marker + "\n"
	s := parseTestSpec(t, content)
	s.BuildRoot = dir

	o := New(Config{TempDir: dir, Interpreter: "/bin/sh"}, nil)
	err := o.Run(context.Background(), s, NewPlan(Install), dir)
	require.NoError(t, err)

	_, statErr := os.Stat(marker)
	require.NoError(t, statErr, "install script should have run and created the marker file")
}

func TestRunScriptStageFailureReturnsErrScript(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	content := "Name: x\nVersion: 1\nRelease: 1\n%build\nexit 7\n"
	s := parseTestSpec(t, content)
	s.BuildRoot = dir

	o := New(Config{TempDir: dir, Interpreter: "/bin/sh"}, nil)
	err := o.Run(context.Background(), s, NewPlan(Build), dir)
	require.Error(t, err)
	scriptErr, ok := err.(*ErrScript)
	require.True(t, ok, "expected *ErrScript, got %T", err)
	require.Equal(t, 7, scriptErr.ExitCode)
	require.Equal(t, Build, scriptErr.Stage)
}

func TestRunScriptStageWithNoBodyIsNoOp(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	s := parseTestSpec(t, "Name: x\nVersion: 1\nRelease: 1\n")
	s.BuildRoot = dir

	o := New(Config{TempDir: dir, Interpreter: "/bin/sh"}, nil)
	err := o.Run(context.Background(), s, NewPlan(Prep, Build), dir)
	require.NoError(t, err)
}

func TestScriptTempFileIsCleanedUpOnSuccessAndFailure(t *testing.T) {
	dir := t.TempDir()

	ok := parseTestSpec(t, "Name: x\nVersion: 1\nRelease: 1\n%prep\ntrue\n")
	ok.BuildRoot = dir
	o := New(Config{TempDir: dir, Interpreter: "/bin/sh"}, nil)
	require.NoError(t, o.Run(context.Background(), ok, NewPlan(Prep), dir))

	bad := parseTestSpec(t, "Name: x\nVersion: 1\nRelease: 1\n%prep\nexit 1\n")
	bad.BuildRoot = dir
	require.Error(t, o.Run(context.Background(), bad, NewPlan(Prep), dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.NotContains(t, e.Name(), "rpmbuilder-prep", "temp script file must be unlinked on every exit path")
	}
}

func TestShortCircuitSkipsUnchangedStage(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "count")

	content := "Name: x\nVersion: 1\nRelease: 1\n%prep\necho x >> " + marker + "\n"
	s1 := parseTestSpec(t, content)
	s1.BuildRoot = dir
	o := New(Config{TempDir: dir, Interpreter: "/bin/sh"}, nil)

	plan := Plan{Stages: 1 << Prep, ShortCircuit: true}
	require.NoError(t, o.Run(context.Background(), s1, plan, dir))

	s2 := parseTestSpec(t, content)
	s2.BuildRoot = dir
	require.NoError(t, o.Run(context.Background(), s2, plan, dir))

	data, err := os.ReadFile(marker)
	require.NoError(t, err)
	require.Equal(t, "x\n", string(data), "second run should have been skipped as unchanged under short-circuit")
}
